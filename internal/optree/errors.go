package optree

import "fmt"

// MalformedKind classifies what a MalformedTreeError found.
type MalformedKind uint8

const (
	// MalformedLayout is a structural violation: bad try shape, a node
	// owned by two parents, a missing root.
	MalformedLayout MalformedKind = iota
	// MalformedUnknownKind is a node kind outside the closed set.
	MalformedUnknownKind
	// MalformedDepth means nesting exceeded the defensive walk limit.
	MalformedDepth
	// MalformedReference is a child id pointing outside the arena.
	MalformedReference
)

// MalformedTreeError reports input the engine refuses to analyze.
// Skipping such nodes silently would risk missed violations, so they
// always surface to the caller instead of reading as "no violation".
type MalformedTreeError struct {
	Node   NodeID
	Kind   MalformedKind
	Reason string
}

func (e *MalformedTreeError) Error() string {
	if e.Node.IsValid() {
		return fmt.Sprintf("malformed tree at node %d: %s", e.Node, e.Reason)
	}
	return fmt.Sprintf("malformed tree: %s", e.Reason)
}
