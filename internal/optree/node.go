package optree

import "treelint/internal/source"

// NodeKind tags the closed set of node shapes the engine understands.
// The set is deliberately small: front ends collapse everything the rules
// do not care about into KindBlock / KindCond / KindLeaf.
type NodeKind uint8

const (
	// KindBlock is an ordered sequence of statements.
	KindBlock NodeKind = iota
	// KindTry is a try construct. Children follow a fixed convention:
	// index 0 is the protected block, then zero or more KindCatch
	// clauses, then at most one trailing KindFinally region.
	KindTry
	// KindCatch is one catch clause of the enclosing try.
	KindCatch
	// KindFinally is the cleanup region of the enclosing try.
	KindFinally
	// KindThrow is a throw site. A child, when present, is the thrown
	// payload expression; no children means a bare rethrow.
	KindThrow
	// KindCond is a conditional wrapper (if/switch arm). Transparent to
	// region tracking.
	KindCond
	// KindLambda is a deferred function literal. Its body is walked like
	// any other subtree; region tracking deliberately does not reset at
	// the lambda boundary (documented imprecision of the reference rule).
	KindLambda
	// KindLeaf is any opaque statement or expression the rules never
	// need to look inside.
	KindLeaf

	// KindCount is the size of the closed kind set; useful for per-kind
	// counter arrays.
	KindCount
)

var kindNames = [...]string{
	KindBlock:   "block",
	KindTry:     "try",
	KindCatch:   "catch",
	KindFinally: "finally",
	KindThrow:   "throw",
	KindCond:    "cond",
	KindLambda:  "lambda",
	KindLeaf:    "leaf",
}

func (k NodeKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsValid reports whether k is a member of the closed kind set.
func (k NodeKind) IsValid() bool {
	return k < KindCount
}

// KindFromString is the inverse of String, used when decoding tree
// documents. The bool is false for names outside the closed set.
func KindFromString(name string) (NodeKind, bool) {
	for k, n := range kindNames {
		if n == name {
			return NodeKind(k), true
		}
	}
	return 0, false
}

// Node is one position in an operation tree. Children are ordered
// left-to-right in document order and are exclusively owned by their
// parent: a well-formed tree shares no subtrees and has no cycles.
type Node struct {
	Kind     NodeKind
	Span     source.Span
	Children []NodeID
}
