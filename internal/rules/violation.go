package rules

import (
	"treelint/internal/diag"
	"treelint/internal/optree"
	"treelint/internal/source"
	"treelint/internal/walk"
)

// Violation is one confirmed rule match. It is immutable after creation:
// the predicate builds it at the moment the match is confirmed, the
// collector owns it until a caller drains the results, and nothing
// mutates it in between.
type Violation struct {
	Node    optree.NodeID
	RuleID  string
	Code    diag.Code
	Span    source.Span
	Message string
	// Context is the traversal context captured at report time.
	Context walk.Snapshot
}

// Collector accumulates violations in traversal order. The result is a
// materialized, restartable sequence: Items may be ranged over any number
// of times. A collector belongs to a single traversal.
type Collector struct {
	items []Violation
}

func NewCollector() *Collector {
	return &Collector{items: make([]Violation, 0, 8)}
}

// Record appends v. No deduplication happens here: the walker visits each
// node exactly once, so a correct rule cannot produce duplicates.
func (c *Collector) Record(v Violation) {
	c.items = append(c.items, v)
}

// Items returns the violations in the order they were recorded.
// Callers must not modify the returned slice.
func (c *Collector) Items() []Violation {
	return c.items
}

func (c *Collector) Len() int {
	return len(c.items)
}
