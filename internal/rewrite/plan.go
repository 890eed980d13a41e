// Package rewrite turns violations into structural edit plans and applies
// them to a copy of the tree. The original tree is never mutated: Apply
// returns a new tree with the plans threaded in, so violation references
// held by the caller stay valid against the tree they were computed from.
package rewrite

import (
	"errors"

	"treelint/internal/optree"
	"treelint/internal/source"
)

// ErrStaleReference means a plan's target is no longer present at the
// expected position: the violation was computed against a different tree
// version. Callers should re-run detection and propose again.
var ErrStaleReference = errors.New("rewrite: stale node reference")

// ErrConflict means two plans in one apply pass touch overlapping nodes
// (the same node, or an ancestor/descendant pair). The caller should apply
// the first plan, re-run detection, then retry the rest.
var ErrConflict = errors.New("rewrite: conflicting plans")

// Op is the structural edit a plan performs.
type Op uint8

const (
	// OpReplace swaps the target for an inert leaf, preserving the
	// parent's arity. Used where the parent requires the child slot
	// (e.g. the sole statement of a conditional arm).
	OpReplace Op = iota
	// OpDelete removes the target and splices the parent's remaining
	// children together.
	OpDelete
)

func (op Op) String() string {
	switch op {
	case OpReplace:
		return "replace"
	case OpDelete:
		return "delete"
	}
	return "unknown"
}

// Plan describes one minimal structural edit that removes a violation.
// The edit is purely structural: it makes the tree stop violating the
// rule, it does not try to preserve the program's semantics beyond that.
type Plan struct {
	Target optree.NodeID
	Op     Op
	// Span is the target's span at propose time, used to re-validate the
	// reference at apply time and to report the edit.
	Span   source.Span
	RuleID string
	Title  string
}
