package rewrite

import (
	"fmt"

	"treelint/internal/optree"
	"treelint/internal/rules"
)

// Propose computes the minimal structural edit that removes the violating
// construct. It validates that the violation still matches the tree it is
// applied against; a moved or vanished target yields ErrStaleReference.
func Propose(v rules.Violation, t *optree.Tree) (*Plan, error) {
	n := t.Node(v.Node)
	if n == nil {
		return nil, fmt.Errorf("node %d not allocated: %w", v.Node, ErrStaleReference)
	}
	if n.Span != v.Span {
		return nil, fmt.Errorf("node %d span moved from %s to %s: %w", v.Node, v.Span, n.Span, ErrStaleReference)
	}

	parents := t.ParentIndex()
	parent, reachable := parents[v.Node]
	if !reachable {
		return nil, fmt.Errorf("node %d not reachable from root: %w", v.Node, ErrStaleReference)
	}

	plan := &Plan{
		Target: v.Node,
		Span:   n.Span,
		RuleID: v.RuleID,
	}

	switch n.Kind {
	case optree.KindThrow:
		// Inside a block the statement can simply go away. Anywhere
		// else the slot must stay occupied, so substitute a no-op.
		if p := t.Node(parent); p != nil && p.Kind == optree.KindBlock {
			plan.Op = OpDelete
			plan.Title = "remove the throw statement"
		} else {
			plan.Op = OpReplace
			plan.Title = "replace the throw with a no-op"
		}
	case optree.KindFinally:
		plan.Op = OpDelete
		plan.Title = "delete the finally region"
	default:
		plan.Op = OpReplace
		plan.Title = fmt.Sprintf("replace the %s with a no-op", n.Kind)
	}
	return plan, nil
}
