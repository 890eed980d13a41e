package rewrite

import (
	"fmt"
	"sort"

	"treelint/internal/optree"
)

// Apply threads the plans into a copy of the tree and returns the copy.
// The input tree is left untouched.
//
// All plans are validated before anything is edited: a stale target or a
// pair of overlapping plans rejects the whole batch, so Apply either
// performs every plan or none. Plans are applied in document order to keep
// the result deterministic regardless of the order violations were
// selected in.
func Apply(t *optree.Tree, plans []*Plan) (*optree.Tree, error) {
	if len(plans) == 0 {
		return t, nil
	}

	parents := t.ParentIndex()

	// Staleness first: every target must still sit where the plan saw it.
	targets := make(map[optree.NodeID]*Plan, len(plans))
	for _, plan := range plans {
		n := t.Node(plan.Target)
		if n == nil {
			return nil, fmt.Errorf("node %d not allocated: %w", plan.Target, ErrStaleReference)
		}
		if n.Span != plan.Span {
			return nil, fmt.Errorf("node %d span moved: %w", plan.Target, ErrStaleReference)
		}
		if _, ok := parents[plan.Target]; !ok {
			return nil, fmt.Errorf("node %d not reachable from root: %w", plan.Target, ErrStaleReference)
		}
		if _, dup := targets[plan.Target]; dup {
			return nil, fmt.Errorf("two plans target node %d: %w", plan.Target, ErrConflict)
		}
		targets[plan.Target] = plan
	}

	// Overlap: no plan may target an ancestor of another plan's target.
	// Deleting or replacing an ancestor would silently swallow the other
	// edit.
	for _, plan := range plans {
		for ancestor := parents[plan.Target]; ancestor.IsValid(); ancestor = parents[ancestor] {
			if other, ok := targets[ancestor]; ok {
				return nil, fmt.Errorf("plan for node %d overlaps plan for ancestor %d: %w",
					plan.Target, other.Target, ErrConflict)
			}
		}
	}

	ordered := make([]*Plan, len(plans))
	copy(ordered, plans)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Span.Start != ordered[j].Span.Start {
			return ordered[i].Span.Start < ordered[j].Span.Start
		}
		if ordered[i].Span.End != ordered[j].Span.End {
			return ordered[i].Span.End < ordered[j].Span.End
		}
		return ordered[i].Target < ordered[j].Target
	})

	// Node IDs are stable across Clone, so the parent index computed on
	// the original remains valid for the copy.
	out := t.Clone()
	for _, plan := range ordered {
		parent := parents[plan.Target]
		switch plan.Op {
		case OpReplace:
			replacement := out.New(optree.KindLeaf, plan.Span)
			if !parent.IsValid() {
				out.SetRoot(replacement)
				continue
			}
			kids := out.Node(parent).Children
			for i, child := range kids {
				if child == plan.Target {
					kids[i] = replacement
					break
				}
			}
		case OpDelete:
			if !parent.IsValid() {
				out.SetRoot(optree.NoNodeID)
				continue
			}
			p := out.Node(parent)
			kids := p.Children[:0]
			for _, child := range p.Children {
				if child != plan.Target {
					kids = append(kids, child)
				}
			}
			p.Children = kids
		default:
			return nil, fmt.Errorf("unknown rewrite op %d", plan.Op)
		}
	}
	return out, nil
}
