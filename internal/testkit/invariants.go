// Package testkit holds invariant checks shared by tests across packages.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"treelint/internal/optree"
	"treelint/internal/source"
)

// CheckTreeInvariants runs the structural invariants every well-formed
// operation tree must satisfy:
// 1) every child reference points at an allocated node
// 2) every node has at most one parent and the root has none
// 3) node spans are contained in their file and parents cover children
func CheckTreeInvariants(t *optree.Tree, sf *source.File) error {
	if t == nil {
		return fmt.Errorf("nil tree")
	}
	if !t.Root().IsValid() {
		if t.Len() == 0 {
			return nil
		}
		return fmt.Errorf("non-empty tree without a root")
	}

	var contentLen uint32
	if sf != nil {
		var err error
		contentLen, err = safecast.Conv[uint32](len(sf.Content))
		if err != nil {
			return fmt.Errorf("content length overflow: %w", err)
		}
	}

	parentCount := make(map[optree.NodeID]int, t.Len())
	for id := optree.NodeID(1); uint32(id) <= t.Len(); id++ {
		n := t.Node(id)
		if n.Span.End < n.Span.Start {
			return fmt.Errorf("node %d: span end before start: %v", id, n.Span)
		}
		if sf != nil && len(sf.Content) > 0 && n.Span.End > contentLen {
			return fmt.Errorf("node %d: span end %d beyond content length %d", id, n.Span.End, contentLen)
		}
		for _, child := range n.Children {
			c := t.Node(child)
			if c == nil {
				return fmt.Errorf("node %d: child %d not allocated", id, child)
			}
			parentCount[child]++
			if parentCount[child] > 1 {
				return fmt.Errorf("node %d owned by more than one parent", child)
			}
			if !n.Span.Contains(c.Span) {
				return fmt.Errorf("node %d span %v does not cover child %d span %v", id, n.Span, child, c.Span)
			}
		}
	}

	if parentCount[t.Root()] != 0 {
		return fmt.Errorf("root node %d referenced as a child", t.Root())
	}
	return nil
}
