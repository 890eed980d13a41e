package optree

import (
	"fmt"

	"treelint/internal/source"
)

// Tree is one operation tree produced by an external front end. Nodes live
// in an arena and reference each other by NodeID. A Tree is treated as
// immutable once built: rewrites produce a new Tree, never mutate one.
type Tree struct {
	nodes *Arena[Node]
	root  NodeID
}

// NewTree allocates an empty tree with room for capHint nodes.
func NewTree(capHint uint) *Tree {
	if capHint == 0 {
		capHint = 1 << 6
	}
	return &Tree{
		nodes: NewArena[Node](capHint),
	}
}

// New allocates a node and returns its ID. Children must already be
// allocated in this tree; ownership transfers to the new node.
func (t *Tree) New(kind NodeKind, span source.Span, children ...NodeID) NodeID {
	kids := make([]NodeID, len(children))
	copy(kids, children)
	return NodeID(t.nodes.Allocate(Node{
		Kind:     kind,
		Span:     span,
		Children: kids,
	}))
}

// SetRoot marks id as the tree root.
func (t *Tree) SetRoot(id NodeID) {
	t.root = id
}

// Root returns the root node ID, NoNodeID for an empty tree.
func (t *Tree) Root() NodeID {
	return t.root
}

// Node returns the node for id, nil when id is not in this tree.
func (t *Tree) Node(id NodeID) *Node {
	return t.nodes.Get(uint32(id))
}

// Len returns the number of allocated nodes.
func (t *Tree) Len() uint32 {
	return t.nodes.Len()
}

// Contains reports whether id is allocated in this tree. Allocation alone
// does not imply reachability from the root; see ParentIndex for that.
func (t *Tree) Contains(id NodeID) bool {
	return id.IsValid() && uint32(id) <= t.nodes.Len()
}

// Clone deep-copies the tree, including every child slice, so the copy can
// be edited without aliasing the original.
func (t *Tree) Clone() *Tree {
	out := NewTree(uint(t.nodes.Len()))
	for _, n := range t.nodes.Slice() {
		kids := make([]NodeID, len(n.Children))
		copy(kids, n.Children)
		out.nodes.Allocate(Node{Kind: n.Kind, Span: n.Span, Children: kids})
	}
	out.root = t.root
	return out
}

// ParentIndex maps every node reachable from the root to its parent.
// The root maps to NoNodeID. A node allocated but unreachable is absent.
func (t *Tree) ParentIndex() map[NodeID]NodeID {
	parents := make(map[NodeID]NodeID, t.nodes.Len())
	if !t.root.IsValid() {
		return parents
	}
	parents[t.root] = NoNodeID
	stack := []NodeID{t.root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := t.Node(id)
		if n == nil {
			continue
		}
		for _, child := range n.Children {
			if _, seen := parents[child]; seen {
				continue
			}
			parents[child] = id
			stack = append(stack, child)
		}
	}
	return parents
}

// TryParts splits a KindTry node's children following the fixed layout:
// protected body, catch clauses, optional trailing finally region.
// Layout violations surface as MalformedTreeError rather than being
// silently reinterpreted.
func (t *Tree) TryParts(id NodeID) (body NodeID, catches []NodeID, cleanup NodeID, err error) {
	n := t.Node(id)
	if n == nil || n.Kind != KindTry {
		return NoNodeID, nil, NoNodeID, &MalformedTreeError{Node: id, Kind: MalformedLayout, Reason: "not a try node"}
	}
	if len(n.Children) == 0 {
		return NoNodeID, nil, NoNodeID, &MalformedTreeError{Node: id, Kind: MalformedLayout, Reason: "try node has no protected body"}
	}

	body = n.Children[0]
	for _, child := range n.Children[1:] {
		c := t.Node(child)
		if c == nil {
			return NoNodeID, nil, NoNodeID, &MalformedTreeError{Node: child, Kind: MalformedReference, Reason: "child id not allocated"}
		}
		switch c.Kind {
		case KindCatch:
			if cleanup.IsValid() {
				return NoNodeID, nil, NoNodeID, &MalformedTreeError{Node: child, Kind: MalformedLayout, Reason: "catch clause after finally region"}
			}
			catches = append(catches, child)
		case KindFinally:
			if cleanup.IsValid() {
				return NoNodeID, nil, NoNodeID, &MalformedTreeError{Node: child, Kind: MalformedLayout, Reason: "try node has two finally regions"}
			}
			cleanup = child
		default:
			return NoNodeID, nil, NoNodeID, &MalformedTreeError{
				Node:   child,
				Kind:   MalformedLayout,
				Reason: fmt.Sprintf("unexpected %s child in try node", c.Kind),
			}
		}
	}
	return body, catches, cleanup, nil
}
