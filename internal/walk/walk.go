// Package walk implements the context-tracking depth-first traversal the
// rule engine runs over operation trees.
//
// The traversal is deterministic: children are visited left-to-right in
// document order, every reachable node is visited exactly once, and region
// markers (try, catch, finally, lambda) are pushed on entry and popped on
// exit via defer, so the context is balanced even when a visit callback
// aborts the walk with an error.
package walk

import (
	"fmt"

	"treelint/internal/optree"
)

// VisitFunc is invoked exactly once per visited node, in traversal order.
// Returning a non-nil error aborts the walk; pending region pops still run.
type VisitFunc func(id optree.NodeID, n *optree.Node, ctx *Context) error

// DefaultMaxDepth bounds nesting before the walker gives up. A well-formed
// tree never gets near it; a cyclic node graph smuggled in by a buggy
// front end turns into a MalformedTreeError instead of an unbounded hang.
const DefaultMaxDepth = 4096

// Options configures a traversal.
type Options struct {
	// MaxDepth overrides DefaultMaxDepth when non-zero.
	MaxDepth uint32
}

// Walk traverses the tree from its root with default options. ctx must be
// freshly created or fully unwound (Len() == 0); it ends the walk at depth
// 0 again.
func Walk(t *optree.Tree, ctx *Context, fn VisitFunc) error {
	return WalkWithOptions(t, ctx, fn, Options{})
}

// WalkWithOptions is Walk with an explicit depth limit.
func WalkWithOptions(t *optree.Tree, ctx *Context, fn VisitFunc, opts Options) error {
	if t == nil || !t.Root().IsValid() {
		return nil
	}
	if ctx == nil {
		ctx = NewContext()
	}
	maxDepth := opts.MaxDepth
	if maxDepth == 0 {
		maxDepth = DefaultMaxDepth
	}
	w := &walker{tree: t, ctx: ctx, fn: fn, maxDepth: maxDepth}
	return w.node(t.Root(), 0)
}

type walker struct {
	tree     *optree.Tree
	ctx      *Context
	fn       VisitFunc
	maxDepth uint32
}

func (w *walker) node(id optree.NodeID, depth uint32) error {
	if depth > w.maxDepth {
		return &optree.MalformedTreeError{
			Node:   id,
			Kind:   optree.MalformedDepth,
			Reason: fmt.Sprintf("nesting exceeds depth limit %d", w.maxDepth),
		}
	}

	n := w.tree.Node(id)
	if n == nil {
		return &optree.MalformedTreeError{Node: id, Kind: optree.MalformedReference, Reason: "child id not allocated"}
	}
	if !n.Kind.IsValid() {
		return &optree.MalformedTreeError{
			Node:   id,
			Kind:   optree.MalformedUnknownKind,
			Reason: fmt.Sprintf("unrecognized node kind %d", uint8(n.Kind)),
		}
	}

	if err := w.fn(id, n, w.ctx); err != nil {
		return err
	}

	switch n.Kind {
	case optree.KindTry:
		return w.try(id, depth)
	case optree.KindCatch, optree.KindFinally, optree.KindLambda:
		// Region kinds mark their subtree. The node itself is visited
		// outside the marker; only its children are "inside".
		return w.region(n.Kind, id, n, depth)
	default:
		return w.children(n, depth)
	}
}

// try validates the try layout and walks protected body, catch clauses and
// finally region in that order. Markers for catch and finally are pushed
// by their own subtree visits, so the clauses of one try never see each
// other's regions: a throw in a catch clause is not "inside" the sibling
// finally.
func (w *walker) try(id optree.NodeID, depth uint32) error {
	body, catches, cleanup, err := w.tree.TryParts(id)
	if err != nil {
		return err
	}

	w.ctx.push(optree.KindTry, id)
	defer w.ctx.pop()

	if err := w.node(body, depth+1); err != nil {
		return err
	}
	for _, clause := range catches {
		if err := w.node(clause, depth+1); err != nil {
			return err
		}
	}
	if cleanup.IsValid() {
		return w.node(cleanup, depth+1)
	}
	return nil
}

func (w *walker) region(kind optree.NodeKind, id optree.NodeID, n *optree.Node, depth uint32) error {
	w.ctx.push(kind, id)
	defer w.ctx.pop()
	return w.children(n, depth)
}

func (w *walker) children(n *optree.Node, depth uint32) error {
	for _, child := range n.Children {
		if err := w.node(child, depth+1); err != nil {
			return err
		}
	}
	return nil
}
