package walk

import (
	"errors"
	"testing"

	"treelint/internal/optree"
	"treelint/internal/source"
)

func span(start, end uint32) source.Span {
	return source.Span{Start: start, End: end}
}

// try { } finally { try { } finally { throw } }
func nestedCleanupTree(t *testing.T) (*optree.Tree, optree.NodeID) {
	t.Helper()
	tr := optree.NewTree(0)

	throw := tr.New(optree.KindThrow, span(40, 47))
	innerBody := tr.New(optree.KindBlock, span(30, 32))
	innerFinally := tr.New(optree.KindFinally, span(35, 50), throw)
	innerTry := tr.New(optree.KindTry, span(25, 50), innerBody, innerFinally)

	outerBody := tr.New(optree.KindBlock, span(5, 7))
	outerFinally := tr.New(optree.KindFinally, span(10, 55), innerTry)
	outerTry := tr.New(optree.KindTry, span(0, 55), outerBody, outerFinally)
	tr.SetRoot(outerTry)
	return tr, throw
}

func TestWalkVisitsEveryNodeOnceInOrder(t *testing.T) {
	tr := optree.NewTree(0)
	a := tr.New(optree.KindLeaf, span(0, 1))
	b := tr.New(optree.KindThrow, span(2, 3))
	inner := tr.New(optree.KindBlock, span(0, 3), a, b)
	c := tr.New(optree.KindLeaf, span(4, 5))
	root := tr.New(optree.KindBlock, span(0, 5), inner, c)
	tr.SetRoot(root)

	var order []optree.NodeID
	err := Walk(tr, NewContext(), func(id optree.NodeID, _ *optree.Node, _ *Context) error {
		order = append(order, id)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []optree.NodeID{root, inner, a, b, c}
	if len(order) != len(want) {
		t.Fatalf("expected %d visits, got %d", len(want), len(order))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("visit %d: expected node %d, got %d", i, want[i], order[i])
		}
	}
}

func TestCleanupDepthAtNestedThrow(t *testing.T) {
	tr, throw := nestedCleanupTree(t)

	var depthAtThrow uint32
	var seenThrow bool
	err := Walk(tr, NewContext(), func(id optree.NodeID, n *optree.Node, ctx *Context) error {
		if n.Kind == optree.KindThrow {
			seenThrow = true
			depthAtThrow = ctx.CleanupDepth()
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !seenThrow {
		t.Fatalf("throw node %d was not visited", throw)
	}
	if depthAtThrow != 2 {
		t.Fatalf("expected cleanup depth 2 at nested throw, got %d", depthAtThrow)
	}
}

func TestCatchClauseIsOutsideCleanupRegion(t *testing.T) {
	// try { } catch { throw } finally { }
	tr := optree.NewTree(0)
	body := tr.New(optree.KindBlock, span(5, 6))
	throw := tr.New(optree.KindThrow, span(10, 15))
	catch := tr.New(optree.KindCatch, span(8, 18), throw)
	cleanup := tr.New(optree.KindFinally, span(20, 25))
	try := tr.New(optree.KindTry, span(0, 25), body, catch, cleanup)
	tr.SetRoot(try)

	err := Walk(tr, NewContext(), func(_ optree.NodeID, n *optree.Node, ctx *Context) error {
		if n.Kind == optree.KindThrow {
			if ctx.CleanupDepth() != 0 {
				t.Fatalf("throw in catch clause must not be inside cleanup, depth %d", ctx.CleanupDepth())
			}
			if !ctx.InCatch() {
				t.Fatalf("throw in catch clause must report InCatch")
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestContextBalancedAfterWalk(t *testing.T) {
	tr, _ := nestedCleanupTree(t)
	ctx := NewContext()
	if err := Walk(tr, ctx, func(optree.NodeID, *optree.Node, *Context) error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ctx.Len() != 0 {
		t.Fatalf("context not unwound: %d regions left", ctx.Len())
	}
	for k := optree.NodeKind(0); k.IsValid(); k++ {
		if d := ctx.Depth(k); d != 0 {
			t.Fatalf("depth for %s not back to 0: %d", k, d)
		}
	}
}

func TestContextBalancedAfterAbort(t *testing.T) {
	tr, _ := nestedCleanupTree(t)
	ctx := NewContext()
	boom := errors.New("stop here")

	err := Walk(tr, ctx, func(_ optree.NodeID, n *optree.Node, _ *Context) error {
		if n.Kind == optree.KindThrow {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected abort error, got %v", err)
	}
	if ctx.Len() != 0 {
		t.Fatalf("early abort left %d regions on the context", ctx.Len())
	}
}

func TestWalkIsIdempotent(t *testing.T) {
	tr, _ := nestedCleanupTree(t)

	collect := func() []optree.NodeID {
		var order []optree.NodeID
		if err := Walk(tr, NewContext(), func(id optree.NodeID, _ *optree.Node, _ *Context) error {
			order = append(order, id)
			return nil
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return order
	}

	first := collect()
	second := collect()
	if len(first) != len(second) {
		t.Fatalf("visit counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("visit %d differs across runs: %d vs %d", i, first[i], second[i])
		}
	}
}

func TestWalkSurfacesUnknownKind(t *testing.T) {
	tr := optree.NewTree(0)
	bad := tr.New(optree.NodeKind(250), span(0, 1))
	root := tr.New(optree.KindBlock, span(0, 1), bad)
	tr.SetRoot(root)

	err := Walk(tr, NewContext(), func(optree.NodeID, *optree.Node, *Context) error { return nil })
	var malformed *optree.MalformedTreeError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedTreeError for unknown kind, got %v", err)
	}
	if malformed.Node != bad {
		t.Fatalf("expected offending node %d, got %d", bad, malformed.Node)
	}
}

func TestWalkDepthLimitCatchesCycles(t *testing.T) {
	tr := optree.NewTree(0)
	// A self-referential block is not constructible through the public
	// API of a front end, but a defensive limit turns such input into an
	// error rather than a hang.
	a := tr.New(optree.KindBlock, span(0, 1))
	tr.Node(a).Children = append(tr.Node(a).Children, a)
	tr.SetRoot(a)

	err := WalkWithOptions(tr, NewContext(), func(optree.NodeID, *optree.Node, *Context) error { return nil }, Options{MaxDepth: 64})
	var malformed *optree.MalformedTreeError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedTreeError from depth limit, got %v", err)
	}
}

func TestWalkPropagatesBadTryLayout(t *testing.T) {
	tr := optree.NewTree(0)
	try := tr.New(optree.KindTry, span(0, 2)) // no protected body
	root := tr.New(optree.KindBlock, span(0, 2), try)
	tr.SetRoot(root)

	err := Walk(tr, NewContext(), func(optree.NodeID, *optree.Node, *Context) error { return nil })
	var malformed *optree.MalformedTreeError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedTreeError for bad try layout, got %v", err)
	}
}

func TestLambdaDoesNotResetCleanupTracking(t *testing.T) {
	// try { } finally { lambda { throw } } — the throw runs later in real
	// programs, but the structural rule deliberately still counts it.
	tr := optree.NewTree(0)
	throw := tr.New(optree.KindThrow, span(20, 25))
	lambda := tr.New(optree.KindLambda, span(15, 30), throw)
	body := tr.New(optree.KindBlock, span(4, 5))
	cleanup := tr.New(optree.KindFinally, span(10, 35), lambda)
	try := tr.New(optree.KindTry, span(0, 35), body, cleanup)
	tr.SetRoot(try)

	err := Walk(tr, NewContext(), func(_ optree.NodeID, n *optree.Node, ctx *Context) error {
		if n.Kind == optree.KindThrow {
			if ctx.CleanupDepth() != 1 {
				t.Fatalf("expected cleanup depth 1 inside lambda, got %d", ctx.CleanupDepth())
			}
			if ctx.Depth(optree.KindLambda) != 1 {
				t.Fatalf("expected lambda depth 1, got %d", ctx.Depth(optree.KindLambda))
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
