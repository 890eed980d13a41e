package optree

import (
	"errors"
	"testing"

	"treelint/internal/source"
)

func span(start, end uint32) source.Span {
	return source.Span{File: 0, Start: start, End: end}
}

func TestTryPartsLayout(t *testing.T) {
	tr := NewTree(0)
	body := tr.New(KindBlock, span(4, 10))
	catch := tr.New(KindCatch, span(10, 20))
	cleanup := tr.New(KindFinally, span(20, 30))
	try := tr.New(KindTry, span(0, 30), body, catch, cleanup)
	tr.SetRoot(try)

	gotBody, gotCatches, gotCleanup, err := tr.TryParts(try)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotBody != body {
		t.Fatalf("body: expected %d, got %d", body, gotBody)
	}
	if len(gotCatches) != 1 || gotCatches[0] != catch {
		t.Fatalf("catches: expected [%d], got %v", catch, gotCatches)
	}
	if gotCleanup != cleanup {
		t.Fatalf("cleanup: expected %d, got %d", cleanup, gotCleanup)
	}
}

func TestTryPartsRejectsCatchAfterFinally(t *testing.T) {
	tr := NewTree(0)
	body := tr.New(KindBlock, span(0, 5))
	cleanup := tr.New(KindFinally, span(5, 10))
	catch := tr.New(KindCatch, span(10, 15))
	try := tr.New(KindTry, span(0, 15), body, cleanup, catch)

	_, _, _, err := tr.TryParts(try)
	var malformed *MalformedTreeError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedTreeError, got %v", err)
	}
	if malformed.Node != catch {
		t.Fatalf("expected offending node %d, got %d", catch, malformed.Node)
	}
}

func TestTryPartsRejectsBodylessTry(t *testing.T) {
	tr := NewTree(0)
	try := tr.New(KindTry, span(0, 2))
	if _, _, _, err := tr.TryParts(try); err == nil {
		t.Fatalf("expected error for try without body")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	tr := NewTree(0)
	leaf := tr.New(KindLeaf, span(0, 1))
	root := tr.New(KindBlock, span(0, 1), leaf)
	tr.SetRoot(root)

	cp := tr.Clone()
	cp.Node(root).Children[0] = NoNodeID

	if tr.Node(root).Children[0] != leaf {
		t.Fatalf("clone aliased the original child slice")
	}
	if cp.Root() != root {
		t.Fatalf("clone lost the root")
	}
}

func TestParentIndex(t *testing.T) {
	tr := NewTree(0)
	leaf := tr.New(KindThrow, span(2, 3))
	inner := tr.New(KindBlock, span(1, 4), leaf)
	orphan := tr.New(KindLeaf, span(9, 10))
	root := tr.New(KindBlock, span(0, 5), inner)
	tr.SetRoot(root)

	parents := tr.ParentIndex()
	if parents[root] != NoNodeID {
		t.Fatalf("root parent should be NoNodeID")
	}
	if parents[leaf] != inner {
		t.Fatalf("leaf parent: expected %d, got %d", inner, parents[leaf])
	}
	if _, ok := parents[orphan]; ok {
		t.Fatalf("unreachable node must not appear in the parent index")
	}
}

func TestKindRoundTrip(t *testing.T) {
	for k := NodeKind(0); k.IsValid(); k++ {
		got, ok := KindFromString(k.String())
		if !ok || got != k {
			t.Fatalf("kind %d did not round-trip through %q", k, k.String())
		}
	}
	if _, ok := KindFromString("goto"); ok {
		t.Fatalf("unknown kind name must not decode")
	}
}
