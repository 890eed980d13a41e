package treefile

import (
	"errors"
	"strings"
	"testing"

	"treelint/internal/optree"
	"treelint/internal/source"
	"treelint/internal/testkit"
)

const nestedCleanupDoc = `{
  "file": "demo.src",
  "source": "try { } finally { try { } finally { throw E } }",
  "root": 7,
  "nodes": [
    {"kind": "throw", "start": 36, "end": 43},
    {"kind": "finally", "start": 26, "end": 45, "children": [1]},
    {"kind": "block", "start": 22, "end": 25},
    {"kind": "try", "start": 18, "end": 45, "children": [3, 2]},
    {"kind": "finally", "start": 8, "end": 47, "children": [4]},
    {"kind": "block", "start": 4, "end": 7},
    {"kind": "try", "start": 0, "end": 47, "children": [6, 5]}
  ]
}`

func TestDecodeAndBuild(t *testing.T) {
	doc, err := Decode(strings.NewReader(nestedCleanupDoc))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	fs := source.NewFileSet()
	tree, fileID, err := doc.Build(fs)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if tree.Len() != 7 {
		t.Fatalf("expected 7 nodes, got %d", tree.Len())
	}
	root := tree.Node(tree.Root())
	if root.Kind != optree.KindTry {
		t.Fatalf("expected try root, got %s", root.Kind)
	}
	if root.Span.File != fileID {
		t.Fatalf("span not bound to registered file")
	}
	if f := fs.Get(fileID); f.Flags&source.FileVirtual == 0 {
		t.Fatalf("inline source should register a virtual file")
	}
	if err := testkit.CheckTreeInvariants(tree, fs.Get(fileID)); err != nil {
		t.Fatalf("built tree violates invariants: %v", err)
	}
}

func TestBuildRejectsUnknownKind(t *testing.T) {
	doc := &Document{
		Root:  1,
		Nodes: []NodeDoc{{Kind: "goto", Start: 0, End: 1}},
	}
	_, _, err := doc.Build(source.NewFileSet())
	var malformed *optree.MalformedTreeError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedTreeError, got %v", err)
	}
}

func TestBuildRejectsSharedSubtree(t *testing.T) {
	// two parents claim node 1
	doc := &Document{
		Root: 3,
		Nodes: []NodeDoc{
			{Kind: "leaf", Start: 0, End: 1},
			{Kind: "block", Start: 0, End: 2, Children: []uint32{1}},
			{Kind: "block", Start: 0, End: 3, Children: []uint32{2, 1}},
		},
	}
	_, _, err := doc.Build(source.NewFileSet())
	var malformed *optree.MalformedTreeError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedTreeError for shared subtree, got %v", err)
	}
}

func TestBuildRejectsRootAsChild(t *testing.T) {
	doc := &Document{
		Root: 2,
		Nodes: []NodeDoc{
			{Kind: "leaf", Start: 0, End: 1},
			{Kind: "block", Start: 0, End: 2, Children: []uint32{1, 2}},
		},
	}
	if _, _, err := doc.Build(source.NewFileSet()); err == nil {
		t.Fatalf("expected error when root is referenced as a child")
	}
}

func TestBuildRejectsChildOutOfRange(t *testing.T) {
	doc := &Document{
		Root: 1,
		Nodes: []NodeDoc{
			{Kind: "block", Start: 0, End: 2, Children: []uint32{9}},
		},
	}
	if _, _, err := doc.Build(source.NewFileSet()); err == nil {
		t.Fatalf("expected error for child outside the node table")
	}
}

func TestBuildRejectsRootOutOfRange(t *testing.T) {
	doc := &Document{Root: 5, Nodes: []NodeDoc{{Kind: "leaf", Start: 0, End: 1}}}
	if _, _, err := doc.Build(source.NewFileSet()); err == nil {
		t.Fatalf("expected error for root outside the node table")
	}
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	if _, err := Decode(strings.NewReader(`{"file": "x", "bogus": 1}`)); err == nil {
		t.Fatalf("expected unknown field rejection")
	}
}

func TestFromTreeRoundTrip(t *testing.T) {
	doc, err := Decode(strings.NewReader(nestedCleanupDoc))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	fs := source.NewFileSet()
	tree, fileID, err := doc.Build(fs)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	out := FromTree(tree, fs.Get(fileID))
	if out.Root != doc.Root {
		t.Fatalf("root drifted: %d vs %d", out.Root, doc.Root)
	}
	if len(out.Nodes) != len(doc.Nodes) {
		t.Fatalf("node count drifted: %d vs %d", len(out.Nodes), len(doc.Nodes))
	}
	for i := range out.Nodes {
		if out.Nodes[i].Kind != doc.Nodes[i].Kind {
			t.Fatalf("node %d kind drifted: %s vs %s", i, out.Nodes[i].Kind, doc.Nodes[i].Kind)
		}
	}
	if out.Source != doc.Source {
		t.Fatalf("inline source lost in round trip")
	}

	// and the regenerated document builds again
	if _, _, err := out.Build(source.NewFileSet()); err != nil {
		t.Fatalf("regenerated document does not build: %v", err)
	}
}
