// Package treefile reads and writes the JSON tree documents external
// front ends hand to the engine. A document carries the original source
// path (and optionally the source text inline, for virtual input), the
// node table and the root reference. Decoding validates well-formedness:
// the engine refuses malformed trees up front instead of mis-walking them.
package treefile

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"fortio.org/safecast"

	"treelint/internal/optree"
	"treelint/internal/source"
)

// NodeDoc is one node row. Children are 1-based indices into the node
// table, mirroring optree's NodeID space.
type NodeDoc struct {
	Kind     string   `json:"kind"`
	Start    uint32   `json:"start"`
	End      uint32   `json:"end"`
	Children []uint32 `json:"children,omitempty"`
}

// Document is the on-disk tree representation.
type Document struct {
	File   string    `json:"file"`
	Source string    `json:"source,omitempty"`
	Root   uint32    `json:"root"`
	Nodes  []NodeDoc `json:"nodes"`
}

// Decode parses a document without validating tree structure; Build does
// the structural checks.
func Decode(r io.Reader) (*Document, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("treefile: decode: %w", err)
	}
	return &doc, nil
}

// Build validates the document and materializes it as an operation tree.
// The document's source file is registered in fs; every span in the tree
// points at the returned FileID.
func (d *Document) Build(fs *source.FileSet) (*optree.Tree, source.FileID, error) {
	fileID := d.registerFile(fs)

	lenNodes, err := safecast.Conv[uint32](len(d.Nodes))
	if err != nil {
		return nil, fileID, fmt.Errorf("treefile: node table too large: %w", err)
	}

	if len(d.Nodes) == 0 {
		if d.Root != 0 {
			return nil, fileID, &optree.MalformedTreeError{Kind: optree.MalformedLayout, Reason: "root set but node table is empty"}
		}
		return optree.NewTree(0), fileID, nil
	}
	if d.Root == 0 || d.Root > lenNodes {
		return nil, fileID, &optree.MalformedTreeError{
			Kind:   optree.MalformedReference,
			Reason: fmt.Sprintf("root %d outside node table of size %d", d.Root, lenNodes),
		}
	}

	// Ownership census: every node has at most one parent and the root
	// has none. Together with the walker's depth limit this keeps cycles
	// and shared subtrees out of the engine.
	refs := make([]uint8, len(d.Nodes)+1)
	tree := optree.NewTree(uint(len(d.Nodes)))
	for i, nd := range d.Nodes {
		id := optree.NodeID(i + 1)
		kind, ok := optree.KindFromString(nd.Kind)
		if !ok {
			return nil, fileID, &optree.MalformedTreeError{
				Node:   id,
				Kind:   optree.MalformedUnknownKind,
				Reason: fmt.Sprintf("unrecognized node kind %q", nd.Kind),
			}
		}
		if nd.End < nd.Start {
			return nil, fileID, &optree.MalformedTreeError{
				Node:   id,
				Kind:   optree.MalformedLayout,
				Reason: fmt.Sprintf("span end %d before start %d", nd.End, nd.Start),
			}
		}
		children := make([]optree.NodeID, len(nd.Children))
		for j, child := range nd.Children {
			if child == 0 || child > lenNodes {
				return nil, fileID, &optree.MalformedTreeError{
					Node:   id,
					Kind:   optree.MalformedReference,
					Reason: fmt.Sprintf("child %d outside node table", child),
				}
			}
			if child == d.Root {
				return nil, fileID, &optree.MalformedTreeError{
					Node:   id,
					Kind:   optree.MalformedLayout,
					Reason: "root node referenced as a child",
				}
			}
			if refs[child] > 0 {
				return nil, fileID, &optree.MalformedTreeError{
					Node:   optree.NodeID(child),
					Kind:   optree.MalformedLayout,
					Reason: "node owned by more than one parent",
				}
			}
			refs[child]++
			children[j] = optree.NodeID(child)
		}
		got := tree.New(kind, source.Span{File: fileID, Start: nd.Start, End: nd.End}, children...)
		if got != id {
			panic(fmt.Errorf("treefile: arena id drift: %d != %d", got, id))
		}
	}
	tree.SetRoot(optree.NodeID(d.Root))
	return tree, fileID, nil
}

func (d *Document) registerFile(fs *source.FileSet) source.FileID {
	name := d.File
	if name == "" {
		name = "<tree>"
	}
	if d.Source != "" {
		return fs.AddVirtual(name, []byte(d.Source))
	}
	if id, err := fs.Load(name); err == nil {
		return id
	}
	// Path known but unreadable: spans still order and render as byte
	// offsets against an empty body.
	return fs.AddVirtual(name, nil)
}

// Load reads, decodes and builds a tree document from disk.
func Load(path string, fs *source.FileSet) (*optree.Tree, source.FileID, error) {
	// #nosec G304 -- path is provided by the caller
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("treefile: %w", err)
	}
	defer f.Close()

	doc, err := Decode(f)
	if err != nil {
		return nil, 0, err
	}
	return doc.Build(fs)
}

// FromTree converts a tree back into a document, used by the fix pipeline
// to persist a rewritten tree.
func FromTree(t *optree.Tree, file *source.File) *Document {
	doc := &Document{
		Root:  uint32(t.Root()),
		Nodes: make([]NodeDoc, 0, t.Len()),
	}
	if file != nil {
		doc.File = file.Path
		if file.Flags&source.FileVirtual != 0 && len(file.Content) > 0 {
			doc.Source = string(file.Content)
		}
	}
	for id := optree.NodeID(1); uint32(id) <= t.Len(); id++ {
		n := t.Node(id)
		children := make([]uint32, len(n.Children))
		for i, child := range n.Children {
			children[i] = uint32(child)
		}
		doc.Nodes = append(doc.Nodes, NodeDoc{
			Kind:     n.Kind.String(),
			Start:    n.Span.Start,
			End:      n.Span.End,
			Children: children,
		})
	}
	return doc
}

// Save writes the document as indented JSON.
func Save(path string, doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("treefile: encode: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("treefile: write %s: %w", path, err)
	}
	return nil
}
