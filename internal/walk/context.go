package walk

import "treelint/internal/optree"

// Region is one active marker on the context stack: "traversal is currently
// inside this node of this kind".
type Region struct {
	Kind optree.NodeKind
	Node optree.NodeID
}

// Context tracks which structural regions the walk is currently inside.
// It is owned by a single traversal; rules read it and must never mutate
// it. Depth is maintained per kind so a predicate can distinguish
// "directly inside a finally" from "inside a nested try within a finally"
// when it cares, though the reference rule treats any depth > 0 as inside.
type Context struct {
	stack  []Region
	depths [optree.KindCount]uint32
}

// NewContext returns an empty context, depth 0 for every kind.
func NewContext() *Context {
	return &Context{
		stack: make([]Region, 0, 8),
	}
}

func (c *Context) push(kind optree.NodeKind, id optree.NodeID) {
	c.stack = append(c.stack, Region{Kind: kind, Node: id})
	c.depths[kind]++
}

func (c *Context) pop() {
	top := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	c.depths[top.Kind]--
}

// Depth returns how many regions of the given kind enclose the current
// position.
func (c *Context) Depth(kind optree.NodeKind) uint32 {
	if !kind.IsValid() {
		return 0
	}
	return c.depths[kind]
}

// CleanupDepth is Depth(KindFinally): how many finally regions enclose the
// current position.
func (c *Context) CleanupDepth() uint32 {
	return c.depths[optree.KindFinally]
}

// InCatch reports whether the current position is inside a catch clause.
func (c *Context) InCatch() bool {
	return c.depths[optree.KindCatch] > 0
}

// Enclosing returns the innermost active region of the given kind.
// The bool is false when no such region is active.
func (c *Context) Enclosing(kind optree.NodeKind) (Region, bool) {
	for i := len(c.stack) - 1; i >= 0; i-- {
		if c.stack[i].Kind == kind {
			return c.stack[i], true
		}
	}
	return Region{}, false
}

// Len returns the current stack depth across all region kinds.
func (c *Context) Len() int {
	return len(c.stack)
}

// Snapshot captures the context at the moment a violation is confirmed.
// Violations outlive the traversal, so the snapshot copies everything it
// keeps.
type Snapshot struct {
	CleanupDepth uint32
	CatchDepth   uint32
	LambdaDepth  uint32
	Regions      []Region
}

// Snapshot returns an immutable copy of the current state.
func (c *Context) Snapshot() Snapshot {
	regions := make([]Region, len(c.stack))
	copy(regions, c.stack)
	return Snapshot{
		CleanupDepth: c.depths[optree.KindFinally],
		CatchDepth:   c.depths[optree.KindCatch],
		LambdaDepth:  c.depths[optree.KindLambda],
		Regions:      regions,
	}
}
