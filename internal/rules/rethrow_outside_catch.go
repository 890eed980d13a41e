package rules

import (
	"treelint/internal/diag"
	"treelint/internal/optree"
	"treelint/internal/walk"
)

// RethrowOutsideCatch reports bare rethrows (a throw with no payload
// child) that are not inside any catch clause. With nothing in flight to
// rethrow, such a statement fails at runtime.
type RethrowOutsideCatch struct{}

func (RethrowOutsideCatch) ID() string                     { return "rethrow-outside-catch" }
func (RethrowOutsideCatch) Code() diag.Code                { return diag.RuleRethrowOutsideCatch }
func (RethrowOutsideCatch) DefaultSeverity() diag.Severity { return diag.SevWarning }

func (r RethrowOutsideCatch) Evaluate(t *optree.Tree, id optree.NodeID, n *optree.Node, ctx *walk.Context) *Violation {
	if n.Kind != optree.KindThrow {
		return nil
	}
	if len(n.Children) != 0 {
		// carries a payload: a regular throw, not a rethrow
		return nil
	}
	if ctx.InCatch() {
		return nil
	}
	return &Violation{
		Node:    id,
		RuleID:  r.ID(),
		Code:    r.Code(),
		Span:    n.Span,
		Message: "bare rethrow outside a catch clause has nothing to rethrow",
		Context: ctx.Snapshot(),
	}
}
