package rules

import (
	"treelint/internal/diag"
	"treelint/internal/optree"
	"treelint/internal/walk"
)

// EmptyCleanup reports finally regions with no children. They add nesting
// and suggest a forgotten edit; deleting the region is always safe.
type EmptyCleanup struct{}

func (EmptyCleanup) ID() string                     { return "empty-cleanup" }
func (EmptyCleanup) Code() diag.Code                { return diag.RuleEmptyCleanup }
func (EmptyCleanup) DefaultSeverity() diag.Severity { return diag.SevInfo }

func (r EmptyCleanup) Evaluate(t *optree.Tree, id optree.NodeID, n *optree.Node, ctx *walk.Context) *Violation {
	if n.Kind != optree.KindFinally {
		return nil
	}
	if len(n.Children) != 0 {
		return nil
	}
	return &Violation{
		Node:    id,
		RuleID:  r.ID(),
		Code:    r.Code(),
		Span:    n.Span,
		Message: "finally region is empty",
		Context: ctx.Snapshot(),
	}
}
