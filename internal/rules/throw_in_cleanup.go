package rules

import (
	"treelint/internal/diag"
	"treelint/internal/optree"
	"treelint/internal/walk"
)

// ThrowInCleanup reports throw sites inside a finally-like cleanup region.
// A throw there replaces whatever exception was already unwinding, which
// is almost never intended.
//
// The rule is structural, not flow-sensitive: a throw inside a lambda that
// is merely defined in a cleanup region (and runs later, outside it) is
// still reported. This is a known, deliberate imprecision; the captured
// context snapshot records the lambda depth so callers can tell these
// findings apart.
//
// Any cleanup depth >= 1 counts as inside. Catch clauses of the same try
// are exempt: the walker never marks them as part of the cleanup region.
type ThrowInCleanup struct{}

func (ThrowInCleanup) ID() string                    { return "throw-in-cleanup" }
func (ThrowInCleanup) Code() diag.Code               { return diag.RuleThrowInCleanup }
func (ThrowInCleanup) DefaultSeverity() diag.Severity { return diag.SevWarning }

func (r ThrowInCleanup) Evaluate(t *optree.Tree, id optree.NodeID, n *optree.Node, ctx *walk.Context) *Violation {
	if n.Kind != optree.KindThrow {
		return nil
	}
	if ctx.CleanupDepth() == 0 {
		return nil
	}
	return &Violation{
		Node:    id,
		RuleID:  r.ID(),
		Code:    r.Code(),
		Span:    n.Span,
		Message: "throw inside a cleanup region discards the in-flight exception",
		Context: ctx.Snapshot(),
	}
}
