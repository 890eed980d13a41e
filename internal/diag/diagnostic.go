package diag

import (
	"treelint/internal/source"
)

// Note attaches secondary context to a diagnostic, e.g. the span of the
// cleanup region enclosing a reported throw.
type Note struct {
	Span source.Span
	Msg  string
}

// Diagnostic is one rendered finding. The engine builds these from rule
// violations; rendering layers consume them and never hand them back.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	// RuleID is the registry identifier of the reporting rule, empty for
	// diagnostics that originate in the loader or the fix pipeline.
	RuleID string
	Notes  []Note
}

func New(sev Severity, code Code, primary source.Span, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Primary:  primary,
		Message:  msg,
	}
}

func NewError(code Code, primary source.Span, msg string) Diagnostic {
	return New(SevError, code, primary, msg)
}

func (d Diagnostic) WithNote(sp source.Span, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Span: sp, Msg: msg})
	return d
}

func (d Diagnostic) WithRule(id string) Diagnostic {
	d.RuleID = id
	return d
}
