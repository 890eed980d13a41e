package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"treelint/internal/diag"
	"treelint/internal/source"
)

// Pretty renders diagnostics in a human-readable form. Walks bag.Items()
// (bag.Sort() is expected beforehand). Every diagnostic prints as
//
//	<path>:<line>:<col>: <sev> <CODE> [<rule>]: <message>
//
// followed by the offending source line with a ^~~~ underline, then the
// notes in the same shape. Color is opt-in.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	for _, d := range bag.Items() {
		writeHeading(w, fs, d, opts)
		if opts.ShowSource {
			writeSourceLine(w, fs, d.Primary, opts)
		}
		if opts.ShowNotes {
			for _, note := range d.Notes {
				writeNote(w, fs, note, opts)
			}
		}
	}
}

func writeHeading(w io.Writer, fs *source.FileSet, d diag.Diagnostic, opts PrettyOpts) {
	start, _ := fs.Resolve(d.Primary)
	sev := d.Severity.String()
	if opts.Color {
		sev = severityColor(d.Severity).Sprint(sev)
	}
	rule := ""
	if d.RuleID != "" {
		rule = " [" + d.RuleID + "]"
	}
	fmt.Fprintf(w, "%s:%d:%d: %s %s%s: %s\n",
		formatPath(fs, d.Primary.File, opts.PathMode), start.Line, start.Col,
		sev, d.Code.ID(), rule, d.Message)
}

func writeNote(w io.Writer, fs *source.FileSet, note diag.Note, opts PrettyOpts) {
	start, _ := fs.Resolve(note.Span)
	label := "note"
	if opts.Color {
		label = color.New(color.FgCyan).Sprint(label)
	}
	fmt.Fprintf(w, "  %s:%d:%d: %s: %s\n",
		formatPath(fs, note.Span.File, opts.PathMode), start.Line, start.Col, label, note.Msg)
	if opts.ShowSource {
		writeSourceLine(w, fs, note.Span, opts)
	}
}

// writeSourceLine prints the first line the span touches plus the caret
// underline. Spans that cross a line boundary underline to the line end.
func writeSourceLine(w io.Writer, fs *source.FileSet, span source.Span, opts PrettyOpts) {
	start, end := fs.Resolve(span)
	line := fs.Get(span.File).GetLine(start.Line)
	if line == "" && span.Len() > 0 {
		return
	}
	fmt.Fprintf(w, "    %s\n", line)

	startCol := int(start.Col)
	endCol := int(end.Col)
	if end.Line != start.Line || endCol < startCol {
		endCol = len(line) + 1
	}
	if startCol < 1 {
		startCol = 1
	}
	width := endCol - startCol
	if width < 1 {
		width = 1
	}
	underline := "^" + strings.Repeat("~", width-1)
	if opts.Color {
		underline = color.New(color.FgHiGreen).Sprint(underline)
	}
	fmt.Fprintf(w, "    %s%s\n", strings.Repeat(" ", startCol-1), underline)
}

func formatPath(fs *source.FileSet, id source.FileID, mode PathMode) string {
	f := fs.Get(id)
	switch mode {
	case PathModeAbsolute:
		return f.FormatPath("absolute", "")
	case PathModeRelative:
		return f.FormatPath("relative", fs.BaseDir())
	case PathModeBasename:
		return f.FormatPath("basename", "")
	default:
		return f.FormatPath("auto", "")
	}
}

func severityColor(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return color.New(color.FgRed, color.Bold)
	case diag.SevWarning:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgHiBlue)
	}
}
