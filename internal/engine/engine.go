// Package engine runs the registered rules over operation trees and
// renders the findings as diagnostics. One engine run per tree; trees are
// independent, so the parallel driver gives every tree its own context,
// collector and bag, and merges afterwards.
package engine

import (
	"errors"
	"fmt"

	"treelint/internal/config"
	"treelint/internal/diag"
	"treelint/internal/observ"
	"treelint/internal/optree"
	"treelint/internal/rules"
	"treelint/internal/source"
	"treelint/internal/walk"
)

// Options configures an analysis run.
type Options struct {
	// Registry defaults to rules.Default().
	Registry *rules.Registry
	// Config defaults to config.Default().
	Config *config.Config
	// MaxDiagnostics caps the bag; 0 means the config value.
	MaxDiagnostics int
	// MaxDepth overrides the walker's defensive depth limit when non-zero.
	MaxDepth uint32
	// Jobs bounds parallel tree checks; 0 means GOMAXPROCS.
	Jobs int
	// EnableTimings records per-phase durations in the result.
	EnableTimings bool
	// Timer receives the check phase when provided, so callers can fold
	// their own load or fix phases into the same report.
	Timer *observ.Timer
}

func (o *Options) registry() *rules.Registry {
	if o.Registry != nil {
		return o.Registry
	}
	return rules.Default()
}

func (o *Options) config() *config.Config {
	if o.Config != nil {
		return o.Config
	}
	return config.Default()
}

func (o *Options) maxDiagnostics() int {
	if o.MaxDiagnostics > 0 {
		return o.MaxDiagnostics
	}
	return o.config().MaxDiagnostics
}

func (o *Options) maxDepth() uint32 {
	if o.MaxDepth > 0 {
		return o.MaxDepth
	}
	if d := o.config().MaxDepth; d > 0 {
		return d
	}
	return 0 // walker applies its own default
}

// Result is the outcome of checking one tree.
type Result struct {
	Tree       *optree.Tree
	FileID     source.FileID
	Violations *rules.Collector
	Bag        *diag.Bag
	Timing     observ.Report
}

// Check walks the tree once, evaluating every enabled rule at every node.
// Violations are collected in traversal order and rendered into the bag.
// A malformed tree aborts the walk; what was collected so far stays in the
// result and the error is returned for the caller to surface.
func Check(t *optree.Tree, opts Options) (*Result, error) {
	registry := opts.registry()
	cfg := opts.config()

	enabled := make([]rules.Rule, 0, registry.Len())
	for _, rule := range registry.All() {
		if cfg.RuleEnabled(rule.ID()) {
			enabled = append(enabled, rule)
		}
	}

	result := &Result{
		Tree:       t,
		Violations: rules.NewCollector(),
		Bag:        diag.NewBag(opts.maxDiagnostics()),
	}
	if t != nil && t.Root().IsValid() {
		result.FileID = t.Node(t.Root()).Span.File
	}

	timer := opts.Timer
	if timer == nil {
		timer = observ.NewTimer()
	}
	stopCheck := timer.Phase("check")

	reporter := diag.BagReporter{Bag: result.Bag}
	walkErr := walk.WalkWithOptions(t, walk.NewContext(), func(id optree.NodeID, n *optree.Node, ctx *walk.Context) error {
		for _, rule := range enabled {
			v := rule.Evaluate(t, id, n, ctx)
			if v == nil {
				continue
			}
			result.Violations.Record(*v)
			reporter.Report(renderViolation(t, *v, cfg.RuleSeverity(rule), ctx))
		}
		return nil
	}, walk.Options{MaxDepth: opts.maxDepth()})

	if walkErr != nil {
		reporter.Report(renderWalkError(walkErr, t))
	}

	stopCheck(fmt.Sprintf("%d violation(s)", result.Violations.Len()))
	if opts.EnableTimings {
		result.Timing = timer.Report()
	}
	return result, walkErr
}

// renderViolation turns a violation into its diagnostic. It runs inside
// the walk, so the live context supplies the innermost cleanup region
// for the note.
func renderViolation(t *optree.Tree, v rules.Violation, sev diag.Severity, ctx *walk.Context) diag.Diagnostic {
	d := diag.New(sev, v.Code, v.Span, v.Message).WithRule(v.RuleID)
	if region, ok := ctx.Enclosing(optree.KindFinally); ok {
		if n := t.Node(region.Node); n != nil {
			d = d.WithNote(n.Span, "enclosing cleanup region")
		}
	}
	if ctx.Depth(optree.KindLambda) > 0 {
		d = d.WithNote(v.Span, "inside a deferred function literal; may only run outside the region")
	}
	return d
}

func renderWalkError(err error, t *optree.Tree) diag.Diagnostic {
	code := diag.TreeBadLayout
	var primary source.Span

	var malformed *optree.MalformedTreeError
	if errors.As(err, &malformed) {
		switch malformed.Kind {
		case optree.MalformedUnknownKind:
			code = diag.TreeUnknownKind
		case optree.MalformedDepth:
			code = diag.TreeDepthLimit
		case optree.MalformedReference, optree.MalformedLayout:
			code = diag.TreeBadLayout
		}
		if t != nil {
			if n := t.Node(malformed.Node); n != nil {
				primary = n.Span
			}
		}
	}
	return diag.NewError(code, primary, err.Error())
}
