// Package rules defines the rule capability interface, the built-in rules
// and the registry the engine selects rules from.
//
// A rule is a pure predicate over (node, traversal context). It may read
// the context but never mutate it, and it must be stateless across calls:
// anything a rule wants to accumulate belongs in the Collector, not in the
// rule value. The engine relies on this to host many rules in one walk and
// to reuse rule values across parallel tree traversals.
package rules

import (
	"fmt"
	"sort"

	"treelint/internal/diag"
	"treelint/internal/optree"
	"treelint/internal/walk"
)

// Rule is the capability interface a rule plugs into the engine with.
// Diagnostic metadata beyond the defaults here (help links, localized
// titles) stays with the registration layer; the engine never reads it.
type Rule interface {
	// ID is the stable registry identifier, e.g. "throw-in-cleanup".
	ID() string
	// Code is the diagnostic code findings are reported under.
	Code() diag.Code
	// DefaultSeverity applies unless configuration overrides it.
	DefaultSeverity() diag.Severity
	// Evaluate inspects one visited node under the current context and
	// returns a violation, or nil for no match. It must be pure.
	Evaluate(t *optree.Tree, id optree.NodeID, n *optree.Node, ctx *walk.Context) *Violation
}

// Registry holds the rules available to an analysis run.
type Registry struct {
	byID map[string]Rule
}

func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]Rule)}
}

// Register adds a rule; duplicate IDs are a programming error and are
// rejected so a misconfigured registration cannot shadow a rule silently.
func (r *Registry) Register(rule Rule) error {
	id := rule.ID()
	if _, exists := r.byID[id]; exists {
		return fmt.Errorf("rules: duplicate rule id %q", id)
	}
	r.byID[id] = rule
	return nil
}

// Lookup returns the rule registered under id.
func (r *Registry) Lookup(id string) (Rule, bool) {
	rule, ok := r.byID[id]
	return rule, ok
}

// All returns the registered rules sorted by ID, so every run evaluates
// rules in the same order regardless of registration order.
func (r *Registry) All() []Rule {
	out := make([]Rule, 0, len(r.byID))
	for _, rule := range r.byID {
		out = append(out, rule)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

func (r *Registry) Len() int {
	return len(r.byID)
}

// Default returns a registry with all built-in rules.
func Default() *Registry {
	r := NewRegistry()
	for _, rule := range []Rule{
		ThrowInCleanup{},
		EmptyCleanup{},
		RethrowOutsideCatch{},
	} {
		if err := r.Register(rule); err != nil {
			panic(err)
		}
	}
	return r
}
