package rules

import (
	"testing"

	"treelint/internal/optree"
)

func TestRegistryRejectsDuplicateIDs(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(ThrowInCleanup{}); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	if err := r.Register(ThrowInCleanup{}); err == nil {
		t.Fatalf("expected duplicate id rejection")
	}
}

func TestRegistryAllIsSortedByID(t *testing.T) {
	r := Default()
	all := r.All()
	if len(all) != 3 {
		t.Fatalf("expected 3 built-in rules, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].ID() >= all[i].ID() {
			t.Fatalf("rules not sorted: %q before %q", all[i-1].ID(), all[i].ID())
		}
	}
}

func TestDefaultRegistryLookup(t *testing.T) {
	r := Default()
	rule, ok := r.Lookup("throw-in-cleanup")
	if !ok {
		t.Fatalf("reference rule not registered")
	}
	if rule.Code() == 0 {
		t.Fatalf("rule has no diagnostic code")
	}
	if _, ok := r.Lookup("nonexistent"); ok {
		t.Fatalf("lookup of unknown rule must fail")
	}
}

func TestEmptyCleanupRule(t *testing.T) {
	// try { } finally { } -> reported; try { } finally { stmt } -> not
	tr := optree.NewTree(0)
	body := tr.New(optree.KindBlock, span(4, 6))
	emptyCleanup := tr.New(optree.KindFinally, span(10, 14))
	try := tr.New(optree.KindTry, span(0, 14), body, emptyCleanup)
	tr.SetRoot(try)

	got := runRule(t, tr, EmptyCleanup{})
	if len(got) != 1 || got[0].Node != emptyCleanup {
		t.Fatalf("expected one violation at the empty finally, got %v", got)
	}

	tr2 := optree.NewTree(0)
	stmt := tr2.New(optree.KindLeaf, span(12, 13))
	body2 := tr2.New(optree.KindBlock, span(4, 6))
	cleanup2 := tr2.New(optree.KindFinally, span(10, 14), stmt)
	try2 := tr2.New(optree.KindTry, span(0, 14), body2, cleanup2)
	tr2.SetRoot(try2)

	if got := runRule(t, tr2, EmptyCleanup{}); len(got) != 0 {
		t.Fatalf("expected no violations for non-empty finally, got %d", len(got))
	}
}

func TestRethrowOutsideCatchRule(t *testing.T) {
	// catch { throw; } is fine
	tr := optree.NewTree(0)
	rethrowOK := tr.New(optree.KindThrow, span(10, 16))
	catch := tr.New(optree.KindCatch, span(8, 18), rethrowOK)
	body := tr.New(optree.KindBlock, span(4, 6))
	try := tr.New(optree.KindTry, span(0, 18), body, catch)
	tr.SetRoot(try)

	if got := runRule(t, tr, RethrowOutsideCatch{}); len(got) != 0 {
		t.Fatalf("rethrow inside catch must not be reported, got %d", len(got))
	}

	// a bare rethrow at top level is reported
	tr2 := optree.NewTree(0)
	rethrowBad := tr2.New(optree.KindThrow, span(2, 8))
	root := tr2.New(optree.KindBlock, span(0, 10), rethrowBad)
	tr2.SetRoot(root)

	got := runRule(t, tr2, RethrowOutsideCatch{})
	if len(got) != 1 || got[0].Node != rethrowBad {
		t.Fatalf("expected one violation at the bare rethrow, got %v", got)
	}

	// a throw with payload outside catch is fine
	tr3 := optree.NewTree(0)
	payload := tr3.New(optree.KindLeaf, span(8, 9))
	throw := tr3.New(optree.KindThrow, span(2, 9), payload)
	root3 := tr3.New(optree.KindBlock, span(0, 10), throw)
	tr3.SetRoot(root3)

	if got := runRule(t, tr3, RethrowOutsideCatch{}); len(got) != 0 {
		t.Fatalf("payload throw outside catch must not be reported, got %d", len(got))
	}
}

func TestCollectorIsRestartable(t *testing.T) {
	c := NewCollector()
	c.Record(Violation{Node: 1, RuleID: "a"})
	c.Record(Violation{Node: 2, RuleID: "b"})

	first := c.Items()
	second := c.Items()
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("collector must be iterable more than once")
	}
	if first[0].Node != second[0].Node {
		t.Fatalf("iteration order changed between drains")
	}
}
