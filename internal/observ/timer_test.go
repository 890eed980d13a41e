package observ

import (
	"strings"
	"testing"
)

func TestTimerRecordsPhasesInOrder(t *testing.T) {
	tm := NewTimer()
	stopLoad := tm.Phase("load")
	stopLoad("12 node(s)")
	stopCheck := tm.Phase("check")
	stopCheck("")

	r := tm.Report()
	if len(r.Phases) != 2 {
		t.Fatalf("expected 2 phases, got %d", len(r.Phases))
	}
	if r.Phases[0].Name != "load" || r.Phases[1].Name != "check" {
		t.Fatalf("phases out of order: %q, %q", r.Phases[0].Name, r.Phases[1].Name)
	}
	if r.Phases[0].Note != "12 node(s)" {
		t.Fatalf("note lost: %q", r.Phases[0].Note)
	}

	s := r.String()
	if !strings.Contains(s, "load") || !strings.Contains(s, "[12 node(s)]") {
		t.Fatalf("unexpected rendering %q", s)
	}
}

func TestNilTimerIsNoOp(t *testing.T) {
	var tm *Timer
	stop := tm.Phase("load")
	stop("") // must not panic
	if got := tm.Report(); len(got.Phases) != 0 {
		t.Fatalf("nil timer reported %d phases", len(got.Phases))
	}
}

func TestEmptyReportString(t *testing.T) {
	if got := (Report{}).String(); got != "total 0.00ms" {
		t.Fatalf("unexpected empty rendering %q", got)
	}
}
