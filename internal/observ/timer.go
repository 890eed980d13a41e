package observ

import (
	"fmt"
	"strings"
	"time"
)

// Phase is one completed stage of a document run: load, check, fix.
type Phase struct {
	Name string
	Dur  time.Duration
	Note string
}

// Timer accumulates the phases of one document as they finish. It is not
// safe for concurrent use; the parallel driver gives each document its own.
// A nil Timer is a no-op, so callers can thread one through options
// without guarding every site.
type Timer struct {
	phases []Phase
}

// NewTimer creates a new empty Timer.
func NewTimer() *Timer { return &Timer{phases: make([]Phase, 0, 4)} }

// Phase starts a named stage. The returned func records it with an
// optional note; call it exactly once when the stage ends.
func (t *Timer) Phase(name string) func(note string) {
	if t == nil {
		return func(string) {}
	}
	start := time.Now()
	return func(note string) {
		t.phases = append(t.phases, Phase{Name: name, Dur: time.Since(start), Note: note})
	}
}

// PhaseReport is the serializable form of one phase.
type PhaseReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	Note       string  `json:"note,omitempty"`
}

// Report aggregates timer data for serialization and display.
type Report struct {
	TotalMS float64       `json:"total_ms"`
	Phases  []PhaseReport `json:"phases"`
}

// Report flattens the finished phases and sums the total in milliseconds.
func (t *Timer) Report() Report {
	if t == nil || len(t.phases) == 0 {
		return Report{}
	}
	report := Report{
		Phases: make([]PhaseReport, len(t.phases)),
	}
	var total time.Duration
	for i, phase := range t.phases {
		total += phase.Dur
		report.Phases[i] = PhaseReport{
			Name:       phase.Name,
			DurationMS: durationToMillis(phase.Dur),
			Note:       phase.Note,
		}
	}
	report.TotalMS = durationToMillis(total)
	return report
}

// String renders the report on one line, e.g.
// "total 0.42ms (load 0.10ms, check 0.32ms [2 violation(s)])".
func (r Report) String() string {
	if len(r.Phases) == 0 {
		return "total 0.00ms"
	}
	parts := make([]string, 0, len(r.Phases))
	for _, p := range r.Phases {
		s := fmt.Sprintf("%s %.2fms", p.Name, p.DurationMS)
		if p.Note != "" {
			s += " [" + p.Note + "]"
		}
		parts = append(parts, s)
	}
	return fmt.Sprintf("total %.2fms (%s)", r.TotalMS, strings.Join(parts, ", "))
}

func durationToMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
