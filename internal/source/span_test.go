package source

import "testing"

func TestSpanEmptyAndLen(t *testing.T) {
	s := Span{File: 1, Start: 10, End: 10}
	if !s.Empty() {
		t.Fatalf("expected empty span")
	}
	s.End = 14
	if s.Empty() {
		t.Fatalf("expected non-empty span")
	}
	if s.Len() != 4 {
		t.Fatalf("expected len 4, got %d", s.Len())
	}
}

func TestSpanCover(t *testing.T) {
	a := Span{File: 1, Start: 10, End: 20}
	b := Span{File: 1, Start: 5, End: 15}
	c := a.Cover(b)
	if c.Start != 5 || c.End != 20 {
		t.Fatalf("expected 5-20, got %d-%d", c.Start, c.End)
	}

	// different files do not combine
	d := a.Cover(Span{File: 2, Start: 0, End: 100})
	if d != a {
		t.Fatalf("cover across files must be a no-op")
	}
}

func TestSpanContains(t *testing.T) {
	outer := Span{File: 1, Start: 0, End: 50}
	inner := Span{File: 1, Start: 10, End: 20}
	if !outer.Contains(inner) {
		t.Fatalf("outer should contain inner")
	}
	if inner.Contains(outer) {
		t.Fatalf("inner should not contain outer")
	}
	if outer.Contains(Span{File: 2, Start: 10, End: 20}) {
		t.Fatalf("containment across files is false")
	}
}
