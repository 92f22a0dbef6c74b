package geom

import (
	"image"
	"testing"
)

func TestRectIntersect(t *testing.T) {
	tests := []struct {
		name   string
		a, b   Rect
		want   Rect
		wantOK bool
	}{
		{"identical", NewRect(0, 0, 10, 10), NewRect(0, 0, 10, 10), NewRect(0, 0, 10, 10), true},
		{"overlap", NewRect(0, 0, 10, 10), NewRect(5, 5, 10, 10), NewRect(5, 5, 5, 5), true},
		{"contained", NewRect(0, 0, 100, 100), NewRect(20, 30, 10, 10), NewRect(20, 30, 10, 10), true},
		{"disjoint", NewRect(0, 0, 10, 10), NewRect(20, 20, 10, 10), Rect{}, false},
		{"touching edge", NewRect(0, 0, 10, 10), NewRect(10, 0, 10, 10), Rect{}, false},
		{"negative coords", NewRect(-10, -10, 20, 20), NewRect(-5, -5, 20, 20), NewRect(-5, -5, 15, 15), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.a.Intersect(tt.b)
			if ok != tt.wantOK {
				t.Fatalf("Intersect ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("Intersect = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRectUnion(t *testing.T) {
	tests := []struct {
		name string
		a, b Rect
		want Rect
	}{
		{"disjoint", NewRect(0, 0, 10, 10), NewRect(20, 20, 10, 10), NewRect(0, 0, 30, 30)},
		{"with empty", NewRect(5, 5, 10, 10), Rect{}, NewRect(5, 5, 10, 10)},
		{"empty with rect", Rect{}, NewRect(5, 5, 10, 10), NewRect(5, 5, 10, 10)},
		{"overlap", NewRect(0, 0, 10, 10), NewRect(5, 5, 10, 10), NewRect(0, 0, 15, 15)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Union(tt.b); got != tt.want {
				t.Errorf("Union = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRectRoundOut(t *testing.T) {
	tests := []struct {
		name string
		r    Rect
		want image.Rectangle
	}{
		{"integral", NewRect(1, 2, 3, 4), image.Rect(1, 2, 4, 6)},
		{"fractional origin", NewRect(0.5, 0.5, 2, 2), image.Rect(0, 0, 3, 3)},
		{"fractional size", NewRect(0, 0, 2.1, 2.9), image.Rect(0, 0, 3, 3)},
		{"negative fractional", NewRect(-1.5, -1.5, 1, 1), image.Rect(-2, -2, 0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.RoundOut(); got != tt.want {
				t.Errorf("RoundOut = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRectContainsAndIntersects(t *testing.T) {
	r := NewRect(0, 0, 10, 10)
	if !r.Contains(Pt(5, 5)) {
		t.Error("Contains(5,5) = false, want true")
	}
	if !r.Contains(Pt(10, 10)) {
		t.Error("Contains(10,10) (inclusive edge) = false, want true")
	}
	if r.Contains(Pt(11, 5)) {
		t.Error("Contains(11,5) = true, want false")
	}
	if !r.ContainsRect(NewRect(2, 2, 4, 4)) {
		t.Error("ContainsRect inner = false, want true")
	}
	if r.ContainsRect(NewRect(5, 5, 10, 10)) {
		t.Error("ContainsRect overhanging = true, want false")
	}
	if !r.Intersects(NewRect(9, 9, 5, 5)) {
		t.Error("Intersects overlapping = false, want true")
	}
	if r.Intersects(NewRect(10, 0, 5, 5)) {
		t.Error("Intersects edge-adjacent = true, want false")
	}
}

func TestRectScaleTranslateInflate(t *testing.T) {
	r := NewRect(2, 4, 6, 8)
	if got := r.Scale(2); got != NewRect(4, 8, 12, 16) {
		t.Errorf("Scale(2) = %+v", got)
	}
	if got := r.Translate(Pt(1, -1)); got != NewRect(3, 3, 6, 8) {
		t.Errorf("Translate = %+v", got)
	}
	if got := r.Inflate(1, 2); got != NewRect(1, 2, 8, 12) {
		t.Errorf("Inflate = %+v", got)
	}
}
