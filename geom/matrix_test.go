package geom

import (
	"math"
	"testing"
)

func TestMatrixTransformPoint(t *testing.T) {
	tests := []struct {
		name string
		m    Matrix
		p    Point
		want Point
	}{
		{"identity", Identity(), Pt(3, 4), Pt(3, 4)},
		{"translate", Translate(10, 20), Pt(3, 4), Pt(13, 24)},
		{"scale", Scale(2, 3), Pt(3, 4), Pt(6, 12)},
		{"rotate 90", Rotate(math.Pi / 2), Pt(1, 0), Pt(0, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.m.TransformPoint(tt.p)
			if math.Abs(got.X-tt.want.X) > 1e-9 || math.Abs(got.Y-tt.want.Y) > 1e-9 {
				t.Errorf("TransformPoint = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMatrixTransformRect(t *testing.T) {
	// A rotated rect maps to the bounding box of its corners.
	m := Rotate(math.Pi / 2)
	got := m.TransformRect(NewRect(0, 0, 10, 20))
	want := NewRect(-20, 0, 20, 10)
	if math.Abs(got.X-want.X) > 1e-9 || math.Abs(got.Y-want.Y) > 1e-9 ||
		math.Abs(got.W-want.W) > 1e-9 || math.Abs(got.H-want.H) > 1e-9 {
		t.Errorf("TransformRect = %+v, want %+v", got, want)
	}
}

func TestMatrixInvert(t *testing.T) {
	tests := []struct {
		name   string
		m      Matrix
		wantOK bool
	}{
		{"identity", Identity(), true},
		{"translate", Translate(5, -7), true},
		{"scale", Scale(2, 0.5), true},
		{"rotation", Rotate(0.3), true},
		{"singular zero", Matrix{}, false},
		{"singular collapse", Scale(0, 1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, ok := tt.m.Invert()
			if ok != tt.wantOK {
				t.Fatalf("Invert ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			round := tt.m.Multiply(inv)
			if !round.IsIdentity() {
				// Allow float wiggle.
				p := round.TransformPoint(Pt(12, -34))
				if math.Abs(p.X-12) > 1e-9 || math.Abs(p.Y+34) > 1e-9 {
					t.Errorf("m * m^-1 is not identity: %+v", round)
				}
			}
		})
	}
}

func TestMatrixScaleFactors(t *testing.T) {
	sx, sy := Scale(3, 5).ScaleFactors()
	if sx != 3 || sy != 5 {
		t.Errorf("ScaleFactors = %v, %v, want 3, 5", sx, sy)
	}
	// Rotation preserves lengths.
	sx, sy = Rotate(math.Pi / 3).ScaleFactors()
	if math.Abs(sx-1) > 1e-9 || math.Abs(sy-1) > 1e-9 {
		t.Errorf("rotation ScaleFactors = %v, %v, want 1, 1", sx, sy)
	}
}

func TestMatrixIsScaleOffset(t *testing.T) {
	tests := []struct {
		name string
		m    Matrix
		want bool
	}{
		{"identity", Identity(), true},
		{"translate", Translate(1, 2), true},
		{"scale", Scale(2, 3), true},
		{"rotation", Rotate(0.1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.IsScaleOffset(); got != tt.want {
				t.Errorf("IsScaleOffset = %v, want %v", got, tt.want)
			}
		})
	}
}
