package geometry

import "testing"

func TestBoundary_Contains(t *testing.T) {
	b := NewBoundary(0, 0, 10, 10, 0, 5)

	tests := []struct {
		name string
		p    *Position
		want bool
	}{
		{"interior", &Position{X: 3, Y: 3, Z: 1}, true},
		{"lower corner inclusive", &Position{X: 0, Y: 0, Z: 0}, true},
		{"upper corner inclusive", &Position{X: 10, Y: 10, Z: 5}, true},
		{"x below", &Position{X: -0.001, Y: 3, Z: 1}, false},
		{"x above", &Position{X: 10.001, Y: 3, Z: 1}, false},
		{"y below", &Position{X: 3, Y: -1, Z: 1}, false},
		{"y above", &Position{X: 3, Y: 11, Z: 1}, false},
		{"z below", &Position{X: 3, Y: 3, Z: -0.5}, false},
		{"z above", &Position{X: 3, Y: 3, Z: 5.5}, false},
		{"nil position", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.Contains(tt.p); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

// Moving any single coordinate of a contained point outside its interval
// must break containment.
func TestBoundary_ContainsSingleAxisFlip(t *testing.T) {
	b := NewBoundary(-2, 1, 4, 7, -1, 3)
	inside := Position{X: 1, Y: 4, Z: 0}
	if !b.Contains(&inside) {
		t.Fatalf("expected %v inside %v", inside, b)
	}

	flips := []func(p *Position){
		func(p *Position) { p.X = b.X1 - 0.1 },
		func(p *Position) { p.X = b.X2 + 0.1 },
		func(p *Position) { p.Y = b.Y1 - 0.1 },
		func(p *Position) { p.Y = b.Y2 + 0.1 },
		func(p *Position) { p.Z = b.Z1 - 0.1 },
		func(p *Position) { p.Z = b.Z2 + 0.1 },
	}
	for i, flip := range flips {
		p := inside
		flip(&p)
		if b.Contains(&p) {
			t.Errorf("flip %d: Contains(%v) = true, want false", i, p)
		}
	}
}

func TestBoundary_IsHigherResolutionThan(t *testing.T) {
	outer := NewBoundary(0, 0, 10, 10, 0, 5)

	tests := []struct {
		name  string
		check Boundary
		want  bool
	}{
		{"nested", NewBoundary(2, 2, 5, 5, 0, 5), true},
		{"equal", outer, true},
		{"lower-left x outside", NewBoundary(-1, 2, 5, 5, 0, 5), false},
		{"lower-left y outside", NewBoundary(2, -1, 5, 5, 0, 5), false},
		{"upper-right x outside", NewBoundary(2, 2, 11, 5, 0, 5), false},
		{"upper-right y outside", NewBoundary(2, 2, 5, 11, 0, 5), false},
		{"elevation ignored", NewBoundary(2, 2, 5, 5, -100, 100), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.check.IsHigherResolutionThan(outer); got != tt.want {
				t.Errorf("IsHigherResolutionThan = %v, want %v", got, tt.want)
			}
		})
	}

	if outer.IsHigherResolutionThan(NewBoundary(2, 2, 5, 5, 0, 5)) {
		t.Error("enclosing boundary should not be higher resolution than the nested one")
	}
}

func TestBoundary_Validate(t *testing.T) {
	if err := NewBoundary(0, 0, 1, 1, 0, 1).Validate(); err != nil {
		t.Errorf("valid boundary: %v", err)
	}
	bad := []Boundary{
		NewBoundary(2, 0, 1, 1, 0, 1),
		NewBoundary(0, 2, 1, 1, 0, 1),
		NewBoundary(0, 0, 1, 1, 2, 1),
	}
	for _, b := range bad {
		if err := b.Validate(); err == nil {
			t.Errorf("Validate(%v) = nil, want error", b)
		}
	}
}
