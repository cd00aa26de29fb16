// Package geometry holds the world-coordinate primitives used to match
// missions against georeferenced maps.
package geometry

import "fmt"

// Position is a point in world coordinates (meters).
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Boundary is an axis-aligned box in world coordinates. (X1, Y1) is the
// lower-left corner, (X2, Y2) the upper-right corner and [Z1, Z2] the
// elevation range.
type Boundary struct {
	X1 float64 `json:"x1" yaml:"x1"`
	Y1 float64 `json:"y1" yaml:"y1"`
	X2 float64 `json:"x2" yaml:"x2"`
	Y2 float64 `json:"y2" yaml:"y2"`
	Z1 float64 `json:"z1" yaml:"z1"`
	Z2 float64 `json:"z2" yaml:"z2"`
}

// NewBoundary builds a Boundary from its lower-left corner, upper-right corner
// and elevation range.
func NewBoundary(lowerLeftX, lowerLeftY, upperRightX, upperRightY, minElevation, maxElevation float64) Boundary {
	return Boundary{
		X1: lowerLeftX,
		Y1: lowerLeftY,
		X2: upperRightX,
		Y2: upperRightY,
		Z1: minElevation,
		Z2: maxElevation,
	}
}

// Contains reports whether p lies inside the closed box on all three axes.
// A nil position has no coordinates and is never contained.
func (b Boundary) Contains(p *Position) bool {
	if p == nil {
		return false
	}
	if p.X < b.X1 || p.X > b.X2 {
		return false
	}
	if p.Y < b.Y1 || p.Y > b.Y2 {
		return false
	}
	if p.Z < b.Z1 || p.Z > b.Z2 {
		return false
	}
	return true
}

// Corners returns the 2x2 corner matrix [[X1, Y1], [X2, Y2]].
func (b Boundary) Corners() [2][2]float64 {
	return [2][2]float64{{b.X1, b.Y1}, {b.X2, b.Y2}}
}

// IsHigherResolutionThan reports whether b's footprint lies within ref's
// footprint: b's lower-left corner is not below ref's on either axis and b's
// upper-right corner is not above ref's on either axis. A smaller nested map
// is taken as the more precise one; elevation is not compared.
func (b Boundary) IsHigherResolutionThan(ref Boundary) bool {
	check := b.Corners()
	reference := ref.Corners()
	if check[0][0] < reference[0][0] || check[0][1] < reference[0][1] {
		return false
	}
	if check[1][0] > reference[1][0] || check[1][1] > reference[1][1] {
		return false
	}
	return true
}

// Validate checks that the lower-left corner and minimum elevation do not
// exceed their upper counterparts.
func (b Boundary) Validate() error {
	if b.X1 > b.X2 {
		return fmt.Errorf("lower-left x %g exceeds upper-right x %g", b.X1, b.X2)
	}
	if b.Y1 > b.Y2 {
		return fmt.Errorf("lower-left y %g exceeds upper-right y %g", b.Y1, b.Y2)
	}
	if b.Z1 > b.Z2 {
		return fmt.Errorf("min elevation %g exceeds max elevation %g", b.Z1, b.Z2)
	}
	return nil
}
