package core

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Axis selects one of the three grid axes
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	}
	return "unknown"
}

// Valid reports whether a names a real axis
func (a Axis) Valid() bool {
	return a >= AxisX && a <= AxisZ
}

// Plane returns the two in-plane axes of a slice perpendicular to a, in the
// order they are walked (i, then j)
func (a Axis) Plane() (Axis, Axis) {
	switch a {
	case AxisX:
		return AxisY, AxisZ
	case AxisY:
		return AxisX, AxisZ
	default:
		return AxisX, AxisY
	}
}

// Grid maps slice-local integer coordinates (i, j) at slice index to grid
// coordinates
func (a Axis) Grid(i, j, index int) (int, int, int) {
	switch a {
	case AxisX:
		return index, i, j
	case AxisY:
		return i, index, j
	default:
		return i, j, index
	}
}

// Lift maps a slice-local point (i, j, 0) to grid space
func (a Axis) Lift(p mgl64.Vec3, index int) mgl64.Vec3 {
	s := float64(index)
	switch a {
	case AxisX:
		return mgl64.Vec3{s, p[0], p[1]}
	case AxisY:
		return mgl64.Vec3{p[0], s, p[1]}
	default:
		return mgl64.Vec3{p[0], p[1], s}
	}
}

// Seed is the start position of one streamline
type Seed mgl64.Vec3

// Vec returns the seed as a vector
func (s Seed) Vec() mgl64.Vec3 {
	return mgl64.Vec3(s)
}

// Streamline is one integrated curve. Magnitudes[i] is the field speed
// sampled right before Points[i] was reached.
type Streamline struct {
	Points     []mgl64.Vec3
	Magnitudes []float64
}

// Len returns the number of retained points
func (s Streamline) Len() int {
	return len(s.Points)
}

// Batch is the output of one integration pass
type Batch struct {
	Lines        []Streamline
	MaxMagnitude float64
}

// Segment is one contour crossing of a cell triangle, in slice-local
// coordinates (i, j, 0)
type Segment struct {
	A, B mgl64.Vec3
}

// Slice identifies one axis-aligned cut through the scalar grid
type Slice struct {
	Axis  Axis `json:"axis"`
	Index int  `json:"index"`
}
