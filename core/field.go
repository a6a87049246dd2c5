package core

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Dims holds the extent of a uniform grid along each axis
type Dims struct {
	X, Y, Z int
}

// Len returns the number of samples in the grid
func (d Dims) Len() int {
	return d.X * d.Y * d.Z
}

// Index maps integer grid coordinates to a flat buffer offset
func (d Dims) Index(x, y, z int) int {
	return x + y*d.X + z*d.X*d.Y
}

// Axis returns the extent along axis a
func (d Dims) Axis(a Axis) int {
	switch a {
	case AxisX:
		return d.X
	case AxisY:
		return d.Y
	default:
		return d.Z
	}
}

// Contains reports whether both floor and ceil of every coordinate of p are
// valid indices, i.e. whether p may be sampled.
func (d Dims) Contains(p mgl64.Vec3) bool {
	return inRange(p[0], d.X) && inRange(p[1], d.Y) && inRange(p[2], d.Z)
}

func inRange(v float64, n int) bool {
	return math.Floor(v) >= 0 && math.Ceil(v) <= float64(n-1)
}

func (d Dims) String() string {
	return fmt.Sprintf("%dx%dx%d", d.X, d.Y, d.Z)
}

// ScalarField is an immutable flat scalar grid (temperature)
type ScalarField struct {
	Dims   Dims
	Values []float32
}

// NewScalarField wraps values; it panics when the buffer does not match dims
func NewScalarField(dims Dims, values []float32) *ScalarField {
	mustMatch("scalar", dims, len(values))
	return &ScalarField{Dims: dims, Values: values}
}

// At returns the sample at integer coordinates
func (f *ScalarField) At(x, y, z int) float64 {
	return float64(f.Values[f.Dims.Index(x, y, z)])
}

// VectorField is an immutable flat vector grid (wind). U, V and W are the
// raw file components; any axis remapping happens in the integrator.
type VectorField struct {
	Dims    Dims
	U, V, W []float32
}

// NewVectorField wraps the three component buffers; it panics when any of
// them does not match dims
func NewVectorField(dims Dims, u, v, w []float32) *VectorField {
	mustMatch("u", dims, len(u))
	mustMatch("v", dims, len(v))
	mustMatch("w", dims, len(w))
	return &VectorField{Dims: dims, U: u, V: v, W: w}
}

// At returns the raw vector at integer coordinates
func (f *VectorField) At(x, y, z int) mgl64.Vec3 {
	i := f.Dims.Index(x, y, z)
	return mgl64.Vec3{float64(f.U[i]), float64(f.V[i]), float64(f.W[i])}
}

func mustMatch(name string, dims Dims, n int) {
	if dims.X <= 0 || dims.Y <= 0 || dims.Z <= 0 {
		panic(fmt.Sprintf("core: invalid grid dims %s", dims))
	}
	if n != dims.Len() {
		panic(fmt.Sprintf("core: %s buffer has %d samples, grid %s needs %d", name, n, dims, dims.Len()))
	}
}
