package physics

import (
	"fmt"
	"math"

	"hurricaneviz/core"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/floats"
)

// levels are rounded to 10 decimals to drop accumulated drift
const levelPrecision = 1e10

// ComputeLevels returns the contour thresholds k*step that fall inside
// [lo, hi), ascending, so (-78, 30, 10) gives -70 through 20. A multiple
// of step equal to hi is left out even when it is a whole multiple: the
// field only touches it at grid vertices, which yields zero-length segments.
func ComputeLevels(lo, hi, step float64) []float64 {
	if step <= 0 || math.IsNaN(step) || math.IsInf(step, 0) {
		return nil
	}
	start := math.Ceil(lo/step) * step
	end := math.Floor(hi/step) * step
	if start > end {
		return nil
	}

	n := int(math.Round((end - start) / step))
	levels := make([]float64, 0, n+1)
	for i := 0; i <= n; i++ {
		v := math.Round((start+float64(i)*step)*levelPrecision) / levelPrecision
		if v >= hi {
			break
		}
		levels = append(levels, v)
	}
	return levels
}

// crossing returns where the level crosses edge p1-p2 whose endpoint
// values are t1 and t2. Edges with equal endpoint values never cross.
func crossing(p1, p2 mgl64.Vec3, t1, t2, level float64) (mgl64.Vec3, bool) {
	d := t2 - t1
	if d == 0 {
		return mgl64.Vec3{}, false
	}
	t := (level - t1) / d
	if t < 0 || t > 1 {
		return mgl64.Vec3{}, false
	}
	return p1.Add(p2.Sub(p1).Mul(t)), true
}

// triangle collects the crossings of one triangle and reports a segment
// only when exactly two of its three edges cross. Three crossings (a vertex
// lying on the level) are skipped as degenerate.
func triangle(level float64, edges [3][2]int, pts *[4]mgl64.Vec3, vals *[4]float64) (core.Segment, bool) {
	var hits [3]mgl64.Vec3
	n := 0
	for _, e := range edges {
		if p, ok := crossing(pts[e[0]], pts[e[1]], vals[e[0]], vals[e[1]], level); ok {
			hits[n] = p
			n++
		}
	}
	if n != 2 {
		return core.Segment{}, false
	}
	return core.Segment{A: hits[0], B: hits[1]}, true
}

// Corner order inside a cell: 0=(i,j) 1=(i+1,j) 2=(i,j+1) 3=(i+1,j+1).
// Both triangles share the (i+1,j)-(i,j+1) edge.
var (
	triangleA = [3][2]int{{0, 1}, {0, 2}, {2, 1}}
	triangleB = [3][2]int{{3, 1}, {3, 2}, {2, 1}}
)

// ExtractSlice computes iso-contour segments of the scalar field on the
// slice perpendicular to axis at index. Points are in slice-local (i, j, 0)
// coordinates. Segments come out in row-major cell order (j outer, i inner),
// then ascending level order, then triangle A before B.
func ExtractSlice(f *core.ScalarField, axis core.Axis, index int, levels []float64) []core.Segment {
	checkSlice(f.Dims, axis, index)
	if len(levels) == 0 {
		return nil
	}
	ua, va := axis.Plane()
	nu, nv := f.Dims.Axis(ua), f.Dims.Axis(va)

	var segments []core.Segment
	var pts [4]mgl64.Vec3
	var vals [4]float64
	for j := 0; j < nv-1; j++ {
		for i := 0; i < nu-1; i++ {
			pts = [4]mgl64.Vec3{
				{float64(i), float64(j), 0},
				{float64(i + 1), float64(j), 0},
				{float64(i), float64(j + 1), 0},
				{float64(i + 1), float64(j + 1), 0},
			}
			vals = [4]float64{
				sliceValue(f, axis, i, j, index),
				sliceValue(f, axis, i+1, j, index),
				sliceValue(f, axis, i, j+1, index),
				sliceValue(f, axis, i+1, j+1, index),
			}
			for _, level := range levels {
				if s, ok := triangle(level, triangleA, &pts, &vals); ok {
					segments = append(segments, s)
				}
				if s, ok := triangle(level, triangleB, &pts, &vals); ok {
					segments = append(segments, s)
				}
			}
		}
	}
	return segments
}

// SliceScalars is the scalar content of one slice, row-major over the
// in-plane axes, with its range
type SliceScalars struct {
	Width, Height int
	Values        []float64
	Min, Max      float64
}

// ExtractScalars copies the slice's samples for the colour plane
func ExtractScalars(f *core.ScalarField, axis core.Axis, index int) SliceScalars {
	checkSlice(f.Dims, axis, index)
	ua, va := axis.Plane()
	nu, nv := f.Dims.Axis(ua), f.Dims.Axis(va)

	out := SliceScalars{Width: nu, Height: nv, Values: make([]float64, nu*nv)}
	for j := 0; j < nv; j++ {
		for i := 0; i < nu; i++ {
			out.Values[i+j*nu] = sliceValue(f, axis, i, j, index)
		}
	}
	out.Min = floats.Min(out.Values)
	out.Max = floats.Max(out.Values)
	return out
}

func sliceValue(f *core.ScalarField, axis core.Axis, i, j, index int) float64 {
	x, y, z := axis.Grid(i, j, index)
	return f.At(x, y, z)
}

func checkSlice(d core.Dims, axis core.Axis, index int) {
	if !axis.Valid() || index < 0 || index >= d.Axis(axis) {
		panic(fmt.Sprintf("physics: slice %s=%d outside grid %s", axis, index, d))
	}
}
