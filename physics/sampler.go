package physics

import (
	"math"

	"hurricaneviz/core"

	"github.com/go-gl/mathgl/mgl64"
)

// cell holds the eight corner offsets and fractional position of one
// trilinear lookup. Corner order is v000, v100, v010, v110, v001, v101,
// v011, v111 (x varies fastest).
type cell struct {
	idx        [8]int
	fx, fy, fz float64
}

// locate resolves the cell around (x, y, z). The caller guarantees that
// floor and ceil of every coordinate are valid indices.
func locate(d core.Dims, x, y, z float64) cell {
	fx, fy, fz := math.Floor(x), math.Floor(y), math.Floor(z)
	x0, y0, z0 := int(fx), int(fy), int(fz)
	x1, y1, z1 := int(math.Ceil(x)), int(math.Ceil(y)), int(math.Ceil(z))

	return cell{
		idx: [8]int{
			d.Index(x0, y0, z0),
			d.Index(x1, y0, z0),
			d.Index(x0, y1, z0),
			d.Index(x1, y1, z0),
			d.Index(x0, y0, z1),
			d.Index(x1, y0, z1),
			d.Index(x0, y1, z1),
			d.Index(x1, y1, z1),
		},
		fx: x - fx,
		fy: y - fy,
		fz: z - fz,
	}
}

// blend interpolates buf over the cell: along x first, then y, then z
func (c *cell) blend(buf []float32) float64 {
	x00 := lerp(float64(buf[c.idx[0]]), float64(buf[c.idx[1]]), c.fx)
	x10 := lerp(float64(buf[c.idx[2]]), float64(buf[c.idx[3]]), c.fx)
	x01 := lerp(float64(buf[c.idx[4]]), float64(buf[c.idx[5]]), c.fx)
	x11 := lerp(float64(buf[c.idx[6]]), float64(buf[c.idx[7]]), c.fx)

	y0 := lerp(x00, x10, c.fy)
	y1 := lerp(x01, x11, c.fy)

	return lerp(y0, y1, c.fz)
}

// lerp returns a*(1-t) + b*t. For t == 0 the result is exactly a, which is
// what makes integral coordinates reproduce grid samples.
func lerp(a, b, t float64) float64 {
	return a*(1-t) + b*t
}

// SampleScalar interpolates the scalar field at a continuous position
func SampleScalar(f *core.ScalarField, x, y, z float64) float64 {
	c := locate(f.Dims, x, y, z)
	return c.blend(f.Values)
}

// SampleVector interpolates the raw (unmapped) vector field at p
func SampleVector(f *core.VectorField, p mgl64.Vec3) mgl64.Vec3 {
	c := locate(f.Dims, p[0], p[1], p[2])
	return mgl64.Vec3{c.blend(f.U), c.blend(f.V), c.blend(f.W)}
}
