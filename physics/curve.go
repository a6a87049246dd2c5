package physics

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// arcDivisions is the number of samples used for arc-length lookup
const arcDivisions = 200

// Curve is an open centripetal Catmull-Rom spline through a point list.
// Ends are extrapolated by mirroring the neighbouring point.
type Curve struct {
	points  []mgl64.Vec3
	lengths []float64
}

// NewCurve builds the spline; it needs at least two points
func NewCurve(points []mgl64.Vec3) *Curve {
	c := &Curve{points: points}
	c.lengths = c.arcLengths()
	return c
}

// Point evaluates the spline at curve parameter t in [0,1]
func (c *Curve) Point(t float64) mgl64.Vec3 {
	l := len(c.points)
	p := float64(l-1) * t
	seg := int(math.Floor(p))
	w := p - float64(seg)
	if seg >= l-1 {
		seg = l - 2
		w = 1
	}

	var p0, p3 mgl64.Vec3
	p1, p2 := c.points[seg], c.points[seg+1]
	if seg > 0 {
		p0 = c.points[seg-1]
	} else {
		p0 = p1.Sub(c.points[1]).Add(p1)
	}
	if seg+2 < l {
		p3 = c.points[seg+2]
	} else {
		p3 = p2.Sub(c.points[l-2]).Add(p2)
	}

	dt0 := math.Pow(p0.Sub(p1).Dot(p0.Sub(p1)), 0.25)
	dt1 := math.Pow(p1.Sub(p2).Dot(p1.Sub(p2)), 0.25)
	dt2 := math.Pow(p2.Sub(p3).Dot(p2.Sub(p3)), 0.25)
	if dt1 < 1e-4 {
		dt1 = 1
	}
	if dt0 < 1e-4 {
		dt0 = dt1
	}
	if dt2 < 1e-4 {
		dt2 = dt1
	}

	var out mgl64.Vec3
	for k := 0; k < 3; k++ {
		out[k] = nonuniformCatmullRom(p0[k], p1[k], p2[k], p3[k], dt0, dt1, dt2, w)
	}
	return out
}

func nonuniformCatmullRom(x0, x1, x2, x3, dt0, dt1, dt2, t float64) float64 {
	t1 := (x1-x0)/dt0 - (x2-x0)/(dt0+dt1) + (x2-x1)/dt1
	t2 := (x2-x1)/dt1 - (x3-x1)/(dt1+dt2) + (x3-x2)/dt2
	t1 *= dt1
	t2 *= dt1

	c2 := -3*x1 + 3*x2 - 2*t1 - t2
	c3 := 2*x1 - 2*x2 + t1 + t2
	return x1 + t1*t + c2*t*t + c3*t*t*t
}

func (c *Curve) arcLengths() []float64 {
	lengths := make([]float64, arcDivisions+1)
	last := c.Point(0)
	for d := 1; d <= arcDivisions; d++ {
		cur := c.Point(float64(d) / arcDivisions)
		lengths[d] = lengths[d-1] + cur.Sub(last).Len()
		last = cur
	}
	return lengths
}

// Length returns the approximate arc length
func (c *Curve) Length() float64 {
	return c.lengths[len(c.lengths)-1]
}

// paramAt maps an arc-length fraction u to the curve parameter t
func (c *Curve) paramAt(u float64) float64 {
	n := len(c.lengths)
	target := u * c.lengths[n-1]
	i := sort.SearchFloat64s(c.lengths, target)
	if i >= n {
		return 1
	}
	if c.lengths[i] == target || i == 0 {
		return float64(i) / float64(n-1)
	}
	before, after := c.lengths[i-1], c.lengths[i]
	frac := (target - before) / (after - before)
	return (float64(i-1) + frac) / float64(n-1)
}

// PointAt evaluates the spline at arc-length fraction u
func (c *Curve) PointAt(u float64) mgl64.Vec3 {
	return c.Point(c.paramAt(u))
}

// TangentAt returns the unit tangent at arc-length fraction u
func (c *Curve) TangentAt(u float64) mgl64.Vec3 {
	const delta = 1e-4
	t := c.paramAt(u)
	t1, t2 := math.Max(0, t-delta), math.Min(1, t+delta)
	d := c.Point(t2).Sub(c.Point(t1))
	if d.Len() == 0 {
		return d
	}
	return d.Normalize()
}

// Frames holds parallel-transported Frenet frames along a curve
type Frames struct {
	Tangents, Normals, Binormals []mgl64.Vec3
}

// FrenetFrames computes segments+1 frames at evenly spaced arc lengths
func (c *Curve) FrenetFrames(segments int) Frames {
	f := Frames{
		Tangents:  make([]mgl64.Vec3, segments+1),
		Normals:   make([]mgl64.Vec3, segments+1),
		Binormals: make([]mgl64.Vec3, segments+1),
	}
	for i := 0; i <= segments; i++ {
		f.Tangents[i] = c.TangentAt(float64(i) / float64(segments))
	}

	// initial normal along the tangent's smallest component
	t0 := f.Tangents[0]
	axis := mgl64.Vec3{0, 0, 1}
	ax, ay, az := math.Abs(t0[0]), math.Abs(t0[1]), math.Abs(t0[2])
	if ax <= ay && ax <= az {
		axis = mgl64.Vec3{1, 0, 0}
	} else if ay <= az {
		axis = mgl64.Vec3{0, 1, 0}
	}
	v := t0.Cross(axis)
	if v.Len() > 0 {
		v = v.Normalize()
	}
	f.Normals[0] = t0.Cross(v)
	f.Binormals[0] = t0.Cross(f.Normals[0])

	for i := 1; i <= segments; i++ {
		f.Normals[i] = f.Normals[i-1]
		v := f.Tangents[i-1].Cross(f.Tangents[i])
		if v.Len() > 1e-12 {
			v = v.Normalize()
			theta := math.Acos(mgl64.Clamp(f.Tangents[i-1].Dot(f.Tangents[i]), -1, 1))
			f.Normals[i] = mgl64.QuatRotate(theta, v).Rotate(f.Normals[i])
		}
		f.Binormals[i] = f.Tangents[i].Cross(f.Normals[i])
	}
	return f
}
