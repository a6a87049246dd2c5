package physics

import (
	"math"

	"hurricaneviz/core"

	"github.com/go-gl/mathgl/mgl64"
)

// RadialSegments is the number of sides of every streamline tube
const RadialSegments = 6

// TubeMesh is render-ready indexed geometry for one streamline
type TubeMesh struct {
	Positions []float32 `json:"positions"`
	Normals   []float32 `json:"normals"`
	Colors    []float32 `json:"colors"`
	UVs       []float32 `json:"uvs"`
	Indices   []uint32  `json:"indices"`
}

// VertexCount returns the number of vertices in the mesh
func (m *TubeMesh) VertexCount() int {
	return len(m.Positions) / 3
}

// BuildTube sweeps a tube along the spline through line's points. Ring i
// has radius Magnitudes[i]*radiusFactor and a grey level of
// Magnitudes[i]/maxMagnitude; the closing ring reuses the last magnitude.
func BuildTube(line core.Streamline, radiusFactor, maxMagnitude float64) *TubeMesh {
	segments := line.Len()
	if segments < 2 {
		return &TubeMesh{}
	}
	curve := NewCurve(line.Points)
	frames := curve.FrenetFrames(segments)

	rings := segments + 1
	verts := rings * (RadialSegments + 1)
	m := &TubeMesh{
		Positions: make([]float32, 0, verts*3),
		Normals:   make([]float32, 0, verts*3),
		Colors:    make([]float32, 0, verts*3),
		UVs:       make([]float32, 0, verts*2),
		Indices:   make([]uint32, 0, segments*RadialSegments*6),
	}

	for i := 0; i < rings; i++ {
		magnitude := line.Magnitudes[min(i, segments-1)]
		p := curve.PointAt(float64(i) / float64(segments))
		n, b := frames.Normals[i], frames.Binormals[i]
		grey := Grayscale.Color(safeRatio(magnitude, maxMagnitude))

		for j := 0; j <= RadialSegments; j++ {
			v := float64(j) / RadialSegments * 2 * math.Pi
			sin, cos := math.Sin(v), -math.Cos(v)

			normal := n.Mul(cos).Add(b.Mul(sin))
			if normal.Len() > 0 {
				normal = normal.Normalize()
			}
			vertex := p.Add(normal.Mul(magnitude * radiusFactor))

			m.Positions = appendVec(m.Positions, vertex)
			m.Normals = appendVec(m.Normals, normal)
			m.Colors = appendVec(m.Colors, grey)
			m.UVs = append(m.UVs, float32(i)/float32(segments), float32(j)/RadialSegments)
		}
	}

	for j := 1; j <= segments; j++ {
		for i := 1; i <= RadialSegments; i++ {
			a := uint32((RadialSegments+1)*(j-1) + (i - 1))
			b := uint32((RadialSegments+1)*j + (i - 1))
			c := uint32((RadialSegments+1)*j + i)
			d := uint32((RadialSegments+1)*(j-1) + i)
			m.Indices = append(m.Indices, a, b, d, b, c, d)
		}
	}
	return m
}

func appendVec(dst []float32, v mgl64.Vec3) []float32 {
	return append(dst, float32(v[0]), float32(v[1]), float32(v[2]))
}

func safeRatio(v, maxV float64) float64 {
	if maxV <= 0 {
		return 0
	}
	return v / maxV
}

// LUT is a colour lookup table sampled from linear colour stops
type LUT struct {
	colors []mgl64.Vec3
}

// ColorStop is one (position, colour) pair of a LUT ramp
type ColorStop struct {
	Pos   float64
	Color mgl64.Vec3
}

// NewLUT samples the stops into n entries
func NewLUT(n int, stops ...ColorStop) *LUT {
	l := &LUT{colors: make([]mgl64.Vec3, n)}
	for i := range l.colors {
		alpha := float64(i) / float64(n-1)
		for k := 0; k < len(stops)-1; k++ {
			lo, hi := stops[k], stops[k+1]
			if alpha >= lo.Pos && alpha <= hi.Pos {
				t := (alpha - lo.Pos) / (hi.Pos - lo.Pos)
				l.colors[i] = lo.Color.Mul(1 - t).Add(hi.Color.Mul(t))
				break
			}
		}
	}
	return l
}

// Color returns the entry nearest to alpha, clamped to [0,1]
func (l *LUT) Color(alpha float64) mgl64.Vec3 {
	alpha = mgl64.Clamp(alpha, 0, 1)
	if math.IsNaN(alpha) {
		alpha = 0
	}
	return l.colors[int(math.Round(alpha*float64(len(l.colors)-1)))]
}

// Grayscale is the black-to-white ramp used to shade streamline tubes
var Grayscale = NewLUT(512,
	ColorStop{0, mgl64.Vec3{0, 0, 0}},
	ColorStop{0.2, mgl64.Vec3{0x40, 0x40, 0x40}.Mul(1.0 / 255)},
	ColorStop{0.5, mgl64.Vec3{0x7f, 0x7f, 0x80}.Mul(1.0 / 255)},
	ColorStop{0.8, mgl64.Vec3{0xbf, 0xbf, 0xbf}.Mul(1.0 / 255)},
	ColorStop{1, mgl64.Vec3{1, 1, 1}},
)
