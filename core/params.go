package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Limits of the interactive configuration surface
const (
	MaxStreamlines  = 5000
	MaxIterations   = 1000
	MinStepScale    = 0.001
	MaxStepScale    = 0.1
	MaxRadiusFactor = 0.1
	MinContourStep  = 1
	MaxContourStep  = 20
)

// Params is the full parameter set of one computation pass. It is passed
// explicitly through the pipeline and owned by the caller.
type Params struct {
	Count        int     `json:"count"`
	Iterations   int     `json:"iterations"`
	StepScale    float64 `json:"factor"`
	SeedRatio    float64 `json:"seedRatio"`
	RadiusFactor float64 `json:"radiusFactor"`

	FeatureCenter mgl64.Vec2 `json:"featureCenter"`
	FeatureRadius float64    `json:"featureRadius"`

	// RandomSeed drives seed placement. Zero means a fresh seed per pass.
	RandomSeed int64 `json:"randomSeed"`

	ContourStep float64 `json:"isoStep"`
	Slice       Slice   `json:"slice"`
}

// DefaultParams returns the values the explorer starts with
func DefaultParams() Params {
	return Params{
		Count:         750,
		Iterations:    300,
		StepScale:     0.03,
		SeedRatio:     0.05,
		RadiusFactor:  0.014,
		FeatureCenter: mgl64.Vec2{138, 120},
		FeatureRadius: 25,
		ContourStep:   10,
		Slice:         Slice{Axis: AxisZ, Index: 0},
	}
}

// Clamp forces every field into its allowed range. scalar gives the extent
// of the temperature grid the slice index refers to.
func (p Params) Clamp(scalar Dims) Params {
	p.Count = clampInt(p.Count, 0, MaxStreamlines)
	p.Iterations = clampInt(p.Iterations, 0, MaxIterations)
	p.StepScale = clampFloat(p.StepScale, MinStepScale, MaxStepScale)
	p.SeedRatio = clampFloat(p.SeedRatio, 0, 1)
	p.RadiusFactor = clampFloat(p.RadiusFactor, 0, MaxRadiusFactor)
	p.ContourStep = clampFloat(p.ContourStep, MinContourStep, MaxContourStep)
	if p.FeatureRadius < 0 || math.IsNaN(p.FeatureRadius) || math.IsInf(p.FeatureRadius, 0) {
		p.FeatureRadius = 0
	}
	if !p.Slice.Axis.Valid() {
		p.Slice.Axis = AxisZ
	}
	p.Slice.Index = clampInt(p.Slice.Index, 0, scalar.Axis(p.Slice.Axis)-1)
	return p
}

// StreamlinesChanged reports whether moving from p to q invalidates the
// integrated batch
func (p Params) StreamlinesChanged(q Params) bool {
	return p.Count != q.Count || p.Iterations != q.Iterations ||
		p.StepScale != q.StepScale || p.SeedRatio != q.SeedRatio ||
		p.FeatureCenter != q.FeatureCenter || p.FeatureRadius != q.FeatureRadius ||
		p.RandomSeed != q.RandomSeed
}

// TubesChanged reports whether moving from p to q invalidates the built tube
// meshes (but not necessarily the batch)
func (p Params) TubesChanged(q Params) bool {
	return p.StreamlinesChanged(q) || p.RadiusFactor != q.RadiusFactor
}

// SliceChanged reports whether moving from p to q invalidates the contours
func (p Params) SliceChanged(q Params) bool {
	return p.Slice != q.Slice || p.ContourStep != q.ContourStep
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
