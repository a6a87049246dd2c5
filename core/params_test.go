package core

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestParamsClamp(t *testing.T) {
	scalar := Dims{X: 100, Y: 100, Z: 100}
	tests := []struct {
		name  string
		apply func(*Params)
		check func(Params) bool
	}{
		{"count above limit", func(p *Params) { p.Count = 9000 }, func(p Params) bool { return p.Count == MaxStreamlines }},
		{"negative count", func(p *Params) { p.Count = -1 }, func(p Params) bool { return p.Count == 0 }},
		{"iterations above limit", func(p *Params) { p.Iterations = 5000 }, func(p Params) bool { return p.Iterations == MaxIterations }},
		{"tiny factor", func(p *Params) { p.StepScale = 0 }, func(p Params) bool { return p.StepScale == MinStepScale }},
		{"NaN factor", func(p *Params) { p.StepScale = math.NaN() }, func(p Params) bool { return p.StepScale == MinStepScale }},
		{"ratio above one", func(p *Params) { p.SeedRatio = 3 }, func(p Params) bool { return p.SeedRatio == 1 }},
		{"radius factor", func(p *Params) { p.RadiusFactor = 1 }, func(p Params) bool { return p.RadiusFactor == MaxRadiusFactor }},
		{"contour step", func(p *Params) { p.ContourStep = 50 }, func(p Params) bool { return p.ContourStep == MaxContourStep }},
		{"negative feature radius", func(p *Params) { p.FeatureRadius = -2 }, func(p Params) bool { return p.FeatureRadius == 0 }},
		{"infinite feature radius", func(p *Params) { p.FeatureRadius = math.Inf(1) }, func(p Params) bool { return p.FeatureRadius == 0 }},
		{"bad axis", func(p *Params) { p.Slice.Axis = 9 }, func(p Params) bool { return p.Slice.Axis == AxisZ }},
		{"slice index", func(p *Params) { p.Slice.Index = 100 }, func(p Params) bool { return p.Slice.Index == 99 }},
		{"defaults untouched", func(p *Params) {}, func(p Params) bool { return p == DefaultParams() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.apply(&p)
			if got := p.Clamp(scalar); !tt.check(got) {
				t.Errorf("Clamp gave %+v", got)
			}
		})
	}
}

func TestParamsChanges(t *testing.T) {
	base := DefaultParams()

	radius := base
	radius.RadiusFactor = 0.05
	if base.StreamlinesChanged(radius) || !base.TubesChanged(radius) || base.SliceChanged(radius) {
		t.Error("radius factor change misclassified")
	}

	center := base
	center.FeatureCenter = mgl64.Vec2{1, 2}
	if !base.StreamlinesChanged(center) || !base.TubesChanged(center) {
		t.Error("feature centre change did not invalidate streamlines")
	}

	slice := base
	slice.Slice.Index = 4
	if base.StreamlinesChanged(slice) || !base.SliceChanged(slice) {
		t.Error("slice change misclassified")
	}
}
