package physics

import (
	"math"
	"math/rand"

	"hurricaneviz/core"

	"github.com/go-gl/mathgl/mgl64"
)

// SeedGenerator places streamline start points. Biased seeds are
// concentrated inside a vertical cylinder around a feature (the hurricane
// eye); the rest are spread uniformly over the domain.
type SeedGenerator struct {
	rng *rand.Rand
}

// NewSeedGenerator uses rng for every draw, so a fixed source gives a fixed
// seed sequence
func NewSeedGenerator(rng *rand.Rand) *SeedGenerator {
	return &SeedGenerator{rng: rng}
}

// BiasedCount returns how many of count seeds are drawn inside the cylinder
func BiasedCount(count int, ratio float64) int {
	if count <= 0 {
		return 0
	}
	ratio = math.Max(0, math.Min(1, ratio))
	n := int(math.Ceil(float64(count) * ratio))
	if n > count {
		n = count
	}
	return n
}

// Generate returns count seeds: first the biased ones, then the uniform ones
func (g *SeedGenerator) Generate(count int, ratio float64, center mgl64.Vec2, radius float64, dims core.Dims) []core.Seed {
	if count <= 0 {
		return nil
	}
	biased := BiasedCount(count, ratio)
	seeds := make([]core.Seed, 0, count)

	if radius < 0 || !finite(radius) {
		radius = 0
	}
	// a non-finite centre would reject every draw
	if !finite(center[0]) || !finite(center[1]) {
		biased = 0
	}
	zSpan := float64(dims.Z - 1)
	for len(seeds) < biased {
		x := center[0] - radius + g.rng.Float64()*2*radius
		y := center[1] - radius + g.rng.Float64()*2*radius
		z := g.rng.Float64() * zSpan
		if math.Hypot(x-center[0], y-center[1]) <= radius {
			seeds = append(seeds, core.Seed{x, y, z})
		}
	}

	xSpan, ySpan := float64(dims.X-1), float64(dims.Y-1)
	for len(seeds) < count {
		x := g.rng.Float64() * xSpan
		y := g.rng.Float64() * ySpan
		z := g.rng.Float64() * zSpan
		seeds = append(seeds, core.Seed{x, y, z})
	}
	return seeds
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
