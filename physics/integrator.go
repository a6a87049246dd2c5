package physics

import (
	"context"

	"hurricaneviz/core"

	"github.com/go-gl/mathgl/mgl64"
)

// Remap converts a raw sampled field vector into grid-space direction
type Remap func(mgl64.Vec3) mgl64.Vec3

// WindRemap is the fixed axis mapping of the hurricane data set:
// (x, y, z) = (-v, u, w)
func WindRemap(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{-v[1], v[0], v[2]}
}

// Integrator traces streamlines with fixed-step explicit Euler. One
// Integrator serves one pass; its pool is not shared across passes.
type Integrator struct {
	Field         *core.VectorField
	MaxIterations int
	StepScale     float64
	Remap         Remap

	pool *VectorPool
}

// NewIntegrator creates an integrator with its own vector pool
func NewIntegrator(field *core.VectorField, maxIterations int, stepScale float64) *Integrator {
	return &Integrator{
		Field:         field,
		MaxIterations: maxIterations,
		StepScale:     stepScale,
		Remap:         WindRemap,
		pool:          NewVectorPool(DefaultPoolSize),
	}
}

// Pool exposes the scratch pool, mostly for inspection
func (it *Integrator) Pool() *VectorPool {
	return it.pool
}

// Integrate marches from seed. Each step samples the remapped field at the
// current position, records its magnitude, then advances by
// vector*StepScale; a step that lands outside the grid ends the line and is
// not kept. ok is false when fewer than two points survive. maxMagnitude is
// raised to the largest magnitude recorded.
func (it *Integrator) Integrate(seed core.Seed, maxMagnitude *float64) (core.Streamline, bool) {
	dims := it.Field.Dims
	if !dims.Contains(seed.Vec()) {
		return core.Streamline{}, false
	}
	remap := it.Remap
	if remap == nil {
		remap = WindRemap
	}

	pos := it.pool.Borrow(seed[0], seed[1], seed[2])
	dir := it.pool.Borrow(0, 0, 0)
	defer it.pool.ReleaseAll(pos, dir)

	var line core.Streamline
	for j := 0; j < it.MaxIterations; j++ {
		*dir = remap(SampleVector(it.Field, *pos))
		magnitude := dir.Len()
		*pos = pos.Add(dir.Mul(it.StepScale))

		if !dims.Contains(*pos) {
			break
		}
		line.Points = append(line.Points, *pos)
		line.Magnitudes = append(line.Magnitudes, magnitude)
		if maxMagnitude != nil && magnitude > *maxMagnitude {
			*maxMagnitude = magnitude
		}
	}

	if line.Len() <= 1 {
		return core.Streamline{}, false
	}
	return line, true
}

// Progress receives the number of seeds processed so far
type Progress func(done, total int)

// IntegrateAll traces every seed in order and keeps the valid lines. It
// stops early with ctx's error when ctx is cancelled between seeds.
func (it *Integrator) IntegrateAll(ctx context.Context, seeds []core.Seed, progress Progress) (core.Batch, error) {
	var batch core.Batch
	every := len(seeds) / 10
	if every < 1 {
		every = 1
	}
	for i, seed := range seeds {
		if err := ctx.Err(); err != nil {
			return core.Batch{}, err
		}
		if line, ok := it.Integrate(seed, &batch.MaxMagnitude); ok {
			batch.Lines = append(batch.Lines, line)
		}
		if progress != nil && i%every == 0 {
			progress(i, len(seeds))
		}
	}
	if progress != nil {
		progress(len(seeds), len(seeds))
	}
	return batch, nil
}
