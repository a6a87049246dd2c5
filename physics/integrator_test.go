package physics

import (
	"context"
	"errors"
	"math"
	"testing"

	"hurricaneviz/core"

	"github.com/go-gl/mathgl/mgl64"
)

// constantWind fills every sample with the raw components (u, v, w)
func constantWind(d core.Dims, u, v, w float32) *core.VectorField {
	us := make([]float32, d.Len())
	vs := make([]float32, d.Len())
	ws := make([]float32, d.Len())
	for i := range us {
		us[i], vs[i], ws[i] = u, v, w
	}
	return core.NewVectorField(d, us, vs, ws)
}

func TestWindRemap(t *testing.T) {
	got := WindRemap(mgl64.Vec3{1, 2, 3})
	want := mgl64.Vec3{-2, 1, 3}
	if got != want {
		t.Errorf("WindRemap = %v, want %v", got, want)
	}
}

func TestIntegrateConstantField(t *testing.T) {
	// raw v = -1 remaps to +x
	f := constantWind(core.Dims{X: 10, Y: 3, Z: 3}, 0, -1, 0)
	it := NewIntegrator(f, 300, 0.5)

	var maxMag float64
	line, ok := it.Integrate(core.Seed{2, 1, 1}, &maxMag)
	if !ok {
		t.Fatal("Integrate returned no line")
	}
	if line.Len() != 14 {
		t.Fatalf("line has %d points, want 14", line.Len())
	}
	for i, p := range line.Points {
		want := mgl64.Vec3{2.5 + 0.5*float64(i), 1, 1}
		if p != want {
			t.Errorf("point %d = %v, want %v", i, p, want)
		}
		if line.Magnitudes[i] != 1 {
			t.Errorf("magnitude %d = %v, want 1", i, line.Magnitudes[i])
		}
	}
	if maxMag != 1 {
		t.Errorf("max magnitude = %v, want 1", maxMag)
	}
}

func TestIntegrateIterationCap(t *testing.T) {
	f := constantWind(core.Dims{X: 100, Y: 2, Z: 2}, 0, -1, 0)
	it := NewIntegrator(f, 5, 1)

	line, ok := it.Integrate(core.Seed{0, 0, 0}, nil)
	if !ok || line.Len() != 5 {
		t.Fatalf("got ok=%v len=%d, want 5 points", ok, line.Len())
	}
}

func TestIntegrateFollowsRemappedAxes(t *testing.T) {
	// raw u drives +y after remapping
	f := constantWind(core.Dims{X: 3, Y: 20, Z: 3}, 2, 0, 0)
	it := NewIntegrator(f, 3, 0.5)

	line, ok := it.Integrate(core.Seed{1, 1, 1}, nil)
	if !ok {
		t.Fatal("no line")
	}
	last := line.Points[line.Len()-1]
	if last != (mgl64.Vec3{1, 4, 1}) {
		t.Errorf("last point = %v, want (1, 4, 1)", last)
	}
	if line.Magnitudes[0] != 2 {
		t.Errorf("magnitude = %v, want 2", line.Magnitudes[0])
	}
}

func TestIntegrateRejects(t *testing.T) {
	f := constantWind(core.Dims{X: 10, Y: 3, Z: 3}, 0, -1, 0)
	it := NewIntegrator(f, 300, 0.5)

	tests := []struct {
		name string
		seed core.Seed
	}{
		{"seed outside grid", core.Seed{-1, 1, 1}},
		{"seed past upper bound", core.Seed{9.5, 1, 1}},
		{"first step leaves grid", core.Seed{8.6, 1, 1}},
		{"single point", core.Seed{8.5, 1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := it.Integrate(tt.seed, nil); ok {
				t.Errorf("Integrate(%v) produced a line", tt.seed)
			}
		})
	}
}

func TestIntegrateZeroIterations(t *testing.T) {
	f := constantWind(core.Dims{X: 10, Y: 3, Z: 3}, 0, -1, 0)
	it := NewIntegrator(f, 0, 0.5)
	if _, ok := it.Integrate(core.Seed{1, 1, 1}, nil); ok {
		t.Error("zero iterations produced a line")
	}
}

func TestIntegrateAllKeepsMaxOfDroppedLines(t *testing.T) {
	f := constantWind(core.Dims{X: 10, Y: 3, Z: 3}, 0, -1, 0)
	it := NewIntegrator(f, 300, 0.5)

	batch, err := it.IntegrateAll(context.Background(), []core.Seed{{8.5, 1, 1}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(batch.Lines) != 0 {
		t.Errorf("got %d lines, want 0", len(batch.Lines))
	}
	if batch.MaxMagnitude != 1 {
		t.Errorf("max magnitude = %v, want 1 from the dropped line", batch.MaxMagnitude)
	}
}

func TestIntegrateAll(t *testing.T) {
	f := constantWind(core.Dims{X: 10, Y: 3, Z: 3}, 0, -3, 4)
	it := NewIntegrator(f, 2, 0.1)

	seeds := []core.Seed{{1, 1, 0}, {-4, 0, 0}, {2, 0, 0}, {3, 2, 1}}
	var calls [][2]int
	batch, err := it.IntegrateAll(context.Background(), seeds, func(done, total int) {
		calls = append(calls, [2]int{done, total})
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(batch.Lines) != 3 {
		t.Errorf("got %d lines, want 3", len(batch.Lines))
	}
	if math.Abs(batch.MaxMagnitude-5) > 1e-12 {
		t.Errorf("max magnitude = %v, want 5", batch.MaxMagnitude)
	}
	if len(calls) == 0 || calls[len(calls)-1] != [2]int{4, 4} {
		t.Errorf("progress calls = %v, want final (4, 4)", calls)
	}
}

func TestIntegrateAllEmpty(t *testing.T) {
	f := constantWind(core.Dims{X: 4, Y: 4, Z: 4}, 1, 0, 0)
	batch, err := NewIntegrator(f, 10, 0.1).IntegrateAll(context.Background(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(batch.Lines) != 0 || batch.MaxMagnitude != 0 {
		t.Errorf("empty seed list gave %+v", batch)
	}
}

func TestIntegrateAllCancelled(t *testing.T) {
	f := constantWind(core.Dims{X: 4, Y: 4, Z: 4}, 1, 0, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewIntegrator(f, 10, 0.1).IntegrateAll(ctx, []core.Seed{{1, 1, 1}}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestIntegratorReturnsPoolVectors(t *testing.T) {
	f := constantWind(core.Dims{X: 10, Y: 3, Z: 3}, 0, -1, 0)
	it := NewIntegrator(f, 300, 0.5)
	before := it.Pool().Available()
	it.Integrate(core.Seed{2, 1, 1}, nil)
	if after := it.Pool().Available(); after != before {
		t.Errorf("pool has %d vectors after integrating, had %d", after, before)
	}
}
