package simulation

import (
	"sync"
	"testing"
	"time"

	"hurricaneviz/core"
	"hurricaneviz/physics"

	"github.com/go-gl/mathgl/mgl64"
)

// eastWind is a constant field that moves along +x after remapping, with a
// slight +y drift so lines differ per seed
func eastWind(d core.Dims) *core.VectorField {
	u := make([]float32, d.Len())
	v := make([]float32, d.Len())
	w := make([]float32, d.Len())
	for z := 0; z < d.Z; z++ {
		for y := 0; y < d.Y; y++ {
			for x := 0; x < d.X; x++ {
				i := d.Index(x, y, z)
				u[i] = 0.1 * float32(y) / float32(d.Y)
				v[i] = -1 - float32(z)
			}
		}
	}
	return core.NewVectorField(d, u, v, w)
}

func rampTemperature(d core.Dims) *core.ScalarField {
	values := make([]float32, d.Len())
	for z := 0; z < d.Z; z++ {
		for y := 0; y < d.Y; y++ {
			for x := 0; x < d.X; x++ {
				values[d.Index(x, y, z)] = float32(x + 10*y + 100*z)
			}
		}
	}
	return core.NewScalarField(d, values)
}

func lines(n int) core.Batch {
	var b core.Batch
	for i := 0; i < n; i++ {
		b.Lines = append(b.Lines, core.Streamline{
			Points:     []mgl64.Vec3{{0, float64(i), 0}, {1, float64(i), 0}, {2, float64(i), 0}},
			Magnitudes: []float64{1, 2, 3},
		})
	}
	b.MaxMagnitude = 3
	return b
}

// recordingSink keeps everything the engine publishes
type recordingSink struct {
	mu          sync.Mutex
	statuses    []Status
	streamlines []core.Batch
	gens        []uint64
	tubes       map[uint64]int
	contours    []SliceResult
}

func newRecordingSink() *recordingSink {
	return &recordingSink{tubes: make(map[uint64]int)}
}

func (s *recordingSink) Status(st Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = append(s.statuses, st)
}

func (s *recordingSink) Streamlines(gen uint64, b core.Batch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gens = append(s.gens, gen)
	s.streamlines = append(s.streamlines, b)
}

func (s *recordingSink) Tubes(gen uint64, start int, meshes []*physics.TubeMesh) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tubes[gen] += len(meshes)
}

func (s *recordingSink) Contours(res SliceResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contours = append(s.contours, res)
}

func (s *recordingSink) counts() (streamlines, contours int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.streamlines), len(s.contours)
}

func (s *recordingSink) tubeCount(gen uint64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tubes[gen]
}

// waitFor polls cond until it holds or a second has passed
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}
