package simulation

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"hurricaneviz/core"
	"hurricaneviz/physics"
)

// DefaultChunkSize is the number of tubes built between yields
const DefaultChunkSize = 10

// EmitFunc receives one finished chunk. start is the index of the chunk's
// first streamline within the batch.
type EmitFunc func(start int, meshes []*physics.TubeMesh)

// Scheduler spreads tube construction for a batch over small chunks so a
// large batch never monopolises the process. Only the newest run is live:
// starting a run cancels the one before it.
type Scheduler struct {
	ChunkSize int

	mu     sync.Mutex
	cancel context.CancelFunc

	// busyMu keeps each counter transition and its onBusy call together
	busyMu   sync.Mutex
	inflight atomic.Int32
	onBusy   func(bool)
}

// NewScheduler creates a scheduler. onBusy, if set, is called with true when
// the first run starts and with false when the last one finishes.
func NewScheduler(chunkSize int, onBusy func(bool)) *Scheduler {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Scheduler{ChunkSize: chunkSize, onBusy: onBusy}
}

// Job is a handle on one scheduled run
type Job struct {
	done chan struct{}
	err  error
	// Chunks counts the chunks emitted before the run ended
	Chunks int
}

// Wait blocks until the run ends and returns ctx's error if it was
// cancelled before every chunk was emitted
func (j *Job) Wait() error {
	<-j.done
	return j.err
}

// Done is closed when the run ends
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Run schedules tube construction for every line in batch. Chunks are
// emitted in order; between chunks the goroutine yields and checks its
// token, so a superseded run stops without emitting further chunks.
func (s *Scheduler) Run(parent context.Context, batch core.Batch, radiusFactor float64, emit EmitFunc) *Job {
	ctx, cancel := context.WithCancel(parent)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	s.mu.Unlock()

	job := &Job{done: make(chan struct{})}
	s.begin()
	go func() {
		defer close(job.done)
		defer s.end()
		defer cancel()
		job.err = s.process(ctx, job, batch, radiusFactor, emit)
	}()
	return job
}

func (s *Scheduler) process(ctx context.Context, job *Job, batch core.Batch, radiusFactor float64, emit EmitFunc) error {
	lines := batch.Lines
	for start := 0; start < len(lines); start += s.ChunkSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+s.ChunkSize, len(lines))

		meshes := make([]*physics.TubeMesh, 0, end-start)
		for _, line := range lines[start:end] {
			meshes = append(meshes, physics.BuildTube(line, radiusFactor, batch.MaxMagnitude))
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if emit != nil {
			emit(start, meshes)
		}
		job.Chunks++

		runtime.Gosched()
	}
	return nil
}

// Cancel stops the live run, if any
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Computing reports whether any run is still in flight
func (s *Scheduler) Computing() bool {
	return s.inflight.Load() > 0
}

func (s *Scheduler) begin() {
	s.busyMu.Lock()
	defer s.busyMu.Unlock()
	if s.inflight.Add(1) == 1 && s.onBusy != nil {
		s.onBusy(true)
	}
}

func (s *Scheduler) end() {
	s.busyMu.Lock()
	defer s.busyMu.Unlock()
	if s.inflight.Add(-1) == 0 && s.onBusy != nil {
		s.onBusy(false)
	}
}
