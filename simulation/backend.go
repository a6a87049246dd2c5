package simulation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"hurricaneviz/core"
	"hurricaneviz/physics"
)

// ErrBackendStopped is returned by a worker backend after Close
var ErrBackendStopped = errors.New("simulation: backend stopped")

// TraceRequest is everything one integration pass needs
type TraceRequest struct {
	Seeds      []core.Seed
	Iterations int
	StepScale  float64
	Progress   physics.Progress
}

// Backend runs the integrator for a pass. Every backend produces the same
// batch for the same request.
type Backend interface {
	Trace(ctx context.Context, req TraceRequest) (core.Batch, error)
	Name() string
	Close()
}

// NewBackend selects a backend by name: "inline" or "worker"
func NewBackend(mode string, field *core.VectorField, logger *slog.Logger) (Backend, error) {
	switch mode {
	case "", "inline":
		return NewInlineBackend(field), nil
	case "worker":
		return NewWorkerBackend(field, logger), nil
	default:
		return nil, fmt.Errorf("unknown dispatch mode %q", mode)
	}
}

// InlineBackend traces on the caller's goroutine
type InlineBackend struct {
	field *core.VectorField
}

func NewInlineBackend(field *core.VectorField) *InlineBackend {
	return &InlineBackend{field: field}
}

func (b *InlineBackend) Trace(ctx context.Context, req TraceRequest) (core.Batch, error) {
	return trace(ctx, b.field, req)
}

func (b *InlineBackend) Name() string { return "inline" }

func (b *InlineBackend) Close() {}

// WorkerBackend runs every pass on one dedicated goroutine, fed through a
// request channel. The field is shared read-only; each pass builds its own
// integrator and pool on the worker.
type WorkerBackend struct {
	field  *core.VectorField
	logger *slog.Logger

	requests chan workerJob
	running  atomic.Bool
	closeMu  sync.RWMutex
	wg       sync.WaitGroup
}

type workerJob struct {
	ctx   context.Context
	req   TraceRequest
	reply chan workerResult
}

type workerResult struct {
	batch core.Batch
	err   error
}

// NewWorkerBackend starts the worker goroutine
func NewWorkerBackend(field *core.VectorField, logger *slog.Logger) *WorkerBackend {
	if logger == nil {
		logger = slog.Default()
	}
	b := &WorkerBackend{
		field:    field,
		logger:   logger,
		requests: make(chan workerJob),
	}
	b.running.Store(true)
	b.wg.Add(1)
	go b.loop()
	return b
}

func (b *WorkerBackend) loop() {
	defer b.wg.Done()
	for job := range b.requests {
		batch, err := trace(job.ctx, b.field, job.req)
		job.reply <- workerResult{batch: batch, err: err}
	}
	b.logger.Debug("integration worker stopped")
}

// Trace hands the request to the worker and waits for its answer. If ctx
// ends first the worker still finishes its current seed, notices the
// cancellation and drops the pass.
func (b *WorkerBackend) Trace(ctx context.Context, req TraceRequest) (core.Batch, error) {
	b.closeMu.RLock()
	if !b.running.Load() {
		b.closeMu.RUnlock()
		return core.Batch{}, ErrBackendStopped
	}
	job := workerJob{ctx: ctx, req: req, reply: make(chan workerResult, 1)}
	select {
	case b.requests <- job:
		b.closeMu.RUnlock()
	case <-ctx.Done():
		b.closeMu.RUnlock()
		return core.Batch{}, ctx.Err()
	}

	select {
	case res := <-job.reply:
		return res.batch, res.err
	case <-ctx.Done():
		return core.Batch{}, ctx.Err()
	}
}

func (b *WorkerBackend) Name() string { return "worker" }

// Close stops the worker once its current pass is done
func (b *WorkerBackend) Close() {
	b.closeMu.Lock()
	if !b.running.Swap(false) {
		b.closeMu.Unlock()
		return
	}
	close(b.requests)
	b.closeMu.Unlock()
	b.wg.Wait()
}

func trace(ctx context.Context, field *core.VectorField, req TraceRequest) (core.Batch, error) {
	it := physics.NewIntegrator(field, req.Iterations, req.StepScale)
	return it.IntegrateAll(ctx, req.Seeds, req.Progress)
}
