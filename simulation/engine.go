package simulation

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"hurricaneviz/core"
	"hurricaneviz/physics"

	"gonum.org/v1/gonum/floats"
)

// Status drives the renderer's "computing" indicator
type Status struct {
	Computing bool    `json:"computing"`
	Stage     string  `json:"stage,omitempty"`
	Progress  float64 `json:"progress"`
}

// SliceResult is everything the renderer needs to draw one cut plane
type SliceResult struct {
	Slice    core.Slice           `json:"slice"`
	Levels   []float64            `json:"levels"`
	Segments []core.Segment       `json:"-"`
	Scalars  physics.SliceScalars `json:"-"`
}

// Sink receives the engine's output. Streamline batches and tube meshes
// carry a generation number; tubes from an older generation than the
// latest batch are stale.
type Sink interface {
	Status(s Status)
	Streamlines(gen uint64, batch core.Batch)
	Tubes(gen uint64, start int, meshes []*physics.TubeMesh)
	Contours(res SliceResult)
}

type nopSink struct{}

func (nopSink) Status(Status)                          {}
func (nopSink) Streamlines(uint64, core.Batch)         {}
func (nopSink) Tubes(uint64, int, []*physics.TubeMesh) {}
func (nopSink) Contours(SliceResult)                   {}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the engine's logger
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithBackend replaces the default inline backend
func WithBackend(b Backend) Option {
	return func(e *Engine) {
		e.backend = b
	}
}

// WithParams sets the starting parameters
func WithParams(p core.Params) Option {
	return func(e *Engine) {
		e.params = p
	}
}

// WithTemperatureRange fixes the range contour levels are stepped over.
// Without it the range of the loaded scalar field is used.
func WithTemperatureRange(lo, hi float64) Option {
	return func(e *Engine) {
		e.levelLo, e.levelHi = lo, hi
		e.fixedRange = true
	}
}

// WithDelays overrides the debounce delays
func WithDelays(lines, slice time.Duration) Option {
	return func(e *Engine) {
		e.lineDelay, e.sliceDelay = lines, slice
	}
}

// WithChunkSize overrides the tube scheduler's chunk size
func WithChunkSize(n int) Option {
	return func(e *Engine) {
		e.chunkSize = n
	}
}

// WithCacheSize bounds the result caches; zero disables caching
func WithCacheSize(n int) Option {
	return func(e *Engine) {
		e.cacheSize = n
	}
}

// Engine owns the parameter set and recomputes streamlines, tubes and
// contours whenever it changes
type Engine struct {
	wind      *core.VectorField
	temp      *core.ScalarField
	windPrint uint64
	tempPrint uint64

	levelLo, levelHi float64
	fixedRange       bool

	backend Backend
	sched   *Scheduler
	sink    Sink
	logger  *slog.Logger

	lineDebounce  *Debouncer
	sliceDebounce *Debouncer
	lineCache     *Cache[core.Batch]
	sliceCache    *Cache[SliceResult]

	lineDelay  time.Duration
	sliceDelay time.Duration
	chunkSize  int
	cacheSize  int

	ctx  context.Context
	stop context.CancelFunc

	mu          sync.Mutex
	params      core.Params
	batch       core.Batch
	batchParams core.Params
	hasBatch    bool
	gen         uint64

	// serialises integration passes
	computeMu sync.Mutex
}

// NewEngine wires the numeric core to sink. A nil sink discards output.
func NewEngine(wind *core.VectorField, temp *core.ScalarField, sink Sink, opts ...Option) *Engine {
	e := &Engine{
		wind:       wind,
		temp:       temp,
		sink:       sink,
		params:     core.DefaultParams(),
		lineDelay:  StreamlineDelay,
		sliceDelay: SliceDelay,
		chunkSize:  DefaultChunkSize,
		cacheSize:  DefaultCacheSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.sink == nil {
		e.sink = nopSink{}
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.backend == nil {
		e.backend = NewInlineBackend(wind)
	}
	if !e.fixedRange {
		values := make([]float64, len(temp.Values))
		for i, v := range temp.Values {
			values[i] = float64(v)
		}
		e.levelLo, e.levelHi = floats.Min(values), floats.Max(values)
	}

	e.params = e.params.Clamp(temp.Dims)
	e.windPrint = core.Fingerprint(wind.U, wind.V, wind.W)
	e.tempPrint = core.Fingerprint(temp.Values)
	e.ctx, e.stop = context.WithCancel(context.Background())
	e.sched = NewScheduler(e.chunkSize, func(busy bool) {
		e.sink.Status(Status{Computing: busy, Stage: "tubes"})
	})
	e.lineDebounce = NewDebouncer(e.lineDelay)
	e.sliceDebounce = NewDebouncer(e.sliceDelay)
	e.lineCache = NewCache[core.Batch](e.cacheSize)
	e.sliceCache = NewCache[SliceResult](e.cacheSize)

	e.logger.Info("engine ready",
		"wind", wind.Dims.String(),
		"temperature", temp.Dims.String(),
		"backend", e.backend.Name(),
		"levels", []float64{e.levelLo, e.levelHi})
	return e
}

// Params returns the current parameter set
func (e *Engine) Params() core.Params {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.params
}

// Batch returns the latest streamline batch and its generation
func (e *Engine) Batch() (uint64, core.Batch) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gen, e.batch
}

// Start schedules the first streamline and slice computations
func (e *Engine) Start() {
	e.lineDebounce.Trigger(e.refreshLines)
	e.sliceDebounce.Trigger(e.refreshSlice)
}

// UpdateParams clamps p, makes it current and schedules a debounced
// recompute of whatever it invalidates. It returns the clamped set.
func (e *Engine) UpdateParams(p core.Params) core.Params {
	p = p.Clamp(e.temp.Dims)

	e.mu.Lock()
	old := e.params
	e.params = p
	e.mu.Unlock()

	if old.TubesChanged(p) {
		e.lineDebounce.Trigger(e.refreshLines)
	}
	if old.SliceChanged(p) {
		e.sliceDebounce.Trigger(e.refreshSlice)
	}
	return p
}

// refreshLines reintegrates when the batch is out of date and otherwise
// only rebuilds the tubes
func (e *Engine) refreshLines() {
	e.mu.Lock()
	stale := !e.hasBatch || e.batchParams.StreamlinesChanged(e.params)
	e.mu.Unlock()

	if !stale {
		e.RebuildTubes()
		return
	}
	if _, err := e.RecomputeStreamlines(e.ctx); err != nil && !errors.Is(err, context.Canceled) {
		e.logger.Error("streamline pass failed", "error", err)
	}
}

func (e *Engine) refreshSlice() {
	e.RecomputeSlice()
}

// RecomputeStreamlines runs a full integration pass for the current
// parameters, publishes the batch and starts building its tubes
func (e *Engine) RecomputeStreamlines(ctx context.Context) (core.Batch, error) {
	e.computeMu.Lock()
	defer e.computeMu.Unlock()

	p := e.Params()
	start := time.Now()

	key, cacheable := StreamlineKey(p, e.windPrint)
	batch, cached := core.Batch{}, false
	if cacheable {
		batch, cached = e.lineCache.Get(key)
	}

	if !cached {
		seed := p.RandomSeed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		gen := physics.NewSeedGenerator(rand.New(rand.NewSource(seed)))
		seeds := gen.Generate(p.Count, p.SeedRatio, p.FeatureCenter, p.FeatureRadius, e.wind.Dims)

		e.sink.Status(Status{Computing: true, Stage: "streamlines"})
		var err error
		batch, err = e.backend.Trace(ctx, TraceRequest{
			Seeds:      seeds,
			Iterations: p.Iterations,
			StepScale:  p.StepScale,
			Progress: func(done, total int) {
				if total > 0 {
					e.sink.Status(Status{Computing: true, Stage: "streamlines", Progress: float64(done) / float64(total)})
				}
			},
		})
		if err != nil {
			e.sink.Status(Status{Computing: e.sched.Computing()})
			return core.Batch{}, err
		}
		if cacheable {
			e.lineCache.Put(key, batch)
		}
	}

	e.mu.Lock()
	e.batch = batch
	e.batchParams = p
	e.hasBatch = true
	e.gen++
	gen := e.gen
	e.mu.Unlock()

	e.logger.Info("streamlines computed",
		"seeds", p.Count,
		"lines", len(batch.Lines),
		"maxMagnitude", batch.MaxMagnitude,
		"cached", cached,
		"elapsed", time.Since(start))

	e.sink.Streamlines(gen, batch)
	e.buildTubes(gen, batch, p.RadiusFactor)
	return batch, nil
}

// RebuildTubes rebuilds the tube meshes of the current batch with the
// current radius factor, under a new generation
func (e *Engine) RebuildTubes() *Job {
	e.mu.Lock()
	e.gen++
	gen, batch, radius := e.gen, e.batch, e.params.RadiusFactor
	e.mu.Unlock()
	return e.buildTubes(gen, batch, radius)
}

func (e *Engine) buildTubes(gen uint64, batch core.Batch, radius float64) *Job {
	return e.sched.Run(e.ctx, batch, radius, func(start int, meshes []*physics.TubeMesh) {
		e.sink.Tubes(gen, start, meshes)
	})
}

// RecomputeSlice extracts contours and slice scalars for the current slice
// and publishes them
func (e *Engine) RecomputeSlice() SliceResult {
	p := e.Params()
	key := SliceKey(p.Slice, p.ContourStep, e.levelLo, e.levelHi, e.tempPrint)

	res, cached := e.sliceCache.Get(key)
	if !cached {
		start := time.Now()
		levels := physics.ComputeLevels(e.levelLo, e.levelHi, p.ContourStep)
		res = SliceResult{
			Slice:    p.Slice,
			Levels:   levels,
			Segments: physics.ExtractSlice(e.temp, p.Slice.Axis, p.Slice.Index, levels),
			Scalars:  physics.ExtractScalars(e.temp, p.Slice.Axis, p.Slice.Index),
		}
		e.sliceCache.Put(key, res)
		e.logger.Debug("slice contoured",
			"axis", p.Slice.Axis.String(),
			"index", p.Slice.Index,
			"levels", len(levels),
			"segments", len(res.Segments),
			"elapsed", time.Since(start))
	}
	e.sink.Contours(res)
	return res
}

// Close stops pending and running work and releases the backend
func (e *Engine) Close() {
	e.lineDebounce.Stop()
	e.sliceDebounce.Stop()
	e.stop()
	e.sched.Cancel()
	e.backend.Close()
}
