package simulation

import (
	"encoding/binary"
	"math"
	"sync"

	"hurricaneviz/core"

	"github.com/cespare/xxhash/v2"
)

// DefaultCacheSize bounds the number of remembered results per cache
const DefaultCacheSize = 8

// Cache is a small FIFO memo of recent results keyed by a 64-bit hash.
// It lives in memory only.
type Cache[V any] struct {
	mu    sync.Mutex
	limit int
	order []uint64
	items map[uint64]V
}

func NewCache[V any](limit int) *Cache[V] {
	if limit < 0 {
		limit = 0
	}
	return &Cache[V]{limit: limit, items: make(map[uint64]V, limit)}
}

func (c *Cache[V]) Get(key uint64) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[key]
	return v, ok
}

// Put stores v, evicting the oldest entry when full
func (c *Cache[V]) Put(key uint64, v V) {
	if c.limit == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[key]; ok {
		c.items[key] = v
		return
	}
	for len(c.order) >= c.limit {
		delete(c.items, c.order[0])
		c.order = c.order[1:]
	}
	c.order = append(c.order, key)
	c.items[key] = v
}

func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// keyHasher writes fixed-width fields into an xxhash digest
type keyHasher struct {
	d   *xxhash.Digest
	buf [8]byte
}

func newKeyHasher(tag string) *keyHasher {
	h := &keyHasher{d: xxhash.New()}
	h.d.WriteString(tag)
	return h
}

func (h *keyHasher) u64(v uint64) *keyHasher {
	binary.LittleEndian.PutUint64(h.buf[:], v)
	h.d.Write(h.buf[:])
	return h
}

func (h *keyHasher) i64(v int) *keyHasher { return h.u64(uint64(int64(v))) }

func (h *keyHasher) f64(v float64) *keyHasher { return h.u64(math.Float64bits(v)) }

func (h *keyHasher) sum() uint64 { return h.d.Sum64() }

// StreamlineKey identifies the batch a parameter set produces on a given
// wind field. Only seeded parameter sets are reproducible, so ok is false
// when RandomSeed is zero.
func StreamlineKey(p core.Params, field uint64) (key uint64, ok bool) {
	if p.RandomSeed == 0 {
		return 0, false
	}
	return newKeyHasher("streamlines").
		u64(field).
		i64(p.Count).
		i64(p.Iterations).
		f64(p.StepScale).
		f64(p.SeedRatio).
		f64(p.FeatureCenter[0]).
		f64(p.FeatureCenter[1]).
		f64(p.FeatureRadius).
		u64(uint64(p.RandomSeed)).
		sum(), true
}

// SliceKey identifies the contour result for one slice and level set
func SliceKey(s core.Slice, step, lo, hi float64, field uint64) uint64 {
	return newKeyHasher("slice").
		u64(field).
		i64(int(s.Axis)).
		i64(s.Index).
		f64(step).
		f64(lo).
		f64(hi).
		sum()
}
