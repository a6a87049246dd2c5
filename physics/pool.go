package physics

import "github.com/go-gl/mathgl/mgl64"

// DefaultPoolSize matches the free-list size used by the integrator
const DefaultPoolSize = 1000

// VectorPool is a bounded free-list of vectors for hot per-step loops.
// It belongs to a single computation pass and is not safe for concurrent use.
type VectorPool struct {
	free     []*mgl64.Vec3
	capacity int
}

// NewVectorPool creates a pool prefilled with capacity vectors
func NewVectorPool(capacity int) *VectorPool {
	if capacity < 0 {
		capacity = 0
	}
	p := &VectorPool{
		free:     make([]*mgl64.Vec3, 0, capacity),
		capacity: capacity,
	}
	for i := 0; i < capacity; i++ {
		p.free = append(p.free, new(mgl64.Vec3))
	}
	return p
}

// Borrow hands out a vector set to (x, y, z). An empty pool allocates a new
// one instead of blocking.
func (p *VectorPool) Borrow(x, y, z float64) *mgl64.Vec3 {
	n := len(p.free)
	if n == 0 {
		return &mgl64.Vec3{x, y, z}
	}
	v := p.free[n-1]
	p.free[n-1] = nil
	p.free = p.free[:n-1]
	*v = mgl64.Vec3{x, y, z}
	return v
}

// Release returns v to the free-list. Vectors beyond capacity are dropped.
func (p *VectorPool) Release(v *mgl64.Vec3) {
	if v == nil || len(p.free) >= p.capacity {
		return
	}
	p.free = append(p.free, v)
}

// ReleaseAll releases every vector in vs
func (p *VectorPool) ReleaseAll(vs ...*mgl64.Vec3) {
	for _, v := range vs {
		p.Release(v)
	}
}

// Available returns the number of vectors ready to be borrowed
func (p *VectorPool) Available() int {
	return len(p.free)
}

// Cap returns the configured capacity
func (p *VectorPool) Cap() int {
	return p.capacity
}
