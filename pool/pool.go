// Package pool provides a generic object pool whose objects are freed by
// a finalizer once the pool drops them.
package pool

import (
	"runtime"
	"sync"

	"go.uber.org/atomic"
)

// ReuseMemory disables recycling if false (every Put becomes a no-op
// and the finalizer frees the object).
var ReuseMemory = true

type Pool[T any] struct {
	pool      sync.Pool
	resetFunc func(*T)

	allocated atomic.Uint64
	recycled  atomic.Uint64
}

func NewPool[T any](
	allocFunc func() *T,
	resetFunc func(*T),
	freeFunc func(*T),
) *Pool[T] {
	p := &Pool[T]{
		resetFunc: resetFunc,
	}
	p.pool.New = func() any {
		p.allocated.Inc()
		v := allocFunc()
		runtime.SetFinalizer(v, freeFunc)
		return v
	}
	return p
}

func (p *Pool[T]) Get() *T {
	return p.pool.Get().(*T)
}

// Put resets the items and hands them back for reuse.
func (p *Pool[T]) Put(items ...*T) {
	for _, item := range items {
		if item == nil {
			continue
		}
		p.resetFunc(item)
		if !ReuseMemory {
			continue
		}
		p.recycled.Inc()
		p.pool.Put(item)
	}
}

// Allocated is how many objects were ever created by the pool.
func (p *Pool[T]) Allocated() uint64 {
	return p.allocated.Load()
}

// Recycled is how many objects were ever returned to the pool.
func (p *Pool[T]) Recycled() uint64 {
	return p.recycled.Load()
}
