// Package objpool provides the pooling allocator used by the
// single-threaded node engine in internal/tree.
//
// New and Free are the only two verbs, with everything backed by one pool
// value threaded through the call tree; node storage is plain typed Go
// pointers and the garbage collector is what ultimately reclaims memory.
// The pool exists to cut down on allocator churn for the node shapes that
// are constantly grown, shrunk, and split.
package objpool

import "sync"

// Allocator is implemented by every pool in this package: New and Free as
// the only two primitives, specialized per node kind instead of per byte
// size, since Go pointers already carry their own type.
type Allocator[T any] interface {
	// New returns a zero-valued *T, possibly recycled from a prior Free.
	New() *T

	// Free returns v to the pool for reuse. v must not be used again by the
	// caller afterwards.
	Free(v *T)
}

// Pool is a sync.Pool-backed Allocator[T].
//
// A zero Pool is ready to use.
type Pool[T any] struct {
	p sync.Pool
}

var _ Allocator[struct{}] = (*Pool[struct{}])(nil)

// New returns a pointer to a zero-valued T, recycled from the free list
// when possible.
func (a *Pool[T]) New() *T {
	if v, ok := a.p.Get().(*T); ok {
		var zero T
		*v = zero

		return v
	}

	return new(T)
}

// Free returns v to the pool. It does not zero v; New does that on reuse.
func (a *Pool[T]) Free(v *T) {
	a.p.Put(v)
}
