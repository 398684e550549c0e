package art

import (
	"github.com/go-art/unodb-go/internal/olctree"
	"github.com/go-art/unodb-go/internal/stats"
	"github.com/go-art/unodb-go/qsbr"
)

// ConcurrentTree is a concurrent ordered index using Optimistic Lock
// Coupling over a Quiescent State-Based Reclamation domain. Every
// goroutine that calls into it must first call RegisterThisThread (once)
// and, for long blocking sections, bracket them with Pause/Resume. A zero
// ConcurrentTree is not ready to use; construct with NewConcurrentTree.
type ConcurrentTree[T any] struct {
	t *olctree.Tree[T]
	q *qsbr.QSBR
}

// NewConcurrentTree returns an empty ConcurrentTree with its own QSBR
// reclamation domain.
func NewConcurrentTree[T any](opts ...Option) *ConcurrentTree[T] {
	cfg := newConfig(opts)

	q := qsbr.New()
	x := &ConcurrentTree[T]{t: olctree.New[T](q), q: q}
	if cfg.trackStats {
		x.t.EnableStats()
	}

	return x
}

// RegisterThisThread makes the calling goroutine a participant in x's QSBR
// domain. Idempotent.
func (x *ConcurrentTree[T]) RegisterThisThread() { x.q.RegisterThisThread() }

// UnregisterThisThread retires the calling goroutine's QSBR participation.
func (x *ConcurrentTree[T]) UnregisterThisThread() { x.q.UnregisterThisThread() }

// Pause withdraws the calling goroutine from epoch accounting for a long
// blocking section; Resume re-registers it.
func (x *ConcurrentTree[T]) Pause() { x.q.Pause() }

// Resume re-registers a goroutine that called Pause.
func (x *ConcurrentTree[T]) Resume() { x.q.Resume() }

// Insert places value under key, retrying internally on optimistic-lock
// conflict. ok is false, with the tree unmodified, if key is already
// present. err is ErrValueTooLarge if T is []byte and value is longer than
// 2^32-1 bytes; no other error is possible.
func (x *ConcurrentTree[T]) Insert(key []byte, value T) (ok bool, err error) {
	if valueTooLarge(value) {
		return false, ErrValueTooLarge
	}

	return x.t.Insert(key, value), nil
}

// Get returns the value stored under key, if present.
func (x *ConcurrentTree[T]) Get(key []byte) (T, bool) { return x.t.Get(key) }

// Remove deletes key. It reports false if key was absent.
func (x *ConcurrentTree[T]) Remove(key []byte) bool { return x.t.Remove(key) }

// Clear empties the tree. It returns ErrNotQuiescent, leaving the tree
// untouched, when more than one goroutine is currently registered with x's
// QSBR domain.
func (x *ConcurrentTree[T]) Clear() error {
	if x.q.ThreadCount() > 1 {
		return ErrNotQuiescent
	}

	x.t.Clear()

	return nil
}

// Empty reports whether the tree is momentarily empty.
func (x *ConcurrentTree[T]) Empty() bool { return x.t.Empty() }

// Count returns the approximate number of keys currently stored.
func (x *ConcurrentTree[T]) Count() int { return x.t.Count() }

// Stats returns a snapshot of the tree's node-kind counters. Always the
// zero Snapshot unless the tree was built with WithStats.
func (x *ConcurrentTree[T]) Stats() stats.Snapshot { return x.t.Stats() }

// QSBRStats returns the reclamation domain's own counters (registrations,
// unregistrations, epoch advances).
func (x *ConcurrentTree[T]) QSBRStats() *qsbr.Stats { return x.q.Stats() }

// Scan visits every key in order, forward or reverse, until fn returns
// true or the tree is exhausted. The walk is snapshot-free: concurrent
// inserts and deletes elsewhere may or may not be observed, but every
// emitted key existed at some instant during the scan and keys are
// emitted in strict order.
func (x *ConcurrentTree[T]) Scan(forward bool, fn func(key []byte, value T) bool) {
	x.t.Scan(forward, fn)
}

// ScanFrom visits keys starting at from (inclusive), forward or reverse.
func (x *ConcurrentTree[T]) ScanFrom(from []byte, forward bool, fn func(key []byte, value T) bool) {
	x.t.ScanFrom(from, forward, fn)
}

// ScanRange visits keys in [from, to) when from < to, or (to, from] when
// from > to.
func (x *ConcurrentTree[T]) ScanRange(from, to []byte, fn func(key []byte, value T) bool) {
	x.t.ScanRange(from, to, fn)
}

// NewIterator returns a bidirectional iterator over x, positioned before
// the first key. Exposed for testing the tree's ordering guarantees
// directly, as distinct from Scan's callback style. Every positioning call
// on the returned Iterator brackets itself with its own QSBR guard; the
// caller does not need to be registered beforehand for the iterator calls
// themselves, but must be for any concurrent Insert/Remove/Get elsewhere.
func (x *ConcurrentTree[T]) NewIterator() *Iterator[T] {
	return &Iterator[T]{concurrent: olctree.NewIterator(x.t)}
}
