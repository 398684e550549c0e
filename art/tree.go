package art

import (
	"math"

	"github.com/go-art/unodb-go/internal/stats"
	"github.com/go-art/unodb-go/internal/tree"
)

// Tree is a single-threaded ordered index mapping byte-string keys to
// values of type T. A zero Tree is not ready to use; construct with
// NewTree.
type Tree[T any] struct {
	t *tree.Tree[T]
}

// NewTree returns an empty Tree.
func NewTree[T any](opts ...Option) *Tree[T] {
	cfg := newConfig(opts)

	t := &Tree[T]{t: tree.New[T]()}
	if cfg.trackStats {
		t.t.EnableStats()
	}

	return t
}

// Insert places value under key. ok is false, with the tree unmodified, if
// key is already present. err is ErrValueTooLarge if T is []byte and value
// is longer than 2^32-1 bytes; no other error is possible.
func (x *Tree[T]) Insert(key []byte, value T) (ok bool, err error) {
	if valueTooLarge(value) {
		return false, ErrValueTooLarge
	}

	return x.t.Insert(key, value), nil
}

// Get returns the value stored under key, if present.
func (x *Tree[T]) Get(key []byte) (T, bool) { return x.t.Get(key) }

// Remove deletes key. It reports false if key was absent.
func (x *Tree[T]) Remove(key []byte) bool { return x.t.Remove(key) }

// Clear empties the tree.
func (x *Tree[T]) Clear() { x.t.Clear() }

// Empty reports whether the tree holds no keys.
func (x *Tree[T]) Empty() bool { return x.t.Empty() }

// Count returns the number of keys currently stored.
func (x *Tree[T]) Count() int { return x.t.Count() }

// Stats returns a snapshot of the tree's node-kind counters. Always the
// zero Snapshot unless the tree was built with WithStats.
func (x *Tree[T]) Stats() stats.Snapshot { return x.t.Stats() }

// Scan visits every key in order, forward or reverse, until fn returns
// true or the tree is exhausted.
func (x *Tree[T]) Scan(forward bool, fn func(key []byte, value T) bool) {
	x.t.Scan(forward, fn)
}

// ScanFrom visits keys starting at from (inclusive), forward or reverse.
func (x *Tree[T]) ScanFrom(from []byte, forward bool, fn func(key []byte, value T) bool) {
	x.t.ScanFrom(from, forward, fn)
}

// ScanRange visits keys in [from, to) when from < to, or (to, from] when
// from > to.
func (x *Tree[T]) ScanRange(from, to []byte, fn func(key []byte, value T) bool) {
	x.t.ScanRange(from, to, fn)
}

// NewIterator returns a bidirectional iterator over x, positioned before
// the first key. Exposed for testing the tree's ordering guarantees
// directly, as distinct from Scan's callback style.
func (x *Tree[T]) NewIterator() *Iterator[T] {
	return &Iterator[T]{single: tree.NewIterator(x.t)}
}

// valueTooLarge reports whether value, when T is instantiated as []byte,
// is longer than math.MaxUint32 bytes. Any other T never trips this check.
func valueTooLarge[T any](value T) bool {
	b, ok := any(value).([]byte)
	if !ok {
		return false
	}

	return len(b) > math.MaxUint32
}
