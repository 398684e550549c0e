package art

import (
	"github.com/go-art/unodb-go/internal/olctree"
	"github.com/go-art/unodb-go/internal/tree"
)

// Iterator is a bidirectional iterator over either Tree or ConcurrentTree,
// sharing one public shape even though the two variants implement
// positioning very differently underneath (an explicit descent stack kept
// between calls for Tree, a from-scratch validated re-descent on every
// call for ConcurrentTree). Exactly one of its two fields is set,
// depending on which constructor produced it.
type Iterator[T any] struct {
	single     *tree.Iterator[T]
	concurrent *olctree.Iterator[T]
}

// First positions the iterator on the smallest key.
func (it *Iterator[T]) First() bool {
	if it.single != nil {
		return it.single.First()
	}

	return it.concurrent.First()
}

// Last positions the iterator on the largest key.
func (it *Iterator[T]) Last() bool {
	if it.single != nil {
		return it.single.Last()
	}

	return it.concurrent.Last()
}

// Next advances to the next key in order.
func (it *Iterator[T]) Next() bool {
	if it.single != nil {
		return it.single.Next()
	}

	return it.concurrent.Next()
}

// Prev retreats to the previous key in order.
func (it *Iterator[T]) Prev() bool {
	if it.single != nil {
		return it.single.Prev()
	}

	return it.concurrent.Prev()
}

// Seek positions the iterator at the smallest key >= key (forward) or the
// largest key <= key (!forward). exact reports whether that key equals
// key itself; for ConcurrentTree, where a matching key can be removed by
// another goroutine between the descent and the caller observing the
// result, exact instead reports whether the landed key equals key, which
// coincides with the single-threaded exact-match meaning when no such race
// occurs.
func (it *Iterator[T]) Seek(key []byte, forward bool) (exact bool) {
	if it.single != nil {
		return it.single.Seek(key, forward)
	}

	ok := it.concurrent.Seek(key, forward)

	return ok && compareExact(it.concurrent.Key(), key)
}

// Valid reports whether the iterator is parked on a key.
func (it *Iterator[T]) Valid() bool {
	if it.single != nil {
		return it.single.Valid()
	}

	return it.concurrent.Valid()
}

// Key returns the key the iterator is parked on.
func (it *Iterator[T]) Key() []byte {
	if it.single != nil {
		return it.single.Key()
	}

	return it.concurrent.Key()
}

// Value returns the value the iterator is parked on.
func (it *Iterator[T]) Value() T {
	if it.single != nil {
		return it.single.Value()
	}

	return it.concurrent.Value()
}

func compareExact(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}
