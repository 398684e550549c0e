// Package olctree implements the concurrent ART algorithms: Lookup,
// Insert, and Delete built on the same node shapes as internal/tree, but
// with every traversal step an optimistic read critical section and every
// mutation a coupled chain of write guards from internal/olc.
//
// Every operation retries from the root whenever a validation fails,
// expressed as a Go `for { ...; continue }` loop rather than recursive
// optional-return bubbling.
package olctree

import (
	"errors"

	"github.com/go-art/unodb-go/internal/node"
	"github.com/go-art/unodb-go/internal/olc"
	"github.com/go-art/unodb-go/internal/stats"
	"github.com/go-art/unodb-go/qsbr"
)

// errRestart is the internal-only sentinel meaning optimistic lock
// validation failed somewhere along a traversal; it never escapes the
// public API, which retries on seeing it.
var errRestart = errors.New("olctree: restart")

// rootHolder pairs the root node pointer with its own optimistic lock,
// since the root has no parent node to hold one for it.
type rootHolder[T any] struct {
	lock olc.Word
	root node.Node[T]
}

// Tree is a concurrent ART using Optimistic Lock Coupling over QSBR
// reclamation. A zero Tree is not usable; construct with New.
type Tree[T any] struct {
	rh    rootHolder[T]
	q     *qsbr.QSBR
	size  atomicCounter
	stats *stats.Counters
}

// New returns an empty concurrent Tree reclaiming through q.
func New[T any](q *qsbr.QSBR) *Tree[T] {
	return &Tree[T]{q: q}
}

// EnableStats turns on node-kind counters for t. Call before any goroutine
// starts mutating the tree; a nil stats.Counters (the default) makes every
// counter call a no-op.
func (t *Tree[T]) EnableStats() { t.stats = stats.New() }

// Stats returns a point-in-time snapshot of t's node-kind counters, racy
// with respect to concurrent mutation the same way Count is. Always the
// zero Snapshot unless EnableStats was called.
func (t *Tree[T]) Stats() stats.Snapshot { return t.stats.Snapshot() }

// noteShrink records a demotion of a node to the kind shrunk now has.
func noteShrink[T any](st *stats.Counters, shrunk node.Node[T]) {
	switch shrunk.Kind() {
	case node.KindNode4:
		st.NoteShrink(4)
	case node.KindNode16:
		st.NoteShrink(16)
	case node.KindNode48:
		st.NoteShrink(48)
	}
}

// notePromote records a promotion of a node to the kind promoted now has.
func notePromote[T any](st *stats.Counters, promoted node.Node[T]) {
	switch promoted.Kind() {
	case node.KindNode16:
		st.NotePromote(16)
	case node.KindNode48:
		st.NotePromote(48)
	case node.KindNode256:
		st.NotePromote(256)
	}
}

// Get returns the value stored under key, retrying from the root whenever
// optimistic validation fails.
func (t *Tree[T]) Get(key []byte) (T, bool) {
	guard := t.q.NewGuard()
	defer guard.Close()

	var zero T

	for {
		v, ok, err := t.tryGet(key)
		if err == nil {
			return v, ok
		}
	}

	return zero, false
}

func (t *Tree[T]) tryGet(key []byte) (T, bool, error) {
	var zero T

	parentRG, ok := t.rh.lock.BeginRead()
	if !ok {
		return zero, false, errRestart
	}

	cur := t.rh.root
	if cur == nil {
		if !parentRG.Validate() {
			return zero, false, errRestart
		}

		return zero, false, nil
	}

	curRG, ok := cur.Lock().BeginRead()
	if !ok || curRG.Obsolete() {
		return zero, false, errRestart
	}

	if !parentRG.Validate() {
		return zero, false, errRestart
	}

	depth := 0

	for {
		if cur.Kind() == node.KindLeaf {
			leaf := cur.(*node.Leaf[T])
			matches := leaf.Matches(key)
			val := leaf.Value

			if !curRG.Validate() {
				return zero, false, errRestart
			}

			if matches {
				return val, true, nil
			}

			return zero, false, nil
		}

		remaining := key[depth:]
		if !prefixMatchesRG(cur, remaining, depth, curRG) {
			if !curRG.Validate() {
				return zero, false, errRestart
			}

			return zero, false, nil
		}

		nextDepth := depth + cur.PrefixLen()
		if nextDepth >= len(key) {
			if !curRG.Validate() {
				return zero, false, errRestart
			}

			return zero, false, nil
		}

		_, child, found := cur.FindChild(key[nextDepth])
		if !found {
			if !curRG.Validate() {
				return zero, false, errRestart
			}

			return zero, false, nil
		}

		childRG, ok := child.Lock().BeginRead()
		if !ok || childRG.Obsolete() {
			return zero, false, errRestart
		}

		if !curRG.Validate() {
			return zero, false, errRestart
		}

		cur = child
		curRG = childRG
		depth = nextDepth + 1
	}
}

// prefixMatchesRG compares cur's prefix to remaining while still holding
// only a read critical section: validation of the read happens at the
// call site after this returns, so a torn read here is caught there. depth
// is cur's depth from the root (remaining == key[depth:]): cur's logical
// prefix occupies minKey[depth:depth+plen], never minKey[:plen].
func prefixMatchesRG[T any](cur node.Node[T], remaining []byte, depth int, _ olc.ReadGuard) bool {
	plen := cur.PrefixLen()
	if plen == 0 {
		return true
	}

	if plen > len(remaining) {
		return false
	}

	stored := cur.Prefix()
	n := plen
	if n > len(stored) {
		n = len(stored)
	}

	for i := 0; i < n; i++ {
		if stored[i] != remaining[i] {
			return false
		}
	}

	if plen <= len(stored) {
		return true
	}

	minLeaf := cur.Minimum()
	if minLeaf == nil {
		return false
	}

	minKey := minLeaf.Key()
	if depth+plen > len(minKey) {
		return false
	}

	for i := len(stored); i < plen; i++ {
		if minKey[depth+i] != remaining[i] {
			return false
		}
	}

	return true
}

// Empty reports whether the tree is momentarily empty.
func (t *Tree[T]) Empty() bool {
	guard := t.q.NewGuard()
	defer guard.Close()

	rg, ok := t.rh.lock.BeginRead()
	if !ok {
		return t.Empty()
	}

	empty := t.rh.root == nil
	if !rg.Validate() {
		return t.Empty()
	}

	return empty
}

// Count returns the approximate number of keys (concurrent inserts/deletes
// racing with this call may be over- or under-counted by one).
func (t *Tree[T]) Count() int { return t.size.load() }

// Clear empties the tree. The caller is responsible for ensuring no other
// goroutine is registered with t's QSBR domain at the same time: with only
// one participant left, every other reader has already quiesced, so
// dropping the root inline (rather than routing it through Retire) is
// safe.
func (t *Tree[T]) Clear() {
	t.rh.root = nil
	t.size.reset()
}
