// Package tree implements the single-threaded ART algorithms: lookup,
// insert, delete, and a bidirectional iterator, all built directly on top
// of internal/node's shapes.
//
// Nothing in this package touches internal/olc: every node's lock word
// exists but is never read or written here. internal/olctree reuses these
// same node shapes under the OLC protocol instead of duplicating them.
package tree

import (
	"github.com/go-art/unodb-go/internal/node"
	"github.com/go-art/unodb-go/internal/objpool"
	"github.com/go-art/unodb-go/internal/stats"
)

// Tree is a single-threaded ART. A zero Tree is an empty, ready-to-use
// index.
type Tree[T any] struct {
	root   node.Node[T]
	pool4  objpool.Pool[node.Node4[T]]
	leaves objpool.Pool[node.Leaf[T]]
	count  int
	stats  *stats.Counters
}

// New returns an empty Tree.
func New[T any]() *Tree[T] { return &Tree[T]{} }

// EnableStats turns on node-kind counters for t. Safe to call at most once,
// before any mutation: a nil stats.Counters (the default) makes every
// counter call a no-op.
func (t *Tree[T]) EnableStats() { t.stats = stats.New() }

// Stats returns a point-in-time snapshot of t's node-kind counters. Always
// the zero Snapshot unless EnableStats was called.
func (t *Tree[T]) Stats() stats.Snapshot { return t.stats.Snapshot() }

// newNode4 allocates an empty Inner4, recycling storage from a prior
// reclaim when the pool has one available.
func (t *Tree[T]) newNode4() *node.Node4[T] {
	t.stats.NoteNode4()

	return t.pool4.New()
}

// newLeaf allocates a leaf holding a copy of key and value, recycling
// storage from a prior reclaim when possible.
func (t *Tree[T]) newLeaf(key []byte, value T) *node.Leaf[T] {
	t.stats.NoteLeaf()

	l := t.leaves.New()
	l.Init(key, value)

	return l
}

// noteShrink records a demotion of a node to the kind shrunk now has,
// ignored if shrunk is a leaf (an Inner4-to-leaf collapse, not a demotion
// to a smaller inner shape).
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

// reclaim returns n's storage to the appropriate pool. The single-threaded
// variant frees inline; there is no QSBR deferral here.
func (t *Tree[T]) reclaim(n node.Node[T]) {
	switch v := n.(type) {
	case *node.Leaf[T]:
		t.leaves.Free(v)
	case *node.Node4[T]:
		t.pool4.Free(v)
	}
}

// Empty reports whether the tree holds no keys.
func (t *Tree[T]) Empty() bool { return t.root == nil }

// Count returns the number of keys currently stored.
func (t *Tree[T]) Count() int { return t.count }

// Clear empties the tree. Rather than asserting the reclaimed leaf count
// matches t.count, it resets defensively: dropping the root and letting the
// garbage collector reclaim the subtree is always safe, even if a future
// bug left count out of sync.
func (t *Tree[T]) Clear() {
	t.root = nil
	t.count = 0
}

// Get returns the value stored under key, if present.
func (t *Tree[T]) Get(key []byte) (T, bool) {
	var zero T

	cur := t.root
	depth := 0

	for cur != nil {
		if cur.Kind() == node.KindLeaf {
			leaf := cur.(*node.Leaf[T])
			if leaf.Matches(key) {
				return leaf.Value, true
			}

			return zero, false
		}

		remaining := key[depth:]
		if !prefixMatches(cur, remaining, depth) {
			return zero, false
		}

		depth += cur.PrefixLen()
		if depth >= len(key) {
			return zero, false
		}

		_, child, ok := cur.FindChild(key[depth])
		if !ok {
			return zero, false
		}

		depth++
		cur = child
	}

	return zero, false
}

// prefixMatches reports whether cur's stored prefix matches the leading
// bytes of remaining. depth is cur's depth from the root (remaining ==
// key[depth:]): the node's logical prefix occupies minKey[depth:depth+plen]
// in any representative leaf's key, never minKey[:plen], since cur may sit
// anywhere below the root. When the logical prefix length exceeds what is
// stored inline, it falls back to comparing against the minimum leaf's key
// (the "pessimistic" verification allows for prefix overflow).
func prefixMatches[T any](cur node.Node[T], remaining []byte, depth int) bool {
	plen := cur.PrefixLen()
	if plen == 0 {
		return true
	}

	if plen > len(remaining) {
		return false
	}

	stored := cur.Prefix()
	if plen <= len(stored) {
		return equalBytes(stored[:plen], remaining[:plen])
	}

	// Prefix overflow: compare the inline-stored bytes, then fall back to
	// the representative leaf's key for the remainder.
	if !equalBytes(stored, remaining[:len(stored)]) {
		return false
	}

	minLeaf := cur.Minimum()
	if minLeaf == nil {
		return false
	}

	minKey := minLeaf.Key()
	if depth+plen > len(minKey) {
		return false
	}

	return equalBytes(minKey[depth+len(stored):depth+plen], remaining[len(stored):plen])
}

func equalBytes(a, b []byte) bool {
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

// commonPrefixLen returns the length of the longest common prefix of a and
// b.
func commonPrefixLen(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}

	return n
}
