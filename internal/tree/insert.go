package tree

import "github.com/go-art/unodb-go/internal/node"

// Insert places value under key. It reports false, without modifying the
// tree, if key is already present.
func (t *Tree[T]) Insert(key []byte, value T) bool {
	if t.root == nil {
		t.root = t.newLeaf(key, value)
		t.count++

		return true
	}

	ok := t.insertInto(&t.root, key, 0, value)
	if ok {
		t.count++
	}

	return ok
}

// insertInto inserts key under *slot, given that the full key up to depth
// has already been consumed descending from the root.
func (t *Tree[T]) insertInto(slot *node.Node[T], key []byte, depth int, value T) bool {
	cur := *slot

	if cur.Kind() == node.KindLeaf {
		leaf := cur.(*node.Leaf[T])
		if leaf.Matches(key) {
			return false
		}

		t.splitLeaf(slot, leaf, key, depth, value)

		return true
	}

	remaining := key[depth:]

	plen := cur.PrefixLen()
	shared := sharedPrefixLen(cur, remaining, depth)
	if shared < plen {
		t.splitInner(slot, cur, shared, key, depth, value)

		return true
	}

	depth += plen
	if depth >= len(key) {
		// key is a byte-prefix of every key under cur; no descent byte.
		return false
	}

	b := key[depth]

	_, child, ok := cur.FindChild(b)
	if !ok {
		if cur.Full() {
			promoted := cur.Promote()
			notePromote(t.stats, promoted)
			*slot = promoted
			cur = promoted
		}

		cur.AddChild(b, t.newLeaf(key, value))

		return true
	}

	holder := child
	modified := t.insertInto(&holder, key, depth+1, value)

	if holder != child {
		replaceChild(cur, b, holder)
	}

	return modified
}

// replaceChild swaps the child keyed by b for replacement, used after a
// child has been promoted or split in place.
func replaceChild[T any](cur node.Node[T], b byte, replacement node.Node[T]) {
	slot, _, ok := cur.FindChild(b)
	if !ok {
		return
	}

	cur.RemoveChild(slot)
	cur.AddChild(b, replacement)
}

// splitLeaf handles insert-at-leaf: since the existing leaf's key differs
// from the new key, materialize an Inner4 at their longest common prefix.
func (t *Tree[T]) splitLeaf(slot *node.Node[T], existing *node.Leaf[T], key []byte, depth int, value T) {
	existingKey := existing.Key()

	shared := commonPrefixLen(existingKey[depth:], key[depth:])

	n4 := t.newNode4()
	n4.SetPrefix(existingKey[depth:depth+shared], shared)

	newDepth := depth + shared
	n4.AddChild(existingKey[newDepth], existing)
	n4.AddChild(key[newDepth], t.newLeaf(key, value))

	*slot = n4
}

// splitInner handles the case where key's remaining bytes diverge from
// cur's stored prefix before consuming it fully: materialize a new Inner4
// at the divergence point holding the shared bytes as its prefix, cur
// (prefix truncated past the divergence) as one child, and the new leaf as
// the other.
func (t *Tree[T]) splitInner(slot *node.Node[T], cur node.Node[T], shared int, key []byte, depth int, value T) {
	remaining := key[depth:]

	n4 := t.newNode4()
	n4.SetPrefix(remaining[:shared], shared)

	oldByte, oldRest := prefixByteAndRest(cur, shared, depth)
	cur.SetPrefix(oldRest, cur.PrefixLen()-shared-1)
	n4.AddChild(oldByte, cur)

	newDepth := depth + shared
	n4.AddChild(key[newDepth], t.newLeaf(key, value))

	t.stats.NotePrefixSplit()

	*slot = n4
}

// prefixByteAndRest splits cur's stored prefix at offset shared into the
// descent byte and the remainder bytes that stay with cur, falling back to
// cur's minimum leaf's key when the logical prefix length exceeds what is
// stored inline. depth is cur's depth from the root: cur's logical prefix
// occupies minKey[depth:depth+plen].
func prefixByteAndRest[T any](cur node.Node[T], shared, depth int) (byte, []byte) {
	plen := cur.PrefixLen()
	stored := cur.Prefix()

	if shared < len(stored) {
		b := stored[shared]
		rest := append([]byte(nil), stored[shared+1:]...)

		return b, rest
	}

	// shared falls beyond the inline-stored bytes: recover the true byte
	// and remainder from the representative minimum leaf's key.
	minLeaf := cur.Minimum()
	minKey := minLeaf.Key()

	b := minKey[depth+shared]
	rest := append([]byte(nil), minKey[depth+shared+1:depth+plen]...)

	return b, rest
}

// sharedPrefixLen returns how many of cur's logical prefix bytes match the
// leading bytes of remaining, capped at cur's logical prefix length. It
// consults the minimum leaf when the prefix overflows inline storage, the
// same pessimistic fallback Get uses. depth is cur's depth from the root
// (remaining == key[depth:]).
func sharedPrefixLen[T any](cur node.Node[T], remaining []byte, depth int) int {
	plen := cur.PrefixLen()
	stored := cur.Prefix()

	n := len(stored)
	if n > len(remaining) {
		n = len(remaining)
	}

	i := 0
	for ; i < n; i++ {
		if stored[i] != remaining[i] {
			return i
		}
	}

	if i == len(stored) && i < plen {
		// Inline bytes exhausted but the logical prefix continues beyond
		// it: verify the remainder pessimistically against a
		// representative leaf.
		minLeaf := cur.Minimum()
		if minLeaf == nil {
			return i
		}

		minKey := minLeaf.Key()

		for ; i < plen && depth+i < len(minKey) && i < len(remaining); i++ {
			if minKey[depth+i] != remaining[i] {
				return i
			}
		}
	}

	return i
}
