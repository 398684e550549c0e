package tree

import "github.com/go-art/unodb-go/internal/node"

// Remove deletes key. It reports false, without modifying the tree, if key
// is absent.
func (t *Tree[T]) Remove(key []byte) bool {
	if t.root == nil {
		return false
	}

	if t.root.Kind() == node.KindLeaf {
		leaf := t.root.(*node.Leaf[T])
		if !leaf.Matches(key) {
			return false
		}

		t.reclaim(leaf)
		t.root = nil
		t.count--

		return true
	}

	ok := t.removeFrom(&t.root, key, 0)
	if ok {
		t.count--
	}

	return ok
}

// removeFrom deletes key from the subtree at *slot. depth is how much of
// key ancestors have already consumed.
func (t *Tree[T]) removeFrom(slot *node.Node[T], key []byte, depth int) bool {
	cur := *slot

	remaining := key[depth:]
	if sharedPrefixLen(cur, remaining, depth) < cur.PrefixLen() {
		return false
	}

	depth += cur.PrefixLen()
	if depth >= len(key) {
		return false
	}

	b := key[depth]

	childSlot, child, ok := cur.FindChild(b)
	if !ok {
		return false
	}

	if child.Kind() == node.KindLeaf {
		leaf := child.(*node.Leaf[T])
		if !leaf.Matches(key) {
			return false
		}

		cur.RemoveChild(childSlot)
		t.reclaim(leaf)

		if shrunk := cur.Shrink(); shrunk != cur {
			noteShrink(t.stats, shrunk)
			t.reclaim(cur)
			*slot = shrunk
		}

		return true
	}

	holder := child
	removed := t.removeFrom(&holder, key, depth+1)
	if !removed {
		return false
	}

	if holder != child {
		// The recursive call already shrank/collapsed the child and wrote
		// the replacement into holder; splice it back into cur.
		replaceChild(cur, b, holder)
	}

	return true
}
