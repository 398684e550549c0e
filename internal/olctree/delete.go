package olctree

import (
	"github.com/go-art/unodb-go/internal/node"
	"github.com/go-art/unodb-go/internal/olc"
)

// Remove deletes key, retrying from the root on optimistic conflict. It
// reports false, without modifying the tree, if key is absent.
func (t *Tree[T]) Remove(key []byte) bool {
	guard := t.q.NewGuard()
	defer guard.Close()

	for {
		ok, err := t.tryRemove(key)
		if err == nil {
			if ok {
				t.size.dec()
			}

			return ok
		}
	}
}

func (t *Tree[T]) tryRemove(key []byte) (bool, error) {
	rootRG, ok := t.rh.lock.BeginRead()
	if !ok {
		return false, errRestart
	}

	root := t.rh.root
	if root == nil {
		if !rootRG.Validate() {
			return false, errRestart
		}

		return false, nil
	}

	if root.Kind() == node.KindLeaf {
		leaf := root.(*node.Leaf[T])
		if !leaf.Matches(key) {
			if !rootRG.Validate() {
				return false, errRestart
			}

			return false, nil
		}

		wg, ok := rootRG.LockFromRead()
		if !ok {
			return false, errRestart
		}

		if t.rh.root != root {
			wg.Unlock()

			return false, errRestart
		}

		t.rh.root = nil
		wg.Unlock()

		old := leaf
		t.q.Retire(func() { _ = old })

		return true, nil
	}

	return t.removeFrom(&t.rh.lock, rootRG, &t.rh.root, key, 0)
}

// removeFrom mirrors internal/tree.removeFrom, with every read an RCS and
// the single structural change (remove-child plus any shrink/collapse)
// performed under a write-guard chain coupling parent, node, and, for
// Inner4 collapse, the surviving child.
func (t *Tree[T]) removeFrom(
	parentLock *olc.Word, parentRG olc.ReadGuard, slot *node.Node[T], key []byte, depth int,
) (bool, error) {
	cur := *slot

	curRG, ok := cur.Lock().BeginRead()
	if !ok || curRG.Obsolete() {
		return false, errRestart
	}

	if !parentRG.Validate() {
		return false, errRestart
	}

	remaining := key[depth:]
	if sharedPrefixLenRG(cur, remaining, depth) < cur.PrefixLen() {
		if !curRG.Validate() {
			return false, errRestart
		}

		return false, nil
	}

	depth += cur.PrefixLen()
	if depth >= len(key) {
		if !curRG.Validate() {
			return false, errRestart
		}

		return false, nil
	}

	b := key[depth]

	childSlot, child, found := cur.FindChild(b)
	if !found {
		if !curRG.Validate() {
			return false, errRestart
		}

		return false, nil
	}

	if child.Kind() == node.KindLeaf {
		leaf := child.(*node.Leaf[T])
		if !leaf.Matches(key) {
			if !curRG.Validate() {
				return false, errRestart
			}

			return false, nil
		}

		return t.removeLeaf(parentLock, parentRG, curRG, slot, cur, childSlot, leaf)
	}

	if !curRG.Validate() {
		return false, errRestart
	}

	holder := child
	removed, err := t.removeFrom(cur.Lock(), curRG, &holder, key, depth+1)
	if err != nil {
		return false, err
	}

	if !removed {
		return false, nil
	}

	if holder != child {
		if !t.replaceChildLocked(cur, curRG, b, holder) {
			return false, errRestart
		}
	}

	return true, nil
}

// removeLeaf removes the matched leaf and, if that drops cur below its
// minimum, shrinks or collapses it under a three-way write-guard chain:
// parent, cur, and (for an Inner4 collapse onto an inner-node child) the
// surviving child.
func (t *Tree[T]) removeLeaf(
	parentLock *olc.Word, parentRG, curRG olc.ReadGuard,
	slot *node.Node[T], cur node.Node[T], childSlot int, leaf *node.Leaf[T],
) (bool, error) {
	parentWG, ok := parentRG.LockFromRead()
	if !ok {
		return false, errRestart
	}

	curWG, ok := curRG.LockFromRead()
	if !ok {
		parentWG.Unlock()

		return false, errRestart
	}

	cur.RemoveChild(childSlot)

	old := leaf
	t.q.Retire(func() { _ = old })

	// An Inner4 collapsing onto a sole inner-node child mutates that
	// child's prefix in place; couple a third write guard on it so a
	// concurrent reader never observes a torn prefix.
	var survivorWG olc.WriteGuard
	var haveSurvivorWG bool

	if cur.Kind() == node.KindNode4 && cur.NumChildren() == 1 {
		_, _, sole, ok := cur.FirstChild()
		if ok && sole.Kind() != node.KindLeaf {
			wg, ok := sole.Lock().TryLock()
			if !ok {
				curWG.Unlock()
				parentWG.Unlock()

				return false, errRestart
			}

			survivorWG, haveSurvivorWG = wg, true
		}
	}

	shrunk := cur.Shrink()

	if haveSurvivorWG {
		survivorWG.Unlock()
	}

	if shrunk == cur {
		curWG.Unlock()
		parentWG.Unlock()

		return true, nil
	}

	noteShrink(t.stats, shrunk)

	// cur is being replaced in the parent's slot, by a smaller shape or, for
	// a Node4 collapsing onto its single remaining child, by that child:
	// release cur as obsolete and hand it to QSBR.
	*slot = shrunk
	curWG.UnlockObsolete()

	oldCur := cur
	t.q.Retire(func() { _ = oldCur })

	parentWG.Unlock()

	return true, nil
}
