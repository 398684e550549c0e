package olctree

import (
	"github.com/go-art/unodb-go/internal/node"
	"github.com/go-art/unodb-go/internal/olc"
)

// Insert places value under key, retrying from the root on optimistic
// conflict. It reports false, without modifying the tree, if key is
// already present.
func (t *Tree[T]) Insert(key []byte, value T) bool {
	guard := t.q.NewGuard()
	defer guard.Close()

	for {
		ok, err := t.tryInsert(key, value)
		if err == nil {
			if ok {
				t.size.inc()
			}

			return ok
		}
	}
}

// tryInsert attempts one insertion pass, returning errRestart if any
// optimistic validation failed along the way.
func (t *Tree[T]) tryInsert(key []byte, value T) (bool, error) {
	rootRG, ok := t.rh.lock.BeginRead()
	if !ok {
		return false, errRestart
	}

	if t.rh.root == nil {
		wg, ok := rootRG.LockFromRead()
		if !ok {
			return false, errRestart
		}

		if t.rh.root != nil {
			wg.Unlock()

			return false, errRestart
		}

		t.rh.root = node.NewLeaf(key, value)
		t.stats.NoteLeaf()
		wg.Unlock()

		return true, nil
	}

	return t.insertInto(&t.rh.lock, rootRG, &t.rh.root, key, 0, value)
}

// insertInto mirrors internal/tree.insertInto but every read is an RCS and
// every mutation couples a write guard on parentLock and on the node's own
// lock before touching it.
func (t *Tree[T]) insertInto(
	parentLock *olc.Word, parentRG olc.ReadGuard, slot *node.Node[T], key []byte, depth int, value T,
) (bool, error) {
	cur := *slot

	curRG, ok := cur.Lock().BeginRead()
	if !ok || curRG.Obsolete() {
		return false, errRestart
	}

	if !parentRG.Validate() {
		return false, errRestart
	}

	if cur.Kind() == node.KindLeaf {
		leaf := cur.(*node.Leaf[T])
		if leaf.Matches(key) {
			if !curRG.Validate() {
				return false, errRestart
			}

			return false, nil
		}

		return t.splitLeaf(parentLock, parentRG, curRG, slot, leaf, key, depth, value)
	}

	remaining := key[depth:]

	plen := cur.PrefixLen()
	shared := sharedPrefixLenRG(cur, remaining, depth)

	if shared < plen {
		return t.splitInner(parentLock, parentRG, curRG, slot, cur, shared, key, depth, value)
	}

	depth += plen
	if depth >= len(key) {
		if !curRG.Validate() {
			return false, errRestart
		}

		return false, nil
	}

	b := key[depth]

	_, child, found := cur.FindChild(b)
	if !found {
		return t.addChild(parentLock, parentRG, curRG, slot, cur, b, key, value)
	}

	if !curRG.Validate() {
		return false, errRestart
	}

	holder := child
	modified, err := t.insertInto(cur.Lock(), curRG, &holder, key, depth+1, value)
	if err != nil {
		return false, err
	}

	if holder != child {
		if !t.replaceChildLocked(cur, curRG, b, holder) {
			return false, errRestart
		}
	}

	return modified, nil
}

// addChild handles the case where cur has no child for b yet: promote
// first if full, then add, all under cur's write guard coupled to the
// parent's.
func (t *Tree[T]) addChild(
	parentLock *olc.Word, parentRG olc.ReadGuard, curRG olc.ReadGuard,
	slot *node.Node[T], cur node.Node[T], b byte, key []byte, value T,
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

	if cur.Full() {
		promoted := cur.Promote()
		notePromote(t.stats, promoted)
		promoted.AddChild(b, node.NewLeaf(key, value))
		t.stats.NoteLeaf()

		*slot = promoted
		curWG.UnlockObsolete()

		old := cur
		t.q.Retire(func() { _ = old })

		parentWG.Unlock()

		return true, nil
	}

	cur.AddChild(b, node.NewLeaf(key, value))
	t.stats.NoteLeaf()
	curWG.Unlock()
	parentWG.Unlock()

	return true, nil
}

// splitLeaf materializes a new Inner4 over the existing leaf and the new
// one, under a write guard coupled to the parent.
func (t *Tree[T]) splitLeaf(
	parentLock *olc.Word, parentRG, curRG olc.ReadGuard,
	slot *node.Node[T], existing *node.Leaf[T], key []byte, depth int, value T,
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

	existingKey := existing.Key()
	shared := commonPrefixLenRG(existingKey[depth:], key[depth:])

	n4 := node.NewNode4[T]()
	t.stats.NoteNode4()
	n4.SetPrefix(existingKey[depth:depth+shared], shared)

	newDepth := depth + shared
	n4.AddChild(existingKey[newDepth], existing)
	n4.AddChild(key[newDepth], node.NewLeaf(key, value))
	t.stats.NoteLeaf()

	*slot = n4

	// existing survives as n4's child, just relocated: its own lock
	// releases normally, not as obsolete.
	curWG.Unlock()
	parentWG.Unlock()

	return true, nil
}

// splitInner materializes a divergence-point Inner4, as internal/tree does,
// under a write guard coupled to the parent.
func (t *Tree[T]) splitInner(
	parentLock *olc.Word, parentRG, curRG olc.ReadGuard,
	slot *node.Node[T], cur node.Node[T], shared int, key []byte, depth int, value T,
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

	remaining := key[depth:]

	n4 := node.NewNode4[T]()
	t.stats.NoteNode4()
	t.stats.NotePrefixSplit()
	n4.SetPrefix(remaining[:shared], shared)

	oldByte, oldRest := prefixByteAndRestRG(cur, shared, depth)
	cur.SetPrefix(oldRest, cur.PrefixLen()-shared-1)
	n4.AddChild(oldByte, cur)

	newDepth := depth + shared
	n4.AddChild(key[newDepth], node.NewLeaf(key, value))
	t.stats.NoteLeaf()

	*slot = n4

	curWG.Unlock() // cur survives as a child, not obsolete
	parentWG.Unlock()

	return true, nil
}

// replaceChildLocked swaps the child keyed by b under a write guard on cur
// coupled to an already-validated read on cur.
func (t *Tree[T]) replaceChildLocked(cur node.Node[T], curRG olc.ReadGuard, b byte, replacement node.Node[T]) bool {
	curWG, ok := curRG.LockFromRead()
	if !ok {
		return false
	}

	slot, _, ok := cur.FindChild(b)
	if ok {
		cur.RemoveChild(slot)
		cur.AddChild(b, replacement)
	}

	curWG.Unlock()

	return true
}
