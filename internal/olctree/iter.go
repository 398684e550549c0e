package olctree

import (
	"github.com/go-art/unodb-go/internal/node"
	"github.com/go-art/unodb-go/internal/olc"
)

// Iterator walks a concurrent Tree's leaves in key order. Unlike
// internal/tree's Iterator, it never keeps a descent stack between calls:
// every positioning call performs one fresh, read-critical-section-validated
// descent from the root, retried from scratch on any optimistic-lock
// conflict, and only the landed leaf's key survives between calls. Next and
// Prev reseek from that remembered key rather than walking an in-memory
// stack, so a concurrent writer anywhere else in the tree can never corrupt
// the iterator's position.
type Iterator[T any] struct {
	t     *Tree[T]
	key   []byte
	val   T
	valid bool
}

// NewIterator returns an iterator over t, positioned before the first key.
func NewIterator[T any](t *Tree[T]) *Iterator[T] { return &Iterator[T]{t: t} }

// Valid reports whether the iterator is parked on a key.
func (it *Iterator[T]) Valid() bool { return it.valid }

// Key returns the key of the leaf the iterator is parked on.
func (it *Iterator[T]) Key() []byte { return it.key }

// Value returns the value of the leaf the iterator is parked on.
func (it *Iterator[T]) Value() T { return it.val }

func (it *Iterator[T]) land(key []byte, val T, ok bool) bool {
	it.key, it.val, it.valid = key, val, ok

	return ok
}

// First positions the iterator on the smallest key in the tree.
func (it *Iterator[T]) First() bool {
	guard := it.t.q.NewGuard()
	defer guard.Close()

	for {
		key, val, ok, err := it.t.seekExtreme(true)
		if err == nil {
			return it.land(key, val, ok)
		}
	}
}

// Last positions the iterator on the largest key in the tree.
func (it *Iterator[T]) Last() bool {
	guard := it.t.q.NewGuard()
	defer guard.Close()

	for {
		key, val, ok, err := it.t.seekExtreme(false)
		if err == nil {
			return it.land(key, val, ok)
		}
	}
}

// Seek positions the iterator at the smallest key >= key (forward) or the
// largest key <= key (!forward). It reports whether the landed key equals
// key.
func (it *Iterator[T]) Seek(key []byte, forward bool) bool {
	guard := it.t.q.NewGuard()
	defer guard.Close()

	for {
		foundKey, val, ok, err := it.t.seekNear(key, forward, false)
		if err == nil {
			it.land(foundKey, val, ok)

			return ok && compareKeysOLC(foundKey, key) == 0
		}
	}
}

// Next advances to the smallest key strictly greater than the current one.
// Since any key extending the current one as a prefix sorts after it, and
// any key not extending it diverges at some byte greater than the current
// key's own bytes, appending a zero byte to the current key produces the
// exact lower bound of that successor.
func (it *Iterator[T]) Next() bool {
	if !it.valid {
		return false
	}

	guard := it.t.q.NewGuard()
	defer guard.Close()

	target := append(append([]byte(nil), it.key...), 0x00)

	for {
		key, val, ok, err := it.t.seekNear(target, true, false)
		if err == nil {
			return it.land(key, val, ok)
		}
	}
}

// Prev retreats to the largest key strictly less than the current one. There
// is no byte-string construction analogous to Next's zero-byte trick for a
// predecessor bound, so this walks the tree structurally, stepping to the
// previous sibling at the first ancestor that has one.
func (it *Iterator[T]) Prev() bool {
	if !it.valid {
		return false
	}

	guard := it.t.q.NewGuard()
	defer guard.Close()

	for {
		key, val, ok, err := it.t.seekNear(it.key, false, true)
		if err == nil {
			return it.land(key, val, ok)
		}
	}
}

type olcFrame[T any] struct {
	n    node.Node[T]
	rg   olc.ReadGuard
	slot int
}

// seekExtreme descends to the leftmost (or rightmost) leaf, coupling each
// read critical section to its parent's the same way tryGet does.
func (t *Tree[T]) seekExtreme(leftmost bool) ([]byte, T, bool, error) {
	var zero T

	rootRG, ok := t.rh.lock.BeginRead()
	if !ok {
		return nil, zero, false, errRestart
	}

	cur := t.rh.root
	if cur == nil {
		if !rootRG.Validate() {
			return nil, zero, false, errRestart
		}

		return nil, zero, false, nil
	}

	curRG, ok := cur.Lock().BeginRead()
	if !ok || curRG.Obsolete() {
		return nil, zero, false, errRestart
	}

	if !rootRG.Validate() {
		return nil, zero, false, errRestart
	}

	for cur.Kind() != node.KindLeaf {
		var child node.Node[T]
		var found bool

		if leftmost {
			_, _, child, found = cur.FirstChild()
		} else {
			_, _, child, found = cur.LastChild()
		}

		if !found {
			if !curRG.Validate() {
				return nil, zero, false, errRestart
			}

			return nil, zero, false, nil
		}

		childRG, ok := child.Lock().BeginRead()
		if !ok || childRG.Obsolete() {
			return nil, zero, false, errRestart
		}

		if !curRG.Validate() {
			return nil, zero, false, errRestart
		}

		cur, curRG = child, childRG
	}

	leaf := cur.(*node.Leaf[T])
	key := append([]byte(nil), leaf.Key()...)
	val := leaf.Value

	if !curRG.Validate() {
		return nil, zero, false, errRestart
	}

	return key, val, true, nil
}

// seekNear descends toward key, landing on the smallest leaf >= key
// (forward) or largest leaf <= key (!forward). When excludeExact is true and
// the descent lands exactly on key, it steps to the next (forward) or
// previous (!forward) leaf instead, giving Prev a strict predecessor search.
// A leaf the descent reaches on the wrong side of key is stepped past the
// same way.
func (t *Tree[T]) seekNear(key []byte, forward, excludeExact bool) ([]byte, T, bool, error) {
	var zero T
	var stack []olcFrame[T]

	rootRG, ok := t.rh.lock.BeginRead()
	if !ok {
		return nil, zero, false, errRestart
	}

	root := t.rh.root
	if root == nil {
		if !rootRG.Validate() {
			return nil, zero, false, errRestart
		}

		return nil, zero, false, nil
	}

	rootNodeRG, ok := root.Lock().BeginRead()
	if !ok || rootNodeRG.Obsolete() {
		return nil, zero, false, errRestart
	}

	if !rootRG.Validate() {
		return nil, zero, false, errRestart
	}

	stack = append(stack, olcFrame[T]{n: root, rg: rootNodeRG, slot: -1})

	depth := 0

	for {
		if len(stack) == 0 {
			return nil, zero, false, nil
		}

		top := &stack[len(stack)-1]
		cur := top.n
		curRG := top.rg

		if cur.Kind() == node.KindLeaf {
			leaf := cur.(*node.Leaf[T])
			cmp := compareKeysOLC(leaf.Key(), key)

			if (excludeExact && cmp == 0) || (forward && cmp < 0) || (!forward && cmp > 0) {
				if err := stepToSiblingOLC(&stack, forward); err != nil {
					return nil, zero, false, err
				}

				continue
			}

			if !curRG.Validate() {
				return nil, zero, false, errRestart
			}

			outKey := append([]byte(nil), leaf.Key()...)

			return outKey, leaf.Value, true, nil
		}

		remaining := key[depth:]
		shared := sharedPrefixLenRG(cur, remaining, depth)

		if shared < cur.PrefixLen() {
			cmp := comparePrefixDivergenceOLC(cur, shared, remaining, depth)

			if (forward && cmp > 0) || (!forward && cmp < 0) {
				if err := descendExtremeOLC(&stack, forward); err != nil {
					return nil, zero, false, err
				}

				continue
			}

			if err := stepToSiblingOLC(&stack, forward); err != nil {
				return nil, zero, false, err
			}

			continue
		}

		depth += cur.PrefixLen()
		if depth >= len(key) {
			var err error
			if forward {
				err = descendExtremeOLC(&stack, true)
			} else {
				// Every key under cur extends key and so sorts after it.
				err = stepToSiblingOLC(&stack, false)
			}

			if err != nil {
				return nil, zero, false, err
			}

			continue
		}

		b := key[depth]

		slot, child, found := cur.FindChild(b)
		if found {
			childRG, ok := child.Lock().BeginRead()
			if !ok || childRG.Obsolete() {
				return nil, zero, false, errRestart
			}

			if !curRG.Validate() {
				return nil, zero, false, errRestart
			}

			top.slot = slot
			stack = append(stack, olcFrame[T]{n: child, rg: childRG, slot: -1})
			depth++

			continue
		}

		var gslot int
		var gfound bool

		if forward {
			_, gslot, gfound = cur.GTEKeyByte(b)
		} else {
			_, gslot, gfound = cur.LTEKeyByte(b)
		}

		if gfound {
			child := cur.GetChild(gslot)

			childRG, ok := child.Lock().BeginRead()
			if !ok || childRG.Obsolete() {
				return nil, zero, false, errRestart
			}

			if !curRG.Validate() {
				return nil, zero, false, errRestart
			}

			top.slot = gslot
			stack = append(stack, olcFrame[T]{n: child, rg: childRG, slot: -1})

			if err := descendExtremeOLC(&stack, forward); err != nil {
				return nil, zero, false, err
			}

			continue
		}

		if err := stepToSiblingOLC(&stack, forward); err != nil {
			return nil, zero, false, err
		}
	}
}

// descendExtremeOLC pushes leftmost (forward) or rightmost (!forward)
// children from the current top of stack down to a leaf.
func descendExtremeOLC[T any](stack *[]olcFrame[T], forward bool) error {
	for {
		top := &(*stack)[len(*stack)-1]
		if top.n.Kind() == node.KindLeaf {
			return nil
		}

		var child node.Node[T]
		var slot int
		var found bool

		if forward {
			_, slot, child, found = top.n.FirstChild()
		} else {
			_, slot, child, found = top.n.LastChild()
		}

		if !found {
			return errRestart
		}

		childRG, ok := child.Lock().BeginRead()
		if !ok || childRG.Obsolete() {
			return errRestart
		}

		if !top.rg.Validate() {
			return errRestart
		}

		top.slot = slot
		*stack = append(*stack, olcFrame[T]{n: child, rg: childRG, slot: -1})
	}
}

// stepToSiblingOLC pops the current frame and walks up looking for an
// ancestor with a next (forward) or previous (!forward) sibling, descending
// into it to its extreme leaf. An empty stack on return means the search ran
// off the end of the tree.
func stepToSiblingOLC[T any](stack *[]olcFrame[T], forward bool) error {
	for len(*stack) > 0 {
		*stack = (*stack)[:len(*stack)-1]

		if len(*stack) == 0 {
			return nil
		}

		top := &(*stack)[len(*stack)-1]

		var child node.Node[T]
		var slot int
		var found bool

		if forward {
			_, slot, child, found = top.n.NextChildAfter(top.slot)
		} else {
			_, slot, child, found = top.n.PrevChildBefore(top.slot)
		}

		if !found {
			continue
		}

		childRG, ok := child.Lock().BeginRead()
		if !ok || childRG.Obsolete() {
			return errRestart
		}

		if !top.rg.Validate() {
			return errRestart
		}

		top.slot = slot
		*stack = append(*stack, olcFrame[T]{n: child, rg: childRG, slot: -1})

		return descendExtremeOLC(stack, forward)
	}

	return nil
}

// comparePrefixDivergenceOLC reports the sign of the comparison between
// cur's logical prefix and remaining at their first differing byte (or at
// remaining's exhaustion): negative if cur's subtree sorts before remaining,
// positive if after. depth is cur's depth from the root (remaining ==
// key[depth:]).
func comparePrefixDivergenceOLC[T any](cur node.Node[T], shared int, remaining []byte, depth int) int {
	stored := cur.Prefix()
	plen := cur.PrefixLen()

	var nByte, kByte byte
	var haveN, haveK bool

	if shared < len(stored) {
		nByte, haveN = stored[shared], true
	} else if shared < plen {
		minLeaf := cur.Minimum()
		if minLeaf != nil {
			minKey := minLeaf.Key()

			if depth+shared < len(minKey) {
				nByte, haveN = minKey[depth+shared], true
			}
		}
	}

	if shared < len(remaining) {
		kByte, haveK = remaining[shared], true
	}

	switch {
	case haveN && haveK:
		switch {
		case nByte < kByte:
			return -1
		case nByte > kByte:
			return 1
		default:
			return 0
		}
	case haveN && !haveK:
		return 1
	case !haveN && haveK:
		return -1
	default:
		return 0
	}
}

func compareKeysOLC(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}

			return 1
		}
	}

	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}
