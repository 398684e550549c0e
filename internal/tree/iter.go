package tree

import "github.com/go-art/unodb-go/internal/node"

// frame is one level of the iterator's explicit descent stack: the node at
// this level and the slot within it the iterator is currently parked on.
// A freshly pushed frame has slot 0 until the descent records the child it
// takes; a leaf frame keeps slot 0.
type frame[T any] struct {
	n    node.Node[T]
	slot int
}

// Iterator walks a Tree's leaves in key order using an explicit descent
// stack rather than recursion.
//
// A key buffer mirrors the stack's prefixes and descent bytes; Key does not
// read it and returns the parked leaf's stored key.
type Iterator[T any] struct {
	t       *Tree[T]
	stack   []frame[T]
	keyBuf  []byte
	keyLens []int
}

// NewIterator returns an iterator over t, positioned before the first key.
func NewIterator[T any](t *Tree[T]) *Iterator[T] {
	return &Iterator[T]{t: t}
}

// Valid reports whether the iterator is parked on a leaf.
func (it *Iterator[T]) Valid() bool {
	return len(it.stack) > 0 && it.stack[len(it.stack)-1].n.Kind() == node.KindLeaf
}

// Key returns the key of the leaf the iterator is parked on.
func (it *Iterator[T]) Key() []byte {
	return it.stack[len(it.stack)-1].n.(*node.Leaf[T]).Key()
}

// Value returns the value of the leaf the iterator is parked on.
func (it *Iterator[T]) Value() T {
	return it.stack[len(it.stack)-1].n.(*node.Leaf[T]).Value
}

func (it *Iterator[T]) reset() {
	it.stack = it.stack[:0]
	it.keyBuf = it.keyBuf[:0]
	it.keyLens = it.keyLens[:0]
}

func (it *Iterator[T]) push(n node.Node[T], slot int, descentByte byte, haveDescentByte bool) {
	it.stack = append(it.stack, frame[T]{n: n, slot: slot})

	if n.Kind() != node.KindLeaf {
		it.keyBuf = append(it.keyBuf, n.Prefix()...)
	}
	if haveDescentByte {
		it.keyBuf = append(it.keyBuf, descentByte)
	}

	it.keyLens = append(it.keyLens, len(it.keyBuf))
}

func (it *Iterator[T]) pop() {
	n := len(it.stack) - 1
	it.stack = it.stack[:n]

	if n == 0 {
		it.keyBuf = it.keyBuf[:0]
		it.keyLens = it.keyLens[:0]

		return
	}

	it.keyBuf = it.keyBuf[:it.keyLens[n-1]]
	it.keyLens = it.keyLens[:n]
}

// First descends to the leftmost leaf.
func (it *Iterator[T]) First() bool {
	it.reset()

	root := it.t.root
	if root == nil {
		return false
	}

	it.descendLeftmost(root, false, 0)

	return it.Valid()
}

// Last descends to the rightmost leaf.
func (it *Iterator[T]) Last() bool {
	it.reset()

	root := it.t.root
	if root == nil {
		return false
	}

	it.descendRightmost(root, false, 0)

	return it.Valid()
}

func (it *Iterator[T]) descendLeftmost(n node.Node[T], haveByte bool, b byte) {
	it.push(n, 0, b, haveByte)

	for n.Kind() != node.KindLeaf {
		cb, slot, child, ok := n.FirstChild()
		if !ok {
			return
		}

		it.stack[len(it.stack)-1].slot = slot
		n = child
		it.push(n, 0, cb, true)
	}
}

func (it *Iterator[T]) descendRightmost(n node.Node[T], haveByte bool, b byte) {
	it.push(n, 0, b, haveByte)

	for n.Kind() != node.KindLeaf {
		cb, slot, child, ok := n.LastChild()
		if !ok {
			return
		}

		it.stack[len(it.stack)-1].slot = slot
		n = child
		it.push(n, 0, cb, true)
	}
}

// Next advances to the next leaf in key order.
func (it *Iterator[T]) Next() bool {
	if len(it.stack) == 0 {
		return false
	}

	it.pop() // leaf

	for len(it.stack) > 0 {
		top := &it.stack[len(it.stack)-1]

		cb, slot, child, ok := top.n.NextChildAfter(top.slot)
		if !ok {
			it.pop()

			continue
		}

		top.slot = slot
		it.descendLeftmost(child, true, cb)

		return it.Valid()
	}

	return false
}

// Prev retreats to the previous leaf in key order.
func (it *Iterator[T]) Prev() bool {
	if len(it.stack) == 0 {
		return false
	}

	it.pop() // leaf

	for len(it.stack) > 0 {
		top := &it.stack[len(it.stack)-1]

		cb, slot, child, ok := top.n.PrevChildBefore(top.slot)
		if !ok {
			it.pop()

			continue
		}

		top.slot = slot
		it.descendRightmost(child, true, cb)

		return it.Valid()
	}

	return false
}

// Seek positions the iterator at the leaf whose key is >= key (forward) or
// <= key (!forward). exact reports whether that leaf's key equals key
// exactly.
func (it *Iterator[T]) Seek(key []byte, forward bool) (exact bool) {
	it.reset()

	root := it.t.root
	if root == nil {
		return false
	}

	depth := 0
	n := root
	var haveByte bool
	var descentByte byte

	for {
		it.push(n, 0, descentByte, haveByte)

		if n.Kind() == node.KindLeaf {
			leaf := n.(*node.Leaf[T])

			cmp := compareBytes(leaf.Key(), key)
			if (forward && cmp < 0) || (!forward && cmp > 0) {
				// The leaf sorts on the wrong side of key: step once in
				// the search direction.
				if forward {
					it.Next()
				} else {
					it.Prev()
				}

				return false
			}

			return cmp == 0
		}

		remaining := key[depth:]
		shared := sharedPrefixLen(n, remaining, depth)

		if shared < n.PrefixLen() {
			// Prefix diverges from key: land on n's extreme leaf if n's
			// subtree sorts on the search side, else unwind to a sibling.
			cmp := comparePrefixDivergence(n, shared, remaining, depth)
			it.pop()

			if (forward && cmp > 0) || (!forward && cmp < 0) {
				if forward {
					it.descendLeftmost(n, haveByte, descentByte)
				} else {
					it.descendRightmost(n, haveByte, descentByte)
				}

				return false
			}

			it.stepToSiblingOrUnwind(forward)

			return false
		}

		depth += n.PrefixLen()
		if depth >= len(key) {
			it.pop()

			if forward {
				it.descendLeftmost(n, haveByte, descentByte)
			} else {
				// Every key under n extends key and so sorts after it.
				it.stepToSiblingOrUnwind(false)
			}

			return false
		}

		b := key[depth]

		slot, child, ok := n.FindChild(b)
		if ok {
			it.stack[len(it.stack)-1].slot = slot
			n = child
			depth++
			haveByte = true
			descentByte = b

			continue
		}

		// No child for b: use gte/lte to find the successor/predecessor
		// child under this node, or unwind looking for a sibling.
		var kb byte
		var found bool

		if forward {
			kb, slot, found = n.GTEKeyByte(b)
		} else {
			kb, slot, found = n.LTEKeyByte(b)
		}

		if found {
			it.stack[len(it.stack)-1].slot = slot
			child := n.GetChild(slot)

			if forward {
				it.descendLeftmost(child, true, kb)
			} else {
				it.descendRightmost(child, true, kb)
			}

			return false
		}

		it.pop()
		it.stepToSiblingOrUnwind(forward)

		return false
	}
}

// stepToSiblingOrUnwind unwinds the stack looking for an ancestor with a
// next (forward) or previous (!forward) sibling, descending into it.
func (it *Iterator[T]) stepToSiblingOrUnwind(forward bool) {
	for len(it.stack) > 0 {
		top := &it.stack[len(it.stack)-1]

		var cb byte
		var slot int
		var child node.Node[T]
		var ok bool

		if forward {
			cb, slot, child, ok = top.n.NextChildAfter(top.slot)
		} else {
			cb, slot, child, ok = top.n.PrevChildBefore(top.slot)
		}

		if !ok {
			it.pop()

			continue
		}

		top.slot = slot

		if forward {
			it.descendLeftmost(child, true, cb)
		} else {
			it.descendRightmost(child, true, cb)
		}

		return
	}
}

// comparePrefixDivergence reports the sign of the comparison between n's
// logical prefix and remaining at their first differing byte (or at
// remaining's exhaustion): negative if n's subtree sorts before remaining,
// positive if after, matching the convention of bytes.Compare. depth is n's
// depth from the root (remaining == key[depth:]).
func comparePrefixDivergence[T any](n node.Node[T], shared int, remaining []byte, depth int) int {
	stored := n.Prefix()
	plen := n.PrefixLen()

	var nByte, kByte byte
	var haveN, haveK bool

	if shared < len(stored) {
		nByte, haveN = stored[shared], true
	} else if shared < plen {
		minLeaf := n.Minimum()
		minKey := minLeaf.Key()

		if depth+shared < len(minKey) {
			nByte, haveN = minKey[depth+shared], true
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

func compareBytes(a, b []byte) int {
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
