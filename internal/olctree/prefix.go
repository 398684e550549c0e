package olctree

import "github.com/go-art/unodb-go/internal/node"

// sharedPrefixLenRG mirrors internal/tree's sharedPrefixLen: how many of
// cur's logical prefix bytes match remaining's leading bytes, falling back
// to the minimum leaf's key for bytes beyond inline storage. depth is cur's
// depth from the root (remaining == key[depth:]): cur's logical prefix
// occupies minKey[depth:depth+plen]. Any torn read here is caught by the
// caller's subsequent RCS validation, so this need not be atomic in itself.
func sharedPrefixLenRG[T any](cur node.Node[T], remaining []byte, depth int) int {
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

func commonPrefixLenRG(a, b []byte) int {
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

// prefixByteAndRestRG splits cur's stored prefix at offset shared, falling
// back to the minimum leaf's key beyond inline storage. depth is cur's
// depth from the root.
func prefixByteAndRestRG[T any](cur node.Node[T], shared, depth int) (byte, []byte) {
	plen := cur.PrefixLen()
	stored := cur.Prefix()

	if shared < len(stored) {
		b := stored[shared]
		rest := append([]byte(nil), stored[shared+1:]...)

		return b, rest
	}

	minLeaf := cur.Minimum()
	minKey := minLeaf.Key()

	b := minKey[depth+shared]
	rest := append([]byte(nil), minKey[depth+shared+1:depth+plen]...)

	return b, rest
}
