package olctree

// Scan visits every key in the tree, forward or reverse, calling fn(key,
// value) for each. It stops early if fn returns true. Concurrent inserts and
// deletes elsewhere in the tree may or may not be observed, but the walk
// itself never sees a torn read.
func (t *Tree[T]) Scan(forward bool, fn func(key []byte, value T) bool) {
	it := NewIterator(t)

	var ok bool
	if forward {
		ok = it.First()
	} else {
		ok = it.Last()
	}

	for ok {
		if fn(it.Key(), it.Value()) {
			return
		}

		if forward {
			ok = it.Next()
		} else {
			ok = it.Prev()
		}
	}
}

// ScanFrom visits keys starting at from (inclusive), forward or reverse.
func (t *Tree[T]) ScanFrom(from []byte, forward bool, fn func(key []byte, value T) bool) {
	it := NewIterator(t)

	if !it.Seek(from, forward) && !it.Valid() {
		return
	}

	for it.Valid() {
		if fn(it.Key(), it.Value()) {
			return
		}

		var ok bool
		if forward {
			ok = it.Next()
		} else {
			ok = it.Prev()
		}

		if !ok {
			return
		}
	}
}

// ScanRange visits keys between from and to. Direction is determined by
// their relative order: forward and [from, to) when from < to, reverse and
// (to, from] when from > to.
func (t *Tree[T]) ScanRange(from, to []byte, fn func(key []byte, value T) bool) {
	forward := compareKeysOLC(from, to) < 0

	it := NewIterator(t)
	it.Seek(from, forward)

	for it.Valid() {
		key := it.Key()

		if forward {
			if compareKeysOLC(key, to) >= 0 {
				return
			}
		} else {
			if compareKeysOLC(key, to) <= 0 {
				return
			}
		}

		if fn(key, it.Value()) {
			return
		}

		var ok bool
		if forward {
			ok = it.Next()
		} else {
			ok = it.Prev()
		}

		if !ok {
			return
		}
	}
}
