package tree

import (
	"bytes"
	"math/rand"
	"sort"
	"testing"
)

// randomKeys returns n distinct random byte strings of varying length,
// seeded deterministically so a failure is reproducible.
func randomKeys(r *rand.Rand, n int) [][]byte {
	seen := make(map[string]bool, n)
	keys := make([][]byte, 0, n)

	for len(keys) < n {
		length := 1 + r.Intn(8)
		k := make([]byte, length)
		r.Read(k)

		if seen[string(k)] {
			continue
		}

		seen[string(k)] = true
		keys = append(keys, k)
	}

	return keys
}

// TestRandomInsertGetRoundTrips inserts a pseudo-random corpus of keys and
// checks every one is retrievable afterward with its inserted value, and
// that no key outside the corpus is reported present.
func TestRandomInsertGetRoundTrips(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	keys := randomKeys(r, 500)

	tr := New[int]()
	for i, k := range keys {
		if !tr.Insert(k, i) {
			t.Fatalf("insert of distinct key %x reported false", k)
		}
	}

	if tr.Count() != len(keys) {
		t.Fatalf("Count() = %d, want %d", tr.Count(), len(keys))
	}

	for i, k := range keys {
		v, found := tr.Get(k)
		if !found {
			t.Fatalf("key %x missing after insert", k)
		}

		if v != i {
			t.Fatalf("key %x has value %d, want %d", k, v, i)
		}
	}

	if _, found := tr.Get([]byte("definitely-absent-key")); found {
		t.Fatalf("absent key falsely reported present")
	}
}

// TestRandomScanMatchesSortedOrder checks that a forward Scan over a
// pseudo-random corpus visits keys in exactly the same order as sorting
// them with bytes.Compare.
func TestRandomScanMatchesSortedOrder(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	keys := randomKeys(r, 300)

	tr := New[int]()
	for i, k := range keys {
		if !tr.Insert(k, i) {
			t.Fatalf("insert of distinct key %x reported false", k)
		}
	}

	want := append([][]byte(nil), keys...)
	sort.Slice(want, func(i, j int) bool { return bytes.Compare(want[i], want[j]) < 0 })

	var got [][]byte
	tr.Scan(true, func(key []byte, _ int) bool {
		got = append(got, append([]byte(nil), key...))
		return false
	})

	if len(got) != len(want) {
		t.Fatalf("Scan visited %d keys, want %d", len(got), len(want))
	}

	for i := range want {
		if !bytes.Equal(got[i], want[i]) {
			t.Fatalf("Scan order mismatch at index %d: got %x, want %x", i, got[i], want[i])
		}
	}
}

// TestRandomInsertThenRemoveAllLeavesTreeEmpty inserts a pseudo-random
// corpus, removes every key in a different random order, and checks the
// tree is empty and every key reports absent.
func TestRandomInsertThenRemoveAllLeavesTreeEmpty(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	keys := randomKeys(r, 400)

	tr := New[int]()
	for i, k := range keys {
		if !tr.Insert(k, i) {
			t.Fatalf("insert of distinct key %x reported false", k)
		}
	}

	removeOrder := append([][]byte(nil), keys...)
	r.Shuffle(len(removeOrder), func(i, j int) {
		removeOrder[i], removeOrder[j] = removeOrder[j], removeOrder[i]
	})

	for _, k := range removeOrder {
		if !tr.Remove(k) {
			t.Fatalf("remove of present key %x reported false", k)
		}
	}

	if !tr.Empty() {
		t.Fatalf("tree not empty after removing every key, Count() = %d", tr.Count())
	}

	for _, k := range keys {
		if _, found := tr.Get(k); found {
			t.Fatalf("key %x still present after removal", k)
		}
	}
}
