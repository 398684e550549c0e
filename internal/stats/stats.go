// Package stats holds the optional node-kind counters a Tree or
// ConcurrentTree can track: how many of each shape exist, how often each
// promoted or demoted, and how many times a key-prefix split materialized
// a new Inner4. All counters are plain relaxed atomics; nothing here
// coordinates with the tree's own locking.
package stats

import "sync/atomic"

// Counters is one tree's set of node-kind statistics. A nil *Counters is
// valid everywhere a method is called on it: every method is a no-op on a
// nil receiver, so trees that were not constructed with WithStats pay
// nothing beyond a nil check.
type Counters struct {
	leaves, node4, node16, node48, node256 atomic.Int64

	promoteTo16, promoteTo48, promoteTo256 atomic.Int64
	shrinkTo4, shrinkTo16, shrinkTo48      atomic.Int64

	prefixSplits atomic.Int64
}

// New returns a ready-to-use, zeroed Counters.
func New() *Counters { return &Counters{} }

func (c *Counters) NoteLeaf() {
	if c == nil {
		return
	}

	c.leaves.Add(1)
}

func (c *Counters) NoteNode4() {
	if c == nil {
		return
	}

	c.node4.Add(1)
}

// NotePromote records a promotion landing on the given next-size kind
// (16, 48, or 256).
func (c *Counters) NotePromote(toCapacity int) {
	if c == nil {
		return
	}

	switch toCapacity {
	case 16:
		c.node16.Add(1)
		c.promoteTo16.Add(1)
	case 48:
		c.node48.Add(1)
		c.promoteTo48.Add(1)
	case 256:
		c.node256.Add(1)
		c.promoteTo256.Add(1)
	}
}

// NoteShrink records a demotion landing on the given smaller-size kind
// (4, 16, or 48).
func (c *Counters) NoteShrink(toCapacity int) {
	if c == nil {
		return
	}

	switch toCapacity {
	case 4:
		c.shrinkTo4.Add(1)
	case 16:
		c.shrinkTo16.Add(1)
	case 48:
		c.shrinkTo48.Add(1)
	}
}

func (c *Counters) NotePrefixSplit() {
	if c == nil {
		return
	}

	c.prefixSplits.Add(1)
}

// Snapshot is a point-in-time copy of Counters, safe to read without races
// since every field was loaded through an atomic.
type Snapshot struct {
	Leaves, Node4, Node16, Node48, Node256 int64

	PromoteToNode16, PromoteToNode48, PromoteToNode256 int64
	ShrinkToNode4, ShrinkToNode16, ShrinkToNode48       int64

	PrefixSplits int64
}

// Snapshot copies out the current counter values. A nil receiver returns
// the zero Snapshot.
func (c *Counters) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}

	return Snapshot{
		Leaves:  c.leaves.Load(),
		Node4:   c.node4.Load(),
		Node16:  c.node16.Load(),
		Node48:  c.node48.Load(),
		Node256: c.node256.Load(),

		PromoteToNode16:  c.promoteTo16.Load(),
		PromoteToNode48:  c.promoteTo48.Load(),
		PromoteToNode256: c.promoteTo256.Load(),

		ShrinkToNode4:  c.shrinkTo4.Load(),
		ShrinkToNode16: c.shrinkTo16.Load(),
		ShrinkToNode48: c.shrinkTo48.Load(),

		PrefixSplits: c.prefixSplits.Load(),
	}
}
