// Package olc implements Optimistic Lock Coupling: a per-node,
// version-tagged lock that lets readers traverse without ever blocking a
// writer, at the cost of having to detect and restart on conflict.
//
// The lock word is a version-tagged atomic uint64, split into a read
// critical section value type and a write lock acquired by
// compare-and-swap, built on Go's sync/atomic.
package olc

import (
	"runtime"
	"sync/atomic"

	"github.com/go-art/unodb-go/internal/debug"
)

// Word is the version-tagged lock embedded in every node header (inner
// nodes and leaves alike, "for consistency").
//
// The low bit is the locked flag, set only while a writer holds exclusive
// access. The next bit is the obsolete flag, set by a writer just before
// releasing a node that has been logically unlinked from the tree; no
// reader may validate against a node once this bit is set. The remaining
// 62 bits are a monotonically increasing version counter that only ever
// advances while the locked bit transitions 1 -> 0.
//
// A zero Word is unlocked, not obsolete, at version 0, ready to use.
type Word struct {
	v atomic.Uint64
}

const (
	lockedBit   = uint64(1) << 0
	obsoleteBit = uint64(1) << 1
	versionStep = uint64(1) << 2
)

// ReadGuard is a snapshot of a Word taken at the start of a read critical
// section (RCS). It carries no lock: the reader never blocks a writer.
// Its zero value is invalid; obtain one from Word.BeginRead.
type ReadGuard struct {
	w   *Word
	tag uint64
}

// BeginRead starts a read critical section. ok is false if the node is
// currently write-locked; the caller must restart its whole operation in
// that case rather than spin here, since spinning belongs to the writer
// side only.
func (w *Word) BeginRead() (ReadGuard, bool) {
	tag := w.v.Load()
	if tag&lockedBit != 0 {
		return ReadGuard{}, false
	}

	return ReadGuard{w: w, tag: tag}, true
}

// Obsolete reports whether the node was already marked obsolete at the
// moment this RCS began. A reader that observes this should restart
// immediately rather than descend into the node at all.
func (g ReadGuard) Obsolete() bool {
	return g.tag&obsoleteBit != 0
}

// Validate re-reads the word and compares it against the snapshot taken
// by BeginRead. false means either a writer held the node at some point
// during the RCS, or the node has since become obsolete; in both cases the
// reader must discard anything it read under this guard and restart.
func (g ReadGuard) Validate() bool {
	if g.w == nil {
		return false
	}

	return g.w.v.Load() == g.tag
}

// WriteGuard is exclusive access to a node, acquired by Lock/TryLock. It
// must be released exactly once, by calling either Unlock (normal path) or
// UnlockObsolete (the node is being retired).
type WriteGuard struct {
	w *Word
}

// Lock acquires exclusive access, spinning on the version word's
// compare-and-swap until it succeeds, yielding the processor on repeated
// contention rather than blocking.
func (w *Word) Lock() WriteGuard {
	for {
		if g, ok := w.TryLock(); ok {
			return g
		}

		runtime.Gosched()
	}
}

// TryLock attempts to acquire exclusive access without spinning. ok is
// false if another writer currently holds the node or the node is already
// obsolete (a write onto an obsolete node is always a bug upstream, since
// obsolete nodes are never reachable from a valid traversal, but guarding
// here costs nothing).
func (w *Word) TryLock() (WriteGuard, bool) {
	cur := w.v.Load()
	if cur&(lockedBit|obsoleteBit) != 0 {
		return WriteGuard{}, false
	}

	if !w.v.CompareAndSwap(cur, cur|lockedBit) {
		return WriteGuard{}, false
	}

	return WriteGuard{w: w}, true
}

// LockFromRead upgrades a previously-taken ReadGuard to a WriteGuard
// without an intervening restart, provided the node has not changed since
// the RCS began. This is the "acquire, then upgrade" pattern structural
// modifications use when coupling a chain of locks (parent then node, or
// parent/node/surviving-child for an Inner4 collapse): each lock in the
// chain is upgraded from an RCS that was already validated as part of the
// normal read descent.
func (g ReadGuard) LockFromRead() (WriteGuard, bool) {
	if g.w == nil {
		return WriteGuard{}, false
	}

	if !g.w.v.CompareAndSwap(g.tag, g.tag|lockedBit) {
		return WriteGuard{}, false
	}

	return WriteGuard{w: g.w}, true
}

// Unlock releases the node normally: the version counter advances and the
// locked bit clears, so in-flight readers validating against the old
// snapshot will observe a changed word and restart.
func (g WriteGuard) Unlock() {
	debug.Assert(g.w != nil, "unlock of a zero WriteGuard")

	cur := g.w.v.Load()
	g.w.v.Store((cur &^ lockedBit) + versionStep)
}

// UnlockObsolete marks the node obsolete and releases it. No future
// ReadGuard will be able to validate against this node again; its storage
// may only be reclaimed once qsbr.Retire proves no reader can still
// observe it.
func (g WriteGuard) UnlockObsolete() {
	debug.Assert(g.w != nil, "unlock of a zero WriteGuard")

	cur := g.w.v.Load()
	g.w.v.Store(((cur &^ lockedBit) + versionStep) | obsoleteBit)
}
