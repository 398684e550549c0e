package qsbr

import "sync/atomic"

// Stats holds simple running counters for a QSBR domain: registration and
// unregistration counts, and the number of epoch advances observed.
type Stats struct {
	registers    atomic.Uint64
	unregisters  atomic.Uint64
	epochChanges atomic.Uint64
}

func (s *Stats) noteRegister()   { s.registers.Add(1) }
func (s *Stats) noteUnregister() { s.unregisters.Add(1) }
func (s *Stats) noteEpochChange() { s.epochChanges.Add(1) }

// Registers returns the total number of RegisterThisThread calls observed.
func (s *Stats) Registers() uint64 { return s.registers.Load() }

// Unregisters returns the total number of UnregisterThisThread calls
// observed.
func (s *Stats) Unregisters() uint64 { return s.unregisters.Load() }

// EpochChanges returns the total number of epoch advances observed.
func (s *Stats) EpochChanges() uint64 { return s.epochChanges.Load() }

// Stats returns this domain's live counters; later events keep updating
// the returned value.
func (q *QSBR) Stats() *Stats { return &q.stats }
