package qsbr

import (
	"sync"
	"sync/atomic"

	"github.com/timandy/routine"
)

// DeallocRequest is one queued reclamation: the callback that actually
// frees the node, deferred until QSBR proves no reader can still observe
// it.
type DeallocRequest func()

// participant is one goroutine's QSBR bookkeeping. Published through a
// routine.ThreadLocal so each goroutine reaches its own record without a
// lookup keyed by goroutine ID.
type participant struct {
	mu sync.Mutex

	previousRequests []DeallocRequest
	currentRequests  []DeallocRequest

	lastSeenEpoch          Epoch
	lastSeenQuiescentEpoch Epoch
	hasSeenQuiescent       bool

	paused bool
}

// QSBR is one reclamation domain. The zero value is not usable; construct
// with New.
type QSBR struct {
	state atomic.Uint64

	local routine.ThreadLocal

	orphanMu             sync.Mutex
	orphanedPrevious     []DeallocRequest
	orphanedCurrent      []DeallocRequest
	haveOrphanedDeallocs bool

	stats Stats
}

// New returns an empty QSBR domain with no registered goroutines.
func New() *QSBR {
	q := &QSBR{local: routine.NewThreadLocal()}
	q.state.Store(uint64(makeState(NewEpoch(0), 0, 0)))

	return q
}

func (q *QSBR) loadState() globalState { return globalState(q.state.Load()) }

func (q *QSBR) current() *participant {
	v := q.local.Get()
	if v == nil {
		return nil
	}

	return v.(*participant)
}

// RegisterThisThread makes the calling goroutine a QSBR participant. It is
// idempotent: calling it again while already registered is a no-op.
func (q *QSBR) RegisterThisThread() {
	if q.current() != nil {
		return
	}

	for {
		cur := q.loadState()
		next := cur.incThreadCountAndPrevEpoch()

		if q.state.CompareAndSwap(uint64(cur), uint64(next)) {
			p := &participant{lastSeenEpoch: next.epoch()}
			q.local.Set(p)
			q.stats.noteRegister()

			return
		}
	}
}

// UnregisterThisThread retires the calling goroutine's participation.
// Non-empty queues are handed to the orphan lists so a later epoch change
// still drains them.
func (q *QSBR) UnregisterThisThread() {
	p := q.current()
	if p == nil {
		return
	}

	p.mu.Lock()
	prevReqs := p.previousRequests
	curReqs := p.currentRequests
	lastSeen := p.lastSeenEpoch
	p.mu.Unlock()

	if len(prevReqs) > 0 || len(curReqs) > 0 {
		q.orphan(prevReqs, curReqs, lastSeen)
	}

	for {
		cur := q.loadState()

		var next globalState
		var advanced bool

		if cur.epoch().Equal(lastSeen) {
			next, advanced = cur.decThreadCountAndPrevEpochMaybeAdvance()
		} else {
			next = cur.decThreadCount()
		}

		if q.state.CompareAndSwap(uint64(cur), uint64(next)) {
			if advanced {
				q.onEpochAdvance()
			}

			q.local.Remove()
			q.stats.noteUnregister()

			return
		}
	}
}

// orphan moves a departing goroutine's queues to the global orphan lists,
// tagged by the epoch they were last rotated under.
func (q *QSBR) orphan(prevReqs, curReqs []DeallocRequest, _ Epoch) {
	q.orphanMu.Lock()
	defer q.orphanMu.Unlock()

	q.orphanedPrevious = append(q.orphanedPrevious, prevReqs...)
	q.orphanedCurrent = append(q.orphanedCurrent, curReqs...)
	q.haveOrphanedDeallocs = true
}

// takeOrphaned drains the orphan lists, returning what had accumulated.
func (q *QSBR) takeOrphaned() (prevReqs, curReqs []DeallocRequest) {
	q.orphanMu.Lock()
	defer q.orphanMu.Unlock()

	if !q.haveOrphanedDeallocs {
		return nil, nil
	}

	prevReqs, curReqs = q.orphanedPrevious, q.orphanedCurrent
	q.orphanedPrevious, q.orphanedCurrent = nil, nil
	q.haveOrphanedDeallocs = false

	return prevReqs, curReqs
}

// Retire enqueues fn to run once no reader can still observe the node it
// reclaims. Under the single-thread optimization it runs immediately.
func (q *QSBR) Retire(fn DeallocRequest) {
	if q.loadState().singleThreaded() {
		fn()

		return
	}

	p := q.current()
	if p == nil {
		// Not registered: nobody else can be relying on epoch ordering for
		// this goroutine's writes, but the node may still be visible to
		// registered readers. Hand it to the orphan lists so it still waits
		// for later epoch changes rather than freeing inline.
		q.orphan(nil, []DeallocRequest{fn}, q.loadState().epoch())

		return
	}

	p.mu.Lock()
	p.currentRequests = append(p.currentRequests, fn)
	p.mu.Unlock()
}

// QuiescentState reports that the calling goroutine currently holds no
// references into any QSBR-managed structure. This is where per-thread
// interval queues rotate and, if this goroutine is the last one outstanding
// in the previous epoch, the global epoch advances.
func (q *QSBR) QuiescentState() {
	p := q.current()
	if p == nil {
		return
	}

	cur := q.loadState()
	creditedEpoch := cur.epoch()

	if !p.hasSeenQuiescent || !p.lastSeenQuiescentEpoch.Equal(cur.epoch()) {
		for {
			cur = q.loadState()
			creditedEpoch = cur.epoch()

			next, advanced := cur.decPrevEpoch()
			if q.state.CompareAndSwap(uint64(cur), uint64(next)) {
				if advanced {
					q.onEpochAdvance()
				}

				break
			}
		}
	}

	// Credit this call against the epoch it actually decremented
	// prevEpochThreadCount for, not whatever epoch is current after a
	// possible advance: a thread that triggers the advance has not yet
	// reported quiescence in the new epoch itself.
	p.lastSeenQuiescentEpoch = creditedEpoch
	p.hasSeenQuiescent = true

	q.rotateIfNewEpoch(p)
}

// onEpochAdvance does not run any participant's queued deallocations
// directly: each rotates lazily, the next time it observes the new epoch.
// What it does drain is whatever orphan lists accumulated from threads that
// have since exited.
func (q *QSBR) onEpochAdvance() {
	q.stats.noteEpochChange()

	prevReqs, curReqs := q.takeOrphaned()

	for _, fn := range prevReqs {
		fn()
	}

	// Orphaned current-interval requests become this epoch's previous
	// interval; stash them back so the next advance drains them.
	if len(curReqs) > 0 {
		q.orphanMu.Lock()
		q.orphanedPrevious = append(q.orphanedPrevious, curReqs...)
		q.haveOrphanedDeallocs = true
		q.orphanMu.Unlock()
	}
}

// rotateIfNewEpoch drains p's previous-interval queue and rotates
// current-interval into previous-interval once p observes that the global
// epoch has moved past what it last rotated for.
func (q *QSBR) rotateIfNewEpoch(p *participant) {
	epoch := q.loadState().epoch()

	p.mu.Lock()
	defer p.mu.Unlock()

	if epoch.Equal(p.lastSeenEpoch) {
		return
	}

	for _, fn := range p.previousRequests {
		fn()
	}

	p.previousRequests = p.currentRequests
	p.currentRequests = nil
	p.lastSeenEpoch = epoch
}

// Pause withdraws the calling goroutine from epoch accounting for a long
// blocking section, equivalent to an unregister whose later Resume acts as
// a fresh register.
func (q *QSBR) Pause() {
	p := q.current()
	if p == nil || p.paused {
		return
	}

	p.paused = true
	q.UnregisterThisThread()
	q.local.Set(p)
}

// Resume re-registers a goroutine that called Pause.
func (q *QSBR) Resume() {
	p := q.current()
	if p == nil || !p.paused {
		return
	}

	p.paused = false
	q.local.Remove()
	q.RegisterThisThread()
}

// Guard calls QuiescentState on Close, for wrapping a single public tree
// operation.
type Guard struct {
	q *QSBR
}

// NewGuard begins a scope that reports quiescence on Close.
func (q *QSBR) NewGuard() Guard { return Guard{q: q} }

// Close reports the calling goroutine as quiescent.
func (g Guard) Close() { g.q.QuiescentState() }

// ThreadCount returns the number of currently registered goroutines.
func (q *QSBR) ThreadCount() uint64 { return q.loadState().threadCount() }

// CurrentEpoch returns the domain's current epoch.
func (q *QSBR) CurrentEpoch() Epoch { return q.loadState().epoch() }

// SingleThreaded reports whether fewer than two goroutines are registered.
func (q *QSBR) SingleThreaded() bool { return q.loadState().singleThreaded() }
