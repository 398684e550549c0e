package qsbr

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSingleThreadedRetireRunsInline(t *testing.T) {
	q := New()
	q.RegisterThisThread()
	defer q.UnregisterThisThread()

	ran := false
	q.Retire(func() { ran = true })

	assert.True(t, ran, "with fewer than two registered threads, Retire must run fn immediately")
}

func TestRegisterUnregisterUpdatesThreadCount(t *testing.T) {
	q := New()
	assert.Equal(t, uint64(0), q.ThreadCount())

	q.RegisterThisThread()
	assert.Equal(t, uint64(1), q.ThreadCount())

	q.RegisterThisThread() // idempotent
	assert.Equal(t, uint64(1), q.ThreadCount())

	q.UnregisterThisThread()
	assert.Equal(t, uint64(0), q.ThreadCount())
}

func TestPauseResumeRoundTrips(t *testing.T) {
	q := New()
	q.RegisterThisThread()
	defer q.UnregisterThisThread()

	q.Pause()
	assert.Equal(t, uint64(0), q.ThreadCount())

	q.Resume()
	assert.Equal(t, uint64(1), q.ThreadCount())
}

// TestRetireAcrossTwoThreadsDelaysUntilQuiescence registers two goroutines,
// has one retire a callback while the other is still mid-traversal, and
// checks the callback has not run until both have reported a quiescent
// state in a later epoch.
func TestRetireAcrossTwoThreadsDelaysUntilQuiescence(t *testing.T) {
	q := New()

	readerInCS := make(chan struct{})
	releaseReader := make(chan struct{})
	readerDone := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()

		q.RegisterThisThread()

		close(readerInCS)
		<-releaseReader
		q.QuiescentState()
		q.UnregisterThisThread()
		close(readerDone)
	}()

	<-readerInCS

	q.RegisterThisThread()
	defer q.UnregisterThisThread()

	require.Equal(t, uint64(2), q.ThreadCount())

	var ran bool
	q.Retire(func() { ran = true })

	// The writer's own quiescent state alone cannot drain the queue while
	// the reader (registered in the same epoch) has not yet reported one.
	q.QuiescentState()
	assert.False(t, ran, "retired callback must wait for every registered thread to quiesce")

	close(releaseReader)
	<-readerDone

	// With the reader quiesced and unregistered, each further writer
	// quiescent state advances the epoch: the first rotates the queue into
	// the previous interval, the second runs it.
	q.QuiescentState()
	q.QuiescentState()

	assert.True(t, ran, "callback must eventually run once all threads have quiesced")
}

func TestUnregisterOrphansPendingDeallocs(t *testing.T) {
	q := New()

	// Registered first so the goroutine below sees two threads and Retire
	// queues fn instead of running it inline under the single-thread
	// optimization.
	q.RegisterThisThread()
	defer q.UnregisterThisThread()

	done := make(chan struct{})
	var ran bool

	go func() {
		defer close(done)

		q.RegisterThisThread()
		q.Retire(func() { ran = true })
		q.UnregisterThisThread() // exits without ever quiescing
	}()
	<-done

	// The orphaned request drains across the next two epoch advances on the
	// lone remaining thread: the first folds it into the orphan list's
	// previous interval, the second runs it.
	q.QuiescentState()
	q.QuiescentState()

	assert.True(t, ran, "an orphaned retire request must still eventually run")
}

func TestStatsCountRegistrations(t *testing.T) {
	q := New()
	q.RegisterThisThread()
	q.UnregisterThisThread()

	s := q.Stats()
	assert.Equal(t, uint64(1), s.Registers())
	assert.Equal(t, uint64(1), s.Unregisters())
}
