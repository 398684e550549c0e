package qsbr

// globalState packs the epoch, the registered thread count, and the count
// of threads still in the previous epoch into one atomic word: the low
// bits hold threads-in-previous-epoch, the middle bits hold thread count,
// and the top two bits hold the epoch.
type globalState uint64

const (
	prevEpochBits    = 30
	threadCountBits  = 32
	prevEpochMask    = uint64(1)<<prevEpochBits - 1
	threadCountShift = prevEpochBits
	threadCountMask  = (uint64(1)<<threadCountBits - 1) << threadCountShift
	epochShift       = prevEpochBits + threadCountBits
)

// MaxThreads is the largest number of goroutines that may be registered
// simultaneously; overflow is not checked.
const MaxThreads = uint64(1)<<prevEpochBits - 1

func makeState(epoch Epoch, threadCount, prevEpochCount uint64) globalState {
	return globalState(uint64(epoch.Val())<<epochShift |
		(threadCount<<threadCountShift)&threadCountMask |
		prevEpochCount&prevEpochMask)
}

func (w globalState) epoch() Epoch {
	return NewEpoch(uint8(uint64(w) >> epochShift))
}

func (w globalState) threadCount() uint64 {
	return (uint64(w) & threadCountMask) >> threadCountShift
}

func (w globalState) prevEpochThreadCount() uint64 {
	return uint64(w) & prevEpochMask
}

func (w globalState) singleThreaded() bool {
	return w.threadCount() < 2
}

func (w globalState) incThreadCount() globalState {
	return makeState(w.epoch(), w.threadCount()+1, w.prevEpochThreadCount())
}

func (w globalState) decThreadCount() globalState {
	return makeState(w.epoch(), w.threadCount()-1, w.prevEpochThreadCount())
}

func (w globalState) incThreadCountAndPrevEpoch() globalState {
	return makeState(w.epoch(), w.threadCount()+1, w.prevEpochThreadCount()+1)
}

func (w globalState) decThreadCountAndPrevEpoch() globalState {
	return makeState(w.epoch(), w.threadCount()-1, w.prevEpochThreadCount()-1)
}

// decPrevEpoch decrements previous-epoch count, advancing the epoch and
// resetting previous-epoch count to the (unchanged) thread count when the
// decrement reaches zero with threads still registered. advanced reports
// whether this call performed the epoch advance.
func (w globalState) decPrevEpoch() (next globalState, advanced bool) {
	remaining := w.prevEpochThreadCount() - 1
	if remaining == 0 && w.threadCount() > 0 {
		return makeState(w.epoch().Advance(1), w.threadCount(), w.threadCount()), true
	}

	return makeState(w.epoch(), w.threadCount(), remaining), false
}

// decThreadCountAndPrevEpochMaybeAdvance is the unregister-time combined
// decrement: it may itself trigger an epoch change if this thread is also
// the last one outstanding in the previous epoch.
func (w globalState) decThreadCountAndPrevEpochMaybeAdvance() (next globalState, advanced bool) {
	remaining := w.prevEpochThreadCount() - 1
	newThreadCount := w.threadCount() - 1

	if remaining == 0 && newThreadCount > 0 {
		return makeState(w.epoch().Advance(1), newThreadCount, newThreadCount), true
	}

	return makeState(w.epoch(), newThreadCount, remaining), false
}
