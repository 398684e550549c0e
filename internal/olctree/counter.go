package olctree

import "sync/atomic"

// atomicCounter is a relaxed key-count estimate, incremented/decremented
// outside of any node's optimistic lock.
type atomicCounter struct {
	v atomic.Int64
}

func (c *atomicCounter) inc()      { c.v.Add(1) }
func (c *atomicCounter) dec()      { c.v.Add(-1) }
func (c *atomicCounter) load() int { return int(c.v.Load()) }
func (c *atomicCounter) reset()    { c.v.Store(0) }
