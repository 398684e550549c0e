package art

// config holds the constructor knobs both Tree and ConcurrentTree accept.
// Neither variant needs anything beyond the zero value today, but the
// options slice is the idiomatic shape for a constructor that may grow
// more of them later without breaking callers.
type config struct {
	trackStats bool
}

// Option configures a Tree or ConcurrentTree at construction time.
type Option func(*config)

// WithStats enables the node-kind construction/grow/shrink counters
// exposed by Tree.Stats/ConcurrentTree.Stats. Off by default: the counters
// are cheap atomics, but a caller that never reads them shouldn't pay even
// that for nothing.
func WithStats() Option {
	return func(c *config) { c.trackStats = true }
}

func newConfig(opts []Option) config {
	var c config
	for _, opt := range opts {
		opt(&c)
	}

	return c
}
