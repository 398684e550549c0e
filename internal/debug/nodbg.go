//go:build !debug

package debug

// Enabled is true only when this module is built with the debug tag.
const Enabled = false

// Log is a no-op in release builds.
func Log(operation, format string, args ...any) {}

// Assert is a no-op in release builds.
//
// The preconditions asserted in internal/node and internal/olc are only
// checked when built with -tags debug.
func Assert(cond bool, format string, args ...any) {}
