//go:build debug

// Package debug holds the assertion and tracing helpers shared by every
// package in this module. It compiles to no-ops unless the module is built
// with -tags debug, so the checks below never cost anything in a release
// build.
package debug

import (
	"fmt"
	"os"

	"github.com/timandy/routine"
)

// Enabled is true when this module is built with the debug tag.
const Enabled = true

// Log prints a goroutine-tagged trace line to stderr.
//
// operation names the step being traced (e.g. "insert", "olc.write-guard");
// format/args are passed to fmt.Fprintf.
func Log(operation, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(os.Stderr, "[g%d] %s: %s\n", routine.Goid(), operation, msg)
}

// Assert panics if cond is false.
//
// Every per-kind node precondition (node not full, node not at minimum,
// child present, ref must be a node, ...) is checked this way rather than
// with a hand-rolled if/panic at each call site.
func Assert(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("art: assertion failed: "+format, args...))
	}
}
