package main

import (
	"fmt"
	"io"

	"rbsec/internal/observ"
)

// printTimings writes the timer table when --timings is on.
func (g *globals) printTimings(w io.Writer, timer *observ.Timer) {
	if !g.timings || timer == nil {
		return
	}
	fmt.Fprint(w, timer.Summary())
}

// timed runs fn as one phase of a fresh timer when --timings is on.
func (g *globals) timed(name string, fn func() string) *observ.Timer {
	if !g.timings {
		fn()
		return nil
	}
	timer := observ.NewTimer()
	idx := timer.Begin(name)
	note := fn()
	timer.End(idx, note)
	return timer
}
