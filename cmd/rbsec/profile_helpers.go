package main

import (
	"fmt"
	"io"

	"rbsec/internal/prof"
)

// setupProfiling enables the profilers named by the persistent flags.
func (g *globals) setupProfiling() error {
	if g.profile == (prof.Options{}) {
		return nil
	}
	session, err := prof.Start(g.profile)
	if err != nil {
		return err
	}
	g.cleanup = append(g.cleanup, func(stderr io.Writer) {
		if err := session.Stop(); err != nil {
			fmt.Fprintf(stderr, "profile: %v\n", err)
		}
	})
	return nil
}
