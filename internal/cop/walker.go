package cop

import (
	"fmt"

	"rbsec/internal/ast"
	"rbsec/internal/diag"
)

// Stats counts what one Walker pass did.
type Stats struct {
	Calls    int
	Offenses int
	// Panics lists cops that panicked, as "name: value"; each panic
	// dropped the offenses of that cop for that call.
	Panics []string
}

// Walker runs every enabled cop over every call of a file.
type Walker struct {
	reg      *Registry
	settings Settings
}

func NewWalker(reg *Registry, settings Settings) *Walker {
	return &Walker{reg: reg, settings: settings}
}

// Run visits every call node of file once and hands it to each enabled
// cop. Offenses become diagnostics on out with Rule set to the cop name.
func (w *Walker) Run(b *ast.Builder, file ast.FileID, out diag.Reporter) Stats {
	var stats Stats
	cops := w.enabled()
	if len(cops) == 0 {
		return stats
	}
	ast.Inspect(b, file, func(id ast.ExprID) bool {
		site, ok := Adapt(b, id)
		if !ok {
			return true
		}
		stats.Calls++
		for _, c := range cops {
			buf, err := w.check(c, site)
			if err != nil {
				stats.Panics = append(stats.Panics, fmt.Sprintf("%s: %v", c.Name(), err))
				continue
			}
			rep := &diagReporter{rule: c.Name(), out: out}
			for _, o := range buf.offenses {
				rep.Offense(o)
			}
			stats.Offenses += rep.n
		}
		return true
	})
	return stats
}

func (w *Walker) enabled() []Cop {
	var out []Cop
	for _, c := range w.reg.Cops() {
		if w.settings.Enabled(c.Name()) {
			out = append(out, c)
		}
	}
	return out
}

type bufferReporter struct {
	offenses []Offense
}

func (r *bufferReporter) Offense(o Offense) {
	r.offenses = append(r.offenses, o)
}

// check runs one cop on one site. A panic becomes an error and the
// offenses buffered so far are discarded.
func (w *Walker) check(c Cop, site CallSite) (buf *bufferReporter, err error) {
	buf = &bufferReporter{}
	defer func() {
		if r := recover(); r != nil {
			buf = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	c.Check(site, w.settings[c.Name()], buf)
	return buf, nil
}
