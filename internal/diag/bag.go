package diag

import (
	"fmt"
	"sort"
)

// Bag collects diagnostics up to a fixed limit. A Bag is owned by one
// goroutine; merge per-file bags after the fan-in.
type Bag struct {
	items   []Diagnostic
	max     int
	dropped int
}

// NewBag creates a bag holding at most max diagnostics; max <= 0 means no limit.
func NewBag(max int) *Bag {
	c := max
	if c <= 0 || c > 64 {
		c = 64
	}
	return &Bag{
		items: make([]Diagnostic, 0, c),
		max:   max,
	}
}

// Add добавляет диагностику, учитывая лимит.
// Возвращает false, если диагностика не добавлена (достигнут лимит).
func (b *Bag) Add(d Diagnostic) bool {
	if b.max > 0 && len(b.items) >= b.max {
		b.dropped++
		return false
	}
	b.items = append(b.items, d)
	return true
}

func (b *Bag) Cap() int {
	return b.max
}

// Dropped reports how many diagnostics were rejected by the limit.
func (b *Bag) Dropped() int {
	return b.dropped
}

func (b *Bag) HasErrors() bool {
	return b.HasAtLeast(SevError)
}

func (b *Bag) HasWarnings() bool {
	return b.HasAtLeast(SevWarning)
}

// HasAtLeast reports whether any diagnostic has severity >= sev.
func (b *Bag) HasAtLeast(sev Severity) bool {
	for i := range b.items {
		if b.items[i].Severity >= sev {
			return true
		}
	}
	return false
}

func (b *Bag) Len() int {
	return len(b.items)
}

// Items возвращает read-only slice диагностик.
// ВАЖНО: не модифицируйте возвращаемый срез!
func (b *Bag) Items() []Diagnostic {
	return b.items
}

// Merge appends other's diagnostics; the limit is raised to fit them.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	if b.max > 0 && len(b.items)+len(other.items) > b.max {
		b.max = len(b.items) + len(other.items)
	}
	b.items = append(b.items, other.items...)
	b.dropped += other.dropped
}

// Filter keeps diagnostics for which keep returns true.
func (b *Bag) Filter(keep func(Diagnostic) bool) {
	out := b.items[:0]
	for _, d := range b.items {
		if keep(d) {
			out = append(out, d)
		}
	}
	b.items = out
}

// Transform rewrites every diagnostic in place.
func (b *Bag) Transform(fn func(Diagnostic) Diagnostic) {
	for i := range b.items {
		b.items[i] = fn(b.items[i])
	}
}

// Sort orders by file, start, end, severity (desc), code, rule.
func (b *Bag) Sort() {
	sort.SliceStable(b.items, func(i, j int) bool {
		di, dj := b.items[i], b.items[j]
		if di.Primary.File != dj.Primary.File {
			return di.Primary.File < dj.Primary.File
		}
		if di.Primary.Start != dj.Primary.Start {
			return di.Primary.Start < dj.Primary.Start
		}
		if di.Primary.End != dj.Primary.End {
			return di.Primary.End < dj.Primary.End
		}
		if di.Severity != dj.Severity {
			return di.Severity > dj.Severity
		}
		if di.Code != dj.Code {
			return di.Code < dj.Code
		}
		return di.Rule < dj.Rule
	})
}

// Dedup drops repeats of the same code, rule and primary span.
func (b *Bag) Dedup() {
	seen := make(map[string]bool)
	newitems := make([]Diagnostic, 0, len(b.items))
	for _, d := range b.items {
		key := fmt.Sprintf("%d:%s:%s", d.Code, d.Rule, d.Primary.String())
		if seen[key] {
			continue
		}
		seen[key] = true
		newitems = append(newitems, d)
	}
	b.items = newitems
}

// CountBySeverity returns counts indexed by Severity.
func (b *Bag) CountBySeverity() [3]int {
	var out [3]int
	for _, d := range b.items {
		if int(d.Severity) < len(out) {
			out[d.Severity]++
		}
	}
	return out
}
