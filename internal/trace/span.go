package trace

import (
	"bytes"
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"
)

var (
	globalSeq   uint64
	globalSpans uint64
)

// NextSeq returns a monotonically increasing sequence number.
func NextSeq() uint64 {
	return atomic.AddUint64(&globalSeq, 1)
}

// NextSpanID returns a unique span ID.
func NextSpanID() uint64 {
	return atomic.AddUint64(&globalSpans, 1)
}

// getGoroutineID читает номер горутины из заголовка runtime.Stack:
// "goroutine 123 [running]:".
func getGoroutineID() uint64 {
	var buf [64]byte
	line := buf[:runtime.Stack(buf[:], false)]
	const prefix = "goroutine "
	if !bytes.HasPrefix(line, []byte(prefix)) {
		return 0
	}
	line = line[len(prefix):]
	end := bytes.IndexByte(line, ' ')
	if end < 0 {
		return 0
	}
	gid, err := strconv.ParseUint(string(line[:end]), 10, 64)
	if err != nil {
		return 0
	}
	return gid
}

// Span tracks one begin/end pair.
type Span struct {
	tracer   Tracer
	id       uint64
	parentID uint64
	gid      uint64
	scope    Scope
	name     string
	file     string
	started  time.Time
	extra    map[string]string
}

// begin starts a span under parent (0 for a root). Spans of scopes the
// tracer level does not record are inert.
func begin(t Tracer, scope Scope, name string, parent uint64, file string) *Span {
	if t == nil || !t.Enabled() || !t.Level().ShouldEmit(scope) {
		return &Span{tracer: Nop}
	}
	s := &Span{
		tracer:   t,
		id:       NextSpanID(),
		parentID: parent,
		gid:      getGoroutineID(),
		scope:    scope,
		name:     name,
		file:     file,
		started:  time.Now(),
	}
	t.Emit(&Event{
		Time:     s.started,
		Seq:      NextSeq(),
		Kind:     KindSpanBegin,
		Scope:    scope,
		SpanID:   s.id,
		ParentID: parent,
		GID:      s.gid,
		Name:     name,
		File:     file,
	})
	return s
}

// Start begins a span with the tracer, parent span and file found in ctx and
// returns a context carrying the new span. For ScopeFile the name is the
// file path.
func Start(ctx context.Context, scope Scope, name string) (*Span, context.Context) {
	f := frameOf(ctx)
	if !f.tracer.Enabled() {
		return &Span{tracer: Nop}, ctx
	}
	file := f.file
	if scope == ScopeFile {
		file = name
	}
	s := begin(f.tracer, scope, name, f.span, file)
	return s, enter(ctx, scope, name, s.id)
}

// End emits the end event and returns the span duration.
func (s *Span) End(detail string) time.Duration {
	if s == nil || s.tracer == nil || !s.tracer.Enabled() {
		return 0
	}
	dur := time.Since(s.started)
	s.tracer.Emit(&Event{
		Time:     time.Now(),
		Seq:      NextSeq(),
		Kind:     KindSpanEnd,
		Scope:    s.scope,
		SpanID:   s.id,
		ParentID: s.parentID,
		GID:      s.gid,
		Name:     s.name,
		File:     s.file,
		Detail:   detail,
		Extra:    s.extra,
	})
	return dur
}

// WithExtra adds a key-value pair to the end event.
func (s *Span) WithExtra(key, value string) *Span {
	if s == nil || s.tracer == nil || !s.tracer.Enabled() {
		return s
	}
	if s.extra == nil {
		s.extra = make(map[string]string)
	}
	s.extra[key] = value
	return s
}

func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}

// Point emits an instant event under the current span of ctx.
func Point(ctx context.Context, scope Scope, name, detail string) {
	f := frameOf(ctx)
	if !f.tracer.Enabled() || !f.tracer.Level().ShouldEmit(scope) {
		return
	}
	f.tracer.Emit(&Event{
		Time:     time.Now(),
		Seq:      NextSeq(),
		Kind:     KindPoint,
		Scope:    scope,
		ParentID: f.span,
		GID:      getGoroutineID(),
		Name:     name,
		File:     f.file,
		Detail:   detail,
	})
}

// Errorf records a failure. It is emitted at every level except off and
// names the file being linted when ctx is inside a file span.
func Errorf(ctx context.Context, name, format string, args ...any) {
	f := frameOf(ctx)
	if !f.tracer.Enabled() {
		return
	}
	f.tracer.Emit(&Event{
		Time:     time.Now(),
		Seq:      NextSeq(),
		Kind:     KindPoint,
		Scope:    ScopeRun,
		ParentID: f.span,
		GID:      getGoroutineID(),
		Name:     name,
		File:     f.file,
		Detail:   fmt.Sprintf(format, args...),
	})
}
