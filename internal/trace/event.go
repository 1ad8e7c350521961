package trace

import "time"

// Kind represents the type of trace event.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	// KindPoint - мгновенное событие без длительности
	KindPoint
)

func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	default:
		return "unknown"
	}
}

// Scope indicates the granularity of the event. Lower values are coarser.
type Scope uint8

const (
	// ScopeRun is one CLI invocation.
	ScopeRun Scope = iota + 1
	// ScopePass is a pass over all targets: discover, lint, fix, report.
	ScopePass
	// ScopeFile is the work on one file.
	ScopeFile
	// ScopeStage is a stage inside a file: lex, parse, cops.
	ScopeStage
)

func (s Scope) String() string {
	switch s {
	case ScopeRun:
		return "run"
	case ScopePass:
		return "pass"
	case ScopeFile:
		return "file"
	case ScopeStage:
		return "stage"
	default:
		return "unknown"
	}
}

// Event represents a single trace event.
type Event struct {
	Time     time.Time
	Seq      uint64 // глобальный монотонный номер
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64 // 0 for roots
	GID      uint64 // goroutine that emitted the event
	Name     string // "lint", "parse", "app/models/user.rb"
	File     string // Ruby file of the enclosing file span
	Detail   string
	Extra    map[string]string
}
