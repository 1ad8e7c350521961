package cop

import (
	"rbsec/internal/source"
)

type ReceiverKind uint8

const (
	// ReceiverNone - вызов без получателя: open(x)
	ReceiverNone ReceiverKind = iota
	// ReceiverConst - константа: Kernel.open(x), ::Kernel.open(x), A::B.open(x)
	ReceiverConst
	// ReceiverOther - любое другое выражение: obj.open(x), self.open(x)
	ReceiverOther
)

// Receiver describes what a method is called on. Name is the full constant
// path without a leading "::" ("Kernel", "Foo::Bar") and is empty for
// ReceiverNone and ReceiverOther.
type Receiver struct {
	Kind     ReceiverKind
	Name     string
	TopLevel bool
	Span     source.Span
}

// Is reports whether the receiver is exactly the constant name. Name is
// stored without a leading "::", so ::Kernel and Kernel both match;
// TopLevel records which form was written.
func (r Receiver) Is(name string) bool {
	return r.Kind == ReceiverConst && r.Name == name
}

type SegmentKind uint8

const (
	SegmentText SegmentKind = iota
	SegmentInterpolation
)

// Segment is one left-to-right piece of a string argument.
type Segment struct {
	Kind SegmentKind
	Text string // SegmentText only
	Span source.Span
}

type ArgumentKind uint8

const (
	// ArgString - строковый литерал, разбитый на сегменты
	ArgString ArgumentKind = iota
	// ArgConcat - "literal" + expr; Segments holds the left literal followed
	// by one interpolation standing for the right operand
	ArgConcat
	// ArgOther - всё остальное
	ArgOther
)

// Argument is the closed view of one call argument that cops inspect.
type Argument struct {
	Kind     ArgumentKind
	Segments []Segment
	Span     source.Span
}

// CallSite is a method call as cops see it. The AST adapter in this package
// is its only producer; cops never touch syntax nodes directly.
type CallSite struct {
	File     source.FileID
	Receiver Receiver
	SafeNav  bool
	Method   string
	NameSpan source.Span
	Span     source.Span
	Args     []Argument
}
