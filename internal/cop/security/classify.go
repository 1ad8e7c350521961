package security

import (
	"strings"

	"rbsec/internal/cop"
)

// Shape is the classification of the first argument of an open call.
type Shape uint8

const (
	// NoArgument - open без аргументов
	NoArgument Shape = iota
	// DynamicArgument - anything that is not a string literal
	DynamicArgument
	// PipePrefixedLiteral - literal text starting with "|"
	PipePrefixedLiteral
	// SafeLiteral - one literal text run not starting with "|"
	SafeLiteral
	// PrefixedInterpolated - literal text, then at least one "#{...}"
	PrefixedInterpolated
	// UnprefixedInterpolated - the string starts with a "#{...}"
	UnprefixedInterpolated
	// EmptyLiteral - "" has no prefix that could make it safe
	EmptyLiteral
)

var shapeNames = [...]string{
	NoArgument:             "NoArgument",
	DynamicArgument:        "DynamicArgument",
	PipePrefixedLiteral:    "PipePrefixedLiteral",
	SafeLiteral:            "SafeLiteral",
	PrefixedInterpolated:   "PrefixedInterpolated",
	UnprefixedInterpolated: "UnprefixedInterpolated",
	EmptyLiteral:           "EmptyLiteral",
}

func (s Shape) String() string {
	if int(s) < len(shapeNames) {
		return shapeNames[s]
	}
	return "Shape(?)"
}

// Classify sorts the first argument of args. Later arguments are ignored.
// A "literal" + expr argument counts as a string only when allowConcat is
// set; any shape the classifier does not know is dynamic.
func Classify(args []cop.Argument, allowConcat bool) Shape {
	if len(args) == 0 {
		return NoArgument
	}
	first := args[0]
	switch first.Kind {
	case cop.ArgString:
	case cop.ArgConcat:
		if !allowConcat {
			return DynamicArgument
		}
	default:
		return DynamicArgument
	}
	return classifySegments(first.Segments)
}

func classifySegments(segs []cop.Segment) Shape {
	segs = dropEmptyPrefix(segs)
	if len(segs) == 0 {
		return EmptyLiteral
	}
	head := segs[0]
	if head.Kind == cop.SegmentInterpolation {
		return UnprefixedInterpolated
	}
	if strings.HasPrefix(head.Text, "|") {
		return PipePrefixedLiteral
	}
	for _, s := range segs[1:] {
		if s.Kind == cop.SegmentInterpolation {
			return PrefixedInterpolated
		}
	}
	return SafeLiteral
}

// dropEmptyPrefix убирает пустые текстовые сегменты в начале.
func dropEmptyPrefix(segs []cop.Segment) []cop.Segment {
	for len(segs) > 0 && segs[0].Kind == cop.SegmentText && segs[0].Text == "" {
		segs = segs[1:]
	}
	return segs
}
