package token

import "rbsec/internal/source"

type TriviaKind uint8

const (
	TriviaSpace TriviaKind = iota
	TriviaComment
	// TriviaNewline is a line break that does not end a statement.
	TriviaNewline
	// TriviaContinuation is a backslash-newline joining two physical lines.
	TriviaContinuation
	// TriviaData is everything after __END__.
	TriviaData
)

func (k TriviaKind) String() string {
	switch k {
	case TriviaSpace:
		return "Space"
	case TriviaComment:
		return "Comment"
	case TriviaNewline:
		return "Newline"
	case TriviaContinuation:
		return "Continuation"
	case TriviaData:
		return "Data"
	}
	return "Trivia(?)"
}

type Trivia struct {
	Kind TriviaKind
	Span source.Span
	Text string
}
