package token

import (
	"rbsec/internal/source"
)

// Flags records layout facts the parser needs for command calls.
type Flags uint8

const (
	// SpaceBefore is set when blank trivia directly precedes the token.
	SpaceBefore Flags = 1 << iota
	// LineStart is set for the first token on a physical line.
	LineStart
)

// Token represents a single source token with its location and trivia.
type Token struct {
	Kind    Kind
	Span    source.Span
	Text    string
	Flags   Flags
	Leading []Trivia
	// Body is the content span of a heredoc, set only for Heredoc tokens.
	Body source.Span
}

func (t Token) HasSpaceBefore() bool { return t.Flags&SpaceBefore != 0 }

func (t Token) AtLineStart() bool { return t.Flags&LineStart != 0 }

// IsLiteral reports whether the token is a literal value.
func (t Token) IsLiteral() bool {
	switch t.Kind {
	case Int, Float, String, Symbol, Regexp, XString, Heredoc, Words, KwNil, KwTrue, KwFalse:
		return true
	default:
		return false
	}
}

// IsKeyword reports whether the token is a reserved word.
func (t Token) IsKeyword() bool {
	return t.Kind >= KwDef && t.Kind <= KwUndef
}

// IsPunctOrOp reports whether the token is punctuation or an operator.
func (t Token) IsPunctOrOp() bool {
	return t.Kind >= LParen && t.Kind <= SafeNav
}

// IsTerminator reports whether the token ends a statement.
func (t Token) IsTerminator() bool {
	return t.Kind == Newline || t.Kind == Semicolon || t.Kind == EOF
}

// IsAssignOp reports whether the token is "=" or a compound assignment.
func (t Token) IsAssignOp() bool {
	switch t.Kind {
	case Assign, PlusAssign, MinusAssign, StarAssign, SlashAssign, OrAssign, AndAssign:
		return true
	default:
		return false
	}
}
