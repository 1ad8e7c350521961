package lexer

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"rbsec/internal/token"

	"fortio.org/safecast"
)

const utf8RuneSelf = 0x80

func (lx *Lexer) peekRune() (r rune, size int) {
	if lx.cursor.EOF() {
		return utf8.RuneError, 0
	}
	b := lx.cursor.Peek()
	if b < utf8.RuneSelf {
		return rune(b), 1
	}
	return utf8.DecodeRune(lx.file.Content[lx.cursor.Off:lx.cursor.Limit])
}

func (lx *Lexer) bumpRune() {
	_, sz := lx.peekRune()
	if sz == 0 {
		return
	}
	usz, err := safecast.Conv[uint32](sz)
	if err != nil {
		panic(fmt.Errorf("bumpRune overflow: %w", err))
	}
	lx.cursor.Off += usz
}

func isIdentStartByte(b byte) bool {
	return b == '_' || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

func isIdentContinueByte(b byte) bool {
	return isIdentStartByte(b) || isDec(b)
}

func isIdentStartRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentContinueRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isDec(b byte) bool { return b >= '0' && b <= '9' }

func isHex(b byte) bool {
	return isDec(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func isBlank(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\f' || b == '\v'
}

func (lx *Lexer) try3(a, b, c byte) bool {
	if lx.cursor.PeekAt(0) != a || lx.cursor.PeekAt(1) != b || lx.cursor.PeekAt(2) != c {
		return false
	}
	lx.cursor.Off += 3
	return true
}

func (lx *Lexer) try2(a, b byte) bool {
	b0, b1, ok := lx.cursor.Peek2()
	if !ok || b0 != a || b1 != b {
		return false
	}
	lx.cursor.Off += 2
	return true
}

// valueExpected reports whether the next token starts an operand rather
// than continuing a binary expression. It decides between "/" as division
// and a regexp, "%" as modulo and a percent literal, "<<" and a heredoc.
func (lx *Lexer) valueExpected(spaceBefore bool) bool {
	switch lx.prev {
	case token.Invalid, token.Newline, token.Semicolon, token.Comma,
		token.LParen, token.LBracket, token.LBrace, token.Pipe, token.Label,
		token.Assign, token.PlusAssign, token.MinusAssign, token.StarAssign,
		token.SlashAssign, token.OrAssign, token.AndAssign,
		token.EqEq, token.BangEq, token.Match, token.NotMatch, token.Cmp,
		token.Lt, token.Gt, token.LtEq, token.GtEq, token.AndAnd, token.OrOr,
		token.Bang, token.FatArrow, token.Question, token.Colon,
		token.Plus, token.Minus, token.Star, token.Slash, token.Percent, token.Pow,
		token.Shl, token.Shr, token.Caret, token.Amp, token.Tilde:
		return true
	case token.Ident:
		// "foo /x/" is a command call with a regexp, "foo / x" is division
		next := lx.cursor.PeekAt(1)
		return spaceBefore && next != ' ' && next != '=' && next != '\n'
	}
	return token.Token{Kind: lx.prev}.IsKeyword() && !endsValue(lx.prev)
}

func endsValue(k token.Kind) bool {
	switch k {
	case token.KwEnd, token.KwSelf, token.KwNil, token.KwTrue, token.KwFalse:
		return true
	}
	return false
}

// newlineIgnored reports whether a line break after prev continues the
// current expression instead of ending a statement.
func newlineIgnored(prev token.Kind) bool {
	switch prev {
	case token.Invalid, token.Newline, token.Semicolon,
		token.Comma, token.LParen, token.LBracket, token.LBrace,
		token.Dot, token.SafeNav, token.ColonColon, token.Label,
		token.Assign, token.PlusAssign, token.MinusAssign, token.StarAssign,
		token.SlashAssign, token.OrAssign, token.AndAssign,
		token.Plus, token.Minus, token.Star, token.Slash, token.Percent, token.Pow,
		token.EqEq, token.BangEq, token.Lt, token.Gt, token.LtEq, token.GtEq,
		token.Match, token.NotMatch, token.Cmp, token.Shl, token.Shr, token.Caret,
		token.AndAnd, token.OrOr, token.Bang, token.FatArrow, token.Arrow,
		token.Question, token.Colon, token.Amp,
		token.KwAnd, token.KwOr, token.KwNot:
		return true
	}
	return false
}
