package lexer

import (
	"rbsec/internal/diag"
	"rbsec/internal/token"
)

// scanQuoted scans "...", '...' and `...`. Double quotes and backticks
// allow "#{...}" holes, which may themselves contain quotes and braces.
// Strings may span lines.
func (lx *Lexer) scanQuoted(q byte) token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump()
	kind := token.String
	if q == '`' {
		kind = token.XString
	}
	if !lx.scanBody(0, q, q != '\'') {
		sp := lx.cursor.SpanFrom(start)
		lx.errLex(diag.LexUnterminatedString, sp, "unterminated string literal")
		return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
	}
	sp := lx.cursor.SpanFrom(start)
	return token.Token{Kind: kind, Span: sp, Text: lx.text(sp)}
}

// scanBody consumes up to and including the closing delimiter. open is 0
// for non-nesting delimiters. It reports false when the limit is reached.
func (lx *Lexer) scanBody(open, closing byte, interp bool) bool {
	depth := 0
	for !lx.cursor.EOF() {
		b := lx.cursor.Bump()
		switch {
		case b == '\\':
			lx.cursor.Bump()
		case interp && b == '#' && lx.cursor.Peek() == '{':
			lx.cursor.Bump()
			if !lx.skipInterpolation() {
				return false
			}
		case open != 0 && b == open:
			depth++
		case b == closing:
			if depth == 0 {
				return true
			}
			depth--
		}
	}
	return false
}

// skipInterpolation consumes the inside of "#{...}" including the closing
// brace. The cursor starts right after '{'.
func (lx *Lexer) skipInterpolation() bool {
	start := lx.cursor.Mark()
	depth := 0
	for !lx.cursor.EOF() {
		switch b := lx.cursor.Bump(); b {
		case '{':
			depth++
		case '}':
			if depth == 0 {
				return true
			}
			depth--
		case '"', '`':
			if !lx.scanBody(0, b, true) {
				return false
			}
		case '\'':
			if !lx.scanBody(0, b, false) {
				return false
			}
		case '\\':
			lx.cursor.Bump()
		}
	}
	lx.errLex(diag.LexUnterminatedInterpolation, lx.cursor.SpanFrom(start-2), "unterminated string interpolation")
	return false
}

func (lx *Lexer) scanRegexp() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump()
	if !lx.scanBody(0, '/', true) {
		sp := lx.cursor.SpanFrom(start)
		lx.errLex(diag.LexUnterminatedString, sp, "unterminated regexp")
		return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
	}
	for b := lx.cursor.Peek(); b >= 'a' && b <= 'z'; b = lx.cursor.Peek() {
		lx.cursor.Bump()
	}
	sp := lx.cursor.SpanFrom(start)
	return token.Token{Kind: token.Regexp, Span: sp, Text: lx.text(sp)}
}

// atPercentLiteral reports whether '%' starts %q(), %Q(), %w[], %() and friends.
func (lx *Lexer) atPercentLiteral() bool {
	b := lx.cursor.PeekAt(1)
	switch b {
	case 'q', 'Q', 'w', 'W', 'i', 'I', 'x', 'r', 's':
		return isPercentDelimiter(lx.cursor.PeekAt(2))
	}
	return isPercentDelimiter(b) && b != '='
}

func isPercentDelimiter(b byte) bool {
	switch b {
	case '(', '[', '{', '<', '|', '!', '/', '^', '-', '+', '~', '@', '=', ':':
		return true
	}
	return false
}

func closingDelimiter(open byte) byte {
	switch open {
	case '(':
		return ')'
	case '[':
		return ']'
	case '{':
		return '}'
	case '<':
		return '>'
	}
	return open
}

func (lx *Lexer) scanPercent() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump() // '%'
	typ := byte('Q')
	if b := lx.cursor.Peek(); !isPercentDelimiter(b) {
		typ = lx.cursor.Bump()
	}
	open := lx.cursor.Bump()
	closing := closingDelimiter(open)
	nestOpen := byte(0)
	if closing != open {
		nestOpen = open
	}

	kind := token.String
	interp := false
	switch typ {
	case 'Q':
		interp = true
	case 'W', 'I':
		kind, interp = token.Words, true
	case 'w', 'i':
		kind = token.Words
	case 'x':
		kind, interp = token.XString, true
	case 'r':
		kind, interp = token.Regexp, true
	case 's':
		kind = token.Symbol
	}

	if !lx.scanBody(nestOpen, closing, interp) {
		sp := lx.cursor.SpanFrom(start)
		lx.errLex(diag.LexUnterminatedString, sp, "unterminated percent literal")
		return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
	}
	if kind == token.Regexp {
		for b := lx.cursor.Peek(); b >= 'a' && b <= 'z'; b = lx.cursor.Peek() {
			lx.cursor.Bump()
		}
	}
	sp := lx.cursor.SpanFrom(start)
	return token.Token{Kind: kind, Span: sp, Text: lx.text(sp)}
}
