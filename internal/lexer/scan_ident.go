package lexer

import (
	"rbsec/internal/diag"
	"rbsec/internal/token"
)

// scanIdentOrKeyword scans identifiers, constants, keywords and labels.
// A trailing '?' or '!' belongs to the name ("valid?", "save!") unless it
// starts "!=" or "?:"-style operators. Keywords directly after '.' are
// method names.
func (lx *Lexer) scanIdentOrKeyword() token.Token {
	start := lx.cursor.Mark()

	r, sz := lx.peekRune()
	if sz == 0 || (r < utf8RuneSelf && !isIdentStartByte(byte(r))) || (r >= utf8RuneSelf && !isIdentStartRune(r)) {
		return lx.scanOperatorOrPunct()
	}
	lx.bumpRune()
	for {
		r, sz = lx.peekRune()
		if sz == 0 {
			break
		}
		if r < utf8RuneSelf {
			if !isIdentContinueByte(byte(r)) {
				break
			}
			lx.cursor.Bump()
			continue
		}
		if !isIdentContinueRune(r) {
			break
		}
		lx.bumpRune()
	}

	if b := lx.cursor.Peek(); (b == '?' || b == '!') && lx.cursor.PeekAt(1) != '=' {
		if !(b == '?' && lx.cursor.PeekAt(1) == ':') {
			lx.cursor.Bump()
		}
	}

	afterDot := lx.prev == token.Dot || lx.prev == token.SafeNav

	// "name:" but not "name::"
	if lx.cursor.Peek() == ':' && lx.cursor.PeekAt(1) != ':' && !afterDot && lx.prev != token.Question {
		lx.cursor.Bump()
		sp := lx.cursor.SpanFrom(start)
		return token.Token{Kind: token.Label, Span: sp, Text: lx.text(sp)}
	}

	sp := lx.cursor.SpanFrom(start)
	text := lx.text(sp)

	if !afterDot {
		if k, ok := token.LookupKeyword(text); ok {
			return token.Token{Kind: k, Span: sp, Text: text}
		}
	}
	if first := text[0]; first >= 'A' && first <= 'Z' {
		return token.Token{Kind: token.Const, Span: sp, Text: text}
	}
	return token.Token{Kind: token.Ident, Span: sp, Text: text}
}

// scanIVar scans @name and @@name.
func (lx *Lexer) scanIVar() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump()
	lx.cursor.Eat('@')
	if !isIdentStartByte(lx.cursor.Peek()) {
		sp := lx.cursor.SpanFrom(start)
		lx.errLex(diag.LexUnknownChar, sp, "'@' must be followed by a variable name")
		return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
	}
	for isIdentContinueByte(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}
	sp := lx.cursor.SpanFrom(start)
	return token.Token{Kind: token.IVar, Span: sp, Text: lx.text(sp)}
}

// scanGVar scans $name, $0..$9 and the punctuation globals ($!, $~, ...).
func (lx *Lexer) scanGVar() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump()
	switch b := lx.cursor.Peek(); {
	case isIdentStartByte(b):
		for isIdentContinueByte(lx.cursor.Peek()) {
			lx.cursor.Bump()
		}
	case isDec(b):
		for isDec(lx.cursor.Peek()) {
			lx.cursor.Bump()
		}
	case b != 0 && b != '\n' && !isBlank(b):
		lx.cursor.Bump()
	default:
		sp := lx.cursor.SpanFrom(start)
		lx.errLex(diag.LexUnknownChar, sp, "'$' must be followed by a variable name")
		return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
	}
	sp := lx.cursor.SpanFrom(start)
	return token.Token{Kind: token.GVar, Span: sp, Text: lx.text(sp)}
}

// scanColon handles "::", symbols (:name, :"name", :+) and a bare ':'.
func (lx *Lexer) scanColon() token.Token {
	start := lx.cursor.Mark()
	if lx.try2(':', ':') {
		sp := lx.cursor.SpanFrom(start)
		return token.Token{Kind: token.ColonColon, Span: sp, Text: "::"}
	}
	lx.cursor.Bump()
	switch b := lx.cursor.Peek(); {
	case isIdentStartByte(b) || b >= utf8RuneSelf:
		for {
			r, sz := lx.peekRune()
			if sz == 0 || !isIdentContinueRune(r) {
				break
			}
			lx.bumpRune()
		}
		if c := lx.cursor.Peek(); c == '?' || c == '!' || c == '=' {
			if n := lx.cursor.PeekAt(1); n != '=' && n != '~' && n != '>' {
				lx.cursor.Bump()
			}
		}
	case b == '@' || b == '$':
		lx.cursor.Bump()
		lx.cursor.Eat('@')
		for isIdentContinueByte(lx.cursor.Peek()) {
			lx.cursor.Bump()
		}
	case b == '"' || b == '\'':
		if inner := lx.scanQuoted(b); inner.Kind == token.Invalid {
			sp := lx.cursor.SpanFrom(start)
			return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
		}
	case isOperatorSymbolByte(b) && lx.valueExpected(true):
		for isOperatorSymbolByte(lx.cursor.Peek()) {
			lx.cursor.Bump()
		}
	default:
		sp := lx.cursor.SpanFrom(start)
		return token.Token{Kind: token.Colon, Span: sp, Text: ":"}
	}
	sp := lx.cursor.SpanFrom(start)
	return token.Token{Kind: token.Symbol, Span: sp, Text: lx.text(sp)}
}

func isOperatorSymbolByte(b byte) bool {
	switch b {
	case '[', ']', '+', '-', '*', '/', '%', '<', '>', '=', '!', '~', '^', '&', '|':
		return true
	}
	return false
}
