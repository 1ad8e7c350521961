package lexer

import (
	"rbsec/internal/diag"
	"rbsec/internal/token"
)

// scanNumber handles 0, 1_000, 0b1010, 0o17, 017, 0xff, 1.5, 1e-3, 2.5e+10
// plus the r/i suffixes. "1.times" keeps the dot for the method call.
func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()
	kind := token.Int

	if lx.cursor.Peek() == '0' {
		var digit func(byte) bool
		switch lx.cursor.PeekAt(1) {
		case 'b', 'B':
			digit = func(b byte) bool { return b == '0' || b == '1' }
		case 'o', 'O':
			digit = func(b byte) bool { return b >= '0' && b <= '7' }
		case 'x', 'X':
			digit = isHex
		case 'd', 'D':
			digit = isDec
		}
		if digit != nil {
			lx.cursor.Off += 2
			if !digit(lx.cursor.Peek()) {
				sp := lx.cursor.SpanFrom(start)
				lx.errLex(diag.LexBadNumber, sp, "numeric literal without digits")
				return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
			}
			for digit(lx.cursor.Peek()) || lx.cursor.Peek() == '_' {
				lx.cursor.Bump()
			}
			return lx.finishNumber(start, kind)
		}
	}

	lx.eatDigits()

	if lx.cursor.Peek() == '.' && isDec(lx.cursor.PeekAt(1)) {
		kind = token.Float
		lx.cursor.Bump()
		lx.eatDigits()
	}

	if b := lx.cursor.Peek(); b == 'e' || b == 'E' {
		mark := lx.cursor.Mark()
		lx.cursor.Bump()
		if c := lx.cursor.Peek(); c == '+' || c == '-' {
			lx.cursor.Bump()
		}
		if isDec(lx.cursor.Peek()) {
			kind = token.Float
			lx.eatDigits()
		} else {
			// "1.even?" style method call on a literal: leave 'e' alone
			lx.cursor.Reset(mark)
		}
	}
	return lx.finishNumber(start, kind)
}

func (lx *Lexer) eatDigits() {
	for isDec(lx.cursor.Peek()) || (lx.cursor.Peek() == '_' && isDec(lx.cursor.PeekAt(1))) {
		lx.cursor.Bump()
	}
}

func (lx *Lexer) finishNumber(start Mark, kind token.Kind) token.Token {
	// rational and imaginary suffixes
	if b := lx.cursor.Peek(); (b == 'r' || b == 'i') && !isIdentContinueByte(lx.cursor.PeekAt(1)) {
		lx.cursor.Bump()
	}
	if isIdentStartByte(lx.cursor.Peek()) {
		for isIdentContinueByte(lx.cursor.Peek()) {
			lx.cursor.Bump()
		}
		sp := lx.cursor.SpanFrom(start)
		lx.errLex(diag.LexBadNumber, sp, "invalid character in numeric literal")
		return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
	}
	sp := lx.cursor.SpanFrom(start)
	return token.Token{Kind: kind, Span: sp, Text: lx.text(sp)}
}
