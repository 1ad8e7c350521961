package lexer

import (
	"rbsec/internal/diag"
	"rbsec/internal/token"
)

// scanOperatorOrPunct matches the longest operator at the cursor.
func (lx *Lexer) scanOperatorOrPunct() token.Token {
	start := lx.cursor.Mark()
	emit := func(k token.Kind) token.Token {
		sp := lx.cursor.SpanFrom(start)
		return token.Token{Kind: k, Span: sp, Text: lx.text(sp)}
	}

	switch {
	case lx.try3('<', '=', '>'):
		return emit(token.Cmp)
	case lx.try3('=', '=', '='):
		return emit(token.EqEq)
	case lx.try3('.', '.', '.'):
		return emit(token.DotDotDot)
	case lx.try3('|', '|', '='):
		return emit(token.OrAssign)
	case lx.try3('&', '&', '='):
		return emit(token.AndAssign)
	case lx.try3('*', '*', '='):
		return emit(token.StarAssign)
	}

	switch {
	case lx.try2('=', '='):
		return emit(token.EqEq)
	case lx.try2('!', '='):
		return emit(token.BangEq)
	case lx.try2('=', '~'):
		return emit(token.Match)
	case lx.try2('!', '~'):
		return emit(token.NotMatch)
	case lx.try2('<', '='):
		return emit(token.LtEq)
	case lx.try2('>', '='):
		return emit(token.GtEq)
	case lx.try2('&', '&'):
		return emit(token.AndAnd)
	case lx.try2('|', '|'):
		return emit(token.OrOr)
	case lx.try2('=', '>'):
		return emit(token.FatArrow)
	case lx.try2('-', '>'):
		return emit(token.Arrow)
	case lx.try2('.', '.'):
		return emit(token.DotDot)
	case lx.try2('*', '*'):
		return emit(token.Pow)
	case lx.try2('<', '<'):
		return emit(token.Shl)
	case lx.try2('>', '>'):
		return emit(token.Shr)
	case lx.try2('+', '='):
		return emit(token.PlusAssign)
	case lx.try2('-', '='):
		return emit(token.MinusAssign)
	case lx.try2('*', '='):
		return emit(token.StarAssign)
	case lx.try2('/', '='):
		return emit(token.SlashAssign)
	case lx.try2('&', '.'):
		return emit(token.SafeNav)
	}

	b := lx.cursor.Bump()
	switch b {
	case '(':
		return emit(token.LParen)
	case ')':
		return emit(token.RParen)
	case '[':
		return emit(token.LBracket)
	case ']':
		return emit(token.RBracket)
	case '{':
		return emit(token.LBrace)
	case '}':
		return emit(token.RBrace)
	case ',':
		return emit(token.Comma)
	case '.':
		return emit(token.Dot)
	case ';':
		return emit(token.Semicolon)
	case '=':
		return emit(token.Assign)
	case '+':
		return emit(token.Plus)
	case '-':
		return emit(token.Minus)
	case '*':
		return emit(token.Star)
	case '/':
		return emit(token.Slash)
	case '%':
		return emit(token.Percent)
	case '<':
		return emit(token.Lt)
	case '>':
		return emit(token.Gt)
	case '!':
		return emit(token.Bang)
	case '&':
		return emit(token.Amp)
	case '|':
		return emit(token.Pipe)
	case '^':
		return emit(token.Caret)
	case '~':
		return emit(token.Tilde)
	case '?':
		return lx.scanQuestion(start)
	case ':':
		return emit(token.Colon)
	}

	// skip the rest of a multi-byte rune so the error span covers it
	lx.cursor.Reset(start)
	lx.bumpRune()
	if lx.cursor.Off == uint32(start) {
		lx.cursor.Bump()
	}
	sp := lx.cursor.SpanFrom(start)
	lx.errLex(diag.LexUnknownChar, sp, "unexpected character "+quoteText(lx.text(sp)))
	return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
}

// scanQuestion distinguishes the ternary '?' from a character literal "?a".
func (lx *Lexer) scanQuestion(start Mark) token.Token {
	b := lx.cursor.Peek()
	next := lx.cursor.PeekAt(1)
	if lx.valueExpected(true) && b != 0 && !isBlank(b) && b != '\n' && !isIdentContinueByte(next) {
		if b == '\\' {
			lx.cursor.Bump()
		}
		lx.bumpRune()
		sp := lx.cursor.SpanFrom(start)
		return token.Token{Kind: token.String, Span: sp, Text: lx.text(sp)}
	}
	sp := lx.cursor.SpanFrom(start)
	return token.Token{Kind: token.Question, Span: sp, Text: "?"}
}

func quoteText(s string) string {
	return "'" + s + "'"
}
