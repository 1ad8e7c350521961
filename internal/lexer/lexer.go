package lexer

import (
	"rbsec/internal/diag"
	"rbsec/internal/source"
	"rbsec/internal/token"
)

type Lexer struct {
	file      *source.File
	cursor    Cursor
	opts      Options
	look      *token.Token   // 1 элементный буфер для токена
	hold      []token.Trivia // накопленные leading trivia
	prev      token.Kind     // kind of the last significant token
	lineStart bool
	heredoc   heredocSkip
	ranged    bool // limited to a sub-range (string interpolation)
}

func New(file *source.File, opts Options) *Lexer {
	return &Lexer{
		file:      file,
		cursor:    NewCursor(file),
		opts:      opts,
		lineStart: true,
	}
}

// SetRange restricts lexing to [start, limit). Used to lex the inside of
// "#{...}" holes with the same file coordinates.
func (lx *Lexer) SetRange(start, limit uint32) {
	if limit > lx.cursor.Limit {
		limit = lx.cursor.Limit
	}
	if start > limit {
		start = limit
	}
	lx.cursor.Off = start
	lx.cursor.Limit = limit
	lx.look = nil
	lx.hold = nil
	lx.prev = token.Invalid
	lx.lineStart = false
	lx.ranged = true
}

// Next returns the next significant token with its Leading trivia.
// After EOF it keeps returning EOF.
func (lx *Lexer) Next() token.Token {
	if lx.look != nil {
		tok := *lx.look
		lx.look = nil
		return tok
	}

	lx.collectLeadingTrivia()
	flags := lx.flags()

	if lx.cursor.EOF() {
		return token.Token{Kind: token.EOF, Span: lx.EmptySpan(), Flags: flags}
	}

	ch := lx.cursor.Peek()
	var tok token.Token
	switch {
	case ch == '\n':
		tok = lx.scanNewline()
	case isIdentStartByte(ch) || ch >= utf8RuneSelf:
		tok = lx.scanIdentOrKeyword()
	case isDec(ch):
		tok = lx.scanNumber()
	case ch == '"' || ch == '`':
		tok = lx.scanQuoted(ch)
	case ch == '\'':
		tok = lx.scanQuoted(ch)
	case ch == '@':
		tok = lx.scanIVar()
	case ch == '$':
		tok = lx.scanGVar()
	case ch == ':':
		tok = lx.scanColon()
	case ch == '/' && lx.valueExpected(flags&token.SpaceBefore != 0):
		tok = lx.scanRegexp()
	case ch == '%' && lx.valueExpected(flags&token.SpaceBefore != 0) && lx.atPercentLiteral():
		tok = lx.scanPercent()
	case ch == '<' && lx.valueExpected(flags&token.SpaceBefore != 0) && lx.atHeredoc():
		tok = lx.scanHeredoc()
	default:
		tok = lx.scanOperatorOrPunct()
	}

	if tok.Span.Len() > maxTokenLength {
		lx.errLex(diag.LexTokenTooLong, tok.Span, "token exceeds maximum length")
		lx.cursor.Off = lx.cursor.Limit
		tok.Kind = token.Invalid
	}

	tok.Flags = flags
	tok.Leading = lx.hold
	lx.hold = nil
	lx.prev = tok.Kind
	lx.lineStart = tok.Kind == token.Newline
	return tok
}

// Peek returns the next token without consuming it.
func (lx *Lexer) Peek() token.Token {
	t := lx.Next()
	lx.look = &t
	return t
}

func (lx *Lexer) EmptySpan() source.Span {
	return source.At(lx.file.ID, lx.cursor.Off)
}

// File returns the file being lexed.
func (lx *Lexer) File() *source.File {
	return lx.file
}

func (lx *Lexer) flags() token.Flags {
	var f token.Flags
	if len(lx.hold) > 0 {
		f |= token.SpaceBefore
	}
	if lx.lineStart {
		f |= token.LineStart
	}
	return f
}

func (lx *Lexer) text(sp source.Span) string {
	return string(lx.file.Content[sp.Start:sp.End])
}

func (lx *Lexer) scanNewline() token.Token {
	start := lx.cursor.Mark()
	at := lx.cursor.Off
	lx.cursor.Bump()
	sp := lx.cursor.SpanFrom(start)
	lx.skipHeredocBody(at)
	return token.Token{Kind: token.Newline, Span: sp, Text: "\n"}
}
