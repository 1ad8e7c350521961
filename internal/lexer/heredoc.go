package lexer

import (
	"bytes"

	"rbsec/internal/diag"
	"rbsec/internal/source"
	"rbsec/internal/token"
)

// heredocSkip tells the lexer to jump over heredoc bodies once it reaches
// the line break that ends the opener line.
type heredocSkip struct {
	active bool
	at     uint32 // offset of the '\n' ending the opener line
	to     uint32 // first offset after the last terminator line
}

func (lx *Lexer) skipHeredocBody(newlineAt uint32) {
	if lx.heredoc.active && lx.heredoc.at == newlineAt {
		lx.cursor.Off = lx.heredoc.to
		lx.heredoc = heredocSkip{}
		lx.lineStart = true
	}
}

// atHeredoc recognises <<~ID, <<-ID, <<ID (upper case) and quoted ids.
func (lx *Lexer) atHeredoc() bool {
	if lx.ranged || lx.cursor.PeekAt(1) != '<' {
		return false
	}
	i := uint32(2)
	if b := lx.cursor.PeekAt(i); b == '~' || b == '-' {
		i++
		b = lx.cursor.PeekAt(i)
		return isIdentStartByte(b) || b == '\'' || b == '"' || b == '`'
	}
	b := lx.cursor.PeekAt(i)
	return (b >= 'A' && b <= 'Z') || b == '_' || b == '\'' || b == '"' || b == '`'
}

// scanHeredoc scans the opener and locates the body on the following lines.
// The token Text is the opener ("<<~EOS"); Body covers the body lines
// without the terminator.
func (lx *Lexer) scanHeredoc() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Off += 2
	indented := false
	if b := lx.cursor.Peek(); b == '~' || b == '-' {
		indented = true
		lx.cursor.Bump()
	}

	var id []byte
	if q := lx.cursor.Peek(); q == '\'' || q == '"' || q == '`' {
		lx.cursor.Bump()
		idStart := lx.cursor.Off
		for !lx.cursor.EOF() && lx.cursor.Peek() != q && lx.cursor.Peek() != '\n' {
			lx.cursor.Bump()
		}
		id = lx.file.Content[idStart:lx.cursor.Off]
		if !lx.cursor.Eat(q) {
			sp := lx.cursor.SpanFrom(start)
			lx.errLex(diag.LexUnterminatedString, sp, "unterminated heredoc identifier")
			return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
		}
	} else {
		idStart := lx.cursor.Off
		for isIdentContinueByte(lx.cursor.Peek()) {
			lx.cursor.Bump()
		}
		id = lx.file.Content[idStart:lx.cursor.Off]
	}
	opener := lx.cursor.SpanFrom(start)

	content := lx.file.Content
	limit := lx.cursor.Limit
	lineEnd := lx.cursor.Off
	for lineEnd < limit && content[lineEnd] != '\n' {
		lineEnd++
	}
	bodyStart := lineEnd + 1
	if lx.heredoc.active && lx.heredoc.at == lineEnd {
		// second heredoc on the same line starts after the first one's terminator
		bodyStart = lx.heredoc.to
	}
	if bodyStart > limit {
		bodyStart = limit
	}

	off := bodyStart
	for off < limit {
		eol := off
		for eol < limit && content[eol] != '\n' {
			eol++
		}
		line := content[off:eol]
		if indented {
			line = bytes.TrimLeft(line, " \t")
		}
		if bytes.Equal(bytes.TrimRight(line, " \t"), id) {
			next := eol
			if next < limit {
				next++
			}
			lx.heredoc = heredocSkip{active: true, at: lineEnd, to: next}
			return token.Token{
				Kind: token.Heredoc,
				Span: opener,
				Text: lx.text(opener),
				Body: source.Span{File: lx.file.ID, Start: bodyStart, End: off},
			}
		}
		off = eol + 1
	}

	lx.errLex(diag.LexUnterminatedString, opener, "unterminated heredoc, missing "+string(id))
	lx.heredoc = heredocSkip{active: true, at: lineEnd, to: limit}
	return token.Token{
		Kind: token.Heredoc,
		Span: opener,
		Text: lx.text(opener),
		Body: source.Span{File: lx.file.ID, Start: bodyStart, End: limit},
	}
}
