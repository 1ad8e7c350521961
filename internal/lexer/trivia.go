package lexer

import (
	"rbsec/internal/diag"
	"rbsec/internal/token"
)

// collectLeadingTrivia gathers blanks, comments, continuations and the line
// breaks that do not end a statement.
func (lx *Lexer) collectLeadingTrivia() {
	lx.hold = lx.hold[:0]
	for !lx.cursor.EOF() {
		start := lx.cursor.Mark()
		b := lx.cursor.Peek()

		switch {
		case isBlank(b):
			for isBlank(lx.cursor.Peek()) {
				lx.cursor.Bump()
			}
			lx.push(token.TriviaSpace, start)
			continue

		case b == '\\' && lx.cursor.PeekAt(1) == '\n':
			at := lx.cursor.Off + 1
			lx.cursor.Off += 2
			lx.skipHeredocBody(at)
			lx.push(token.TriviaContinuation, start)
			continue

		case b == '#':
			for !lx.cursor.EOF() && lx.cursor.Peek() != '\n' {
				lx.cursor.Bump()
			}
			lx.push(token.TriviaComment, start)
			continue

		case b == '\n':
			if !newlineIgnored(lx.prev) && !lx.leadingDotFollows(lx.cursor.Off+1) {
				return
			}
			at := lx.cursor.Off
			lx.cursor.Bump()
			lx.skipHeredocBody(at)
			lx.lineStart = true
			lx.push(token.TriviaNewline, start)
			continue

		case b == '=' && !lx.ranged && lx.cursor.AtLineStart() && lx.cursor.HasPrefix("=begin"):
			lx.scanEmbeddedDoc()
			lx.push(token.TriviaComment, start)
			continue

		case b == '_' && !lx.ranged && lx.cursor.AtLineStart() && lx.atDataSection():
			lx.cursor.Off = lx.cursor.Limit
			lx.push(token.TriviaData, start)
			return
		}
		return
	}
}

func (lx *Lexer) push(kind token.TriviaKind, start Mark) {
	sp := lx.cursor.SpanFrom(start)
	lx.hold = append(lx.hold, token.Trivia{Kind: kind, Span: sp, Text: lx.text(sp)})
}

// leadingDotFollows reports whether the next code line starts with ".foo"
// or "&.foo", continuing a method chain.
func (lx *Lexer) leadingDotFollows(off uint32) bool {
	content := lx.file.Content
	for off < lx.cursor.Limit {
		switch b := content[off]; {
		case isBlank(b) || b == '\n':
			off++
		case b == '#':
			for off < lx.cursor.Limit && content[off] != '\n' {
				off++
			}
		case b == '.':
			return off+1 >= lx.cursor.Limit || content[off+1] != '.'
		case b == '&':
			return off+1 < lx.cursor.Limit && content[off+1] == '.'
		default:
			return false
		}
	}
	return false
}

// scanEmbeddedDoc consumes "=begin" ... "=end" up to the end of the =end line.
func (lx *Lexer) scanEmbeddedDoc() {
	start := lx.cursor.Mark()
	for !lx.cursor.EOF() {
		// advance to the next line
		for !lx.cursor.EOF() && lx.cursor.Peek() != '\n' {
			lx.cursor.Bump()
		}
		if lx.cursor.EOF() {
			break
		}
		lx.cursor.Bump()
		if lx.cursor.HasPrefix("=end") {
			for !lx.cursor.EOF() && lx.cursor.Peek() != '\n' {
				lx.cursor.Bump()
			}
			return
		}
	}
	lx.errLex(diag.LexUnterminatedString, lx.cursor.SpanFrom(start), "embedded document meets end of file")
}

func (lx *Lexer) atDataSection() bool {
	if !lx.cursor.HasPrefix("__END__") {
		return false
	}
	next := lx.cursor.PeekAt(7)
	return next == '\n' || lx.cursor.Off+7 >= lx.cursor.Limit
}
