package parser

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"rbsec/internal/ast"
	"rbsec/internal/diag"
	"rbsec/internal/lexer"
	"rbsec/internal/source"
	"rbsec/internal/token"
)

type escapeMode uint8

const (
	escapeDouble escapeMode = iota // "\n", "\u{..}", "\x41", ...
	escapeSingle                   // only "\\" and the delimiter
	escapeRaw                      // <<~'EOS': no escapes at all
)

// strLayout описывает, как читать содержимое строкового литерала.
type strLayout struct {
	quote     ast.StrQuote
	content   source.Span
	interp    bool
	escapes   escapeMode
	openDelim byte // for escapeSingle: both delimiters may be escaped
	closeDlm  byte
	dedent    bool // <<~
}

// parseStringLiteral разбирает строку, heredoc или символ "?a". Соседние
// литералы "a" "b" склеиваются в один.
func (p *Parser) parseStringLiteral() (ast.ExprID, bool) {
	tok := p.advance()
	data, ok := p.strData(tok)
	if !ok {
		return ast.NoExprID, false
	}
	span := tok.Span
	for next := p.lx.Peek(); next.Kind == token.String && data.Quote != ast.QuoteHeredoc && !isCharLiteral(next) && !isCharLiteral(tok); next = p.lx.Peek() {
		p.advance()
		more, ok := p.strData(next)
		if !ok {
			return ast.NoExprID, false
		}
		data.Segments = appendSegments(data.Segments, more.Segments)
		span = span.Cover(next.Span)
	}
	return p.arenas.Exprs.NewStr(span, data), true
}

func isCharLiteral(tok token.Token) bool {
	return strings.HasPrefix(tok.Text, "?")
}

// appendSegments склеивает соседние текстовые сегменты.
func appendSegments(dst, src []ast.StrSegment) []ast.StrSegment {
	for _, seg := range src {
		if n := len(dst); n > 0 && seg.Kind == ast.SegText && dst[n-1].Kind == ast.SegText {
			dst[n-1].Text = norm.NFC.String(dst[n-1].Text + seg.Text)
			dst[n-1].Span = dst[n-1].Span.Cover(seg.Span)
			continue
		}
		dst = append(dst, seg)
	}
	return dst
}

func (p *Parser) strData(tok token.Token) (ast.ExprStrData, bool) {
	layout, ok := p.layoutOf(tok)
	if !ok {
		p.report(diag.SynUnexpectedToken, diag.SevError, tok.Span, "malformed string literal")
		return ast.ExprStrData{}, false
	}
	return ast.ExprStrData{
		Quote:    layout.quote,
		Segments: p.splitSegments(layout),
	}, true
}

// layoutOf определяет вид литерала по тексту токена.
func (p *Parser) layoutOf(tok token.Token) (strLayout, bool) {
	text := tok.Text
	sp := tok.Span
	inner := func(prefix, suffix uint32) source.Span {
		return source.Span{File: sp.File, Start: sp.Start + prefix, End: sp.End - suffix}
	}

	if tok.Kind == token.Heredoc {
		l := strLayout{quote: ast.QuoteHeredoc, content: tok.Body, interp: true, escapes: escapeDouble}
		id := strings.TrimPrefix(text, "<<")
		if strings.HasPrefix(id, "~") {
			l.dedent = true
		}
		id = strings.TrimLeft(id, "~-")
		if strings.HasPrefix(id, "'") {
			l.interp = false
			l.escapes = escapeRaw
		}
		return l, true
	}

	if len(text) < 2 {
		return strLayout{}, false
	}
	switch text[0] {
	case '"':
		return strLayout{quote: ast.QuoteDouble, content: inner(1, 1), interp: true, escapes: escapeDouble}, true
	case '\'':
		return strLayout{quote: ast.QuoteSingle, content: inner(1, 1), escapes: escapeSingle, openDelim: '\'', closeDlm: '\''}, true
	case '?':
		return strLayout{quote: ast.QuoteChar, content: inner(1, 0), escapes: escapeDouble}, true
	case '%':
		typ := byte('Q')
		prefix := uint32(1)
		if b := text[1]; b == 'q' || b == 'Q' {
			typ = b
			prefix = 2
		}
		if int(prefix) >= len(text) {
			return strLayout{}, false
		}
		open := text[prefix]
		l := strLayout{quote: ast.QuotePercent, content: inner(prefix+1, 1), interp: true, escapes: escapeDouble}
		if typ == 'q' {
			l.interp = false
			l.escapes = escapeSingle
			l.openDelim = open
			l.closeDlm = text[len(text)-1]
		}
		return l, true
	}
	return strLayout{}, false
}

// splitSegments режет содержимое литерала на текст и "#{...}"-дыры.
// Текст раскодируется и нормализуется в NFC; пустые текстовые сегменты
// не сохраняются.
func (p *Parser) splitSegments(l strLayout) []ast.StrSegment {
	content := p.lx.File().Content
	start, end := l.content.Start, l.content.End
	if end > uint32(len(content)) || start > end {
		return nil
	}
	file := l.content.File

	var segs []ast.StrSegment
	var text strings.Builder
	textStart := start
	inText := false
	flush := func(at uint32) {
		if inText && text.Len() > 0 {
			segs = append(segs, ast.StrSegment{
				Kind: ast.SegText,
				Span: source.Span{File: file, Start: textStart, End: at},
				Text: norm.NFC.String(text.String()),
				Expr: ast.NoExprID,
			})
		}
		text.Reset()
		inText = false
	}
	mark := func(at uint32) {
		if !inText {
			textStart = at
			inText = true
		}
	}

	indent := 0
	if l.dedent {
		indent = heredocIndent(content[start:end])
	}
	lineStart := l.dedent

	i := start
	for i < end {
		if lineStart {
			lineStart = false
			i = skipIndent(content, i, end, indent)
			continue
		}
		b := content[i]
		switch {
		case b == '\\' && l.escapes == escapeDouble:
			mark(i)
			n := p.unescapeDouble(&text, content[i:end], file, i)
			i += n

		case b == '\\' && l.escapes == escapeSingle:
			mark(i)
			if i+1 < end && (content[i+1] == '\\' || content[i+1] == l.openDelim || content[i+1] == l.closeDlm) {
				text.WriteByte(content[i+1])
				i += 2
				continue
			}
			text.WriteByte(b)
			i++

		case b == '#' && l.interp && i+1 < end && content[i+1] == '{':
			flush(i)
			closeAt, ok := matchBrace(content, i+2, end)
			if !ok {
				p.report(diag.SynBadInterpolation, diag.SevError, source.Span{File: file, Start: i, End: end}, "unterminated string interpolation")
				return segs
			}
			segs = append(segs, ast.StrSegment{
				Kind: ast.SegInterp,
				Span: source.Span{File: file, Start: i, End: closeAt + 1},
				Expr: p.parseInterpolation(file, i+2, closeAt),
			})
			i = closeAt + 1

		case b == '#' && l.interp && i+2 < end && isVarHole(content[i+1:end]):
			// "#@ivar", "#@@cvar", "#$gvar"
			flush(i)
			j := i + 2
			if content[i+1] == '@' && content[j] == '@' {
				j++
			}
			for j < end && isNameByte(content[j]) {
				j++
			}
			varSpan := source.Span{File: file, Start: i + 1, End: j}
			segs = append(segs, ast.StrSegment{
				Kind: ast.SegInterp,
				Span: source.Span{File: file, Start: i, End: j},
				Expr: p.arenas.Exprs.NewVar(varSpan, ast.ExprVarData{Name: string(content[i+1 : j])}),
			})
			i = j

		default:
			mark(i)
			text.WriteByte(b)
			if b == '\n' && l.dedent {
				lineStart = true
			}
			i++
		}
	}
	flush(end)
	return segs
}

func isNameByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') || b >= 0x80
}

func isVarHole(rest []byte) bool {
	if len(rest) < 2 {
		return false
	}
	switch rest[0] {
	case '@':
		name := rest[1:]
		if name[0] == '@' {
			name = name[1:]
		}
		return len(name) > 0 && isNameByte(name[0]) && (name[0] < '0' || name[0] > '9')
	case '$':
		return isNameByte(rest[1]) && (rest[1] < '0' || rest[1] > '9')
	}
	return false
}

// parseInterpolation разбирает содержимое "#{...}" отдельным парсером
// над тем же файлом, ограниченным диапазоном [start, limit).
func (p *Parser) parseInterpolation(fileID source.FileID, start, limit uint32) ast.ExprID {
	subLexer := lexer.New(p.lx.File(), lexer.Options{Reporter: p.opts.Reporter})
	subLexer.SetRange(start, limit)
	subParser := Parser{
		lx:       subLexer,
		arenas:   p.arenas,
		file:     p.file,
		fs:       p.fs,
		opts:     p.opts,
		lastSpan: source.At(fileID, start),
		scope:    p.scope,
	}
	stmts := subParser.parseStmts()
	if tok := subParser.lx.Peek(); tok.Kind != token.EOF && !subParser.stopped {
		subParser.report(diag.SynBadInterpolation, diag.SevError, tok.Span, "unexpected "+describe(tok)+" in string interpolation")
	}
	p.stopped = p.stopped || subParser.stopped

	switch len(stmts) {
	case 0:
		return ast.NoExprID
	case 1:
		if es, ok := p.arenas.Stmts.ExprStmt(stmts[0]); ok {
			return es.Expr
		}
	}
	return p.arenas.Exprs.NewGroup(source.Span{File: fileID, Start: start, End: limit}, ast.ExprGroupData{Body: stmts})
}

// matchBrace ищет '}', закрывающую дыру, начиная с i. Вложенные строки
// и фигурные скобки пропускаются.
func matchBrace(content []byte, i, end uint32) (uint32, bool) {
	depth := 0
	for i < end {
		switch b := content[i]; b {
		case '{':
			depth++
		case '}':
			if depth == 0 {
				return i, true
			}
			depth--
		case '\\':
			i++
		case '"', '`', '\'':
			j, ok := skipQuoted(content, i+1, end, b)
			if !ok {
				return 0, false
			}
			i = j
			continue
		}
		i++
	}
	return 0, false
}

func skipQuoted(content []byte, i, end uint32, q byte) (uint32, bool) {
	for i < end {
		b := content[i]
		switch {
		case b == '\\':
			i += 2
			continue
		case q != '\'' && b == '#' && i+1 < end && content[i+1] == '{':
			j, ok := matchBrace(content, i+2, end)
			if !ok {
				return 0, false
			}
			i = j + 1
			continue
		case b == q:
			return i + 1, true
		}
		i++
	}
	return 0, false
}
