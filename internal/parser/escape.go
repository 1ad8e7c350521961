package parser

import (
	"bytes"
	"strconv"
	"strings"
	"unicode/utf8"

	"rbsec/internal/diag"
	"rbsec/internal/source"
)

var simpleEscapes = map[byte]byte{
	'n': '\n',
	't': '\t',
	's': ' ',
	'r': '\r',
	'e': 0x1b,
	'a': 0x07,
	'b': 0x08,
	'f': 0x0c,
	'v': 0x0b,
	'0': 0x00,
}

// unescapeDouble раскодирует одну escape-последовательность в начале rest
// (rest[0] == '\\') и возвращает число съеденных байт.
func (p *Parser) unescapeDouble(out *strings.Builder, rest []byte, file source.FileID, off uint32) uint32 {
	if len(rest) < 2 {
		out.WriteByte('\\')
		return 1
	}
	c := rest[1]
	switch {
	case c == '\n':
		// продолжение строки
		return 2
	case c == 'u':
		n, ok := decodeUnicodeEscape(rest[2:], out)
		if !ok {
			p.report(diag.LexBadEscape, diag.SevError, source.Span{File: file, Start: off, End: off + 2 + n}, "invalid Unicode escape")
		}
		return 2 + n
	case c == 'x':
		n := 0
		for n < 2 && n+2 < len(rest) && isHex(rest[n+2]) {
			n++
		}
		if n == 0 {
			p.report(diag.LexBadEscape, diag.SevError, source.Span{File: file, Start: off, End: off + 2}, "invalid hex escape")
			return 2
		}
		v, _ := strconv.ParseUint(string(rest[2:2+n]), 16, 8)
		out.WriteByte(byte(v))
		return uint32(2 + n)
	case c >= '0' && c <= '7':
		n := 0
		for n < 3 && n+1 < len(rest) && rest[n+1] >= '0' && rest[n+1] <= '7' {
			n++
		}
		v, _ := strconv.ParseUint(string(rest[1:1+n]), 8, 16)
		out.WriteByte(byte(v))
		return uint32(1 + n)
	}
	if b, ok := simpleEscapes[c]; ok {
		out.WriteByte(b)
		return 2
	}
	// "\#", "\"", "\\" и всё остальное означает сам символ
	_, size := utf8.DecodeRune(rest[1:])
	out.Write(rest[1 : 1+size])
	return uint32(1 + size)
}

// decodeUnicodeEscape разбирает хвост "\u": "XXXX" либо "{X XX ...}".
func decodeUnicodeEscape(rest []byte, out *strings.Builder) (uint32, bool) {
	if len(rest) > 0 && rest[0] == '{' {
		i := 1
		seen := false
		for i < len(rest) && rest[i] != '}' {
			if rest[i] == ' ' || rest[i] == '\t' {
				i++
				continue
			}
			j := i
			for j < len(rest) && isHex(rest[j]) {
				j++
			}
			if j == i || j-i > 6 {
				return uint32(j), false
			}
			v, _ := strconv.ParseUint(string(rest[i:j]), 16, 32)
			if !utf8.ValidRune(rune(v)) {
				return uint32(j), false
			}
			out.WriteRune(rune(v))
			seen = true
			i = j
		}
		if i >= len(rest) || !seen {
			return uint32(i), false
		}
		return uint32(i + 1), true
	}

	if len(rest) < 4 {
		return uint32(len(rest)), false
	}
	for _, b := range rest[:4] {
		if !isHex(b) {
			return 0, false
		}
	}
	v, _ := strconv.ParseUint(string(rest[:4]), 16, 32)
	r := rune(v)
	if !utf8.ValidRune(r) {
		return 4, false
	}
	out.WriteRune(r)
	return 4, true
}

func isHex(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

// heredocIndent - минимальный отступ непустых строк тела "<<~".
// Табуляция выравнивает до следующей позиции, кратной 8.
func heredocIndent(body []byte) int {
	minIndent := -1
	for len(body) > 0 {
		line := body
		if i := bytes.IndexByte(body, '\n'); i >= 0 {
			line = body[:i]
			body = body[i+1:]
		} else {
			body = nil
		}
		width, blank := 0, true
		for _, b := range line {
			if b == ' ' {
				width++
				continue
			}
			if b == '\t' {
				width = (width/8 + 1) * 8
				continue
			}
			blank = false
			break
		}
		if blank {
			continue
		}
		if minIndent < 0 || width < minIndent {
			minIndent = width
		}
	}
	if minIndent < 0 {
		return 0
	}
	return minIndent
}

// skipIndent пропускает до indent колонок отступа, начиная с i.
func skipIndent(content []byte, i, end uint32, indent int) uint32 {
	width := 0
	for i < end && width < indent {
		switch content[i] {
		case ' ':
			width++
		case '\t':
			next := (width/8 + 1) * 8
			if next > indent {
				return i
			}
			width = next
		default:
			return i
		}
		i++
	}
	return i
}
