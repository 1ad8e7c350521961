package parser

import (
	"rbsec/internal/ast"
	"rbsec/internal/diag"
	"rbsec/internal/source"
	"rbsec/internal/token"
)

// advance: съедает следующий токен и обновляет lastSpan
func (p *Parser) advance() token.Token {
	tok := p.lx.Next()
	if tok.Kind != token.EOF && tok.Kind != token.Invalid {
		p.lastSpan = tok.Span
	}
	return tok
}

// getDiagnosticSpan: возвращает лучший span для диагностики.
// На EOF и переводе строки указываем на конец последнего токена.
func (p *Parser) getDiagnosticSpan() source.Span {
	peek := p.lx.Peek()
	if peek.Kind == token.EOF || peek.Kind == token.Newline {
		if p.lastSpan.End > 0 {
			return source.At(p.lastSpan.File, p.lastSpan.End)
		}
	}
	return peek.Span
}

// expect: ожидаем конкретный токен. Если нет, репортим и возвращаем (invalid,false).
func (p *Parser) expect(k token.Kind, code diag.Code, msg string) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	diagSpan := p.getDiagnosticSpan()
	p.report(code, diag.SevError, diagSpan, msg)
	return token.Token{Kind: token.Invalid, Span: diagSpan, Text: p.lx.Peek().Text}, false
}

// expectClose is expect for a closing "end", ")" or "]" with a note
// pointing at the opener.
func (p *Parser) expectClose(k token.Kind, code diag.Code, msg string, open source.Span) (token.Token, bool) {
	p.skipNewlines()
	if p.at(k) {
		return p.advance(), true
	}
	diagSpan := p.getDiagnosticSpan()
	if p.opts.Reporter != nil && !p.stopped {
		p.opts.CurrentErrors++
		if p.checkLimit(diagSpan) {
			diag.ReportError(p.opts.Reporter, code, diagSpan, msg).
				WithNote(open, "opened here").
				Emit()
		}
	}
	return token.Token{Kind: token.Invalid, Span: diagSpan}, false
}

// репортует ошибку и передает текущий спан
func (p *Parser) err(code diag.Code, msg string) bool {
	return p.report(code, diag.SevError, p.getDiagnosticSpan(), msg)
}

// репортует warning и передает текущий спан
func (p *Parser) warn(code diag.Code, msg string) bool {
	return p.report(code, diag.SevWarning, p.getDiagnosticSpan(), msg)
}

func (p *Parser) report(code diag.Code, sev diag.Severity, sp source.Span, msg string) bool {
	if p.opts.Reporter == nil || p.stopped {
		return false
	}
	if sev == diag.SevError {
		p.opts.CurrentErrors++
		if !p.checkLimit(sp) {
			return false
		}
	}
	p.opts.Reporter.Report(code, sev, sp, msg, nil, nil)
	return true
}

// checkLimit stops the parse once MaxErrors errors were counted. The
// error that crosses the limit is replaced by a single SynTooManyErrors.
func (p *Parser) checkLimit(sp source.Span) bool {
	if !p.opts.Enough() {
		return true
	}
	if p.opts.MaxErrors > 0 && p.opts.CurrentErrors == p.opts.MaxErrors {
		p.opts.Reporter.Report(diag.SynTooManyErrors, diag.SevError, sp, "too many syntax errors, giving up", nil, nil)
	}
	p.stopped = true
	return false
}

func (p *Parser) skipNewlines() {
	for p.at(token.Newline) {
		p.advance()
	}
}

func (p *Parser) skipTerminators() {
	for p.at_or(token.Newline, token.Semicolon) {
		p.advance()
	}
}

// resyncStatement: прокручиваем до конца строки или ';'. Съедает хотя бы
// один токен, если стоим не на разделителе.
func (p *Parser) resyncStatement() {
	first := true
	for {
		tok := p.lx.Peek()
		switch tok.Kind {
		case token.EOF, token.Newline, token.Semicolon:
			return
		case token.KwEnd, token.RBrace:
			if !first {
				return
			}
		}
		p.advance()
		first = false
	}
}

func (p *Parser) exprSpan(id ast.ExprID) source.Span {
	if e := p.arenas.Exprs.Get(id); e != nil {
		return e.Span
	}
	return p.lastSpan
}

func (p *Parser) stmtSpan(id ast.StmtID) source.Span {
	if s := p.arenas.Stmts.Get(id); s != nil {
		return s.Span
	}
	return p.lastSpan
}

// noSpaceAfter reports whether tok is immediately followed by a
// non-blank byte, as in "-1" or "*args".
func (p *Parser) noSpaceAfter(tok token.Token) bool {
	content := p.lx.File().Content
	if int(tok.Span.End) >= len(content) {
		return false
	}
	switch content[tok.Span.End] {
	case ' ', '\t', '\n', '\r':
		return false
	}
	return true
}
