package parser

import (
	"strings"

	"rbsec/internal/ast"
	"rbsec/internal/diag"
	"rbsec/internal/token"
)

// parseDef разбирает определение метода:
//
//	def name(params) ... end
//	def self.name ... end
//	def name = expr
//
// Тело получает новую область видимости локальных переменных.
func (p *Parser) parseDef() (ast.StmtID, bool) {
	kw := p.advance()
	data := ast.StmtDefData{Singleton: ast.NoExprID}

	nameTok, ok := p.parseDefName()
	if !ok {
		return ast.NoStmtID, false
	}
	if p.at(token.Dot) && !p.lx.Peek().HasSpaceBefore() {
		switch nameTok.Kind {
		case token.KwSelf:
			data.Singleton = p.arenas.Exprs.NewLiteral(nameTok.Span, ast.ExprLiteralData{Kind: ast.LitSelf, Value: "self"})
		case token.Const:
			data.Singleton = p.arenas.Exprs.NewConst(nameTok.Span, ast.ExprConstData{Name: nameTok.Text, NameSpan: nameTok.Span})
		case token.Ident:
			data.Singleton = p.arenas.Exprs.NewIdent(nameTok.Span, ast.ExprIdentData{Name: nameTok.Text, Local: p.scope.isLocal(nameTok.Text)})
		default:
			p.report(diag.SynUnexpectedToken, diag.SevError, nameTok.Span, "unexpected "+describe(nameTok)+" before '.' in method name")
			return ast.NoStmtID, false
		}
		p.advance()
		nameTok, ok = p.parseDefName()
		if !ok {
			return ast.NoStmtID, false
		}
	}
	data.Name = nameTok.Text
	data.NameSpan = nameTok.Span

	// def name=(value)
	if next := p.lx.Peek(); next.Kind == token.Assign && !next.HasSpaceBefore() {
		eq := p.advance()
		data.Name += "="
		data.NameSpan = data.NameSpan.Cover(eq.Span)
	}

	p.pushScope(true)
	defer p.popScope()

	switch next := p.lx.Peek(); {
	case next.Kind == token.LParen:
		open := p.advance()
		params, ok := p.parseParamList(0, token.RParen)
		if !ok {
			return ast.NoStmtID, false
		}
		if _, ok := p.expectClose(token.RParen, diag.SynUnclosedParen, "expected ')' to close parameter list", open.Span); !ok {
			return ast.NoStmtID, false
		}
		data.Params = params
	case next.Kind != token.Newline && next.Kind != token.Semicolon && next.Kind != token.Assign && next.Kind != token.EOF:
		params, ok := p.parseParamList(0, token.Newline, token.Semicolon)
		if !ok {
			return ast.NoStmtID, false
		}
		data.Params = params
	}

	// def name = expr
	if p.at(token.Assign) {
		p.advance()
		value, ok := p.parseStatementExpr()
		if !ok {
			return ast.NoStmtID, false
		}
		body := p.arenas.Stmts.NewExprStmt(p.exprSpan(value), ast.StmtExprData{Expr: value})
		data.Body.Body = []ast.StmtID{body}
		return p.arenas.Stmts.NewDef(p.coverStmts(kw.Span, data.Body.Body), data), true
	}

	data.Body = p.parseBodystmt()
	endTok, ok := p.expectClose(token.KwEnd, diag.SynExpectEnd, "expected 'end' to close 'def "+data.Name+"'", kw.Span)
	if !ok {
		return ast.NoStmtID, false
	}
	return p.arenas.Stmts.NewDef(kw.Span.Cover(endTok.Span), data), true
}

// parseDefName accepts identifiers, constants, keywords ("def end?" is
// rare but legal) and operator method names such as ==, <=>, [] and []=.
func (p *Parser) parseDefName() (token.Token, bool) {
	tok := p.lx.Peek()
	switch {
	case tok.Kind == token.Ident || tok.Kind == token.Const || tok.IsKeyword():
		return p.advance(), true
	case tok.Kind == token.LBracket:
		open := p.advance()
		closeTok, ok := p.expect(token.RBracket, diag.SynUnclosedBracket, "expected ']' in method name")
		if !ok {
			return token.Token{}, false
		}
		name := token.Token{Kind: token.Ident, Span: open.Span.Cover(closeTok.Span), Text: "[]"}
		if next := p.lx.Peek(); next.Kind == token.Assign && !next.HasSpaceBefore() && p.noSpaceAfter(next) {
			eq := p.advance()
			name.Span = name.Span.Cover(eq.Span)
			name.Text = "[]="
		}
		return name, true
	case tok.IsPunctOrOp() && tok.Kind != token.LParen:
		return p.advance(), true
	}
	p.err(diag.SynExpectIdentifier, "expected method name, got "+describe(tok))
	return token.Token{}, false
}

// parseParamList разбирает параметры метода, блока или лямбды до одного из
// closers (сам closer не съедается). minPrec ограничивает значения по
// умолчанию: внутри |...| оператор '|' закрывает список.
func (p *Parser) parseParamList(minPrec int, closers ...token.Kind) ([]ast.Param, bool) {
	multiline := true
	for _, k := range closers {
		if k == token.Newline {
			multiline = false
		}
	}
	var params []ast.Param
	for !p.stopped {
		if multiline {
			p.skipNewlines()
		}
		if p.at_or(closers...) || p.at(token.EOF) {
			break
		}
		items, ok := p.parseParam(minPrec)
		if !ok {
			return params, false
		}
		params = append(params, items...)
		// block-local variables: |a; b|
		if !p.at(token.Comma) && !(p.at(token.Semicolon) && !p.at_or(closers...)) {
			break
		}
		p.advance()
	}
	return params, true
}

func (p *Parser) parseParam(minPrec int) ([]ast.Param, bool) {
	tok := p.lx.Peek()
	switch tok.Kind {
	case token.Star, token.Pow, token.Amp:
		p.advance()
		param := ast.Param{Span: tok.Span, Prefix: tok.Text, Default: ast.NoExprID}
		if p.at(token.Ident) {
			name := p.advance()
			param.Name = name.Text
			param.Span = tok.Span.Cover(name.Span)
			p.scope.declare(name.Text)
		} else if tok.Kind == token.Pow && p.at(token.KwNil) {
			name := p.advance()
			param.Span = tok.Span.Cover(name.Span)
		}
		return []ast.Param{param}, true

	case token.DotDotDot:
		p.advance()
		return []ast.Param{{Span: tok.Span, Prefix: "...", Default: ast.NoExprID}}, true

	case token.LParen:
		// destructuring: |(a, b), c|
		open := p.advance()
		inner, ok := p.parseParamList(0, token.RParen)
		if !ok {
			return nil, false
		}
		if _, ok := p.expectClose(token.RParen, diag.SynUnclosedParen, "expected ')' to close parameter group", open.Span); !ok {
			return nil, false
		}
		return inner, true

	case token.Label:
		label := p.advance()
		name := strings.TrimSuffix(label.Text, ":")
		param := ast.Param{Name: name, Span: label.Span, Keyword: true, Default: ast.NoExprID}
		p.scope.declare(name)
		if !p.at_or(token.Comma, token.RParen, token.Pipe, token.Newline, token.Semicolon, token.EOF) {
			def, ok := p.parseBinaryExpr(defaultPrec(minPrec))
			if !ok {
				return nil, false
			}
			param.Default = def
			param.Span = param.Span.Cover(p.exprSpan(def))
		}
		return []ast.Param{param}, true

	case token.Ident:
		name := p.advance()
		param := ast.Param{Name: name.Text, Span: name.Span, Default: ast.NoExprID}
		p.scope.declare(name.Text)
		if p.at(token.Assign) {
			p.advance()
			def, ok := p.parseBinaryExpr(defaultPrec(minPrec))
			if !ok {
				return nil, false
			}
			param.Default = def
			param.Span = param.Span.Cover(p.exprSpan(def))
		}
		return []ast.Param{param}, true
	}
	p.err(diag.SynExpectIdentifier, "expected parameter name, got "+describe(tok))
	return nil, false
}

func defaultPrec(minPrec int) int {
	if minPrec > precTernary {
		return minPrec
	}
	return precTernary
}
