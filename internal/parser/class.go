package parser

import (
	"rbsec/internal/ast"
	"rbsec/internal/diag"
	"rbsec/internal/token"
)

// parseClass разбирает "class Path [< Super] ... end" и "class << obj ... end".
func (p *Parser) parseClass() (ast.StmtID, bool) {
	kw := p.advance()
	data := ast.StmtClassData{Path: ast.NoExprID, Super: ast.NoExprID}

	if p.at(token.Shl) {
		p.advance()
		obj, ok := p.parseExpr()
		if !ok {
			return ast.NoStmtID, false
		}
		data.Path = obj
	} else {
		path, ok := p.parseConstPath()
		if !ok {
			return ast.NoStmtID, false
		}
		data.Path = path
		if p.at(token.Lt) {
			p.advance()
			super, ok := p.parseExpr()
			if !ok {
				return ast.NoStmtID, false
			}
			data.Super = super
		}
	}

	p.pushScope(true)
	data.Body = p.parseBodystmt()
	p.popScope()

	endTok, ok := p.expectClose(token.KwEnd, diag.SynExpectEnd, "expected 'end' to close 'class'", kw.Span)
	if !ok {
		return ast.NoStmtID, false
	}
	return p.arenas.Stmts.NewClass(kw.Span.Cover(endTok.Span), data, false), true
}

func (p *Parser) parseModule() (ast.StmtID, bool) {
	kw := p.advance()
	path, ok := p.parseConstPath()
	if !ok {
		return ast.NoStmtID, false
	}

	p.pushScope(true)
	body := p.parseBodystmt()
	p.popScope()

	endTok, ok := p.expectClose(token.KwEnd, diag.SynExpectEnd, "expected 'end' to close 'module'", kw.Span)
	if !ok {
		return ast.NoStmtID, false
	}
	return p.arenas.Stmts.NewClass(kw.Span.Cover(endTok.Span), ast.StmtClassData{
		Path:  path,
		Super: ast.NoExprID,
		Body:  body,
	}, true), true
}

// parseConstPath разбирает Name, A::B::C и ::Name.
func (p *Parser) parseConstPath() (ast.ExprID, bool) {
	scope := ast.NoExprID
	topLevel := false
	if p.at(token.ColonColon) {
		p.advance()
		topLevel = true
	}
	for {
		nameTok, ok := p.expect(token.Const, diag.SynExpectIdentifier, "expected constant name, got "+describe(p.lx.Peek()))
		if !ok {
			return ast.NoExprID, false
		}
		span := nameTok.Span
		if scope.IsValid() {
			span = p.exprSpan(scope).Cover(span)
		}
		scope = p.arenas.Exprs.NewConst(span, ast.ExprConstData{
			Scope:    scope,
			TopLevel: topLevel,
			Name:     nameTok.Text,
			NameSpan: nameTok.Span,
		})
		topLevel = false
		if !p.at(token.ColonColon) {
			return scope, true
		}
		p.advance()
	}
}
