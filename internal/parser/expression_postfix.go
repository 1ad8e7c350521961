package parser

import (
	"rbsec/internal/ast"
	"rbsec/internal/diag"
	"rbsec/internal/token"
)

// parsePostfixExpr обрабатывает постфиксы: .method, &.method, ::Name, [index]
func (p *Parser) parsePostfixExpr() (ast.ExprID, bool) {
	expr, ok := p.parsePrimaryExpr()
	if !ok {
		return ast.NoExprID, false
	}

	for !p.stopped {
		tok := p.lx.Peek()
		switch tok.Kind {
		case token.Dot, token.SafeNav:
			expr, ok = p.parseMethodCall(expr)

		case token.ColonColon:
			if tok.HasSpaceBefore() {
				return expr, true
			}
			expr, ok = p.parseScopedName(expr)

		case token.LBracket:
			// "x [1]" индексирует только локальную переменную
			if tok.HasSpaceBefore() && !p.isLocalRead(expr) {
				return expr, true
			}
			expr, ok = p.parseIndexExpr(expr)

		default:
			return expr, true
		}
		if !ok {
			return ast.NoExprID, false
		}
	}
	return expr, true
}

func (p *Parser) isLocalRead(id ast.ExprID) bool {
	ident, ok := p.arenas.Exprs.Ident(id)
	return ok && ident.Local
}

// parseMethodCall разбирает "recv.name ...", "recv&.name ..." и "recv.(args)".
func (p *Parser) parseMethodCall(recv ast.ExprID) (ast.ExprID, bool) {
	dot := p.advance()
	safeNav := dot.Kind == token.SafeNav
	p.skipNewlines()

	nameTok := p.lx.Peek()
	switch {
	case nameTok.Kind == token.Ident || nameTok.Kind == token.Const || nameTok.IsKeyword():
		p.advance()
	case nameTok.Kind == token.LParen:
		// recv.(args) is recv.call(args)
		nameTok = token.Token{Kind: token.Ident, Span: dot.Span, Text: "call"}
	case nameTok.IsPunctOrOp():
		p.advance()
	default:
		p.err(diag.SynExpectIdentifier, "expected method name after '"+dot.Text+"', got "+describe(nameTok))
		return ast.NoExprID, false
	}
	return p.parseCallRest(recv, nameTok, safeNav)
}

// parseScopedName разбирает "Scope::Const" и "Scope::method".
func (p *Parser) parseScopedName(scope ast.ExprID) (ast.ExprID, bool) {
	p.advance()
	nameTok := p.lx.Peek()
	switch nameTok.Kind {
	case token.Const:
		p.advance()
		if next := p.lx.Peek(); next.Kind == token.LParen && !next.HasSpaceBefore() {
			return p.parseCallRest(scope, nameTok, false)
		}
		span := p.exprSpan(scope).Cover(nameTok.Span)
		return p.arenas.Exprs.NewConst(span, ast.ExprConstData{
			Scope:    scope,
			Name:     nameTok.Text,
			NameSpan: nameTok.Span,
		}), true
	case token.Ident:
		p.advance()
		return p.parseCallRest(scope, nameTok, false)
	}
	if nameTok.IsKeyword() {
		p.advance()
		return p.parseCallRest(scope, nameTok, false)
	}
	p.err(diag.SynExpectIdentifier, "expected name after '::', got "+describe(nameTok))
	return ast.NoExprID, false
}

func (p *Parser) parseIndexExpr(target ast.ExprID) (ast.ExprID, bool) {
	open := p.advance()
	args, ok := p.parseArgs(token.RBracket)
	if !ok {
		return ast.NoExprID, false
	}
	closeTok, ok := p.expectClose(token.RBracket, diag.SynUnclosedBracket, "expected ']' to close index", open.Span)
	if !ok {
		return ast.NoExprID, false
	}
	span := p.exprSpan(target).Cover(closeTok.Span)
	return p.arenas.Exprs.NewIndex(span, ast.ExprIndexData{Target: target, Args: args}), true
}
