package parser

import (
	"rbsec/internal/ast"
	"rbsec/internal/diag"
	"rbsec/internal/token"
)

// parsePrimaryExpr парсит основные (атомарные) выражения
func (p *Parser) parsePrimaryExpr() (ast.ExprID, bool) {
	tok := p.lx.Peek()
	switch tok.Kind {
	case token.Ident:
		return p.parseIdentExpr()

	case token.Const:
		return p.parseConstExpr()

	case token.ColonColon:
		// ::Kernel
		p.advance()
		nameTok, ok := p.expect(token.Const, diag.SynExpectIdentifier, "expected constant after '::', got "+describe(p.lx.Peek()))
		if !ok {
			return ast.NoExprID, false
		}
		return p.arenas.Exprs.NewConst(tok.Span.Cover(nameTok.Span), ast.ExprConstData{
			TopLevel: true,
			Name:     nameTok.Text,
			NameSpan: nameTok.Span,
		}), true

	case token.IVar, token.GVar:
		p.advance()
		return p.arenas.Exprs.NewVar(tok.Span, ast.ExprVarData{Name: tok.Text}), true

	case token.Int:
		p.advance()
		return p.newLiteral(tok, ast.LitInt), true
	case token.Float:
		p.advance()
		return p.newLiteral(tok, ast.LitFloat), true
	case token.Symbol:
		p.advance()
		return p.newLiteral(tok, ast.LitSymbol), true
	case token.Regexp:
		p.advance()
		return p.newLiteral(tok, ast.LitRegexp), true
	case token.XString:
		p.advance()
		return p.newLiteral(tok, ast.LitXString), true
	case token.Words:
		p.advance()
		return p.newLiteral(tok, ast.LitWords), true
	case token.KwNil:
		p.advance()
		return p.newLiteral(tok, ast.LitNil), true
	case token.KwTrue:
		p.advance()
		return p.newLiteral(tok, ast.LitTrue), true
	case token.KwFalse:
		p.advance()
		return p.newLiteral(tok, ast.LitFalse), true
	case token.KwSelf:
		p.advance()
		return p.newLiteral(tok, ast.LitSelf), true

	case token.String, token.Heredoc:
		return p.parseStringLiteral()

	case token.KwYield:
		p.advance()
		return p.parseCallRest(ast.NoExprID, tok, false)

	case token.LParen:
		return p.parseParenExpr()

	case token.LBracket:
		return p.parseArrayExpr()

	case token.LBrace:
		return p.parseHashExpr()

	case token.Arrow:
		return p.parseLambda()
	}

	if isCompoundStart(tok.Kind) {
		// if/case/begin/def/... как значение
		stmtID, ok := p.parseStmtBase()
		if !ok {
			return ast.NoExprID, false
		}
		return p.arenas.Exprs.NewGroup(p.stmtSpan(stmtID), ast.ExprGroupData{Body: []ast.StmtID{stmtID}}), true
	}

	p.err(diag.SynExpectExpression, "expected expression, got "+describe(tok))
	return ast.NoExprID, false
}

func (p *Parser) newLiteral(tok token.Token, kind ast.ExprLitKind) ast.ExprID {
	return p.arenas.Exprs.NewLiteral(tok.Span, ast.ExprLiteralData{Kind: kind, Value: tok.Text})
}

// parseIdentExpr различает чтение локальной переменной и вызов метода.
// Имя, которому ранее в этой области присвоено значение, это переменная,
// если за ним не идут скобки или явный аргумент ("p 1" остаётся вызовом).
func (p *Parser) parseIdentExpr() (ast.ExprID, bool) {
	tok := p.advance()
	if p.scope.isLocal(tok.Text) {
		next := p.lx.Peek()
		call := (next.Kind == token.LParen && !next.HasSpaceBefore()) || p.startsCommandArg(next, true)
		if !call {
			return p.arenas.Exprs.NewIdent(tok.Span, ast.ExprIdentData{Name: tok.Text, Local: true}), true
		}
	}
	return p.parseCallRest(ast.NoExprID, tok, false)
}

// parseConstExpr: константа, либо вызов метода с именем константы "Integer(x)".
func (p *Parser) parseConstExpr() (ast.ExprID, bool) {
	tok := p.advance()
	if next := p.lx.Peek(); next.Kind == token.LParen && !next.HasSpaceBefore() {
		return p.parseCallRest(ast.NoExprID, tok, false)
	}
	return p.arenas.Exprs.NewConst(tok.Span, ast.ExprConstData{Name: tok.Text, NameSpan: tok.Span}), true
}

// parseParenExpr: "(expr)", "(a; b)" и пустые "()".
func (p *Parser) parseParenExpr() (ast.ExprID, bool) {
	open := p.advance()
	prevNoDo := p.noDo
	p.noDo = false
	body := p.parseStmts()
	p.noDo = prevNoDo
	closeTok, ok := p.expectClose(token.RParen, diag.SynUnclosedParen, "expected ')' to close parenthesized expression", open.Span)
	if !ok {
		return ast.NoExprID, false
	}
	return p.arenas.Exprs.NewGroup(open.Span.Cover(closeTok.Span), ast.ExprGroupData{Body: body}), true
}

func (p *Parser) parseArrayExpr() (ast.ExprID, bool) {
	open := p.advance()
	elems, ok := p.parseArgs(token.RBracket)
	if !ok {
		return ast.NoExprID, false
	}
	closeTok, ok := p.expectClose(token.RBracket, diag.SynUnclosedBracket, "expected ']' to close array literal", open.Span)
	if !ok {
		return ast.NoExprID, false
	}
	return p.arenas.Exprs.NewArray(open.Span.Cover(closeTok.Span), ast.ExprArrayData{Elements: elems}), true
}

// parseHashExpr разбирает "{k => v, key: v, "str": v, **other}".
func (p *Parser) parseHashExpr() (ast.ExprID, bool) {
	open := p.advance()
	prevNoDo := p.noDo
	p.noDo = false
	defer func() { p.noDo = prevNoDo }()

	var pairs []ast.HashPair
	for !p.stopped {
		p.skipNewlines()
		if p.at(token.RBrace) {
			break
		}
		pair, ok := p.parseHashPair()
		if !ok {
			return ast.NoExprID, false
		}
		pairs = append(pairs, pair)
		p.skipNewlines()
		if !p.at(token.Comma) {
			break
		}
		p.advance()
	}
	closeTok, ok := p.expectClose(token.RBrace, diag.SynUnclosedBrace, "expected '}' to close hash literal", open.Span)
	if !ok {
		return ast.NoExprID, false
	}
	return p.arenas.Exprs.NewHash(open.Span.Cover(closeTok.Span), ast.ExprHashData{Pairs: pairs, Braces: true}), true
}

func (p *Parser) parseHashPair() (ast.HashPair, bool) {
	if p.at(token.Label) {
		return p.parseLabelPair(token.RBrace)
	}
	key, ok := p.parseArgValue()
	if !ok {
		return ast.HashPair{}, false
	}
	switch next := p.lx.Peek(); {
	case next.Kind == token.FatArrow:
		p.advance()
	case next.Kind == token.Colon && !next.HasSpaceBefore() && p.isStr(key):
		p.advance()
	default:
		if u, ok := p.arenas.Exprs.Unary(key); ok && u.Op == "**" {
			return ast.HashPair{Key: ast.NoExprID, Value: key}, true
		}
		p.err(diag.SynUnexpectedToken, "expected '=>' in hash literal, got "+describe(next))
		return ast.HashPair{}, false
	}
	p.skipNewlines()
	value, ok := p.parseArgValue()
	if !ok {
		return ast.HashPair{}, false
	}
	return ast.HashPair{Key: key, Value: value}, true
}

func (p *Parser) isStr(id ast.ExprID) bool {
	_, ok := p.arenas.Exprs.Str(id)
	return ok
}
