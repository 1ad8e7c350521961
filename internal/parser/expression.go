package parser

import (
	"rbsec/internal/ast"
	"rbsec/internal/diag"
	"rbsec/internal/source"
	"rbsec/internal/token"
)

// parseExpr - главная точка входа для парсинга выражений уровня аргумента
// (без and/or/not).
func (p *Parser) parseExpr() (ast.ExprID, bool) {
	return p.parseBinaryExpr(precAssignment)
}

// parseArgValue разбирает один аргумент вызова или элемент списка.
func (p *Parser) parseArgValue() (ast.ExprID, bool) {
	return p.parseBinaryExpr(precAssignment)
}

// parseBinaryExpr реализует Pratt parsing для бинарных операторов.
// Присваивание и тернарный оператор обрабатываются в том же цикле.
func (p *Parser) parseBinaryExpr(minPrec int) (ast.ExprID, bool) {
	left, ok := p.parseUnaryExpr()
	if !ok {
		return ast.NoExprID, false
	}

	for !p.stopped {
		tok := p.lx.Peek()

		if tok.IsAssignOp() {
			if minPrec > precAssignment {
				break
			}
			left, ok = p.parseAssignment(left)
			if !ok {
				return ast.NoExprID, false
			}
			continue
		}

		if tok.Kind == token.Question {
			if minPrec > precTernary {
				break
			}
			left, ok = p.parseTernary(left)
			if !ok {
				return ast.NoExprID, false
			}
			continue
		}

		prec, isRightAssoc := p.getBinaryOperatorPrec(tok.Kind)
		if prec < 0 || prec < minPrec {
			break
		}
		opTok := p.advance()

		// endless range: "1.." перед ')' или концом строки
		if (opTok.Kind == token.DotDot || opTok.Kind == token.DotDotDot) && !p.startsExpr(p.lx.Peek()) {
			span := p.exprSpan(left).Cover(opTok.Span)
			left = p.arenas.Exprs.NewBinary(span, ast.ExprBinaryData{Op: opTok.Text, Left: left, Right: ast.NoExprID})
			continue
		}

		nextMinPrec := prec + 1
		if isRightAssoc {
			nextMinPrec = prec
		}
		right, ok := p.parseBinaryExpr(nextMinPrec)
		if !ok {
			return ast.NoExprID, false
		}

		finalSpan := p.exprSpan(left).Cover(p.exprSpan(right))
		left = p.arenas.Exprs.NewBinary(finalSpan, ast.ExprBinaryData{Op: opTok.Text, Left: left, Right: right})
	}

	return left, true
}

func (p *Parser) parseTernary(cond ast.ExprID) (ast.ExprID, bool) {
	p.advance() // '?'
	p.skipNewlines()
	thenExpr, ok := p.parseBinaryExpr(precTernary)
	if !ok {
		return ast.NoExprID, false
	}
	p.skipNewlines()
	if _, ok := p.expect(token.Colon, diag.SynUnexpectedToken, "expected ':' in conditional expression"); !ok {
		return ast.NoExprID, false
	}
	p.skipNewlines()
	elseExpr, ok := p.parseBinaryExpr(precTernary)
	if !ok {
		return ast.NoExprID, false
	}
	span := p.exprSpan(cond).Cover(p.exprSpan(elseExpr))
	return p.arenas.Exprs.NewTernary(span, ast.ExprTernaryData{Cond: cond, Then: thenExpr, Else: elseExpr}), true
}

// parseAssignment разбирает "target op value". Локальная переменная
// объявляется до разбора правой части: в "x = x" справа уже переменная.
func (p *Parser) parseAssignment(left ast.ExprID) (ast.ExprID, bool) {
	opTok := p.advance()
	target, ok := p.toTarget(left)
	if !ok {
		p.report(diag.SynBadAssignTarget, diag.SevError, p.exprSpan(left), "cannot assign to this expression")
		return ast.NoExprID, false
	}
	value, ok := p.parseBinaryExpr(precAssignment)
	if !ok {
		return ast.NoExprID, false
	}
	span := p.exprSpan(target).Cover(p.exprSpan(value))
	return p.arenas.Exprs.NewAssign(span, ast.ExprAssignData{
		Targets: []ast.ExprID{target},
		Op:      assignOpText(opTok.Kind),
		Value:   value,
	}), true
}

// toTarget превращает разобранное выражение в цель присваивания.
// Вызов без аргументов "foo" становится локальной переменной, "obj.foo"
// становится вызовом сеттера "foo=".
func (p *Parser) toTarget(id ast.ExprID) (ast.ExprID, bool) {
	expr := p.arenas.Exprs.Get(id)
	if expr == nil {
		return ast.NoExprID, false
	}
	switch expr.Kind {
	case ast.ExprIdent:
		ident, _ := p.arenas.Exprs.Ident(id)
		p.scope.declare(ident.Name)
		ident.Local = true
		return id, true

	case ast.ExprCall:
		call, _ := p.arenas.Exprs.Call(id)
		if len(call.Args) > 0 || call.HasParens || call.Block.IsValid() {
			return ast.NoExprID, false
		}
		if !call.Receiver.IsValid() {
			if !isLocalName(call.Name) {
				return ast.NoExprID, false
			}
			p.scope.declare(call.Name)
			return p.arenas.Exprs.NewIdent(call.NameSpan, ast.ExprIdentData{Name: call.Name, Local: true}), true
		}
		setter := *call
		setter.Name += "="
		return p.arenas.Exprs.NewCall(expr.Span, setter), true

	case ast.ExprVar, ast.ExprConst, ast.ExprIndex:
		return id, true

	case ast.ExprUnary:
		unary, _ := p.arenas.Exprs.Unary(id)
		if unary.Op != "*" {
			return ast.NoExprID, false
		}
		if !unary.Operand.IsValid() {
			return id, true
		}
		inner, ok := p.toTarget(unary.Operand)
		if !ok {
			return ast.NoExprID, false
		}
		unary.Operand = inner
		return id, true
	}
	return ast.NoExprID, false
}

func isLocalName(name string) bool {
	if name == "" {
		return false
	}
	last := name[len(name)-1]
	return last != '?' && last != '!'
}

// parseUnaryExpr обрабатывает унарные операторы (префиксы)
func (p *Parser) parseUnaryExpr() (ast.ExprID, bool) {
	tok := p.lx.Peek()
	switch tok.Kind {
	case token.Bang, token.Tilde, token.Plus:
		p.advance()
		operand, ok := p.parseUnaryExpr()
		if !ok {
			return ast.NoExprID, false
		}
		return p.newUnary(tok, operand), true

	case token.Minus:
		p.advance()
		operand, ok := p.parseBinaryExpr(precUnaryMinus)
		if !ok {
			return ast.NoExprID, false
		}
		return p.newUnary(tok, operand), true

	case token.Star, token.Pow, token.Amp:
		// splat, double splat, block pass; "foo(*)" и "foo(&)" без операнда
		p.advance()
		if !p.startsExpr(p.lx.Peek()) {
			return p.arenas.Exprs.NewUnary(tok.Span, ast.ExprUnaryData{Op: tok.Text, Operand: ast.NoExprID}), true
		}
		operand, ok := p.parseBinaryExpr(precLogicalOr)
		if !ok {
			return ast.NoExprID, false
		}
		return p.newUnary(tok, operand), true

	case token.DotDot, token.DotDotDot:
		// beginless range
		p.advance()
		operand, ok := p.parseBinaryExpr(precLogicalOr)
		if !ok {
			return ast.NoExprID, false
		}
		span := tok.Span.Cover(p.exprSpan(operand))
		return p.arenas.Exprs.NewBinary(span, ast.ExprBinaryData{Op: tok.Text, Left: ast.NoExprID, Right: operand}), true

	case token.KwNot:
		p.advance()
		operand, ok := p.parseUnaryExpr()
		if !ok {
			return ast.NoExprID, false
		}
		return p.arenas.Exprs.NewUnary(tok.Span.Cover(p.exprSpan(operand)), ast.ExprUnaryData{Op: "not", Operand: operand}), true
	}
	return p.parsePostfixExpr()
}

func (p *Parser) newUnary(opTok token.Token, operand ast.ExprID) ast.ExprID {
	span := opTok.Span.Cover(p.exprSpan(operand))
	return p.arenas.Exprs.NewUnary(span, ast.ExprUnaryData{Op: opTok.Text, Operand: operand})
}

// startsExpr reports whether tok can begin an expression.
func (p *Parser) startsExpr(tok token.Token) bool {
	switch tok.Kind {
	case token.Ident, token.Const, token.IVar, token.GVar, token.Int, token.Float,
		token.String, token.Symbol, token.Label, token.Regexp, token.XString, token.Heredoc, token.Words,
		token.KwNil, token.KwTrue, token.KwFalse, token.KwSelf, token.KwNot, token.KwYield,
		token.LParen, token.LBracket, token.LBrace, token.ColonColon, token.Arrow,
		token.Bang, token.Tilde, token.Minus, token.Plus, token.Star, token.Pow, token.Amp,
		token.DotDot, token.DotDotDot:
		return true
	}
	return isCompoundStart(tok.Kind)
}

// startsCommandArg reports whether tok begins the first argument of a
// call written without parentheses ("open x", "puts -1", "foo [1]").
// Tokens that could also continue a binary expression count only when
// they hug their operand; after a local variable they never do.
func (p *Parser) startsCommandArg(tok token.Token, local bool) bool {
	if !tok.HasSpaceBefore() || tok.AtLineStart() {
		return false
	}
	switch tok.Kind {
	case token.Ident, token.Const, token.IVar, token.GVar, token.Int, token.Float,
		token.String, token.Symbol, token.Label, token.Regexp, token.XString, token.Heredoc, token.Words,
		token.KwNil, token.KwTrue, token.KwFalse, token.KwSelf, token.KwNot, token.KwDef,
		token.KwYield, token.Arrow:
		return true
	case token.LParen:
		return !local
	case token.LBracket, token.Minus, token.Star, token.Pow, token.Amp, token.ColonColon, token.Bang, token.Tilde:
		return !local && p.noSpaceAfter(tok)
	}
	return false
}

func (p *Parser) coverExprs(base source.Span, ids []ast.ExprID) source.Span {
	if len(ids) == 0 {
		return base
	}
	return base.Cover(p.exprSpan(ids[len(ids)-1]))
}
