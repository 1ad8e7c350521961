package parser

import (
	"rbsec/internal/ast"
	"rbsec/internal/diag"
	"rbsec/internal/token"
)

// isBodyEnd reports whether k closes the statement list being parsed.
func isBodyEnd(k token.Kind) bool {
	switch k {
	case token.EOF, token.KwEnd, token.KwElse, token.KwElsif, token.KwWhen, token.KwIn,
		token.KwRescue, token.KwEnsure, token.RBrace, token.RParen:
		return true
	}
	return false
}

// parseStmts разбирает последовательность statements до закрывающего
// ключевого слова, '}' , ')' или EOF. Сам закрывающий токен не съедается.
func (p *Parser) parseStmts() []ast.StmtID {
	var stmts []ast.StmtID
	for !p.stopped {
		p.skipTerminators()
		if isBodyEnd(p.lx.Peek().Kind) {
			break
		}
		stmtID, ok := p.parseStmt()
		if !ok {
			p.resyncStatement()
			continue
		}
		stmts = append(stmts, stmtID)
		if !p.at_or(token.Newline, token.Semicolon) && !isBodyEnd(p.lx.Peek().Kind) {
			p.err(diag.SynExpectNewline, "expected end of statement, got "+describe(p.lx.Peek()))
			p.resyncStatement()
		}
	}
	return stmts
}

func (p *Parser) parseStmt() (ast.StmtID, bool) {
	stmtID, ok := p.parseStmtBase()
	if !ok {
		return ast.NoStmtID, false
	}
	return p.parseModifiers(stmtID)
}

func (p *Parser) parseStmtBase() (ast.StmtID, bool) {
	switch p.lx.Peek().Kind {
	case token.KwDef:
		return p.parseDef()
	case token.KwClass:
		return p.parseClass()
	case token.KwModule:
		return p.parseModule()
	case token.KwIf, token.KwUnless:
		return p.parseIf()
	case token.KwWhile, token.KwUntil:
		return p.parseWhile()
	case token.KwCase:
		return p.parseCase()
	case token.KwFor:
		return p.parseFor()
	case token.KwBegin:
		return p.parseBegin()
	case token.KwReturn, token.KwBreak, token.KwNext:
		return p.parseReturnStmt()
	case token.KwRedo, token.KwRetry:
		tok := p.advance()
		return p.arenas.Stmts.NewAlias(tok.Span), true
	case token.KwAlias, token.KwUndef:
		return p.parseAliasStmt()
	default:
		return p.parseExprStmt()
	}
}

// isCompoundStart reports whether k starts a statement that may also be
// used as a value ("x = if ...", "private def ...").
func isCompoundStart(k token.Kind) bool {
	switch k {
	case token.KwDef, token.KwClass, token.KwModule, token.KwIf, token.KwUnless,
		token.KwWhile, token.KwUntil, token.KwCase, token.KwFor, token.KwBegin,
		token.KwReturn, token.KwBreak, token.KwNext, token.KwRedo, token.KwRetry:
		return true
	}
	return false
}

// parseModifiers разбирает хвостовые "if/unless/while/until/rescue".
func (p *Parser) parseModifiers(stmtID ast.StmtID) (ast.StmtID, bool) {
	for !p.stopped {
		kw := p.lx.Peek()
		switch kw.Kind {
		case token.KwIf, token.KwUnless, token.KwWhile, token.KwUntil, token.KwRescue:
		default:
			return stmtID, true
		}
		p.advance()
		cond, ok := p.parseStatementExpr()
		if !ok {
			return ast.NoStmtID, false
		}
		span := p.stmtSpan(stmtID).Cover(p.exprSpan(cond))
		switch kw.Kind {
		case token.KwIf, token.KwUnless:
			stmtID = p.arenas.Stmts.NewIf(span, ast.StmtIfData{
				Cond:     cond,
				Then:     []ast.StmtID{stmtID},
				Unless:   kw.Kind == token.KwUnless,
				Modifier: true,
			})
		case token.KwWhile, token.KwUntil:
			stmtID = p.arenas.Stmts.NewWhile(span, ast.StmtWhileData{
				Cond:     cond,
				Body:     []ast.StmtID{stmtID},
				Until:    kw.Kind == token.KwUntil,
				Modifier: true,
			})
		case token.KwRescue:
			fallback := p.arenas.Stmts.NewExprStmt(p.exprSpan(cond), ast.StmtExprData{Expr: cond})
			stmtID = p.arenas.Stmts.NewBegin(span, ast.StmtBeginData{Body: ast.Bodystmt{
				Body: []ast.StmtID{stmtID},
				Rescues: []ast.RescueClause{{
					Span: kw.Span.Cover(p.exprSpan(cond)),
					Var:  ast.NoExprID,
					Body: []ast.StmtID{fallback},
				}},
			}})
		}
	}
	return stmtID, true
}

func (p *Parser) parseExprStmt() (ast.StmtID, bool) {
	exprID, ok := p.parseStatementExpr()
	if !ok {
		return ast.NoStmtID, false
	}
	return p.arenas.Stmts.NewExprStmt(p.exprSpan(exprID), ast.StmtExprData{Expr: exprID}), true
}

// parseStatementExpr: выражение уровня statement: множественное
// присваивание, "not", "and", "or".
func (p *Parser) parseStatementExpr() (ast.ExprID, bool) {
	left, ok := p.parseNotExpr()
	if !ok {
		return ast.NoExprID, false
	}
	if p.at(token.Comma) {
		left, ok = p.parseMultiAssign(left)
		if !ok {
			return ast.NoExprID, false
		}
	}
	for p.at_or(token.KwAnd, token.KwOr) {
		opTok := p.advance()
		right, ok := p.parseNotExpr()
		if !ok {
			return ast.NoExprID, false
		}
		span := p.exprSpan(left).Cover(p.exprSpan(right))
		left = p.arenas.Exprs.NewBinary(span, ast.ExprBinaryData{Op: opTok.Text, Left: left, Right: right})
	}
	return left, true
}

func (p *Parser) parseNotExpr() (ast.ExprID, bool) {
	if !p.at(token.KwNot) {
		return p.parseExpr()
	}
	notTok := p.advance()
	operand, ok := p.parseNotExpr()
	if !ok {
		return ast.NoExprID, false
	}
	span := notTok.Span.Cover(p.exprSpan(operand))
	return p.arenas.Exprs.NewUnary(span, ast.ExprUnaryData{Op: "not", Operand: operand}), true
}

// parseMultiAssign handles "a, b = rhs" and "a = 1, 2". first is the
// already parsed expression before the comma.
func (p *Parser) parseMultiAssign(first ast.ExprID) (ast.ExprID, bool) {
	// a = 1, 2: the right-hand side becomes an array
	if assign, ok := p.arenas.Exprs.Assign(first); ok && len(assign.Targets) == 1 && assign.Op == "=" {
		values := []ast.ExprID{assign.Value}
		for p.at(token.Comma) {
			p.advance()
			v, ok := p.parseArgValue()
			if !ok {
				return ast.NoExprID, false
			}
			values = append(values, v)
		}
		arrSpan := p.exprSpan(values[0]).Cover(p.exprSpan(values[len(values)-1]))
		assign.Value = p.arenas.Exprs.NewArray(arrSpan, ast.ExprArrayData{Elements: values})
		expr := p.arenas.Exprs.Get(first)
		expr.Span = expr.Span.Cover(arrSpan)
		return first, true
	}

	target, ok := p.toTarget(first)
	if !ok {
		p.report(diag.SynBadAssignTarget, diag.SevError, p.exprSpan(first), "cannot assign to this expression")
		return ast.NoExprID, false
	}
	targets := []ast.ExprID{target}
	for p.at(token.Comma) {
		p.advance()
		if p.at(token.Assign) {
			break // "a, = list"
		}
		item, ok := p.parseBinaryExpr(precRange)
		if !ok {
			return ast.NoExprID, false
		}
		target, ok := p.toTarget(item)
		if !ok {
			p.report(diag.SynBadAssignTarget, diag.SevError, p.exprSpan(item), "cannot assign to this expression")
			return ast.NoExprID, false
		}
		targets = append(targets, target)
	}
	if _, ok := p.expect(token.Assign, diag.SynUnexpectedToken, "expected '=' in multiple assignment"); !ok {
		return ast.NoExprID, false
	}

	values := make([]ast.ExprID, 0, 2)
	for {
		v, ok := p.parseArgValue()
		if !ok {
			return ast.NoExprID, false
		}
		values = append(values, v)
		if !p.at(token.Comma) {
			break
		}
		p.advance()
	}
	value := values[0]
	if len(values) > 1 {
		arrSpan := p.exprSpan(values[0]).Cover(p.exprSpan(values[len(values)-1]))
		value = p.arenas.Exprs.NewArray(arrSpan, ast.ExprArrayData{Elements: values})
	}
	span := p.exprSpan(targets[0]).Cover(p.exprSpan(value))
	return p.arenas.Exprs.NewAssign(span, ast.ExprAssignData{Targets: targets, Op: "=", Value: value}), true
}

// atValueEnd reports whether the current token cannot start the operand
// of return, break, next or yield.
func (p *Parser) atValueEnd() bool {
	switch p.lx.Peek().Kind {
	case token.EOF, token.Newline, token.Semicolon,
		token.KwIf, token.KwUnless, token.KwWhile, token.KwUntil, token.KwRescue,
		token.KwEnd, token.KwThen, token.KwDo, token.KwAnd, token.KwOr,
		token.RBrace, token.RParen, token.RBracket, token.Colon:
		return true
	}
	return false
}

func (p *Parser) parseReturnStmt() (ast.StmtID, bool) {
	kw := p.advance()
	span := kw.Span
	var values []ast.ExprID
	if !p.atValueEnd() {
		var ok bool
		values, ok = p.parseArgs(token.Invalid)
		if !ok {
			return ast.NoStmtID, false
		}
		if len(values) > 0 {
			span = span.Cover(p.exprSpan(values[len(values)-1]))
		}
	}
	return p.arenas.Stmts.NewReturn(span, ast.StmtReturnData{Keyword: kw.Text, Values: values}), true
}

// parseAliasStmt разбирает "alias new old" и "undef a, b". Имена методов
// могут быть операторами и ключевыми словами, поэтому берём токены как есть.
func (p *Parser) parseAliasStmt() (ast.StmtID, bool) {
	kw := p.advance()
	span := kw.Span
	names := 0
	for !p.at_or(token.EOF, token.Newline, token.Semicolon) {
		tok := p.advance()
		if tok.Kind == token.Comma {
			continue
		}
		span = span.Cover(tok.Span)
		names++
	}
	if names == 0 {
		p.err(diag.SynExpectIdentifier, "expected method name after "+kw.Text)
		return ast.NoStmtID, false
	}
	return p.arenas.Stmts.NewAlias(span), true
}
