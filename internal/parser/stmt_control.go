package parser

import (
	"rbsec/internal/ast"
	"rbsec/internal/diag"
	"rbsec/internal/source"
	"rbsec/internal/token"
)

// parseCondition разбирает условие if/while/until/case. Внутри условия
// "do" принадлежит циклу, а не вызову.
func (p *Parser) parseCondition(loop bool) (ast.ExprID, bool) {
	prevNoDo := p.noDo
	p.noDo = loop
	defer func() { p.noDo = prevNoDo }()
	cond, ok := p.parseStatementExpr()
	if !ok {
		return ast.NoExprID, false
	}
	return cond, true
}

// parseThen съедает разделитель после условия: перевод строки, ';' и/или "then".
func (p *Parser) parseThen() {
	p.skipTerminators()
	if p.at(token.KwThen) {
		p.advance()
	}
}

func (p *Parser) parseIf() (ast.StmtID, bool) {
	kw := p.advance()
	return p.parseIfRest(kw)
}

// parseIfRest разбирает условие и ветви после if/unless/elsif. Цепочка
// elsif превращается во вложенный StmtIf в ветке Else.
func (p *Parser) parseIfRest(kw token.Token) (ast.StmtID, bool) {
	unless := kw.Kind == token.KwUnless
	cond, ok := p.parseCondition(false)
	if !ok {
		return ast.NoStmtID, false
	}
	p.parseThen()
	then := p.parseStmts()

	data := ast.StmtIfData{Cond: cond, Then: then, Unless: unless}
	switch {
	case p.at(token.KwElsif) && kw.Kind != token.KwUnless:
		elsifTok := p.advance()
		nested, ok := p.parseIfRest(elsifTok)
		if !ok {
			return ast.NoStmtID, false
		}
		data.Else = []ast.StmtID{nested}
		return p.arenas.Stmts.NewIf(kw.Span.Cover(p.stmtSpan(nested)), data), true
	case p.at(token.KwElse):
		p.advance()
		data.Else = p.parseStmts()
	}

	endTok, ok := p.expectClose(token.KwEnd, diag.SynExpectEnd, "expected 'end' to close '"+kw.Text+"'", kw.Span)
	if !ok {
		return ast.NoStmtID, false
	}
	return p.arenas.Stmts.NewIf(kw.Span.Cover(endTok.Span), data), true
}

func (p *Parser) parseWhile() (ast.StmtID, bool) {
	kw := p.advance()
	cond, ok := p.parseCondition(true)
	if !ok {
		return ast.NoStmtID, false
	}
	p.skipTerminators()
	if p.at(token.KwDo) {
		p.advance()
	}
	body := p.parseStmts()
	endTok, ok := p.expectClose(token.KwEnd, diag.SynExpectEnd, "expected 'end' to close '"+kw.Text+"'", kw.Span)
	if !ok {
		return ast.NoStmtID, false
	}
	return p.arenas.Stmts.NewWhile(kw.Span.Cover(endTok.Span), ast.StmtWhileData{
		Cond:  cond,
		Body:  body,
		Until: kw.Kind == token.KwUntil,
	}), true
}

// parseCase разбирает case/when и case/in. Образцы "in" разбираются как
// обычные выражения; guard "if"/"unless" добавляется к условиям.
func (p *Parser) parseCase() (ast.StmtID, bool) {
	kw := p.advance()
	data := ast.StmtCaseData{Subject: ast.NoExprID}
	if !p.at_or(token.Newline, token.Semicolon) {
		subject, ok := p.parseCondition(false)
		if !ok {
			return ast.NoStmtID, false
		}
		data.Subject = subject
	}
	p.skipTerminators()

	for p.at_or(token.KwWhen, token.KwIn) && !p.stopped {
		clauseTok := p.advance()
		clause := ast.WhenClause{Span: clauseTok.Span}
		for {
			cond, ok := p.parseArgValue()
			if !ok {
				return ast.NoStmtID, false
			}
			clause.Conds = append(clause.Conds, cond)
			clause.Span = clause.Span.Cover(p.exprSpan(cond))
			if !p.at(token.Comma) {
				break
			}
			p.advance()
		}
		if clauseTok.Kind == token.KwIn && p.at_or(token.KwIf, token.KwUnless) {
			p.advance()
			guard, ok := p.parseStatementExpr()
			if !ok {
				return ast.NoStmtID, false
			}
			clause.Conds = append(clause.Conds, guard)
		}
		p.parseThen()
		clause.Body = p.parseStmts()
		data.Whens = append(data.Whens, clause)
	}
	if len(data.Whens) == 0 {
		p.err(diag.SynUnexpectedToken, "expected 'when' after 'case', got "+describe(p.lx.Peek()))
	}
	if p.at(token.KwElse) {
		p.advance()
		data.Else = p.parseStmts()
	}
	endTok, ok := p.expectClose(token.KwEnd, diag.SynExpectEnd, "expected 'end' to close 'case'", kw.Span)
	if !ok {
		return ast.NoStmtID, false
	}
	return p.arenas.Stmts.NewCase(kw.Span.Cover(endTok.Span), data), true
}

func (p *Parser) parseFor() (ast.StmtID, bool) {
	kw := p.advance()
	var vars []ast.ExprID
	for {
		item, ok := p.parsePostfixExpr()
		if !ok {
			return ast.NoStmtID, false
		}
		target, ok := p.toTarget(item)
		if !ok {
			p.report(diag.SynBadAssignTarget, diag.SevError, p.exprSpan(item), "invalid 'for' variable")
			return ast.NoStmtID, false
		}
		vars = append(vars, target)
		if !p.at(token.Comma) {
			break
		}
		p.advance()
	}
	if _, ok := p.expect(token.KwIn, diag.SynUnexpectedToken, "expected 'in' after 'for' variables"); !ok {
		return ast.NoStmtID, false
	}
	iter, ok := p.parseCondition(true)
	if !ok {
		return ast.NoStmtID, false
	}
	p.skipTerminators()
	if p.at(token.KwDo) {
		p.advance()
	}
	body := p.parseStmts()
	endTok, ok := p.expectClose(token.KwEnd, diag.SynExpectEnd, "expected 'end' to close 'for'", kw.Span)
	if !ok {
		return ast.NoStmtID, false
	}
	return p.arenas.Stmts.NewFor(kw.Span.Cover(endTok.Span), ast.StmtForData{Vars: vars, Iter: iter, Body: body}), true
}

func (p *Parser) parseBegin() (ast.StmtID, bool) {
	kw := p.advance()
	body := p.parseBodystmt()
	endTok, ok := p.expectClose(token.KwEnd, diag.SynExpectEnd, "expected 'end' to close 'begin'", kw.Span)
	if !ok {
		return ast.NoStmtID, false
	}
	return p.arenas.Stmts.NewBegin(kw.Span.Cover(endTok.Span), ast.StmtBeginData{Body: body}), true
}

// parseBodystmt разбирает тело с необязательными rescue/else/ensure.
// Закрывающий "end" остаётся вызывающему.
func (p *Parser) parseBodystmt() ast.Bodystmt {
	var b ast.Bodystmt
	b.Body = p.parseStmts()
	for p.at(token.KwRescue) && !p.stopped {
		clause, ok := p.parseRescueClause()
		if !ok {
			p.resyncStatement()
			continue
		}
		b.Rescues = append(b.Rescues, clause)
	}
	if p.at(token.KwElse) {
		p.advance()
		b.Else = p.parseStmts()
	}
	if p.at(token.KwEnsure) {
		p.advance()
		b.Ensure = p.parseStmts()
	}
	return b
}

func (p *Parser) parseRescueClause() (ast.RescueClause, bool) {
	kw := p.advance()
	clause := ast.RescueClause{Span: kw.Span, Var: ast.NoExprID}
	for !p.at_or(token.Newline, token.Semicolon, token.KwThen, token.FatArrow, token.EOF) {
		class, ok := p.parseArgValue()
		if !ok {
			return clause, false
		}
		clause.Classes = append(clause.Classes, class)
		clause.Span = clause.Span.Cover(p.exprSpan(class))
		if !p.at(token.Comma) {
			break
		}
		p.advance()
	}
	if p.at(token.FatArrow) {
		p.advance()
		item, ok := p.parsePostfixExpr()
		if !ok {
			return clause, false
		}
		target, ok := p.toTarget(item)
		if !ok {
			p.report(diag.SynBadAssignTarget, diag.SevError, p.exprSpan(item), "invalid rescue variable")
			return clause, false
		}
		clause.Var = target
		clause.Span = clause.Span.Cover(p.exprSpan(target))
	}
	p.parseThen()
	clause.Body = p.parseStmts()
	return clause, true
}

// coverStmts returns base extended over the last statement of body.
func (p *Parser) coverStmts(base source.Span, body []ast.StmtID) source.Span {
	if len(body) == 0 {
		return base
	}
	return base.Cover(p.stmtSpan(body[len(body)-1]))
}
