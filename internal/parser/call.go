package parser

import (
	"strings"

	"rbsec/internal/ast"
	"rbsec/internal/diag"
	"rbsec/internal/source"
	"rbsec/internal/token"
)

// parseCallRest разбирает аргументы и блок вызова после имени метода.
// Аргументы берутся в скобках "name(a, b)" либо без скобок "name a, b",
// если следующий токен начинает аргумент.
func (p *Parser) parseCallRest(recv ast.ExprID, nameTok token.Token, safeNav bool) (ast.ExprID, bool) {
	data := ast.ExprCallData{
		Receiver: recv,
		Name:     nameTok.Text,
		NameSpan: nameTok.Span,
		SafeNav:  safeNav,
		Block:    ast.NoExprID,
	}
	span := nameTok.Span
	if recv.IsValid() {
		span = p.exprSpan(recv).Cover(span)
	}

	command := false
	switch next := p.lx.Peek(); {
	case next.Kind == token.LParen && !next.HasSpaceBefore():
		open := p.advance()
		prevNoDo := p.noDo
		p.noDo = false
		args, ok := p.parseArgs(token.RParen)
		p.noDo = prevNoDo
		if !ok {
			return ast.NoExprID, false
		}
		closeTok, ok := p.expectClose(token.RParen, diag.SynUnclosedParen, "expected ')' to close argument list", open.Span)
		if !ok {
			return ast.NoExprID, false
		}
		data.Args = args
		data.HasParens = true
		span = span.Cover(closeTok.Span)

	case p.startsCommandArg(next, false):
		prevNoDo := p.noDo
		p.noDo = true
		args, ok := p.parseArgs(token.Invalid)
		p.noDo = prevNoDo
		if !ok {
			return ast.NoExprID, false
		}
		data.Args = args
		span = p.coverExprs(span, args)
		command = true
	}

	switch {
	case p.at(token.LBrace) && !command:
		block, ok := p.parseBraceBlock()
		if !ok {
			return ast.NoExprID, false
		}
		data.Block = block
		span = span.Cover(p.exprSpan(block))
	case p.at(token.KwDo) && !p.noDo:
		block, ok := p.parseDoBlock()
		if !ok {
			return ast.NoExprID, false
		}
		data.Block = block
		span = span.Cover(p.exprSpan(block))
	}

	return p.arenas.Exprs.NewCall(span, data), true
}

// parseArgs разбирает список аргументов до closing (не съедая его).
// closing == token.Invalid означает вызов без скобок: список кончается,
// когда после аргумента нет запятой. Пары "key: v" и "k => v" собираются
// в один хэш без скобок.
func (p *Parser) parseArgs(closing token.Kind) ([]ast.ExprID, bool) {
	var args []ast.ExprID
	var pairs []ast.HashPair
	flush := func() {
		if len(pairs) == 0 {
			return
		}
		span := p.pairSpan(pairs[0]).Cover(p.pairSpan(pairs[len(pairs)-1]))
		args = append(args, p.arenas.Exprs.NewHash(span, ast.ExprHashData{Pairs: pairs}))
		pairs = nil
	}

	for !p.stopped {
		if closing != token.Invalid {
			p.skipNewlines()
			if p.at(closing) {
				break
			}
		}

		switch tok := p.lx.Peek(); {
		case tok.Kind == token.Label:
			pair, ok := p.parseLabelPair(closing)
			if !ok {
				return nil, false
			}
			pairs = append(pairs, pair)

		default:
			arg, ok := p.parseArgValue()
			if !ok {
				return nil, false
			}
			if p.at(token.FatArrow) {
				p.advance()
				p.skipNewlines()
				value, ok := p.parseArgValue()
				if !ok {
					return nil, false
				}
				pairs = append(pairs, ast.HashPair{Key: arg, Value: value})
				break
			}
			if next := p.lx.Peek(); next.Kind == token.Colon && !next.HasSpaceBefore() && p.isStr(arg) {
				// "key": value
				p.advance()
				value, ok := p.parseArgValue()
				if !ok {
					return nil, false
				}
				pairs = append(pairs, ast.HashPair{Key: arg, Value: value})
				break
			}
			if u, ok := p.arenas.Exprs.Unary(arg); ok && u.Op == "**" {
				pairs = append(pairs, ast.HashPair{Key: ast.NoExprID, Value: arg})
				break
			}
			flush()
			args = append(args, arg)
		}

		if closing != token.Invalid {
			p.skipNewlines()
		}
		if !p.at(token.Comma) {
			break
		}
		p.advance()
	}
	flush()
	return args, true
}

// parseLabelPair разбирает "key: value" и сокращение "key:" (Ruby 3.1).
func (p *Parser) parseLabelPair(closing token.Kind) (ast.HashPair, bool) {
	label := p.advance()
	name := strings.TrimSuffix(label.Text, ":")
	key := p.arenas.Exprs.NewLiteral(label.Span, ast.ExprLiteralData{Kind: ast.LitSymbol, Value: ":" + name})
	if p.at_or(token.Comma, token.Newline, token.Semicolon, token.EOF) || (closing != token.Invalid && p.at(closing)) {
		return ast.HashPair{Key: key, Value: ast.NoExprID}, true
	}
	p.skipNewlines()
	value, ok := p.parseArgValue()
	if !ok {
		return ast.HashPair{}, false
	}
	return ast.HashPair{Key: key, Value: value}, true
}

func (p *Parser) pairSpan(pair ast.HashPair) source.Span {
	switch {
	case pair.Key.IsValid() && pair.Value.IsValid():
		return p.exprSpan(pair.Key).Cover(p.exprSpan(pair.Value))
	case pair.Key.IsValid():
		return p.exprSpan(pair.Key)
	default:
		return p.exprSpan(pair.Value)
	}
}

// parseBraceBlock разбирает "{ |params| body }". Блок видит локальные
// переменные окружения; его собственные переменные наружу не выходят.
func (p *Parser) parseBraceBlock() (ast.ExprID, bool) {
	open := p.advance()
	prevNoDo := p.noDo
	p.noDo = false
	defer func() { p.noDo = prevNoDo }()

	p.pushScope(false)
	defer p.popScope()

	params, ok := p.parseBlockParams()
	if !ok {
		return ast.NoExprID, false
	}
	body := p.parseStmts()
	closeTok, ok := p.expectClose(token.RBrace, diag.SynUnclosedBrace, "expected '}' to close block", open.Span)
	if !ok {
		return ast.NoExprID, false
	}
	return p.arenas.Exprs.NewBlock(open.Span.Cover(closeTok.Span), ast.ExprBlockData{
		Params: params,
		Body:   ast.Bodystmt{Body: body},
	}, false), true
}

// parseDoBlock разбирает "do |params| body end"; тело может содержать
// rescue/else/ensure.
func (p *Parser) parseDoBlock() (ast.ExprID, bool) {
	open := p.advance()
	prevNoDo := p.noDo
	p.noDo = false
	defer func() { p.noDo = prevNoDo }()

	p.pushScope(false)
	defer p.popScope()

	params, ok := p.parseBlockParams()
	if !ok {
		return ast.NoExprID, false
	}
	body := p.parseBodystmt()
	closeTok, ok := p.expectClose(token.KwEnd, diag.SynExpectEnd, "expected 'end' to close 'do' block", open.Span)
	if !ok {
		return ast.NoExprID, false
	}
	return p.arenas.Exprs.NewBlock(open.Span.Cover(closeTok.Span), ast.ExprBlockData{
		Params: params,
		Body:   body,
	}, false), true
}

func (p *Parser) parseBlockParams() ([]ast.Param, bool) {
	p.skipNewlines()
	switch {
	case p.at(token.OrOr):
		p.advance()
		return nil, true
	case p.at(token.Pipe):
		open := p.advance()
		params, ok := p.parseParamList(precBitwiseOr+1, token.Pipe)
		if !ok {
			return nil, false
		}
		if _, ok := p.expectClose(token.Pipe, diag.SynUnexpectedToken, "expected '|' to close block parameters", open.Span); !ok {
			return nil, false
		}
		return params, true
	}
	return nil, true
}

// parseLambda разбирает "->(params) { body }" и "-> x do body end".
func (p *Parser) parseLambda() (ast.ExprID, bool) {
	arrow := p.advance()
	prevNoDo := p.noDo
	p.noDo = false
	defer func() { p.noDo = prevNoDo }()

	p.pushScope(false)
	defer p.popScope()

	var params []ast.Param
	switch {
	case p.at(token.LParen):
		open := p.advance()
		var ok bool
		params, ok = p.parseParamList(0, token.RParen)
		if !ok {
			return ast.NoExprID, false
		}
		if _, ok := p.expectClose(token.RParen, diag.SynUnclosedParen, "expected ')' to close lambda parameters", open.Span); !ok {
			return ast.NoExprID, false
		}
	case !p.at_or(token.LBrace, token.KwDo):
		var ok bool
		params, ok = p.parseParamList(0, token.LBrace, token.KwDo, token.Newline)
		if !ok {
			return ast.NoExprID, false
		}
	}

	var body ast.Bodystmt
	var closeTok token.Token
	var ok bool
	switch {
	case p.at(token.LBrace):
		open := p.advance()
		body.Body = p.parseStmts()
		closeTok, ok = p.expectClose(token.RBrace, diag.SynUnclosedBrace, "expected '}' to close lambda", open.Span)
	case p.at(token.KwDo):
		open := p.advance()
		body = p.parseBodystmt()
		closeTok, ok = p.expectClose(token.KwEnd, diag.SynExpectEnd, "expected 'end' to close lambda", open.Span)
	default:
		p.err(diag.SynUnexpectedToken, "expected lambda body, got "+describe(p.lx.Peek()))
		return ast.NoExprID, false
	}
	if !ok {
		return ast.NoExprID, false
	}
	return p.arenas.Exprs.NewBlock(arrow.Span.Cover(closeTok.Span), ast.ExprBlockData{
		Params: params,
		Body:   body,
	}, true), true
}
