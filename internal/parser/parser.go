package parser

import (
	"slices"

	"rbsec/internal/ast"
	"rbsec/internal/diag"
	"rbsec/internal/lexer"
	"rbsec/internal/source"
	"rbsec/internal/token"
)

type Options struct {
	MaxErrors     uint
	CurrentErrors uint
	Reporter      diag.Reporter
}

// Enough - проверить, достигли ли мы максимального количества ошибок
func (o *Options) Enough() bool {
	if o.MaxErrors == 0 {
		return false
	}
	return o.CurrentErrors >= o.MaxErrors
}

type Result struct {
	File ast.FileID
	Bag  *diag.Bag
}

// Parser: состояние парсера на один файл
type Parser struct {
	lx       *lexer.Lexer
	arenas   *ast.Builder
	file     ast.FileID
	fs       *source.FileSet
	opts     *Options
	lastSpan source.Span // span последнего съеденного токена
	scope    *scope
	noDo     bool // "do" belongs to an enclosing while/until/for
	stopped  bool // error limit reached, unwind quietly
}

// ParseFile: входная точка для разбора одного файла.
// Требует уже созданный lexer (на основе source.File).
func ParseFile(
	fs *source.FileSet,
	lx *lexer.Lexer,
	arenas *ast.Builder,
	opts Options,
) Result {
	p := Parser{
		lx:       lx,
		arenas:   arenas,
		file:     arenas.NewFile(lx.EmptySpan()),
		fs:       fs,
		opts:     &opts,
		lastSpan: lx.EmptySpan(),
		scope:    newScope(nil, true),
	}

	p.parseProgram()
	var bag *diag.Bag
	if br, ok := opts.Reporter.(*diag.BagReporter); ok {
		bag = br.Bag
	}
	return Result{
		File: p.file,
		Bag:  bag,
	}
}

func (p *Parser) at(k token.Kind) bool {
	return p.lx.Peek().Kind == k
}

func (p *Parser) at_or(kinds ...token.Kind) bool {
	return slices.Contains(kinds, p.lx.Peek().Kind)
}

func (p *Parser) IsError() bool {
	return p.opts.CurrentErrors != 0
}

// parseProgram: основной цикл верхнего уровня.
func (p *Parser) parseProgram() {
	startSpan := p.lx.Peek().Span
	for _, stmt := range p.parseStmts() {
		p.arenas.PushStmt(p.file, stmt)
	}
	for !p.at(token.EOF) && !p.stopped {
		// stray "end", "}" and friends at top level
		tok := p.advance()
		p.report(diag.SynUnexpectedToken, diag.SevError, tok.Span, "unexpected "+describe(tok))
		for _, stmt := range p.parseStmts() {
			p.arenas.PushStmt(p.file, stmt)
		}
	}
	p.arenas.Files.Get(p.file).Span = startSpan.Cover(p.lx.Peek().Span)
}

// parseIdent: ожидает Ident и возвращает его токен.
func (p *Parser) parseIdent() (token.Token, bool) {
	if p.at(token.Ident) {
		return p.advance(), true
	}
	p.err(diag.SynExpectIdentifier, "expected identifier, got "+describe(p.lx.Peek()))
	return token.Token{}, false
}

func describe(tok token.Token) string {
	switch tok.Kind {
	case token.EOF:
		return "end of file"
	case token.Newline:
		return "end of line"
	}
	if tok.Text != "" {
		return "\"" + tok.Text + "\""
	}
	return "\"" + tok.Kind.String() + "\""
}
