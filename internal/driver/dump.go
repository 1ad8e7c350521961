package driver

import (
	"fmt"

	"rbsec/internal/ast"
	"rbsec/internal/diag"
	"rbsec/internal/lexer"
	"rbsec/internal/parser"
	"rbsec/internal/source"
	"rbsec/internal/token"
)

// TokenizeResult holds the token stream of one file for dumping.
type TokenizeResult struct {
	FileSet *source.FileSet
	File    *source.File
	Tokens  []token.Token
	Bag     *diag.Bag
}

// Tokenize lexes the file at path.
func Tokenize(path string, maxDiagnostics int) (*TokenizeResult, error) {
	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return tokenizeFile(fs, id, maxDiagnostics), nil
}

// TokenizeSource lexes in-memory source.
func TokenizeSource(name string, src []byte, maxDiagnostics int) *TokenizeResult {
	fs := source.NewFileSet()
	return tokenizeFile(fs, fs.AddVirtual(name, src), maxDiagnostics)
}

func tokenizeFile(fs *source.FileSet, id source.FileID, maxDiagnostics int) *TokenizeResult {
	file := fs.Get(id)
	bag := diag.NewBag(maxDiagnostics)
	lx := lexer.New(file, lexer.Options{Reporter: &diag.BagReporter{Bag: bag}})

	var tokens []token.Token
	for {
		tok := lx.Next()
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return &TokenizeResult{FileSet: fs, File: file, Tokens: tokens, Bag: bag}
}

// ParseResult holds the syntax tree of one file for dumping.
type ParseResult struct {
	FileSet *source.FileSet
	File    *source.File
	Builder *ast.Builder
	ASTFile ast.FileID
	Bag     *diag.Bag
}

// Parse parses the file at path.
func Parse(path string, maxDiagnostics int) (*ParseResult, error) {
	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return parseFile(fs, id, maxDiagnostics), nil
}

// ParseSource parses in-memory source.
func ParseSource(name string, src []byte, maxDiagnostics int) *ParseResult {
	fs := source.NewFileSet()
	return parseFile(fs, fs.AddVirtual(name, src), maxDiagnostics)
}

func parseFile(fs *source.FileSet, id source.FileID, maxDiagnostics int) *ParseResult {
	file := fs.Get(id)
	bag := diag.NewBag(maxDiagnostics)
	reporter := &diag.BagReporter{Bag: bag}
	b := ast.NewBuilder(ast.Hints{})
	lx := lexer.New(file, lexer.Options{Reporter: reporter})
	res := parser.ParseFile(fs, lx, b, parser.Options{
		MaxErrors: uint(max(maxDiagnostics, 0)),
		Reporter:  reporter,
	})
	return &ParseResult{FileSet: fs, File: file, Builder: b, ASTFile: res.File, Bag: bag}
}
