package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"rbsec/internal/ast"
	"rbsec/internal/lexer"
	"rbsec/internal/parser"
	"rbsec/internal/source"
	"rbsec/internal/token"
)

func parse(t *testing.T, src string) (*source.FileSet, *ast.Builder, ast.FileID) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("t.rb", []byte(src))
	b := ast.NewBuilder(ast.Hints{})
	lx := lexer.New(fs.Get(id), lexer.Options{})
	res := parser.ParseFile(fs, lx, b, parser.Options{})
	return fs, b, res.File
}

func TestFormatASTPretty(t *testing.T) {
	fs, b, file := parse(t, "def fetch(url)\n  Kernel.open(\"#{url}\")\nend\n")
	var buf bytes.Buffer
	if err := FormatASTPretty(&buf, b, file, fs); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"t.rb (span:",
		`└─ Stmt Def "fetch"`,
		`Param "url"`,
		`Expr Call "open" [parens=true]`,
		`receiver: Expr Const "Kernel"`,
		`arg: Expr Str [quote=double]`,
		"Segment Interp",
		`Expr Ident "url"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in:\n%s", want, out)
		}
	}
}

func TestFormatASTJSON(t *testing.T) {
	_, b, file := parse(t, "open 'x'\n")
	var buf bytes.Buffer
	if err := FormatASTJSON(&buf, b, file); err != nil {
		t.Fatal(err)
	}
	var root ASTNodeOutput
	if err := json.Unmarshal(buf.Bytes(), &root); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if root.Type != "File" || len(root.Children) != 1 {
		t.Fatalf("unexpected root %+v", root)
	}
	call := root.Children[0]
	if call.Kind != "Call" || call.Text != "open" || len(call.Children) != 1 {
		t.Fatalf("unexpected call %+v", call)
	}
	str := call.Children[0]
	if str.Role != "arg" || str.Children[0].Text != "x" {
		t.Fatalf("unexpected argument %+v", str)
	}

	if err := FormatASTJSON(&buf, b, ast.FileID(99)); err == nil {
		t.Fatal("expected error for unknown file")
	}
}

func TestFormatTokens(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("t.rb", []byte("open x # go\n"))
	lx := lexer.New(fs.Get(id), lexer.Options{})
	var all []token.Token
	for {
		tok := lx.Next()
		all = append(all, tok)
		if tok.Kind == token.EOF {
			break
		}
	}

	var pretty bytes.Buffer
	if err := FormatTokensPretty(&pretty, all, fs); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(pretty.String(), `Ident           "open" at 1:1-1:5`) {
		t.Errorf("unexpected pretty dump:\n%s", pretty.String())
	}
	if !strings.Contains(pretty.String(), "leading: Space") {
		t.Errorf("missing trivia:\n%s", pretty.String())
	}

	var js bytes.Buffer
	if err := FormatTokensJSON(&js, all, fs); err != nil {
		t.Fatal(err)
	}
	var out []TokenOutput
	if err := json.Unmarshal(js.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if len(out) != len(all) || out[len(out)-1].Kind != "EOF" {
		t.Fatalf("unexpected JSON tokens %+v", out)
	}
}
