package lexer_test

import (
	"fmt"
	"strings"
	"testing"

	"rbsec/internal/diag"
	"rbsec/internal/lexer"
	"rbsec/internal/source"
	"rbsec/internal/token"
)

// testReporter собирает все диагностики, полученные от лексера
type testReporter struct {
	diagnostics []diag.Diagnostic
}

func (r *testReporter) Report(code diag.Code, sev diag.Severity, primary source.Span, msg string, notes []diag.Note, fixes []*diag.Fix) {
	r.diagnostics = append(r.diagnostics, diag.Diagnostic{
		Severity: sev,
		Code:     code,
		Message:  msg,
		Primary:  primary,
		Notes:    notes,
		Fixes:    fixes,
	})
}

func (r *testReporter) messages() []string {
	out := make([]string, 0, len(r.diagnostics))
	for _, d := range r.diagnostics {
		out = append(out, fmt.Sprintf("[%s] %s", d.Code.ID(), d.Message))
	}
	return out
}

func makeTestLexer(input string) (*lexer.Lexer, *testReporter) {
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("test.rb", []byte(input)))
	reporter := &testReporter{}
	return lexer.New(file, lexer.Options{Reporter: reporter}), reporter
}

func collectAllTokens(lx *lexer.Lexer) []token.Token {
	var tokens []token.Token
	for {
		tok := lx.Next()
		if tok.Kind == token.EOF {
			return tokens
		}
		tokens = append(tokens, tok)
	}
}

func kindsOf(tokens []token.Token) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.Kind.String()
	}
	return strings.Join(parts, " ")
}

func expectKinds(t *testing.T, input, want string) []token.Token {
	t.Helper()
	lx, rep := makeTestLexer(input)
	tokens := collectAllTokens(lx)
	if got := kindsOf(tokens); got != want {
		t.Fatalf("input %q\n got: %s\nwant: %s\nerrors: %v", input, got, want, rep.messages())
	}
	if len(rep.diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics for %q: %v", input, rep.messages())
	}
	return tokens
}

func TestOpenCallShapes(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`open(something)`, "Ident ( Ident )"},
		{`Kernel.open(something, "r")`, "Const . Ident ( Ident , String )"},
		{`::Kernel.open "x"`, ":: Const . Ident String"},
		{`open "prefix_#{foo}"`, "Ident String"},
		{`open = something`, "Ident = Ident"},
		{`File.open(path, mode: "r")`, "Const . Ident ( Ident , Label String )"},
		{`Kernel&.open(x)`, "Const &. Ident ( Ident )"},
	}
	for _, tt := range tests {
		expectKinds(t, tt.in, tt.want)
	}
}

func TestNewlines(t *testing.T) {
	// blank lines and comments collapse, operators and commas continue lines
	expectKinds(t, "a = 1\n\n# c\nb = a +\n  2\n", "Ident = Int Newline Ident = Ident + Int Newline")
	expectKinds(t, "foo(a,\n    b)\n", "Ident ( Ident , Ident ) Newline")
	// leading-dot method chains continue the previous line
	expectKinds(t, "foo\n  .bar\n  # note\n  &.baz\n", "Ident . Ident &. Ident Newline")
	expectKinds(t, "a; b", "Ident ; Ident")
}

func TestStringInterpolationStaysOneToken(t *testing.T) {
	toks := expectKinds(t, `open("| #{cmd("x}") + "#{y}"} tail")`, "Ident ( String )")
	if got := toks[2].Text; got != `"| #{cmd("x}") + "#{y}"} tail"` {
		t.Fatalf("string text = %q", got)
	}
	expectKinds(t, "'a#{b}' \"multi\nline\"", "String String")
}

func TestKeywordsAndMethodNames(t *testing.T) {
	expectKinds(t, "def open(x) end", "def Ident ( Ident ) end")
	expectKinds(t, "obj.class.end", "Ident . Ident . Ident")
	expectKinds(t, "valid? && save!", "Ident && Ident")
	expectKinds(t, "a != b", "Ident != Ident")
	expectKinds(t, "if x then y else z end", "if Ident then Ident else Ident end")
}

func TestVariablesAndSymbols(t *testing.T) {
	expectKinds(t, "@a = $stdout; @@count", "IVar = GVar ; IVar")
	expectKinds(t, ":sym :\"quoted\" Foo::Bar", "Symbol Symbol Const :: Const")
	expectKinds(t, "x ? 1 : 2", "Ident ? Int : Int")
	expectKinds(t, "{ a: 1, 'b' => 2 }", "{ Label Int , String => Int }")
}

func TestRegexpAndPercentLiterals(t *testing.T) {
	expectKinds(t, "x = /ab+c/i", "Ident = Regexp")
	expectKinds(t, "a / b", "Ident / Ident")
	expectKinds(t, "open %q(| ls)", "Ident String")
	expectKinds(t, "%w[a b], %Q{x #{y}}", "Words , String")
	expectKinds(t, "n % 2", "Ident % Int")
	expectKinds(t, "`ls #{dir}`", "XString")
}

func TestNumbers(t *testing.T) {
	expectKinds(t, "1_000 0x1f 1.5 2e10 3.times", "Int Int Float Float Int . Ident")
}

func TestHeredoc(t *testing.T) {
	src := "open(<<~CMD, \"r\")\n  | ls #{x}\nCMD\nfoo\n"
	toks := expectKinds(t, src, "Ident ( Heredoc , String ) Newline Ident Newline")
	h := toks[2]
	body := src[h.Body.Start:h.Body.End]
	if body != "  | ls #{x}\n" {
		t.Fatalf("heredoc body = %q", body)
	}
}

func TestTwoHeredocsOnOneLine(t *testing.T) {
	src := "f(<<A, <<B)\na\nA\nb\nB\nx\n"
	toks := expectKinds(t, src, "Ident ( Heredoc , Heredoc ) Newline Ident Newline")
	if got := src[toks[4].Body.Start:toks[4].Body.End]; got != "b\n" {
		t.Fatalf("second body = %q", got)
	}
}

func TestEmbeddedDocAndData(t *testing.T) {
	expectKinds(t, "a\n=begin\nopen(x)\n=end\nb\n__END__\nopen(y)\n", "Ident Newline Ident Newline")
}

func TestFlags(t *testing.T) {
	lx, _ := makeTestLexer("open \"x\"\nfoo(1)")
	open := lx.Next()
	str := lx.Next()
	nl := lx.Next()
	foo := lx.Next()
	paren := lx.Next()
	if !open.AtLineStart() || open.HasSpaceBefore() {
		t.Fatalf("open flags = %b", open.Flags)
	}
	if !str.HasSpaceBefore() || str.AtLineStart() {
		t.Fatalf("string flags = %b", str.Flags)
	}
	if nl.Kind != token.Newline || !foo.AtLineStart() {
		t.Fatalf("newline/line start handling broken: %v %b", nl.Kind, foo.Flags)
	}
	if paren.HasSpaceBefore() {
		t.Fatal("'(' directly after name must not have space flag")
	}
}

func TestLexErrors(t *testing.T) {
	tests := []struct {
		in   string
		code diag.Code
	}{
		{`open("abc`, diag.LexUnterminatedString},
		{"x = \x01", diag.LexUnknownChar},
		{"0x", diag.LexBadNumber},
		{"<<~EOS\nbody\n", diag.LexUnterminatedString},
	}
	for _, tt := range tests {
		lx, rep := makeTestLexer(tt.in)
		collectAllTokens(lx)
		if len(rep.diagnostics) == 0 || rep.diagnostics[0].Code != tt.code {
			t.Errorf("%q: want %s, got %v", tt.in, tt.code.ID(), rep.messages())
		}
	}
}

func TestSetRange(t *testing.T) {
	src := `"#{foo(1)}"`
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("r.rb", []byte(src)))
	lx := lexer.New(file, lexer.Options{})
	lx.SetRange(3, 9)
	if got := kindsOf(collectAllTokens(lx)); got != "Ident ( Int )" {
		t.Fatalf("ranged tokens = %s", got)
	}
}
