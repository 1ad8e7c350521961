package fuzztests

import (
	"testing"

	"rbsec/internal/diag"
	"rbsec/internal/lexer"
	"rbsec/internal/source"
	"rbsec/internal/token"
)

const maxFuzzInput = 1 << 16 // 64 KiB

func clampInput(input []byte) []byte {
	if len(input) > maxFuzzInput {
		return append([]byte(nil), input[:maxFuzzInput]...)
	}
	return append([]byte(nil), input...)
}

func FuzzLexerTokens(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampInput(input)

		fs := source.NewFileSet()
		fileID := fs.AddVirtual("fuzz.rb", input)
		file := fs.Get(fileID)
		size := uint32(len(file.Content))

		bag := diag.NewBag(64)
		lx := lexer.New(file, lexer.Options{Reporter: diag.BagReporter{Bag: bag}})

		// лексер, выдающий токены без продвижения, завис
		limit := 4*len(file.Content) + 64
		for n := 0; ; n++ {
			if n > limit {
				t.Fatalf("lexer produced more than %d tokens for %d bytes", limit, size)
			}
			tok := lx.Next()
			if tok.Span.End > size || tok.Span.Start > tok.Span.End {
				t.Fatalf("token %v has span %d..%d outside file of %d bytes", tok.Kind, tok.Span.Start, tok.Span.End, size)
			}
			if tok.Kind == token.Heredoc && tok.Body.End > size {
				t.Fatalf("heredoc body %d..%d outside file of %d bytes", tok.Body.Start, tok.Body.End, size)
			}
			if tok.Kind == token.EOF {
				break
			}
		}
	})
}
