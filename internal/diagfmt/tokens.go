package diagfmt

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"rbsec/internal/source"
	"rbsec/internal/token"
)

type TokenOutput struct {
	Kind    string      `json:"kind"`
	Text    string      `json:"text,omitempty"`
	Span    source.Span `json:"span"`
	Leading []string    `json:"leading,omitempty"`
	Space   bool        `json:"space_before,omitempty"`
	Body    *BodyOutput `json:"heredoc_body,omitempty"`
}

// BodyOutput is the content span of a heredoc token.
type BodyOutput struct {
	Span source.Span `json:"span"`
	Text string      `json:"text"`
}

func triviaKinds(tok token.Token) []string {
	var leading []string
	for _, trivia := range tok.Leading {
		leading = append(leading, trivia.Kind.String())
	}
	return leading
}

// FormatTokensPretty выводит токены в человекочитаемом формате
func FormatTokensPretty(w io.Writer, tokens []token.Token, fs *source.FileSet) error {
	for i, tok := range tokens {
		startPos, endPos := fs.Resolve(tok.Span)

		if _, err := fmt.Fprintf(w, "%3d: %-15s", i+1, tok.Kind.String()); err != nil {
			return err
		}
		if tok.Text != "" {
			fmt.Fprintf(w, " %q", tok.Text)
		}
		fmt.Fprintf(w, " at %d:%d-%d:%d",
			startPos.Line, startPos.Col,
			endPos.Line, endPos.Col)

		if leading := triviaKinds(tok); len(leading) > 0 {
			fmt.Fprintf(w, " (leading: %s)", strings.Join(leading, ", "))
		}
		if tok.Kind == token.Heredoc {
			fmt.Fprintf(w, " body=%q", fs.Get(tok.Body.File).Text(tok.Body))
		}
		fmt.Fprintln(w)

		if tok.Kind == token.EOF {
			break
		}
	}
	return nil
}

// FormatTokensJSON выводит токены в JSON формате
func FormatTokensJSON(w io.Writer, tokens []token.Token, fs *source.FileSet) error {
	output := make([]TokenOutput, 0, len(tokens))
	for _, tok := range tokens {
		tokenOut := TokenOutput{
			Kind:    tok.Kind.String(),
			Text:    tok.Text,
			Span:    tok.Span,
			Leading: triviaKinds(tok),
			Space:   tok.HasSpaceBefore(),
		}
		if tok.Kind == token.Heredoc && fs != nil {
			tokenOut.Body = &BodyOutput{Span: tok.Body, Text: fs.Get(tok.Body.File).Text(tok.Body)}
		}
		output = append(output, tokenOut)

		if tok.Kind == token.EOF {
			break
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
