package diagfmt

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"rbsec/internal/ast"
	"rbsec/internal/source"
)

type ASTNodeOutput struct {
	Type     string          `json:"type"`
	Kind     string          `json:"kind,omitempty"`
	Role     string          `json:"role,omitempty"`
	Span     source.Span     `json:"span"`
	Text     string          `json:"text,omitempty"`
	Children []ASTNodeOutput `json:"children,omitempty"`
	Fields   map[string]any  `json:"fields,omitempty"`
}

// BuildAST converts the syntax tree of fileID into the dump structure
// shared by the pretty and JSON printers.
func BuildAST(builder *ast.Builder, fileID ast.FileID) (ASTNodeOutput, error) {
	file := builder.Files.Get(fileID)
	if file == nil {
		return ASTNodeOutput{}, fmt.Errorf("file not found")
	}
	d := astDumper{b: builder}
	return ASTNodeOutput{
		Type:     "File",
		Span:     file.Span,
		Children: d.stmts("", file.Body),
	}, nil
}

func FormatASTPretty(w io.Writer, builder *ast.Builder, fileID ast.FileID, fs *source.FileSet) error {
	root, err := BuildAST(builder, fileID)
	if err != nil {
		return err
	}
	header := "File"
	if fs != nil && int(root.Span.File) < fs.Len() {
		header = fs.Get(root.Span.File).FormatPath("auto", fs.BaseDir())
	}
	fmt.Fprintf(w, "%s (span: %s)\n", header, formatSpan(root.Span, fs))
	writeChildren(w, root.Children, fs, "")
	return nil
}

func writeChildren(w io.Writer, children []ASTNodeOutput, fs *source.FileSet, prefix string) {
	for i := range children {
		branch, next := "├─ ", "│  "
		if i == len(children)-1 {
			branch, next = "└─ ", "   "
		}
		fmt.Fprintf(w, "%s%s%s\n", prefix, branch, nodeLabel(&children[i], fs))
		writeChildren(w, children[i].Children, fs, prefix+next)
	}
}

func nodeLabel(n *ASTNodeOutput, fs *source.FileSet) string {
	var b strings.Builder
	if n.Role != "" {
		b.WriteString(n.Role + ": ")
	}
	b.WriteString(n.Type)
	if n.Kind != "" {
		b.WriteString(" " + n.Kind)
	}
	if n.Text != "" {
		fmt.Fprintf(&b, " %q", n.Text)
	}
	if len(n.Fields) > 0 {
		keys := make([]string, 0, len(n.Fields))
		for k := range n.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s=%v", k, n.Fields[k])
		}
		b.WriteString(" [" + strings.Join(parts, " ") + "]")
	}
	fmt.Fprintf(&b, " (span: %s)", formatSpan(n.Span, fs))
	return b.String()
}

func FormatASTJSON(w io.Writer, builder *ast.Builder, fileID ast.FileID) error {
	root, err := BuildAST(builder, fileID)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(root)
}

func formatSpan(span source.Span, fs *source.FileSet) string {
	if fs != nil && int(span.File) < fs.Len() {
		start, end := fs.Resolve(span)
		return fmt.Sprintf("%d:%d-%d:%d", start.Line, start.Col, end.Line, end.Col)
	}
	return fmt.Sprintf("span(%d-%d)", span.Start, span.End)
}

type astDumper struct {
	b *ast.Builder
}

func (d astDumper) stmts(role string, ids []ast.StmtID) []ASTNodeOutput {
	out := make([]ASTNodeOutput, 0, len(ids))
	for _, id := range ids {
		if n, ok := d.stmt(role, id); ok {
			out = append(out, n)
		}
	}
	return out
}

func (d astDumper) exprs(role string, ids []ast.ExprID) []ASTNodeOutput {
	out := make([]ASTNodeOutput, 0, len(ids))
	for _, id := range ids {
		if n, ok := d.expr(role, id); ok {
			out = append(out, n)
		}
	}
	return out
}

// add appends the expression child when id is valid.
func (d astDumper) add(n *ASTNodeOutput, role string, id ast.ExprID) {
	if c, ok := d.expr(role, id); ok {
		n.Children = append(n.Children, c)
	}
}

func (d astDumper) body(n *ASTNodeOutput, body *ast.Bodystmt) {
	n.Children = append(n.Children, d.stmts("", body.Body)...)
	for _, r := range body.Rescues {
		rn := ASTNodeOutput{Type: "Rescue", Role: "rescue", Span: r.Span}
		rn.Children = append(rn.Children, d.exprs("class", r.Classes)...)
		d.add(&rn, "var", r.Var)
		rn.Children = append(rn.Children, d.stmts("", r.Body)...)
		n.Children = append(n.Children, rn)
	}
	n.Children = append(n.Children, d.stmts("else", body.Else)...)
	n.Children = append(n.Children, d.stmts("ensure", body.Ensure)...)
}

func (d astDumper) params(n *ASTNodeOutput, params []ast.Param) {
	for _, p := range params {
		pn := ASTNodeOutput{Type: "Param", Span: p.Span, Text: p.Prefix + p.Name}
		if p.Keyword {
			pn.Fields = map[string]any{"keyword": true}
		}
		d.add(&pn, "default", p.Default)
		n.Children = append(n.Children, pn)
	}
}

func (d astDumper) stmt(role string, id ast.StmtID) (ASTNodeOutput, bool) {
	if !id.IsValid() {
		return ASTNodeOutput{}, false
	}
	st := d.b.Stmts.Get(id)
	if st == nil {
		return ASTNodeOutput{}, false
	}
	n := ASTNodeOutput{Type: "Stmt", Kind: st.Kind.String(), Role: role, Span: st.Span}

	switch st.Kind {
	case ast.StmtExpr:
		if data, ok := d.b.Stmts.ExprStmt(id); ok {
			// выражение-инструкция печатается как само выражение
			if e, ok := d.expr(role, data.Expr); ok {
				return e, true
			}
		}
	case ast.StmtDef:
		if data, ok := d.b.Stmts.Def(id); ok {
			n.Text = data.Name
			d.add(&n, "singleton", data.Singleton)
			d.params(&n, data.Params)
			d.body(&n, &data.Body)
		}
	case ast.StmtClass, ast.StmtModule:
		if data, ok := d.b.Stmts.Class(id); ok {
			d.add(&n, "path", data.Path)
			d.add(&n, "super", data.Super)
			d.body(&n, &data.Body)
		}
	case ast.StmtIf:
		if data, ok := d.b.Stmts.If(id); ok {
			n.Fields = flags(map[string]bool{"unless": data.Unless, "modifier": data.Modifier})
			d.add(&n, "cond", data.Cond)
			n.Children = append(n.Children, d.stmts("then", data.Then)...)
			n.Children = append(n.Children, d.stmts("else", data.Else)...)
		}
	case ast.StmtWhile:
		if data, ok := d.b.Stmts.While(id); ok {
			n.Fields = flags(map[string]bool{"until": data.Until, "modifier": data.Modifier})
			d.add(&n, "cond", data.Cond)
			n.Children = append(n.Children, d.stmts("", data.Body)...)
		}
	case ast.StmtFor:
		if data, ok := d.b.Stmts.For(id); ok {
			n.Children = append(n.Children, d.exprs("var", data.Vars)...)
			d.add(&n, "iter", data.Iter)
			n.Children = append(n.Children, d.stmts("", data.Body)...)
		}
	case ast.StmtCase:
		if data, ok := d.b.Stmts.Case(id); ok {
			d.add(&n, "subject", data.Subject)
			for _, wc := range data.Whens {
				wn := ASTNodeOutput{Type: "When", Span: wc.Span}
				wn.Children = append(wn.Children, d.exprs("cond", wc.Conds)...)
				wn.Children = append(wn.Children, d.stmts("", wc.Body)...)
				n.Children = append(n.Children, wn)
			}
			n.Children = append(n.Children, d.stmts("else", data.Else)...)
		}
	case ast.StmtReturn:
		if data, ok := d.b.Stmts.Return(id); ok {
			n.Text = data.Keyword
			n.Children = append(n.Children, d.exprs("", data.Values)...)
		}
	case ast.StmtBegin:
		if data, ok := d.b.Stmts.Begin(id); ok {
			d.body(&n, &data.Body)
		}
	}
	return n, true
}

func (d astDumper) expr(role string, id ast.ExprID) (ASTNodeOutput, bool) {
	if !id.IsValid() {
		return ASTNodeOutput{}, false
	}
	e := d.b.Exprs.Get(id)
	if e == nil {
		return ASTNodeOutput{}, false
	}
	n := ASTNodeOutput{Type: "Expr", Kind: e.Kind.String(), Role: role, Span: e.Span}

	switch e.Kind {
	case ast.ExprIdent:
		if data, ok := d.b.Exprs.Ident(id); ok {
			n.Text = data.Name
			n.Fields = flags(map[string]bool{"local": data.Local})
		}
	case ast.ExprConst:
		if data, ok := d.b.Exprs.Const(id); ok {
			n.Text = data.Name
			n.Fields = flags(map[string]bool{"top_level": data.TopLevel})
			d.add(&n, "scope", data.Scope)
		}
	case ast.ExprVar:
		if data, ok := d.b.Exprs.Var(id); ok {
			n.Text = data.Name
		}
	case ast.ExprLit:
		if data, ok := d.b.Exprs.Literal(id); ok {
			n.Kind = "Lit(" + data.Kind.String() + ")"
			n.Text = data.Value
		}
	case ast.ExprStr:
		if data, ok := d.b.Exprs.Str(id); ok {
			n.Fields = map[string]any{"quote": quoteName(data.Quote)}
			for _, seg := range data.Segments {
				if seg.Kind == ast.SegText {
					n.Children = append(n.Children, ASTNodeOutput{Type: "Segment", Kind: "Text", Span: seg.Span, Text: seg.Text})
					continue
				}
				sn := ASTNodeOutput{Type: "Segment", Kind: "Interp", Span: seg.Span}
				d.add(&sn, "", seg.Expr)
				n.Children = append(n.Children, sn)
			}
		}
	case ast.ExprCall:
		if data, ok := d.b.Exprs.Call(id); ok {
			n.Text = data.Name
			n.Fields = flags(map[string]bool{"parens": data.HasParens, "safe_nav": data.SafeNav})
			d.add(&n, "receiver", data.Receiver)
			n.Children = append(n.Children, d.exprs("arg", data.Args)...)
			d.add(&n, "block", data.Block)
		}
	case ast.ExprBinary:
		if data, ok := d.b.Exprs.Binary(id); ok {
			n.Text = data.Op
			d.add(&n, "left", data.Left)
			d.add(&n, "right", data.Right)
		}
	case ast.ExprUnary:
		if data, ok := d.b.Exprs.Unary(id); ok {
			n.Text = data.Op
			d.add(&n, "", data.Operand)
		}
	case ast.ExprAssign:
		if data, ok := d.b.Exprs.Assign(id); ok {
			n.Text = data.Op
			n.Children = append(n.Children, d.exprs("target", data.Targets)...)
			d.add(&n, "value", data.Value)
		}
	case ast.ExprIndex:
		if data, ok := d.b.Exprs.Index(id); ok {
			d.add(&n, "target", data.Target)
			n.Children = append(n.Children, d.exprs("arg", data.Args)...)
		}
	case ast.ExprArray:
		if data, ok := d.b.Exprs.Array(id); ok {
			n.Children = append(n.Children, d.exprs("", data.Elements)...)
		}
	case ast.ExprHash:
		if data, ok := d.b.Exprs.Hash(id); ok {
			n.Fields = flags(map[string]bool{"braces": data.Braces})
			for _, p := range data.Pairs {
				d.add(&n, "key", p.Key)
				d.add(&n, "value", p.Value)
			}
		}
	case ast.ExprGroup:
		if data, ok := d.b.Exprs.Group(id); ok {
			n.Children = append(n.Children, d.stmts("", data.Body)...)
		}
	case ast.ExprTernary:
		if data, ok := d.b.Exprs.Ternary(id); ok {
			d.add(&n, "cond", data.Cond)
			d.add(&n, "then", data.Then)
			d.add(&n, "else", data.Else)
		}
	case ast.ExprBlock, ast.ExprLambda:
		if data, ok := d.b.Exprs.Block(id); ok {
			d.params(&n, data.Params)
			d.body(&n, &data.Body)
		}
	}
	return n, true
}

// flags keeps only the set booleans; nil when none is set.
func flags(in map[string]bool) map[string]any {
	var out map[string]any
	for k, v := range in {
		if !v {
			continue
		}
		if out == nil {
			out = make(map[string]any, len(in))
		}
		out[k] = true
	}
	return out
}

func quoteName(q ast.StrQuote) string {
	switch q {
	case ast.QuoteSingle:
		return "single"
	case ast.QuotePercent:
		return "percent"
	case ast.QuoteHeredoc:
		return "heredoc"
	case ast.QuoteChar:
		return "char"
	}
	return "double"
}
