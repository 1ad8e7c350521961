package cop

import (
	"strings"

	"rbsec/internal/ast"
)

// Adapt turns a call expression into a CallSite. It returns false for
// anything that is not a well-formed call.
func Adapt(b *ast.Builder, id ast.ExprID) (CallSite, bool) {
	expr := b.Exprs.Get(id)
	call, ok := b.Exprs.Call(id)
	if !ok || expr == nil || call.Name == "" {
		return CallSite{}, false
	}
	site := CallSite{
		File:     expr.Span.File,
		Receiver: adaptReceiver(b, call.Receiver),
		SafeNav:  call.SafeNav,
		Method:   call.Name,
		NameSpan: call.NameSpan,
		Span:     expr.Span,
		Args:     make([]Argument, 0, len(call.Args)),
	}
	for _, arg := range call.Args {
		site.Args = append(site.Args, adaptArgument(b, arg))
	}
	return site, true
}

func adaptReceiver(b *ast.Builder, id ast.ExprID) Receiver {
	if !id.IsValid() {
		return Receiver{Kind: ReceiverNone}
	}
	expr := b.Exprs.Get(id)
	if expr == nil {
		return Receiver{Kind: ReceiverOther}
	}
	name, topLevel, ok := constPath(b, id)
	if !ok {
		return Receiver{Kind: ReceiverOther, Span: expr.Span}
	}
	return Receiver{Kind: ReceiverConst, Name: name, TopLevel: topLevel, Span: expr.Span}
}

// constPath собирает "A::B::C" из цепочки констант.
func constPath(b *ast.Builder, id ast.ExprID) (string, bool, bool) {
	var parts []string
	topLevel := false
	for id.IsValid() {
		c, ok := b.Exprs.Const(id)
		if !ok {
			return "", false, false
		}
		parts = append(parts, c.Name)
		topLevel = c.TopLevel
		id = c.Scope
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "::"), topLevel, len(parts) > 0
}

func adaptArgument(b *ast.Builder, id ast.ExprID) Argument {
	expr := b.Exprs.Get(id)
	if expr == nil {
		return Argument{Kind: ArgOther}
	}
	if str, ok := b.Exprs.Str(id); ok {
		return Argument{Kind: ArgString, Segments: adaptSegments(str), Span: expr.Span}
	}
	if left, ok := concatHead(b, id); ok {
		// "literal" + rest: the literal followed by one hole for rest
		segs := adaptSegments(left)
		segs = append(segs, Segment{Kind: SegmentInterpolation, Span: expr.Span})
		return Argument{Kind: ArgConcat, Segments: segs, Span: expr.Span}
	}
	return Argument{Kind: ArgOther, Span: expr.Span}
}

// concatHead returns the leftmost string literal of a "+" chain.
func concatHead(b *ast.Builder, id ast.ExprID) (*ast.ExprStrData, bool) {
	bin, ok := b.Exprs.Binary(id)
	if !ok || bin.Op != "+" || !bin.Right.IsValid() {
		return nil, false
	}
	if str, ok := b.Exprs.Str(bin.Left); ok {
		return str, true
	}
	return concatHead(b, bin.Left)
}

func adaptSegments(str *ast.ExprStrData) []Segment {
	segs := make([]Segment, 0, len(str.Segments))
	for _, s := range str.Segments {
		switch s.Kind {
		case ast.SegText:
			segs = append(segs, Segment{Kind: SegmentText, Text: s.Text, Span: s.Span})
		case ast.SegInterp:
			segs = append(segs, Segment{Kind: SegmentInterpolation, Span: s.Span})
		}
	}
	return segs
}
