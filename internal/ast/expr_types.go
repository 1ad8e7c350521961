package ast

import (
	"rbsec/internal/source"
)

type ExprKind uint8

const (
	ExprIdent ExprKind = iota
	ExprConst
	ExprVar // @ivar, @@cvar, $gvar
	ExprLit
	ExprStr
	ExprCall
	ExprBinary
	ExprUnary
	ExprAssign
	ExprIndex
	ExprArray
	ExprHash
	ExprGroup
	ExprTernary
	ExprBlock
	ExprLambda
)

var exprKindNames = [...]string{
	ExprIdent:   "Ident",
	ExprConst:   "Const",
	ExprVar:     "Var",
	ExprLit:     "Lit",
	ExprStr:     "Str",
	ExprCall:    "Call",
	ExprBinary:  "Binary",
	ExprUnary:   "Unary",
	ExprAssign:  "Assign",
	ExprIndex:   "Index",
	ExprArray:   "Array",
	ExprHash:    "Hash",
	ExprGroup:   "Group",
	ExprTernary: "Ternary",
	ExprBlock:   "Block",
	ExprLambda:  "Lambda",
}

func (k ExprKind) String() string {
	if int(k) < len(exprKindNames) {
		return exprKindNames[k]
	}
	return "Expr(?)"
}

type Expr struct {
	Kind    ExprKind
	Span    source.Span
	Payload PayloadID
}

// ExprIdentData is a bare lower-case name. Local is set when the name was
// assigned earlier in the enclosing scope, so the read cannot be a call.
type ExprIdentData struct {
	Name  string
	Local bool
}

// ExprConstData is Name, Scope::Name or ::Name.
type ExprConstData struct {
	Scope    ExprID // NoExprID when unscoped
	TopLevel bool   // ::Name
	Name     string
	NameSpan source.Span
}

type ExprVarData struct {
	Name string // with sigil
}

type ExprLitKind uint8

const (
	LitInt ExprLitKind = iota
	LitFloat
	LitNil
	LitTrue
	LitFalse
	LitSelf
	LitSymbol
	LitRegexp
	LitXString
	LitWords
)

var litKindNames = [...]string{
	LitInt: "int", LitFloat: "float", LitNil: "nil", LitTrue: "true", LitFalse: "false",
	LitSelf: "self", LitSymbol: "symbol", LitRegexp: "regexp", LitXString: "xstring", LitWords: "words",
}

func (k ExprLitKind) String() string {
	if int(k) < len(litKindNames) {
		return litKindNames[k]
	}
	return "lit(?)"
}

type ExprLiteralData struct {
	Kind  ExprLitKind
	Value string // raw source text
}

// SegmentKind distinguishes literal text from "#{...}" holes.
type SegmentKind uint8

const (
	SegText SegmentKind = iota
	SegInterp
)

// StrSegment is one piece of a string literal in source order. Text holds
// the unescaped, NFC-normalised content of SegText pieces; Expr the parsed
// hole of SegInterp pieces (NoExprID when the hole is empty or broken).
type StrSegment struct {
	Kind SegmentKind
	Span source.Span
	Text string
	Expr ExprID
}

type StrQuote uint8

const (
	QuoteDouble StrQuote = iota
	QuoteSingle
	QuotePercent
	QuoteHeredoc
	QuoteChar
)

type ExprStrData struct {
	Quote    StrQuote
	Segments []StrSegment
}

// HasInterpolation reports whether any segment is a hole.
func (d *ExprStrData) HasInterpolation() bool {
	for _, s := range d.Segments {
		if s.Kind == SegInterp {
			return true
		}
	}
	return false
}

// ExprCallData is a method call: [Receiver (.|&.|::)] Name [(Args)] [Block].
type ExprCallData struct {
	Receiver  ExprID // NoExprID for receiverless calls
	Name      string
	NameSpan  source.Span
	Args      []ExprID
	HasParens bool
	SafeNav   bool
	Block     ExprID // ExprBlock, or NoExprID
}

type ExprBinaryData struct {
	Op    string
	Left  ExprID
	Right ExprID
}

// ExprUnaryData covers !x, -x, not x, and the argument prefixes *x, **x, &x.
type ExprUnaryData struct {
	Op      string
	Operand ExprID
}

// ExprAssignData is Targets Op Value. Several targets mean a multiple
// assignment; the value is then an array of the right-hand sides.
type ExprAssignData struct {
	Targets []ExprID
	Op      string // "=", "+=", "||=", ...
	Value   ExprID
}

type ExprIndexData struct {
	Target ExprID
	Args   []ExprID
}

type ExprArrayData struct {
	Elements []ExprID
}

type HashPair struct {
	Key   ExprID
	Value ExprID
}

// ExprHashData is {k => v} or the brace-less trailing hash of a call.
type ExprHashData struct {
	Pairs  []HashPair
	Braces bool
}

type ExprGroupData struct {
	Body []StmtID
}

type ExprTernaryData struct {
	Cond ExprID
	Then ExprID
	Else ExprID
}

// Param is a method or block parameter.
type Param struct {
	Name    string
	Span    source.Span
	Prefix  string // "", "*", "**", "&"
	Keyword bool   // name: / name: default
	Default ExprID
}

// ExprBlockData is a do...end or {...} block, or a lambda body.
type ExprBlockData struct {
	Params []Param
	Body   Bodystmt
}
