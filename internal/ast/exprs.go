package ast

import (
	"rbsec/internal/source"
)

// Exprs manages allocation of expressions. Every kind keeps its payload in
// its own arena; Expr.Payload indexes into it.
type Exprs struct {
	Arena     *Arena[Expr]
	Idents    *Arena[ExprIdentData]
	Consts    *Arena[ExprConstData]
	Vars      *Arena[ExprVarData]
	Literals  *Arena[ExprLiteralData]
	Strs      *Arena[ExprStrData]
	Calls     *Arena[ExprCallData]
	Binaries  *Arena[ExprBinaryData]
	Unaries   *Arena[ExprUnaryData]
	Assigns   *Arena[ExprAssignData]
	Indices   *Arena[ExprIndexData]
	Arrays    *Arena[ExprArrayData]
	Hashes    *Arena[ExprHashData]
	Groups    *Arena[ExprGroupData]
	Ternaries *Arena[ExprTernaryData]
	Blocks    *Arena[ExprBlockData]
}

func NewExprs(capHint uint) *Exprs {
	if capHint == 0 {
		capHint = 1 << 8
	}
	small := capHint/4 + 1
	return &Exprs{
		Arena:     NewArena[Expr](capHint),
		Idents:    NewArena[ExprIdentData](capHint),
		Consts:    NewArena[ExprConstData](small),
		Vars:      NewArena[ExprVarData](small),
		Literals:  NewArena[ExprLiteralData](capHint),
		Strs:      NewArena[ExprStrData](capHint),
		Calls:     NewArena[ExprCallData](capHint),
		Binaries:  NewArena[ExprBinaryData](small),
		Unaries:   NewArena[ExprUnaryData](small),
		Assigns:   NewArena[ExprAssignData](small),
		Indices:   NewArena[ExprIndexData](small),
		Arrays:    NewArena[ExprArrayData](small),
		Hashes:    NewArena[ExprHashData](small),
		Groups:    NewArena[ExprGroupData](small),
		Ternaries: NewArena[ExprTernaryData](small),
		Blocks:    NewArena[ExprBlockData](small),
	}
}

func (e *Exprs) new(kind ExprKind, span source.Span, payload uint32) ExprID {
	return ExprID(e.Arena.Allocate(Expr{
		Kind:    kind,
		Span:    span,
		Payload: PayloadID(payload),
	}))
}

func (e *Exprs) Get(id ExprID) *Expr {
	return e.Arena.Get(uint32(id))
}

func (e *Exprs) payload(id ExprID, kind ExprKind) (uint32, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != kind {
		return 0, false
	}
	return uint32(expr.Payload), true
}

func (e *Exprs) NewIdent(span source.Span, data ExprIdentData) ExprID {
	return e.new(ExprIdent, span, e.Idents.Allocate(data))
}

func (e *Exprs) Ident(id ExprID) (*ExprIdentData, bool) {
	p, ok := e.payload(id, ExprIdent)
	if !ok {
		return nil, false
	}
	return e.Idents.Get(p), true
}

func (e *Exprs) NewConst(span source.Span, data ExprConstData) ExprID {
	return e.new(ExprConst, span, e.Consts.Allocate(data))
}

func (e *Exprs) Const(id ExprID) (*ExprConstData, bool) {
	p, ok := e.payload(id, ExprConst)
	if !ok {
		return nil, false
	}
	return e.Consts.Get(p), true
}

func (e *Exprs) NewVar(span source.Span, data ExprVarData) ExprID {
	return e.new(ExprVar, span, e.Vars.Allocate(data))
}

func (e *Exprs) Var(id ExprID) (*ExprVarData, bool) {
	p, ok := e.payload(id, ExprVar)
	if !ok {
		return nil, false
	}
	return e.Vars.Get(p), true
}

func (e *Exprs) NewLiteral(span source.Span, data ExprLiteralData) ExprID {
	return e.new(ExprLit, span, e.Literals.Allocate(data))
}

func (e *Exprs) Literal(id ExprID) (*ExprLiteralData, bool) {
	p, ok := e.payload(id, ExprLit)
	if !ok {
		return nil, false
	}
	return e.Literals.Get(p), true
}

func (e *Exprs) NewStr(span source.Span, data ExprStrData) ExprID {
	return e.new(ExprStr, span, e.Strs.Allocate(data))
}

func (e *Exprs) Str(id ExprID) (*ExprStrData, bool) {
	p, ok := e.payload(id, ExprStr)
	if !ok {
		return nil, false
	}
	return e.Strs.Get(p), true
}

func (e *Exprs) NewCall(span source.Span, data ExprCallData) ExprID {
	return e.new(ExprCall, span, e.Calls.Allocate(data))
}

func (e *Exprs) Call(id ExprID) (*ExprCallData, bool) {
	p, ok := e.payload(id, ExprCall)
	if !ok {
		return nil, false
	}
	return e.Calls.Get(p), true
}

func (e *Exprs) NewBinary(span source.Span, data ExprBinaryData) ExprID {
	return e.new(ExprBinary, span, e.Binaries.Allocate(data))
}

func (e *Exprs) Binary(id ExprID) (*ExprBinaryData, bool) {
	p, ok := e.payload(id, ExprBinary)
	if !ok {
		return nil, false
	}
	return e.Binaries.Get(p), true
}

func (e *Exprs) NewUnary(span source.Span, data ExprUnaryData) ExprID {
	return e.new(ExprUnary, span, e.Unaries.Allocate(data))
}

func (e *Exprs) Unary(id ExprID) (*ExprUnaryData, bool) {
	p, ok := e.payload(id, ExprUnary)
	if !ok {
		return nil, false
	}
	return e.Unaries.Get(p), true
}

func (e *Exprs) NewAssign(span source.Span, data ExprAssignData) ExprID {
	return e.new(ExprAssign, span, e.Assigns.Allocate(data))
}

func (e *Exprs) Assign(id ExprID) (*ExprAssignData, bool) {
	p, ok := e.payload(id, ExprAssign)
	if !ok {
		return nil, false
	}
	return e.Assigns.Get(p), true
}

func (e *Exprs) NewIndex(span source.Span, data ExprIndexData) ExprID {
	return e.new(ExprIndex, span, e.Indices.Allocate(data))
}

func (e *Exprs) Index(id ExprID) (*ExprIndexData, bool) {
	p, ok := e.payload(id, ExprIndex)
	if !ok {
		return nil, false
	}
	return e.Indices.Get(p), true
}

func (e *Exprs) NewArray(span source.Span, data ExprArrayData) ExprID {
	return e.new(ExprArray, span, e.Arrays.Allocate(data))
}

func (e *Exprs) Array(id ExprID) (*ExprArrayData, bool) {
	p, ok := e.payload(id, ExprArray)
	if !ok {
		return nil, false
	}
	return e.Arrays.Get(p), true
}

func (e *Exprs) NewHash(span source.Span, data ExprHashData) ExprID {
	return e.new(ExprHash, span, e.Hashes.Allocate(data))
}

func (e *Exprs) Hash(id ExprID) (*ExprHashData, bool) {
	p, ok := e.payload(id, ExprHash)
	if !ok {
		return nil, false
	}
	return e.Hashes.Get(p), true
}

func (e *Exprs) NewGroup(span source.Span, data ExprGroupData) ExprID {
	return e.new(ExprGroup, span, e.Groups.Allocate(data))
}

func (e *Exprs) Group(id ExprID) (*ExprGroupData, bool) {
	p, ok := e.payload(id, ExprGroup)
	if !ok {
		return nil, false
	}
	return e.Groups.Get(p), true
}

func (e *Exprs) NewTernary(span source.Span, data ExprTernaryData) ExprID {
	return e.new(ExprTernary, span, e.Ternaries.Allocate(data))
}

func (e *Exprs) Ternary(id ExprID) (*ExprTernaryData, bool) {
	p, ok := e.payload(id, ExprTernary)
	if !ok {
		return nil, false
	}
	return e.Ternaries.Get(p), true
}

// NewBlock allocates a block body; lambda is set for "-> (x) { }".
func (e *Exprs) NewBlock(span source.Span, data ExprBlockData, lambda bool) ExprID {
	kind := ExprBlock
	if lambda {
		kind = ExprLambda
	}
	return e.new(kind, span, e.Blocks.Allocate(data))
}

// Block returns the payload of an ExprBlock or ExprLambda.
func (e *Exprs) Block(id ExprID) (*ExprBlockData, bool) {
	expr := e.Get(id)
	if expr == nil || (expr.Kind != ExprBlock && expr.Kind != ExprLambda) {
		return nil, false
	}
	return e.Blocks.Get(uint32(expr.Payload)), true
}
