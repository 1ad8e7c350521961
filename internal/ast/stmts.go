package ast

import (
	"rbsec/internal/source"
)

type Stmts struct {
	Arena     *Arena[Stmt]
	ExprStmts *Arena[StmtExprData]
	Defs      *Arena[StmtDefData]
	Classes   *Arena[StmtClassData]
	Ifs       *Arena[StmtIfData]
	Whiles    *Arena[StmtWhileData]
	Fors      *Arena[StmtForData]
	Cases     *Arena[StmtCaseData]
	Returns   *Arena[StmtReturnData]
	Begins    *Arena[StmtBeginData]
}

func NewStmts(capHint uint) *Stmts {
	if capHint == 0 {
		capHint = 1 << 8
	}
	small := capHint/8 + 1
	return &Stmts{
		Arena:     NewArena[Stmt](capHint),
		ExprStmts: NewArena[StmtExprData](capHint),
		Defs:      NewArena[StmtDefData](small),
		Classes:   NewArena[StmtClassData](small),
		Ifs:       NewArena[StmtIfData](small),
		Whiles:    NewArena[StmtWhileData](small),
		Fors:      NewArena[StmtForData](small),
		Cases:     NewArena[StmtCaseData](small),
		Returns:   NewArena[StmtReturnData](small),
		Begins:    NewArena[StmtBeginData](small),
	}
}

func (s *Stmts) new(kind StmtKind, span source.Span, payload uint32) StmtID {
	return StmtID(s.Arena.Allocate(Stmt{
		Kind:    kind,
		Span:    span,
		Payload: PayloadID(payload),
	}))
}

func (s *Stmts) Get(id StmtID) *Stmt {
	return s.Arena.Get(uint32(id))
}

func (s *Stmts) payload(id StmtID, kind StmtKind) (uint32, bool) {
	st := s.Get(id)
	if st == nil || st.Kind != kind {
		return 0, false
	}
	return uint32(st.Payload), true
}

func (s *Stmts) NewExprStmt(span source.Span, data StmtExprData) StmtID {
	return s.new(StmtExpr, span, s.ExprStmts.Allocate(data))
}

func (s *Stmts) ExprStmt(id StmtID) (*StmtExprData, bool) {
	p, ok := s.payload(id, StmtExpr)
	if !ok {
		return nil, false
	}
	return s.ExprStmts.Get(p), true
}

func (s *Stmts) NewDef(span source.Span, data StmtDefData) StmtID {
	return s.new(StmtDef, span, s.Defs.Allocate(data))
}

func (s *Stmts) Def(id StmtID) (*StmtDefData, bool) {
	p, ok := s.payload(id, StmtDef)
	if !ok {
		return nil, false
	}
	return s.Defs.Get(p), true
}

func (s *Stmts) NewIf(span source.Span, data StmtIfData) StmtID {
	return s.new(StmtIf, span, s.Ifs.Allocate(data))
}

func (s *Stmts) If(id StmtID) (*StmtIfData, bool) {
	p, ok := s.payload(id, StmtIf)
	if !ok {
		return nil, false
	}
	return s.Ifs.Get(p), true
}

func (s *Stmts) NewWhile(span source.Span, data StmtWhileData) StmtID {
	return s.new(StmtWhile, span, s.Whiles.Allocate(data))
}

func (s *Stmts) While(id StmtID) (*StmtWhileData, bool) {
	p, ok := s.payload(id, StmtWhile)
	if !ok {
		return nil, false
	}
	return s.Whiles.Get(p), true
}

func (s *Stmts) NewFor(span source.Span, data StmtForData) StmtID {
	return s.new(StmtFor, span, s.Fors.Allocate(data))
}

func (s *Stmts) For(id StmtID) (*StmtForData, bool) {
	p, ok := s.payload(id, StmtFor)
	if !ok {
		return nil, false
	}
	return s.Fors.Get(p), true
}

func (s *Stmts) NewCase(span source.Span, data StmtCaseData) StmtID {
	return s.new(StmtCase, span, s.Cases.Allocate(data))
}

func (s *Stmts) Case(id StmtID) (*StmtCaseData, bool) {
	p, ok := s.payload(id, StmtCase)
	if !ok {
		return nil, false
	}
	return s.Cases.Get(p), true
}

func (s *Stmts) NewReturn(span source.Span, data StmtReturnData) StmtID {
	return s.new(StmtReturn, span, s.Returns.Allocate(data))
}

func (s *Stmts) Return(id StmtID) (*StmtReturnData, bool) {
	p, ok := s.payload(id, StmtReturn)
	if !ok {
		return nil, false
	}
	return s.Returns.Get(p), true
}

func (s *Stmts) NewBegin(span source.Span, data StmtBeginData) StmtID {
	return s.new(StmtBegin, span, s.Begins.Allocate(data))
}

func (s *Stmts) Begin(id StmtID) (*StmtBeginData, bool) {
	p, ok := s.payload(id, StmtBegin)
	if !ok {
		return nil, false
	}
	return s.Begins.Get(p), true
}

// NewClass allocates a class (module=false) or module body.
func (s *Stmts) NewClass(span source.Span, data StmtClassData, module bool) StmtID {
	kind := StmtClass
	if module {
		kind = StmtModule
	}
	return s.new(kind, span, s.Classes.Allocate(data))
}

// Class returns the payload of a StmtClass or StmtModule.
func (s *Stmts) Class(id StmtID) (*StmtClassData, bool) {
	st := s.Get(id)
	if st == nil || (st.Kind != StmtClass && st.Kind != StmtModule) {
		return nil, false
	}
	return s.Classes.Get(uint32(st.Payload)), true
}

// NewAlias records a statement without children (alias, undef, redo, retry).
func (s *Stmts) NewAlias(span source.Span) StmtID {
	return s.new(StmtAlias, span, 0)
}
