package ast

import (
	"rbsec/internal/source"
)

type StmtKind uint8

const (
	StmtExpr StmtKind = iota
	StmtDef
	StmtClass
	StmtModule
	StmtIf
	StmtWhile
	StmtFor
	StmtCase
	StmtReturn // return, break, next
	StmtBegin
	StmtAlias // alias, undef, redo, retry: nothing to inspect inside
)

var stmtKindNames = [...]string{
	StmtExpr:   "Expr",
	StmtDef:    "Def",
	StmtClass:  "Class",
	StmtModule: "Module",
	StmtIf:     "If",
	StmtWhile:  "While",
	StmtFor:    "For",
	StmtCase:   "Case",
	StmtReturn: "Return",
	StmtBegin:  "Begin",
	StmtAlias:  "Alias",
}

func (k StmtKind) String() string {
	if int(k) < len(stmtKindNames) {
		return stmtKindNames[k]
	}
	return "Stmt(?)"
}

type Stmt struct {
	Kind    StmtKind
	Span    source.Span
	Payload PayloadID
}

type StmtExprData struct {
	Expr ExprID
}

// Bodystmt is a statement list with optional rescue/else/ensure parts, as
// found in def, class, module, do-blocks and begin.
type Bodystmt struct {
	Body    []StmtID
	Rescues []RescueClause
	Else    []StmtID
	Ensure  []StmtID
}

type RescueClause struct {
	Span    source.Span
	Classes []ExprID
	Var     ExprID // "=> e" target, NoExprID when absent
	Body    []StmtID
}

type StmtDefData struct {
	Singleton ExprID // "self" in def self.name, NoExprID otherwise
	Name      string
	NameSpan  source.Span
	Params    []Param
	Body      Bodystmt
}

type StmtClassData struct {
	Path  ExprID // constant path, or the object of class << obj
	Super ExprID
	Body  Bodystmt
}

type StmtIfData struct {
	Cond     ExprID
	Then     []StmtID
	Else     []StmtID // elsif chains nest as a single StmtIf here
	Unless   bool
	Modifier bool
}

type StmtWhileData struct {
	Cond     ExprID
	Body     []StmtID
	Until    bool
	Modifier bool
}

type StmtForData struct {
	Vars []ExprID
	Iter ExprID
	Body []StmtID
}

type WhenClause struct {
	Span  source.Span
	Conds []ExprID
	Body  []StmtID
}

type StmtCaseData struct {
	Subject ExprID // NoExprID for a bare "case"
	Whens   []WhenClause
	Else    []StmtID
}

type StmtReturnData struct {
	Keyword string
	Values  []ExprID
}

type StmtBeginData struct {
	Body Bodystmt
}
