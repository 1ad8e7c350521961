package ast

// Inspect walks every expression of file in source order, parents before
// children. If fn returns false the children of that expression are
// skipped. Holes of interpolated strings are visited as ordinary children.
func Inspect(b *Builder, file FileID, fn func(ExprID) bool) {
	f := b.Files.Get(file)
	if f == nil {
		return
	}
	w := walker{b: b, fn: fn}
	w.walkStmts(f.Body)
}

// InspectExpr is Inspect for a single subtree.
func InspectExpr(b *Builder, root ExprID, fn func(ExprID) bool) {
	w := walker{b: b, fn: fn}
	w.walkExpr(root)
}

type walker struct {
	b  *Builder
	fn func(ExprID) bool
}

func (w *walker) walkStmts(ids []StmtID) {
	for _, id := range ids {
		w.walkStmt(id)
	}
}

func (w *walker) walkExprs(ids []ExprID) {
	for _, id := range ids {
		w.walkExpr(id)
	}
}

func (w *walker) walkBody(body *Bodystmt) {
	w.walkStmts(body.Body)
	for i := range body.Rescues {
		r := &body.Rescues[i]
		w.walkExprs(r.Classes)
		w.walkExpr(r.Var)
		w.walkStmts(r.Body)
	}
	w.walkStmts(body.Else)
	w.walkStmts(body.Ensure)
}

func (w *walker) walkParams(params []Param) {
	for _, p := range params {
		w.walkExpr(p.Default)
	}
}

func (w *walker) walkStmt(id StmtID) {
	stmt := w.b.Stmts.Get(id)
	if stmt == nil {
		return
	}
	switch stmt.Kind {
	case StmtExpr:
		if data, ok := w.b.Stmts.ExprStmt(id); ok {
			w.walkExpr(data.Expr)
		}
	case StmtDef:
		if data, ok := w.b.Stmts.Def(id); ok {
			w.walkExpr(data.Singleton)
			w.walkParams(data.Params)
			w.walkBody(&data.Body)
		}
	case StmtClass, StmtModule:
		if data, ok := w.b.Stmts.Class(id); ok {
			w.walkExpr(data.Path)
			w.walkExpr(data.Super)
			w.walkBody(&data.Body)
		}
	case StmtIf:
		if data, ok := w.b.Stmts.If(id); ok {
			// модификатор "x if c" вычисляет условие первым
			w.walkExpr(data.Cond)
			w.walkStmts(data.Then)
			w.walkStmts(data.Else)
		}
	case StmtWhile:
		if data, ok := w.b.Stmts.While(id); ok {
			w.walkExpr(data.Cond)
			w.walkStmts(data.Body)
		}
	case StmtFor:
		if data, ok := w.b.Stmts.For(id); ok {
			w.walkExprs(data.Vars)
			w.walkExpr(data.Iter)
			w.walkStmts(data.Body)
		}
	case StmtCase:
		if data, ok := w.b.Stmts.Case(id); ok {
			w.walkExpr(data.Subject)
			for i := range data.Whens {
				w.walkExprs(data.Whens[i].Conds)
				w.walkStmts(data.Whens[i].Body)
			}
			w.walkStmts(data.Else)
		}
	case StmtReturn:
		if data, ok := w.b.Stmts.Return(id); ok {
			w.walkExprs(data.Values)
		}
	case StmtBegin:
		if data, ok := w.b.Stmts.Begin(id); ok {
			w.walkBody(&data.Body)
		}
	case StmtAlias:
	}
}

func (w *walker) walkExpr(id ExprID) {
	if !id.IsValid() {
		return
	}
	expr := w.b.Exprs.Get(id)
	if expr == nil || !w.fn(id) {
		return
	}
	e := w.b.Exprs
	switch expr.Kind {
	case ExprConst:
		if data, ok := e.Const(id); ok {
			w.walkExpr(data.Scope)
		}
	case ExprStr:
		if data, ok := e.Str(id); ok {
			for _, seg := range data.Segments {
				if seg.Kind == SegInterp {
					w.walkExpr(seg.Expr)
				}
			}
		}
	case ExprCall:
		if data, ok := e.Call(id); ok {
			w.walkExpr(data.Receiver)
			w.walkExprs(data.Args)
			w.walkExpr(data.Block)
		}
	case ExprBinary:
		if data, ok := e.Binary(id); ok {
			w.walkExpr(data.Left)
			w.walkExpr(data.Right)
		}
	case ExprUnary:
		if data, ok := e.Unary(id); ok {
			w.walkExpr(data.Operand)
		}
	case ExprAssign:
		if data, ok := e.Assign(id); ok {
			w.walkExprs(data.Targets)
			w.walkExpr(data.Value)
		}
	case ExprIndex:
		if data, ok := e.Index(id); ok {
			w.walkExpr(data.Target)
			w.walkExprs(data.Args)
		}
	case ExprArray:
		if data, ok := e.Array(id); ok {
			w.walkExprs(data.Elements)
		}
	case ExprHash:
		if data, ok := e.Hash(id); ok {
			for _, pair := range data.Pairs {
				w.walkExpr(pair.Key)
				w.walkExpr(pair.Value)
			}
		}
	case ExprGroup:
		if data, ok := e.Group(id); ok {
			w.walkStmts(data.Body)
		}
	case ExprTernary:
		if data, ok := e.Ternary(id); ok {
			w.walkExpr(data.Cond)
			w.walkExpr(data.Then)
			w.walkExpr(data.Else)
		}
	case ExprBlock, ExprLambda:
		if data, ok := e.Block(id); ok {
			w.walkParams(data.Params)
			w.walkBody(&data.Body)
		}
	case ExprIdent, ExprVar, ExprLit:
	}
}
