package typecheck

import (
	"strconv"

	"github.com/mna/orus/lang/ast"
	"github.com/mna/orus/lang/token"
)

func (c *Checker) checkStmt(s ast.Stmt, sc *scope) ast.Stmt {
	switch st := s.(type) {
	case *ast.ExprStmt:
		st.X = c.checkExpr(st.X, sc)
	case *ast.VarDeclStmt:
		st.Init = c.checkExpr(st.Init, sc)
		if st.Type == nil {
			st.Type = st.Init.ResolvedType()
		}
		sc.declare(st.Name, st.Type, st.Mutable)
	case *ast.AssignStmt:
		c.checkAssign(st, sc)
	case *ast.PrintStmt:
		for i, a := range st.Args {
			st.Args[i] = c.checkExpr(a, sc)
		}
	case *ast.IfStmt:
		st.Cond = c.checkExpr(st.Cond, sc)
		c.checkBlock(st.Then, newScope(sc))
		if st.Else != nil {
			c.checkBlock(st.Else, newScope(sc))
		}
	case *ast.WhileStmt:
		st.Cond = c.checkExpr(st.Cond, sc)
		c.checkBlock(st.Body, newScope(sc))
	case *ast.ForRangeStmt:
		st.Start = c.checkExpr(st.Start, sc)
		st.End = c.checkExpr(st.End, sc)
		if st.Step != nil {
			st.Step = c.checkExpr(st.Step, sc)
		}
		st.StepSign = inferStepSign(st.Step)
		body := newScope(sc)
		body.declare(st.Var, ast.Simple(ast.I32), true)
		c.checkBlock(st.Body, body)
	case *ast.ForIterStmt:
		st.Iter = c.checkExpr(st.Iter, sc)
		elem := ast.Simple(ast.ANY)
		if t := st.Iter.ResolvedType(); t != nil && t.Kind == ast.ARRAY {
			elem = t.Elem
		}
		body := newScope(sc)
		body.declare(st.Var, elem, true)
		c.checkBlock(st.Body, body)
	case *ast.TryStmt:
		c.checkBlock(st.Body, newScope(sc))
		if st.CatchBlock != nil {
			cs := newScope(sc)
			if st.CatchVar != "" {
				cs.declare(st.CatchVar, ast.Simple(ast.ANY), false)
			}
			c.checkBlock(st.CatchBlock, cs)
		}
	case *ast.ThrowStmt:
		st.Value = c.checkExpr(st.Value, sc)
	case *ast.ReturnStmt:
		if st.Value != nil {
			st.Value = c.checkExpr(st.Value, sc)
		}
	case *ast.FuncDeclStmt:
		c.checkFunc(st, sc)
	case *ast.ImplStmt:
		for _, m := range st.Methods {
			c.checkFunc(m, sc)
		}
	case *ast.StructDeclStmt, *ast.EnumDeclStmt, *ast.ImportStmt,
		*ast.BreakStmt, *ast.ContinueStmt:
		// nothing to resolve
	}
	return s
}

func (c *Checker) checkFunc(d *ast.FuncDeclStmt, outer *scope) {
	fs := newScope(outer)
	fs.isFunc = true
	ret := d.Ret
	if ret == nil {
		ret = ast.Simple(ast.VOID)
	}
	fs.funcRet = ret
	if d.IsInstance && d.Receiver != "" {
		fs.declare("self", &ast.Type{Kind: ast.INSTANCE, Name: d.Receiver, Base: c.namedType(d.Receiver)}, false)
	}
	for _, p := range d.Params {
		fs.declare(p.Name, p.Type, false)
	}
	c.checkBlock(d.Body, fs)
}

func (c *Checker) checkAssign(st *ast.AssignStmt, sc *scope) {
	st.Value = c.checkExpr(st.Value, sc)
	switch st.Kind {
	case ast.AssignSimple:
		sym, ok := sc.lookup(st.Name)
		if !ok {
			c.errorf(posString(st), "undefined variable %q", st.Name)
			return
		}
		if !sym.mutable {
			c.errorf(posString(st), "cannot assign to immutable variable %q", st.Name)
		}
		st.IncFastPath = isIncFastPath(st, sym)
	case ast.AssignIndex:
		st.Container = c.checkExpr(st.Container, sc)
		st.Index = c.checkExpr(st.Index, sc)
	case ast.AssignMember:
		st.Object = c.checkExpr(st.Object, sc)
		if t := st.Object.ResolvedType(); t != nil {
			st.FieldIndex = t.FieldIndex(st.FieldName)
		}
	}
}

// isIncFastPath recognizes `x = x + 1` with x: i32, the fused increment
// path codegen's control-flow engine looks for (spec.md §4.6, §4.9).
func isIncFastPath(st *ast.AssignStmt, sym *symbol) bool {
	if sym.typ == nil || sym.typ.Kind != ast.I32 {
		return false
	}
	bin, ok := st.Value.(*ast.BinaryExpr)
	if !ok || bin.Op != token.PLUS {
		return false
	}
	id, ok := bin.Left.(*ast.IdentExpr)
	if !ok || id.Name != st.Name {
		return false
	}
	lit, ok := bin.Right.(*ast.LiteralExpr)
	return ok && lit.Kind == ast.I32 && lit.Int == 1
}

func inferStepSign(step ast.Expr) ast.StepSign {
	lit, ok := step.(*ast.LiteralExpr)
	if !ok {
		if step == nil {
			return ast.StepPositive
		}
		return ast.StepUnknown
	}
	switch {
	case lit.Int > 0 || lit.Float > 0:
		return ast.StepPositive
	case lit.Int < 0 || lit.Float < 0:
		return ast.StepNegative
	default:
		return ast.StepUnknown
	}
}

func posString(n ast.Node) string {
	start, _ := n.Span()
	l, col := start.LineCol()
	if l == 0 {
		return "?"
	}
	return strconv.Itoa(l) + ":" + strconv.Itoa(col)
}
