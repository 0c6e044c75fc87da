// Printer walks a parsed File and writes an indented, one-node-per-line
// dump of it, grounded on the shape of the teacher's lang/ast.Printer
// (depth-indented "%s:%s node" lines) but driving its own direct
// statement/expression switch instead of a separate Walk/Visitor pair,
// since this package's node set carries no comment attachments to thread
// through a generic visitor.
package ast

import (
	"fmt"
	"io"
	"strings"
)

// Printer controls how Print renders a File.
type Printer struct {
	// Output is where the dump is written.
	Output io.Writer
	// ShowPos includes each node's line:col in the dump when true.
	ShowPos bool
}

// Print writes f's statement tree to p.Output.
func (p *Printer) Print(f *File) error {
	pp := &printer{w: p.Output, showPos: p.ShowPos}
	pp.block(f.Block, 0)
	return pp.err
}

type printer struct {
	w       io.Writer
	showPos bool
	err     error
}

func (p *printer) line(depth int, format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, strings.Repeat(". ", depth)+format+"\n", args...)
}

func (p *printer) pos(n Node) string {
	if !p.showPos {
		return ""
	}
	start, _ := n.Span()
	l, c := start.LineCol()
	return fmt.Sprintf("[%d:%d] ", l, c)
}

func (p *printer) block(b *Block, depth int) {
	if b == nil {
		return
	}
	for _, s := range b.Stmts {
		p.stmt(s, depth)
	}
}

func (p *printer) stmt(s Stmt, depth int) {
	switch x := s.(type) {
	case *ExprStmt:
		p.line(depth, "%sExprStmt", p.pos(x))
		p.expr(x.X, depth+1)
	case *VarDeclStmt:
		p.line(depth, "%sVarDecl %s mutable=%t public=%t", p.pos(x), x.Name, x.Mutable, x.Public)
		if x.Init != nil {
			p.expr(x.Init, depth+1)
		}
	case *AssignStmt:
		p.line(depth, "%sAssign", p.pos(x))
		p.expr(x.Value, depth+1)
	case *PrintStmt:
		p.line(depth, "%sPrint", p.pos(x))
		for _, a := range x.Args {
			p.expr(a, depth+1)
		}
	case *IfStmt:
		p.line(depth, "%sIf", p.pos(x))
		p.expr(x.Cond, depth+1)
		p.line(depth, "Then")
		p.block(x.Then, depth+1)
		if x.Else != nil {
			p.line(depth, "Else")
			p.block(x.Else, depth+1)
		}
	case *WhileStmt:
		p.line(depth, "%sWhile", p.pos(x))
		p.expr(x.Cond, depth+1)
		p.block(x.Body, depth+1)
	case *ForRangeStmt:
		p.line(depth, "%sForRange %s inclusive=%t", p.pos(x), x.Var, x.Inclusive)
		p.expr(x.Start, depth+1)
		p.expr(x.End, depth+1)
		p.block(x.Body, depth+1)
	case *ForIterStmt:
		p.line(depth, "%sForIter %s", p.pos(x), x.Var)
		p.expr(x.Iter, depth+1)
		p.block(x.Body, depth+1)
	case *TryStmt:
		p.line(depth, "%sTry", p.pos(x))
		p.block(x.Body, depth+1)
		if x.CatchBlock != nil {
			p.line(depth, "Catch %s", x.CatchVar)
			p.block(x.CatchBlock, depth+1)
		}
	case *ThrowStmt:
		p.line(depth, "%sThrow", p.pos(x))
		p.expr(x.Value, depth+1)
	case *ReturnStmt:
		p.line(depth, "%sReturn", p.pos(x))
		if x.Value != nil {
			p.expr(x.Value, depth+1)
		}
	case *BreakStmt:
		p.line(depth, "%sBreak", p.pos(x))
	case *ContinueStmt:
		p.line(depth, "%sContinue", p.pos(x))
	case *ImportStmt:
		p.line(depth, "%sImport %s all=%t", p.pos(x), x.Module, x.All)
	case *FuncDeclStmt:
		p.line(depth, "%sFuncDecl %s public=%t params=%d", p.pos(x), x.Name, x.Public, len(x.Params))
		p.block(x.Body, depth+1)
	case *StructDeclStmt:
		p.line(depth, "%sStructDecl %s fields=%d", p.pos(x), x.Name, len(x.Fields))
	case *EnumDeclStmt:
		p.line(depth, "%sEnumDecl %s variants=%d", p.pos(x), x.Name, len(x.Variants))
	case *ImplStmt:
		p.line(depth, "%sImpl %s methods=%d", p.pos(x), x.StructName, len(x.Methods))
		for _, m := range x.Methods {
			p.stmt(m, depth+1)
		}
	default:
		p.line(depth, "%s%T", p.pos(s), s)
	}
}

func (p *printer) expr(e Expr, depth int) {
	switch x := e.(type) {
	case *LiteralExpr:
		p.line(depth, "%sLiteral %s", p.pos(x), x.Kind)
	case *IdentExpr:
		p.line(depth, "%sIdent %s", p.pos(x), x.Name)
	case *ArrayLitExpr:
		p.line(depth, "%sArrayLit len=%d", p.pos(x), len(x.Elems))
		for _, el := range x.Elems {
			p.expr(el, depth+1)
		}
	case *ArrayFillExpr:
		p.line(depth, "%sArrayFill count=%d", p.pos(x), x.Count)
		p.expr(x.Value, depth+1)
	case *StructLitExpr:
		p.line(depth, "%sStructLit %s", p.pos(x), x.StructName)
		for _, v := range x.Values {
			p.expr(v, depth+1)
		}
	case *EnumLitExpr:
		p.line(depth, "%sEnumLit %s.%s", p.pos(x), x.EnumName, x.VariantName)
		for _, a := range x.Args {
			p.expr(a, depth+1)
		}
	case *IndexExpr:
		p.line(depth, "%sIndex", p.pos(x))
		p.expr(x.Container, depth+1)
		p.expr(x.Index, depth+1)
	case *SliceExpr:
		p.line(depth, "%sSlice", p.pos(x))
		p.expr(x.Container, depth+1)
	case *BinaryExpr:
		p.line(depth, "%sBinary %s", p.pos(x), x.Op)
		p.expr(x.Left, depth+1)
		p.expr(x.Right, depth+1)
	case *UnaryExpr:
		p.line(depth, "%sUnary %s", p.pos(x), x.Op)
		p.expr(x.Operand, depth+1)
	case *CastExpr:
		p.line(depth, "%sCast", p.pos(x))
		p.expr(x.Operand, depth+1)
	case *MemberExpr:
		p.line(depth, "%sMember %s", p.pos(x), x.Name)
		p.expr(x.Object, depth+1)
	case *CallExpr:
		p.line(depth, "%sCall", p.pos(x))
		p.expr(x.Fn, depth+1)
		for _, a := range x.Args {
			p.expr(a, depth+1)
		}
	case *MatchExpr:
		p.line(depth, "%sMatch", p.pos(x))
		p.expr(x.Subject, depth+1)
		for _, arm := range x.Arms {
			p.expr(arm.Body, depth+1)
		}
	default:
		p.line(depth, "%s%T", p.pos(e), e)
	}
}
