// Package ast declares the typed-AST node shapes consumed by lang/codegen:
// spec.md §6 "a typed AST node carrying (a) the original source AST node...
// (b) a resolved type... and (c) pre-computed helpers". Grounded on the
// teacher's lang/ast package (Node/Expr/Stmt interface shapes, Span()), with
// the node inventory rewritten for Orus's expression/statement set instead
// of the teacher's Lua-flavored grammar.
package ast

import "github.com/mna/orus/lang/token"

// Node is any AST node with a source span.
type Node interface {
	Span() (start, end token.Pos)
}

// Expr is a typed expression node: every Expr carries its resolved Type,
// filled in by lang/typecheck.
type Expr interface {
	Node
	exprNode()
	ResolvedType() *Type
	SetResolvedType(*Type)
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// BaseNode is embedded by every concrete node type to supply its source
// span. Exported (unlike the teacher's per-node Start/End fields) so that
// lang/parser, which lives in a different package, can populate it with a
// keyed struct literal.
type BaseNode struct {
	Start, End token.Pos
}

func (b BaseNode) Span() (token.Pos, token.Pos) { return b.Start, b.End }

// BaseExpr is embedded by every concrete Expr type.
type BaseExpr struct {
	BaseNode
	Type *Type
}

func (b *BaseExpr) exprNode()               {}
func (b *BaseExpr) ResolvedType() *Type     { return b.Type }
func (b *BaseExpr) SetResolvedType(t *Type) { b.Type = t }

// BaseStmt is embedded by every concrete Stmt type.
type BaseStmt struct{ BaseNode }

func (b BaseStmt) stmtNode() {}

// Block is a sequence of statements forming a lexical scope per spec.md §3
// "scope frame".
type Block struct {
	BaseNode
	Stmts []Stmt
}

// File is one compiled source unit: its top-level statements plus the file
// name used for diagnostics and debug position triples.
type File struct {
	Name  string
	Block *Block
}
