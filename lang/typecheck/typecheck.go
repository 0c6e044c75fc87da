// Package typecheck is a stand-in for Orus's real Hindley-Milner type
// checker. spec.md scopes the type checker out as an external collaborator,
// referenced only through the "typed AST" contract: every expression node
// carries a resolved Type by the time lang/codegen sees it. This package
// exists to produce that typed AST for tests and the CLI; it performs a
// lightweight, declaration-order inference pass rather than full
// unification. Scope-tree structure (parent-pointer blocks, function-depth
// tracking) is grounded on the teacher's lang/resolver/resolver.go.
package typecheck

import (
	"fmt"

	"github.com/mna/orus/lang/ast"
)

// Error is a single type-checking failure.
type Error struct {
	Pos     string
	Message string
}

func (e *Error) Error() string { return e.Pos + ": " + e.Message }

// ErrorList collects every Error found in one Check call.
type ErrorList []*Error

func (el ErrorList) Error() string {
	if len(el) == 0 {
		return "no errors"
	}
	s := el[0].Error()
	if len(el) > 1 {
		s += fmt.Sprintf(" (and %d more errors)", len(el)-1)
	}
	return s
}

type symbol struct {
	typ     *ast.Type
	mutable bool
}

type scope struct {
	parent  *scope
	syms    map[string]*symbol
	isFunc  bool // true at a function's outermost scope, for depth tracking
	funcRet *ast.Type
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, syms: make(map[string]*symbol)}
}

func (s *scope) declare(name string, typ *ast.Type, mutable bool) {
	s.syms[name] = &symbol{typ: typ, mutable: mutable}
}

func (s *scope) lookup(name string) (*symbol, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if sym, ok := sc.syms[name]; ok {
			return sym, true
		}
	}
	return nil, false
}

func (s *scope) enclosingFunc() *scope {
	for sc := s; sc != nil; sc = sc.parent {
		if sc.isFunc {
			return sc
		}
	}
	return nil
}

// Checker walks a parsed *ast.File and annotates every expression with its
// resolved Type.
type Checker struct {
	file *ast.File

	structs map[string]*ast.Type
	enums   map[string]*ast.Type
	funcs   map[string]*ast.Type

	errs ErrorList
}

// NewChecker prepares a Checker for the given file.
func NewChecker(file *ast.File) *Checker {
	return &Checker{
		file:    file,
		structs: make(map[string]*ast.Type),
		enums:   make(map[string]*ast.Type),
		funcs:   make(map[string]*ast.Type),
	}
}

// Check type-checks c's file in place and returns every error found. A nil
// return means the file is ready for lang/codegen.
func (c *Checker) Check() error {
	c.collectDecls(c.file.Block)

	top := newScope(nil)
	for name, typ := range c.funcs {
		top.declare(name, typ, false)
	}
	c.checkBlock(c.file.Block, top)

	if len(c.errs) == 0 {
		return nil
	}
	return c.errs
}

func (c *Checker) errorf(pos string, format string, args ...any) {
	c.errs = append(c.errs, &Error{Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// collectDecls does a first pass over file-scope declarations so that
// forward references (a function calling another declared later, a struct
// referencing another struct type) resolve correctly.
func (c *Checker) collectDecls(blk *ast.Block) {
	for _, s := range blk.Stmts {
		switch d := s.(type) {
		case *ast.StructDeclStmt:
			c.structs[d.Name] = ast.StructOf(d.Name, d.Fields)
		case *ast.EnumDeclStmt:
			c.enums[d.Name] = ast.EnumOf(d.Name, d.Variants)
		}
	}
	for _, s := range blk.Stmts {
		switch d := s.(type) {
		case *ast.FuncDeclStmt:
			c.funcs[d.Name] = c.funcType(d)
		case *ast.ImplStmt:
			for _, m := range d.Methods {
				c.funcs[d.StructName+"."+m.Name] = c.funcType(m)
			}
		}
	}
}

func (c *Checker) funcType(d *ast.FuncDeclStmt) *ast.Type {
	params := make([]*ast.Type, 0, len(d.Params))
	for _, p := range d.Params {
		params = append(params, p.Type)
	}
	ret := d.Ret
	if ret == nil {
		ret = ast.Simple(ast.VOID)
	}
	return ast.FuncOf(params, ret)
}

func (c *Checker) checkBlock(blk *ast.Block, sc *scope) {
	for i, s := range blk.Stmts {
		blk.Stmts[i] = c.checkStmt(s, sc)
	}
}

func (c *Checker) namedType(name string) *ast.Type {
	if t, ok := c.structs[name]; ok {
		return t
	}
	if t, ok := c.enums[name]; ok {
		return t
	}
	return nil
}
