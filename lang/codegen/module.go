package codegen

import (
	"github.com/mna/orus/lang/ast"
	"github.com/mna/orus/lang/modulemgr"
)

// compileImport implements the module link layer (C11, spec.md §4.11) for
// a single `use` statement: `use mod` binds mod as a bare namespace later
// MemberExpr access resolves against; `use mod.{a, b as c}` instead
// declares each symbol directly in the current scope, so later references
// are plain identifiers.
func (fc *funcCompiler) compileImport(s *ast.ImportStmt) {
	if fc.ctx.modules == nil {
		fc.ctx.errorf(posOf(s), "E4001", "cannot resolve `use %s`: no module manager configured", s.Module)
		return
	}
	mod, err := fc.ctx.modules.FindModule(s.Module)
	if err != nil {
		fc.ctx.errorf(posOf(s), "E4002", "%s", err)
		return
	}

	if s.All {
		fc.ctx.namespaces[namespaceAlias(s.Module)] = s.Module
		return
	}

	for _, sym := range s.Symbols {
		exp, ok := mod.Resolve(sym.Name)
		if !ok {
			fc.ctx.errorf(posOf(s), "E4003", "module %q has no export %q", s.Module, sym.Name)
			continue
		}
		if !fc.ctx.recordImport(s.Module, sym.Name, sym.Alias, exp.Kind, exp.Register) {
			continue // already imported under this (module, symbol) pair
		}
		if exp.Register == modulemgr.NoRegister {
			// Type-only export (struct/enum): nothing to bind to a register,
			// the type is consulted directly wherever lang/typecheck resolved
			// the reference.
			continue
		}
		if err := fc.alloc.ReserveGlobal(exp.Register); err != nil {
			fc.ctx.errorf(posOf(s), "E4004", "%s", err)
			continue
		}
		if _, err := fc.ctx.syms.Declare(sym.Alias, exp.Type, false, exp.Register, lineOf(s), true); err != nil {
			fc.ctx.errorf(posOf(s), "E1001", "%s", err)
		}
	}
}

// namespaceAlias derives the local binding name for a bare `use mod.sub`
// import: the last path segment, so `use geometry.shapes` is referred to
// as `shapes.circle_area(...)`.
func namespaceAlias(modulePath string) string {
	last := modulePath
	for i := len(modulePath) - 1; i >= 0; i-- {
		if modulePath[i] == '.' || modulePath[i] == '/' {
			last = modulePath[i+1:]
			break
		}
	}
	return last
}

// resolveNamespaceMember resolves a `namespace.symbol` MemberExpr against
// a previously bound bare-import namespace. Cross-module globals share one
// program-wide register bank once linked, so the exporting module's own
// register index is the reference the importing module's bytecode uses
// directly (spec.md §9 open question: no separate cross-module indirection
// opcode exists in this design, so direct register sharing post-link is
// the simplest resolution).
func (c *Context) resolveNamespaceMember(namespace, symbol string) (reg int, typ *ast.Type, ok bool) {
	modPath, ok := c.namespaces[namespace]
	if !ok {
		return 0, nil, false
	}
	mod, err := c.modules.FindModule(modPath)
	if err != nil {
		return 0, nil, false
	}
	exp, ok := mod.Resolve(symbol)
	if !ok || exp.Register == modulemgr.NoRegister {
		return 0, nil, false
	}
	c.recordImport(modPath, symbol, symbol, exp.Kind, exp.Register)
	return exp.Register, exp.Type, true
}
