package codegen

import (
	"fmt"

	"github.com/dolthub/swiss"

	"github.com/mna/orus/lang/ast"
	"github.com/mna/orus/lang/diag"
	"github.com/mna/orus/lang/modulemgr"
	"github.com/mna/orus/lang/runtime"
	"github.com/mna/orus/lang/token"
)

// ExportEntry is the module export record of spec.md §3/§4.11: a name,
// kind, the register it resolves to (patched in once known), and its
// type (cloned so its lifetime is decoupled from the compiling module).
type ExportEntry struct {
	Name     string
	Kind     modulemgr.ExportKind
	Register int
	Type     *ast.Type
}

// ImportEntry is the module import record of spec.md §3/§4.11.
type ImportEntry struct {
	Module string
	Symbol string
	Alias  string
	Kind   modulemgr.ExportKind
	Reg    int
}

// Context is the compiler context spec.md §3/§5 describes as exclusively
// owning the top-level buffer, constant pool, allocator, symbol root,
// scope stack, function vector, and import/export vectors. It is a
// single-threaded, single-source-unit compilation: one Context compiles
// one module (spec.md §5).
//
// This threads the module manager and function table as explicit fields
// (spec.md §9 "global compilation context" design note) rather than
// reaching for a package-level global the way the source this spec
// distills from does.
type Context struct {
	syms      *SymbolTable
	constants *ConstPool
	funcs     *runtime.FunctionTable
	modules   modulemgr.Manager
	diag      *diag.Reporter

	modulePath string

	exports    []ExportEntry
	imports    []ImportEntry
	importSeen *swiss.Map[[2]string, struct{}]

	// namespaces maps a bare `use module` binding's local name to the
	// module path it refers to, letting a later `module.symbol`
	// MemberExpr resolve without requiring each member to be imported
	// individually (spec.md §4.11).
	namespaces map[string]string

	hasErrors bool

	cur *funcCompiler // innermost function currently compiling
}

// NewContext prepares a Context for compiling one module. modules may be
// nil if the module never issues `use` statements.
func NewContext(modulePath string, modules modulemgr.Manager, reporter *diag.Reporter) *Context {
	return &Context{
		syms:       NewSymbolTable(),
		constants:  NewConstPool(),
		funcs:      runtime.NewFunctionTable(),
		modules:    modules,
		diag:       reporter,
		modulePath: modulePath,
		importSeen: swiss.NewMap[[2]string, struct{}](8),
		namespaces: make(map[string]string),
	}
}

// HasErrors reports whether any compile error has been recorded
// (spec.md §4.13/§7 has_compilation_errors).
func (c *Context) HasErrors() bool { return c.hasErrors }

func (c *Context) errorf(pos token.Position, code, format string, args ...any) {
	c.hasErrors = true
	if c.diag != nil {
		c.diag.Errorf(pos, code, format, args...)
	}
}

// warnf records a non-fatal diagnostic, used for logging a compile-time
// judgment call (e.g. a type-fallback decision) without failing the
// compilation outright.
func (c *Context) warnf(pos token.Position, code, format string, args ...any) {
	if c.diag != nil {
		c.diag.Warnf(pos, code, format, args...)
	}
}

// Compile lowers file's top-level block as the module's implicit toplevel
// function, returning the finalised runtime.FunctionTable and this
// module's export table. A non-nil error means has_compilation_errors was
// set; per spec.md §7 the driver must not hand the result to the VM in
// that case, but Compile still returns what it built so callers can
// inspect partial diagnostics.
func (c *Context) Compile(file *ast.File) (*runtime.FunctionTable, []ExportEntry, error) {
	top := &funcCompiler{
		ctx:            c,
		buf:            NewBuffer(),
		alloc:          NewAllocator(),
		funcScopeDepth: c.syms.Depth(),
		name:           "<module>",
	}
	c.cur = top

	for _, s := range file.Block.Stmts {
		top.compileStmt(s)
	}
	top.buf.AppendInstruction(runtime.OP_HALT)

	if unpatched := top.buf.Unpatched(); len(unpatched) > 0 {
		c.errorf(token.Position{}, "E9001", "internal: %d unpatched jump placeholder(s) at module finalisation", len(unpatched))
	}

	chunk := c.finalize(top.buf)
	idx := c.funcs.Append(&runtime.FunctionRecord{Arity: 0, Chunk: chunk, DebugName: "<module>"})
	_ = idx

	if c.hasErrors {
		return c.funcs, c.exports, fmt.Errorf("codegen: compilation failed with errors")
	}
	return c.funcs, c.exports, nil
}

// recordExport appends an export entry (spec.md §4.11 record_export),
// cloning typ so later module-level mutation (there is none in this
// compiler, but the contract is explicit) can't retroactively affect it.
func (c *Context) recordExport(name string, kind modulemgr.ExportKind, typ *ast.Type) *ExportEntry {
	clone := *typ
	c.exports = append(c.exports, ExportEntry{Name: name, Kind: kind, Type: &clone, Register: modulemgr.NoRegister})
	return &c.exports[len(c.exports)-1]
}

func (c *Context) setExportRegister(name string, reg int) {
	for i := range c.exports {
		if c.exports[i].Name == name {
			c.exports[i].Register = reg
			return
		}
	}
}

// recordImport appends an import entry, deduplicated by (module, symbol)
// per spec.md §4.11, so `use mod.{a}` twice in the same file only
// compiles one import.
func (c *Context) recordImport(module, symbol, alias string, kind modulemgr.ExportKind, reg int) bool {
	key := [2]string{module, symbol}
	if _, dup := c.importSeen.Get(key); dup {
		return false
	}
	c.importSeen.Put(key, struct{}{})
	c.imports = append(c.imports, ImportEntry{Module: module, Symbol: symbol, Alias: alias, Kind: kind, Reg: reg})
	return true
}
