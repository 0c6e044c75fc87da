// Package modulemgr is the stand-in module manager lang/codegen's module
// link layer (spec.md §4.11) resolves `use` imports through. spec.md scopes
// the real module loader out as an external collaborator; this package
// gives lang/codegen a real Manager to query in tests: a module's compiled
// exports (its name, declared type, and the register index its value lives
// in within that module's global segment) looked up by import path.
// Dedup/lookup tables use dolthub/swiss, the same map implementation the
// teacher's lang/machine package uses for its runtime Map value.
package modulemgr

import (
	"fmt"

	"github.com/dolthub/swiss"

	"github.com/mna/orus/lang/ast"
)

// ExportKind classifies one Export per spec.md §3's module export entry
// shape: (name, kind ∈ {GLOBAL, FUNCTION, STRUCT, ENUM}, register index or
// sentinel, type).
type ExportKind int

const (
	ExportGlobal ExportKind = iota
	ExportFunction
	ExportStruct
	ExportEnum
)

// NoRegister is the sentinel register index for type-only exports
// (STRUCT/ENUM) that have no runtime register of their own.
const NoRegister = -1

// Export describes one symbol a compiled module makes visible to
// importers: its kind, static type, and the register index it occupies in
// the exporting module's global register bank, the contract spec.md §4.11
// names as shared "across compiled modules".
type Export struct {
	Name     string
	Kind     ExportKind
	Type     *ast.Type
	Register int
}

// Module is one compiled unit's export surface.
type Module struct {
	Path    string
	exports *swiss.Map[string, Export]
}

// NewModule returns an empty Module for path.
func NewModule(path string) *Module {
	return &Module{Path: path, exports: swiss.NewMap[string, Export](8)}
}

// Declare records name as exported from m with the given kind, type, and
// register (use NoRegister for type-only STRUCT/ENUM exports).
func (m *Module) Declare(name string, kind ExportKind, typ *ast.Type, register int) {
	m.exports.Put(name, Export{Name: name, Kind: kind, Type: typ, Register: register})
}

// Resolve looks up a single exported symbol by name.
func (m *Module) Resolve(name string) (Export, bool) {
	return m.exports.Get(name)
}

// Exports returns every exported symbol, in no particular order (callers
// that need a stable order, such as a disassembler, must sort the result).
func (m *Module) Exports() []Export {
	out := make([]Export, 0, m.exports.Count())
	m.exports.Iter(func(_ string, v Export) bool {
		out = append(out, v)
		return false
	})
	return out
}

// Manager resolves import paths to compiled Modules. lang/codegen's module
// link layer calls FindModule for each `use` statement it lowers and again
// for each `module.symbol` namespace access it resolves.
type Manager interface {
	FindModule(path string) (*Module, error)
}

// MemManager is an in-memory Manager backed by modules registered directly
// (e.g. by a prior compilation pass in the same process), rather than
// loaded from disk.
type MemManager struct {
	modules map[string]*Module
}

// NewMemManager returns an empty MemManager.
func NewMemManager() *MemManager {
	return &MemManager{modules: make(map[string]*Module)}
}

// Register adds mod under its Path, overwriting any previous registration.
func (m *MemManager) Register(mod *Module) {
	m.modules[mod.Path] = mod
}

func (m *MemManager) FindModule(path string) (*Module, error) {
	mod, ok := m.modules[path]
	if !ok {
		return nil, fmt.Errorf("modulemgr: module %q not found", path)
	}
	return mod, nil
}
