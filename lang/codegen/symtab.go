package codegen

import (
	"fmt"

	"github.com/mna/orus/lang/ast"
)

// ScopeKind distinguishes an ordinary lexical block from a loop body,
// since loop scopes additionally carry break/continue patch state
// (spec.md §3 "scope frame").
type ScopeKind int

const (
	ScopeLexical ScopeKind = iota
	ScopeLoop
)

// Symbol records everything spec.md §3 requires: name, declaration
// location, type, mutability, initialisation/read flags, and the
// register it is bound to. Unlike lang/typecheck's internal symbol
// (which only needs a type for inference), this is the binding
// lang/codegen's C4 resolves identifiers to — this package, not
// lang/typecheck, owns register assignment (see DESIGN.md).
type Symbol struct {
	Name        string
	Type        *ast.Type
	Mutable     bool
	Initialized bool
	Read        bool
	Reg         int
	DeclLine    int
}

// scope is one node of the parent-pointer scope tree.
type scope struct {
	parent *scope
	syms   map[string]*Symbol
	depth  int
}

// loopFrame is the parallel stack entry a loop scope pushes (spec.md §3
// "scope frame" loop fields, §4.7 control-flow state).
type loopFrame struct {
	startOffset    int
	continueTarget int
	breakQueue     []int
	continueQueue  []int
}

// SymbolTable is the nested hash-scope tree plus the parallel scope-frame
// stack spec.md §4.4/§4.7 describe, threaded through the whole AST walk
// as ambient state (spec.md §2).
type SymbolTable struct {
	root *scope
	cur  *scope

	loopStack []*loopFrame
}

// NewSymbolTable returns a table with a single root (module) scope.
func NewSymbolTable() *SymbolTable {
	root := &scope{syms: make(map[string]*Symbol)}
	return &SymbolTable{root: root, cur: root}
}

// EnterScope pushes a new child scope. Loop-specific state lives in
// EnterLoop/LeaveLoop (§4.7), kept distinct from plain lexical nesting so
// an if-inside-a-while doesn't disturb the loop's patch queues.
func (t *SymbolTable) EnterScope() {
	t.cur = &scope{parent: t.cur, syms: make(map[string]*Symbol), depth: t.cur.depth + 1}
}

// LeaveScope pops the current scope, returning to its parent.
func (t *SymbolTable) LeaveScope() {
	if t.cur.parent != nil {
		t.cur = t.cur.parent
	}
}

// Depth returns the current scope's nesting depth (root is 0).
func (t *SymbolTable) Depth() int { return t.cur.depth }

// Declare binds name in the current scope. Redeclaring a name already
// bound in this same scope (not an ancestor) is a redefinition error
// carrying the original declaration's line.
func (t *SymbolTable) Declare(name string, typ *ast.Type, mutable bool, reg int, declLine int, initialized bool) (*Symbol, error) {
	if existing, ok := t.cur.syms[name]; ok {
		return nil, fmt.Errorf("redefinition of %q (originally declared at line %d)", name, existing.DeclLine)
	}
	sym := &Symbol{Name: name, Type: typ, Mutable: mutable, Reg: reg, DeclLine: declLine, Initialized: initialized}
	t.cur.syms[name] = sym
	return sym, nil
}

// ResolveLocal looks up name in the current scope only.
func (t *SymbolTable) ResolveLocal(name string) (*Symbol, bool) {
	sym, ok := t.cur.syms[name]
	return sym, ok
}

// Resolve looks up name, walking parent scopes.
func (t *SymbolTable) Resolve(name string) (*Symbol, bool) {
	for s := t.cur; s != nil; s = s.parent {
		if sym, ok := s.syms[name]; ok {
			return sym, true
		}
	}
	return nil, false
}

// ResolveAt behaves like Resolve but also reports the depth of the scope
// the symbol was found in, so the function compiler can tell whether a
// reference crosses a function boundary (needs an upvalue) by comparing
// against the depth the current function began at.
func (t *SymbolTable) ResolveAt(name string) (*Symbol, int, bool) {
	for s := t.cur; s != nil; s = s.parent {
		if sym, ok := s.syms[name]; ok {
			return sym, s.depth, true
		}
	}
	return nil, 0, false
}

// EnterLoop pushes a loop frame with the given loop-top offset, saving
// and clearing the break/continue patch queues (spec.md §4.7
// enter_loop).
func (t *SymbolTable) EnterLoop(startOffset int) {
	t.loopStack = append(t.loopStack, &loopFrame{startOffset: startOffset, continueTarget: startOffset})
}

// UpdateContinue sets the current loop frame's continue target.
func (t *SymbolTable) UpdateContinue(target int) {
	if lf := t.currentLoop(); lf != nil {
		lf.continueTarget = target
	}
}

// AddBreak records a break placeholder to be patched when the loop ends.
func (t *SymbolTable) AddBreak(patchIndex int) error {
	lf := t.currentLoop()
	if lf == nil {
		return fmt.Errorf("break outside a loop (%s)", t.loopDepthNote())
	}
	lf.breakQueue = append(lf.breakQueue, patchIndex)
	return nil
}

// AddContinue records a continue placeholder to be patched to the loop's
// continue target.
func (t *SymbolTable) AddContinue(patchIndex int) error {
	lf := t.currentLoop()
	if lf == nil {
		return fmt.Errorf("continue outside a loop (%s)", t.loopDepthNote())
	}
	lf.continueQueue = append(lf.continueQueue, patchIndex)
	return nil
}

// LeaveLoop pops the current loop frame, returning its break/continue
// patch queues for the caller to patch against the loop's end and
// continue offsets respectively.
func (t *SymbolTable) LeaveLoop() (breaks, continues []int) {
	n := len(t.loopStack)
	if n == 0 {
		return nil, nil
	}
	lf := t.loopStack[n-1]
	t.loopStack = t.loopStack[:n-1]
	return lf.breakQueue, lf.continueQueue
}

func (t *SymbolTable) currentLoop() *loopFrame {
	if n := len(t.loopStack); n > 0 {
		return t.loopStack[n-1]
	}
	return nil
}

// CurrentLoopFrame reports whether a loop is active and its continue
// target, for the for-iter/while continue-target lookups.
func (t *SymbolTable) CurrentLoopFrame() (continueTarget int, ok bool) {
	if lf := t.currentLoop(); lf != nil {
		return lf.continueTarget, true
	}
	return 0, false
}

// LoopDepth returns how many loop frames are currently nested.
func (t *SymbolTable) LoopDepth() int { return len(t.loopStack) }

func (t *SymbolTable) loopDepthNote() string {
	if n := t.LoopDepth(); n > 0 {
		return fmt.Sprintf("compiler scope stack reports %d active loop(s) at this point", n)
	}
	return "compiler scope stack reports no active loops at this point"
}
