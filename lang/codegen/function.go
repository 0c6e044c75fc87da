package codegen

import (
	"github.com/mna/orus/lang/ast"
	"github.com/mna/orus/lang/modulemgr"
	"github.com/mna/orus/lang/runtime"
	"github.com/mna/orus/lang/token"
)

// upvalueKey dedups (is_local, index) pairs so the same captured variable
// always resolves to the same upvalue slot on every reference within one
// function (spec.md §8 testable property 8).
type upvalueKey struct {
	isLocal bool
	index   int
}

// funcCompiler is the per-function compiler state spec.md §4.10 and §9's
// "pcomp/fcomp" design note describe: one per function body currently
// being compiled, linked to its enclosing function via outer so that
// upvalue capture can walk the chain and state can be restored when the
// nested function finishes.
type funcCompiler struct {
	ctx   *Context
	outer *funcCompiler

	buf   *Buffer
	alloc *Allocator

	funcScopeDepth int // symbol-table depth this function's own scope began at
	upvalues       []runtime.Value
	upvalueOf      map[upvalueKey]int

	name       string
	arity      int
	isInstance bool
	selfType   string
}

// emitMove appends a MOVE instruction, unless src == dst (a no-op the
// caller should usually avoid emitting in the first place, but harmless
// to guard against here too).
func (fc *funcCompiler) emitMove(dst, src int) {
	if dst == src {
		return
	}
	fc.buf.AppendInstruction(runtime.OP_MOVE, byte(dst), byte(src))
}

// freeIfTemp releases reg only if it falls in the temp range (spec.md
// §4.5 edge cases: "temp registers are freed only if they fall in the
// temp range").
func (fc *funcCompiler) freeIfTemp(reg int) {
	if classify(reg) == RegTemp {
		fc.alloc.Free(reg)
	}
}

// lowerExprTyped lowers e and also returns its resolved kind, the pair
// lang/codegen's binary-op selector and cast logic need. When the typed
// AST leaves e's kind UNKNOWN or ERROR, this falls back first to
// whatever type e was originally declared or annotated with (a cast's
// explicit target, an identifier's symbol-table declaration), then to a
// guess read off e's literal form, logging which rung of the fallback
// fired so the decision isn't silently lost (spec.md §4.8 step 1, §9).
func (fc *funcCompiler) lowerExprTyped(e ast.Expr) (int, ast.Kind, error) {
	reg, err := fc.lowerExpr(e)
	if err != nil {
		return 0, ast.UNKNOWN, err
	}
	kind := ast.UNKNOWN
	if t := e.ResolvedType(); t != nil {
		kind = t.Kind
	}
	if kind == ast.UNKNOWN || kind == ast.ERROR {
		if t := fc.declaredType(e); t != nil {
			kind = t.Kind
			fc.ctx.warnf(posOf(e), "W4801", "operand type unresolved, falling back to its declared type (%s)", kind)
		}
	}
	if kind == ast.UNKNOWN || kind == ast.ERROR {
		kind = literalKindGuess(e)
		fc.ctx.warnf(posOf(e), "W4802", "operand type still unresolved, guessing %s from its literal form", kind)
	}
	return reg, kind, nil
}

// declaredType recovers the type e was originally declared or annotated
// with, independent of whatever lang/typecheck stamped onto
// ResolvedType: a cast's explicit target type, or an identifier's
// symbol-table declaration.
func (fc *funcCompiler) declaredType(e ast.Expr) *ast.Type {
	switch x := e.(type) {
	case *ast.CastExpr:
		return x.Target
	case *ast.IdentExpr:
		if sym, _, _, ok := fc.resolveIdent(x.Name); ok {
			return sym.Type
		}
	}
	return nil
}

// literalKindGuess is the last-resort fallback of spec.md §4.8 step 1:
// pick a plausible kind straight from e's literal form when even a
// declared type isn't available. Numeric code defaults to I32, the
// selector's own most common case.
func literalKindGuess(e ast.Expr) ast.Kind {
	switch x := e.(type) {
	case *ast.LiteralExpr:
		return x.Kind
	case *ast.UnaryExpr:
		return literalKindGuess(x.Operand)
	default:
		return ast.I32
	}
}

// resolveIdent resolves name against the symbol table, registering an
// upvalue if the binding lives above this function's own scope depth
// (spec.md §4.10 "Upvalue capture"). It returns the symbol and, when the
// reference is local to this function, its direct register; for an
// upvalue reference the caller must still emit GET_UPVALUE/SET_UPVALUE
// rather than referencing sym.Reg directly (that register belongs to a
// different, possibly already-exited frame).
func (fc *funcCompiler) resolveIdent(name string) (sym *Symbol, isUpvalue bool, upvalIdx int, ok bool) {
	sym, depth, found := fc.ctx.syms.ResolveAt(name)
	if !found {
		return nil, false, 0, false
	}
	if depth >= fc.funcScopeDepth {
		return sym, false, 0, true
	}
	idx := fc.addUpvalue(sym, depth)
	return sym, true, idx, true
}

// addUpvalue records (or reuses) the upvalue chain needed to capture sym,
// declared at depth, from this function. If sym lives in the immediately
// enclosing function's frame, is_local is true and index is its frame
// register; otherwise the capture is threaded transitively through the
// enclosing function's own upvalue list.
func (fc *funcCompiler) addUpvalue(sym *Symbol, declDepth int) int {
	if fc.upvalueOf == nil {
		fc.upvalueOf = make(map[upvalueKey]int)
	}
	isLocal := fc.outer != nil && declDepth >= fc.outer.funcScopeDepth
	var index int
	if isLocal {
		index = sym.Reg
	} else if fc.outer != nil {
		index = fc.outer.addUpvalue(sym, declDepth)
	} else {
		index = sym.Reg
	}
	key := upvalueKey{isLocal: isLocal, index: index}
	if existing, ok := fc.upvalueOf[key]; ok {
		return existing
	}
	idx := len(fc.upvalues)
	fc.upvalues = append(fc.upvalues, runtime.Value{Bits: uint64(index)})
	fc.upvalueOf[key] = idx
	return idx
}

// compileFunction implements the ten steps of spec.md §4.10.
func (fc *funcCompiler) compileFunction(d *ast.FuncDeclStmt) {
	// Step 1: destination register for the function value.
	var destReg int
	var err error
	atModule := fc.outer == nil
	if atModule {
		destReg, err = fc.alloc.AllocGlobal()
	} else {
		destReg, err = fc.alloc.AllocFrame()
	}
	if err != nil {
		fc.ctx.errorf(posOf(d), "E9002", "out of registers declaring function %q", d.Name)
		return
	}

	// Step 2: register the name in the outer scope (recursive self-ref).
	outerName := d.Name
	if d.IsInstance || d.Receiver != "" {
		outerName = d.Receiver + "." + d.Name
	}
	if _, err := fc.ctx.syms.Declare(outerName, funcDeclType(d), false, destReg, lineOf(d), true); err != nil {
		fc.ctx.errorf(posOf(d), "E1001", "%s", err)
	}

	// Step 3/4: save outer state, start a fresh function compiler.
	child := &funcCompiler{
		ctx:        fc.ctx,
		outer:      fc,
		buf:        NewBuffer(),
		alloc:      NewAllocator(),
		name:       outerName,
		arity:      len(d.Params),
		isInstance: d.IsInstance,
		selfType:   d.Receiver,
	}
	prevCur := fc.ctx.cur
	fc.ctx.cur = child
	fc.ctx.syms.EnterScope()
	child.funcScopeDepth = fc.ctx.syms.Depth()

	// Step 5: re-register the function's own name so the body can call it.
	if _, err := fc.ctx.syms.Declare(outerName, funcDeclType(d), false, destReg, lineOf(d), true); err != nil {
		// Shadowing the outer declaration inside the function's own scope is
		// expected (it is a different scope level); ignore.
	}

	// Step 6: parameter registers.
	params := d.Params
	if d.IsInstance {
		selfIdx := 0
		regs := child.alloc.AllocParamRange(len(params) + 1)
		child.ctx.syms.Declare("self", &ast.Type{Kind: ast.INSTANCE, Name: d.Receiver}, false, regs[selfIdx], lineOf(d), true)
		for i, p := range params {
			child.ctx.syms.Declare(p.Name, p.Type, false, regs[i+1], lineOf(d), true)
		}
	} else {
		regs := child.alloc.AllocParamRange(len(params))
		for i, p := range params {
			child.ctx.syms.Declare(p.Name, p.Type, false, regs[i], lineOf(d), true)
		}
	}

	// Step 7: compile the body, synthesising an implicit return from a
	// trailing bare expression when the declared return type is non-void.
	implicitReturn := d.Ret != nil && d.Ret.Kind != ast.VOID
	child.compileFunctionBody(d.Body, implicitReturn)

	// Step 8: ensure every path returns.
	if !child.endsInReturn() {
		child.buf.SetSyntheticLocation()
		child.buf.AppendInstruction(runtime.OP_RETURN_VOID)
	}

	// Step 9: restore outer state; register the function.
	fc.ctx.syms.LeaveScope()
	fc.ctx.cur = prevCur

	if unpatched := child.buf.Unpatched(); len(unpatched) > 0 {
		fc.ctx.errorf(posOf(d), "E9001", "internal: %d unpatched jump placeholder(s) in function %q", len(unpatched), outerName)
	}
	chunk := fc.ctx.finalize(child.buf)
	idx := fc.ctx.funcs.Append(&runtime.FunctionRecord{
		Arity: child.arity, Chunk: chunk, DebugName: outerName,
	})
	if d.Public && atModule {
		fc.ctx.recordExport(outerName, modulemgr.ExportFunction, funcDeclType(d))
		fc.ctx.setExportRegister(outerName, destReg)
	}

	// Step 10: LOAD_CONST the function's table index into destReg.
	fc.buf.SetLocation(int32(lineOf(d)), 0, "")
	constIdx, err := fc.ctx.constants.Intern(runtime.Value{Kind: ast.FUNCTION, Obj: runtime.Function{Name: outerName, Index: idx}})
	if err != nil {
		fc.ctx.errorf(posOf(d), "E9003", "%s", err)
		return
	}
	fc.buf.AppendInstruction(runtime.OP_LOAD_CONST, byte(destReg))
	fc.buf.AppendImm16(constIdx)
}

// endsInReturn reports whether the last two emitted bytes form a
// RETURN_R or RETURN_VOID instruction (spec.md §4.10 step 8).
func (fc *funcCompiler) endsInReturn() bool {
	code := fc.buf.Bytes()
	if len(code) == 0 {
		return false
	}
	if code[len(code)-1] == byte(runtime.OP_RETURN_VOID) {
		return true
	}
	if len(code) >= 2 && code[len(code)-2] == byte(runtime.OP_RETURN_R) {
		return true
	}
	return false
}

func funcDeclType(d *ast.FuncDeclStmt) *ast.Type {
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

func posOf(n ast.Node) token.Position {
	start, _ := n.Span()
	l, c := start.LineCol()
	return token.Position{Line: l, Col: c}
}

func lineOf(n ast.Node) int {
	start, _ := n.Span()
	l, _ := start.LineCol()
	return l
}

