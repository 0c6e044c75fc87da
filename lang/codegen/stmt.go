package codegen

import (
	"github.com/mna/orus/lang/ast"
	"github.com/mna/orus/lang/modulemgr"
	"github.com/mna/orus/lang/runtime"
)

// compileBlock lowers every statement of b in order (C7, spec.md §4.6),
// with no special handling of the final statement — callers that need an
// implicit trailing return use compileFunctionBody instead.
func (fc *funcCompiler) compileBlock(b *ast.Block) {
	for _, s := range b.Stmts {
		fc.compileStmt(s)
	}
}

// compileFunctionBody is compileBlock plus spec.md §4.10 step 7's implicit
// return: when implicitReturn is set and the body's last statement is a
// bare expression statement, its value is returned instead of discarded.
func (fc *funcCompiler) compileFunctionBody(b *ast.Block, implicitReturn bool) {
	for i, s := range b.Stmts {
		if implicitReturn && i == len(b.Stmts)-1 {
			if es, ok := s.(*ast.ExprStmt); ok {
				reg, err := fc.lowerExpr(es.X)
				if err != nil {
					fc.ctx.errorf(posOf(es), "E5001", "%s", err)
					return
				}
				fc.buf.AppendInstruction(runtime.OP_RETURN_R, byte(reg))
				fc.freeIfTemp(reg)
				return
			}
		}
		fc.compileStmt(s)
	}
}

// compileStmt is the statement lowerer's dispatch (C7).
func (fc *funcCompiler) compileStmt(s ast.Stmt) {
	switch x := s.(type) {
	case *ast.ExprStmt:
		reg, err := fc.lowerExpr(x.X)
		if err != nil {
			fc.ctx.errorf(posOf(x), "E5001", "%s", err)
			return
		}
		fc.freeIfTemp(reg)
	case *ast.VarDeclStmt:
		fc.compileVarDecl(x)
	case *ast.AssignStmt:
		fc.compileAssign(x)
	case *ast.PrintStmt:
		fc.compilePrint(x)
	case *ast.IfStmt:
		fc.compileIf(x)
	case *ast.WhileStmt:
		fc.compileWhile(x)
	case *ast.ForRangeStmt:
		fc.compileForRange(x)
	case *ast.ForIterStmt:
		fc.compileForIter(x)
	case *ast.TryStmt:
		fc.compileTry(x)
	case *ast.ThrowStmt:
		fc.compileThrow(x)
	case *ast.ReturnStmt:
		fc.compileReturn(x)
	case *ast.BreakStmt:
		fc.compileBreak(x)
	case *ast.ContinueStmt:
		fc.compileContinue(x)
	case *ast.ImportStmt:
		fc.compileImport(x)
	case *ast.FuncDeclStmt:
		fc.compileFunction(x)
	case *ast.StructDeclStmt:
		fc.compileStructDecl(x)
	case *ast.EnumDeclStmt:
		fc.compileEnumDecl(x)
	case *ast.ImplStmt:
		for _, m := range x.Methods {
			fc.compileFunction(m)
		}
	default:
		fc.ctx.errorf(posOf(s), "E5002", "codegen: unhandled statement type %T", s)
	}
}

// atModuleScope reports whether fc is the module's implicit top-level
// function and the current scope is that function's own (not a nested
// if/while/for block), the condition spec.md §4.6 attaches to "export a
// public top-level declaration" and "bind a global register".
func (fc *funcCompiler) atModuleScope() bool {
	return fc.outer == nil && fc.ctx.syms.Depth() == fc.funcScopeDepth
}

func (fc *funcCompiler) compileVarDecl(x *ast.VarDeclStmt) {
	reg, err := fc.lowerExpr(x.Init)
	if err != nil {
		fc.ctx.errorf(posOf(x), "E5003", "%s", err)
		return
	}
	var dst int
	if fc.atModuleScope() {
		dst, err = fc.alloc.AllocGlobal()
	} else {
		dst, err = fc.alloc.AllocFrame()
	}
	if err != nil {
		fc.ctx.errorf(posOf(x), "E5003", "%s", err)
		return
	}
	fc.emitMove(dst, reg)
	fc.freeIfTemp(reg)

	if _, err := fc.ctx.syms.Declare(x.Name, x.Type, x.Mutable, dst, lineOf(x), true); err != nil {
		fc.ctx.errorf(posOf(x), "E1001", "%s", err)
		return
	}
	if x.Public && fc.atModuleScope() {
		kind := modulemgr.ExportGlobal
		fc.ctx.recordExport(x.Name, kind, x.Type)
		fc.ctx.setExportRegister(x.Name, dst)
	}
}

func (fc *funcCompiler) compileAssign(x *ast.AssignStmt) {
	switch x.Kind {
	case ast.AssignSimple:
		fc.compileAssignSimple(x)
	case ast.AssignIndex:
		fc.compileAssignIndex(x)
	case ast.AssignMember:
		fc.compileAssignMember(x)
	}
}

func (fc *funcCompiler) compileAssignSimple(x *ast.AssignStmt) {
	sym, isUpvalue, upvalIdx, ok := fc.resolveIdent(x.Name)
	if !ok {
		fc.ctx.errorf(posOf(x), "E5004", "assignment to undefined name %q", x.Name)
		return
	}
	if x.IncFastPath && !isUpvalue {
		fc.buf.AppendInstruction(runtime.OP_INC_I32, byte(sym.Reg))
		return
	}
	reg, err := fc.lowerExpr(x.Value)
	if err != nil {
		fc.ctx.errorf(posOf(x), "E5004", "%s", err)
		return
	}
	if isUpvalue {
		fc.buf.AppendInstruction(runtime.OP_SET_UPVALUE_R, byte(upvalIdx), byte(reg))
		fc.freeIfTemp(reg)
		return
	}
	fc.emitMove(sym.Reg, reg)
	fc.freeIfTemp(reg)
}

func (fc *funcCompiler) compileAssignIndex(x *ast.AssignStmt) {
	containerReg, err := fc.lowerExpr(x.Container)
	if err != nil {
		fc.ctx.errorf(posOf(x), "E5005", "%s", err)
		return
	}
	idxReg, err := fc.lowerExpr(x.Index)
	if err != nil {
		fc.ctx.errorf(posOf(x), "E5005", "%s", err)
		return
	}
	valReg, err := fc.lowerExpr(x.Value)
	if err != nil {
		fc.ctx.errorf(posOf(x), "E5005", "%s", err)
		return
	}
	fc.buf.AppendInstruction(runtime.OP_ARRAY_SET_R, byte(containerReg), byte(idxReg), byte(valReg))
	fc.freeIfTemp(containerReg)
	fc.freeIfTemp(idxReg)
	fc.freeIfTemp(valReg)
}

func (fc *funcCompiler) compileAssignMember(x *ast.AssignStmt) {
	objReg, err := fc.lowerExpr(x.Object)
	if err != nil {
		fc.ctx.errorf(posOf(x), "E5006", "%s", err)
		return
	}
	idxReg, err := fc.loadI32Const(int32(x.FieldIndex))
	if err != nil {
		fc.ctx.errorf(posOf(x), "E5006", "%s", err)
		return
	}
	valReg, err := fc.lowerExpr(x.Value)
	if err != nil {
		fc.ctx.errorf(posOf(x), "E5006", "%s", err)
		return
	}
	fc.buf.AppendInstruction(runtime.OP_ARRAY_SET_R, byte(objReg), byte(idxReg), byte(valReg))
	fc.freeIfTemp(objReg)
	fc.freeIfTemp(idxReg)
	fc.freeIfTemp(valReg)
}

// compilePrint emits a single PRINT_R for one argument, or PRINT_MULTI_R
// over a contiguous temp range for more than one (spec.md §4.6 Print).
func (fc *funcCompiler) compilePrint(x *ast.PrintStmt) {
	if len(x.Args) == 1 {
		reg, err := fc.lowerExpr(x.Args[0])
		if err != nil {
			fc.ctx.errorf(posOf(x), "E5007", "%s", err)
			return
		}
		fc.buf.AppendInstruction(runtime.OP_PRINT_R, byte(reg))
		fc.freeIfTemp(reg)
		return
	}
	base, err := fc.alloc.AllocConsecutiveTemps(len(x.Args))
	if err != nil {
		fc.ctx.errorf(posOf(x), "E5007", "%s", err)
		return
	}
	for i, a := range x.Args {
		reg, err := fc.lowerExpr(a)
		if err != nil {
			fc.ctx.errorf(posOf(x), "E5007", "%s", err)
			return
		}
		fc.emitMove(base+i, reg)
		fc.freeIfTemp(reg)
	}
	fc.buf.AppendInstruction(runtime.OP_PRINT_MULTI_R, byte(base), byte(len(x.Args)))
}

func (fc *funcCompiler) compileIf(x *ast.IfStmt) {
	condReg, err := fc.lowerExpr(x.Cond)
	if err != nil {
		fc.ctx.errorf(posOf(x), "E5008", "%s", err)
		return
	}
	elseJump := fc.buf.ReserveJump(runtime.OP_JUMP_IF_NOT_R, byte(condReg))
	fc.freeIfTemp(condReg)

	fc.ctx.syms.EnterScope()
	fc.alloc.EnterScope()
	fc.compileBlock(x.Then)
	fc.ctx.syms.LeaveScope()
	fc.alloc.ExitScope()

	if x.Else == nil {
		fc.patchOrError(x, elseJump, fc.buf.CurrentOffset())
		return
	}

	endJump := fc.buf.ReserveJump(runtime.OP_JUMP)
	fc.patchOrError(x, elseJump, fc.buf.CurrentOffset())

	fc.ctx.syms.EnterScope()
	fc.alloc.EnterScope()
	fc.compileBlock(x.Else)
	fc.ctx.syms.LeaveScope()
	fc.alloc.ExitScope()

	fc.patchOrError(x, endJump, fc.buf.CurrentOffset())
}

// compileTry implements spec.md §4.6 try/catch: TRY_BEGIN names the
// register the thrown value lands in and the handler's offset; TRY_END
// marks the protected region's normal-exit boundary.
func (fc *funcCompiler) compileTry(x *ast.TryStmt) {
	fc.ctx.syms.EnterScope()
	fc.alloc.EnterScope()

	var catchReg int
	var err error
	if x.CatchVar != "" {
		catchReg, err = fc.alloc.AllocFrame()
		if err != nil {
			fc.ctx.errorf(posOf(x), "E5009", "%s", err)
			return
		}
	}
	handlerJump := fc.buf.ReserveJump(runtime.OP_TRY_BEGIN, byte(catchReg))
	fc.compileBlock(x.Body)
	fc.buf.AppendInstruction(runtime.OP_TRY_END)
	skipHandler := fc.buf.ReserveJump(runtime.OP_JUMP)

	fc.patchOrError(x, handlerJump, fc.buf.CurrentOffset())
	if x.CatchBlock != nil {
		if x.CatchVar != "" {
			if _, err := fc.ctx.syms.Declare(x.CatchVar, ast.Simple(ast.ANY), false, catchReg, lineOf(x), true); err != nil {
				fc.ctx.errorf(posOf(x), "E1001", "%s", err)
			}
		}
		fc.compileBlock(x.CatchBlock)
	}
	fc.patchOrError(x, skipHandler, fc.buf.CurrentOffset())

	fc.ctx.syms.LeaveScope()
	fc.alloc.ExitScope()
}

func (fc *funcCompiler) compileThrow(x *ast.ThrowStmt) {
	reg, err := fc.lowerExpr(x.Value)
	if err != nil {
		fc.ctx.errorf(posOf(x), "E5010", "%s", err)
		return
	}
	fc.buf.AppendInstruction(runtime.OP_THROW, byte(reg))
	fc.freeIfTemp(reg)
}

func (fc *funcCompiler) compileReturn(x *ast.ReturnStmt) {
	if x.Value == nil {
		fc.buf.AppendInstruction(runtime.OP_RETURN_VOID)
		return
	}
	reg, err := fc.lowerExpr(x.Value)
	if err != nil {
		fc.ctx.errorf(posOf(x), "E5011", "%s", err)
		return
	}
	fc.buf.AppendInstruction(runtime.OP_RETURN_R, byte(reg))
	fc.freeIfTemp(reg)
}

// compileStructDecl/compileEnumDecl record a type-only export when the
// declaration is public and at module scope; there is no register to
// bind since structs/enums are constructed by value at each use site
// (spec.md §4.11).
func (fc *funcCompiler) compileStructDecl(x *ast.StructDeclStmt) {
	if x.Public && fc.atModuleScope() {
		typ := ast.StructOf(x.Name, x.Fields)
		fc.ctx.recordExport(x.Name, modulemgr.ExportStruct, typ)
	}
}

func (fc *funcCompiler) compileEnumDecl(x *ast.EnumDeclStmt) {
	if x.Public && fc.atModuleScope() {
		typ := ast.EnumOf(x.Name, x.Variants)
		fc.ctx.recordExport(x.Name, modulemgr.ExportEnum, typ)
	}
}
