package codegen

import (
	"github.com/mna/orus/lang/ast"
	"github.com/mna/orus/lang/runtime"
	"github.com/mna/orus/lang/token"
)

// compileWhile implements spec.md §4.9's while loop: re-test the
// condition at the top, body, unconditional backward edge. continue
// targets the point immediately after the body (equivalent to jumping
// back to the top, since nothing but the backward edge sits between
// them); break targets the instruction after the loop.
func (fc *funcCompiler) compileWhile(s *ast.WhileStmt) {
	loopStart := fc.buf.CurrentOffset()
	fc.ctx.syms.EnterLoop(loopStart)

	condReg, err := fc.lowerExpr(s.Cond)
	if err != nil {
		fc.ctx.errorf(posOf(s), "E6001", "%s", err)
		return
	}
	endJump := fc.buf.ReserveJump(runtime.OP_JUMP_IF_NOT_R, byte(condReg))
	fc.freeIfTemp(condReg)

	fc.alloc.EnterScope()
	fc.ctx.syms.EnterScope()
	fc.compileBlock(s.Body)
	fc.ctx.syms.LeaveScope()
	fc.alloc.ExitScope()

	continuePoint := fc.buf.CurrentOffset()
	fc.ctx.syms.UpdateContinue(continuePoint)
	breaks, continues := fc.ctx.syms.LeaveLoop()
	fc.patchAll(continues, continuePoint)

	backIdx := fc.buf.ReserveJump(runtime.OP_LOOP_SHORT)
	fc.patchOrError(s, backIdx, loopStart)

	loopEnd := fc.buf.CurrentOffset()
	fc.patchOrError(s, endJump, loopEnd)
	fc.patchAll(breaks, loopEnd)
}

// compileForRange implements spec.md §4.9's numeric for loop. A step of
// implicit +1 (the common case) uses the fused INC_CMP_JMP fast path;
// any other declared step falls back to an explicit increment plus
// sign-aware comparison.
func (fc *funcCompiler) compileForRange(s *ast.ForRangeStmt) {
	startReg, err := fc.lowerExpr(s.Start)
	if err != nil {
		fc.ctx.errorf(posOf(s), "E6002", "%s", err)
		return
	}
	endReg, err := fc.lowerExpr(s.End)
	if err != nil {
		fc.ctx.errorf(posOf(s), "E6002", "%s", err)
		return
	}

	loopVarReg, err := fc.alloc.AllocFrame()
	if err != nil {
		fc.ctx.errorf(posOf(s), "E6002", "%s", err)
		return
	}
	fc.emitMove(loopVarReg, startReg)
	fc.freeIfTemp(startReg)

	// The fused path tests `x < limit`, so an inclusive range needs
	// limit = end+1; the explicit-step path tests `x <= limit`, so an
	// exclusive range needs limit = end-1.
	fused := s.Step == nil && s.StepSign != ast.StepNegative
	limitReg := endReg
	if s.Inclusive == fused {
		imm := byte(0xFF) // -1, two's complement imm8
		if fused {
			imm = 1
		}
		adj, err := fc.alloc.AllocTemp()
		if err != nil {
			fc.ctx.errorf(posOf(s), "E6002", "%s", err)
			return
		}
		fc.buf.AppendInstruction(runtime.OP_ADD_I32_IMM, byte(adj), byte(endReg), imm)
		fc.freeIfTemp(endReg)
		limitReg = adj
	}

	fc.ctx.syms.EnterScope()
	fc.alloc.EnterScope()
	if _, err := fc.ctx.syms.Declare(s.Var, ast.Simple(ast.I32), true, loopVarReg, lineOf(s), true); err != nil {
		fc.ctx.errorf(posOf(s), "E1001", "%s", err)
	}

	loopStart := fc.buf.CurrentOffset()
	fc.ctx.syms.EnterLoop(loopStart)

	cmpReg, err := fc.alloc.AllocTemp()
	if err != nil {
		fc.ctx.errorf(posOf(s), "E6002", "%s", err)
		return
	}
	cmpOp := runtime.OP_LE_I32
	if fused {
		cmpOp = runtime.OP_LT_I32
	} else if s.StepSign == ast.StepNegative {
		cmpOp = runtime.OP_GE_I32
	}
	fc.buf.AppendInstruction(cmpOp, byte(cmpReg), byte(loopVarReg), byte(limitReg))
	endJump := fc.buf.ReserveJump(runtime.OP_JUMP_IF_NOT_R, byte(cmpReg))
	fc.freeIfTemp(cmpReg)

	fc.compileBlock(s.Body)

	continuePoint := fc.buf.CurrentOffset()
	fc.ctx.syms.UpdateContinue(continuePoint)
	breaks, continues := fc.ctx.syms.LeaveLoop()
	fc.patchAll(continues, continuePoint)

	if fused {
		backIdx := fc.buf.ReserveJump(runtime.OP_INC_CMP_JMP, byte(loopVarReg), byte(limitReg))
		fc.patchOrError(s, backIdx, loopStart)
	} else {
		stepReg, err := fc.stepRegister(s)
		if err != nil {
			fc.ctx.errorf(posOf(s), "E6002", "%s", err)
			return
		}
		nextReg, err := fc.alloc.AllocTemp()
		if err != nil {
			fc.ctx.errorf(posOf(s), "E6002", "%s", err)
			return
		}
		op := runtime.OP_ADD_I32
		if s.StepSign == ast.StepNegative {
			op = runtime.OP_SUB_I32
		}
		fc.buf.AppendInstruction(op, byte(nextReg), byte(loopVarReg), byte(stepReg))
		fc.emitMove(loopVarReg, nextReg)
		fc.freeIfTemp(nextReg)
		fc.freeIfTemp(stepReg)
		backIdx := fc.buf.ReserveJump(runtime.OP_LOOP_SHORT)
		fc.patchOrError(s, backIdx, loopStart)
	}

	loopEnd := fc.buf.CurrentOffset()
	fc.patchOrError(s, endJump, loopEnd)
	fc.patchAll(breaks, loopEnd)

	fc.ctx.syms.LeaveScope()
	fc.alloc.ExitScope()
}

// stepRegister evaluates the declared step expression, or loads the
// magnitude 1 when Step is nil. compileForRange only reaches it with a nil
// Step for an ast.StepNegative range; lang/typecheck marks every range
// written without a step (`for x in 10..0` included) as ast.StepPositive.
func (fc *funcCompiler) stepRegister(s *ast.ForRangeStmt) (int, error) {
	if s.Step != nil {
		return fc.lowerExpr(s.Step)
	}
	return fc.loadI32Const(1)
}

// compileForIter implements spec.md §4.9's iterator-driven for loop.
func (fc *funcCompiler) compileForIter(s *ast.ForIterStmt) {
	srcReg, err := fc.lowerExpr(s.Iter)
	if err != nil {
		fc.ctx.errorf(posOf(s), "E6003", "%s", err)
		return
	}
	iterReg, err := fc.alloc.AllocTemp()
	if err != nil {
		fc.ctx.errorf(posOf(s), "E6003", "%s", err)
		return
	}
	fc.buf.AppendInstruction(runtime.OP_GET_ITER_R, byte(iterReg), byte(srcReg))
	fc.freeIfTemp(srcReg)

	fc.ctx.syms.EnterScope()
	fc.alloc.EnterScope()
	loopVarReg, err := fc.alloc.AllocFrame()
	if err != nil {
		fc.ctx.errorf(posOf(s), "E6003", "%s", err)
		return
	}
	if _, err := fc.ctx.syms.Declare(s.Var, ast.Simple(ast.ANY), false, loopVarReg, lineOf(s), true); err != nil {
		fc.ctx.errorf(posOf(s), "E1001", "%s", err)
	}

	loopStart := fc.buf.CurrentOffset()
	fc.ctx.syms.EnterLoop(loopStart)

	hasReg, err := fc.alloc.AllocTemp()
	if err != nil {
		fc.ctx.errorf(posOf(s), "E6003", "%s", err)
		return
	}
	fc.buf.AppendInstruction(runtime.OP_ITER_NEXT_R, byte(loopVarReg), byte(hasReg), byte(iterReg))
	endJump := fc.buf.ReserveJump(runtime.OP_JUMP_IF_NOT_R, byte(hasReg))
	fc.freeIfTemp(hasReg)

	fc.compileBlock(s.Body)

	continuePoint := fc.buf.CurrentOffset()
	fc.ctx.syms.UpdateContinue(continuePoint)
	breaks, continues := fc.ctx.syms.LeaveLoop()
	fc.patchAll(continues, continuePoint)

	backIdx := fc.buf.ReserveJump(runtime.OP_LOOP_SHORT)
	fc.patchOrError(s, backIdx, loopStart)

	loopEnd := fc.buf.CurrentOffset()
	fc.patchOrError(s, endJump, loopEnd)
	fc.patchAll(breaks, loopEnd)

	fc.ctx.syms.LeaveScope()
	fc.alloc.ExitScope()
}

// compileBreak/compileContinue reserve a forward jump (always the wide
// encoding, since neither knows the remaining body size at this point)
// and queue it against the enclosing loop frame.
func (fc *funcCompiler) compileBreak(s *ast.BreakStmt) {
	idx := fc.buf.ReserveJump(runtime.OP_JUMP)
	if err := fc.ctx.syms.AddBreak(idx); err != nil {
		fc.ctx.errorf(posOf(s), "E6004", "%s", err)
	}
}

func (fc *funcCompiler) compileContinue(s *ast.ContinueStmt) {
	idx := fc.buf.ReserveJump(runtime.OP_JUMP)
	if err := fc.ctx.syms.AddContinue(idx); err != nil {
		fc.ctx.errorf(posOf(s), "E6005", "%s", err)
	}
}

func (fc *funcCompiler) patchAll(idxs []int, target int) {
	for _, idx := range idxs {
		if err := fc.buf.Patch(idx, target); err != nil {
			fc.ctx.errorf(token.Position{}, "E6006", "%s", err)
		}
	}
}

func (fc *funcCompiler) patchOrError(n ast.Node, idx int, target int) {
	if err := fc.buf.Patch(idx, target); err != nil {
		fc.ctx.errorf(posOf(n), "E6006", "%s", err)
	}
}
