package runtime_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/orus/lang/ast"
	"github.com/mna/orus/lang/runtime"
)

// asm is a tiny test-local byte assembler for hand-built chunks. It exists
// only so these tests don't have to spell out raw byte literals; it is not
// a stand-in for lang/codegen's own Buffer, which runtime must not import.
type asm struct {
	code []byte
}

func (a *asm) emit(op runtime.Opcode, regs ...byte) *asm {
	a.code = append(a.code, byte(op))
	a.code = append(a.code, regs...)
	return a
}

func (a *asm) emitImm16(op runtime.Opcode, regs []byte, imm uint16) *asm {
	a.code = append(a.code, byte(op))
	a.code = append(a.code, regs...)
	a.code = append(a.code, byte(imm>>8), byte(imm))
	return a
}

func (a *asm) chunk(constants ...runtime.Value) *runtime.Chunk {
	return &runtime.Chunk{Code: a.code, Constants: constants}
}

func TestInterpArithmetic(t *testing.T) {
	// r200 = 20; r201 = 22; r202 = r200 + r201; return r202
	var a asm
	a.emitImm16(runtime.OP_LOAD_I32_CONST, []byte{200}, 0)
	a.emitImm16(runtime.OP_LOAD_I32_CONST, []byte{201}, 1)
	a.emit(runtime.OP_ADD_I32, 202, 200, 201)
	a.emit(runtime.OP_RETURN_R, 202)
	chunk := a.chunk(runtime.NewI32(20), runtime.NewI32(22))

	funcs := runtime.NewFunctionTable()
	idx := funcs.Append(&runtime.FunctionRecord{Chunk: chunk, DebugName: "<module>"})

	var out bytes.Buffer
	interp := runtime.NewInterp(funcs, &out, 0)
	result, err := interp.Run(idx, nil)
	require.NoError(t, err)
	require.Equal(t, int32(42), result.I32())
}

// TestInterpForRangeLoop mirrors spec.md's "mut x = 0; for i in 0..5: x = x
// + 1" scenario directly at the bytecode level: a single INC_CMP_JMP tail
// must drive the loop to completion and leave the accumulator at 10 (the
// sum of 0..4, since the accumulator adds the loop variable's value before
// each increment).
func TestInterpForRangeLoop(t *testing.T) {
	var a asm
	a.emitImm16(runtime.OP_LOAD_I32_CONST, []byte{200}, 0) // loopvar = 0
	a.emitImm16(runtime.OP_LOAD_I32_CONST, []byte{201}, 1) // limit = 5
	a.emitImm16(runtime.OP_LOAD_I32_CONST, []byte{202}, 0) // acc = 0
	loopStart := len(a.code)
	a.emit(runtime.OP_ADD_I32, 202, 202, 200) // acc += loopvar
	a.emitImm16(runtime.OP_INC_CMP_JMP, []byte{200, 201}, 0)
	backIdx := len(a.code) - 2
	next := len(a.code)
	dist := next - loopStart
	a.code[backIdx] = byte(dist >> 8)
	a.code[backIdx+1] = byte(dist)
	a.emit(runtime.OP_RETURN_R, 202)
	chunk := a.chunk(runtime.NewI32(0), runtime.NewI32(5))

	funcs := runtime.NewFunctionTable()
	idx := funcs.Append(&runtime.FunctionRecord{Chunk: chunk, DebugName: "<module>"})

	var out bytes.Buffer
	interp := runtime.NewInterp(funcs, &out, 0)
	result, err := interp.Run(idx, nil)
	require.NoError(t, err)
	require.Equal(t, int32(10), result.I32())
}

// TestInterpRecursiveCall exercises fact(6) -> 720 directly against a
// hand-built two-branch chunk (n <= 1 returns the constant 1; otherwise it
// calls itself with n - 1 and multiplies), the same scenario spec.md's
// invariant list describes at the source level.
func TestInterpRecursiveCall(t *testing.T) {
	funcs := runtime.NewFunctionTable()
	const selfIndex = 0

	var a asm
	a.emitImm16(runtime.OP_LOAD_I32_CONST, []byte{200}, 0) // r200 = 1
	a.emit(runtime.OP_LE_I32, 201, 255, 200)                // r201 = n <= 1
	jumpIdx := len(a.code)
	a.emitImm16(runtime.OP_JUMP_IF_NOT_R, []byte{201}, 0)
	a.emit(runtime.OP_RETURN_R, 200) // then: return 1

	elseStart := len(a.code)
	a.emit(runtime.OP_SUB_I32, 202, 255, 200)               // r202 = n - 1
	a.emitImm16(runtime.OP_LOAD_CONST, []byte{203}, 1)      // r203 = fact (self)
	a.emit(runtime.OP_MOVE, 204, 202)                       // arg slot
	a.emit(runtime.OP_CALL_R, 203, 204, 1, 205)             // r205 = fact(n-1)
	a.emit(runtime.OP_MUL_I32, 206, 255, 205)                // r206 = n * r205
	a.emit(runtime.OP_RETURN_R, 206)

	next := jumpIdx + 4
	dist := elseStart - next
	a.code[jumpIdx+2] = byte(dist >> 8)
	a.code[jumpIdx+3] = byte(dist)

	chunk := a.chunk(runtime.NewI32(1), runtime.Value{Kind: ast.FUNCTION, Obj: runtime.Function{Name: "fact", Index: selfIndex}})
	funcs.Append(&runtime.FunctionRecord{Arity: 1, Chunk: chunk, DebugName: "fact"})

	var out bytes.Buffer
	interp := runtime.NewInterp(funcs, &out, 0)
	result, err := interp.Run(selfIndex, []runtime.Value{runtime.NewI32(6)})
	require.NoError(t, err)
	require.Equal(t, int32(720), result.I32())
}

func TestInterpUncaughtThrow(t *testing.T) {
	var a asm
	a.emitImm16(runtime.OP_LOAD_I32_CONST, []byte{200}, 0)
	a.emit(runtime.OP_THROW, 200)
	chunk := a.chunk(runtime.NewI32(7))

	funcs := runtime.NewFunctionTable()
	idx := funcs.Append(&runtime.FunctionRecord{Chunk: chunk})

	var out bytes.Buffer
	interp := runtime.NewInterp(funcs, &out, 0)
	_, err := interp.Run(idx, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "uncaught throw")
}

func TestInterpTryCatch(t *testing.T) {
	// try { throw 9 } catch e { } ; return e (read back the caught value)
	var a asm
	tryIdx := len(a.code)
	a.emitImm16(runtime.OP_TRY_BEGIN, []byte{200}, 0)
	a.emitImm16(runtime.OP_LOAD_I32_CONST, []byte{201}, 0)
	a.emit(runtime.OP_THROW, 201)
	a.emit(runtime.OP_TRY_END)
	handlerStart := len(a.code)
	a.emit(runtime.OP_RETURN_R, 200)

	next := tryIdx + 4
	dist := handlerStart - next
	a.code[tryIdx+2] = byte(dist >> 8)
	a.code[tryIdx+3] = byte(dist)

	chunk := a.chunk(runtime.NewI32(9))
	funcs := runtime.NewFunctionTable()
	idx := funcs.Append(&runtime.FunctionRecord{Chunk: chunk})

	var out bytes.Buffer
	interp := runtime.NewInterp(funcs, &out, 0)
	result, err := interp.Run(idx, nil)
	require.NoError(t, err)
	require.Equal(t, int32(9), result.I32())
}

func TestInterpArraysAsStructs(t *testing.T) {
	// a boxed-array value: make_array{10, 20}, get index 1, expect 20.
	var a asm
	a.emitImm16(runtime.OP_LOAD_I32_CONST, []byte{200}, 0)
	a.emitImm16(runtime.OP_LOAD_I32_CONST, []byte{201}, 1)
	a.emit(runtime.OP_MAKE_ARRAY_R, 202, 200, 2)
	a.emitImm16(runtime.OP_LOAD_I32_CONST, []byte{203}, 2)
	a.emit(runtime.OP_ARRAY_GET_R, 204, 202, 203)
	a.emit(runtime.OP_RETURN_R, 204)
	chunk := a.chunk(runtime.NewI32(10), runtime.NewI32(20), runtime.NewI32(1))

	funcs := runtime.NewFunctionTable()
	idx := funcs.Append(&runtime.FunctionRecord{Chunk: chunk})

	var out bytes.Buffer
	interp := runtime.NewInterp(funcs, &out, 0)
	result, err := interp.Run(idx, nil)
	require.NoError(t, err)
	require.Equal(t, int32(20), result.I32())
}

func TestInterpPrintWritesToOut(t *testing.T) {
	var a asm
	a.emitImm16(runtime.OP_LOAD_I32_CONST, []byte{200}, 0)
	a.emit(runtime.OP_PRINT_R, 200)
	a.emit(runtime.OP_RETURN_VOID)
	chunk := a.chunk(runtime.NewI32(720))

	funcs := runtime.NewFunctionTable()
	idx := funcs.Append(&runtime.FunctionRecord{Chunk: chunk})

	var out bytes.Buffer
	interp := runtime.NewInterp(funcs, &out, 0)
	_, err := interp.Run(idx, nil)
	require.NoError(t, err)
	require.Equal(t, "720\n", out.String())
}

// TestInterpStepBudgetExceeded feeds the toy interpreter an unconditional
// backward-jumping loop, the shape a miscompiled source loop would take,
// and checks the step budget (the interpreter's only defense against it,
// per NewInterp's doc comment) actually trips.
func TestInterpStepBudgetExceeded(t *testing.T) {
	var a asm
	loopStart := len(a.code)
	a.emit(runtime.OP_NOP)
	next := len(a.code) + 2 // OP_LOOP_SHORT's own size (op + imm8)
	dist := next - loopStart
	a.code = append(a.code, byte(runtime.OP_LOOP_SHORT), byte(dist))

	chunk := a.chunk()
	funcs := runtime.NewFunctionTable()
	idx := funcs.Append(&runtime.FunctionRecord{Chunk: chunk})

	var out bytes.Buffer
	interp := runtime.NewInterp(funcs, &out, 100)
	_, err := interp.Run(idx, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "step budget exceeded")
}
