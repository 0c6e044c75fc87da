package runtime

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/mna/orus/lang/ast"
)

// Interp is a toy bytecode interpreter: the tests run emitted bytecode
// through it, and the CLI's run and project commands execute compiled
// programs with it. It has no tiering, no speculative deopt, and no
// bytecode verifier. Its dispatch loop (a flat opcode switch walking one
// function's Code byte by byte) mirrors the shape of the teacher's
// lang/machine run loop, but it walks this package's register-based
// instruction encoding instead of the teacher's stack machine with
// varint-encoded operands.
type Interp struct {
	funcs *FunctionTable
	out   io.Writer

	globals  [globalCap]Value
	steps    int
	maxSteps int
}

// NewInterp returns an Interp ready to execute funcs, printing OP_PRINT_R
// / OP_PRINT_MULTI_R output to out. maxSteps bounds total instructions
// executed across every call, the toy interpreter's only defense against
// a runaway or miscompiled loop (there is no real scheduler to pre-empt
// it); 0 means the default of 10,000,000.
func NewInterp(funcs *FunctionTable, out io.Writer, maxSteps int) *Interp {
	if maxSteps <= 0 {
		maxSteps = 10_000_000
	}
	return &Interp{funcs: funcs, out: out, maxSteps: maxSteps}
}

// frame is one call's register file. Registers below globalCap are never
// stored here; get/set route those into the Interp's shared globals array
// instead, the register-class split lang/codegen's Allocator (spec.md
// §4.3) assumes the VM honors.
type frame struct {
	regs     [RegisterCount]Value
	upvalues []*Value
}

// classify mirrors lang/codegen's own register-class split (spec.md §4.3)
// without importing that package, since runtime must not depend on
// codegen: the three band boundaries are a shared constant of the
// design, not codegen-private.
const (
	// RegisterCount is the VM's total logical register count (spec.md
	// §3), duplicated from lang/codegen's own constant of the same value
	// rather than imported, since runtime must not depend on codegen.
	RegisterCount = 256

	globalCap = 64
	tempBase  = 192
)

func (it *Interp) get(fr *frame, reg byte) Value {
	if int(reg) < globalCap {
		return it.globals[reg]
	}
	return fr.regs[reg]
}

func (it *Interp) set(fr *frame, reg byte, v Value) {
	if int(reg) < globalCap {
		it.globals[reg] = v
		return
	}
	fr.regs[reg] = v
}

// SetFuncs swaps in a different function table for subsequent Run/call
// invocations while keeping it.globals intact. A multi-module driver uses
// this to execute each linked module's top-level body in turn against one
// shared global register bank, the runtime counterpart of lang/codegen's
// compileImport reserving an imported symbol's register in the importing
// module's own allocator.
func (it *Interp) SetFuncs(funcs *FunctionTable) { it.funcs = funcs }

// Run executes the function at entryIndex with args and returns its
// return value (NewNil if it returns void).
func (it *Interp) Run(entryIndex int, args []Value) (Value, error) {
	fr := it.funcs.Get(entryIndex)
	if fr == nil {
		return Value{}, fmt.Errorf("runtime: no function at index %d", entryIndex)
	}
	return it.call(fr, nil, args)
}

// call executes fr's chunk with the given upvalues and arguments, copying
// args into the parameter registers at the top of the frame's register
// file per spec.md §4.10 step 6's [256-arity, 256) convention.
func (it *Interp) call(fr *FunctionRecord, upvalues []*Value, args []Value) (Value, error) {
	var f frame
	f.upvalues = upvalues
	base := RegisterCount - fr.Arity
	if base < 0 {
		base = 0
	}
	for i, a := range args {
		if base+i < RegisterCount {
			f.regs[base+i] = a
		}
	}
	return it.exec(fr.Chunk, &f)
}

// thrown carries an OP_THROW value out of exec when no OP_TRY_BEGIN region
// is active in the throwing function. The calling function's OP_CALL_R
// catches it if that call sits inside a try region; otherwise it keeps
// propagating, up to Run's caller as a Go error.
type thrown struct{ val Value }

func (t *thrown) Error() string { return fmt.Sprintf("uncaught throw: %s", t.val) }

// exec runs c's bytecode to completion (a RETURN_R/RETURN_VOID or an
// OP_HALT) and returns the function's result.
func (it *Interp) exec(c *Chunk, fr *frame) (Value, error) {
	pc := 0
	var iterStack []*Iterator
	handlerPC, catchReg, inTry := -1, -1, false

	for pc < len(c.Code) {
		it.steps++
		if it.steps > it.maxSteps {
			return Value{}, fmt.Errorf("runtime: step budget exceeded (%d)", it.maxSteps)
		}

		op, shape, next := c.Disassemble(pc)
		reg := func(n int) byte { return c.Reg(pc, n) }

		switch op {
		case OP_NOP:
			// nothing

		case OP_LOAD_NIL:
			it.set(fr, reg(0), NewNil())
		case OP_LOAD_TRUE:
			it.set(fr, reg(0), NewBool(true))
		case OP_LOAD_FALSE:
			it.set(fr, reg(0), NewBool(false))
		case OP_LOAD_I32_CONST, OP_LOAD_I64_CONST, OP_LOAD_U32_CONST, OP_LOAD_U64_CONST, OP_LOAD_F64_CONST, OP_LOAD_CONST:
			idx := c.Imm16(pc, shape)
			if int(idx) >= len(c.Constants) {
				return Value{}, fmt.Errorf("runtime: constant index %d out of range", idx)
			}
			it.set(fr, reg(0), c.Constants[idx])

		case OP_MOVE:
			it.set(fr, reg(0), it.get(fr, reg(1)))

		case OP_EQ:
			it.set(fr, reg(0), NewBool(it.get(fr, reg(1)).Equal(it.get(fr, reg(2)))))
		case OP_NE:
			it.set(fr, reg(0), NewBool(!it.get(fr, reg(1)).Equal(it.get(fr, reg(2)))))
		case OP_ADD_I32_R:
			a, b := it.get(fr, reg(1)), it.get(fr, reg(2))
			if a.Kind == ast.STRING || b.Kind == ast.STRING {
				it.set(fr, reg(0), NewString(a.String()+b.String()))
			} else {
				it.set(fr, reg(0), NewI32(a.I32()+b.I32()))
			}

		case OP_AND:
			it.set(fr, reg(0), NewBool(it.get(fr, reg(1)).Bool() && it.get(fr, reg(2)).Bool()))
		case OP_OR:
			it.set(fr, reg(0), NewBool(it.get(fr, reg(1)).Bool() || it.get(fr, reg(2)).Bool()))
		case OP_NOT_BOOL:
			it.set(fr, reg(0), NewBool(!it.get(fr, reg(1)).Bool()))

		case OP_INC_I32:
			v := it.get(fr, reg(0))
			it.set(fr, reg(0), NewI32(v.I32()+1))
		case OP_ADD_I32_IMM:
			v := it.get(fr, reg(1))
			imm := int32(int8(c.Imm8(pc, shape)))
			it.set(fr, reg(0), NewI32(v.I32()+imm))

		case OP_INC_CMP_JMP:
			loopVar, limit := reg(0), reg(1)
			v := it.get(fr, loopVar)
			nv := v.I32() + 1
			it.set(fr, loopVar, NewI32(nv))
			if nv < it.get(fr, limit).I32() {
				pc = jumpTarget(op, shape, pc, c)
				continue
			}

		case OP_JUMP:
			pc = jumpTarget(op, shape, pc, c)
			continue
		case OP_JUMP_SHORT:
			pc = jumpTarget(op, shape, pc, c)
			continue
		case OP_LOOP_SHORT:
			pc = jumpTarget(op, shape, pc, c)
			continue
		case OP_JUMP_IF_NOT_R:
			if !it.get(fr, reg(0)).Bool() {
				pc = jumpTarget(op, shape, pc, c)
				continue
			}

		case OP_CALL_R:
			calleeReg, firstArg, argc, resultReg := reg(0), reg(1), reg(2), reg(3)
			args := make([]Value, argc)
			for i := 0; i < int(argc); i++ {
				args[i] = it.get(fr, firstArg+byte(i))
			}
			res, err := it.dispatchCall(it.get(fr, calleeReg), args)
			if err != nil {
				if t, ok := err.(*thrown); ok && inTry {
					it.set(fr, byte(catchReg), t.val)
					pc = handlerPC
					inTry = false
					continue
				}
				return Value{}, err
			}
			it.set(fr, resultReg, res)

		case OP_RETURN_R:
			return it.get(fr, reg(0)), nil
		case OP_RETURN_VOID:
			return NewNil(), nil

		case OP_GET_UPVALUE_R:
			idx := c.Imm8(pc, shape)
			if int(idx) >= len(fr.upvalues) {
				return Value{}, fmt.Errorf("runtime: upvalue index %d out of range", idx)
			}
			it.set(fr, reg(0), *fr.upvalues[idx])
		case OP_SET_UPVALUE_R:
			idx := reg(0)
			if int(idx) >= len(fr.upvalues) {
				return Value{}, fmt.Errorf("runtime: upvalue index %d out of range", idx)
			}
			*fr.upvalues[idx] = it.get(fr, reg(1))

		case OP_MAKE_ARRAY_R:
			base, count := reg(1), reg(2)
			elems := make([]Value, count)
			for i := 0; i < int(count); i++ {
				elems[i] = it.get(fr, base+byte(i))
			}
			it.set(fr, reg(0), Value{Kind: ast.ARRAY, Obj: &Array{Elems: elems}})
		case OP_ARRAY_GET_R:
			arr := it.get(fr, reg(1)).Obj.(*Array)
			idx := it.get(fr, reg(2)).I32()
			if idx < 0 || int(idx) >= len(arr.Elems) {
				return Value{}, fmt.Errorf("runtime: array index %d out of range", idx)
			}
			it.set(fr, reg(0), arr.Elems[idx])
		case OP_ARRAY_SET_R:
			arr := it.get(fr, reg(0)).Obj.(*Array)
			idx := it.get(fr, reg(1)).I32()
			if idx < 0 || int(idx) >= len(arr.Elems) {
				return Value{}, fmt.Errorf("runtime: array index %d out of range", idx)
			}
			arr.Elems[idx] = it.get(fr, reg(2))
		case OP_ARRAY_LEN_R:
			arr := it.get(fr, reg(1)).Obj.(*Array)
			it.set(fr, reg(0), NewI32(int32(len(arr.Elems))))
		case OP_ARRAY_PUSH_R:
			arr := it.get(fr, reg(0)).Obj.(*Array)
			arr.Elems = append(arr.Elems, it.get(fr, reg(1)))
		case OP_ARRAY_POP_R:
			arr := it.get(fr, reg(1)).Obj.(*Array)
			if len(arr.Elems) == 0 {
				return Value{}, fmt.Errorf("runtime: pop from empty array")
			}
			last := arr.Elems[len(arr.Elems)-1]
			arr.Elems = arr.Elems[:len(arr.Elems)-1]
			it.set(fr, reg(0), last)
		case OP_ARRAY_SLICE_R:
			arr := it.get(fr, reg(1)).Obj.(*Array)
			lo, hi := it.get(fr, reg(2)).I32(), it.get(fr, reg(3)).I32()
			if lo < 0 || hi > int32(len(arr.Elems)) || lo > hi {
				return Value{}, fmt.Errorf("runtime: invalid array slice [%d:%d]", lo, hi)
			}
			out := append([]Value(nil), arr.Elems[lo:hi]...)
			it.set(fr, reg(0), Value{Kind: ast.ARRAY, Obj: &Array{Elems: out}})
		case OP_ARRAY_SORTED_R:
			arr := it.get(fr, reg(1)).Obj.(*Array)
			out := append([]Value(nil), arr.Elems...)
			sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
			it.set(fr, reg(0), Value{Kind: ast.ARRAY, Obj: &Array{Elems: out}})

		case OP_STRING_INDEX_R:
			s := it.get(fr, reg(1)).Str()
			idx := it.get(fr, reg(2)).I32()
			if idx < 0 || int(idx) >= len(s) {
				return Value{}, fmt.Errorf("runtime: string index %d out of range", idx)
			}
			it.set(fr, reg(0), NewString(string(s[idx])))

		case OP_ENUM_NEW_R:
			variant := c.Imm8(pc, shape)
			base, count := reg(1), reg(2)
			payload := make([]Value, count)
			for i := 0; i < int(count); i++ {
				payload[i] = it.get(fr, base+byte(i))
			}
			it.set(fr, reg(0), Value{Kind: ast.ENUM, Obj: &Enum{Variant: int(variant), Payload: payload}})
		case OP_ENUM_TAG_EQ_R:
			e := it.get(fr, reg(1)).Obj.(*Enum)
			variant := c.Imm8(pc, shape)
			it.set(fr, reg(0), NewBool(e.Variant == int(variant)))
		case OP_ENUM_PAYLOAD_R:
			e := it.get(fr, reg(1)).Obj.(*Enum)
			idx := c.Imm8(pc, shape)
			if int(idx) >= len(e.Payload) {
				return Value{}, fmt.Errorf("runtime: enum payload index %d out of range", idx)
			}
			it.set(fr, reg(0), e.Payload[idx])

		case OP_GET_ITER_R:
			src := it.get(fr, reg(1))
			var vals []Value
			if arr, ok := src.Obj.(*Array); ok {
				vals = arr.Elems
			}
			iter := &Iterator{Values: vals}
			iterStack = append(iterStack, iter)
			it.set(fr, reg(0), Value{Kind: ast.ANY, Obj: iter})
		case OP_ITER_NEXT_R:
			iter := it.get(fr, reg(2)).Obj.(*Iterator)
			v, ok := iter.Next()
			it.set(fr, reg(0), v)
			it.set(fr, reg(1), NewBool(ok))
		case OP_RANGE_R:
			lo, hi := it.get(fr, reg(1)).I32(), it.get(fr, reg(2)).I32()
			vals := make([]Value, 0, hi-lo)
			for v := lo; v < hi; v++ {
				vals = append(vals, NewI32(v))
			}
			it.set(fr, reg(0), Value{Kind: ast.ARRAY, Obj: &Array{Elems: vals}})

		case OP_PRINT_R:
			fmt.Fprintln(it.out, it.get(fr, reg(0)).String())
		case OP_PRINT_MULTI_R:
			base, count := reg(0), reg(1)
			for i := 0; i < int(count); i++ {
				if i > 0 {
					fmt.Fprint(it.out, " ")
				}
				fmt.Fprint(it.out, it.get(fr, base+byte(i)).String())
			}
			fmt.Fprintln(it.out)

		case OP_TIME_STAMP:
			it.set(fr, reg(0), NewI64(0))

		case OP_TRY_BEGIN:
			catchReg = int(c.Imm8(pc, shape))
			handlerPC = jumpTarget(op, shape, pc, c)
			inTry = true
		case OP_TRY_END:
			inTry = false

		case OP_THROW:
			v := it.get(fr, reg(0))
			if inTry {
				it.set(fr, byte(catchReg), v)
				pc = handlerPC
				inTry = false
				continue
			}
			return Value{}, &thrown{val: v}

		case OP_INPUT_R:
			it.set(fr, reg(0), NewString(""))
		case OP_PARSE_INT_R:
			s := it.get(fr, reg(1)).Str()
			var n int64
			fmt.Sscanf(s, "%d", &n)
			it.set(fr, reg(0), NewI32(int32(n)))
		case OP_PARSE_FLOAT_R:
			s := it.get(fr, reg(1)).Str()
			var f float64
			fmt.Sscanf(s, "%g", &f)
			it.set(fr, reg(0), NewF64(f))
		case OP_TYPE_OF_R:
			it.set(fr, reg(0), NewString(it.get(fr, reg(1)).Kind.String()))
		case OP_IS_TYPE_R:
			tag := ast.Kind(c.Imm8(pc, shape))
			it.set(fr, reg(0), NewBool(it.get(fr, reg(1)).Kind == tag))
		case OP_ASSERT_EQ_R:
			a, b := it.get(fr, reg(0)), it.get(fr, reg(1))
			if !a.Equal(b) {
				return Value{}, fmt.Errorf("runtime: assertion failed: %s != %s", a, b)
			}

		case OP_HALT:
			return NewNil(), nil

		default:
			if isBinaryArith(op) {
				it.execArith(op, fr, reg)
			} else if isUnaryOrCast(op) {
				it.execUnaryOrCast(op, fr, reg)
			} else {
				return Value{}, fmt.Errorf("runtime: unimplemented opcode %s", op)
			}
		}
		pc = next
	}
	_ = iterStack
	return NewNil(), nil
}

// jumpTarget resolves a jump instruction's absolute code offset, mirroring
// lang/codegen's Buffer.Patch distance convention (see that package's
// jumpIsBackwardOnly): forward opcodes measure forward from the
// instruction following the jump, backward-only opcodes measure backward
// from that same point.
func jumpTarget(op Opcode, shape Shape, offset int, c *Chunk) int {
	next := offset + shape.Size()
	var dist int
	if shape.Imm16 {
		dist = int(c.Imm16(offset, shape))
	} else {
		dist = int(c.Imm8(offset, shape))
	}
	if jumpIsBackwardOnly(op) {
		return next - dist
	}
	return next + dist
}

func jumpIsBackwardOnly(op Opcode) bool {
	return op == OP_LOOP_SHORT || op == OP_INC_CMP_JMP
}

// execArith handles the uniform dst,a,b binary arithmetic/comparison
// opcode range (OP_ADD_I32..OP_GE_F64), one kind-specific switch per
// numeric kind since Go has no generic arithmetic over an ast.Kind tag.
func (it *Interp) execArith(op Opcode, fr *frame, reg func(int) byte) {
	a, b := it.get(fr, reg(1)), it.get(fr, reg(2))
	dst := reg(0)
	switch op {
	case OP_ADD_I32:
		it.set(fr, dst, NewI32(a.I32()+b.I32()))
	case OP_SUB_I32:
		it.set(fr, dst, NewI32(a.I32()-b.I32()))
	case OP_MUL_I32:
		it.set(fr, dst, NewI32(a.I32()*b.I32()))
	case OP_DIV_I32:
		it.set(fr, dst, NewI32(a.I32()/b.I32()))
	case OP_MOD_I32:
		it.set(fr, dst, NewI32(a.I32()%b.I32()))
	case OP_LT_I32:
		it.set(fr, dst, NewBool(a.I32() < b.I32()))
	case OP_GT_I32:
		it.set(fr, dst, NewBool(a.I32() > b.I32()))
	case OP_LE_I32:
		it.set(fr, dst, NewBool(a.I32() <= b.I32()))
	case OP_GE_I32:
		it.set(fr, dst, NewBool(a.I32() >= b.I32()))

	case OP_ADD_I64:
		it.set(fr, dst, NewI64(a.I64()+b.I64()))
	case OP_SUB_I64:
		it.set(fr, dst, NewI64(a.I64()-b.I64()))
	case OP_MUL_I64:
		it.set(fr, dst, NewI64(a.I64()*b.I64()))
	case OP_DIV_I64:
		it.set(fr, dst, NewI64(a.I64()/b.I64()))
	case OP_MOD_I64:
		it.set(fr, dst, NewI64(a.I64()%b.I64()))
	case OP_LT_I64:
		it.set(fr, dst, NewBool(a.I64() < b.I64()))
	case OP_GT_I64:
		it.set(fr, dst, NewBool(a.I64() > b.I64()))
	case OP_LE_I64:
		it.set(fr, dst, NewBool(a.I64() <= b.I64()))
	case OP_GE_I64:
		it.set(fr, dst, NewBool(a.I64() >= b.I64()))

	case OP_ADD_U32:
		it.set(fr, dst, NewU32(a.U32()+b.U32()))
	case OP_SUB_U32:
		it.set(fr, dst, NewU32(a.U32()-b.U32()))
	case OP_MUL_U32:
		it.set(fr, dst, NewU32(a.U32()*b.U32()))
	case OP_DIV_U32:
		it.set(fr, dst, NewU32(a.U32()/b.U32()))
	case OP_MOD_U32:
		it.set(fr, dst, NewU32(a.U32()%b.U32()))
	case OP_LT_U32:
		it.set(fr, dst, NewBool(a.U32() < b.U32()))
	case OP_GT_U32:
		it.set(fr, dst, NewBool(a.U32() > b.U32()))
	case OP_LE_U32:
		it.set(fr, dst, NewBool(a.U32() <= b.U32()))
	case OP_GE_U32:
		it.set(fr, dst, NewBool(a.U32() >= b.U32()))

	case OP_ADD_U64:
		it.set(fr, dst, NewU64(a.U64()+b.U64()))
	case OP_SUB_U64:
		it.set(fr, dst, NewU64(a.U64()-b.U64()))
	case OP_MUL_U64:
		it.set(fr, dst, NewU64(a.U64()*b.U64()))
	case OP_DIV_U64:
		it.set(fr, dst, NewU64(a.U64()/b.U64()))
	case OP_MOD_U64:
		it.set(fr, dst, NewU64(a.U64()%b.U64()))
	case OP_LT_U64:
		it.set(fr, dst, NewBool(a.U64() < b.U64()))
	case OP_GT_U64:
		it.set(fr, dst, NewBool(a.U64() > b.U64()))
	case OP_LE_U64:
		it.set(fr, dst, NewBool(a.U64() <= b.U64()))
	case OP_GE_U64:
		it.set(fr, dst, NewBool(a.U64() >= b.U64()))

	case OP_ADD_F64:
		it.set(fr, dst, NewF64(a.F64()+b.F64()))
	case OP_SUB_F64:
		it.set(fr, dst, NewF64(a.F64()-b.F64()))
	case OP_MUL_F64:
		it.set(fr, dst, NewF64(a.F64()*b.F64()))
	case OP_DIV_F64:
		it.set(fr, dst, NewF64(a.F64()/b.F64()))
	case OP_MOD_F64:
		it.set(fr, dst, NewF64(math.Mod(a.F64(), b.F64())))
	case OP_LT_F64:
		it.set(fr, dst, NewBool(a.F64() < b.F64()))
	case OP_GT_F64:
		it.set(fr, dst, NewBool(a.F64() > b.F64()))
	case OP_LE_F64:
		it.set(fr, dst, NewBool(a.F64() <= b.F64()))
	case OP_GE_F64:
		it.set(fr, dst, NewBool(a.F64() >= b.F64()))
	}
}

// execUnaryOrCast handles the uniform dst,src unary negation and numeric
// cast opcode range (OP_NEG_I32..OP_CAST_F64_U64).
func (it *Interp) execUnaryOrCast(op Opcode, fr *frame, reg func(int) byte) {
	src := it.get(fr, reg(1))
	dst := reg(0)
	switch op {
	case OP_NEG_I32:
		it.set(fr, dst, NewI32(-src.I32()))
	case OP_NEG_I64:
		it.set(fr, dst, NewI64(-src.I64()))
	case OP_NEG_U32:
		it.set(fr, dst, NewU32(-src.U32()))
	case OP_NEG_U64:
		it.set(fr, dst, NewU64(-src.U64()))
	case OP_NEG_F64:
		it.set(fr, dst, NewF64(-src.F64()))

	case OP_CAST_I32_I64:
		it.set(fr, dst, NewI64(int64(src.I32())))
	case OP_CAST_I32_U32:
		it.set(fr, dst, NewU32(uint32(src.I32())))
	case OP_CAST_I32_U64:
		it.set(fr, dst, NewU64(uint64(src.I32())))
	case OP_CAST_I32_F64:
		it.set(fr, dst, NewF64(float64(src.I32())))
	case OP_CAST_I64_I32:
		it.set(fr, dst, NewI32(int32(src.I64())))
	case OP_CAST_I64_U32:
		it.set(fr, dst, NewU32(uint32(src.I64())))
	case OP_CAST_I64_U64:
		it.set(fr, dst, NewU64(uint64(src.I64())))
	case OP_CAST_I64_F64:
		it.set(fr, dst, NewF64(float64(src.I64())))
	case OP_CAST_U32_I32:
		it.set(fr, dst, NewI32(int32(src.U32())))
	case OP_CAST_U32_I64:
		it.set(fr, dst, NewI64(int64(src.U32())))
	case OP_CAST_U32_U64:
		it.set(fr, dst, NewU64(uint64(src.U32())))
	case OP_CAST_U32_F64:
		it.set(fr, dst, NewF64(float64(src.U32())))
	case OP_CAST_U64_I32:
		it.set(fr, dst, NewI32(int32(src.U64())))
	case OP_CAST_U64_I64:
		it.set(fr, dst, NewI64(int64(src.U64())))
	case OP_CAST_U64_U32:
		it.set(fr, dst, NewU32(uint32(src.U64())))
	case OP_CAST_U64_F64:
		it.set(fr, dst, NewF64(float64(src.U64())))
	case OP_CAST_F64_I32:
		it.set(fr, dst, NewI32(int32(src.F64())))
	case OP_CAST_F64_I64:
		it.set(fr, dst, NewI64(int64(src.F64())))
	case OP_CAST_F64_U32:
		it.set(fr, dst, NewU32(uint32(src.F64())))
	case OP_CAST_F64_U64:
		it.set(fr, dst, NewU64(uint64(src.F64())))
	}
}

func less(a, b Value) bool {
	switch a.Kind {
	case ast.STRING:
		return a.Str() < b.Str()
	case ast.F64:
		return a.F64() < b.F64()
	default:
		return a.Bits < b.Bits
	}
}

// dispatchCall resolves callee (a Function or Closure value, both tagged
// ast.FUNCTION since the AST's Kind enum has no separate closure tag) and
// runs it with args. Which of the two it actually holds can only be told
// apart by the concrete type boxed in Obj, not by Kind.
func (it *Interp) dispatchCall(callee Value, args []Value) (Value, error) {
	switch fn := callee.Obj.(type) {
	case Function:
		fr := it.funcs.Get(fn.Index)
		if fr == nil {
			return Value{}, fmt.Errorf("runtime: call to undefined function index %d", fn.Index)
		}
		return it.call(fr, nil, args)
	case Closure:
		fr := it.funcs.Get(fn.FuncIndex)
		if fr == nil {
			return Value{}, fmt.Errorf("runtime: call to undefined function index %d", fn.FuncIndex)
		}
		return it.call(fr, fn.Upvalues, args)
	default:
		return Value{}, fmt.Errorf("runtime: value of kind %s is not callable", callee.Kind)
	}
}
