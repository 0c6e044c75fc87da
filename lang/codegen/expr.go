package codegen

import (
	"fmt"

	"github.com/mna/orus/lang/ast"
	"github.com/mna/orus/lang/runtime"
	"github.com/mna/orus/lang/token"
)

// lowerExpr is the expression lowerer's dispatch (C6, spec.md §4.5),
// returning the register holding the computed value.
func (fc *funcCompiler) lowerExpr(e ast.Expr) (int, error) {
	switch x := e.(type) {
	case *ast.LiteralExpr:
		return fc.lowerLiteral(x)
	case *ast.IdentExpr:
		return fc.lowerIdent(x)
	case *ast.ArrayLitExpr:
		return fc.lowerArrayLit(x)
	case *ast.ArrayFillExpr:
		return fc.lowerArrayFill(x)
	case *ast.StructLitExpr:
		return fc.lowerStructLit(x)
	case *ast.EnumLitExpr:
		return fc.lowerEnumLit(x)
	case *ast.IndexExpr:
		return fc.lowerIndex(x)
	case *ast.SliceExpr:
		return fc.lowerSlice(x)
	case *ast.BinaryExpr:
		return fc.lowerBinary(x)
	case *ast.UnaryExpr:
		return fc.lowerUnary(x)
	case *ast.CastExpr:
		return fc.lowerCast(x)
	case *ast.MemberExpr:
		return fc.lowerMember(x)
	case *ast.CallExpr:
		return fc.lowerCall(x)
	case *ast.MatchExpr:
		return fc.lowerMatch(x)
	default:
		return 0, fmt.Errorf("codegen: unhandled expression type %T", e)
	}
}

// lowerIdent resolves a name against the scope stack directly (C4 owns
// binding and register assignment, spec.md §4.4) and, for an upvalue
// reference, loads it into a fresh temp via GET_UPVALUE_R.
func (fc *funcCompiler) lowerIdent(x *ast.IdentExpr) (int, error) {
	sym, isUpvalue, upvalIdx, ok := fc.resolveIdent(x.Name)
	if !ok {
		return 0, fmt.Errorf("codegen: undefined identifier %q", x.Name)
	}
	sym.Read = true
	if !isUpvalue {
		return sym.Reg, nil
	}
	dst, err := fc.alloc.AllocTemp()
	if err != nil {
		return 0, err
	}
	fc.buf.AppendInstruction(runtime.OP_GET_UPVALUE_R, byte(dst), byte(upvalIdx))
	return dst, nil
}

// loadI32Const loads the constant n into a fresh temp register; used
// whenever a compile-time-known small integer (a struct field index, the
// default 0 lower bound of a slice, the implicit for-range step 1) needs
// to reach a register-only opcode like ARRAY_GET_R.
func (fc *funcCompiler) loadI32Const(n int32) (int, error) {
	dst, err := fc.alloc.AllocTemp()
	if err != nil {
		return 0, err
	}
	fc.emitConst(dst, runtime.OP_LOAD_I32_CONST, runtime.NewI32(n))
	return dst, nil
}

// lowerArrayLit evaluates each element into a contiguous temp range and
// emits MAKE_ARRAY_R over that range (spec.md §4.5 Array/struct literal).
func (fc *funcCompiler) lowerArrayLit(x *ast.ArrayLitExpr) (int, error) {
	base, err := fc.alloc.AllocConsecutiveTemps(len(x.Elems))
	if err != nil {
		return 0, err
	}
	for i, el := range x.Elems {
		reg, err := fc.lowerExpr(el)
		if err != nil {
			return 0, err
		}
		fc.emitMove(base+i, reg)
		fc.freeIfTemp(reg)
	}
	dst, err := fc.alloc.AllocTemp()
	if err != nil {
		return 0, err
	}
	fc.buf.AppendInstruction(runtime.OP_MAKE_ARRAY_R, byte(dst), byte(base), byte(len(x.Elems)))
	return dst, nil
}

// lowerArrayFill evaluates the fill value once and replicates it across a
// contiguous temp range before MAKE_ARRAY_R (spec.md §4.5: "[v; n]").
func (fc *funcCompiler) lowerArrayFill(x *ast.ArrayFillExpr) (int, error) {
	base, err := fc.alloc.AllocConsecutiveTemps(x.Count)
	if err != nil {
		return 0, err
	}
	reg, err := fc.lowerExpr(x.Value)
	if err != nil {
		return 0, err
	}
	for i := 0; i < x.Count; i++ {
		fc.emitMove(base+i, reg)
	}
	fc.freeIfTemp(reg)
	dst, err := fc.alloc.AllocTemp()
	if err != nil {
		return 0, err
	}
	fc.buf.AppendInstruction(runtime.OP_MAKE_ARRAY_R, byte(dst), byte(base), byte(x.Count))
	return dst, nil
}

// lowerStructLit emits field values in declared order (not literal order),
// via FieldOrder precomputed by lang/typecheck, since struct layout is a
// boxed array indexed by declared field position (spec.md §9).
func (fc *funcCompiler) lowerStructLit(x *ast.StructLitExpr) (int, error) {
	base, err := fc.alloc.AllocConsecutiveTemps(len(x.Values))
	if err != nil {
		return 0, err
	}
	for declIdx, litIdx := range x.FieldOrder {
		reg, err := fc.lowerExpr(x.Values[litIdx])
		if err != nil {
			return 0, err
		}
		fc.emitMove(base+declIdx, reg)
		fc.freeIfTemp(reg)
	}
	dst, err := fc.alloc.AllocTemp()
	if err != nil {
		return 0, err
	}
	fc.buf.AppendInstruction(runtime.OP_MAKE_ARRAY_R, byte(dst), byte(base), byte(len(x.Values)))
	return dst, nil
}

// lowerEnumLit emits an enum constructor call: payload args into a
// contiguous temp range, then ENUM_NEW_R tagged with the variant index.
func (fc *funcCompiler) lowerEnumLit(x *ast.EnumLitExpr) (int, error) {
	base, err := fc.alloc.AllocConsecutiveTemps(len(x.Args))
	if err != nil {
		return 0, err
	}
	for i, a := range x.Args {
		reg, err := fc.lowerExpr(a)
		if err != nil {
			return 0, err
		}
		fc.emitMove(base+i, reg)
		fc.freeIfTemp(reg)
	}
	dst, err := fc.alloc.AllocTemp()
	if err != nil {
		return 0, err
	}
	fc.buf.AppendInstruction(runtime.OP_ENUM_NEW_R, byte(dst), byte(base), byte(len(x.Args)), byte(x.VariantIdx))
	return dst, nil
}

// lowerIndex routes to STRING_INDEX_R or ARRAY_GET_R depending on the
// container's resolved kind (spec.md §4.5 Index).
func (fc *funcCompiler) lowerIndex(x *ast.IndexExpr) (int, error) {
	containerReg, err := fc.lowerExpr(x.Container)
	if err != nil {
		return 0, err
	}
	idxReg, err := fc.lowerExpr(x.Index)
	if err != nil {
		return 0, err
	}
	dst, err := fc.alloc.AllocTemp()
	if err != nil {
		return 0, err
	}
	op := runtime.OP_ARRAY_GET_R
	if t := x.Container.ResolvedType(); t != nil && t.Kind == ast.STRING {
		op = runtime.OP_STRING_INDEX_R
	}
	fc.buf.AppendInstruction(op, byte(dst), byte(containerReg), byte(idxReg))
	fc.freeIfTemp(containerReg)
	fc.freeIfTemp(idxReg)
	return dst, nil
}

// lowerSlice synthesizes the default bounds (0 and length) for an omitted
// Lo/Hi before emitting ARRAY_SLICE_R (spec.md §4.5 Array slice).
func (fc *funcCompiler) lowerSlice(x *ast.SliceExpr) (int, error) {
	containerReg, err := fc.lowerExpr(x.Container)
	if err != nil {
		return 0, err
	}
	var loReg, hiReg int
	if x.Lo != nil {
		loReg, err = fc.lowerExpr(x.Lo)
	} else {
		loReg, err = fc.loadI32Const(0)
	}
	if err != nil {
		return 0, err
	}
	if x.Hi != nil {
		hiReg, err = fc.lowerExpr(x.Hi)
	} else {
		hiReg, err = fc.alloc.AllocTemp()
		if err == nil {
			fc.buf.AppendInstruction(runtime.OP_ARRAY_LEN_R, byte(hiReg), byte(containerReg))
		}
	}
	if err != nil {
		return 0, err
	}
	dst, err := fc.alloc.AllocTemp()
	if err != nil {
		return 0, err
	}
	fc.buf.AppendInstruction(runtime.OP_ARRAY_SLICE_R, byte(dst), byte(containerReg), byte(loReg), byte(hiReg))
	fc.freeIfTemp(containerReg)
	fc.freeIfTemp(loReg)
	fc.freeIfTemp(hiReg)
	return dst, nil
}

// lowerUnary handles `not x` and numeric negation, the latter dispatched
// by resolved kind the same way binop.go dispatches binary arithmetic.
func (fc *funcCompiler) lowerUnary(x *ast.UnaryExpr) (int, error) {
	srcReg, err := fc.lowerExpr(x.Operand)
	if err != nil {
		return 0, err
	}
	dst, err := fc.alloc.AllocTemp()
	if err != nil {
		return 0, err
	}
	if x.Op == token.NOT {
		fc.buf.AppendInstruction(runtime.OP_NOT_BOOL, byte(dst), byte(srcReg))
		fc.freeIfTemp(srcReg)
		return dst, nil
	}
	kind := ast.UNKNOWN
	if t := x.Operand.ResolvedType(); t != nil {
		kind = t.Kind
	}
	var op runtime.Opcode
	switch kind {
	case ast.I32:
		op = runtime.OP_NEG_I32
	case ast.I64:
		op = runtime.OP_NEG_I64
	case ast.U32:
		op = runtime.OP_NEG_U32
	case ast.U64:
		op = runtime.OP_NEG_U64
	case ast.F64:
		op = runtime.OP_NEG_F64
	default:
		return 0, fmt.Errorf("codegen: cannot negate operand of kind %s", kind)
	}
	fc.buf.AppendInstruction(op, byte(dst), byte(srcReg))
	fc.freeIfTemp(srcReg)
	return dst, nil
}

// lowerCast emits the cast opcode for Operand's kind to Target, or reuses
// the source register unchanged for a same-kind no-op cast.
func (fc *funcCompiler) lowerCast(x *ast.CastExpr) (int, error) {
	srcReg, err := fc.lowerExpr(x.Operand)
	if err != nil {
		return 0, err
	}
	from := ast.UNKNOWN
	if t := x.Operand.ResolvedType(); t != nil {
		from = t.Kind
	}
	op, needed := castOpcode(from, x.Target.Kind)
	if !needed {
		return srcReg, nil
	}
	dst, err := fc.alloc.AllocTemp()
	if err != nil {
		return 0, err
	}
	fc.buf.AppendInstruction(op, byte(dst), byte(srcReg))
	fc.freeIfTemp(srcReg)
	return dst, nil
}

// lowerMember disambiguates struct field access, module-qualified access,
// and bare enum variant references by MemberKind, filled in by
// lang/typecheck (spec.md §4.5 Member).
func (fc *funcCompiler) lowerMember(x *ast.MemberExpr) (int, error) {
	switch x.MemberKind {
	case ast.FieldMember:
		objReg, err := fc.lowerExpr(x.Object)
		if err != nil {
			return 0, err
		}
		idxReg, err := fc.loadI32Const(int32(x.FieldIndex))
		if err != nil {
			return 0, err
		}
		dst, err := fc.alloc.AllocTemp()
		if err != nil {
			return 0, err
		}
		fc.buf.AppendInstruction(runtime.OP_ARRAY_GET_R, byte(dst), byte(objReg), byte(idxReg))
		fc.freeIfTemp(objReg)
		fc.freeIfTemp(idxReg)
		return dst, nil
	case ast.ModuleMember:
		reg, _, ok := fc.ctx.resolveNamespaceMember(x.ModuleName, x.Name)
		if !ok {
			return 0, fmt.Errorf("codegen: unresolved import %s.%s", x.ModuleName, x.Name)
		}
		return reg, nil
	case ast.EnumVariantMember:
		// Bare reference to a unit variant (no constructor call): build a
		// zero-payload enum value directly.
		dst, err := fc.alloc.AllocTemp()
		if err != nil {
			return 0, err
		}
		fc.buf.AppendInstruction(runtime.OP_ENUM_NEW_R, byte(dst), byte(0), byte(0), byte(enumVariantIdx(x)))
		return dst, nil
	default:
		return 0, fmt.Errorf("codegen: unhandled member kind %v", x.MemberKind)
	}
}

func enumVariantIdx(x *ast.MemberExpr) int {
	// lang/typecheck resolves bare variant references the same way it
	// resolves constructor calls; FieldIndex is reused here to carry the
	// variant index for this member-kind (no payload fields to disambiguate
	// against).
	return x.FieldIndex
}

// lowerCall dispatches builtin emitters, method calls (mangled name plus a
// synthesized leading self argument), and ordinary calls (spec.md §4.5
// Call).
func (fc *funcCompiler) lowerCall(x *ast.CallExpr) (int, error) {
	if x.Builtin != "" {
		return fc.lowerBuiltinCall(x)
	}

	args := x.Args
	extra := 0
	if x.IsMethod {
		extra = 1
	}
	base, err := fc.alloc.AllocConsecutiveTemps(len(args) + extra)
	if err != nil {
		return 0, err
	}
	if x.IsMethod {
		if call, ok := x.Fn.(*ast.MemberExpr); ok {
			selfReg, err := fc.lowerExpr(call.Object)
			if err != nil {
				return 0, err
			}
			fc.emitMove(base, selfReg)
			fc.freeIfTemp(selfReg)
		}
	}
	for i, a := range args {
		reg, err := fc.lowerExpr(a)
		if err != nil {
			return 0, err
		}
		fc.emitMove(base+extra+i, reg)
		fc.freeIfTemp(reg)
	}

	calleeReg, err := fc.lowerCallee(x)
	if err != nil {
		return 0, err
	}
	dst, err := fc.alloc.AllocTemp()
	if err != nil {
		return 0, err
	}
	fc.buf.AppendInstruction(runtime.OP_CALL_R, byte(calleeReg), byte(base), byte(len(args)+extra), byte(dst))
	fc.freeIfTemp(calleeReg)
	return dst, nil
}

// lowerCallee resolves the callee expression to a register holding the
// function value: a mangled "Struct.method" identifier for method calls,
// or the plain callee expression otherwise.
func (fc *funcCompiler) lowerCallee(x *ast.CallExpr) (int, error) {
	if x.MethodOf != "" {
		name := x.MethodOf + "." + calleeName(x.Fn)
		sym, isUpvalue, idx, ok := fc.resolveIdent(name)
		if !ok {
			return 0, fmt.Errorf("codegen: undefined method %q", name)
		}
		if !isUpvalue {
			return sym.Reg, nil
		}
		dst, err := fc.alloc.AllocTemp()
		if err != nil {
			return 0, err
		}
		fc.buf.AppendInstruction(runtime.OP_GET_UPVALUE_R, byte(dst), byte(idx))
		return dst, nil
	}
	return fc.lowerExpr(x.Fn)
}

// kindFromName maps a type-name string (as written in an istype() call)
// to its ast.Kind tag.
func kindFromName(name string) ast.Kind {
	switch name {
	case "i32":
		return ast.I32
	case "i64":
		return ast.I64
	case "u32":
		return ast.U32
	case "u64":
		return ast.U64
	case "f64":
		return ast.F64
	case "bool":
		return ast.BOOL
	case "string":
		return ast.STRING
	case "array":
		return ast.ARRAY
	default:
		return ast.ANY
	}
}

func calleeName(fn ast.Expr) string {
	switch f := fn.(type) {
	case *ast.IdentExpr:
		return f.Name
	case *ast.MemberExpr:
		return f.Name
	default:
		return ""
	}
}

// lowerBuiltinCall emits the dedicated opcode for one of the builtin
// functions spec.md §6 lists (push/pop/len/sorted/range/input/int/float/
// typeof/istype/assert_eq), each with its own fixed argument shape.
func (fc *funcCompiler) lowerBuiltinCall(x *ast.CallExpr) (int, error) {
	// istype's second argument names a type at compile time (e.g.
	// istype(x, "string")); it is never evaluated as a runtime expression.
	valueArgs := x.Args
	var typeTag byte
	if x.Builtin == "istype" && len(x.Args) == 2 {
		valueArgs = x.Args[:1]
		if lit, ok := x.Args[1].(*ast.LiteralExpr); ok && lit.Kind == ast.STRING {
			typeTag = byte(kindFromName(lit.Str))
		}
	}
	argRegs := make([]int, len(valueArgs))
	for i, a := range valueArgs {
		reg, err := fc.lowerExpr(a)
		if err != nil {
			return 0, err
		}
		argRegs[i] = reg
	}
	// push and assert_eq have no result value; they mutate/validate and
	// hand the call expression's register back as the mutated array (push)
	// or a nil placeholder (assert_eq), per spec.md §6.
	switch x.Builtin {
	case "push":
		fc.buf.AppendInstruction(runtime.OP_ARRAY_PUSH_R, byte(argRegs[0]), byte(argRegs[1]))
		fc.freeIfTemp(argRegs[1])
		return argRegs[0], nil
	case "assert_eq":
		fc.buf.AppendInstruction(runtime.OP_ASSERT_EQ_R, byte(argRegs[0]), byte(argRegs[1]))
		fc.freeIfTemp(argRegs[0])
		fc.freeIfTemp(argRegs[1])
		dst, err := fc.alloc.AllocTemp()
		if err != nil {
			return 0, err
		}
		fc.buf.AppendInstruction(runtime.OP_LOAD_NIL, byte(dst))
		return dst, nil
	}

	dst, err := fc.alloc.AllocTemp()
	if err != nil {
		return 0, err
	}
	switch x.Builtin {
	case "pop":
		fc.buf.AppendInstruction(runtime.OP_ARRAY_POP_R, byte(dst), byte(argRegs[0]))
	case "len":
		fc.buf.AppendInstruction(runtime.OP_ARRAY_LEN_R, byte(dst), byte(argRegs[0]))
	case "sorted":
		fc.buf.AppendInstruction(runtime.OP_ARRAY_SORTED_R, byte(dst), byte(argRegs[0]))
	case "range":
		fc.buf.AppendInstruction(runtime.OP_RANGE_R, byte(dst), byte(argRegs[0]), byte(argRegs[1]))
	case "input":
		fc.buf.AppendInstruction(runtime.OP_INPUT_R, byte(dst))
	case "int":
		fc.buf.AppendInstruction(runtime.OP_PARSE_INT_R, byte(dst), byte(argRegs[0]))
	case "float":
		fc.buf.AppendInstruction(runtime.OP_PARSE_FLOAT_R, byte(dst), byte(argRegs[0]))
	case "typeof":
		fc.buf.AppendInstruction(runtime.OP_TYPE_OF_R, byte(dst), byte(argRegs[0]))
	case "istype":
		fc.buf.AppendInstruction(runtime.OP_IS_TYPE_R, byte(dst), byte(argRegs[0]), typeTag)
	case "timestamp":
		fc.buf.AppendInstruction(runtime.OP_TIME_STAMP, byte(dst))
	default:
		return 0, fmt.Errorf("codegen: unknown builtin %q", x.Builtin)
	}
	for _, r := range argRegs {
		fc.freeIfTemp(r)
	}
	return dst, nil
}
