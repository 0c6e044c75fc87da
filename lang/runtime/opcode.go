// Package runtime holds the vocabulary shared between lang/codegen and the
// VM it targets: the opcode set, the tagged runtime Value, and the
// finalised Chunk/FunctionTable shapes spec.md §4.12 describes codegen
// materialising into. The production VM is an external collaborator
// (spec.md §1); this package fixes the contract both sides agree on, the
// way the teacher's lang/machine/opcode.go fixes the opcode set its
// compiler and its own interpreter share, and also carries a small
// interpreter of its own (Interp, in interp.go).
package runtime

import "fmt"

// Opcode identifies one bytecode instruction. Every opcode's trailing
// operand bytes are described by its Shape (see shapes below); the
// register-based model means most operands are bare register numbers
// (one byte each, since there are only 256 registers).
type Opcode uint8

const ( //nolint:revive
	OP_NOP Opcode = iota

	// constant and value loaders (dst [, const16])
	OP_LOAD_NIL
	OP_LOAD_TRUE
	OP_LOAD_FALSE
	OP_LOAD_I32_CONST
	OP_LOAD_I64_CONST
	OP_LOAD_U32_CONST
	OP_LOAD_U64_CONST
	OP_LOAD_F64_CONST
	OP_LOAD_CONST // generic: string, array, struct, enum, function, closure

	OP_MOVE // dst, src

	// typed arithmetic and comparison (dst, a, b); order must match the
	// kind-suffix order used by the binary-op selector's promotion table.
	OP_ADD_I32
	OP_SUB_I32
	OP_MUL_I32
	OP_DIV_I32
	OP_MOD_I32
	OP_LT_I32
	OP_GT_I32
	OP_LE_I32
	OP_GE_I32

	OP_ADD_I64
	OP_SUB_I64
	OP_MUL_I64
	OP_DIV_I64
	OP_MOD_I64
	OP_LT_I64
	OP_GT_I64
	OP_LE_I64
	OP_GE_I64

	OP_ADD_U32
	OP_SUB_U32
	OP_MUL_U32
	OP_DIV_U32
	OP_MOD_U32
	OP_LT_U32
	OP_GT_U32
	OP_LE_U32
	OP_GE_U32

	OP_ADD_U64
	OP_SUB_U64
	OP_MUL_U64
	OP_DIV_U64
	OP_MOD_U64
	OP_LT_U64
	OP_GT_U64
	OP_LE_U64
	OP_GE_U64

	OP_ADD_F64
	OP_SUB_F64
	OP_MUL_F64
	OP_DIV_F64
	OP_MOD_F64
	OP_LT_F64
	OP_GT_F64
	OP_LE_F64
	OP_GE_F64

	// polymorphic equality, boxed-fallback arithmetic (dst, a, b)
	OP_EQ
	OP_NE
	OP_ADD_I32_R // also the string-concat path: HEAP operands route here

	// boolean ops
	OP_AND      // dst, a, b
	OP_OR       // dst, a, b
	OP_NOT_BOOL // dst, src

	// unary negation, one per numeric kind (dst, src)
	OP_NEG_I32
	OP_NEG_I64
	OP_NEG_U32
	OP_NEG_U64
	OP_NEG_F64

	// numeric casts, full cross product minus same-kind no-ops (dst, src)
	OP_CAST_I32_I64
	OP_CAST_I32_U32
	OP_CAST_I32_U64
	OP_CAST_I32_F64
	OP_CAST_I64_I32
	OP_CAST_I64_U32
	OP_CAST_I64_U64
	OP_CAST_I64_F64
	OP_CAST_U32_I32
	OP_CAST_U32_I64
	OP_CAST_U32_U64
	OP_CAST_U32_F64
	OP_CAST_U64_I32
	OP_CAST_U64_I64
	OP_CAST_U64_U32
	OP_CAST_U64_F64
	OP_CAST_F64_I32
	OP_CAST_F64_I64
	OP_CAST_F64_U32
	OP_CAST_F64_U64

	// fast paths the control-flow engine and statement lowerer reach for
	OP_INC_I32      // reg: reg += 1 in place
	OP_ADD_I32_IMM  // dst, src, imm8: dst = src + imm8

	// fused loop step (loopvar, limit, back-jump offset16)
	OP_INC_CMP_JMP

	// jumps (all relative to the instruction following the jump)
	OP_JUMP           // offset16
	OP_JUMP_SHORT     // offset8
	OP_JUMP_IF_NOT_R  // cond, offset16
	OP_LOOP_SHORT     // offset8, backward

	// calls and returns
	OP_CALL_R      // callee, first_arg, argc, result
	OP_RETURN_R    // src
	OP_RETURN_VOID //

	// upvalues
	OP_GET_UPVALUE_R // dst, idx8
	OP_SET_UPVALUE_R // idx8, src

	// arrays, boxed-array struct representation (spec.md §9)
	OP_MAKE_ARRAY_R  // dst, base, count
	OP_ARRAY_GET_R   // dst, arr, idx
	OP_ARRAY_SET_R   // arr, idx, val
	OP_ARRAY_LEN_R   // dst, arr
	OP_ARRAY_PUSH_R  // arr, val
	OP_ARRAY_POP_R   // dst, arr
	OP_ARRAY_SLICE_R // dst, arr, lo, hi
	OP_ARRAY_SORTED_R // dst, arr

	OP_STRING_INDEX_R // dst, str, idx

	// enums
	OP_ENUM_NEW_R     // dst, base, count, variant8
	OP_ENUM_TAG_EQ_R  // dst, enumreg, variant8
	OP_ENUM_PAYLOAD_R // dst, enumreg, idx8

	// iteration
	OP_GET_ITER_R  // dst, src
	OP_ITER_NEXT_R // valdst, hasvaldst, iter
	OP_RANGE_R     // dst, lo, hi

	// output
	OP_PRINT_R       // src
	OP_PRINT_MULTI_R // base, count

	// builtins with a dedicated opcode
	OP_TIME_STAMP   // dst
	OP_TRY_BEGIN    // catch_reg8, handler_offset16
	OP_TRY_END      //
	OP_THROW        // src
	OP_INPUT_R      // dst
	OP_PARSE_INT_R  // dst, src
	OP_PARSE_FLOAT_R // dst, src
	OP_TYPE_OF_R    // dst, src
	OP_IS_TYPE_R    // dst, src, typetag8
	OP_ASSERT_EQ_R  // a, b

	OP_HALT

	opcodeCount
)

var opcodeNames = [opcodeCount]string{
	OP_NOP:            "nop",
	OP_LOAD_NIL:       "load_nil",
	OP_LOAD_TRUE:      "load_true",
	OP_LOAD_FALSE:     "load_false",
	OP_LOAD_I32_CONST: "load_i32_const",
	OP_LOAD_I64_CONST: "load_i64_const",
	OP_LOAD_U32_CONST: "load_u32_const",
	OP_LOAD_U64_CONST: "load_u64_const",
	OP_LOAD_F64_CONST: "load_f64_const",
	OP_LOAD_CONST:     "load_const",
	OP_MOVE:           "move",

	OP_ADD_I32: "add_i32", OP_SUB_I32: "sub_i32", OP_MUL_I32: "mul_i32", OP_DIV_I32: "div_i32", OP_MOD_I32: "mod_i32",
	OP_LT_I32: "lt_i32", OP_GT_I32: "gt_i32", OP_LE_I32: "le_i32", OP_GE_I32: "ge_i32",

	OP_ADD_I64: "add_i64", OP_SUB_I64: "sub_i64", OP_MUL_I64: "mul_i64", OP_DIV_I64: "div_i64", OP_MOD_I64: "mod_i64",
	OP_LT_I64: "lt_i64", OP_GT_I64: "gt_i64", OP_LE_I64: "le_i64", OP_GE_I64: "ge_i64",

	OP_ADD_U32: "add_u32", OP_SUB_U32: "sub_u32", OP_MUL_U32: "mul_u32", OP_DIV_U32: "div_u32", OP_MOD_U32: "mod_u32",
	OP_LT_U32: "lt_u32", OP_GT_U32: "gt_u32", OP_LE_U32: "le_u32", OP_GE_U32: "ge_u32",

	OP_ADD_U64: "add_u64", OP_SUB_U64: "sub_u64", OP_MUL_U64: "mul_u64", OP_DIV_U64: "div_u64", OP_MOD_U64: "mod_u64",
	OP_LT_U64: "lt_u64", OP_GT_U64: "gt_u64", OP_LE_U64: "le_u64", OP_GE_U64: "ge_u64",

	OP_ADD_F64: "add_f64", OP_SUB_F64: "sub_f64", OP_MUL_F64: "mul_f64", OP_DIV_F64: "div_f64", OP_MOD_F64: "mod_f64",
	OP_LT_F64: "lt_f64", OP_GT_F64: "gt_f64", OP_LE_F64: "le_f64", OP_GE_F64: "ge_f64",

	OP_EQ: "eq", OP_NE: "ne", OP_ADD_I32_R: "add_i32_r",

	OP_AND: "and", OP_OR: "or", OP_NOT_BOOL: "not_bool",

	OP_NEG_I32: "neg_i32", OP_NEG_I64: "neg_i64", OP_NEG_U32: "neg_u32", OP_NEG_U64: "neg_u64", OP_NEG_F64: "neg_f64",

	OP_CAST_I32_I64: "cast_i32_i64", OP_CAST_I32_U32: "cast_i32_u32", OP_CAST_I32_U64: "cast_i32_u64", OP_CAST_I32_F64: "cast_i32_f64",
	OP_CAST_I64_I32: "cast_i64_i32", OP_CAST_I64_U32: "cast_i64_u32", OP_CAST_I64_U64: "cast_i64_u64", OP_CAST_I64_F64: "cast_i64_f64",
	OP_CAST_U32_I32: "cast_u32_i32", OP_CAST_U32_I64: "cast_u32_i64", OP_CAST_U32_U64: "cast_u32_u64", OP_CAST_U32_F64: "cast_u32_f64",
	OP_CAST_U64_I32: "cast_u64_i32", OP_CAST_U64_I64: "cast_u64_i64", OP_CAST_U64_U32: "cast_u64_u32", OP_CAST_U64_F64: "cast_u64_f64",
	OP_CAST_F64_I32: "cast_f64_i32", OP_CAST_F64_I64: "cast_f64_i64", OP_CAST_F64_U32: "cast_f64_u32", OP_CAST_F64_U64: "cast_f64_u64",

	OP_INC_I32: "inc_i32", OP_ADD_I32_IMM: "add_i32_imm", OP_INC_CMP_JMP: "inc_cmp_jmp",

	OP_JUMP: "jump", OP_JUMP_SHORT: "jump_short", OP_JUMP_IF_NOT_R: "jump_if_not_r", OP_LOOP_SHORT: "loop_short",

	OP_CALL_R: "call_r", OP_RETURN_R: "return_r", OP_RETURN_VOID: "return_void",

	OP_GET_UPVALUE_R: "get_upvalue_r", OP_SET_UPVALUE_R: "set_upvalue_r",

	OP_MAKE_ARRAY_R: "make_array_r", OP_ARRAY_GET_R: "array_get_r", OP_ARRAY_SET_R: "array_set_r",
	OP_ARRAY_LEN_R: "array_len_r", OP_ARRAY_PUSH_R: "array_push_r", OP_ARRAY_POP_R: "array_pop_r",
	OP_ARRAY_SLICE_R: "array_slice_r", OP_ARRAY_SORTED_R: "array_sorted_r",

	OP_STRING_INDEX_R: "string_index_r",

	OP_ENUM_NEW_R: "enum_new_r", OP_ENUM_TAG_EQ_R: "enum_tag_eq_r", OP_ENUM_PAYLOAD_R: "enum_payload_r",

	OP_GET_ITER_R: "get_iter_r", OP_ITER_NEXT_R: "iter_next_r", OP_RANGE_R: "range_r",

	OP_PRINT_R: "print_r", OP_PRINT_MULTI_R: "print_multi_r",

	OP_TIME_STAMP: "time_stamp", OP_TRY_BEGIN: "try_begin", OP_TRY_END: "try_end", OP_THROW: "throw",
	OP_INPUT_R: "input_r", OP_PARSE_INT_R: "parse_int_r", OP_PARSE_FLOAT_R: "parse_float_r",
	OP_TYPE_OF_R: "type_of_r", OP_IS_TYPE_R: "is_type_r", OP_ASSERT_EQ_R: "assert_eq_r",

	OP_HALT: "halt",
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) && opcodeNames[op] != "" {
		return opcodeNames[op]
	}
	return fmt.Sprintf("illegal op (%d)", op)
}

// Shape describes an opcode's trailing operand bytes: a count of bare
// register-number bytes, plus optional 8-bit and 16-bit immediates (used
// for small tags/counts and for constant/jump offsets respectively).
// lang/codegen's bytecode buffer (C1) uses this to size append_instruction
// calls and to choose short vs wide jump encodings; a disassembler uses it
// to know how many bytes follow a given opcode.
type Shape struct {
	Regs  int
	Imm8  bool
	Imm16 bool
}

// Size returns the total instruction length in bytes, including the
// leading opcode byte.
func (s Shape) Size() int {
	n := 1 + s.Regs
	if s.Imm8 {
		n++
	}
	if s.Imm16 {
		n += 2
	}
	return n
}

var shapes = [opcodeCount]Shape{
	OP_NOP: {},

	OP_LOAD_NIL: {Regs: 1}, OP_LOAD_TRUE: {Regs: 1}, OP_LOAD_FALSE: {Regs: 1},
	OP_LOAD_I32_CONST: {Regs: 1, Imm16: true}, OP_LOAD_I64_CONST: {Regs: 1, Imm16: true},
	OP_LOAD_U32_CONST: {Regs: 1, Imm16: true}, OP_LOAD_U64_CONST: {Regs: 1, Imm16: true},
	OP_LOAD_F64_CONST: {Regs: 1, Imm16: true}, OP_LOAD_CONST: {Regs: 1, Imm16: true},

	OP_MOVE: {Regs: 2},

	OP_EQ: {Regs: 3}, OP_NE: {Regs: 3}, OP_ADD_I32_R: {Regs: 3},
	OP_AND: {Regs: 3}, OP_OR: {Regs: 3}, OP_NOT_BOOL: {Regs: 2},

	OP_INC_I32:     {Regs: 1},
	OP_ADD_I32_IMM: {Regs: 2, Imm8: true},
	OP_INC_CMP_JMP: {Regs: 2, Imm16: true},

	OP_JUMP: {Imm16: true}, OP_JUMP_SHORT: {Imm8: true},
	OP_JUMP_IF_NOT_R: {Regs: 1, Imm16: true}, OP_LOOP_SHORT: {Imm8: true},

	OP_CALL_R: {Regs: 4}, OP_RETURN_R: {Regs: 1}, OP_RETURN_VOID: {},

	OP_GET_UPVALUE_R: {Regs: 1, Imm8: true}, OP_SET_UPVALUE_R: {Regs: 1, Imm8: true},

	OP_MAKE_ARRAY_R: {Regs: 3}, OP_ARRAY_GET_R: {Regs: 3}, OP_ARRAY_SET_R: {Regs: 3},
	OP_ARRAY_LEN_R: {Regs: 2}, OP_ARRAY_PUSH_R: {Regs: 2}, OP_ARRAY_POP_R: {Regs: 2},
	OP_ARRAY_SLICE_R: {Regs: 4}, OP_ARRAY_SORTED_R: {Regs: 2},

	OP_STRING_INDEX_R: {Regs: 3},

	OP_ENUM_NEW_R: {Regs: 3, Imm8: true}, OP_ENUM_TAG_EQ_R: {Regs: 2, Imm8: true}, OP_ENUM_PAYLOAD_R: {Regs: 2, Imm8: true},

	OP_GET_ITER_R: {Regs: 2}, OP_ITER_NEXT_R: {Regs: 3}, OP_RANGE_R: {Regs: 3},

	OP_PRINT_R: {Regs: 1}, OP_PRINT_MULTI_R: {Regs: 2},

	OP_TIME_STAMP: {Regs: 1}, OP_TRY_BEGIN: {Imm8: true, Imm16: true}, OP_TRY_END: {}, OP_THROW: {Regs: 1},
	OP_INPUT_R: {Regs: 1}, OP_PARSE_INT_R: {Regs: 2}, OP_PARSE_FLOAT_R: {Regs: 2},
	OP_TYPE_OF_R: {Regs: 2}, OP_IS_TYPE_R: {Regs: 2, Imm8: true}, OP_ASSERT_EQ_R: {Regs: 2},

	OP_HALT: {},
}

// OpShape returns op's operand Shape. The typed arithmetic/comparison
// opcodes and the unary/cast opcodes are not listed individually in the
// shapes table above since they all share one of two uniform shapes:
// dst,a,b for binary, dst,src for unary/cast.
func OpShape(op Opcode) Shape {
	switch {
	case isBinaryArith(op):
		return Shape{Regs: 3}
	case isUnaryOrCast(op):
		return Shape{Regs: 2}
	default:
		return shapes[op]
	}
}

func isBinaryArith(op Opcode) bool {
	return op >= OP_ADD_I32 && op <= OP_GE_F64
}

func isUnaryOrCast(op Opcode) bool {
	return op >= OP_NEG_I32 && op <= OP_CAST_F64_U64
}
