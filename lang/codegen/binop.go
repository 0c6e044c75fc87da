package codegen

import (
	"fmt"

	"github.com/mna/orus/lang/ast"
	"github.com/mna/orus/lang/runtime"
	"github.com/mna/orus/lang/token"
)

// promote implements the promotion table of spec.md §4.8 step 3, the real
// (non-placeholder) computation: lang/typecheck's own promote() is a
// best-effort stand-in an enclosing expression can chain off of during
// inference; this is the version that actually drives opcode selection.
func promote(a, b ast.Kind) ast.Kind {
	if a == b {
		return a
	}
	switch {
	case a == ast.I32 && b == ast.I64, a == ast.I64 && b == ast.I32:
		return ast.I64
	case a == ast.U32 && b == ast.U64, a == ast.U64 && b == ast.U32:
		return ast.U64
	case a == ast.I32 && b == ast.U32, a == ast.U32 && b == ast.I32:
		return ast.U32
	case a == ast.F64 || b == ast.F64:
		return ast.F64
	}
	return maxKind(a, b)
}

func rank(k ast.Kind) int {
	switch k {
	case ast.I32:
		return 0
	case ast.U32:
		return 1
	case ast.I64:
		return 2
	case ast.U64:
		return 3
	case ast.F64:
		return 4
	}
	return -1
}

func maxKind(a, b ast.Kind) ast.Kind {
	if rank(a) >= rank(b) {
		return a
	}
	return b
}

// castOpcode returns the cast opcode moving a value of kind from to kind
// to, or false if from == to (a same-type cast is a no-op, spec.md §4.5).
func castOpcode(from, to ast.Kind) (runtime.Opcode, bool) {
	if from == to {
		return 0, false
	}
	key := [2]ast.Kind{from, to}
	op, ok := castOpcodes[key]
	return op, ok
}

var castOpcodes = map[[2]ast.Kind]runtime.Opcode{
	{ast.I32, ast.I64}: runtime.OP_CAST_I32_I64,
	{ast.I32, ast.U32}: runtime.OP_CAST_I32_U32,
	{ast.I32, ast.U64}: runtime.OP_CAST_I32_U64,
	{ast.I32, ast.F64}: runtime.OP_CAST_I32_F64,
	{ast.I64, ast.I32}: runtime.OP_CAST_I64_I32,
	{ast.I64, ast.U32}: runtime.OP_CAST_I64_U32,
	{ast.I64, ast.U64}: runtime.OP_CAST_I64_U64,
	{ast.I64, ast.F64}: runtime.OP_CAST_I64_F64,
	{ast.U32, ast.I32}: runtime.OP_CAST_U32_I32,
	{ast.U32, ast.I64}: runtime.OP_CAST_U32_I64,
	{ast.U32, ast.U64}: runtime.OP_CAST_U32_U64,
	{ast.U32, ast.F64}: runtime.OP_CAST_U32_F64,
	{ast.U64, ast.I32}: runtime.OP_CAST_U64_I32,
	{ast.U64, ast.I64}: runtime.OP_CAST_U64_I64,
	{ast.U64, ast.U32}: runtime.OP_CAST_U64_U32,
	{ast.U64, ast.F64}: runtime.OP_CAST_U64_F64,
	{ast.F64, ast.I32}: runtime.OP_CAST_F64_I32,
	{ast.F64, ast.I64}: runtime.OP_CAST_F64_I64,
	{ast.F64, ast.U32}: runtime.OP_CAST_F64_U32,
	{ast.F64, ast.U64}: runtime.OP_CAST_F64_U64,
}

// binOpcodes maps (operator, operand kind) to the type-specialised
// arithmetic/comparison opcode (spec.md §4.8 step 5).
var binOpcodes = map[token.Token]map[ast.Kind]runtime.Opcode{
	token.PLUS:    {ast.I32: runtime.OP_ADD_I32, ast.I64: runtime.OP_ADD_I64, ast.U32: runtime.OP_ADD_U32, ast.U64: runtime.OP_ADD_U64, ast.F64: runtime.OP_ADD_F64},
	token.MINUS:   {ast.I32: runtime.OP_SUB_I32, ast.I64: runtime.OP_SUB_I64, ast.U32: runtime.OP_SUB_U32, ast.U64: runtime.OP_SUB_U64, ast.F64: runtime.OP_SUB_F64},
	token.STAR:    {ast.I32: runtime.OP_MUL_I32, ast.I64: runtime.OP_MUL_I64, ast.U32: runtime.OP_MUL_U32, ast.U64: runtime.OP_MUL_U64, ast.F64: runtime.OP_MUL_F64},
	token.SLASH:   {ast.I32: runtime.OP_DIV_I32, ast.I64: runtime.OP_DIV_I64, ast.U32: runtime.OP_DIV_U32, ast.U64: runtime.OP_DIV_U64, ast.F64: runtime.OP_DIV_F64},
	token.PERCENT: {ast.I32: runtime.OP_MOD_I32, ast.I64: runtime.OP_MOD_I64, ast.U32: runtime.OP_MOD_U32, ast.U64: runtime.OP_MOD_U64, ast.F64: runtime.OP_MOD_F64},
	token.LT:      {ast.I32: runtime.OP_LT_I32, ast.I64: runtime.OP_LT_I64, ast.U32: runtime.OP_LT_U32, ast.U64: runtime.OP_LT_U64, ast.F64: runtime.OP_LT_F64},
	token.GT:      {ast.I32: runtime.OP_GT_I32, ast.I64: runtime.OP_GT_I64, ast.U32: runtime.OP_GT_U32, ast.U64: runtime.OP_GT_U64, ast.F64: runtime.OP_GT_F64},
	token.LE:      {ast.I32: runtime.OP_LE_I32, ast.I64: runtime.OP_LE_I64, ast.U32: runtime.OP_LE_U32, ast.U64: runtime.OP_LE_U64, ast.F64: runtime.OP_LE_F64},
	token.GE:      {ast.I32: runtime.OP_GE_I32, ast.I64: runtime.OP_GE_I64, ast.U32: runtime.OP_GE_U32, ast.U64: runtime.OP_GE_U64, ast.F64: runtime.OP_GE_F64},
}

// lowerBinary implements the full binary-op selector & coercer procedure
// of spec.md §4.8, returning the register holding the result.
func (fc *funcCompiler) lowerBinary(x *ast.BinaryExpr) (int, error) {
	leftReg, leftKind, err := fc.lowerOperandPreserved(x.Left)
	if err != nil {
		return 0, err
	}
	rightReg, rightKind, err := fc.lowerExprTyped(x.Right)
	if err != nil {
		fc.freeIfTemp(leftReg)
		return 0, err
	}

	if x.Op.IsBoolLogic() {
		return fc.lowerBoolOp(x.Op, leftReg, rightReg)
	}

	// Heap (string) operands: '+' is concatenation via the boxed ADD_I32_R
	// path the VM handles as string concatenation; equality uses the
	// polymorphic opcodes (spec.md end-to-end scenario 6).
	if leftKind.IsHeap() || rightKind.IsHeap() {
		return fc.lowerHeapOrFallbackOp(x.Op, leftReg, rightReg)
	}

	promoted := promote(leftKind, rightKind)
	leftReg, err = fc.coerce(leftReg, leftKind, promoted)
	if err != nil {
		return 0, err
	}
	rightReg, err = fc.coerce(rightReg, rightKind, promoted)
	if err != nil {
		return 0, err
	}

	return fc.dispatchNumeric(x.Op, promoted, leftReg, rightReg)
}

// lowerOperandPreserved compiles e into a register that survives a
// subsequent call compiling the other operand: spec.md §4.5's edge case
// requires the left operand of a binary node be rescued into a dedicated
// register before the right operand (which may itself be a call) is
// evaluated, so a callee that reuses temp registers can't clobber it.
func (fc *funcCompiler) lowerOperandPreserved(e ast.Expr) (int, ast.Kind, error) {
	reg, kind, err := fc.lowerExprTyped(e)
	if err != nil {
		return 0, ast.UNKNOWN, err
	}
	if _, isCall := e.(*ast.CallExpr); !isCall {
		return reg, kind, nil
	}
	preserved, err := fc.alloc.AllocTemp()
	if err != nil {
		return 0, ast.UNKNOWN, err
	}
	fc.emitMove(preserved, reg)
	fc.freeIfTemp(reg)
	return preserved, kind, nil
}

// coerce emits a cast from reg (of kind from) to the promoted kind if
// needed, returning the register holding a value of kind to. Non-numeric
// or already-matching operands are returned unchanged.
func (fc *funcCompiler) coerce(reg int, from, to ast.Kind) (int, error) {
	op, needed := castOpcode(from, to)
	if !needed {
		return reg, nil
	}
	dst, err := fc.alloc.AllocTemp()
	if err != nil {
		return 0, err
	}
	fc.buf.AppendInstruction(op, byte(dst), byte(reg))
	fc.freeIfTemp(reg)
	return dst, nil
}

// dispatchNumeric emits the type-specialised opcode for op at the
// promoted kind, or falls back to the I32 variant of op (spec.md §4.8
// step 6; the boxed ADD_I32_R for `+`) if no specialised opcode exists
// for this combination.
func (fc *funcCompiler) dispatchNumeric(op token.Token, kind ast.Kind, a, b int) (int, error) {
	dst, err := fc.alloc.AllocTemp()
	if err != nil {
		return 0, err
	}
	if op == token.EQ || op == token.NEQ {
		rop := runtime.OP_EQ
		if op == token.NEQ {
			rop = runtime.OP_NE
		}
		fc.buf.AppendInstruction(rop, byte(dst), byte(a), byte(b))
		fc.freeIfTemp(a)
		fc.freeIfTemp(b)
		return dst, nil
	}
	byKind, ok := binOpcodes[op]
	if !ok {
		return 0, fmt.Errorf("codegen: unsupported binary operator %v", op)
	}
	rop, ok := byKind[kind]
	if !ok {
		rop = byKind[ast.I32]
		if op == token.PLUS {
			rop = runtime.OP_ADD_I32_R
		}
	}
	fc.buf.AppendInstruction(rop, byte(dst), byte(a), byte(b))
	fc.freeIfTemp(a)
	fc.freeIfTemp(b)
	return dst, nil
}

// lowerBoolOp handles `and`/`or` plus ==/!= over BOOL operands.
func (fc *funcCompiler) lowerBoolOp(op token.Token, a, b int) (int, error) {
	dst, err := fc.alloc.AllocTemp()
	if err != nil {
		return 0, err
	}
	var rop runtime.Opcode
	switch op {
	case token.AND:
		rop = runtime.OP_AND
	case token.OR:
		rop = runtime.OP_OR
	case token.EQ:
		rop = runtime.OP_EQ
	case token.NEQ:
		rop = runtime.OP_NE
	default:
		return 0, fmt.Errorf("codegen: unsupported boolean operator %v", op)
	}
	fc.buf.AppendInstruction(rop, byte(dst), byte(a), byte(b))
	fc.freeIfTemp(a)
	fc.freeIfTemp(b)
	return dst, nil
}

// lowerHeapOrFallbackOp handles '+' (string concatenation, routed through
// the boxed ADD_I32_R the VM treats specially for HEAP operands) and the
// polymorphic EQ/NE, per spec.md §4.8 step 5 and end-to-end scenario 6.
func (fc *funcCompiler) lowerHeapOrFallbackOp(op token.Token, a, b int) (int, error) {
	dst, err := fc.alloc.AllocTemp()
	if err != nil {
		return 0, err
	}
	var rop runtime.Opcode
	switch op {
	case token.PLUS:
		rop = runtime.OP_ADD_I32_R
	case token.EQ:
		rop = runtime.OP_EQ
	case token.NEQ:
		rop = runtime.OP_NE
	default:
		return 0, fmt.Errorf("codegen: unsupported heap operator %v", op)
	}
	fc.buf.AppendInstruction(rop, byte(dst), byte(a), byte(b))
	fc.freeIfTemp(a)
	fc.freeIfTemp(b)
	return dst, nil
}
