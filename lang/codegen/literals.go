package codegen

import (
	"github.com/mna/orus/lang/ast"
	"github.com/mna/orus/lang/runtime"
	"github.com/mna/orus/lang/token"
)

// lowerLiteral implements spec.md §4.5's literal/constant emitter (C5):
// booleans get dedicated zero-operand loaders, small integers and
// everything else route through the constant pool.
func (fc *funcCompiler) lowerLiteral(lit *ast.LiteralExpr) (int, error) {
	dst, err := fc.alloc.AllocTemp()
	if err != nil {
		return 0, err
	}
	switch lit.Kind {
	case ast.BOOL:
		if lit.Bool {
			fc.buf.AppendInstruction(runtime.OP_LOAD_TRUE, byte(dst))
		} else {
			fc.buf.AppendInstruction(runtime.OP_LOAD_FALSE, byte(dst))
		}
		return dst, nil
	case ast.I32:
		fc.emitConst(dst, runtime.OP_LOAD_I32_CONST, runtime.NewI32(int32(lit.Int)))
		return dst, nil
	case ast.I64:
		fc.emitConst(dst, runtime.OP_LOAD_I64_CONST, runtime.NewI64(lit.Int))
		return dst, nil
	case ast.U32:
		fc.emitConst(dst, runtime.OP_LOAD_U32_CONST, runtime.NewU32(uint32(lit.Int)))
		return dst, nil
	case ast.U64:
		fc.emitConst(dst, runtime.OP_LOAD_U64_CONST, runtime.NewU64(uint64(lit.Int)))
		return dst, nil
	case ast.F64:
		fc.emitConst(dst, runtime.OP_LOAD_F64_CONST, runtime.NewF64(lit.Float))
		return dst, nil
	case ast.STRING:
		fc.emitConst(dst, runtime.OP_LOAD_CONST, runtime.NewString(lit.Str))
		return dst, nil
	default:
		fc.buf.AppendInstruction(runtime.OP_LOAD_NIL, byte(dst))
		return dst, nil
	}
}

// emitConst interns v and emits op(dst, const16). Every typed numeric
// loader shares this same dst-plus-16-bit-index shape (see opcode.go's
// shapes table), only the opcode and value differ.
func (fc *funcCompiler) emitConst(dst int, op runtime.Opcode, v runtime.Value) {
	idx, err := fc.ctx.constants.Intern(v)
	if err != nil {
		fc.ctx.errorf(token.Position{}, "E2001", "%s", err)
		return
	}
	fc.buf.AppendInstruction(op, byte(dst))
	fc.buf.AppendImm16(idx)
}
