package codegen

import (
	"fmt"

	"github.com/mna/orus/lang/ast"
	"github.com/mna/orus/lang/runtime"
)

// lowerMatch implements spec.md §4.9's match expression: the subject is
// evaluated once, each arm tests it in turn (literal equality via OP_EQ,
// enum-tag equality via OP_ENUM_TAG_EQ_R, or no test at all for a
// wildcard), and every arm's body converges into one result register.
// Duplicate literal patterns within the same match (spec.md §8 testable
// property 6) are a compile error rather than silently shadowed.
func (fc *funcCompiler) lowerMatch(x *ast.MatchExpr) (int, error) {
	subjectReg, err := fc.lowerExpr(x.Subject)
	if err != nil {
		return 0, err
	}
	resultReg, err := fc.alloc.AllocTemp()
	if err != nil {
		return 0, err
	}

	seenLiterals := make(map[string]bool, len(x.Arms))
	pendingJump := -1
	var endJumps []int

	for i, arm := range x.Arms {
		if pendingJump != -1 {
			if err := fc.buf.Patch(pendingJump, fc.buf.CurrentOffset()); err != nil {
				fc.ctx.errorf(posOf(x), "E7006", "%s", err)
			}
			pendingJump = -1
		}
		isLast := i == len(x.Arms)-1

		switch {
		case arm.Literal != nil:
			key := literalKey(arm.Literal)
			if seenLiterals[key] {
				fc.ctx.errorf(posOf(x), "E7001", "duplicate match pattern %s", key)
			}
			seenLiterals[key] = true

			litReg, err := fc.lowerLiteral(arm.Literal)
			if err != nil {
				return 0, err
			}
			condReg, err := fc.alloc.AllocTemp()
			if err != nil {
				return 0, err
			}
			fc.buf.AppendInstruction(runtime.OP_EQ, byte(condReg), byte(subjectReg), byte(litReg))
			fc.freeIfTemp(litReg)
			pendingJump = fc.buf.ReserveJump(runtime.OP_JUMP_IF_NOT_R, byte(condReg))
			fc.freeIfTemp(condReg)

		case arm.Wildcard:
			// No test: always matches. Only meaningful as the final arm;
			// lang/typecheck is responsible for rejecting unreachable arms
			// after a wildcard.

		default:
			// Enum-tag pattern.
			condReg, err := fc.alloc.AllocTemp()
			if err != nil {
				return 0, err
			}
			fc.buf.AppendInstruction(runtime.OP_ENUM_TAG_EQ_R, byte(condReg), byte(subjectReg), byte(arm.VariantIdx))
			pendingJump = fc.buf.ReserveJump(runtime.OP_JUMP_IF_NOT_R, byte(condReg))
			fc.freeIfTemp(condReg)
		}

		fc.ctx.syms.EnterScope()
		fc.alloc.EnterScope()
		for j, name := range arm.Binds {
			payloadReg, err := fc.alloc.AllocFrame()
			if err != nil {
				return 0, err
			}
			fc.buf.AppendInstruction(runtime.OP_ENUM_PAYLOAD_R, byte(payloadReg), byte(subjectReg), byte(j))
			var typ *ast.Type
			if j < len(arm.BindTypes) {
				typ = arm.BindTypes[j]
			} else {
				typ = ast.Simple(ast.ANY)
			}
			if _, err := fc.ctx.syms.Declare(name, typ, false, payloadReg, lineOf(x), true); err != nil {
				fc.ctx.errorf(posOf(x), "E1001", "%s", err)
			}
		}

		bodyReg, err := fc.lowerExpr(arm.Body)
		if err != nil {
			fc.ctx.syms.LeaveScope()
			fc.alloc.ExitScope()
			return 0, err
		}
		fc.emitMove(resultReg, bodyReg)
		fc.freeIfTemp(bodyReg)
		fc.ctx.syms.LeaveScope()
		fc.alloc.ExitScope()

		if !isLast || pendingJump != -1 {
			endJumps = append(endJumps, fc.buf.ReserveJump(runtime.OP_JUMP))
		}
	}

	if pendingJump != -1 {
		// The last arm was itself a tested pattern with no wildcard fallback:
		// a non-matching subject falls through to a nil result rather than
		// an unpatched jump (lang/typecheck is expected to flag non-exhaustive
		// matches before codegen is reached, but codegen itself stays safe).
		if err := fc.buf.Patch(pendingJump, fc.buf.CurrentOffset()); err != nil {
			fc.ctx.errorf(posOf(x), "E7006", "%s", err)
		}
		fc.buf.AppendInstruction(runtime.OP_LOAD_NIL, byte(resultReg))
	}
	for _, idx := range endJumps {
		if err := fc.buf.Patch(idx, fc.buf.CurrentOffset()); err != nil {
			fc.ctx.errorf(posOf(x), "E7006", "%s", err)
		}
	}

	fc.freeIfTemp(subjectReg)
	return resultReg, nil
}

// literalKey returns a canonical string identifying lit's value, used to
// detect duplicate match patterns regardless of kind.
func literalKey(lit *ast.LiteralExpr) string {
	switch lit.Kind {
	case ast.BOOL:
		return fmt.Sprintf("bool:%v", lit.Bool)
	case ast.STRING:
		return fmt.Sprintf("string:%q", lit.Str)
	case ast.F64:
		return fmt.Sprintf("f64:%v", lit.Float)
	default:
		return fmt.Sprintf("%s:%d", lit.Kind, lit.Int)
	}
}
