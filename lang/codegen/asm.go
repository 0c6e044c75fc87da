package codegen

import (
	"fmt"
	"strings"

	"github.com/mna/orus/lang/runtime"
)

// Disassemble implements the compiler's disasm output:
// the textual listing of every function a Compile call produced, in
// table order, grounded on the teacher's Dasm for one function at a
// time (lang/compiler/asm.go), but reading operand shapes from
// runtime.OpShape instead of a varint-argument stream, since every
// operand here is a fixed-width register or immediate byte.
func Disassemble(funcs *runtime.FunctionTable) string {
	var b strings.Builder
	for i := 0; i < funcs.Len(); i++ {
		if i > 0 {
			b.WriteString("\n")
		}
		fr := funcs.Get(i)
		b.WriteString(DisassembleFunction(fr))
	}
	return b.String()
}

// DisassembleFunction renders one function's chunk: a header line (name,
// arity, tier) followed by one line per instruction, with jump targets
// and loaded constants resolved to readable form rather than raw bytes.
func DisassembleFunction(fr *runtime.FunctionRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "function %s(%d) [%s]\n", fr.DebugName, fr.Arity, fr.Tier)
	disassembleChunk(&b, fr.Chunk)
	if fr.Specialized != nil {
		b.WriteString("  specialized:\n")
		disassembleChunk(&b, fr.Specialized)
	}
	return b.String()
}

func disassembleChunk(b *strings.Builder, c *runtime.Chunk) {
	offset := 0
	for offset < len(c.Code) {
		op, shape, next := c.Disassemble(offset)
		line := int32(0)
		if offset < len(c.Lines) {
			line = c.Lines[offset]
		}
		fmt.Fprintf(b, "  %04d  L%-4d  %-16s", offset, line, op)

		for n := 0; n < shape.Regs; n++ {
			fmt.Fprintf(b, " r%d", c.Reg(offset, n))
		}
		switch {
		case isJumpOp(op):
			target := jumpTarget(op, shape, offset, c)
			fmt.Fprintf(b, " -> %04d", target)
		case shape.Imm16 && isConstLoad(op):
			idx := c.Imm16(offset, shape)
			var val string
			if int(idx) < len(c.Constants) {
				val = c.Constants[idx].String()
			}
			fmt.Fprintf(b, " #%d (%s)", idx, val)
		case shape.Imm16:
			fmt.Fprintf(b, " %d", c.Imm16(offset, shape))
		case shape.Imm8:
			fmt.Fprintf(b, " %d", c.Imm8(offset, shape))
		}
		b.WriteString("\n")
		offset = next
	}
}

func isConstLoad(op runtime.Opcode) bool {
	switch op {
	case runtime.OP_LOAD_I32_CONST, runtime.OP_LOAD_I64_CONST, runtime.OP_LOAD_U32_CONST,
		runtime.OP_LOAD_U64_CONST, runtime.OP_LOAD_F64_CONST, runtime.OP_LOAD_CONST:
		return true
	}
	return false
}

func isJumpOp(op runtime.Opcode) bool {
	switch op {
	case runtime.OP_JUMP, runtime.OP_JUMP_SHORT, runtime.OP_JUMP_IF_NOT_R,
		runtime.OP_LOOP_SHORT, runtime.OP_INC_CMP_JMP:
		return true
	}
	return false
}

// jumpTarget resolves a jump instruction's absolute code offset, mirroring
// Buffer.Patch's own distance convention: forward opcodes measure forward
// from the instruction following the jump, backward-only opcodes
// (LOOP_SHORT, INC_CMP_JMP) measure backward from that same point.
func jumpTarget(op runtime.Opcode, shape runtime.Shape, offset int, c *runtime.Chunk) int {
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
