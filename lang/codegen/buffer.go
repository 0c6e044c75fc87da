// Package codegen is the backend code generator: it lowers a typed
// lang/ast tree (as annotated by lang/typecheck) into lang/runtime
// bytecode for a 256-register, frame-stacked VM. One file per component
// of spec.md §4's component table (C1 through C12), coordinated by the
// Context in context.go.
package codegen

import (
	"fmt"

	"github.com/mna/orus/lang/runtime"
)

// Buffer is the append-only byte stream one function's bytecode
// accumulates into, with three parallel per-byte debug arrays (spec.md
// §4.1). It is torn down once its contents are materialised into a
// runtime.Chunk at finalisation (C12); unlike runtime.Chunk it is still
// mutable, supporting jump reservation and patching.
type Buffer struct {
	code  []byte
	lines []int32
	cols  []int32
	files []string

	curLine   int32
	curCol    int32
	curFile   string
	synthetic bool

	placeholders []placeholder
}

type placeholder struct {
	op     runtime.Opcode
	offset int // byte offset of the first immediate byte
	wide   bool
	backward bool
	patched  bool
}

// NewBuffer returns an empty Buffer.
func NewBuffer() *Buffer { return &Buffer{} }

// SetLocation records the source position subsequent appends attribute
// their bytes to.
func (b *Buffer) SetLocation(line, col int32, file string) {
	b.curLine, b.curCol, b.curFile = line, col, file
	b.synthetic = false
}

// SetSyntheticLocation marks subsequent appends as compiler-introduced,
// with no direct source correspondence (spec.md §4.1).
func (b *Buffer) SetSyntheticLocation() { b.synthetic = true }

func (b *Buffer) appendByte(by byte) {
	b.code = append(b.code, by)
	if b.synthetic {
		b.lines = append(b.lines, 0)
		b.cols = append(b.cols, 0)
		b.files = append(b.files, "")
	} else {
		b.lines = append(b.lines, b.curLine)
		b.cols = append(b.cols, b.curCol)
		b.files = append(b.files, b.curFile)
	}
}

// Append writes a single raw byte at the current location.
func (b *Buffer) Append(by byte) { b.appendByte(by) }

// AppendInstruction writes op followed by its register/immediate operand
// bytes, all at the current location.
func (b *Buffer) AppendInstruction(op runtime.Opcode, operands ...byte) {
	b.appendByte(byte(op))
	for _, o := range operands {
		b.appendByte(o)
	}
}

// AppendImm16 appends a big-endian 16-bit immediate (a constant index or a
// wide jump target written directly, not reserved for later patching).
func (b *Buffer) AppendImm16(v uint16) {
	b.appendByte(byte(v >> 8))
	b.appendByte(byte(v))
}

// jumpIsBackwardOnly reports whether op is only ever used for a backward
// (loop-tail) jump, which changes how Patch interprets the target offset.
func jumpIsBackwardOnly(op runtime.Opcode) bool {
	return op == runtime.OP_LOOP_SHORT || op == runtime.OP_INC_CMP_JMP
}

func jumpIsShort(op runtime.Opcode) bool {
	return op == runtime.OP_JUMP_SHORT || op == runtime.OP_LOOP_SHORT
}

// ReserveJump emits op and leading register/tag operand bytes (regs, used
// e.g. for JUMP_IF_NOT_R's condition register or INC_CMP_JMP's loopvar and
// limit registers), followed by a zeroed placeholder for the jump offset
// (1 byte for short encodings, 2 for wide), and returns a patch index to
// later pass to Patch. The placeholder is not yet patched.
func (b *Buffer) ReserveJump(op runtime.Opcode, regs ...byte) int {
	b.appendByte(byte(op))
	for _, r := range regs {
		b.appendByte(r)
	}
	short := jumpIsShort(op)
	offset := len(b.code)
	if short {
		b.appendByte(0)
	} else {
		b.appendByte(0)
		b.appendByte(0)
	}
	idx := len(b.placeholders)
	b.placeholders = append(b.placeholders, placeholder{
		op: op, offset: offset, wide: !short, backward: jumpIsBackwardOnly(op),
	})
	return idx
}

// CurrentOffset returns the byte offset the next appended byte will land
// at.
func (b *Buffer) CurrentOffset() int { return len(b.code) }

// Patch fills in the jump offset for a previously reserved placeholder.
// The distance encoded is always relative to the instruction immediately
// following the placeholder's operand bytes (spec.md §4.1). Forward-jump
// opcodes require target >= that point; backward-only opcodes require the
// reverse, and encode the magnitude of the backward distance. Patch
// returns an error instead of truncating silently if the distance does
// not fit the reserved encoding width, and is idempotent-checked: patching
// the same index twice is a programming error.
func (b *Buffer) Patch(patchIndex int, target int) error {
	if patchIndex < 0 || patchIndex >= len(b.placeholders) {
		return fmt.Errorf("codegen: invalid patch index %d", patchIndex)
	}
	p := &b.placeholders[patchIndex]
	if p.patched {
		return fmt.Errorf("codegen: patch index %d already patched", patchIndex)
	}
	width := 1
	if p.wide {
		width = 2
	}
	next := p.offset + width
	var dist int
	if p.backward {
		dist = next - target
		if dist < 0 {
			return fmt.Errorf("codegen: %s expects a backward target, got one ahead of the jump", p.op)
		}
	} else {
		dist = target - next
		if dist < 0 {
			return fmt.Errorf("codegen: %s expects a forward target, got one behind the jump", p.op)
		}
	}
	if p.wide {
		if dist > 0xFFFF {
			return fmt.Errorf("codegen: jump distance %d does not fit a wide (16-bit) encoding", dist)
		}
		b.code[p.offset] = byte(dist >> 8)
		b.code[p.offset+1] = byte(dist)
	} else {
		if dist > 0xFF {
			return fmt.Errorf("codegen: jump distance %d does not fit a short (8-bit) encoding", dist)
		}
		b.code[p.offset] = byte(dist)
	}
	p.patched = true
	return nil
}

// Unpatched returns the indices of every reserved placeholder never
// patched; a non-empty result at finalisation is the fatal assertion
// spec.md §8 invariant 1 describes.
func (b *Buffer) Unpatched() []int {
	var out []int
	for i, p := range b.placeholders {
		if !p.patched {
			out = append(out, i)
		}
	}
	return out
}

// Bytes returns the accumulated code so far (read-only use; finalisation
// takes its own copy).
func (b *Buffer) Bytes() []byte { return b.code }

// Lines, Cols, and Files expose the parallel debug arrays.
func (b *Buffer) Lines() []int32   { return b.lines }
func (b *Buffer) Cols() []int32    { return b.cols }
func (b *Buffer) Files() []string  { return b.files }
