package codegen

import "github.com/mna/orus/lang/runtime"

// finalize implements spec.md §4.12's VM finalisation (C12): it takes a
// still-mutable Buffer plus this Context's shared constant pool and
// produces an immutable runtime.Chunk, taking a defensive copy of every
// slice so the VM never observes further compiler mutation.
func (c *Context) finalize(buf *Buffer) *runtime.Chunk {
	code := append([]byte(nil), buf.Bytes()...)
	lines := append([]int32(nil), buf.Lines()...)
	cols := append([]int32(nil), buf.Cols()...)
	files := append([]string(nil), buf.Files()...)
	return &runtime.Chunk{
		Code:      code,
		Lines:     lines,
		Cols:      cols,
		Files:     files,
		Constants: c.constants.Values(),
	}
}
