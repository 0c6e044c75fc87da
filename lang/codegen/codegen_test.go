package codegen_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/orus/lang/codegen"
	"github.com/mna/orus/lang/diag"
	"github.com/mna/orus/lang/parser"
	"github.com/mna/orus/lang/runtime"
	"github.com/mna/orus/lang/typecheck"
)

// compileSource runs the whole pipeline (parse, typecheck, compile) over
// one source string and fails the test on any stage error, returning the
// finalised function table ready to execute.
func compileSource(t *testing.T, src string) *runtime.FunctionTable {
	t.Helper()

	f, err := parser.ParseFile("test.orus", []byte(src))
	require.NoError(t, err)

	checker := typecheck.NewChecker(f)
	require.NoError(t, checker.Check())

	reporter := diag.NewReporter()
	ctx := codegen.NewContext("test", nil, reporter)
	funcs, _, err := ctx.Compile(f)
	require.NoError(t, err, "diagnostics: %v", reporter.Diagnostics())
	return funcs
}

// TestFactorialRecursion is spec.md's own worked example: fn fact(n: i32)
// -> i32 { if n <= 1 { return 1 } return n * fact(n - 1) }, called as
// fact(6), must return 720 -- and must do so because the function's own
// name is bound in scope before its body is compiled, not by accident of
// evaluation order.
func TestFactorialRecursion(t *testing.T) {
	const src = `
fn fact(n: i32) -> i32 {
	if n <= 1 {
		return 1
	}
	return n * fact(n - 1)
}

print(fact(6))
`
	funcs := compileSource(t, src)

	var out bytes.Buffer
	interp := runtime.NewInterp(funcs, &out, 0)
	_, err := interp.Run(funcs.Len()-1, nil)
	require.NoError(t, err)
	require.Equal(t, "720\n", out.String())
}

// TestForRangeEmitsExactlyOneFusedLoopStep checks spec.md's testable
// property 1: "mut x = 0; for i in 0..5: x = x + 1" compiles to exactly
// one INC_CMP_JMP at the loop tail and one INC_I32 in the body, and x
// ends at 5.
func TestForRangeEmitsExactlyOneFusedLoopStep(t *testing.T) {
	const src = `
mut x = 0
for i in 0..5 {
	x = x + 1
}
print(x)
`
	funcs := compileSource(t, src)

	disasm := codegen.Disassemble(funcs)
	require.Equal(t, 1, strings.Count(disasm, "inc_cmp_jmp"), "disassembly:\n%s", disasm)
	require.Equal(t, 1, strings.Count(disasm, "inc_i32"), "disassembly:\n%s", disasm)
	require.Equal(t, 0, strings.Count(disasm, "loop_short"), "no wide/short backward jump outside the fused opcode; disassembly:\n%s", disasm)

	var out bytes.Buffer
	interp := runtime.NewInterp(funcs, &out, 0)
	_, err := interp.Run(funcs.Len()-1, nil)
	require.NoError(t, err)
	require.Equal(t, "5\n", out.String())
}

// TestDuplicateMatchPatternIsCompileError exercises spec.md's testable
// property 6: two identical literal patterns in the same match expression
// are a compile error, not a silently shadowed arm.
func TestDuplicateMatchPatternIsCompileError(t *testing.T) {
	const src = `
mut n = 1
print(match n {
	1 => "one",
	1 => "one again",
	_ => "other",
})
`
	f, err := parser.ParseFile("test.orus", []byte(src))
	require.NoError(t, err)
	require.NoError(t, typecheck.NewChecker(f).Check())

	reporter := diag.NewReporter()
	ctx := codegen.NewContext("test", nil, reporter)
	_, _, err = ctx.Compile(f)
	require.Error(t, err)

	var found bool
	for _, d := range reporter.Diagnostics() {
		if d.Code == "E7001" {
			found = true
		}
	}
	require.True(t, found, "expected an E7001 duplicate match pattern diagnostic, got: %v", reporter.Diagnostics())
}

// TestArrayLiteralAndIndexing checks the boxed-array representation
// (spec.md §9) end to end: literal construction, indexed read.
func TestArrayLiteralAndIndexing(t *testing.T) {
	const src = `
mut xs = [10, 20, 30]
print(xs[1])
`
	funcs := compileSource(t, src)

	var out bytes.Buffer
	interp := runtime.NewInterp(funcs, &out, 0)
	_, err := interp.Run(funcs.Len()-1, nil)
	require.NoError(t, err)
	require.Equal(t, "20\n", out.String())
}

// TestThrowCaughtByTry exercises the try/catch control-flow path spec.md
// §4.6 describes.
func TestThrowCaughtByTry(t *testing.T) {
	const src = `
try {
	throw 13
} catch e {
	print(e)
}
`
	funcs := compileSource(t, src)

	var out bytes.Buffer
	interp := runtime.NewInterp(funcs, &out, 0)
	_, err := interp.Run(funcs.Len()-1, nil)
	require.NoError(t, err)
	require.Equal(t, "13\n", out.String())
}
