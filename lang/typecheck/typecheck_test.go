package typecheck_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/orus/lang/ast"
	"github.com/mna/orus/lang/parser"
	"github.com/mna/orus/lang/typecheck"
)

func TestCheckAssignToImmutableIsError(t *testing.T) {
	f, err := parser.ParseFile("test.orus", []byte(`
let x = 0
x = 1
`))
	require.NoError(t, err)
	err = typecheck.NewChecker(f).Check()
	require.Error(t, err)
}

func TestCheckIncFastPathFlag(t *testing.T) {
	f, err := parser.ParseFile("test.orus", []byte(`
mut x = 0
x = x + 1
`))
	require.NoError(t, err)
	require.NoError(t, typecheck.NewChecker(f).Check())

	assign, ok := f.Block.Stmts[1].(*ast.AssignStmt)
	require.True(t, ok)
	require.True(t, assign.IncFastPath)
}

func TestCheckFunctionRecursionSeesItsOwnName(t *testing.T) {
	f, err := parser.ParseFile("test.orus", []byte(`
fn fact(n: i32) -> i32 {
	if n <= 1 {
		return 1
	}
	return n * fact(n - 1)
}
`))
	require.NoError(t, err)
	require.NoError(t, typecheck.NewChecker(f).Check())
}

func TestCheckUndefinedVariableIsError(t *testing.T) {
	f, err := parser.ParseFile("test.orus", []byte("print(undefined_name)\n"))
	require.NoError(t, err)
	err = typecheck.NewChecker(f).Check()
	require.Error(t, err)
}
