package parser_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/orus/lang/ast"
	"github.com/mna/orus/lang/parser"
)

func TestParseFuncDecl(t *testing.T) {
	f, err := parser.ParseFile("test.orus", []byte(`
fn fact(n: i32) -> i32 {
	if n <= 1 {
		return 1
	}
	return n * fact(n - 1)
}
`))
	require.NoError(t, err)
	require.Len(t, f.Block.Stmts, 1)

	fn, ok := f.Block.Stmts[0].(*ast.FuncDeclStmt)
	require.True(t, ok)
	require.Equal(t, "fact", fn.Name)
	require.Len(t, fn.Params, 1)
	require.Equal(t, "n", fn.Params[0].Name)
	require.Len(t, fn.Body.Stmts, 2)
}

func TestParseForRangeStmt(t *testing.T) {
	f, err := parser.ParseFile("test.orus", []byte(`
for i in 0..5 {
	x = x + 1
}
`))
	require.NoError(t, err)
	require.Len(t, f.Block.Stmts, 1)

	fr, ok := f.Block.Stmts[0].(*ast.ForRangeStmt)
	require.True(t, ok)
	require.Equal(t, "i", fr.Var)
	require.False(t, fr.Inclusive)
}

func TestParseInclusiveForRangeStmt(t *testing.T) {
	f, err := parser.ParseFile("test.orus", []byte("for i in 0..=5 {}\n"))
	require.NoError(t, err)
	fr, ok := f.Block.Stmts[0].(*ast.ForRangeStmt)
	require.True(t, ok)
	require.True(t, fr.Inclusive)
}

func TestParseMatchExpr(t *testing.T) {
	f, err := parser.ParseFile("test.orus", []byte(`
print(match n {
	1 => "one",
	_ => "other",
})
`))
	require.NoError(t, err)
	ps, ok := f.Block.Stmts[0].(*ast.PrintStmt)
	require.True(t, ok)
	require.Len(t, ps.Args, 1)

	m, ok := ps.Args[0].(*ast.MatchExpr)
	require.True(t, ok)
	require.Len(t, m.Arms, 2)
	require.NotNil(t, m.Arms[0].Literal)
	require.True(t, m.Arms[1].Wildcard)
}

func TestParseErrorRecoversAtStatementBoundary(t *testing.T) {
	f, err := parser.ParseFile("test.orus", []byte(`
let x = ;
let y = 2
`))
	require.Error(t, err)
	require.Len(t, f.Block.Stmts, 1)
	decl, ok := f.Block.Stmts[0].(*ast.VarDeclStmt)
	require.True(t, ok)
	require.Equal(t, "y", decl.Name)
}

func TestParseImportStmt(t *testing.T) {
	f, err := parser.ParseFile("test.orus", []byte(`use math.{pi, sqrt}` + "\n"))
	require.NoError(t, err)
	imp, ok := f.Block.Stmts[0].(*ast.ImportStmt)
	require.True(t, ok)
	require.Equal(t, "math", imp.Module)
	require.Len(t, imp.Symbols, 2)
	require.Equal(t, "pi", imp.Symbols[0].Name)
	require.Equal(t, "sqrt", imp.Symbols[1].Name)
}
