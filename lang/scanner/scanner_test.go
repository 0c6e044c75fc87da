package scanner_test

import (
	gotoken "go/token"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/orus/lang/scanner"
	"github.com/mna/orus/lang/token"
)

func scanAll(t *testing.T, src string) []scanner.TokenAndValue {
	t.Helper()
	f := token.NewFile("test.orus", len(src))
	var errs scanner.ErrorList
	var s scanner.Scanner
	s.Init(f, []byte(src), func(offset int, msg string) {
		p := f.Position(offset)
		errs.Add(gotoken.Position{Filename: p.Filename, Line: p.Line, Column: p.Col}, msg)
	})

	var out []scanner.TokenAndValue
	for {
		tv := s.Scan()
		out = append(out, tv)
		if tv.Tok == token.EOF {
			break
		}
	}
	require.NoError(t, errs.Err())
	return out
}

func TestScanKeywordsAndIdents(t *testing.T) {
	toks := scanAll(t, "fn fact mut")
	require.Equal(t, token.FN, toks[0].Tok)
	require.Equal(t, token.IDENT, toks[1].Tok)
	require.Equal(t, "fact", toks[1].Lit)
	require.Equal(t, token.MUT, toks[2].Tok)
	require.Equal(t, token.EOF, toks[3].Tok)
}

func TestScanNumbers(t *testing.T) {
	toks := scanAll(t, "42 3.5")
	require.Equal(t, token.INT, toks[0].Tok)
	require.Equal(t, int64(42), toks[0].Int)
	require.Equal(t, token.FLOAT, toks[1].Tok)
	require.InDelta(t, 3.5, toks[1].Float, 0.0001)
}

func TestScanString(t *testing.T) {
	toks := scanAll(t, `"hello"`)
	require.Equal(t, token.STRING, toks[0].Tok)
	require.Equal(t, "hello", toks[0].Lit)
}

func TestScanOperatorsAndRanges(t *testing.T) {
	toks := scanAll(t, "0..5 0..=5")
	var kinds []token.Token
	for _, tv := range toks {
		kinds = append(kinds, tv.Tok)
	}
	require.Contains(t, kinds, token.DOTDOT)
	require.Contains(t, kinds, token.DOTDOTEQ)
}
