// Package grammar carries the Orus surface syntax as a standalone EBNF
// document (grammar.ebnf), parsed and verified for internal consistency
// with golang.org/x/exp/ebnf exactly as the teacher's own lang/grammar
// package does for its Lua-flavored grammar: this is documentation, not
// the parser itself (lang/parser implements the syntax directly), kept
// honest by a test that fails the moment a production goes stale.
package grammar

import (
	"os"
	"testing"

	"golang.org/x/exp/ebnf"
)

func TestEBNF(t *testing.T) {
	const filename = "grammar.ebnf"

	f, err := os.Open(filename)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	g, err := ebnf.Parse(filename, f)
	if err != nil {
		t.Fatal(err)
	}
	if err := ebnf.Verify(g, "File"); err != nil {
		t.Fatal(err)
	}
}
