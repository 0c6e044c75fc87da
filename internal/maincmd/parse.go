package maincmd

import (
	"context"

	"github.com/mna/mainer"

	"github.com/mna/orus/lang/ast"
	"github.com/mna/orus/lang/parser"
	"github.com/mna/orus/lang/scanner"
)

// Parse parses each file and prints its syntax tree.
func (c *Cmd) Parse(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return ParseFiles(ctx, stdio, c.Pos, args...)
}

// ParseFiles is the free-function form Parse delegates to.
func ParseFiles(ctx context.Context, stdio mainer.Stdio, showPos bool, files ...string) error {
	trees, err := parser.ParseFiles(ctx, files...)
	printer := ast.Printer{Output: stdio.Stdout, ShowPos: showPos}
	for _, f := range trees {
		if f == nil {
			continue
		}
		if perr := printer.Print(f); perr != nil {
			return perr
		}
	}
	if err != nil {
		scanner.PrintError(stdio.Stderr, err)
	}
	return err
}
