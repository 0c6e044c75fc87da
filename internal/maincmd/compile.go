package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"

	"github.com/mna/orus/lang/parser"
	"github.com/mna/orus/lang/scanner"
)

// Compile parses, type-checks, and compiles each file as its own
// self-contained module, printing the disassembled bytecode of each to
// stdout.
func (c *Cmd) Compile(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return CompileFiles(ctx, stdio, args...)
}

// CompileFiles is the free-function form Compile delegates to.
func CompileFiles(ctx context.Context, stdio mainer.Stdio, files ...string) error {
	trees, perr := parser.ParseFiles(ctx, files...)
	if perr != nil {
		scanner.PrintError(stdio.Stderr, perr)
		return perr
	}

	var failed bool
	for i, f := range trees {
		funcs, _, reporter, err := compileOne(f, files[i], nil)
		printDiagnostics(stdio, reporter)
		if err != nil {
			if reporter == nil {
				fmt.Fprintf(stdio.Stderr, "%s: %s\n", files[i], err)
			}
			failed = true
			continue
		}
		fmt.Fprintf(stdio.Stdout, "; %s\n", files[i])
		fmt.Fprint(stdio.Stdout, disassemble(funcs))
	}
	if failed {
		return fmt.Errorf("compile: one or more files failed to compile")
	}
	return nil
}
