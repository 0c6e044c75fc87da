package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"

	"github.com/mna/orus/lang/parser"
	"github.com/mna/orus/lang/scanner"
	"github.com/mna/orus/lang/typecheck"
)

// Check parses and type-checks each file, reporting every error found
// without compiling.
func (c *Cmd) Check(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return CheckFiles(ctx, stdio, args...)
}

// CheckFiles is the free-function form Check delegates to.
func CheckFiles(ctx context.Context, stdio mainer.Stdio, files ...string) error {
	trees, perr := parser.ParseFiles(ctx, files...)
	if perr != nil {
		scanner.PrintError(stdio.Stderr, perr)
		return perr
	}

	var failed bool
	for i, f := range trees {
		checker := typecheck.NewChecker(f)
		if err := checker.Check(); err != nil {
			failed = true
			fmt.Fprintf(stdio.Stderr, "%s: %s\n", files[i], err)
		}
	}
	if failed {
		return fmt.Errorf("check: one or more files failed type-checking")
	}
	fmt.Fprintln(stdio.Stdout, "ok")
	return nil
}
