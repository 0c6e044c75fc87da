package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"

	"github.com/mna/orus/lang/parser"
	"github.com/mna/orus/lang/runtime"
	"github.com/mna/orus/lang/scanner"
)

// Run parses, type-checks, compiles, and executes each file as its own
// self-contained module with the toy interpreter, printing whatever each
// program prints to stdout.
func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return RunFiles(ctx, stdio, args...)
}

// RunFiles is the free-function form Run delegates to.
func RunFiles(ctx context.Context, stdio mainer.Stdio, files ...string) error {
	cfg, err := loadRunConfig()
	if err != nil {
		return err
	}

	trees, perr := parser.ParseFiles(ctx, files...)
	if perr != nil {
		scanner.PrintError(stdio.Stderr, perr)
		return perr
	}

	var failed bool
	for i, f := range trees {
		funcs, _, reporter, cerr := compileOne(f, files[i], nil)
		printDiagnostics(stdio, reporter)
		if cerr != nil {
			if reporter == nil {
				fmt.Fprintf(stdio.Stderr, "%s: %s\n", files[i], cerr)
			}
			failed = true
			continue
		}
		interp := runtime.NewInterp(funcs, stdio.Stdout, cfg.MaxSteps)
		if _, rerr := interp.Run(funcs.Len()-1, nil); rerr != nil {
			fmt.Fprintf(stdio.Stderr, "%s: %s\n", files[i], rerr)
			failed = true
		}
	}
	if failed {
		return fmt.Errorf("run: one or more files failed")
	}
	return nil
}
