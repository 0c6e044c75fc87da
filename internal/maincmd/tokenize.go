package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"

	"github.com/mna/orus/lang/scanner"
)

// Tokenize scans each file and prints its tokens.
func (c *Cmd) Tokenize(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return TokenizeFiles(ctx, stdio, args...)
}

// TokenizeFiles is the free-function form Tokenize delegates to, so tests
// and other commands can drive the same scan-and-print pipeline directly.
func TokenizeFiles(ctx context.Context, stdio mainer.Stdio, files ...string) error {
	fs, tokensByFile, err := scanner.ScanFiles(ctx, files...)
	for i, toks := range tokensByFile {
		file := fs.File(files[i])
		for _, t := range toks {
			pos := file.Position(t.Pos)
			fmt.Fprintf(stdio.Stdout, "%s: %s", pos, t.Tok)
			if t.Lit != "" {
				fmt.Fprintf(stdio.Stdout, " %s", t.Lit)
			}
			fmt.Fprintln(stdio.Stdout)
		}
	}
	if err != nil {
		scanner.PrintError(stdio.Stderr, err)
	}
	return err
}
