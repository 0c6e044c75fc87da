package maincmd

import (
	"fmt"

	"github.com/mna/mainer"

	"github.com/mna/orus/lang/ast"
	"github.com/mna/orus/lang/codegen"
	"github.com/mna/orus/lang/diag"
	"github.com/mna/orus/lang/modulemgr"
	"github.com/mna/orus/lang/runtime"
	"github.com/mna/orus/lang/typecheck"
)

// compileOne type-checks f in place and compiles it as modulePath,
// resolving any `use` imports against modules (nil is fine for a
// self-contained file with no imports). It returns the compiled function
// table, the export table a caller can register for other modules to
// import, and every diagnostic recorded along the way.
func compileOne(f *ast.File, modulePath string, modules modulemgr.Manager) (*runtime.FunctionTable, []codegen.ExportEntry, *diag.Reporter, error) {
	checker := typecheck.NewChecker(f)
	if err := checker.Check(); err != nil {
		return nil, nil, nil, err
	}

	reporter := diag.NewReporter()
	ctx := codegen.NewContext(modulePath, modules, reporter)
	funcs, exports, err := ctx.Compile(f)
	reporter.Sort()
	return funcs, exports, reporter, err
}

func printDiagnostics(stdio mainer.Stdio, reporter *diag.Reporter) {
	if reporter == nil {
		return
	}
	for _, d := range reporter.Diagnostics() {
		fmt.Fprintln(stdio.Stderr, d)
	}
}

func disassemble(funcs *runtime.FunctionTable) string {
	return codegen.Disassemble(funcs)
}
