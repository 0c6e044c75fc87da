package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"
	"gopkg.in/yaml.v3"

	"github.com/mna/orus/lang/modulemgr"
	"github.com/mna/orus/lang/parser"
	"github.com/mna/orus/lang/runtime"
	"github.com/mna/orus/lang/scanner"
)

// projectManifest describes a multi-module project: every module's import
// path and the source file it compiles from, in the dependency order they
// must be compiled and linked in (a module can only `use` one compiled
// earlier in the list), plus which module path is the program's entry
// point.
type projectManifest struct {
	Entry   string `yaml:"entry"`
	Modules []struct {
		Path string `yaml:"path"`
		File string `yaml:"file"`
	} `yaml:"modules"`
}

func loadManifest(path string) (*projectManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m projectManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("project: invalid manifest %s: %w", path, err)
	}
	return &m, nil
}

// Project compiles and runs the multi-module project described by a YAML
// manifest (args[0]), reporting the module named args[1] as the entry
// point whose exit status the command reflects.
func (c *Cmd) Project(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return RunProject(ctx, stdio, args[0], args[1])
}

// RunProject is the free-function form Project delegates to: it compiles
// every module in the manifest in order, registering each one's exports
// in a shared modulemgr.MemManager so later modules can `use` it, then
// runs every module's top-level body in turn against one shared
// interpreter so linked modules see each other's global registers
// (spec.md §9's cross-module register sharing, exercised here at the
// driver level rather than only in lang/codegen's compileImport).
func RunProject(ctx context.Context, stdio mainer.Stdio, manifestPath, entryPath string) error {
	manifest, err := loadManifest(manifestPath)
	if err != nil {
		return err
	}

	cfg, err := loadRunConfig()
	if err != nil {
		return err
	}

	manager := modulemgr.NewMemManager()
	var interp *runtime.Interp
	var entryRan bool

	for _, mod := range manifest.Modules {
		trees, perr := parser.ParseFiles(ctx, mod.File)
		if perr != nil {
			scanner.PrintError(stdio.Stderr, perr)
			return perr
		}
		f := trees[0]

		funcs, exports, reporter, cerr := compileOne(f, mod.Path, manager)
		printDiagnostics(stdio, reporter)
		if cerr != nil {
			if reporter == nil {
				fmt.Fprintf(stdio.Stderr, "%s: %s\n", mod.Path, cerr)
			}
			return fmt.Errorf("project: module %q failed to compile", mod.Path)
		}

		linked := modulemgr.NewModule(mod.Path)
		for _, e := range exports {
			linked.Declare(e.Name, e.Kind, e.Type, e.Register)
		}
		manager.Register(linked)

		if interp == nil {
			interp = runtime.NewInterp(funcs, stdio.Stdout, cfg.MaxSteps)
		} else {
			interp.SetFuncs(funcs)
		}
		if _, rerr := interp.Run(funcs.Len()-1, nil); rerr != nil {
			fmt.Fprintf(stdio.Stderr, "%s: %s\n", mod.Path, rerr)
			return fmt.Errorf("project: module %q failed at runtime", mod.Path)
		}
		if mod.Path == entryPath {
			entryRan = true
		}
	}

	if !entryRan {
		return fmt.Errorf("project: entry module %q not found in manifest", entryPath)
	}
	return nil
}
