// Package maincmd is the command dispatcher cmd/orus's main wires up:
// argument parsing, usage text, and the command table, in the shape of
// the teacher's own internal/maincmd package (Cmd struct with `flag:"..."`
// tags, mainer.Parser, a reflection-built command table keyed by lowercased
// method name).
package maincmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/mna/mainer"
)

const binName = "orus"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] <command> [<path>...]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] <command> [<path>...]
       %[1]s -h|--help
       %[1]s -v|--version

Compiler and bytecode toolchain for the %[1]s programming language.

The <command> can be one of:
       tokenize                  Scan one or more source files and print
                                 their tokens.
       parse                     Parse one or more source files and print
                                 the resulting syntax tree.
       check                     Parse and type-check one or more source
                                 files, reporting any type errors.
       compile                   Parse, type-check, and compile one or
                                 more source files, printing the
                                 disassembled bytecode of each.
       run                       Parse, type-check, compile, and execute
                                 one or more source files with the toy
                                 interpreter, printing their output.
       project                   Compile and run a multi-module project
                                 described by a YAML manifest.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       --pos                     Include source positions in the parse
                                 command's syntax tree dump.

More information:
       https://github.com/mna/orus
`, binName)
)

// Cmd is the top-level CLI command, populated by mainer.Parser from
// os.Args and environment variables prefixed ORUS_.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`
	Pos     bool `flag:"pos"`

	args  []string
	cmdFn func(context.Context, mainer.Stdio, []string) error
}

func (c *Cmd) SetArgs(args []string)          { c.args = args }
func (c *Cmd) SetFlags(flags map[string]bool) {}

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if len(c.args) == 0 {
		return errors.New("no command specified")
	}

	cmdName := c.args[0]
	commands := buildCmds(c)
	c.cmdFn = commands[cmdName]
	if c.cmdFn == nil {
		return fmt.Errorf("unknown command: %s", cmdName)
	}

	rest := c.args[1:]
	switch cmdName {
	case "tokenize", "parse", "check", "compile", "run":
		if len(rest) == 0 {
			return fmt.Errorf("%s: at least one file must be provided", cmdName)
		}
	case "project":
		if len(rest) != 2 {
			return fmt.Errorf("project: expected a manifest path and an entry module path")
		}
	}
	return nil
}

func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{
		EnvVars:   true,
		EnvPrefix: strings.ToUpper(binName) + "_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	if err := c.cmdFn(ctx, stdio, c.args[1:]); err != nil {
		return mainer.Failure
	}
	return mainer.Success
}

// buildCmds mirrors the teacher's reflection-based command table: any
// exported *Cmd method with signature func(context.Context, mainer.Stdio,
// []string) error is reachable by its lowercased name.
func buildCmds(v interface{}) map[string]func(context.Context, mainer.Stdio, []string) error {
	cmds := make(map[string]func(context.Context, mainer.Stdio, []string) error)

	vv := reflect.ValueOf(v)
	vt := vv.Type()
	for i := 0; i < vt.NumMethod(); i++ {
		m := vt.Method(i)
		mt := m.Type

		if mt.NumIn() != 4 || mt.NumOut() != 1 {
			continue
		}
		if rt := mt.Out(0); rt.Kind() != reflect.Interface || rt.Name() != "error" {
			continue
		}
		if p0 := mt.In(0); p0.Kind() != reflect.Ptr || p0.Elem().Name() != "Cmd" {
			continue
		}
		if p1 := mt.In(1); p1.Kind() != reflect.Interface || p1.Name() != "Context" {
			continue
		}
		if p2 := mt.In(2); p2.Kind() != reflect.Struct || p2.Name() != "Stdio" {
			continue
		}
		if p3 := mt.In(3); p3.Kind() != reflect.Slice || p3.Elem().Name() != "string" {
			continue
		}
		cmds[strings.ToLower(m.Name)] = vv.Method(i).Interface().(func(context.Context, mainer.Stdio, []string) error)
	}
	return cmds
}
