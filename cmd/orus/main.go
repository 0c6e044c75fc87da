// Command orus is the compiler and bytecode toolchain entry point.
package main

import (
	"os"

	"github.com/mna/mainer"

	"github.com/mna/orus/internal/maincmd"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	c := &maincmd.Cmd{BuildVersion: version, BuildDate: buildDate}
	os.Exit(int(c.Main(os.Args, mainer.CurrentStdio())))
}
