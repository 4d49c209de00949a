package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/lixenwraith/lazy/internal/cli"
)

const (
	cmdName = "lazycell"

	shortDesc = "Demonstrate and stress-test lazy cells."
	longDesc  = `lazycell exercises the lazy package from the command line.

  demo    walk a record with lazy fields through its state transitions
  bench   race concurrent callers on an unset cell and count builder calls
  watch   reload a settings file into a cell every time it changes

Settings are read from --config (lazycell.toml by default, may be absent)
and LAZYCELL_* environment variables, e.g. LAZYCELL_CALLERS=128.
`
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := cli.NewRootCmd(cmdName, shortDesc, longDesc)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, strings.TrimLeft(err.Error(), "\n"))
		stop()
		os.Exit(1)
	}
}
