package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"

	"Windcalc/internal/cli"
)

func main() {
	root := cli.NewRootCmd(cli.Env{Fs: afero.NewOsFs(), Clock: clockwork.NewRealClock()})
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
