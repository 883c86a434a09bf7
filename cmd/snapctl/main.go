// Command snapctl drives the snapgram client state from a terminal.
package main

import (
	"errors"
	"fmt"
	"os"

	"snapgram/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err == nil {
		return
	}

	// Command failures are already reported in the requested format; flag
	// and argument errors from cobra are not.
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(cli.GetExitCode(err))
}
