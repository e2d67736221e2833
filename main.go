package main

import (
	"fmt"
	"os"

	"github.com/loomgen/loom/cmd"
	"github.com/loomgen/loom/internal/diag"
)

func main() {
	if err := cmd.Execute(); err != nil {
		// Errors returned by a subcommand are always a *diag.Error
		// carrying a documented exit code; anything else (e.g. cobra's
		// own argument-count validation) is a configuration error.
		code := diag.KindConfiguration.ExitCode()
		if kind, ok := diag.AsKind(err); ok {
			code = kind.ExitCode()
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(code)
	}
}
