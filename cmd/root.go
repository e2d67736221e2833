package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "loom",
	Short: "A declarative synthetic data generator",
	Long: `Loom generates realistic, relationally-consistent synthetic datasets from a
declarative schema: a namespace of named collections, each an array-shaped
generator whose records can reference each other by path. Point it at a
directory of schema documents and it streams generated records straight to
a sink — stdout JSON, a JSON file, or a sqlite3 database.`,
	// Subcommands report their own diagnostics via internal/cli.Feedback
	// and encode the failure kind in the returned error, which main.go
	// maps to spec.md §6's documented exit codes; cobra's own
	// usage/error banner would be redundant and noisier.
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	return rootCmd.Execute()
}
