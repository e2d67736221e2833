package cmd

import (
	"time"

	"github.com/loomgen/loom/internal/cli"
	"github.com/loomgen/loom/internal/diag"
	"github.com/loomgen/loom/internal/namespace"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <namespace-path>",
	Short: "Statically validates a namespace of schema documents",
	Long: `Validate loads and compiles every schema document in namespace-path and runs
the same static checks generate does (path resolution, cycle detection,
bounded-repetition checks; combinations of modifiers are not checked)
without generating any records or opening a sink.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	feedback := cli.NewFeedback(true)
	feedback.PrintHeader("validate")

	docs, err := loadDocuments(args[0])
	if err != nil {
		return exitWithKind(feedback, diag.KindConfiguration, err)
	}

	ns, err := namespace.Load(docs, time.Now())
	if err != nil {
		return exitWithKind(feedback, diag.KindConfiguration, err)
	}

	feedback.Success("%d collections compiled and validated", len(ns.Names))
	for _, name := range ns.Names {
		feedback.Info("  %s", name)
	}
	return nil
}
