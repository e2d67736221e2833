package cmd

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/loomgen/loom/internal/cli"
	"github.com/loomgen/loom/internal/diag"
	"github.com/loomgen/loom/internal/driver"
	"github.com/loomgen/loom/internal/namespace"
	"github.com/loomgen/loom/internal/progress"
	"github.com/loomgen/loom/internal/sink/registry"
	"github.com/spf13/cobra"
)

var (
	genSize        int
	genTo          string
	genSeed        int64
	genRandom      bool
	genCollections []string
	genConcurrency int
	genMonitor     string
)

var generateCmd = &cobra.Command{
	Use:   "generate <namespace-path>",
	Short: "Generates a synthetic dataset from a namespace of schema documents",
	Long: `Generate loads every schema document in namespace-path, compiles it into a
generator namespace, and streams generated records to the chosen sink.`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().IntVarP(&genSize, "size", "n", 0, "total record count, distributed across collections; when omitted, each collection's declared length is used")
	generateCmd.Flags().StringVarP(&genTo, "to", "o", "-", "sink destination: '-' for stdout, a .json path, or a .db/.sqlite path")
	generateCmd.Flags().Int64Var(&genSeed, "seed", 0, "deterministic root seed")
	generateCmd.Flags().BoolVar(&genRandom, "random", false, "use a randomly chosen root seed instead of --seed")
	generateCmd.Flags().StringArrayVar(&genCollections, "collection", nil, "explicit per-collection size override, as 'name=count' (repeatable)")
	generateCmd.Flags().IntVar(&genConcurrency, "concurrency", 1, "number of independent reference subgraphs to generate in parallel")
	generateCmd.Flags().StringVar(&genMonitor, "monitor", "", "if set, serve live progress as JSON at http://<addr>/status")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	feedback := cli.NewFeedback(true)
	start := time.Now()

	sizes, err := parseCollectionSizes(genCollections)
	if err != nil {
		return exitWithKind(feedback, diag.KindConfiguration, err)
	}

	docs, err := loadDocuments(args[0])
	if err != nil {
		return exitWithKind(feedback, diag.KindConfiguration, err)
	}

	ns, err := namespace.Load(docs, time.Now())
	if err != nil {
		return exitWithKind(feedback, diag.KindConfiguration, err)
	}

	seed := genSeed
	if genRandom {
		seed = rand.New(rand.NewSource(time.Now().UnixNano())).Int63()
	}

	s, closeSink, err := registry.Open(genTo, os.Stdout)
	if err != nil {
		return exitWithKind(feedback, diag.KindSink, err)
	}

	opts := driver.Options{
		Seed:        seed,
		TotalSize:   genSize,
		SizeGiven:   cmd.Flags().Changed("size"),
		Sizes:       sizes,
		Concurrency: genConcurrency,
	}

	totals, err := driver.ComputeSizes(ns, opts)
	if err != nil {
		_ = closeSink()
		return exitWithKind(feedback, diag.KindGeneration, err)
	}
	reporter := progress.NewReporter(totals)
	opts.Reporter = reporter

	var statusServer *progress.Server
	if genMonitor != "" {
		statusServer = progress.NewServer(genMonitor, reporter)
		statusServer.Start()
		feedback.Info("serving progress at http://%s/status", genMonitor)
		defer statusServer.Shutdown()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	go func() {
		<-sigs
		cancel()
	}()

	summary, err := driver.Run(ctx, ns, opts, s)
	if err != nil {
		_ = closeSink()
		return exitWithKind(feedback, diag.KindGeneration, err)
	}

	if err := closeSink(); err != nil {
		return exitWithKind(feedback, diag.KindSink, err)
	}

	var detail strings.Builder
	for _, name := range ns.Names {
		fmt.Fprintf(&detail, "  %s: %d records\n", name, summary.Counts[name])
	}
	feedback.PrintSummary(true, time.Since(start), detail.String())
	return nil
}

func parseCollectionSizes(flags []string) (map[string]int, error) {
	sizes := make(map[string]int, len(flags))
	for _, f := range flags {
		parts := strings.SplitN(f, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("--collection expects 'name=count', got %q", f)
		}
		n, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("--collection %q: count must be an integer", f)
		}
		sizes[parts[0]] = n
	}
	return sizes, nil
}

// exitWithKind prints the diagnostic and returns an error whose presence
// tells cobra to exit non-zero; the exact documented exit code (spec.md
// §6: 0/1/2/3/130) is set by main.go inspecting the error's Kind.
func exitWithKind(feedback *cli.Feedback, fallback diag.Kind, err error) error {
	kind := fallback
	if k, ok := diag.AsKind(err); ok {
		kind = k
	}
	feedback.Error("%s", err.Error())
	return &diag.Error{Kind: kind, Message: err.Error(), Cause: err}
}
