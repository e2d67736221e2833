// Package driver implements the top-level generation loop of spec.md §5:
// for every collection in a compiled Namespace, produce its target record
// count and stream each record straight to a sink.Sink, atomically and
// (optionally) with independent subgraphs running concurrently.
package driver

import (
	"context"
	"strconv"
	"sync"

	"github.com/loomgen/loom/internal/diag"
	"github.com/loomgen/loom/internal/generator"
	"github.com/loomgen/loom/internal/namespace"
	"github.com/loomgen/loom/internal/prng"
	"github.com/loomgen/loom/internal/progress"
	"github.com/loomgen/loom/internal/runtime"
	"github.com/loomgen/loom/internal/sink"
)

// Options configures one Run.
type Options struct {
	// Seed is the root PRNG seed; every collection's stream is derived
	// from it by name, per spec.md §5.
	Seed int64
	// TotalSize is the default record count shared across collections
	// that have no entry in Sizes, distributed per sizing.go. Only used
	// when SizeGiven is true.
	TotalSize int
	// SizeGiven records whether TotalSize was explicitly requested (e.g.
	// cmd.Flags().Changed("size")), per spec.md §4.5: "if a global size
	// is given" gates the distribution path at all. When false, every
	// collection without a Sizes entry uses its own declared `length`
	// node as its actual record count instead of sharing TotalSize.
	SizeGiven bool
	// Sizes gives an explicit per-collection record count, overriding
	// both TotalSize's distribution and a collection's own declared
	// length for the collections it names.
	Sizes map[string]int
	// Concurrency bounds how many independent Namespace.Groups run at
	// once. 0 or 1 means strictly sequential.
	Concurrency int
	// Reporter, if set, receives live per-collection progress.
	Reporter *progress.Reporter
}

// Summary reports how many records each collection actually produced.
type Summary struct {
	Counts map[string]int
}

// ComputeSizes resolves the per-collection target record count for opts
// against ns, per sizing.go. It is exported so a caller (the generate
// command) can size a progress.Reporter's totals before Run starts; Run
// calls it again internally, and the two calls always agree because
// prng.Source.Derive depends only on the seed, not on stream position.
func ComputeSizes(ns *namespace.Namespace, opts Options) (map[string]int, error) {
	root := prng.New(opts.Seed)
	inv := runtime.New()
	return collectionSizes(ns, opts.TotalSize, opts.SizeGiven, opts.Sizes, root, inv)
}

// Run drives every collection in ns to completion against s, per spec.md
// §5's generation algorithm: collections are produced in Namespace.Names
// topological order (or, when Concurrency > 1, one goroutine per
// Namespace.Groups element, each still internally sequential), and every
// record is built and written in full before the next one starts — "no
// partial record is ever emitted."
func Run(ctx context.Context, ns *namespace.Namespace, opts Options, s sink.Sink) (*Summary, error) {
	sizes, err := ComputeSizes(ns, opts)
	if err != nil {
		return nil, err
	}
	root := prng.New(opts.Seed)
	inv := runtime.New()

	summary := &Summary{Counts: make(map[string]int, len(ns.Names))}
	var mu sync.Mutex
	recordCount := func(name string, n int) {
		mu.Lock()
		summary.Counts[name] = n
		mu.Unlock()
	}

	groups := ns.Groups
	if len(groups) == 0 {
		groups = [][]string{append([]string{}, ns.Names...)}
	}

	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	if concurrency == 1 || len(groups) == 1 {
		for _, name := range ns.Names {
			n, err := runCollection(ctx, ns, name, sizes[name], root, inv, s, opts.Reporter)
			if err != nil {
				return summary, err
			}
			recordCount(name, n)
		}
		if err := s.Commit(); err != nil {
			return summary, diag.Wrap(diag.KindSink, "", err)
		}
		return summary, nil
	}

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	errs := make(chan error, len(groups))
	for _, group := range groups {
		group := group
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			// Each independent subgraph gets its own Invocation, per
			// runtime.Invocation's "not safe for concurrent use from more
			// than one goroutine at a time for a given collection
			// subgraph... independent parallel subgraphs get independent
			// Invocations" contract.
			groupInv := runtime.New()
			for _, name := range group {
				n, err := runCollection(ctx, ns, name, sizes[name], root, groupInv, s, opts.Reporter)
				if err != nil {
					errs <- err
					return
				}
				recordCount(name, n)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			return summary, err
		}
	}

	if err := s.Commit(); err != nil {
		return summary, diag.Wrap(diag.KindSink, "", err)
	}
	return summary, nil
}

// runCollection produces target records for name and streams them to s. It
// bypasses the collection's own *generator.ArrayNode.Produce (which would
// eagerly materialize the whole array using the schema's own declared
// Length rather than the driver-computed target count) and instead drives
// arr.Content directly, once per record, with a freshly built Context.
func runCollection(ctx context.Context, ns *namespace.Namespace, name string, target int, root *prng.Source, inv *runtime.Invocation, s sink.Sink, reporter *progress.Reporter) (int, error) {
	tree, ok := ns.Collections[name]
	if !ok {
		return 0, diag.New(diag.KindConfiguration, name, "collection not found in namespace")
	}
	arr, ok := tree.(*generator.ArrayNode)
	if !ok {
		return 0, diag.New(diag.KindConfiguration, name, "top-level collection node is not an array")
	}

	if reporter != nil {
		reporter.SetCurrent(name)
	}

	collectionPRNG := root.Derive(name)

	handle, err := s.Begin(name, target)
	if err != nil {
		return 0, diag.Wrap(diag.KindSink, name, err)
	}

	for i := 0; i < target; i++ {
		select {
		case <-ctx.Done():
			if endErr := s.End(handle); endErr != nil {
				return i, diag.Wrap(diag.KindSink, name, endErr)
			}
			return i, diag.New(diag.KindCanceled, name, "generation canceled after %d of %d records", i, target)
		default:
		}

		recCtx := &generator.Context{
			PRNG:       collectionPRNG.Derive(strconv.Itoa(i)),
			Invocation: inv,
			Scratch:    runtime.NewScratch(),
			Path:       []string{name},
		}
		v, err := arr.Content.Produce(recCtx)
		if err != nil {
			_ = s.End(handle)
			return i, err
		}
		if err := s.Write(handle, v); err != nil {
			_ = s.End(handle)
			return i, diag.Wrap(diag.KindSink, name, err)
		}
		if reporter != nil {
			reporter.Increment(name)
		}
	}

	if err := s.End(handle); err != nil {
		return target, diag.Wrap(diag.KindSink, name, err)
	}
	if reporter != nil {
		reporter.Finish(name)
	}
	return target, nil
}
