package namespace

import (
	"sort"
	"time"

	"github.com/loomgen/loom/internal/diag"
	"github.com/loomgen/loom/internal/generator"
	"github.com/loomgen/loom/internal/schema"
)

// Namespace is the fully compiled, statically validated set of named
// collections spec.md §4.4 describes: "the set of top-level named
// collections... the unit a user invokes generation against." Names holds
// the generation order the driver should iterate in (topological on the
// reference graph, lexicographic tie-break, per spec.md §4.3).
type Namespace struct {
	Names       []string
	Collections map[string]generator.Node
	// Groups partitions Names into independent reference-graph subgraphs,
	// each internally still topologically ordered, for the driver's
	// optional concurrent mode (spec.md §5). Flattening Groups in order
	// gives a topological order, not necessarily Names itself.
	Groups [][]string
}

// Load parses and compiles a set of named documents into a validated
// Namespace. now is frozen once here and threaded through every date_time
// node with an open-ended range, so no node calls the clock during record
// emission (spec.md §9).
func Load(documents map[string][]byte, now time.Time) (*Namespace, error) {
	roots := make(map[string]*schema.RawNode, len(documents))
	names := make([]string, 0, len(documents))
	for name, data := range documents {
		root, err := schema.Parse(data)
		if err != nil {
			return nil, diag.Wrap(diag.KindConfiguration, name, err)
		}
		roots[name] = root
		names = append(names, name)
	}
	sort.Strings(names)
	return compileNamespace(names, roots, now)
}

func compileNamespace(names []string, roots map[string]*schema.RawNode, now time.Time) (*Namespace, error) {
	trees := make(map[string]generator.Node, len(names))
	var allEdges []refEdge
	targets := map[string]bool{}

	for _, name := range names {
		tree, edges, refTargets, err := compile(name, roots[name], now)
		if err != nil {
			return nil, err
		}
		trees[name] = tree
		allEdges = append(allEdges, edges...)
		for t := range refTargets {
			targets[t] = true
		}
	}

	for name, tree := range trees {
		trees[name] = wrapRefTargets(tree, targets, map[string]bool{})
	}

	order, err := topologicalOrder(names, allEdges)
	if err != nil {
		return nil, err
	}

	if err := validateSameAsTargets(trees, allEdges); err != nil {
		return nil, err
	}

	if err := validateTrees(trees); err != nil {
		return nil, err
	}

	groups := groupConnectedComponents(order, allEdges)
	return &Namespace{Names: order, Collections: trees, Groups: groups}, nil
}
