package namespace

import (
	"sort"
	"strings"

	"github.com/loomgen/loom/internal/diag"
)

// topologicalOrder computes a generation order over collection names from
// the same_as reference edges discovered at compile time: a collection
// that references another must be generated after it. This is the same
// Kahn's-algorithm shape as internal/generator/autoseed.go's
// detectDependencies/topologicalSort (deleted, see DESIGN.md), generalized
// from `_id`-suffix sniffing to exact edges, and strict about cycles where
// autoseed.go silently appended the leftover nodes: spec.md §8 scenario 4
// requires load to fail with a ConfigurationError naming the actual cycle.
func topologicalOrder(collections []string, edges []refEdge) ([]string, error) {
	adj := make(map[string]map[string]bool, len(collections))
	inDegree := make(map[string]int, len(collections))
	for _, name := range collections {
		adj[name] = map[string]bool{}
		inDegree[name] = 0
	}

	seenEdge := map[[2]string]bool{}
	for _, e := range edges {
		if e.TargetCollection == e.ReferrerCollection {
			continue // same-record references never order collections
		}
		if _, ok := adj[e.TargetCollection]; !ok {
			return nil, diag.New(diag.KindConfiguration, e.Path, "reference %q names unknown collection %q", e.Ref, e.TargetCollection)
		}
		if _, ok := adj[e.ReferrerCollection]; !ok {
			return nil, diag.New(diag.KindConfiguration, e.Path, "reference %q is declared in unknown collection %q", e.Ref, e.ReferrerCollection)
		}
		key := [2]string{e.TargetCollection, e.ReferrerCollection}
		if seenEdge[key] {
			continue
		}
		seenEdge[key] = true
		adj[e.TargetCollection][e.ReferrerCollection] = true
		inDegree[e.ReferrerCollection]++
	}

	var queue []string
	for _, name := range collections {
		if inDegree[name] == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	order := make([]string, 0, len(collections))
	for len(queue) > 0 {
		sort.Strings(queue)
		next := queue[0]
		queue = queue[1:]
		order = append(order, next)

		neighbors := make([]string, 0, len(adj[next]))
		for nb := range adj[next] {
			neighbors = append(neighbors, nb)
		}
		sort.Strings(neighbors)
		for _, nb := range neighbors {
			inDegree[nb]--
			if inDegree[nb] == 0 {
				queue = append(queue, nb)
			}
		}
	}

	if len(order) != len(collections) {
		cycle := findCycle(collections, adj, order)
		return nil, diag.New(diag.KindConfiguration, "", "cycle: %s", cycle)
	}
	return order, nil
}

// findCycle reconstructs a concrete cycle among the collections Kahn's
// algorithm could not resolve, via DFS restricted to the unresolved set,
// so the ConfigurationError names the actual loop (e.g. "a -> b -> a")
// instead of just reporting "a cycle exists somewhere".
func findCycle(collections []string, adj map[string]map[string]bool, resolved []string) string {
	done := make(map[string]bool, len(resolved))
	for _, c := range resolved {
		done[c] = true
	}

	var remaining []string
	for _, c := range collections {
		if !done[c] {
			remaining = append(remaining, c)
		}
	}
	sort.Strings(remaining)

	visiting := map[string]bool{}
	visited := map[string]bool{}
	var path []string

	var dfs func(node string) []string
	dfs = func(node string) []string {
		visiting[node] = true
		path = append(path, node)

		neighbors := make([]string, 0, len(adj[node]))
		for nb := range adj[node] {
			if !done[nb] {
				neighbors = append(neighbors, nb)
			}
		}
		sort.Strings(neighbors)

		for _, nb := range neighbors {
			if visiting[nb] {
				idx := indexOf(path, nb)
				cyc := append(append([]string{}, path[idx:]...), nb)
				return cyc
			}
			if visited[nb] {
				continue
			}
			if cyc := dfs(nb); cyc != nil {
				return cyc
			}
		}

		visiting[node] = false
		visited[node] = true
		path = path[:len(path)-1]
		return nil
	}

	for _, c := range remaining {
		if visited[c] {
			continue
		}
		if cyc := dfs(c); cyc != nil {
			return strings.Join(cyc, " -> ")
		}
	}
	return strings.Join(remaining, " -> ")
}

// groupConnectedComponents partitions collections into independent
// reference-graph subgraphs (undirected connectivity over the same_as
// edges; an edge whose target and referrer are in the same collection is
// skipped, since it never links two collections), per spec.md §5:
// "Optional parallelism is restricted to independent collections...
// implemented by partitioning the namespace into independent subgraphs".
// Each group's members keep their relative order from `order` (the
// already-computed topological order), and groups are returned ordered by
// the position of their earliest member. Flattening the groups yields a
// topological order, but not necessarily `order` itself: all members of a
// group come before the next group, even where `order` interleaves them.
func groupConnectedComponents(order []string, edges []refEdge) [][]string {
	parent := make(map[string]string, len(order))
	for _, name := range order {
		parent[name] = name
	}
	var find func(string) string
	find = func(x string) string {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	union := func(a, b string) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}
	for _, e := range edges {
		if e.TargetCollection == e.ReferrerCollection {
			continue
		}
		if _, ok := parent[e.TargetCollection]; !ok {
			continue
		}
		if _, ok := parent[e.ReferrerCollection]; !ok {
			continue
		}
		union(e.TargetCollection, e.ReferrerCollection)
	}

	groupOf := make(map[string][]string)
	var rootsInOrder []string
	for _, name := range order {
		root := find(name)
		if _, seen := groupOf[root]; !seen {
			rootsInOrder = append(rootsInOrder, root)
		}
		groupOf[root] = append(groupOf[root], name)
	}

	groups := make([][]string, 0, len(rootsInOrder))
	for _, root := range rootsInOrder {
		groups = append(groups, groupOf[root])
	}
	return groups
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}
