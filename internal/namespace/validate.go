package namespace

import (
	"github.com/loomgen/loom/internal/diag"
	"github.com/loomgen/loom/internal/generator"
)

// validateTrees runs the static checks that can only be done once a
// collection's full node tree exists (as opposed to compile.go's
// per-node checks, which run during construction): zero-total-weight
// one_of nodes, per spec.md §8's edge-case list.
func validateTrees(trees map[string]generator.Node) error {
	for _, tree := range trees {
		var firstErr error
		walk(tree, func(n generator.Node) {
			if firstErr != nil {
				return
			}
			oneOf, ok := n.(*generator.OneOfNode)
			if !ok {
				return
			}
			var total float64
			for _, v := range oneOf.Variants {
				total += v.Weight
			}
			if total <= 0 {
				firstErr = diag.New(diag.KindConfiguration, oneOf.ID(), "one_of's variants have a total weight of %v; at least one must be positive", total)
			}
		})
		if firstErr != nil {
			return firstErr
		}
	}
	return nil
}

// validateSameAsTargets ensures every same_as reference — same-record or
// cross-collection — resolves to an actual node somewhere in its target
// collection's compiled tree, per spec.md §3: "Every SameAs(path) resolves
// to an existing node... detected before generation begins." Left
// unchecked, a dangling path segment into a collection that does exist
// (e.g. `@users.content.missing` when `users` has no such field) only
// surfaces at generation time, as the Precomputed resolver finding an
// empty reference cache and returning a GenerationError — too late per
// spec.md §7's eager configuration-error policy. By the time this runs,
// topologicalOrder has already rejected any edge naming an unknown
// collection, so every edge's TargetCollection is guaranteed present in
// trees.
func validateSameAsTargets(trees map[string]generator.Node, edges []refEdge) error {
	idSets := make(map[string]map[string]bool, len(trees))
	idsFor := func(collection string) map[string]bool {
		if ids, ok := idSets[collection]; ok {
			return ids
		}
		ids := map[string]bool{}
		walk(trees[collection], func(n generator.Node) { ids[n.ID()] = true })
		idSets[collection] = ids
		return ids
	}

	for _, e := range edges {
		if !idsFor(e.TargetCollection)[e.TargetPath] {
			return diag.New(diag.KindConfiguration, e.Path, "reference %q resolves to no node at %q in collection %q", e.Ref, e.TargetPath, e.TargetCollection)
		}
	}
	return nil
}
