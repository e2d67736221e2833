// Package runtime holds the per-run mutable state threaded through
// generation: the uniqueness memory and the reference cache.
// This is the "invocation record" of spec.md §3/§4.1 — owned by the driver,
// read and written only by the goroutine driving its subgraph (spec.md §5).
package runtime

import "github.com/loomgen/loom/internal/value"

// Invocation is the state that lives for the whole driver run: uniqueness
// memory per node, and the reference cache of produced values keyed by
// node path. It is not safe for concurrent use from more than one
// goroutine at a time for a given collection subgraph, matching spec.md
// §5's "no locks required in single-threaded mode; subgraphs are disjoint
// by construction" rule. Independent parallel subgraphs get independent
// Invocations.
type Invocation struct {
	unique map[string]map[string]struct{}
	// refCache holds, for a precomputed reference target, every value
	// produced at that path over the target collection's run.
	refCache map[string][]value.Value
	// refUsed tracks indices already sampled without replacement, keyed by
	// the *referrer* node's own identity (so two different unique
	// referrers sampling the same target each get their own without-
	// replacement cursor).
	refUsed map[string]map[int]struct{}
}

// New creates an empty Invocation.
func New() *Invocation {
	return &Invocation{
		unique:   make(map[string]map[string]struct{}),
		refCache: make(map[string][]value.Value),
		refUsed:  make(map[string]map[int]struct{}),
	}
}

// UniqueSeen reports whether key has already been produced for the node
// identified by nodeID.
func (inv *Invocation) UniqueSeen(nodeID, key string) bool {
	set, ok := inv.unique[nodeID]
	if !ok {
		return false
	}
	_, seen := set[key]
	return seen
}

// UniqueRemember records that key has now been produced for nodeID.
func (inv *Invocation) UniqueRemember(nodeID, key string) {
	set, ok := inv.unique[nodeID]
	if !ok {
		set = make(map[string]struct{})
		inv.unique[nodeID] = set
	}
	set[key] = struct{}{}
}

// UniqueCount returns how many distinct values have been produced so far
// for nodeID, used for feasibility diagnostics.
func (inv *Invocation) UniqueCount(nodeID string) int {
	return len(inv.unique[nodeID])
}

// AppendRef records a newly produced value at a reference target path, for
// later precomputed sampling by referrers.
func (inv *Invocation) AppendRef(targetPath string, v value.Value) {
	inv.refCache[targetPath] = append(inv.refCache[targetPath], v)
}

// RefValues returns the full, already-produced sequence of values at a
// reference target path.
func (inv *Invocation) RefValues(targetPath string) []value.Value {
	return inv.refCache[targetPath]
}

// MarkUsed records that index idx of targetPath has been sampled without
// replacement by referrerID.
func (inv *Invocation) MarkUsed(referrerID, targetPath string, idx int) {
	key := referrerID + "|" + targetPath
	set, ok := inv.refUsed[key]
	if !ok {
		set = make(map[int]struct{})
		inv.refUsed[key] = set
	}
	set[idx] = struct{}{}
}

// IsUsed reports whether index idx of targetPath has already been sampled
// without replacement by referrerID.
func (inv *Invocation) IsUsed(referrerID, targetPath string, idx int) bool {
	set, ok := inv.refUsed[referrerID+"|"+targetPath]
	if !ok {
		return false
	}
	_, used := set[idx]
	return used
}

// UsedCount reports how many without-replacement draws referrerID has made
// against targetPath.
func (inv *Invocation) UsedCount(referrerID, targetPath string) int {
	return len(inv.refUsed[referrerID+"|"+targetPath])
}

// Scratch holds the already-evaluated field values of the record currently
// being produced, keyed by dotted path relative to the record root. It is
// reset at the start of every top-level record and is what same-record
// SameAs resolution reads from.
type Scratch struct {
	values map[string]value.Value
}

// NewScratch creates an empty per-record scratch.
func NewScratch() *Scratch {
	return &Scratch{values: make(map[string]value.Value)}
}

// Set records the value produced at a relative path.
func (s *Scratch) Set(path string, v value.Value) {
	s.values[path] = v
}

// Get retrieves the value previously recorded at a relative path.
func (s *Scratch) Get(path string) (value.Value, bool) {
	v, ok := s.values[path]
	return v, ok
}
