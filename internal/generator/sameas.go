package generator

import (
	"github.com/loomgen/loom/internal/diag"
	"github.com/loomgen/loom/internal/value"
)

// ReferenceMode distinguishes the two resolution strategies of spec.md
// §4.3: Precomputed (the target collection is fully realized before the
// referrer runs, sampled from a cache) and SameRecord (the target is an
// already-evaluated sibling within the same object).
type ReferenceMode int

const (
	Precomputed ReferenceMode = iota
	SameRecord
)

// SameAsNode resolves an `@path` reference. TargetKey is the full dotted
// path used as the reference-cache key in Precomputed mode. SiblingPath is
// the path relative to the current record root used in SameRecord mode.
// ReferrerUnique marks that this node is wrapped by `unique: true`, which
// switches Precomputed sampling from with- to without-replacement per the
// Open Question resolved in spec.md §9 / DESIGN.md.
type SameAsNode struct {
	Path           string
	Ref            string
	Mode           ReferenceMode
	TargetKey      string
	SiblingPath    string
	ReferrerUnique bool
}

func (n *SameAsNode) ID() string { return n.Path }

func (n *SameAsNode) Produce(ctx *Context) (value.Value, error) {
	switch n.Mode {
	case SameRecord:
		v, ok := ctx.Scratch.Get(n.SiblingPath)
		if !ok {
			return nil, diag.New(diag.KindGeneration, n.Path, "same-record reference %q has not been evaluated yet", n.Ref)
		}
		return v, nil

	case Precomputed:
		return n.produceFromCache(ctx)

	default:
		return nil, diag.New(diag.KindConfiguration, n.Path, "unknown reference mode")
	}
}

func (n *SameAsNode) produceFromCache(ctx *Context) (value.Value, error) {
	values := ctx.Invocation.RefValues(n.TargetKey)
	if len(values) == 0 {
		return nil, diag.New(diag.KindGeneration, n.Path, "reference target %q has not produced any values", n.Ref)
	}

	if !n.ReferrerUnique {
		idx := int(ctx.PRNG.IntnBetween(0, int64(len(values)-1)))
		return values[idx], nil
	}

	// Without replacement: try up to 2*len(values) candidate indices.
	if ctx.Invocation.UsedCount(n.Path, n.TargetKey) >= len(values) {
		return nil, diag.New(diag.KindUnique, n.Path, "reference %q exhausted all %d distinct values available", n.Ref, len(values))
	}
	for attempt := 0; attempt < len(values)*2; attempt++ {
		idx := int(ctx.PRNG.IntnBetween(0, int64(len(values)-1)))
		if ctx.Invocation.IsUsed(n.Path, n.TargetKey, idx) {
			continue
		}
		ctx.Invocation.MarkUsed(n.Path, n.TargetKey, idx)
		return values[idx], nil
	}
	return nil, diag.New(diag.KindUnique, n.Path, "reference %q could not find an unused value after retrying", n.Ref)
}
