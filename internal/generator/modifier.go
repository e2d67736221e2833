package generator

import (
	"github.com/loomgen/loom/internal/diag"
	"github.com/loomgen/loom/internal/value"
)

// DefaultUniqueRetries is how many times Unique re-invokes its wrapped node
// on a collision before giving up, per spec.md §4.2.
const DefaultUniqueRetries = 64

// OptionalNode replaces its wrapped node's output with Null with
// probability Frequency, drawing the decision *before* delegating so a
// false draw never advances the wrapped node's PRNG stream — the ordering
// spec.md §4.2 requires to keep optionality orthogonal to the wrapped
// generator's determinism.
type OptionalNode struct {
	Path      string
	Frequency float64
	Inner     Node
}

func (n *OptionalNode) ID() string { return n.Path }

func (n *OptionalNode) Produce(ctx *Context) (value.Value, error) {
	decisionCtx := ctx.Child("optional")
	if decisionCtx.PRNG.Bool(n.Frequency) {
		return value.Null{}, nil
	}
	return n.Inner.Produce(ctx)
}

// UniqueNode memoizes its wrapped node's outputs in a per-node set, keyed
// by structural equality (value.CanonicalKey), retrying up to Retries times
// on collision before failing with UniquenessExhausted. When Inner is
// itself wrapped in Optional (unique ∘ optional composition), Null
// participates in the uniqueness set, per spec.md §4.2.
type UniqueNode struct {
	Path    string
	Inner   Node
	Retries int
}

func (n *UniqueNode) ID() string { return n.Path }

func (n *UniqueNode) Produce(ctx *Context) (value.Value, error) {
	retries := n.Retries
	if retries <= 0 {
		retries = DefaultUniqueRetries
	}

	for attempt := 0; attempt <= retries; attempt++ {
		v, err := n.Inner.Produce(ctx)
		if err != nil {
			return nil, err
		}
		key := value.CanonicalKey(v)
		if !ctx.Invocation.UniqueSeen(n.Path, key) {
			ctx.Invocation.UniqueRemember(n.Path, key)
			return v, nil
		}
	}
	return nil, diag.New(diag.KindUnique, n.Path, "exhausted %d attempts without finding a new unique value (%d distinct values produced so far)", retries, ctx.Invocation.UniqueCount(n.Path))
}
