package generator

import (
	"github.com/loomgen/loom/internal/diag"
	"github.com/loomgen/loom/internal/value"
)

// WeightedVariant pairs a generator with its selection weight.
type WeightedVariant struct {
	Weight float64
	Node   Node
}

// OneOfNode performs weighted selection over Variants, normalizing weights
// at selection time. A zero total weight is a load-time ConfigurationError
// (checked by the namespace package's validateTrees, not here).
type OneOfNode struct {
	Path     string
	Variants []WeightedVariant
}

func (n *OneOfNode) ID() string { return n.Path }

func (n *OneOfNode) Produce(ctx *Context) (value.Value, error) {
	if len(n.Variants) == 0 {
		return nil, diag.New(diag.KindConfiguration, n.Path, "one_of has no variants")
	}
	weights := make([]float64, len(n.Variants))
	for i, v := range n.Variants {
		weights[i] = v.Weight
	}
	idx := weightedIndex(ctx, weights, len(n.Variants))
	chosen := n.Variants[idx].Node
	return chosen.Produce(ctx.Child("variant"))
}

// SeriesNode is reserved by the node-variant discriminator for time-series
// compositions. It is out of scope for this engine (spec.md §3) and always
// fails fast with a clear ConfigurationError if a schema document names it,
// rather than silently producing nonsense.
type SeriesNode struct{ Path string }

func (n *SeriesNode) ID() string { return n.Path }

func (n *SeriesNode) Produce(ctx *Context) (value.Value, error) {
	return nil, diag.New(diag.KindConfiguration, n.Path, "series generators are reserved and not yet implemented")
}
