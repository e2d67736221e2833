package generator

import "github.com/loomgen/loom/internal/value"

// NullNode always produces value.Null{}.
type NullNode struct{ Path string }

func (n *NullNode) ID() string { return n.Path }

func (n *NullNode) Produce(ctx *Context) (value.Value, error) {
	return value.Null{}, nil
}

// BoolNode is a Bernoulli draw with the declared frequency of true.
type BoolNode struct {
	Path      string
	Frequency float64
}

func (n *BoolNode) ID() string { return n.Path }

func (n *BoolNode) Produce(ctx *Context) (value.Value, error) {
	return value.Bool(ctx.PRNG.Bool(n.Frequency)), nil
}
