package generator

import "github.com/loomgen/loom/internal/value"

// RefCacheNode wraps any node that is the target of at least one same_as
// reference elsewhere in the namespace. After delegating, it appends the
// produced value to the invocation's reference cache under its own path,
// so a Precomputed SameAsNode (sameas.go) can later sample it regardless
// of which record or collection index produced it — spec.md §4.3's
// "caches the sequence of values produced at the target path". Nodes that
// are never referenced are left unwrapped; compile (internal/namespace)
// only applies this to nodes actually named by a same_as ref.
type RefCacheNode struct {
	Path  string
	Inner Node
}

func (n *RefCacheNode) ID() string { return n.Path }

func (n *RefCacheNode) Produce(ctx *Context) (value.Value, error) {
	v, err := n.Inner.Produce(ctx)
	if err != nil {
		return nil, err
	}
	ctx.Invocation.AppendRef(n.Path, v)
	return v, nil
}
