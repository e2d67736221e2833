package generator

import (
	"github.com/loomgen/loom/internal/diag"
	"github.com/loomgen/loom/internal/value"
)

// MaxArrayLength bounds Array.length per spec.md §3's "finite, non-negative
// integer ≤ an implementation-defined bound" invariant.
const MaxArrayLength = 1_000_000

// ArrayNode first evaluates Length (must be a non-negative integer kind),
// then produces that many elements by repeated evaluation of Content with
// the index appended to the current record path, per spec.md §4.1.
type ArrayNode struct {
	Path    string
	Length  Node
	Content Node
}

func (n *ArrayNode) ID() string { return n.Path }

func (n *ArrayNode) Produce(ctx *Context) (value.Value, error) {
	lengthCtx := ctx.Child("length")
	lengthVal, err := n.Length.Produce(lengthCtx)
	if err != nil {
		return nil, err
	}
	num, ok := lengthVal.(value.Number)
	if !ok || num.Kind != value.IntKind {
		return nil, diag.New(diag.KindGeneration, n.Path, "array length must evaluate to an integer")
	}
	if num.Int < 0 {
		return nil, diag.New(diag.KindGeneration, n.Path, "array length evaluated to a negative value (%d)", num.Int)
	}
	if num.Int > MaxArrayLength {
		return nil, diag.New(diag.KindGeneration, n.Path, "array length %d exceeds the maximum of %d", num.Int, MaxArrayLength)
	}

	count := int(num.Int)
	elements := make(value.Array, count)
	for i := 0; i < count; i++ {
		elemCtx := ctx.Child(indexSegment(i))
		v, err := n.Content.Produce(elemCtx)
		if err != nil {
			return nil, err
		}
		elements[i] = v
	}
	return elements, nil
}
