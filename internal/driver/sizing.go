package driver

import (
	"github.com/loomgen/loom/internal/diag"
	"github.com/loomgen/loom/internal/generator"
	"github.com/loomgen/loom/internal/namespace"
	"github.com/loomgen/loom/internal/prng"
	"github.com/loomgen/loom/internal/runtime"
	"github.com/loomgen/loom/internal/value"
)

// lengthHint peels back the modifier/ref-cache wrappers compile.go and
// wrapRefTargets may have placed around a collection's declared `length`
// node, and returns the node's constant value if it is a constant number
// — the only shape spec.md §4.5 calls a "declared length hint" usable as
// a distribution weight. Any other shape (a range, a distribution, a
// reference) carries no usable static weight, so it reports ok=false and
// sizing gives that collection a weight of 1 (an even split when no
// collection has a hint).
func lengthHint(n generator.Node) (float64, bool) {
	for {
		switch t := n.(type) {
		case *generator.OptionalNode:
			n = t.Inner
		case *generator.UniqueNode:
			n = t.Inner
		case *generator.RefCacheNode:
			n = t.Inner
		case *generator.NumberNode:
			c, ok := t.Variant.(generator.ConstantVariant)
			if !ok {
				return 0, false
			}
			return c.Value, true
		default:
			return 0, false
		}
	}
}

// declaredLength evaluates a collection's own `length` node to get its
// actual record count, exactly as generator.ArrayNode.Produce would, but
// without materializing the array itself. Used per spec.md §4.5: "if no
// global size is given", a collection's declared length is authoritative
// rather than merely a distribution weight.
func declaredLength(ns *namespace.Namespace, name string, root *prng.Source, inv *runtime.Invocation) (int, error) {
	tree, ok := ns.Collections[name]
	if !ok {
		return 0, diag.New(diag.KindConfiguration, name, "collection not found in namespace")
	}
	arr, ok := tree.(*generator.ArrayNode)
	if !ok {
		return 0, diag.New(diag.KindConfiguration, name, "top-level collection node is not an array")
	}

	ctx := &generator.Context{
		PRNG:       root.Derive(name),
		Invocation: inv,
		Scratch:    runtime.NewScratch(),
		Path:       []string{name},
	}
	lengthVal, err := arr.Length.Produce(ctx.Child("length"))
	if err != nil {
		return 0, err
	}
	num, ok := lengthVal.(value.Number)
	if !ok || num.Kind != value.IntKind {
		return 0, diag.New(diag.KindGeneration, name, "array length must evaluate to an integer")
	}
	if num.Int < 0 {
		return 0, diag.New(diag.KindGeneration, name, "array length evaluated to a negative value (%d)", num.Int)
	}
	if num.Int > generator.MaxArrayLength {
		return 0, diag.New(diag.KindGeneration, name, "array length %d exceeds the maximum of %d", num.Int, generator.MaxArrayLength)
	}
	return int(num.Int), nil
}

// collectionSizes computes the per-collection target record count, per
// spec.md §4.5. An explicit per-collection size (--collection) always wins
// for the collection it names. Of the rest: if no global size was given
// (sizeGiven is false), each collection's own declared `length` node is
// evaluated and used as its actual count — `length` is authoritative, not
// a weight, in the absence of --size. If a global size was given, every
// remaining collection instead shares the whole of totalSize (explicit
// per-collection counts are not subtracted from it), distributed
// proportionally to each collection's declared `length` constant hint
// (falling back to an even split when no collection has a usable hint);
// the largest-remainder method keeps the distributed total exactly equal
// to totalSize.
func collectionSizes(ns *namespace.Namespace, totalSize int, sizeGiven bool, explicit map[string]int, root *prng.Source, inv *runtime.Invocation) (map[string]int, error) {
	sizes := make(map[string]int, len(ns.Names))
	var remaining []string
	for _, name := range ns.Names {
		if n, ok := explicit[name]; ok {
			sizes[name] = n
			continue
		}
		remaining = append(remaining, name)
	}

	if !sizeGiven {
		for _, name := range remaining {
			n, err := declaredLength(ns, name, root, inv)
			if err != nil {
				return nil, err
			}
			sizes[name] = n
		}
		return sizes, nil
	}

	leftover := totalSize
	if len(remaining) == 0 || leftover <= 0 {
		for _, name := range remaining {
			sizes[name] = 0
		}
		return sizes, nil
	}

	weights := make(map[string]float64, len(remaining))
	var totalWeight float64
	anyHint := false
	for _, name := range remaining {
		tree, ok := ns.Collections[name]
		if !ok {
			weights[name] = 1
			totalWeight++
			continue
		}
		arr, ok := tree.(*generator.ArrayNode)
		if !ok {
			weights[name] = 1
			totalWeight++
			continue
		}
		if hint, ok := lengthHint(arr.Length); ok && hint > 0 {
			weights[name] = hint
			totalWeight += hint
			anyHint = true
			continue
		}
		weights[name] = 1
		totalWeight++
	}
	if !anyHint {
		// No collection declared a usable hint: split evenly.
		for _, name := range remaining {
			weights[name] = 1
		}
		totalWeight = float64(len(remaining))
	}

	type share struct {
		name string
		frac float64
	}
	shares := make([]share, 0, len(remaining))
	assigned := 0
	for _, name := range remaining {
		exact := float64(leftover) * weights[name] / totalWeight
		whole := int(exact)
		sizes[name] = whole
		assigned += whole
		shares = append(shares, share{name: name, frac: exact - float64(whole)})
	}
	// Largest-remainder method: hand out the leftover units to the
	// collections whose fractional share was largest, so distribution
	// never drops or invents a record relative to totalSize.
	left := leftover - assigned
	for left > 0 {
		best := -1
		for i, s := range shares {
			if s.frac < 0 {
				continue
			}
			if best == -1 || s.frac > shares[best].frac {
				best = i
			}
		}
		if best == -1 {
			break
		}
		sizes[shares[best].name]++
		shares[best].frac = -1
		left--
	}
	return sizes, nil
}
