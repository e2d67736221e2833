package namespace

import "github.com/loomgen/loom/internal/generator"

// wrapRefTargets walks a compiled node tree, replacing every node whose ID
// appears in targets with a generator.RefCacheNode, so a Precomputed
// same_as lookup anywhere in the namespace can sample its full produced
// sequence (spec.md §4.3). This is a second pass over each collection's
// already-built tree because whether a path needs caching isn't known
// until every collection has been compiled — forward references across
// collections are legal.
//
// A node wrapped by optional/unique shares its Path with its Inner (see
// compile.go's compileNode), so the wrap must happen exactly once at the
// outermost occurrence of a given path; wrapped tracks paths already
// handled so the recursion into Inner doesn't wrap the same path again.
func wrapRefTargets(node generator.Node, targets, wrapped map[string]bool) generator.Node {
	if node == nil {
		return nil
	}
	id := node.ID()
	if targets[id] && !wrapped[id] {
		wrapped[id] = true
		inner := wrapChildren(node, targets, wrapped)
		return &generator.RefCacheNode{Path: id, Inner: inner}
	}
	return wrapChildren(node, targets, wrapped)
}

func wrapChildren(node generator.Node, targets, wrapped map[string]bool) generator.Node {
	switch n := node.(type) {
	case *generator.ObjectNode:
		fields := make([]generator.FieldSpec, len(n.Fields))
		for i, f := range n.Fields {
			fields[i] = generator.FieldSpec{Name: f.Name, Node: wrapRefTargets(f.Node, targets, wrapped)}
		}
		return &generator.ObjectNode{Path: n.Path, Fields: fields}

	case *generator.ArrayNode:
		return &generator.ArrayNode{
			Path:    n.Path,
			Length:  wrapRefTargets(n.Length, targets, wrapped),
			Content: wrapRefTargets(n.Content, targets, wrapped),
		}

	case *generator.OneOfNode:
		variants := make([]generator.WeightedVariant, len(n.Variants))
		for i, v := range n.Variants {
			variants[i] = generator.WeightedVariant{Weight: v.Weight, Node: wrapRefTargets(v.Node, targets, wrapped)}
		}
		return &generator.OneOfNode{Path: n.Path, Variants: variants}

	case *generator.OptionalNode:
		return &generator.OptionalNode{Path: n.Path, Frequency: n.Frequency, Inner: wrapRefTargets(n.Inner, targets, wrapped)}

	case *generator.UniqueNode:
		return &generator.UniqueNode{Path: n.Path, Inner: wrapRefTargets(n.Inner, targets, wrapped), Retries: n.Retries}

	case *generator.StringNode:
		switch v := n.Variant.(type) {
		case generator.FormatVariant:
			children := make(map[string]generator.Node, len(v.Children))
			for name, child := range v.Children {
				children[name] = wrapRefTargets(child, targets, wrapped)
			}
			return &generator.StringNode{Path: n.Path, Variant: generator.FormatVariant{Template: v.Template, Children: children}}
		case generator.SerializedVariant:
			return &generator.StringNode{Path: n.Path, Variant: generator.SerializedVariant{Inner: wrapRefTargets(v.Inner, targets, wrapped), Encoding: v.Encoding}}
		default:
			return n
		}

	default:
		return n
	}
}

// walk visits every node reachable from root, depth-first, for read-only
// static checks (validate.go's one_of weight check).
func walk(node generator.Node, visit func(generator.Node)) {
	if node == nil {
		return
	}
	visit(node)
	switch n := node.(type) {
	case *generator.ObjectNode:
		for _, f := range n.Fields {
			walk(f.Node, visit)
		}
	case *generator.ArrayNode:
		walk(n.Length, visit)
		walk(n.Content, visit)
	case *generator.OneOfNode:
		for _, v := range n.Variants {
			walk(v.Node, visit)
		}
	case *generator.OptionalNode:
		walk(n.Inner, visit)
	case *generator.UniqueNode:
		walk(n.Inner, visit)
	case *generator.RefCacheNode:
		walk(n.Inner, visit)
	case *generator.StringNode:
		switch v := n.Variant.(type) {
		case generator.FormatVariant:
			for _, child := range v.Children {
				walk(child, visit)
			}
		case generator.SerializedVariant:
			walk(v.Inner, visit)
		}
	}
}
