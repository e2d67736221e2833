package namespace

import (
	"fmt"

	"github.com/loomgen/loom/internal/schema"
	"gopkg.in/yaml.v3"
)

// decodeMapping reads a *yaml.Node known to be a mapping into a plain
// key->node map. Callers that need declaration order (object fields) go
// through schema.RawNode.Order/Fields instead; this helper is only used
// for small, order-insensitive variant configuration (range bounds, faker
// args, and so on).
func decodeMapping(n *yaml.Node) (map[string]*yaml.Node, error) {
	if n == nil {
		return map[string]*yaml.Node{}, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping", n.Line)
	}
	m := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		var key string
		if err := n.Content[i].Decode(&key); err != nil {
			return nil, fmt.Errorf("line %d: mapping keys must be strings", n.Content[i].Line)
		}
		m[key] = n.Content[i+1]
	}
	return m, nil
}

// decodeSequence reads a *yaml.Node known to be a sequence into its
// element nodes.
func decodeSequence(n *yaml.Node) ([]*yaml.Node, error) {
	if n == nil || n.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("expected a sequence")
	}
	return n.Content, nil
}

// decodeFloat decodes n as a float64, or returns def if n is nil or not a
// number.
func decodeFloat(n *yaml.Node, def float64) float64 {
	if n == nil {
		return def
	}
	var f float64
	if err := n.Decode(&f); err != nil {
		return def
	}
	return f
}

// decodeString decodes n as a string, or returns def if n is nil or not a
// scalar string.
func decodeString(n *yaml.Node, def string) string {
	if n == nil {
		return def
	}
	var s string
	if err := n.Decode(&s); err != nil {
		return def
	}
	return s
}

// decodeCategorical reads a `categorical` key's sequence, accepting either
// bare scalar strings (equal weight 1) or `{value, weight}` mappings.
func decodeCategorical(n *yaml.Node) (options []string, weights []float64, err error) {
	items, err := decodeSequence(n)
	if err != nil {
		return nil, nil, fmt.Errorf("'categorical' must be a sequence: %w", err)
	}
	for i, item := range items {
		if item.Kind == yaml.ScalarNode {
			var s string
			if err := item.Decode(&s); err != nil {
				return nil, nil, fmt.Errorf("categorical option %d must be a string", i)
			}
			options = append(options, s)
			weights = append(weights, 1)
			continue
		}
		m, err := decodeMapping(item)
		if err != nil {
			return nil, nil, fmt.Errorf("categorical option %d must be a string or a {value, weight} mapping", i)
		}
		options = append(options, decodeString(m["value"], ""))
		weights = append(weights, decodeFloat(m["weight"], 1))
	}
	return options, weights, nil
}

// decodeNamedChildren reads a mapping of name -> nested generator node,
// preserving declaration order the way schema.RawNode.Order does for
// object fields.
func decodeNamedChildren(n *yaml.Node) (names []string, nodes []*schema.RawNode, err error) {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil, nil, fmt.Errorf("'children' must be a mapping")
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		keyNode, valNode := n.Content[i], n.Content[i+1]
		var key string
		if err := keyNode.Decode(&key); err != nil {
			return nil, nil, fmt.Errorf("line %d: children keys must be strings", keyNode.Line)
		}
		child, err := schema.DecodeNode(valNode)
		if err != nil {
			return nil, nil, err
		}
		names = append(names, key)
		nodes = append(nodes, child)
	}
	return names, nodes, nil
}

// decodeRawNodeValue re-decodes an arbitrary node value as a schema.RawNode
// (used for one_of variants' "generator" key).
func decodeRawNodeValue(n *yaml.Node) (*schema.RawNode, error) {
	return schema.DecodeNode(n)
}
