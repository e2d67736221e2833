// Package schema parses a namespace document's YAML/JSON text into the
// generic, not-yet-typed rawNode tree that internal/namespace's compile
// pass turns into a generator.Node tree.
package schema

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// RawNode is the generic shape of one schema tree node, as parsed from a
// document before internal/namespace's compile pass assigns it a concrete generator.Node
// type. Every variant-specific key (range, pattern, content, variants,
// ref, ...) and every object field is kept as a raw *yaml.Node under
// Fields/Order, left for the namespace package to interpret once it knows
// which variant Type selects. Parsing JSON works through the same path:
// JSON is valid YAML, so one decoder covers both per spec.md §6.
type RawNode struct {
	Type     string
	Optional *yaml.Node // nil (absent), bool scalar, or numeric scalar frequency
	Unique   bool
	Line     int

	// Order lists the non-reserved keys in document order; Fields maps
	// each to its still-undecoded node. For type "object" these ARE the
	// field declarations, in the order the spec requires to be preserved.
	Order  []string
	Fields map[string]*yaml.Node
}

// reserved keys are handled by RawNode itself rather than left in Fields.
var reservedKeys = map[string]bool{"type": true, "optional": true, "unique": true}

// Parse decodes a document's top-level node into a RawNode tree.
func Parse(data []byte) (*RawNode, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, fmt.Errorf("schema: document is empty")
	}
	return decodeRawNode(doc.Content[0])
}

func decodeRawNode(node *yaml.Node) (*RawNode, error) {
	for node.Kind == yaml.DocumentNode {
		node = node.Content[0]
	}
	if node.Kind == yaml.AliasNode {
		node = node.Alias
	}

	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return nil, fmt.Errorf("line %d: a bare scalar node must be an '@...' shorthand string: %w", node.Line, err)
		}
		if !IsShorthandRef(s) {
			return nil, fmt.Errorf("line %d: bare string %q is not a valid same_as shorthand (must start with '@')", node.Line, s)
		}
		refNode := &yaml.Node{Kind: yaml.ScalarNode, Value: s, Tag: "!!str"}
		return &RawNode{
			Type:   "same_as",
			Line:   node.Line,
			Order:  []string{"ref"},
			Fields: map[string]*yaml.Node{"ref": refNode},
		}, nil

	case yaml.MappingNode:
		n := &RawNode{Line: node.Line, Fields: make(map[string]*yaml.Node)}
		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode, valNode := node.Content[i], node.Content[i+1]
			var key string
			if err := keyNode.Decode(&key); err != nil {
				return nil, fmt.Errorf("line %d: schema node keys must be strings", keyNode.Line)
			}
			switch {
			case key == "type":
				if err := valNode.Decode(&n.Type); err != nil {
					return nil, fmt.Errorf("line %d: 'type' must be a string", valNode.Line)
				}
			case key == "optional":
				n.Optional = valNode
			case key == "unique":
				if err := valNode.Decode(&n.Unique); err != nil {
					return nil, fmt.Errorf("line %d: 'unique' must be a boolean", valNode.Line)
				}
			case reservedKeys[key]:
				// unreachable, kept for clarity of intent
			default:
				if _, dup := n.Fields[key]; dup {
					return nil, fmt.Errorf("line %d: duplicate key %q", keyNode.Line, key)
				}
				n.Fields[key] = valNode
				n.Order = append(n.Order, key)
			}
		}
		if n.Type == "" {
			return nil, fmt.Errorf("line %d: schema node is missing required 'type' field", node.Line)
		}
		return n, nil

	default:
		return nil, fmt.Errorf("line %d: schema node must be a mapping or an '@...' shorthand string", node.Line)
	}
}

// DecodeNode re-decodes an arbitrary *yaml.Node (e.g. a one_of variant's
// "generator" key, or a format placeholder's child) as a RawNode. It is
// the same recursive step Child uses internally, exposed for callers that
// hold a *yaml.Node without an enclosing RawNode (internal/namespace's
// compile pass).
func DecodeNode(node *yaml.Node) (*RawNode, error) {
	return decodeRawNode(node)
}

// Child re-decodes one of n's variant-specific keys as a nested RawNode.
func (n *RawNode) Child(key string) (*RawNode, bool, error) {
	v, ok := n.Fields[key]
	if !ok {
		return nil, false, nil
	}
	child, err := decodeRawNode(v)
	if err != nil {
		return nil, true, err
	}
	return child, true, nil
}

// Scalar exposes a variant-specific key's raw node for direct decoding
// (strings, numbers, bools, sequences of scalars) when it isn't itself a
// nested schema node.
func (n *RawNode) Scalar(key string) (*yaml.Node, bool) {
	v, ok := n.Fields[key]
	return v, ok
}

// OptionalFrequency returns whether the node is optional and, if so, at
// what frequency. A bare `optional: true` defaults to 0.5 per spec.md §6;
// `optional: 0.2` sets the frequency directly.
func (n *RawNode) OptionalFrequency() (freq float64, isOptional bool, err error) {
	if n.Optional == nil {
		return 0, false, nil
	}
	var asBool bool
	if err := n.Optional.Decode(&asBool); err == nil {
		if !asBool {
			return 0, false, nil
		}
		return 0.5, true, nil
	}
	var asFloat float64
	if err := n.Optional.Decode(&asFloat); err != nil {
		return 0, false, fmt.Errorf("line %d: 'optional' must be a boolean or a number between 0 and 1", n.Optional.Line)
	}
	if asFloat < 0 || asFloat > 1 {
		return 0, false, fmt.Errorf("line %d: 'optional' frequency must be between 0 and 1, got %v", n.Optional.Line, asFloat)
	}
	return asFloat, true, nil
}
