// Package namespace loads a set of named collection documents, compiles
// each into a generator.Node tree, computes the cross-collection reference
// graph, and exposes the result as a Namespace the driver iterates in
// dependency order. It is the direct generalization of
// internal/generator/autoseed.go's dependency detection and topological
// sort (see DESIGN.md) from `_id`-suffix sniffing over OpenAPI resources to
// exact `same_as` path edges over the spec's own node grammar.
package namespace

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/loomgen/loom/internal/diag"
	"github.com/loomgen/loom/internal/generator"
	"github.com/loomgen/loom/internal/schema"
	"github.com/loomgen/loom/internal/value"
	"gopkg.in/yaml.v3"
)

// refEdge records one same_as edge discovered during compilation: Path is
// the referrer's own compile-time path, Ref is the raw `@...` string as
// written, TargetPath is the resolved dotted node path it points at, and
// ReferrerCollection is the collection the referrer lives in. The compile
// pass leaves ReferrerUnique unset; the sampling mode is carried by the
// SameAsNode's own ReferrerUnique field.
type refEdge struct {
	Path               string
	Ref                string
	TargetPath         string
	TargetCollection   string
	ReferrerCollection string
	ReferrerUnique     bool
}

// compiler carries the state threaded through one document's compile pass:
// the collection currently being built (for same-record detection), the
// frozen "now" used for date_time ranges with an open end, the discovered
// reference edges, and the set of target paths that need a RefCacheNode
// wrapper.
type compiler struct {
	collection string
	now        time.Time
	edges      []refEdge
	refTargets map[string]bool
}

// compile turns one collection's raw document root into a generator.Node.
// Every collection's document root must be `type: array` per spec.md §4.4
// ("Every top-level generator must be array-shaped").
func compile(collectionName string, root *schema.RawNode, now time.Time) (generator.Node, []refEdge, map[string]bool, error) {
	c := &compiler{collection: collectionName, now: now, refTargets: map[string]bool{}}
	if root.Type != "array" {
		return nil, nil, nil, diag.New(diag.KindConfiguration, collectionName, "collection's top-level generator must be type 'array', got %q", root.Type)
	}
	node, err := c.compileNode(collectionName, root)
	if err != nil {
		return nil, nil, nil, err
	}
	return node, c.edges, c.refTargets, nil
}

// compileNode dispatches on root.Type and wraps the result in Unique and
// then Optional per the modifier keys. When both are set, Optional is the
// outer node, so a Null it produces is neither checked against nor
// recorded in the uniqueness set. The RefCacheNode wrapper for a path that
// some same_as edge names is added later by wrapRefTargets, a second pass
// run from namespace.go, since a forward reference to a not-yet-compiled
// collection is legal.
func (c *compiler) compileNode(path string, raw *schema.RawNode) (generator.Node, error) {
	base, err := c.compileVariant(path, raw)
	if err != nil {
		return nil, err
	}

	if raw.Unique {
		base = &generator.UniqueNode{Path: path, Inner: base}
	}

	freq, isOptional, err := raw.OptionalFrequency()
	if err != nil {
		return nil, diag.Wrap(diag.KindConfiguration, path, err)
	}
	if isOptional {
		base = &generator.OptionalNode{Path: path, Frequency: freq, Inner: base}
	}

	return base, nil
}

func (c *compiler) compileVariant(path string, raw *schema.RawNode) (generator.Node, error) {
	switch raw.Type {
	case "null":
		return &generator.NullNode{Path: path}, nil

	case "bool":
		freq := 0.5
		if n, ok := raw.Scalar("frequency"); ok {
			if err := n.Decode(&freq); err != nil {
				return nil, diag.New(diag.KindConfiguration, path, "'frequency' must be a number")
			}
		}
		return &generator.BoolNode{Path: path, Frequency: freq}, nil

	case "number":
		return c.compileNumber(path, raw)

	case "string":
		return c.compileString(path, raw)

	case "date_time":
		return c.compileDateTime(path, raw)

	case "object":
		return c.compileObject(path, raw)

	case "array":
		return c.compileArray(path, raw)

	case "one_of":
		return c.compileOneOf(path, raw)

	case "same_as":
		return c.compileSameAs(path, raw)

	case "series":
		return &generator.SeriesNode{Path: path}, nil

	default:
		return nil, diag.New(diag.KindConfiguration, path, "unknown node type %q", raw.Type)
	}
}

func (c *compiler) compileNumber(path string, raw *schema.RawNode) (generator.Node, error) {
	subtype := value.FloatKind
	if n, ok := raw.Scalar("subtype"); ok {
		var s string
		if err := n.Decode(&s); err == nil && s == "int" {
			subtype = value.IntKind
		}
	}

	if n, ok := raw.Scalar("constant"); ok {
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, diag.New(diag.KindConfiguration, path, "'constant' must be a number")
		}
		return &generator.NumberNode{Path: path, Subtype: subtype, Variant: generator.ConstantVariant{Value: f}}, nil
	}

	if n, ok := raw.Scalar("id"); ok {
		startAt := int64(1)
		if m, err := decodeMapping(n); err == nil {
			if v, ok := m["start_at"]; ok {
				var i int64
				if err := v.Decode(&i); err == nil {
					startAt = i
				}
			}
		}
		subtype = value.IntKind
		return &generator.NumberNode{Path: path, Subtype: subtype, Variant: generator.NewIDVariant(startAt)}, nil
	}

	if n, ok := raw.Scalar("distribution"); ok {
		m, err := decodeMapping(n)
		if err != nil {
			return nil, diag.New(diag.KindConfiguration, path, "'distribution' must be a mapping")
		}
		kind := generator.DistUniform
		if v, ok := m["kind"]; ok {
			var s string
			if v.Decode(&s) == nil {
				kind = generator.DistributionKind(s)
			}
		}
		low, high := decodeFloat(m["low"], 0), decodeFloat(m["high"], 1)
		mean, stddev := decodeFloat(m["mean"], (low+high)/2), decodeFloat(m["stddev"], (high-low)/6)
		return &generator.NumberNode{Path: path, Subtype: subtype, Variant: generator.DistributionVariant{
			Kind: kind, Low: low, High: high, Mean: mean, StdDev: stddev,
		}}, nil
	}

	if n, ok := raw.Scalar("range"); ok {
		m, err := decodeMapping(n)
		if err != nil {
			return nil, diag.New(diag.KindConfiguration, path, "'range' must be a mapping")
		}
		low, high := decodeFloat(m["low"], 0), decodeFloat(m["high"], 0)
		step := decodeFloat(m["step"], 0)
		includeHigh := false
		if v, ok := m["include_high"]; ok {
			_ = v.Decode(&includeHigh)
		}
		if low == high && !includeHigh {
			return nil, diag.New(diag.KindConfiguration, path, "range [%v, %v) is empty: low == high and include_high is false", low, high)
		}
		return &generator.NumberNode{Path: path, Subtype: subtype, Variant: generator.RangeVariant{
			Low: low, High: high, Step: step, IncludeHigh: includeHigh,
		}}, nil
	}

	return nil, diag.New(diag.KindConfiguration, path, "number node requires one of: range, constant, id, distribution")
}

func (c *compiler) compileString(path string, raw *schema.RawNode) (generator.Node, error) {
	if n, ok := raw.Scalar("pattern"); ok {
		var p string
		if err := n.Decode(&p); err != nil {
			return nil, diag.New(diag.KindConfiguration, path, "'pattern' must be a string")
		}
		if err := generator.CompileCheckPattern(p); err != nil {
			return nil, diag.Wrap(diag.KindConfiguration, path, err)
		}
		return &generator.StringNode{Path: path, Variant: generator.PatternVariant{Pattern: p}}, nil
	}

	if n, ok := raw.Scalar("faker"); ok {
		m, err := decodeMapping(n)
		if err != nil {
			return nil, diag.New(diag.KindConfiguration, path, "'faker' must be a mapping")
		}
		name := decodeString(m["generator"], "")
		if name == "" {
			return nil, diag.New(diag.KindConfiguration, path, "'faker' requires a 'generator' name")
		}
		locale := decodeString(m["locale"], "")
		args := map[string]string{}
		for k, v := range m {
			if k == "generator" || k == "locale" {
				continue
			}
			args[k] = decodeString(v, "")
		}
		return &generator.StringNode{Path: path, Variant: generator.FakerVariant{Generator: name, Locale: locale, Args: args}}, nil
	}

	if n, ok := raw.Scalar("categorical"); ok {
		opts, weights, err := decodeCategorical(n)
		if err != nil {
			return nil, diag.Wrap(diag.KindConfiguration, path, err)
		}
		return &generator.StringNode{Path: path, Variant: generator.CategoricalVariant{Options: opts, Weights: weights}}, nil
	}

	if _, ok := raw.Scalar("uuid"); ok {
		return &generator.StringNode{Path: path, Variant: generator.UuidVariant{}}, nil
	}

	if n, ok := raw.Scalar("format"); ok {
		return c.compileStringFormat(path, n)
	}

	if innerRaw, ok, err := raw.Child("serialized"); ok || err != nil {
		if err != nil {
			return nil, err
		}
		encoding := generator.EncodingJSON
		if n, ok := raw.Scalar("encoding"); ok {
			var s string
			if n.Decode(&s) == nil {
				encoding = generator.Encoding(s)
			}
		}
		inner, err := c.compileNode(path+".content", innerRaw)
		if err != nil {
			return nil, err
		}
		return &generator.StringNode{Path: path, Variant: generator.SerializedVariant{Inner: inner, Encoding: encoding}}, nil
	}

	return nil, diag.New(diag.KindConfiguration, path, "string node requires one of: pattern, faker, categorical, uuid, format, serialized")
}

func (c *compiler) compileStringFormat(path string, formatNode *yaml.Node) (generator.Node, error) {
	m, err := decodeMapping(formatNode)
	if err != nil {
		return nil, diag.New(diag.KindConfiguration, path, "'format' must be a mapping with 'template' and 'children'")
	}
	template := decodeString(m["template"], "")
	children := map[string]generator.Node{}
	if childrenNode, ok := m["children"]; ok {
		names, nodes, err := decodeNamedChildren(childrenNode)
		if err != nil {
			return nil, diag.Wrap(diag.KindConfiguration, path, err)
		}
		for i, name := range names {
			child, err := c.compileNode(path+".format."+name, nodes[i])
			if err != nil {
				return nil, err
			}
			children[name] = child
		}
	}
	return &generator.StringNode{Path: path, Variant: generator.FormatVariant{Template: template, Children: children}}, nil
}

func (c *compiler) compileDateTime(path string, raw *schema.RawNode) (generator.Node, error) {
	format := "2006-01-02T15:04:05Z07:00"
	if n, ok := raw.Scalar("format"); ok {
		_ = n.Decode(&format)
	}
	subtype := generator.SubtypeDateTime
	if n, ok := raw.Scalar("subtype"); ok {
		var s string
		if n.Decode(&s) == nil {
			subtype = generator.DateTimeSubtype(s)
		}
	}
	begin := c.now.AddDate(-1, 0, 0)
	if n, ok := raw.Scalar("begin"); ok {
		var s string
		if n.Decode(&s) == nil {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				begin = t
			}
		}
	}
	end := c.now
	if n, ok := raw.Scalar("end"); ok {
		var s string
		if n.Decode(&s) == nil {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				end = t
			}
		}
	}
	return &generator.DateTimeNode{Path: path, Format: format, Begin: begin, End: end, Subtype: subtype}, nil
}

func (c *compiler) compileObject(path string, raw *schema.RawNode) (generator.Node, error) {
	fields := make([]generator.FieldSpec, 0, len(raw.Order))
	for _, name := range raw.Order {
		childRaw, ok, err := raw.Child(name)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		childPath := path + "." + name
		child, err := c.compileNode(childPath, childRaw)
		if err != nil {
			return nil, err
		}
		fields = append(fields, generator.FieldSpec{Name: name, Node: child})
	}
	return &generator.ObjectNode{Path: path, Fields: fields}, nil
}

func (c *compiler) compileArray(path string, raw *schema.RawNode) (generator.Node, error) {
	lengthRaw, ok, err := raw.Child("length")
	if err != nil {
		return nil, err
	}
	var lengthNode generator.Node
	if !ok {
		lengthNode = &generator.NumberNode{Path: path + ".length", Subtype: value.IntKind, Variant: generator.ConstantVariant{Value: 0}}
	} else {
		lengthNode, err = c.compileNode(path+".length", lengthRaw)
		if err != nil {
			return nil, err
		}
		// A length counts elements, so a number node that declares no
		// subtype produces integers here.
		if num, ok := lengthNode.(*generator.NumberNode); ok {
			if _, declared := lengthRaw.Scalar("subtype"); !declared {
				num.Subtype = value.IntKind
			}
		}
	}

	contentRaw, ok, err := raw.Child("content")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, diag.New(diag.KindConfiguration, path, "array node requires 'content'")
	}
	content, err := c.compileNode(path+".content", contentRaw)
	if err != nil {
		return nil, err
	}
	return &generator.ArrayNode{Path: path, Length: lengthNode, Content: content}, nil
}

func (c *compiler) compileOneOf(path string, raw *schema.RawNode) (generator.Node, error) {
	variantsNode, ok := raw.Fields["variants"]
	if !ok {
		return nil, diag.New(diag.KindConfiguration, path, "one_of node requires 'variants'")
	}
	items, err := decodeSequence(variantsNode)
	if err != nil {
		return nil, diag.Wrap(diag.KindConfiguration, path, err)
	}
	variants := make([]generator.WeightedVariant, 0, len(items))
	for i, item := range items {
		m, err := decodeMapping(item)
		if err != nil {
			return nil, diag.New(diag.KindConfiguration, path, "variants[%d] must be a mapping of weight/generator", i)
		}
		weight := decodeFloat(m["weight"], 1)
		genRaw, ok := m["generator"]
		if !ok {
			return nil, diag.New(diag.KindConfiguration, path, "variants[%d] requires a 'generator'", i)
		}
		childRaw, err := decodeRawNodeValue(genRaw)
		if err != nil {
			return nil, diag.Wrap(diag.KindConfiguration, path, err)
		}
		child, err := c.compileNode(path+".variant"+strconv.Itoa(i), childRaw)
		if err != nil {
			return nil, err
		}
		variants = append(variants, generator.WeightedVariant{Weight: weight, Node: child})
	}
	if len(variants) == 0 {
		return nil, diag.New(diag.KindConfiguration, path, "one_of has no variants")
	}
	return &generator.OneOfNode{Path: path, Variants: variants}, nil
}

func (c *compiler) compileSameAs(path string, raw *schema.RawNode) (generator.Node, error) {
	n, ok := raw.Scalar("ref")
	if !ok {
		return nil, diag.New(diag.KindConfiguration, path, "same_as node requires 'ref'")
	}
	var ref string
	if err := n.Decode(&ref); err != nil {
		return nil, diag.New(diag.KindConfiguration, path, "'ref' must be a string")
	}

	targetCollection, targetPath, err := parseRef(ref)
	if err != nil {
		return nil, diag.Wrap(diag.KindConfiguration, path, err)
	}

	mode := generator.Precomputed
	siblingPath := ""
	if targetCollection == c.collection {
		mode = generator.SameRecord
		siblingPath = relativeSiblingPath(c.collection, targetPath)
	}

	node := &generator.SameAsNode{
		Path:           path,
		Ref:            ref,
		Mode:           mode,
		TargetKey:      targetPath,
		SiblingPath:    siblingPath,
		ReferrerUnique: raw.Unique,
	}

	c.edges = append(c.edges, refEdge{
		Path:               path,
		Ref:                ref,
		TargetPath:         targetPath,
		TargetCollection:   targetCollection,
		ReferrerCollection: c.collection,
	})
	if mode == generator.Precomputed {
		c.refTargets[targetPath] = true
	}
	return node, nil
}

// parseRef splits `@Collection.segment.segment...` into the collection
// name and the full dotted target path (including the collection name, to
// match node.ID()), per spec.md §6's reference grammar.
func parseRef(ref string) (collection, targetPath string, err error) {
	if !strings.HasPrefix(ref, "@") {
		return "", "", fmt.Errorf("reference %q must start with '@'", ref)
	}
	body := ref[1:]
	parts := strings.Split(body, ".")
	if len(parts) < 2 {
		return "", "", fmt.Errorf("reference %q must name a collection and at least one path segment", ref)
	}
	return parts[0], body, nil
}

// relativeSiblingPath strips the leading "<collection>.content." prefix a
// same-record reference carries, leaving the path Scratch keys use
// (relative to the record root, see generator.Context.RelativePath).
func relativeSiblingPath(collection, targetPath string) string {
	prefix := collection + ".content."
	if strings.HasPrefix(targetPath, prefix) {
		return targetPath[len(prefix):]
	}
	return strings.TrimPrefix(targetPath, collection+".")
}
