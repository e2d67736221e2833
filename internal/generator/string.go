package generator

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/loomgen/loom/internal/diag"
	"github.com/loomgen/loom/internal/value"
)

// StringVariant is the closed set of ways a string node can produce its
// value, per spec.md §3.
type StringVariant interface{ isStringVariant() }

// PatternVariant interprets a bounded regex-like grammar.
type PatternVariant struct{ Pattern string }

func (PatternVariant) isStringVariant() {}

// FakerVariant dispatches through the FakerAdapter trait boundary.
type FakerVariant struct {
	Generator string
	Locale    string
	Args      map[string]string
	Adapter   FakerAdapter
}

func (FakerVariant) isStringVariant() {}

// CategoricalVariant picks among weighted string options.
type CategoricalVariant struct {
	Options []string
	Weights []float64
}

func (CategoricalVariant) isStringVariant() {}

// UuidVariant produces a random UUID v4 string.
type UuidVariant struct{}

func (UuidVariant) isStringVariant() {}

// FormatVariant renders a template containing {placeholder} markers, each
// resolved by invoking the matching child Node and stringifying its value.
type FormatVariant struct {
	Template string
	Children map[string]Node
}

func (FormatVariant) isStringVariant() {}

// Encoding names a supported serialization for SerializedVariant.
type Encoding string

const (
	EncodingJSON   Encoding = "json"
	EncodingBase64 Encoding = "base64"
)

// SerializedVariant produces an inner value.Value via Inner, then encodes
// it to a string per Encoding.
type SerializedVariant struct {
	Inner    Node
	Encoding Encoding
}

func (SerializedVariant) isStringVariant() {}

// StringNode produces value.String according to its Variant.
type StringNode struct {
	Path    string
	Variant StringVariant
}

func (n *StringNode) ID() string { return n.Path }

func (n *StringNode) Produce(ctx *Context) (value.Value, error) {
	switch v := n.Variant.(type) {
	case PatternVariant:
		g := &patternGenerator{p: ctx.PRNG}
		s, err := g.generate(v.Pattern)
		if err != nil {
			return nil, diag.Wrap(diag.KindGeneration, n.Path, err)
		}
		return value.String(s), nil

	case FakerVariant:
		adapter := v.Adapter
		if adapter == nil {
			adapter = DefaultFakerAdapter{}
		}
		s, err := adapter.Generate(ctx.PRNG, v.Generator, v.Locale, v.Args)
		if err != nil {
			return nil, diag.New(diag.KindGeneration, n.Path, "faker generator %q: %v", v.Generator, err)
		}
		return value.String(s), nil

	case CategoricalVariant:
		if len(v.Options) == 0 {
			return nil, diag.New(diag.KindConfiguration, n.Path, "categorical string has no options")
		}
		idx := weightedIndex(ctx, v.Weights, len(v.Options))
		return value.String(v.Options[idx]), nil

	case UuidVariant:
		return value.String(uuidV4(ctx.PRNG)), nil

	case FormatVariant:
		return n.produceFormat(ctx, v)

	case SerializedVariant:
		return n.produceSerialized(ctx, v)

	default:
		return nil, diag.New(diag.KindConfiguration, n.Path, "unknown string variant %T", v)
	}
}

func (n *StringNode) produceFormat(ctx *Context, v FormatVariant) (value.Value, error) {
	var out strings.Builder
	template := v.Template
	i := 0
	for i < len(template) {
		if template[i] == '{' {
			end := strings.IndexByte(template[i:], '}')
			if end == -1 {
				out.WriteByte(template[i])
				i++
				continue
			}
			name := template[i+1 : i+end]
			child, ok := v.Children[name]
			if !ok {
				return nil, diag.New(diag.KindConfiguration, n.Path, "format placeholder %q has no matching generator", name)
			}
			childCtx := ctx.Child(name)
			val, err := child.Produce(childCtx)
			if err != nil {
				return nil, err
			}
			out.WriteString(stringify(val))
			i += end + 1
			continue
		}
		out.WriteByte(template[i])
		i++
	}
	return value.String(out.String()), nil
}

func (n *StringNode) produceSerialized(ctx *Context, v SerializedVariant) (value.Value, error) {
	innerCtx := ctx.Child("content")
	inner, err := v.Inner.Produce(innerCtx)
	if err != nil {
		return nil, err
	}
	switch v.Encoding {
	case EncodingBase64:
		raw, err := inner.MarshalJSON()
		if err != nil {
			return nil, diag.Wrap(diag.KindGeneration, n.Path, err)
		}
		return value.String(base64.StdEncoding.EncodeToString(raw)), nil
	case EncodingJSON, "":
		raw, err := inner.MarshalJSON()
		if err != nil {
			return nil, diag.Wrap(diag.KindGeneration, n.Path, err)
		}
		return value.String(string(raw)), nil
	default:
		return nil, diag.New(diag.KindConfiguration, n.Path, "unknown serialization encoding %q", v.Encoding)
	}
}

// stringify renders a Value as a bare string for FormatVariant
// interpolation (no surrounding JSON quotes for value.String).
func stringify(v value.Value) string {
	if s, ok := v.(value.String); ok {
		return string(s)
	}
	b, err := v.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// weightedIndex performs normalized weighted selection over n options.
// Equal weight (including the zero-weights-given case) when weights is
// nil or wrong length.
func weightedIndex(ctx *Context, weights []float64, n int) int {
	if len(weights) != n {
		return int(ctx.PRNG.IntnBetween(0, int64(n-1)))
	}
	var total float64
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return int(ctx.PRNG.IntnBetween(0, int64(n-1)))
	}
	draw := ctx.PRNG.Float64() * total
	var cum float64
	for i, w := range weights {
		cum += w
		if draw < cum {
			return i
		}
	}
	return n - 1
}
