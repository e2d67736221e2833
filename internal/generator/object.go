package generator

import "github.com/loomgen/loom/internal/value"

// FieldSpec is one named field of an ObjectNode, evaluated in this order.
type FieldSpec struct {
	Name string
	Node Node
}

// ObjectNode evaluates each field in declared order, extending the current
// record path with the field name before delegating, per spec.md §4.1.
// Evaluation order matters for reference resolution (same-record SameAs)
// and for the order uniqueness draws are observed in.
type ObjectNode struct {
	Path   string
	Fields []FieldSpec
}

func (n *ObjectNode) ID() string { return n.Path }

func (n *ObjectNode) Produce(ctx *Context) (value.Value, error) {
	obj := make(value.Object, 0, len(n.Fields))
	for _, f := range n.Fields {
		fieldCtx := ctx.Child(f.Name)
		v, err := f.Node.Produce(fieldCtx)
		if err != nil {
			return nil, err
		}
		ctx.Scratch.Set(fieldCtx.RelativePath(), v)
		obj = append(obj, value.Field{Name: f.Name, Value: v})
	}
	return obj, nil
}
