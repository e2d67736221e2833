// Package value defines the tagged value union produced by every generator
// node. Values are immutable once produced and know how to encode
// themselves as JSON in field order, independent of Go map iteration.
package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Value is the closed set of shapes a generator node can produce: Null,
// Bool, Number, String, DateTime, Array, Object. The marker method keeps the
// set closed to this package.
type Value interface {
	json.Marshaler
	isValue()
	// Equal reports structural equality, used by the uniqueness modifier.
	Equal(other Value) bool
}

// Null represents the JSON null value.
type Null struct{}

func (Null) isValue() {}

func (Null) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

func (Null) Equal(other Value) bool {
	_, ok := other.(Null)
	return ok
}

// Bool wraps a boolean value.
type Bool bool

func (Bool) isValue() {}

func (b Bool) MarshalJSON() ([]byte, error) { return json.Marshal(bool(b)) }

func (b Bool) Equal(other Value) bool {
	o, ok := other.(Bool)
	return ok && o == b
}

// NumberKind distinguishes integer and floating-point numbers, since the
// schema declares which subtype a number node produces.
type NumberKind int

const (
	IntKind NumberKind = iota
	FloatKind
)

// Number carries either an integer or a float payload, tagged by Kind.
type Number struct {
	Kind  NumberKind
	Int   int64
	Float float64
}

func Int(n int64) Number     { return Number{Kind: IntKind, Int: n} }
func Float(n float64) Number { return Number{Kind: FloatKind, Float: n} }

func (Number) isValue() {}

func (n Number) MarshalJSON() ([]byte, error) {
	if n.Kind == IntKind {
		return json.Marshal(n.Int)
	}
	return json.Marshal(n.Float)
}

func (n Number) Equal(other Value) bool {
	o, ok := other.(Number)
	if !ok {
		return false
	}
	if n.Kind != o.Kind {
		return false
	}
	if n.Kind == IntKind {
		return n.Int == o.Int
	}
	return n.Float == o.Float
}

// String wraps a UTF-8 string value.
type String string

func (String) isValue() {}

func (s String) MarshalJSON() ([]byte, error) { return json.Marshal(string(s)) }

func (s String) Equal(other Value) bool {
	o, ok := other.(String)
	return ok && o == s
}

// DateTime carries the formatted string representation a date_time node
// produced; the declared format is fixed at load time so the emitted string
// is exactly what the schema asked for.
type DateTime struct {
	Formatted string
}

func (DateTime) isValue() {}

func (d DateTime) MarshalJSON() ([]byte, error) { return json.Marshal(d.Formatted) }

func (d DateTime) Equal(other Value) bool {
	o, ok := other.(DateTime)
	return ok && o.Formatted == d.Formatted
}

// Array is an ordered sequence of values.
type Array []Value

func (Array) isValue() {}

func (a Array) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, v := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := v.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func (a Array) Equal(other Value) bool {
	o, ok := other.(Array)
	if !ok || len(o) != len(a) {
		return false
	}
	for i := range a {
		if !a[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// Field is one named slot of an Object, kept in declared order.
type Field struct {
	Name  string
	Value Value
}

// Object is an ordered mapping from field name to value. Order is preserved
// for output; it is not semantically significant for equality.
type Object []Field

func (Object) isValue() {}

func (o Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		v, err := f.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Get returns the value of the named field and whether it was present.
func (o Object) Get(name string) (Value, bool) {
	for _, f := range o {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

func (o Object) Equal(other Value) bool {
	oo, ok := other.(Object)
	if !ok || len(oo) != len(o) {
		return false
	}
	// Field order is not semantically significant, so compare as sets of
	// name->value pairs sorted by name.
	a := append(Object(nil), o...)
	b := append(Object(nil), oo...)
	sort.Slice(a, func(i, j int) bool { return a[i].Name < a[j].Name })
	sort.Slice(b, func(i, j int) bool { return b[i].Name < b[j].Name })
	for i := range a {
		if a[i].Name != b[i].Name || !a[i].Value.Equal(b[i].Value) {
			return false
		}
	}
	return true
}

// CanonicalKey returns a deterministic byte encoding of v suitable for use
// as a uniqueness-set key. It differs from MarshalJSON only in that Object
// fields are sorted by name, so two structurally equal objects with
// differently-ordered fields hash to the same key.
func CanonicalKey(v Value) string {
	switch t := v.(type) {
	case Object:
		sorted := append(Object(nil), t...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, f := range sorted {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(fmt.Sprintf("%q:%s", f.Name, CanonicalKey(f.Value)))
		}
		buf.WriteByte('}')
		return buf.String()
	case Array:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(CanonicalKey(e))
		}
		buf.WriteByte(']')
		return buf.String()
	default:
		b, err := v.MarshalJSON()
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}
