// Package ldvalue provides an immutable representation of a JSON value for use in event
// payloads and user attributes. Unlike a bare interface{}, Value always marshals
// consistently regardless of how it was built. A Value that was never set is JSON null.
package ldvalue

import (
	"github.com/launchdarkly/go-jsonstream/v3/jreader"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
)

// ValueType describes the kind of value a Value holds.
type ValueType int

const (
	NullType ValueType = iota
	BoolType
	NumberType
	StringType
	ArrayType
	ObjectType
)

// Value is an immutable wrapper for an arbitrary JSON value. It holds slices and maps, so
// it cannot be compared with ==.
type Value struct {
	valueType ValueType
	boolValue bool
	numValue  float64
	strValue  string
	arrValue  []Value
	objValue  map[string]Value
}

// Null returns a Value representing JSON null.
func Null() Value { return Value{valueType: NullType} }

// Bool wraps a bool.
func Bool(b bool) Value { return Value{valueType: BoolType, boolValue: b} }

// Int wraps an int as a JSON number.
func Int(n int) Value { return Value{valueType: NumberType, numValue: float64(n)} }

// Float64 wraps a float64 as a JSON number.
func Float64(n float64) Value { return Value{valueType: NumberType, numValue: n} }

// String wraps a string. An empty Go string still produces a JSON string, not null;
// use Null() explicitly for an absent/null value.
func String(s string) Value { return Value{valueType: StringType, strValue: s} }

// ArrayOf builds an array Value from the given elements.
func ArrayOf(values ...Value) Value {
	cp := make([]Value, len(values))
	copy(cp, values)
	return Value{valueType: ArrayType, arrValue: cp}
}

// IsNull returns true if this represents JSON null (or was never set).
func (v Value) IsNull() bool { return v.valueType == NullType }

// Type returns the value's type.
func (v Value) Type() ValueType { return v.valueType }

// BoolValue returns the bool value, or false if not a bool.
func (v Value) BoolValue() bool { return v.boolValue }

// StringValue returns the string value, or "" if not a string.
func (v Value) StringValue() string { return v.strValue }

// Float64Value returns the numeric value, or 0 if not a number.
func (v Value) Float64Value() float64 { return v.numValue }

// IntValue returns the numeric value truncated to int.
func (v Value) IntValue() int { return int(v.numValue) }

// AsPointer returns a *Value for embedding as an "omit if nil" JSON field, or nil if
// this Value is null. This mirrors the pattern the wire formatter uses for "include a
// field only if it has a real value".
func (v Value) AsPointer() *Value {
	if v.IsNull() {
		return nil
	}
	cp := v
	return &cp
}

// ObjectBuilder incrementally builds an object Value.
type ObjectBuilder struct {
	props map[string]Value
}

// ObjectBuild starts building a new object Value.
func ObjectBuild() *ObjectBuilder {
	return &ObjectBuilder{props: make(map[string]Value)}
}

// Set adds or replaces a property.
func (b *ObjectBuilder) Set(name string, value Value) *ObjectBuilder {
	b.props[name] = value
	return b
}

// Build finalizes the object.
func (b *ObjectBuilder) Build() Value {
	cp := make(map[string]Value, len(b.props))
	for k, v := range b.props {
		cp[k] = v
	}
	return Value{valueType: ObjectType, objValue: cp}
}

// MarshalJSON implements json.Marshaler, writing directly with go-jsonstream's streaming
// writer rather than reflecting over the underlying representation.
func (v Value) MarshalJSON() ([]byte, error) {
	w := jwriter.NewWriter()
	v.WriteToJSONWriter(&w)
	if err := w.Error(); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// WriteToJSONWriter writes the value directly onto an in-progress writer, for callers
// (such as the event output formatter) that are already composing a larger JSON document.
func (v Value) WriteToJSONWriter(w *jwriter.Writer) {
	switch v.valueType {
	case NullType:
		w.Null()
	case BoolType:
		w.Bool(v.boolValue)
	case NumberType:
		w.Float64(v.numValue)
	case StringType:
		w.String(v.strValue)
	case ArrayType:
		arr := w.Array()
		for _, e := range v.arrValue {
			e.WriteToJSONWriter(w)
		}
		arr.End()
	case ObjectType:
		obj := w.Object()
		for k, e := range v.objValue {
			e.WriteToJSONWriter(obj.Name(k))
		}
		obj.End()
	default:
		w.Null()
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	r := jreader.NewReader(data)
	v.ReadFromJSONReader(&r)
	return r.Error()
}

// ReadFromJSONReader implements jreader.Readable, parsing a value of any JSON type from an
// in-progress reader.
func (v *Value) ReadFromJSONReader(r *jreader.Reader) {
	*v = valueFromAny(r.Any(), r)
}

func valueFromAny(a jreader.AnyValue, r *jreader.Reader) Value {
	switch a.Kind {
	case jreader.BoolValue:
		return Bool(a.Bool)
	case jreader.NumberValue:
		return Float64(a.Number)
	case jreader.StringValue:
		return String(a.String)
	case jreader.ArrayValue:
		var vals []Value
		arr := a.Array
		for arr.Next() {
			vals = append(vals, valueFromAny(r.Any(), r))
		}
		return ArrayOf(vals...)
	case jreader.ObjectValue:
		b := ObjectBuild()
		obj := a.Object
		for obj.Next() {
			b.Set(string(obj.Name()), valueFromAny(r.Any(), r))
		}
		return b.Build()
	default:
		return Null()
	}
}
