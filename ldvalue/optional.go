package ldvalue

import "github.com/launchdarkly/go-jsonstream/v3/jwriter"

// OptionalInt represents an int that may or may not be defined, distinct from a defined
// zero. The event pipeline uses this for variation indices and flag versions, where "no
// value" (e.g. an unknown flag) must serialize differently than variation 0.
type OptionalInt struct {
	value   int
	defined bool
}

// NewOptionalInt creates a defined OptionalInt.
func NewOptionalInt(value int) OptionalInt {
	return OptionalInt{value: value, defined: true}
}

// IsDefined returns true if a value is present.
func (o OptionalInt) IsDefined() bool { return o.defined }

// IntValue returns the wrapped value, or 0 if undefined.
func (o OptionalInt) IntValue() int { return o.value }

// AsPointer returns a *int, or nil if undefined.
func (o OptionalInt) AsPointer() *int {
	if !o.defined {
		return nil
	}
	v := o.value
	return &v
}

// MarshalJSON implements json.Marshaler.
func (o OptionalInt) MarshalJSON() ([]byte, error) {
	w := jwriter.NewWriter()
	o.WriteToJSONWriter(&w)
	if err := w.Error(); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// WriteToJSONWriter writes the value directly onto an in-progress writer.
func (o OptionalInt) WriteToJSONWriter(w *jwriter.Writer) {
	if !o.defined {
		w.Null()
		return
	}
	w.Int(o.value)
}

// OptionalString represents a string that may or may not be defined.
type OptionalString struct {
	value   string
	defined bool
}

// NewOptionalString creates a defined OptionalString.
func NewOptionalString(value string) OptionalString {
	return OptionalString{value: value, defined: true}
}

// IsDefined returns true if a value is present.
func (o OptionalString) IsDefined() bool { return o.defined }

// StringValue returns the wrapped value, or "" if undefined.
func (o OptionalString) StringValue() string { return o.value }

// AsPointer returns a *string, or nil if undefined.
func (o OptionalString) AsPointer() *string {
	if !o.defined {
		return nil
	}
	v := o.value
	return &v
}

// MarshalJSON implements json.Marshaler.
func (o OptionalString) MarshalJSON() ([]byte, error) {
	w := jwriter.NewWriter()
	o.WriteToJSONWriter(&w)
	if err := w.Error(); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// WriteToJSONWriter writes the value directly onto an in-progress writer.
func (o OptionalString) WriteToJSONWriter(w *jwriter.Writer) {
	if !o.defined {
		w.Null()
		return
	}
	w.String(o.value)
}
