package resource

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Object is a loosely typed resource as returned by the API. The field set
// depends on the kind and on the API version, so fields are kept as decoded JSON.
type Object struct {
	kind   Kind
	fields map[string]any
}

// NewObject creates an Object of the given kind. fields is copied.
func NewObject(kind Kind, fields map[string]any) *Object {
	o := &Object{
		kind:   kind,
		fields: make(map[string]any, len(fields)),
	}
	for k, v := range fields {
		o.fields[k] = v
	}
	return o
}

func (o *Object) Kind() Kind {
	return o.kind
}

// ID returns the "id" field, or "" for objects not yet saved.
func (o *Object) ID() string {
	return o.String("id")
}

// Get returns a field and whether it was present.
func (o *Object) Get(name string) (any, bool) {
	v, ok := o.fields[name]
	return v, ok
}

// String returns a scalar field as text. Absent and null fields are "".
func (o *Object) String(name string) string {
	v, ok := o.fields[name]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

func (o *Object) Set(name string, value any) {
	o.fields[name] = value
}

// Fields returns a copy of the field map.
func (o *Object) Fields() map[string]any {
	m := make(map[string]any, len(o.fields))
	for k, v := range o.fields {
		m[k] = v
	}
	return m
}

func (o *Object) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.fields)
}

// UnmarshalJSON replaces the field map. Numbers are kept as json.Number so ids
// and amounts survive without float rounding.
func (o *Object) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	fields := map[string]any{}
	if err := dec.Decode(&fields); err != nil {
		return fmt.Errorf("failed to decode %s object: %w", o.kind, err)
	}
	o.fields = fields
	return nil
}
