package render

import (
	"github.com/emirpasic/gods/maps/linkedhashmap"
)

// Object is the JSON object produced for one rendered model instance. Keys
// keep insertion order, which the engine arranges to be the type's field
// declaration order with expansions appended after plain fields, so the
// marshaled document is stable across calls.
type Object struct {
	m *linkedhashmap.Map
}

// NewObject returns an empty ordered object.
func NewObject() *Object {
	return &Object{m: linkedhashmap.New()}
}

// Set stores value under key, keeping the key's original position when it
// already exists.
func (o *Object) Set(key string, value any) {
	o.m.Put(key, value)
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (any, bool) {
	return o.m.Get(key)
}

// Has reports whether key is present.
func (o *Object) Has(key string) bool {
	_, ok := o.m.Get(key)
	return ok
}

// Len returns the number of keys.
func (o *Object) Len() int {
	return o.m.Size()
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	raw := o.m.Keys()
	keys := make([]string, len(raw))
	for i, k := range raw {
		keys[i] = k.(string)
	}
	return keys
}

// Each calls fn for every key/value pair in insertion order.
func (o *Object) Each(fn func(key string, value any)) {
	o.m.Each(func(k, v any) { fn(k.(string), v) })
}

// MarshalJSON emits the object in insertion order.
func (o *Object) MarshalJSON() ([]byte, error) {
	return o.m.ToJSON()
}

// AsMap deep-converts the object into plain maps and slices. Key order is
// lost; intended for comparisons in tests and for callers that need an
// unordered view.
func (o *Object) AsMap() map[string]any {
	out := make(map[string]any, o.Len())
	o.Each(func(k string, v any) { out[k] = asPlainValue(v) })
	return out
}

func asPlainValue(v any) any {
	switch t := v.(type) {
	case *Object:
		return t.AsMap()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = asPlainValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = asPlainValue(e)
		}
		return out
	default:
		return v
	}
}
