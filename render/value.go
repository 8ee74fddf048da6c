package render

import (
	"fmt"
	"reflect"
)

// Path locates a value inside the output document, mixing string keys and
// int list indexes. Used in error messages and events only; write-back is
// keyed by the owning pending expansion, not by path.
type Path []PathElement

type PathElement any

func appendPath(path Path, elem PathElement) Path {
	next := make(Path, len(path)+1)
	copy(next, path)
	next[len(path)] = elem
	return next
}

func (p Path) String() string {
	out := ""
	for i, elem := range p {
		switch v := elem.(type) {
		case string:
			if i > 0 {
				out += "."
			}
			out += v
		case int:
			out += fmt.Sprintf("[%d]", v)
		}
	}
	return out
}

// isNullish reports nil interfaces and typed nils.
func isNullish(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}

// fieldByIndex walks an embedded-field index, reporting false when a nil
// embedded pointer makes the field unreachable.
func fieldByIndex(v reflect.Value, index []int) (reflect.Value, bool) {
	for i, x := range index {
		if i > 0 {
			if v.Kind() == reflect.Pointer {
				if v.IsNil() {
					return reflect.Value{}, false
				}
				v = v.Elem()
			}
		}
		v = v.Field(x)
	}
	return v, true
}
