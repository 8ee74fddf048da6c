package render

import (
	"context"
	"reflect"

	"github.com/fieldlens/fieldlens/fieldset"
	"github.com/fieldlens/fieldlens/registry"
)

// state is the working set of one render call: the walk between wavefronts
// never suspends, and nothing here is shared with concurrent calls.
type state struct {
	ctx     context.Context
	reg     *registry.Registry
	opts    *Options
	pending []*pendingExpansion
}

// renderModel produces the output object for one model instance. rv is the
// dereferenced struct value; val is the caller's original value and is what
// expansion funcs receive as their source.
func (s *state) renderModel(val any, rv reflect.Value, node *fieldset.RequestNode, path Path) (*Object, error) {
	desc, err := s.reg.DescribeType(rv.Type())
	if err != nil {
		return nil, err
	}

	out := NewObject()

	// Unconfigured types serialize fully; requests addressing them are not
	// schema-addressable and nested models fall back to their own defaults.
	if desc.Unconfigured {
		for _, f := range desc.Fields {
			if err := s.emitField(out, rv, f, nil, path); err != nil {
				return nil, err
			}
		}
		return out, nil
	}

	includedFields, includedExpansions := includeSet(desc, node)

	for _, f := range desc.Fields {
		if _, ok := includedFields[f.Name]; !ok {
			continue
		}
		if err := s.emitField(out, rv, f, node.Child(f.Name), path); err != nil {
			return nil, err
		}
	}

	for _, name := range desc.ExpansionNames {
		if _, ok := includedExpansions[name]; !ok {
			continue
		}
		exp, _ := desc.ExpansionNamed(name)
		s.pending = append(s.pending, &pendingExpansion{
			parent: out,
			name:   name,
			exp:    exp,
			child:  node.Child(name),
			source: val,
			path:   appendPath(path, name),
		})
	}

	return out, nil
}

// includeSet resolves the requested names for one node against the type's
// metadata: defaults union explicit names, aliases expanded recursively,
// a real field taking precedence over an alias or expansion of the same
// name, unknown names dropped silently.
func includeSet(desc *registry.Descriptor, node *fieldset.RequestNode) (fields, expansions map[string]struct{}) {
	fields = make(map[string]struct{})
	expansions = make(map[string]struct{})

	var add func(name string)
	add = func(name string) {
		switch {
		case name == "*":
			for _, f := range desc.Fields {
				fields[f.Name] = struct{}{}
			}
		case desc.HasField(name):
			fields[name] = struct{}{}
		default:
			if members, ok := desc.Fieldset(name); ok {
				for _, member := range members {
					add(member)
				}
				return
			}
			if _, ok := desc.ExpansionNamed(name); ok {
				expansions[name] = struct{}{}
			}
		}
	}

	if desc.WildcardDefault {
		for _, f := range desc.Fields {
			fields[f.Name] = struct{}{}
		}
	}
	for _, name := range desc.Default {
		add(name)
	}
	if node != nil {
		for _, name := range node.Names {
			add(name)
		}
		// A dotted path requests every segment along the way: "home.zip"
		// includes home itself, not only zip below it.
		for name := range node.Children {
			add(name)
		}
	}
	return fields, expansions
}

func (s *state) emitField(out *Object, rv reflect.Value, f registry.Field, node *fieldset.RequestNode, path Path) error {
	fv, reachable := fieldByIndex(rv, f.Index)
	if !reachable {
		if !s.excluding() {
			out.Set(f.Name, nil)
		}
		return nil
	}
	if s.skipValue(fv) {
		return nil
	}
	rendered, err := s.renderValue(fv.Interface(), node, appendPath(path, f.Name))
	if err != nil {
		return err
	}
	out.Set(f.Name, rendered)
	return nil
}

func (s *state) excluding() bool {
	o := s.opts
	return o.ExcludeNone || o.ExcludeUnset || o.ExcludeDefaults
}

// skipValue applies the exclusion options to a selected field value.
func (s *state) skipValue(v reflect.Value) bool {
	if !s.excluding() {
		return false
	}
	o := s.opts
	nilValued := false
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map:
		nilValued = v.IsNil()
	}
	if (o.ExcludeNone || o.ExcludeUnset) && nilValued {
		return true
	}
	if o.ExcludeDefaults && v.IsZero() {
		return true
	}
	return false
}

// renderValue renders any field value: models recurse, lists fan out
// element-wise under the same request node, string-keyed maps recurse per
// value, everything else passes through untouched.
func (s *state) renderValue(val any, node *fieldset.RequestNode, path Path) (any, error) {
	if val == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(val)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, nil
		}
		return s.renderValue(rv.Interface(), node, path)
	}

	switch {
	case registry.IsModelType(rv.Type()):
		return s.renderModel(val, rv, node, path)

	case rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return val, nil
		}
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			elem, err := s.renderValue(rv.Index(i).Interface(), node, appendPath(path, i))
			if err != nil {
				return nil, err
			}
			out[i] = elem
		}
		return out, nil

	case rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key := iter.Key().String()
			rendered, err := s.renderValue(iter.Value().Interface(), node, appendPath(path, key))
			if err != nil {
				return nil, err
			}
			out[key] = rendered
		}
		return out, nil

	default:
		return val, nil
	}
}
