// Package schemagen annotates JSON-schema documents with a model's
// fieldset configuration so API consumers can see which fields come back
// by default, which need to be requested, and what each expansion returns.
package schemagen

import (
	"fmt"
	"reflect"
	"slices"
	"sort"
	"strings"

	"dario.cat/mergo"

	"github.com/fieldlens/fieldlens/registry"
)

// Augment merges fieldset annotations into doc, a JSON-schema document for
// model: plain-field descriptions gain a note on how to request the field,
// and expansions with a declared response shape are injected as properties
// (model shapes as "$ref" entries backed by "$defs"). doc is modified in
// place. Unconfigured models pass through untouched.
func Augment(doc map[string]any, model any, reg *registry.Registry) error {
	if reg == nil {
		reg = registry.Default()
	}
	desc, err := reg.Describe(model)
	if err != nil {
		return err
	}
	if desc.Unconfigured {
		return nil
	}

	props := map[string]any{}
	existing, _ := doc["properties"].(map[string]any)

	for _, f := range desc.Fields {
		prop, ok := existing[f.Name].(map[string]any)
		if !ok {
			continue
		}
		note := membershipNote(desc, f.Name)
		if note == "" {
			continue
		}
		prev, _ := prop["description"].(string)
		props[f.Name] = map[string]any{"description": concatDescription(prev, note)}
	}

	defs := map[string]any{}
	for _, name := range desc.ExpansionNames {
		exp, _ := desc.ExpansionNamed(name)
		if exp.ResponseShape == nil {
			continue
		}
		shape, ok := exp.ResponseShape.(reflect.Type)
		if !ok {
			shape = reflect.TypeOf(exp.ResponseShape)
		}
		prop, err := shapeSchema(reg, shape, defs)
		if err != nil {
			return fmt.Errorf("expansion %s: %w", name, err)
		}
		prop["description"] = fmt.Sprintf("Request by name or using fieldset(s): `%s`.", name)
		props[name] = prop
	}

	additions := map[string]any{}
	if len(props) > 0 {
		additions["properties"] = props
	}
	if len(defs) > 0 {
		additions["$defs"] = defs
	}
	return mergo.Merge(&doc, additions, mergo.WithOverride)
}

// membershipNote describes how a field is requested. Fields in the default
// set need no note.
func membershipNote(desc *registry.Descriptor, field string) string {
	if desc.WildcardDefault || slices.Contains(desc.Default, field) {
		return ""
	}

	var names []string
	for alias, members := range desc.Fieldsets {
		if slices.Contains(members, field) || slices.Contains(members, "*") {
			names = append(names, alias)
		}
	}
	if len(names) == 0 {
		return "Not returned by default. Request this field by name."
	}
	sort.Strings(names)
	for i, n := range names {
		names[i] = "`" + n + "`"
	}
	return "Request by name or using fieldset(s): " + strings.Join(names, ", ") + "."
}

func concatDescription(prev, note string) string {
	if prev == "" {
		return note
	}
	if strings.HasSuffix(prev, ".") {
		return prev + " " + note
	}
	return prev + ". " + note
}

// shapeSchema renders a response shape type as a JSON-schema property.
// Model types become "$ref" entries with their definition recorded in defs;
// containers recurse; everything else maps to its JSON scalar type.
func shapeSchema(reg *registry.Registry, t reflect.Type, defs map[string]any) (map[string]any, error) {
	t = registry.ModelType(t)
	if t == nil {
		return nil, fmt.Errorf("response shape has no type")
	}

	if registry.IsModelType(t) {
		name := t.Name()
		if name == "" {
			return nil, fmt.Errorf("response shape %s is unnamed", t)
		}
		if err := ensureDef(reg, t, name, defs); err != nil {
			return nil, err
		}
		return map[string]any{
			"title": name,
			"$ref":  "#/$defs/" + name,
		}, nil
	}

	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return map[string]any{"type": "string"}, nil
		}
		items, err := shapeSchema(reg, t.Elem(), defs)
		if err != nil {
			return nil, err
		}
		return map[string]any{"type": "array", "items": items}, nil

	case reflect.Map:
		values, err := shapeSchema(reg, t.Elem(), defs)
		if err != nil {
			return nil, err
		}
		return map[string]any{"type": "object", "additionalProperties": values}, nil

	case reflect.String:
		return map[string]any{"type": "string"}, nil
	case reflect.Bool:
		return map[string]any{"type": "boolean"}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return map[string]any{"type": "integer"}, nil
	case reflect.Float32, reflect.Float64:
		return map[string]any{"type": "number"}, nil
	default:
		// time.Time, self-marshaling structs and the rest of the long tail
		// serialize as strings or objects; "object" is the safe statement.
		if t.Kind() == reflect.Struct {
			return map[string]any{"type": "string"}, nil
		}
		return map[string]any{"type": "object"}, nil
	}
}

// ensureDef records the object definition for a model type under defs,
// guarding against recursive shapes by reserving the slot first.
func ensureDef(reg *registry.Registry, t reflect.Type, name string, defs map[string]any) error {
	if _, ok := defs[name]; ok {
		return nil
	}
	defs[name] = map[string]any{}

	desc, err := reg.DescribeType(t)
	if err != nil {
		return err
	}
	props := make(map[string]any, len(desc.Fields))
	for _, f := range desc.Fields {
		prop, err := shapeSchema(reg, f.Type, defs)
		if err != nil {
			return err
		}
		props[f.Name] = prop
	}
	defs[name] = map[string]any{
		"title":      name,
		"type":       "object",
		"properties": props,
	}
	return nil
}

var providerType = reflect.TypeOf((*registry.Provider)(nil)).Elem()

// HasFieldsets reports whether model, or any model type reachable through
// its fields, carries a fieldset configuration. Useful for deciding whether
// a response type needs the fields query parameter documented at all.
func HasFieldsets(model any) bool {
	return typeHasFieldsets(reflect.TypeOf(model), map[reflect.Type]bool{})
}

func typeHasFieldsets(t reflect.Type, seen map[reflect.Type]bool) bool {
	for t != nil {
		switch t.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Array, reflect.Map:
			t = t.Elem()
			continue
		}
		break
	}
	if t == nil || t.Kind() != reflect.Struct || seen[t] {
		return false
	}
	seen[t] = true

	if t.Implements(providerType) || reflect.PointerTo(t).Implements(providerType) {
		return true
	}
	for i := 0; i < t.NumField(); i++ {
		if typeHasFieldsets(t.Field(i).Type, seen) {
			return true
		}
	}
	return false
}
