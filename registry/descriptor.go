package registry

import (
	"encoding"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"
)

// Field is one serializable struct field of a model type.
type Field struct {
	// Name is the output key: the json tag name when present, the Go
	// field name otherwise.
	Name string
	// Index addresses the field through embedded structs, for
	// reflect.Value.FieldByIndex.
	Index []int
	// Type is the declared field type.
	Type reflect.Type
}

// Descriptor is the immutable per-type metadata the render engine reads:
// declared fields in declaration order, the default field set, named
// fieldset aliases and expansion descriptors. Built once per type and
// shared by every render call afterwards.
type Descriptor struct {
	Type reflect.Type

	// Unconfigured marks types without a Provider implementation. The
	// engine emits all of their fields and ignores explicit requests
	// addressing them.
	Unconfigured bool

	Fields []Field

	// Default holds the declared default names with "*" already removed;
	// WildcardDefault records whether "*" was present.
	Default         []string
	WildcardDefault bool

	Fieldsets  map[string][]string
	Expansions map[string]Expansion

	// ExpansionNames is the deterministic (sorted) output order for
	// expansions.
	ExpansionNames []string

	fieldIndex map[string]int
}

// FieldNamed returns the declared field with the given output name.
func (d *Descriptor) FieldNamed(name string) (Field, bool) {
	idx, ok := d.fieldIndex[name]
	if !ok {
		return Field{}, false
	}
	return d.Fields[idx], true
}

// HasField reports whether name is a declared plain field.
func (d *Descriptor) HasField(name string) bool {
	_, ok := d.fieldIndex[name]
	return ok
}

// Fieldset returns the field names behind a named fieldset alias.
func (d *Descriptor) Fieldset(name string) ([]string, bool) {
	fs, ok := d.Fieldsets[name]
	return fs, ok
}

// ExpansionNamed returns the expansion descriptor registered under name.
func (d *Descriptor) ExpansionNamed(name string) (Expansion, bool) {
	e, ok := d.Expansions[name]
	return e, ok
}

var (
	timeType          = reflect.TypeOf(time.Time{})
	jsonMarshalerType = reflect.TypeOf((*json.Marshaler)(nil)).Elem()
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	providerType      = reflect.TypeOf((*Provider)(nil)).Elem()
)

// ModelType dereferences pointers down to the candidate model type.
func ModelType(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// IsModelType reports whether t renders as a nested object rather than a
// scalar: a struct that is not a time and does not marshal itself.
func IsModelType(t reflect.Type) bool {
	t = ModelType(t)
	if t == nil || t.Kind() != reflect.Struct {
		return false
	}
	if t == timeType {
		return false
	}
	if t.Implements(jsonMarshalerType) || reflect.PointerTo(t).Implements(jsonMarshalerType) {
		return false
	}
	if t.Implements(textMarshalerType) || reflect.PointerTo(t).Implements(textMarshalerType) {
		return false
	}
	return true
}

func buildDescriptor(t reflect.Type) (*Descriptor, error) {
	t = ModelType(t)
	if t == nil {
		return nil, fmt.Errorf("%w: nil model type", ErrConfiguration)
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s is not a struct type", ErrConfiguration, t)
	}

	d := &Descriptor{
		Type:       t,
		fieldIndex: make(map[string]int),
	}
	collectFields(t, nil, d)

	cfg, ok := configOf(t)
	if !ok {
		d.Unconfigured = true
		return d, nil
	}

	d.Fieldsets = make(map[string][]string, len(cfg.Fieldsets))
	for name, members := range cfg.Fieldsets {
		d.Fieldsets[name] = append([]string(nil), members...)
	}
	d.Expansions = make(map[string]Expansion, len(cfg.Expansions))
	for name, exp := range cfg.Expansions {
		d.Expansions[name] = exp
		d.ExpansionNames = append(d.ExpansionNames, name)
	}
	sort.Strings(d.ExpansionNames)

	for _, name := range cfg.Default {
		if name == "*" {
			d.WildcardDefault = true
			continue
		}
		d.Default = append(d.Default, name)
	}

	if err := d.validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// configOf reads the type's declared configuration once. Provider may be
// implemented on the value or the pointer receiver; a fresh zero instance
// is used either way.
func configOf(t reflect.Type) (Config, bool) {
	if t.Implements(providerType) {
		return reflect.Zero(t).Interface().(Provider).FieldsetConfig(), true
	}
	if reflect.PointerTo(t).Implements(providerType) {
		return reflect.New(t).Interface().(Provider).FieldsetConfig(), true
	}
	return Config{}, false
}

// collectFields appends the serializable fields of t in declaration order,
// promoting fields of untagged anonymous embedded structs. The first field
// seen under a name wins, matching encoding/json's shallow-wins rule
// closely enough for flat and singly-embedded models.
func collectFields(t reflect.Type, index []int, d *Descriptor) {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag := sf.Tag.Get("json")
		if tag == "-" {
			continue
		}
		fieldIndex := append(append([]int(nil), index...), i)

		if sf.Anonymous && tag == "" {
			et := sf.Type
			if et.Kind() == reflect.Pointer {
				et = et.Elem()
			}
			if et.Kind() == reflect.Struct {
				collectFields(et, fieldIndex, d)
				continue
			}
		}
		if !sf.IsExported() {
			continue
		}

		name := sf.Name
		if tag != "" {
			if comma := strings.IndexByte(tag, ','); comma >= 0 {
				tag = tag[:comma]
			}
			if tag != "" {
				name = tag
			}
		}
		if _, exists := d.fieldIndex[name]; exists {
			continue
		}
		d.fieldIndex[name] = len(d.Fields)
		d.Fields = append(d.Fields, Field{Name: name, Index: fieldIndex, Type: sf.Type})
	}
}

func (d *Descriptor) validate() error {
	for name, exp := range d.Expansions {
		if exp.Expand == nil {
			return fmt.Errorf("%w: expansion %q on %s has no Expand func", ErrConfiguration, name, d.Type)
		}
		if d.HasField(name) {
			return fmt.Errorf("%w: expansion %q on %s collides with a field of the same name", ErrConfiguration, name, d.Type)
		}
	}

	for _, name := range d.Default {
		if !d.known(name) {
			return fmt.Errorf("%w: default fieldset on %s references unknown name %q", ErrConfiguration, d.Type, name)
		}
	}

	for alias, members := range d.Fieldsets {
		for _, name := range members {
			if !d.known(name) {
				return fmt.Errorf("%w: fieldset %q on %s references unknown name %q", ErrConfiguration, alias, d.Type, name)
			}
		}
	}
	return d.checkFieldsetCycles()
}

func (d *Descriptor) known(name string) bool {
	if name == "*" || d.HasField(name) {
		return true
	}
	if _, ok := d.Fieldsets[name]; ok {
		return true
	}
	_, ok := d.Expansions[name]
	return ok
}

// checkFieldsetCycles rejects alias chains that reference themselves.
// A member that shares its name with a plain field resolves to the field,
// not the alias, so it does not form an edge.
func (d *Descriptor) checkFieldsetCycles() error {
	const (
		visiting = 1
		done     = 2
	)
	state := make(map[string]int, len(d.Fieldsets))

	var visit func(alias string) error
	visit = func(alias string) error {
		switch state[alias] {
		case visiting:
			return fmt.Errorf("%w: fieldset %q on %s is part of a reference cycle", ErrConfiguration, alias, d.Type)
		case done:
			return nil
		}
		state[alias] = visiting
		for _, member := range d.Fieldsets[alias] {
			if d.HasField(member) {
				continue
			}
			if _, ok := d.Fieldsets[member]; ok {
				if err := visit(member); err != nil {
					return err
				}
			}
		}
		state[alias] = done
		return nil
	}

	for alias := range d.Fieldsets {
		if err := visit(alias); err != nil {
			return err
		}
	}
	return nil
}
