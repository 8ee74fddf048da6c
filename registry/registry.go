// Package registry resolves and caches per-type fieldset metadata.
//
// A model type declares its default fields, named fieldset aliases and
// expansions by implementing Provider. The first time a type is seen its
// configuration is read, validated and frozen into a Descriptor; every
// later lookup returns the same descriptor. Validation failures surface at
// registration (or first description), never during a render.
package registry

import (
	"errors"
	"reflect"
	"sync"
)

// ErrConfiguration wraps every descriptor validation failure.
var ErrConfiguration = errors.New("invalid fieldset configuration")

// Registry is a write-once, read-many descriptor cache keyed by type
// identity. Safe for concurrent use; concurrent render calls share one
// registry without locking on the read path beyond an RWMutex.
type Registry struct {
	mu     sync.RWMutex
	byType map[reflect.Type]*Descriptor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byType: make(map[reflect.Type]*Descriptor)}
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry used when a render call does
// not name its own.
func Default() *Registry {
	return defaultRegistry
}

// Register eagerly builds and validates descriptors for the given model
// values or types, returning the first configuration error.
func (r *Registry) Register(models ...any) error {
	for _, m := range models {
		if _, err := r.Describe(m); err != nil {
			return err
		}
	}
	return nil
}

// Describe returns the descriptor for a model value, a reflect.Type, or a
// pointer to either, building it on first use.
func (r *Registry) Describe(model any) (*Descriptor, error) {
	if t, ok := model.(reflect.Type); ok {
		return r.DescribeType(t)
	}
	return r.DescribeType(reflect.TypeOf(model))
}

// DescribeType is Describe for an already-resolved type.
func (r *Registry) DescribeType(t reflect.Type) (*Descriptor, error) {
	t = ModelType(t)

	r.mu.RLock()
	d, ok := r.byType[t]
	r.mu.RUnlock()
	if ok {
		return d, nil
	}

	d, err := buildDescriptor(t)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byType[t]; ok {
		return existing, nil
	}
	r.byType[t] = d
	return d, nil
}
