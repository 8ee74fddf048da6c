package registry

import "context"

// ExpandFunc computes the value of an expansion for one source model.
//
// ctx is the render call's context. source is the model instance the
// expansion was requested on. ectx is the opaque expansion context supplied
// by the caller of render; the engine passes it through unchanged at every
// depth, so implementations typically reach a request-scoped batch loader
// through it.
//
// The returned value may be immediate, or it may implement the render
// package's Awaitable interface, in which case the engine defers resolution
// until every expansion at the same depth has been invoked and then awaits
// the whole batch together.
type ExpandFunc func(ctx context.Context, source any, ectx any) (any, error)

// Expansion declares a computed pseudo-field on a model type.
type Expansion struct {
	// Expand resolves the expansion. Required.
	Expand ExpandFunc

	// MergeUpward splices the resolved object's top-level keys directly
	// into the parent object instead of nesting them under the expansion
	// name. The resolved value must render to an object. When two merged
	// expansions contribute the same key to one parent, the one completed
	// later overwrites; callers should avoid collisions by construction.
	MergeUpward bool

	// ResponseShape is an optional value or reflect.Type describing what
	// Expand resolves to. It is only consulted by schema generation; the
	// engine never enforces it at render time.
	ResponseShape any
}

// Config is a model type's fieldset declaration.
type Config struct {
	// Default lists the field, fieldset and expansion names always
	// included regardless of the request. The wildcard "*" stands for
	// every declared plain field.
	Default []string

	// Fieldsets maps alias names to the field names they expand to.
	// Entries may reference other aliases, expansions and the wildcard
	// "*". An alias that
	// shares its name with a plain field is reachable only through other
	// aliases; the field wins when requested directly.
	Fieldsets map[string][]string

	// Expansions maps expansion names to their descriptors. Names must not
	// collide with plain field names. Output order of expansions within a
	// rendered object is the sorted name order.
	Expansions map[string]Expansion
}

// Provider is implemented by model types that declare fieldsets.
// FieldsetConfig must be callable on a zero-valued instance and must return
// the same configuration every time; it is read once per type.
//
// Types that do not implement Provider are rendered unconfigured: every
// field is emitted and field requests addressing them are ignored.
type Provider interface {
	FieldsetConfig() Config
}
