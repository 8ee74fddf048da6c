package render

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/fieldlens/fieldlens/fieldset"
	"github.com/fieldlens/fieldlens/internal/eventbus"
	"github.com/fieldlens/fieldlens/internal/events"
	"github.com/fieldlens/fieldlens/internal/renderid"
	"github.com/fieldlens/fieldlens/registry"
)

// DefaultMaxExpansionDepth bounds recursive expansion chains when Options
// does not say otherwise.
const DefaultMaxExpansionDepth = 5

// ErrExpansionNotFound is returned when an expansion resolves to nothing
// and Options.ErrorOnMissingExpansion is set. The wrapped message names the
// dotted path of the missing field.
var ErrExpansionNotFound = errors.New("expansion not found")

// Options tunes a single render call. The zero value (or a nil pointer)
// renders with the default registry, the default depth limit and no
// exclusions.
type Options struct {
	// MaxExpansionDepth limits how many expansion wavefronts are resolved.
	// Pendings discovered at or beyond the limit are silently omitted.
	// Values <= 0 mean DefaultMaxExpansionDepth.
	MaxExpansionDepth int

	// ErrorOnMissingExpansion fails the render when a requested expansion
	// resolves to nothing instead of omitting the field.
	ErrorOnMissingExpansion bool

	// ExpansionContext is handed unchanged to every expansion invocation
	// at every depth. The engine never inspects it; callers typically
	// carry a request-scoped batch loader in it.
	ExpansionContext any

	// ExcludeUnset omits fields whose value is a nil pointer, slice, map
	// or interface — the closest Go has to "never populated".
	ExcludeUnset bool
	// ExcludeDefaults omits fields whose value equals the zero value of
	// their type.
	ExcludeDefaults bool
	// ExcludeNone omits nil-valued fields after selection.
	ExcludeNone bool

	// Registry overrides the process-wide descriptor registry.
	Registry *registry.Registry
}

func (o *Options) withDefaults() *Options {
	var out Options
	if o != nil {
		out = *o
	}
	if out.MaxExpansionDepth <= 0 {
		out.MaxExpansionDepth = DefaultMaxExpansionDepth
	}
	if out.Registry == nil {
		out.Registry = registry.Default()
	}
	return &out
}

// Render shapes model into a JSON-compatible document under the requested
// field selection, resolving expansions in depth-wise batched wavefronts.
// fields follows the comma/dot grammar of the fieldset package; an empty
// selection yields each type's defaults.
//
// Render either returns a complete document or fails as a whole; there is
// no partial-result mode. Callers wanting partial output must catch
// failures inside their expansion funcs and resolve a sentinel instead.
func Render(ctx context.Context, model any, fields []string, opts *Options) (*Object, error) {
	o := opts.withDefaults()
	ctx, _ = renderid.NewContext(ctx)

	modelName := modelName(model)
	eventbus.Publish(ctx, events.RenderStart{Model: modelName, Fields: fields})
	started := time.Now()

	out, err := renderDocument(ctx, model, fields, o)

	eventbus.Publish(ctx, events.RenderFinish{Model: modelName, Err: err, Duration: time.Since(started)})
	return out, err
}

func renderDocument(ctx context.Context, model any, fields []string, o *Options) (*Object, error) {
	rv := reflect.ValueOf(model)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, errors.New("render: model is nil")
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil, errors.New("render: model is nil")
	}
	if !registry.IsModelType(rv.Type()) {
		return nil, fmt.Errorf("render: model must be a struct model, got %T", model)
	}

	s := &state{ctx: ctx, reg: o.Registry, opts: o}
	out, err := s.renderModel(model, rv, fieldset.Parse(fields...), nil)
	if err != nil {
		return nil, err
	}

	for depth := 0; len(s.pending) > 0; depth++ {
		batch := s.pending
		s.pending = nil
		if depth >= o.MaxExpansionDepth {
			// Depth gate: the truncated fields stay absent.
			break
		}

		eventbus.Publish(ctx, events.WavefrontStart{Depth: depth, Size: len(batch)})
		waveStarted := time.Now()
		err := s.resolveLevel(batch)
		eventbus.Publish(ctx, events.WavefrontFinish{
			Depth:    depth,
			Size:     len(batch),
			Err:      err,
			Duration: time.Since(waveStarted),
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func modelName(model any) string {
	t := reflect.TypeOf(model)
	if t == nil {
		return "<nil>"
	}
	t = registry.ModelType(t)
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}
