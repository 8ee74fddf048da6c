package render

import (
	"context"
	"sync"
	"testing"

	"github.com/fieldlens/fieldlens/registry"
)

// mustRender renders with a test-local registry and fails the test on error.
func mustRender(t *testing.T, reg *registry.Registry, model any, fields []string, opts *Options) *Object {
	t.Helper()
	if opts == nil {
		opts = &Options{}
	}
	if opts.Registry == nil {
		opts.Registry = reg
	}
	out, err := Render(context.Background(), model, fields, opts)
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	return out
}

// immediateValue is an expansion func resolving to a fixed value.
func immediateValue(v any) registry.ExpandFunc {
	return func(ctx context.Context, source, ectx any) (any, error) {
		return v, nil
	}
}

// thunk is a hand-rolled Awaitable for tests that do not need a loader.
type thunk struct {
	v   any
	err error
}

func (t *thunk) Await(ctx context.Context) (any, error) { return t.v, t.err }

// callLog records expansion invocations and awaits to verify wavefront
// ordering: all Expand calls of a depth must precede every Await.
type callLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *callLog) add(entry string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

func (l *callLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

type loggedThunk struct {
	log   *callLog
	label string
	v     any
}

func (t *loggedThunk) Await(ctx context.Context) (any, error) {
	t.log.add("await:" + t.label)
	return t.v, nil
}

// Test models.

type profileModel struct {
	Field1     string `json:"field_1"`
	Field2     string `json:"field_2"`
	Field3     string `json:"field_3"`
	Field4     string `json:"field_4"`
	Expensive5 string `json:"expensive_field_5"`
	Expensive6 string `json:"expensive_field_6"`
}

func (profileModel) FieldsetConfig() registry.Config {
	return registry.Config{
		Default: []string{"field_1", "field_2"},
		Fieldsets: map[string][]string{
			"extra": {"field_3", "field_4"},
		},
	}
}

func sampleProfile() profileModel {
	return profileModel{
		Field1:     "v1",
		Field2:     "v2",
		Field3:     "v3",
		Field4:     "v4",
		Expensive5: "v5",
		Expensive6: "v6",
	}
}

type addressModel struct {
	Street string `json:"street"`
	City   string `json:"city"`
	Zip    string `json:"zip"`
}

func (addressModel) FieldsetConfig() registry.Config {
	return registry.Config{Default: []string{"street", "city"}}
}

type itemModel struct {
	SKU   string `json:"sku"`
	Label string `json:"label"`
	Price int    `json:"price"`
}

func (itemModel) FieldsetConfig() registry.Config {
	return registry.Config{Default: []string{"sku"}}
}

type orderModel struct {
	ID    string        `json:"id"`
	Note  string        `json:"note"`
	Home  *addressModel `json:"home"`
	Items []itemModel   `json:"items"`
}

func (orderModel) FieldsetConfig() registry.Config {
	return registry.Config{Default: []string{"id", "home", "items"}}
}

// bareStruct has no fieldset configuration at all.
type bareStruct struct {
	A string      `json:"a"`
	B int         `json:"b"`
	C *bareNested `json:"c"`
}

type bareNested struct {
	X string `json:"x"`
	Y string `json:"y"`
}
