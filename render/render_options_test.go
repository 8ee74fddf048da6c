package render

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/fieldlens/fieldlens/registry"
)

type sparseModel struct {
	A string  `json:"a"`
	B *string `json:"b"`
	C []int   `json:"c"`
	D int     `json:"d"`
}

func (sparseModel) FieldsetConfig() registry.Config {
	return registry.Config{Default: []string{"*"}}
}

func TestOptions_ExcludeNone(t *testing.T) {
	reg := registry.NewRegistry()
	out := mustRender(t, reg, sparseModel{A: "", D: 0}, nil, &Options{ExcludeNone: true})

	// Only nil-valued fields drop; zero scalars stay.
	want := map[string]any{"a": "", "d": 0}
	if diff := cmp.Diff(want, out.AsMap()); diff != "" {
		t.Fatalf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestOptions_ExcludeUnset(t *testing.T) {
	reg := registry.NewRegistry()
	b := "set"
	out := mustRender(t, reg, sparseModel{A: "a", B: &b}, nil, &Options{ExcludeUnset: true})

	want := map[string]any{"a": "a", "b": "set", "d": 0}
	if diff := cmp.Diff(want, out.AsMap()); diff != "" {
		t.Fatalf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestOptions_ExcludeDefaults(t *testing.T) {
	reg := registry.NewRegistry()
	out := mustRender(t, reg, sparseModel{A: "a", C: []int{1}}, nil, &Options{ExcludeDefaults: true})

	want := map[string]any{"a": "a", "c": []any{1}}
	if diff := cmp.Diff(want, out.AsMap()); diff != "" {
		t.Fatalf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestOptions_DefaultDepth(t *testing.T) {
	o := (&Options{}).withDefaults()
	require.Equal(t, DefaultMaxExpansionDepth, o.MaxExpansionDepth)

	o = (&Options{MaxExpansionDepth: -3}).withDefaults()
	require.Equal(t, DefaultMaxExpansionDepth, o.MaxExpansionDepth)

	o = (&Options{MaxExpansionDepth: 2}).withDefaults()
	require.Equal(t, 2, o.MaxExpansionDepth)
}

func TestOptions_NilFallsBackToProcessRegistry(t *testing.T) {
	// The process-wide registry describes types lazily, so an unregistered
	// configured model still renders.
	out, err := Render(t.Context(), sampleProfile(), nil, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"field_1", "field_2"}, out.Keys())
}
