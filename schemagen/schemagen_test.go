package schemagen

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/fieldlens/fieldlens/registry"
)

type authorDoc struct {
	Name string `json:"name"`
}

func (authorDoc) FieldsetConfig() registry.Config {
	return registry.Config{Default: []string{"name"}}
}

type bookDoc struct {
	Title  string `json:"title"`
	ISBN   string `json:"isbn"`
	Plot   string `json:"plot"`
	Rating int    `json:"rating"`
}

func (bookDoc) FieldsetConfig() registry.Config {
	expand := func(ctx context.Context, source, ectx any) (any, error) { return nil, nil }
	return registry.Config{
		Default: []string{"title"},
		Fieldsets: map[string][]string{
			"details": {"isbn", "plot"},
		},
		Expansions: map[string]registry.Expansion{
			"author":     {Expand: expand, ResponseShape: authorDoc{}},
			"page_count": {Expand: expand, ResponseShape: 0},
		},
	}
}

func bookSchema() map[string]any {
	return map[string]any{
		"title": "bookDoc",
		"type":  "object",
		"properties": map[string]any{
			"title":  map[string]any{"type": "string"},
			"isbn":   map[string]any{"type": "string", "description": "International Standard Book Number"},
			"plot":   map[string]any{"type": "string"},
			"rating": map[string]any{"type": "integer"},
		},
	}
}

func TestAugment_FieldDescriptions(t *testing.T) {
	doc := bookSchema()
	require.NoError(t, Augment(doc, bookDoc{}, registry.NewRegistry()))

	props := doc["properties"].(map[string]any)

	// Default fields carry no note.
	title := props["title"].(map[string]any)
	require.NotContains(t, title, "description")

	isbn := props["isbn"].(map[string]any)
	require.Equal(t,
		"International Standard Book Number. Request by name or using fieldset(s): `details`.",
		isbn["description"])

	plot := props["plot"].(map[string]any)
	require.Equal(t, "Request by name or using fieldset(s): `details`.", plot["description"])

	rating := props["rating"].(map[string]any)
	require.Equal(t, "Not returned by default. Request this field by name.", rating["description"])
}

func TestAugment_ExpansionProperties(t *testing.T) {
	doc := bookSchema()
	require.NoError(t, Augment(doc, bookDoc{}, registry.NewRegistry()))

	props := doc["properties"].(map[string]any)

	wantAuthor := map[string]any{
		"title":       "authorDoc",
		"$ref":        "#/$defs/authorDoc",
		"description": "Request by name or using fieldset(s): `author`.",
	}
	if diff := cmp.Diff(wantAuthor, props["author"]); diff != "" {
		t.Fatalf("author property mismatch (-want +got):\n%s", diff)
	}

	wantPages := map[string]any{
		"type":        "integer",
		"description": "Request by name or using fieldset(s): `page_count`.",
	}
	if diff := cmp.Diff(wantPages, props["page_count"]); diff != "" {
		t.Fatalf("page_count property mismatch (-want +got):\n%s", diff)
	}

	wantDefs := map[string]any{
		"authorDoc": map[string]any{
			"title": "authorDoc",
			"type":  "object",
			"properties": map[string]any{
				"name": map[string]any{"type": "string"},
			},
		},
	}
	if diff := cmp.Diff(wantDefs, doc["$defs"]); diff != "" {
		t.Fatalf("$defs mismatch (-want +got):\n%s", diff)
	}
}

type plainDoc struct {
	A string `json:"a"`
}

func TestAugment_UnconfiguredModelUntouched(t *testing.T) {
	doc := map[string]any{
		"properties": map[string]any{"a": map[string]any{"type": "string"}},
	}
	want := map[string]any{
		"properties": map[string]any{"a": map[string]any{"type": "string"}},
	}
	require.NoError(t, Augment(doc, plainDoc{}, registry.NewRegistry()))
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Fatalf("document changed (-want +got):\n%s", diff)
	}
}

type wrapperDoc struct {
	Books []bookDoc `json:"books"`
}

type linkedDoc struct {
	Next *linkedDoc `json:"next"`
	Data string     `json:"data"`
}

func TestHasFieldsets(t *testing.T) {
	require.True(t, HasFieldsets(bookDoc{}))
	require.True(t, HasFieldsets(&bookDoc{}))
	require.True(t, HasFieldsets(wrapperDoc{}), "nested through a slice")
	require.False(t, HasFieldsets(plainDoc{}))
	require.False(t, HasFieldsets(linkedDoc{}), "recursive type terminates")
	require.False(t, HasFieldsets("scalar"))
}
