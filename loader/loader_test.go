package loader

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kolah/respec/route"
	"github.com/kolah/respec/schema"
)

func itemsDoc() map[string]any {
	return map[string]any{
		"openapi": "3.0.0",
		"info":    map[string]any{"title": "Items", "version": "1.0.0"},
		"paths": map[string]any{
			"/items/{id}": map[string]any{
				"get": map[string]any{
					"responses": map[string]any{
						"200": map[string]any{
							"description": "OK",
							"content": map[string]any{
								"application/json": map[string]any{
									"schema": map[string]any{"$ref": "#/components/schemas/Item"},
								},
							},
						},
					},
				},
			},
		},
		"components": map[string]any{
			"schemas": map[string]any{
				"Item": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"id": map[string]any{"type": "integer"},
					},
				},
			},
		},
	}
}

func TestLoader_Schema(t *testing.T) {
	l := New(NewGenerated(GeneratorFunc(func(context.Context) (any, error) {
		return itemsDoc(), nil
	})))

	doc, err := l.Schema(context.Background())
	require.NoError(t, err)
	assert.Equal(t, schema.DialectV3, schema.DialectOf(doc))

	fragment, err := l.ResponseSchema(context.Background(), "/items/{id}", "GET", 200)
	require.NoError(t, err)
	assert.Equal(t, "object", fragment["type"])
	assert.NotContains(t, fragment, "$ref")

	raw, err := l.Raw(context.Background())
	require.NoError(t, err)
	assert.Contains(t, raw["components"], "schemas")
	content := raw["paths"].(map[string]any)["/items/{id}"].(map[string]any)["get"].(map[string]any)["responses"].(map[string]any)["200"].(map[string]any)["content"].(map[string]any)
	assert.Equal(t, "#/components/schemas/Item",
		content["application/json"].(map[string]any)["schema"].(map[string]any)["$ref"],
		"raw document must keep its references")
}

func TestLoader_LoadsOnce(t *testing.T) {
	var calls atomic.Int32
	l := New(NewGenerated(GeneratorFunc(func(context.Context) (any, error) {
		calls.Add(1)
		return itemsDoc(), nil
	})))

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Schema(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestLoader_CachesError(t *testing.T) {
	var calls atomic.Int32
	boom := errors.New("boom")
	l := New(NewGenerated(GeneratorFunc(func(context.Context) (any, error) {
		calls.Add(1)
		return nil, boom
	})))

	_, err := l.Schema(context.Background())
	require.ErrorIs(t, err, boom)
	_, err = l.Schema(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, int32(1), calls.Load())

	raw, err := l.Raw(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Nil(t, raw)
}

func TestLoader_CachesValidationError(t *testing.T) {
	var calls atomic.Int32
	l := New(NewGenerated(GeneratorFunc(func(context.Context) (any, error) {
		calls.Add(1)
		doc := itemsDoc()
		delete(doc["info"].(map[string]any), "version")
		return doc, nil
	})))

	_, err := l.Schema(context.Background())
	require.ErrorIs(t, err, schema.ErrOpenAPISchema)
	_, err = l.ResponseSchema(context.Background(), "/items/{id}", "GET", 200)
	require.ErrorIs(t, err, schema.ErrOpenAPISchema)
	assert.Equal(t, int32(1), calls.Load())

	raw, err := l.Raw(context.Background())
	require.NoError(t, err, "the raw document is available even when validation fails")
	assert.Contains(t, raw, "paths")
}

func TestLoader_ContextErrorNotCached(t *testing.T) {
	var calls atomic.Int32
	l := New(NewGenerated(GeneratorFunc(func(ctx context.Context) (any, error) {
		calls.Add(1)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return itemsDoc(), nil
	})))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := l.Schema(ctx)
	require.ErrorIs(t, err, context.Canceled)

	_, err = l.Schema(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestLoader_Route(t *testing.T) {
	gen := GeneratorFunc(func(context.Context) (any, error) { return itemsDoc(), nil })
	table := route.NewTable("/api/v1/items/{id}")

	tests := []struct {
		name     string
		opts     []ProviderOption
		path     string
		template string
	}{
		{
			name:     "no prefix",
			opts:     []ProviderOption{WithRoutes(table)},
			path:     "/api/v1/items/3",
			template: "/api/v1/items/{id}",
		},
		{
			name:     "fixed prefix",
			opts:     []ProviderOption{WithRoutes(table), WithFixedPrefix("/api/v1")},
			path:     "/api/v1/items/3",
			template: "/items/{id}",
		},
		{
			name:     "fixed prefix with trailing slash",
			opts:     []ProviderOption{WithRoutes(table), WithFixedPrefix("/api/v1/")},
			path:     "/api/v1/items/3",
			template: "/items/{id}",
		},
		{
			name:     "common prefix",
			opts:     []ProviderOption{WithRoutes(table), WithCommonPrefix([]string{"/api/v1/items/", "/api/v1/items/{id}"})},
			path:     "/api/v1/items/3",
			template: "/items/{id}",
		},
		{
			name:     "identity routes",
			opts:     []ProviderOption{WithFixedPrefix("/api")},
			path:     "/api/health",
			template: "/health",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(NewGenerated(gen, tt.opts...))
			r, err := l.Route(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.template, r.Template)
		})
	}
}

func TestLoader_ResponseSchemaWithPrefix(t *testing.T) {
	l := New(NewGenerated(
		GeneratorFunc(func(context.Context) (any, error) { return itemsDoc(), nil }),
		WithRoutes(route.NewTable("/api/v1/items/{id}")),
		WithFixedPrefix("/api/v1"),
	))

	fragment, err := l.ResponseSchema(context.Background(), "/api/v1/items/42", "get", 200)
	require.NoError(t, err)
	assert.Equal(t, "object", fragment["type"])

	_, err = l.ResponseSchema(context.Background(), "/api/v2/items/42", "get", 200)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no route matches")
}

func TestLoader_ResolveBaseURL(t *testing.T) {
	gen := NewGenerated(GeneratorFunc(func(context.Context) (any, error) { return nil, nil }))
	static := NewStatic("/srv/specs/openapi.yaml")
	withBasePath := schema.Raw{"swagger": "2.0", "basePath": "/api"}

	tests := []struct {
		name     string
		loader   *Loader
		raw      schema.Raw
		expected string
	}{
		{"override wins", New(static, WithBaseURL("https://example.com/")), withBasePath, "https://example.com/"},
		{"provider base", New(static), withBasePath, "/srv/specs"},
		{"document basePath", New(gen), withBasePath, "/api"},
		{"nothing", New(gen), schema.Raw{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.loader.resolveBaseURL(tt.raw))
		})
	}
}

func TestLoader_IndexerIsShared(t *testing.T) {
	l := New(NewGenerated(GeneratorFunc(func(context.Context) (any, error) { return itemsDoc(), nil })))
	assert.Same(t, l.Indexer(), l.Indexer())
}
