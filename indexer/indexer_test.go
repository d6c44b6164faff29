package indexer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kolah/respec/route"
	"github.com/kolah/respec/schema"
)

type fakeSource struct {
	doc    schema.Resolved
	err    error
	routes route.Resolver
}

func (f *fakeSource) Schema(context.Context) (schema.Resolved, error) {
	return f.doc, f.err
}

func (f *fakeSource) Route(path string) (route.Route, error) {
	if f.routes == nil {
		return route.Identity.Resolve(path)
	}
	return f.routes.Resolve(path)
}

func decode(t *testing.T, src string) schema.Resolved {
	t.Helper()
	raw, err := schema.Decode([]byte(src), schema.FormatYAML)
	require.NoError(t, err)
	resolved, err := schema.Resolve(context.Background(), raw, "")
	require.NoError(t, err)
	return resolved
}

const itemsV3 = `
openapi: "3.0.3"
info:
  title: Items
  version: "1.0"
paths:
  /items:
    parameters:
      - name: page
        in: query
        schema:
          type: integer
    get:
      responses:
        "200":
          description: OK
          content:
            application/json:
              schema:
                type: array
                items:
                  $ref: "#/components/schemas/Item"
    post:
      responses:
        "201":
          description: Created
          content:
            application/json:
              schema:
                $ref: "#/components/schemas/Item"
        "400":
          description: Bad request
  /items/{id}:
    get:
      responses:
        "200":
          description: OK
          content:
            application/json:
              schema:
                $ref: "#/components/schemas/Item"
  /api/{language}/items/{pk}:
    get:
      responses:
        "200":
          description: OK
          content:
            application/json:
              schema:
                type: string
                example: localized
components:
  schemas:
    Item:
      type: object
      properties:
        name:
          type: string
          example: Alice
`

const itemsV2 = `
swagger: "2.0"
info:
  title: Items
  version: "1.0"
paths:
  /items:
    get:
      responses:
        200:
          description: OK
          schema:
            type: object
            properties:
              count:
                type: integer
`

func TestResponseSchema(t *testing.T) {
	doc := decode(t, itemsV3)
	item := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name": map[string]any{"type": "string", "example": "Alice"},
		},
	}

	tests := []struct {
		name   string
		path   string
		method string
		status int
		want   map[string]any
	}{
		{name: "array response", path: "/items", method: "get", status: 200, want: map[string]any{"type": "array", "items": item}},
		{name: "method is case insensitive", path: "/items", method: "POST", status: 201, want: item},
		{name: "template path", path: "/items/{id}", method: "get", status: 200, want: item},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ix := New(&fakeSource{doc: doc}, Options{})
			got, err := ix.ResponseSchema(context.Background(), tt.path, tt.method, tt.status)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResponseSchemaV2(t *testing.T) {
	ix := New(&fakeSource{doc: decode(t, itemsV2)}, Options{})

	got, err := ix.ResponseSchema(context.Background(), "/items", "get", 200)
	require.NoError(t, err)
	assert.Equal(t, "object", got["type"])
	assert.Contains(t, got["properties"], "count")
}

func TestResponseSchemaParameterizedRetry(t *testing.T) {
	doc := decode(t, itemsV3)
	table := route.NewTable("/items/{id}", "/api/{lang}/items/{pk}")
	ix := New(&fakeSource{doc: doc, routes: table}, Options{})

	byTemplate, err := ix.ResponseSchema(context.Background(), "/items/{id}", "get", 200)
	require.NoError(t, err)
	byValue, err := ix.ResponseSchema(context.Background(), "/items/42", "get", 200)
	require.NoError(t, err)
	assert.Equal(t, byTemplate, byValue)
}

func TestResponseSchemaSubstitutesParameters(t *testing.T) {
	doc := decode(t, `
openapi: "3.0.3"
info:
  title: Localized
  version: "1.0"
paths:
  /api/en/items/{pk}:
    get:
      responses:
        "200":
          description: OK
          content:
            application/json:
              schema:
                type: string
`)
	// The route collaborator names the language parameter, but the schema
	// documents the literal language segment.
	table := route.NewTable("/api/{language}/items/{pk}")
	ix := New(&fakeSource{doc: doc, routes: table}, Options{})

	got, err := ix.ResponseSchema(context.Background(), "/api/en/items/3", "get", 200)
	require.NoError(t, err)
	assert.Equal(t, "string", got["type"])
}

func TestResponseSchemaUndocumented(t *testing.T) {
	doc := decode(t, itemsV3)

	tests := []struct {
		name        string
		opts        Options
		path        string
		method      string
		status      int
		section     string
		contains    []string
		notContains []string
	}{
		{
			name:    "status",
			path:    "/items",
			method:  "get",
			status:  404,
			section: "status",
			contains: []string{
				"Unsuccessfully tried to index the OpenAPI schema by `404`.",
				"Documented responses include: 200.",
				"Is the `404` response documented?",
			},
		},
		{
			name:    "method",
			path:    "/items",
			method:  "delete",
			status:  200,
			section: "method",
			contains: []string{
				"by `delete`",
				"Available methods include: GET, POST.",
			},
			notContains: []string{"PARAMETERS"},
		},
		{
			name:    "route",
			path:    "/missing",
			method:  "get",
			status:  200,
			section: "route",
			contains: []string{
				"by `/missing`",
				"other valid routes include: \n\n\t• /api/{language}/items/{pk}\n\t• /items\n\t• /items/{id}",
			},
			notContains: []string{"i18n", "To skip validation"},
		},
		{
			name:    "route with i18n and skip hints",
			opts:    Options{I18nParameterName: "language", SkipValidationWarning: true},
			path:    "/missing",
			method:  "get",
			status:  200,
			section: "route",
			contains: []string{
				"Your project settings specify `language`",
				"will be indexed as `/api/{language}/items`",
				"add `^/missing$`",
			},
		},
		{
			name:    "response without schema",
			path:    "/items",
			method:  "post",
			status:  400,
			section: "schema",
			contains: []string{
				"by `schema`",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ix := New(&fakeSource{doc: doc}, tt.opts)
			_, err := ix.ResponseSchema(context.Background(), tt.path, tt.method, tt.status)
			require.Error(t, err)
			assert.ErrorIs(t, err, schema.ErrUndocumented)

			var undocumented *schema.UndocumentedSchemaSectionError
			require.True(t, errors.As(err, &undocumented))
			assert.Equal(t, tt.section, undocumented.Section)
			assert.Contains(t, err.Error(), "Failed indexing schema.")
			for _, s := range tt.contains {
				assert.Contains(t, err.Error(), s)
			}
			for _, s := range tt.notContains {
				assert.NotContains(t, err.Error(), s)
			}
		})
	}
}

func TestResponseSchemaReportsFirstRouteError(t *testing.T) {
	doc := decode(t, itemsV3)
	table := route.NewTable("/things/{id}")
	ix := New(&fakeSource{doc: doc, routes: table}, Options{})

	_, err := ix.ResponseSchema(context.Background(), "/things/9", "get", 200)
	var undocumented *schema.UndocumentedSchemaSectionError
	require.True(t, errors.As(err, &undocumented))
	assert.Equal(t, "/things/{id}", undocumented.Key)
	assert.Equal(t, []string{"/api/{language}/items/{pk}", "/items", "/items/{id}"}, undocumented.Available)
}

func TestResponseSchemaInvalidInput(t *testing.T) {
	doc := decode(t, itemsV3)
	ix := New(&fakeSource{doc: doc}, Options{})

	tests := []struct {
		name   string
		path   string
		method string
		status int
	}{
		{name: "unknown method", path: "/items", method: "trace", status: 200},
		{name: "garbage method", path: "/items", method: "foo", status: 200},
		{name: "status too high", path: "/items", method: "get", status: 999},
		{name: "status too low", path: "/items", method: "get", status: 99},
		{name: "empty route", path: "", method: "get", status: 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ix.ResponseSchema(context.Background(), tt.path, tt.method, tt.status)
			require.Error(t, err)
			assert.ErrorIs(t, err, schema.ErrConfiguration)
		})
	}
}

func TestResponseSchemaSourceError(t *testing.T) {
	loadErr := &schema.OpenAPISchemaError{Dialect: schema.DialectV3, Errors: []string{"bad"}}
	ix := New(&fakeSource{err: loadErr}, Options{})

	_, err := ix.ResponseSchema(context.Background(), "/items", "get", 200)
	assert.ErrorIs(t, err, schema.ErrOpenAPISchema)
}

func TestValidateMethod(t *testing.T) {
	for _, m := range []string{"get", "POST", "Put", "patch", "delete", "options", "head"} {
		assert.NoError(t, ValidateMethod(m), m)
	}
	err := ValidateMethod("trace")
	require.Error(t, err)
	assert.Equal(t, "Method `trace` is invalid. Should be one of: GET, POST, PUT, PATCH, DELETE, OPTIONS, HEAD.", err.Error())
}

func TestParseStatusCode(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "200", want: 200},
		{in: " 404 ", want: 404},
		{in: "100", want: 100},
		{in: "505", want: 505},
		{in: "506", wantErr: true},
		{in: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStatusCode(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, schema.ErrConfiguration)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoutes(t *testing.T) {
	ix := New(&fakeSource{doc: decode(t, itemsV3)}, Options{})

	got, err := ix.Routes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Endpoint{
		{Path: "/api/{language}/items/{pk}", Method: "GET", Status: "200"},
		{Path: "/items", Method: "GET", Status: "200"},
		{Path: "/items", Method: "POST", Status: "201"},
		{Path: "/items", Method: "POST", Status: "400"},
		{Path: "/items/{id}", Method: "GET", Status: "200"},
	}, got)
}
