// Package indexer locates the schema documenting a response inside a
// resolved OpenAPI document and explains, in detail, why a lookup failed.
package indexer

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/kolah/respec/route"
	"github.com/kolah/respec/schema"
)

// Source provides the resolved document and the route for a request path.
// *loader.Loader implements it.
type Source interface {
	Schema(ctx context.Context) (schema.Resolved, error)
	Route(path string) (route.Route, error)
}

// Options configures an Indexer.
type Options struct {
	// I18nParameterName is the path parameter that carries the language in
	// internationalized routes. It only affects diagnostic text.
	I18nParameterName string
	// SkipValidationWarning adds a hint on how to exempt an undocumented
	// route from validation.
	SkipValidationWarning bool
	Logger                schema.Logger
}

// Indexer answers response schema lookups against a Source.
type Indexer struct {
	src    Source
	opts   Options
	logger schema.Logger
}

// New creates an Indexer.
func New(src Source, opts Options) *Indexer {
	return &Indexer{
		src:    src,
		opts:   opts,
		logger: schema.OrNop(opts.Logger),
	}
}

// ResponseSchema returns the schema of the response documented for path,
// method and status. v3 responses are unwrapped through their
// application/json content entry.
func (ix *Indexer) ResponseSchema(ctx context.Context, path, method string, status int) (map[string]any, error) {
	if err := ValidateMethod(method); err != nil {
		return nil, err
	}
	if path == "" {
		return nil, schema.NewConfigurationError("`route` is invalid")
	}
	if err := ValidateStatusCode(status); err != nil {
		return nil, err
	}

	r, err := ix.src.Route(path)
	if err != nil {
		return nil, fmt.Errorf("resolving route %q: %w", path, err)
	}
	doc, err := ix.src.Schema(ctx)
	if err != nil {
		return nil, err
	}

	paths, err := ix.index(doc, "paths", "paths", "")
	if err != nil {
		return nil, err
	}

	routeSchema, err := ix.indexRoute(paths, r, path)
	if err != nil {
		return nil, err
	}

	methodSchema, err := ix.index(routeSchema, "method", strings.ToLower(method), methodsAddon(routeSchema))
	if err != nil {
		return nil, err
	}

	responses, err := ix.index(methodSchema, "responses", "responses", "")
	if err != nil {
		return nil, err
	}

	code := strconv.Itoa(status)
	response, err := ix.index(responses, "status", code, statusAddon(responses, code))
	if err != nil {
		return nil, err
	}

	if content, ok := response["content"].(map[string]any); ok {
		if media, ok := content["application/json"].(map[string]any); ok {
			response = media
		}
	}

	return ix.index(response, "schema", "schema", "")
}

// indexRoute tries each candidate path of r in turn. The first failure is
// reported when none matches.
func (ix *Indexer) indexRoute(paths map[string]any, r route.Route, requested string) (map[string]any, error) {
	addon := ix.routesAddon(paths, requested)

	var first error
	for _, candidate := range r.Paths() {
		found, err := ix.index(paths, "route", candidate, addon)
		if err == nil {
			return found, nil
		}
		if first == nil {
			first = err
		}
	}
	return nil, first
}

func (ix *Indexer) index(node map[string]any, section, key, addon string) (map[string]any, error) {
	ix.logger.Debug("indexing schema", "section", section, "key", key)

	v, ok := node[key]
	if !ok {
		return nil, &schema.UndocumentedSchemaSectionError{
			Section:   section,
			Key:       key,
			Available: sortedKeys(node),
			Addon:     addon,
		}
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, &schema.SchemaShapeError{Node: v, Message: fmt.Sprintf("`%s` must be a mapping", key)}
	}
	return m, nil
}

func (ix *Indexer) routesAddon(paths map[string]any, requested string) string {
	var b strings.Builder
	if routes := sortedKeys(paths); len(routes) > 0 {
		if name := ix.opts.I18nParameterName; name != "" {
			fmt.Fprintf(&b, "\n\nDid you specify the correct i18n parameter name? "+
				"Your project settings specify `%s` as the name of your parameterized language, "+
				"meaning a path like `/api/en/items` will be indexed as `/api/{%s}/items`.", name, name)
		}
		b.WriteString("\n\nFor debugging purposes, other valid routes include: \n\n\t• ")
		b.WriteString(strings.Join(routes, "\n\t• "))
	}
	if ix.opts.SkipValidationWarning {
		fmt.Fprintf(&b, "\n\nTo skip validation for this route you can add `^%s$` "+
			"to your validation exempt URLs setting.", requested)
	}
	return b.String()
}

func methodsAddon(routeSchema map[string]any) string {
	var methods []string
	for _, k := range sortedKeys(routeSchema) {
		if strings.EqualFold(k, "parameters") {
			continue
		}
		methods = append(methods, strings.ToUpper(k))
	}
	if len(methods) == 0 {
		return ""
	}
	return "\n\nAvailable methods include: " + strings.Join(methods, ", ") + "."
}

func statusAddon(responses map[string]any, code string) string {
	addon := fmt.Sprintf(" Is the `%s` response documented?", code)
	if codes := sortedKeys(responses); len(codes) > 0 {
		addon = "\n\nDocumented responses include: " + strings.Join(codes, ", ") + ". " + addon
	}
	return addon
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
