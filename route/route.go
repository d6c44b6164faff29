// Package route models request paths as OpenAPI path templates plus the
// concrete parameter values a request supplied.
package route

import (
	"regexp"
	"strings"
)

var parameterPattern = regexp.MustCompile(`\{(\w+)\}`)

// Route is a deparameterized path such as /api/{language}/items/{pk}
// together with the values its parameters took on a concrete request.
type Route struct {
	Template string
	// Values maps parameter names to the literal path segment values.
	Values map[string]string
	// Parameters lists parameter names in template order.
	Parameters []string
}

// New builds a Route from a template and its parameter values. Parameters
// are extracted from the template.
func New(template string, values map[string]string) Route {
	return Route{
		Template:   template,
		Values:     values,
		Parameters: Parameters(template),
	}
}

// Parameters returns the parameter names of a path template in order.
func Parameters(template string) []string {
	matches := parameterPattern.FindAllStringSubmatch(template, -1)
	if len(matches) == 0 {
		return nil
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

// Paths returns the candidate lookup keys for the route: the template
// first, then variants with the first 1..n parameters substituted by their
// values. It always has 1+len(Parameters) entries.
//
// Schemas sometimes document a parameterized segment with its literal
// value, e.g. /api/en/items/{pk} next to /api/{language}/items/{pk}.
func (r Route) Paths() []string {
	paths := make([]string, 0, len(r.Parameters)+1)
	current := r.Template
	paths = append(paths, current)
	for _, name := range r.Parameters {
		if value, ok := r.Values[name]; ok {
			current = strings.Replace(current, "{"+name+"}", value, 1)
		}
		paths = append(paths, current)
	}
	return paths
}

// WithoutPrefix returns a copy of the route with prefix trimmed from the
// template. An empty or "/" prefix leaves the route untouched.
func (r Route) WithoutPrefix(prefix string) Route {
	if prefix == "" || prefix == "/" {
		return r
	}
	prefix = strings.TrimSuffix(prefix, "/")
	if !strings.HasPrefix(r.Template, prefix) {
		return r
	}
	trimmed := strings.TrimPrefix(r.Template, prefix)
	if trimmed != "" && !strings.HasPrefix(trimmed, "/") {
		// Prefix ended mid-segment.
		return r
	}
	if trimmed == "" {
		trimmed = "/"
	}
	r.Template = trimmed
	return r
}

// Resolver turns a request path into a Route.
type Resolver interface {
	Resolve(path string) (Route, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(path string) (Route, error)

func (f ResolverFunc) Resolve(path string) (Route, error) { return f(path) }

// Identity resolves every path to a parameterless route of itself.
var Identity Resolver = ResolverFunc(func(path string) (Route, error) {
	return New(path, nil), nil
})
