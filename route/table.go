package route

import (
	"fmt"
	"sort"
)

// Table resolves request paths against a set of registered templates.
type Table struct {
	templates []string
}

// NewTable creates a table from path templates like /api/{language}/items/{pk}.
func NewTable(templates ...string) *Table {
	t := &Table{}
	for _, tmpl := range templates {
		t.Add(tmpl)
	}
	return t
}

// Add registers a template. Duplicates are ignored.
func (t *Table) Add(template string) {
	for _, existing := range t.templates {
		if existing == template {
			return
		}
	}
	t.templates = append(t.templates, template)
}

// Templates returns the registered templates sorted.
func (t *Table) Templates() []string {
	out := make([]string, len(t.templates))
	copy(out, t.templates)
	sort.Strings(out)
	return out
}

// Resolve matches path against the registered templates. A path equal to a
// template resolves to that template with no values. Templates with fewer
// parameters win when several match.
func (t *Table) Resolve(path string) (Route, error) {
	var (
		best      Route
		bestScore = -1
	)
	for _, tmpl := range t.templates {
		values, ok := matchPath(tmpl, path)
		if !ok {
			continue
		}
		if bestScore == -1 || len(values) < bestScore {
			best = New(tmpl, values)
			bestScore = len(values)
		}
	}
	if bestScore == -1 {
		return Route{}, fmt.Errorf("no route matches %q", path)
	}
	return best, nil
}

var _ Resolver = (*Table)(nil)

func matchPath(pattern, path string) (map[string]string, bool) {
	patternParts := splitPath(pattern)
	pathParts := splitPath(path)

	if len(patternParts) != len(pathParts) {
		return nil, false
	}

	values := make(map[string]string)
	for i, pp := range patternParts {
		if isParameter(pp) {
			if pathParts[i] == "" {
				return nil, false
			}
			if pathParts[i] != pp {
				values[pp[1:len(pp)-1]] = pathParts[i]
			}
			continue
		}
		if pp != pathParts[i] {
			return nil, false
		}
	}
	return values, true
}

func isParameter(part string) bool {
	return len(part) > 2 && part[0] == '{' && part[len(part)-1] == '}'
}

func splitPath(p string) []string {
	if len(p) > 0 && p[0] == '/' {
		p = p[1:]
	}
	if len(p) > 0 && p[len(p)-1] == '/' {
		p = p[:len(p)-1]
	}
	if len(p) == 0 {
		return nil
	}
	var parts []string
	start := 0
	for i := 0; i < len(p); i++ {
		if p[i] == '/' {
			parts = append(parts, p[start:i])
			start = i + 1
		}
	}
	parts = append(parts, p[start:])
	return parts
}
