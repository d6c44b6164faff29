package indexer

import (
	"context"
	"slices"
	"strings"
)

// Endpoint is one documented response.
type Endpoint struct {
	Path   string `json:"path" yaml:"path"`
	Method string `json:"method" yaml:"method"`
	Status string `json:"status" yaml:"status"`
}

// Routes lists every documented (path, method, status) triple, sorted.
// Only the methods in Methods are reported.
func (ix *Indexer) Routes(ctx context.Context) ([]Endpoint, error) {
	doc, err := ix.src.Schema(ctx)
	if err != nil {
		return nil, err
	}
	paths, err := ix.index(doc, "paths", "paths", "")
	if err != nil {
		return nil, err
	}

	var out []Endpoint
	for _, path := range sortedKeys(paths) {
		item, ok := paths[path].(map[string]any)
		if !ok {
			continue
		}
		for _, method := range sortedKeys(item) {
			if !slices.Contains(Methods, strings.ToLower(method)) {
				continue
			}
			op, ok := item[method].(map[string]any)
			if !ok {
				continue
			}
			responses, _ := op["responses"].(map[string]any)
			for _, status := range sortedKeys(responses) {
				out = append(out, Endpoint{
					Path:   path,
					Method: strings.ToUpper(method),
					Status: status,
				})
			}
		}
	}
	return out, nil
}
