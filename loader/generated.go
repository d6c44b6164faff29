package loader

import (
	"context"
	"fmt"
	"strings"

	"github.com/kolah/respec/schema"
)

// Generator produces a document at runtime, for example from an
// application's registered handlers. Any value that marshals to a JSON
// object is accepted.
type Generator interface {
	Generate(ctx context.Context) (any, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context) (any, error)

func (f GeneratorFunc) Generate(ctx context.Context) (any, error) { return f(ctx) }

// GeneratedProvider obtains the document from a Generator.
type GeneratedProvider struct {
	base
	gen Generator
}

// NewGenerated creates a provider backed by gen.
func NewGenerated(gen Generator, opts ...ProviderOption) *GeneratedProvider {
	return &GeneratedProvider{base: newBase(opts), gen: gen}
}

func (p *GeneratedProvider) LoadSchema(ctx context.Context) (schema.Raw, error) {
	v, err := p.gen.Generate(ctx)
	if err != nil {
		return nil, fmt.Errorf("generating schema: %w", err)
	}
	raw, err := schema.FromValue(v)
	if err != nil {
		return nil, fmt.Errorf("normalizing generated schema: %w", err)
	}
	return raw, nil
}

var (
	_ Provider       = (*GeneratedProvider)(nil)
	_ PrefixProvider = (*GeneratedProvider)(nil)
)

// CommonPrefix returns the path prefix shared by all endpoints, the way
// schema generators strip it from documented paths: for each endpoint the
// static segments before the first parameter, minus the last one, are
// taken as its prefix; the result is their longest common segment prefix.
// It returns "/" when any endpoint has no such prefix.
//
//	/api/v1/users/, /api/v1/users/{pk}/ -> /api/v1
func CommonPrefix(endpoints []string) string {
	var common []string
	for i, endpoint := range endpoints {
		var static []string
		for _, segment := range strings.Split(strings.Trim(endpoint, "/"), "/") {
			if strings.Contains(segment, "{") {
				break
			}
			static = append(static, segment)
		}
		if len(static) < 2 {
			return "/"
		}
		prefix := static[:len(static)-1]

		if i == 0 {
			common = prefix
			continue
		}
		n := 0
		for n < len(common) && n < len(prefix) && common[n] == prefix[n] {
			n++
		}
		common = common[:n]
	}

	if len(common) == 0 {
		return "/"
	}
	return "/" + strings.Join(common, "/")
}
