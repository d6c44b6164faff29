package loader

import (
	"context"
	"os"
	"path/filepath"

	"github.com/kolah/respec/schema"
)

// StaticProvider reads the document from a JSON or YAML file.
type StaticProvider struct {
	base
	path string
}

// NewStatic creates a provider for the file at path.
func NewStatic(path string, opts ...ProviderOption) *StaticProvider {
	return &StaticProvider{base: newBase(opts), path: path}
}

func (p *StaticProvider) LoadSchema(_ context.Context) (schema.Raw, error) {
	format, ok := schema.FormatFromPath(p.path)
	if !ok {
		return nil, schema.NewConfigurationError(
			"unsupported schema file %q: expected a .json, .yaml or .yml extension", p.path)
	}

	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, &schema.ConfigurationError{
			Message: "unable to read schema file " + p.path,
			Cause:   err,
		}
	}

	raw, err := schema.Decode(data, format)
	if err != nil {
		return nil, &schema.ConfigurationError{
			Message: "unable to parse schema file " + p.path,
			Cause:   err,
		}
	}
	return raw, nil
}

// BaseURL is the absolute directory of the schema file.
func (p *StaticProvider) BaseURL() string {
	abs, err := filepath.Abs(p.path)
	if err != nil {
		return filepath.Dir(p.path)
	}
	return filepath.Dir(abs)
}

var (
	_ Provider        = (*StaticProvider)(nil)
	_ PrefixProvider  = (*StaticProvider)(nil)
	_ BaseURLProvider = (*StaticProvider)(nil)
)
