// Package loader obtains a raw OpenAPI document from a provider and turns
// it into a cached, resolved and validated schema.
package loader

import (
	"context"
	"errors"
	"path/filepath"
	"sync"

	"github.com/kolah/respec/indexer"
	"github.com/kolah/respec/route"
	"github.com/kolah/respec/schema"
)

// Provider supplies the raw document and maps request paths to routes.
type Provider interface {
	LoadSchema(ctx context.Context) (schema.Raw, error)
	Route(path string) (route.Route, error)
}

// PrefixProvider is implemented by providers whose documented paths omit a
// common prefix of the request paths.
type PrefixProvider interface {
	PathPrefix() (string, error)
}

// BaseURLProvider is implemented by providers that know where relative
// references should be resolved from.
type BaseURLProvider interface {
	BaseURL() string
}

// FetcherProvider is implemented by providers able to fetch http(s)
// references.
type FetcherProvider interface {
	Fetcher() schema.Fetcher
}

// Option configures a Loader.
type Option func(*Loader)

// WithBaseURL overrides the base used for relative references.
func WithBaseURL(baseURL string) Option {
	return func(l *Loader) { l.baseURL = baseURL }
}

// WithLogger sets the logger used by the loader and everything it drives.
func WithLogger(logger schema.Logger) Option {
	return func(l *Loader) { l.logger = schema.OrNop(logger) }
}

// WithFetcher enables http(s) references for providers that do not fetch
// on their own.
func WithFetcher(f schema.Fetcher) Option {
	return func(l *Loader) { l.fetcher = f }
}

// WithMaxDepth overrides the resolver depth limit.
func WithMaxDepth(depth int) Option {
	return func(l *Loader) { l.maxDepth = depth }
}

// WithIndexOptions configures the indexer behind ResponseSchema.
func WithIndexOptions(opts indexer.Options) Option {
	return func(l *Loader) { l.indexOptions = opts }
}

// Loader loads, resolves and validates a schema once and serves it for the
// rest of its lifetime. It is safe for concurrent use.
type Loader struct {
	provider     Provider
	baseURL      string
	fetcher      schema.Fetcher
	maxDepth     int
	logger       schema.Logger
	indexOptions indexer.Options

	mu       sync.Mutex
	loaded   bool
	raw      schema.Raw
	resolved schema.Resolved
	err      error

	indexOnce sync.Once
	index     *indexer.Indexer
}

// New creates a Loader around provider.
func New(provider Provider, opts ...Option) *Loader {
	l := &Loader{
		provider: provider,
		logger:   schema.NopLogger{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Schema returns the resolved document, loading it on first use. A failed
// load is cached and returned from every later call, except when it was
// caused by ctx ending.
func (l *Loader) Schema(ctx context.Context) (schema.Resolved, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.loaded {
		return l.resolved, l.err
	}

	resolved, err := l.load(ctx)
	if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return nil, err
	}
	l.loaded = true
	l.resolved, l.err = resolved, err
	return resolved, err
}

// Raw returns the document as supplied by the provider, loading it first
// if needed.
func (l *Loader) Raw(ctx context.Context) (schema.Raw, error) {
	_, err := l.Schema(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.raw == nil {
		return nil, err
	}
	return l.raw, nil
}

func (l *Loader) load(ctx context.Context) (schema.Resolved, error) {
	raw, err := l.provider.LoadSchema(ctx)
	if err != nil {
		return nil, err
	}
	l.raw = raw

	baseURL := l.resolveBaseURL(raw)
	opts := []schema.ResolverOption{
		schema.WithResolverLogger(l.logger),
		schema.WithMaxDepth(l.maxDepth),
	}
	if f := l.resolveFetcher(); f != nil {
		opts = append(opts, schema.WithFetcher(f))
	}

	resolved, err := schema.Resolve(ctx, raw, baseURL, opts...)
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(ctx, resolved, schema.WithValidatorLogger(l.logger)); err != nil {
		return nil, err
	}
	// Second pass over the validated tree; a no-op on well-formed input.
	resolved, err = schema.Resolve(ctx, resolved, baseURL, opts...)
	if err != nil {
		return nil, err
	}

	l.logger.Info("schema loaded",
		"dialect", schema.DialectOf(resolved),
		"paths", countPaths(resolved),
	)
	return resolved, nil
}

func (l *Loader) resolveBaseURL(raw schema.Raw) string {
	if l.baseURL != "" {
		return l.baseURL
	}
	if p, ok := l.provider.(BaseURLProvider); ok {
		if base := p.BaseURL(); base != "" {
			return base
		}
	}
	if base, ok := raw["basePath"].(string); ok {
		return base
	}
	return ""
}

// SourceDir is the absolute directory the document was read from, or ""
// when the provider does not read from the local filesystem.
func (l *Loader) SourceDir() string {
	p, ok := l.provider.(BaseURLProvider)
	if !ok {
		return ""
	}
	if dir := p.BaseURL(); filepath.IsAbs(dir) {
		return dir
	}
	return ""
}

func (l *Loader) resolveFetcher() schema.Fetcher {
	if l.fetcher != nil {
		return l.fetcher
	}
	if p, ok := l.provider.(FetcherProvider); ok {
		return p.Fetcher()
	}
	return nil
}

// Route resolves path through the provider and strips the provider's
// path prefix from the template.
func (l *Loader) Route(path string) (route.Route, error) {
	r, err := l.provider.Route(path)
	if err != nil {
		return route.Route{}, err
	}

	p, ok := l.provider.(PrefixProvider)
	if !ok {
		return r, nil
	}
	prefix, err := p.PathPrefix()
	if err != nil {
		return route.Route{}, err
	}
	l.logger.Debug("path prefix", "prefix", prefix)
	return r.WithoutPrefix(prefix), nil
}

// Indexer returns the indexer bound to this loader.
func (l *Loader) Indexer() *indexer.Indexer {
	l.indexOnce.Do(func() {
		opts := l.indexOptions
		if opts.Logger == nil {
			opts.Logger = l.logger
		}
		l.index = indexer.New(l, opts)
	})
	return l.index
}

// ResponseSchema returns the schema fragment documenting the response to
// method on path with the given status code.
func (l *Loader) ResponseSchema(ctx context.Context, path, method string, status int) (map[string]any, error) {
	return l.Indexer().ResponseSchema(ctx, path, method, status)
}

var _ indexer.Source = (*Loader)(nil)

func countPaths(doc schema.Resolved) int {
	paths, _ := doc["paths"].(map[string]any)
	return len(paths)
}
