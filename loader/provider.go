package loader

import (
	"net/http"
	"time"

	"github.com/kolah/respec/route"
)

// ProviderOption configures the providers in this package. Options that do
// not apply to a provider are ignored by it.
type ProviderOption func(*base)

// WithRoutes sets the route collaborator. Without one the request path is
// used as the route template.
func WithRoutes(routes route.Resolver) ProviderOption {
	return func(b *base) { b.routes = routes }
}

// WithFixedPrefix declares the path prefix the documented paths omit.
func WithFixedPrefix(prefix string) ProviderOption {
	return func(b *base) {
		b.prefix = func() (string, error) { return prefix, nil }
	}
}

// WithCommonPrefix derives the path prefix from the application's endpoint
// templates, see CommonPrefix.
func WithCommonPrefix(endpoints []string) ProviderOption {
	return func(b *base) {
		b.prefix = func() (string, error) { return CommonPrefix(endpoints), nil }
	}
}

// WithTimeout bounds each remote fetch attempt.
func WithTimeout(d time.Duration) ProviderOption {
	return func(b *base) { b.timeout = d }
}

// WithRetries sets how many times a failed remote fetch is retried.
func WithRetries(n int) ProviderOption {
	return func(b *base) { b.retries = n }
}

// WithHTTPClient sets the client used for remote fetches.
func WithHTTPClient(c *http.Client) ProviderOption {
	return func(b *base) { b.client = c }
}

const (
	defaultTimeout = 10 * time.Second
	defaultRetries = 2
)

// base carries what every provider shares: routing, prefix handling and
// the remote fetch settings.
type base struct {
	routes route.Resolver
	prefix func() (string, error)

	timeout time.Duration
	retries int
	client  *http.Client
}

func newBase(opts []ProviderOption) base {
	b := base{
		timeout: defaultTimeout,
		retries: defaultRetries,
	}
	for _, opt := range opts {
		opt(&b)
	}
	if b.client == nil {
		b.client = http.DefaultClient
	}
	return b
}

func (b *base) Route(path string) (route.Route, error) {
	if b.routes == nil {
		return route.Identity.Resolve(path)
	}
	return b.routes.Resolve(path)
}

func (b *base) PathPrefix() (string, error) {
	if b.prefix == nil {
		return "", nil
	}
	return b.prefix()
}
