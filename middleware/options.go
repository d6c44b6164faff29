package middleware

import (
	"net/http"

	"github.com/kolah/respec/schema"
)

// Reporter is called for every response that is not documented.
type Reporter func(r *http.Request, err *UndocumentedResponseError)

// Options configures middleware behavior.
type Options struct {
	// ValidationExemptURLs are regular expressions matched against the
	// request path. Matching requests are not checked.
	ValidationExemptURLs []string
	Reporter             Reporter
	// Logger receives a warning per undocumented response when no
	// Reporter is set.
	Logger schema.Logger
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() *Options {
	return &Options{
		Logger: schema.NopLogger{},
	}
}
