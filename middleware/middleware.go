package middleware

import (
	"fmt"
	"net/http"
	"regexp"

	"github.com/kolah/respec/indexer"
	"github.com/kolah/respec/schema"
)

// Middleware checks that every response written by the wrapped handler is
// documented in the OpenAPI schema. It never alters the response.
type Middleware struct {
	index   *indexer.Indexer
	options *Options
	exempt  []*regexp.Regexp
}

// New creates middleware backed by idx.
func New(idx *indexer.Indexer, opts *Options) (*Middleware, error) {
	if idx == nil {
		return nil, schema.NewConfigurationError("middleware requires an indexer")
	}
	if opts == nil {
		opts = DefaultOptions()
	}

	m := &Middleware{index: idx, options: opts}
	for _, pattern := range opts.ValidationExemptURLs {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, &schema.ConfigurationError{
				Message: fmt.Sprintf("invalid validation exempt URL %q", pattern),
				Cause:   err,
			}
		}
		m.exempt = append(m.exempt, re)
	}
	return m, nil
}

// Handler returns an http.Handler middleware.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		if m.isExempt(r.URL.Path) {
			return
		}
		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		if indexer.ValidateMethod(r.Method) != nil || indexer.ValidateStatusCode(status) != nil {
			return
		}

		if _, err := m.index.ResponseSchema(r.Context(), r.URL.Path, r.Method, status); err != nil {
			m.report(r, &UndocumentedResponseError{
				Method:     r.Method,
				Path:       r.URL.Path,
				StatusCode: status,
				Err:        err,
			})
		}
	})
}

func (m *Middleware) isExempt(path string) bool {
	for _, re := range m.exempt {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

func (m *Middleware) report(r *http.Request, err *UndocumentedResponseError) {
	if m.options.Reporter != nil {
		m.options.Reporter(r, err)
		return
	}
	schema.OrNop(m.options.Logger).Warn("undocumented response",
		"method", err.Method,
		"path", err.Path,
		"status", err.StatusCode,
		"error", err.Err,
	)
}

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}
