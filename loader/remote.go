package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"time"

	"github.com/kolah/respec/schema"
)

// RemoteProvider fetches the document over HTTP. Relative references in
// the document resolve against its URL.
type RemoteProvider struct {
	base
	url string
}

// NewRemote creates a provider for the document at url.
func NewRemote(url string, opts ...ProviderOption) *RemoteProvider {
	return &RemoteProvider{base: newBase(opts), url: url}
}

func (p *RemoteProvider) LoadSchema(ctx context.Context) (schema.Raw, error) {
	data, contentType, err := p.Fetch(ctx, p.url)
	if err != nil {
		return nil, &schema.SchemaResolutionError{Ref: p.url, Message: "fetching remote schema", Cause: err}
	}

	format, ok := schema.FormatFromContentType(contentType)
	if !ok {
		if format, ok = schema.FormatFromPath(path.Base(p.url)); !ok {
			format = schema.FormatYAML
		}
	}

	raw, err := schema.Decode(data, format)
	if err != nil {
		return nil, &schema.SchemaResolutionError{Ref: p.url, Message: "decoding remote schema", Cause: err}
	}
	return raw, nil
}

// BaseURL is the document URL.
func (p *RemoteProvider) BaseURL() string {
	return p.url
}

// Fetcher exposes Fetch for http(s) references found in the document.
func (p *RemoteProvider) Fetcher() schema.Fetcher {
	return p.Fetch
}

// Fetch retrieves url, retrying network failures and 5xx responses.
func (p *RemoteProvider) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	var lastErr error
	for attempt := 0; attempt <= p.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, "", ctx.Err()
			case <-time.After(backoff(attempt)):
			}
		}

		data, contentType, err := p.fetchOnce(ctx, url)
		if err == nil {
			return data, contentType, nil
		}
		lastErr = err

		var statusErr *statusError
		if errors.As(err, &statusErr) && statusErr.code < http.StatusInternalServerError {
			break
		}
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
	}
	return nil, "", lastErr
}

func (p *RemoteProvider) fetchOnce(ctx context.Context, url string) ([]byte, string, error) {
	reqCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9, */*;q=0.5")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", &statusError{code: resp.StatusCode, status: resp.Status}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("reading response body: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

type statusError struct {
	code   int
	status string
}

func (e *statusError) Error() string {
	return "unexpected status " + e.status
}

func backoff(attempt int) time.Duration {
	return time.Duration(attempt) * 100 * time.Millisecond
}

var (
	_ Provider        = (*RemoteProvider)(nil)
	_ BaseURLProvider = (*RemoteProvider)(nil)
	_ FetcherProvider = (*RemoteProvider)(nil)
)
