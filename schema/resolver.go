package schema

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultMaxDepth bounds the nesting depth of a resolved document. Cycle
// truncation keeps real documents far below it.
const DefaultMaxDepth = 512

// Fetcher retrieves a remote document, returning its body and content type.
type Fetcher func(ctx context.Context, url string) ([]byte, string, error)

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithFetcher enables http(s) references.
func WithFetcher(f Fetcher) ResolverOption {
	return func(r *Resolver) { r.fetch = f }
}

// WithMaxDepth overrides DefaultMaxDepth.
func WithMaxDepth(depth int) ResolverOption {
	return func(r *Resolver) {
		if depth > 0 {
			r.maxDepth = depth
		}
	}
}

// WithResolverLogger sets the logger used for resolution diagnostics.
func WithResolverLogger(l Logger) ResolverOption {
	return func(r *Resolver) { r.logger = OrNop(l) }
}

// Resolver expands every $ref of a document into a fresh, finite tree.
//
// A reference whose target is currently being expanded on the active walk
// (an ancestor of the node holding the $ref, or a target already followed
// to get there) is replaced by a Sentinel node instead of being expanded.
type Resolver struct {
	baseURL  string
	fetch    Fetcher
	maxDepth int
	logger   Logger

	root      map[string]any
	documents map[string]map[string]any
	// expanding holds the keys of the fragments on the active resolution path.
	expanding map[string]int
	cycles    int
}

// NewResolver creates a resolver. baseURL is used for relative references:
// a directory for file references or a document URL for http references.
func NewResolver(baseURL string, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		baseURL:  baseURL,
		maxDepth: DefaultMaxDepth,
		logger:   NopLogger{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve is shorthand for NewResolver(baseURL, opts...).Resolve(ctx, raw).
func Resolve(ctx context.Context, raw Raw, baseURL string, opts ...ResolverOption) (Resolved, error) {
	return NewResolver(baseURL, opts...).Resolve(ctx, raw)
}

// Resolve returns a dereferenced copy of raw. raw itself is not modified.
func (r *Resolver) Resolve(ctx context.Context, raw Raw) (Resolved, error) {
	r.root = raw
	r.documents = make(map[string]map[string]any)
	r.expanding = make(map[string]int)
	r.cycles = 0

	out, err := r.walk(ctx, raw, location{}, 0)
	if err != nil {
		return nil, err
	}
	if r.cycles > 0 {
		r.logger.Debug("recursive references truncated", "count", r.cycles)
	}
	doc, ok := out.(map[string]any)
	if !ok {
		ref, _ := raw["$ref"].(string)
		return nil, &SchemaResolutionError{
			Ref:     ref,
			Message: fmt.Sprintf("document root must resolve to a mapping, got %T", out),
		}
	}
	return doc, nil
}

// Cycles returns the number of references replaced by a sentinel during
// the last Resolve call.
func (r *Resolver) Cycles() int {
	return r.cycles
}

// location identifies a node: the document it lives in ("" for the root
// document) and its canonical JSON pointer.
type location struct {
	doc     string
	pointer string
}

func (l location) key() string {
	return l.doc + "#" + l.pointer
}

func (l location) child(token string) location {
	return location{doc: l.doc, pointer: l.pointer + "/" + escapePointerToken(token)}
}

func (r *Resolver) enter(key string) func() {
	r.expanding[key]++
	return func() {
		r.expanding[key]--
		if r.expanding[key] == 0 {
			delete(r.expanding, key)
		}
	}
}

func (r *Resolver) walk(ctx context.Context, node any, loc location, depth int) (any, error) {
	if depth > r.maxDepth {
		return nil, &InfiniteRecursionError{Ref: loc.key(), Depth: r.maxDepth}
	}

	switch v := node.(type) {
	case map[string]any:
		if ref, ok := v["$ref"].(string); ok {
			return r.expand(ctx, v, ref, loc, depth)
		}
		defer r.enter(loc.key())()
		out := make(map[string]any, len(v))
		for k, val := range v {
			child, err := r.walk(ctx, val, loc.child(k), depth+1)
			if err != nil {
				return nil, err
			}
			out[k] = child
		}
		return out, nil

	case []any:
		defer r.enter(loc.key())()
		out := make([]any, len(v))
		for i, val := range v {
			child, err := r.walk(ctx, val, loc.child(strconv.Itoa(i)), depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = child
		}
		return out, nil

	default:
		return v, nil
	}
}

func (r *Resolver) expand(ctx context.Context, node map[string]any, ref string, loc location, depth int) (any, error) {
	target, err := r.locate(loc.doc, ref)
	if err != nil {
		return nil, err
	}

	key := target.key()
	if r.expanding[key] > 0 {
		r.cycles++
		r.logger.Debug("replacing recursive reference", "ref", ref, "at", loc.key())
		return Sentinel(), nil
	}

	value, err := r.lookup(ctx, target, ref)
	if err != nil {
		return nil, err
	}

	release := r.enter(key)
	resolved, err := r.walk(ctx, value, target, depth+1)
	release()
	if err != nil {
		return nil, err
	}

	if len(node) == 1 {
		return resolved, nil
	}

	// Siblings of $ref override the referenced content.
	merged, ok := resolved.(map[string]any)
	if !ok {
		return resolved, nil
	}
	defer r.enter(loc.key())()
	for k, val := range node {
		if k == "$ref" {
			continue
		}
		child, err := r.walk(ctx, val, loc.child(k), depth+1)
		if err != nil {
			return nil, err
		}
		merged[k] = child
	}
	return merged, nil
}

// locate turns a $ref found in document `from` into the location it targets.
func (r *Resolver) locate(from, ref string) (location, error) {
	docPart, fragment, _ := strings.Cut(ref, "#")

	pointer, err := canonicalPointer(fragment)
	if err != nil {
		return location{}, &SchemaResolutionError{Ref: ref, Cause: err}
	}
	if docPart == "" {
		return location{doc: from, pointer: pointer}, nil
	}

	doc, err := r.documentURI(from, docPart)
	if err != nil {
		return location{}, &SchemaResolutionError{Ref: ref, Cause: err}
	}
	return location{doc: doc, pointer: pointer}, nil
}

func (r *Resolver) documentURI(from, ref string) (string, error) {
	if isHTTP(ref) {
		return ref, nil
	}

	base := from
	if base == "" {
		base = r.baseURL
	}

	if isHTTP(base) {
		b, err := url.Parse(base)
		if err != nil {
			return "", fmt.Errorf("invalid base URL %q: %w", base, err)
		}
		rel, err := url.Parse(ref)
		if err != nil {
			return "", fmt.Errorf("invalid reference URI %q: %w", ref, err)
		}
		return b.ResolveReference(rel).String(), nil
	}

	ref = strings.TrimPrefix(ref, "file://")
	if filepath.IsAbs(ref) {
		return filepath.Clean(ref), nil
	}

	dir := strings.TrimPrefix(base, "file://")
	if from != "" {
		dir = filepath.Dir(dir)
	}
	if dir == "" {
		dir = "."
	}
	return filepath.Clean(filepath.Join(dir, ref)), nil
}

func (r *Resolver) lookup(ctx context.Context, loc location, ref string) (any, error) {
	doc, err := r.document(ctx, loc.doc)
	if err != nil {
		return nil, &SchemaResolutionError{Ref: ref, Cause: err}
	}

	current := any(doc)
	if loc.pointer == "" {
		return current, nil
	}

	tokens := strings.Split(strings.TrimPrefix(loc.pointer, "/"), "/")
	for i, token := range tokens {
		token = unescapePointerToken(token)
		switch v := current.(type) {
		case map[string]any:
			next, ok := v[token]
			if !ok {
				return nil, &SchemaResolutionError{
					Ref:     ref,
					Message: fmt.Sprintf("missing key %q at #/%s", token, strings.Join(tokens[:i], "/")),
				}
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(token)
			if err != nil || idx < 0 || idx >= len(v) {
				return nil, &SchemaResolutionError{
					Ref:     ref,
					Message: fmt.Sprintf("invalid array index %q (length %d)", token, len(v)),
				}
			}
			current = v[idx]
		default:
			return nil, &SchemaResolutionError{
				Ref:     ref,
				Message: fmt.Sprintf("cannot traverse into %T at #/%s", v, strings.Join(tokens[:i], "/")),
			}
		}
	}
	return current, nil
}

func (r *Resolver) document(ctx context.Context, uri string) (map[string]any, error) {
	if uri == "" {
		return r.root, nil
	}
	if doc, ok := r.documents[uri]; ok {
		return doc, nil
	}

	var (
		data   []byte
		format Format
		err    error
	)
	if isHTTP(uri) {
		if r.fetch == nil {
			return nil, fmt.Errorf("http references require a fetcher: %s", uri)
		}
		var contentType string
		data, contentType, err = r.fetch(ctx, uri)
		if err != nil {
			return nil, fmt.Errorf("fetching %s: %w", uri, err)
		}
		var ok bool
		if format, ok = FormatFromContentType(contentType); !ok {
			format, _ = FormatFromPath(path.Base(uri))
		}
	} else {
		data, err = os.ReadFile(uri)
		if err != nil {
			return nil, fmt.Errorf("reading external document: %w", err)
		}
		format, _ = FormatFromPath(uri)
	}
	if format == "" {
		// YAML is a superset of JSON.
		format = FormatYAML
	}

	doc, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", uri, err)
	}
	r.logger.Debug("loaded external document", "uri", uri)
	r.documents[uri] = doc
	return doc, nil
}

func canonicalPointer(fragment string) (string, error) {
	if fragment == "" || fragment == "/" {
		return "", nil
	}
	if !strings.HasPrefix(fragment, "/") {
		return "", fmt.Errorf("unsupported fragment %q (only JSON pointers are supported)", fragment)
	}

	tokens := strings.Split(fragment[1:], "/")
	var b strings.Builder
	for _, token := range tokens {
		decoded, err := url.PathUnescape(token)
		if err != nil {
			decoded = token
		}
		b.WriteString("/")
		b.WriteString(escapePointerToken(unescapePointerToken(decoded)))
	}
	return b.String(), nil
}

// Per RFC 6901, ~1 represents / and ~0 represents ~.
func unescapePointerToken(token string) string {
	token = strings.ReplaceAll(token, "~1", "/")
	return strings.ReplaceAll(token, "~0", "~")
}

func escapePointerToken(token string) string {
	token = strings.ReplaceAll(token, "~", "~0")
	return strings.ReplaceAll(token, "/", "~1")
}

func isHTTP(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
