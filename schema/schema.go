// Package schema holds the in-memory representation of an OpenAPI document
// and the engine that turns a raw document into a self-contained one: $ref
// resolution with cycle truncation, meta-schema validation and the tagged
// node view used for example synthesis.
package schema

import (
	"fmt"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"go.yaml.in/yaml/v4"
)

// RecursiveRefKey marks a node that replaced a recursive $ref. Consumers
// must treat such a node as an intentionally truncated schema.
const RecursiveRefKey = "x-recursive-ref-replaced"

// Raw is an OpenAPI document as parsed from JSON or YAML. It may contain
// $ref nodes anywhere a schema is expected.
type Raw = map[string]any

// Resolved is a Raw with every $ref replaced by its target and every cycle
// edge replaced by a sentinel node.
type Resolved = map[string]any

// Dialect is the OpenAPI major version family of a document.
type Dialect string

const (
	DialectV2 Dialect = "v2"
	DialectV3 Dialect = "v3"
)

// DialectOf selects v3 when the document declares a top-level `openapi`
// key and v2 otherwise.
func DialectOf(doc map[string]any) Dialect {
	if _, ok := doc["openapi"]; ok {
		return DialectV3
	}
	return DialectV2
}

// Sentinel returns a fresh recursive-ref marker node.
func Sentinel() map[string]any {
	return map[string]any{RecursiveRefKey: true}
}

// IsSentinel reports whether node is a recursive-ref marker.
func IsSentinel(node map[string]any) bool {
	v, ok := node[RecursiveRefKey].(bool)
	return ok && v
}

// Format is the serialization of a schema source.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath derives the format from a file extension.
func FormatFromPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, true
	case ".yaml", ".yml":
		return FormatYAML, true
	}
	return "", false
}

// FormatFromContentType derives the format from an HTTP Content-Type.
func FormatFromContentType(contentType string) (Format, bool) {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "json"):
		return FormatJSON, true
	case strings.Contains(ct, "yaml"), strings.Contains(ct, "yml"):
		return FormatYAML, true
	}
	return "", false
}

// Decode parses data in the given format into a Raw document.
func Decode(data []byte, format Format) (Raw, error) {
	var v any
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("parsing JSON: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("parsing YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format: %q", format)
	}

	doc, ok := Normalize(v).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("document root must be a mapping, got %T", v)
	}
	return doc, nil
}

// Normalize converts YAML mappings with non-string keys (such as unquoted
// status codes) into map[string]any, recursively.
func Normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = Normalize(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = Normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Normalize(val)
		}
		return out
	default:
		return v
	}
}

// FromValue round-trips an arbitrary Go value through JSON so that the
// result only contains maps, slices and scalars.
func FromValue(v any) (Raw, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding generated schema: %w", err)
	}
	return Decode(data, FormatJSON)
}

// DeepCopy copies a JSON-compatible value.
func DeepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = DeepCopy(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = DeepCopy(val)
		}
		return out
	default:
		return v
	}
}
