package schema

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for use with errors.Is.
var (
	ErrConfiguration     = errors.New("configuration error")
	ErrUndocumented      = errors.New("undocumented schema section")
	ErrResolution        = errors.New("schema resolution error")
	ErrInfiniteRecursion = errors.New("infinite recursion")
	ErrOpenAPISchema     = errors.New("openapi schema error")
	ErrSchemaShape       = errors.New("schema shape error")
)

// ConfigurationError reports invalid caller input: a bad method, an out of
// range status code, an unreadable or unsupported schema file.
type ConfigurationError struct {
	Message string
	Cause   error
}

func (e *ConfigurationError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ConfigurationError) Unwrap() error { return e.Cause }

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// NewConfigurationError creates a ConfigurationError with a formatted message.
func NewConfigurationError(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Message: fmt.Sprintf(format, args...)}
}

// UndocumentedSchemaSectionError is returned when the schema has no entry for
// a requested path, method or status code. Available lists the sibling keys
// that do exist at the failing level.
type UndocumentedSchemaSectionError struct {
	// Section names the level that failed: "paths", "route", "method", "responses", "status", "schema".
	Section   string
	Key       string
	Available []string
	// Addon is extra diagnostic text appended to the message.
	Addon string
}

func (e *UndocumentedSchemaSectionError) Error() string {
	return fmt.Sprintf("Failed indexing schema.\n\nError: Unsuccessfully tried to index the OpenAPI schema by `%s`. %s",
		e.Key, e.Addon)
}

func (e *UndocumentedSchemaSectionError) Is(target error) bool { return target == ErrUndocumented }

// SchemaResolutionError reports a $ref that could not be resolved.
type SchemaResolutionError struct {
	Ref     string
	Message string
	Cause   error
}

func (e *SchemaResolutionError) Error() string {
	msg := "schema resolution error"
	if e.Ref != "" {
		msg += ": " + e.Ref
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *SchemaResolutionError) Unwrap() error { return e.Cause }

func (e *SchemaResolutionError) Is(target error) bool { return target == ErrResolution }

// InfiniteRecursionError is returned when reference expansion exceeds the
// configured depth even though cycles are replaced by sentinels.
type InfiniteRecursionError struct {
	Ref   string
	Depth int
}

func (e *InfiniteRecursionError) Error() string {
	return fmt.Sprintf("infinite recursion error: expansion of %q exceeded depth %d", e.Ref, e.Depth)
}

func (e *InfiniteRecursionError) Is(target error) bool { return target == ErrInfiniteRecursion }

// OpenAPISchemaError carries the structural errors reported by the
// meta-schema validator for the given dialect.
type OpenAPISchemaError struct {
	Dialect Dialect
	Errors  []string
	Cause   error
}

func (e *OpenAPISchemaError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "invalid OpenAPI %s schema", e.Dialect)
	if e.Cause != nil {
		b.WriteString(": " + e.Cause.Error())
	}
	for _, msg := range e.Errors {
		b.WriteString("\n\t- " + msg)
	}
	return b.String()
}

func (e *OpenAPISchemaError) Unwrap() error { return e.Cause }

func (e *OpenAPISchemaError) Is(target error) bool { return target == ErrOpenAPISchema }

// SchemaShapeError reports a schema node that lacks what example synthesis
// needs, usually a `type`.
type SchemaShapeError struct {
	Node    any
	Message string
}

func (e *SchemaShapeError) Error() string {
	return fmt.Sprintf("%s: %v", e.Message, e.Node)
}

func (e *SchemaShapeError) Is(target error) bool { return target == ErrSchemaShape }
