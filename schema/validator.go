package schema

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/pb33f/libopenapi"
	validator "github.com/pb33f/libopenapi-validator"
	"github.com/pb33f/libopenapi/datamodel"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ValidateOption configures Validate.
type ValidateOption func(*validateConfig)

type validateConfig struct {
	logger Logger
}

// WithValidatorLogger receives the diagnostics the document model builder
// emits while validating a v3 document.
func WithValidatorLogger(l Logger) ValidateOption {
	return func(c *validateConfig) { c.logger = OrNop(l) }
}

// Validate checks a dereferenced document against the OpenAPI meta-schema
// of its dialect. Failures are returned as *OpenAPISchemaError with one
// entry per failing location.
func Validate(ctx context.Context, doc Resolved, opts ...ValidateOption) error {
	cfg := validateConfig{logger: NopLogger{}}
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding resolved schema: %w", err)
	}

	switch DialectOf(doc) {
	case DialectV3:
		return validateV3(data, cfg.logger)
	default:
		return validateV2(data)
	}
}

func validateV3(data []byte, logger Logger) error {
	config := datamodel.NewDocumentConfiguration()
	config.Logger = NewSlogLogger(logger)

	doc, err := libopenapi.NewDocumentWithConfiguration(data, config)
	if err != nil {
		return &OpenAPISchemaError{Dialect: DialectV3, Cause: err}
	}

	v, errs := validator.NewValidator(doc)
	if len(errs) > 0 {
		return &OpenAPISchemaError{Dialect: DialectV3, Cause: errors.Join(errs...)}
	}

	valid, validationErrs := v.ValidateDocument()
	if valid {
		return nil
	}

	schemaErr := &OpenAPISchemaError{Dialect: DialectV3}
	for _, e := range validationErrs {
		if len(e.SchemaValidationErrors) == 0 {
			msg := e.Message
			if e.Reason != "" {
				msg += ": " + e.Reason
			}
			schemaErr.Errors = append(schemaErr.Errors, msg)
			continue
		}
		for _, f := range e.SchemaValidationErrors {
			schemaErr.Errors = appendFailure(schemaErr.Errors, f.Location, f.Reason)
		}
	}
	return schemaErr
}

// polyFailure matches the summary units of a failed combinator; their
// causes are reported individually.
var polyFailure = regexp.MustCompile(`^'?(anyOf|allOf|oneOf)'? failed(, none matched)?$`)

const swagger2SchemaURL = "http://swagger.io/v2/schema.json"

var swagger2Schema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(datamodel.OpenAPI2SchemaData))
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(swagger2SchemaURL, doc); err != nil {
		return nil, err
	}
	return c.Compile(swagger2SchemaURL)
})

func validateV2(data []byte) error {
	sch, err := swagger2Schema()
	if err != nil {
		return fmt.Errorf("compiling Swagger 2.0 meta-schema: %w", err)
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return &OpenAPISchemaError{Dialect: DialectV2, Cause: err}
	}

	err = sch.Validate(inst)
	if err == nil {
		return nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return &OpenAPISchemaError{Dialect: DialectV2, Cause: err}
	}

	schemaErr := &OpenAPISchemaError{Dialect: DialectV2}
	for _, unit := range verr.BasicOutput().Errors {
		if unit.Error == nil || unit.KeywordLocation == "" {
			continue
		}
		reason := unit.Error.String()
		if polyFailure.MatchString(reason) {
			continue
		}
		schemaErr.Errors = appendFailure(schemaErr.Errors, unit.InstanceLocation, reason)
	}
	if len(schemaErr.Errors) == 0 {
		schemaErr.Errors = append(schemaErr.Errors, verr.Error())
	}
	return schemaErr
}

// appendFailure adds "location: reason", skipping duplicates. The document
// root is reported as "/".
func appendFailure(list []string, location, reason string) []string {
	if location == "" {
		location = "/"
	}
	msg := location + ": " + reason
	for _, existing := range list {
		if existing == msg {
			return list
		}
	}
	return append(list, msg)
}
