package indexer

import (
	"slices"
	"strconv"
	"strings"

	"github.com/kolah/respec/schema"
)

// Methods lists the HTTP methods a response can be looked up for.
var Methods = []string{"get", "post", "put", "patch", "delete", "options", "head"}

const (
	minStatusCode = 100
	maxStatusCode = 505
)

// ValidateMethod checks method against Methods, ignoring case.
func ValidateMethod(method string) error {
	if slices.Contains(Methods, strings.ToLower(method)) {
		return nil
	}
	upper := make([]string, len(Methods))
	for i, m := range Methods {
		upper[i] = strings.ToUpper(m)
	}
	return schema.NewConfigurationError("Method `%s` is invalid. Should be one of: %s.", method, strings.Join(upper, ", "))
}

// ValidateStatusCode checks that status is within 100..505.
func ValidateStatusCode(status int) error {
	if status < minStatusCode || status > maxStatusCode {
		return schema.NewConfigurationError("`status_code` should be a valid HTTP response code, got %d", status)
	}
	return nil
}

// ParseStatusCode parses and validates a textual status code.
func ParseStatusCode(s string) (int, error) {
	status, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, &schema.ConfigurationError{Message: "`status_code` should be an integer", Cause: err}
	}
	if err := ValidateStatusCode(status); err != nil {
		return 0, err
	}
	return status, nil
}
