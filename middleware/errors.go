package middleware

import "fmt"

// UndocumentedResponseError reports a response the schema does not
// document, or a lookup that could not be performed at all.
type UndocumentedResponseError struct {
	Method     string
	Path       string
	StatusCode int
	Err        error
}

func (e *UndocumentedResponseError) Error() string {
	return fmt.Sprintf("undocumented response %s %s %d: %v", e.Method, e.Path, e.StatusCode, e.Err)
}

func (e *UndocumentedResponseError) Unwrap() error {
	return e.Err
}
