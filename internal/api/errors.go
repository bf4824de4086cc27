package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error is a backend-reported failure: a response was obtained but carried a
// non-2xx status. Network failures are reported separately via
// [shared.ErrNetwork]-wrapped errors.
type Error struct {
	Status int
	Detail string // backend "detail" message, when present
	Body   []byte
}

// newError builds an [*Error], extracting the FastAPI-style detail field.
func newError(status int, body []byte) *Error {
	apiErr := &Error{Status: status, Body: body}

	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Detail = payload.Detail
	}

	return apiErr
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend error: status %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("backend error: status %d", e.Status)
}

// Unauthorized reports whether the failure is an authorization rejection.
func (e *Error) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// NotFound reports whether the backend answered 404.
func (e *Error) NotFound() bool {
	return e.Status == http.StatusNotFound
}

// AsError unwraps err into an [*Error] when the failure came from the backend.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsUnauthorized reports whether err is a 401/403-class backend error.
func IsUnauthorized(err error) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Unauthorized()
}
