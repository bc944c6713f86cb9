package types

import (
	"fmt"
	"strings"
)

// Carries the failing request plus whatever the server said about it.
// StatusCode is 0 when the failure happened below HTTP.
type TransportError struct {
	Err        error
	Method     string
	URL        string
	StatusCode int
	Message    string
}

func (e *TransportError) Error() string {
	detail := e.Message
	if detail == "" && e.Err != nil {
		detail = e.Err.Error()
	}

	if e.StatusCode == 0 {
		return fmt.Sprintf("%s %s: %s", e.Method, e.URL, detail)
	}

	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, detail)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Wrap a request failure that never produced a usable response
func TransportErrorWrap(method, url string, err error) error {
	return &TransportError{Method: method, URL: url, Err: err}
}

// Credentials rejected or missing. StatusCode is 401 or 403.
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("authentication failed: status %d", e.StatusCode)
	}

	return fmt.Sprintf("authentication failed: status %d: %s", e.StatusCode, e.Message)
}

// Addressed resource does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}

	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// Rejected before any request was sent. Allowed is the server-supported
// field list for the resource.
type InvalidFilterError struct {
	Resource string
	Field    string
	Allowed  []string
}

func (e *InvalidFilterError) Error() string {
	return fmt.Sprintf(
		"%q is not a valid filter for %s resources (valid: %s)",
		e.Field, e.Resource, strings.Join(e.Allowed, ", "),
	)
}

// Series is missing members server-side. Applying it would build on a
// partial set.
type IncompleteSeriesError struct {
	SeriesID int
	Received int
	Total    int
}

func (e *IncompleteSeriesError) Error() string {
	return fmt.Sprintf(
		"series %d is incomplete (%d of %d patches received)",
		e.SeriesID, e.Received, e.Total,
	)
}
