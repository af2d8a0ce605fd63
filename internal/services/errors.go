package services

import (
	"fmt"
	"strings"
)

var (
	// Bootstrap errors. Every variant wraps [ErrBootstrap] so callers can abort the run with a single check.
	ErrBootstrap         = fmt.Errorf("bearer token bootstrap failed")
	ErrAssetNotFound     = fmt.Errorf("%w: no %s script on landing page", ErrBootstrap, bundlePrefix+"*")
	ErrTokenNotFound     = fmt.Errorf("%w: token marker not found in script bundle", ErrBootstrap)
	ErrTokenUnterminated = fmt.Errorf("%w: token is not followed by a quote", ErrBootstrap)

	// Client errors
	ErrTransport = fmt.Errorf("transport failure")
	ErrDecode    = fmt.Errorf("response matches neither the success nor the error shape")

	errServerStatus = fmt.Errorf("server error status")
)

// APIError is a single entry of the catalog's error envelope.
type APIError struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Status string `json:"status"`
	Code   string `json:"code"`
}

// Error returns the entry's detail, falling back to its title.
func (e APIError) Error() string {
	if strings.TrimSpace(e.Detail) != "" {
		return e.Detail
	}
	return e.Title
}

// ErrorResponse is the envelope returned by the catalog for validation, auth and server failures.
//
// Every response type embeds it, so a decoded body is always inspected with [ErrorResponse.Err].
type ErrorResponse struct {
	Errors []APIError `json:"errors,omitempty"`
}

// Err returns the first error entry, or nil when the body was a success payload.
func (r *ErrorResponse) Err() error {
	if r == nil || len(r.Errors) == 0 {
		return nil
	}
	return r.Errors[0]
}

func (r *ErrorResponse) successField() string     { return "errors" }
func (r *ErrorResponse) failure() *ErrorResponse { return r }
