package api

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

// Error is a failed API response. The backend's error body carries a
// human-readable detail plus optional machine-readable fields:
//
//	{detail, code, errors, debug}
//
// Detail is the message surfaced to callers.
type Error struct {
	Status int            `json:"-"`
	Detail string         `json:"detail,omitempty"`
	Code   string         `json:"code,omitempty"`
	Fields map[string]any `json:"errors,omitempty"`
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// newError builds an Error from a response body: the structured detail field
// when the body parses, the raw text when it does not, and the generic
// status message when the body is empty.
func newError(status int, body []byte) *Error {
	apiErr := &Error{Status: status}
	if len(body) == 0 {
		return apiErr
	}
	if err := json.Unmarshal(body, apiErr); err == nil && apiErr.Detail != "" {
		return apiErr
	}
	apiErr.Detail = string(body)
	return apiErr
}

// IsStatus reports whether err is an API Error with the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == status
}
