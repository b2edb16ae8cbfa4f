/*
Package errs provides the relay's error type and its numeric error codes.

This file defines CustomError, which carries a code, a client-facing message and the HTTP
status used when the error is returned over HTTP.
*/
package errs

import (
	"fmt"
	"net/http"
	"strings"

	"chatrelay/internal/pkg/logx"
)

// CustomError is the error type surfaced to clients.
type CustomError struct {
	// Code is the numeric error code.
	Code int `json:"code"`

	// Message is the client-facing description.
	Message string `json:"message"`

	// Status is the HTTP status used for HTTP responses.
	Status int `json:"-"`
}

// Error implements the error interface.
func (e *CustomError) Error() string {
	return fmt.Sprintf("error code %d (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// NewError builds a CustomError for code. Details fill printf placeholders in the message
// template. Unknown codes fall back to ErrUnknown.
func NewError(code int, details ...any) *CustomError {
	template, ok := errorMap[code]
	if !ok {
		logx.Warn("Unknown error code requested", "requested_code", code)
		template = errorMap[ErrUnknown]
	}

	customErr := template
	if customErr.Status == 0 {
		customErr.Status = http.StatusOK
	}

	if len(details) > 0 && strings.Contains(customErr.Message, "%") {
		customErr.Message = fmt.Sprintf(customErr.Message, details...)
	}

	return &customErr
}
