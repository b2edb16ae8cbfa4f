/*
Package errs provides the relay's error type and its numeric error codes.

Codes are shared by HTTP responses and WebSocket error frames so clients can branch on them
without parsing messages.
*/
package errs

import "net/http"

// 1xxx: request and frame handling errors
const (
	// ErrInvalidParams indicates a missing or malformed request parameter.
	ErrInvalidParams = 1001

	// ErrInvalidJSONFormat indicates a frame or body that is not valid JSON.
	ErrInvalidJSONFormat = 1003

	// ErrRateLimitExceeded indicates too many requests or frames in a short period.
	ErrRateLimitExceeded = 1007
)

// 2xxx: relay protocol errors
const (
	// ErrUnknownEvent indicates a frame whose event name the relay does not handle.
	ErrUnknownEvent = 2001

	// ErrInvalidPayload indicates a frame whose payload failed field validation.
	// The message template takes the offending field names.
	ErrInvalidPayload = 2002

	// ErrNotFound indicates an unknown HTTP route.
	ErrNotFound = 2004
)

// 5xxx: internal errors
const (
	// ErrUnknown represents an unclassified internal error.
	ErrUnknown = 5000
)

// errorMap holds the template for every known code.
var errorMap = map[int]CustomError{
	ErrInvalidParams:     {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrInvalidJSONFormat: {Code: ErrInvalidJSONFormat, Message: "Unsupported message format.", Status: http.StatusBadRequest},
	ErrRateLimitExceeded: {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	ErrUnknownEvent:   {Code: ErrUnknownEvent, Message: "Unsupported event."},
	ErrInvalidPayload: {Code: ErrInvalidPayload, Message: "Invalid payload: %s."},
	ErrNotFound:       {Code: ErrNotFound, Message: "Not found.", Status: http.StatusNotFound},

	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
