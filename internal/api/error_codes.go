package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents machine-readable error codes for scripted error handling.
type ErrorCode string

const (
	// ErrBadRequest indicates a malformed request (HTTP 400).
	ErrBadRequest ErrorCode = "bad_request"
	// ErrUnauthorized indicates authentication is required or failed (HTTP 401).
	ErrUnauthorized ErrorCode = "unauthorized"
	// ErrForbidden indicates the credentials were rejected (HTTP 403).
	ErrForbidden ErrorCode = "forbidden"
	// ErrNotFound indicates the short URL does not exist (HTTP 404).
	ErrNotFound ErrorCode = "not_found"
	// ErrValidation indicates input validation failed.
	ErrValidation ErrorCode = "validation_failed"
	// ErrServerError indicates an internal server error (HTTP 5xx).
	ErrServerError ErrorCode = "server_error"
	// ErrTimeout indicates the caller stopped waiting for a response.
	ErrTimeout ErrorCode = "timeout"
	// ErrNetwork indicates the server could not be reached.
	ErrNetwork ErrorCode = "network_error"
	// ErrParse indicates the response body was not valid JSON.
	ErrParse ErrorCode = "parse_error"
	// ErrNotConnectedCode indicates no connection was configured.
	ErrNotConnectedCode ErrorCode = "not_connected"
	// ErrUnsupportedFormat indicates an unknown request format.
	ErrUnsupportedFormat ErrorCode = "unsupported_format"
	// ErrUnsupportedMethod indicates the format cannot use the HTTP method.
	ErrUnsupportedMethod ErrorCode = "unsupported_method"
	// ErrUnknown indicates an unknown or unclassified error.
	ErrUnknown ErrorCode = "unknown"
)

// IsRetryable returns true if errors with this code may succeed on retry.
func (c ErrorCode) IsRetryable() bool {
	switch c {
	case ErrServerError, ErrTimeout, ErrNetwork:
		return true
	default:
		return false
	}
}

// Suggestion returns a human-readable suggestion for resolving this error.
func (c ErrorCode) Suggestion() string {
	switch c {
	case ErrUnauthorized, ErrForbidden:
		return "Check your signature or username/password with 'yourls auth status'"
	case ErrNotFound:
		return "Verify the short URL or keyword exists"
	case ErrValidation:
		return "Check the input values"
	case ErrBadRequest:
		return "Check the request parameters"
	case ErrServerError:
		return "The server encountered an error; try again later"
	case ErrTimeout:
		return "No response arrived in time; raise --timeout or try --format json"
	case ErrNetwork:
		return "Check the API URL and network connectivity"
	case ErrParse:
		return "Check that the URL points at yourls-api.php"
	case ErrNotConnectedCode:
		return "Run 'yourls auth login' or pass --url"
	case ErrUnsupportedFormat:
		return "Use --format json or --format jsonp"
	case ErrUnsupportedMethod:
		return "jsonp only supports GET; use --method GET or --format json"
	default:
		return ""
	}
}

// ErrorCodeFromStatus maps an HTTP status code to an ErrorCode.
func ErrorCodeFromStatus(statusCode int) ErrorCode {
	switch statusCode {
	case 400:
		return ErrBadRequest
	case 401:
		return ErrUnauthorized
	case 403:
		return ErrForbidden
	case 404:
		return ErrNotFound
	default:
		if statusCode >= 500 && statusCode < 600 {
			return ErrServerError
		}
		return ErrUnknown
	}
}

// StructuredError provides machine-readable error information.
type StructuredError struct {
	Code          ErrorCode      `json:"code"`
	Message       string         `json:"message"`
	Retryable     bool           `json:"retryable"`
	Suggestion    string         `json:"suggestion,omitempty"`
	Context       map[string]any `json:"context,omitempty"`
	AllowedValues []string       `json:"allowed_values,omitempty"`
}

// Error implements the error interface.
func (e *StructuredError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// NewStructuredError creates a StructuredError from an ErrorCode and message.
func NewStructuredError(code ErrorCode, message string) *StructuredError {
	return &StructuredError{
		Code:       code,
		Message:    message,
		Retryable:  code.IsRetryable(),
		Suggestion: code.Suggestion(),
	}
}

// NewValidationError creates a StructuredError for input validation failures,
// including the list of allowed values.
func NewValidationError(field string, got string, allowed []string) *StructuredError {
	return &StructuredError{
		Code:          ErrValidation,
		Message:       fmt.Sprintf("invalid %s %q: must be one of %s", field, got, strings.Join(allowed, ", ")),
		Retryable:     false,
		Suggestion:    fmt.Sprintf("Use one of: %s", strings.Join(allowed, ", ")),
		AllowedValues: allowed,
		Context:       map[string]any{"field": field, "got": got},
	}
}

// StructuredErrorFromAPIError converts an APIError to a StructuredError.
func StructuredErrorFromAPIError(apiErr *APIError) *StructuredError {
	code := ErrorCodeFromStatus(apiErr.StatusCode)
	ctx := map[string]any{
		"status_code": apiErr.StatusCode,
	}
	if apiErr.Code != "" {
		ctx["yourls_code"] = apiErr.Code
	}
	return &StructuredError{
		Code:       code,
		Message:    apiErr.Error(),
		Retryable:  code.IsRetryable(),
		Suggestion: code.Suggestion(),
		Context:    ctx,
	}
}

// StructuredErrorFromError attempts to convert any error to a StructuredError.
func StructuredErrorFromError(err error) *StructuredError {
	if err == nil {
		return nil
	}

	var se *StructuredError
	if errors.As(err, &se) {
		return se
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return StructuredErrorFromAPIError(apiErr)
	}

	var formatErr *UnsupportedFormatError
	if errors.As(err, &formatErr) {
		se := NewStructuredError(ErrUnsupportedFormat, formatErr.Error())
		se.AllowedValues = []string{FormatJSON, FormatJSONP}
		return se
	}

	var methodErr *UnsupportedMethodError
	if errors.As(err, &methodErr) {
		se := NewStructuredError(ErrUnsupportedMethod, methodErr.Error())
		se.AllowedValues = methodErr.Supported
		return se
	}

	var parseErr *ResponseParseError
	if errors.As(err, &parseErr) {
		se := NewStructuredError(ErrParse, parseErr.Error())
		se.Context = map[string]any{"status_code": parseErr.StatusCode}
		return se
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return NewStructuredError(ErrNetwork, transportErr.Error())
	}

	switch {
	case errors.Is(err, ErrNotConnected):
		return NewStructuredError(ErrNotConnectedCode, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return NewStructuredError(ErrTimeout, err.Error())
	}

	// Generic error - classify as unknown
	return &StructuredError{
		Code:       ErrUnknown,
		Message:    err.Error(),
		Retryable:  false,
		Suggestion: "",
	}
}
