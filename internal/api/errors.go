package api

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrNotConnected is returned when a request is sent before Connect.
var ErrNotConnected = errors.New("no connection has been made")

// UnsupportedFormatError indicates no transport is registered for a format.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("request format not supported: %s", e.Format)
}

// UnsupportedMethodError indicates the transport for Format cannot send Method.
type UnsupportedMethodError struct {
	Method    string
	Format    string
	Supported []string
}

func (e *UnsupportedMethodError) Error() string {
	if len(e.Supported) == 0 {
		return fmt.Sprintf("HTTP method not supported: %s", e.Method)
	}
	return fmt.Sprintf("HTTP method not supported: %s (%s requests allow %s)", e.Method, e.Format, strings.Join(e.Supported, ", "))
}

// ResponseParseError indicates a response body could not be decoded.
type ResponseParseError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *ResponseParseError) Error() string {
	return fmt.Sprintf("unable to parse response (status %d): %v", e.StatusCode, e.Err)
}

func (e *ResponseParseError) Unwrap() error {
	return e.Err
}

// TransportError wraps a failure to reach the server at all.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	cause := e.Err
	var urlErr *url.Error
	if errors.As(cause, &urlErr) {
		cause = urlErr.Err
	}
	return fmt.Sprintf("%s %s failed: %v", e.Method, redactQuery(e.URL), cause)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// APIError is a failure reported by the YOURLS server inside a decoded
// response (statusCode >= 400).
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = "request failed"
	}
	if e.Code != "" {
		return fmt.Sprintf("YOURLS error (status %d, %s): %s", e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("YOURLS error (status %d): %s", e.StatusCode, msg)
}

// IsNotConnected checks if the error is ErrNotConnected.
func IsNotConnected(err error) bool {
	return errors.Is(err, ErrNotConnected)
}

// IsUnsupportedFormat checks if the error is an unsupported format error.
func IsUnsupportedFormat(err error) bool {
	var e *UnsupportedFormatError
	return errors.As(err, &e)
}

// IsUnsupportedMethod checks if the error is an unsupported method error.
func IsUnsupportedMethod(err error) bool {
	var e *UnsupportedMethodError
	return errors.As(err, &e)
}

// IsParseError checks if the error is a response parse error.
func IsParseError(err error) bool {
	var e *ResponseParseError
	return errors.As(err, &e)
}

// IsAPIError checks if the error was reported by the server.
func IsAPIError(err error) bool {
	var e *APIError
	return errors.As(err, &e)
}

// IsNotFoundError checks if the server reported a missing short URL.
func IsNotFoundError(err error) bool {
	var e *APIError
	if errors.As(err, &e) {
		return e.StatusCode == 404 || strings.Contains(strings.ToLower(e.Message), "not found")
	}
	return false
}

// redactQuery drops the query string from a URL. GET requests carry
// credentials in the query, which must not end up in error messages.
func redactQuery(rawURL string) string {
	if i := strings.IndexByte(rawURL, '?'); i >= 0 {
		return rawURL[:i] + "?[redacted]"
	}
	return rawURL
}
