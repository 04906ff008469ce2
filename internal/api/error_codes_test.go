package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestErrorCodeFromStatus(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		want       ErrorCode
	}{
		{"400 Bad Request", 400, ErrBadRequest},
		{"401 Unauthorized", 401, ErrUnauthorized},
		{"403 Forbidden", 403, ErrForbidden},
		{"404 Not Found", 404, ErrNotFound},
		{"500 Server Error", 500, ErrServerError},
		{"503 Service Unavailable", 503, ErrServerError},
		{"200 OK (unknown)", 200, ErrUnknown},
		{"418 Teapot (unknown)", 418, ErrUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorCodeFromStatus(tt.statusCode); got != tt.want {
				t.Errorf("ErrorCodeFromStatus(%d) = %v, want %v", tt.statusCode, got, tt.want)
			}
		})
	}
}

func TestErrorCodeIsRetryable(t *testing.T) {
	for _, code := range []ErrorCode{ErrServerError, ErrTimeout, ErrNetwork} {
		if !code.IsRetryable() {
			t.Errorf("%v.IsRetryable() = false, want true", code)
		}
	}
	for _, code := range []ErrorCode{ErrBadRequest, ErrForbidden, ErrNotFound, ErrParse, ErrNotConnectedCode, ErrUnsupportedMethod, ErrUnknown} {
		if code.IsRetryable() {
			t.Errorf("%v.IsRetryable() = true, want false", code)
		}
	}
}

func TestStructuredErrorFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"not connected", ErrNotConnected, ErrNotConnectedCode},
		{"wrapped not connected", fmt.Errorf("shorten: %w", ErrNotConnected), ErrNotConnectedCode},
		{"format", &UnsupportedFormatError{Format: "xml"}, ErrUnsupportedFormat},
		{"method", &UnsupportedMethodError{Method: "POST", Format: "jsonp", Supported: []string{"GET"}}, ErrUnsupportedMethod},
		{"parse", &ResponseParseError{StatusCode: 200, Err: errors.New("bad")}, ErrParse},
		{"transport", &TransportError{Method: "GET", URL: "https://x", Err: errors.New("refused")}, ErrNetwork},
		{"api 403", &APIError{StatusCode: 403, Message: "Please log in"}, ErrForbidden},
		{"deadline", context.DeadlineExceeded, ErrTimeout},
		{"other", errors.New("boom"), ErrUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			se := StructuredErrorFromError(tt.err)
			if se.Code != tt.want {
				t.Errorf("Code = %v, want %v", se.Code, tt.want)
			}
			if se.Message == "" {
				t.Error("Message is empty")
			}
		})
	}

	if StructuredErrorFromError(nil) != nil {
		t.Error("nil error should map to nil")
	}
}

func TestStructuredErrorAllowedValues(t *testing.T) {
	se := StructuredErrorFromError(&UnsupportedMethodError{Method: "POST", Format: "jsonp", Supported: []string{"GET"}})
	if len(se.AllowedValues) != 1 || se.AllowedValues[0] != "GET" {
		t.Errorf("AllowedValues = %v", se.AllowedValues)
	}
}

func TestStructuredErrorJSON(t *testing.T) {
	se := NewValidationError("filter", "best", StatsFilters)
	data, err := json.Marshal(se)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded["code"] != string(ErrValidation) || decoded["retryable"] != false {
		t.Errorf("decoded = %v", decoded)
	}
	if allowed, ok := decoded["allowed_values"].([]any); !ok || len(allowed) != 4 {
		t.Errorf("allowed_values = %v", decoded["allowed_values"])
	}
}

func TestAPIErrorMessage(t *testing.T) {
	err := &APIError{StatusCode: 404, Code: "error:nourl", Message: "Error: short URL not found"}
	if got := err.Error(); got != "YOURLS error (status 404, error:nourl): Error: short URL not found" {
		t.Errorf("Error() = %q", got)
	}
	if got := (&APIError{StatusCode: 500}).Error(); got != "YOURLS error (status 500): request failed" {
		t.Errorf("Error() = %q", got)
	}
}

func TestTransportErrorRedactsQuery(t *testing.T) {
	err := &TransportError{Method: "GET", URL: "https://sho.rt/api?password=hunter2", Err: errors.New("refused")}
	if got := err.Error(); got != "GET https://sho.rt/api?[redacted] failed: refused" {
		t.Errorf("Error() = %q", got)
	}
}
