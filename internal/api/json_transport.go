package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/yourls/yourls-cli/internal/debug"
)

// JSONTransport sends requests directly over HTTP and decodes JSON
// responses. It only works against servers on the same origin or with CORS
// enabled, which is always the case outside a browser.
type JSONTransport struct {
	baseTransport

	HTTP      *http.Client
	UserAgent string
}

var _ Transport = (*JSONTransport)(nil)

// NewJSONTransport creates a JSONTransport using client, or
// http.DefaultClient when client is nil.
func NewJSONTransport(client *http.Client) *JSONTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &JSONTransport{HTTP: client}
}

// SupportedMethods implements Transport.
func (t *JSONTransport) SupportedMethods() []string {
	return []string{http.MethodGet, http.MethodPost}
}

// Process implements Transport. The request is not cancelled when ctx is.
func (t *JSONTransport) Process(ctx context.Context, req *Request, done func(Response, error)) {
	ctx = context.WithoutCancel(ctx)
	go func() {
		done(t.roundTrip(ctx, req))
	}()
}

func (t *JSONTransport) roundTrip(ctx context.Context, req *Request) (Response, error) {
	start := time.Now()

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, &TransportError{Method: req.Method, URL: req.URL, Err: err}
	}
	httpReq.Header.Set("X-Requested-With", "XMLHttpRequest")
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if t.UserAgent != "" {
		httpReq.Header.Set("User-Agent", t.UserAgent)
	}
	if req.ID != "" {
		httpReq.Header.Set("X-Request-ID", req.ID)
	}

	resp, err := t.HTTP.Do(httpReq)
	if err != nil {
		if debug.IsEnabled(ctx) {
			slog.Debug("request failed", "request_id", req.ID, "method", req.Method, "url", redactQuery(req.URL), "error", err)
		}
		return nil, &TransportError{Method: req.Method, URL: req.URL, Err: err}
	}
	data, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, &TransportError{Method: req.Method, URL: req.URL, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	if debug.IsEnabled(ctx) {
		slog.Debug("request complete", "request_id", req.ID, "method", req.Method, "url", redactQuery(req.URL), "status", resp.StatusCode, "duration", time.Since(start))
	}

	// YOURLS reports failures as JSON too, so the body is decoded whatever the status.
	var decoded Response
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, &ResponseParseError{StatusCode: resp.StatusCode, Body: truncate(string(data), 256), Err: err}
	}
	return decoded, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
