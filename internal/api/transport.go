package api

import (
	"context"
	"net/http"
	"slices"
)

// Request is a fully built request ready to be handed to a Transport.
// Body is nil when the parameters travel in the URL. ID identifies the
// request in debug logs and, for JSON, in the X-Request-ID header.
type Request struct {
	ID     string
	Method string
	URL    string
	Body   []byte
}

// Response is a decoded YOURLS API response. A nil Response means no
// response was available.
type Response map[string]any

// Transport delivers requests to the YOURLS API.
//
// Process returns immediately and calls done at most once, from any
// goroutine, when the response (or a failure) is available. Transports have
// no timeout and cannot be cancelled once Process has been called.
type Transport interface {
	// SupportedMethods lists the HTTP methods this transport can send.
	SupportedMethods() []string
	// BuildBody merges the connection details with the call data.
	BuildBody(conn *Connection, data Params) Params
	// Process sends req and reports the decoded response to done.
	Process(ctx context.Context, req *Request, done func(Response, error))
}

// TransportFactory creates a fresh Transport for a single request.
type TransportFactory func() (Transport, error)

// SupportsMethod reports whether t can send method.
func SupportsMethod(t Transport, method string) bool {
	return slices.Contains(t.SupportedMethods(), method)
}

// queryStringRequired reports whether the request data must be serialized
// into the URL instead of the request body.
func queryStringRequired(method string) bool {
	return method == http.MethodGet
}

// baseTransport holds behaviour shared by every transport.
type baseTransport struct{}

// BuildBody returns the format flag, then the credentials, then data.
// Call data wins on key collision.
func (baseTransport) BuildBody(conn *Connection, data Params) Params {
	body := NewParams("format", conn.Options.Format)
	return body.Merge(conn.Credentials.Params(), data)
}
