package api

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/yourls/yourls-cli/internal/debug"
)

// Callback receives the outcome of a dispatched request.
//
// result holds the projected fields (see Project), response the full decoded
// response. err is only set when the transport failed to produce a response.
type Callback func(result any, response Response, err error)

// Dispatcher validates the active connection and routes requests to the
// transport registered for the connection's format.
type Dispatcher struct {
	conns      *ConnectionStore
	transports map[string]TransportFactory
}

// NewDispatcher creates a Dispatcher reading from conns.
func NewDispatcher(conns *ConnectionStore) *Dispatcher {
	return &Dispatcher{
		conns:      conns,
		transports: make(map[string]TransportFactory),
	}
}

// Register installs the transport factory used for format.
func (d *Dispatcher) Register(format string, factory TransportFactory) {
	d.transports[format] = factory
}

// Send dispatches data and arranges for cb to be called with the fields
// named by names once a response arrives.
//
// Missing connections, unknown formats and unsupported methods are reported
// synchronously, before any transport is used. cb may run on another
// goroutine; it runs at most once and may never run (see JSONPTransport).
func (d *Dispatcher) Send(ctx context.Context, data Params, names []string, cb Callback) error {
	conn := d.conns.Fetch()
	if conn == nil {
		return ErrNotConnected
	}

	format := conn.Options.Format
	method := conn.Options.Method
	factory, ok := d.transports[format]
	if !ok || factory == nil {
		return &UnsupportedFormatError{Format: format}
	}

	transport, err := factory()
	if err != nil {
		return err
	}
	if !SupportsMethod(transport, method) {
		return &UnsupportedMethodError{Method: method, Format: format, Supported: transport.SupportedMethods()}
	}

	req := buildRequest(transport, conn, data)
	if debug.IsEnabled(ctx) {
		slog.Debug("dispatching request", "request_id", req.ID, "format", format, "method", method, "action", actionOf(data))
	}

	transport.Process(ctx, req, func(resp Response, err error) {
		if debug.IsEnabled(ctx) {
			slog.Debug("request completed", "request_id", req.ID, "has_response", resp != nil, "error", err)
		}
		if cb != nil {
			cb(Project(names, resp), resp, err)
		}
	})
	return nil
}

// Do dispatches data like Send and waits for the outcome.
//
// When ctx ends first, Do returns ctx.Err(); the request itself is not
// cancelled and its late result is dropped.
func (d *Dispatcher) Do(ctx context.Context, data Params, names []string) (any, Response, error) {
	type outcome struct {
		result   any
		response Response
		err      error
	}
	ch := make(chan outcome, 1)

	err := d.Send(ctx, data, names, func(result any, response Response, err error) {
		ch <- outcome{result: result, response: response, err: err}
	})
	if err != nil {
		return nil, nil, err
	}

	select {
	case out := <-ch:
		return out.result, out.response, out.err
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
}

// buildRequest serializes the request body, moving it into the URL when the
// method requires a query string.
func buildRequest(t Transport, conn *Connection, data Params) *Request {
	body := Serialize(t.BuildBody(conn, data))
	req := &Request{ID: uuid.NewString(), Method: conn.Options.Method, URL: conn.URL}
	if queryStringRequired(req.Method) {
		req.URL += "?" + body
		return req
	}
	req.Body = []byte(body)
	return req
}

// Project extracts the fields named by names from resp.
//
// A single name yields that field's raw value. Several names yield a map with
// only the fields present in resp. A nil resp always yields nil.
func Project(names []string, resp Response) any {
	if resp == nil {
		return nil
	}
	if len(names) == 1 {
		return resp[names[0]]
	}
	result := make(map[string]any, len(names))
	for _, name := range names {
		if v, ok := resp[name]; ok {
			result[name] = v
		}
	}
	return result
}

func actionOf(data Params) string {
	if v, ok := data.Get("action"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
