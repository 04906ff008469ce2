package api

import (
	"context"
	"net/http"
)

// JSONPTransport delivers requests by injecting a script element whose URL
// carries every parameter, credentials included. The server wraps its JSON
// response in a call to the registered callback, which completes the request.
//
// Because everything travels in the URL, credentials end up in server and
// proxy logs. There is no timeout: if the script never loads or never calls
// back, the handler and the element are never released.
type JSONPTransport struct {
	baseTransport

	registry *CallbackRegistry
	document *Document
	id       int64
}

var _ Transport = (*JSONPTransport)(nil)

// NewJSONPTransport creates a transport with a fresh callback id.
func NewJSONPTransport(registry *CallbackRegistry, document *Document) *JSONPTransport {
	return &JSONPTransport{
		registry: registry,
		document: document,
		id:       registry.NextID(),
	}
}

// ID is the callback id reserved for this transport's request.
func (t *JSONPTransport) ID() int64 {
	return t.id
}

// SupportedMethods implements Transport.
func (t *JSONPTransport) SupportedMethods() []string {
	return []string{http.MethodGet}
}

// BuildBody implements Transport, adding the callback reference.
func (t *JSONPTransport) BuildBody(conn *Connection, data Params) Params {
	body := t.baseTransport.BuildBody(conn, data)
	return body.Set("callback", t.registry.CallbackName(t.id))
}

// Process implements Transport.
func (t *JSONPTransport) Process(ctx context.Context, req *Request, done func(Response, error)) {
	script := &ScriptElement{Src: req.URL}
	t.registry.Register(t.id, func(resp Response) {
		t.document.RemoveChild(script)
		done(resp, nil)
	})
	t.document.AppendChild(ctx, script)
}
