package api

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
)

// LibraryVersion is the version of this client library. It is unrelated to
// the version of the YOURLS server (see Client.Version).
const LibraryVersion = "1.7.0"

// Client is the YOURLS API client.
//
// A Client holds at most one active connection. Requests made before Connect
// fail with ErrNotConnected. The library never imposes a timeout: callers
// bound waiting through the context given to the blocking methods.
type Client struct {
	// HTTP is used for direct HTTP requests and JSONP script loads.
	HTTP *http.Client
	// UserAgent is sent with every request when set.
	UserAgent string
	// ScriptLoader overrides how JSONP scripts are fetched. It must be set
	// before the first JSONP request.
	ScriptLoader ScriptLoader

	conns      ConnectionStore
	dispatcher *Dispatcher

	jsonpOnce sync.Once
	registry  atomic.Pointer[CallbackRegistry]
	document  *Document
	jsonpErr  error
}

// New creates a client with the json and jsonp transports registered.
func New() *Client {
	baseTransport, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		baseTransport = &http.Transport{}
	}
	transport := baseTransport.Clone()
	if transport.TLSClientConfig == nil {
		transport.TLSClientConfig = &tls.Config{}
	} else {
		transport.TLSClientConfig = transport.TLSClientConfig.Clone()
	}
	transport.TLSClientConfig.MinVersion = tls.VersionTLS12

	c := &Client{
		HTTP:      &http.Client{Transport: transport},
		UserAgent: "yourls-cli/" + LibraryVersion,
	}
	c.dispatcher = NewDispatcher(&c.conns)
	c.dispatcher.Register(FormatJSON, c.newJSONTransport)
	c.dispatcher.Register(FormatJSONP, c.newJSONPTransport)
	return c
}

// Connect makes url the active API endpoint, replacing any previous
// connection. It returns c for chaining.
func (c *Client) Connect(url string, credentials *Credentials, options *Options) *Client {
	c.conns.Store(NewConnection(url, credentials, options))
	return c
}

// Disconnect drops the active connection. It returns c for chaining.
func (c *Client) Disconnect() *Client {
	c.conns.Clear()
	return c
}

// Connection returns the active connection, or nil.
func (c *Client) Connection() *Connection {
	return c.conns.Fetch()
}

// Dispatcher exposes the dispatcher for callers that build their own
// requests.
func (c *Client) Dispatcher() *Dispatcher {
	return c.dispatcher
}

// Request sends arbitrary API parameters and waits for the fields named by
// names. It is the building block of every resource method.
func (c *Client) Request(ctx context.Context, data Params, names ...string) (any, Response, error) {
	return c.dispatcher.Do(ctx, data, names)
}

// PendingCallbacks returns the ids of JSONP requests still waiting for their
// script to call back.
func (c *Client) PendingCallbacks() []int64 {
	registry := c.registry.Load()
	if registry == nil {
		return nil
	}
	return registry.PendingIDs()
}

func (c *Client) newJSONTransport() (Transport, error) {
	t := NewJSONTransport(c.HTTP)
	t.UserAgent = c.UserAgent
	return t, nil
}

func (c *Client) newJSONPTransport() (Transport, error) {
	c.jsonpOnce.Do(func() {
		loader := c.ScriptLoader
		if loader == nil {
			loader = &HTTPScriptLoader{HTTP: c.HTTP, UserAgent: c.UserAgent}
		}
		registry := NewCallbackRegistry()
		c.document, c.jsonpErr = NewDocument(loader, registry)
		c.registry.Store(registry)
		if c.jsonpErr != nil {
			c.jsonpErr = fmt.Errorf("failed to set up jsonp document: %w", c.jsonpErr)
		}
	})
	if c.jsonpErr != nil {
		return nil, c.jsonpErr
	}
	return NewJSONPTransport(c.registry.Load(), c.document), nil
}
