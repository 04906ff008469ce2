package api

import (
	"net/http"
	"strings"
	"sync"
)

// Request formats understood by the YOURLS API.
const (
	FormatJSON  = "json"
	FormatJSONP = "jsonp"
)

// DefaultFormat is used when a connection does not name a format.
const DefaultFormat = FormatJSONP

// Credentials authenticate against a private YOURLS API.
//
// Either Username and Password, or Signature (optionally time-limited by
// Timestamp) are used; never both. When Timestamp is set the server expects
// Signature to be md5(timestamp + signature token).
type Credentials struct {
	Username  string `json:"username,omitempty"`
	Password  string `json:"password,omitempty"`
	Signature string `json:"signature,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Params returns the credentials as request parameters. Empty fields are
// left unset so they are not serialized.
func (c *Credentials) Params() Params {
	if c == nil {
		return nil
	}
	if c.Signature != "" {
		return NewParams("signature", c.Signature, "timestamp", optional(c.Timestamp))
	}
	return NewParams("password", optional(c.Password), "username", optional(c.Username))
}

// Options control how requests are sent to the YOURLS API.
type Options struct {
	Format string `json:"format,omitempty"`
	Method string `json:"method,omitempty"`
}

// Connection describes how to reach and authenticate with a YOURLS server.
// A Connection is never modified after NewConnection returns.
type Connection struct {
	URL         string
	Credentials *Credentials
	Options     Options
}

// NewConnection sanitizes its inputs into a Connection.
//
// One trailing slash is stripped from url. Only the fields of a single
// authentication mode are kept from credentials, signature taking precedence.
// Options default to the jsonp format; the method defaults to GET for jsonp
// and POST for json.
func NewConnection(url string, credentials *Credentials, options *Options) *Connection {
	return &Connection{
		URL:         strings.TrimSuffix(url, "/"),
		Credentials: sanitizeCredentials(credentials),
		Options:     sanitizeOptions(options),
	}
}

func sanitizeCredentials(credentials *Credentials) *Credentials {
	if credentials == nil {
		return nil
	}
	if credentials.Signature != "" {
		return &Credentials{
			Signature: credentials.Signature,
			Timestamp: credentials.Timestamp,
		}
	}
	return &Credentials{
		Username: credentials.Username,
		Password: credentials.Password,
	}
}

func sanitizeOptions(options *Options) Options {
	result := Options{Format: DefaultFormat}
	if options != nil {
		if format := strings.TrimSpace(options.Format); format != "" {
			result.Format = strings.ToLower(format)
		}
		if method := strings.TrimSpace(options.Method); method != "" {
			result.Method = strings.ToUpper(method)
		}
	}
	if result.Method == "" {
		result.Method = defaultMethod(result.Format)
	}
	return result
}

func defaultMethod(format string) string {
	if format == FormatJSON {
		return http.MethodPost
	}
	return http.MethodGet
}

// ConnectionStore holds the single active Connection.
type ConnectionStore struct {
	mu      sync.RWMutex
	current *Connection
}

// Store makes conn the active connection, replacing any previous one.
func (s *ConnectionStore) Store(conn *Connection) {
	s.mu.Lock()
	s.current = conn
	s.mu.Unlock()
}

// Fetch returns the active connection, or nil when disconnected.
func (s *ConnectionStore) Fetch() *Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Clear removes the active connection.
func (s *ConnectionStore) Clear() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
}

// optional maps "" to nil so that empty strings are treated as unset.
func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}
