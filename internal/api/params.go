package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Param is a single request parameter. A nil Value means "not set" and is
// never serialized.
type Param struct {
	Key   string
	Value any
}

// Params is an ordered set of request parameters.
//
// Order matters: parameters are serialized in insertion order, and setting an
// existing key replaces its value without moving it.
type Params []Param

// NewParams builds Params from alternating key/value arguments.
// A trailing key without a value is ignored.
func NewParams(kv ...any) Params {
	var p Params
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		p = p.Set(key, kv[i+1])
	}
	return p
}

// Set returns p with key set to value.
func (p Params) Set(key string, value any) Params {
	for i := range p {
		if p[i].Key == key {
			p[i].Value = value
			return p
		}
	}
	return append(p, Param{Key: key, Value: value})
}

// Get returns the value stored under key.
func (p Params) Get(key string) (any, bool) {
	for _, param := range p {
		if param.Key == key {
			return param.Value, true
		}
	}
	return nil, false
}

// Merge returns a new Params with every source applied in order over p.
// Later sources win on key collision.
func (p Params) Merge(sources ...Params) Params {
	out := make(Params, 0, len(p))
	out = append(out, p...)
	for _, src := range sources {
		for _, param := range src {
			out = out.Set(param.Key, param.Value)
		}
	}
	return out
}

// Serialize renders p as a URL-encoded query string ("a=1&b=2").
// Parameters whose value is nil are omitted. Empty input yields "".
func Serialize(p Params) string {
	if len(p) == 0 {
		return ""
	}

	parts := make([]string, 0, len(p))
	for _, param := range p {
		value, ok := formatValue(param.Value)
		if !ok {
			continue
		}
		parts = append(parts, encodeURIComponent(param.Key)+"="+encodeURIComponent(value))
	}
	return strings.Join(parts, "&")
}

// formatValue converts a scalar into its query string form.
// It reports false for nil values (including typed nil pointers).
func formatValue(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case *string:
		if val == nil {
			return "", false
		}
		return *val, true
	case bool:
		return strconv.FormatBool(val), true
	case *bool:
		if val == nil {
			return "", false
		}
		return strconv.FormatBool(*val), true
	case int:
		return strconv.Itoa(val), true
	case *int:
		if val == nil {
			return "", false
		}
		return strconv.Itoa(*val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case int32:
		return strconv.FormatInt(int64(val), 10), true
	case uint:
		return strconv.FormatUint(uint64(val), 10), true
	case uint64:
		return strconv.FormatUint(val, 10), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), true
	case fmt.Stringer:
		return val.String(), true
	default:
		return fmt.Sprint(val), true
	}
}

// uriComponentReplacer undoes the differences between url.QueryEscape and
// JavaScript's encodeURIComponent, which the YOURLS API is used to receiving.
var uriComponentReplacer = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

func encodeURIComponent(s string) string {
	return uriComponentReplacer.Replace(url.QueryEscape(s))
}
