// Package filter runs jq expressions over command output.
//
// Besides the standard jq builtins, expressions may call keyword, which
// returns the last path segment of a short URL string:
//
//	.items[] | .shorturl | keyword
package filter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/itchyny/gojq"
)

// NormalizeExpression fixes shell-escaped operators in jq expressions.
// Zsh escapes ! to \! even in single quotes, breaking operators like !=.
func NormalizeExpression(expr string) string {
	return strings.ReplaceAll(expr, `\!`, `!`)
}

var compilerOptions = []gojq.CompilerOption{
	gojq.WithFunction("keyword", 0, 0, func(v any, _ []any) any {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("keyword cannot be applied to: %T", v)
		}
		s = strings.TrimSuffix(s, "/")
		return s[strings.LastIndexByte(s, '/')+1:]
	}),
}

// Compile parses and compiles expression.
func Compile(expression string) (*gojq.Code, error) {
	query, err := gojq.Parse(NormalizeExpression(expression))
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}
	code, err := gojq.Compile(query, compilerOptions...)
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}
	return code, nil
}

// Apply applies a jq filter expression to the input data.
// Multiple results are returned as a slice, a single result as itself.
func Apply(data any, expression string) (any, error) {
	if expression == "" {
		return data, nil
	}
	code, err := Compile(expression)
	if err != nil {
		return nil, err
	}

	results, err := collect(code, data)
	if err != nil && iteratesTopLevel(expression) {
		// List output is wrapped as {"items": [...]}; let ".[]" reach the list.
		if items, ok := wrappedItems(data); ok {
			if retried, retryErr := collect(code, items); retryErr == nil {
				results, err = retried, nil
			}
		}
	}
	if err != nil {
		return nil, err
	}

	if len(results) == 1 {
		return results[0], nil
	}
	return results, nil
}

func collect(code *gojq.Code, data any) ([]any, error) {
	var results []any
	iter := code.Run(data)
	for v, ok := iter.Next(); ok; v, ok = iter.Next() {
		if err, isErr := v.(error); isErr {
			return nil, fmt.Errorf("filter error: %w", err)
		}
		results = append(results, v)
	}
	return results, nil
}

func iteratesTopLevel(expression string) bool {
	expr := strings.TrimSpace(expression)
	for _, prefix := range []string{".[]", "[.[]", "(.[]"} {
		if strings.HasPrefix(expr, prefix) {
			return true
		}
	}
	return false
}

func wrappedItems(data any) ([]any, bool) {
	m, ok := data.(map[string]any)
	if !ok || len(m) != 1 {
		return nil, false
	}
	items, ok := m["items"].([]any)
	return items, ok
}

// ApplyToJSON applies a filter to JSON bytes and returns pretty-printed JSON.
func ApplyToJSON(jsonData []byte, expression string) ([]byte, error) {
	if expression == "" {
		return jsonData, nil
	}
	result, err := ApplyFromJSON(jsonData, expression)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(result, "", "  ")
}

// ApplyFromJSON applies a filter to JSON bytes and returns the result as a Go value.
func ApplyFromJSON(jsonData []byte, expression string) (any, error) {
	var data any
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return Apply(data, expression)
}
