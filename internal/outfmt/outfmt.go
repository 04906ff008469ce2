// Package outfmt renders command results as text tables, JSON, or JSON lines.
package outfmt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// Mode represents the output format mode
type Mode int

const (
	// Text is the default human-readable output
	Text Mode = iota
	// JSON outputs structured JSON
	JSON
	// JSONL outputs newline-delimited JSON, one line per list item
	JSONL
)

var modeNames = map[string]Mode{
	"":       Text,
	"text":   Text,
	"json":   JSON,
	"jsonl":  JSONL,
	"ndjson": JSONL,
}

// Parse parses an output mode string
func Parse(s string) (Mode, error) {
	if m, ok := modeNames[s]; ok {
		return m, nil
	}
	return Text, fmt.Errorf("invalid output format: %q (use 'text', 'json', 'jsonl', or 'ndjson')", s)
}

func (m Mode) String() string {
	switch m {
	case JSON:
		return "json"
	case JSONL:
		return "jsonl"
	default:
		return "text"
	}
}

// Settings is how a command's output is rendered.
type Settings struct {
	Mode     Mode
	Compact  bool
	Query    string
	Template string
}

type settingsKey struct{}

// FromContext returns the output settings of ctx, text by default.
func FromContext(ctx context.Context) Settings {
	s, _ := ctx.Value(settingsKey{}).(Settings)
	return s
}

func with(ctx context.Context, set func(*Settings)) context.Context {
	s := FromContext(ctx)
	set(&s)
	return context.WithValue(ctx, settingsKey{}, s)
}

// WithMode adds the output mode to the context
func WithMode(ctx context.Context, mode Mode) context.Context {
	return with(ctx, func(s *Settings) { s.Mode = mode })
}

// WithCompact adds the compact flag to the context
func WithCompact(ctx context.Context, compact bool) context.Context {
	return with(ctx, func(s *Settings) { s.Compact = compact })
}

// WithQuery adds a jq query to the context
func WithQuery(ctx context.Context, query string) context.Context {
	return with(ctx, func(s *Settings) { s.Query = query })
}

// WithTemplate adds a template string to the context
func WithTemplate(ctx context.Context, tmpl string) context.Context {
	return with(ctx, func(s *Settings) { s.Template = tmpl })
}

func ModeFromContext(ctx context.Context) Mode { return FromContext(ctx).Mode }
func IsCompact(ctx context.Context) bool       { return FromContext(ctx).Compact }
func GetQuery(ctx context.Context) string      { return FromContext(ctx).Query }
func GetTemplate(ctx context.Context) string   { return FromContext(ctx).Template }
func IsJSONL(ctx context.Context) bool         { return ModeFromContext(ctx) == JSONL }

// IsJSON reports whether output is JSON or JSON lines.
func IsJSON(ctx context.Context) bool { return ModeFromContext(ctx) != Text }

// WriteJSON writes a value as pretty-printed JSON
func WriteJSON(w io.Writer, v any) error {
	return WriteJSONMaybeCompact(w, v, false)
}

// WriteJSONMaybeCompact writes JSON, using compact format if compact is true.
func WriteJSONMaybeCompact(w io.Writer, v any, compact bool) error {
	enc := json.NewEncoder(w)
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// WriteJSONLines writes each element of a slice as one compact line.
// Anything else is written as a single line.
func WriteJSONLines(w io.Writer, v any) error {
	items, ok := v.([]any)
	if !ok {
		items = []any{v}
	}
	enc := json.NewEncoder(w)
	for _, item := range items {
		if err := enc.Encode(item); err != nil {
			return err
		}
	}
	return nil
}
