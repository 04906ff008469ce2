package outfmt

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Formatter writes one command's results in the mode carried by its context.
type Formatter struct {
	settings Settings
	out      io.Writer
	errOut   io.Writer
	table    *tabwriter.Writer
}

// NewFormatter creates a new Formatter
func NewFormatter(ctx context.Context, out, errOut io.Writer) *Formatter {
	return &Formatter{
		settings: FromContext(ctx),
		out:      out,
		errOut:   errOut,
		table:    tabwriter.NewWriter(out, 0, 4, 2, ' ', 0),
	}
}

// Output writes data as JSON, JSON lines or through the template. In text
// mode it writes nothing; text rendering is up to the command.
func (f *Formatter) Output(data any) error {
	s := f.settings
	switch {
	case s.Mode == Text:
		return nil
	case s.Template != "":
		// Templates address JSON field names, so data always goes through jq.
		v, err := ApplyQuery(data, queryOrIdentity(s.Query))
		if err != nil {
			return err
		}
		return WriteTemplate(f.out, v, s.Template)
	case s.Mode == JSONL:
		v, err := ApplyQuery(data, queryOrIdentity(s.Query))
		if err != nil {
			return err
		}
		if s.Query == "" {
			v = unwrapItems(v)
		}
		return WriteJSONLines(f.out, v)
	default:
		return WriteJSONFiltered(f.out, data, s.Query, s.Compact)
	}
}

func queryOrIdentity(q string) string {
	if q == "" {
		return "."
	}
	return q
}

// unwrapItems undoes the {"items": [...]} wrapping so each item gets a line.
func unwrapItems(v any) any {
	if m, ok := v.(map[string]any); ok && len(m) == 1 {
		if items, ok := m["items"].([]any); ok {
			return items
		}
	}
	return v
}

// StartTable writes table headers. Returns true if in text mode.
func (f *Formatter) StartTable(headers []string) bool {
	if f.settings.Mode != Text {
		return false
	}
	f.Row(headers...)
	return true
}

// Row writes a single row to the table.
func (f *Formatter) Row(columns ...string) {
	_, _ = fmt.Fprintln(f.table, strings.Join(columns, "\t"))
}

// EndTable flushes the table output.
func (f *Formatter) EndTable() error {
	return f.table.Flush()
}

// Empty writes a message to stderr indicating no results.
func (f *Formatter) Empty(message string) {
	_, _ = fmt.Fprintln(f.errOut, message)
}
