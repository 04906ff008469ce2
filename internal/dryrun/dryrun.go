// Package dryrun describes API requests that would be sent, without sending
// them.
package dryrun

import (
	"context"
	"fmt"
	"io"
	"sort"
)

type contextKey struct{}

// WithDryRun returns a context with dry-run mode enabled or disabled.
func WithDryRun(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, contextKey{}, enabled)
}

// IsEnabled reports whether ctx is in dry-run mode.
func IsEnabled(ctx context.Context) bool {
	v, _ := ctx.Value(contextKey{}).(bool)
	return v
}

// Preview is a request that was not sent.
type Preview struct {
	Action   string            `json:"action"`
	Endpoint string            `json:"endpoint"`
	Format   string            `json:"format"`
	Method   string            `json:"method"`
	Params   map[string]string `json:"params,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`
}

// Write prints the preview in a human-readable block.
func (p *Preview) Write(w io.Writer) {
	_, _ = fmt.Fprintf(w, "[DRY-RUN] Would send %s to %s\n", p.Action, p.Endpoint)
	_, _ = fmt.Fprintf(w, "  %s, format %s\n", p.Method, p.Format)

	keys := make([]string, 0, len(p.Params))
	for k := range p.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		_, _ = fmt.Fprintf(w, "  %s: %s\n", k, p.Params[k])
	}

	for _, warning := range p.Warnings {
		_, _ = fmt.Fprintf(w, "  ! %s\n", warning)
	}
}

// Redact masks a credential, keeping its length hidden.
func Redact(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}
