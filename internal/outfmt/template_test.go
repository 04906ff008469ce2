package outfmt

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestTemplateContext(t *testing.T) {
	if GetTemplate(context.Background()) != "" {
		t.Fatal("template should be empty by default")
	}
	ctx := WithTemplate(context.Background(), "{{.shorturl}}")
	if GetTemplate(ctx) != "{{.shorturl}}" {
		t.Fatal("GetTemplate should return the template set with WithTemplate")
	}
}

func TestWriteTemplate(t *testing.T) {
	data := map[string]any{"keyword": "abc", "shorturl": "https://sho.rt/abc", "clicks": 3}

	tests := []struct {
		name string
		tmpl string
		want string
	}{
		{"single field", "{{.shorturl}}", "https://sho.rt/abc"},
		{"several fields", "{{.keyword}}={{.clicks}}", "abc=3"},
		{"missing key", "[{{.missing}}]", "[<no value>]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteTemplate(&buf, data, tt.tmpl); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("got %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestWriteTemplate_MissingKeyTypedMap(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTemplate(&buf, map[string]string{"keyword": "abc"}, "{{.title}}"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "" {
		t.Errorf("expected empty output for missing key, got %q", buf.String())
	}
}

func TestWriteTemplate_Range(t *testing.T) {
	var buf bytes.Buffer
	data := []map[string]string{{"keyword": "a"}, {"keyword": "b"}}
	if err := WriteTemplate(&buf, data, "{{range .}}{{.keyword}} {{end}}"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "a b " {
		t.Errorf("got %q", buf.String())
	}
}

func TestWriteTemplate_Funcs(t *testing.T) {
	var buf bytes.Buffer
	data := map[string]string{"title": "A very long page title"}
	if err := WriteTemplate(&buf, data, `{{truncate 10 .title}}|{{json .}}`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "A very ...|") {
		t.Errorf("truncate not applied: %q", out)
	}
	if !strings.Contains(out, `"title": "A very long page title"`) {
		t.Errorf("json not rendered: %q", out)
	}
}

func TestWriteTemplate_ParseError(t *testing.T) {
	var buf bytes.Buffer
	err := WriteTemplate(&buf, nil, "{{.keyword")
	if err == nil || !strings.Contains(err.Error(), "invalid template") {
		t.Fatalf("expected invalid template error, got %v", err)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		n    int
		in   string
		want string
	}{
		{10, "short", "short"},
		{5, "exactly", "ex..."},
		{2, "abc", "ab"},
		{0, "abc", "abc"},
		{4, "héllo", "h..."},
	}
	for _, tt := range tests {
		if got := Truncate(tt.n, tt.in); got != tt.want {
			t.Errorf("Truncate(%d, %q) = %q, want %q", tt.n, tt.in, got, tt.want)
		}
	}
}
