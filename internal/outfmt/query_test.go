package outfmt

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestQueryContext(t *testing.T) {
	if GetQuery(context.Background()) != "" {
		t.Error("query should be empty by default")
	}
	if GetQuery(WithQuery(context.Background(), ".shorturl")) != ".shorturl" {
		t.Error("GetQuery should return the query set with WithQuery")
	}
}

func TestWriteJSONFiltered(t *testing.T) {
	data := map[string]any{"shorturl": "https://sho.rt/abc", "title": "Example"}

	var buf bytes.Buffer
	if err := WriteJSONFiltered(&buf, data, "", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "\n  \"shorturl\"") {
		t.Errorf("default output should be indented, got %s", buf.String())
	}

	buf.Reset()
	if err := WriteJSONFiltered(&buf, data, ".shorturl", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(buf.String()) != `"https://sho.rt/abc"` {
		t.Errorf("expected filtered output, got %s", buf.String())
	}

	buf.Reset()
	if err := WriteJSONFiltered(&buf, data, "{u: .shorturl, t: .title}", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out := strings.TrimSpace(buf.String()); strings.Contains(out, "\n") || !strings.Contains(out, `"u":"https://sho.rt/abc"`) {
		t.Errorf("compact output should be a single line, got %s", out)
	}

	if err := WriteJSONFiltered(&buf, data, "invalid[[[", false); err == nil {
		t.Error("expected error for invalid query")
	}
}

func TestWriteJSONFiltered_WrapsSlices(t *testing.T) {
	var nilLinks []map[string]string
	tests := []struct {
		name  string
		data  any
		count int
	}{
		{"nil slice", nilLinks, 0},
		{"empty slice", []string{}, 0},
		{"populated", []string{"a", "b"}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteJSONFiltered(&buf, tt.data, "", true); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var parsed struct {
				Items []any `json:"items"`
			}
			if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
				t.Fatalf("invalid JSON %q: %v", buf.String(), err)
			}
			if parsed.Items == nil || len(parsed.Items) != tt.count {
				t.Errorf("expected %d items, got %s", tt.count, buf.String())
			}
		})
	}
}

func TestWriteJSONFiltered_RawMessage(t *testing.T) {
	raw := json.RawMessage(`{"keyword":"abc","longurl":"https://example.com"}`)
	original := append([]byte(nil), raw...)

	var buf bytes.Buffer
	if err := WriteJSONFiltered(&buf, raw, ".longurl", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(buf.String()) != `"https://example.com"` {
		t.Fatalf("unexpected output %q", buf.String())
	}
	if !bytes.Equal(raw, original) {
		t.Fatalf("raw JSON payload was mutated")
	}
}

func TestApplyQuery(t *testing.T) {
	data := map[string]string{"keyword": "abc"}
	result, err := ApplyQuery(data, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m, ok := result.(map[string]string); !ok || m["keyword"] != "abc" {
		t.Fatalf("empty query should return data unchanged, got %#v", result)
	}

	links := []map[string]string{{"keyword": "a"}, {"keyword": "b"}}
	result, err = ApplyQuery(links, ".items[1].keyword")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "b" {
		t.Errorf("expected 'b', got %v", result)
	}

	if _, err := ApplyQuery(data, "invalid[[["); err == nil {
		t.Error("expected error for invalid query")
	}
}
