package api

import "testing"

func TestSerialize(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		want   string
	}{
		{"nil", nil, ""},
		{"empty", Params{}, ""},
		{"single", NewParams("a", 1), "a=1"},
		{"ordered", NewParams("a", 1, "b", "x y"), "a=1&b=x%20y"},
		{"skips nil", NewParams("a", nil, "b", "2"), "b=2"},
		{"only nil", NewParams("a", nil), ""},
		{"bool", NewParams("db", true), "db=true"},
		{"float", NewParams("f", 1.5), "f=1.5"},
		{"reserved chars", NewParams("url", "http://a.b/c?d=e&f"), "url=http%3A%2F%2Fa.b%2Fc%3Fd%3De%26f"},
		{"unreserved marks", NewParams("k", "a-b_c.d~e!f'g(h)i*"), "k=a-b_c.d~e!f'g(h)i*"},
		{"plus encoded", NewParams("k", "1+1"), "k=1%2B1"},
		{"encoded key", NewParams("a b", "c"), "a%20b=c"},
		{"unicode", NewParams("t", "é"), "t=%C3%A9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Serialize(tt.params); got != tt.want {
				t.Errorf("Serialize() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSerializeTypedNil(t *testing.T) {
	var s *string
	var n *int
	if got := Serialize(NewParams("a", s, "b", n, "c", "x")); got != "c=x" {
		t.Errorf("Serialize() = %q, want %q", got, "c=x")
	}
}

func TestParamsSetKeepsPosition(t *testing.T) {
	p := NewParams("a", 1, "b", 2, "c", 3)
	p = p.Set("b", 20)

	if got := Serialize(p); got != "a=1&b=20&c=3" {
		t.Errorf("Serialize() = %q, want %q", got, "a=1&b=20&c=3")
	}
	if v, ok := p.Get("b"); !ok || v != 20 {
		t.Errorf("Get(b) = %v, %v", v, ok)
	}
	if _, ok := p.Get("missing"); ok {
		t.Error("Get(missing) reported ok")
	}
}

func TestParamsMerge(t *testing.T) {
	base := NewParams("format", "json", "action", "x")
	merged := base.Merge(NewParams("username", "u"), NewParams("action", "y", "url", "z"))

	if got := Serialize(merged); got != "format=json&action=y&username=u&url=z" {
		t.Errorf("Serialize() = %q", got)
	}
	// base is left untouched
	if v, _ := base.Get("action"); v != "x" {
		t.Errorf("base action = %v, want x", v)
	}
}

func TestNewParamsIgnoresDanglingKey(t *testing.T) {
	p := NewParams("a", 1, "b")
	if len(p) != 1 {
		t.Fatalf("len = %d, want 1", len(p))
	}
}
