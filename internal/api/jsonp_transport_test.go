package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// jsonpServer answers every request by calling the requested callback with
// the object built by reply.
func jsonpServer(t *testing.T, reply func(r *http.Request) map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := json.Marshal(reply(r))
		if err != nil {
			t.Errorf("marshal reply: %v", err)
			return
		}
		w.Header().Set("Content-Type", "application/javascript")
		_, _ = fmt.Fprintf(w, "%s(%s);", r.URL.Query().Get("callback"), body)
	}))
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestJSONPRoundTrip(t *testing.T) {
	var gotMethod, gotFormat, gotCallback, gotSignature string
	server := jsonpServer(t, func(r *http.Request) map[string]any {
		gotMethod = r.Method
		gotFormat = r.URL.Query().Get("format")
		gotCallback = r.URL.Query().Get("callback")
		gotSignature = r.URL.Query().Get("signature")
		return map[string]any{"version": "1.9.2", "db_version": "482"}
	})
	defer server.Close()

	client := New().Connect(server.URL, &Credentials{Signature: "sig"}, nil)
	version, resp, err := client.Version(waitCtx(t), true)
	if err != nil {
		t.Fatalf("Version() error = %v", err)
	}
	if version.Version != "1.9.2" || version.DBVersion != "482" {
		t.Errorf("version = %+v", version)
	}
	if resp["version"] != "1.9.2" {
		t.Errorf("resp = %v", resp)
	}
	if gotMethod != http.MethodGet || gotFormat != "jsonp" || gotSignature != "sig" {
		t.Errorf("request method=%s format=%s signature=%s", gotMethod, gotFormat, gotSignature)
	}
	if !strings.HasPrefix(gotCallback, client.registry.Load().Key()+"[") {
		t.Errorf("callback = %q, want prefix %q", gotCallback, client.registry.Load().Key())
	}

	if ids := client.PendingCallbacks(); len(ids) != 0 {
		t.Errorf("pending callbacks = %v, want none", ids)
	}
	if scripts := client.document.Scripts(); len(scripts) != 0 {
		t.Errorf("attached scripts = %d, want none", len(scripts))
	}
}

func TestJSONPRejectsPOST(t *testing.T) {
	client := New().Connect("https://sho.rt/yourls-api.php", nil, &Options{Method: "POST"})
	err := client.ShortenAsync(context.Background(), "https://example.com", nil, func(any, Response, error) {
		t.Error("callback must not run")
	})
	var methodErr *UnsupportedMethodError
	if !errors.As(err, &methodErr) {
		t.Fatalf("err = %v, want UnsupportedMethodError", err)
	}
	if methodErr.Format != FormatJSONP || len(methodErr.Supported) != 1 || methodErr.Supported[0] != "GET" {
		t.Errorf("methodErr = %+v", methodErr)
	}
	if len(client.PendingCallbacks()) != 0 {
		t.Error("no handler should be registered")
	}
}

func TestJSONPLeaksWhenScriptNeverCallsBack(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"load failure", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = fmt.Fprintf(w, "%s({});", r.URL.Query().Get("callback"))
		}},
		{"no call", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("var unrelated = 1;"))
		}},
		{"script error", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("this is not javascript"))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := New().Connect(server.URL, nil, nil)
			ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
			defer cancel()

			_, _, err := client.Request(ctx, NewParams("action", "version"), "version")
			if !errors.Is(err, context.DeadlineExceeded) {
				t.Fatalf("err = %v, want deadline exceeded", err)
			}
			if ids := client.PendingCallbacks(); len(ids) != 1 {
				t.Errorf("pending callbacks = %v, want 1", ids)
			}
			if scripts := client.document.Scripts(); len(scripts) != 1 {
				t.Errorf("attached scripts = %d, want 1", len(scripts))
			}
		})
	}
}

func TestJSONPConcurrentRequestsRouteToTheirHandlers(t *testing.T) {
	server := jsonpServer(t, func(r *http.Request) map[string]any {
		keyword := r.URL.Query().Get("shorturl")
		return map[string]any{"keyword": keyword, "longurl": "https://example.com/" + keyword}
	})
	defer server.Close()

	client := New().Connect(server.URL, nil, nil)
	ctx := waitCtx(t)

	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			keyword := fmt.Sprintf("k%d", i)
			res, _, err := client.URL(keyword).Expand(ctx)
			if err != nil {
				errs <- err
				return
			}
			if res.Keyword.String() != keyword || res.LongURL != "https://example.com/"+keyword {
				errs <- fmt.Errorf("request %s got %+v", keyword, res)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
	if ids := client.PendingCallbacks(); len(ids) != 0 {
		t.Errorf("pending callbacks = %v, want none", ids)
	}
}

func TestJSONPCustomScriptLoader(t *testing.T) {
	client := New()
	client.ScriptLoader = scriptLoaderFunc(func(_ context.Context, src string) (string, error) {
		i := strings.Index(src, "callback=")
		name := strings.ReplaceAll(strings.ReplaceAll(src[i+len("callback="):], "%5B", "["), "%5D", "]")
		return name + `({"db-stats":{"total_links":"7","total_clicks":"70"}})`, nil
	})
	client.Connect("https://sho.rt/yourls-api.php", nil, nil)

	stats, _, err := client.DB().Stats(waitCtx(t))
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalLinks != 7 || stats.TotalClicks != 70 {
		t.Errorf("stats = %+v", stats)
	}
}

type scriptLoaderFunc func(ctx context.Context, src string) (string, error)

func (f scriptLoaderFunc) Load(ctx context.Context, src string) (string, error) {
	return f(ctx, src)
}

func TestPendingCallbacksDuringFirstJSONPRequest(t *testing.T) {
	server := jsonpServer(t, func(*http.Request) map[string]any {
		return map[string]any{"db-stats": map[string]any{"total_links": "5", "total_clicks": "6"}}
	})
	defer server.Close()

	client := New().Connect(server.URL, nil, nil)
	ctx := waitCtx(t)
	done := make(chan error, 1)
	go func() {
		done <- client.DB().StatsAsync(ctx, func(_ any, _ Response, err error) {
			done <- err
		})
	}()

	results := 0
	timeout := time.After(5 * time.Second)
	for results < 2 {
		_ = client.PendingCallbacks()
		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("StatsAsync() error = %v", err)
			}
			results++
		case <-timeout:
			t.Fatal("request did not complete")
		default:
		}
	}
	if ids := client.PendingCallbacks(); len(ids) != 0 {
		t.Errorf("pending callbacks = %v, want none", ids)
	}
}
