package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"sync"

	"github.com/dop251/goja"

	"github.com/yourls/yourls-cli/internal/debug"
)

// ScriptElement is a script tag injected into a Document.
type ScriptElement struct {
	Src string
}

// ScriptLoader fetches the source of a script element.
type ScriptLoader interface {
	Load(ctx context.Context, src string) (string, error)
}

// HTTPScriptLoader loads scripts with an HTTP GET.
type HTTPScriptLoader struct {
	HTTP      *http.Client
	UserAgent string
}

// Load implements ScriptLoader. Like a browser, it refuses to hand back the
// body of a non-2xx response, so such scripts never run.
func (l *HTTPScriptLoader) Load(ctx context.Context, src string) (string, error) {
	client := l.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/javascript, */*;q=0.8")
	if l.UserAgent != "" {
		req.Header.Set("User-Agent", l.UserAgent)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("script load failed with status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Document models the page that JSONP scripts are injected into.
//
// Appended elements are loaded in the background and executed one at a time
// in a single JavaScript runtime, whose global scope exposes the callback
// registry under its key. Elements stay attached until a callback detaches
// them; a script that fails to load or never calls back stays forever.
type Document struct {
	loader ScriptLoader

	mu   sync.Mutex
	head []*ScriptElement

	execMu sync.Mutex
	vm     *goja.Runtime
}

// NewDocument creates a Document whose scripts can reach registry.
func NewDocument(loader ScriptLoader, registry *CallbackRegistry) (*Document, error) {
	if loader == nil {
		loader = &HTTPScriptLoader{}
	}
	vm := goja.New()
	holder := vm.NewDynamicObject(&callbackHolder{vm: vm, registry: registry})
	if err := vm.Set(registry.Key(), holder); err != nil {
		return nil, fmt.Errorf("failed to expose callback registry: %w", err)
	}
	return &Document{loader: loader, vm: vm}, nil
}

// AppendChild attaches el and starts loading it.
func (d *Document) AppendChild(ctx context.Context, el *ScriptElement) {
	d.mu.Lock()
	d.head = append(d.head, el)
	d.mu.Unlock()

	go d.run(context.WithoutCancel(ctx), el)
}

// RemoveChild detaches el. It is a no-op when el is not attached.
func (d *Document) RemoveChild(el *ScriptElement) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i := slices.Index(d.head, el); i >= 0 {
		d.head = slices.Delete(d.head, i, i+1)
	}
}

// Scripts returns the currently attached elements.
func (d *Document) Scripts() []*ScriptElement {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.head)
}

func (d *Document) run(ctx context.Context, el *ScriptElement) {
	src, err := d.loader.Load(ctx, el.Src)
	if err != nil {
		if debug.IsEnabled(ctx) {
			slog.Debug("script load failed", "src", redactQuery(el.Src), "error", err)
		}
		return
	}

	d.execMu.Lock()
	defer d.execMu.Unlock()
	if _, err := d.vm.RunString(src); err != nil && debug.IsEnabled(ctx) {
		slog.Debug("script execution failed", "src", redactQuery(el.Src), "error", err)
	}
}

// callbackHolder exposes a CallbackRegistry to scripts as an object whose
// properties are the pending ids.
type callbackHolder struct {
	vm       *goja.Runtime
	registry *CallbackRegistry
}

func (h *callbackHolder) Get(key string) goja.Value {
	id, err := strconv.ParseInt(key, 10, 64)
	if err != nil || !h.registry.Pending(id) {
		return nil
	}
	return h.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		h.registry.Invoke(id, exportResponse(call.Argument(0)))
		return goja.Undefined()
	})
}

func (h *callbackHolder) Set(string, goja.Value) bool { return false }

func (h *callbackHolder) Has(key string) bool {
	id, err := strconv.ParseInt(key, 10, 64)
	return err == nil && h.registry.Pending(id)
}

func (h *callbackHolder) Delete(string) bool { return false }

func (h *callbackHolder) Keys() []string {
	ids := h.registry.PendingIDs()
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = strconv.FormatInt(id, 10)
	}
	return keys
}

// exportResponse converts a script value into a Response. Anything that is
// not an object yields nil.
func exportResponse(v goja.Value) Response {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	data, err := json.Marshal(v.Export())
	if err != nil {
		return nil
	}
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil
	}
	return resp
}
