package api

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"
)

// CallbackRegistry holds the completion handlers of in-flight JSONP
// requests, keyed by a generated numeric id. Scripts returned by the server
// reach the handlers through the global object named by Key.
//
// A handler is removed before it runs, so it fires at most once. Handlers of
// requests whose script never calls back stay registered.
type CallbackRegistry struct {
	key string

	mu       sync.Mutex
	seed     int64
	handlers map[int64]func(Response)
}

// NewCallbackRegistry creates a registry seeded from the current time.
func NewCallbackRegistry() *CallbackRegistry {
	seed := time.Now().UnixMilli()
	return &CallbackRegistry{
		key:      fmt.Sprintf("__yourls%d_jsonp", seed),
		seed:     seed,
		handlers: make(map[int64]func(Response)),
	}
}

// Key is the global name under which scripts find the registry.
func (r *CallbackRegistry) Key() string {
	return r.key
}

// NextID returns an id that no pending handler is using.
func (r *CallbackRegistry) NextID() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	for {
		r.seed++
		if _, taken := r.handlers[r.seed]; !taken {
			return r.seed
		}
	}
}

// CallbackName is the value of the "callback" request parameter for id.
func (r *CallbackRegistry) CallbackName(id int64) string {
	return r.key + "[" + strconv.FormatInt(id, 10) + "]"
}

// Register stores fn as the one-shot handler for id.
func (r *CallbackRegistry) Register(id int64, fn func(Response)) {
	r.mu.Lock()
	r.handlers[id] = fn
	r.mu.Unlock()
}

// Invoke removes the handler for id and calls it with resp.
// It reports false when no handler was pending under id.
func (r *CallbackRegistry) Invoke(id int64, resp Response) bool {
	r.mu.Lock()
	fn, ok := r.handlers[id]
	if ok {
		delete(r.handlers, id)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	fn(resp)
	return true
}

// Pending reports whether a handler is registered under id.
func (r *CallbackRegistry) Pending(id int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.handlers[id]
	return ok
}

// PendingIDs returns the ids of all registered handlers in ascending order.
func (r *CallbackRegistry) PendingIDs() []int64 {
	r.mu.Lock()
	ids := make([]int64, 0, len(r.handlers))
	for id := range r.handlers {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
