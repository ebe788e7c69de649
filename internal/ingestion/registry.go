package ingestion

import (
	"context"
	"sync"
)

// handle is the cancellable grip on one in-flight operation.
type handle struct {
	cancel    context.CancelFunc
	cancelled bool
}

// Registry maps operation ids to cancellable handles for their running units
// of work. An entry exists only while the operation is in flight; removal is
// guaranteed on every exit path so a cancel request against a finished id is
// always a safe no-op.
type Registry struct {
	mu      sync.Mutex
	handles map[string]*handle
}

func NewRegistry() *Registry {
	return &Registry{handles: make(map[string]*handle)}
}

// Register records a cancellable handle for id.
func (r *Registry) Register(id string, cancel context.CancelFunc) {
	r.mu.Lock()
	r.handles[id] = &handle{cancel: cancel}
	r.mu.Unlock()
}

// Cancel signals cancellation for id. Returns false when the id is unknown
// (already finished, or never existed) — a no-op, not an error.
func (r *Registry) Cancel(id string) bool {
	r.mu.Lock()
	h, ok := r.handles[id]
	if ok {
		h.cancelled = true
	}
	r.mu.Unlock()

	if ok {
		h.cancel()
	}
	return ok
}

// Cancelled reports whether id was cancelled. Units of work poll this at
// their checkpoints.
func (r *Registry) Cancelled(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handles[id]
	return ok && h.cancelled
}

// Remove drops the handle for id.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.handles, id)
	r.mu.Unlock()
}

// Contains reports whether id is currently registered.
func (r *Registry) Contains(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.handles[id]
	return ok
}

// Len returns the number of in-flight operations.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}
