// Package websocket implements the live-reload channel of the dev server: a
// registry of connected pages, the hub that accepts their websocket
// connections, and the broadcaster that tells them to reload.
package websocket

import (
	"sort"
	"sync"
)

// Handle is the sending side of one live connection. Send must not block.
type Handle interface {
	Send(msg string) error
}

// Registry maps connection ids to their handles. All access goes through one
// mutex, so a broadcast never observes a half-applied connect or disconnect.
type Registry struct {
	mu      sync.Mutex
	handles map[uint64]Handle
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handles: make(map[uint64]Handle)}
}

// Connect registers h under id. A duplicate id replaces the previous handle.
func (r *Registry) Connect(id uint64, h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handles[id] = h
}

// Disconnect removes id and reports whether it was registered.
func (r *Registry) Disconnect(id uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.handles[id]; !ok {
		return false
	}
	delete(r.handles, id)
	return true
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

// IDs returns the registered ids in ascending order.
func (r *Registry) IDs() []uint64 {
	r.mu.Lock()
	ids := make([]uint64, 0, len(r.handles))
	for id := range r.handles {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Broadcast sends msg to every registered handle while holding the lock and
// returns how many handles were attempted. Send errors are ignored; a broken
// connection is removed by its own disconnect.
func (r *Registry) Broadcast(msg string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, h := range r.handles {
		_ = h.Send(msg)
	}
	return len(r.handles)
}
