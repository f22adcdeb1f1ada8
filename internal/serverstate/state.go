// Package serverstate tracks the gateway lifecycle: the engine starts
// out loading, becomes ready, and drains on shutdown. The state can be
// mirrored to Redis so fleet tooling sees every gateway replica.
package serverstate

import "sync/atomic"

// State is the gateway status snapshot. Fields are updated together so
// readers always observe a consistent pair.
type State struct {
	Status   string `json:"status"`
	Draining bool   `json:"draining"`
}

// Store defines how the gateway state is persisted. Implementations may
// keep it in memory or in an external service such as Redis.
type Store interface {
	Load() State
	Store(State)
}

// active is the currently configured Store. It defaults to an in-memory
// implementation but can be swapped for other strategies at startup.
var active Store = NewMemoryStore()

// UseStore replaces the active Store. Call before serving traffic.
func UseStore(s Store) {
	if s != nil {
		active = s
	}
}

// memoryStore implements Store using an atomic.Value. It is the default
// strategy and is safe for concurrent use within a single process.
type memoryStore struct {
	v atomic.Value
}

// NewMemoryStore returns a memory-backed Store initialized to "loading".
func NewMemoryStore() *memoryStore {
	ms := &memoryStore{}
	ms.v.Store(State{Status: "loading"})
	return ms
}

func (m *memoryStore) Load() State {
	if st, ok := m.v.Load().(State); ok {
		return st
	}
	return State{Status: "unknown"}
}

func (m *memoryStore) Store(s State) {
	m.v.Store(s)
}

// SetState updates the gateway status string.
func SetState(status string) {
	st := active.Load()
	st.Status = status
	active.Store(st)
}

// GetState returns the current gateway status.
func GetState() string {
	return active.Load().Status
}

// StartDrain marks the gateway as draining.
func StartDrain() {
	st := active.Load()
	st.Draining = true
	st.Status = "draining"
	active.Store(st)
}

// IsDraining reports whether the gateway is draining.
func IsDraining() bool {
	return active.Load().Draining
}
