package gateway

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/dimensionalOS/anygrasp-sdk/internal/metrics"
)

// ErrSessionClosed is returned when sending to a session that is gone.
var ErrSessionClosed = errors.New("session closed")

// Session is one open websocket connection. It owns at most one in-flight
// request at a time; responses and error payloads go out through the
// buffered send channel drained by the session's writer goroutine.
type Session struct {
	ID     string
	Remote string

	mu     sync.Mutex
	out    chan interface{}
	closed bool
}

// Send queues msg for delivery on the session socket.
func (s *Session) Send(msg interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.out <- msg
	return nil
}

// Out exposes the send channel to the writer goroutine.
func (s *Session) Out() <-chan interface{} { return s.out }

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.out)
}

// Registry tracks the currently open sessions. Membership changes are the
// only mutable shared state between sessions.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry returns an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Add registers a new session for the given remote address.
func (r *Registry) Add(remote string) *Session {
	s := &Session{
		ID:     uuid.NewString(),
		Remote: remote,
		out:    make(chan interface{}, 32),
	}
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	metrics.SessionOpened()
	return s
}

// Remove deregisters a session and closes its send channel. Removing a
// session twice or removing an unknown ID is a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	if ok {
		s.close()
		metrics.SessionClosed()
	}
}

// Send delivers msg to the identified session.
func (r *Registry) Send(id string, msg interface{}) error {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return ErrSessionClosed
	}
	return s.Send(msg)
}

// Count returns the number of open sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
