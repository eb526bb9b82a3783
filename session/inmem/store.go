// Package inmem provides an in-memory session.Store for tests and
// single-process demo runs.
package inmem

import (
	"context"
	"sync"
	"time"

	"finsense/session"
)

// Store keeps traces in process memory. Safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	traces map[string][]session.TraceEvent
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{traces: make(map[string][]session.TraceEvent)}
}

// AppendTrace appends the event to the session's trace.
func (s *Store) AppendTrace(_ context.Context, event session.TraceEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.traces[event.SessionID] = append(s.traces[event.SessionID], event)
	return nil
}

// Trace returns a copy of the session's events in append order.
func (s *Store) Trace(_ context.Context, sessionID string) ([]session.TraceEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events, ok := s.traces[sessionID]
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	out := make([]session.TraceEvent, len(events))
	copy(out, events)
	return out, nil
}
