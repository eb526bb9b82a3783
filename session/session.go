// Package session defines the trace persistence contract. Every pipeline run
// appends stage-level trace events keyed by session so past runs can be
// replayed and audited. Persistence is best-effort: the pipeline never fails
// a run because a trace write failed.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrSessionNotFound indicates no trace events exist for the session.
var ErrSessionNotFound = errors.New("session: not found")

type (
	// TraceEvent records one pipeline stage transition for a session.
	TraceEvent struct {
		// SessionID groups events belonging to one conversation. Required.
		SessionID string `json:"session_id" bson:"session_id"`

		// RunID identifies the pipeline run that produced the event.
		RunID string `json:"run_id" bson:"run_id"`

		// Stage names the pipeline stage ("plan", "simulate", "explain",
		// "compose") or "route" for intent routing decisions.
		Stage string `json:"stage" bson:"stage"`

		// Detail carries stage-specific structured data.
		Detail map[string]any `json:"detail,omitempty" bson:"detail,omitempty"`

		// At is the event timestamp in UTC.
		At time.Time `json:"at" bson:"at"`
	}

	// Store persists trace events. Implementations must be safe for
	// concurrent use.
	Store interface {
		// AppendTrace appends an event to the session's trace.
		AppendTrace(ctx context.Context, event TraceEvent) error

		// Trace returns the session's events in append order. Returns
		// ErrSessionNotFound when the session has no events.
		Trace(ctx context.Context, sessionID string) ([]TraceEvent, error)
	}
)

// Validate reports whether the event carries the fields every store requires.
func (e TraceEvent) Validate() error {
	if e.SessionID == "" {
		return errors.New("session id is required")
	}
	if e.Stage == "" {
		return errors.New("stage is required")
	}
	return nil
}
