// Package redis provides a Redis-backed session.Store. Each session's trace
// is a Redis list of JSON-encoded events, which keeps append order without
// any sorting on read.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"goa.design/clue/health"

	"finsense/session"
)

const (
	keyPrefix       = "finsense:trace:"
	storeClientName = "session-redis"
)

// Cmdable is the subset of redis.Cmdable used by the store. It is satisfied
// by *redis.Client and by miniredis-backed clients in tests.
type Cmdable interface {
	RPush(ctx context.Context, key string, values ...any) *redis.IntCmd
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// Options configures the Redis session store.
type Options struct {
	// Client is the connected Redis client. Required.
	Client Cmdable

	// TTL bounds how long a session's trace is retained. Zero disables
	// expiry.
	TTL time.Duration
}

// Store implements session.Store backed by Redis lists. It also implements
// health.Pinger so the HTTP health check can report Redis connectivity.
type Store struct {
	client Cmdable
	ttl    time.Duration
}

var _ health.Pinger = (*Store)(nil)

// New returns a Store backed by Redis.
func New(opts Options) (*Store, error) {
	if opts.Client == nil {
		return nil, errors.New("redis client is required")
	}
	return &Store{client: opts.Client, ttl: opts.TTL}, nil
}

// Name identifies the store in health check reports.
func (s *Store) Name() string {
	return storeClientName
}

// Ping reports Redis connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// AppendTrace appends the JSON-encoded event to the session's list and
// refreshes the TTL when one is configured.
func (s *Store) AppendTrace(ctx context.Context, event session.TraceEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode trace event: %w", err)
	}
	key := keyPrefix + event.SessionID
	if err := s.client.RPush(ctx, key, data).Err(); err != nil {
		return err
	}
	if s.ttl > 0 {
		if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
			return err
		}
	}
	return nil
}

// Trace returns the session's events in append order.
func (s *Store) Trace(ctx context.Context, sessionID string) ([]session.TraceEvent, error) {
	if sessionID == "" {
		return nil, errors.New("session id is required")
	}
	raw, err := s.client.LRange(ctx, keyPrefix+sessionID, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, session.ErrSessionNotFound
	}
	out := make([]session.TraceEvent, 0, len(raw))
	for _, item := range raw {
		var event session.TraceEvent
		if err := json.Unmarshal([]byte(item), &event); err != nil {
			return nil, fmt.Errorf("decode trace event: %w", err)
		}
		out = append(out, event)
	}
	return out, nil
}
