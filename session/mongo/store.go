// Package mongo provides a MongoDB-backed session.Store. Trace events are
// appended as individual documents and read back ordered by timestamp.
package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"goa.design/clue/health"

	"finsense/session"
)

const (
	defaultTraceCollection = "session_traces"
	defaultOpTimeout       = 5 * time.Second
	storeClientName        = "session-mongo"
)

// Options configures the Mongo session store.
type Options struct {
	// Client is the connected Mongo client. Required.
	Client *mongodriver.Client

	// Database is the database name. Required.
	Database string

	// TraceCollection overrides the trace collection name.
	TraceCollection string

	// Timeout bounds individual store operations.
	Timeout time.Duration
}

// Store implements session.Store backed by MongoDB. It also implements
// health.Pinger so the HTTP health check can report Mongo connectivity.
type Store struct {
	mongo   *mongodriver.Client
	traces  collection
	timeout time.Duration
}

var _ health.Pinger = (*Store)(nil)

// New returns a Store backed by MongoDB and ensures the trace indexes exist.
func New(opts Options) (*Store, error) {
	if opts.Client == nil {
		return nil, errors.New("mongo client is required")
	}
	if opts.Database == "" {
		return nil, errors.New("database name is required")
	}
	name := opts.TraceCollection
	if name == "" {
		name = defaultTraceCollection
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultOpTimeout
	}
	coll := mongoCollection{coll: opts.Client.Database(opts.Database).Collection(name)}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := ensureIndexes(ctx, coll); err != nil {
		return nil, err
	}
	return newStoreWithCollection(opts.Client, coll, timeout)
}

func newStoreWithCollection(client *mongodriver.Client, traces collection, timeout time.Duration) (*Store, error) {
	if traces == nil {
		return nil, errors.New("trace collection is required")
	}
	if timeout <= 0 {
		timeout = defaultOpTimeout
	}
	return &Store{mongo: client, traces: traces, timeout: timeout}, nil
}

// Name identifies the store in health check reports.
func (s *Store) Name() string {
	return storeClientName
}

// Ping reports Mongo connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return s.mongo.Ping(ctx, readpref.Primary())
}

// AppendTrace inserts the event as a trace document.
func (s *Store) AppendTrace(ctx context.Context, event session.TraceEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	} else {
		event.At = event.At.UTC()
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	_, err := s.traces.InsertOne(ctx, event)
	return err
}

// Trace returns the session's events ordered by timestamp.
func (s *Store) Trace(ctx context.Context, sessionID string) ([]session.TraceEvent, error) {
	if sessionID == "" {
		return nil, errors.New("session id is required")
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	filter := bson.M{"session_id": sessionID}
	cur, err := s.traces.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cur.Close(ctx)
	}()
	var out []session.TraceEvent
	for cur.Next(ctx) {
		var event session.TraceEvent
		if err := cur.Decode(&event); err != nil {
			return nil, err
		}
		out = append(out, event)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, session.ErrSessionNotFound
	}
	return out, nil
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func ensureIndexes(ctx context.Context, traces collection) error {
	index := mongodriver.IndexModel{
		Keys: bson.D{
			{Key: "session_id", Value: 1},
			{Key: "at", Value: 1},
		},
	}
	_, err := traces.Indexes().CreateOne(ctx, index)
	return err
}

// collection abstracts the Mongo collection operations used by the store so
// tests can substitute in-memory fakes.
type collection interface {
	InsertOne(ctx context.Context, document any, opts ...options.Lister[options.InsertOneOptions]) (*mongodriver.InsertOneResult, error)
	Find(ctx context.Context, filter any, opts ...options.Lister[options.FindOptions]) (cursor, error)
	Indexes() indexView
}

type indexView interface {
	CreateOne(ctx context.Context, model mongodriver.IndexModel,
		opts ...options.Lister[options.CreateIndexesOptions]) (string, error)
}

type cursor interface {
	Close(ctx context.Context) error
	Decode(val any) error
	Err() error
	Next(ctx context.Context) bool
}

type mongoCollection struct {
	coll *mongodriver.Collection
}

func (c mongoCollection) InsertOne(ctx context.Context, document any, opts ...options.Lister[options.InsertOneOptions]) (*mongodriver.InsertOneResult, error) {
	return c.coll.InsertOne(ctx, document, opts...)
}

func (c mongoCollection) Find(ctx context.Context, filter any, opts ...options.Lister[options.FindOptions]) (cursor, error) {
	cur, err := c.coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	return mongoCursor{cur: cur}, nil
}

func (c mongoCollection) Indexes() indexView {
	return mongoIndexView{view: c.coll.Indexes()}
}

type mongoCursor struct {
	cur *mongodriver.Cursor
}

func (c mongoCursor) Close(ctx context.Context) error { return c.cur.Close(ctx) }
func (c mongoCursor) Decode(val any) error            { return c.cur.Decode(val) }
func (c mongoCursor) Err() error                      { return c.cur.Err() }
func (c mongoCursor) Next(ctx context.Context) bool   { return c.cur.Next(ctx) }

type mongoIndexView struct {
	view mongodriver.IndexView
}

func (v mongoIndexView) CreateOne(ctx context.Context, model mongodriver.IndexModel,
	opts ...options.Lister[options.CreateIndexesOptions]) (string, error) {
	return v.view.CreateOne(ctx, model, opts...)
}
