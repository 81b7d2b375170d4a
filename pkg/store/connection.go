// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jllopis/kairos-weaviate/pkg/errors"
	"github.com/jllopis/kairos-weaviate/pkg/telemetry"
)

// TracerName is the instrumentation scope for store spans.
const TracerName = "kairos-weaviate/store"

// ErrClosed is the cause reported by operations on a closed Connection.
var ErrClosed = stderrors.New("connection closed")

// Connection is the shared, lazily dialled handle to the vector store.
// It is safe for concurrent use. The first operation triggers the dial;
// callers arriving while it is in flight wait on the same attempt. The
// outcome, success or failure, is kept for the lifetime of the Connection.
type Connection struct {
	params  ClientParams
	dial    Dialer
	logger  *slog.Logger
	metrics *telemetry.PipelineMetrics
	tracer  trace.Tracer

	once      sync.Once
	ready     chan struct{}
	transport Transport
	err       error

	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

// Option configures a Connection.
type Option func(*Connection)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Connection) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records connection attempts, errors and durations.
func WithMetrics(m *telemetry.PipelineMetrics) Option {
	return func(c *Connection) { c.metrics = m }
}

// WithTracer overrides the tracer used for store spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *Connection) {
		if t != nil {
			c.tracer = t
		}
	}
}

// NewConnection returns an unconnected handle. No I/O happens until the
// first operation.
func NewConnection(params ClientParams, dial Dialer, opts ...Option) *Connection {
	c := &Connection{
		params: params,
		dial:   dial,
		ready:  make(chan struct{}),
		tracer: otel.Tracer(TracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = telemetry.Component(c.logger, "store").With(slog.String("provider", params.Provider))
	return c
}

// Params returns the client parameters the connection was built with.
func (c *Connection) Params() ClientParams {
	return c.params
}

// Connect waits for the connection, dialling it if needed.
func (c *Connection) Connect(ctx context.Context) error {
	_, err := c.connect(ctx)
	return err
}

func (c *Connection) connect(ctx context.Context) (Transport, error) {
	c.once.Do(func() {
		go c.establish(ctx)
	})
	select {
	case <-c.ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return nil, errors.Connection(ErrClosed)
	}
	return c.transport, c.err
}

// establish runs the dial on a context detached from the first caller, so a
// cancelled caller does not poison the shared attempt.
func (c *Connection) establish(parent context.Context) {
	defer close(c.ready)

	timeout := c.params.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), timeout)
	defer cancel()

	start := time.Now()
	c.logger.DebugContext(ctx, "connecting to vector store", "host", c.params.Host, "cloud", c.params.Cloud())

	if c.dial == nil {
		c.err = errors.Connection(stderrors.New("no dialer configured"))
		return
	}
	t, err := c.dial(ctx, c.params)
	c.metrics.RecordConnection(ctx, c.params.Provider, err)
	if err != nil {
		c.err = errors.Connection(err).
			WithContext("provider", c.params.Provider).
			WithContext("host", c.params.Host)
		c.logger.ErrorContext(ctx, "vector store connection failed", "error", err)
		return
	}
	c.transport = t
	c.logger.InfoContext(ctx, "connected to vector store", "elapsed", time.Since(start))
}

func (c *Connection) begin(ctx context.Context, op, collection string) (context.Context, trace.Span, time.Time) {
	ctx, span := c.tracer.Start(ctx, "store."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(telemetry.StoreAttributes(c.params.Provider, op, collection)...),
	)
	return ctx, span, time.Now()
}

func (c *Connection) end(ctx context.Context, span trace.Span, op string, start time.Time, err error) {
	c.metrics.RecordDuration(ctx, "store."+op, start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.metrics.RecordError(ctx, "store."+op, err)
	}
	span.End()
}

// CollectionExists reports whether the collection exists. It never fails:
// connection and lookup errors are logged and reported as false.
func (c *Connection) CollectionExists(ctx context.Context, name string) bool {
	ctx, span, start := c.begin(ctx, "collection_exists", name)
	defer c.end(ctx, span, "collection_exists", start, nil)

	t, err := c.connect(ctx)
	if err != nil {
		c.logger.DebugContext(ctx, "collection lookup skipped", "collection", name, "error", err)
		return false
	}
	ok, err := t.CollectionExists(ctx, name)
	if err != nil {
		c.logger.DebugContext(ctx, "collection lookup failed", "collection", name, "error", err)
		return false
	}
	return ok
}

// CreateCollection provisions the collection unless it already exists.
func (c *Connection) CreateCollection(ctx context.Context, cfg CollectionConfig) (err error) {
	ctx, span, start := c.begin(ctx, "create_collection", cfg.Name)
	defer func() { c.end(ctx, span, "create_collection", start, err) }()

	if cfg.Name == "" {
		return errors.Misconfiguration("collection name is required")
	}
	t, err := c.connect(ctx)
	if err != nil {
		return err
	}
	if c.CollectionExists(ctx, cfg.Name) {
		c.logger.DebugContext(ctx, "collection already exists", "collection", cfg.Name)
		return nil
	}
	if err := t.CreateCollection(ctx, cfg); err != nil {
		// A concurrent creator may have won the race.
		if ok, lookupErr := t.CollectionExists(ctx, cfg.Name); lookupErr == nil && ok {
			return nil
		}
		return errors.StoreOperation("create collection", cfg.Name, err)
	}
	c.logger.InfoContext(ctx, "collection created", "collection", cfg.Name)
	return nil
}

// GetCollection reads the stored collection configuration.
func (c *Connection) GetCollection(ctx context.Context, name string) (info CollectionInfo, err error) {
	ctx, span, start := c.begin(ctx, "get_collection", name)
	defer func() { c.end(ctx, span, "get_collection", start, err) }()

	t, err := c.connect(ctx)
	if err != nil {
		return CollectionInfo{}, err
	}
	info, err = t.GetCollection(ctx, name)
	if err != nil {
		return CollectionInfo{}, errors.StoreOperation("get collection", name, err)
	}
	return info, nil
}

// InsertObjects writes objects in a single batch and returns their IDs in
// input order.
func (c *Connection) InsertObjects(ctx context.Context, collection string, objects []Object) (ids []string, err error) {
	ctx, span, start := c.begin(ctx, "insert_objects", collection)
	span.SetAttributes(telemetry.StoreObjectsAttribute(len(objects)))
	defer func() { c.end(ctx, span, "insert_objects", start, err) }()

	t, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	if len(objects) == 0 {
		return nil, nil
	}
	ids, err = t.InsertObjects(ctx, collection, objects)
	if err != nil {
		return nil, errors.StoreOperation("insert objects", collection, err).WithContext("objects", len(objects))
	}
	c.logger.DebugContext(ctx, "objects inserted", "collection", collection, "count", len(objects))
	return ids, nil
}

// Search runs a nearest-neighbour query. The distance cutoff and filter are
// passed through to the transport verbatim.
func (c *Connection) Search(ctx context.Context, collection string, vector []float32, opts SearchOptions) (res SearchResult, err error) {
	if opts.Limit <= 0 {
		opts.Limit = DefaultSearchLimit
	}
	ctx, span, start := c.begin(ctx, "search", collection)
	span.SetAttributes(telemetry.SearchAttributes(opts.Limit, opts.Distance, !opts.Filter.IsZero())...)
	defer func() { c.end(ctx, span, "search", start, err) }()

	t, err := c.connect(ctx)
	if err != nil {
		return SearchResult{}, err
	}
	hits, err := t.Search(ctx, collection, vector, opts)
	if err != nil {
		return SearchResult{}, errors.StoreOperation("search", collection, err).WithContext("limit", opts.Limit)
	}
	span.SetAttributes(telemetry.SearchResultsAttribute(len(hits)))
	return SearchResult{Results: hits, Count: len(hits)}, nil
}

// DeleteObjects deletes each id individually. Every id is attempted; the
// failures are joined into the returned error.
func (c *Connection) DeleteObjects(ctx context.Context, collection string, ids []string) (err error) {
	ctx, span, start := c.begin(ctx, "delete_objects", collection)
	span.SetAttributes(telemetry.StoreIDsAttribute(len(ids)))
	defer func() { c.end(ctx, span, "delete_objects", start, err) }()

	t, err := c.connect(ctx)
	if err != nil {
		return err
	}
	var errs []error
	for _, id := range ids {
		if derr := t.DeleteObject(ctx, collection, id); derr != nil {
			errs = append(errs, errors.StoreOperation("delete object", collection, derr).WithContext("id", id))
		}
	}
	return stderrors.Join(errs...)
}

// DeleteCollection drops the collection and everything in it.
func (c *Connection) DeleteCollection(ctx context.Context, name string) (err error) {
	ctx, span, start := c.begin(ctx, "delete_collection", name)
	defer func() { c.end(ctx, span, "delete_collection", start, err) }()

	t, err := c.connect(ctx)
	if err != nil {
		return err
	}
	if err := t.DeleteCollection(ctx, name); err != nil {
		return errors.StoreOperation("delete collection", name, err)
	}
	c.logger.InfoContext(ctx, "collection deleted", "collection", name)
	return nil
}

// GetCollectionStats reads the collection config and a snapshot of its
// object count.
func (c *Connection) GetCollectionStats(ctx context.Context, name string) (stats CollectionStats, err error) {
	ctx, span, start := c.begin(ctx, "collection_stats", name)
	defer func() { c.end(ctx, span, "collection_stats", start, err) }()

	t, err := c.connect(ctx)
	if err != nil {
		return CollectionStats{}, err
	}
	info, err := t.GetCollection(ctx, name)
	if err != nil {
		return CollectionStats{}, errors.StoreOperation("get collection", name, err)
	}
	count, err := t.CountObjects(ctx, name)
	if err != nil {
		return CollectionStats{}, errors.StoreOperation("count objects", name, err)
	}
	return CollectionStats{Name: info.Name, Description: info.Description, ObjectCount: count}, nil
}

// Close releases the transport. It may be called any number of times and
// never fails; transport close errors are logged. A Connection that was never
// used is closed without dialling.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		c.once.Do(func() {
			c.err = errors.Connection(ErrClosed)
			close(c.ready)
		})
		<-c.ready

		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()

		if c.transport == nil {
			return
		}
		if err := c.transport.Close(); err != nil {
			c.logger.Warn("closing vector store transport", "error", err)
			return
		}
		c.logger.Debug("vector store connection closed")
	})
}
