// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package retriever embeds a query and returns the nearest stored documents.
package retriever

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jllopis/kairos-weaviate/pkg/core"
	"github.com/jllopis/kairos-weaviate/pkg/embedding"
	"github.com/jllopis/kairos-weaviate/pkg/errors"
	"github.com/jllopis/kairos-weaviate/pkg/store"
	"github.com/jllopis/kairos-weaviate/pkg/telemetry"
)

// TracerName is the instrumentation scope for retriever spans.
const TracerName = "kairos-weaviate/retriever"

// DistanceKey is the metadata key carrying the store-reported distance.
const DistanceKey = "_distance"

// RawMetadataKey holds stored metadata that is not a JSON object.
const RawMetadataKey = "metadata"

// Options tunes a single Retrieve call.
type Options struct {
	K        int           `json:"k,omitempty"`
	Distance *float32      `json:"distance,omitempty"`
	Filters  *store.Filter `json:"filters,omitempty"`
}

// Config describes a Retriever.
type Config struct {
	Collection      string
	Embedder        embedding.Embedder
	EmbedderOptions map[string]any
	Logger          *slog.Logger
	Metrics         *telemetry.PipelineMetrics
}

// Retriever queries one collection.
type Retriever struct {
	conn         *store.Connection
	collection   string
	embedder     embedding.Embedder
	embedderOpts map[string]any
	logger       *slog.Logger
	metrics      *telemetry.PipelineMetrics
	tracer       trace.Tracer
}

// New builds a Retriever over a shared connection.
func New(conn *store.Connection, cfg Config) (*Retriever, error) {
	if conn == nil {
		return nil, errors.Misconfiguration("retriever %q: connection is required", cfg.Collection)
	}
	if cfg.Collection == "" {
		return nil, errors.Misconfiguration("retriever: collection name is required")
	}
	if cfg.Embedder == nil {
		return nil, errors.Misconfiguration("retriever %q: embedder is required", cfg.Collection)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		conn:         conn,
		collection:   cfg.Collection,
		embedder:     cfg.Embedder,
		embedderOpts: cfg.EmbedderOptions,
		logger:       telemetry.Component(logger, "retriever").With(slog.String("collection", cfg.Collection)),
		metrics:      cfg.Metrics,
		tracer:       otel.Tracer(TracerName),
	}, nil
}

// Collection returns the collection this retriever reads from.
func (r *Retriever) Collection() string {
	return r.collection
}

// Retrieve returns up to opts.K documents nearest to query, nearest first.
// Each document carries the store-reported distance under DistanceKey.
func (r *Retriever) Retrieve(ctx context.Context, query core.Document, opts Options) (docs []core.Document, err error) {
	k := opts.K
	if k <= 0 {
		k = store.DefaultSearchLimit
	}

	ctx, span := r.tracer.Start(ctx, "retriever.Retrieve",
		trace.WithAttributes(telemetry.RetrieveAttributes(r.collection, k, opts.Distance, !opts.Filters.IsZero())...))
	start := time.Now()
	defer func() {
		r.metrics.RecordDuration(ctx, "retriever.retrieve", start)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			r.metrics.RecordError(ctx, "retriever.retrieve", err)
		}
		span.End()
	}()

	vector, err := r.queryVector(ctx, query)
	if err != nil {
		return nil, err
	}

	res, err := r.conn.Search(ctx, r.collection, vector, store.SearchOptions{
		Limit:    k,
		Distance: opts.Distance,
		Filter:   opts.Filters,
	})
	if err != nil {
		return nil, err
	}

	docs = make([]core.Document, 0, len(res.Results))
	for _, hit := range res.Results {
		docs = append(docs, toDocument(hit))
	}
	span.SetAttributes(telemetry.SearchResultsAttribute(len(docs)))
	r.metrics.RecordRetrieve(ctx, r.collection, len(docs))
	return docs, nil
}

// queryVector embeds the query and returns its first embedding.
func (r *Retriever) queryVector(ctx context.Context, query core.Document) ([]float32, error) {
	embs, err := r.embedder.Embed(ctx, query, r.embedderOpts)
	if err != nil {
		return nil, errors.Embedding("embed query", err).WithContext("collection", r.collection)
	}
	if len(embs) == 0 {
		return nil, errors.Embedding("embedder returned no embeddings for query", nil).
			WithContext("collection", r.collection)
	}
	if len(embs) > 1 {
		r.logger.WarnContext(ctx, "query produced several embeddings, using the first", "embeddings", len(embs))
	}
	return embs[0].Vector, nil
}

func toDocument(hit store.ScoredObject) core.Document {
	props := hit.Object.Properties
	meta := decodeMetadata(props.Metadata)
	if hit.Distance != nil {
		if meta == nil {
			meta = make(map[string]any, 1)
		}
		meta[DistanceKey] = float64(*hit.Distance)
	}
	return core.Document{
		Content:     props.Content,
		ContentType: props.ContentType,
		Metadata:    meta,
	}
}

// decodeMetadata parses stored metadata. Anything that is not a JSON object
// is kept verbatim under RawMetadataKey.
func decodeMetadata(raw string) map[string]any {
	if raw == "" {
		return nil
	}
	var meta map[string]any
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return map[string]any{RawMetadataKey: raw}
	}
	return meta
}
