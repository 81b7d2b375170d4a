// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package indexer embeds documents and writes them to a vector store
// collection, one store object per embedding.
package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/jllopis/kairos-weaviate/pkg/core"
	"github.com/jllopis/kairos-weaviate/pkg/embedding"
	"github.com/jllopis/kairos-weaviate/pkg/errors"
	"github.com/jllopis/kairos-weaviate/pkg/store"
	"github.com/jllopis/kairos-weaviate/pkg/telemetry"
)

// TracerName is the instrumentation scope for indexer spans.
const TracerName = "kairos-weaviate/indexer"

// DefaultConcurrency bounds the number of documents embedded at once.
const DefaultConcurrency = 8

// Options tunes a single Index call.
type Options struct {
	// CreateCollectionIfMissing overrides the indexer default when set.
	CreateCollectionIfMissing *bool `json:"createCollectionIfMissing,omitempty"`
	// CollectionConfig is used when the collection has to be created. The
	// name always comes from the indexer.
	CollectionConfig *store.CollectionConfig `json:"collectionConfig,omitempty"`
}

// Config describes an Indexer.
type Config struct {
	Collection                string
	Embedder                  embedding.Embedder
	EmbedderOptions           map[string]any
	CreateCollectionIfMissing *bool
	CollectionConfig          *store.CollectionConfig
	Concurrency               int
	Logger                    *slog.Logger
	Metrics                   *telemetry.PipelineMetrics
}

// Indexer writes documents to one collection.
type Indexer struct {
	conn         *store.Connection
	collection   string
	embedder     embedding.Embedder
	embedderOpts map[string]any
	createByDef  bool
	collCfg      *store.CollectionConfig
	concurrency  int
	logger       *slog.Logger
	metrics      *telemetry.PipelineMetrics
	tracer       trace.Tracer
}

// New builds an Indexer over a shared connection.
func New(conn *store.Connection, cfg Config) (*Indexer, error) {
	if conn == nil {
		return nil, errors.Misconfiguration("indexer %q: connection is required", cfg.Collection)
	}
	if cfg.Collection == "" {
		return nil, errors.Misconfiguration("indexer: collection name is required")
	}
	if cfg.Embedder == nil {
		return nil, errors.Misconfiguration("indexer %q: embedder is required", cfg.Collection)
	}
	create := true
	if cfg.CreateCollectionIfMissing != nil {
		create = *cfg.CreateCollectionIfMissing
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{
		conn:         conn,
		collection:   cfg.Collection,
		embedder:     cfg.Embedder,
		embedderOpts: cfg.EmbedderOptions,
		createByDef:  create,
		collCfg:      cfg.CollectionConfig,
		concurrency:  concurrency,
		logger:       telemetry.Component(logger, "indexer").With(slog.String("collection", cfg.Collection)),
		metrics:      cfg.Metrics,
		tracer:       otel.Tracer(TracerName),
	}, nil
}

// Collection returns the collection this indexer writes to.
func (ix *Indexer) Collection() string {
	return ix.collection
}

// CreatesCollection reports whether Index provisions a missing collection
// when the call's options do not say otherwise.
func (ix *Indexer) CreatesCollection() bool {
	return ix.createByDef
}

// chunkRef ties one embedding back to the document and chunk it came from.
type chunkRef struct {
	DocIndex   int
	ChunkIndex int
	Embedding  embedding.Embedding
}

// Index embeds docs and writes every resulting chunk with a single batch
// insert. An empty docs slice still provisions the collection when
// auto-creation is enabled.
func (ix *Indexer) Index(ctx context.Context, docs []core.Document, opts *Options) (err error) {
	create := ix.createByDef
	if opts != nil && opts.CreateCollectionIfMissing != nil {
		create = *opts.CreateCollectionIfMissing
	}

	ctx, span := ix.tracer.Start(ctx, "indexer.Index",
		trace.WithAttributes(telemetry.IndexAttributes(ix.collection, len(docs), create)...))
	start := time.Now()
	defer func() {
		ix.metrics.RecordDuration(ctx, "indexer.index", start)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			ix.metrics.RecordError(ctx, "indexer.index", err)
		}
		span.End()
	}()

	// Without a configured vector size the collection is created after
	// embedding, sized from the first vector.
	collCfg := ix.collectionConfig(opts)
	if create && (len(docs) == 0 || collCfg.VectorSize > 0) {
		if err := ix.conn.CreateCollection(ctx, collCfg); err != nil {
			return err
		}
		create = false
	}
	if len(docs) == 0 {
		return nil
	}

	embeddings, err := ix.embedAll(ctx, docs)
	if err != nil {
		return err
	}
	refs := flatten(embeddings)
	if create {
		collCfg.VectorSize = len(refs[0].Embedding.Vector)
		if err := ix.conn.CreateCollection(ctx, collCfg); err != nil {
			return err
		}
	}
	objects, err := materialize(refs)
	if err != nil {
		return err
	}

	if _, err := ix.conn.InsertObjects(ctx, ix.collection, objects); err != nil {
		return err
	}
	span.SetAttributes(telemetry.StoreObjectsAttribute(len(objects)))
	ix.metrics.RecordIndex(ctx, ix.collection, len(docs), len(objects))
	ix.logger.DebugContext(ctx, "documents indexed", "documents", len(docs), "objects", len(objects))
	return nil
}

func (ix *Indexer) collectionConfig(opts *Options) store.CollectionConfig {
	var cfg store.CollectionConfig
	switch {
	case opts != nil && opts.CollectionConfig != nil:
		cfg = *opts.CollectionConfig
	case ix.collCfg != nil:
		cfg = *ix.collCfg
	}
	cfg.Name = ix.collection
	return cfg
}

// embedAll embeds every document concurrently. Results are stored by input
// index so the order of docs is kept.
func (ix *Indexer) embedAll(ctx context.Context, docs []core.Document) ([][]embedding.Embedding, error) {
	out := make([][]embedding.Embedding, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.concurrency)
	for i, doc := range docs {
		g.Go(func() error {
			embs, err := ix.embedder.Embed(gctx, doc, ix.embedderOpts)
			if err != nil {
				return errors.Embedding(fmt.Sprintf("embed document %d", i), err).
					WithContext("collection", ix.collection)
			}
			if len(embs) == 0 {
				return errors.Embedding(fmt.Sprintf("embedder returned no embeddings for document %d", i), nil).
					WithContext("collection", ix.collection)
			}
			out[i] = embs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// flatten lays the embeddings out in document order, then chunk order.
func flatten(embeddings [][]embedding.Embedding) []chunkRef {
	n := 0
	for _, embs := range embeddings {
		n += len(embs)
	}
	refs := make([]chunkRef, 0, n)
	for d, embs := range embeddings {
		for c, emb := range embs {
			refs = append(refs, chunkRef{DocIndex: d, ChunkIndex: c, Embedding: emb})
		}
	}
	return refs
}

func materialize(refs []chunkRef) ([]store.Object, error) {
	objects := make([]store.Object, len(refs))
	for i, ref := range refs {
		meta, err := encodeMetadata(ref.Embedding.Metadata)
		if err != nil {
			return nil, errors.Serialization("encode metadata", err).
				WithContext("document", ref.DocIndex).
				WithContext("chunk", ref.ChunkIndex)
		}
		objects[i] = store.Object{
			ID: uuid.NewString(),
			Properties: store.Properties{
				Content:     ref.Embedding.Data,
				ContentType: ref.Embedding.DataType,
				Metadata:    meta,
			},
			Vector: ref.Embedding.Vector,
		}
	}
	return objects, nil
}

func encodeMetadata(m map[string]any) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
