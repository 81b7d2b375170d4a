// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package plugin wires the shared store connection, the per-collection
// pipelines and the host action registry together.
package plugin

import (
	"log/slog"
	"strings"

	"github.com/jllopis/kairos-weaviate/pkg/core"
	"github.com/jllopis/kairos-weaviate/pkg/embedding"
	"github.com/jllopis/kairos-weaviate/pkg/errors"
	"github.com/jllopis/kairos-weaviate/pkg/indexer"
	"github.com/jllopis/kairos-weaviate/pkg/retriever"
	"github.com/jllopis/kairos-weaviate/pkg/store"
	"github.com/jllopis/kairos-weaviate/pkg/telemetry"
)

// ActionPrefix namespaces every action this plugin registers.
const ActionPrefix = "weaviate/"

// CollectionConfig binds one collection to its embedder.
type CollectionConfig struct {
	CollectionName            string
	Embedder                  embedding.Embedder
	EmbedderOptions           map[string]any
	CreateCollectionIfMissing *bool
	CollectionConfig          *store.CollectionConfig
}

// Config is the plugin configuration.
type Config struct {
	ClientParams store.ClientParams
	Collections  []CollectionConfig

	// Dialer overrides the transport selected by ClientParams.Provider.
	Dialer  store.Dialer
	Logger  *slog.Logger
	Metrics *telemetry.PipelineMetrics

	// HealthCheckers are reported next to the store and collection checks,
	// e.g. the circuit breakers of remote embedders.
	HealthCheckers map[string]core.HealthChecker
}

// Plugin owns one store connection shared by every collection.
type Plugin struct {
	conn       *store.Connection
	order      []string
	indexers   map[string]*indexer.Indexer
	retrievers map[string]*retriever.Retriever
	checkers   map[string]core.HealthChecker
	logger     *slog.Logger
}

// New validates cfg and builds the pipelines. No connection is made.
func New(cfg Config) (*Plugin, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	seen := make(map[string]bool, len(cfg.Collections))
	for i, c := range cfg.Collections {
		name := strings.TrimSpace(c.CollectionName)
		switch {
		case name == "":
			return nil, errors.Misconfiguration("collection %d: collectionName is required", i)
		case seen[name]:
			return nil, errors.Misconfiguration("collection %q is configured more than once", name)
		case c.Embedder == nil:
			return nil, errors.Misconfiguration("collection %q: embedder is required", name)
		}
		seen[name] = true
	}

	dial := cfg.Dialer
	if dial == nil {
		var err error
		if dial, err = DialerFor(cfg.ClientParams.Provider); err != nil {
			return nil, err
		}
	}
	params := cfg.ClientParams
	if params.Provider == "" {
		params.Provider = ProviderWeaviate
	}
	conn := store.NewConnection(params, dial, store.WithLogger(logger), store.WithMetrics(cfg.Metrics))

	p := &Plugin{
		conn:       conn,
		indexers:   make(map[string]*indexer.Indexer, len(cfg.Collections)),
		retrievers: make(map[string]*retriever.Retriever, len(cfg.Collections)),
		checkers:   cfg.HealthCheckers,
		logger:     telemetry.Component(logger, "plugin"),
	}
	for _, c := range cfg.Collections {
		name := strings.TrimSpace(c.CollectionName)
		ix, err := indexer.New(conn, indexer.Config{
			Collection:                name,
			Embedder:                  c.Embedder,
			EmbedderOptions:           c.EmbedderOptions,
			CreateCollectionIfMissing: c.CreateCollectionIfMissing,
			CollectionConfig:          c.CollectionConfig,
			Logger:                    logger,
			Metrics:                   cfg.Metrics,
		})
		if err != nil {
			return nil, err
		}
		rt, err := retriever.New(conn, retriever.Config{
			Collection:      name,
			Embedder:        c.Embedder,
			EmbedderOptions: c.EmbedderOptions,
			Logger:          logger,
			Metrics:         cfg.Metrics,
		})
		if err != nil {
			return nil, err
		}
		p.order = append(p.order, name)
		p.indexers[name] = ix
		p.retrievers[name] = rt
	}
	return p, nil
}

// Register publishes an indexer and a retriever action per collection.
func (p *Plugin) Register(reg *core.Registry) error {
	if reg == nil {
		return errors.Misconfiguration("registry is required")
	}
	for _, name := range p.order {
		if err := reg.Register(&indexAction{ix: p.indexers[name]}); err != nil {
			return err
		}
		if err := reg.Register(&retrieveAction{rt: p.retrievers[name]}); err != nil {
			return err
		}
		p.logger.Debug("registered collection actions", "collection", name, "action", ActionName(name))
	}
	return nil
}

// ActionName is the registry name used for a collection's actions.
func ActionName(collection string) string {
	return ActionPrefix + collection
}

// Collections returns the configured collection names in configuration order.
func (p *Plugin) Collections() []string {
	return append([]string(nil), p.order...)
}

// Indexer returns the indexer of a configured collection.
func (p *Plugin) Indexer(collection string) (*indexer.Indexer, bool) {
	ix, ok := p.indexers[collection]
	return ix, ok
}

// Retriever returns the retriever of a configured collection.
func (p *Plugin) Retriever(collection string) (*retriever.Retriever, bool) {
	rt, ok := p.retrievers[collection]
	return rt, ok
}

// Connection returns the shared store connection.
func (p *Plugin) Connection() *store.Connection {
	return p.conn
}

// Close releases the store connection.
func (p *Plugin) Close() {
	p.conn.Close()
}
