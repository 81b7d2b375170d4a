// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/jllopis/kairos-weaviate/pkg/core"
	"github.com/jllopis/kairos-weaviate/pkg/embedding"
	"github.com/jllopis/kairos-weaviate/pkg/embedding/chunk"
	"github.com/jllopis/kairos-weaviate/pkg/embedding/ollama"
	"github.com/jllopis/kairos-weaviate/pkg/embedding/openai"
	"github.com/jllopis/kairos-weaviate/pkg/errors"
	"github.com/jllopis/kairos-weaviate/pkg/plugin"
	"github.com/jllopis/kairos-weaviate/pkg/resilience"
	"github.com/jllopis/kairos-weaviate/pkg/telemetry"
)

// NewEmbedder builds the embedder described by e.
func NewEmbedder(e EmbedderConfig) (embedding.Embedder, error) {
	emb, _, err := buildEmbedder(strings.ToLower(e.Provider), e)
	return emb, err
}

// buildEmbedder also returns the circuit breaker guarding the model backend,
// or nil when none is configured.
func buildEmbedder(name string, e EmbedderConfig) (embedding.Embedder, *resilience.CircuitBreaker, error) {
	var te embedding.TextEmbedder
	switch strings.ToLower(e.Provider) {
	case EmbedderOllama:
		te = ollama.NewEmbedder(e.BaseURL, e.Model)
	case EmbedderOpenAI:
		te = openai.New(
			openai.WithModel(e.Model),
			openai.WithAPIKey(e.APIKey),
			openai.WithBaseURL(e.BaseURL),
			openai.WithDimensions(e.Dimensions),
		)
	case EmbedderMock:
		te = &embedding.MockEmbedder{Dimensions: e.Dimensions}
	default:
		return nil, nil, errors.Misconfiguration("unknown embedder provider %q", e.Provider)
	}

	var breaker *resilience.CircuitBreaker
	if e.Retry.Enabled() || e.CircuitBreaker.Enabled() {
		r := resilientEmbedder(te, name, e)
		te, breaker = r, r.Breaker()
	}
	if e.ChunkSize > 0 {
		return chunk.New(te, chunk.Params{Size: e.ChunkSize, Overlap: e.ChunkOverlap}), breaker, nil
	}
	return embedding.Single(te), breaker, nil
}

func resilientEmbedder(te embedding.TextEmbedder, name string, e EmbedderConfig) *embedding.ResilientEmbedder {
	retry := e.Retry
	retry.IsRecoverable = resilience.Recoverable
	if retry.Multiplier == 0 {
		retry.Multiplier = 2
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = resilience.DefaultRetryConfig().InitialDelay
	}
	var breaker *resilience.CircuitBreaker
	if e.CircuitBreaker.Enabled() {
		bc := e.CircuitBreaker
		bc.Name = name
		breaker = resilience.NewCircuitBreaker(bc)
	}
	return embedding.NewResilient(te, retry, breaker)
}

// PluginConfig validates c and resolves it into a plugin configuration.
// Each named embedder is built once and shared by the collections using it.
func (c *Config) PluginConfig(logger *slog.Logger, metrics *telemetry.PipelineMetrics) (plugin.Config, error) {
	if err := c.Validate(); err != nil {
		return plugin.Config{}, err
	}
	built := make(map[string]embedding.Embedder)
	out := plugin.Config{
		ClientParams: c.ClientParams,
		Logger:       logger,
		Metrics:      metrics,
	}
	for _, coll := range c.Collections {
		emb, ok := built[coll.Embedder]
		if !ok {
			var (
				breaker *resilience.CircuitBreaker
				err     error
			)
			if emb, breaker, err = buildEmbedder(coll.Embedder, c.Embedders[coll.Embedder]); err != nil {
				return plugin.Config{}, err
			}
			built[coll.Embedder] = emb
			if breaker != nil {
				if out.HealthCheckers == nil {
					out.HealthCheckers = make(map[string]core.HealthChecker)
				}
				out.HealthCheckers["embedder/"+coll.Embedder] = breaker
			}
		}
		out.Collections = append(out.Collections, plugin.CollectionConfig{
			CollectionName:            strings.TrimSpace(coll.CollectionName),
			Embedder:                  emb,
			EmbedderOptions:           coll.EmbedderOptions,
			CreateCollectionIfMissing: coll.CreateCollectionIfMissing,
			CollectionConfig:          coll.CollectionConfig,
		})
	}
	return out, nil
}

// EmbedderNames lists the configured embedders, sorted.
func (c *Config) EmbedderNames() []string {
	names := make([]string, 0, len(c.Embedders))
	for name := range c.Embedders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
