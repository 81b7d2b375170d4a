// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package openai implements an embedder backed by the OpenAI embeddings API.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/jllopis/kairos-weaviate/pkg/core"
	"github.com/jllopis/kairos-weaviate/pkg/embedding"
)

// DefaultModel is the embedding model used when none is configured.
const DefaultModel = "text-embedding-3-small"

// Embedder implements embedding.Embedder for the OpenAI API.
type Embedder struct {
	client     openai.Client
	model      string
	dimensions int64
}

// Option configures the Embedder.
type Option func(*embedderConfig)

type embedderConfig struct {
	model      string
	dimensions int64
	reqOpts    []option.RequestOption
}

// WithModel sets the embedding model.
func WithModel(model string) Option {
	return func(c *embedderConfig) {
		if model != "" {
			c.model = model
		}
	}
}

// WithAPIKey sets the API key. OPENAI_API_KEY is used otherwise.
func WithAPIKey(apiKey string) Option {
	return func(c *embedderConfig) {
		if apiKey != "" {
			c.reqOpts = append(c.reqOpts, option.WithAPIKey(apiKey))
		}
	}
}

// WithBaseURL sets a custom base URL (Azure OpenAI, proxies, compatible servers).
func WithBaseURL(url string) Option {
	return func(c *embedderConfig) {
		if url != "" {
			c.reqOpts = append(c.reqOpts, option.WithBaseURL(url))
		}
	}
}

// WithDimensions requests shortened embeddings from models that support it.
func WithDimensions(dimensions int) Option {
	return func(c *embedderConfig) {
		if dimensions > 0 {
			c.dimensions = int64(dimensions)
		}
	}
}

// New creates a new OpenAI embedder.
func New(opts ...Option) *Embedder {
	cfg := embedderConfig{model: DefaultModel}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Embedder{
		client:     openai.NewClient(cfg.reqOpts...),
		model:      cfg.model,
		dimensions: cfg.dimensions,
	}
}

// Embed implements embedding.Embedder. The "model" option overrides the
// configured model for this call.
func (e *Embedder) Embed(ctx context.Context, doc core.Document, opts map[string]any) ([]embedding.Embedding, error) {
	vec, err := e.embed(ctx, embedding.StringOption(opts, "model", e.model), doc.Content)
	if err != nil {
		return nil, err
	}
	return []embedding.Embedding{embedding.FromDocument(doc, vec)}, nil
}

// EmbedText implements embedding.TextEmbedder.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return e.embed(ctx, e.model, text)
}

func (e *Embedder) embed(ctx context.Context, model, text string) ([]float32, error) {
	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model: openai.EmbeddingModel(model),
	}
	if e.dimensions > 0 {
		params.Dimensions = openai.Int(e.dimensions)
	}

	resp, err := e.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai embeddings request failed: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("openai returned no embeddings")
	}

	raw := resp.Data[0].Embedding
	vec := make([]float32, len(raw))
	for i, v := range raw {
		vec[i] = float32(v)
	}
	return vec, nil
}

var (
	_ embedding.Embedder     = (*Embedder)(nil)
	_ embedding.TextEmbedder = (*Embedder)(nil)
)
