// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package embedding defines the embedder contract consumed by the indexing
// and retrieval pipelines.
package embedding

import (
	"context"

	"github.com/jllopis/kairos-weaviate/pkg/core"
)

// Embedding is one vector produced for a document, together with the view of
// the document it was computed from. Chunking embedders return one Embedding
// per chunk, in chunk order.
type Embedding struct {
	Vector   []float32
	Data     string
	DataType string
	Metadata map[string]any
}

// Embedder converts a document into one or more embeddings.
type Embedder interface {
	Embed(ctx context.Context, doc core.Document, opts map[string]any) ([]Embedding, error)
}

// Func adapts a plain function to the Embedder interface.
type Func func(ctx context.Context, doc core.Document, opts map[string]any) ([]Embedding, error)

// Embed calls f.
func (f Func) Embed(ctx context.Context, doc core.Document, opts map[string]any) ([]Embedding, error) {
	return f(ctx, doc, opts)
}

// TextEmbedder is the narrow capability most model backends offer: one text
// in, one vector out.
type TextEmbedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// Single wraps a TextEmbedder so every document yields exactly one embedding
// mirroring the document itself.
func Single(te TextEmbedder) Embedder {
	return Func(func(ctx context.Context, doc core.Document, _ map[string]any) ([]Embedding, error) {
		vec, err := te.EmbedText(ctx, doc.Content)
		if err != nil {
			return nil, err
		}
		return []Embedding{FromDocument(doc, vec)}, nil
	})
}

// FromDocument builds an Embedding that carries the whole document.
func FromDocument(doc core.Document, vec []float32) Embedding {
	return Embedding{
		Vector:   vec,
		Data:     doc.Content,
		DataType: doc.ContentType,
		Metadata: CloneMetadata(doc.Metadata),
	}
}

// CloneMetadata returns a shallow copy of m, or nil when m is nil.
func CloneMetadata(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// IntOption reads an integer embedder option, accepting the numeric types a
// JSON or YAML decoder may produce.
func IntOption(opts map[string]any, key string, def int) int {
	switch v := opts[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case float32:
		return int(v)
	case uint64:
		return int(v)
	default:
		return def
	}
}

// StringOption reads a string embedder option.
func StringOption(opts map[string]any, key, def string) string {
	if v, ok := opts[key].(string); ok && v != "" {
		return v
	}
	return def
}
