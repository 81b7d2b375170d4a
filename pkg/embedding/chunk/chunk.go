// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package chunk provides an embedder that splits documents into overlapping
// windows and embeds every window separately.
package chunk

import (
	"context"
	"fmt"
	"unicode"

	"golang.org/x/sync/errgroup"

	"github.com/jllopis/kairos-weaviate/pkg/core"
	"github.com/jllopis/kairos-weaviate/pkg/embedding"
)

const (
	DefaultSize        = 1000
	DefaultOverlap     = 100
	DefaultConcurrency = 4

	// Option keys accepted through embedder options.
	OptionSize    = "chunkSize"
	OptionOverlap = "chunkOverlap"

	// Metadata keys added to every chunk.
	MetaChunkIndex = "chunkIndex"
	MetaChunkCount = "chunkCount"
)

// Params configures the chunking window. Sizes are measured in runes.
type Params struct {
	Size    int
	Overlap int
}

// Embedder chunks documents before handing each chunk to a TextEmbedder.
type Embedder struct {
	inner       embedding.TextEmbedder
	params      Params
	concurrency int
}

// New wraps inner. Zero params fall back to the defaults.
func New(inner embedding.TextEmbedder, params Params) *Embedder {
	if params.Size <= 0 {
		params.Size = DefaultSize
	}
	if params.Overlap < 0 {
		params.Overlap = 0
	}
	return &Embedder{inner: inner, params: params, concurrency: DefaultConcurrency}
}

// Embed implements embedding.Embedder. The returned embeddings follow the
// chunk order of the document.
func (e *Embedder) Embed(ctx context.Context, doc core.Document, opts map[string]any) ([]embedding.Embedding, error) {
	params := Params{
		Size:    embedding.IntOption(opts, OptionSize, e.params.Size),
		Overlap: embedding.IntOption(opts, OptionOverlap, e.params.Overlap),
	}
	chunks, err := Split(doc.Content, params)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		chunks = []string{doc.Content}
	}

	out := make([]embedding.Embedding, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, text := range chunks {
		g.Go(func() error {
			vec, err := e.inner.EmbedText(gctx, text)
			if err != nil {
				return fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
			}
			meta := embedding.CloneMetadata(doc.Metadata)
			if meta == nil {
				meta = make(map[string]any, 2)
			}
			meta[MetaChunkIndex] = i
			meta[MetaChunkCount] = len(chunks)
			out[i] = embedding.Embedding{
				Vector:   vec,
				Data:     text,
				DataType: doc.ContentType,
				Metadata: meta,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Split cuts content into windows of at most params.Size runes, each starting
// params.Overlap runes before the previous one ended. Window ends are pulled
// back to the last whitespace when one exists in the second half of the window.
func Split(content string, params Params) ([]string, error) {
	if params.Size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", params.Size)
	}
	if params.Overlap >= params.Size {
		return nil, fmt.Errorf("overlap (%d) must be less than size (%d)", params.Overlap, params.Size)
	}

	runes := []rune(content)
	if len(runes) == 0 {
		return nil, nil
	}
	if len(runes) <= params.Size {
		return []string{content}, nil
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + params.Size
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}
		for cut := end; cut > start+params.Size/2; cut-- {
			if unicode.IsSpace(runes[cut-1]) {
				end = cut
				break
			}
		}
		chunks = append(chunks, string(runes[start:end]))
		next := end - params.Overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks, nil
}

var _ embedding.Embedder = (*Embedder)(nil)
