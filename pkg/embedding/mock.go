// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"sync"

	"github.com/jllopis/kairos-weaviate/pkg/core"
)

// MockEmbedder is a deterministic testing embedder. Equal texts map to equal
// unit vectors.
type MockEmbedder struct {
	Dimensions int
	Err        error

	mu    sync.Mutex
	calls []core.Document
}

// Embed implements Embedder.
func (m *MockEmbedder) Embed(ctx context.Context, doc core.Document, _ map[string]any) ([]Embedding, error) {
	m.mu.Lock()
	m.calls = append(m.calls, doc)
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	vec, err := m.EmbedText(ctx, doc.Content)
	if err != nil {
		return nil, err
	}
	return []Embedding{FromDocument(doc, vec)}, nil
}

// EmbedText implements TextEmbedder.
func (m *MockEmbedder) EmbedText(_ context.Context, text string) ([]float32, error) {
	dims := m.Dimensions
	if dims <= 0 {
		dims = 8
	}
	vec := make([]float32, dims)
	var norm float64
	for i := range vec {
		h := fnv.New32a()
		_, _ = h.Write([]byte{byte(i)})
		_, _ = h.Write([]byte(text))
		v := float64(h.Sum32()%1000) + 1
		vec[i] = float32(v)
		norm += v * v
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec, nil
}

// Calls returns the documents embedded so far.
func (m *MockEmbedder) Calls() []core.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.Document, len(m.calls))
	copy(out, m.calls)
	return out
}
