// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package indexer

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"math"
	"testing"
	"time"

	"github.com/jllopis/kairos-weaviate/pkg/core"
	"github.com/jllopis/kairos-weaviate/pkg/embedding"
	"github.com/jllopis/kairos-weaviate/pkg/errors"
	"github.com/jllopis/kairos-weaviate/pkg/store"
	"github.com/jllopis/kairos-weaviate/pkg/store/memory"
)

func boolPtr(b bool) *bool { return &b }

func newIndexer(t *testing.T, s *memory.Store, emb embedding.Embedder, create *bool) (*Indexer, *store.Connection) {
	t.Helper()
	conn := store.NewConnection(store.ClientParams{Provider: "memory", Timeout: time.Second}, s.Dialer())
	t.Cleanup(conn.Close)
	ix, err := New(conn, Config{Collection: "Docs", Embedder: emb, CreateCollectionIfMissing: create})
	if err != nil {
		t.Fatalf("new indexer: %v", err)
	}
	return ix, conn
}

func TestIndexSingleDocumentIntoFreshCollection(t *testing.T) {
	s := memory.New()
	ix, conn := newIndexer(t, s, &embedding.MockEmbedder{}, boolPtr(true))
	ctx := context.Background()

	doc := core.NewTextDocument("Weaviate is a vector database", map[string]any{"source": "docs"})
	if err := ix.Index(ctx, []core.Document{doc}, nil); err != nil {
		t.Fatalf("index failed: %v", err)
	}

	if !conn.CollectionExists(ctx, "Docs") {
		t.Fatal("expected collection to exist")
	}
	objs := s.Objects("Docs")
	if len(objs) != 1 {
		t.Fatalf("expected 1 object, got %d", len(objs))
	}
	obj := objs[0]
	if obj.ID == "" {
		t.Error("expected an object id")
	}
	if obj.Properties.Content != doc.Content || obj.Properties.ContentType != "text/plain" {
		t.Errorf("unexpected properties %+v", obj.Properties)
	}
	var meta map[string]any
	if err := json.Unmarshal([]byte(obj.Properties.Metadata), &meta); err != nil || meta["source"] != "docs" {
		t.Errorf("unexpected metadata %q (%v)", obj.Properties.Metadata, err)
	}
	if len(obj.Vector) != 8 {
		t.Errorf("expected the embedding vector, got %v", obj.Vector)
	}
}

func TestIndexIntoExistingCollectionSkipsCreate(t *testing.T) {
	s := memory.New()
	ix, conn := newIndexer(t, s, &embedding.MockEmbedder{}, nil)
	ctx := context.Background()
	if err := conn.CreateCollection(ctx, store.CollectionConfig{Name: "Docs"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	s.Fail = map[string]error{"create": stderrors.New("create must not be called")}

	docs := []core.Document{core.NewTextDocument("one", nil), core.NewTextDocument("two", nil)}
	if err := ix.Index(ctx, docs, &Options{CreateCollectionIfMissing: boolPtr(false)}); err != nil {
		t.Fatalf("index failed: %v", err)
	}
	if s.Creates() != 1 {
		t.Errorf("expected no further creates, got %d", s.Creates())
	}
	objs := s.Objects("Docs")
	if len(objs) != 2 || objs[0].Properties.Content != "one" || objs[1].Properties.Content != "two" {
		t.Errorf("expected two objects in input order, got %+v", objs)
	}
	if s.Inserts() != 1 {
		t.Errorf("expected a single batch insert, got %d", s.Inserts())
	}
}

func TestIndexPreservesChunkOrder(t *testing.T) {
	chunked := embedding.Func(func(_ context.Context, doc core.Document, _ map[string]any) ([]embedding.Embedding, error) {
		if doc.Content == "slow" {
			time.Sleep(10 * time.Millisecond)
		}
		out := make([]embedding.Embedding, 3)
		for i := range out {
			out[i] = embedding.Embedding{
				Vector:   []float32{1, float32(i)},
				Data:     doc.Content + "-c" + string(rune('0'+i)),
				Metadata: map[string]any{"chunk": i},
			}
		}
		return out, nil
	})
	s := memory.New()
	ix, _ := newIndexer(t, s, chunked, nil)

	docs := []core.Document{{Content: "slow"}, {Content: "fast"}}
	if err := ix.Index(context.Background(), docs, nil); err != nil {
		t.Fatalf("index failed: %v", err)
	}
	want := []string{"slow-c0", "slow-c1", "slow-c2", "fast-c0", "fast-c1", "fast-c2"}
	objs := s.Objects("Docs")
	if len(objs) != len(want) {
		t.Fatalf("expected %d objects, got %d", len(want), len(objs))
	}
	for i, obj := range objs {
		if obj.Properties.Content != want[i] {
			t.Errorf("object %d: expected %s, got %s", i, want[i], obj.Properties.Content)
		}
		if obj.Properties.ContentType != "" {
			t.Errorf("expected empty content type, got %q", obj.Properties.ContentType)
		}
	}
}

func TestIndexEmptyDocuments(t *testing.T) {
	s := memory.New()
	ix, conn := newIndexer(t, s, &embedding.MockEmbedder{}, nil)
	ctx := context.Background()

	if err := ix.Index(ctx, nil, nil); err != nil {
		t.Fatalf("index failed: %v", err)
	}
	if !conn.CollectionExists(ctx, "Docs") {
		t.Error("expected the collection to be provisioned")
	}
	if s.Inserts() != 0 {
		t.Errorf("expected no insert, got %d", s.Inserts())
	}

	s2 := memory.New()
	ix2, _ := newIndexer(t, s2, &embedding.MockEmbedder{}, boolPtr(false))
	if err := ix2.Index(ctx, []core.Document{}, nil); err != nil {
		t.Fatalf("index failed: %v", err)
	}
	if s2.Dials() != 0 {
		t.Errorf("expected no store traffic, got %d dials", s2.Dials())
	}
}

func TestIndexMetadataDefaultsToEmptyObject(t *testing.T) {
	s := memory.New()
	ix, _ := newIndexer(t, s, &embedding.MockEmbedder{}, nil)
	if err := ix.Index(context.Background(), []core.Document{{Content: "bare"}}, nil); err != nil {
		t.Fatalf("index failed: %v", err)
	}
	if got := s.Objects("Docs")[0].Properties.Metadata; got != "{}" {
		t.Errorf("expected {}, got %q", got)
	}
}

func TestIndexUsesCollectionConfigFromOptions(t *testing.T) {
	s := memory.New()
	ix, conn := newIndexer(t, s, &embedding.MockEmbedder{}, nil)
	ctx := context.Background()
	opts := &Options{CollectionConfig: &store.CollectionConfig{Name: "ignored", Description: "team docs"}}
	if err := ix.Index(ctx, nil, opts); err != nil {
		t.Fatalf("index failed: %v", err)
	}
	info, err := conn.GetCollection(ctx, "Docs")
	if err != nil {
		t.Fatalf("get collection: %v", err)
	}
	if info.Description != "team docs" {
		t.Errorf("expected description to be applied, got %q", info.Description)
	}
}

func TestIndexSizesNewCollectionFromVectors(t *testing.T) {
	s := memory.New()
	ix, conn := newIndexer(t, s, &embedding.MockEmbedder{Dimensions: 4}, nil)
	ctx := context.Background()

	if err := ix.Index(ctx, []core.Document{{Content: "sized"}}, nil); err != nil {
		t.Fatalf("index failed: %v", err)
	}
	if s.Creates() != 1 {
		t.Fatalf("expected one create, got %d", s.Creates())
	}
	_, err := conn.InsertObjects(ctx, "Docs", []store.Object{{Vector: []float32{1, 2}}})
	if !errors.HasCode(err, errors.CodeStoreOperation) {
		t.Errorf("expected the collection to be sized to 4 dimensions, got %v", err)
	}
}

func TestIndexCreateOrder(t *testing.T) {
	failing := &embedding.MockEmbedder{Err: stderrors.New("model not loaded")}
	tests := []struct {
		name        string
		opts        *Options
		wantCreates int64
	}{
		{name: "unsized collection waits for vectors", wantCreates: 0},
		{
			name:        "sized collection is created first",
			opts:        &Options{CollectionConfig: &store.CollectionConfig{VectorSize: 8}},
			wantCreates: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := memory.New()
			ix, _ := newIndexer(t, s, failing, nil)
			err := ix.Index(context.Background(), []core.Document{{Content: "x"}}, tt.opts)
			if !errors.HasCode(err, errors.CodeEmbedding) {
				t.Fatalf("expected embedding error, got %v", err)
			}
			if s.Creates() != tt.wantCreates {
				t.Errorf("expected %d creates, got %d", tt.wantCreates, s.Creates())
			}
		})
	}
}

func TestIndexErrors(t *testing.T) {
	tests := []struct {
		name     string
		embedder embedding.Embedder
		fail     map[string]error
		code     errors.ErrorCode
	}{
		{
			name:     "embedder failure",
			embedder: &embedding.MockEmbedder{Err: stderrors.New("model not loaded")},
			code:     errors.CodeEmbedding,
		},
		{
			name: "no embeddings",
			embedder: embedding.Func(func(context.Context, core.Document, map[string]any) ([]embedding.Embedding, error) {
				return nil, nil
			}),
			code: errors.CodeEmbedding,
		},
		{
			name: "unencodable metadata",
			embedder: embedding.Func(func(_ context.Context, doc core.Document, _ map[string]any) ([]embedding.Embedding, error) {
				return []embedding.Embedding{{Vector: []float32{1}, Data: doc.Content, Metadata: map[string]any{"bad": math.Inf(1)}}}, nil
			}),
			code: errors.CodeSerialization,
		},
		{
			name:     "insert failure",
			embedder: &embedding.MockEmbedder{},
			fail:     map[string]error{"insert": stderrors.New("disk full")},
			code:     errors.CodeStoreOperation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := memory.New()
			ix, _ := newIndexer(t, s, tt.embedder, nil)
			s.Fail = tt.fail
			err := ix.Index(context.Background(), []core.Document{{Content: "x"}}, nil)
			if !errors.HasCode(err, tt.code) {
				t.Fatalf("expected %s, got %v", tt.code, err)
			}
			if len(s.Objects("Docs")) != 0 {
				t.Error("expected nothing to be written")
			}
		})
	}
}

func TestNewValidation(t *testing.T) {
	conn := store.NewConnection(store.ClientParams{}, memory.New().Dialer())
	defer conn.Close()

	if _, err := New(conn, Config{Collection: "Docs"}); !errors.HasCode(err, errors.CodeMisconfiguration) {
		t.Errorf("expected misconfiguration for missing embedder, got %v", err)
	}
	if _, err := New(conn, Config{Embedder: &embedding.MockEmbedder{}}); !errors.HasCode(err, errors.CodeMisconfiguration) {
		t.Errorf("expected misconfiguration for missing name, got %v", err)
	}
	if _, err := New(nil, Config{Collection: "Docs", Embedder: &embedding.MockEmbedder{}}); err == nil {
		t.Error("expected an error without connection")
	}
}

func TestFlatten(t *testing.T) {
	refs := flatten([][]embedding.Embedding{
		{{Data: "a0"}, {Data: "a1"}},
		{{Data: "b0"}},
	})
	want := []chunkRef{{0, 0, embedding.Embedding{Data: "a0"}}, {0, 1, embedding.Embedding{Data: "a1"}}, {1, 0, embedding.Embedding{Data: "b0"}}}
	if len(refs) != len(want) {
		t.Fatalf("expected %d refs, got %d", len(want), len(refs))
	}
	for i := range want {
		if refs[i].DocIndex != want[i].DocIndex || refs[i].ChunkIndex != want[i].ChunkIndex || refs[i].Embedding.Data != want[i].Embedding.Data {
			t.Errorf("ref %d: expected %+v, got %+v", i, want[i], refs[i])
		}
	}
}
