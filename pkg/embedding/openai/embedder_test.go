// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jllopis/kairos-weaviate/pkg/core"
)

func TestNewDefaults(t *testing.T) {
	e := New(WithAPIKey("test-key"))
	if e.model != DefaultModel {
		t.Errorf("expected model %s, got %s", DefaultModel, e.model)
	}
	e = New(WithAPIKey("test-key"), WithModel("text-embedding-3-large"), WithDimensions(256))
	if e.model != "text-embedding-3-large" {
		t.Errorf("expected model override, got %s", e.model)
	}
	if e.dimensions != 256 {
		t.Errorf("expected dimensions 256, got %d", e.dimensions)
	}
}

func TestEmbedAgainstCompatibleServer(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","model":"text-embedding-3-small",` +
			`"data":[{"object":"embedding","index":0,"embedding":[0.25,0.5,0.75]}],` +
			`"usage":{"prompt_tokens":3,"total_tokens":3}}`))
	}))
	defer srv.Close()

	e := New(WithAPIKey("test-key"), WithBaseURL(srv.URL+"/"))
	doc := core.Document{Content: "Weaviate is a vector database", Metadata: map[string]any{"source": "docs"}}
	out, err := e.Embed(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("embed failed: %v", err)
	}

	if body["input"] != doc.Content {
		t.Errorf("expected input %q, got %v", doc.Content, body["input"])
	}
	if body["model"] != DefaultModel {
		t.Errorf("expected model %s, got %v", DefaultModel, body["model"])
	}
	if len(out) != 1 || len(out[0].Vector) != 3 || out[0].Vector[2] != 0.75 {
		t.Fatalf("unexpected embeddings %+v", out)
	}
	if out[0].Metadata["source"] != "docs" {
		t.Errorf("expected metadata to be carried, got %v", out[0].Metadata)
	}
}

func TestEmbedEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[],"model":"m","usage":{"prompt_tokens":0,"total_tokens":0}}`))
	}))
	defer srv.Close()

	e := New(WithAPIKey("test-key"), WithBaseURL(srv.URL+"/"))
	if _, err := e.EmbedText(context.Background(), "x"); err == nil {
		t.Fatal("expected error for empty response")
	}
}
