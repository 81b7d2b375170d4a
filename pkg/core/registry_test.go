// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"context"
	"encoding/json"
	"testing"
)

type stubAction struct {
	name string
	kind ActionKind
}

func (a stubAction) Name() string        { return a.name }
func (a stubAction) Kind() ActionKind    { return a.kind }
func (a stubAction) Description() string { return "stub" }
func (a stubAction) Call(context.Context, any) (any, error) {
	return a.name, nil
}

func TestRegistryRegisterAndLookup(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Register(stubAction{name: "weaviate/docs", kind: KindIndexer}); err != nil {
		t.Fatalf("register indexer: %v", err)
	}
	// Same name, different kind is allowed.
	if err := reg.Register(stubAction{name: "weaviate/docs", kind: KindRetriever}); err != nil {
		t.Fatalf("register retriever: %v", err)
	}
	if err := reg.Register(stubAction{name: "weaviate/docs", kind: KindIndexer}); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
	if err := reg.Register(stubAction{kind: KindIndexer}); err == nil {
		t.Fatal("expected empty name to fail")
	}
	if err := reg.Register(nil); err == nil {
		t.Fatal("expected nil action to fail")
	}

	action, ok := reg.Lookup(KindRetriever, "weaviate/docs")
	if !ok {
		t.Fatal("expected retriever to be found")
	}
	if action.Kind() != KindRetriever {
		t.Errorf("expected retriever kind, got %s", action.Kind())
	}
	if _, ok := reg.Lookup(KindRetriever, "weaviate/other"); ok {
		t.Error("expected unknown action lookup to fail")
	}
}

func TestRegistryActionsSorted(t *testing.T) {
	reg := NewRegistry()
	for _, a := range []stubAction{
		{name: "weaviate/zeta", kind: KindRetriever},
		{name: "weaviate/alpha", kind: KindRetriever},
		{name: "weaviate/zeta", kind: KindIndexer},
	} {
		if err := reg.Register(a); err != nil {
			t.Fatalf("register: %v", err)
		}
	}

	got := reg.Actions()
	want := []string{"indexer/weaviate/zeta", "retriever/weaviate/alpha", "retriever/weaviate/zeta"}
	if len(got) != len(want) {
		t.Fatalf("expected %d actions, got %d", len(want), len(got))
	}
	for i, a := range got {
		if key := registryKey(a.Kind(), a.Name()); key != want[i] {
			t.Errorf("action %d: expected %s, got %s", i, want[i], key)
		}
	}
}

func TestDecodeInput(t *testing.T) {
	type request struct {
		Query string `json:"query"`
		K     int    `json:"k"`
	}

	tests := []struct {
		name    string
		input   any
		want    request
		wantErr bool
	}{
		{name: "nil", input: nil, want: request{}},
		{name: "map", input: map[string]any{"query": "vector db", "k": 3}, want: request{Query: "vector db", K: 3}},
		{name: "raw json", input: json.RawMessage(`{"query":"a","k":1}`), want: request{Query: "a", K: 1}},
		{name: "bytes", input: []byte(`{"k":2}`), want: request{K: 2}},
		{name: "json string", input: ` {"query":"b"} `, want: request{Query: "b"}},
		{name: "plain string", input: "what is weaviate", want: request{Query: "what is weaviate"}},
		{name: "struct", input: request{Query: "c", K: 4}, want: request{Query: "c", K: 4}},
		{name: "invalid json bytes", input: []byte(`{`), wantErr: true},
		{name: "unsupported", input: make(chan int), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got request
			err := DecodeInput(tt.input, "query", &got)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestDecodeInputPlainStringWithoutFallback(t *testing.T) {
	var out map[string]any
	if err := DecodeInput("not json", "", &out); err == nil {
		t.Fatal("expected error without fallback key")
	}
}

func TestDocumentIsEmpty(t *testing.T) {
	if !(Document{Content: "  \n"}).IsEmpty() {
		t.Error("expected whitespace document to be empty")
	}
	doc := NewTextDocument("Weaviate is a vector database", map[string]any{"source": "docs"})
	if doc.IsEmpty() {
		t.Error("expected text document to be non-empty")
	}
	if doc.ContentType != "text/plain" {
		t.Errorf("expected text/plain, got %q", doc.ContentType)
	}
}
