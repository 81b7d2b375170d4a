// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	pe := New(CodeConnection, "vector store connection failed", cause)

	if pe.Code != CodeConnection {
		t.Errorf("expected CodeConnection, got %v", pe.Code)
	}
	if pe.Err != cause {
		t.Errorf("expected cause to be preserved")
	}
	if !errors.Is(pe, cause) {
		t.Errorf("expected errors.Is to work with wrapped error")
	}
}

func TestError(t *testing.T) {
	tests := []struct {
		name     string
		pe       *PluginError
		expected string
	}{
		{
			name:     "with cause",
			pe:       New(CodeEmbedding, "embed query", errors.New("model not loaded")),
			expected: "[EMBEDDING_ERROR] embed query: model not loaded",
		},
		{
			name:     "without cause",
			pe:       Misconfiguration("collection %q has no embedder", "docs"),
			expected: `[MISCONFIGURATION] collection "docs" has no embedder`,
		},
		{
			name:     "store operation",
			pe:       StoreOperation("insert objects", "Docs", errors.New("boom")),
			expected: `[STORE_ERROR] insert objects "Docs": boom`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pe.Error(); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestWithContext(t *testing.T) {
	pe := StoreOperation("search", "Docs", nil)
	pe.WithContext("limit", 5)

	if pe.Context["operation"] != "search" {
		t.Errorf("expected operation context, got %v", pe.Context["operation"])
	}
	if pe.Context["collection"] != "Docs" {
		t.Errorf("expected collection context, got %v", pe.Context["collection"])
	}
	if pe.Context["limit"] != 5 {
		t.Errorf("expected limit context, got %v", pe.Context["limit"])
	}

	var zero PluginError
	zero.WithContext("k", "v")
	if zero.Context["k"] != "v" {
		t.Errorf("expected context map to be allocated lazily")
	}
}

func TestHasCode(t *testing.T) {
	cause := errors.New("timeout")
	inner := StoreOperation("search", "Docs", cause)
	outer := fmt.Errorf("retriever: %w", inner)
	nested := New(CodeInternal, "action failed", inner)

	tests := []struct {
		name string
		err  error
		code ErrorCode
		want bool
	}{
		{"nil", nil, CodeStoreOperation, false},
		{"plain error", cause, CodeStoreOperation, false},
		{"direct", inner, CodeStoreOperation, true},
		{"fmt wrapped", outer, CodeStoreOperation, true},
		{"nested plugin errors", nested, CodeStoreOperation, true},
		{"nested outer code", nested, CodeInternal, true},
		{"other code", inner, CodeEmbedding, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasCode(tt.err, tt.code); got != tt.want {
				t.Errorf("HasCode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAsPluginError(t *testing.T) {
	if AsPluginError(nil) != nil {
		t.Fatal("expected nil for nil error")
	}

	pe := Connection(errors.New("refused"))
	if got := AsPluginError(fmt.Errorf("wrapped: %w", pe)); got != pe {
		t.Errorf("expected wrapped PluginError to be returned as-is")
	}

	generic := AsPluginError(errors.New("generic"))
	if generic.Code != CodeInternal {
		t.Errorf("expected CodeInternal, got %v", generic.Code)
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(errors.New("plain")); got != CodeInternal {
		t.Errorf("expected CodeInternal, got %v", got)
	}
	if got := CodeOf(Embedding("embed", nil)); got != CodeEmbedding {
		t.Errorf("expected CodeEmbedding, got %v", got)
	}
}

func TestMarshalJSON(t *testing.T) {
	pe := StoreOperation("create collection", "Docs", errors.New("403 forbidden"))

	data, err := json.Marshal(pe)
	if err != nil {
		t.Fatalf("unexpected error marshaling: %v", err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("unexpected error unmarshaling: %v", err)
	}

	if result["code"] != "STORE_ERROR" {
		t.Errorf("expected code 'STORE_ERROR', got %v", result["code"])
	}
	if result["error"] != "403 forbidden" {
		t.Errorf("expected cause in error field, got %v", result["error"])
	}
	ctx, ok := result["context"].(map[string]interface{})
	if !ok || ctx["collection"] != "Docs" {
		t.Errorf("expected collection in context, got %v", result["context"])
	}
}
