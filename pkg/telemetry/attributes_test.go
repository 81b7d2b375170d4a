// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func attrMap(attrs []attribute.KeyValue) map[string]attribute.Value {
	out := make(map[string]attribute.Value, len(attrs))
	for _, kv := range attrs {
		out[string(kv.Key)] = kv.Value
	}
	return out
}

func TestStoreAttributes(t *testing.T) {
	m := attrMap(StoreAttributes("weaviate", "search", "Docs"))
	if m[AttrStoreProvider].AsString() != "weaviate" {
		t.Errorf("expected provider, got %v", m[AttrStoreProvider])
	}
	if m[AttrStoreCollection].AsString() != "Docs" {
		t.Errorf("expected collection, got %v", m[AttrStoreCollection])
	}

	m = attrMap(StoreAttributes("", "close", ""))
	if _, ok := m[AttrStoreProvider]; ok {
		t.Error("expected empty provider to be omitted")
	}
	if _, ok := m[AttrStoreCollection]; ok {
		t.Error("expected empty collection to be omitted")
	}
}

func TestSearchAttributes(t *testing.T) {
	m := attrMap(SearchAttributes(5, nil, false))
	if m[AttrSearchLimit].AsInt64() != 5 {
		t.Errorf("expected limit 5, got %v", m[AttrSearchLimit])
	}
	if _, ok := m[AttrSearchDistance]; ok {
		t.Error("expected distance to be omitted when unset")
	}

	d := float32(0.25)
	m = attrMap(SearchAttributes(5, &d, true))
	if m[AttrSearchDistance].AsFloat64() != 0.25 {
		t.Errorf("expected distance 0.25, got %v", m[AttrSearchDistance])
	}
	if !m[AttrSearchFiltered].AsBool() {
		t.Error("expected filtered to be true")
	}
}

func TestPipelineAttributes(t *testing.T) {
	m := attrMap(IndexAttributes("Docs", 3, true))
	if m[AttrPipeline].AsString() != "indexer" || m[AttrDocuments].AsInt64() != 3 {
		t.Errorf("unexpected index attributes: %v", m)
	}

	m = attrMap(RetrieveAttributes("Docs", 10, nil, false))
	if m[AttrPipeline].AsString() != "retriever" || m[AttrSearchLimit].AsInt64() != 10 {
		t.Errorf("unexpected retrieve attributes: %v", m)
	}
}
