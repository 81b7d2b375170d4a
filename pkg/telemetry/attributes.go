// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package telemetry provides OpenTelemetry integration for the vector store
// pipelines: span attributes, pipeline metrics and trace-aware logging.
package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Semantic conventions for plugin telemetry.
// These follow OpenTelemetry naming conventions where applicable.
const (
	// Store attributes
	AttrStoreProvider   = "db.system"
	AttrStoreOperation  = "db.operation.name"
	AttrStoreCollection = "db.collection.name"
	AttrStoreObjects    = "kairos.store.objects"
	AttrStoreIDs        = "kairos.store.ids"

	// Search attributes
	AttrSearchLimit    = "kairos.search.limit"
	AttrSearchDistance = "kairos.search.distance"
	AttrSearchFiltered = "kairos.search.filtered"
	AttrSearchResults  = "kairos.search.results"

	// Pipeline attributes
	AttrPipeline       = "kairos.pipeline"
	AttrDocuments      = "kairos.pipeline.documents"
	AttrChunks         = "kairos.pipeline.chunks"
	AttrCreateIfAbsent = "kairos.pipeline.create_collection"

	// Error attributes
	AttrErrorCode = "error.code"
)

// StoreAttributes returns common attributes for store operation spans.
func StoreAttributes(provider, operation, collection string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrStoreOperation, operation),
	}
	if provider != "" {
		attrs = append(attrs, attribute.String(AttrStoreProvider, provider))
	}
	if collection != "" {
		attrs = append(attrs, attribute.String(AttrStoreCollection, collection))
	}
	return attrs
}

// SearchAttributes returns attributes describing a nearest-neighbour query.
func SearchAttributes(limit int, distance *float32, filtered bool) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.Int(AttrSearchLimit, limit),
		attribute.Bool(AttrSearchFiltered, filtered),
	}
	if distance != nil {
		attrs = append(attrs, attribute.Float64(AttrSearchDistance, float64(*distance)))
	}
	return attrs
}

// IndexAttributes returns attributes for an indexing span.
func IndexAttributes(collection string, documents int, createIfMissing bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrPipeline, "indexer"),
		attribute.String(AttrStoreCollection, collection),
		attribute.Int(AttrDocuments, documents),
		attribute.Bool(AttrCreateIfAbsent, createIfMissing),
	}
}

// RetrieveAttributes returns attributes for a retrieval span.
func RetrieveAttributes(collection string, k int, distance *float32, filtered bool) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrPipeline, "retriever"),
		attribute.String(AttrStoreCollection, collection),
	}
	return append(attrs, SearchAttributes(k, distance, filtered)...)
}

// StoreObjectsAttribute records the size of a write batch.
func StoreObjectsAttribute(n int) attribute.KeyValue {
	return attribute.Int(AttrStoreObjects, n)
}

// StoreIDsAttribute records how many ids a delete targets.
func StoreIDsAttribute(n int) attribute.KeyValue {
	return attribute.Int(AttrStoreIDs, n)
}

// SearchResultsAttribute records how many hits a search returned.
func SearchResultsAttribute(n int) attribute.KeyValue {
	return attribute.Int(AttrSearchResults, n)
}
