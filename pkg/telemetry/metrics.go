// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jllopis/kairos-weaviate/pkg/errors"
)

// MeterName is the instrumentation scope used for pipeline metrics.
const MeterName = "kairos-weaviate/pipeline"

// PipelineMetrics tracks indexing, retrieval and connection activity.
// A nil *PipelineMetrics is valid and records nothing.
type PipelineMetrics struct {
	documentsIndexed   metric.Int64Counter
	objectsWritten     metric.Int64Counter
	retrievals         metric.Int64Counter
	resultsReturned    metric.Int64Counter
	connectionAttempts metric.Int64Counter
	errorCounter       metric.Int64Counter
	duration           metric.Float64Histogram
}

// NewPipelineMetrics creates the pipeline instruments on the global meter provider.
func NewPipelineMetrics() (*PipelineMetrics, error) {
	return NewPipelineMetricsWithMeter(otel.Meter(MeterName))
}

// NewPipelineMetricsWithMeter creates the pipeline instruments on meter.
func NewPipelineMetricsWithMeter(meter metric.Meter) (*PipelineMetrics, error) {
	documentsIndexed, err := meter.Int64Counter(
		"kairos.weaviate.documents.indexed",
		metric.WithDescription("Documents accepted by the indexer"),
	)
	if err != nil {
		return nil, err
	}

	objectsWritten, err := meter.Int64Counter(
		"kairos.weaviate.objects.written",
		metric.WithDescription("Store objects written, one per embedding chunk"),
	)
	if err != nil {
		return nil, err
	}

	retrievals, err := meter.Int64Counter(
		"kairos.weaviate.retrievals",
		metric.WithDescription("Retrieval calls by collection"),
	)
	if err != nil {
		return nil, err
	}

	resultsReturned, err := meter.Int64Counter(
		"kairos.weaviate.results.returned",
		metric.WithDescription("Documents returned by retrievals"),
	)
	if err != nil {
		return nil, err
	}

	connectionAttempts, err := meter.Int64Counter(
		"kairos.weaviate.connection.attempts",
		metric.WithDescription("Vector store dial attempts by outcome"),
	)
	if err != nil {
		return nil, err
	}

	errorCounter, err := meter.Int64Counter(
		"kairos.weaviate.errors.total",
		metric.WithDescription("Errors by code and operation"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"kairos.weaviate.operation.duration",
		metric.WithDescription("Operation duration"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		documentsIndexed:   documentsIndexed,
		objectsWritten:     objectsWritten,
		retrievals:         retrievals,
		resultsReturned:    resultsReturned,
		connectionAttempts: connectionAttempts,
		errorCounter:       errorCounter,
		duration:           duration,
	}, nil
}

// RecordIndex records a successful indexing call.
func (m *PipelineMetrics) RecordIndex(ctx context.Context, collection string, documents, objects int) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String(AttrStoreCollection, collection))
	m.documentsIndexed.Add(ctx, int64(documents), attrs)
	m.objectsWritten.Add(ctx, int64(objects), attrs)
}

// RecordRetrieve records a successful retrieval call.
func (m *PipelineMetrics) RecordRetrieve(ctx context.Context, collection string, results int) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String(AttrStoreCollection, collection))
	m.retrievals.Add(ctx, 1, attrs)
	m.resultsReturned.Add(ctx, int64(results), attrs)
}

// RecordConnection records the outcome of a dial attempt.
func (m *PipelineMetrics) RecordConnection(ctx context.Context, provider string, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.connectionAttempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrStoreProvider, provider),
		attribute.String("outcome", outcome),
	))
}

// RecordError increments the error counter using the error's code.
func (m *PipelineMetrics) RecordError(ctx context.Context, operation string, err error) {
	if m == nil || err == nil {
		return
	}
	m.errorCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrErrorCode, string(errors.CodeOf(err))),
		attribute.String(AttrStoreOperation, operation),
	))
}

// RecordDuration records how long an operation took since start.
func (m *PipelineMetrics) RecordDuration(ctx context.Context, operation string, start time.Time) {
	if m == nil {
		return
	}
	m.duration.Record(ctx, float64(time.Since(start).Microseconds())/1000.0,
		metric.WithAttributes(attribute.String(AttrStoreOperation, operation)),
	)
}
