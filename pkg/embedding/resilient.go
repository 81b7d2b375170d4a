// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package embedding

import (
	"context"

	"github.com/jllopis/kairos-weaviate/pkg/resilience"
)

// ResilientEmbedder retries failed model calls with backoff and, when a
// breaker is set, stops calling a backend that keeps failing.
type ResilientEmbedder struct {
	next    TextEmbedder
	retry   resilience.RetryConfig
	breaker *resilience.CircuitBreaker
}

// NewResilient wraps te. A nil breaker disables circuit breaking.
func NewResilient(te TextEmbedder, retry resilience.RetryConfig, breaker *resilience.CircuitBreaker) *ResilientEmbedder {
	return &ResilientEmbedder{next: te, retry: retry, breaker: breaker}
}

// EmbedText implements TextEmbedder. Each attempt passes through the breaker,
// so an opening circuit ends the retries.
func (r *ResilientEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return resilience.DoWithResult(ctx, r.retry, func() ([]float32, error) {
		if r.breaker == nil {
			return r.next.EmbedText(ctx, text)
		}
		var vec []float32
		err := r.breaker.Call(ctx, func() error {
			var err error
			vec, err = r.next.EmbedText(ctx, text)
			return err
		})
		return vec, err
	})
}

// Breaker returns the circuit breaker, or nil.
func (r *ResilientEmbedder) Breaker() *resilience.CircuitBreaker {
	return r.breaker
}
