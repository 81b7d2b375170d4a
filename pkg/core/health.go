// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// HealthStatus represents the health state of a component.
type HealthStatus string

const (
	// HealthHealthy indicates the component is fully operational.
	HealthHealthy HealthStatus = "HEALTHY"

	// HealthDegraded indicates the component works with reduced capacity.
	HealthDegraded HealthStatus = "DEGRADED"

	// HealthUnhealthy indicates the component is not operational.
	HealthUnhealthy HealthStatus = "UNHEALTHY"
)

// HealthResult represents the result of a health check.
type HealthResult struct {
	Status    HealthStatus `json:"status"`
	Component string       `json:"component"`
	Message   string       `json:"message,omitempty"`
	LastCheck time.Time    `json:"lastCheck"`
	Error     error        `json:"-"`
}

// HealthChecker checks the health of a component. Implementations should
// honour ctx so a check can be bounded by the caller.
type HealthChecker interface {
	Check(ctx context.Context) HealthResult
}

// HealthCheckFunc adapts a function to HealthChecker.
type HealthCheckFunc func(ctx context.Context) HealthResult

// Check calls f, stamping LastCheck when f leaves it unset.
func (f HealthCheckFunc) Check(ctx context.Context) HealthResult {
	result := f(ctx)
	if result.LastCheck.IsZero() {
		result.LastCheck = time.Now()
	}
	return result
}

// HealthChecks is a named set of health checkers.
type HealthChecks struct {
	mu       sync.RWMutex
	checkers map[string]HealthChecker
}

// NewHealthChecks returns an empty set.
func NewHealthChecks() *HealthChecks {
	return &HealthChecks{checkers: make(map[string]HealthChecker)}
}

// Register adds or replaces the checker for a component.
func (h *HealthChecks) Register(name string, checker HealthChecker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers[name] = checker
}

// Names lists the registered components, sorted.
func (h *HealthChecks) Names() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.checkers))
	for name := range h.checkers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Check runs the checker of one component.
func (h *HealthChecks) Check(ctx context.Context, name string) (HealthResult, error) {
	h.mu.RLock()
	checker, ok := h.checkers[name]
	h.mu.RUnlock()
	if !ok {
		return HealthResult{}, fmt.Errorf("health checker not registered: %s", name)
	}
	return runCheck(ctx, name, checker), nil
}

// CheckAll runs every checker in name order. The overall status is the worst
// individual status.
func (h *HealthChecks) CheckAll(ctx context.Context) ([]HealthResult, HealthStatus) {
	names := h.Names()
	results := make([]HealthResult, 0, len(names))
	overall := HealthHealthy
	for _, name := range names {
		h.mu.RLock()
		checker, ok := h.checkers[name]
		h.mu.RUnlock()
		if !ok {
			continue
		}
		result := runCheck(ctx, name, checker)
		results = append(results, result)
		overall = worse(overall, result.Status)
	}
	return results, overall
}

func runCheck(ctx context.Context, name string, checker HealthChecker) HealthResult {
	result := checker.Check(ctx)
	result.Component = name
	if result.LastCheck.IsZero() {
		result.LastCheck = time.Now()
	}
	return result
}

func worse(a, b HealthStatus) HealthStatus {
	rank := func(s HealthStatus) int {
		switch s {
		case HealthHealthy:
			return 0
		case HealthDegraded:
			return 1
		default:
			return 2
		}
	}
	if rank(b) > rank(a) {
		return b
	}
	return a
}
