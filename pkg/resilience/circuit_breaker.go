// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package resilience

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/jllopis/kairos-weaviate/pkg/core"
	"github.com/jllopis/kairos-weaviate/pkg/errors"
)

// ErrCircuitOpen is the cause of every call rejected by an open breaker.
var ErrCircuitOpen = stderrors.New("circuit breaker open")

// CircuitBreakerState represents the state of a circuit breaker.
type CircuitBreakerState string

const (
	// StateClosed means the circuit breaker is working normally.
	StateClosed CircuitBreakerState = "closed"

	// StateOpen means the circuit breaker is blocking calls.
	StateOpen CircuitBreakerState = "open"

	// StateHalfOpen means the circuit breaker is testing if the backend recovered.
	StateHalfOpen CircuitBreakerState = "half-open"
)

// CircuitBreakerConfig configures a circuit breaker.
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of consecutive failures before opening.
	// Zero disables the breaker in configuration files.
	FailureThreshold int `koanf:"failure_threshold"`

	// SuccessThreshold is the number of successes in half-open before closing.
	SuccessThreshold int `koanf:"success_threshold"`

	// Timeout is how long the circuit stays open before probing.
	Timeout time.Duration `koanf:"timeout"`

	// Name identifies the breaker in errors and logs.
	Name string `koanf:"-"`
}

// Enabled reports whether the configuration asks for a breaker.
func (c CircuitBreakerConfig) Enabled() bool {
	return c.FailureThreshold > 0
}

// CircuitBreaker stops calling a failing backend until it has had time to
// recover. Calls run outside the lock, so concurrent callers are not
// serialized.
type CircuitBreaker struct {
	config       CircuitBreakerConfig
	state        CircuitBreakerState
	failures     int
	successes    int
	lastFailTime time.Time
	mu           sync.Mutex
}

// NewCircuitBreaker creates a new circuit breaker with the given config.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.FailureThreshold < 1 {
		config.FailureThreshold = 5
	}
	if config.SuccessThreshold < 1 {
		config.SuccessThreshold = 2
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.Name == "" {
		config.Name = "circuit_breaker"
	}

	return &CircuitBreaker{
		config: config,
		state:  StateClosed,
	}
}

// Call executes fn if the circuit allows it and records the outcome.
// Cancellation of ctx does not count as a backend failure.
func (cb *CircuitBreaker) Call(ctx context.Context, fn func() error) error {
	if !cb.allow() {
		return errors.New(errors.CodeInternal, "circuit breaker open", ErrCircuitOpen).
			WithContext("breaker", cb.config.Name)
	}

	err := fn()
	if err != nil && ctx.Err() != nil {
		return err
	}
	cb.record(err)
	return err
}

func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == StateOpen && time.Since(cb.lastFailTime) > cb.config.Timeout {
		cb.state = StateHalfOpen
		cb.successes = 0
		cb.failures = 0
	}
	return cb.state != StateOpen
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.failures++
		cb.lastFailTime = time.Now()
		// A failed probe reopens immediately.
		if cb.state == StateHalfOpen || cb.failures >= cb.config.FailureThreshold {
			cb.state = StateOpen
			cb.failures = 0
			cb.successes = 0
		}
		return
	}

	switch cb.state {
	case StateHalfOpen:
		cb.successes++
		if cb.successes >= cb.config.SuccessThreshold {
			cb.state = StateClosed
			cb.failures = 0
			cb.successes = 0
		}
	case StateClosed:
		cb.failures = 0
	}
}

// State returns the current circuit breaker state.
func (cb *CircuitBreaker) State() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Reset manually resets the circuit breaker to closed state.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = StateClosed
	cb.failures = 0
	cb.successes = 0
}

// Open manually forces the circuit breaker to open state.
func (cb *CircuitBreaker) Open() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = StateOpen
	cb.lastFailTime = time.Now()
}

// Check reports the breaker as a health result: closed is healthy, half-open
// degraded and open unhealthy.
func (cb *CircuitBreaker) Check(context.Context) core.HealthResult {
	switch state := cb.State(); state {
	case StateClosed:
		return core.HealthResult{Status: core.HealthHealthy, Message: "circuit closed"}
	case StateHalfOpen:
		return core.HealthResult{Status: core.HealthDegraded, Message: "circuit half-open, probing " + cb.config.Name}
	default:
		return core.HealthResult{Status: core.HealthUnhealthy, Message: "circuit open, calls to " + cb.config.Name + " are rejected", Error: ErrCircuitOpen}
	}
}
