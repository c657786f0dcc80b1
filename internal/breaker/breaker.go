// Package breaker implements a per-provider circuit breaker. A provider
// that keeps failing is cut off for a cooldown window, then probed with a
// limited number of calls before full traffic resumes.
//
// State is process-local. A horizontally scaled deployment would need to
// externalize this the same way the rate limiter already is.
package breaker

import (
	"log"
	"sync"
	"time"
)

// State of a single provider's circuit.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half-open"
)

// Defaults match the production tuning: five failures open the circuit,
// three probe successes close it, and an open circuit is retried after a
// minute.
const (
	DefaultFailureThreshold = 5
	DefaultSuccessThreshold = 3
	DefaultResetTimeout     = 60 * time.Second
)

// Config holds circuit breaker thresholds.
type Config struct {
	FailureThreshold int
	SuccessThreshold int
	ResetTimeout     time.Duration
}

type circuit struct {
	state       State
	failures    int
	successes   int
	lastFailure time.Time
}

// Registry tracks one circuit per provider ID. Safe for concurrent use by
// debate sessions sharing a provider.
type Registry struct {
	cfg Config
	now func() time.Time

	mu       sync.Mutex
	circuits map[string]*circuit
}

// NewRegistry creates a Registry, filling zero Config fields with defaults.
func NewRegistry(cfg Config) *Registry {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = DefaultFailureThreshold
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = DefaultSuccessThreshold
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = DefaultResetTimeout
	}
	return &Registry{
		cfg:      cfg,
		now:      time.Now,
		circuits: make(map[string]*circuit),
	}
}

// IsOpen reports whether calls to the provider should be rejected. When
// the reset timeout has elapsed on an open circuit, the circuit moves to
// half-open and IsOpen returns false; this lazy check is the only
// transition into half-open.
func (r *Registry) IsOpen(providerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.circuits[providerID]
	if !ok || c.state != StateOpen {
		return false
	}
	if r.now().Sub(c.lastFailure) >= r.cfg.ResetTimeout {
		c.state = StateHalfOpen
		c.successes = 0
		log.Printf("[breaker] provider %s half-open (probing)", providerID)
		return false
	}
	return true
}

// RecordSuccess notes a successful call. In half-open, enough consecutive
// successes close the circuit; in closed, the failure count resets so
// isolated transient failures never accumulate.
func (r *Registry) RecordSuccess(providerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.circuits[providerID]
	if !ok {
		return
	}
	switch c.state {
	case StateHalfOpen:
		c.successes++
		if c.successes >= r.cfg.SuccessThreshold {
			c.state = StateClosed
			c.failures = 0
			c.successes = 0
			log.Printf("[breaker] provider %s closed (recovered)", providerID)
		}
	case StateClosed:
		c.failures = 0
	}
}

// RecordFailure notes a failed call. Reaching the failure threshold opens
// a closed circuit; any failure while half-open reopens immediately.
func (r *Registry) RecordFailure(providerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.circuits[providerID]
	if !ok {
		c = &circuit{state: StateClosed}
		r.circuits[providerID] = c
	}

	c.failures++
	c.lastFailure = r.now()

	switch {
	case c.state == StateClosed && c.failures >= r.cfg.FailureThreshold:
		c.state = StateOpen
		log.Printf("[breaker] provider %s opened after %d failures", providerID, c.failures)
	case c.state == StateHalfOpen:
		c.state = StateOpen
		c.successes = 0
		log.Printf("[breaker] provider %s reopened (probe failed)", providerID)
	}
}

// State returns the provider's current circuit state.
func (r *Registry) State(providerID string) State {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.circuits[providerID]; ok {
		return c.state
	}
	return StateClosed
}

// Reset discards the provider's circuit entirely (operator action).
func (r *Registry) Reset(providerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.circuits, providerID)
}
