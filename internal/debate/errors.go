package debate

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNoProvider means a persona has neither its own provider nor a
	// default provider to fall back on.
	ErrNoProvider = errors.New("debate: no provider configured")

	// ErrUnavailable means the provider's circuit breaker is open.
	ErrUnavailable = errors.New("debate: provider temporarily unavailable")

	// ErrAlreadyRunning means another session holds the chat's debate lock.
	ErrAlreadyRunning = errors.New("debate: session already running for chat")

	// ErrExhaustedRetries means the persona kept producing unusable
	// responses after corrective retries.
	ErrExhaustedRetries = errors.New("debate: persona produced no usable response")
)

// RateLimitError reports a provider's exhausted daily quota.
type RateLimitError struct {
	ProviderID string
	Limit      int
	ResetAt    time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("debate: provider %s daily limit of %d reached (resets %s)",
		e.ProviderID, e.Limit, e.ResetAt.UTC().Format(time.RFC3339))
}
