// Package recovery guards multi-step batches (ingestion, graph rebuilds,
// rank recomputation) so that a panic or a transient store failure partway
// through doesn't leave the caller looking at a half-applied update.
package recovery

import (
	"fmt"
	"math"
	"time"

	"github.com/shelfindex/bookfts/internal/apperrors"
)

// RetryConfig holds configuration for retry operations.
type RetryConfig struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig returns a sensible default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		BaseDelay:     100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
	}
}

// Guard runs batch operations with panic containment and optional retry.
type Guard struct {
	retry RetryConfig
}

// NewGuard creates a Guard with the given retry configuration.
func NewGuard(cfg RetryConfig) *Guard {
	return &Guard{retry: cfg}
}

// Run executes fn, converting any panic raised inside it into a
// ConsistencyError instead of letting it unwind past the batch boundary.
// Use this around a single all-or-nothing ingest/graph/rank batch.
func (g *Guard) Run(op string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperrors.ConsistencyError(op, fmt.Sprintf("recovered panic mid-batch: %v", r), nil)
		}
	}()
	return fn()
}

// RunWithRetry runs fn under Run, retrying with exponential backoff on
// errors worth retrying (store failures). InvalidInput, NotFound,
// PreconditionFailed, and ConsistencyError are never retried since a
// repeat call would fail the same way.
func (g *Guard) RunWithRetry(op string, fn func() error) error {
	var lastErr error

	for attempt := 1; attempt <= g.retry.MaxAttempts; attempt++ {
		err := g.Run(op, fn)
		if err == nil {
			return nil
		}
		lastErr = err

		if !shouldRetry(err) {
			break
		}
		if attempt < g.retry.MaxAttempts {
			time.Sleep(g.calculateDelay(attempt))
		}
	}

	return lastErr
}

// shouldRetry reports whether err is worth a retry attempt.
func shouldRetry(err error) bool {
	switch {
	case apperrors.Is(err, apperrors.KindInvalidInput):
		return false
	case apperrors.Is(err, apperrors.KindNotFound):
		return false
	case apperrors.Is(err, apperrors.KindPreconditionFailed):
		return false
	case apperrors.Is(err, apperrors.KindConsistencyError):
		return false
	default:
		return true
	}
}

// calculateDelay computes the exponential backoff delay for the given
// attempt number, capped at MaxDelay.
func (g *Guard) calculateDelay(attempt int) time.Duration {
	delay := float64(g.retry.BaseDelay) * math.Pow(g.retry.BackoffFactor, float64(attempt-1))
	if delay > float64(g.retry.MaxDelay) {
		delay = float64(g.retry.MaxDelay)
	}
	return time.Duration(delay)
}
