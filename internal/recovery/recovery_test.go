package recovery

import (
	"errors"
	"testing"
	"time"

	"github.com/shelfindex/bookfts/internal/apperrors"
)

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()

	if config.MaxAttempts != 3 {
		t.Errorf("Expected MaxAttempts to be 3, got %d", config.MaxAttempts)
	}
	if config.BaseDelay != 100*time.Millisecond {
		t.Errorf("Expected BaseDelay to be 100ms, got %v", config.BaseDelay)
	}
	if config.BackoffFactor != 2.0 {
		t.Errorf("Expected BackoffFactor to be 2.0, got %f", config.BackoffFactor)
	}
}

func TestCalculateDelay(t *testing.T) {
	g := NewGuard(DefaultRetryConfig())

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{10, 5 * time.Second}, // capped at MaxDelay
	}

	for _, tt := range tests {
		if got := g.calculateDelay(tt.attempt); got != tt.want {
			t.Errorf("calculateDelay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"invalid input", apperrors.InvalidInput("op", "bad"), false},
		{"not found", apperrors.NotFound("op", "missing"), false},
		{"precondition failed", apperrors.PreconditionFailed("op", "empty graph"), false},
		{"consistency error", apperrors.ConsistencyError("op", "corrupt", nil), false},
		{"store failure", apperrors.StoreFailure("op", "disk error", errors.New("io")), true},
		{"generic error", errors.New("generic error"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldRetry(tt.err); got != tt.want {
				t.Errorf("shouldRetry(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestGuardRunRecoversPanic(t *testing.T) {
	g := NewGuard(DefaultRetryConfig())

	err := g.Run("rebuildGraph", func() error {
		panic("torn batch")
	})

	if !apperrors.Is(err, apperrors.KindConsistencyError) {
		t.Fatalf("expected ConsistencyError from recovered panic, got %v", err)
	}
}

func TestGuardRunPropagatesOrdinaryError(t *testing.T) {
	g := NewGuard(DefaultRetryConfig())
	want := apperrors.StoreFailure("insertPostings", "write failed", errors.New("disk full"))

	err := g.Run("insertPostings", func() error { return want })
	if err != want {
		t.Errorf("expected Run to pass through the original error, got %v", err)
	}
}

func TestGuardRunWithRetryStopsOnNonRetryableError(t *testing.T) {
	g := NewGuard(RetryConfig{MaxAttempts: 5, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffFactor: 1})

	attempts := 0
	err := g.RunWithRetry("indexBook", func() error {
		attempts++
		return apperrors.InvalidInput("indexBook", "empty title")
	})

	if attempts != 1 {
		t.Errorf("expected exactly 1 attempt for a non-retryable error, got %d", attempts)
	}
	if !apperrors.Is(err, apperrors.KindInvalidInput) {
		t.Errorf("expected the InvalidInput error to surface, got %v", err)
	}
}

func TestGuardRunWithRetrySucceedsAfterTransientFailures(t *testing.T) {
	g := NewGuard(RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffFactor: 1})

	attempts := 0
	err := g.RunWithRetry("rebuildGraph", func() error {
		attempts++
		if attempts < 2 {
			return apperrors.StoreFailure("rebuildGraph", "transient", errors.New("timeout"))
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}
