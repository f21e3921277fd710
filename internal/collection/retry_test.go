package collection

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:     3,
		InitialBackoff: 5 * time.Millisecond,
		MaxBackoff:     50 * time.Millisecond,
		BackoffFactor:  2.0,
	}
}

func TestRetrySucceedsFirstAttempt(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), fastPolicy(), func() error {
		attempts++
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts)
	}
}

func TestRetryRecoversFromTransientErrors(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), fastPolicy(), func() error {
		attempts++
		if attempts < 3 {
			return NewRetryableError(errors.New("scraper busy"))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetryGivesUpAfterMaxRetries(t *testing.T) {
	policy := fastPolicy()
	policy.MaxRetries = 2

	attempts := 0
	err := Retry(context.Background(), policy, func() error {
		attempts++
		return NewRetryableError(errors.New("still down"))
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts (initial + 2 retries), got %d", attempts)
	}
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), fastPolicy(), func() error {
		attempts++
		return errors.New("bad request")
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt for a permanent error, got %d", attempts)
	}
}

func TestRetryHonorsRetryAfterHint(t *testing.T) {
	policy := fastPolicy()
	policy.MaxRetries = 1

	attempts := 0
	start := time.Now()
	err := Retry(context.Background(), policy, func() error {
		attempts++
		if attempts == 1 {
			return NewRetryableErrorWithDelay(errors.New("rate limited"), 30*time.Millisecond)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("expected the hinted delay to be honored, slept only %v", elapsed)
	}
}

func TestRetryCancelledDuringBackoff(t *testing.T) {
	policy := fastPolicy()
	policy.InitialBackoff = 200 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	attempts := 0
	err := Retry(ctx, policy, func() error {
		attempts++
		return NewRetryableError(errors.New("slow"))
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt before cancellation, got %d", attempts)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"plain error", errors.New("plain"), false},
		{"retryable error", NewRetryableError(errors.New("retry")), true},
		{"retryable with delay", NewRetryableErrorWithDelay(errors.New("retry"), time.Second), true},
		{"wrapped retryable", errors.Join(errors.New("outer"), NewRetryableError(errors.New("inner"))), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.expected {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCalculateBackoffCapsAtMax(t *testing.T) {
	policy := RetryPolicy{
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     8 * time.Second,
		BackoffFactor:  2.0,
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 8 * time.Second},
	}

	for _, tt := range tests {
		if got := calculateBackoff(policy, tt.attempt); got != tt.expected {
			t.Errorf("attempt %d: expected %v, got %v", tt.attempt, tt.expected, got)
		}
	}
}

func TestWithRetry(t *testing.T) {
	attempts := 0
	fn := WithRetry(fastPolicy(), func(ctx context.Context) error {
		attempts++
		if attempts < 2 {
			return NewRetryableError(errors.New("retry"))
		}
		return nil
	})

	if err := fn(context.Background()); err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}
