package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"
)

// ErrPermanent marks a failure that WithBackoff must not retry.
var ErrPermanent = errors.New("permanent failure")

// Config holds exponential backoff configuration.
type Config struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// DefaultConfig returns a default retry configuration
func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
	}
}

// Policy is a bounded retry with a fixed pause between attempts.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	// Sleep waits between attempts. Nil means a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Sleep blocks for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Linear runs operation up to p.MaxAttempts times, pausing p.Delay between
// failed attempts. Attempts are numbered from 1. There is no pause after the
// final attempt.
func Linear(ctx context.Context, p Policy, operation func(ctx context.Context, attempt int) error) error {
	sleep := p.Sleep
	if sleep == nil {
		sleep = Sleep
	}
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = operation(ctx, attempt); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		if serr := sleep(ctx, p.Delay); serr != nil {
			return serr
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", attempts, err)
}

// WithBackoff executes a function with exponential backoff retry logic
func WithBackoff(ctx context.Context, config Config, operation func(context.Context) error) error {
	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		err := operation(ctx)
		if err == nil {
			return nil
		}

		if !isRetryableError(err) {
			return fmt.Errorf("non-retryable error: %w", err)
		}

		if attempt == config.MaxRetries {
			return fmt.Errorf("operation failed after %d attempts: %w", config.MaxRetries+1, err)
		}

		delay := config.BaseDelay * time.Duration(1<<attempt)
		if config.BaseDelay > 0 {
			delay += time.Duration(rand.Int63n(int64(config.BaseDelay)))
		}

		if err := Sleep(ctx, delay); err != nil {
			return err
		}
	}

	return nil
}

// isRetryableError determines if an error is worth retrying
func isRetryableError(err error) bool {
	if err == nil || errors.Is(err, ErrPermanent) {
		return false
	}

	errStr := strings.ToLower(err.Error())

	// Network-level errors are generally retryable
	if strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "temporary failure") ||
		strings.Contains(errStr, "network") {
		return true
	}

	// Only 5xx server errors and 429 rate limiting should be retried
	if strings.Contains(errStr, "status 5") ||
		strings.Contains(errStr, "status 429") {
		return true
	}

	if strings.Contains(errStr, "status 4") {
		return false
	}

	// Unknown error shapes are retried.
	return true
}

// HTTPStatusRetryable checks if an HTTP status code is retryable
func HTTPStatusRetryable(statusCode int) bool {
	return statusCode >= 500 || statusCode == http.StatusTooManyRequests
}
