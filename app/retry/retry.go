// Package retry provides a bounded retry executor with exponential backoff
// and explicit error classification.
package retry

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"
)

// Class is the retry decision for a single error.
type Class int

const (
	// ClassRetry schedules another attempt after backoff.
	ClassRetry Class = iota
	// ClassFailFast aborts immediately without consuming further attempts.
	ClassFailFast
	// ClassFatal propagates immediately; the error was not anticipated by
	// the classifier at all.
	ClassFatal
)

// ErrFailFast marks an error as non-retryable for the default classifier.
// Wrap with fmt.Errorf("...: %w", retry.ErrFailFast) or errors.Join.
var ErrFailFast = errors.New("non-retryable")

// Config controls retry behavior.
type Config struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	// Classify decides whether an error is retried, failed fast, or treated
	// as fatal. Nil falls back to ClassifyNetwork.
	Classify func(error) Class
}

// DefaultConfig matches the executor's documented defaults: three attempts
// with a 2 s initial delay doubling up to 30 s, retrying transient network
// errors only.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 2 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Classify:     ClassifyNetwork,
	}
}

// ClassifyNetwork retries timeout and connection errors, fails fast on
// ErrFailFast, and treats everything else as fatal.
func ClassifyNetwork(err error) Class {
	if err == nil {
		return ClassFatal
	}
	if errors.Is(err, ErrFailFast) {
		return ClassFailFast
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ClassRetry
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ClassRetry
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"timeout",
		"deadline exceeded",
		"connection refused",
		"connection reset",
		"no such host",
		"network is unreachable",
		"i/o timeout",
	} {
		if strings.Contains(msg, pattern) {
			return ClassRetry
		}
	}
	return ClassFatal
}

// Do executes fn until it succeeds, a non-retryable error occurs, or all
// attempts are exhausted. Exhaustion returns the last retryable error.
func Do[T any](ctx context.Context, cfg Config, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = time.Second
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 30 * time.Second
	}
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = 2.0
	}
	if cfg.Classify == nil {
		cfg.Classify = ClassifyNetwork
	}

	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}

		switch cfg.Classify(err) {
		case ClassRetry:
			lastErr = err
		default:
			return zero, err
		}

		if attempt < cfg.MaxAttempts {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * cfg.Multiplier)
			if delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
		}
	}

	return zero, lastErr
}
