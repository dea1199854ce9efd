// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package retry provides an exponential-backoff-with-jitter wrapper for
// operations that fail transiently: database connection resets, network
// timeouts, gateway 5xx responses. It wraps cenkalti/backoff/v4 behind a
// small, ckg-shaped Config so callers never touch the backoff.BackOff
// interface directly.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Config controls a Do call's retry behavior.
type Config struct {
	// MaxRetries is the number of retries after the first attempt. A
	// value of 0 means the operation runs exactly once.
	MaxRetries int

	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration

	// MaxDelay caps the delay between retries regardless of how many
	// attempts have elapsed.
	MaxDelay time.Duration

	// Multiplier is applied to the delay after every attempt.
	Multiplier float64

	// Jitter enables +/-25% randomization of each computed delay.
	Jitter bool

	// ShouldRetry decides whether a given error is transient. A nil
	// ShouldRetry treats every error as retryable.
	ShouldRetry func(error) bool
}

// DefaultConfig returns sane defaults: 3 retries, 200ms initial delay
// doubling up to 5s, with jitter enabled and every error retryable.
func DefaultConfig() Config {
	return Config{
		MaxRetries:   3,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
		ShouldRetry:  func(error) bool { return true },
	}
}

// Do executes op, retrying on transient errors per cfg. backoff.Retry
// unwraps backoff.Permanent itself, so the error returned here is always
// op's own error — never a backoff-internal wrapper.
func Do(ctx context.Context, op func() error, cfg Config) error {
	shouldRetry := cfg.ShouldRetry
	if shouldRetry == nil {
		shouldRetry = func(error) bool { return true }
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = cfg.InitialDelay
	eb.MaxInterval = cfg.MaxDelay
	eb.Multiplier = cfg.Multiplier
	if cfg.Jitter {
		eb.RandomizationFactor = 0.25
	} else {
		eb.RandomizationFactor = 0
	}
	eb.MaxElapsedTime = 0 // bounded by MaxRetries, not wall-clock

	boff := backoff.WithMaxRetries(eb, uint64(cfg.MaxRetries))
	boff = backoff.WithContext(boff, ctx)

	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if !shouldRetry(err) {
			return backoff.Permanent(err)
		}
		return err
	}, boff)
}

// Delay computes the delay before the given retry attempt (0-indexed)
// under cfg, without jitter. It is exposed for tests and callers that
// want to predict backoff timing; Do itself delegates to backoff/v4.
func Delay(attempt int, cfg Config) time.Duration {
	d := float64(cfg.InitialDelay)
	for i := 0; i < attempt; i++ {
		d *= cfg.Multiplier
	}
	if d > float64(cfg.MaxDelay) {
		d = float64(cfg.MaxDelay)
	}
	return time.Duration(d)
}
