// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	ckgerrors "github.com/kraklabs/ckg/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_SucceedsFirstTry(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		return nil
	}, DefaultConfig())

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	cfg := Config{
		MaxRetries:   5,
		InitialDelay: time.Millisecond,
		MaxDelay:     10 * time.Millisecond,
		Multiplier:   2,
		ShouldRetry:  func(error) bool { return true },
	}

	err := Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, cfg)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustsRetriesAndReturnsLastError(t *testing.T) {
	calls := 0
	sentinel := errors.New("still failing")
	cfg := Config{
		MaxRetries:   2,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2,
		ShouldRetry:  func(error) bool { return true },
	}

	err := Do(context.Background(), func() error {
		calls++
		return sentinel
	}, cfg)

	require.Error(t, err)
	assert.Equal(t, sentinel, err)
	assert.Equal(t, 3, calls) // initial attempt + 2 retries
}

func TestDo_NonRetryableFailsImmediately(t *testing.T) {
	calls := 0
	sentinel := errors.New("permanent")
	cfg := Config{
		MaxRetries:   5,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2,
		ShouldRetry:  func(error) bool { return false },
	}

	err := Do(context.Background(), func() error {
		calls++
		return sentinel
	}, cfg)

	require.Error(t, err)
	assert.Equal(t, sentinel, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancellationStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	cfg := Config{
		MaxRetries:   100,
		InitialDelay: 5 * time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   1,
		ShouldRetry:  func(error) bool { return true },
	}

	err := Do(ctx, func() error {
		calls++
		if calls == 2 {
			cancel()
		}
		return errors.New("keeps failing")
	}, cfg)

	require.Error(t, err)
	assert.Less(t, calls, 100)
}

func TestShouldRetryEngineError(t *testing.T) {
	retryable := ckgerrors.New(ckgerrors.CodeConnectionError, "conn", "", "", nil)
	permanent := ckgerrors.New(ckgerrors.CodeValidation, "bad input", "", "", nil)

	assert.True(t, ShouldRetryEngineError(retryable))
	assert.False(t, ShouldRetryEngineError(permanent))
	assert.False(t, ShouldRetryEngineError(errors.New("plain error")))
}

func TestDelay(t *testing.T) {
	cfg := Config{
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2,
	}

	assert.Equal(t, 100*time.Millisecond, Delay(0, cfg))
	assert.Equal(t, 200*time.Millisecond, Delay(1, cfg))
	assert.Equal(t, 400*time.Millisecond, Delay(2, cfg))
	assert.Equal(t, 1*time.Second, Delay(10, cfg)) // capped
}
