// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package retry

import ckgerrors "github.com/kraklabs/ckg/internal/errors"

// ShouldRetryEngineError is a ShouldRetry predicate for Config built from
// an *errors.EngineError's Code. Validation, not-found, and auth/parse
// failures are permanent; connection, timeout, and health-check failures
// are retried.
func ShouldRetryEngineError(err error) bool {
	return ckgerrors.CodeOf(err).Retryable()
}
