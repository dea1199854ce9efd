// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package repometa implements ckg's repository metadata store (C6): a
// process-wide singleton over a single `repositories.json` file, written
// with the same temp-file-then-rename atomicity pkg/ingestion's
// CheckpointManager uses for its checkpoint files.
//
// There is no cross-process lock: atomic rename defends against torn
// writes, but simultaneous writers still resolve last-writer-wins. That is
// an accepted limitation, not a bug (the coordinator, C7, is the only
// concurrent writer this package expects, and it already serializes writes
// per repository via updateInProgress).
package repometa
