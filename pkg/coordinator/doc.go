// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package coordinator implements ckg's incremental-update coordinator (C7):
// UpdateRepository brings a single repository's graph and vector state in
// line with its git HEAD by computing a file-level diff (grounded on
// pkg/ingestion/delta.go's DeltaDetector) and replaying delete/upsert
// operations against pkg/graphstore and pkg/vectorstore, recording progress
// through pkg/repometa. UpdateAll iterates every ready repository
// sequentially.
//
// The coordinator holds no durable state of its own beyond what it writes
// through pkg/repometa: it is a conductor, not a store.
package coordinator
