// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package queryservice is ckg's query service (C8): a thin fan-out over the
// graph store client (pkg/graphstore) exposing three read-only operations —
// GetDependencies, GetArchitecture, GetRelatedContext — with input
// validation in front of each. It holds no state of its own.
//
// GetDependencies maps directly onto graphstore.AnalyzeDependencies.
// GetRelatedContext maps directly onto graphstore.GetContext. GetArchitecture
// has no one-to-one counterpart in C4: it issues a single repository-scoped
// Traverse over CONTAINS/DEFINES/IMPORTS and then projects the returned
// subgraph down to the node kinds the requested detail level calls for
// (modules, files, or entities), the same "one prepared query, shape the
// result in Go" idiom pkg/tools/analyze.go and pkg/tools/trace.go use for
// their result-shaping passes.
package queryservice
