// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package graphstore is ckg's graph store client (C4): node/edge upsert,
// parameterized query execution, and the three higher-level retrieval
// operations (Traverse, AnalyzeDependencies, GetContext) the query service
// (C8) builds on.
//
// Nodes and edges live in the generic ckg_node/ckg_edge relations pkg/storage
// creates (one row per node keyed by a deterministic id, one row per
// directed typed edge), so a single File/Function/Class/... type system can
// be hosted without a per-kind table. Traversal and dependency analysis are
// expressed as parameterized, depth-bounded recursive CozoScript rules —
// CozoDB's Datalog evaluates recursive rules natively, so no separate BFS
// loop is driven from Go.
//
// # Quick Start
//
//	store := graphstore.New(backend, nil)
//	err := store.UpsertNode(ctx, graphstore.Node{
//	    ID: graphstore.RepositoryID("demo"), Kind: graphstore.KindRepository,
//	    Attrs: map[string]any{"name": "demo", "url": "https://...", "branch": "main"},
//	})
//	result, err := store.Traverse(ctx, graphstore.TraverseRequest{
//	    Start:         graphstore.NodeRef{Kind: graphstore.KindRepository, Identifier: "demo"},
//	    Relationships: []graphstore.RelType{graphstore.RelContains},
//	    Depth:         2,
//	    Limit:         100,
//	})
//
// # Injection Safety
//
// Node ids, values, kinds, relationship types, and query parameters are
// always bound through CozoScript `$name` placeholders; the relation names
// in the scripts are fixed (ckg_node/ckg_edge). In addition, every
// kind/RelType that reaches a query is validated against
// ^[A-Za-z][A-Za-z0-9_]*$ before the query runs.
package graphstore
