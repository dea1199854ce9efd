// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package storage is the shared embedded-CozoDB handle that pkg/graphstore
// and pkg/vectorstore are both built on. ckg backs the spec's two
// conceptually separate stores (a graph store and a vector store) with
// one CozoDB database: graph traversal uses its recursive Datalog rules,
// similarity search uses its HNSW indexes. This package owns opening that
// one database, running parameterized queries/mutations against it, and
// creating the core (language-agnostic) node/edge schema; vectorstore
// layers its own dynamically-created per-collection relations on top.
//
// # Quick Start
//
//	backend, err := storage.NewEmbeddedBackend(storage.EmbeddedConfig{
//	    DataDir:   "/path/to/data",
//	    Engine:    "rocksdb",
//	    ProjectID: "myproject",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	if err := backend.EnsureSchema(); err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := backend.Query(ctx, `?[id, kind] := *ckg_node{id, kind} :limit 10`, nil)
//
// # Query vs Execute
//
// Use Query for read operations (RunReadOnly) and Execute for mutations
// (Run). Both accept a params map so values never need to be concatenated
// into the script text; only relation/label names, which CozoScript
// cannot parameterize, are composed directly and must first pass the
// caller's own identifier validation.
//
// # Thread Safety
//
// EmbeddedBackend is safe for concurrent use: reads take an RWMutex
// read-lock, writes take the write-lock, modeling the "pool of 50"
// concurrency budget as up to 50 goroutines sharing one embedded handle
// rather than 50 separate network connections.
package storage
