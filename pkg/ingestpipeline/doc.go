// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package ingestpipeline implements ckg's graph ingestion pipeline (C5):
// IngestFiles walks a caller-supplied file list, parses each file with
// pkg/parser, and writes the resulting Repository/File/entity nodes and
// their relationships to pkg/graphstore in size-bounded batches, while an
// Embedder turns entity source text into vectors for pkg/vectorstore.
//
// # Quick Start
//
//	pipeline := ingestpipeline.New(graphStore, vectorStore, parser, embedder, nil)
//	result, err := pipeline.IngestFiles(ctx, files, ingestpipeline.Options{
//	    Repository:    "acme/widgets",
//	    RepositoryURL: "https://github.com/acme/widgets",
//	    OnProgress: func(e ingestpipeline.ProgressEvent) {
//	        fmt.Printf("%s: %d%%\n", e.Phase, e.Percentage)
//	    },
//	})
//
// # Batching
//
// Nodes and relationships are written through pkg/graphstore's
// UpsertNodes/CreateRelationships in fixed-size batches (default 50 nodes,
// 100 relationships), the same "batch by count, one parameterized query per
// batch" shape the teacher's Batcher applies to raw Datalog script text —
// generalized here to batches of already-parameterized rows rather than
// batches of script text, since graphstore's writes are never raw
// concatenated scripts.
package ingestpipeline
