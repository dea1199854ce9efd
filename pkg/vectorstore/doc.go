// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package vectorstore is ckg's vector store client: collection lifecycle,
// document upsert, and threshold similarity search over CozoDB's HNSW
// vector index.
//
// A Collection is a CozoDB relation, created on demand and named after the
// caller's collection name, carrying a fixed-width embedding column and an
// HNSW index over it. Store caches one *collection handle per name so
// repeated getOrCreateCollection calls are cheap and idempotent.
//
// # Quick Start
//
//	store := vectorstore.New(backend, nil)
//	col, err := store.GetOrCreateCollection(ctx, "repo_demo", vectorstore.CollectionConfig{
//	    Dimensions: 1536,
//	})
//	err = store.UpsertDocuments(ctx, "repo_demo", []vectorstore.Document{
//	    {ID: "demo:src/a.ts:0", Content: "...", Embedding: vec, Metadata: map[string]any{"repository": "demo"}},
//	})
//	hits, err := store.SimilaritySearch(ctx, vectorstore.SearchRequest{
//	    Embedding:   queryVec,
//	    Collections: []string{"repo_demo"},
//	    Limit:       10,
//	    Threshold:   0.5,
//	})
//
// # Distance vs Similarity
//
// CozoDB's HNSW index returns cosine distance d in [0,2]; this package
// converts to similarity s = clamp(1 - d/2, 0, 1) at the boundary so
// callers only ever see similarity scores, per spec.
package vectorstore
