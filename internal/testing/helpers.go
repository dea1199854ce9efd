// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package testing provides shared helpers for tests that exercise a real
// embedded CozoDB backend instead of the hand-rolled fakeBackend each
// package's unit tests use. It seeds/queries ckg's generic
// ckg_node/ckg_edge/ckg_repository schema directly, bypassing
// pkg/graphstore and pkg/vectorstore, so it can assert on the schema those
// packages are themselves built on.
package testing

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/kraklabs/ckg/pkg/storage"
)

// SetupTestBackend creates an in-memory CozoDB backend with ckg's core
// schema applied. The backend is closed automatically when the test ends.
func SetupTestBackend(t *testing.T) *storage.EmbeddedBackend {
	t.Helper()

	backend, err := storage.NewEmbeddedBackend(storage.EmbeddedConfig{
		Engine:  "mem",
		DataDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("failed to create test backend: %v", err)
	}
	if err := backend.EnsureSchema(); err != nil {
		t.Fatalf("failed to ensure schema: %v", err)
	}
	t.Cleanup(func() { _ = backend.Close() })
	return backend
}

// InsertTestNode writes one ckg_node row directly, bypassing
// pkg/graphstore's validation — useful for seeding fixtures a test then
// reads back through the package under test.
func InsertTestNode(t *testing.T, backend *storage.EmbeddedBackend, id, kind string, attrs map[string]any) {
	t.Helper()

	encoded, err := json.Marshal(attrs)
	if err != nil {
		t.Fatalf("failed to encode node attrs: %v", err)
	}

	err = backend.Execute(context.Background(), `
?[id, kind, attrs] <- [[$id, $kind, $attrs]]
:put ckg_node { id => kind, attrs }`, map[string]any{
		"id": id, "kind": kind, "attrs": string(encoded),
	})
	if err != nil {
		t.Fatalf("failed to insert test node %q: %v", id, err)
	}
}

// InsertTestEdge writes one ckg_edge row directly.
func InsertTestEdge(t *testing.T, backend *storage.EmbeddedBackend, id, fromID, toID, relType string, props map[string]any) {
	t.Helper()

	encoded, err := json.Marshal(props)
	if err != nil {
		t.Fatalf("failed to encode edge props: %v", err)
	}

	err = backend.Execute(context.Background(), `
?[id, from_id, to_id, rel_type, props] <- [[$id, $from_id, $to_id, $rel_type, $props]]
:put ckg_edge { id => from_id, to_id, rel_type, props }`, map[string]any{
		"id": id, "from_id": fromID, "to_id": toID, "rel_type": relType, "props": string(encoded),
	})
	if err != nil {
		t.Fatalf("failed to insert test edge %q: %v", id, err)
	}
}

// InsertTestRepository writes one ckg_repository row directly.
func InsertTestRepository(t *testing.T, backend *storage.EmbeddedBackend, name, url, branch string, indexedAt int64) {
	t.Helper()

	err := backend.Execute(context.Background(), `
?[name, url, branch, indexed_at] <- [[$name, $url, $branch, $indexed_at]]
:put ckg_repository { name => url, branch, indexed_at }`, map[string]any{
		"name": name, "url": url, "branch": branch, "indexed_at": indexedAt,
	})
	if err != nil {
		t.Fatalf("failed to insert test repository %q: %v", name, err)
	}
}

// QueryNodes returns every ckg_node row, columns [id, kind, attrs].
func QueryNodes(t *testing.T, backend *storage.EmbeddedBackend) *storage.QueryResult {
	t.Helper()
	result, err := backend.Query(context.Background(), "?[id, kind, attrs] := *ckg_node{id, kind, attrs}", nil)
	if err != nil {
		t.Fatalf("failed to query nodes: %v", err)
	}
	return result
}

// QueryEdges returns every ckg_edge row, columns [id, from_id, to_id, rel_type].
func QueryEdges(t *testing.T, backend *storage.EmbeddedBackend) *storage.QueryResult {
	t.Helper()
	result, err := backend.Query(context.Background(), "?[id, from_id, to_id, rel_type] := *ckg_edge{id, from_id, to_id, rel_type}", nil)
	if err != nil {
		t.Fatalf("failed to query edges: %v", err)
	}
	return result
}
