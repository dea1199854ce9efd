// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package graphstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTraverseGraph(t *testing.T, store *Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.UpsertNode(ctx, Node{ID: "Repository:r", Kind: KindRepository, Attrs: map[string]any{}}))
	require.NoError(t, store.UpsertNode(ctx, Node{ID: "File:r:a.ts", Kind: KindFile, Attrs: map[string]any{}}))
	require.NoError(t, store.UpsertNode(ctx, Node{ID: "Function:r:a.ts:run:1", Kind: KindFunction, Attrs: map[string]any{}}))
	require.NoError(t, store.UpsertNode(ctx, Node{ID: "Function:r:a.ts:helper:5", Kind: KindFunction, Attrs: map[string]any{}}))
	require.NoError(t, store.CreateRelationship(ctx, Edge{From: "Repository:r", To: "File:r:a.ts", Type: RelContains}))
	require.NoError(t, store.CreateRelationship(ctx, Edge{From: "File:r:a.ts", To: "Function:r:a.ts:run:1", Type: RelDefines}))
	require.NoError(t, store.CreateRelationship(ctx, Edge{From: "Function:r:a.ts:run:1", To: "Function:r:a.ts:helper:5", Type: RelCalls}))
}

func TestTraverse_FollowsRequestedRelationshipsToRequestedDepth(t *testing.T) {
	store, _ := newTestStore()
	seedTraverseGraph(t, store)

	result, err := store.Traverse(context.Background(), TraverseRequest{
		Start:         NodeRef{Kind: KindRepository, Identifier: "r"},
		Relationships: []RelType{RelContains, RelDefines},
		Depth:         2,
		Limit:         10,
	})
	require.NoError(t, err)

	ids := nodeIDs(result.Nodes)
	assert.Contains(t, ids, "Repository:r")
	assert.Contains(t, ids, "File:r:a.ts")
	assert.Contains(t, ids, "Function:r:a.ts:run:1")
	assert.NotContains(t, ids, "Function:r:a.ts:helper:5", "CALLS was not requested")
}

func TestTraverse_DepthZeroOrNegativeClampsToMax(t *testing.T) {
	store, _ := newTestStore()
	seedTraverseGraph(t, store)

	result, err := store.Traverse(context.Background(), TraverseRequest{
		Start:         NodeRef{Kind: KindRepository, Identifier: "r"},
		Relationships: []RelType{RelContains, RelDefines, RelCalls},
		Depth:         0,
		Limit:         0,
	})
	require.NoError(t, err)
	assert.Contains(t, nodeIDs(result.Nodes), "Function:r:a.ts:helper:5")
}

func TestTraverse_RejectsInvalidRelationship(t *testing.T) {
	store, _ := newTestStore()
	_, err := store.Traverse(context.Background(), TraverseRequest{
		Start:         NodeRef{Kind: KindRepository, Identifier: "r"},
		Relationships: []RelType{RelType("bad; DROP")},
	})
	assert.Error(t, err)
}

func TestTraverse_UnreachableStartReturnsEmptyResult(t *testing.T) {
	store, _ := newTestStore()
	result, err := store.Traverse(context.Background(), TraverseRequest{
		Start:         NodeRef{Kind: KindRepository, Identifier: "does-not-exist"},
		Relationships: []RelType{RelContains},
		Depth:         2,
	})
	require.NoError(t, err)
	assert.Empty(t, result.Nodes)
	assert.Empty(t, result.Edges)
}

func nodeIDs(nodes []NodeDict) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}
