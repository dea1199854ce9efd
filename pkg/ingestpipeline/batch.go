// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package ingestpipeline

import (
	"context"

	"github.com/kraklabs/ckg/pkg/graphstore"
)

// batcher accumulates nodes and relationships and flushes them to the graph
// store in fixed-size groups. This generalizes the teacher's Batcher, which
// splits a single concatenated CozoScript string by brace/bracket/string
// depth to stay under a size and mutation-count budget: graphstore's writes
// here are already parameterized row slices rather than script text, so
// there is nothing to split — instead batcher simply groups rows by count
// and issues one UpsertNodes/CreateRelationships call per group.
type batcher struct {
	graph        GraphStore
	nodeSize     int
	relSize      int
	nodes        []graphstore.Node
	relationships []graphstore.Edge
	stats        *Stats
}

func newBatcher(graph GraphStore, nodeSize, relSize int, stats *Stats) *batcher {
	return &batcher{graph: graph, nodeSize: nodeSize, relSize: relSize, stats: stats}
}

func (b *batcher) addNode(ctx context.Context, n graphstore.Node) error {
	b.nodes = append(b.nodes, n)
	if len(b.nodes) >= b.nodeSize {
		return b.flushNodes(ctx)
	}
	return nil
}

func (b *batcher) addEdge(ctx context.Context, e graphstore.Edge) error {
	b.relationships = append(b.relationships, e)
	if len(b.relationships) >= b.relSize {
		return b.flushRelationships(ctx)
	}
	return nil
}

func (b *batcher) flushNodes(ctx context.Context) error {
	if len(b.nodes) == 0 {
		return nil
	}
	if err := b.graph.UpsertNodes(ctx, b.nodes); err != nil {
		return err
	}
	b.stats.NodesCreated += len(b.nodes)
	for _, n := range b.nodes {
		b.stats.NodesByType[string(n.Kind)]++
	}
	b.nodes = b.nodes[:0]
	return nil
}

func (b *batcher) flushRelationships(ctx context.Context) error {
	if len(b.relationships) == 0 {
		return nil
	}
	if err := b.graph.CreateRelationships(ctx, b.relationships); err != nil {
		return err
	}
	b.stats.RelationshipsCreated += len(b.relationships)
	for _, e := range b.relationships {
		b.stats.RelationshipsByType[string(e.Type)]++
	}
	b.relationships = b.relationships[:0]
	return nil
}

// flush writes any remaining partially-filled batches.
func (b *batcher) flush(ctx context.Context) error {
	if err := b.flushNodes(ctx); err != nil {
		return err
	}
	return b.flushRelationships(ctx)
}
