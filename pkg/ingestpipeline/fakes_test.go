// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package ingestpipeline

import (
	"context"
	"fmt"

	"github.com/kraklabs/ckg/pkg/graphstore"
	"github.com/kraklabs/ckg/pkg/parser"
	"github.com/kraklabs/ckg/pkg/vectorstore"
)

// fakeGraph is a minimal in-memory GraphStore, mirroring the node/edge
// bookkeeping pkg/graphstore's own fakeBackend does for its tests, but at
// the domain-interface level: ingestpipeline never talks CozoScript itself.
type fakeGraph struct {
	nodes map[string]graphstore.Node
	edges map[string]graphstore.Edge
	fail  error
}

func newFakeGraph() *fakeGraph {
	return &fakeGraph{nodes: map[string]graphstore.Node{}, edges: map[string]graphstore.Edge{}}
}

func (g *fakeGraph) NodeExists(ctx context.Context, id string) (bool, error) {
	_, ok := g.nodes[id]
	return ok, nil
}

func (g *fakeGraph) UpsertNodes(ctx context.Context, nodes []graphstore.Node) error {
	if g.fail != nil {
		return g.fail
	}
	for _, n := range nodes {
		g.nodes[n.ID] = n
	}
	return nil
}

func (g *fakeGraph) CreateRelationships(ctx context.Context, edges []graphstore.Edge) error {
	if g.fail != nil {
		return g.fail
	}
	for _, e := range edges {
		id := e.ID
		if id == "" {
			id = fmt.Sprintf("%s|%s|%s", e.From, e.Type, e.To)
		}
		g.edges[id] = e
	}
	return nil
}

func (g *fakeGraph) DeleteNode(ctx context.Context, id string, cascade bool) error {
	delete(g.nodes, id)
	if !cascade {
		return nil
	}
	for k := range g.nodes {
		delete(g.nodes, k)
	}
	for k := range g.edges {
		delete(g.edges, k)
	}
	return nil
}

// fakeVectors is a minimal in-memory VectorStore.
type fakeVectors struct {
	collections map[string]vectorstore.CollectionConfig
	documents   map[string][]vectorstore.Document
}

func newFakeVectors() *fakeVectors {
	return &fakeVectors{collections: map[string]vectorstore.CollectionConfig{}, documents: map[string][]vectorstore.Document{}}
}

func (v *fakeVectors) GetOrCreateCollection(ctx context.Context, name string, cfg vectorstore.CollectionConfig) (*vectorstore.CollectionInfo, error) {
	v.collections[name] = cfg
	return &vectorstore.CollectionInfo{Name: name}, nil
}

func (v *fakeVectors) UpsertDocuments(ctx context.Context, collection string, docs []vectorstore.Document) error {
	v.documents[collection] = append(v.documents[collection], docs...)
	return nil
}

// fakeParser returns a pre-scripted ParseResult per filename, or an error
// for filenames registered as failing.
type fakeParser struct {
	results map[string]*parser.ParseResult
	errors  map[string]error
}

func newFakeParser() *fakeParser {
	return &fakeParser{results: map[string]*parser.ParseResult{}, errors: map[string]error{}}
}

func (p *fakeParser) Parse(ctx context.Context, content []byte, filename string, cfg parser.Config) (*parser.ParseResult, error) {
	if err, ok := p.errors[filename]; ok {
		return nil, err
	}
	if r, ok := p.results[filename]; ok {
		return r, nil
	}
	return &parser.ParseResult{Success: true}, nil
}

// fakeEmbedder returns a fixed-length zero vector per input text.
type fakeEmbedder struct{ dims int }

func (e fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, e.dims)
	}
	return out, nil
}
