// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package coordinator

import (
	"context"
	"fmt"

	"github.com/kraklabs/ckg/pkg/graphstore"
	"github.com/kraklabs/ckg/pkg/parser"
	"github.com/kraklabs/ckg/pkg/vectorstore"
)

type fakeGraph struct {
	nodes map[string]graphstore.Node
	edges map[string]graphstore.Edge
}

func newFakeGraph() *fakeGraph {
	return &fakeGraph{nodes: map[string]graphstore.Node{}, edges: map[string]graphstore.Edge{}}
}

func (g *fakeGraph) NodeExists(ctx context.Context, id string) (bool, error) {
	_, ok := g.nodes[id]
	return ok, nil
}

func (g *fakeGraph) UpsertNodes(ctx context.Context, nodes []graphstore.Node) error {
	for _, n := range nodes {
		g.nodes[n.ID] = n
	}
	return nil
}

func (g *fakeGraph) CreateRelationships(ctx context.Context, edges []graphstore.Edge) error {
	for _, e := range edges {
		id := e.ID
		if id == "" {
			id = fmt.Sprintf("%s|%s|%s", e.From, e.Type, e.To)
		}
		g.edges[id] = e
	}
	return nil
}

var fakeCascadeRelTypes = map[graphstore.RelType]bool{
	graphstore.RelContains: true, graphstore.RelDefines: true, graphstore.RelHasChunk: true,
}

func (g *fakeGraph) DeleteNode(ctx context.Context, id string, cascade bool) error {
	ids := []string{id}
	if cascade {
		ids = append(ids, g.descendantIDs(id)...)
	}
	for _, nid := range ids {
		delete(g.nodes, nid)
	}
	idSet := map[string]bool{}
	for _, nid := range ids {
		idSet[nid] = true
	}
	for eid, e := range g.edges {
		if idSet[e.From] || idSet[e.To] {
			delete(g.edges, eid)
		}
	}
	return nil
}

// descendantIDs mirrors graphstore.Store's transitive walk over
// CONTAINS/DEFINES/HAS_CHUNK edges, so cascade deletion in tests matches
// what the real backend does.
func (g *fakeGraph) descendantIDs(id string) []string {
	var out []string
	seen := map[string]bool{id: true}
	frontier := []string{id}
	for len(frontier) > 0 {
		var next []string
		for _, cur := range frontier {
			for _, e := range g.edges {
				if e.From == cur && fakeCascadeRelTypes[e.Type] && !seen[e.To] {
					seen[e.To] = true
					out = append(out, e.To)
					next = append(next, e.To)
				}
			}
		}
		frontier = next
	}
	return out
}

type fakeVectors struct {
	documents map[string][]vectorstore.Document
	deleted   map[string]int
}

func newFakeVectors() *fakeVectors {
	return &fakeVectors{documents: map[string][]vectorstore.Document{}, deleted: map[string]int{}}
}

func (v *fakeVectors) UpsertDocuments(ctx context.Context, collection string, docs []vectorstore.Document) error {
	v.documents[collection] = append(v.documents[collection], docs...)
	return nil
}

func (v *fakeVectors) DeleteDocumentsByFilePrefix(ctx context.Context, collection, repository, filePath string) (int, error) {
	key := repository + ":" + filePath
	n := v.deleted[key]
	delete(v.deleted, key)
	var remaining []vectorstore.Document
	removed := 0
	for _, d := range v.documents[collection] {
		if fmt.Sprint(d.Metadata["repository"]) == repository && fmt.Sprint(d.Metadata["file_path"]) == filePath {
			removed++
			continue
		}
		remaining = append(remaining, d)
	}
	v.documents[collection] = remaining
	return removed + n, nil
}

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

type fakeEmbedder struct{ dims int }

func (e fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, e.dims)
	}
	return out, nil
}
