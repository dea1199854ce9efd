// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package graphstore

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/kraklabs/ckg/pkg/storage"
)

var _ storage.Backend = (*fakeBackend)(nil)

// fakeBackend is a minimal in-memory stand-in for storage.Backend, covering
// only the CozoScript shapes this package emits. Rather than interpreting
// Datalog generally, it recognizes each script by a distinguishing
// substring and replays the same graph semantics (BFS over cascade/
// dependency/context edge sets) directly in Go — the same approach
// pkg/vectorstore's fake_backend_test.go takes for its own query shapes.
type fakeBackend struct {
	mu    sync.Mutex
	nodes map[string]fakeNode
	edges map[string]fakeEdge
	fail  map[string]error
}

type fakeNode struct {
	id, kind, attrs string
}

type fakeEdge struct {
	id, from, to, relType, props string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		nodes: make(map[string]fakeNode),
		edges: make(map[string]fakeEdge),
		fail:  make(map[string]error),
	}
}

func (f *fakeBackend) forcedErr(script string) error {
	for substr, err := range f.fail {
		if strings.Contains(script, substr) {
			return err
		}
	}
	return nil
}

func toStringSlice(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func toStringSet(v any) map[string]bool {
	out := make(map[string]bool)
	for _, s := range toStringSlice(v) {
		out[s] = true
	}
	return out
}

func rowStrings(rows [][]any, idx int) []string {
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		if idx < len(row) {
			if s, ok := row[idx].(string); ok {
				out = append(out, s)
			}
		}
	}
	return out
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func (f *fakeBackend) Execute(ctx context.Context, script string, params map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.forcedErr(script); err != nil {
		return err
	}

	switch {
	case strings.Contains(script, ":put ckg_node"):
		rows, _ := params["rows"].([][]any)
		for _, r := range rows {
			id, _ := r[0].(string)
			kind, _ := r[1].(string)
			attrs, _ := r[2].(string)
			f.nodes[id] = fakeNode{id: id, kind: kind, attrs: attrs}
		}
		return nil

	case strings.Contains(script, ":rm ckg_node"):
		rows, _ := params["ids"].([][]any)
		for _, id := range rowStrings(rows, 0) {
			delete(f.nodes, id)
		}
		return nil

	case strings.Contains(script, ":put ckg_edge"):
		rows, _ := params["rows"].([][]any)
		for _, r := range rows {
			id, _ := r[0].(string)
			from, _ := r[1].(string)
			to, _ := r[2].(string)
			relType, _ := r[3].(string)
			props, _ := r[4].(string)
			f.edges[id] = fakeEdge{id: id, from: from, to: to, relType: relType, props: props}
		}
		return nil

	case strings.Contains(script, "<- [[$id]]") && strings.Contains(script, ":rm ckg_edge"):
		id, _ := params["id"].(string)
		delete(f.edges, id)
		return nil

	case strings.Contains(script, ":rm ckg_edge"):
		ids := toStringSet(params["ids"])
		for id, e := range f.edges {
			if ids[e.from] || ids[e.to] {
				delete(f.edges, id)
			}
		}
		return nil
	}

	return fmt.Errorf("fakeBackend: unrecognized execute script: %s", script)
}

func (f *fakeBackend) Query(ctx context.Context, script string, params map[string]any) (*storage.QueryResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.forcedErr(script); err != nil {
		return nil, err
	}

	switch {
	case script == "?[x] := x = 1":
		return &storage.QueryResult{Headers: []string{"x"}, Rows: [][]any{{1}}}, nil

	case strings.Contains(script, "reach[x] := x = $root"):
		root, _ := params["root"].(string)
		relTypes := toStringSlice(params["rel_types"])
		ids := f.bfs(root, relTypes, false, 1<<20)
		var out [][]any
		for _, id := range ids {
			if id != root {
				out = append(out, []any{id})
			}
		}
		return &storage.QueryResult{Headers: []string{"id"}, Rows: out}, nil

	case strings.Contains(script, "reach[id, d] := id = $root, d = 0"):
		root, _ := params["root"].(string)
		depth := toInt(params["depth"])
		relTypes := toStringSlice(params["rel_types"])
		reverse := strings.Contains(script, "from_id: to, to_id: from")
		excludeRoot := strings.Contains(script, "id != $root")

		ids := f.bfs(root, relTypes, reverse, depth)
		var out [][]any
		for _, id := range ids {
			if excludeRoot && id == root {
				continue
			}
			out = append(out, []any{id})
		}
		if limit, ok := params["limit"]; ok && strings.Contains(script, ":limit $limit") {
			l := toInt(limit)
			if l > 0 && len(out) > l {
				out = out[:l]
			}
		}
		return &storage.QueryResult{Headers: []string{"id"}, Rows: out}, nil

	case strings.Contains(script, "*ckg_node{id}, id = $id"):
		id, _ := params["id"].(string)
		var out [][]any
		if _, ok := f.nodes[id]; ok {
			out = append(out, []any{id})
		}
		return &storage.QueryResult{Headers: []string{"id"}, Rows: out}, nil

	case strings.Contains(script, "*ckg_node{id, kind, attrs}, is_in(id, $ids)"):
		ids := toStringSet(params["ids"])
		var out [][]any
		for id, n := range f.nodes {
			if ids[id] {
				out = append(out, []any{n.id, n.kind, n.attrs})
			}
		}
		return &storage.QueryResult{Headers: []string{"id", "kind", "attrs"}, Rows: out}, nil

	case strings.Contains(script, "*ckg_edge{id, from_id, to_id, rel_type, props}") && strings.Contains(script, "is_in(from_id, $ids)"):
		ids := toStringSet(params["ids"])
		relTypes := toStringSet(params["rel_types"])
		var out [][]any
		for _, e := range f.edges {
			if ids[e.from] && ids[e.to] && relTypes[e.relType] {
				out = append(out, []any{e.id, e.from, e.to, e.relType, e.props})
			}
		}
		return &storage.QueryResult{Headers: []string{"id", "from_id", "to_id", "rel_type", "props"}, Rows: out}, nil

	case strings.Contains(script, `rel_type: "REFERENCES"`):
		seeds := toStringSet(params["seeds"])
		var out [][]any
		for _, e := range f.edges {
			if e.relType != "REFERENCES" || !seeds[e.from] {
				continue
			}
			n, ok := f.nodes[e.to]
			if !ok || n.kind != "File" {
				continue
			}
			out = append(out, []any{n.id, n.kind, n.attrs})
		}
		return &storage.QueryResult{Headers: []string{"id", "kind", "attrs"}, Rows: out}, nil

	case strings.Contains(script, `is_in(rt1, ["CONTAINS", "DEFINES"])`):
		seeds := toStringSet(params["seeds"])
		siblingSet := map[string]bool{}
		for _, e := range f.edges {
			if !seeds[e.to] || (e.relType != "CONTAINS" && e.relType != "DEFINES") {
				continue
			}
			parent := e.from
			for _, e2 := range f.edges {
				if e2.from == parent && (e2.relType == "CONTAINS" || e2.relType == "DEFINES") && e2.to != e.to {
					siblingSet[e2.to] = true
				}
			}
		}
		var out [][]any
		for id := range siblingSet {
			n, ok := f.nodes[id]
			if !ok {
				continue
			}
			out = append(out, []any{n.id, n.kind, n.attrs})
		}
		return &storage.QueryResult{Headers: []string{"id", "kind", "attrs"}, Rows: out}, nil

	case strings.Contains(script, "*ckg_edge{") && strings.Contains(script, "is_in(seed, $seeds)"):
		seedCol, otherCol := "from_id", "to_id"
		if strings.Contains(script, "to_id: seed, from_id: id") {
			seedCol, otherCol = "to_id", "from_id"
		}
		_ = seedCol
		_ = otherCol
		seeds := toStringSet(params["seeds"])
		rel, _ := params["rel"].(string)
		var out [][]any
		for _, e := range f.edges {
			if e.relType != rel {
				continue
			}
			var seedSide, otherSide string
			if seedCol == "from_id" {
				seedSide, otherSide = e.from, e.to
			} else {
				seedSide, otherSide = e.to, e.from
			}
			if !seeds[seedSide] {
				continue
			}
			n, ok := f.nodes[otherSide]
			if !ok {
				continue
			}
			out = append(out, []any{n.id, n.kind, n.attrs})
		}
		return &storage.QueryResult{Headers: []string{"id", "kind", "attrs"}, Rows: out}, nil
	}

	return nil, fmt.Errorf("fakeBackend: unrecognized query script: %s", script)
}

func (f *fakeBackend) Close() error { return nil }

// bfs walks edges of the given relation types up to maxDepth hops from
// root, following from->to when reverse is false and to->from when true.
// The returned slice always includes root itself at depth 0; callers that
// want root excluded (the dependency/descendant queries) filter it out.
func (f *fakeBackend) bfs(root string, relTypes []string, reverse bool, maxDepth int) []string {
	relSet := make(map[string]bool, len(relTypes))
	for _, r := range relTypes {
		relSet[r] = true
	}

	visited := map[string]bool{root: true}
	order := []string{root}
	frontier := []string{root}

	for d := 1; d <= maxDepth && len(frontier) > 0; d++ {
		var next []string
		for _, cur := range frontier {
			for _, e := range f.edges {
				if !relSet[e.relType] {
					continue
				}
				var neighbor string
				switch {
				case !reverse && e.from == cur:
					neighbor = e.to
				case reverse && e.to == cur:
					neighbor = e.from
				default:
					continue
				}
				if !visited[neighbor] {
					visited[neighbor] = true
					order = append(order, neighbor)
					next = append(next, neighbor)
				}
			}
		}
		frontier = next
	}
	return order
}
