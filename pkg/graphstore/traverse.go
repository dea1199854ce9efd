// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package graphstore

import (
	"context"

	ckgerrors "github.com/kraklabs/ckg/internal/errors"
)

func clamp(v, max int) int {
	if v <= 0 || v > max {
		return max
	}
	return v
}

// Traverse returns a bounded subgraph rooted at req.Start. Depth and limit
// are silently clamped to their maxima rather than rejected. There is a
// single recursive-rule implementation here, not a separate "preferred" and
// "fallback" query path: both resolve to the same CozoScript, so they share
// deduplication semantics by construction.
func (s *Store) Traverse(ctx context.Context, req TraverseRequest) (*TraverseResult, error) {
	for _, r := range req.Relationships {
		if err := validateRelType(r); err != nil {
			return nil, err
		}
	}
	if err := validateKind(req.Start.Kind); err != nil {
		return nil, err
	}

	depth := clamp(req.Depth, maxTraverseDepth)
	limit := clamp(req.Limit, maxTraverseLimit)
	root := idFor(req.Start)

	relTypes := make([]any, len(req.Relationships))
	for i, r := range req.Relationships {
		relTypes[i] = string(r)
	}

	reachScript := `
reach[id, d] := id = $root, d = 0
reach[to, d] := reach[from, d0], d = d0 + 1, d <= $depth, *ckg_edge{from_id: from, to_id: to, rel_type: rt}, is_in(rt, $rel_types)
?[id] := reach[id, d]
:limit $limit`
	idsResult, err := s.backend.Query(ctx, reachScript, map[string]any{
		"root": root, "depth": depth, "limit": limit, "rel_types": relTypes,
	})
	if err != nil {
		return nil, ckgerrors.New(ckgerrors.CodeGraphError, "traverse failed", err.Error(), "", err)
	}

	ids := make([]any, 0, len(idsResult.Rows))
	idSet := make(map[string]bool, len(idsResult.Rows))
	for _, row := range idsResult.Rows {
		if len(row) == 0 {
			continue
		}
		if id, ok := row[0].(string); ok && !idSet[id] {
			idSet[id] = true
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return &TraverseResult{}, nil
	}

	nodesResult, err := s.backend.Query(ctx, `?[id, kind, attrs] := *ckg_node{id, kind, attrs}, is_in(id, $ids)`, map[string]any{"ids": ids})
	if err != nil {
		return nil, ckgerrors.New(ckgerrors.CodeGraphError, "traverse node lookup failed", err.Error(), "", err)
	}

	var nodes []NodeDict
	for _, row := range nodesResult.Rows {
		if len(row) < 3 {
			continue
		}
		id, _ := row[0].(string)
		kind, _ := row[1].(string)
		attrs, _ := row[2].(string)
		nodes = append(nodes, toNodeDict(id, kind, attrs))
	}

	edgesResult, err := s.backend.Query(ctx, `
?[id, from_id, to_id, rel_type, props] := *ckg_edge{id, from_id, to_id, rel_type, props},
  is_in(from_id, $ids), is_in(to_id, $ids), is_in(rel_type, $rel_types)`,
		map[string]any{"ids": ids, "rel_types": relTypes},
	)
	if err != nil {
		return nil, ckgerrors.New(ckgerrors.CodeGraphError, "traverse edge lookup failed", err.Error(), "", err)
	}

	var edges []EdgeDict
	for _, row := range edgesResult.Rows {
		if len(row) < 5 {
			continue
		}
		id, _ := row[0].(string)
		from, _ := row[1].(string)
		to, _ := row[2].(string)
		relType, _ := row[3].(string)
		props, _ := row[4].(string)
		edges = append(edges, toEdgeDict(id, relType, from, to, props))
	}

	return &TraverseResult{Nodes: nodes, Edges: edges}, nil
}
