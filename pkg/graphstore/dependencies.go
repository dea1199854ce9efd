// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package graphstore

import (
	"context"
	"math"

	ckgerrors "github.com/kraklabs/ckg/internal/errors"
)

// reachableIDs computes the set of ids reachable from root within depth
// hops over dependencyRelTypes edges, excluding root itself. reverse=false
// follows from_id->to_id (outgoing, "depends on"); reverse=true follows
// to_id->from_id (incoming, "depended on by").
func (s *Store) reachableIDs(ctx context.Context, root string, depth int, reverse bool) ([]string, error) {
	relTypes := make([]any, len(dependencyRelTypes))
	for i, r := range dependencyRelTypes {
		relTypes[i] = string(r)
	}

	edgePattern := `*ckg_edge{from_id: from, to_id: to, rel_type: rt}`
	if reverse {
		edgePattern = `*ckg_edge{from_id: to, to_id: from, rel_type: rt}`
	}

	script := `
reach[id, d] := id = $root, d = 0
reach[to, d] := reach[from, d0], d = d0 + 1, d <= $depth, ` + edgePattern + `, is_in(rt, $rel_types)
?[id] := reach[id, d], id != $root`

	result, err := s.backend.Query(ctx, script, map[string]any{
		"root": root, "depth": depth, "rel_types": relTypes,
	})
	if err != nil {
		return nil, ckgerrors.New(ckgerrors.CodeGraphError, "dependency traversal failed", err.Error(), "", err)
	}

	seen := make(map[string]bool)
	var out []string
	for _, row := range result.Rows {
		if len(row) == 0 {
			continue
		}
		if id, ok := row[0].(string); ok && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out, nil
}

// AnalyzeDependencies reports a node's direct (and optionally transitive)
// dependencies or dependents.
func (s *Store) AnalyzeDependencies(ctx context.Context, req DependencyRequest) (*DependencyResult, error) {
	if err := validateKind(req.Target.Kind); err != nil {
		return nil, err
	}
	direction := req.Direction
	if direction == "" {
		direction = DependsOn
	}
	maxDepth := clamp(req.MaxDepth, maxDependencyDepth)
	target := idFor(req.Target)

	directIDs, err := s.directionalIDs(ctx, target, 1, direction)
	if err != nil {
		return nil, err
	}

	result := &DependencyResult{
		Metadata: map[string]any{"direction": string(direction), "maxDepth": maxDepth},
	}
	direct, err := s.fetchNodes(ctx, directIDs)
	if err != nil {
		return nil, err
	}
	result.Direct = direct

	if req.Transitive {
		allIDs, err := s.directionalIDs(ctx, target, maxDepth, direction)
		if err != nil {
			return nil, err
		}
		directSet := toSet(directIDs)
		var transitiveOnly []string
		for _, id := range allIDs {
			if !directSet[id] {
				transitiveOnly = append(transitiveOnly, id)
			}
		}
		transitive, err := s.fetchNodes(ctx, transitiveOnly)
		if err != nil {
			return nil, err
		}
		result.Transitive = transitive
	}

	total := len(result.Direct) + len(result.Transitive)
	result.ImpactScore = math.Min(1, float64(total)/100)

	return result, nil
}

// directionalIDs resolves dependsOn/dependedOnBy/both into one or two
// reachableIDs calls, unioning for "both".
func (s *Store) directionalIDs(ctx context.Context, target string, depth int, direction DependencyDirection) ([]string, error) {
	switch direction {
	case DependsOn:
		return s.reachableIDs(ctx, target, depth, false)
	case DependedOnBy:
		return s.reachableIDs(ctx, target, depth, true)
	case DependencyBoth:
		forward, err := s.reachableIDs(ctx, target, depth, false)
		if err != nil {
			return nil, err
		}
		backward, err := s.reachableIDs(ctx, target, depth, true)
		if err != nil {
			return nil, err
		}
		seen := toSet(forward)
		out := append([]string{}, forward...)
		for _, id := range backward {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
		return out, nil
	default:
		return s.reachableIDs(ctx, target, depth, false)
	}
}

func (s *Store) fetchNodes(ctx context.Context, ids []string) ([]NodeDict, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	idsAny := make([]any, len(ids))
	for i, id := range ids {
		idsAny[i] = id
	}
	result, err := s.backend.Query(ctx, `?[id, kind, attrs] := *ckg_node{id, kind, attrs}, is_in(id, $ids)`, map[string]any{"ids": idsAny})
	if err != nil {
		return nil, ckgerrors.New(ckgerrors.CodeGraphError, "node lookup failed", err.Error(), "", err)
	}
	var out []NodeDict
	for _, row := range result.Rows {
		if len(row) < 3 {
			continue
		}
		id, _ := row[0].(string)
		kind, _ := row[1].(string)
		attrs, _ := row[2].(string)
		out = append(out, toNodeDict(id, kind, attrs))
	}
	return out, nil
}

func toSet(ids []string) map[string]bool {
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}
