// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package graphstore

import (
	"context"

	ckgerrors "github.com/kraklabs/ckg/internal/errors"
)

const directConnectionRelevance = 0.8

var documentationExtensions = map[string]bool{"md": true, "txt": true, "rst": true}

// GetContext expands a set of seed nodes into related nodes, one batched
// query per requested context kind (O(K) queries for K kinds, never
// O(K*len(seeds))).
func (s *Store) GetContext(ctx context.Context, req ContextRequest) (*ContextResult, error) {
	for _, seed := range req.Seeds {
		if err := validateKind(seed.Kind); err != nil {
			return nil, err
		}
	}
	limit := clamp(req.Limit, maxContextLimit)

	seedIDs := make([]any, len(req.Seeds))
	for i, seed := range req.Seeds {
		seedIDs[i] = idFor(seed)
	}

	var items []ContextItem
	for _, kind := range req.IncludeContext {
		kindItems, err := s.contextForKind(ctx, kind, seedIDs)
		if err != nil {
			return nil, err
		}
		items = append(items, kindItems...)
	}

	items = dedupeContextItems(items)
	if len(items) > limit {
		items = items[:limit]
	}

	return &ContextResult{Items: items}, nil
}

func (s *Store) contextForKind(ctx context.Context, kind ContextKind, seedIDs []any) ([]ContextItem, error) {
	switch kind {
	case ContextImports:
		return s.contextByEdge(ctx, seedIDs, RelImports, false, "imported by seed")
	case ContextCallers:
		return s.contextByEdge(ctx, seedIDs, RelCalls, true, "calls seed")
	case ContextCallees:
		return s.contextByEdge(ctx, seedIDs, RelCalls, false, "called by seed")
	case ContextSiblings:
		return s.contextSiblings(ctx, seedIDs)
	case ContextDocumentation:
		return s.contextDocumentation(ctx, seedIDs)
	default:
		return nil, ckgerrors.New(ckgerrors.CodeValidation, "unknown context kind", "", "", nil)
	}
}

// contextByEdge covers imports/callees (seed is the edge's from side) and
// callers (seed is the edge's to side, reverse=true).
func (s *Store) contextByEdge(ctx context.Context, seedIDs []any, rel RelType, reverse bool, reason string) ([]ContextItem, error) {
	seedCol, otherCol := "from_id", "to_id"
	if reverse {
		seedCol, otherCol = "to_id", "from_id"
	}
	script := `?[id, kind, attrs] := *ckg_edge{` + seedCol + `: seed, ` + otherCol + `: id, rel_type: $rel}, is_in(seed, $seeds), *ckg_node{id, kind, attrs}`
	result, err := s.backend.Query(ctx, script, map[string]any{"seeds": seedIDs, "rel": string(rel)})
	if err != nil {
		return nil, ckgerrors.New(ckgerrors.CodeGraphError, "context lookup failed", err.Error(), "", err)
	}
	return rowsToContextItems(result.Rows, kindForRel(rel, reverse), reason), nil
}

func kindForRel(rel RelType, reverse bool) ContextKind {
	switch {
	case rel == RelImports:
		return ContextImports
	case rel == RelCalls && reverse:
		return ContextCallers
	case rel == RelCalls:
		return ContextCallees
	default:
		return ContextKind(rel)
	}
}

func (s *Store) contextSiblings(ctx context.Context, seedIDs []any) ([]ContextItem, error) {
	script := `
?[id, kind, attrs] := *ckg_edge{from_id: parent, to_id: seed, rel_type: rt1}, is_in(rt1, ["CONTAINS", "DEFINES"]), is_in(seed, $seeds),
  *ckg_edge{from_id: parent, to_id: id, rel_type: rt2}, is_in(rt2, ["CONTAINS", "DEFINES"]),
  id != seed, *ckg_node{id, kind, attrs}`
	result, err := s.backend.Query(ctx, script, map[string]any{"seeds": seedIDs})
	if err != nil {
		return nil, ckgerrors.New(ckgerrors.CodeGraphError, "sibling lookup failed", err.Error(), "", err)
	}
	return rowsToContextItems(result.Rows, ContextSiblings, "sibling of seed"), nil
}

func (s *Store) contextDocumentation(ctx context.Context, seedIDs []any) ([]ContextItem, error) {
	script := `?[id, kind, attrs] := *ckg_edge{from_id: seed, to_id: id, rel_type: "REFERENCES"}, is_in(seed, $seeds), *ckg_node{id, kind, attrs}, kind = "File"`
	result, err := s.backend.Query(ctx, script, map[string]any{"seeds": seedIDs})
	if err != nil {
		return nil, ckgerrors.New(ckgerrors.CodeGraphError, "documentation lookup failed", err.Error(), "", err)
	}

	var items []ContextItem
	for _, row := range result.Rows {
		if len(row) < 3 {
			continue
		}
		id, _ := row[0].(string)
		kindStr, _ := row[1].(string)
		attrsRaw, _ := row[2].(string)
		node := toNodeDict(id, kindStr, attrsRaw)
		ext, _ := node.Properties["extension"].(string)
		if !documentationExtensions[ext] {
			continue
		}
		items = append(items, ContextItem{Node: node, Kind: ContextDocumentation, Relevance: directConnectionRelevance, Reason: "referenced documentation"})
	}
	return items, nil
}

func rowsToContextItems(rows [][]any, kind ContextKind, reason string) []ContextItem {
	var items []ContextItem
	for _, row := range rows {
		if len(row) < 3 {
			continue
		}
		id, _ := row[0].(string)
		kindStr, _ := row[1].(string)
		attrs, _ := row[2].(string)
		items = append(items, ContextItem{
			Node:      toNodeDict(id, kindStr, attrs),
			Kind:      kind,
			Relevance: directConnectionRelevance,
			Reason:    reason,
		})
	}
	return items
}

func dedupeContextItems(items []ContextItem) []ContextItem {
	seen := make(map[string]bool, len(items))
	var out []ContextItem
	for _, item := range items {
		key := string(item.Kind) + "|" + item.Node.ID
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}
	return out
}
