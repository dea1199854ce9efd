// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package graphstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	ckgerrors "github.com/kraklabs/ckg/internal/errors"
	"github.com/kraklabs/ckg/pkg/storage"
)

// cascadeRelTypes are the edges DeleteNode(..., cascade=true) follows to
// find a node's owned descendants, matching the spec's CONTAINS/DEFINES
// ownership chain (Repository owns File owns Function/Class/...).
var cascadeRelTypes = []RelType{RelContains, RelDefines, RelHasChunk}

// Store is ckg's graph store client (C4), backed by the ckg_node/ckg_edge
// relations pkg/storage creates.
type Store struct {
	backend storage.Backend
	logger  *slog.Logger
}

// New builds a Store over backend. A nil logger falls back to slog.Default().
func New(backend storage.Backend, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{backend: backend, logger: logger}
}

// Connect, HealthCheck, and Disconnect are no-ops over an embedded database
// handle: the connection is the process itself. They exist so callers that
// expect the spec's lifecycle operations (written against a networked
// driver) have something to call.
func (s *Store) Connect(ctx context.Context) error   { return nil }
func (s *Store) Disconnect(ctx context.Context) error { return nil }

func (s *Store) HealthCheck(ctx context.Context) error {
	if _, err := s.backend.Query(ctx, "?[x] := x = 1", nil); err != nil {
		return ckgerrors.New(ckgerrors.CodeHealthCheckFailed, "graph store health check failed", err.Error(), "", err)
	}
	return nil
}

// EdgeID is the deterministic id for an edge between a given (from, to)
// pair of a given type. Edges are MERGE-idempotent the same way nodes are:
// creating the "same" edge twice yields one row.
func EdgeID(from, to string, relType RelType) string {
	return fmt.Sprintf("%s|%s|%s", from, relType, to)
}

// NodeExists reports whether a node with the given id is present.
func (s *Store) NodeExists(ctx context.Context, id string) (bool, error) {
	result, err := s.backend.Query(ctx, `?[id] := *ckg_node{id}, id = $id`, map[string]any{"id": id})
	if err != nil {
		return false, ckgerrors.New(ckgerrors.CodeGraphError, fmt.Sprintf("check existence of %q failed", id), err.Error(), "", err)
	}
	return len(result.Rows) > 0, nil
}

// UpsertNode creates or replaces a node. Idempotent: upserting identical
// inputs twice yields one row.
func (s *Store) UpsertNode(ctx context.Context, n Node) error {
	return s.UpsertNodes(ctx, []Node{n})
}

// UpsertNodes upserts a batch of nodes as a single parameterized query, the
// ingestion pipeline's unit of batched writes (one CozoScript call per
// batch, not per node).
func (s *Store) UpsertNodes(ctx context.Context, nodes []Node) error {
	if len(nodes) == 0 {
		return nil
	}
	rows := make([][]any, len(nodes))
	for i, n := range nodes {
		if err := validateNode(n); err != nil {
			return err
		}
		attrsJSON, err := json.Marshal(n.Attrs)
		if err != nil {
			return ckgerrors.New(ckgerrors.CodeInvalidMetadataFormat, fmt.Sprintf("node %q attrs could not be encoded", n.ID), err.Error(), "", err)
		}
		rows[i] = []any{n.ID, string(n.Kind), string(attrsJSON)}
	}

	script := `?[id, kind, attrs] <- $rows
:put ckg_node { id => kind, attrs }`
	if err := s.backend.Execute(ctx, script, map[string]any{"rows": rows}); err != nil {
		return ckgerrors.New(ckgerrors.CodeGraphError, fmt.Sprintf("batch upsert of %d node(s) failed", len(nodes)), err.Error(), "", err)
	}
	return nil
}

// DeleteNode removes a node and its incident edges. When cascade is true,
// it also removes everything transitively reachable from it via
// CONTAINS/DEFINES/HAS_CHUNK edges (the Repository-deletion invariant).
func (s *Store) DeleteNode(ctx context.Context, id string, cascade bool) error {
	if id == "" {
		return ckgerrors.New(ckgerrors.CodeValidation, "node id must not be empty", "", "", nil)
	}

	ids := []string{id}
	if cascade {
		descendants, err := s.descendantIDs(ctx, id)
		if err != nil {
			return err
		}
		ids = append(ids, descendants...)
	}

	idRows := make([][]any, len(ids))
	for i, x := range ids {
		idRows[i] = []any{x}
	}

	if err := s.backend.Execute(ctx, `
?[id] <- $ids
:rm ckg_node { id }`, map[string]any{"ids": idRows}); err != nil {
		return ckgerrors.New(ckgerrors.CodeGraphError, fmt.Sprintf("delete node %q failed", id), err.Error(), "", err)
	}

	if err := s.removeEdgesTouching(ctx, ids); err != nil {
		return err
	}
	return nil
}

// descendantIDs computes the transitive closure of id reached via
// cascadeRelTypes, excluding id itself, using a single recursive CozoScript
// rule — CozoDB evaluates recursive Datalog rules natively.
func (s *Store) descendantIDs(ctx context.Context, id string) ([]string, error) {
	script := `
reach[x] := x = $root
reach[to] := reach[from], *ckg_edge{from_id: from, to_id: to, rel_type: rt}, is_in(rt, $rel_types)
?[id] := reach[id], id != $root`

	relTypes := make([]any, len(cascadeRelTypes))
	for i, r := range cascadeRelTypes {
		relTypes[i] = string(r)
	}

	result, err := s.backend.Query(ctx, script, map[string]any{"root": id, "rel_types": relTypes})
	if err != nil {
		return nil, ckgerrors.New(ckgerrors.CodeGraphError, fmt.Sprintf("compute descendants of %q failed", id), err.Error(), "", err)
	}
	out := make([]string, 0, len(result.Rows))
	for _, row := range result.Rows {
		if len(row) == 0 {
			continue
		}
		if v, ok := row[0].(string); ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *Store) removeEdgesTouching(ctx context.Context, ids []string) error {
	idSet := make([]any, len(ids))
	for i, x := range ids {
		idSet[i] = x
	}
	script := `
?[id] := *ckg_edge{id, from_id}, is_in(from_id, $ids)
?[id] := *ckg_edge{id, to_id}, is_in(to_id, $ids)
:rm ckg_edge { id }`
	if err := s.backend.Execute(ctx, script, map[string]any{"ids": idSet}); err != nil {
		return ckgerrors.New(ckgerrors.CodeGraphError, "delete incident edges failed", err.Error(), "", err)
	}
	return nil
}

// CreateRelationship upserts a directed, typed edge. Idempotent by
// construction since its id is deterministic (EdgeID).
func (s *Store) CreateRelationship(ctx context.Context, e Edge) error {
	return s.CreateRelationships(ctx, []Edge{e})
}

// CreateRelationships upserts a batch of edges as a single parameterized
// query.
func (s *Store) CreateRelationships(ctx context.Context, edges []Edge) error {
	if len(edges) == 0 {
		return nil
	}
	rows := make([][]any, len(edges))
	for i, e := range edges {
		if err := validateEdge(e); err != nil {
			return err
		}
		if e.ID == "" {
			e.ID = EdgeID(e.From, e.To, e.Type)
		}
		propsJSON, err := json.Marshal(e.Props)
		if err != nil {
			return ckgerrors.New(ckgerrors.CodeInvalidMetadataFormat, fmt.Sprintf("edge %q props could not be encoded", e.ID), err.Error(), "", err)
		}
		rows[i] = []any{e.ID, e.From, e.To, string(e.Type), string(propsJSON)}
	}

	script := `?[id, from_id, to_id, rel_type, props] <- $rows
:put ckg_edge { id => from_id, to_id, rel_type, props }`
	if err := s.backend.Execute(ctx, script, map[string]any{"rows": rows}); err != nil {
		return ckgerrors.New(ckgerrors.CodeGraphError, fmt.Sprintf("batch create of %d relationship(s) failed", len(edges)), err.Error(), "", err)
	}
	return nil
}

// DeleteRelationship removes one edge by its (from, to, type) identity.
func (s *Store) DeleteRelationship(ctx context.Context, from, to string, relType RelType) error {
	if err := validateRelType(relType); err != nil {
		return err
	}
	id := EdgeID(from, to, relType)
	script := `?[id] <- [[$id]]
:rm ckg_edge { id }`
	if err := s.backend.Execute(ctx, script, map[string]any{"id": id}); err != nil {
		return ckgerrors.New(ckgerrors.CodeGraphError, fmt.Sprintf("delete relationship %q failed", id), err.Error(), "", err)
	}
	return nil
}

// RunQuery executes a parameterized CozoScript query directly. CozoDB's
// native numeric types don't need the arbitrary-precision-integer downcast
// a Neo4j driver would require, so this is a thin, named pass-through to
// backend.Query rather than a value-rewriting layer.
func (s *Store) RunQuery(ctx context.Context, query string, params map[string]any) (*storage.QueryResult, error) {
	result, err := s.backend.Query(ctx, query, params)
	if err != nil {
		return nil, ckgerrors.New(ckgerrors.CodeGraphError, "query failed", err.Error(), "", err)
	}
	return result, nil
}

func decodeAttrs(raw string) map[string]any {
	if raw == "" {
		return map[string]any{}
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return map[string]any{}
	}
	return out
}

func toNodeDict(id, kind, attrs string) NodeDict {
	return NodeDict{ID: id, Labels: []string{kind}, Properties: decodeAttrs(attrs)}
}

func toEdgeDict(id, relType, from, to, props string) EdgeDict {
	return EdgeDict{ID: id, Type: relType, FromNodeID: from, ToNodeID: to, Properties: decodeAttrs(props)}
}
