// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package queryservice

import (
	"context"
	"fmt"
	"log/slog"

	ckgerrors "github.com/kraklabs/ckg/internal/errors"
	"github.com/kraklabs/ckg/pkg/graphstore"
)

// Service is the query service (C8). It holds no state beyond its graph
// store client.
type Service struct {
	graph  GraphStore
	logger *slog.Logger
}

// New builds a Service.
func New(graph GraphStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{graph: graph, logger: logger}
}

// GetDependencies reports a node's fan-in/fan-out by delegating straight to
// AnalyzeDependencies.
func (s *Service) GetDependencies(ctx context.Context, in DependencyInput) (*graphstore.DependencyResult, error) {
	if err := validateTarget(in.Target); err != nil {
		return nil, err
	}
	result, err := s.graph.AnalyzeDependencies(ctx, graphstore.DependencyRequest{
		Target: in.Target, Direction: in.Direction, Transitive: in.Transitive, MaxDepth: in.MaxDepth,
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetArchitecture issues one repository-scoped Traverse over
// CONTAINS/DEFINES/IMPORTS and projects the returned subgraph down to the
// node kinds in.DetailLevel calls for.
func (s *Service) GetArchitecture(ctx context.Context, in ArchitectureInput) (*ArchitectureResult, error) {
	if in.Repository == "" {
		return nil, ckgerrors.New(ckgerrors.CodeValidation, "repository is required", "", "pass a non-empty repository name", nil)
	}
	switch in.DetailLevel {
	case DetailModules, DetailFiles, DetailEntities:
	default:
		return nil, ckgerrors.New(ckgerrors.CodeValidation,
			fmt.Sprintf("unknown detail level %q", in.DetailLevel), "",
			"use one of modules, files, entities", nil)
	}

	limit := in.Limit
	if limit <= 0 {
		limit = defaultArchitectureLimit
	}
	if limit > maxArchitectureLimit {
		limit = maxArchitectureLimit
	}

	subgraph, err := s.graph.Traverse(ctx, graphstore.TraverseRequest{
		Start:         graphstore.NodeRef{Kind: graphstore.KindRepository, Identifier: in.Repository},
		Relationships: []graphstore.RelType{graphstore.RelContains, graphstore.RelDefines, graphstore.RelImports},
		Depth:         5,
		Limit:         limit,
	})
	if err != nil {
		return nil, err
	}

	result := &ArchitectureResult{Repository: in.Repository}
	kept := make(map[string]bool)
	for _, n := range subgraph.Nodes {
		if !nodeMatchesDetail(n, in.DetailLevel) {
			continue
		}
		result.Nodes = append(result.Nodes, n)
		kept[n.ID] = true
	}
	for _, e := range subgraph.Edges {
		if kept[e.FromNodeID] && kept[e.ToNodeID] {
			result.Edges = append(result.Edges, e)
		}
	}
	return result, nil
}

func nodeMatchesDetail(n graphstore.NodeDict, detail DetailLevel) bool {
	var kind graphstore.NodeKind
	if len(n.Labels) > 0 {
		kind = graphstore.NodeKind(n.Labels[0])
	}
	switch detail {
	case DetailModules:
		return kind == graphstore.KindModule
	case DetailFiles:
		return kind == graphstore.KindFile
	case DetailEntities:
		return entityKinds[kind]
	default:
		return false
	}
}

// GetRelatedContext expands outward from in.Seeds by delegating straight to
// GetContext.
func (s *Service) GetRelatedContext(ctx context.Context, in ContextInput) (*graphstore.ContextResult, error) {
	if len(in.Seeds) == 0 {
		return nil, ckgerrors.New(ckgerrors.CodeValidation, "at least one seed is required", "", "", nil)
	}
	for _, seed := range in.Seeds {
		if err := validateTarget(seed); err != nil {
			return nil, err
		}
	}
	for _, kind := range in.IncludeContext {
		if !knownContextKinds[kind] {
			return nil, ckgerrors.New(ckgerrors.CodeValidation,
				fmt.Sprintf("unknown context kind %q", kind), "",
				"use one of imports, callers, callees, siblings, documentation", nil)
		}
	}

	result, err := s.graph.GetContext(ctx, graphstore.ContextRequest{
		Seeds: in.Seeds, IncludeContext: in.IncludeContext, Limit: in.Limit,
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func validateTarget(ref graphstore.NodeRef) error {
	if ref.Repository == "" {
		return ckgerrors.New(ckgerrors.CodeValidation, "repository scope is required", "", "pass NodeRef.Repository", nil)
	}
	if ref.Identifier == "" {
		return ckgerrors.New(ckgerrors.CodeValidation, "identifier is required", "", "", nil)
	}
	if !knownNodeKinds[ref.Kind] {
		return ckgerrors.New(ckgerrors.CodeValidation,
			fmt.Sprintf("unknown node kind %q", ref.Kind), "",
			"use one of Repository, File, Function, Class, Interface, TypeAlias, Enum, Module, Chunk", nil)
	}
	return nil
}

var knownNodeKinds = map[graphstore.NodeKind]bool{
	graphstore.KindRepository: true,
	graphstore.KindFile:       true,
	graphstore.KindFunction:   true,
	graphstore.KindClass:      true,
	graphstore.KindInterface:  true,
	graphstore.KindTypeAlias:  true,
	graphstore.KindEnum:       true,
	graphstore.KindModule:     true,
	graphstore.KindChunk:      true,
}
