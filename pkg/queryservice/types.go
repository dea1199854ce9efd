// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package queryservice

import (
	"context"

	"github.com/kraklabs/ckg/pkg/graphstore"
)

// GraphStore is the subset of *graphstore.Store the query service depends
// on, satisfied by the real store automatically and by a fake in tests.
type GraphStore interface {
	AnalyzeDependencies(ctx context.Context, req graphstore.DependencyRequest) (*graphstore.DependencyResult, error)
	Traverse(ctx context.Context, req graphstore.TraverseRequest) (*graphstore.TraverseResult, error)
	GetContext(ctx context.Context, req graphstore.ContextRequest) (*graphstore.ContextResult, error)
}

// DependencyInput is the input to GetDependencies.
type DependencyInput struct {
	Target     graphstore.NodeRef
	Direction  graphstore.DependencyDirection
	Transitive bool
	MaxDepth   int
}

// DetailLevel controls how much of a repository's subgraph GetArchitecture
// returns.
type DetailLevel string

const (
	DetailModules  DetailLevel = "modules"
	DetailFiles    DetailLevel = "files"
	DetailEntities DetailLevel = "entities"
)

// ArchitectureInput is the input to GetArchitecture.
type ArchitectureInput struct {
	Repository  string
	DetailLevel DetailLevel
	Limit       int
}

// ArchitectureResult is the repository subgraph projected to the requested
// detail level.
type ArchitectureResult struct {
	Repository string
	Nodes      []graphstore.NodeDict
	Edges      []graphstore.EdgeDict
}

// ContextInput is the input to GetRelatedContext.
type ContextInput struct {
	Seeds          []graphstore.NodeRef
	IncludeContext []graphstore.ContextKind
	Limit          int
}

// entityKinds are the node kinds GetArchitecture's "entities" detail level
// surfaces; everything else in the graph (File, Module, Repository, Chunk)
// is structural, not a code entity.
var entityKinds = map[graphstore.NodeKind]bool{
	graphstore.KindFunction:  true,
	graphstore.KindClass:     true,
	graphstore.KindInterface: true,
	graphstore.KindTypeAlias: true,
	graphstore.KindEnum:      true,
}

// knownContextKinds is the closed set GetRelatedContext validates
// IncludeContext against.
var knownContextKinds = map[graphstore.ContextKind]bool{
	graphstore.ContextImports:       true,
	graphstore.ContextCallers:       true,
	graphstore.ContextCallees:       true,
	graphstore.ContextSiblings:      true,
	graphstore.ContextDocumentation: true,
}

const (
	defaultArchitectureLimit = 500
	maxArchitectureLimit     = 1000
)
