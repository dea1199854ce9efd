// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package ingestpipeline

import (
	"context"

	"github.com/kraklabs/ckg/pkg/graphstore"
	"github.com/kraklabs/ckg/pkg/parser"
	"github.com/kraklabs/ckg/pkg/vectorstore"
)

// Phase is one stage of an IngestFiles run, reported via ProgressEvent.
type Phase string

const (
	PhaseInitializing           Phase = "initializing"
	PhaseExtractingEntities     Phase = "extracting_entities"
	PhaseExtractingRelationships Phase = "extracting_relationships"
	PhaseCreatingRepositoryNode Phase = "creating_repository_node"
	PhaseCreatingFileNodes      Phase = "creating_file_nodes"
	PhaseCreatingEntityNodes    Phase = "creating_entity_nodes"
	PhaseCreatingModuleNodes    Phase = "creating_module_nodes"
	PhaseCreatingRelationships  Phase = "creating_relationships"
	PhaseVerifying              Phase = "verifying"
	PhaseCompleted              Phase = "completed"
)

// ProgressEvent is published to Options.OnProgress as IngestFiles advances.
// Publication is best-effort: a slow or absent consumer never blocks
// ingestion correctness.
type ProgressEvent struct {
	Phase      Phase
	Percentage int
	Repository string
}

// Status is IngestFiles' terminal outcome.
type Status string

const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
)

// FileError records one file's ingestion failure without aborting the run.
type FileError struct {
	FilePath string
	Message  string
}

// Stats summarizes one IngestFiles run.
type Stats struct {
	FilesProcessed       int
	FilesFailed          int
	NodesCreated         int
	RelationshipsCreated int
	NodesByType          map[string]int
	RelationshipsByType  map[string]int
	DurationMs           int64
}

// Result is IngestFiles' return value.
type Result struct {
	Status Status
	Stats  Stats
	Errors []FileError
}

// File is one source file to ingest.
type File struct {
	Path    string
	Content []byte
}

// Options controls one IngestFiles call.
type Options struct {
	Repository    string
	RepositoryURL string
	Branch        string
	Force         bool

	// NodeBatchSize and RelationshipBatchSize default to 50 and 100 when
	// zero or negative.
	NodeBatchSize         int
	RelationshipBatchSize int

	OnProgress func(ProgressEvent)

	ParseConfig parser.Config

	// CollectionName is the vector-store collection entities' chunks are
	// written to. Required only when Embedder is non-nil; the pipeline
	// does not compute it itself (pkg/repometa's SanitizeCollectionName
	// is the caller's responsibility, keeping ingestpipeline independent
	// of the metadata store).
	CollectionName string

	// EmbeddingDimensions sizes the vector-store collection when it must
	// be created. Required only when Embedder is non-nil.
	EmbeddingDimensions int
}

func (o Options) nodeBatchSize() int {
	if o.NodeBatchSize > 0 {
		return o.NodeBatchSize
	}
	return defaultNodeBatchSize
}

func (o Options) relationshipBatchSize() int {
	if o.RelationshipBatchSize > 0 {
		return o.RelationshipBatchSize
	}
	return defaultRelationshipBatchSize
}

func (o Options) publish(phase Phase, percentage int) {
	if o.OnProgress == nil {
		return
	}
	o.OnProgress(ProgressEvent{Phase: phase, Percentage: percentage, Repository: o.Repository})
}

const (
	defaultNodeBatchSize         = 50
	defaultRelationshipBatchSize = 100
)

// GraphStore is the subset of pkg/graphstore's *Store the pipeline depends
// on, kept as an interface so it can be exercised against a test double
// without the CGO-linked CozoDB library.
type GraphStore interface {
	NodeExists(ctx context.Context, id string) (bool, error)
	UpsertNodes(ctx context.Context, nodes []graphstore.Node) error
	CreateRelationships(ctx context.Context, edges []graphstore.Edge) error
	DeleteNode(ctx context.Context, id string, cascade bool) error
}

// VectorStore is the subset of pkg/vectorstore's *Store the pipeline
// depends on.
type VectorStore interface {
	GetOrCreateCollection(ctx context.Context, name string, cfg vectorstore.CollectionConfig) (*vectorstore.CollectionInfo, error)
	UpsertDocuments(ctx context.Context, collection string, docs []vectorstore.Document) error
}

// Parser is the subset of pkg/parser's *TreeSitterParser the pipeline
// depends on.
type Parser interface {
	Parse(ctx context.Context, content []byte, filename string, cfg parser.Config) (*parser.ParseResult, error)
}

// Embedder turns entity source text into embedding vectors. ckg does not
// own an embedding-provider integration (see Non-goals); callers supply
// one, same as the caller-provided onProgress sink.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
