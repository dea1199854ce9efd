// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package coordinator

import (
	"context"
	"time"

	"github.com/kraklabs/ckg/pkg/graphstore"
	"github.com/kraklabs/ckg/pkg/parser"
	"github.com/kraklabs/ckg/pkg/vectorstore"
)

// UpdateStatus is UpdateRepository's terminal outcome.
type UpdateStatus string

const (
	StatusNoChanges UpdateStatus = "no_changes"
	StatusSuccess   UpdateStatus = "success"
	StatusPartial   UpdateStatus = "partial"
	StatusFailed    UpdateStatus = "failed"
)

// FileUpdateError records one file's incremental-update failure without
// aborting the rest of the run.
type FileUpdateError struct {
	FilePath string
	Message  string
}

// UpdateResult is UpdateRepository's return value.
type UpdateResult struct {
	Status         UpdateStatus
	PreviousCommit string
	NewCommit      string
	FilesAdded     int
	FilesModified  int
	FilesDeleted   int
	ChunksUpserted int
	ChunksDeleted  int
	DurationMs     int64
	Errors         []FileUpdateError
}

// RepoOutcome pairs one repository's UpdateAll attempt with its outcome.
type RepoOutcome struct {
	Repository string
	Result     *UpdateResult
	Error      string
}

// BatchSummary is UpdateAll's return value.
type BatchSummary struct {
	Total   int
	Updated int
	Current string
	Failed  int
	Results []RepoOutcome
}

// Options controls one UpdateRepository call.
type Options struct {
	// ExcludeGlobs and MaxFileSizeBytes filter the delta the same way
	// initial ingestion filters its file walk.
	ExcludeGlobs     []string
	MaxFileSizeBytes int64

	// RenamePercent is git diff -M's similarity threshold for rename
	// detection (0 uses git's default of 50).
	RenamePercent int

	// StaleLockThreshold is how long an updateInProgress flag may stand
	// before a new UpdateRepository call treats it as abandoned rather
	// than concurrent. Zero uses DefaultStaleLockThreshold.
	StaleLockThreshold time.Duration

	NodeBatchSize         int
	RelationshipBatchSize int

	ParseConfig parser.Config
}

// GraphStore is the subset of pkg/graphstore's *Store the coordinator
// depends on.
type GraphStore interface {
	NodeExists(ctx context.Context, id string) (bool, error)
	UpsertNodes(ctx context.Context, nodes []graphstore.Node) error
	CreateRelationships(ctx context.Context, edges []graphstore.Edge) error
	DeleteNode(ctx context.Context, id string, cascade bool) error
}

// VectorStore is the subset of pkg/vectorstore's *Store the coordinator
// depends on.
type VectorStore interface {
	UpsertDocuments(ctx context.Context, collection string, docs []vectorstore.Document) error
	DeleteDocumentsByFilePrefix(ctx context.Context, collection, repository, filePath string) (int, error)
}

// Parser is the subset of pkg/parser's *TreeSitterParser the coordinator
// depends on.
type Parser interface {
	Parse(ctx context.Context, content []byte, filename string, cfg parser.Config) (*parser.ParseResult, error)
}

// Embedder turns changed-file chunk text into embedding vectors. A nil
// Embedder skips re-embedding (and vector-store writes) for added/modified
// files, mirroring pkg/ingestpipeline's optional Embedder.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
