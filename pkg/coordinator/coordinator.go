// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	ckgerrors "github.com/kraklabs/ckg/internal/errors"
	"github.com/kraklabs/ckg/pkg/graphstore"
	"github.com/kraklabs/ckg/pkg/parser"
	"github.com/kraklabs/ckg/pkg/repometa"
	"github.com/kraklabs/ckg/pkg/retry"
	"github.com/kraklabs/ckg/pkg/vectorstore"
)

// DefaultStaleLockThreshold is how long an updateInProgress flag stands
// before a subsequent UpdateRepository call treats the prior run as
// abandoned rather than concurrent.
const DefaultStaleLockThreshold = 30 * time.Minute

// DefaultUpdateHistoryLimit bounds RepositoryInfo.UpdateHistory. The spec
// leaves the exact rotation count an Open Question; 50 is chosen as a
// generous window for CLI `status --history` reporting without letting the
// metadata file grow unbounded across years of daily updates.
const DefaultUpdateHistoryLimit = 50

const timeLayout = time.RFC3339

// Coordinator implements UpdateRepository/UpdateAll (C7). It holds no
// durable state of its own; every mutation flows through graph, vectors,
// or metadata.
type Coordinator struct {
	graph    GraphStore
	vectors  VectorStore
	parser   Parser
	embedder Embedder
	metadata *repometa.Store
	logger   *slog.Logger

	retryConfig retry.Config

	// repoLocks serializes writes per repository name, the in-process half
	// of the single-writer-per-repository discipline (updateInProgress in
	// the persisted metadata is the cross-process half).
	repoLocksMu sync.Mutex
	repoLocks   map[string]*sync.Mutex
}

// New builds a Coordinator. embedder may be nil, which skips re-embedding
// added/modified files (and any vector-store writes for them).
func New(graph GraphStore, vectors VectorStore, p Parser, embedder Embedder, metadata *repometa.Store, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		graph: graph, vectors: vectors, parser: p, embedder: embedder, metadata: metadata,
		logger:      logger,
		retryConfig: retry.Config{MaxRetries: 3, InitialDelay: 200 * time.Millisecond, MaxDelay: 5 * time.Second, Multiplier: 2.0, Jitter: true, ShouldRetry: retry.ShouldRetryEngineError},
		repoLocks:   map[string]*sync.Mutex{},
	}
}

func (c *Coordinator) lockFor(name string) *sync.Mutex {
	c.repoLocksMu.Lock()
	defer c.repoLocksMu.Unlock()
	l, ok := c.repoLocks[name]
	if !ok {
		l = &sync.Mutex{}
		c.repoLocks[name] = l
	}
	return l
}

// UpdateRepository brings one repository's graph/vector state in line with
// its current git HEAD. See package doc for the step-by-step protocol.
func (c *Coordinator) UpdateRepository(ctx context.Context, name string, opts Options) (*UpdateResult, error) {
	lock := c.lockFor(name)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()

	info, ok, err := c.metadata.GetRepository(name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ckgerrors.New(ckgerrors.CodeValidation, fmt.Sprintf("repository %q is not tracked", name), "", "call ingestFiles first", nil)
	}

	staleThreshold := opts.StaleLockThreshold
	if staleThreshold <= 0 {
		staleThreshold = DefaultStaleLockThreshold
	}
	if info.UpdateInProgress && !lockIsStale(info.UpdateStartedAt, staleThreshold) {
		return nil, ckgerrors.New(ckgerrors.CodeValidation, fmt.Sprintf("repository %q has an update already in progress", name), "", "", nil)
	}

	info.UpdateInProgress = true
	info.UpdateStartedAt = time.Now().UTC().Format(timeLayout)
	if err := c.metadata.UpsertRepository(info); err != nil {
		return nil, err
	}

	result, updateErr := c.runUpdate(ctx, &info, opts, start)

	info.UpdateInProgress = false
	info.UpdateStartedAt = ""
	if persistErr := c.metadata.UpsertRepository(info); persistErr != nil {
		c.logger.Warn("coordinator: failed to clear updateInProgress", "repository", name, "error", persistErr)
	}

	if updateErr != nil {
		return nil, updateErr
	}
	return result, nil
}

func lockIsStale(startedAt string, threshold time.Duration) bool {
	if startedAt == "" {
		return true
	}
	t, err := time.Parse(timeLayout, startedAt)
	if err != nil {
		return true
	}
	return time.Since(t) > threshold
}

func (c *Coordinator) runUpdate(ctx context.Context, info *repometa.RepositoryInfo, opts Options, start time.Time) (*UpdateResult, error) {
	detector := newGitDeltaDetector(info.LocalPath, opts.RenamePercent, c.logger)

	var newHead string
	if err := retry.Do(ctx, func() error {
		head, err := detector.resolveRef("HEAD")
		if err != nil {
			return err
		}
		newHead = head
		return nil
	}, c.retryConfig); err != nil {
		return nil, ckgerrors.New(ckgerrors.CodeGraphError, "resolve repository HEAD failed", err.Error(), "", err)
	}

	if newHead == info.LastIndexedCommitSha && info.LastIndexedCommitSha != "" {
		return &UpdateResult{Status: StatusNoChanges, PreviousCommit: info.LastIndexedCommitSha, NewCommit: newHead, DurationMs: time.Since(start).Milliseconds()}, nil
	}

	delta, err := detector.detect(info.LastIndexedCommitSha, newHead)
	if err != nil {
		return nil, ckgerrors.New(ckgerrors.CodeGraphError, "compute repository diff failed", err.Error(), "", err)
	}
	delta = filterDelta(delta, opts.ExcludeGlobs, opts.MaxFileSizeBytes, info.LocalPath)

	result := &UpdateResult{PreviousCommit: info.LastIndexedCommitSha, NewCommit: newHead}
	if delta.isEmpty() {
		result.Status = StatusNoChanges
		result.DurationMs = time.Since(start).Milliseconds()
		return result, nil
	}

	deleted := append(append([]string{}, delta.Deleted...), renamedOldPaths(delta.Renamed)...)
	for _, path := range deleted {
		if err := c.deleteFile(ctx, info, path, result); err != nil {
			result.Errors = append(result.Errors, FileUpdateError{FilePath: path, Message: err.Error()})
			continue
		}
		result.FilesDeleted++
	}

	changed := append(append([]string{}, delta.Added...), delta.Modified...)
	for oldPath, newPath := range delta.Renamed {
		_ = oldPath
		changed = append(changed, newPath)
	}
	addedSet := toSet(delta.Added)
	for _, path := range changed {
		if err := c.upsertFile(ctx, info, path, opts, result); err != nil {
			result.Errors = append(result.Errors, FileUpdateError{FilePath: path, Message: err.Error()})
			continue
		}
		if addedSet[path] {
			result.FilesAdded++
		} else {
			result.FilesModified++
		}
	}

	result.DurationMs = time.Since(start).Milliseconds()
	switch {
	case len(result.Errors) == 0:
		result.Status = StatusSuccess
	case result.FilesAdded+result.FilesModified+result.FilesDeleted > 0:
		result.Status = StatusPartial
	default:
		result.Status = StatusFailed
	}

	if result.Status != StatusFailed {
		info.FileCount = clampNonNegative(info.FileCount + result.FilesAdded - result.FilesDeleted)
		info.ChunkCount = clampNonNegative(info.ChunkCount + result.ChunksUpserted - result.ChunksDeleted)
		info.LastIndexedCommitSha = newHead
		info.LastIncrementalUpdateAt = time.Now().UTC().Format(timeLayout)
		info.IncrementalUpdateCount++
		info.UpdateHistory = pushHistory(info.UpdateHistory, UpdateHistoryEntryFrom(result, info.LastIncrementalUpdateAt))
	}
	return result, nil
}

func renamedOldPaths(renamed map[string]string) []string {
	out := make([]string, 0, len(renamed))
	for old := range renamed {
		out = append(out, old)
	}
	return out
}

func clampNonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func toSet(items []string) map[string]bool {
	out := make(map[string]bool, len(items))
	for _, it := range items {
		out[it] = true
	}
	return out
}

func (c *Coordinator) deleteFile(ctx context.Context, info *repometa.RepositoryInfo, path string, result *UpdateResult) error {
	count, err := c.vectors.DeleteDocumentsByFilePrefix(ctx, info.CollectionName, info.Name, path)
	if err != nil {
		return err
	}
	result.ChunksDeleted += count

	fileID := graphstore.FileID(info.Name, path)
	return c.graph.DeleteNode(ctx, fileID, true)
}

func (c *Coordinator) upsertFile(ctx context.Context, info *repometa.RepositoryInfo, path string, opts Options, result *UpdateResult) error {
	content, err := os.ReadFile(filepath.Join(info.LocalPath, path))
	if err != nil {
		return err
	}

	parsed, err := c.parser.Parse(ctx, content, path, opts.ParseConfig)
	if err != nil {
		return err
	}

	fileID := graphstore.FileID(info.Name, path)
	// Replace any prior entity subgraph for this file before writing the
	// fresh one: DeleteNode(cascade) removes the file node and everything
	// DEFINES/HAS_CHUNK'd from it, orphaning nothing.
	if exists, err := c.graph.NodeExists(ctx, fileID); err != nil {
		return err
	} else if exists {
		if err := c.graph.DeleteNode(ctx, fileID, true); err != nil {
			return err
		}
	}

	repoID := graphstore.RepositoryID(info.Name)
	nodes := []graphstore.Node{{
		ID: fileID, Kind: graphstore.KindFile,
		Attrs: map[string]any{"path": path, "language": string(parsed.Language)},
	}}
	edges := []graphstore.Edge{{From: repoID, To: fileID, Type: graphstore.RelContains}}

	var chunkDocs []vectorstore.Document
	for i, e := range parsed.Entities {
		id, kind, ok := coordinatorEntityIdentity(info.Name, path, e)
		if !ok {
			continue
		}
		nodes = append(nodes, graphstore.Node{ID: id, Kind: kind, Attrs: map[string]any{"name": e.Name, "lineStart": e.LineStart, "lineEnd": e.LineEnd, "isExported": e.IsExported}})
		edges = append(edges, graphstore.Edge{From: fileID, To: id, Type: graphstore.RelDefines})

		if c.embedder != nil && e.CodeText != "" {
			docID := fmt.Sprintf("%s:%s:%d", info.Name, path, i)
			chunkDocs = append(chunkDocs, vectorstore.Document{
				ID: docID, Content: e.CodeText,
				Metadata: map[string]any{"repository": info.Name, "file_path": path, "entity_name": e.Name},
			})
			chunkID := graphstore.ChunkID(docID)
			nodes = append(nodes, graphstore.Node{ID: chunkID, Kind: graphstore.KindChunk, Attrs: map[string]any{"documentId": docID}})
			edges = append(edges, graphstore.Edge{From: fileID, To: chunkID, Type: graphstore.RelHasChunk})
		}
	}

	for _, imp := range parsed.Imports {
		if imp.IsRelative {
			continue
		}
		moduleID := graphstore.ModuleID(imp.Source)
		nodes = append(nodes, graphstore.Node{ID: moduleID, Kind: graphstore.KindModule, Attrs: map[string]any{"name": imp.Source}})
		edges = append(edges, graphstore.Edge{From: fileID, To: moduleID, Type: graphstore.RelImports})
	}

	if err := c.graph.UpsertNodes(ctx, nodes); err != nil {
		return err
	}
	if err := c.graph.CreateRelationships(ctx, edges); err != nil {
		return err
	}

	if c.embedder != nil && len(chunkDocs) > 0 {
		texts := make([]string, len(chunkDocs))
		for i, d := range chunkDocs {
			texts[i] = d.Content
		}
		vectors, err := c.embedder.Embed(ctx, texts)
		if err != nil {
			return err
		}
		for i := range chunkDocs {
			if i < len(vectors) {
				chunkDocs[i].Embedding = vectors[i]
			}
		}
		if err := c.vectors.UpsertDocuments(ctx, info.CollectionName, chunkDocs); err != nil {
			return err
		}
		result.ChunksUpserted += len(chunkDocs)
	}
	return nil
}

func coordinatorEntityIdentity(repository, filePath string, e parser.Entity) (string, graphstore.NodeKind, bool) {
	switch e.Kind {
	case parser.EntityFunction:
		return graphstore.FunctionID(repository, filePath, e.Name, e.LineStart), graphstore.KindFunction, true
	case parser.EntityClass:
		return graphstore.ClassID(repository, filePath, e.Name), graphstore.KindClass, true
	case parser.EntityInterface:
		return graphstore.InterfaceID(repository, filePath, e.Name), graphstore.KindInterface, true
	case parser.EntityTypeAlias:
		return graphstore.TypeAliasID(repository, filePath, e.Name), graphstore.KindTypeAlias, true
	case parser.EntityEnum:
		return graphstore.EnumID(repository, filePath, e.Name), graphstore.KindEnum, true
	default:
		return "", "", false
	}
}

// UpdateHistoryEntryFrom builds a repometa.UpdateHistoryEntry from one
// UpdateRepository run.
func UpdateHistoryEntryFrom(r *UpdateResult, timestamp string) repometa.UpdateHistoryEntry {
	return repometa.UpdateHistoryEntry{
		Timestamp:      timestamp,
		PreviousCommit: r.PreviousCommit,
		NewCommit:      r.NewCommit,
		FilesAdded:     r.FilesAdded,
		FilesModified:  r.FilesModified,
		FilesDeleted:   r.FilesDeleted,
		ChunksUpserted: r.ChunksUpserted,
		ChunksDeleted:  r.ChunksDeleted,
		DurationMs:     r.DurationMs,
		ErrorCount:     len(r.Errors),
		Status:         string(r.Status),
	}
}

func pushHistory(history []repometa.UpdateHistoryEntry, entry repometa.UpdateHistoryEntry) []repometa.UpdateHistoryEntry {
	history = append([]repometa.UpdateHistoryEntry{entry}, history...)
	if len(history) > DefaultUpdateHistoryLimit {
		history = history[:DefaultUpdateHistoryLimit]
	}
	return history
}

// UpdateAll iterates every ready repository sequentially, continuing past
// per-repository failures.
func (c *Coordinator) UpdateAll(ctx context.Context, opts Options) (*BatchSummary, error) {
	repos, err := c.metadata.ListRepositories()
	if err != nil {
		return nil, err
	}

	summary := &BatchSummary{Total: len(repos)}
	for _, info := range repos {
		if info.Status != repometa.StatusReady {
			continue
		}
		summary.Current = info.Name
		result, err := c.UpdateRepository(ctx, info.Name, opts)
		if err != nil {
			summary.Failed++
			summary.Results = append(summary.Results, RepoOutcome{Repository: info.Name, Error: err.Error()})
			continue
		}
		if result.Status == StatusFailed {
			summary.Failed++
		} else {
			summary.Updated++
		}
		summary.Results = append(summary.Results, RepoOutcome{Repository: info.Name, Result: result})
	}
	summary.Current = ""
	return summary, nil
}
