// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package ingestpipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	ckgerrors "github.com/kraklabs/ckg/internal/errors"
	"github.com/kraklabs/ckg/pkg/graphstore"
	"github.com/kraklabs/ckg/pkg/parser"
	"github.com/kraklabs/ckg/pkg/vectorstore"
)

// Pipeline implements IngestFiles (C5), wiring pkg/parser's extraction
// output into pkg/graphstore node/relationship writes and, when an
// Embedder is configured, pkg/vectorstore chunk documents.
type Pipeline struct {
	graph    GraphStore
	vectors  VectorStore
	parser   Parser
	embedder Embedder
	logger   *slog.Logger
}

// New builds a Pipeline. embedder may be nil: without one, entity chunks
// are not embedded or written to the vector store, but graph ingestion
// still runs in full.
func New(graph GraphStore, vectors VectorStore, p Parser, embedder Embedder, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{graph: graph, vectors: vectors, parser: p, embedder: embedder, logger: logger}
}

type parsedFile struct {
	path     string
	result   *parser.ParseResult
	entities []entityRecord
}

type entityRecord struct {
	id     string
	kind   graphstore.NodeKind
	entity parser.Entity
}

// IngestFiles parses files and writes the resulting subgraph to the graph
// store (and, when configured, entity chunks to the vector store). Per-file
// parse failures are recorded in Result.Errors and do not abort the run.
func (p *Pipeline) IngestFiles(ctx context.Context, files []File, opts Options) (*Result, error) {
	start := time.Now()
	opts.publish(PhaseInitializing, 0)

	repoID := graphstore.RepositoryID(opts.Repository)
	exists, err := p.graph.NodeExists(ctx, repoID)
	if err != nil {
		return nil, err
	}
	if exists && !opts.Force {
		return nil, ckgerrors.New(ckgerrors.CodeRepositoryExists,
			fmt.Sprintf("repository %q already exists", opts.Repository),
			"ingestFiles was called without force for a repository that has already been indexed",
			"pass Force=true to re-ingest, or call updateRepository for an incremental update",
			nil)
	}
	// postDelete is true once a force-reingest has torn down the prior
	// repository subgraph. From that point on, a write failure must not
	// surface as a bare error: the repository's prior state is already
	// gone, so the caller needs a terminal Result{Status: StatusFailed}
	// with zeroed stats, not an ambiguous error that leaves metadata
	// pointing at data that no longer exists.
	var postDelete bool
	failWrite := func(err error) (*Result, error) {
		if postDelete {
			return &Result{Status: StatusFailed, Stats: Stats{}, Errors: []FileError{{Message: err.Error()}}}, nil
		}
		return nil, err
	}

	if exists && opts.Force {
		if err := p.graph.DeleteNode(ctx, repoID, true); err != nil {
			return nil, err
		}
		postDelete = true
	}

	if p.embedder != nil {
		if _, err := p.vectors.GetOrCreateCollection(ctx, opts.CollectionName, vectorstore.CollectionConfig{
			Dimensions: opts.EmbeddingDimensions, Distance: "cosine",
		}); err != nil {
			return failWrite(err)
		}
	}

	stats := Stats{NodesByType: map[string]int{}, RelationshipsByType: map[string]int{}}
	var fileErrors []FileError

	opts.publish(PhaseExtractingEntities, 10)
	parsed := make([]parsedFile, 0, len(files))
	for _, f := range files {
		result, err := p.parser.Parse(ctx, f.Content, f.Path, opts.ParseConfig)
		if err != nil {
			stats.FilesFailed++
			fileErrors = append(fileErrors, FileError{FilePath: f.Path, Message: err.Error()})
			continue
		}
		pf := parsedFile{path: f.Path, result: result}
		for _, e := range result.Entities {
			id, kind, ok := entityIdentity(opts.Repository, f.Path, e)
			if !ok {
				continue
			}
			pf.entities = append(pf.entities, entityRecord{id: id, kind: kind, entity: e})
		}
		parsed = append(parsed, pf)
		stats.FilesProcessed++
	}

	opts.publish(PhaseExtractingRelationships, 25)
	globalNames := buildGlobalNameIndex(parsed)

	opts.publish(PhaseCreatingRepositoryNode, 35)
	if err := p.graph.UpsertNodes(ctx, []graphstore.Node{{
		ID: repoID, Kind: graphstore.KindRepository,
		Attrs: map[string]any{"name": opts.Repository, "url": opts.RepositoryURL, "branch": opts.Branch},
	}}); err != nil {
		return failWrite(err)
	}
	stats.NodesCreated++
	stats.NodesByType[string(graphstore.KindRepository)]++

	batcher := newBatcher(p.graph, opts.nodeBatchSize(), opts.relationshipBatchSize(), &stats)

	opts.publish(PhaseCreatingFileNodes, 45)
	for _, pf := range parsed {
		fileID := graphstore.FileID(opts.Repository, pf.path)
		if err := batcher.addNode(ctx, graphstore.Node{
			ID: fileID, Kind: graphstore.KindFile,
			Attrs: map[string]any{"path": pf.path, "language": string(pf.result.Language)},
		}); err != nil {
			return failWrite(err)
		}
		if err := batcher.addEdge(ctx, graphstore.Edge{From: repoID, To: fileID, Type: graphstore.RelContains}); err != nil {
			return failWrite(err)
		}
	}

	opts.publish(PhaseCreatingEntityNodes, 60)
	var chunkDocs []vectorstore.Document
	chunkIndex := map[string]int{}
	for _, pf := range parsed {
		fileID := graphstore.FileID(opts.Repository, pf.path)
		for _, rec := range pf.entities {
			if err := batcher.addNode(ctx, graphstore.Node{ID: rec.id, Kind: rec.kind, Attrs: entityAttrs(rec.entity)}); err != nil {
				return failWrite(err)
			}
			if err := batcher.addEdge(ctx, graphstore.Edge{From: fileID, To: rec.id, Type: graphstore.RelDefines}); err != nil {
				return failWrite(err)
			}

			if p.embedder != nil && rec.entity.CodeText != "" {
				idx := chunkIndex[pf.path]
				chunkIndex[pf.path] = idx + 1
				docID := fmt.Sprintf("%s:%s:%d", opts.Repository, pf.path, idx)
				chunkDocs = append(chunkDocs, vectorstore.Document{
					ID:      docID,
					Content: rec.entity.CodeText,
					Metadata: map[string]any{
						"repository": opts.Repository, "file_path": pf.path,
						"entity_name": rec.entity.Name, "entity_kind": string(rec.entity.Kind),
					},
				})
				chunkID := graphstore.ChunkID(docID)
				if err := batcher.addNode(ctx, graphstore.Node{ID: chunkID, Kind: graphstore.KindChunk, Attrs: map[string]any{"documentId": docID}}); err != nil {
					return failWrite(err)
				}
				if err := batcher.addEdge(ctx, graphstore.Edge{From: fileID, To: chunkID, Type: graphstore.RelHasChunk}); err != nil {
					return failWrite(err)
				}
			}
		}
	}

	opts.publish(PhaseCreatingModuleNodes, 72)
	seenModules := map[string]bool{}
	for _, pf := range parsed {
		fileID := graphstore.FileID(opts.Repository, pf.path)
		for _, imp := range pf.result.Imports {
			if imp.IsRelative {
				continue
			}
			moduleID := graphstore.ModuleID(imp.Source)
			if !seenModules[moduleID] {
				seenModules[moduleID] = true
				if err := batcher.addNode(ctx, graphstore.Node{ID: moduleID, Kind: graphstore.KindModule, Attrs: map[string]any{"name": imp.Source}}); err != nil {
					return failWrite(err)
				}
			}
			if err := batcher.addEdge(ctx, graphstore.Edge{From: fileID, To: moduleID, Type: graphstore.RelImports}); err != nil {
				return failWrite(err)
			}
		}
	}

	opts.publish(PhaseCreatingRelationships, 85)
	for _, pf := range parsed {
		callerIDs := localNameIndex(pf.entities)
		for _, call := range pf.result.Calls {
			callerID, ok := callerIDs[call.CallerName]
			if !ok {
				continue
			}
			calleeID, ok := callerIDs[call.CalledName]
			if !ok {
				calleeID, ok = globalNames[call.CalledName]
				if !ok {
					continue
				}
			}
			if err := batcher.addEdge(ctx, graphstore.Edge{From: callerID, To: calleeID, Type: graphstore.RelCalls}); err != nil {
				return failWrite(err)
			}
		}
	}

	if err := batcher.flush(ctx); err != nil {
		return failWrite(err)
	}

	if p.embedder != nil && len(chunkDocs) > 0 {
		if err := p.embedAndUpsert(ctx, opts, chunkDocs); err != nil {
			return failWrite(err)
		}
	}

	opts.publish(PhaseVerifying, 95)
	stats.DurationMs = time.Since(start).Milliseconds()

	status := StatusSuccess
	switch {
	case stats.FilesProcessed == 0 && len(fileErrors) > 0:
		status = StatusFailed
	case stats.FilesFailed > 0 && stats.FilesProcessed > 0:
		status = StatusPartial
	}

	opts.publish(PhaseCompleted, 100)
	return &Result{Status: status, Stats: stats, Errors: fileErrors}, nil
}

func (p *Pipeline) embedAndUpsert(ctx context.Context, opts Options, docs []vectorstore.Document) error {
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}
	vectors, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		return ckgerrors.New(ckgerrors.CodeExtractionError, "embedding entity chunks failed", err.Error(), "", err)
	}
	for i := range docs {
		if i < len(vectors) {
			docs[i].Embedding = vectors[i]
		}
	}
	return p.vectors.UpsertDocuments(ctx, opts.CollectionName, docs)
}

func entityIdentity(repository, filePath string, e parser.Entity) (string, graphstore.NodeKind, bool) {
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

func entityAttrs(e parser.Entity) map[string]any {
	attrs := map[string]any{
		"name": e.Name, "lineStart": e.LineStart, "lineEnd": e.LineEnd, "isExported": e.IsExported,
	}
	if e.Kind == parser.EntityFunction {
		attrs["isAsync"] = e.IsAsync
		attrs["isGenerator"] = e.IsGenerator
		attrs["returnType"] = e.ReturnType
	}
	if e.Kind == parser.EntityClass {
		attrs["extends"] = e.Extends
		attrs["implements"] = e.Implements
		attrs["isAbstract"] = e.IsAbstract
	}
	if e.Documentation != "" {
		attrs["documentation"] = e.Documentation
	}
	return attrs
}

// localNameIndex maps a file's own entity names to their node ids, for
// resolving call sites within the same file.
func localNameIndex(entities []entityRecord) map[string]string {
	out := make(map[string]string, len(entities))
	for _, rec := range entities {
		out[rec.entity.Name] = rec.id
	}
	return out
}

// buildGlobalNameIndex generalizes the teacher's cross-package function
// registry (pkg/ingestion/resolver.go's CallResolver.globalFunctions) to a
// single repo-wide name→id map: TS/JS imports name their source module
// explicitly, so there is no package-path scoping to reconstruct the way
// the Go resolver needs. A name collision across files keeps the
// first-seen id; ambiguous same-named exports across files are a known
// limitation, not a crash.
func buildGlobalNameIndex(parsed []parsedFile) map[string]string {
	out := map[string]string{}
	for _, pf := range parsed {
		for _, rec := range pf.entities {
			if !rec.entity.IsExported {
				continue
			}
			if _, exists := out[rec.entity.Name]; !exists {
				out[rec.entity.Name] = rec.id
			}
		}
	}
	return out
}
