// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package ingestpipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/ckg/pkg/graphstore"
	"github.com/kraklabs/ckg/pkg/parser"
)

func TestIngestFiles_EmptyFileListCreatesOnlyRepositoryNode(t *testing.T) {
	graph, vectors, parserDouble := newFakeGraph(), newFakeVectors(), newFakeParser()
	p := New(graph, vectors, parserDouble, nil, nil)

	result, err := p.IngestFiles(context.Background(), nil, Options{Repository: "acme/widgets"})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, 1, result.Stats.NodesCreated)
	assert.Contains(t, graph.nodes, graphstore.RepositoryID("acme/widgets"))
}

func TestIngestFiles_RejectsReingestWithoutForce(t *testing.T) {
	graph, vectors, parserDouble := newFakeGraph(), newFakeVectors(), newFakeParser()
	p := New(graph, vectors, parserDouble, nil, nil)
	ctx := context.Background()

	_, err := p.IngestFiles(ctx, nil, Options{Repository: "acme/widgets"})
	require.NoError(t, err)

	_, err = p.IngestFiles(ctx, nil, Options{Repository: "acme/widgets"})
	assert.Error(t, err)
}

func TestIngestFiles_ForceReingestReplacesSubgraph(t *testing.T) {
	graph, vectors, parserDouble := newFakeGraph(), newFakeVectors(), newFakeParser()
	p := New(graph, vectors, parserDouble, nil, nil)
	ctx := context.Background()

	parserDouble.results["a.ts"] = &parser.ParseResult{
		Success:  true,
		Language: parser.LanguageTypeScript,
		Entities: []parser.Entity{{Name: "run", Kind: parser.EntityFunction, LineStart: 1, IsExported: true}},
	}
	files := []File{{Path: "a.ts", Content: []byte("export function run() {}")}}

	_, err := p.IngestFiles(ctx, files, Options{Repository: "acme/widgets"})
	require.NoError(t, err)
	functionID := graphstore.FunctionID("acme/widgets", "a.ts", "run", 1)
	assert.Contains(t, graph.nodes, functionID)

	result, err := p.IngestFiles(ctx, files, Options{Repository: "acme/widgets", Force: true})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, result.Status)
	assert.Contains(t, graph.nodes, functionID)
}

func TestIngestFiles_ForceReingestWriteFailureYieldsFailedStatusNotError(t *testing.T) {
	graph, vectors, parserDouble := newFakeGraph(), newFakeVectors(), newFakeParser()
	p := New(graph, vectors, parserDouble, nil, nil)
	ctx := context.Background()

	_, err := p.IngestFiles(ctx, nil, Options{Repository: "acme/widgets"})
	require.NoError(t, err)

	graph.fail = assert.AnError
	result, err := p.IngestFiles(ctx, nil, Options{Repository: "acme/widgets", Force: true})
	require.NoError(t, err, "a write failure after the force-delete must surface as a failed Result, not an error")
	require.NotNil(t, result)
	assert.Equal(t, StatusFailed, result.Status)
	assert.Equal(t, Stats{}, result.Stats)
	require.Len(t, result.Errors, 1)
	assert.NotContains(t, graph.nodes, graphstore.RepositoryID("acme/widgets"), "the prior subgraph was already torn down by the cascade delete")
}

func TestIngestFiles_PerFileParseFailureYieldsPartialStatus(t *testing.T) {
	graph, vectors, parserDouble := newFakeGraph(), newFakeVectors(), newFakeParser()
	p := New(graph, vectors, parserDouble, nil, nil)

	parserDouble.errors["broken.ts"] = assert.AnError
	parserDouble.results["ok.ts"] = &parser.ParseResult{Success: true, Language: parser.LanguageTypeScript}

	files := []File{
		{Path: "broken.ts", Content: []byte("{{{")},
		{Path: "ok.ts", Content: []byte("export const x = 1;")},
	}
	result, err := p.IngestFiles(context.Background(), files, Options{Repository: "acme/widgets"})
	require.NoError(t, err)
	assert.Equal(t, StatusPartial, result.Status)
	assert.Equal(t, 1, result.Stats.FilesProcessed)
	assert.Equal(t, 1, result.Stats.FilesFailed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "broken.ts", result.Errors[0].FilePath)
}

func TestIngestFiles_AllFilesFailingYieldsFailedStatus(t *testing.T) {
	graph, vectors, parserDouble := newFakeGraph(), newFakeVectors(), newFakeParser()
	p := New(graph, vectors, parserDouble, nil, nil)

	parserDouble.errors["broken.ts"] = assert.AnError
	files := []File{{Path: "broken.ts", Content: []byte("{{{")}}

	result, err := p.IngestFiles(context.Background(), files, Options{Repository: "acme/widgets"})
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, result.Status)
	assert.Equal(t, 0, result.Stats.FilesProcessed)
}

func TestIngestFiles_CreatesFileContainsAndEntityDefinesEdges(t *testing.T) {
	graph, vectors, parserDouble := newFakeGraph(), newFakeVectors(), newFakeParser()
	p := New(graph, vectors, parserDouble, nil, nil)

	parserDouble.results["a.ts"] = &parser.ParseResult{
		Success:  true,
		Language: parser.LanguageTypeScript,
		Entities: []parser.Entity{{Name: "Widget", Kind: parser.EntityClass, LineStart: 1, IsExported: true}},
	}
	files := []File{{Path: "a.ts", Content: []byte("export class Widget {}")}}

	_, err := p.IngestFiles(context.Background(), files, Options{Repository: "acme/widgets"})
	require.NoError(t, err)

	repoID := graphstore.RepositoryID("acme/widgets")
	fileID := graphstore.FileID("acme/widgets", "a.ts")
	classID := graphstore.ClassID("acme/widgets", "a.ts", "Widget")

	assert.Contains(t, graph.edges, graphstore.EdgeID(repoID, fileID, graphstore.RelContains))
	assert.Contains(t, graph.edges, graphstore.EdgeID(fileID, classID, graphstore.RelDefines))
}

func TestIngestFiles_NonRelativeImportCreatesModuleNodeAndEdge(t *testing.T) {
	graph, vectors, parserDouble := newFakeGraph(), newFakeVectors(), newFakeParser()
	p := New(graph, vectors, parserDouble, nil, nil)

	parserDouble.results["a.ts"] = &parser.ParseResult{
		Success:  true,
		Language: parser.LanguageTypeScript,
		Imports:  []parser.Import{{Source: "lodash", IsRelative: false}},
	}
	files := []File{{Path: "a.ts", Content: []byte("import _ from 'lodash';")}}

	_, err := p.IngestFiles(context.Background(), files, Options{Repository: "acme/widgets"})
	require.NoError(t, err)

	moduleID := graphstore.ModuleID("lodash")
	assert.Contains(t, graph.nodes, moduleID)
	fileID := graphstore.FileID("acme/widgets", "a.ts")
	assert.Contains(t, graph.edges, graphstore.EdgeID(fileID, moduleID, graphstore.RelImports))
}

func TestIngestFiles_RelativeImportIsNotTreatedAsModule(t *testing.T) {
	graph, vectors, parserDouble := newFakeGraph(), newFakeVectors(), newFakeParser()
	p := New(graph, vectors, parserDouble, nil, nil)

	parserDouble.results["a.ts"] = &parser.ParseResult{
		Success:  true,
		Language: parser.LanguageTypeScript,
		Imports:  []parser.Import{{Source: "./sibling", IsRelative: true}},
	}
	files := []File{{Path: "a.ts", Content: []byte("import {x} from './sibling';")}}

	_, err := p.IngestFiles(context.Background(), files, Options{Repository: "acme/widgets"})
	require.NoError(t, err)
	assert.NotContains(t, graph.nodes, graphstore.ModuleID("./sibling"))
}

func TestIngestFiles_ResolvesIntraFileAndCrossFileCalls(t *testing.T) {
	graph, vectors, parserDouble := newFakeGraph(), newFakeVectors(), newFakeParser()
	p := New(graph, vectors, parserDouble, nil, nil)

	parserDouble.results["a.ts"] = &parser.ParseResult{
		Success:  true,
		Language: parser.LanguageTypeScript,
		Entities: []parser.Entity{{Name: "caller", Kind: parser.EntityFunction, LineStart: 1, IsExported: true}},
		Calls:    []parser.Call{{CallerName: "caller", CalledName: "helper", LineStart: 2}},
	}
	parserDouble.results["b.ts"] = &parser.ParseResult{
		Success:  true,
		Language: parser.LanguageTypeScript,
		Entities: []parser.Entity{{Name: "helper", Kind: parser.EntityFunction, LineStart: 1, IsExported: true}},
	}
	files := []File{
		{Path: "a.ts", Content: []byte("export function caller() { helper(); }")},
		{Path: "b.ts", Content: []byte("export function helper() {}")},
	}

	_, err := p.IngestFiles(context.Background(), files, Options{Repository: "acme/widgets"})
	require.NoError(t, err)

	callerID := graphstore.FunctionID("acme/widgets", "a.ts", "caller", 1)
	calleeID := graphstore.FunctionID("acme/widgets", "b.ts", "helper", 1)
	assert.Contains(t, graph.edges, graphstore.EdgeID(callerID, calleeID, graphstore.RelCalls))
}

func TestIngestFiles_EmbedsAndUpsertsEntityChunksWhenEmbedderConfigured(t *testing.T) {
	graph, vectors, parserDouble := newFakeGraph(), newFakeVectors(), newFakeParser()
	p := New(graph, vectors, parserDouble, fakeEmbedder{dims: 4}, nil)

	parserDouble.results["a.ts"] = &parser.ParseResult{
		Success:  true,
		Language: parser.LanguageTypeScript,
		Entities: []parser.Entity{{Name: "run", Kind: parser.EntityFunction, LineStart: 1, CodeText: "function run() {}"}},
	}
	files := []File{{Path: "a.ts", Content: []byte("function run() {}")}}

	_, err := p.IngestFiles(context.Background(), files, Options{
		Repository: "acme/widgets", CollectionName: "repo_acme_widgets", EmbeddingDimensions: 4,
	})
	require.NoError(t, err)

	assert.Len(t, vectors.documents["repo_acme_widgets"], 1)
	doc := vectors.documents["repo_acme_widgets"][0]
	assert.Len(t, doc.Embedding, 4)

	chunkIDPrefix := "Chunk:acme/widgets:a.ts:0"
	assert.Contains(t, graph.nodes, chunkIDPrefix)
}

func TestIngestFiles_ProgressEventsCoverAllPhasesInOrder(t *testing.T) {
	graph, vectors, parserDouble := newFakeGraph(), newFakeVectors(), newFakeParser()
	p := New(graph, vectors, parserDouble, nil, nil)

	var phases []Phase
	_, err := p.IngestFiles(context.Background(), nil, Options{
		Repository: "acme/widgets",
		OnProgress: func(e ProgressEvent) { phases = append(phases, e.Phase) },
	})
	require.NoError(t, err)
	require.NotEmpty(t, phases)
	assert.Equal(t, PhaseInitializing, phases[0])
	assert.Equal(t, PhaseCompleted, phases[len(phases)-1])
}
