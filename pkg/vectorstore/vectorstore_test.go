// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package vectorstore

import (
	"context"
	"testing"

	ckgerrors "github.com/kraklabs/ckg/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() (*Store, *fakeBackend) {
	fb := newFakeBackend()
	return New(fb, nil), fb
}

func TestGetOrCreateCollection_CreatesAndIsIdempotent(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	info1, err := store.GetOrCreateCollection(ctx, "repo_demo", CollectionConfig{Dimensions: 4})
	require.NoError(t, err)
	assert.Equal(t, "repo_demo", info1.Name)
	assert.Equal(t, 0, info1.Count)

	info2, err := store.GetOrCreateCollection(ctx, "repo_demo", CollectionConfig{Dimensions: 4})
	require.NoError(t, err)
	assert.Equal(t, info1.Name, info2.Name)
}

func TestGetOrCreateCollection_RejectsInvalidName(t *testing.T) {
	store, _ := newTestStore()
	_, err := store.GetOrCreateCollection(context.Background(), "bad name!", CollectionConfig{Dimensions: 4})
	require.Error(t, err)
	assert.Equal(t, ckgerrors.CodeValidation, ckgerrors.CodeOf(err))
}

func TestGetOrCreateCollection_RejectsNonCosineDistance(t *testing.T) {
	store, _ := newTestStore()
	_, err := store.GetOrCreateCollection(context.Background(), "repo_demo", CollectionConfig{Dimensions: 4, Distance: "euclidean"})
	require.Error(t, err)
	assert.Equal(t, ckgerrors.CodeValidation, ckgerrors.CodeOf(err))
}

func TestDeleteCollection_ClearsCache(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	_, err := store.GetOrCreateCollection(ctx, "repo_demo", CollectionConfig{Dimensions: 4})
	require.NoError(t, err)

	require.NoError(t, store.DeleteCollection(ctx, "repo_demo"))

	_, ok := store.handle("repo_demo")
	assert.False(t, ok)
}

func TestDeleteCollection_MissingIsNotError(t *testing.T) {
	store, _ := newTestStore()
	assert.NoError(t, store.DeleteCollection(context.Background(), "repo_never_created"))
}

func TestListCollections_ReportsCount(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	_, err := store.GetOrCreateCollection(ctx, "repo_a", CollectionConfig{Dimensions: 2})
	require.NoError(t, err)

	err = store.UpsertDocuments(ctx, "repo_a", []Document{
		{ID: "d1", Content: "hello", Embedding: []float32{1, 0}},
	})
	require.NoError(t, err)

	cols, err := store.ListCollections(ctx)
	require.NoError(t, err)
	require.Len(t, cols, 1)
	assert.Equal(t, "repo_a", cols[0].Name)
	assert.Equal(t, 1, cols[0].Count)
}

func TestAddDocuments_FailsOnDuplicateID(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	_, err := store.GetOrCreateCollection(ctx, "repo_demo", CollectionConfig{Dimensions: 2})
	require.NoError(t, err)

	doc := Document{ID: "d1", Content: "x", Embedding: []float32{1, 0}}
	require.NoError(t, store.AddDocuments(ctx, "repo_demo", []Document{doc}))

	err = store.AddDocuments(ctx, "repo_demo", []Document{doc})
	assert.Error(t, err)
}

func TestUpsertDocuments_IdempotentOverwrite(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	_, err := store.GetOrCreateCollection(ctx, "repo_demo", CollectionConfig{Dimensions: 2})
	require.NoError(t, err)

	doc := Document{ID: "d1", Content: "first", Embedding: []float32{1, 0}, Metadata: map[string]any{"repository": "demo", "file_path": "a.ts"}}
	require.NoError(t, store.UpsertDocuments(ctx, "repo_demo", []Document{doc}))

	doc.Content = "second"
	require.NoError(t, store.UpsertDocuments(ctx, "repo_demo", []Document{doc}))

	docs, err := store.GetDocumentsByMetadata(ctx, "repo_demo", WhereEquals("repository", "demo"), false)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "second", docs[0].Content)
}

func TestUpsertDocuments_ValidatesMalformedDocument(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	_, err := store.GetOrCreateCollection(ctx, "repo_demo", CollectionConfig{Dimensions: 2})
	require.NoError(t, err)

	err = store.UpsertDocuments(ctx, "repo_demo", []Document{{ID: "", Content: "x", Embedding: []float32{1}}})
	require.Error(t, err)
	assert.Equal(t, ckgerrors.CodeValidation, ckgerrors.CodeOf(err))

	err = store.UpsertDocuments(ctx, "repo_demo", []Document{{ID: "d1", Content: "x", Embedding: nil}})
	require.Error(t, err)
	assert.Equal(t, ckgerrors.CodeValidation, ckgerrors.CodeOf(err))
}

func TestUpsertDocuments_MissingCollection(t *testing.T) {
	store, _ := newTestStore()
	err := store.UpsertDocuments(context.Background(), "repo_never_created", []Document{
		{ID: "d1", Content: "x", Embedding: []float32{1, 0}},
	})
	require.Error(t, err)
	assert.Equal(t, ckgerrors.CodeCollectionNotFound, ckgerrors.CodeOf(err))
}

func TestDeleteDocuments_EmptyIDListIsNoop(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()
	_, err := store.GetOrCreateCollection(ctx, "repo_demo", CollectionConfig{Dimensions: 2})
	require.NoError(t, err)

	assert.NoError(t, store.DeleteDocuments(ctx, "repo_demo", nil))
}

func TestDeleteDocuments_MissingCollectionIsDistinguishable(t *testing.T) {
	store, _ := newTestStore()
	err := store.DeleteDocuments(context.Background(), "repo_never_created", []string{"d1"})
	require.Error(t, err)
	assert.Equal(t, ckgerrors.CodeCollectionNotFound, ckgerrors.CodeOf(err))
}

func TestGetDocumentsByMetadata_EmptyWhereFails(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()
	_, err := store.GetOrCreateCollection(ctx, "repo_demo", CollectionConfig{Dimensions: 2})
	require.NoError(t, err)

	_, err = store.GetDocumentsByMetadata(ctx, "repo_demo", WhereClause{}, false)
	require.Error(t, err)
	assert.Equal(t, ckgerrors.CodeValidation, ckgerrors.CodeOf(err))
}

func TestGetDocumentsByMetadata_FiltersByConjunction(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()
	_, err := store.GetOrCreateCollection(ctx, "repo_demo", CollectionConfig{Dimensions: 2})
	require.NoError(t, err)

	require.NoError(t, store.UpsertDocuments(ctx, "repo_demo", []Document{
		{ID: "demo:src/a.ts:0", Content: "chunk a", Embedding: []float32{1, 0}, Metadata: map[string]any{"repository": "demo", "file_path": "src/a.ts"}},
		{ID: "demo:src/b.ts:0", Content: "chunk b", Embedding: []float32{0, 1}, Metadata: map[string]any{"repository": "demo", "file_path": "src/b.ts"}},
	}))

	docs, err := store.GetDocumentsByMetadata(ctx, "repo_demo", WhereAnd(
		WhereEquals("repository", "demo"),
		WhereEquals("file_path", "src/a.ts"),
	), false)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "demo:src/a.ts:0", docs[0].ID)
}

func TestDeleteDocumentsByFilePrefix_DeletesMatchingAndReturnsCount(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()
	_, err := store.GetOrCreateCollection(ctx, "repo_demo", CollectionConfig{Dimensions: 2})
	require.NoError(t, err)

	require.NoError(t, store.UpsertDocuments(ctx, "repo_demo", []Document{
		{ID: "demo:src/a.ts:0", Content: "chunk a0", Embedding: []float32{1, 0}, Metadata: map[string]any{"repository": "demo", "file_path": "src/a.ts"}},
		{ID: "demo:src/a.ts:1", Content: "chunk a1", Embedding: []float32{1, 1}, Metadata: map[string]any{"repository": "demo", "file_path": "src/a.ts"}},
		{ID: "demo:src/b.ts:0", Content: "chunk b", Embedding: []float32{0, 1}, Metadata: map[string]any{"repository": "demo", "file_path": "src/b.ts"}},
	}))

	n, err := store.DeleteDocumentsByFilePrefix(ctx, "repo_demo", "demo", "src/a.ts")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	remaining, err := store.GetDocumentsByMetadata(ctx, "repo_demo", WhereEquals("repository", "demo"), false)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "demo:src/b.ts:0", remaining[0].ID)
}

func TestSimilaritySearch_ThresholdFiltersAndSortsByDescendingSimilarity(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()
	_, err := store.GetOrCreateCollection(ctx, "repo_demo", CollectionConfig{Dimensions: 2})
	require.NoError(t, err)

	require.NoError(t, store.UpsertDocuments(ctx, "repo_demo", []Document{
		{ID: "close", Content: "close match", Embedding: []float32{1, 0}},
		{ID: "far", Content: "far match", Embedding: []float32{-1, 0}},
		{ID: "mid", Content: "mid match", Embedding: []float32{1, 1}},
	}))

	hits, err := store.SimilaritySearch(ctx, SearchRequest{
		Embedding:   []float32{1, 0},
		Collections: []string{"repo_demo"},
		Limit:       10,
		Threshold:   0.5,
	})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "close", hits[0].Document.ID)
	for i := 1; i < len(hits); i++ {
		assert.LessOrEqual(t, hits[i].Similarity, hits[i-1].Similarity)
	}
	for _, h := range hits {
		assert.GreaterOrEqual(t, h.Similarity, 0.5)
	}
}

func TestSimilaritySearch_SkipsMissingCollectionsWithoutFailing(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()
	_, err := store.GetOrCreateCollection(ctx, "repo_demo", CollectionConfig{Dimensions: 2})
	require.NoError(t, err)
	require.NoError(t, store.UpsertDocuments(ctx, "repo_demo", []Document{
		{ID: "d1", Content: "x", Embedding: []float32{1, 0}},
	}))

	hits, err := store.SimilaritySearch(ctx, SearchRequest{
		Embedding:   []float32{1, 0},
		Collections: []string{"repo_demo", "repo_does_not_exist"},
		Limit:       10,
		Threshold:   0,
	})
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestSimilaritySearch_ValidatesRequest(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	_, err := store.SimilaritySearch(ctx, SearchRequest{Collections: []string{"repo_demo"}, Limit: 1})
	require.Error(t, err)
	assert.Equal(t, ckgerrors.CodeValidation, ckgerrors.CodeOf(err))

	_, err = store.SimilaritySearch(ctx, SearchRequest{Embedding: []float32{1}, Limit: 1})
	require.Error(t, err)
	assert.Equal(t, ckgerrors.CodeValidation, ckgerrors.CodeOf(err))

	_, err = store.SimilaritySearch(ctx, SearchRequest{Embedding: []float32{1}, Collections: []string{"repo_demo"}, Limit: 0})
	require.Error(t, err)

	_, err = store.SimilaritySearch(ctx, SearchRequest{Embedding: []float32{1}, Collections: []string{"repo_demo"}, Limit: 1, Threshold: 1.5})
	require.Error(t, err)
}

func TestDistanceToSimilarity_KnownInputs(t *testing.T) {
	assert.Equal(t, 1.0, distanceToSimilarity(0))
	assert.Equal(t, 0.5, distanceToSimilarity(1))
	assert.Equal(t, 0.0, distanceToSimilarity(2))
}

func TestStringifyMetadata_LeavesScalarsAloneAndEncodesComplex(t *testing.T) {
	meta := map[string]any{
		"repository": "demo",
		"line":       42,
		"tags":       []string{"a", "b"},
	}
	out := stringifyMetadata(meta)
	assert.Equal(t, "demo", out["repository"])
	assert.Equal(t, 42, out["line"])
	assert.IsType(t, "", out["tags"])
}
