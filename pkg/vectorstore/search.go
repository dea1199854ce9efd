// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	ckgerrors "github.com/kraklabs/ckg/internal/errors"
)

// distanceToSimilarity converts CozoDB's raw HNSW cosine distance d in
// [0,2] to a similarity score s = clamp(1 - d/2, 0, 1).
func distanceToSimilarity(d float64) float64 {
	s := 1 - d/2
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

func validateSearchRequest(req SearchRequest) error {
	if len(req.Embedding) == 0 {
		return ckgerrors.New(ckgerrors.CodeValidation, "search embedding must not be empty", "", "", nil)
	}
	if len(req.Collections) == 0 {
		return ckgerrors.New(ckgerrors.CodeValidation, "at least one collection is required", "", "", nil)
	}
	if req.Limit < 1 {
		return ckgerrors.New(ckgerrors.CodeValidation, "limit must be >= 1", "", "", nil)
	}
	if req.Threshold < 0 || req.Threshold > 1 {
		return ckgerrors.New(ckgerrors.CodeValidation, "threshold must be between 0 and 1", "", "", nil)
	}
	return nil
}

// SimilaritySearch queries each of req.Collections with req.Embedding,
// converts cosine distance to similarity, filters by threshold, merges
// results across collections, sorts by similarity descending, and
// truncates to req.Limit. Collections that don't exist are skipped with a
// warning rather than failing the whole search.
func (s *Store) SimilaritySearch(ctx context.Context, req SearchRequest) ([]SearchHit, error) {
	if err := validateSearchRequest(req); err != nil {
		return nil, err
	}

	start := time.Now()
	var merged []SearchHit

	embedding := make([]any, len(req.Embedding))
	for i, f := range req.Embedding {
		embedding[i] = f
	}

	for _, collection := range req.Collections {
		h, ok := s.handle(collection)
		if !ok {
			s.logger.Warn("vectorstore: similarity search skipping missing collection", "collection", collection)
			continue
		}

		script := fmt.Sprintf(
			`?[dist, id, content, metadata] := ~%s:hnsw_idx{ id, content, metadata |
  query: $query,
  k: $k,
  ef: 50,
  bind_distance: dist,
}`,
			h.relation,
		)
		result, err := s.backend.Query(ctx, script, map[string]any{
			"query": embedding,
			"k":     req.Limit * 4,
		})
		if err != nil {
			s.logger.Warn("vectorstore: similarity search failed for collection, skipping", "collection", collection, "error", err)
			continue
		}

		for _, row := range result.Rows {
			if len(row) < 4 {
				continue
			}
			dist := toFloat64(row[0])
			sim := distanceToSimilarity(dist)
			if sim < req.Threshold {
				continue
			}
			id, _ := row[1].(string)
			content, _ := row[2].(string)
			metaRaw, _ := row[3].(string)

			merged = append(merged, SearchHit{
				Collection: collection,
				Document: Document{
					ID:       id,
					Content:  content,
					Metadata: decodeMetadata(metaRaw),
				},
				Similarity: sim,
			})
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Similarity > merged[j].Similarity
	})
	if len(merged) > req.Limit {
		merged = merged[:req.Limit]
	}

	s.metrics.observeSearch(time.Since(start), len(merged))
	return merged, nil
}

func toFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return math.NaN()
	}
}
