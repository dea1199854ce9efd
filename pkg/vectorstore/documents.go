// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"

	ckgerrors "github.com/kraklabs/ckg/internal/errors"
)

func (s *Store) requireHandle(name string) (*collectionHandle, error) {
	if err := validateCollectionName(name); err != nil {
		return nil, err
	}
	h, ok := s.handle(name)
	if !ok {
		return nil, ckgerrors.New(ckgerrors.CodeCollectionNotFound,
			fmt.Sprintf("collection %q does not exist", name),
			"no prior GetOrCreateCollection call has created it in this process",
			"call GetOrCreateCollection before operating on documents",
			nil,
		)
	}
	return h, nil
}

func validateDocument(d Document) error {
	if d.ID == "" {
		return ckgerrors.New(ckgerrors.CodeValidation, "document id must not be empty", "", "", nil)
	}
	if len(d.Embedding) == 0 {
		return ckgerrors.New(ckgerrors.CodeValidation, fmt.Sprintf("document %q has an empty embedding", d.ID), "", "", nil)
	}
	return nil
}

// stringifyMetadata stringifies any non-primitive-scalar metadata value at
// the boundary, leaving strings/numbers/bools/nil untouched.
func stringifyMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(meta))
	for k, v := range meta {
		switch v.(type) {
		case string, bool, int, int32, int64, float32, float64, nil:
			out[k] = v
		default:
			b, err := json.Marshal(v)
			if err != nil {
				out[k] = fmt.Sprintf("%v", v)
				continue
			}
			out[k] = string(b)
		}
	}
	return out
}

func encodeMetadata(meta map[string]any) (string, error) {
	b, err := json.Marshal(stringifyMetadata(meta))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeMetadata(raw string) map[string]any {
	if raw == "" {
		return map[string]any{}
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return map[string]any{}
	}
	return out
}

func (s *Store) writeDocuments(ctx context.Context, name string, docs []Document, mutation string) error {
	h, err := s.requireHandle(name)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(docs))
	for _, d := range docs {
		if err := validateDocument(d); err != nil {
			return err
		}
		metaJSON, err := encodeMetadata(d.Metadata)
		if err != nil {
			return ckgerrors.New(ckgerrors.CodeInvalidMetadataFormat, fmt.Sprintf("document %q metadata could not be encoded", d.ID), err.Error(), "", err)
		}
		embedding := make([]any, len(d.Embedding))
		for i, f := range d.Embedding {
			embedding[i] = f
		}
		rows = append(rows, []any{d.ID, d.Content, embedding, metaJSON})
	}

	script := fmt.Sprintf(
		`?[id, content, embedding, metadata] <- $rows
%s %s { id => content, embedding, metadata }`,
		mutation, h.relation,
	)
	if err := s.backend.Execute(ctx, script, map[string]any{"rows": rows}); err != nil {
		return ckgerrors.New(ckgerrors.CodeDocumentOperation, fmt.Sprintf("write to collection %q failed", name), err.Error(), "", err)
	}
	return nil
}

// AddDocuments is a batch insert; it fails if the collection already
// contains any of the given ids.
func (s *Store) AddDocuments(ctx context.Context, collection string, docs []Document) error {
	return s.writeDocuments(ctx, collection, docs, ":insert")
}

// UpsertDocuments is an idempotent add-or-update with AddDocuments' contract.
func (s *Store) UpsertDocuments(ctx context.Context, collection string, docs []Document) error {
	return s.writeDocuments(ctx, collection, docs, ":put")
}

// DeleteDocuments removes documents by id. An empty id list is a no-op; a
// missing collection returns CodeCollectionNotFound.
func (s *Store) DeleteDocuments(ctx context.Context, collection string, ids []string) error {
	h, err := s.requireHandle(collection)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	rows := make([][]any, len(ids))
	for i, id := range ids {
		rows[i] = []any{id}
	}

	script := fmt.Sprintf(`?[id] <- $ids
:rm %s { id }`, h.relation)
	if err := s.backend.Execute(ctx, script, map[string]any{"ids": rows}); err != nil {
		return ckgerrors.New(ckgerrors.CodeDocumentOperation, fmt.Sprintf("delete documents from collection %q failed", collection), err.Error(), "", err)
	}
	return nil
}

// GetDocumentsByMetadata does a filtered scan. where must not be empty.
// includeEmbeddings controls whether the returned documents carry their
// embedding vectors (often unneeded and expensive to transfer).
func (s *Store) GetDocumentsByMetadata(ctx context.Context, collection string, where WhereClause, includeEmbeddings bool) ([]Document, error) {
	h, err := s.requireHandle(collection)
	if err != nil {
		return nil, err
	}
	if where.isEmpty() {
		return nil, ckgerrors.New(ckgerrors.CodeValidation, "metadata filter must not be empty", "", "pass at least one equality predicate", nil)
	}

	script := fmt.Sprintf(`?[id, content, embedding, metadata] := *%s{id, content, embedding, metadata}`, h.relation)
	result, err := s.backend.Query(ctx, script, nil)
	if err != nil {
		return nil, ckgerrors.New(ckgerrors.CodeDocumentOperation, fmt.Sprintf("scan collection %q failed", collection), err.Error(), "", err)
	}

	leaves := where.leaves()
	var out []Document
	for _, row := range result.Rows {
		if len(row) < 4 {
			continue
		}
		id, _ := row[0].(string)
		content, _ := row[1].(string)
		metaRaw, _ := row[3].(string)
		meta := decodeMetadata(metaRaw)

		if !matchesAll(meta, leaves) {
			continue
		}

		doc := Document{ID: id, Content: content, Metadata: meta}
		if includeEmbeddings {
			doc.Embedding = toFloat32Slice(row[2])
		}
		out = append(out, doc)
	}
	return out, nil
}

// DeleteDocumentsByFilePrefix deletes all documents for one file of one
// repository and returns how many were removed.
func (s *Store) DeleteDocumentsByFilePrefix(ctx context.Context, collection, repository, filePath string) (int, error) {
	docs, err := s.GetDocumentsByMetadata(ctx, collection, WhereAnd(
		WhereEquals("repository", repository),
		WhereEquals("file_path", filePath),
	), false)
	if err != nil {
		return 0, err
	}
	if len(docs) == 0 {
		return 0, nil
	}

	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	if err := s.DeleteDocuments(ctx, collection, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}

func matchesAll(meta map[string]any, leaves []WhereClause) bool {
	for _, l := range leaves {
		v, ok := meta[l.Field]
		if !ok {
			return false
		}
		if fmt.Sprintf("%v", v) != fmt.Sprintf("%v", l.Value) {
			return false
		}
	}
	return true
}

func toFloat32Slice(v any) []float32 {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]float32, len(raw))
	for i, x := range raw {
		switch n := x.(type) {
		case float64:
			out[i] = float32(n)
		case float32:
			out[i] = n
		}
	}
	return out
}
