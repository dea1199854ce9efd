// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package vectorstore

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	ckgerrors "github.com/kraklabs/ckg/internal/errors"
	"github.com/kraklabs/ckg/pkg/storage"
)

// relationPrefix namespaces vectorstore's dynamically-created relations so
// ListCollections can tell them apart from graphstore's ckg_node/ckg_edge
// tables when scanning CozoDB's relation catalog.
const relationPrefix = "vs_"

var collectionNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// collectionHandle is the cached, already-created-in-CozoDB state for one
// collection name.
type collectionHandle struct {
	name       string
	relation   string
	dimensions int
}

// Store is ckg's vector store client (C3). One Store wraps one
// storage.Backend; collections are CozoDB relations created on demand.
type Store struct {
	backend storage.Backend
	logger  *slog.Logger

	mu          sync.RWMutex
	collections map[string]*collectionHandle

	metrics *storeMetrics
}

// New builds a Store over backend. A nil logger falls back to slog.Default().
func New(backend storage.Backend, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		backend:     backend,
		logger:      logger,
		collections: make(map[string]*collectionHandle),
		metrics:     newStoreMetrics(),
	}
}

func validateCollectionName(name string) error {
	if name == "" {
		return ckgerrors.New(ckgerrors.CodeValidation, "collection name must not be empty", "", "pass a non-empty collection name", nil)
	}
	if !collectionNamePattern.MatchString(name) {
		return ckgerrors.New(ckgerrors.CodeValidation,
			fmt.Sprintf("collection name %q contains invalid characters", name),
			"collection names back a CozoDB relation name and must match ^[A-Za-z][A-Za-z0-9_]*$",
			"sanitize the name before calling GetOrCreateCollection",
			nil,
		)
	}
	return nil
}

func relationFor(name string) string {
	return relationPrefix + name
}

// GetOrCreateCollection is idempotent: if the collection already exists
// (in-process cache or in CozoDB from a prior process), it is returned
// as-is; cfg is only consulted on first creation.
func (s *Store) GetOrCreateCollection(ctx context.Context, name string, cfg CollectionConfig) (*CollectionInfo, error) {
	if err := validateCollectionName(name); err != nil {
		return nil, err
	}
	if cfg.Distance != "" && cfg.Distance != "cosine" {
		return nil, ckgerrors.New(ckgerrors.CodeValidation,
			fmt.Sprintf("unsupported distance metric %q", cfg.Distance),
			"collections only support cosine distance",
			`omit Distance or set it to "cosine"`,
			nil,
		)
	}
	if cfg.Dimensions <= 0 {
		return nil, ckgerrors.New(ckgerrors.CodeValidation, "collection dimensions must be positive", "", "set CollectionConfig.Dimensions to the embedding width", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if h, ok := s.collections[name]; ok {
		return s.describe(ctx, h)
	}

	relation := relationFor(name)
	createScript := fmt.Sprintf(
		`:create %s { id: String => content: String, embedding: <F32; %d>, metadata: String }`,
		relation, cfg.Dimensions,
	)
	if err := s.backend.Execute(ctx, createScript, nil); err != nil && !isAlreadyExists(err) {
		return nil, ckgerrors.New(ckgerrors.CodeCollectionOperation,
			fmt.Sprintf("create collection %q failed", name), err.Error(), "", err)
	}

	hnswScript := fmt.Sprintf(
		`::hnsw create %s:hnsw_idx { dim: %d, m: 16, ef_construction: 200, fields: [embedding] }`,
		relation, cfg.Dimensions,
	)
	if err := s.backend.Execute(ctx, hnswScript, nil); err != nil && !isAlreadyExists(err) {
		return nil, ckgerrors.New(ckgerrors.CodeCollectionOperation,
			fmt.Sprintf("create HNSW index for collection %q failed", name), err.Error(), "", err)
	}

	h := &collectionHandle{name: name, relation: relation, dimensions: cfg.Dimensions}
	s.collections[name] = h

	return s.describe(ctx, h)
}

// DeleteCollection removes the backing relation and clears the cache entry.
// Deleting a collection that doesn't exist is not an error (idempotent).
func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	if err := validateCollectionName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	relation := relationFor(name)
	if err := s.backend.Execute(ctx, fmt.Sprintf("::remove %s", relation), nil); err != nil && !isNotFoundErr(err) {
		return ckgerrors.New(ckgerrors.CodeCollectionDelete,
			fmt.Sprintf("delete collection %q failed", name), err.Error(), "", err)
	}
	delete(s.collections, name)
	return nil
}

// ListCollections scans CozoDB's relation catalog for vectorstore-owned
// relations and reports their row counts.
func (s *Store) ListCollections(ctx context.Context) ([]CollectionInfo, error) {
	result, err := s.backend.Query(ctx, "::relations", nil)
	if err != nil {
		return nil, ckgerrors.New(ckgerrors.CodeCollectionList, "list collections failed", err.Error(), "", err)
	}

	nameCol := -1
	for i, h := range result.Headers {
		if h == "name" {
			nameCol = i
			break
		}
	}
	if nameCol == -1 && len(result.Headers) > 0 {
		nameCol = 0
	}

	var out []CollectionInfo
	for _, row := range result.Rows {
		if nameCol >= len(row) {
			continue
		}
		relName, ok := row[nameCol].(string)
		if !ok || !strings.HasPrefix(relName, relationPrefix) {
			continue
		}
		name := strings.TrimPrefix(relName, relationPrefix)

		count, cerr := s.countRows(ctx, relName)
		if cerr != nil {
			s.logger.Warn("vectorstore: could not count collection rows, skipping", "collection", name, "error", cerr)
			continue
		}
		out = append(out, CollectionInfo{
			Name:     name,
			Count:    count,
			Metadata: map[string]any{"distance": "cosine"},
		})
	}
	return out, nil
}

func (s *Store) countRows(ctx context.Context, relation string) (int, error) {
	result, err := s.backend.Query(ctx, fmt.Sprintf("?[count(id)] := *%s{id}", relation), nil)
	if err != nil {
		return 0, err
	}
	if len(result.Rows) == 0 || len(result.Rows[0]) == 0 {
		return 0, nil
	}
	switch v := result.Rows[0][0].(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, nil
	}
}

func (s *Store) describe(ctx context.Context, h *collectionHandle) (*CollectionInfo, error) {
	count, err := s.countRows(ctx, h.relation)
	if err != nil {
		return nil, ckgerrors.New(ckgerrors.CodeCollectionStats, fmt.Sprintf("stat collection %q failed", h.name), err.Error(), "", err)
	}
	return &CollectionInfo{
		Name:     h.name,
		Count:    count,
		Metadata: map[string]any{"distance": "cosine"},
	}, nil
}

func (s *Store) handle(name string) (*collectionHandle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.collections[name]
	return h, ok
}

func isAlreadyExists(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "already exist")
}

func isNotFoundErr(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "does not exist") || strings.Contains(msg, "cannot find")
}
