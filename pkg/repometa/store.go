// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package repometa

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	ckgerrors "github.com/kraklabs/ckg/internal/errors"
)

// Store is the process-wide repository metadata singleton, backed by a
// single JSON file. All mutating operations take an in-process mutex and
// go through the atomic write protocol (temp file + rename); there is no
// cross-process lock, so concurrent writers from separate processes
// resolve last-writer-wins (see package doc).
type Store struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger
}

// New builds a Store backed by the repositories.json file at path. A nil
// logger falls back to slog.Default().
func New(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{path: path, logger: logger}
}

// load reads the metadata file, treating a missing file as an empty
// document (and creating it) rather than an error.
func (s *Store) load() (*document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			doc := &document{Version: currentVersion, Repositories: map[string]RepositoryInfo{}}
			if writeErr := s.save(doc); writeErr != nil {
				return nil, writeErr
			}
			return doc, nil
		}
		return nil, ckgerrors.New(ckgerrors.CodeFileOperation, "read repository metadata failed", err.Error(), "", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, ckgerrors.New(ckgerrors.CodeInvalidMetadataFormat, "repository metadata file is not valid JSON", err.Error(), "repositories.json is corrupt; restore from backup or delete it to start fresh", err)
	}
	if doc.Repositories == nil {
		doc.Repositories = map[string]RepositoryInfo{}
	}
	if doc.Version == "" {
		doc.Version = currentVersion
	} else if doc.Version != currentVersion {
		return nil, ckgerrors.New(ckgerrors.CodeInvalidMetadataFormat,
			fmt.Sprintf("repository metadata file has unsupported version %q", doc.Version),
			fmt.Sprintf("only version %q is supported", currentVersion),
			"delete repositories.json to start fresh, or restore a compatible backup",
			nil)
	}
	return &doc, nil
}

// save serializes doc and writes it via temp-file-then-rename, the same
// crash-safety protocol pkg/ingestion's CheckpointManager uses for its
// checkpoint files.
func (s *Store) save(doc *document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return ckgerrors.New(ckgerrors.CodeInvalidMetadataFormat, "repository metadata could not be encoded", err.Error(), "", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return ckgerrors.New(ckgerrors.CodeFileOperation, "create repository metadata directory failed", err.Error(), "", err)
		}
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return ckgerrors.New(ckgerrors.CodeFileOperation, "write repository metadata temp file failed", err.Error(), "", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		if removeErr := os.Remove(tmpPath); removeErr != nil {
			s.logger.Warn("repometa: failed to clean up temp file after failed rename", "path", tmpPath, "error", removeErr)
		}
		return ckgerrors.New(ckgerrors.CodeFileOperation, "rename repository metadata file failed", err.Error(), "", err)
	}
	return nil
}

// ListRepositories returns every repository's metadata, in no particular
// order.
func (s *Store) ListRepositories() ([]RepositoryInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]RepositoryInfo, 0, len(doc.Repositories))
	for _, info := range doc.Repositories {
		out = append(out, info)
	}
	return out, nil
}

// GetRepository returns a repository's metadata, or (zero, false, nil) if
// it isn't tracked.
func (s *Store) GetRepository(name string) (RepositoryInfo, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return RepositoryInfo{}, false, err
	}
	info, ok := doc.Repositories[name]
	return info, ok, nil
}

// UpsertRepository validates and writes info, replacing any prior record
// for the same name.
func (s *Store) UpsertRepository(info RepositoryInfo) error {
	if err := validate(info); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	doc.Repositories[info.Name] = info
	return s.save(doc)
}

// RemoveRepository deletes a repository's metadata record. Idempotent:
// removing an already-absent repository is not an error.
func (s *Store) RemoveRepository(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := doc.Repositories[name]; !ok {
		return nil
	}
	delete(doc.Repositories, name)
	return s.save(doc)
}

func validate(info RepositoryInfo) error {
	if info.Name == "" {
		return ckgerrors.New(ckgerrors.CodeValidation, "repository name must not be empty", "", "", nil)
	}
	if info.FileCount < 0 || info.ChunkCount < 0 {
		return ckgerrors.New(ckgerrors.CodeValidation, fmt.Sprintf("repository %q has negative fileCount/chunkCount", info.Name), "", "", nil)
	}
	switch info.Status {
	case StatusReady, StatusIndexing, StatusError:
	default:
		return ckgerrors.New(ckgerrors.CodeValidation, fmt.Sprintf("repository %q has invalid status %q", info.Name, info.Status), "", "", nil)
	}
	return nil
}
