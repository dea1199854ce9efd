// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	cozo "github.com/kraklabs/ckg/pkg/cozodb"
)

// EmbeddedBackend implements Backend using a local CozoDB instance.
type EmbeddedBackend struct {
	db     *cozo.CozoDB
	mu     sync.RWMutex
	closed bool
}

// EmbeddedConfig configures the embedded backend.
type EmbeddedConfig struct {
	// DataDir is the directory where CozoDB stores its data. Defaults to
	// ~/.ckg/data/<project_id>.
	DataDir string

	// Engine is the CozoDB storage engine: "rocksdb", "sqlite", or "mem".
	// Defaults to "rocksdb".
	Engine string

	// ProjectID namespaces the default data directory.
	ProjectID string
}

// NewEmbeddedBackend opens an embedded CozoDB database.
func NewEmbeddedBackend(config EmbeddedConfig) (*EmbeddedBackend, error) {
	if config.Engine == "" {
		config.Engine = "rocksdb"
	}
	if config.DataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		config.DataDir = filepath.Join(homeDir, ".ckg", "data")
		if config.ProjectID != "" {
			config.DataDir = filepath.Join(config.DataDir, config.ProjectID)
		}
	}

	if err := os.MkdirAll(config.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	db, err := cozo.New(config.Engine, config.DataDir, nil)
	if err != nil {
		return nil, fmt.Errorf("open cozodb: %w", err)
	}

	return &EmbeddedBackend{db: &db}, nil
}

// Query executes a read-only, parameterized CozoScript query.
func (b *EmbeddedBackend) Query(ctx context.Context, script string, params map[string]any) (*QueryResult, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, fmt.Errorf("backend is closed")
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	result, err := b.db.RunReadOnly(script, params)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	return FromNamedRows(result), nil
}

// Execute runs a parameterized CozoScript mutation.
func (b *EmbeddedBackend) Execute(ctx context.Context, script string, params map[string]any) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("backend is closed")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	_, err := b.db.Run(script, params)
	if err != nil {
		return fmt.Errorf("execute failed: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (b *EmbeddedBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}

	b.closed = true
	b.db.Close()
	return nil
}

// DB returns the underlying CozoDB instance for operations the Backend
// interface doesn't expose (backup/restore, relation import/export).
// Prefer Query/Execute for normal operations.
func (b *EmbeddedBackend) DB() *cozo.CozoDB {
	return b.db
}

// coreTables are the language-agnostic node/edge relations every ckg
// project needs regardless of which collections vectorstore creates.
var coreTables = []string{
	`:create ckg_node { id: String => kind: String, attrs: String }`,
	`:create ckg_edge { id: String => from_id: String, to_id: String, rel_type: String, props: String }`,
	`:create ckg_repository { name: String => url: String, branch: String, indexed_at: Int }`,
}

// coreIndices speed up the lookups graphstore performs most: finding a
// node's outgoing/incoming edges and listing a repository's files.
var coreIndices = []string{
	`::index create ckg_edge:by_from { from_id }`,
	`::index create ckg_edge:by_to { to_id }`,
	`::index create ckg_edge:by_rel_type { rel_type }`,
	`::index create ckg_node:by_kind { kind }`,
}

// EnsureSchema creates ckg's core tables if they don't exist. Idempotent.
func (b *EmbeddedBackend) EnsureSchema() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, stmt := range coreTables {
		if _, err := b.db.Run(stmt, nil); err != nil {
			continue // already exists
		}
	}
	for _, stmt := range coreIndices {
		if _, err := b.db.Run(stmt, nil); err != nil {
			continue // already exists
		}
	}

	return nil
}
