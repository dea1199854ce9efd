// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package bootstrap opens and initializes the local CozoDB data directory
// cmd/ckg commands operate against. Collection-specific schema (the HNSW
// index over a repository's chunk embeddings) is created lazily by
// pkg/vectorstore.GetOrCreateCollection, not here.
package bootstrap

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kraklabs/ckg/pkg/storage"
)

// ProjectConfig configures the local data directory a ckg CLI invocation
// operates against.
type ProjectConfig struct {
	// ProjectID is the logical project identifier, usually the repository
	// name with "/" replaced.
	ProjectID string

	// DataDir is the directory where CozoDB stores its data. Defaults to
	// ~/.ckg/data/<project_id>.
	DataDir string

	// Engine is the CozoDB storage engine: "rocksdb", "sqlite", or "mem".
	// Defaults to "rocksdb" for persistence.
	Engine string
}

// ProjectInfo describes an initialized or opened project's storage location.
type ProjectInfo struct {
	ProjectID string
	DataDir   string
	Engine    string
}

func (c *ProjectConfig) applyDefaults() error {
	if c.ProjectID == "" {
		return fmt.Errorf("project_id is required")
	}
	if c.Engine == "" {
		c.Engine = "rocksdb"
	}
	if c.DataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("get home dir: %w", err)
		}
		c.DataDir = filepath.Join(homeDir, ".ckg", "data", c.ProjectID)
	}
	return nil
}

// InitProject creates the data directory (if needed), opens CozoDB, and
// ensures the ckg_node/ckg_edge/ckg_repository schema exists. Idempotent:
// safe to call on an already-initialized project.
func InitProject(config ProjectConfig, logger *slog.Logger) (*ProjectInfo, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := config.applyDefaults(); err != nil {
		return nil, err
	}

	logger.Info("bootstrap.project.init.start",
		"project_id", config.ProjectID, "data_dir", config.DataDir, "engine", config.Engine)

	backend, err := storage.NewEmbeddedBackend(storage.EmbeddedConfig{
		DataDir: config.DataDir, Engine: config.Engine, ProjectID: config.ProjectID,
	})
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}
	defer func() { _ = backend.Close() }()

	if err := backend.EnsureSchema(); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	logger.Info("bootstrap.project.init.success", "project_id", config.ProjectID, "data_dir", config.DataDir)
	return &ProjectInfo{ProjectID: config.ProjectID, DataDir: config.DataDir, Engine: config.Engine}, nil
}

// OpenProject opens an already-initialized project's storage backend.
func OpenProject(config ProjectConfig, logger *slog.Logger) (*storage.EmbeddedBackend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := config.applyDefaults(); err != nil {
		return nil, err
	}

	if _, err := os.Stat(config.DataDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("project not found: %s (run 'ckg init' first)", config.DataDir)
	}

	logger.Debug("bootstrap.project.open", "project_id", config.ProjectID, "data_dir", config.DataDir)

	backend, err := storage.NewEmbeddedBackend(storage.EmbeddedConfig{
		DataDir: config.DataDir, Engine: config.Engine, ProjectID: config.ProjectID,
	})
	if err != nil {
		return nil, fmt.Errorf("open backend: %w", err)
	}
	return backend, nil
}

// ListProjects returns the project IDs found under the default data
// directory (~/.ckg/data).
func ListProjects() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("get home dir: %w", err)
	}

	dataDir := filepath.Join(homeDir, ".ckg", "data")
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read data dir: %w", err)
	}

	var projects []string
	for _, entry := range entries {
		if entry.IsDir() {
			projects = append(projects, entry.Name())
		}
	}
	return projects, nil
}
