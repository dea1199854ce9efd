// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kraklabs/ckg/internal/bootstrap"
	"github.com/kraklabs/ckg/internal/embedclient"
	"github.com/kraklabs/ckg/pkg/repometa"
	"github.com/kraklabs/ckg/pkg/storage"
)

// embedder is satisfied by both internal/embedclient providers and is the
// shape pkg/ingestpipeline.Embedder / pkg/coordinator.Embedder require.
type embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// workspace bundles the resources every ckg subcommand but init opens: the
// project's config, its shared CozoDB backend, and its repository metadata
// store. All repositories indexed from one .ckg/project.yaml share a single
// backend and a single repometa.Store, the same way pkg/coordinator.UpdateAll
// operates over many repositories at once.
type workspace struct {
	Config    *Config
	ProjectID string
	Backend   *storage.EmbeddedBackend
	Metadata  *repometa.Store
	Logger    *slog.Logger
}

func (w *workspace) Close() {
	if w.Backend != nil {
		_ = w.Backend.Close()
	}
}

// newLogger builds the slog logger every subcommand uses, text-formatted to
// stderr so stdout stays clean for --json output.
func newLogger(globals GlobalFlags) *slog.Logger {
	level := slog.LevelInfo
	if globals.Quiet {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// projectID derives a stable identifier for the workspace rooted at dir,
// namespacing ~/.ckg/data/<project_id> the same way pkg/repometa namespaces
// a repository's vector collection.
func projectID(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	return repometa.SanitizeCollectionName(filepath.Base(abs))
}

// openWorkspace loads .ckg/project.yaml, opens the shared CozoDB backend,
// and opens the repository metadata store. Callers must defer Close. When
// create is true (index's first run for a project), the backend is
// initialized rather than required to already exist.
func openWorkspace(globals GlobalFlags, create bool) (*workspace, error) {
	cfg, err := LoadConfig(globals.ConfigPath)
	if err != nil {
		return nil, err
	}

	root, err := workspaceRoot(globals.ConfigPath)
	if err != nil {
		return nil, err
	}
	id := projectID(root)
	logger := newLogger(globals)

	if create {
		if _, err := bootstrap.InitProject(bootstrap.ProjectConfig{ProjectID: id}, logger); err != nil {
			return nil, err
		}
	}

	backend, err := bootstrap.OpenProject(bootstrap.ProjectConfig{ProjectID: id}, logger)
	if err != nil {
		return nil, err
	}

	dataDir := filepath.Join(mustHomeDir(), ".ckg", "data", id)
	metadata := repometa.New(filepath.Join(dataDir, "repositories.json"), logger)

	return &workspace{Config: cfg, ProjectID: id, Backend: backend, Metadata: metadata, Logger: logger}, nil
}

// workspaceRoot finds the directory containing .ckg/project.yaml: the
// directory configPath was explicitly given as the parent of, or wherever
// findConfigFile's search landed.
func workspaceRoot(configPath string) (string, error) {
	if configPath == "" {
		configPath = os.Getenv("CKG_CONFIG_PATH")
	}
	if configPath != "" {
		return filepath.Dir(filepath.Dir(configPath)), nil
	}

	resolved, err := findConfigFile()
	if err != nil {
		return "", err
	}
	return filepath.Dir(filepath.Dir(resolved)), nil
}

func mustHomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

// buildEmbedder selects the internal/embedclient provider named by
// cfg.Embedding.Provider. An empty or unrecognized provider defaults to
// ollama, matching DefaultConfig.
func buildEmbedder(cfg *Config) (embedder, error) {
	switch cfg.Embedding.Provider {
	case "mock":
		return embedclient.NewMock(cfg.Embedding.Dimensions), nil
	case "", "ollama":
		return embedclient.NewOllama(cfg.Embedding.BaseURL, cfg.Embedding.Model), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q (want ollama or mock)", cfg.Embedding.Provider)
	}
}
