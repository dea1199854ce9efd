// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_HasOllamaAndConservativeExcludes(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, configVersion, cfg.Version)
	assert.Equal(t, "ollama", cfg.Embedding.Provider)
	assert.Equal(t, 768, cfg.Embedding.Dimensions)
	assert.Contains(t, cfg.Indexing.Exclude, "node_modules/**")
	assert.Contains(t, cfg.Indexing.Exclude, ".git/**")
}

func TestSaveConfig_ThenLoadConfig_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := ConfigPath(dir)

	cfg := DefaultConfig()
	cfg.Embedding.Provider = "mock"
	cfg.Embedding.Model = "test-model"

	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "mock", loaded.Embedding.Provider)
	assert.Equal(t, "test-model", loaded.Embedding.Model)
}

func TestLoadConfig_MissingFileReturnsError(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadConfig(filepath.Join(dir, "nope", "project.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_RejectsMismatchedVersion(t *testing.T) {
	dir := t.TempDir()
	path := ConfigPath(dir)

	cfg := DefaultConfig()
	cfg.Version = "999"
	require.NoError(t, SaveConfig(cfg, path))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfig_EnvOverridesApplyAfterFileLoad(t *testing.T) {
	dir := t.TempDir()
	path := ConfigPath(dir)
	require.NoError(t, SaveConfig(DefaultConfig(), path))

	t.Setenv("CKG_EMBEDDING_PROVIDER", "mock")

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "mock", loaded.Embedding.Provider)
}

func TestConfigPath_AndConfigDir(t *testing.T) {
	assert.Equal(t, filepath.Join("/tmp/proj", ".ckg", "project.yaml"), ConfigPath("/tmp/proj"))
	assert.Equal(t, filepath.Join("/tmp/proj", ".ckg"), ConfigDir("/tmp/proj"))
}
