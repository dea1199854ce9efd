// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	ckgerrors "github.com/kraklabs/ckg/internal/errors"
)

const (
	defaultConfigDir  = ".ckg"
	defaultConfigFile = "project.yaml"
	configVersion     = "1"
)

// Config represents the .ckg/project.yaml configuration file. Unlike the
// distributed Primary-Hub/Edge-Cache deployments this project's teacher
// supported, ckg runs as a single embedded process against its own CozoDB
// store, so the config has no server-address fields — only embedding
// provider and indexing settings.
type Config struct {
	Version   string          `yaml:"version"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Indexing  IndexingConfig  `yaml:"indexing"`
}

// EmbeddingConfig selects and configures the embedding provider used when
// indexing, via internal/embedclient.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"` // ollama, mock
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions,omitempty"`
}

// IndexingConfig contains default indexing settings, mirrored into
// pkg/coordinator.Options and pkg/ingestpipeline.Options at index/update time.
type IndexingConfig struct {
	MaxFileSize int64    `yaml:"max_file_size"` // bytes
	Exclude     []string `yaml:"exclude"`       // glob patterns, matched by internal/repowalk
}

// DefaultConfig returns a config with sensible defaults for local
// development: Ollama as the embedding provider and a conservative
// exclude list.
func DefaultConfig() *Config {
	return &Config{
		Version: configVersion,
		Embedding: EmbeddingConfig{
			Provider:   "ollama",
			BaseURL:    getEnv("OLLAMA_HOST", "http://localhost:11434"),
			Model:      getEnv("OLLAMA_EMBED_MODEL", "nomic-embed-text"),
			Dimensions: 768,
		},
		Indexing: IndexingConfig{
			MaxFileSize: 1048576, // 1MB
			Exclude: []string{
				".git/**",
				"node_modules/**",
				"vendor/**",
				"dist/**",
				"build/**",
				"*.min.js",
			},
		},
	}
}

// LoadConfig loads configuration from configPath, or searches the current
// and parent directories for .ckg/project.yaml when configPath is empty.
// CKG_CONFIG_PATH overrides the search.
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = os.Getenv("CKG_CONFIG_PATH")
	}
	if configPath == "" {
		var err error
		configPath, err = findConfigFile()
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) //nolint:gosec // G304: path comes from user config or discovery
	if err != nil {
		return nil, ckgerrors.New(
			ckgerrors.CodeConfigError,
			"Cannot read configuration file",
			fmt.Sprintf("failed to read %s", configPath),
			"Check file permissions and ensure the file exists",
			err,
		)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, ckgerrors.New(
			ckgerrors.CodeConfigError,
			"Invalid configuration format",
			"YAML parsing failed - the config file contains syntax errors",
			fmt.Sprintf("Edit %s to fix syntax errors, or run 'ckg init --force' to recreate", configPath),
			err,
		)
	}

	if cfg.Version != configVersion {
		return nil, ckgerrors.New(
			ckgerrors.CodeConfigError,
			"Unsupported configuration version",
			fmt.Sprintf("config version %q is not supported (expected %q)", cfg.Version, configVersion),
			"Run 'ckg init --force' to regenerate the configuration file",
			nil,
		)
	}

	cfg.applyEnvOverrides()
	return &cfg, nil
}

// SaveConfig writes cfg to configPath as YAML, creating the parent
// directory if needed.
func SaveConfig(cfg *Config, configPath string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return ckgerrors.New(
			ckgerrors.CodeConfigError,
			"Cannot encode configuration",
			"YAML marshaling failed unexpectedly",
			"",
			err,
		)
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return ckgerrors.New(
			ckgerrors.CodeFileOperation,
			"Cannot create configuration directory",
			fmt.Sprintf("permission denied creating %s", dir),
			"Check directory permissions",
			err,
		)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return ckgerrors.New(
			ckgerrors.CodeFileOperation,
			"Cannot write configuration file",
			fmt.Sprintf("permission denied writing to %s", configPath),
			"Check file permissions and available disk space",
			err,
		)
	}

	return nil
}

// ConfigPath returns <dir>/.ckg/project.yaml.
func ConfigPath(dir string) string {
	return filepath.Join(dir, defaultConfigDir, defaultConfigFile)
}

// ConfigDir returns <dir>/.ckg.
func ConfigDir(dir string) string {
	return filepath.Join(dir, defaultConfigDir)
}

func findConfigFile() (string, error) {
	if configPath := os.Getenv("CKG_CONFIG_PATH"); configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}
		return "", ckgerrors.New(
			ckgerrors.CodeConfigError,
			"Configuration file not found",
			fmt.Sprintf("CKG_CONFIG_PATH is set to %q but the file does not exist", configPath),
			"Fix the CKG_CONFIG_PATH environment variable or run 'ckg init' to create a config",
			nil,
		)
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", ckgerrors.New(
			ckgerrors.CodeConfigError,
			"Cannot access working directory",
			"failed to determine current directory path",
			"",
			err,
		)
	}

	for {
		configPath := ConfigPath(dir)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", ckgerrors.New(
		ckgerrors.CodeConfigError,
		"Configuration not found",
		"no .ckg/project.yaml file found in current directory or any parent directory",
		"Run 'ckg init' to create a new configuration",
		nil,
	)
}

// applyEnvOverrides lets OLLAMA_HOST, OLLAMA_EMBED_MODEL and
// CKG_EMBEDDING_PROVIDER override file-based config without editing
// .ckg/project.yaml.
func (c *Config) applyEnvOverrides() {
	if host := os.Getenv("OLLAMA_HOST"); host != "" {
		c.Embedding.BaseURL = host
	}
	if model := os.Getenv("OLLAMA_EMBED_MODEL"); model != "" {
		c.Embedding.Model = model
	}
	if provider := os.Getenv("CKG_EMBEDDING_PROVIDER"); provider != "" {
		c.Embedding.Provider = provider
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
