// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
)

// initFlags holds parsed flags for 'ckg init'.
type initFlags struct {
	force, nonInteractive, noHook, withHook bool
	embeddingProvider, ollamaURL, model     string
}

// runInit executes 'ckg init', creating a .ckg/project.yaml configuration
// file in the current directory and, by default, offering to install a git
// post-commit hook that keeps the index current automatically.
func runInit(args []string, globals GlobalFlags) {
	flags := parseInitFlags(args)

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot get current directory: %v\n", err)
		os.Exit(1)
	}

	configPath := ConfigPath(cwd)
	if globals.ConfigPath != "" {
		configPath = globals.ConfigPath
	}
	if _, err := os.Stat(configPath); err == nil && !flags.force {
		fmt.Fprintf(os.Stderr, "Error: %s already exists. Use --force to overwrite.\n", configPath)
		os.Exit(1)
	}

	cfg := createInitConfig(flags)
	reader := bufio.NewReader(os.Stdin)

	if !flags.nonInteractive {
		runInteractiveConfig(reader, cfg)
	}

	saveInitConfig(cwd, configPath, cfg)
	handleHookInstallation(reader, flags)
	printNextSteps(flags.noHook, filepath.Base(cwd))
}

func parseInitFlags(args []string) initFlags {
	fs := pflag.NewFlagSet("init", pflag.ExitOnError)
	var f initFlags
	fs.BoolVar(&f.force, "force", false, "Overwrite existing configuration")
	fs.BoolVarP(&f.nonInteractive, "yes", "y", false, "Non-interactive mode (use defaults)")
	fs.StringVar(&f.embeddingProvider, "embedding-provider", "", "Embedding provider (ollama, mock)")
	fs.StringVar(&f.ollamaURL, "ollama-url", "", "Ollama base URL")
	fs.StringVar(&f.model, "embedding-model", "", "Embedding model name")
	fs.BoolVar(&f.noHook, "no-hook", false, "Skip git hook installation")
	fs.BoolVar(&f.withHook, "hook", false, "Install git hook without prompting (for scripts)")

	fs.Usage = func() {
		fmt.Fprint(os.Stderr, `Usage: ckg init [options]

Creates .ckg/project.yaml in the current directory.

Examples:
  ckg init                      Interactive setup
  ckg init -y                   Non-interactive, accept all defaults
  ckg init --embedding-provider mock -y
  ckg init --hook                Also install the post-commit hook

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	return f
}

func createInitConfig(f initFlags) *Config {
	cfg := DefaultConfig()
	if f.embeddingProvider != "" {
		cfg.Embedding.Provider = f.embeddingProvider
	}
	if f.ollamaURL != "" {
		cfg.Embedding.BaseURL = f.ollamaURL
	}
	if f.model != "" {
		cfg.Embedding.Model = f.model
	}
	return cfg
}

func runInteractiveConfig(reader *bufio.Reader, cfg *Config) {
	fmt.Println("ckg Project Configuration")
	fmt.Println("=========================")
	fmt.Println()

	fmt.Println("Embedding providers: ollama, mock")
	cfg.Embedding.Provider = prompt(reader, "Embedding provider", cfg.Embedding.Provider)
	if cfg.Embedding.Provider == "ollama" {
		cfg.Embedding.BaseURL = prompt(reader, "Ollama URL", cfg.Embedding.BaseURL)
		cfg.Embedding.Model = prompt(reader, "Embedding model", cfg.Embedding.Model)
	}
	fmt.Println()
}

func saveInitConfig(cwd, configPath string, cfg *Config) {
	dir := ConfigDir(cwd)
	if err := os.MkdirAll(dir, 0750); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot create .ckg directory: %v\n", err)
		os.Exit(1)
	}
	if err := SaveConfig(cfg, configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot save configuration: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Created %s\n", configPath)
	addToGitignore(cwd)
}

func handleHookInstallation(reader *bufio.Reader, f initFlags) {
	if f.noHook {
		return
	}
	shouldInstall := f.withHook
	if !f.withHook && !f.nonInteractive {
		fmt.Println()
		answer := strings.ToLower(strings.TrimSpace(prompt(reader, "Install git hook for auto-update? (Y/n)", "y")))
		shouldInstall = answer != "n" && answer != "no"
	} else if f.nonInteractive {
		shouldInstall = true
	}
	if !shouldInstall {
		return
	}

	gitDir, err := findGitDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: cannot find .git directory: %v\n", err)
		return
	}
	hookPath := filepath.Join(gitDir, "hooks", "post-commit")
	if err := installHook(hookPath, false); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: cannot install git hook: %v\n", err)
		return
	}
	fmt.Printf("Git hook installed: %s\n", hookPath)
}

func printNextSteps(noHook bool, repoName string) {
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Review .ckg/project.yaml if needed")
	fmt.Printf("  2. Run 'ckg index %s' to index your repository\n", repoName)
	fmt.Println("  3. Run 'ckg status' to verify indexing")
	if noHook {
		fmt.Println()
		fmt.Println("Tip: run 'ckg install-hook' to enable auto-update on each commit")
	}
}

// prompt displays an interactive prompt and reads a line from stdin,
// returning defaultValue when the user presses Enter without typing.
func prompt(reader *bufio.Reader, label, defaultValue string) string {
	if defaultValue != "" {
		fmt.Printf("%s [%s]: ", label, defaultValue)
	} else {
		fmt.Printf("%s: ", label)
	}
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultValue
	}
	return input
}

// addToGitignore appends .ckg/ to the project's .gitignore, if one exists
// and doesn't already ignore it.
func addToGitignore(dir string) {
	gitignorePath := filepath.Join(dir, ".gitignore")

	content, err := os.ReadFile(gitignorePath) //nolint:gosec // G304: gitignorePath built from repo dir
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == ".ckg/" || line == ".ckg" || line == "/.ckg/" || line == "/.ckg" {
			return
		}
	}

	f, err := os.OpenFile(gitignorePath, os.O_APPEND|os.O_WRONLY, 0600) //nolint:gosec // G304: gitignorePath built from repo dir
	if err != nil {
		return
	}
	defer func() { _ = f.Close() }()

	if len(content) > 0 && content[len(content)-1] != '\n' {
		_, _ = f.WriteString("\n")
	}
	_, _ = f.WriteString("\n# ckg configuration\n.ckg/\n")
	fmt.Println("Added .ckg/ to .gitignore")
}
