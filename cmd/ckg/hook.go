// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
)

const postCommitHookContent = `#!/bin/sh
# ckg auto-update hook - installed by: ckg install-hook
# Remove with: ckg install-hook --remove

ckg update 2>/dev/null &
`

const ckgHookMarker = "# ckg auto-update hook"

// runInstallHook executes 'ckg install-hook', installing or removing a git
// post-commit hook that runs 'ckg update' in the background after each
// commit so the index never drifts more than one commit behind HEAD.
func runInstallHook(args []string, globals GlobalFlags) {
	fs := pflag.NewFlagSet("install-hook", pflag.ExitOnError)
	force := fs.Bool("force", false, "Overwrite an existing (non-ckg) hook")
	remove := fs.Bool("remove", false, "Remove the hook instead of installing")

	fs.Usage = func() {
		fmt.Fprint(os.Stderr, `Usage: ckg install-hook [options]

Installs a git post-commit hook that runs 'ckg update' in the background
after each commit.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	gitDir, err := findGitDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	hookPath := filepath.Join(gitDir, "hooks", "post-commit")

	if *remove {
		if err := removeHook(hookPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Git hook removed.")
		return
	}

	if err := installHook(hookPath, *force); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Git hook installed: %s\n", hookPath)
}

// findGitDir walks up from the current working directory looking for .git,
// resolving the gitdir pointer file used by worktrees.
func findGitDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	dir := cwd
	for {
		gitPath := filepath.Join(dir, ".git")
		if info, err := os.Stat(gitPath); err == nil {
			if info.IsDir() {
				return gitPath, nil
			}
			content, err := os.ReadFile(gitPath) //nolint:gosec // G304: gitPath derived from cwd walk
			if err != nil {
				return "", fmt.Errorf("cannot read .git file: %w", err)
			}
			var gitdir string
			if _, err := fmt.Sscanf(string(content), "gitdir: %s", &gitdir); err == nil {
				if filepath.IsAbs(gitdir) {
					return gitdir, nil
				}
				return filepath.Join(dir, gitdir), nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("not a git repository (or any of the parent directories)")
}

// installHook writes the ckg post-commit hook to hookPath. If a hook
// already exists, it refuses unless force is set or the existing hook is
// already a ckg hook.
func installHook(hookPath string, force bool) error {
	hookDir := filepath.Dir(hookPath)
	if err := os.MkdirAll(hookDir, 0750); err != nil {
		return fmt.Errorf("cannot create hooks directory: %w", err)
	}

	if _, err := os.Stat(hookPath); err == nil {
		if !force {
			content, err := os.ReadFile(hookPath) //nolint:gosec // G304: hookPath derived from .git dir
			if err == nil && containsCKGMarker(string(content)) {
				fmt.Println("ckg hook already installed. Use --force to reinstall.")
				return nil
			}
			return fmt.Errorf("hook already exists at %s\nuse --force to overwrite", hookPath)
		}
	}

	if err := os.WriteFile(hookPath, []byte(postCommitHookContent), 0750); err != nil { //nolint:gosec // G306: hooks must be executable
		return fmt.Errorf("cannot write hook: %w", err)
	}
	return nil
}

// removeHook deletes hookPath, refusing if it wasn't installed by ckg.
func removeHook(hookPath string) error {
	content, err := os.ReadFile(hookPath) //nolint:gosec // G304: hookPath derived from .git dir
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no hook found at %s", hookPath)
		}
		return fmt.Errorf("cannot read hook: %w", err)
	}
	if !containsCKGMarker(string(content)) {
		return fmt.Errorf("hook at %s was not installed by ckg\nremove it manually if needed", hookPath)
	}
	if err := os.Remove(hookPath); err != nil {
		return fmt.Errorf("cannot remove hook: %w", err)
	}
	return nil
}

func containsCKGMarker(content string) bool {
	return strings.Contains(content, ckgHookMarker)
}

// IsHookInstalled reports whether the ckg post-commit hook is currently
// installed in the nearest enclosing git repository.
func IsHookInstalled() bool {
	gitDir, err := findGitDir()
	if err != nil {
		return false
	}
	content, err := os.ReadFile(filepath.Join(gitDir, "hooks", "post-commit")) //nolint:gosec // G304: path built from resolved .git dir
	if err != nil {
		return false
	}
	return containsCKGMarker(string(content))
}
