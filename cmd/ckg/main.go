// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package main implements the ckg CLI: indexing repositories into, and
// querying, the code-knowledge graph and vector index.
//
// Usage:
//
//	ckg init                      Create .ckg/project.yaml configuration
//	ckg index <repo>               Index a repository from scratch
//	ckg update [repo]               Incrementally re-index since the last commit indexed
//	ckg status [--json]            Show indexed-repository status
//	ckg query <script> [--json]    Execute a CozoScript query
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// GlobalFlags carries flags accepted before the subcommand name.
type GlobalFlags struct {
	ConfigPath string
	Quiet      bool
	NoColor    bool
}

func main() {
	flags := pflag.NewFlagSet("ckg", pflag.ContinueOnError)
	showVersion := flags.Bool("version", false, "Show version and exit")
	configPath := flags.String("config", "", "Path to .ckg/project.yaml (default: ./.ckg/project.yaml)")
	quiet := flags.Bool("quiet", false, "Suppress progress output")
	noColor := flags.Bool("no-color", false, "Disable colored output")

	flags.Usage = printUsage

	if err := flags.Parse(os.Args[1:]); err != nil {
		os.Exit(1)
	}

	if *showVersion {
		fmt.Printf("ckg version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		os.Exit(0)
	}

	args := flags.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	globals := GlobalFlags{ConfigPath: *configPath, Quiet: *quiet, NoColor: *noColor}
	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "init":
		runInit(cmdArgs, globals)
	case "index":
		runIndex(cmdArgs, globals)
	case "update":
		runUpdate(cmdArgs, globals)
	case "status":
		runStatus(cmdArgs, globals)
	case "query":
		runQuery(cmdArgs, globals)
	case "reset":
		runReset(cmdArgs, globals)
	case "install-hook":
		runInstallHook(cmdArgs, globals)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `ckg - code-knowledge graph CLI

Usage:
  ckg <command> [options]

Commands:
  init          Create .ckg/project.yaml configuration
  index         Index a repository from scratch
  update        Incrementally re-index a repository since its last indexed commit
  status        Show indexed-repository status
  query         Execute a CozoScript query
  reset         Reset local data for a repository (destructive!)
  install-hook  Install a git post-commit hook that runs 'ckg update'

Global Options:
  --config      Path to .ckg/project.yaml
  --quiet       Suppress progress output
  --no-color    Disable colored output
  --version     Show version and exit

Examples:
  ckg init
  ckg index ./my-repo
  ckg index ./my-repo --full
  ckg update my-repo
  ckg status --json
  ckg query "?[kind] := *ckg_node{kind}"

Data Storage:
  Data is stored locally in ~/.ckg/data/<project-id>/, where <project-id>
  is derived from the name of the directory holding .ckg/project.yaml.

Environment Variables:
  OLLAMA_HOST          Ollama URL (default: http://localhost:11434)
  OLLAMA_EMBED_MODEL   Embedding model (default: nomic-embed-text)
  CKG_EMBEDDING_PROVIDER  ollama or mock (default: ollama)

`)
}
