// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/kraklabs/ckg/pkg/coordinator"
	"github.com/kraklabs/ckg/pkg/graphstore"
	"github.com/kraklabs/ckg/pkg/parser"
	"github.com/kraklabs/ckg/pkg/vectorstore"
)

// runUpdate executes 'ckg update [repository]', bringing one already-tracked
// repository (or, with no argument, every tracked repository) in line with
// its current git HEAD via pkg/coordinator's incremental-update protocol.
// This is the CLI surface install-hook's post-commit script calls.
func runUpdate(args []string, globals GlobalFlags) {
	fs := pflag.NewFlagSet("update", pflag.ExitOnError)
	renamePercent := fs.Int("rename-threshold", 0, "git diff -M similarity threshold (0 = git default of 50)")

	fs.Usage = func() {
		fmt.Fprint(os.Stderr, `Usage: ckg update [repository]

Incrementally re-indexes one tracked repository (or all of them, with no
argument) since its last indexed commit.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	ws, err := openWorkspace(globals, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer ws.Close()

	emb, err := buildEmbedder(ws.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	graph := graphstore.New(ws.Backend, ws.Logger)
	vectors := vectorstore.New(ws.Backend, ws.Logger)
	treeParser := parser.NewTreeSitterParser(ws.Logger)
	coord := coordinator.New(graph, vectors, treeParser, emb, ws.Metadata, ws.Logger)

	opts := coordinator.Options{
		ExcludeGlobs:     ws.Config.Indexing.Exclude,
		MaxFileSizeBytes: ws.Config.Indexing.MaxFileSize,
		RenamePercent:    *renamePercent,
		ParseConfig:      parser.Config{MaxFileSizeBytes: ws.Config.Indexing.MaxFileSize, ExtractDocumentation: true},
	}

	ctx := context.Background()

	if fs.NArg() == 0 {
		summary, err := coord.UpdateAll(ctx, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		printBatchSummary(summary)
		if summary.Failed > 0 {
			os.Exit(1)
		}
		return
	}

	name := fs.Arg(0)
	result, err := coord.UpdateRepository(ctx, name, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	printUpdateResult(name, result)
	if result.Status == coordinator.StatusFailed {
		os.Exit(1)
	}
}

func printUpdateResult(name string, r *coordinator.UpdateResult) {
	fmt.Printf("Repository: %s\n", name)
	fmt.Printf("Status: %s\n", r.Status)
	if r.Status == coordinator.StatusNoChanges {
		return
	}
	fmt.Printf("Commits: %s -> %s\n", shortSHA(r.PreviousCommit), shortSHA(r.NewCommit))
	fmt.Printf("Files added/modified/deleted: %d/%d/%d\n", r.FilesAdded, r.FilesModified, r.FilesDeleted)
	fmt.Printf("Chunks upserted/deleted: %d/%d\n", r.ChunksUpserted, r.ChunksDeleted)
	fmt.Printf("Duration: %dms\n", r.DurationMs)
	if len(r.Errors) > 0 {
		fmt.Printf("Errors (%d):\n", len(r.Errors))
		for _, e := range r.Errors {
			fmt.Printf("  %s: %s\n", e.FilePath, e.Message)
		}
	}
}

func printBatchSummary(s *coordinator.BatchSummary) {
	fmt.Printf("Repositories: %d total, %d updated, %d failed\n", s.Total, s.Updated, s.Failed)
	for _, outcome := range s.Results {
		if outcome.Error != "" {
			fmt.Printf("  %s: error: %s\n", outcome.Repository, outcome.Error)
			continue
		}
		fmt.Printf("  %s: %s\n", outcome.Repository, outcome.Result.Status)
	}
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
