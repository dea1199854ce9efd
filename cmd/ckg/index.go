// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"github.com/kraklabs/ckg/internal/repowalk"
	"github.com/kraklabs/ckg/pkg/graphstore"
	"github.com/kraklabs/ckg/pkg/ingestpipeline"
	"github.com/kraklabs/ckg/pkg/parser"
	"github.com/kraklabs/ckg/pkg/repometa"
	"github.com/kraklabs/ckg/pkg/vectorstore"
)

// runIndex executes 'ckg index <path>', ingesting a repository from
// scratch: walking its working tree, parsing every file pkg/parser
// recognizes, and writing the resulting nodes/edges/chunks into the
// project's shared graph and vector stores.
func runIndex(args []string, globals GlobalFlags) {
	fs := pflag.NewFlagSet("index", pflag.ExitOnError)
	full := fs.Bool("full", false, "Re-ingest even if this repository is already tracked")
	name := fs.String("name", "", "Repository name (default: directory basename)")
	url := fs.String("url", "", "Repository URL, recorded in metadata")
	branch := fs.String("branch", "", "Branch name, recorded in metadata (default: current git branch)")
	metricsAddr := fs.String("metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")

	fs.Usage = func() {
		fmt.Fprint(os.Stderr, `Usage: ckg index [options] <path>

Indexes a repository from scratch using .ckg/project.yaml configuration.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	repoPath := "."
	if fs.NArg() > 0 {
		repoPath = fs.Arg(0)
	}
	absRepoPath, err := filepath.Abs(repoPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	repoName := *name
	if repoName == "" {
		repoName = filepath.Base(absRepoPath)
	}

	ws, err := openWorkspace(globals, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer ws.Close()

	if !*full {
		if _, ok, err := ws.Metadata.GetRepository(repoName); err == nil && ok {
			fmt.Printf("Repository %q is already tracked. Run 'ckg update %s' for an incremental re-index,\n", repoName, repoName)
			fmt.Println("or pass --full to re-ingest it from scratch.")
			return
		}
	}

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			ws.Logger.Info("metrics.http.start", "addr", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed { //nolint:gosec // G114: local CLI diagnostics endpoint, not internet-facing
				ws.Logger.Warn("metrics.http.error", "err", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		ws.Logger.Info("shutdown.signal", "signal", sig.String())
		cancel()
	}()

	progressCfg := NewProgressConfig(globals)
	spinner := NewSpinner(progressCfg, "walking repository")
	entries, skipped, err := repowalk.Walk(absRepoPath, ws.Config.Indexing.Exclude, ws.Config.Indexing.MaxFileSize)
	if spinner != nil {
		_ = spinner.Finish()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: walk repository: %v\n", err)
		os.Exit(1)
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "No parseable files found (ckg parses TypeScript, JavaScript, TSX, JSX, and C#).")
		os.Exit(1)
	}

	contents, err := repowalk.ReadAll(entries)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: read files: %v\n", err)
		os.Exit(1)
	}

	files := make([]ingestpipeline.File, 0, len(entries))
	for _, e := range entries {
		files = append(files, ingestpipeline.File{Path: e.Path, Content: contents[e.Path]})
	}

	emb, err := buildEmbedder(ws.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	graph := graphstore.New(ws.Backend, ws.Logger)
	vectors := vectorstore.New(ws.Backend, ws.Logger)
	treeParser := parser.NewTreeSitterParser(ws.Logger)
	pipeline := ingestpipeline.New(graph, vectors, treeParser, emb, ws.Logger)

	collectionName := repometa.SanitizeCollectionName(repoName)
	bar := NewProgressBar(progressCfg, 100, "indexing "+repoName)

	opts := ingestpipeline.Options{
		Repository:          repoName,
		RepositoryURL:       *url,
		Branch:              resolveBranch(*branch, absRepoPath),
		Force:               *full,
		CollectionName:      collectionName,
		EmbeddingDimensions: ws.Config.Embedding.Dimensions,
		ParseConfig:         parser.Config{MaxFileSizeBytes: ws.Config.Indexing.MaxFileSize, ExtractDocumentation: true},
		OnProgress: func(ev ingestpipeline.ProgressEvent) {
			if bar != nil {
				_ = bar.Set(ev.Percentage)
			}
		},
	}

	result, err := pipeline.IngestFiles(ctx, files, opts)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: indexing failed: %v\n", err)
		os.Exit(1)
	}

	info := repometa.RepositoryInfo{
		Name:                repoName,
		URL:                 *url,
		LocalPath:           absRepoPath,
		CollectionName:      collectionName,
		FileCount:           result.Stats.FilesProcessed,
		ChunkCount:          result.Stats.NodesByType["Chunk"],
		LastIndexedAt:       time.Now().UTC().Format(time.RFC3339),
		IndexDurationMs:     result.Stats.DurationMs,
		Status:              statusFor(result.Status),
		Branch:              resolveBranch(*branch, absRepoPath),
		ExcludePatterns:     ws.Config.Indexing.Exclude,
		EmbeddingProvider:   ws.Config.Embedding.Provider,
		EmbeddingModel:      ws.Config.Embedding.Model,
		EmbeddingDimensions: ws.Config.Embedding.Dimensions,
	}
	if sha, err := headCommit(absRepoPath); err == nil {
		info.LastIndexedCommitSha = sha
	}
	if result.Status != ingestpipeline.StatusSuccess {
		info.ErrorMessage = firstErrorMessage(result.Errors)
	}
	if err := ws.Metadata.UpsertRepository(info); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to record repository metadata: %v\n", err)
	}

	printIndexResult(repoName, result, skipped)
}

func statusFor(s ingestpipeline.Status) repometa.Status {
	switch s {
	case ingestpipeline.StatusSuccess:
		return repometa.StatusReady
	case ingestpipeline.StatusPartial:
		return repometa.StatusReady
	default:
		return repometa.StatusError
	}
}

func firstErrorMessage(errs []ingestpipeline.FileError) string {
	if len(errs) == 0 {
		return ""
	}
	return fmt.Sprintf("%s: %s", errs[0].FilePath, errs[0].Message)
}

// resolveBranch returns explicit when set, else the repository's current
// git branch, else "".
func resolveBranch(explicit, repoPath string) string {
	if explicit != "" {
		return explicit
	}
	cmd := exec.Command("git", "rev-parse", "--abbrev-ref", "HEAD")
	cmd.Dir = repoPath
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

func headCommit(repoPath string) (string, error) {
	cmd := exec.Command("git", "rev-parse", "HEAD")
	cmd.Dir = repoPath
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func printIndexResult(name string, result *ingestpipeline.Result, skipped repowalk.SkipReasons) {
	fmt.Println()
	fmt.Println("=== Indexing Complete ===")
	fmt.Printf("Repository: %s\n", name)
	fmt.Printf("Status: %s\n", result.Status)
	fmt.Printf("Files Processed: %d\n", result.Stats.FilesProcessed)
	fmt.Printf("Files Failed: %d\n", result.Stats.FilesFailed)
	fmt.Printf("Nodes Created: %d\n", result.Stats.NodesCreated)
	fmt.Printf("Relationships Created: %d\n", result.Stats.RelationshipsCreated)

	if len(result.Stats.NodesByType) > 0 {
		fmt.Println("\nNodes by type:")
		for kind, count := range result.Stats.NodesByType {
			fmt.Printf("  %s: %d\n", kind, count)
		}
	}

	if len(skipped) > 0 {
		fmt.Println("\nSkipped during walk:")
		for reason, count := range skipped {
			fmt.Printf("  %s: %d\n", reason, count)
		}
	}

	if len(result.Errors) > 0 {
		fmt.Printf("\nErrors (%d):\n", len(result.Errors))
		for i, e := range result.Errors {
			if i >= 10 {
				fmt.Printf("  ... and %d more\n", len(result.Errors)-10)
				break
			}
			fmt.Printf("  %s: %s\n", e.FilePath, e.Message)
		}
	}

	fmt.Printf("\nDuration: %dms\n", result.Stats.DurationMs)
}
