// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/kraklabs/ckg/pkg/repometa"
)

// StatusResult is one repository's status, for both table and JSON output.
type StatusResult struct {
	Name          string `json:"name"`
	Status        string `json:"status"`
	FileCount     int    `json:"fileCount"`
	ChunkCount    int    `json:"chunkCount"`
	LastIndexedAt string `json:"lastIndexedAt"`
	LastCommit    string `json:"lastIndexedCommitSha,omitempty"`
	UpdateCount   int    `json:"incrementalUpdateCount"`
	ErrorMessage  string `json:"errorMessage,omitempty"`
}

// ProjectStatus wraps every tracked repository plus top-level project
// identity, the JSON shape 'ckg status --json' emits.
type ProjectStatus struct {
	ProjectID    string         `json:"projectId"`
	DataDir      string         `json:"dataDir"`
	Connected    bool           `json:"connected"`
	Error        string         `json:"error,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
	Repositories []StatusResult `json:"repositories"`
}

// runStatus executes 'ckg status', listing every repository tracked by
// this project's pkg/repometa store.
func runStatus(args []string, globals GlobalFlags) {
	fs := pflag.NewFlagSet("status", pflag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "Output as JSON")

	fs.Usage = func() {
		fmt.Fprint(os.Stderr, `Usage: ckg status [options]

Shows the indexing status of every repository tracked by this project.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	ws, err := openWorkspace(globals, false)
	if err != nil {
		if *jsonOutput {
			outputStatusJSON(&ProjectStatus{Connected: false, Error: err.Error(), Timestamp: time.Now()})
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
	defer ws.Close()

	repos, err := ws.Metadata.ListRepositories()
	if err != nil {
		if *jsonOutput {
			outputStatusJSON(&ProjectStatus{ProjectID: ws.ProjectID, Connected: true, Error: err.Error(), Timestamp: time.Now()})
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}

	status := &ProjectStatus{ProjectID: ws.ProjectID, Connected: true, Timestamp: time.Now()}
	for _, info := range repos {
		status.Repositories = append(status.Repositories, toStatusResult(info))
	}

	if *jsonOutput {
		outputStatusJSON(status)
	} else {
		printProjectStatus(status)
	}
}

func toStatusResult(info repometa.RepositoryInfo) StatusResult {
	return StatusResult{
		Name:          info.Name,
		Status:        string(info.Status),
		FileCount:     info.FileCount,
		ChunkCount:    info.ChunkCount,
		LastIndexedAt: info.LastIndexedAt,
		LastCommit:    info.LastIndexedCommitSha,
		UpdateCount:   info.IncrementalUpdateCount,
		ErrorMessage:  info.ErrorMessage,
	}
}

func outputStatusJSON(s *ProjectStatus) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(s)
}

func printProjectStatus(s *ProjectStatus) {
	fmt.Println("ckg Project Status")
	fmt.Println("===================")
	fmt.Printf("Project ID: %s\n", s.ProjectID)
	fmt.Println()

	if len(s.Repositories) == 0 {
		fmt.Println("No repositories indexed yet. Run 'ckg index <path>' to index one.")
		return
	}

	for _, r := range s.Repositories {
		fmt.Printf("%s\n", r.Name)
		fmt.Printf("  Status:           %s\n", r.Status)
		fmt.Printf("  Files:            %d\n", r.FileCount)
		fmt.Printf("  Chunks:           %d\n", r.ChunkCount)
		fmt.Printf("  Last indexed:     %s\n", r.LastIndexedAt)
		if r.LastCommit != "" {
			fmt.Printf("  Last commit:      %s\n", shortSHA(r.LastCommit))
		}
		fmt.Printf("  Incremental updates: %d\n", r.UpdateCount)
		if r.ErrorMessage != "" {
			fmt.Printf("  Error:            %s\n", r.ErrorMessage)
		}
		fmt.Println()
	}
}
