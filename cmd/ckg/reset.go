// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/kraklabs/ckg/pkg/vectorstore"
)

// runReset executes 'ckg reset [repository]'. With no argument it deletes
// the entire local project data directory (graph store, vector store, and
// repository metadata all live under one CozoDB file per project). With a
// repository name it removes just that repository's vector collection and
// metadata record, leaving the rest of the project's graph intact; run
// 'ckg index --full <repo>' afterward to fully reconcile the shared graph.
func runReset(args []string, globals GlobalFlags) {
	fs := pflag.NewFlagSet("reset", pflag.ExitOnError)
	confirm := fs.Bool("yes", false, "Confirm the reset (required)")

	fs.Usage = func() {
		fmt.Fprint(os.Stderr, `Usage: ckg reset [options] [repository]

Resets local indexed data. With no repository argument, deletes the entire
project's local data directory. With a repository argument, removes just
that repository's vector collection and metadata record.

WARNING: this operation is destructive and cannot be undone.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if !*confirm {
		fmt.Fprintln(os.Stderr, "Error: you must pass --yes to confirm the reset")
		os.Exit(1)
	}

	if fs.NArg() == 0 {
		resetProject(globals)
		return
	}
	resetRepository(globals, fs.Arg(0))
}

func resetProject(globals GlobalFlags) {
	root, err := workspaceRoot(globals.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	id := projectID(root)
	dataDir := filepath.Join(mustHomeDir(), ".ckg", "data", id)

	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		fmt.Printf("No local data found for project %s\n", id)
		return
	}

	fmt.Printf("Resetting project %s (deleting %s)...\n", id, dataDir)
	if err := os.RemoveAll(dataDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to delete data: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Reset complete. All local indexed data has been deleted.")
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  ckg index --full <path>    Reindex a repository")
}

func resetRepository(globals GlobalFlags, name string) {
	ws, err := openWorkspace(globals, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer ws.Close()

	info, ok, err := ws.Metadata.GetRepository(name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if !ok {
		fmt.Fprintf(os.Stderr, "Repository %q is not tracked\n", name)
		os.Exit(1)
	}

	vectors := vectorstore.New(ws.Backend, ws.Logger)
	if err := vectors.DeleteCollection(context.Background(), info.CollectionName); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to delete vector collection: %v\n", err)
	}
	if err := ws.Metadata.RemoveRepository(name); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to remove metadata: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Reset complete for %s.\n", name)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Printf("  ckg index --full <path>    Reindex %s from scratch\n", name)
}
