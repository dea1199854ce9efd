// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/kraklabs/ckg/internal/contract"
	"github.com/kraklabs/ckg/pkg/storage"
)

// runQuery executes 'ckg query <cozoscript>' against the project's shared
// CozoDB backend.
func runQuery(args []string, globals GlobalFlags) {
	fs := pflag.NewFlagSet("query", pflag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	timeout := fs.Duration("timeout", 30*time.Second, "Query timeout")
	limit := fs.Int("limit", 0, "Add :limit to the query (0 = no limit)")

	fs.Usage = func() {
		fmt.Fprint(os.Stderr, `Usage: ckg query [options] <cozoscript>

Executes a CozoScript query against the local ckg database.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprint(os.Stderr, `
Examples:
  ckg query "?[kind, count(id)] := *ckg_node{id, kind}" --limit 20

  ckg query "?[id] := *ckg_node{id, kind: 'Function'}, regex_matches(id, '(?i)embed')"

  ckg query "?[from_id] := *ckg_edge{from_id, to_id, rel_type: 'CALLS'}, *ckg_node{id: to_id, attrs}, str_includes(attrs, 'NewPipeline')"

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: script argument required")
		fs.Usage()
		os.Exit(1)
	}

	script := fs.Arg(0)
	if *limit > 0 {
		trimmed := strings.TrimSpace(script)
		if !strings.Contains(strings.ToLower(trimmed), ":limit") {
			script = fmt.Sprintf("%s :limit %d", trimmed, *limit)
		}
	}

	if v := contract.ValidateQueryScript(script); !v.OK {
		reportQueryError(*jsonOutput, fmt.Errorf("%s", v.Message))
		os.Exit(1)
	}

	ws, err := openWorkspace(globals, false)
	if err != nil {
		reportQueryError(*jsonOutput, err)
		os.Exit(1)
	}
	defer ws.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result, err := ws.Backend.Query(ctx, script, nil)
	if err != nil {
		reportQueryError(*jsonOutput, fmt.Errorf("query failed: %w", err))
		os.Exit(1)
	}

	if *jsonOutput {
		outputQueryJSON(result)
	} else {
		printQueryResult(result)
	}
}

func reportQueryError(jsonOutput bool, err error) {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(map[string]any{"error": err.Error()})
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}

func outputQueryJSON(result *storage.QueryResult) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(map[string]any{
		"headers": result.Headers,
		"rows":    result.Rows,
		"count":   len(result.Rows),
	})
}

func printQueryResult(result *storage.QueryResult) {
	if len(result.Rows) == 0 {
		fmt.Println("No results")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	for i, h := range result.Headers {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, strings.ToUpper(h))
	}
	fmt.Fprintln(w)

	for i := range result.Headers {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, "---")
	}
	fmt.Fprintln(w)

	for _, row := range result.Rows {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(w, "\t")
			}
			fmt.Fprint(w, formatCell(cell))
		}
		fmt.Fprintln(w)
	}

	_ = w.Flush()
	fmt.Printf("\n(%d rows)\n", len(result.Rows))
}

func formatCell(v any) string {
	switch val := v.(type) {
	case string:
		if len(val) > 60 {
			return val[:57] + "..."
		}
		return val
	case float64:
		if val == float64(int(val)) {
			return fmt.Sprintf("%d", int(val))
		}
		return fmt.Sprintf("%.2f", val)
	case nil:
		return "<null>"
	default:
		s := fmt.Sprintf("%v", val)
		if len(s) > 60 {
			return s[:57] + "..."
		}
		return s
	}
}
