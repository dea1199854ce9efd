// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package storage

import (
	"context"

	cozo "github.com/kraklabs/ckg/pkg/cozodb"
)

// Backend is the interface graphstore and vectorstore both build on.
type Backend interface {
	// Query executes a read-only CozoScript query with bound params.
	Query(ctx context.Context, script string, params map[string]any) (*QueryResult, error)

	// Execute runs a CozoScript mutation with bound params.
	Execute(ctx context.Context, script string, params map[string]any) error

	// Close releases the underlying database handle.
	Close() error
}

// QueryResult is the result of a CozoScript query.
type QueryResult struct {
	Headers []string
	Rows    [][]any
}

// ToNamedRows converts QueryResult to the cozodb binding's NamedRows.
func (r *QueryResult) ToNamedRows() cozo.NamedRows {
	return cozo.NamedRows{Headers: r.Headers, Rows: r.Rows}
}

// FromNamedRows converts the cozodb binding's NamedRows to a QueryResult.
func FromNamedRows(nr cozo.NamedRows) *QueryResult {
	return &QueryResult{Headers: nr.Headers, Rows: nr.Rows}
}
