// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kraklabs/ckg/pkg/repometa"
)

func TestToStatusResult_MapsAllFields(t *testing.T) {
	info := repometa.RepositoryInfo{
		Name:                   "widgets",
		Status:                 repometa.StatusReady,
		FileCount:              12,
		ChunkCount:             340,
		LastIndexedAt:          "2026-07-29T00:00:00Z",
		LastIndexedCommitSha:   "abc123def456",
		IncrementalUpdateCount: 3,
		ErrorMessage:           "",
	}

	got := toStatusResult(info)

	assert.Equal(t, "widgets", got.Name)
	assert.Equal(t, "ready", got.Status)
	assert.Equal(t, 12, got.FileCount)
	assert.Equal(t, 340, got.ChunkCount)
	assert.Equal(t, "abc123def456", got.LastCommit)
	assert.Equal(t, 3, got.UpdateCount)
}

func TestToStatusResult_CarriesErrorMessage(t *testing.T) {
	info := repometa.RepositoryInfo{Name: "broken", Status: repometa.StatusError, ErrorMessage: "parse failed"}
	got := toStatusResult(info)
	assert.Equal(t, "parse failed", got.ErrorMessage)
}
