// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package parser

import (
	"context"
	"os/exec"
	"sync"
)

var (
	csharpToolchainOnce sync.Once
	csharpToolchainPath string
)

// detectCSharpToolchain looks for a dotnet or csc binary on PATH once per
// process and caches the result. ResetCSharpToolchainCacheForTest clears
// the cache for tests that need to simulate toolchain presence/absence.
func detectCSharpToolchain() string {
	csharpToolchainOnce.Do(func() {
		if path, err := exec.LookPath("dotnet"); err == nil {
			csharpToolchainPath = path
			return
		}
		if path, err := exec.LookPath("csc"); err == nil {
			csharpToolchainPath = path
		}
	})
	return csharpToolchainPath
}

// ResetCSharpToolchainCacheForTest clears the cached toolchain detection
// so tests can exercise both the present and absent paths.
func ResetCSharpToolchainCacheForTest() {
	csharpToolchainOnce = sync.Once{}
	csharpToolchainPath = ""
}

// parseCSharp is the C# branch of Parse. ckg does not bundle a C#
// tree-sitter grammar and runs no C# extractor: when no dotnet/csc
// toolchain is detected the file is skipped with success=true, no
// entities, and one recoverable ParseError; when a toolchain is detected
// the result is success=true with no entities, imports, or calls. Neither
// case hard-fails an otherwise valid ingestion run.
func parseCSharp(ctx context.Context, content []byte, filename string, cfg Config) (*ParseResult, error) {
	if detectCSharpToolchain() == "" {
		return &ParseResult{
			Language: LanguageCSharp,
			Success:  true,
			Errors: []ParseError{{
				Message:     "no dotnet/csc toolchain detected; C# file skipped",
				Recoverable: true,
			}},
		}, nil
	}

	// The detected toolchain is not invoked; no C# source is extracted.
	return &ParseResult{
		Language: LanguageCSharp,
		Success:  true,
	}, nil
}
