// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package repowalk walks a repository's working tree, applying exclude
// globs and a max-file-size cutoff, producing the file list cmd/ckg feeds
// to pkg/ingestpipeline. Only files pkg/parser recognizes by extension are
// returned, since ckg only parses TS/JS/TSX/JSX/C#.
package repowalk

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/kraklabs/ckg/pkg/parser"
)

// Entry is one source file discovered under a repository root.
type Entry struct {
	// Path is repository-relative, using "/" separators.
	Path string
	// FullPath is the absolute filesystem path.
	FullPath string
	Size     int64
}

// SkipReasons tallies why files were excluded, for CLI progress reporting.
type SkipReasons map[string]int

// Walk collects every parseable file under root not matched by an
// excludeGlobs entry and not exceeding maxFileSize (0 disables the limit).
func Walk(root string, excludeGlobs []string, maxFileSize int64) ([]Entry, SkipReasons, error) {
	var entries []Entry
	skipped := make(SkipReasons)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		relPath, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		if relPath == "." {
			return nil
		}

		if d.IsDir() {
			if matchesAny(relPath, excludeGlobs) {
				skipped["excluded_dir"]++
				return filepath.SkipDir
			}
			return nil
		}

		if matchesAny(relPath, excludeGlobs) {
			skipped["excluded"]++
			return nil
		}

		if _, ok := parser.LanguageForExtension(path); !ok {
			skipped["unsupported_language"]++
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}
		if maxFileSize > 0 && info.Size() > maxFileSize {
			skipped["too_large"]++
			return nil
		}

		entries = append(entries, Entry{
			Path:     filepath.ToSlash(relPath),
			FullPath: path,
			Size:     info.Size(),
		})
		return nil
	})
	return entries, skipped, err
}

// ReadAll reads every entry's content, for handing off to
// pkg/ingestpipeline.File.
func ReadAll(entries []Entry) (map[string][]byte, error) {
	contents := make(map[string][]byte, len(entries))
	for _, e := range entries {
		data, err := os.ReadFile(e.FullPath) //nolint:gosec // G304: path comes from a directory walk under the user's own repository
		if err != nil {
			return nil, err
		}
		contents[e.Path] = data
	}
	return contents, nil
}

func matchesAny(path string, globs []string) bool {
	normalized := filepath.ToSlash(path)
	for _, pattern := range globs {
		if matchGlob(normalized, pattern) {
			return true
		}
	}
	return false
}

// matchGlob reports whether path matches pattern, supporting *, **, ?, and
// [...] character classes. A pattern with no ** prefix may match at any
// path depth, not only from the root.
func matchGlob(path, pattern string) bool {
	pattern = filepath.ToSlash(pattern)

	if strings.HasSuffix(pattern, "/**") {
		prefix := strings.TrimSuffix(pattern, "/**")
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
		parts := strings.Split(path, "/")
		for i := range parts {
			subpath := strings.Join(parts[i:], "/")
			if subpath == prefix || strings.HasPrefix(subpath, prefix+"/") {
				return true
			}
		}
		return false
	}

	if strings.HasPrefix(pattern, "*.") && !strings.Contains(pattern, "/") {
		return strings.HasSuffix(path, pattern[1:])
	}

	if strings.HasPrefix(pattern, "**/") {
		suffix := pattern[3:]
		if path == suffix || strings.HasSuffix(path, "/"+suffix) {
			return true
		}
		parts := strings.Split(path, "/")
		for i := range parts {
			if matchGlobPattern(strings.Join(parts[i:], "/"), suffix) {
				return true
			}
		}
		return false
	}

	if !strings.ContainsAny(pattern, "*?[") {
		return path == pattern || strings.HasSuffix(path, "/"+pattern) || strings.HasPrefix(path, pattern+"/")
	}

	if matchGlobPattern(path, pattern) {
		return true
	}
	parts := strings.Split(path, "/")
	for i := range parts {
		if matchGlobPattern(strings.Join(parts[i:], "/"), pattern) {
			return true
		}
	}
	return false
}

func matchGlobPattern(path, pattern string) bool {
	return matchGlobRecursive(path, pattern, 0, 0)
}

func matchGlobRecursive(path, pattern string, pi, pti int) bool {
	for pi < len(path) || pti < len(pattern) {
		if pti >= len(pattern) {
			return false
		}

		if pti+1 < len(pattern) && pattern[pti] == '*' && pattern[pti+1] == '*' {
			nextPti := pti + 2
			if nextPti < len(pattern) && pattern[nextPti] == '/' {
				nextPti++
			}
			if nextPti >= len(pattern) {
				return true
			}
			for i := pi; i <= len(path); i++ {
				if matchGlobRecursive(path, pattern, i, nextPti) {
					return true
				}
			}
			return false
		}

		if pattern[pti] == '*' {
			nextPti := pti + 1
			for i := pi; i <= len(path); i++ {
				if i > pi && path[i-1] == '/' {
					break
				}
				if matchGlobRecursive(path, pattern, i, nextPti) {
					return true
				}
			}
			return false
		}

		if pattern[pti] == '?' {
			if pi >= len(path) || path[pi] == '/' {
				return false
			}
			pi++
			pti++
			continue
		}

		if pattern[pti] == '[' {
			if pi >= len(path) {
				return false
			}
			closeIdx := pti + 1
			if closeIdx < len(pattern) && (pattern[closeIdx] == '!' || pattern[closeIdx] == '^') {
				closeIdx++
			}
			if closeIdx < len(pattern) && pattern[closeIdx] == ']' {
				closeIdx++
			}
			for closeIdx < len(pattern) && pattern[closeIdx] != ']' {
				closeIdx++
			}
			if closeIdx >= len(pattern) {
				if path[pi] != '[' {
					return false
				}
				pi++
				pti++
				continue
			}
			if !matchCharClass(path[pi], pattern[pti+1:closeIdx]) {
				return false
			}
			pi++
			pti = closeIdx + 1
			continue
		}

		if pi >= len(path) || path[pi] != pattern[pti] {
			return false
		}
		pi++
		pti++
	}
	return pi == len(path) && pti == len(pattern)
}

func matchCharClass(c byte, class string) bool {
	if len(class) == 0 {
		return false
	}
	negated := false
	idx := 0
	if class[0] == '!' || class[0] == '^' {
		negated = true
		idx = 1
	}
	matched := false
	for idx < len(class) {
		if idx+2 < len(class) && class[idx+1] == '-' {
			if c >= class[idx] && c <= class[idx+2] {
				matched = true
			}
			idx += 3
			continue
		}
		if c == class[idx] {
			matched = true
		}
		idx++
	}
	if negated {
		return !matched
	}
	return matched
}
