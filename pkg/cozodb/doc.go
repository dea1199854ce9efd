// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cozodb provides a Go binding for CozoDB v0.7.6+.
//
// CozoDB is a Datalog-based embedded database designed for graph queries
// and complex data relationships. ckg uses a single CozoDB instance as the
// storage engine for both its graph store (pkg/graphstore) and its vector
// store (pkg/vectorstore): CozoDB's recursive Datalog rules serve graph
// traversal and its HNSW indexes serve similarity search.
//
// # Requirements
//
// This package requires CGO and the CozoDB C library (libcozo_c). Build with:
//
//	CGO_ENABLED=1 go build
//
// The CozoDB library must be installed on your system:
//
//	# macOS (Homebrew)
//	brew install cozodb
//
//	# Linux (from source or package manager)
//	# See https://github.com/cozodb/cozo for installation
//
// You may need to set library paths:
//
//	export CGO_LDFLAGS="-L/path/to/libcozo_c"
//	export CGO_CFLAGS="-I/path/to/cozo_c.h"
//
// # Storage Engines
//
// CozoDB supports multiple storage backends:
//   - "mem": In-memory, fast but not persisted (good for testing)
//   - "sqlite": SQLite-backed, single-file persistence
//   - "rocksdb": RocksDB-backed, best performance for production
//
// # Quick Start
//
// Open a database and run queries:
//
//	// Open with RocksDB storage
//	db, err := cozodb.New("rocksdb", "/path/to/data", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	// Run a simple query
//	result, err := db.Run(`?[x] := x = 1 + 1`, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("1 + 1 = %v\n", result.Rows[0][0])
//
// # Read-Only Queries
//
// Use RunReadOnly for queries that should not modify data:
//
//	// This enforces read-only semantics at the database level
//	result, err := db.RunReadOnly(`?[id, kind] := *ckg_node{id, kind}`, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Parameterized Queries
//
// Pass parameters to prevent injection and improve readability:
//
//	params := map[string]any{
//	    "kind": "Function",
//	}
//	result, err := db.Run(`
//	    ?[id, attrs] :=
//	        *ckg_node{id, kind, attrs},
//	        kind == $kind
//	`, params)
//
// # Backup and Restore
//
// Create and restore database backups:
//
//	// Create backup
//	err := db.Backup("/path/to/backup.db")
//
//	// Restore from backup
//	err := db.Restore("/path/to/backup.db")
//
// # ckg Data Model
//
// ckg uses a small set of generic relations so that arbitrary node kinds
// (Repository, File, Function, Class, Interface, TypeAlias, Enum, Module,
// Chunk) and relationship kinds (CONTAINS, DEFINES, IMPORTS, CALLS,
// REFERENCES, HAS_CHUNK) can share one schema instead of one table per
// language construct:
//
//	ckg_node            - every node, keyed by deterministic id, with a kind tag and a JSON attribute blob
//	ckg_edge            - every relationship, keyed by id, with from/to node ids, a type tag, and a JSON property blob
//	ckg_repository      - one row per indexed repository, keyed by name, with url, branch, and indexed_at
//
// Collections created through pkg/vectorstore are realized as additional
// embedding relations named from the sanitized collection name, each with
// its own HNSW index sized to the collection's declared dimensionality.
//
// # Version Compatibility
//
// This binding targets CozoDB v0.7.6+ which includes the immutable_query
// parameter in the C API. Earlier versions may not work correctly with
// the RunReadOnly method.
package cozodb
