// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package graphstore

import "fmt"

// Deterministic id generation, one function per node kind, following the
// spec's "(repository, filePath, name, lineStart)"-style identity keys so
// upsertNode is idempotent across re-ingestion without a separate lookup.

// RepositoryID is the id for a Repository node: its name is globally unique.
func RepositoryID(name string) string {
	return fmt.Sprintf("Repository:%s", name)
}

// FileID is the id for a File node.
func FileID(repository, path string) string {
	return fmt.Sprintf("File:%s:%s", repository, path)
}

// FunctionID is the id for a Function node. lineStart disambiguates
// same-named overloads/nested functions at different locations.
func FunctionID(repository, filePath, name string, lineStart int) string {
	return fmt.Sprintf("Function:%s:%s:%s:%d", repository, filePath, name, lineStart)
}

// ClassID is the id for a Class node.
func ClassID(repository, filePath, name string) string {
	return fmt.Sprintf("Class:%s:%s:%s", repository, filePath, name)
}

// InterfaceID is the id for an Interface node.
func InterfaceID(repository, filePath, name string) string {
	return fmt.Sprintf("Interface:%s:%s:%s", repository, filePath, name)
}

// TypeAliasID is the id for a TypeAlias node.
func TypeAliasID(repository, filePath, name string) string {
	return fmt.Sprintf("TypeAlias:%s:%s:%s", repository, filePath, name)
}

// EnumID is the id for an Enum node.
func EnumID(repository, filePath, name string) string {
	return fmt.Sprintf("Enum:%s:%s:%s", repository, filePath, name)
}

// ModuleID is the id for a Module node: an external-package marker, unique
// by name across the whole graph (not scoped to a repository).
func ModuleID(name string) string {
	return fmt.Sprintf("Module:%s", name)
}

// ChunkID is the id for a Chunk node; chromaID is the id shared with the
// vector store document it mirrors.
func ChunkID(chromaID string) string {
	return fmt.Sprintf("Chunk:%s", chromaID)
}

// idFor resolves a NodeRef to the deterministic id its kind uses, for kinds
// whose identity is a single (repository, path-or-name) pair. Function/
// Class/... identities that also need filePath+lineStart are resolved by
// their callers directly (NodeRef's Identifier can't carry that much
// structure); idFor covers the common single-identifier case traverse/
// analyzeDependencies/getContext take as input.
func idFor(ref NodeRef) string {
	switch ref.Kind {
	case KindRepository:
		return RepositoryID(ref.Identifier)
	case KindModule:
		return ModuleID(ref.Identifier)
	case KindChunk:
		return ChunkID(ref.Identifier)
	case KindFile:
		return FileID(ref.Repository, ref.Identifier)
	default:
		// Function/Class/Interface/TypeAlias/Enum: Identifier is expected
		// to already be the fully-qualified id (callers resolve these via
		// FunctionID/ClassID/... before building a NodeRef, since their
		// identity needs filePath+name plus, for Function, lineStart).
		return ref.Identifier
	}
}
