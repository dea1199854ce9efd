// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package graphstore

// NodeKind is one of the spec's node kinds. Unlike a general labeled-property
// graph, ckg assigns exactly one kind per node, so "labels[]" in the
// language-neutral dictionary form below is always a single-element slice.
type NodeKind string

const (
	KindRepository NodeKind = "Repository"
	KindFile       NodeKind = "File"
	KindFunction   NodeKind = "Function"
	KindClass      NodeKind = "Class"
	KindInterface  NodeKind = "Interface"
	KindTypeAlias  NodeKind = "TypeAlias"
	KindEnum       NodeKind = "Enum"
	KindModule     NodeKind = "Module"
	KindChunk      NodeKind = "Chunk"
)

// RelType is one of the spec's directed relationship kinds.
type RelType string

const (
	RelContains  RelType = "CONTAINS"
	RelDefines   RelType = "DEFINES"
	RelImports   RelType = "IMPORTS"
	RelCalls     RelType = "CALLS"
	RelReferences RelType = "REFERENCES"
	RelHasChunk  RelType = "HAS_CHUNK"
)

// dependencyRelTypes are the edge types analyzeDependencies follows.
var dependencyRelTypes = []RelType{RelImports, RelCalls, RelReferences}

// Node is one graph node: a deterministic id, its kind, and its
// kind-specific attributes.
type Node struct {
	ID    string
	Kind  NodeKind
	Attrs map[string]any
}

// Edge is one directed, typed relationship between two node ids.
type Edge struct {
	ID     string
	From   string
	To     string
	Type   RelType
	Props  map[string]any
}

// NodeRef identifies a node by kind + identifying attributes rather than by
// its opaque id, mirroring how callers of traverse/analyzeDependencies/
// getContext name a starting point.
type NodeRef struct {
	Kind       NodeKind
	Identifier string
	Repository string
}

// NodeDict is the language-neutral flattened form of a Node returned from
// RunQuery/Traverse/GetContext: {id, labels[], ...properties}.
type NodeDict struct {
	ID         string
	Labels     []string
	Properties map[string]any
}

// EdgeDict is the language-neutral flattened form of an Edge.
type EdgeDict struct {
	ID         string
	Type       string
	FromNodeID string
	ToNodeID   string
	Properties map[string]any
}

const (
	maxTraverseDepth = 5
	maxTraverseLimit = 1000
	maxDependencyDepth = 5
	maxContextLimit    = 100
)

// TraverseRequest is the input to Traverse.
type TraverseRequest struct {
	Start         NodeRef
	Relationships []RelType
	Depth         int
	Limit         int
}

// TraverseResult is a bounded subgraph rooted at the start node.
type TraverseResult struct {
	Nodes []NodeDict
	Edges []EdgeDict
}

// DependencyDirection controls which edge orientation analyzeDependencies follows.
type DependencyDirection string

const (
	DependsOn     DependencyDirection = "dependsOn"
	DependedOnBy  DependencyDirection = "dependedOnBy"
	DependencyBoth DependencyDirection = "both"
)

// DependencyRequest is the input to AnalyzeDependencies.
type DependencyRequest struct {
	Target     NodeRef
	Direction  DependencyDirection
	Transitive bool
	MaxDepth   int
}

// DependencyResult reports a node's fan-in/fan-out.
type DependencyResult struct {
	Direct     []NodeDict
	Transitive []NodeDict
	ImpactScore float64
	Metadata   map[string]any
}

// ContextKind is one of the context-expansion relationship categories.
type ContextKind string

const (
	ContextImports       ContextKind = "imports"
	ContextCallers       ContextKind = "callers"
	ContextCallees       ContextKind = "callees"
	ContextSiblings      ContextKind = "siblings"
	ContextDocumentation ContextKind = "documentation"
)

// ContextRequest is the input to GetContext.
type ContextRequest struct {
	Seeds          []NodeRef
	IncludeContext []ContextKind
	Limit          int
}

// ContextItem is one node surfaced by GetContext, annotated with why it
// was included.
type ContextItem struct {
	Node       NodeDict
	Kind       ContextKind
	Relevance  float64
	Reason     string
}

// ContextResult groups ContextItems by the kind that produced them.
type ContextResult struct {
	Items []ContextItem
}
