// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package queryservice

import (
	"context"

	"github.com/kraklabs/ckg/pkg/graphstore"
)

type fakeGraph struct {
	dependencyResult *graphstore.DependencyResult
	dependencyErr    error
	traverseResult   *graphstore.TraverseResult
	traverseErr      error
	contextResult    *graphstore.ContextResult
	contextErr       error

	lastDependencyReq graphstore.DependencyRequest
	lastTraverseReq   graphstore.TraverseRequest
	lastContextReq    graphstore.ContextRequest
}

func (g *fakeGraph) AnalyzeDependencies(ctx context.Context, req graphstore.DependencyRequest) (*graphstore.DependencyResult, error) {
	g.lastDependencyReq = req
	if g.dependencyErr != nil {
		return nil, g.dependencyErr
	}
	return g.dependencyResult, nil
}

func (g *fakeGraph) Traverse(ctx context.Context, req graphstore.TraverseRequest) (*graphstore.TraverseResult, error) {
	g.lastTraverseReq = req
	if g.traverseErr != nil {
		return nil, g.traverseErr
	}
	return g.traverseResult, nil
}

func (g *fakeGraph) GetContext(ctx context.Context, req graphstore.ContextRequest) (*graphstore.ContextResult, error) {
	g.lastContextReq = req
	if g.contextErr != nil {
		return nil, g.contextErr
	}
	return g.contextResult, nil
}
