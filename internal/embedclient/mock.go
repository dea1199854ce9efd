// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package embedclient

import (
	"context"
	"hash/fnv"
)

// Mock produces deterministic, unit-length vectors derived from a hash of
// the input text, for tests and offline runs where no real embedding
// provider is reachable. Same text always yields the same vector.
type Mock struct {
	Dimensions int
}

// NewMock builds a Mock embedder producing vectors of the given dimension.
// dimensions defaults to 768 (nomic-embed-text's size) when <= 0.
func NewMock(dimensions int) *Mock {
	if dimensions <= 0 {
		dimensions = 768
	}
	return &Mock{Dimensions: dimensions}
}

// Embed satisfies pkg/ingestpipeline.Embedder and pkg/coordinator.Embedder.
func (m *Mock) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = m.vectorFor(text)
	}
	return out, nil
}

func (m *Mock) vectorFor(text string) []float32 {
	seed := fnv.New64a()
	_, _ = seed.Write([]byte(text))
	state := seed.Sum64()

	vec := make([]float32, m.Dimensions)
	for i := range vec {
		// xorshift64, seeded from the text hash above
		state ^= state << 13
		state ^= state >> 7
		state ^= state << 17
		vec[i] = float32(state%2000)/1000 - 1 // spread into [-1, 1)
	}
	return normalize(vec)
}
