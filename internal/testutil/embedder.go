// Package testutil provides test doubles shared across package tests.
package testutil

import (
	"context"
	"hash/fnv"
	"math"
)

// FakeEmbedder produces deterministic vectors without a network call.
// Texts listed in Fixed map to prescribed vectors; anything else gets a
// stable hash-derived unit vector.
type FakeEmbedder struct {
	Dim   int
	Fixed map[string][]float32
}

func NewFakeEmbedder() *FakeEmbedder {
	return &FakeEmbedder{Dim: 8, Fixed: map[string][]float32{}}
}

func (f *FakeEmbedder) Name() string { return "fake" }

func (f *FakeEmbedder) Dimension() int { return f.Dim }

func (f *FakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if v, ok := f.Fixed[text]; ok {
		return v, nil
	}
	vec := make([]float32, f.Dim)
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()
	var norm float64
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float32(int64(seed>>33)) / float32(1<<30)
		norm += float64(vec[i]) * float64(vec[i])
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec, nil
}

func (f *FakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := f.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
