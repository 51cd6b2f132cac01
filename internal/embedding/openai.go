// Package embedding provides the text embedders backing the vector index.
package embedding

import (
	"context"
	"fmt"
	"sync/atomic"

	openai "github.com/sashabaranov/go-openai"

	"course-rag/internal/llm"
)

// EmbeddingsClient is the slice of the embeddings API this package depends
// on. *openai.Client satisfies it.
type EmbeddingsClient interface {
	CreateEmbeddings(ctx context.Context, req openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// OpenAIEmbedder produces embeddings through an OpenAI-compatible API.
// Dimension is discovered from the first response.
type OpenAIEmbedder struct {
	client    EmbeddingsClient
	model     string
	dimension atomic.Int32
}

func NewOpenAIEmbedder(client EmbeddingsClient, model string) *OpenAIEmbedder {
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}
	return &OpenAIEmbedder{client: client, model: model}
}

// Name returns the identifier of this embedder implementation.
func (e *OpenAIEmbedder) Name() string { return "openai" }

// Dimension returns the vector length, or 0 before the first embedding call.
func (e *OpenAIEmbedder) Dimension() int { return int(e.dimension.Load()) }

// Embed returns the embedding vector for one text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts in one request, retrying once on transient failure.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	var resp openai.EmbeddingResponse
	err := llm.Retry(ctx, func() error {
		var callErr error
		resp, callErr = e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: texts,
			Model: openai.EmbeddingModel(e.model),
		})
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", llm.Classify(err))
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings response has %d vectors for %d inputs", len(resp.Data), len(texts))
	}
	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vectors[i] = d.Embedding
	}
	// first response wins; concurrent callers see a consistent value
	e.dimension.CompareAndSwap(0, int32(len(vectors[0])))
	return vectors, nil
}
