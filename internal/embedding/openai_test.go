package embedding

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"course-rag/internal/llm"
)

// fixedEmbeddingsClient answers every input with a vector of the given width.
type fixedEmbeddingsClient struct {
	width int
	calls atomic.Int32
	errs  []error // consumed first, one per call
	mu    sync.Mutex
}

func (c *fixedEmbeddingsClient) CreateEmbeddings(_ context.Context, conv openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error) {
	c.calls.Add(1)
	c.mu.Lock()
	if len(c.errs) > 0 {
		err := c.errs[0]
		c.errs = c.errs[1:]
		c.mu.Unlock()
		return openai.EmbeddingResponse{}, err
	}
	c.mu.Unlock()

	req, ok := conv.(openai.EmbeddingRequest)
	if !ok {
		return openai.EmbeddingResponse{}, nil
	}
	texts := req.Input.([]string)
	data := make([]openai.Embedding, len(texts))
	for i := range texts {
		data[i] = openai.Embedding{Embedding: make([]float32, c.width)}
	}
	return openai.EmbeddingResponse{Data: data}, nil
}

func TestEmbedBatch(t *testing.T) {
	e := NewOpenAIEmbedder(&fixedEmbeddingsClient{width: 4}, "test-model")

	vectors, err := e.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Len(t, vectors[0], 4)
	assert.Equal(t, 4, e.Dimension())
}

func TestEmbedBatchEmptyInput(t *testing.T) {
	client := &fixedEmbeddingsClient{width: 4}
	e := NewOpenAIEmbedder(client, "test-model")

	vectors, err := e.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
	assert.Zero(t, client.calls.Load())
}

func TestEmbedRetriesTransientFailureOnce(t *testing.T) {
	client := &fixedEmbeddingsClient{
		width: 4,
		errs:  []error{&openai.APIError{HTTPStatusCode: 500}},
	}
	e := NewOpenAIEmbedder(client, "test-model")

	vec, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Len(t, vec, 4)
	assert.Equal(t, int32(2), client.calls.Load())
}

func TestEmbedPermanentFailureClassified(t *testing.T) {
	client := &fixedEmbeddingsClient{
		width: 4,
		errs:  []error{&openai.APIError{HTTPStatusCode: 401}},
	}
	e := NewOpenAIEmbedder(client, "test-model")

	_, err := e.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrRejected)
	assert.Equal(t, int32(1), client.calls.Load())
}

func TestDimensionSafeUnderConcurrentFirstCalls(t *testing.T) {
	e := NewOpenAIEmbedder(&fixedEmbeddingsClient{width: 8}, "test-model")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.Embed(context.Background(), "startup query")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 8, e.Dimension())
}
