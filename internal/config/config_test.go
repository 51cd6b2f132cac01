package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "docs", cfg.DocsDir)
	assert.Equal(t, 800, cfg.Chunking.ChunkSize)
	assert.Equal(t, 100, cfg.Chunking.ChunkOverlap)
	assert.Equal(t, 5, cfg.Search.MaxResults)
	assert.Equal(t, 2, cfg.Session.MaxHistory)
	assert.Equal(t, "memory", cfg.VectorStore.Type)
	assert.Equal(t, "course_index.json", cfg.VectorStore.Path)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.ChatModel)
	assert.Equal(t, "text-embedding-3-small", cfg.OpenAI.EmbeddingModel)
	assert.Equal(t, "OPENAI_API_KEY", cfg.OpenAI.APIKeyEnv)
}

func TestLoadOverridesWithDefaultsForMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
docs_dir: /srv/courses
chunking:
  chunk_size: 400
openai:
  chat_model: gpt-4o
vector_store:
  type: qdrant
  qdrant:
    url: http://localhost:6333
    collection: courses
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/courses", cfg.DocsDir)
	assert.Equal(t, 400, cfg.Chunking.ChunkSize)
	assert.Equal(t, 100, cfg.Chunking.ChunkOverlap, "unset fields fall back to defaults")
	assert.Equal(t, "gpt-4o", cfg.OpenAI.ChatModel)
	assert.Equal(t, "qdrant", cfg.VectorStore.Type)
	require.NotNil(t, cfg.VectorStore.Qdrant)
	assert.Equal(t, "http://localhost:6333", cfg.VectorStore.Qdrant.URL)
	assert.Equal(t, "courses", cfg.VectorStore.Qdrant.Collection)
}

func TestLoadRejectsInvalidChunking(t *testing.T) {
	cases := map[string]string{
		"overlap equals size": "chunking:\n  chunk_size: 100\n  chunk_overlap: 100\n",
		"overlap beyond size": "chunking:\n  chunk_size: 100\n  chunk_overlap: 150\n",
		"negative overlap":    "chunking:\n  chunk_size: 100\n  chunk_overlap: -1\n",
		"negative size":       "chunking:\n  chunk_size: -5\n",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultConfig()
	cfg.DocsDir = "/data/docs"
	cfg.Search.MaxResults = 10

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/docs", loaded.DocsDir)
	assert.Equal(t, 10, loaded.Search.MaxResults)
	assert.Equal(t, cfg.Chunking, loaded.Chunking)
}
