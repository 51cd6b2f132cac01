// Package app assembles the configured components into a runnable service.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"course-rag/internal/config"
	"course-rag/internal/domain"
	"course-rag/internal/embedding"
	"course-rag/internal/generator"
	"course-rag/internal/ingest"
	"course-rag/internal/llm"
	"course-rag/internal/service"
	"course-rag/internal/session"
	"course-rag/internal/tools"
	"course-rag/internal/tui"
	"course-rag/internal/vectorstore/memory"
	"course-rag/internal/vectorstore/qdrant"
)

var _ tui.QueryPort = (*service.RAGService)(nil)

// App wires config into a ready RAG service.
type App struct {
	Config  *config.AppConfig
	Service *service.RAGService
	Store   domain.VectorStore
	Logger  *slog.Logger

	memStore *memory.Store
}

func New(cfg *config.AppConfig, logger *slog.Logger) (*App, error) {
	client, err := llm.NewClient(cfg.OpenAI.BaseURL, cfg.OpenAI.APIKeyEnv, time.Duration(cfg.OpenAI.TimeoutSecs)*time.Second)
	if err != nil {
		return nil, err
	}
	embedder := embedding.NewOpenAIEmbedder(client, cfg.OpenAI.EmbeddingModel)

	a := &App{Config: cfg, Logger: logger}
	switch cfg.VectorStore.Type {
	case "memory", "":
		mem := memory.NewStore(cfg.VectorStore.Path)
		if err := mem.Load(); err != nil {
			return nil, err
		}
		a.memStore = mem
		a.Store = mem
	case "qdrant":
		if cfg.VectorStore.Qdrant == nil {
			return nil, fmt.Errorf("qdrant vector store selected but not configured")
		}
		a.Store = qdrant.NewStore(qdrant.Config{
			URL:        cfg.VectorStore.Qdrant.URL,
			APIKey:     cfg.VectorStore.Qdrant.APIKey,
			Collection: cfg.VectorStore.Qdrant.Collection,
			Timeout:    time.Duration(cfg.VectorStore.Qdrant.TimeoutSecs) * time.Second,
		})
	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.VectorStore.Type)
	}

	chunker := ingest.NewChunker(cfg.Chunking.ChunkSize, cfg.Chunking.ChunkOverlap)
	ingestor := ingest.NewIngestor(a.Store, embedder, chunker, logger.With("component", "ingest"))
	registry := tools.NewRegistry(
		tools.NewCourseSearchTool(a.Store, embedder, cfg.Search.MaxResults),
		tools.NewCourseOutlineTool(a.Store),
	)
	gen := generator.New(client, cfg.OpenAI.ChatModel, cfg.OpenAI.Temperature, cfg.OpenAI.MaxTokens,
		logger.With("component", "generator"))
	sessions := session.NewStore(cfg.Session.MaxHistory)

	a.Service = service.NewRAGService(ingestor, a.Store, sessions, gen, registry,
		logger.With("component", "service"))
	return a, nil
}

// Ingest loads the documents directory, optionally clearing the index first,
// and flushes file-backed storage afterwards.
func (a *App) Ingest(ctx context.Context, dir string, rebuild bool) (int, error) {
	if rebuild {
		if err := a.Store.Clear(ctx); err != nil {
			return 0, fmt.Errorf("clear index: %w", err)
		}
	}
	added, err := a.Service.IngestDir(ctx, dir)
	if err != nil {
		return added, err
	}
	return added, a.Flush()
}

// Flush persists the index when the backing store is file-based.
func (a *App) Flush() error {
	if a.memStore == nil {
		return nil
	}
	return a.memStore.Flush()
}
