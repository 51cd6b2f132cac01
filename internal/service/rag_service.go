// Package service composes ingestion, retrieval tools, the generation loop,
// and session state into the query pipeline.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"course-rag/internal/domain"
	"course-rag/internal/generator"
	"course-rag/internal/ingest"
	"course-rag/internal/session"
	"course-rag/internal/tools"
)

// Answer is the result of one query: the synthesized text, the provenance
// gathered while producing it, and the session the exchange was recorded in.
type Answer struct {
	Text      string
	Sources   []domain.Source
	SessionID string
}

// RAGService is the orchestrator; it is the only component that sees every
// other component.
type RAGService struct {
	ingestor  *ingest.Ingestor
	store     domain.VectorStore
	sessions  *session.Store
	generator *generator.Generator
	registry  *tools.Registry
	logger    *slog.Logger
}

func NewRAGService(
	ingestor *ingest.Ingestor,
	store domain.VectorStore,
	sessions *session.Store,
	gen *generator.Generator,
	registry *tools.Registry,
	logger *slog.Logger,
) *RAGService {
	return &RAGService{
		ingestor:  ingestor,
		store:     store,
		sessions:  sessions,
		generator: gen,
		registry:  registry,
		logger:    logger,
	}
}

// IngestDir loads every course document under dir, skipping already-indexed
// courses and malformed files.
func (s *RAGService) IngestDir(ctx context.Context, dir string) (int, error) {
	return s.ingestor.IngestDir(ctx, dir)
}

// Query answers one question. An empty session id starts a new session; an
// unknown one is treated as new, never an error. Requests within a session
// serialize; distinct sessions run concurrently.
func (s *RAGService) Query(ctx context.Context, text, sessionID string) (Answer, error) {
	if sessionID == "" {
		sessionID = s.sessions.NewSessionID()
	}
	release := s.sessions.Acquire(sessionID)
	defer release()

	history := s.sessions.Render(sessionID)
	resp, err := s.generator.Generate(ctx, text, history, s.registry)
	if err != nil {
		return Answer{}, fmt.Errorf("generate answer: %w", err)
	}

	s.sessions.Append(sessionID, domain.Exchange{Query: text, Answer: resp.Answer})
	s.logger.Debug("answered query",
		"session", sessionID,
		"sources", len(resp.Sources))
	return Answer{Text: resp.Answer, Sources: resp.Sources, SessionID: sessionID}, nil
}

// Courses lists the ingested catalog.
func (s *RAGService) Courses(ctx context.Context) ([]domain.Course, error) {
	return s.store.ListCourses(ctx)
}

// Stats reports catalog size for status displays.
func (s *RAGService) Stats(ctx context.Context) (courses, chunks int, err error) {
	list, err := s.store.ListCourses(ctx)
	if err != nil {
		return 0, 0, err
	}
	chunks, err = s.store.Count(ctx)
	if err != nil {
		return 0, 0, err
	}
	return len(list), chunks, nil
}
