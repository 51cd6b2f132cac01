package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"course-rag/internal/domain"
)

// ErrCourseExists signals that a course title is already present in the
// catalog; re-ingestion is a no-op.
var ErrCourseExists = errors.New("course already ingested")

// Ingestor parses raw course documents and populates the vector store.
type Ingestor struct {
	store    domain.VectorStore
	embedder domain.Embedder
	chunker  *Chunker
	logger   *slog.Logger
}

func NewIngestor(store domain.VectorStore, embedder domain.Embedder, chunker *Chunker, logger *slog.Logger) *Ingestor {
	return &Ingestor{store: store, embedder: embedder, chunker: chunker, logger: logger}
}

// Ingest parses one raw document, chunks it, embeds the chunks, and stores
// course metadata plus chunks. A previously seen course title returns
// ErrCourseExists without touching the store.
func (ing *Ingestor) Ingest(ctx context.Context, raw string) (domain.Course, []domain.Chunk, error) {
	doc, err := Parse(raw)
	if err != nil {
		return domain.Course{}, nil, err
	}

	exists, err := ing.store.HasCourse(ctx, doc.Course.Title)
	if err != nil {
		return domain.Course{}, nil, fmt.Errorf("check catalog for %q: %w", doc.Course.Title, err)
	}
	if exists {
		return doc.Course, nil, ErrCourseExists
	}

	chunks := ing.buildChunks(doc)
	if len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i, ch := range chunks {
			texts[i] = ch.EmbedText()
		}
		vectors, err := ing.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return domain.Course{}, nil, fmt.Errorf("embed chunks for %q: %w", doc.Course.Title, err)
		}
		for i := range chunks {
			chunks[i].Embedding = vectors[i]
		}
	}

	// chunks first, catalog entry last: a failure here leaves no catalog
	// record, so the next run retries instead of skipping a chunkless course.
	// Upsert is idempotent by key, so the retry is safe.
	if err := ing.store.Upsert(ctx, chunks); err != nil {
		return domain.Course{}, nil, fmt.Errorf("store chunks for %q: %w", doc.Course.Title, err)
	}
	if err := ing.store.AddCourse(ctx, doc.Course); err != nil {
		return domain.Course{}, nil, fmt.Errorf("add course %q: %w", doc.Course.Title, err)
	}

	ing.logger.Info("ingested course",
		"title", doc.Course.Title,
		"lessons", len(doc.Course.Lessons),
		"chunks", len(chunks))
	return doc.Course, chunks, nil
}

// IngestDir ingests every .txt file under dir in name order. A document that
// fails to parse is logged and skipped; the rest of the directory is still
// processed. Returns the number of newly added courses.
func (ing *Ingestor) IngestDir(ctx context.Context, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read docs dir %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".txt") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)

	added := 0
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return added, fmt.Errorf("read %s: %w", p, err)
		}
		_, _, err = ing.Ingest(ctx, string(data))
		switch {
		case err == nil:
			added++
		case errors.Is(err, ErrCourseExists):
			ing.logger.Debug("course already indexed, skipping", "path", p)
		default:
			var perr *ParseError
			if errors.As(err, &perr) {
				ing.logger.Warn("skipping malformed course document", "path", p, "error", perr)
				continue
			}
			return added, fmt.Errorf("ingest %s: %w", p, err)
		}
	}
	return added, nil
}

func (ing *Ingestor) buildChunks(doc *CourseDocument) []domain.Chunk {
	var chunks []domain.Chunk
	for _, sec := range doc.Sections {
		for i, text := range ing.chunker.Chunk(sec.Text) {
			chunks = append(chunks, domain.Chunk{
				CourseTitle:  doc.Course.Title,
				LessonNumber: sec.Number,
				Index:        i,
				Text:         text,
			})
		}
	}
	return chunks
}
