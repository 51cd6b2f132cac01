package domain

import "context"

// Embedder converts free text into a fixed-length vector representation.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// SearchFilter restricts the candidate set before ranking. Empty fields are
// ignored; an exact course title is expected, fuzzy resolution happens above.
type SearchFilter struct {
	CourseTitle  string
	LessonNumber *int
}

// VectorStore persists embedded chunks and course metadata, and answers
// nearest-neighbor queries by descending cosine similarity.
type VectorStore interface {
	// AddCourse records course metadata in the catalog.
	AddCourse(ctx context.Context, course Course) error
	// HasCourse reports whether the catalog already holds the title.
	HasCourse(ctx context.Context, title string) (bool, error)
	// ListCourses returns every catalog entry.
	ListCourses(ctx context.Context) ([]Course, error)
	// Upsert stores chunks, idempotent by (course, lesson, index).
	Upsert(ctx context.Context, chunks []Chunk) error
	// Search returns at most k results sorted by non-increasing similarity,
	// ties broken by insertion order. k <= 0 yields an empty result.
	Search(ctx context.Context, vector []float32, k int, filter SearchFilter) ([]SearchResult, error)
	// Count returns the number of stored chunks.
	Count(ctx context.Context) (int, error)
	// Clear drops all chunks and catalog entries.
	Clear(ctx context.Context) error
}
