package memory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"course-rag/internal/domain"
)

func intp(n int) *int { return &n }

func chunk(course string, lesson *int, index int, text string, vec []float32) domain.Chunk {
	return domain.Chunk{CourseTitle: course, LessonNumber: lesson, Index: index, Text: text, Embedding: vec}
}

func seed(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.AddCourse(ctx, domain.Course{Title: "Intro to X", Instructor: "Ada"}))
	require.NoError(t, s.Upsert(ctx, []domain.Chunk{
		chunk("Intro to X", intp(0), 0, "alpha", []float32{1, 0, 0}),
		chunk("Intro to X", intp(0), 1, "beta", []float32{0.9, 0.1, 0}),
		chunk("Intro to X", intp(1), 0, "gamma", []float32{0, 1, 0}),
		chunk("Intro to X", nil, 0, "delta", []float32{0, 0, 1}),
	}))
}

func TestSearchRanking(t *testing.T) {
	s := NewStore("")
	seed(t, s)

	results, err := s.Search(context.Background(), []float32{1, 0, 0}, 3, domain.SearchFilter{})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "alpha", results[0].Chunk.Text)
	assert.Equal(t, "beta", results[1].Chunk.Text)
	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i].Score, results[i-1].Score, "scores must be non-increasing")
	}
}

func TestSearchTiesKeepInsertionOrder(t *testing.T) {
	s := NewStore("")
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, []domain.Chunk{
		chunk("C", nil, 0, "first", []float32{1, 0}),
		chunk("C", nil, 1, "second", []float32{1, 0}),
	}))
	results, err := s.Search(ctx, []float32{1, 0}, 2, domain.SearchFilter{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "first", results[0].Chunk.Text)
	assert.Equal(t, "second", results[1].Chunk.Text)
}

func TestSearchNonPositiveK(t *testing.T) {
	s := NewStore("")
	seed(t, s)
	for _, k := range []int{0, -1} {
		results, err := s.Search(context.Background(), []float32{1, 0, 0}, k, domain.SearchFilter{})
		require.NoError(t, err)
		assert.Empty(t, results)
	}
}

func TestSearchFilters(t *testing.T) {
	s := NewStore("")
	seed(t, s)
	ctx := context.Background()

	results, err := s.Search(ctx, []float32{1, 1, 1}, 10, domain.SearchFilter{CourseTitle: "Intro to X", LessonNumber: intp(1)})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "gamma", results[0].Chunk.Text)

	results, err = s.Search(ctx, []float32{1, 1, 1}, 10, domain.SearchFilter{CourseTitle: "Unknown"})
	require.NoError(t, err)
	assert.Empty(t, results)

	// course filter is case-normalized
	results, err = s.Search(ctx, []float32{1, 1, 1}, 10, domain.SearchFilter{CourseTitle: "intro to x"})
	require.NoError(t, err)
	assert.Len(t, results, 4)
}

func TestUpsertIdempotent(t *testing.T) {
	s := NewStore("")
	ctx := context.Background()
	c := chunk("C", intp(0), 0, "original", []float32{1, 0})
	require.NoError(t, s.Upsert(ctx, []domain.Chunk{c}))

	c.Text = "replaced"
	require.NoError(t, s.Upsert(ctx, []domain.Chunk{c}))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	results, err := s.Search(ctx, []float32{1, 0}, 1, domain.SearchFilter{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "replaced", results[0].Chunk.Text)
}

func TestCatalog(t *testing.T) {
	s := NewStore("")
	ctx := context.Background()

	ok, err := s.HasCourse(ctx, "Intro to X")
	require.NoError(t, err)
	assert.False(t, ok)

	seed(t, s)
	ok, err = s.HasCourse(ctx, "Intro to X")
	require.NoError(t, err)
	assert.True(t, ok)

	courses, err := s.ListCourses(ctx)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "Ada", courses[0].Instructor)
}

func TestPersistenceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	s := NewStore(path)
	seed(t, s)
	require.NoError(t, s.Flush())

	restored := NewStore(path)
	require.NoError(t, restored.Load())

	ctx := context.Background()
	ok, err := restored.HasCourse(ctx, "Intro to X")
	require.NoError(t, err)
	assert.True(t, ok)

	count, err := restored.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	results, err := restored.Search(ctx, []float32{0, 1, 0}, 1, domain.SearchFilter{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "gamma", results[0].Chunk.Text)
}

func TestLoadMissingFile(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, s.Load())
}

func TestClear(t *testing.T) {
	s := NewStore("")
	seed(t, s)
	ctx := context.Background()
	require.NoError(t, s.Clear(ctx))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
	ok, err := s.HasCourse(ctx, "Intro to X")
	require.NoError(t, err)
	assert.False(t, ok)
}
