// Package memory implements a brute-force cosine vector store held in
// process memory, optionally persisted as JSON at a configured path.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"course-rag/internal/domain"
)

// Store keeps chunks and course metadata behind one RWMutex. Upserts are
// idempotent by chunk key; searches rank by cosine similarity with ties
// broken by insertion order.
type Store struct {
	mu      sync.RWMutex
	path    string
	courses []domain.Course
	byTitle map[string]int
	chunks  []domain.Chunk
	byKey   map[string]int
}

// NewStore creates a store. If path is non-empty, Load and Flush persist the
// index there.
func NewStore(path string) *Store {
	return &Store{
		path:    path,
		byTitle: make(map[string]int),
		byKey:   make(map[string]int),
	}
}

type snapshot struct {
	Courses []domain.Course `json:"courses"`
	Chunks  []domain.Chunk  `json:"chunks"`
}

// Load restores a previously flushed index. A missing file is not an error.
func (s *Store) Load() error {
	if s.path == "" {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load vector index %s: %w", s.path, err)
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decode vector index %s: %w", s.path, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.courses = snap.Courses
	s.chunks = snap.Chunks
	s.byTitle = make(map[string]int, len(snap.Courses))
	for i, c := range snap.Courses {
		s.byTitle[c.Title] = i
	}
	s.byKey = make(map[string]int, len(snap.Chunks))
	for i, ch := range snap.Chunks {
		s.byKey[ch.Key()] = i
	}
	return nil
}

// Flush writes the index to the configured path.
func (s *Store) Flush() error {
	if s.path == "" {
		return nil
	}
	s.mu.RLock()
	snap := snapshot{Courses: s.courses, Chunks: s.chunks}
	data, err := json.Marshal(snap)
	s.mu.RUnlock()
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(s.path, data, 0o644)
}

func (s *Store) AddCourse(ctx context.Context, course domain.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.byTitle[course.Title]; ok {
		s.courses[i] = course
		return nil
	}
	s.byTitle[course.Title] = len(s.courses)
	s.courses = append(s.courses, course)
	return nil
}

func (s *Store) HasCourse(ctx context.Context, title string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byTitle[title]
	return ok, nil
}

func (s *Store) ListCourses(ctx context.Context) ([]domain.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Course, len(s.courses))
	copy(out, s.courses)
	return out, nil
}

func (s *Store) Upsert(ctx context.Context, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range chunks {
		key := ch.Key()
		if i, ok := s.byKey[key]; ok {
			s.chunks[i] = ch
			continue
		}
		s.byKey[key] = len(s.chunks)
		s.chunks = append(s.chunks, ch)
	}
	return nil
}

func (s *Store) Search(ctx context.Context, vector []float32, k int, filter domain.SearchFilter) ([]domain.SearchResult, error) {
	if k <= 0 {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var results []domain.SearchResult
	for _, ch := range s.chunks {
		if !matches(ch, filter) {
			continue
		}
		results = append(results, domain.SearchResult{
			Chunk: ch,
			Score: cosine(vector, ch.Embedding),
		})
	}
	// stable keeps insertion order for equal scores
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.courses = nil
	s.chunks = nil
	s.byTitle = make(map[string]int)
	s.byKey = make(map[string]int)
	return nil
}

func matches(ch domain.Chunk, f domain.SearchFilter) bool {
	if f.CourseTitle != "" && !strings.EqualFold(ch.CourseTitle, f.CourseTitle) {
		return false
	}
	if f.LessonNumber != nil {
		if ch.LessonNumber == nil || *ch.LessonNumber != *f.LessonNumber {
			return false
		}
	}
	return true
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
