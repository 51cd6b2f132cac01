// Package qdrant implements the vector store against a Qdrant server through
// its REST API. Chunks live in one collection with payload filters; course
// metadata lives in a small catalog collection next to it.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"course-rag/internal/domain"
)

// Store is a minimal REST client to Qdrant assuming cosine distance.
// Collections are created lazily on first write.
type Store struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client

	mu           sync.Mutex
	chunksReady  bool
	catalogReady bool
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// Point ids must be UUIDs; derive them deterministically so upserts stay
// idempotent by chunk key.
var pointNamespace = uuid.MustParse("9f2c5e1a-7b44-4f4e-9b6f-1d2ee2a40c11")

func NewStore(cfg Config) *Store {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	collection := cfg.Collection
	if collection == "" {
		collection = "course_chunks"
	}
	return &Store{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: collection,
		client:     &http.Client{Timeout: timeout},
	}
}

func (s *Store) catalogCollection() string { return s.collection + "_catalog" }

func (s *Store) ensureChunkCollection(ctx context.Context, dimension int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.chunksReady {
		return nil
	}
	if dimension <= 0 {
		return errors.New("invalid vector dimension")
	}
	body := map[string]any{
		"vectors": map[string]any{"size": dimension, "distance": "Cosine"},
	}
	if err := s.putJSON(ctx, fmt.Sprintf("%s/collections/%s", s.url, s.collection), body); err != nil && !isConflict(err) {
		return err
	}
	s.chunksReady = true
	return nil
}

func (s *Store) ensureCatalogCollection(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.catalogReady {
		return nil
	}
	// catalog points carry metadata only; a unit vector keeps Qdrant happy
	body := map[string]any{
		"vectors": map[string]any{"size": 1, "distance": "Cosine"},
	}
	if err := s.putJSON(ctx, fmt.Sprintf("%s/collections/%s", s.url, s.catalogCollection()), body); err != nil && !isConflict(err) {
		return err
	}
	s.catalogReady = true
	return nil
}

// isConflict reports the "collection already exists" response.
func isConflict(err error) bool {
	var qerr *apiError
	return errors.As(err, &qerr) && qerr.status == http.StatusConflict
}

func (s *Store) AddCourse(ctx context.Context, course domain.Course) error {
	if err := s.ensureCatalogCollection(ctx); err != nil {
		return err
	}
	payload, err := coursePayload(course)
	if err != nil {
		return err
	}
	body := map[string]any{
		"points": []map[string]any{{
			"id":      uuid.NewSHA1(pointNamespace, []byte("course|"+course.Title)).String(),
			"vector":  []float32{0},
			"payload": payload,
		}},
	}
	return s.putJSON(ctx, fmt.Sprintf("%s/collections/%s/points?wait=true", s.url, s.catalogCollection()), body)
}

func (s *Store) HasCourse(ctx context.Context, title string) (bool, error) {
	courses, err := s.ListCourses(ctx)
	if err != nil {
		return false, err
	}
	for _, c := range courses {
		if c.Title == title {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) ListCourses(ctx context.Context) ([]domain.Course, error) {
	req := map[string]any{"limit": 1000, "with_payload": true}
	var resp struct {
		Result struct {
			Points []struct {
				Payload struct {
					Course json.RawMessage `json:"course"`
				} `json:"payload"`
			} `json:"points"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/scroll", s.url, s.catalogCollection())
	if err := s.postJSON(ctx, url, req, &resp); err != nil {
		// an absent catalog collection means nothing was ingested yet
		var qerr *apiError
		if errors.As(err, &qerr) && qerr.status == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	courses := make([]domain.Course, 0, len(resp.Result.Points))
	for _, p := range resp.Result.Points {
		var c domain.Course
		if err := json.Unmarshal(p.Payload.Course, &c); err != nil {
			return nil, fmt.Errorf("decode catalog entry: %w", err)
		}
		courses = append(courses, c)
	}
	return courses, nil
}

func (s *Store) Upsert(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if err := s.ensureChunkCollection(ctx, len(chunks[0].Embedding)); err != nil {
		return err
	}
	points := make([]map[string]any, len(chunks))
	for i, ch := range chunks {
		payload := map[string]any{
			"course_title": ch.CourseTitle,
			"index":        ch.Index,
			"text":         ch.Text,
		}
		if ch.LessonNumber != nil {
			payload["lesson_number"] = *ch.LessonNumber
		}
		points[i] = map[string]any{
			"id":      uuid.NewSHA1(pointNamespace, []byte(ch.Key())).String(),
			"vector":  ch.Embedding,
			"payload": payload,
		}
	}
	body := map[string]any{"points": points}
	return s.putJSON(ctx, fmt.Sprintf("%s/collections/%s/points?wait=true", s.url, s.collection), body)
}

func (s *Store) Search(ctx context.Context, vector []float32, k int, filter domain.SearchFilter) ([]domain.SearchResult, error) {
	if k <= 0 {
		return nil, nil
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
	}
	if f := qdrantFilter(filter); f != nil {
		req["filter"] = f
	}
	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/search", s.url, s.collection)
	if err := s.postJSON(ctx, url, req, &resp); err != nil {
		return nil, err
	}
	results := make([]domain.SearchResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		chunk := domain.Chunk{}
		if v, ok := r.Payload["course_title"].(string); ok {
			chunk.CourseTitle = v
		}
		if v, ok := r.Payload["lesson_number"].(float64); ok {
			n := int(v)
			chunk.LessonNumber = &n
		}
		if v, ok := r.Payload["index"].(float64); ok {
			chunk.Index = int(v)
		}
		if v, ok := r.Payload["text"].(string); ok {
			chunk.Text = v
		}
		results = append(results, domain.SearchResult{Chunk: chunk, Score: r.Score})
	}
	return results, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/count", s.url, s.collection)
	if err := s.postJSON(ctx, url, map[string]any{"exact": true}, &resp); err != nil {
		var qerr *apiError
		if errors.As(err, &qerr) && qerr.status == http.StatusNotFound {
			return 0, nil
		}
		return 0, err
	}
	return resp.Result.Count, nil
}

func (s *Store) Clear(ctx context.Context) error {
	for _, coll := range []string{s.collection, s.catalogCollection()} {
		url := fmt.Sprintf("%s/collections/%s", s.url, coll)
		req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
		if err != nil {
			return err
		}
		if s.apiKey != "" {
			req.Header.Set("api-key", s.apiKey)
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		resp.Body.Close()
		// an absent collection is already cleared
		if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
			return &apiError{status: resp.StatusCode, method: http.MethodDelete, url: url}
		}
	}
	s.mu.Lock()
	s.chunksReady = false
	s.catalogReady = false
	s.mu.Unlock()
	return nil
}

func coursePayload(course domain.Course) (map[string]any, error) {
	raw, err := json.Marshal(course)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"title":  course.Title,
		"course": json.RawMessage(raw),
	}, nil
}

func qdrantFilter(f domain.SearchFilter) map[string]any {
	var must []map[string]any
	if f.CourseTitle != "" {
		must = append(must, map[string]any{
			"key":   "course_title",
			"match": map[string]any{"value": f.CourseTitle},
		})
	}
	if f.LessonNumber != nil {
		must = append(must, map[string]any{
			"key":   "lesson_number",
			"match": map[string]any{"value": *f.LessonNumber},
		})
	}
	if len(must) == 0 {
		return nil
	}
	return map[string]any{"must": must}
}

type apiError struct {
	status int
	method string
	url    string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("qdrant %s %s failed: status %d", e.method, e.url, e.status)
}

func (s *Store) putJSON(ctx context.Context, url string, body any) error {
	return s.doJSON(ctx, http.MethodPut, url, body, nil)
}

func (s *Store) postJSON(ctx context.Context, url string, body any, out any) error {
	return s.doJSON(ctx, http.MethodPost, url, body, out)
}

func (s *Store) doJSON(ctx context.Context, method, url string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return &apiError{status: resp.StatusCode, method: method, url: url}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
