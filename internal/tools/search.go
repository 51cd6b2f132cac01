package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"course-rag/internal/domain"
)

// SearchToolName is the name the model uses to request a content search.
const SearchToolName = "search_course_content"

// CourseSearchTool adapts vector search into a model-invocable tool with
// fuzzy course resolution and optional lesson filtering.
type CourseSearchTool struct {
	store      domain.VectorStore
	embedder   domain.Embedder
	maxResults int
}

func NewCourseSearchTool(store domain.VectorStore, embedder domain.Embedder, maxResults int) *CourseSearchTool {
	return &CourseSearchTool{store: store, embedder: embedder, maxResults: maxResults}
}

func (t *CourseSearchTool) Name() string { return SearchToolName }

func (t *CourseSearchTool) Definition() openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        SearchToolName,
			Description: "Search course materials with smart course name matching and lesson filtering",
			Parameters: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"query": {
						Type:        jsonschema.String,
						Description: "What to search for in the course content",
					},
					"course_name": {
						Type:        jsonschema.String,
						Description: "Course title; partial matches are resolved against the catalog (e.g. 'MCP', 'Introduction')",
					},
					"lesson_number": {
						Type:        jsonschema.Integer,
						Description: "Specific lesson number to search within (e.g. 1, 2, 3)",
					},
				},
				Required: []string{"query"},
			},
		},
	}
}

type searchArgs struct {
	Query        string `json:"query"`
	CourseName   string `json:"course_name"`
	LessonNumber *int   `json:"lesson_number"`
}

func (t *CourseSearchTool) Execute(ctx context.Context, args json.RawMessage) (Result, error) {
	var in searchArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return Result{Text: fmt.Sprintf("Invalid search arguments: %v", err)}, nil
	}
	if strings.TrimSpace(in.Query) == "" {
		return Result{Text: "Search requires a non-empty query."}, nil
	}

	filter := domain.SearchFilter{LessonNumber: in.LessonNumber}
	var resolved *domain.Course
	if in.CourseName != "" {
		course, ok, err := resolveCourse(ctx, t.store, in.CourseName)
		if err != nil {
			return Result{}, fmt.Errorf("resolve course %q: %w", in.CourseName, err)
		}
		if !ok {
			// recoverable: the model gets a structured miss, not an error
			return Result{Text: fmt.Sprintf("No course found matching '%s'", in.CourseName)}, nil
		}
		resolved = &course
		filter.CourseTitle = course.Title
	}

	vector, err := t.embedder.Embed(ctx, in.Query)
	if err != nil {
		return Result{}, fmt.Errorf("embed search query: %w", err)
	}
	results, err := t.store.Search(ctx, vector, t.maxResults, filter)
	if err != nil {
		return Result{}, fmt.Errorf("vector search: %w", err)
	}
	if len(results) == 0 {
		return Result{Text: emptyMessage(in)}, nil
	}
	return t.format(ctx, results, resolved)
}

func emptyMessage(in searchArgs) string {
	var b strings.Builder
	b.WriteString("No relevant content found")
	if in.CourseName != "" {
		fmt.Fprintf(&b, " in course '%s'", in.CourseName)
	}
	if in.LessonNumber != nil {
		fmt.Fprintf(&b, " in lesson %d", *in.LessonNumber)
	}
	b.WriteString(".")
	return b.String()
}

// format renders results with course/lesson context headers and collects the
// provenance records consumed by the orchestrator as sources.
func (t *CourseSearchTool) format(ctx context.Context, results []domain.SearchResult, resolved *domain.Course) (Result, error) {
	coursesByTitle := map[string]domain.Course{}
	if resolved != nil {
		coursesByTitle[resolved.Title] = *resolved
	} else {
		courses, err := t.store.ListCourses(ctx)
		if err != nil {
			return Result{}, fmt.Errorf("read catalog: %w", err)
		}
		for _, c := range courses {
			coursesByTitle[c.Title] = c
		}
	}

	var blocks []string
	var sources []domain.Source
	for _, r := range results {
		ch := r.Chunk
		header := "[" + ch.CourseTitle
		if ch.LessonNumber != nil {
			header += fmt.Sprintf(" - Lesson %d", *ch.LessonNumber)
		}
		header += "]"
		blocks = append(blocks, header+"\n"+ch.Text)

		src := domain.Source{
			Snippet:      ch.Text,
			Course:       ch.CourseTitle,
			LessonNumber: ch.LessonNumber,
		}
		if ch.LessonNumber != nil {
			if course, ok := coursesByTitle[ch.CourseTitle]; ok {
				if lesson, ok := course.Lesson(*ch.LessonNumber); ok {
					src.LessonTitle = lesson.Title
					src.Link = lesson.Link
				}
			}
		}
		sources = append(sources, src)
	}
	return Result{Text: strings.Join(blocks, "\n\n"), Sources: sources}, nil
}
