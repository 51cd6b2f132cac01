package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"course-rag/internal/domain"
)

// OutlineToolName is the name the model uses to request a course outline.
const OutlineToolName = "get_course_outline"

// CourseOutlineTool returns a course's structure: title, link, instructor,
// and the ordered lesson list.
type CourseOutlineTool struct {
	store domain.VectorStore
}

func NewCourseOutlineTool(store domain.VectorStore) *CourseOutlineTool {
	return &CourseOutlineTool{store: store}
}

func (t *CourseOutlineTool) Name() string { return OutlineToolName }

func (t *CourseOutlineTool) Definition() openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        OutlineToolName,
			Description: "Get course outline including course title, course link, and complete lesson list",
			Parameters: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"course_title": {
						Type:        jsonschema.String,
						Description: "Course title to get the outline for; partial matches are resolved against the catalog",
					},
				},
				Required: []string{"course_title"},
			},
		},
	}
}

type outlineArgs struct {
	CourseTitle string `json:"course_title"`
}

func (t *CourseOutlineTool) Execute(ctx context.Context, args json.RawMessage) (Result, error) {
	var in outlineArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return Result{Text: fmt.Sprintf("Invalid outline arguments: %v", err)}, nil
	}
	course, ok, err := resolveCourse(ctx, t.store, in.CourseTitle)
	if err != nil {
		return Result{}, fmt.Errorf("resolve course %q: %w", in.CourseTitle, err)
	}
	if !ok {
		return Result{Text: fmt.Sprintf("No course found matching '%s'", in.CourseTitle)}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n", course.Title)
	if course.Link != "" {
		fmt.Fprintf(&b, "Course Link: %s\n", course.Link)
	}
	if course.Instructor != "" {
		fmt.Fprintf(&b, "Instructor: %s\n", course.Instructor)
	}
	if len(course.Lessons) == 0 {
		b.WriteString("\nNo lessons found for this course.")
	} else {
		b.WriteString("\n**Lessons:**\n")
		lessons := make([]domain.Lesson, len(course.Lessons))
		copy(lessons, course.Lessons)
		sort.Slice(lessons, func(i, j int) bool { return lessons[i].Number < lessons[j].Number })
		for _, l := range lessons {
			fmt.Fprintf(&b, "Lesson %d: %s\n", l.Number, l.Title)
		}
	}

	src := domain.Source{Snippet: course.Title, Course: course.Title, Link: course.Link}
	return Result{Text: strings.TrimRight(b.String(), "\n"), Sources: []domain.Source{src}}, nil
}
