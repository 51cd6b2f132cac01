package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"course-rag/internal/domain"
	"course-rag/internal/vectorstore/memory"
)

func outlineFixture(t *testing.T) *CourseOutlineTool {
	t.Helper()
	store := memory.NewStore("")
	require.NoError(t, store.AddCourse(context.Background(), domain.Course{
		Title:      "Intro to X",
		Link:       "https://example.com/intro-to-x",
		Instructor: "Ada",
		Lessons: []domain.Lesson{
			{Number: 1, Title: "Core Concepts"},
			{Number: 0, Title: "Getting Started"},
		},
	}))
	return NewCourseOutlineTool(store)
}

func TestOutlineToolFormatsCourse(t *testing.T) {
	tool := outlineFixture(t)
	res, err := tool.Execute(context.Background(), json.RawMessage(`{"course_title":"intro"}`))
	require.NoError(t, err)

	assert.Contains(t, res.Text, "**Intro to X**")
	assert.Contains(t, res.Text, "Course Link: https://example.com/intro-to-x")
	assert.Contains(t, res.Text, "Instructor: Ada")
	// lessons render sorted by number
	assert.Regexp(t, `(?s)Lesson 0: Getting Started.*Lesson 1: Core Concepts`, res.Text)

	require.Len(t, res.Sources, 1)
	assert.Equal(t, "Intro to X", res.Sources[0].Course)
	assert.Equal(t, "https://example.com/intro-to-x", res.Sources[0].Link)
}

func TestOutlineToolMiss(t *testing.T) {
	tool := outlineFixture(t)
	res, err := tool.Execute(context.Background(), json.RawMessage(`{"course_title":"Course Z"}`))
	require.NoError(t, err)
	assert.Equal(t, "No course found matching 'Course Z'", res.Text)
	assert.Empty(t, res.Sources)
}

func TestRegistryDispatch(t *testing.T) {
	reg := NewRegistry(outlineFixture(t))

	res, err := reg.Dispatch(context.Background(), OutlineToolName, json.RawMessage(`{"course_title":"Intro to X"}`))
	require.NoError(t, err)
	assert.Contains(t, res.Text, "**Intro to X**")

	res, err = reg.Dispatch(context.Background(), "no_such_tool", nil)
	require.NoError(t, err, "an unknown tool is reported to the model, not the caller")
	assert.Equal(t, `Tool "no_such_tool" not found`, res.Text)
}

func TestRegistryDefinitionsKeepRegistrationOrder(t *testing.T) {
	outline := outlineFixture(t)
	reg := NewRegistry(outline)
	reg.Register(outline) // re-registering must not duplicate

	defs := reg.Definitions()
	require.Len(t, defs, 1)
	assert.Equal(t, OutlineToolName, defs[0].Function.Name)
}
