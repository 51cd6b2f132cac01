package domain

import (
	"fmt"
	"strconv"
)

// Course is a catalog entry identified by its title.
type Course struct {
	Title      string   `json:"title"`
	Link       string   `json:"link,omitempty"`
	Instructor string   `json:"instructor"`
	Lessons    []Lesson `json:"lessons"`
}

// Lesson is one numbered unit of a course, ordered by Number.
type Lesson struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Link   string `json:"link,omitempty"`
}

// Lesson returns the lesson with the given number, if the course has one.
func (c Course) Lesson(number int) (Lesson, bool) {
	for _, l := range c.Lessons {
		if l.Number == number {
			return l, true
		}
	}
	return Lesson{}, false
}

// Chunk is a bounded, overlap-linked segment of course text stored with its
// embedding. Text holds the raw snippet; the contextual prefix used for
// embedding is not stored.
type Chunk struct {
	CourseTitle  string    `json:"course_title"`
	LessonNumber *int      `json:"lesson_number,omitempty"`
	Index        int       `json:"index"`
	Text         string    `json:"text"`
	Embedding    []float32 `json:"embedding,omitempty"`
}

// Key identifies a chunk for idempotent upserts.
func (c Chunk) Key() string {
	lesson := "-"
	if c.LessonNumber != nil {
		lesson = strconv.Itoa(*c.LessonNumber)
	}
	return fmt.Sprintf("%s|%s|%d", c.CourseTitle, lesson, c.Index)
}

// EmbedText is the text actually embedded and indexed: the snippet with a
// contextual prefix locating it inside the catalog.
func (c Chunk) EmbedText() string {
	if c.LessonNumber != nil {
		return fmt.Sprintf("Course %s Lesson %d content: %s", c.CourseTitle, *c.LessonNumber, c.Text)
	}
	return fmt.Sprintf("Course %s content: %s", c.CourseTitle, c.Text)
}

// SearchResult is a matching chunk with its similarity score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// Source is the provenance record attached to an answer.
type Source struct {
	Snippet      string `json:"snippet"`
	Course       string `json:"course"`
	LessonNumber *int   `json:"lesson,omitempty"`
	LessonTitle  string `json:"lesson_title,omitempty"`
	Link         string `json:"link,omitempty"`
}

// Exchange is one query/answer pair of a conversation.
type Exchange struct {
	Query  string
	Answer string
}
