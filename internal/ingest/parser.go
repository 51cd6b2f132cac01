package ingest

import (
	"regexp"
	"strconv"
	"strings"

	"course-rag/internal/domain"
)

// ParseError reports a malformed course document. It aborts ingestion of the
// one document only; callers skip the file and continue.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string { return "parse course document: " + e.Reason }

// Section is the text belonging to one lesson, or to the whole course when
// the document carries no lesson markers (Number is nil then).
type Section struct {
	Number *int
	Text   string
}

// CourseDocument is the parsed form of one raw course file.
type CourseDocument struct {
	Course   domain.Course
	Sections []Section
}

var lessonMarkerRe = regexp.MustCompile(`^Lesson\s+(\d+):\s*(.*)$`)

// Parse reads the course document format: a header block (Course Title,
// Course Link, Course Instructor) followed by zero or more lesson blocks
// delimited by "Lesson <n>: <title>" markers with an optional "Lesson Link"
// line. Title and instructor are required.
func Parse(raw string) (*CourseDocument, error) {
	lines := strings.Split(raw, "\n")
	doc := &CourseDocument{}
	idx := 0

header:
	for idx < len(lines) {
		line := strings.TrimSpace(lines[idx])
		switch {
		case strings.HasPrefix(line, "Course Title:"):
			doc.Course.Title = strings.TrimSpace(strings.TrimPrefix(line, "Course Title:"))
		case strings.HasPrefix(line, "Course Link:"):
			doc.Course.Link = strings.TrimSpace(strings.TrimPrefix(line, "Course Link:"))
		case strings.HasPrefix(line, "Course Instructor:"):
			doc.Course.Instructor = strings.TrimSpace(strings.TrimPrefix(line, "Course Instructor:"))
		case line == "":
			// blank lines between header fields are fine
		default:
			break header
		}
		idx++
	}

	if doc.Course.Title == "" {
		return nil, &ParseError{Reason: "missing Course Title header"}
	}
	if doc.Course.Instructor == "" {
		return nil, &ParseError{Reason: "missing Course Instructor header"}
	}

	var (
		current *Section
		buf     strings.Builder
	)
	flush := func() {
		if current == nil {
			return
		}
		current.Text = strings.TrimSpace(buf.String())
		doc.Sections = append(doc.Sections, *current)
		current = nil
		buf.Reset()
	}

	for ; idx < len(lines); idx++ {
		line := lines[idx]
		if m := lessonMarkerRe.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			flush()
			number, _ := strconv.Atoi(m[1])
			lesson := domain.Lesson{Number: number, Title: strings.TrimSpace(m[2])}
			if idx+1 < len(lines) {
				next := strings.TrimSpace(lines[idx+1])
				if strings.HasPrefix(next, "Lesson Link:") {
					lesson.Link = strings.TrimSpace(strings.TrimPrefix(next, "Lesson Link:"))
					idx++
				}
			}
			doc.Course.Lessons = append(doc.Course.Lessons, lesson)
			n := number
			current = &Section{Number: &n}
			continue
		}
		if current == nil {
			// content before any lesson marker belongs to a lesson-less course
			if strings.TrimSpace(line) == "" && buf.Len() == 0 {
				continue
			}
			current = &Section{}
		}
		if buf.Len() > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(line)
	}
	flush()

	return doc, nil
}
