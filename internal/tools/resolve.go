package tools

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"course-rag/internal/domain"
)

// matchThreshold is the acceptance score below which a course reference is
// treated as unresolvable.
const matchThreshold = 0.55

// resolveCourse maps a model-supplied, possibly approximate course name onto
// a catalog entry. Exact case-normalized match wins; otherwise the best
// scoring title above the threshold. The bool reports whether a course
// matched; an error means the catalog itself could not be read.
func resolveCourse(ctx context.Context, store domain.VectorStore, name string) (domain.Course, bool, error) {
	courses, err := store.ListCourses(ctx)
	if err != nil {
		return domain.Course{}, false, err
	}
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return domain.Course{}, false, nil
	}
	for _, c := range courses {
		if strings.ToLower(c.Title) == needle {
			return c, true, nil
		}
	}
	var (
		best      domain.Course
		bestScore float64
	)
	for _, c := range courses {
		if score := titleScore(needle, strings.ToLower(c.Title)); score > bestScore {
			best, bestScore = c, score
		}
	}
	if bestScore < matchThreshold {
		return domain.Course{}, false, nil
	}
	return best, true, nil
}

// titleScore rates similarity between a lowercased query and title:
// containment in either direction counts as a strong partial match, anything
// else falls back to normalized edit distance.
func titleScore(query, title string) float64 {
	if strings.Contains(title, query) || strings.Contains(query, title) {
		return 0.9
	}
	// ComputeDistance counts runes, so the normalization must too
	longest := utf8.RuneCountInString(query)
	if n := utf8.RuneCountInString(title); n > longest {
		longest = n
	}
	if longest == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(query, title)
	return 1 - float64(dist)/float64(longest)
}
