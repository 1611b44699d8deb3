package detect

import "essay-grader/api/internal/essay"

// IsCovered reports whether [start, end) overlaps any already claimed issue.
// Touching ranges do not overlap, and a zero-length range never overlaps anything.
func IsCovered(start, end int, issues []essay.Issue) bool {
	span := essay.Offsets{Start: start, End: end}
	for _, other := range issues {
		if span.Overlaps(other.Offsets) {
			return true
		}
	}
	return false
}
