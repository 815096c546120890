package sources

import (
	"strings"
	"unicode"

	"ats-aggregator/internal/query"
	"ats-aggregator/pkg/models"
)

// Match applies criteria to a normalized posting. Board APIs return whole
// boards, so adapters filter locally with the same rules.
func Match(c models.SearchCriteria, p models.Posting) bool {
	if c.PostedAfter != nil && p.PostedDate.Before(*c.PostedAfter) {
		return false
	}
	if c.RemoteOnly && !p.IsRemote() {
		return false
	}
	if c.Department != "" && !containsFold(p.Department, c.Department) {
		return false
	}
	if c.EmploymentType != "" && letters(p.EmploymentType) != letters(c.EmploymentType) {
		return false
	}
	if !matchLocation(c.Location, p) {
		return false
	}
	return matchKeywords(c.Keywords, p)
}

// Filter keeps the postings that Match.
func Filter(c models.SearchCriteria, postings []models.Posting) []models.Posting {
	out := make([]models.Posting, 0, len(postings))
	for _, p := range postings {
		if Match(c, p) {
			out = append(out, p)
		}
	}
	return out
}

// matchKeywords accepts a posting when any OR term has all of its words in the
// title or department.
func matchKeywords(keywords string, p models.Posting) bool {
	terms := query.Terms(keywords)
	if len(terms) == 0 {
		return true
	}
	haystack := strings.ToLower(p.Title + " " + p.Department)
	for _, term := range terms {
		if allWords(haystack, term) {
			return true
		}
	}
	return false
}

func matchLocation(location string, p models.Posting) bool {
	terms := query.Terms(location)
	if len(terms) == 0 {
		return true
	}
	for _, term := range terms {
		if strings.EqualFold(term, models.RemoteLocation) && p.IsRemote() {
			return true
		}
		if containsFold(p.Location, term) {
			return true
		}
	}
	return false
}

func allWords(haystack, term string) bool {
	words := strings.Fields(strings.ToLower(term))
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		if !strings.Contains(haystack, w) {
			return false
		}
	}
	return true
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(strings.TrimSpace(sub)))
}

// letters normalizes "Full-time", "full time" and "FullTime" alike.
func letters(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
