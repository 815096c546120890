package sources

import (
	"html"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ats-aggregator/pkg/models"
)

var (
	whitespace  = regexp.MustCompile(`\s+`)
	remoteWords = []string{"remote", "work from home", "wfh"}
)

// CleanText turns an HTML fragment, possibly entity-escaped, into a single
// line of plain text.
func CleanText(fragment string) string {
	if fragment == "" {
		return ""
	}
	unescaped := html.UnescapeString(fragment)

	text := unescaped
	if strings.Contains(unescaped, "<") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(unescaped))
		if err == nil {
			doc.Find("script, style").Remove()
			doc.Find("br, p, li, div, h1, h2, h3, h4").Each(func(_ int, s *goquery.Selection) {
				s.AppendHtml(" ")
			})
			text = doc.Text()
		}
	}
	return strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
}

// FormatLocation joins the known parts of a location, or returns the Remote
// sentinel when nothing is known.
func FormatLocation(parts ...string) string {
	var known []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			known = append(known, p)
		}
	}
	if len(known) == 0 {
		return models.RemoteLocation
	}
	return strings.Join(known, ", ")
}

// DetectRemote reports whether any of the texts advertises remote work.
func DetectRemote(texts ...string) bool {
	for _, t := range texts {
		t = strings.ToLower(t)
		for _, w := range remoteWords {
			if strings.Contains(t, w) {
				return true
			}
		}
	}
	return false
}

// ParseTime parses the timestamp formats boards publish. The second result is
// false when nothing could be parsed.
func ParseTime(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	if ms, err := strconv.ParseInt(value, 10, 64); err == nil && ms > 0 {
		return time.UnixMilli(ms).UTC(), true
	}
	return time.Time{}, false
}

// PostedDate picks the first parseable candidate and falls back to the fetch
// time, so every posting carries a date to sort on.
func PostedDate(fetchedAt time.Time, candidates ...string) time.Time {
	for _, c := range candidates {
		if t, ok := ParseTime(c); ok {
			return t
		}
	}
	return fetchedAt.UTC()
}

// DedupeStrings trims items and drops blanks and repeats, keeping first-seen order.
func DedupeStrings(items []string) []string {
	seen := make(map[string]bool, len(items))
	var out []string
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}

// Bool returns a pointer to b, for the optional Posting.Remote field.
func Bool(b bool) *bool {
	return &b
}

// Float returns a pointer to f, or nil for zero.
func Float(f float64) *float64 {
	if f == 0 {
		return nil
	}
	return &f
}

// ListItems returns the trimmed text of every <li> in an HTML fragment.
func ListItems(fragment string) []string {
	fragment = html.UnescapeString(fragment)
	if !strings.Contains(fragment, "<") {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil
	}
	var items []string
	doc.Find("li").Each(func(_ int, s *goquery.Selection) {
		items = append(items, strings.TrimSpace(whitespace.ReplaceAllString(s.Text(), " ")))
	})
	return DedupeStrings(items)
}

// SalaryPeriod maps upstream pay intervals onto hourly, daily, weekly,
// monthly or yearly. Unknown intervals pass through lower-cased.
func SalaryPeriod(interval string) string {
	i := strings.ToLower(interval)
	switch {
	case i == "":
		return ""
	case strings.Contains(i, "hour"):
		return "hourly"
	case strings.Contains(i, "day") || strings.Contains(i, "daily"):
		return "daily"
	case strings.Contains(i, "week"):
		return "weekly"
	case strings.Contains(i, "month"):
		return "monthly"
	case strings.Contains(i, "year") || strings.Contains(i, "annual"):
		return "yearly"
	default:
		return i
	}
}
