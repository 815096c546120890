package query

import (
	"regexp"
	"strconv"
	"strings"

	"ats-aggregator/internal/platforms"
)

var (
	siteToken  = regexp.MustCompile(`(?i)\bsite:([^\s()"]+)`)
	afterToken = regexp.MustCompile(`(?i)\bafter:(\d+)d\b`)
	orSplit    = regexp.MustCompile(`\s+OR\s+`)
	spaces     = regexp.MustCompile(`\s+`)
)

// Parsed is a query taken apart into its filters.
type Parsed struct {
	// Keywords is the first OR group, normally the job titles.
	Keywords []string
	// Qualifiers are the remaining OR groups, e.g. locations or work types.
	Qualifiers [][]string
	// Sites are the raw site: domains and Sources the catalog ids they map to.
	Sites   []string
	Sources []string
	// AfterDays is the after:Nd filter, 0 when absent.
	AfterDays int
}

// Parse splits a query. Parenthesized groups and any loose text each form one
// group; inside a group, terms are separated by an upper-case OR.
func Parse(q string) Parsed {
	var p Parsed

	seen := map[string]bool{}
	for _, m := range siteToken.FindAllStringSubmatch(q, -1) {
		domain := strings.ToLower(strings.TrimRight(m[1], ".,"))
		p.Sites = append(p.Sites, domain)
		if platform, ok := platforms.ByDomain(domain); ok && !seen[platform.ID] {
			seen[platform.ID] = true
			p.Sources = append(p.Sources, platform.ID)
		}
	}
	q = siteToken.ReplaceAllString(q, " ")

	if m := afterToken.FindStringSubmatch(q); m != nil {
		p.AfterDays, _ = strconv.Atoi(m[1])
	}
	q = afterToken.ReplaceAllString(q, " ")

	var groups [][]string
	for _, raw := range splitGroups(q) {
		if terms := splitTerms(raw); len(terms) > 0 {
			groups = append(groups, terms)
		}
	}
	if len(groups) > 0 {
		p.Keywords = groups[0]
		p.Qualifiers = groups[1:]
	}
	return p
}

// Terms returns the keyword terms of q.
func Terms(q string) []string {
	return Parse(q).Keywords
}

// splitGroups returns the loose text first, then each top-level parenthesized
// group in order. Nested parentheses are flattened into their group.
func splitGroups(q string) []string {
	var (
		loose   strings.Builder
		current strings.Builder
		groups  []string
		depth   int
		quoted  bool
	)

	for _, r := range q {
		switch {
		case r == '"':
			quoted = !quoted
		case r == '(' && !quoted:
			depth++
			if depth == 1 {
				current.Reset()
				continue
			}
		case r == ')' && !quoted && depth > 0:
			depth--
			if depth == 0 {
				groups = append(groups, current.String())
				continue
			}
		}

		if depth > 0 {
			current.WriteRune(r)
		} else {
			loose.WriteRune(r)
		}
	}
	if depth > 0 {
		groups = append(groups, current.String())
	}

	return append([]string{loose.String()}, groups...)
}

func splitTerms(group string) []string {
	group = strings.NewReplacer("(", " ", ")", " ").Replace(group)

	var terms []string
	for _, term := range orSplit.Split(" "+group+" ", -1) {
		term = strings.Trim(strings.TrimSpace(term), `"`)
		term = strings.TrimSpace(spaces.ReplaceAllString(term, " "))
		if term == "" || term == "OR" {
			continue
		}
		terms = append(terms, term)
	}
	return terms
}
