// Package search turns caller requests into aggregator queries and shapes the
// merged result for the wire.
package search

import (
	"strconv"
	"strings"
	"time"

	"ats-aggregator/internal/aggregator"
	"ats-aggregator/internal/platforms"
	"ats-aggregator/internal/query"
	"ats-aggregator/pkg/models"
)

// Plan builds one aggregator query per request query. Paging is left to the
// caller since it applies to the merged result.
//
// An explicit dateRange wins over an after:Nd filter inside the query, and
// explicit platforms win over site: filters. Qualifier groups made only of
// work types stand in for workTypes when none were given; the first other
// qualifier group stands in for location.
func Plan(req models.SearchRequest, now time.Time) []aggregator.Query {
	days := -1
	if req.DateRange != "" {
		days, _ = strconv.Atoi(req.DateRange)
	}

	out := make([]aggregator.Query, 0, len(req.Queries))
	for _, raw := range req.Queries {
		parsed := query.Parse(raw)

		criteria := models.SearchCriteria{
			Keywords: strings.Join(parsed.Keywords, " OR "),
			Location: strings.TrimSpace(req.Location),
		}

		var implied []string
		for _, group := range parsed.Qualifiers {
			if isWorkTypes(group) {
				implied = append(implied, group...)
				continue
			}
			if criteria.Location == "" {
				criteria.Location = strings.Join(group, " OR ")
			}
		}
		workTypes := req.WorkTypes
		if len(workTypes) == 0 {
			workTypes = implied
		}
		criteria.RemoteOnly = RemoteOnly(workTypes)

		switch {
		case days > 0:
			criteria.PostedAfter = daysBefore(now, days)
		case days < 0 && parsed.AfterDays > 0:
			criteria.PostedAfter = daysBefore(now, parsed.AfterDays)
		}

		selected := req.Platforms
		if len(selected) == 0 {
			selected = parsed.Sources
		}
		out = append(out, aggregator.Query{Criteria: criteria, Sources: selected})
	}
	return out
}

// RemoteOnly reports whether the work types ask for remote positions alone.
func RemoteOnly(workTypes []string) bool {
	var remote, other bool
	for _, w := range workTypes {
		switch strings.ToLower(strings.TrimSpace(w)) {
		case "remote":
			remote = true
		case "hybrid", "onsite":
			other = true
		}
	}
	return remote && !other
}

func isWorkTypes(group []string) bool {
	for _, term := range group {
		if !isWorkLocation(term) {
			return false
		}
	}
	return len(group) > 0
}

func isWorkLocation(term string) bool {
	for _, w := range platforms.WorkLocations {
		if strings.EqualFold(strings.TrimSpace(term), w) {
			return true
		}
	}
	return false
}

func daysBefore(now time.Time, days int) *time.Time {
	t := now.AddDate(0, 0, -days)
	return &t
}
