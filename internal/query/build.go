// Package query assembles and takes apart the free-text search expressions
// callers send: OR-combined titles and locations, site: platform filters and
// an after:Nd recency filter.
package query

import (
	"fmt"
	"strings"

	"ats-aggregator/internal/platforms"
)

const (
	MaxTitles       = 3
	MaxLocations    = 2
	DomainsPerGroup = 4
)

// BuildParams is the user input a query batch is built from.
type BuildParams struct {
	Titles    []string
	Locations []string
	WorkTypes []string
	Platforms []string // source ids, resolved through the platform catalog
	DateRange string   // days; "" or "0" means any time
}

// Build returns one query per group of DomainsPerGroup platform domains, or a
// single query without site: filters when no known platform was given.
func Build(p BuildParams) []string {
	var parts []string
	if titles := orGroup(firstN(p.Titles, MaxTitles)); titles != "" {
		parts = append(parts, titles)
	}
	if locations := orGroup(firstN(p.Locations, MaxLocations)); locations != "" {
		parts = append(parts, locations)
	}
	if work := orGroup(p.WorkTypes); work != "" {
		parts = append(parts, work)
	}
	if p.DateRange != "" && p.DateRange != "0" {
		parts = append(parts, fmt.Sprintf("after:%sd", p.DateRange))
	}
	tail := strings.Join(parts, " ")

	domains := platforms.Domains(p.Platforms)
	if len(domains) == 0 {
		return []string{tail}
	}

	var queries []string
	for i := 0; i < len(domains); i += DomainsPerGroup {
		end := i + DomainsPerGroup
		if end > len(domains) {
			end = len(domains)
		}
		sites := make([]string, 0, end-i)
		for _, d := range domains[i:end] {
			sites = append(sites, "site:"+d)
		}
		q := "(" + strings.Join(sites, " OR ") + ")"
		if tail != "" {
			q += " " + tail
		}
		queries = append(queries, q)
	}
	return queries
}

// SplitList splits a comma separated user field.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func firstN(items []string, n int) []string {
	var out []string
	for _, item := range items {
		if item = strings.TrimSpace(item); item == "" {
			continue
		}
		out = append(out, item)
		if len(out) == n {
			break
		}
	}
	return out
}

func orGroup(items []string) string {
	var terms []string
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if strings.ContainsAny(item, " \t") {
			item = `"` + item + `"`
		}
		terms = append(terms, item)
	}
	if len(terms) == 0 {
		return ""
	}
	return "(" + strings.Join(terms, " OR ") + ")"
}
