// Package platforms is the catalog of applicant tracking systems the
// aggregator knows about, keyed by source id.
package platforms

import (
	"sort"
	"strings"
)

// Platform is one ATS and the public domain its boards live under.
type Platform struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

var catalog = []Platform{
	{ID: "workday", Name: "Workday", Domain: "myworkday.com"},
	{ID: "successfactors", Name: "SuccessFactors", Domain: "successfactors.com"},
	{ID: "icims", Name: "iCIMS", Domain: "jobs.icims.com"},
	{ID: "greenhouse", Name: "Greenhouse", Domain: "boards.greenhouse.io"},
	{ID: "lever", Name: "Lever", Domain: "jobs.lever.co"},
	{ID: "adp", Name: "ADP", Domain: "workforcenow.adp.com"},
	{ID: "taleo", Name: "Taleo", Domain: "taleo.net"},
	{ID: "jobvite", Name: "Jobvite", Domain: "jobs.jobvite.com"},
	{ID: "smartrecruiters", Name: "SmartRecruiters", Domain: "jobs.smartrecruiters.com"},
	{ID: "bamboohr", Name: "BambooHR", Domain: "bamboohr.com"},
	{ID: "ashby", Name: "Ashby", Domain: "jobs.ashbyhq.com"},
	{ID: "breezyhr", Name: "BreezyHR", Domain: "breezy.hr"},
	{ID: "linkedin", Name: "LinkedIn", Domain: "linkedin.com/jobs"},
	{ID: "indeed", Name: "Indeed", Domain: "indeed.com"},
}

// DateRanges are the accepted look-back windows in days; 0 means any time.
var DateRanges = []int{1, 3, 7, 14, 30, 0}

// WorkLocations are the accepted work arrangements.
var WorkLocations = []string{"remote", "hybrid", "onsite"}

// All returns the catalog in display order.
func All() []Platform {
	return append([]Platform(nil), catalog...)
}

// Lookup finds a platform by id.
func Lookup(id string) (Platform, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, p := range catalog {
		if p.ID == id {
			return p, true
		}
	}
	return Platform{}, false
}

// ByDomain maps a site: filter back to a platform. Subdomains and paths under
// the platform domain match as well.
func ByDomain(domain string) (Platform, bool) {
	domain = strings.ToLower(strings.TrimSpace(domain))
	domain = strings.TrimPrefix(strings.TrimPrefix(domain, "https://"), "http://")
	domain = strings.TrimPrefix(domain, "www.")
	for _, p := range catalog {
		if domain == p.Domain ||
			strings.HasSuffix(domain, "."+p.Domain) ||
			strings.HasPrefix(domain, p.Domain+"/") {
			return p, true
		}
	}
	return Platform{}, false
}

// Domains returns the domains of the given ids, skipping unknown ones.
func Domains(ids []string) []string {
	var out []string
	for _, id := range ids {
		if p, ok := Lookup(id); ok {
			out = append(out, p.Domain)
		}
	}
	return out
}

// IDs returns every catalog id, sorted.
func IDs() []string {
	ids := make([]string, len(catalog))
	for i, p := range catalog {
		ids[i] = p.ID
	}
	sort.Strings(ids)
	return ids
}
