package platforms

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestByDomain(t *testing.T) {
	tests := map[string]string{
		"boards.greenhouse.io":    "greenhouse",
		"https://jobs.lever.co":   "lever",
		"acme.breezy.hr":          "breezyhr",
		"www.linkedin.com/jobs":   "linkedin",
		"wd5.myworkday.com":       "workday",
		"jobs.ashbyhq.com/openai": "ashby",
	}
	for domain, want := range tests {
		p, ok := ByDomain(domain)
		if assert.True(t, ok, domain) {
			assert.Equal(t, want, p.ID, domain)
		}
	}

	_, ok := ByDomain("example.com")
	assert.False(t, ok)
}

func TestLookupAndDomains(t *testing.T) {
	p, ok := Lookup(" Lever ")
	assert.True(t, ok)
	assert.Equal(t, "jobs.lever.co", p.Domain)

	assert.Equal(t, []string{"boards.greenhouse.io", "jobs.ashbyhq.com"}, Domains([]string{"greenhouse", "nope", "ashby"}))
	assert.Len(t, IDs(), len(All()))
}
