package breezyhr

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"ats-aggregator/internal/sources"
	"ats-aggregator/pkg/models"
)

var (
	sectionNames = []string{"requirements", "responsibilities", "qualifications", "benefits"}
	salaryText   = regexp.MustCompile(`[$€£]\s?\d[\d,.]*\s?[kK]?(?:\s?(?:-|–|to)\s?[$€£]?\s?\d[\d,.]*\s?[kK]?)?(?:\s?(?:per|/)\s?(?:year|yr|annum|month|hour|hr))?`)
)

type details struct {
	Description string
	Sections    map[string][]string
	SalaryText  string
	Remote      bool
}

func parseDetails(page string) (details, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return details{}, err
	}
	doc.Find("script, style, noscript").Remove()

	d := details{Sections: make(map[string][]string, len(sectionNames))}
	for _, name := range sectionNames {
		var items []string
		doc.Find(fmt.Sprintf(`[class*="%s"] li, [data-section*="%s"] li`, name, name)).Each(func(_ int, s *goquery.Selection) {
			items = append(items, strings.Join(strings.Fields(s.Text()), " "))
		})
		d.Sections[name] = sources.DedupeStrings(items)
	}

	body := doc.Find(".description, [class*=\"job-description\"]").First()
	if body.Length() == 0 {
		body = doc.Find("body")
	}
	for _, name := range sectionNames {
		body.Find(fmt.Sprintf(`[class*="%s"], [data-section*="%s"]`, name, name)).Remove()
	}
	if fragment, err := goquery.OuterHtml(body); err == nil {
		d.Description = sources.CleanText(fragment)
	}

	d.SalaryText = strings.TrimSpace(salaryText.FindString(d.Description))
	d.Remote = strings.Contains(strings.ToLower(d.Description), "remote position")
	return d, nil
}

// apply merges page details into a copy of the listed posting.
func (d details) apply(p models.Posting) models.Posting {
	if d.Description != "" {
		p.Description = d.Description
	}
	p.Requirements = d.Sections["requirements"]
	p.Responsibilities = d.Sections["responsibilities"]
	p.Qualifications = d.Sections["qualifications"]
	p.Benefits = d.Sections["benefits"]

	if d.Remote {
		p.Remote = sources.Bool(true)
	}

	if d.SalaryText != "" {
		salary := models.Salary{}
		if p.Salary != nil {
			salary = *p.Salary
		}
		if salary.Text == "" {
			salary.Text = d.SalaryText
		}
		p.Salary = &salary
	}
	return p
}
