package sources

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCleanText(t *testing.T) {
	assert.Equal(t, "About us We build things. Go Kubernetes",
		CleanText("<h2>About us</h2><p>We build\n\n things.</p><ul><li>Go</li><li>Kubernetes</li></ul><script>alert(1)</script>"))
	assert.Equal(t, "Fish & Chips", CleanText("&lt;b&gt;Fish &amp; Chips&lt;/b&gt;"))
	assert.Equal(t, "plain text", CleanText("  plain \t text "))
	assert.Equal(t, "", CleanText(""))
}

func TestFormatLocation(t *testing.T) {
	assert.Equal(t, "Austin, TX, US", FormatLocation("Austin", "TX", "US"))
	assert.Equal(t, "Germany", FormatLocation("", " ", "Germany"))
	assert.Equal(t, "Remote", FormatLocation())
}

func TestDetectRemote(t *testing.T) {
	assert.True(t, DetectRemote("Backend Engineer", "This is a Remote position"))
	assert.True(t, DetectRemote("Support (WFH)"))
	assert.True(t, DetectRemote("Work From Home agent"))
	assert.False(t, DetectRemote("Onsite welder", ""))
}

func TestPostedDate(t *testing.T) {
	fetched := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2024, 5, 3, 10, 0, 0, 0, time.UTC), PostedDate(fetched, "", "2024-05-03T12:00:00+02:00"))
	assert.Equal(t, time.UnixMilli(1714000000000).UTC(), PostedDate(fetched, "1714000000000"))
	assert.Equal(t, time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC), PostedDate(fetched, "2024-05-03"))
	assert.Equal(t, fetched, PostedDate(fetched, "not a date"), "falls back to fetch time")
}

func TestDedupeStrings(t *testing.T) {
	assert.Equal(t, []string{"Go", "Rust"}, DedupeStrings([]string{" Go", "", "Rust", "Go "}))
}

func TestListItems(t *testing.T) {
	assert.Equal(t, []string{"Go", "Postgres"}, ListItems("&lt;ul&gt;&lt;li&gt;Go&lt;/li&gt;&lt;li&gt; Postgres &lt;/li&gt;&lt;li&gt;Go&lt;/li&gt;&lt;/ul&gt;"))
	assert.Nil(t, ListItems("no markup"))
}

func TestSalaryPeriod(t *testing.T) {
	assert.Equal(t, "yearly", SalaryPeriod("per-year-salary"))
	assert.Equal(t, "yearly", SalaryPeriod("1 YEAR"))
	assert.Equal(t, "hourly", SalaryPeriod("per-hour-wage"))
	assert.Equal(t, "monthly", SalaryPeriod("Monthly"))
	assert.Equal(t, "", SalaryPeriod(""))
}
