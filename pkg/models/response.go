package models

import "time"

// PostingRecord is a posting as returned over the wire. ID is the stable
// identifier callers use to remember postings they have already handled.
type PostingRecord struct {
	ID       string `json:"id"`
	Platform string `json:"platform"`
	Posting
}

// NewPostingRecord tags a posting with its wire identity.
func NewPostingRecord(p Posting) PostingRecord {
	return PostingRecord{ID: p.Key(), Platform: p.Source, Posting: p}
}

// SearchStats summarizes a search response.
type SearchStats struct {
	Total      int            `json:"total"`
	ByPlatform map[string]int `json:"byPlatform"`
}

// SearchResponse is the success body of POST /api/search-jobs
type SearchResponse struct {
	Success bool            `json:"success"`
	Results []PostingRecord `json:"results"`
	Stats   SearchStats     `json:"stats"`
}

// ErrorResponse is the failure body of every endpoint
type ErrorResponse struct {
	Success   bool        `json:"success"`
	Error     string      `json:"error"`
	Details   interface{} `json:"details,omitempty"`
	RequestID string      `json:"requestId,omitempty"`
}

// ScraperStatus is one enabled source in the health report.
type ScraperStatus struct {
	Platform string `json:"platform"`
	Status   string `json:"status"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status      string          `json:"status"`
	Environment string          `json:"environment"`
	Scrapers    []ScraperStatus `json:"scrapers"`
	Timestamp   time.Time       `json:"timestamp"`
	Version     string          `json:"version"`
	Uptime      string          `json:"uptime"`
}
