package models

import "time"

// SearchCriteria is one search as passed to every source. It is a value type
// and is never modified once built.
type SearchCriteria struct {
	Keywords       string     `json:"keywords"`
	Location       string     `json:"location,omitempty"`
	Department     string     `json:"department,omitempty"`
	EmploymentType string     `json:"employmentType,omitempty"`
	PostedAfter    *time.Time `json:"postedAfter,omitempty"`
	RemoteOnly     bool       `json:"remote,omitempty"`
	Page           int        `json:"page,omitempty"`
	Limit          int        `json:"limit,omitempty"`
}

// SourceResult is the outcome of one source within an aggregate call.
// Err and Postings are never both set.
type SourceResult struct {
	Source   string
	Postings []Posting
	Err      error
}

// SourceFailure records a source that contributed nothing because it failed.
type SourceFailure struct {
	Source string `json:"source"`
	Error  string `json:"error"`
	Class  string `json:"class"`
}

// AggregateResponse is the merged result of an aggregate call.
type AggregateResponse struct {
	Postings []Posting       `json:"postings"`
	Counts   map[string]int  `json:"counts"`
	Failures []SourceFailure `json:"failures,omitempty"`
}

// Complete reports whether every searched source succeeded.
func (r *AggregateResponse) Complete() bool {
	return len(r.Failures) == 0
}
