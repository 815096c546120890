package models

import "time"

// RemoteLocation is the location sentinel used when a posting names no place.
const RemoteLocation = "Remote"

// Posting is one normalized job listing. Its global identity is (Source, SourceID);
// SourceID alone is only unique within its source.
type Posting struct {
	SourceID         string     `json:"sourceId"`
	Title            string     `json:"title"`
	Company          string     `json:"company"`
	Location         string     `json:"location"`
	Department       string     `json:"department,omitempty"`
	EmploymentType   string     `json:"employmentType,omitempty"`
	Description      string     `json:"description"`
	URL              string     `json:"url"`
	PostedDate       time.Time  `json:"postedDate"`
	LastUpdated      *time.Time `json:"lastUpdated,omitempty"`
	Source           string     `json:"source"`
	Remote           *bool      `json:"remote,omitempty"`
	Salary           *Salary    `json:"salary,omitempty"`
	Requirements     []string   `json:"requirements,omitempty"`
	Responsibilities []string   `json:"responsibilities,omitempty"`
	Qualifications   []string   `json:"qualifications,omitempty"`
	Benefits         []string   `json:"benefits,omitempty"`
}

// Salary is a compensation range as published by the source.
type Salary struct {
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	Currency string   `json:"currency,omitempty"`
	Type     string   `json:"type,omitempty"` // yearly, monthly, hourly
	Text     string   `json:"text,omitempty"`
}

// Key returns the global identity of the posting.
func (p Posting) Key() string {
	return p.Source + ":" + p.SourceID
}

// IsRemote reports the remote flag, treating unknown as false.
func (p Posting) IsRemote() bool {
	return p.Remote != nil && *p.Remote
}
