package models

import (
	"encoding/json"
	"strings"
)

// SearchRequest is the payload of POST /api/search-jobs
type SearchRequest struct {
	Queries   QueryList `json:"queries" validate:"required,min=1,max=20,dive,required,max=1000"`
	Platforms []string  `json:"platforms,omitempty" validate:"omitempty,dive,platform"`
	DateRange string    `json:"dateRange,omitempty" validate:"omitempty,date_range"`
	WorkTypes []string  `json:"workTypes,omitempty" validate:"omitempty,dive,work_type"`
	Location  string    `json:"location,omitempty" validate:"max=200"`
	Page      int       `json:"page,omitempty" validate:"gte=0"`
	Limit     int       `json:"limit,omitempty" validate:"gte=0,lte=500"`
}

// QueryList accepts either a single query string or a list of them.
type QueryList []string

// UnmarshalJSON decodes "q" and ["q1", "q2"] alike. Blank entries are kept so
// validation can reject them.
func (q *QueryList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*q = QueryList{strings.TrimSpace(single)}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	out := make(QueryList, len(many))
	for i, s := range many {
		out[i] = strings.TrimSpace(s)
	}
	*q = out
	return nil
}
