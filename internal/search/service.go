package search

import (
	"context"
	"time"

	"ats-aggregator/internal/aggregator"
	"ats-aggregator/pkg/models"
)

// Service runs search requests against an aggregator.
type Service struct {
	agg *aggregator.Aggregator
	now func() time.Time
}

func NewService(agg *aggregator.Aggregator) *Service {
	return &Service{agg: agg, now: time.Now}
}

// Search runs every query of req and returns the merged, paged response.
// Stats describe the whole result; page and limit slice it afterwards.
func (s *Service) Search(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error) {
	merged, err := s.agg.AggregateBatch(ctx, Plan(req, s.now()))
	if err != nil {
		return nil, err
	}

	resp := &models.SearchResponse{
		Success: true,
		Stats: models.SearchStats{
			Total:      len(merged.Postings),
			ByPlatform: merged.Counts,
		},
	}

	page := Page(merged.Postings, req.Page, req.Limit)
	resp.Results = make([]models.PostingRecord, 0, len(page))
	for _, p := range page {
		resp.Results = append(resp.Results, models.NewPostingRecord(p))
	}
	return resp, nil
}

// Page returns the 1-based page of postings. A limit of 0 returns all of
// them; a page past the end is empty.
func Page(postings []models.Posting, page, limit int) []models.Posting {
	if limit <= 0 {
		return postings
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(postings) {
		return []models.Posting{}
	}
	end := start + limit
	if end > len(postings) {
		end = len(postings)
	}
	return postings[start:end]
}
