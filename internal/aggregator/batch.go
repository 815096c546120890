package aggregator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"

	"ats-aggregator/internal/errors"
	"ats-aggregator/pkg/models"
)

// Query is one search of a batch with its own source selection.
type Query struct {
	Criteria models.SearchCriteria
	Sources  []string
}

// AggregateBatch runs each query in turn and merges the responses. Postings
// are deduplicated by (source, sourceId), keeping the first seen; counts are
// taken after deduplication. Queries that resolve to no active source are
// skipped, and ErrNoActiveSources is returned only when all of them do.
func (a *Aggregator) AggregateBatch(ctx context.Context, queries []Query) (*models.AggregateResponse, error) {
	merged := &models.AggregateResponse{
		Postings: []models.Posting{},
		Counts:   map[string]int{},
	}

	seen := map[string]bool{}
	failed := map[models.SourceFailure]bool{}
	ran := 0

	for i, q := range queries {
		resp, err := a.Aggregate(ctx, q.Criteria, q.Sources)
		if errors.Is(err, ErrNoActiveSources) {
			a.logger.Warn("query skipped, no active sources", map[string]interface{}{"query": i, "sources": q.Sources})
			continue
		}
		if err != nil {
			return nil, err
		}
		ran++

		for source := range resp.Counts {
			if _, ok := merged.Counts[source]; !ok {
				merged.Counts[source] = 0
			}
		}
		for _, p := range resp.Postings {
			if key := p.Key(); !seen[key] {
				seen[key] = true
				merged.Postings = append(merged.Postings, p)
				merged.Counts[p.Source]++
			}
		}
		for _, f := range resp.Failures {
			if !failed[f] {
				failed[f] = true
				merged.Failures = append(merged.Failures, f)
			}
		}
	}

	if ran == 0 {
		return nil, ErrNoActiveSources
	}
	sortByRecency(merged.Postings)
	return merged, nil
}

// CacheKey identifies a search over a source set. PostedAfter is truncated
// to the hour so "last N days" searches share entries within the hour, and
// paging is left out because it is applied after aggregation.
func CacheKey(criteria models.SearchCriteria, sourceIDs []string) string {
	ids := append([]string(nil), sourceIDs...)
	sort.Strings(ids)

	normalized := criteria
	normalized.Page, normalized.Limit = 0, 0
	if criteria.PostedAfter != nil {
		t := criteria.PostedAfter.UTC().Truncate(time.Hour)
		normalized.PostedAfter = &t
	}

	payload, _ := json.Marshal(struct {
		Criteria models.SearchCriteria `json:"c"`
		Sources  []string              `json:"s"`
	}{normalized, ids})

	sum := sha256.Sum256(payload)
	return "search:" + hex.EncodeToString(sum[:])
}
