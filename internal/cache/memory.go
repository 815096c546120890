package cache

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"ats-aggregator/internal/metrics"
	"ats-aggregator/pkg/models"
)

type entry struct {
	resp    *models.AggregateResponse
	expires time.Time
}

// Memory is an in-process cache used when Redis is disabled. Expired
// entries are dropped on read. Get and Set copy the postings, counts and
// failures so callers cannot change a stored entry; the postings' own
// slices and pointers are shared and must not be modified.
type Memory struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{entries: map[string]entry{}, now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string) (*models.AggregateResponse, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if ok && !m.now().Before(e.expires) {
		delete(m.entries, key)
		ok = false
	}
	if !ok {
		metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
		return nil, false
	}
	metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
	return clone(e.resp), true
}

func (m *Memory) Set(_ context.Context, key string, resp *models.AggregateResponse, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry{resp: clone(resp), expires: m.now().Add(ttl)}
}

func clone(resp *models.AggregateResponse) *models.AggregateResponse {
	if resp == nil {
		return nil
	}
	return &models.AggregateResponse{
		Postings: slices.Clone(resp.Postings),
		Counts:   maps.Clone(resp.Counts),
		Failures: slices.Clone(resp.Failures),
	}
}

// Len reports the number of stored entries, expired ones included
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
