// Package scheduler periodically runs the configured warm queries so their
// results are already cached when callers ask.
package scheduler

import (
	"context"
	"strconv"
	"sync"

	"github.com/robfig/cron/v3"

	"ats-aggregator/internal/config"
	"ats-aggregator/internal/errors"
	"ats-aggregator/internal/logging"
	"ats-aggregator/internal/query"
	"ats-aggregator/pkg/models"
)

// Searcher runs one search request. *search.Service satisfies it.
type Searcher interface {
	Search(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error)
}

// Scheduler wraps robfig/cron and manages the warm-up loop.
type Scheduler struct {
	cron     *cron.Cron
	searcher Searcher
	queries  []config.WarmQuery
	spec     string
	cfg      *config.Config
	logger   logging.Logger

	running sync.Mutex
	initial sync.WaitGroup
}

// New creates a Scheduler firing on cfg.Scheduler.Schedule
func New(cfg *config.Config, searcher Searcher, logger logging.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		searcher: searcher,
		queries:  cfg.Scheduler.Queries,
		spec:     cfg.Scheduler.Schedule,
		cfg:      cfg,
		logger:   logger.WithField("component", "scheduler"),
	}
}

// Start registers the job and starts the scheduler. One warm-up also runs
// immediately so the cache is filled without waiting for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	if len(s.queries) == 0 {
		s.logger.Info("no warm queries configured, scheduler idle")
		return nil
	}

	if _, err := s.cron.AddFunc(s.spec, func() { s.RunOnce(ctx) }); err != nil {
		return errors.Wrapf(err, "schedule %q", s.spec)
	}
	s.cron.Start()
	s.logger.Info("scheduler started", map[string]interface{}{"schedule": s.spec, "queries": len(s.queries)})

	s.initial.Add(1)
	go func() {
		defer s.initial.Done()
		s.RunOnce(ctx)
	}()
	return nil
}

// Stop stops the cron and waits for a running warm-up to finish, including
// the one Start launched.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.initial.Wait()
	s.logger.Info("scheduler stopped")
}

// RunOnce runs every warm query in turn. A cycle that starts while the
// previous one is still running is skipped.
func (s *Scheduler) RunOnce(ctx context.Context) {
	if !s.running.TryLock() {
		s.logger.Warn("previous warm-up still running, skipping cycle")
		return
	}
	defer s.running.Unlock()

	s.logger.Info("warm-up started", map[string]interface{}{"queries": len(s.queries)})
	for i, wq := range s.queries {
		if ctx.Err() != nil {
			return
		}
		s.warm(ctx, i, wq)
	}
	s.logger.Info("warm-up completed")
}

func (s *Scheduler) warm(ctx context.Context, i int, wq config.WarmQuery) {
	if s.cfg.Scheduler.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Scheduler.Timeout)
		defer cancel()
	}

	resp, err := s.searcher.Search(ctx, Request(wq))
	if err != nil {
		s.logger.Warn("warm query failed", map[string]interface{}{"query": i, "keywords": wq.Keywords, "error": err.Error()})
		return
	}
	s.logger.Debug("warm query done", map[string]interface{}{"query": i, "keywords": wq.Keywords, "total": resp.Stats.Total})
}

// Request turns a warm query into the same request the search form would
// send.
func Request(wq config.WarmQuery) models.SearchRequest {
	dateRange := ""
	if wq.DateRange > 0 {
		dateRange = strconv.Itoa(wq.DateRange)
	}
	queries := query.Build(query.BuildParams{
		Titles:    query.SplitList(wq.Keywords),
		Locations: query.SplitList(wq.Location),
		Platforms: wq.Platforms,
		DateRange: dateRange,
	})
	return models.SearchRequest{
		Queries:   queries,
		Platforms: wq.Platforms,
		DateRange: dateRange,
	}
}
