// Package aggregator fans a search out to every selected source, isolates
// their failures and merges the results into one recency-ordered list.
package aggregator

import (
	"context"
	"fmt"
	"runtime/debug"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"ats-aggregator/internal/errors"
	"ats-aggregator/internal/logging"
	"ats-aggregator/internal/retry"
	"ats-aggregator/internal/sources"
	"ats-aggregator/pkg/models"
)

// ErrNoActiveSources means the selection resolved to no usable source. No
// upstream was contacted.
var ErrNoActiveSources = errors.New("no active sources")

// Recorder receives per-source and per-call measurements.
type Recorder interface {
	SourceSearched(source, outcome string, postings int, elapsed time.Duration)
	AggregateCompleted(elapsed time.Duration)
}

// Cache stores complete responses. Implementations must be safe for
// concurrent use and must return a value the caller may keep.
type Cache interface {
	Get(ctx context.Context, key string) (*models.AggregateResponse, bool)
	Set(ctx context.Context, key string, resp *models.AggregateResponse, ttl time.Duration)
}

// Aggregator is the orchestrator. It keeps no state between calls beyond its
// immutable registry and collaborators.
type Aggregator struct {
	registry      *sources.Registry
	logger        logging.Logger
	recorder      Recorder
	cache         Cache
	cacheTTL      time.Duration
	sourceTimeout time.Duration
	now           func() time.Time
}

// Option configures an Aggregator.
type Option func(*Aggregator)

func WithLogger(logger logging.Logger) Option {
	return func(a *Aggregator) { a.logger = logger }
}

func WithRecorder(r Recorder) Option {
	return func(a *Aggregator) { a.recorder = r }
}

// WithCache enables result caching for ttl. A zero ttl disables it.
func WithCache(c Cache, ttl time.Duration) Option {
	return func(a *Aggregator) {
		a.cache = c
		a.cacheTTL = ttl
	}
}

// WithSourceTimeout bounds each source call. Zero means no bound.
func WithSourceTimeout(d time.Duration) Option {
	return func(a *Aggregator) { a.sourceTimeout = d }
}

func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// New creates an orchestrator over registry.
func New(registry *sources.Registry, opts ...Option) *Aggregator {
	a := &Aggregator{
		registry: registry,
		recorder: nopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = logging.GetGlobalLogger()
	}
	a.logger = a.logger.WithField("component", "aggregator")
	return a
}

// Aggregate searches the selected sources, or every enabled source when
// selected is empty, and merges the results. It fails only with
// ErrNoActiveSources; source failures are reported in the response.
func (a *Aggregator) Aggregate(ctx context.Context, criteria models.SearchCriteria, selected []string) (*models.AggregateResponse, error) {
	started := a.now()
	defer func() { a.recorder.AggregateCompleted(a.now().Sub(started)) }()

	ids, active := a.activeSources(selected)
	if len(active) == 0 {
		return nil, errors.WithHintf(ErrNoActiveSources, "selected %v, enabled %v", selected, a.registry.ListEnabled())
	}

	key := ""
	if a.cache != nil && a.cacheTTL > 0 {
		key = CacheKey(criteria, ids)
		if cached, ok := a.cache.Get(ctx, key); ok {
			a.logger.Debug("aggregate served from cache", map[string]interface{}{"sources": ids})
			return cached, nil
		}
	}

	results := a.fanOut(ctx, criteria, active)
	resp := merge(results)

	a.logger.Info("aggregate completed", map[string]interface{}{
		"sources":     ids,
		"postings":    len(resp.Postings),
		"failures":    len(resp.Failures),
		"duration_ms": a.now().Sub(started).Milliseconds(),
	})

	if key != "" && resp.Complete() {
		a.cache.Set(ctx, key, resp, a.cacheTTL)
	}
	return resp, nil
}

// activeSources resolves the effective, sorted source set. Sources that
// cannot be constructed are logged and left out.
func (a *Aggregator) activeSources(selected []string) ([]string, []sources.Source) {
	enabled := a.registry.ListEnabled()

	candidates := enabled
	if len(selected) > 0 {
		wanted := make(map[string]bool, len(selected))
		for _, id := range selected {
			wanted[strings.ToLower(strings.TrimSpace(id))] = true
		}
		candidates = candidates[:0:0]
		for _, id := range enabled {
			if wanted[id] {
				candidates = append(candidates, id)
			}
		}
	}

	var (
		ids    []string
		active []sources.Source
	)
	for _, id := range candidates {
		src, err := a.registry.Create(id)
		if err != nil {
			a.logger.Warn("source excluded", map[string]interface{}{"source": id, "error": err.Error()})
			continue
		}
		ids = append(ids, id)
		active = append(active, src)
	}
	return ids, active
}

// fanOut runs every source concurrently and waits for all of them, or for
// ctx. Sources still running when ctx ends are reported with ctx's error.
func (a *Aggregator) fanOut(ctx context.Context, criteria models.SearchCriteria, active []sources.Source) []models.SourceResult {
	var (
		mu       sync.Mutex
		results  = make([]models.SourceResult, len(active))
		finished = make([]bool, len(active))
		g        errgroup.Group
	)

	for i, src := range active {
		g.Go(func() error {
			res := a.search(ctx, criteria, src)
			mu.Lock()
			results[i] = res
			finished[i] = true
			mu.Unlock()
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
	}

	mu.Lock()
	defer mu.Unlock()

	out := make([]models.SourceResult, len(active))
	for i, src := range active {
		if finished[i] {
			out[i] = results[i]
			continue
		}
		out[i] = models.SourceResult{Source: src.ID(), Err: ctx.Err()}
		a.logger.Warn("source abandoned", map[string]interface{}{"source": src.ID(), "error": ctx.Err().Error()})
	}
	return out
}

// search runs one source and never fails: errors and panics become a failed
// SourceResult.
func (a *Aggregator) search(ctx context.Context, criteria models.SearchCriteria, src sources.Source) (res models.SourceResult) {
	id := src.ID()
	res.Source = id
	started := a.now()

	defer func() {
		if r := recover(); r != nil {
			res = models.SourceResult{Source: id, Err: errors.Newf("source panicked: %v", r)}
			a.logger.Error("source panicked", map[string]interface{}{"source": id, "panic": fmt.Sprint(r), "stack": string(debug.Stack())})
		}

		outcome := "ok"
		if res.Err != nil {
			outcome = retry.ClassOf(res.Err)
			a.logger.Warn("source failed", map[string]interface{}{
				"source": id,
				"class":  outcome,
				"error":  res.Err.Error(),
			})
		}
		a.recorder.SourceSearched(id, outcome, len(res.Postings), a.now().Sub(started))
	}()

	if a.sourceTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.sourceTimeout)
		defer cancel()
	}

	postings, err := src.Search(ctx, criteria)
	if err != nil {
		return models.SourceResult{Source: id, Err: err}
	}
	if postings == nil {
		postings = []models.Posting{}
	}
	return models.SourceResult{Source: id, Postings: postings}
}

// merge flattens results in source order, orders by posting date, newest
// first, and counts per source. Ties keep the flattened order.
func merge(results []models.SourceResult) *models.AggregateResponse {
	resp := &models.AggregateResponse{
		Postings: []models.Posting{},
		Counts:   make(map[string]int, len(results)),
	}
	for _, r := range results {
		if r.Err != nil {
			resp.Counts[r.Source] = 0
			resp.Failures = append(resp.Failures, models.SourceFailure{
				Source: r.Source,
				Error:  r.Err.Error(),
				Class:  retry.ClassOf(r.Err),
			})
			continue
		}
		resp.Counts[r.Source] = len(r.Postings)
		resp.Postings = append(resp.Postings, r.Postings...)
	}
	sortByRecency(resp.Postings)
	return resp
}

func sortByRecency(postings []models.Posting) {
	sort.SliceStable(postings, func(i, j int) bool {
		return postings[i].PostedDate.After(postings[j].PostedDate)
	})
}

type nopRecorder struct{}

func (nopRecorder) SourceSearched(string, string, int, time.Duration) {}
func (nopRecorder) AggregateCompleted(time.Duration)                  {}
