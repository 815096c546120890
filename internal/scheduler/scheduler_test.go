package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ats-aggregator/internal/config"
	"ats-aggregator/internal/errors"
	"ats-aggregator/internal/logging"
	"ats-aggregator/pkg/models"
)

type recordingSearcher struct {
	mu       sync.Mutex
	requests []models.SearchRequest
	fail     bool
	block    chan struct{}
}

func (r *recordingSearcher) Search(_ context.Context, req models.SearchRequest) (*models.SearchResponse, error) {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
	if r.fail {
		return nil, errors.New("no active sources")
	}
	return &models.SearchResponse{Success: true}, nil
}

func (r *recordingSearcher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.requests)
}

func testConfig(queries ...config.WarmQuery) *config.Config {
	cfg := config.Default()
	cfg.Scheduler.Queries = queries
	return cfg
}

func TestRequest(t *testing.T) {
	req := Request(config.WarmQuery{
		Keywords:  "Go Developer, SRE",
		Location:  "Berlin",
		Platforms: []string{"greenhouse"},
		DateRange: 7,
	})

	assert.Equal(t, models.QueryList{`(site:boards.greenhouse.io) ("Go Developer" OR SRE) (Berlin) after:7d`}, req.Queries)
	assert.Equal(t, []string{"greenhouse"}, req.Platforms)
	assert.Equal(t, "7", req.DateRange)

	assert.Empty(t, Request(config.WarmQuery{Keywords: "golang"}).DateRange)
}

func TestRunOnce_WarmsEveryQuery(t *testing.T) {
	searcher := &recordingSearcher{fail: true}
	logger, memory := logging.NewMemoryLogger()
	s := New(testConfig(config.WarmQuery{Keywords: "go"}, config.WarmQuery{Keywords: "rust"}), searcher, logger)

	s.RunOnce(context.Background())

	assert.Equal(t, 2, searcher.count())
	assert.Len(t, memory.Find("warm query failed"), 2, "a failing query does not stop the cycle")
	assert.Len(t, memory.Find("warm-up completed"), 1)
}

func TestRunOnce_SkipsOverlappingCycle(t *testing.T) {
	searcher := &recordingSearcher{block: make(chan struct{})}
	logger, memory := logging.NewMemoryLogger()
	s := New(testConfig(config.WarmQuery{Keywords: "go"}), searcher, logger)

	done := make(chan struct{})
	go func() {
		s.RunOnce(context.Background())
		close(done)
	}()

	require.Eventually(t, func() bool { return len(memory.Find("warm-up started")) == 1 }, time.Second, 5*time.Millisecond)
	s.RunOnce(context.Background())
	close(searcher.block)
	<-done

	assert.Len(t, memory.Find("previous warm-up still running, skipping cycle"), 1)
	assert.Equal(t, 1, searcher.count())
}

func TestStart(t *testing.T) {
	logger, memory := logging.NewMemoryLogger()

	idle := New(testConfig(), &recordingSearcher{}, logger)
	require.NoError(t, idle.Start(context.Background()))
	assert.Len(t, memory.Find("no warm queries configured, scheduler idle"), 1)

	cfg := testConfig(config.WarmQuery{Keywords: "go"})
	cfg.Scheduler.Schedule = "not a schedule"
	assert.Error(t, New(cfg, &recordingSearcher{}, logger).Start(context.Background()))

	searcher := &recordingSearcher{}
	s := New(testConfig(config.WarmQuery{Keywords: "go"}), searcher, logger)
	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool { return searcher.count() == 1 }, time.Second, 5*time.Millisecond)
	s.Stop()
}

func TestStop_WaitsForInitialWarmUp(t *testing.T) {
	searcher := &recordingSearcher{block: make(chan struct{})}
	logger, memory := logging.NewMemoryLogger()
	s := New(testConfig(config.WarmQuery{Keywords: "go"}), searcher, logger)
	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool { return len(memory.Find("warm-up started")) == 1 }, time.Second, 5*time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while the initial warm-up was running")
	case <-time.After(50 * time.Millisecond):
	}

	close(searcher.block)
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after the warm-up finished")
	}
	assert.Len(t, memory.Find("warm-up completed"), 1)
	assert.Equal(t, 1, searcher.count())
}
