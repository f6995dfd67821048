package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"MarketWatcher/internal/collector"
	"MarketWatcher/internal/logger"
	"MarketWatcher/internal/metrics"
	"MarketWatcher/internal/model"
	"MarketWatcher/internal/recorder"
)

const (
	DefaultFetchInterval   = time.Minute
	DefaultCleanupInterval = time.Hour
	DefaultCleanupDelay    = 10 * time.Second
	DefaultRetention       = time.Hour
)

// Options configures the two cycles. Zero values take the defaults above.
type Options struct {
	FetchInterval   time.Duration
	CleanupInterval time.Duration
	CleanupDelay    time.Duration
	Retention       time.Duration
}

func (o *Options) applyDefaults() {
	if o.FetchInterval <= 0 {
		o.FetchInterval = DefaultFetchInterval
	}
	if o.CleanupInterval <= 0 {
		o.CleanupInterval = DefaultCleanupInterval
	}
	if o.CleanupDelay <= 0 {
		o.CleanupDelay = DefaultCleanupDelay
	}
	if o.Retention <= 0 {
		o.Retention = DefaultRetention
	}
}

// SnapshotObserver is told about every snapshot that was saved.
type SnapshotObserver interface {
	Observe(ctx context.Context, snap *model.Snapshot)
}

// Scheduler drives the ingestion and cleanup cycles.
//
// Every run of either cycle holds mu for its whole duration, so cycles never
// overlap and the collector's history cache is only touched by one goroutine
// at a time. SkipIfStillRunning drops ticks that arrive while the same cycle
// is still running or waiting for mu.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Recorder  recorder.Recorder
	Symbols   []string
	Options   Options
	Ctx       context.Context
	Observers []SnapshotObserver

	mu  sync.Mutex
	wg  sync.WaitGroup
	now func() time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, rec recorder.Recorder, symbols []string, opts Options) *Scheduler {
	opts.applyDefaults()
	l := logger.CronLogger{}
	return &Scheduler{
		Cron: cron.New(
			cron.WithLogger(l),
			cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
		),
		Collector: col,
		Recorder:  rec,
		Symbols:   symbols,
		Options:   opts,
		Ctx:       ctx,
		now:       time.Now,
	}
}

// RegisterAll registers the ingestion and cleanup cycles. The first ingestion
// tick fires one FetchInterval after Start; use RunIngestNow for an
// immediate run.
func (s *Scheduler) RegisterAll() {
	s.Cron.Schedule(newInterval(s.Options.FetchInterval, s.Options.FetchInterval), s.serial(s.ingestTask))
	s.Cron.Schedule(newInterval(s.Options.CleanupDelay, s.Options.CleanupInterval), s.serial(s.cleanupTask))
	log.Info().
		Dur("fetch_interval", s.Options.FetchInterval).
		Dur("cleanup_interval", s.Options.CleanupInterval).
		Dur("cleanup_delay", s.Options.CleanupDelay).
		Dur("retention", s.Options.Retention).
		Strs("symbols", s.Symbols).
		Msg("cycles registered")
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for any running cycle, including
// one begun by StartIngestNow, to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.wg.Wait()
	log.Info().Msg("scheduler stopped")
}

// RunIngestNow executes one ingestion cycle immediately.
func (s *Scheduler) RunIngestNow() {
	s.serial(s.ingestTask).Run()
}

// StartIngestNow runs one ingestion cycle in the background. Stop waits for it.
func (s *Scheduler) StartIngestNow() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.RunIngestNow()
	}()
}

// RunCleanupNow executes one cleanup cycle immediately.
func (s *Scheduler) RunCleanupNow() {
	s.serial(s.cleanupTask).Run()
}

func (s *Scheduler) serial(task func()) cron.FuncJob {
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		task()
	}
}

// ingestTask fetches, classifies and saves every tracked symbol in order.
// A failure for one symbol is logged and the cycle moves on.
func (s *Scheduler) ingestTask() {
	started := time.Now()
	defer metrics.ObserveCycle("ingest", started)

	// A started cycle always runs to completion; each fetch has its own timeout.
	ctx := context.WithoutCancel(s.Ctx)
	l := log.With().Str("run_id", uuid.NewString()).Logger()
	l.Info().Int("symbols", len(s.Symbols)).Msg("starting price update cycle")

	var saved, failed int
	for _, symbol := range s.Symbols {
		snap, err := s.Collector.Collect(ctx, symbol)
		metrics.RecordFetch(symbol, err)
		if err != nil {
			l.Error().Err(err).Str("symbol", symbol).Msg("fetch failed, skipping symbol")
			failed++
			continue
		}

		err = s.Recorder.Save(ctx, snap)
		metrics.RecordSave(err)
		if err != nil {
			l.Error().Err(err).Str("symbol", symbol).Str("trend", string(snap.Trend)).Msg("save snapshot failed")
			failed++
			continue
		}
		metrics.SetTrend(symbol, snap.Trend)
		for _, o := range s.Observers {
			o.Observe(ctx, snap)
		}
		saved++
	}

	l.Info().
		Int("saved", saved).
		Int("failed", failed).
		Dur("took", time.Since(started)).
		Msg("price update cycle finished")
}

func (s *Scheduler) cleanupTask() {
	started := time.Now()
	defer metrics.ObserveCycle("cleanup", started)

	threshold := s.now().Add(-s.Options.Retention)
	log.Info().Time("threshold", threshold).Msg("removing snapshots older than threshold")

	n, err := s.Recorder.DeleteOlderThan(context.WithoutCancel(s.Ctx), threshold)
	if err != nil {
		log.Error().Err(err).Msg("cleanup failed")
		return
	}
	metrics.RecordCleanup(n)
	log.Info().Int64("deleted", n).Msg("cleanup finished")
}
