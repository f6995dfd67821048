package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"MarketWatcher/internal/api"
	"MarketWatcher/internal/calculator"
	"MarketWatcher/internal/collector"
	"MarketWatcher/internal/config"
	"MarketWatcher/internal/logger"
	"MarketWatcher/internal/notifier"
	"MarketWatcher/internal/recorder"
	"MarketWatcher/internal/scheduler"
	"MarketWatcher/internal/strategy"
)

func main() {
	_ = godotenv.Load()

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	logger.Setup(cfg.Log.Level)
	log.Info().Str("config", cfgPath).Msg("MarketWatcher starting...")

	// Init fetcher
	fetcher := newFetcher(cfg, cfg.DataSource.Provider)
	if cfg.DataSource.Fallback != "" {
		fetcher = &collector.FallbackFetcher{Primary: fetcher, Secondary: newFetcher(cfg, cfg.DataSource.Fallback)}
	}
	log.Info().Str("source", fetcher.Name()).Msg("data source ready")

	// Init collector
	history := calculator.NewHistoryCache(cfg.History.WindowSize)
	col := collector.NewCollector(fetcher, history, strategy.NewClassifier(history.Size()))

	// Init recorder
	rec, err := openRecorder(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("init recorder")
	}
	defer func() {
		if err := rec.Close(); err != nil {
			log.Error().Err(err).Msg("close recorder")
		}
	}()

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, col, rec, cfg.Symbols, scheduler.Options{
		FetchInterval:   cfg.Schedule.FetchInterval,
		CleanupInterval: cfg.Schedule.CleanupInterval,
		CleanupDelay:    cfg.Schedule.CleanupDelay,
		Retention:       cfg.Schedule.Retention,
	})

	// Init Telegram notifier
	var alerts *notifier.TrendAlerter
	if cfg.Telegram.BotToken != "" {
		tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		alerts = notifier.NewTrendAlerter(tn)
		sched.Observers = append(sched.Observers, alerts)
		go tn.StartPolling(ctx, notifier.Commands(rec, cfg.API.RecentLimit))
		log.Info().Msg("telegram alerts and polling started")
	}

	sched.RegisterAll()
	sched.Start()

	if !cfg.Schedule.SkipInitialFetch {
		sched.StartIngestNow()
	}

	// Start read API
	srv := api.NewServer(cfg.API.Addr, rec, cfg.API.RecentLimit)
	apiDone := make(chan struct{})
	go func() {
		defer close(apiDone)
		if err := srv.Start(ctx); err != nil {
			log.Error().Err(err).Msg("api server stopped")
		}
	}()

	log.Info().Msg("MarketWatcher is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping...")
	sched.Stop()
	cancel()
	<-apiDone
	if alerts != nil {
		alerts.Wait()
	}
	log.Info().Msg("MarketWatcher stopped")
}

func newFetcher(cfg *config.Config, provider string) collector.Fetcher {
	switch provider {
	case config.ProviderMock:
		return &collector.MockFetcher{Base: decimal.NewFromInt(100)}
	case config.ProviderYahoo:
		return collector.NewYahooFetcher("", cfg.Proxy, cfg.DataSource.Timeout)
	default:
		return collector.NewBinanceFetcher(cfg.DataSource.BaseURL, cfg.Proxy, cfg.DataSource.Timeout, cfg.DataSource.RequestsPerSecond)
	}
}

// openRecorder builds the primary sink and, when redis is configured, adds
// it as a mirror.
func openRecorder(cfg *config.Config) (recorder.Recorder, error) {
	var primary recorder.Recorder
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		pr, err := recorder.NewPostgresRecorder(cfg.Database.PostgresDSN)
		if err != nil {
			return nil, err
		}
		primary = pr
	case config.DriverMemory:
		primary = recorder.NewMemoryRecorder()
	default:
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			return nil, err
		}
		primary = sr
	}
	log.Info().Str("driver", cfg.Database.Driver).Msg("recorder ready")

	if cfg.Redis.Addr == "" {
		return primary, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable, mirror disabled")
		_ = rdb.Close()
		return primary, nil
	}
	log.Info().Str("addr", cfg.Redis.Addr).Msg("redis mirror enabled")
	return recorder.NewMultiRecorder(primary, recorder.NewRedisRecorder(rdb, cfg.Redis.Prefix)), nil
}
