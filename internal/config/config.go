package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// DefaultSymbols is the tracked instrument list when none is configured.
var DefaultSymbols = []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}

// Config holds all application configuration.
type Config struct {
	Symbols    []string `yaml:"symbols" toml:"symbols"`
	DataSource struct {
		Provider          string        `yaml:"provider" toml:"provider"`
		Fallback          string        `yaml:"fallback" toml:"fallback"`
		BaseURL           string        `yaml:"base_url" toml:"base_url"`
		Timeout           time.Duration `yaml:"timeout" toml:"timeout"`
		RequestsPerSecond float64       `yaml:"requests_per_second" toml:"requests_per_second"`
	} `yaml:"data_source" toml:"data_source"`
	Schedule struct {
		FetchInterval    time.Duration `yaml:"fetch_interval" toml:"fetch_interval"`
		CleanupInterval  time.Duration `yaml:"cleanup_interval" toml:"cleanup_interval"`
		CleanupDelay     time.Duration `yaml:"cleanup_initial_delay" toml:"cleanup_initial_delay"`
		Retention        time.Duration `yaml:"retention" toml:"retention"`
		SkipInitialFetch bool          `yaml:"skip_initial_fetch" toml:"skip_initial_fetch"`
	} `yaml:"schedule" toml:"schedule"`
	History struct {
		WindowSize int `yaml:"window_size" toml:"window_size"`
	} `yaml:"history" toml:"history"`
	Database struct {
		Driver      string `yaml:"driver" toml:"driver"`
		SQLitePath  string `yaml:"sqlite_path" toml:"sqlite_path"`
		PostgresDSN string `yaml:"postgres_dsn" toml:"postgres_dsn"`
	} `yaml:"database" toml:"database"`
	Redis struct {
		Addr     string `yaml:"addr" toml:"addr"`
		Password string `yaml:"password" toml:"password"`
		DB       int    `yaml:"db" toml:"db"`
		Prefix   string `yaml:"prefix" toml:"prefix"`
	} `yaml:"redis" toml:"redis"`
	API struct {
		Addr        string `yaml:"addr" toml:"addr"`
		RecentLimit int    `yaml:"recent_limit" toml:"recent_limit"`
	} `yaml:"api" toml:"api"`
	Telegram struct {
		BotToken string `yaml:"bot_token" toml:"bot_token"`
		ChatID   string `yaml:"chat_id" toml:"chat_id"`
	} `yaml:"telegram" toml:"telegram"`
	Log struct {
		Level string `yaml:"level" toml:"level"`
	} `yaml:"log" toml:"log"`
	Proxy string `yaml:"proxy" toml:"proxy"`
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	ProviderBinance = "binance"
	ProviderYahoo   = "yahoo"
	ProviderMock    = "mock"
)

// Load reads config from a YAML or TOML file (chosen by extension), then
// applies environment variable overrides and defaults. A missing file is
// not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if strings.EqualFold(filepath.Ext(path), ".toml") {
			err = toml.Unmarshal(data, cfg)
		} else {
			err = yaml.Unmarshal(data, cfg)
		}
		if err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	cfg.Symbols = normalizeSymbols(cfg.Symbols)
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("SYMBOLS"); v != "" {
		cfg.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("BINANCE_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("DB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Database.PostgresDSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("API_ADDR"); v != "" {
		cfg.API.Addr = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	durations := []struct {
		env string
		dst *time.Duration
	}{
		{"FETCH_INTERVAL", &cfg.Schedule.FetchInterval},
		{"CLEANUP_INTERVAL", &cfg.Schedule.CleanupInterval},
		{"RETENTION", &cfg.Schedule.Retention},
	}
	for _, d := range durations {
		v := os.Getenv(d.env)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", d.env, err)
		}
		*d.dst = parsed
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if len(cfg.Symbols) == 0 {
		cfg.Symbols = append([]string(nil), DefaultSymbols...)
	}
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = ProviderBinance
	}
	if cfg.DataSource.BaseURL == "" {
		cfg.DataSource.BaseURL = "https://api.binance.com"
	}
	if cfg.DataSource.Timeout == 0 {
		cfg.DataSource.Timeout = 10 * time.Second
	}
	if cfg.Schedule.FetchInterval == 0 {
		cfg.Schedule.FetchInterval = time.Minute
	}
	if cfg.Schedule.CleanupInterval == 0 {
		cfg.Schedule.CleanupInterval = time.Hour
	}
	if cfg.Schedule.CleanupDelay == 0 {
		cfg.Schedule.CleanupDelay = 10 * time.Second
	}
	if cfg.Schedule.Retention == 0 {
		cfg.Schedule.Retention = time.Hour
	}
	if cfg.History.WindowSize == 0 {
		cfg.History.WindowSize = 5
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DriverSQLite
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/market_watcher.db"
	}
	if cfg.Redis.Prefix == "" {
		cfg.Redis.Prefix = "marketwatcher"
	}
	if cfg.API.Addr == "" {
		cfg.API.Addr = ":8080"
	}
	if cfg.API.RecentLimit == 0 {
		cfg.API.RecentLimit = 3
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// Validate checks that all required fields are set and sane.
func (c *Config) Validate() error {
	if len(c.Symbols) == 0 {
		return errors.New("symbols is empty")
	}
	switch c.DataSource.Provider {
	case ProviderBinance, ProviderYahoo, ProviderMock:
	default:
		return fmt.Errorf("data_source.provider %q is not supported", c.DataSource.Provider)
	}
	switch c.DataSource.Fallback {
	case "", ProviderBinance, ProviderYahoo:
		if c.DataSource.Fallback == c.DataSource.Provider {
			return errors.New("data_source.fallback must differ from provider")
		}
	default:
		return fmt.Errorf("data_source.fallback %q is not supported", c.DataSource.Fallback)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return errors.New("telegram.bot_token and telegram.chat_id must be set together")
	}
	if c.DataSource.Timeout <= 0 {
		return errors.New("data_source.timeout must be positive")
	}
	if c.DataSource.RequestsPerSecond < 0 {
		return errors.New("data_source.requests_per_second must not be negative")
	}
	if c.Schedule.FetchInterval <= 0 || c.Schedule.CleanupInterval <= 0 || c.Schedule.Retention <= 0 {
		return errors.New("schedule intervals and retention must be positive")
	}
	if c.Schedule.CleanupDelay < 0 {
		return errors.New("schedule.cleanup_initial_delay must not be negative")
	}
	if c.History.WindowSize < 1 {
		return errors.New("history.window_size must be at least 1")
	}
	if c.API.RecentLimit < 1 {
		return errors.New("api.recent_limit must be at least 1")
	}
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			return errors.New("database.sqlite_path is required")
		}
	case DriverPostgres:
		if c.Database.PostgresDSN == "" {
			return errors.New("database.postgres_dsn is required for postgres")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("database.driver %q is not supported", c.Database.Driver)
	}
	return nil
}

func normalizeSymbols(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]struct{}{}
	for _, s := range in {
		u := strings.ToUpper(strings.TrimSpace(s))
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
