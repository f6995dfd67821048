package logger

import (
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup installs a console zerolog logger as the global logger.
// Unknown levels fall back to info.
func Setup(level string) {
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	log.Logger = zerolog.New(output).With().Timestamp().Caller().Logger()

	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// CronLogger routes robfig/cron's internal logging through zerolog.
type CronLogger struct{}

var _ cron.Logger = CronLogger{}

// Info logs at debug level since cron reports every wake-up here. Skipped
// runs are raised to warn.
func (CronLogger) Info(msg string, keysAndValues ...interface{}) {
	ev := log.Debug()
	if msg == "skip" {
		ev = log.Warn()
	}
	ev.Fields(keysAndValues).Msg("cron: " + msg)
}

func (CronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
