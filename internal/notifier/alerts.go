package notifier

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"MarketWatcher/internal/model"
	"MarketWatcher/internal/recorder"
)

// Sender delivers a formatted message.
type Sender interface {
	Send(ctx context.Context, text string) error
}

type retrySender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// TrendAlerter sends a message whenever a symbol's trend changes from one
// classified label to another. GATHERING_DATA snapshots are ignored and the
// first classified label for a symbol only sets the baseline.
type TrendAlerter struct {
	sender  Sender
	timeout time.Duration
	retries int

	mu   sync.Mutex
	last map[string]model.Trend
	wg   sync.WaitGroup
}

func NewTrendAlerter(sender Sender) *TrendAlerter {
	return &TrendAlerter{
		sender:  sender,
		timeout: 30 * time.Second,
		retries: 2,
		last:    make(map[string]model.Trend),
	}
}

// Observe records snap and dispatches an alert in the background when its
// trend differs from the previous one.
func (a *TrendAlerter) Observe(ctx context.Context, snap *model.Snapshot) {
	if snap.Trend == model.TrendGathering {
		return
	}
	a.mu.Lock()
	prev, seen := a.last[snap.Symbol]
	a.last[snap.Symbol] = snap.Trend
	a.mu.Unlock()
	if !seen || prev == snap.Trend {
		return
	}

	text := FormatTrendChange(prev, snap)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
		defer cancel()
		if err := a.send(sendCtx, text); err != nil {
			log.Error().Err(err).Str("symbol", snap.Symbol).Msg("trend alert failed")
		}
	}()
}

// send retries through senders that support it. Two retries back off 1s
// then 2s.
func (a *TrendAlerter) send(ctx context.Context, text string) error {
	if rs, ok := a.sender.(retrySender); ok {
		return rs.SendWithRetry(ctx, text, a.retries)
	}
	return a.sender.Send(ctx, text)
}

// Wait blocks until all dispatched alerts have finished.
func (a *TrendAlerter) Wait() { a.wg.Wait() }

// Commands answers bot commands from the snapshot store.
func Commands(rec recorder.Recorder, limit int) CommandHandler {
	return func(ctx context.Context, command string) string {
		fields := strings.Fields(command)
		if len(fields) == 0 {
			return ""
		}
		// "/prices@SomeBot" in group chats
		name, _, _ := strings.Cut(fields[0], "@")
		switch strings.ToLower(name) {
		case "/prices":
			snaps, err := rec.FindMostRecent(ctx, limit)
			if err != nil {
				log.Error().Err(err).Msg("find recent snapshots")
				return "Failed to load snapshots."
			}
			return FormatRecent(snaps)
		case "/start", "/help":
			return helpText()
		default:
			return "Unknown command. Try /help"
		}
	}
}
