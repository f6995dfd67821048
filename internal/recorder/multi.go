package recorder

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"MarketWatcher/internal/model"
)

// MultiRecorder writes to a primary recorder and any number of mirrors.
// Reads come from the primary only. Mirror failures are logged and do not
// fail the call; the primary's error is returned.
type MultiRecorder struct {
	primary Recorder
	mirrors []Recorder
}

func NewMultiRecorder(primary Recorder, mirrors ...Recorder) *MultiRecorder {
	out := make([]Recorder, 0, len(mirrors))
	for _, m := range mirrors {
		if m != nil {
			out = append(out, m)
		}
	}
	return &MultiRecorder{primary: primary, mirrors: out}
}

func (r *MultiRecorder) Save(ctx context.Context, snap *model.Snapshot) error {
	if err := r.primary.Save(ctx, snap); err != nil {
		return err
	}
	for _, m := range r.mirrors {
		cp := *snap
		if err := m.Save(ctx, &cp); err != nil {
			log.Error().Err(err).Str("symbol", snap.Symbol).Msg("mirror save failed")
		}
	}
	return nil
}

func (r *MultiRecorder) FindMostRecent(ctx context.Context, count int) ([]model.Snapshot, error) {
	return r.primary.FindMostRecent(ctx, count)
}

func (r *MultiRecorder) DeleteOlderThan(ctx context.Context, threshold time.Time) (int64, error) {
	n, err := r.primary.DeleteOlderThan(ctx, threshold)
	for _, m := range r.mirrors {
		if _, merr := m.DeleteOlderThan(ctx, threshold); merr != nil {
			log.Error().Err(merr).Msg("mirror cleanup failed")
		}
	}
	return n, err
}

func (r *MultiRecorder) Close() error {
	var firstErr error
	for _, m := range append([]Recorder{r.primary}, r.mirrors...) {
		if err := m.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
