package recorder

import (
	"context"
	"time"

	"MarketWatcher/internal/model"
)

// Recorder persists classified snapshots.
//
// Save assigns ID and CreatedAt on the passed snapshot. FindMostRecent returns
// at most count snapshots ordered by CreatedAt descending, ties broken by the
// higher ID. DeleteOlderThan removes every snapshot with CreatedAt strictly
// before threshold and reports how many were removed.
type Recorder interface {
	Save(ctx context.Context, snap *model.Snapshot) error
	FindMostRecent(ctx context.Context, count int) ([]model.Snapshot, error)
	DeleteOlderThan(ctx context.Context, threshold time.Time) (int64, error)
	Close() error
}

// tableName is shared by the SQL backends.
const tableName = "market_data"
