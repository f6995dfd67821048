package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"MarketWatcher/internal/model"
)

// SQLiteRecorder persists snapshots to a SQLite database. Prices are stored
// as decimal text and created_at as unix milliseconds.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	// WAL lets the read API query while the scheduler writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, now: time.Now}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ` + tableName + ` (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol     TEXT NOT NULL,
			price      TEXT NOT NULL,
			trend      TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_market_data_created ON ` + tableName + `(created_at)`,
	}
	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) Save(ctx context.Context, snap *model.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	createdAt := r.now().UTC().Truncate(time.Millisecond)
	res, err := r.db.ExecContext(ctx, `INSERT INTO `+tableName+`
		(symbol, price, trend, created_at) VALUES (?,?,?,?)`,
		snap.Symbol, snap.Price.String(), string(snap.Trend), createdAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	snap.ID = id
	snap.CreatedAt = createdAt
	return nil
}

func (r *SQLiteRecorder) FindMostRecent(ctx context.Context, count int) ([]model.Snapshot, error) {
	if count <= 0 {
		return []model.Snapshot{}, nil
	}
	rows, err := r.db.QueryContext(ctx, `SELECT id, symbol, price, trend, created_at
		FROM `+tableName+` ORDER BY created_at DESC, id DESC LIMIT ?`, count)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	defer rows.Close()

	out := make([]model.Snapshot, 0, count)
	for rows.Next() {
		var (
			s         model.Snapshot
			price     string
			trend     string
			createdMs int64
		)
		if err := rows.Scan(&s.ID, &s.Symbol, &price, &trend, &createdMs); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		if s.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("parse price %q: %w", price, err)
		}
		s.Trend = model.Trend(trend)
		s.CreatedAt = time.UnixMilli(createdMs).UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) DeleteOlderThan(ctx context.Context, threshold time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.ExecContext(ctx, `DELETE FROM `+tableName+` WHERE created_at < ?`, ceilMillis(threshold))
	if err != nil {
		return 0, fmt.Errorf("delete expired: %w", err)
	}
	return res.RowsAffected()
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}

// ceilMillis rounds t up to a whole millisecond so that a stored row is
// deleted exactly when its millisecond timestamp is before t.
func ceilMillis(t time.Time) int64 {
	ms := t.UnixMilli()
	if t.Sub(time.UnixMilli(ms)) > 0 {
		ms++
	}
	return ms
}
