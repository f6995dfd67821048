package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog/log"

	"MarketWatcher/internal/model"
)

// PostgresRecorder persists snapshots to PostgreSQL through the pgx driver.
type PostgresRecorder struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgresRecorder connects to dsn and creates the table if needed.
func NewPostgresRecorder(dsn string) (*PostgresRecorder, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	r := newPostgresRecorder(db)
	if err := r.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info().Msg("postgres recorder opened")
	return r, nil
}

func newPostgresRecorder(db *sql.DB) *PostgresRecorder {
	return &PostgresRecorder{db: db, now: time.Now}
}

func (r *PostgresRecorder) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS `+tableName+` (
  id BIGSERIAL PRIMARY KEY,
  symbol TEXT NOT NULL,
  price NUMERIC(24,8) NOT NULL,
  trend TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_market_data_created ON `+tableName+`(created_at);
`)
	return err
}

func (r *PostgresRecorder) Save(ctx context.Context, snap *model.Snapshot) error {
	createdAt := r.now().UTC().Truncate(time.Microsecond)
	var id int64
	err := r.db.QueryRowContext(ctx, `INSERT INTO `+tableName+`(symbol, price, trend, created_at)
		VALUES($1, $2, $3, $4) RETURNING id`,
		snap.Symbol, snap.Price.String(), string(snap.Trend), createdAt,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	snap.ID = id
	snap.CreatedAt = createdAt
	return nil
}

func (r *PostgresRecorder) FindMostRecent(ctx context.Context, count int) ([]model.Snapshot, error) {
	if count <= 0 {
		return []model.Snapshot{}, nil
	}
	rows, err := r.db.QueryContext(ctx, `SELECT id, symbol, price, trend, created_at
		FROM `+tableName+` ORDER BY created_at DESC, id DESC LIMIT $1`, count)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	defer rows.Close()

	out := make([]model.Snapshot, 0, count)
	for rows.Next() {
		var (
			s     model.Snapshot
			trend string
		)
		if err := rows.Scan(&s.ID, &s.Symbol, &s.Price, &trend, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		s.Trend = model.Trend(trend)
		s.CreatedAt = s.CreatedAt.UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PostgresRecorder) DeleteOlderThan(ctx context.Context, threshold time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM `+tableName+` WHERE created_at < $1`, threshold.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired: %w", err)
	}
	return res.RowsAffected()
}

func (r *PostgresRecorder) Close() error { return r.db.Close() }
