package recorder

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"MarketWatcher/internal/model"
)

// RedisRecorder keeps snapshots in a sorted set scored by created_at in unix
// milliseconds. Members are "<zero padded id>|<json>" so that equal scores
// order by id.
type RedisRecorder struct {
	rdb    *redis.Client
	key    string
	seqKey string
	now    func() time.Time
}

func NewRedisRecorder(rdb *redis.Client, prefix string) *RedisRecorder {
	if strings.TrimSpace(prefix) == "" {
		prefix = "marketwatcher"
	}
	return &RedisRecorder{
		rdb:    rdb,
		key:    prefix + ":snapshots",
		seqKey: prefix + ":snapshots:seq",
		now:    time.Now,
	}
}

func (r *RedisRecorder) Save(ctx context.Context, snap *model.Snapshot) error {
	id, err := r.rdb.Incr(ctx, r.seqKey).Result()
	if err != nil {
		return fmt.Errorf("redis next id: %w", err)
	}
	createdAt := r.now().UTC().Truncate(time.Millisecond)

	stored := *snap
	stored.ID = id
	stored.CreatedAt = createdAt
	b, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	member := fmt.Sprintf("%020d|%s", id, b)
	if err := r.rdb.ZAdd(ctx, r.key, redis.Z{Score: float64(createdAt.UnixMilli()), Member: member}).Err(); err != nil {
		return fmt.Errorf("redis zadd: %w", err)
	}
	snap.ID = id
	snap.CreatedAt = createdAt
	return nil
}

func (r *RedisRecorder) FindMostRecent(ctx context.Context, count int) ([]model.Snapshot, error) {
	if count <= 0 {
		return []model.Snapshot{}, nil
	}
	members, err := r.rdb.ZRevRange(ctx, r.key, 0, int64(count-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis zrevrange: %w", err)
	}
	out := make([]model.Snapshot, 0, len(members))
	for _, m := range members {
		_, payload, ok := strings.Cut(m, "|")
		if !ok {
			return nil, fmt.Errorf("malformed member %q", m)
		}
		var s model.Snapshot
		if err := json.Unmarshal([]byte(payload), &s); err != nil {
			return nil, fmt.Errorf("decode snapshot: %w", err)
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *RedisRecorder) DeleteOlderThan(ctx context.Context, threshold time.Time) (int64, error) {
	upper := "(" + strconv.FormatInt(ceilMillis(threshold), 10)
	n, err := r.rdb.ZRemRangeByScore(ctx, r.key, "-inf", upper).Result()
	if err != nil {
		return 0, fmt.Errorf("redis zremrangebyscore: %w", err)
	}
	return n, nil
}

func (r *RedisRecorder) Close() error { return r.rdb.Close() }
