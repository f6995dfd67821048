package recorder

import (
	"context"
	"sort"
	"sync"
	"time"

	"MarketWatcher/internal/model"
)

// MemoryRecorder keeps snapshots in process memory. It is used when no
// database is configured and in tests.
type MemoryRecorder struct {
	mu     sync.Mutex
	rows   []model.Snapshot
	nextID int64
	now    func() time.Time
}

func NewMemoryRecorder() *MemoryRecorder {
	return NewMemoryRecorderWithClock(time.Now)
}

// NewMemoryRecorderWithClock creates a MemoryRecorder that stamps CreatedAt
// with now.
func NewMemoryRecorderWithClock(now func() time.Time) *MemoryRecorder {
	return &MemoryRecorder{now: now}
}

func (m *MemoryRecorder) Save(_ context.Context, snap *model.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	snap.ID = m.nextID
	snap.CreatedAt = m.now().UTC()
	m.rows = append(m.rows, *snap)
	return nil
}

func (m *MemoryRecorder) FindMostRecent(_ context.Context, count int) ([]model.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.Snapshot, len(m.rows))
	copy(out, m.rows)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if count < 0 {
		count = 0
	}
	if len(out) > count {
		out = out[:count]
	}
	return out, nil
}

func (m *MemoryRecorder) DeleteOlderThan(_ context.Context, threshold time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.rows[:0]
	var deleted int64
	for _, r := range m.rows {
		if r.CreatedAt.Before(threshold) {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	m.rows = kept
	return deleted, nil
}

func (m *MemoryRecorder) Close() error { return nil }
