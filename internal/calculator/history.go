package calculator

import "github.com/shopspring/decimal"

// DefaultWindowSize is the number of recent prices kept per symbol.
const DefaultWindowSize = 5

// HistoryCache keeps a bounded FIFO window of recent prices per symbol.
//
// It does no locking. The scheduler runs every cycle under one mutex, so the
// cache only ever sees a single writer.
type HistoryCache struct {
	size    int
	windows map[string][]decimal.Decimal
}

// NewHistoryCache creates a cache holding up to size prices per symbol.
// A non-positive size falls back to DefaultWindowSize.
func NewHistoryCache(size int) *HistoryCache {
	if size <= 0 {
		size = DefaultWindowSize
	}
	return &HistoryCache{
		size:    size,
		windows: make(map[string][]decimal.Decimal),
	}
}

// Size returns the window capacity.
func (h *HistoryCache) Size() int { return h.size }

// Observe appends price as the newest entry of the symbol's window, evicting
// the oldest entry once capacity is exceeded. It returns a copy of the window
// after insertion, ordered oldest to newest.
func (h *HistoryCache) Observe(symbol string, price decimal.Decimal) []decimal.Decimal {
	w, ok := h.windows[symbol]
	if !ok {
		w = make([]decimal.Decimal, 0, h.size+1)
	}
	w = append(w, price)
	if len(w) > h.size {
		copy(w, w[1:])
		w = w[:h.size]
	}
	h.windows[symbol] = w
	return h.Window(symbol)
}

// Window returns a copy of the symbol's current window, oldest first.
func (h *HistoryCache) Window(symbol string) []decimal.Decimal {
	w := h.windows[symbol]
	out := make([]decimal.Decimal, len(w))
	copy(out, w)
	return out
}
