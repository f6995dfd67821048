package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"MarketWatcher/internal/calculator"
	"MarketWatcher/internal/model"
	"MarketWatcher/internal/strategy"
)

// MockFetcher returns controllable prices for development and testing.
// Each call for a symbol consumes the next entry of Prices[symbol]; once the
// sequence is exhausted the last entry repeats. Symbols without a sequence
// return Base.
type MockFetcher struct {
	Prices map[string][]decimal.Decimal
	Errors map[string]error
	Base   decimal.Decimal

	mu    sync.Mutex
	calls map[string]int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchPrice(_ context.Context, symbol string) (*model.PriceSample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.Errors[symbol]; err != nil {
		return nil, err
	}
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	n := m.calls[symbol]
	m.calls[symbol] = n + 1

	price := m.Base
	if seq := m.Prices[symbol]; len(seq) > 0 {
		if n >= len(seq) {
			n = len(seq) - 1
		}
		price = seq[n]
	}
	if price.Sign() <= 0 {
		return nil, errors.New("mock: no price configured")
	}
	return &model.PriceSample{Symbol: symbol, Price: price, ObservedAt: time.Now().UTC()}, nil
}

// Calls returns how many times symbol was fetched.
func (m *MockFetcher) Calls(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[symbol]
}

// Collector turns one fetched price into a classified, unsaved snapshot.
type Collector struct {
	Fetcher    Fetcher
	History    *calculator.HistoryCache
	Classifier *strategy.Classifier
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, history *calculator.HistoryCache, classifier *strategy.Classifier) *Collector {
	return &Collector{Fetcher: fetcher, History: history, Classifier: classifier}
}

// Collect fetches the current price, pushes it into the symbol's window and
// classifies it against the updated window. The history is untouched when
// the fetch fails.
func (c *Collector) Collect(ctx context.Context, symbol string) (*model.Snapshot, error) {
	sample, err := c.Fetcher.FetchPrice(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", symbol, err)
	}

	window := c.History.Observe(symbol, sample.Price)
	trend := c.Classifier.Classify(symbol, sample.Price, window)

	return &model.Snapshot{
		Symbol: symbol,
		Price:  sample.Price,
		Trend:  trend,
	}, nil
}
