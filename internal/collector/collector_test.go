package collector

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketWatcher/internal/calculator"
	"MarketWatcher/internal/model"
	"MarketWatcher/internal/strategy"
)

func seq(vals ...int64) []decimal.Decimal {
	out := make([]decimal.Decimal, len(vals))
	for i, v := range vals {
		out[i] = decimal.NewFromInt(v)
	}
	return out
}

func TestCollector_Collect(t *testing.T) {
	f := &MockFetcher{Prices: map[string][]decimal.Decimal{"BTCUSDT": seq(1, 2, 3, 4, 5, 1)}}
	c := NewCollector(f, calculator.NewHistoryCache(5), strategy.NewClassifier(5))

	var trends []model.Trend
	for i := 0; i < 6; i++ {
		snap, err := c.Collect(context.Background(), "BTCUSDT")
		require.NoError(t, err)
		assert.Equal(t, "BTCUSDT", snap.Symbol)
		assert.Zero(t, snap.ID)
		trends = append(trends, snap.Trend)
	}

	assert.Equal(t, []model.Trend{
		model.TrendGathering, model.TrendGathering, model.TrendGathering, model.TrendGathering,
		model.TrendUp, model.TrendDown,
	}, trends)
	assert.Equal(t, seq(2, 3, 4, 5, 1), c.History.Window("BTCUSDT"))
}

func TestCollector_FetchErrorLeavesHistory(t *testing.T) {
	f := &MockFetcher{Errors: map[string]error{"ETHUSDT": errors.New("connection refused")}}
	c := NewCollector(f, calculator.NewHistoryCache(5), strategy.NewClassifier(5))

	snap, err := c.Collect(context.Background(), "ETHUSDT")
	require.Error(t, err)
	assert.Nil(t, snap)
	assert.Contains(t, err.Error(), "ETHUSDT")
	assert.Empty(t, c.History.Window("ETHUSDT"))
}

func TestMockFetcher_RepeatsLastAndBase(t *testing.T) {
	f := &MockFetcher{
		Prices: map[string][]decimal.Decimal{"BTCUSDT": seq(7, 8)},
		Base:   decimal.NewFromInt(100),
	}
	ctx := context.Background()

	for _, want := range []int64{7, 8, 8} {
		s, err := f.FetchPrice(ctx, "BTCUSDT")
		require.NoError(t, err)
		assert.True(t, s.Price.Equal(decimal.NewFromInt(want)))
	}
	s, err := f.FetchPrice(ctx, "SOLUSDT")
	require.NoError(t, err)
	assert.True(t, s.Price.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, 3, f.Calls("BTCUSDT"))

	_, err = (&MockFetcher{}).FetchPrice(ctx, "BTCUSDT")
	assert.Error(t, err)
}
