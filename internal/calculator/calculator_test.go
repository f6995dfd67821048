package calculator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decs(vals ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, len(vals))
	for i, v := range vals {
		out[i] = decimal.RequireFromString(v)
	}
	return out
}

func TestCalculateSMA(t *testing.T) {
	tests := []struct {
		name   string
		prices []decimal.Decimal
		period int
		want   string
	}{
		{"ascending", decs("1", "2", "3", "4", "5"), 5, "3"},
		{"uses last period only", decs("100", "1", "2", "3", "4", "5"), 5, "3"},
		{"rounds half up", decs("0.005", "0.005", "0.005", "0.005", "0.005"), 5, "0.01"},
		{"rounds down below half", decs("1.004", "1.004", "1.004", "1.004", "1.004"), 5, "1"},
		{"no binary drift", decs("0.1", "0.2", "0.1", "0.2", "0.1"), 5, "0.14"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculateSMA(tt.prices, tt.period, AverageScale)
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestCalculateSMA_Errors(t *testing.T) {
	_, err := CalculateSMA(decs("1", "2"), 0, AverageScale)
	assert.Error(t, err)

	_, err = CalculateSMA(decs("1", "2"), 5, AverageScale)
	assert.Error(t, err)
}

func TestHistoryCache_FillsThenEvictsOldest(t *testing.T) {
	h := NewHistoryCache(5)

	for i, p := range decs("1", "2", "3", "4") {
		w := h.Observe("BTCUSDT", p)
		assert.Len(t, w, i+1)
	}

	w := h.Observe("BTCUSDT", decimal.NewFromInt(5))
	assert.Equal(t, decs("1", "2", "3", "4", "5"), w)

	w = h.Observe("BTCUSDT", decimal.NewFromInt(6))
	require.Len(t, w, 5)
	assert.Equal(t, decs("2", "3", "4", "5", "6"), w)

	for _, p := range decs("7", "8", "9", "10", "11", "12") {
		w = h.Observe("BTCUSDT", p)
		assert.LessOrEqual(t, len(w), 5)
	}
	assert.Equal(t, decs("8", "9", "10", "11", "12"), w)
}

func TestHistoryCache_SymbolsAreIndependent(t *testing.T) {
	h := NewHistoryCache(3)
	h.Observe("BTCUSDT", decimal.NewFromInt(1))
	h.Observe("ETHUSDT", decimal.NewFromInt(10))
	h.Observe("BTCUSDT", decimal.NewFromInt(2))

	assert.Equal(t, decs("1", "2"), h.Window("BTCUSDT"))
	assert.Equal(t, decs("10"), h.Window("ETHUSDT"))
	assert.Empty(t, h.Window("SOLUSDT"))
}

func TestHistoryCache_ReturnsCopy(t *testing.T) {
	h := NewHistoryCache(2)
	w := h.Observe("BTCUSDT", decimal.NewFromInt(1))
	w[0] = decimal.NewFromInt(99)

	assert.Equal(t, decs("1"), h.Window("BTCUSDT"))
}

func TestNewHistoryCache_DefaultSize(t *testing.T) {
	assert.Equal(t, DefaultWindowSize, NewHistoryCache(0).Size())
}
