package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestYahoo(t *testing.T, h http.HandlerFunc) *YahooFetcher {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewYahooFetcher(srv.URL, "", 2*time.Second)
}

func TestYahooFetcher_FetchPrice(t *testing.T) {
	f := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/ETH-USD", r.URL.Path)
		w.Write([]byte(`{"chart":{"result":[{"meta":{"symbol":"ETH-USD","regularMarketPrice":3120.45}}],"error":null}}`))
	})

	sample, err := f.FetchPrice(context.Background(), "ETHUSDT")
	require.NoError(t, err)
	assert.Equal(t, "ETHUSDT", sample.Symbol)
	assert.True(t, sample.Price.Equal(decimal.RequireFromString("3120.45")))
}

func TestYahooFetcher_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"api error", http.StatusNotFound, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`, "No data found"},
		{"bad status", http.StatusBadGateway, `oops`, "status 502"},
		{"missing price", http.StatusOK, `{"chart":{"result":[{"meta":{}}],"error":null}}`, "no price data"},
		{"zero price", http.StatusOK, `{"chart":{"result":[{"meta":{"regularMarketPrice":0}}],"error":null}}`, "non-positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			_, err := f.FetchPrice(context.Background(), "BTCUSDT")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestYahooFetcher_SymbolMapping(t *testing.T) {
	f := NewYahooFetcher("", "", 0)
	assert.Equal(t, DefaultYahooURL, f.BaseURL)
	assert.Equal(t, DefaultFetchTimeout, f.Timeout)
	assert.Equal(t, "BTC-USD", f.yahooSymbol("BTCUSDT"))
	assert.Equal(t, "DOGE-USD", f.yahooSymbol("DOGEUSDT"))
	assert.Equal(t, "AAPL", f.yahooSymbol("AAPL"))
}

func TestFallbackFetcher(t *testing.T) {
	primary := &MockFetcher{
		Base:   decimal.NewFromInt(10),
		Errors: map[string]error{"ETHUSDT": errors.New("connection reset")},
	}
	secondary := &MockFetcher{Base: decimal.NewFromInt(20)}
	f := &FallbackFetcher{Primary: primary, Secondary: secondary}
	assert.Equal(t, "mock+mock", f.Name())

	s, err := f.FetchPrice(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.True(t, s.Price.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, 0, secondary.Calls("BTCUSDT"))

	s, err = f.FetchPrice(context.Background(), "ETHUSDT")
	require.NoError(t, err)
	assert.True(t, s.Price.Equal(decimal.NewFromInt(20)))

	secondary.Errors = map[string]error{"ETHUSDT": errors.New("rate limited")}
	_, err = f.FetchPrice(context.Background(), "ETHUSDT")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Contains(t, err.Error(), "rate limited")
}
