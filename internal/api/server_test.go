package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketWatcher/internal/model"
	"MarketWatcher/internal/recorder"
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestPrices_Empty(t *testing.T) {
	s := NewServer(":0", recorder.NewMemoryRecorder(), 0)
	rr := get(t, s.Router(), "/api/prices")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestPrices_MostRecentFirst(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var at time.Time
	rec := recorder.NewMemoryRecorderWithClock(func() time.Time { return at })
	for i, sym := range []string{"BTCUSDT", "ETHUSDT", "SOLUSDT", "BTCUSDT"} {
		at = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, rec.Save(context.Background(), &model.Snapshot{
			Symbol: sym, Price: decimal.RequireFromString("64000.12"), Trend: model.TrendUp,
		}))
	}

	rr := get(t, NewServer(":0", rec, 3).Router(), "/api/prices")
	require.Equal(t, http.StatusOK, rr.Code)

	var got []struct {
		ID     int64  `json:"id"`
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
		Trend  string `json:"trend"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got, 3)
	assert.Equal(t, []int64{4, 3, 2}, []int64{got[0].ID, got[1].ID, got[2].ID})
	assert.Equal(t, "64000.12", got[0].Price)
	assert.Equal(t, "UPTREND", got[0].Trend)
}

type brokenRecorder struct {
	recorder.Recorder
}

func (brokenRecorder) FindMostRecent(context.Context, int) ([]model.Snapshot, error) {
	return nil, errors.New("connection refused")
}

func TestPrices_StoreError(t *testing.T) {
	rr := get(t, NewServer(":0", brokenRecorder{}, 3).Router(), "/api/prices")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"failed to load snapshots"}`, rr.Body.String())
}

func TestHealthAndMetrics(t *testing.T) {
	r := NewServer(":0", recorder.NewMemoryRecorder(), 3).Router()

	rr := get(t, r, "/healthz")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	rr = get(t, r, "/metrics")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "go_goroutines")
}

func TestPrices_MethodNotAllowed(t *testing.T) {
	rr := httptest.NewRecorder()
	s := NewServer(":0", recorder.NewMemoryRecorder(), 3)
	s.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/prices", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestStart_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	s := NewServer(addr, recorder.NewMemoryRecorder(), 3)
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
