package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketWatcher/internal/model"
)

func TestRecordFetch(t *testing.T) {
	before := testutil.ToFloat64(fetchTotal.WithLabelValues("XRPUSDT", "error"))
	RecordFetch("XRPUSDT", errors.New("timeout"))
	assert.Equal(t, before+1, testutil.ToFloat64(fetchTotal.WithLabelValues("XRPUSDT", "error")))
}

func TestSetTrend_OnlyOneActive(t *testing.T) {
	SetTrend("ADAUSDT", model.TrendUp)
	SetTrend("ADAUSDT", model.TrendDown)

	assert.Equal(t, 0.0, testutil.ToFloat64(trendInfo.WithLabelValues("ADAUSDT", string(model.TrendUp))))
	assert.Equal(t, 1.0, testutil.ToFloat64(trendInfo.WithLabelValues("ADAUSDT", string(model.TrendDown))))
}

func TestRecordCleanup_IgnoresZero(t *testing.T) {
	before := testutil.ToFloat64(cleanupDeleted)
	RecordCleanup(0)
	RecordCleanup(3)
	assert.Equal(t, before+3, testutil.ToFloat64(cleanupDeleted))
}

func TestHandler(t *testing.T) {
	RecordSave(nil)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "marketwatcher_snapshots_saved_total"))
}
