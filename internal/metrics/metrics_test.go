package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seams-estates/seams/internal/models"
)

func TestLedgerCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.PaymentRecorded(models.MethodMpesa, decimal.RequireFromString("1500.50"))
	m.PaymentRecorded(models.MethodMpesa, decimal.RequireFromString("500"))
	m.PaymentVerified(3)
	m.BillPosted(models.ChargeWater, decimal.RequireFromString("200"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.paymentsRecorded.WithLabelValues("mpesa")))
	assert.Equal(t, 2000.5, testutil.ToFloat64(m.amountRecorded.WithLabelValues("mpesa")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.paymentsVerified))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.billsMarkedPaid))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.billsPosted.WithLabelValues("water")))
}

func TestMiddlewareLabelsByPattern(t *testing.T) {
	m := New(prometheus.NewRegistry())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/houses/{id}/", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("ok"))
	})
	h := m.Middleware(mux)

	for _, path := range []string{"/api/houses/a/", "/api/houses/b/", "/api/houses/missing/", "/nowhere"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "GET /api/houses/{id}/", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "GET /api/houses/{id}/", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "unmatched", "404")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.statusCategory.WithLabelValues("4xx")))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New(nil)
	m.PaymentVerified(1)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "seams_payments_verified_total 1"))
	assert.Contains(t, body, "go_goroutines")
}

func TestStatusCategory(t *testing.T) {
	assert.Equal(t, "2xx", statusCategory(201))
	assert.Equal(t, "3xx", statusCategory(304))
	assert.Equal(t, "4xx", statusCategory(409))
	assert.Equal(t, "5xx", statusCategory(500))
}
