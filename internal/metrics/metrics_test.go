package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRemoteRequest_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRemoteRequest(http.MethodGet, 200, 50*time.Millisecond)
	c.RecordRemoteRequest(http.MethodGet, 200, 30*time.Millisecond)
	c.RecordRemoteRequest(http.MethodPost, 502, 10*time.Millisecond)

	if got := testutil.ToFloat64(c.remoteRequests.WithLabelValues("GET", "200")); got != 2 {
		t.Errorf("GET 200 count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.remoteRequests.WithLabelValues("POST", "502")); got != 1 {
		t.Errorf("POST 502 count = %v, want 1", got)
	}
}

func TestRecordRemoteRequest_TransportErrorUsesStatusZero(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRemoteRequest(http.MethodGet, 0, time.Second)

	if got := testutil.ToFloat64(c.remoteRequests.WithLabelValues("GET", "0")); got != 1 {
		t.Errorf("GET 0 count = %v, want 1", got)
	}
}

func TestRecordSignIn_PerMethod(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSignIn("password")
	c.RecordSignIn("password")
	c.RecordSignIn("google")

	if got := testutil.ToFloat64(c.signIns.WithLabelValues("password")); got != 2 {
		t.Errorf("password count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.signIns.WithLabelValues("google")); got != 1 {
		t.Errorf("google count = %v, want 1", got)
	}
}

func TestRecordTokenMintFailureAndOrderPlaced(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordTokenMintFailure()
	c.RecordOrderPlaced()
	c.RecordOrderPlaced()

	if got := testutil.ToFloat64(c.tokenMintFailures); got != 1 {
		t.Errorf("token mint failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.ordersPlaced); got != 2 {
		t.Errorf("orders placed = %v, want 2", got)
	}
}

func TestHandler_ExposesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordOrderPlaced()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	Handler(reg).ServeHTTP(w, req)

	body := w.Body.String()
	if !strings.Contains(body, "restoease_orders_placed_total 1") {
		t.Errorf("scrape output missing counter: %s", body)
	}
}
