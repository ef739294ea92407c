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

// TestCollector_PurchaseCounters は購入メトリクスの記録を検証する。
func TestCollector_PurchaseCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordPurchaseSuccess(3)
	c.RecordPurchaseSuccess(1)
	c.RecordPurchaseRejected("insufficient_stock")
	c.RecordPurchaseRejected("insufficient_stock")
	c.RecordPurchaseRejected("invalid_quantity")
	c.RecordRestock(10)

	if got := testutil.ToFloat64(c.purchaseSuccess); got != 2 {
		t.Errorf("purchase success = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.purchaseRejected.WithLabelValues("insufficient_stock")); got != 2 {
		t.Errorf("rejected[insufficient_stock] = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.purchaseRejected.WithLabelValues("invalid_quantity")); got != 1 {
		t.Errorf("rejected[invalid_quantity] = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.restock); got != 1 {
		t.Errorf("restock = %v, want 1", got)
	}
}

// TestCollector_HTTPMetrics はHTTPステータスと処理時間の記録を検証する。
func TestCollector_HTTPMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(404)
	c.RecordRequestDuration(50 * time.Millisecond)

	if got := testutil.ToFloat64(c.httpStatus.WithLabelValues("200")); got != 2 {
		t.Errorf("http_status[200] = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.httpStatus.WithLabelValues("404")); got != 1 {
		t.Errorf("http_status[404] = %v, want 1", got)
	}
}

// TestHandler_Scrape は/metrics形式での公開を検証する。
func TestHandler_Scrape(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordPurchaseSuccess(1)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "sweetshop_purchase_success_total 1") {
		t.Errorf("scrape output missing purchase counter:\n%s", body)
	}
}
