// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// 在庫サービスとHTTPレイヤーの両方から利用する。
type Collector struct {
	purchaseSuccess  prometheus.Counter
	purchaseRejected *prometheus.CounterVec
	restock          prometheus.Counter
	httpStatus       *prometheus.CounterVec
	requestDuration  prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		purchaseSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sweetshop_purchase_success_total",
			Help: "購入成功の合計数",
		}),
		purchaseRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sweetshop_purchase_rejected_total",
			Help: "拒否理由別の購入拒否数",
		}, []string{"reason"}),
		restock: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sweetshop_restock_total",
			Help: "在庫補充の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sweetshop_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sweetshop_request_duration_seconds",
			Help:    "HTTPリクエスト処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.purchaseSuccess,
		c.purchaseRejected,
		c.restock,
		c.httpStatus,
		c.requestDuration,
	)

	return c
}

// RecordPurchaseSuccess は購入成功を記録する。
func (c *Collector) RecordPurchaseSuccess(quantity int) {
	c.purchaseSuccess.Inc()
}

// RecordPurchaseRejected は購入拒否を理由ラベル付きで記録する。
func (c *Collector) RecordPurchaseRejected(reason string) {
	c.purchaseRejected.WithLabelValues(reason).Inc()
}

// RecordRestock は在庫補充を記録する。
func (c *Collector) RecordRestock(quantity int) {
	c.restock.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestDuration はリクエスト処理時間を記録する。
func (c *Collector) RecordRequestDuration(duration time.Duration) {
	c.requestDuration.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
