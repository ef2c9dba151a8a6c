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
// remote.MetricsRecorderを実装し、リモートAPI呼び出しの
// 成否とレイテンシを記録する。
type Collector struct {
	remoteRequests    *prometheus.CounterVec
	remoteLatency     prometheus.Histogram
	tokenMintFailures prometheus.Counter
	signIns           *prometheus.CounterVec
	ordersPlaced      prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		remoteRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "restoease_remote_requests_total",
			Help: "リモートAPIリクエストのメソッド・ステータス別の合計数",
		}, []string{"method", "status"}),
		remoteLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "restoease_remote_latency_seconds",
			Help:    "リモートAPIリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		tokenMintFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "restoease_token_mint_failures_total",
			Help: "IDトークン発行失敗の合計数",
		}),
		signIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "restoease_sign_ins_total",
			Help: "サインイン成功の方式別の合計数",
		}, []string{"method"}),
		ordersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "restoease_orders_placed_total",
			Help: "確定した注文の合計数",
		}),
	}

	reg.MustRegister(
		c.remoteRequests,
		c.remoteLatency,
		c.tokenMintFailures,
		c.signIns,
		c.ordersPlaced,
	)

	return c
}

// RecordRemoteRequest はリモートAPIリクエストの結果を記録する。
// ステータス0はトランスポートエラー（接続失敗・タイムアウト）を表す。
func (c *Collector) RecordRemoteRequest(method string, status int, duration time.Duration) {
	c.remoteRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	c.remoteLatency.Observe(duration.Seconds())
}

// RecordTokenMintFailure はIDトークン発行の失敗を記録する。
func (c *Collector) RecordTokenMintFailure() {
	c.tokenMintFailures.Inc()
}

// RecordSignIn はサインイン成功を方式別（password, google, register）に記録する。
func (c *Collector) RecordSignIn(method string) {
	c.signIns.WithLabelValues(method).Inc()
}

// RecordOrderPlaced は注文確定を記録する。
func (c *Collector) RecordOrderPlaced() {
	c.ordersPlaced.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
