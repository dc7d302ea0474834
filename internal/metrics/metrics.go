// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// プロバイダープロキシや取り込みサービスから利用する。
type MetricsCollector interface {
	RecordProviderCall(operation string, err error)
	RecordProviderLatency(operation string, duration time.Duration)
	RecordExtractionHit(source string)
	RecordExtractionMiss(source string)
	RecordEventImported()
	RecordDuplicateSkipped()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	providerCalls     *prometheus.CounterVec
	providerFailures  *prometheus.CounterVec
	providerLatency   *prometheus.HistogramVec
	extractionHits    *prometheus.CounterVec
	extractionMisses  *prometheus.CounterVec
	eventsImported    prometheus.Counter
	duplicatesSkipped prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		providerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mailcal_provider_calls_total",
			Help: "プロバイダー呼び出しの合計数（操作別）",
		}, []string{"operation"}),
		providerFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mailcal_provider_failures_total",
			Help: "プロバイダー呼び出し失敗の合計数（操作別）",
		}, []string{"operation"}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mailcal_provider_latency_seconds",
			Help:    "プロバイダー呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		extractionHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mailcal_extraction_hits_total",
			Help: "イベント抽出成功の合計数（抽出器別）",
		}, []string{"source"}),
		extractionMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mailcal_extraction_misses_total",
			Help: "イベント抽出失敗の合計数（抽出器別）",
		}, []string{"source"}),
		eventsImported: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mailcal_events_imported_total",
			Help: "メール取り込みで登録されたイベントの合計数",
		}),
		duplicatesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mailcal_duplicates_skipped_total",
			Help: "重複としてスキップされた候補の合計数",
		}),
	}

	reg.MustRegister(
		c.providerCalls,
		c.providerFailures,
		c.providerLatency,
		c.extractionHits,
		c.extractionMisses,
		c.eventsImported,
		c.duplicatesSkipped,
	)

	return c
}

// RecordProviderCall はプロバイダー呼び出しを記録する。失敗時は失敗数も加算する。
func (c *Collector) RecordProviderCall(operation string, err error) {
	c.providerCalls.WithLabelValues(operation).Inc()
	if err != nil {
		c.providerFailures.WithLabelValues(operation).Inc()
	}
}

// RecordProviderLatency はプロバイダー呼び出しのレイテンシを記録する。
func (c *Collector) RecordProviderLatency(operation string, duration time.Duration) {
	c.providerLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordExtractionHit はイベント抽出成功を記録する。
func (c *Collector) RecordExtractionHit(source string) {
	c.extractionHits.WithLabelValues(source).Inc()
}

// RecordExtractionMiss はイベント抽出失敗を記録する。
func (c *Collector) RecordExtractionMiss(source string) {
	c.extractionMisses.WithLabelValues(source).Inc()
}

// RecordEventImported は取り込みで登録されたイベントを記録する。
func (c *Collector) RecordEventImported() {
	c.eventsImported.Inc()
}

// RecordDuplicateSkipped は重複スキップを記録する。
func (c *Collector) RecordDuplicateSkipped() {
	c.duplicatesSkipped.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
