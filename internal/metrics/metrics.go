// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層から利用する。
type MetricsCollector interface {
	RecordRegistrationAccepted()
	RecordRegistrationRejected(reason string)
	RecordFeedbackSubmitted()
	RecordNotificationEmail(success bool)
	RecordReportGenerated(success bool)
	RecordReportLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	registrationAccepted prometheus.Counter
	registrationRejected *prometheus.CounterVec
	feedbackSubmitted    prometheus.Counter
	notificationEmails   *prometheus.CounterVec
	reportsGenerated     *prometheus.CounterVec
	reportLatency        prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		registrationAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eventman_registration_accepted_total",
			Help: "受理された参加登録の合計数",
		}),
		registrationRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eventman_registration_rejected_total",
			Help: "拒否された参加登録の理由別合計数",
		}, []string{"reason"}),
		feedbackSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eventman_feedback_submitted_total",
			Help: "受理されたフィードバックの合計数",
		}),
		notificationEmails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eventman_notification_emails_total",
			Help: "通知メール送信の結果別合計数",
		}, []string{"result"}),
		reportsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eventman_reports_generated_total",
			Help: "レポート生成の結果別合計数",
		}, []string{"result"}),
		reportLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "eventman_report_latency_seconds",
			Help:    "レポート生成のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.registrationAccepted,
		c.registrationRejected,
		c.feedbackSubmitted,
		c.notificationEmails,
		c.reportsGenerated,
		c.reportLatency,
	)

	return c
}

// RecordRegistrationAccepted は参加登録の受理を記録する。
func (c *Collector) RecordRegistrationAccepted() {
	c.registrationAccepted.Inc()
}

// RecordRegistrationRejected は参加登録の拒否を理由付きで記録する。
func (c *Collector) RecordRegistrationRejected(reason string) {
	c.registrationRejected.WithLabelValues(reason).Inc()
}

// RecordFeedbackSubmitted はフィードバックの受理を記録する。
func (c *Collector) RecordFeedbackSubmitted() {
	c.feedbackSubmitted.Inc()
}

// RecordNotificationEmail は通知メール1通の送信結果を記録する。
func (c *Collector) RecordNotificationEmail(success bool) {
	c.notificationEmails.WithLabelValues(resultLabel(success)).Inc()
}

// RecordReportGenerated はレポート生成の結果を記録する。
func (c *Collector) RecordReportGenerated(success bool) {
	c.reportsGenerated.WithLabelValues(resultLabel(success)).Inc()
}

// RecordReportLatency はレポート生成のレイテンシを記録する。
func (c *Collector) RecordReportLatency(duration time.Duration) {
	c.reportLatency.Observe(duration.Seconds())
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
