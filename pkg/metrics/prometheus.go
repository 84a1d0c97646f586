package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder records pipeline events using Prometheus.
type Recorder struct {
	webhookDecisions     *prometheus.CounterVec
	enrichmentRuns       *prometheus.CounterVec
	analysisFailures     *prometheus.CounterVec
	notificationFailures prometheus.Counter
	queueDepth           prometheus.Gauge
	stageLatency         *prometheus.HistogramVec
}

// New creates a recorder registered on reg.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		webhookDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apex_webhook_decisions_total",
				Help: "Webhook submissions by gate decision",
			},
			[]string{"status"},
		),
		enrichmentRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apex_enrichment_runs_total",
				Help: "Completed enrichment runs by outcome",
			},
			[]string{"outcome"},
		),
		analysisFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apex_analysis_failures_total",
				Help: "Analyses that degraded to an error marker, by kind",
			},
			[]string{"kind"},
		),
		notificationFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "apex_notification_failures_total",
				Help: "Chat relay deliveries that failed",
			},
		),
		queueDepth: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "apex_enrichment_queue_depth",
				Help: "Accepted signals waiting for a worker",
			},
		),
		stageLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "apex_enrichment_stage_duration_seconds",
				Help:    "Duration of enrichment stages in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"stage"},
		),
	}
}

func (r *Recorder) RecordDecision(status string) {
	r.webhookDecisions.WithLabelValues(status).Inc()
}

func (r *Recorder) RecordRun(outcome string) {
	r.enrichmentRuns.WithLabelValues(outcome).Inc()
}

func (r *Recorder) RecordAnalysisFailure(kind string) {
	r.analysisFailures.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordNotificationFailure() {
	r.notificationFailures.Inc()
}

func (r *Recorder) SetQueueDepth(n int) {
	r.queueDepth.Set(float64(n))
}

func (r *Recorder) RecordStage(stage string, seconds float64) {
	r.stageLatency.WithLabelValues(stage).Observe(seconds)
}
