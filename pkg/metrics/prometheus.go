package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"FinSight/internal/domain/repository"
)

// Recorder implements repository.Metrics using Prometheus.
type Recorder struct {
	filingsParsed *prometheus.CounterVec
	parseFailures *prometheus.CounterVec
	reports       *prometheus.CounterVec
	reportParts   *prometheus.CounterVec
	anomalies     *prometheus.GaugeVec
	errorsTotal   *prometheus.CounterVec
	latency       *prometheus.HistogramVec
}

var _ repository.Metrics = (*Recorder)(nil)

// New registers on the default registry, which backs the /metrics endpoint.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers on reg; tests pass a fresh prometheus.NewRegistry().
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		filingsParsed: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finsight_filings_parsed_total",
				Help: "Filings processed by detected format and result",
			},
			[]string{"format", "result"},
		),
		parseFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finsight_parse_failures_total",
				Help: "Filing parse failures by error kind",
			},
			[]string{"kind"},
		),
		reports: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finsight_reports_total",
				Help: "Sentiment reports built, partial when any analysis part failed",
			},
			[]string{"result"},
		),
		reportParts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finsight_report_parts_failed_total",
				Help: "Failed analysis parts per company",
			},
			[]string{"company"},
		),
		anomalies: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "finsight_anomalies_last",
				Help: "Anomalous days found by the latest report for a company",
			},
			[]string{"company"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finsight_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finsight_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordFilingParsed(format string, ok bool) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	if format == "" {
		format = "unknown"
	}
	r.filingsParsed.WithLabelValues(format, result).Inc()
}

func (r *Recorder) RecordParseFailure(kind string) {
	r.parseFailures.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordReport(companyID string, partsFailed int) {
	if partsFailed > 0 {
		r.reports.WithLabelValues("partial").Inc()
		r.reportParts.WithLabelValues(companyID).Add(float64(partsFailed))
		return
	}
	r.reports.WithLabelValues("ok").Inc()
}

func (r *Recorder) RecordAnomalies(companyID string, count int) {
	r.anomalies.WithLabelValues(companyID).Set(float64(count))
}

func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards everything.
type Nop struct{}

var _ repository.Metrics = Nop{}

func (Nop) RecordFilingParsed(string, bool) {}
func (Nop) RecordParseFailure(string) {}
func (Nop) RecordReport(string, int) {}
func (Nop) RecordAnomalies(string, int) {}
func (Nop) RecordError(string) {}
func (Nop) RecordLatency(string, float64) {}
