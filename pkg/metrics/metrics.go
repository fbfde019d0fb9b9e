// Package metrics holds the Prometheus instruments of the daily pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wonny/ashare-daily/backend/internal/contracts"
)

// Registry holds all pipeline metrics.
// A nil *Registry is valid and records nothing.
type Registry struct {
	reg *prometheus.Registry

	FetchRetries  *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
	FetchErrors   *prometheus.CounterVec

	QualityScore   *prometheus.GaugeVec
	QualityOverall prometheus.Gauge
	QualityPassed  prometheus.Gauge

	BasisRecords    prometheus.Gauge
	AnnualizedBasis *prometheus.GaugeVec

	PipelineStages *prometheus.CounterVec
	APIRequests    *prometheus.CounterVec
}

// New creates a registry with every pipeline metric registered
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		FetchRetries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ashare_fetch_retries_total",
				Help: "Retries scheduled after transient fetch failures",
			},
			[]string{"kind"},
		),

		FetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ashare_fetch_duration_seconds",
				Help:    "Duration of upstream fetches including retries",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"kind", "result"},
		),

		FetchErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ashare_fetch_errors_total",
				Help: "Failed fetches by kind and error class",
			},
			[]string{"kind", "class"},
		),

		QualityScore: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ashare_quality_domain_score",
				Help: "Latest quality score per domain (0-100)",
			},
			[]string{"domain"},
		),

		QualityOverall: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "ashare_quality_overall_score",
				Help: "Latest overall quality score (0-100)",
			},
		),

		QualityPassed: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "ashare_quality_passed",
				Help: "1 if the latest quality gate passed",
			},
		),

		BasisRecords: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "ashare_basis_records",
				Help: "Number of basis records in the latest analysis",
			},
		),

		AnnualizedBasis: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ashare_annualized_basis_percent",
				Help: "Latest annualized basis per futures contract",
			},
			[]string{"code", "contract"},
		),

		PipelineStages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ashare_pipeline_stages_total",
				Help: "Pipeline stages executed by status",
			},
			[]string{"stage", "status"},
		),

		APIRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ashare_api_requests_total",
				Help: "HTTP API requests by route and status code",
			},
			[]string{"route", "code"},
		),
	}

	r.reg.MustRegister(
		r.FetchRetries,
		r.FetchDuration,
		r.FetchErrors,
		r.QualityScore,
		r.QualityOverall,
		r.QualityPassed,
		r.BasisRecords,
		r.AnnualizedBasis,
		r.PipelineStages,
		r.APIRequests,
	)
	return r
}

// Gatherer exposes the underlying registry (tests, custom exporters)
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler serves the registry in the Prometheus exposition format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// ObserveRetry counts a scheduled retry
func (r *Registry) ObserveRetry(kind string) {
	if r == nil {
		return
	}
	r.FetchRetries.WithLabelValues(kind).Inc()
}

// ObserveFetch records one fetch outcome
func (r *Registry) ObserveFetch(kind string, seconds float64, err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.FetchDuration.WithLabelValues(kind, result).Observe(seconds)
}

// ObserveFetchError counts a failed fetch by class (exhausted, cancelled, permanent)
func (r *Registry) ObserveFetchError(kind, class string) {
	if r == nil {
		return
	}
	r.FetchErrors.WithLabelValues(kind, class).Inc()
}

// ObserveQuality publishes a gate decision
func (r *Registry) ObserveQuality(q *contracts.QualityReport) {
	if r == nil || q == nil {
		return
	}
	for d, s := range q.Scores {
		r.QualityScore.WithLabelValues(string(d)).Set(float64(s))
	}
	r.QualityOverall.Set(float64(q.OverallScore))
	if q.Passed {
		r.QualityPassed.Set(1)
	} else {
		r.QualityPassed.Set(0)
	}
}

// ObserveBasis publishes the latest basis records
func (r *Registry) ObserveBasis(records []contracts.BasisRecord) {
	if r == nil {
		return
	}
	r.BasisRecords.Set(float64(len(records)))
	r.AnnualizedBasis.Reset()
	for _, rec := range records {
		r.AnnualizedBasis.WithLabelValues(rec.FuturesCode, string(rec.ContractType)).Set(rec.AnnualizedBasis)
	}
}

// ObserveStage counts a pipeline stage outcome
func (r *Registry) ObserveStage(stage contracts.Stage, status string) {
	if r == nil {
		return
	}
	r.PipelineStages.WithLabelValues(stage.String(), status).Inc()
}

// ObserveRequest counts an API request
func (r *Registry) ObserveRequest(route, code string) {
	if r == nil {
		return
	}
	r.APIRequests.WithLabelValues(route, code).Inc()
}
