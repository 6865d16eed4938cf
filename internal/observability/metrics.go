package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/mixtape/internal/shared"
	"github.com/desertthunder/mixtape/internal/tasks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Run outcomes used as the "outcome" label.
const (
	OutcomeSuccess = "success"
	OutcomeEmpty   = "empty"
	OutcomeSkipped = "skipped"
	OutcomeTimeout = "timeout"
	OutcomeError   = "error"
)

// Metrics holds the run collectors on a private registry so one-shot runs can push
// exactly these series to a gateway.
type Metrics struct {
	registry *prometheus.Registry

	runs         *prometheus.CounterVec
	duration     prometheus.Histogram
	lastSuccess  prometheus.Gauge
	messages     prometheus.Gauge
	candidates   prometheus.Gauge
	tracks       prometheus.Gauge
	unresolved   prometheus.Gauge
	duplicates   prometheus.Gauge
	services     *prometheus.GaugeVec
	reportPosted prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mixtape_runs_total",
			Help: "Curation runs by outcome",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mixtape_run_duration_seconds",
			Help:    "Wall time of a curation run",
			Buckets: []float64{1, 5, 10, 20, 30, 60, 90, 120, 300},
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mixtape_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run",
		}),
		messages: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mixtape_run_messages",
			Help: "Messages scanned in the last run",
		}),
		candidates: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mixtape_run_candidates",
			Help: "Track links extracted in the last run",
		}),
		tracks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mixtape_run_tracks",
			Help: "Distinct tracks written in the last run",
		}),
		unresolved: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mixtape_run_unresolved",
			Help: "Links that could not be resolved in the last run",
		}),
		duplicates: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mixtape_run_duplicates",
			Help: "Links that resolved to an already seen track in the last run",
		}),
		services: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mixtape_run_tracks_by_service",
			Help: "Distinct tracks in the last run by the service they were shared from",
		}, []string{"service"}),
		reportPosted: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mixtape_run_report_messages",
			Help: "Report messages posted in the last run",
		}),
	}

	m.registry.MustRegister(
		m.runs, m.duration, m.lastSuccess,
		m.messages, m.candidates, m.tracks, m.unresolved, m.duplicates,
		m.services, m.reportPosted,
	)
	return m
}

// Registry exposes the underlying registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRun records one run. result may be nil when the run failed before starting.
func (m *Metrics) ObserveRun(result *tasks.RunResult, err error, elapsed time.Duration) {
	outcome := Outcome(err)
	m.runs.WithLabelValues(outcome).Inc()
	m.duration.Observe(elapsed.Seconds())
	if outcome == OutcomeSuccess {
		m.lastSuccess.SetToCurrentTime()
	}

	if result == nil {
		return
	}
	m.messages.Set(float64(result.Messages))
	m.candidates.Set(float64(result.Candidates))
	m.unresolved.Set(float64(result.Unresolved))
	m.duplicates.Set(float64(result.Duplicates))
	m.reportPosted.Set(float64(result.Posted))

	m.services.Reset()
	if result.Stats == nil {
		m.tracks.Set(0)
		return
	}
	m.tracks.Set(float64(len(result.Stats.Tracks)))
	for service, n := range result.Stats.ServiceCounts {
		m.services.WithLabelValues(string(service)).Set(float64(n))
	}
}

// Push sends the registry to a Pushgateway under job.
func (m *Metrics) Push(ctx context.Context, gatewayURL, job string) error {
	if gatewayURL == "" {
		return nil
	}
	if job == "" {
		job = "mixtape"
	}
	if err := push.New(gatewayURL, job).Gatherer(m.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", gatewayURL, err)
	}
	return nil
}

// Outcome classifies a run error for the outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case shared.IsEmptyResult(err):
		return OutcomeEmpty
	case errors.Is(err, shared.ErrMutationSkipped):
		return OutcomeSkipped
	case errors.Is(err, shared.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return OutcomeTimeout
	default:
		return OutcomeError
	}
}
