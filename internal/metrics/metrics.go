package metrics

import (
	"encoding/json"
	"net/http"

	"github.com/aibekov/webcron/internal/health"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Dispatch metrics

	RunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "webcron",
		Name:      "runs_total",
		Help:      "Total dispatch runs, by outcome.",
	}, []string{"outcome"})

	RunErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "webcron",
		Name:      "run_errors_total",
		Help:      "Failed dispatch runs, by classified error kind.",
	}, []string{"kind"})

	RunDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "webcron",
		Name:      "run_duration_seconds",
		Help:      "End-to-end latency of one outbound dispatch.",
		Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"outcome"})

	DispatchTicksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "webcron",
		Name:      "dispatch_ticks_total",
		Help:      "Total iterations of the dispatch loop.",
	})

	DueSchedules = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "webcron",
		Name:      "due_schedules",
		Help:      "Due schedules found in the most recent dispatch tick.",
	})

	SchedulesCompletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "webcron",
		Name:      "schedules_completed_total",
		Help:      "Schedules transitioned to COMPLETED by the dispatch loop.",
	})

	DispatcherStartTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "webcron",
		Name:      "dispatcher_start_time_seconds",
		Help:      "Unix timestamp when the dispatcher started.",
	})

	// HTTP metrics

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "webcron",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "webcron",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "path", "status"})
)

func Register() {
	prometheus.MustRegister(
		RunsTotal,
		RunErrorsTotal,
		RunDuration,
		DispatchTicksTotal,
		DueSchedules,
		SchedulesCompletedTotal,
		DispatcherStartTime,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}

// ObserveRun records one completed dispatch. Wired as an executor run
// listener in the dispatcher entrypoint.
func ObserveRun(outcome, errorKind string, durationSeconds float64) {
	RunsTotal.WithLabelValues(outcome).Inc()
	RunDuration.WithLabelValues(outcome).Observe(durationSeconds)
	if errorKind != "" {
		RunErrorsTotal.WithLabelValues(errorKind).Inc()
	}
}

// NewServer serves /metrics plus the liveness/readiness probes on a
// dedicated port, away from the public API.
func NewServer(addr string, checker *health.Checker) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, checker.Liveness(r.Context()))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		result := checker.Readiness(r.Context())
		status := http.StatusOK
		if result.Status != "up" {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, result)
	})
	return &http.Server{Addr: addr, Handler: mux}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
