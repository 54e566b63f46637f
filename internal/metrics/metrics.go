package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// OutcomeSuccess labels poll ticks that produced a fresh payload.
	OutcomeSuccess = "success"
	// OutcomeError labels poll ticks that fell back to last-known-good.
	OutcomeError = "error"
)

var (
	pollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sentinel_dash",
			Name:      "polls_total",
			Help:      "Poll ticks completed, partitioned by poller and outcome.",
		},
		[]string{"poller", "outcome"},
	)

	pollDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sentinel_dash",
			Name:      "poll_seconds",
			Help:      "Poll tick latency in seconds, retries included.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
		},
		[]string{"poller"},
	)

	fetchErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sentinel_dash",
			Name:      "fetch_errors_total",
			Help:      "Backend call failures by kind (transport, status, decode).",
		},
		[]string{"kind"},
	)

	syntheticSeries = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "sentinel_dash",
			Name:      "synthetic_series",
			Help:      "1 while a chart panel is showing synthetic fallback data.",
		},
		[]string{"panel"},
	)
)

// Register attaches sentinel collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		pollsTotal,
		pollDurationSeconds,
		fetchErrorsTotal,
		syntheticSeries,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObservePoll records a poll tick duration and outcome label.
func ObservePoll(poller string, duration time.Duration, outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	pollsTotal.WithLabelValues(poller, label).Inc()
	if duration < 0 {
		duration = 0
	}
	pollDurationSeconds.WithLabelValues(poller).Observe(duration.Seconds())
}

// ObserveFetchError counts a failed backend call by kind.
func ObserveFetchError(kind string) {
	fetchErrorsTotal.WithLabelValues(kind).Inc()
}

// SetSynthetic flags whether panel is currently rendering generated data.
func SetSynthetic(panel string, synthetic bool) {
	v := 0.0
	if synthetic {
		v = 1
	}
	syntheticSeries.WithLabelValues(panel).Set(v)
}

// Serve exposes the registry on addr at /metrics until ctx is done.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
