// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ContentLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "learn_content_loads_total",
			Help: "Content initializations by result",
		},
		[]string{"result"},
	)

	ContentLoadDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "learn_content_load_duration_seconds",
			Help:    "Duration of content initialization",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	ContentSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "learn_content_skipped_total",
			Help: "Documents skipped during a lenient load",
		},
		[]string{"kind"},
	)

	AnswersSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "learn_answers_submitted_total",
			Help: "Submitted answers by result",
		},
		[]string{"result"},
	)
)

// Register adds all collectors to reg. Already-registered collectors are
// ignored so tests can register repeatedly.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{ContentLoads, ContentLoadDuration, ContentSkipped, AnswersSubmitted} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

// Handler serves the collectors registered on gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
