package server

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "topoguia",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	generationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "topoguia",
			Subsystem: "generator",
			Name:      "duration_seconds",
			Help:      "Time spent generating a guide, in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"template", "outcome"},
	)

	generationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "topoguia",
			Subsystem: "generator",
			Name:      "generations_total",
			Help:      "Generated guides by template and outcome.",
		},
		[]string{"template", "outcome"},
	)

	generatedPages = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "topoguia",
			Subsystem: "generator",
			Name:      "pages",
			Help:      "Pages per generated guide.",
			Buckets:   []float64{1, 2, 3, 4, 6, 8},
		},
		[]string{"template"},
	)
)

func registerMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(requestDuration, generationDuration, generationTotal, generatedPages)
	})
}

// Generation outcomes.
const (
	outcomeOK      = "ok"
	outcomeInvalid = "invalid"
	outcomeAsset   = "asset_error"
	outcomeError   = "error"
)

func observeGeneration(template, outcome string, start time.Time, pages int) {
	generationDuration.WithLabelValues(template, outcome).Observe(time.Since(start).Seconds())
	generationTotal.WithLabelValues(template, outcome).Inc()
	if outcome == outcomeOK {
		generatedPages.WithLabelValues(template).Observe(float64(pages))
	}
}

func observeRequest(method, path string, status int, d time.Duration) {
	requestDuration.With(prometheus.Labels{
		"method": method,
		"path":   path,
		"status": strconv.Itoa(status),
	}).Observe(d.Seconds())
}
