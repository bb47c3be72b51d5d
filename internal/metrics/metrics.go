package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genji_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "genji_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	// CharacterLookups counts lookups by outcome: found, not_found, invalid, error.
	CharacterLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genji_character_lookups_total",
			Help: "Character lookups by outcome",
		},
		[]string{"outcome"},
	)

	PoemsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genji_poems_dropped_total",
			Help: "Raw poem rows left out of responses, by reason",
		},
		[]string{"reason"},
	)
)
