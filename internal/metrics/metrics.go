package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Remote API metrics
var (
	BangumiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bangumi_requests_total",
			Help: "Total number of requests sent to the Bangumi API, by endpoint and outcome.",
		},
		[]string{"endpoint", "status"},
	)

	PosterDownloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poster_downloads_total",
			Help: "Total number of poster downloads, by source.",
		},
		[]string{"source"},
	)
)

// Interactive import metrics
var (
	ConfirmationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "confirmations_total",
			Help: "Total number of confirmation prompts, by decision.",
		},
		[]string{"decision"},
	)

	ImportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imports_total",
			Help: "Total number of import pipeline runs, by outcome.",
		},
		[]string{"outcome"},
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_active_sessions",
			Help: "Number of connected chat sessions.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		BangumiRequestsTotal,
		PosterDownloadsTotal,
		ConfirmationsTotal,
		ImportsTotal,
		ActiveSessions,
	)
}
