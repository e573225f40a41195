package service

import "github.com/prometheus/client_golang/prometheus"

var (
	importRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "user_import_runs_total", Help: "CSV imports by final status"},
		[]string{"status"},
	)
	importRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "user_import_rows_total", Help: "CSV import data rows by outcome"},
		[]string{"outcome"},
	)
	importDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "user_import_duration_seconds",
		Help:    "Wall time of CSV imports",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
	})
)

func init() { prometheus.MustRegister(importRuns, importRows, importDuration) }
