package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus Metrics Definition
var (
	recordsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "windower_records_total",
			Help: "Total number of raw records read from the input.",
		},
	)
	recordsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "windower_records_dropped_total",
			Help: "Total number of records dropped during normalization.",
		},
	)
	windowsEmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "windower_windows_emitted_total",
			Help: "Total number of windows with statistics written to an output.",
		},
	)
	lastWindowEnd = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "windower_last_window_end_seconds",
			Help: "End timestamp of the most recently emitted window.",
		},
	)
)
