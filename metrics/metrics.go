// Package metrics holds the prometheus collectors for the frame.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Display metrics
var (
	// RendersTotal counts render attempts by trigger and outcome
	RendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "einkframe_renders_total",
			Help: "Display renders by trigger and status",
		},
		[]string{"trigger", "status"},
	)

	// RenderDuration tracks how long the sink holds the display
	RenderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "einkframe_render_duration_seconds",
			Help:    "Time spent inside the display sink",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 20, 40, 80},
		},
	)

	// LeaseWait tracks how long a render queued for the display lease
	LeaseWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "einkframe_lease_wait_seconds",
			Help:    "Time spent waiting for the display lease",
			Buckets: []float64{0, .1, .5, 1, 5, 10, 30, 60, 120},
		},
	)

	// LeaseQueueDepth is the number of renders waiting for the display
	LeaseQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "einkframe_lease_queue_depth",
			Help: "Renders currently waiting for the display lease",
		},
	)
)

// Slideshow metrics
var (
	// TicksTotal counts automatic cycle ticks by outcome
	TicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "einkframe_ticks_total",
			Help: "Automatic slideshow ticks by status",
		},
		[]string{"status"},
	)

	// SlideshowRunning is 1 while the cycle job is armed
	SlideshowRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "einkframe_slideshow_running",
			Help: "Whether the automatic cycle job is armed (0/1)",
		},
	)

	// DispatchDropped counts triggers dropped because the dispatch queue was full
	DispatchDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "einkframe_dispatch_dropped_total",
			Help: "Asynchronous triggers dropped on a full queue",
		},
		[]string{"task"},
	)

	// ButtonPresses counts accepted and debounced button presses
	ButtonPresses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "einkframe_button_presses_total",
			Help: "GPIO button presses by button and outcome",
		},
		[]string{"button", "status"},
	)
)

// Sync metrics
var (
	// SyncedFiles counts files added or removed by the remote sync
	SyncedFiles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "einkframe_synced_files_total",
			Help: "Files downloaded or deleted by the remote sync",
		},
		[]string{"action"},
	)
)

// StatusLabel maps an error to the status label used by the counters above.
func StatusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
