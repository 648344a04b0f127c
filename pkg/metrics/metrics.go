// Copyright 2024-2026 Aiku AI

// Package metrics holds the relay's Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsTotal counts inbound events by event type and outcome kind.
	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slack_relay_events_total",
			Help: "Total number of inbound events by type and relay outcome",
		},
		[]string{"event_type", "outcome"},
	)

	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slack_relay_upstream_requests_total",
			Help: "Total number of outbound calls to Slack and the configuration store",
		},
		[]string{"call", "status"},
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "slack_relay_upstream_duration_seconds",
			Help:    "Duration of outbound calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"call"},
	)

	TelemetryReports = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slack_relay_telemetry_reports_total",
			Help: "Total number of error reports sent to the telemetry endpoint",
		},
		[]string{"status"},
	)
)

// ObserveUpstream records one outbound call. Use it with defer:
//
//	defer metrics.ObserveUpstream("files.info", time.Now(), &err)
func ObserveUpstream(call string, start time.Time, errp *error) {
	status := "ok"
	if errp != nil && *errp != nil {
		status = "error"
	}
	UpstreamRequests.WithLabelValues(call, status).Inc()
	UpstreamDuration.WithLabelValues(call).Observe(time.Since(start).Seconds())
}
