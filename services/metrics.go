package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "writing_challenges"

var (
	sweepRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "lifecycle",
		Name:      "sweeps_total",
		Help:      "Challenge sweeps by trigger source and outcome",
	}, []string{"source", "outcome"})

	challengesScored = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "scoring",
		Name:      "challenges_scored_total",
		Help:      "Challenges whose scoring claim succeeded",
	})

	pointsCredited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "scoring",
		Name:      "points_credited_total",
		Help:      "Points credited to challenge winners",
	})

	notificationsDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "notifications",
		Name:      "delivered_total",
		Help:      "Notifications stored per type",
	}, []string{"type"})

	notificationsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "notifications",
		Name:      "skipped_total",
		Help:      "Notifications not stored, by reason",
	}, []string{"reason"})

	publishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "notifications",
		Name:      "publish_failures_total",
		Help:      "Real-time publishes that failed after the notification was stored",
	})

	notificationsPurged = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "notifications",
		Name:      "purged_total",
		Help:      "Deleted notifications removed after the retention period",
	})
)
