package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "labdeploy"

// Submission outcomes.
const (
	OutcomeAccepted     = "accepted"
	OutcomeInvalid      = "invalid"
	OutcomeStorageError = "storage_error"
	OutcomePublishError = "publish_error"
)

var (
	DeploymentsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deployments_submitted_total",
			Help:      "Deployment requests by outcome",
		},
		[]string{"outcome"},
	)

	PublishDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "deployment_publish_duration_seconds",
			Help:      "Time spent publishing deployment requests to the event bus",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"result"},
	)

	// CompensationFailures counts records that may have been left QUEUED
	// because the FAILED_PUBLISH write itself failed.
	CompensationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deployment_compensation_failures_total",
			Help:      "Failed FAILED_PUBLISH status writes after a publish error",
		},
	)
)
