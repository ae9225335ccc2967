package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "quiz"

// Submission triggers and outcomes used as label values.
const (
	TriggerManual = "manual"
	TriggerForced = "forced"

	OutcomeSubmitted = "submitted"
	OutcomeFailed    = "failed"
)

var (
	SessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_started_total",
		Help:      "Quiz sessions that entered the in-progress state.",
	})

	SessionsAbandoned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_abandoned_total",
		Help:      "Quiz sessions discarded without a successful submission.",
	})

	Submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "submissions_total",
		Help:      "Submission attempts by trigger and outcome.",
	}, []string{"trigger", "outcome"})

	SubmitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "submit_duration_seconds",
		Help:      "Latency of the submit call to the portal.",
		Buckets:   prometheus.DefBuckets,
	})

	IllegalIntents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "illegal_intents_total",
		Help:      "Intents rejected by the session state guard.",
	}, []string{"intent"})

	PortalSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "portal_submissions_total",
		Help:      "Submissions received by the dev portal by result.",
	}, []string{"result"})
)
