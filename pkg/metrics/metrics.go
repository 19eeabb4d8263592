package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RidesRequestedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rides_requested_total",
		Help: "Total number of ride requests by outcome (matched, scheduled, unmatched)",
	}, []string{"outcome"})

	RideTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ride_transitions_total",
		Help: "Total number of ride state transitions",
	}, []string{"to"})

	DriverSearchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "driver_search_duration_seconds",
		Help:    "Duration of nearby driver searches",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
	})

	DriverCandidatesFound = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "driver_candidates_found",
		Help:    "Number of candidate drivers found per search",
		Buckets: []float64{0, 1, 2, 3, 5, 10, 20},
	})

	CandidateNotifyFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "candidate_notify_failures_total",
		Help: "Total number of failed candidate driver notifications during matching",
	})

	NotificationRelayFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_relay_failures_total",
		Help: "Total number of failed external notification deliveries",
	}, []string{"type"})

	PaymentSettlementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_settlements_total",
		Help: "Total number of payment settlements by status",
	}, []string{"status"})

	EventPublishFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "event_publish_failures_total",
		Help: "Total number of failed event bus publishes",
	}, []string{"subject"})
)
