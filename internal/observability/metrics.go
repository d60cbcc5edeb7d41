package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activity_registry",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests handled, labeled by route, method, and status code.",
	}, []string{"route", "method", "status"})

	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "activity_registry",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Time spent serving HTTP requests.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
	}, []string{"route"})

	rosterChanges = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activity_registry",
		Subsystem: "roster",
		Name:      "changes_total",
		Help:      "Successful sign-ups and unregistrations, labeled by activity and change type.",
	}, []string{"activity", "change"})

	rosterParticipants = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "activity_registry",
		Subsystem: "roster",
		Name:      "participants",
		Help:      "Current number of participants per activity.",
	}, []string{"activity"})
)

func init() {
	prometheus.MustRegister(requestCounter, requestDuration, rosterChanges, rosterParticipants)
}

// ObserveRequest records one served HTTP request.
func ObserveRequest(route, method string, status int, elapsed time.Duration) {
	requestCounter.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	requestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// RecordRosterChange counts a roster change and updates the size gauge.
func RecordRosterChange(activity, change string, participants int) {
	rosterChanges.WithLabelValues(activity, change).Inc()
	rosterParticipants.WithLabelValues(activity).Set(float64(participants))
}

// SetRosterSize seeds the size gauge, used at startup.
func SetRosterSize(activity string, participants int) {
	rosterParticipants.WithLabelValues(activity).Set(float64(participants))
}
