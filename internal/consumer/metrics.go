package consumer

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	processedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activity_registry",
		Subsystem: "consumer",
		Name:      "messages_processed_total",
		Help:      "Number of roster events processed by the audit consumer.",
	}, []string{"event_type"})

	rejectedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "activity_registry",
		Subsystem: "consumer",
		Name:      "messages_rejected_total",
		Help:      "Number of roster messages that could not be decoded.",
	})

	rosterGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "activity_registry",
		Subsystem: "consumer",
		Name:      "roster_participants",
		Help:      "Participant count per activity as last reported by roster events.",
	}, []string{"activity"})
)

func init() {
	prometheus.MustRegister(processedCounter, rejectedCounter, rosterGauge)
}

// RecordProcessed updates counters for successfully handled messages.
func RecordProcessed(msg Message) {
	processedCounter.WithLabelValues(msg.Headers["event_type"]).Inc()
}
