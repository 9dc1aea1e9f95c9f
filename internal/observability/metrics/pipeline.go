package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/samakshmehra/document-processing-system/internal/core/domain"
)

const namespace = "docproc"

func newDocumentsRoutedCounter() *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "documents_processed_total",
			Help:      "Documents routed by detected format, intent and final step.",
		},
		[]string{"service", "entrypoint", "format", "intent", "final"},
	)
}

func observeOutcome(counter *prometheus.CounterVec, service, entrypoint string, outcome domain.RouteOutcome) {
	format := string(outcome.Format)
	if format == "" {
		format = string(domain.FormatUnknown)
	}
	intent := string(outcome.Intent)
	if intent == "" {
		intent = "none"
	}
	final := string(outcome.Final)
	if final == "" {
		final = "none"
	}
	counter.WithLabelValues(service, entrypoint, format, intent, final).Inc()
}
