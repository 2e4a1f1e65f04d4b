package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Send-loop metrics for Prometheus monitoring.
var (
	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outreach_emails_sent_total",
			Help: "Total number of emails delivered successfully",
		},
		[]string{"host"},
	)

	EmailsFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outreach_emails_failed_total",
			Help: "Total number of email delivery failures",
		},
		[]string{"host"},
	)

	SendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "outreach_send_duration_seconds",
			Help:    "Duration of individual SMTP delivery attempts",
			Buckets: prometheus.DefBuckets,
		},
	)

	RunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "outreach_runs_total",
			Help: "Total number of send runs started",
		},
	)

	ContactsLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "outreach_contacts_loaded",
			Help: "Number of contacts in the current session",
		},
	)
)
