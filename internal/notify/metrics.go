package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AlertsSent counts alerts the webhook acknowledged.
	AlertsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notify_absence_alerts_sent_total",
		Help: "Absence alerts acknowledged by the webhook.",
	})
	// AlertsFailed counts alerts dropped after all delivery attempts.
	AlertsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notify_absence_alerts_failed_total",
		Help: "Absence alerts dropped after exhausting retries.",
	})
)
