package attendance

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submissionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendance_submissions_total",
		Help: "Finalized attendance submissions.",
	})
	submissionConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendance_submission_conflicts_total",
		Help: "Submissions rejected because the period was already finalized.",
	})
	// Archive writes are best-effort; this counter is the visibility the
	// user-facing flow does not provide.
	archiveWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendance_archive_write_failures_total",
		Help: "Archive copies that failed after all retries.",
	})
	absenceAlertsQueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendance_absence_alerts_queued_total",
		Help: "Absence notifications handed to the queue.",
	})
)
