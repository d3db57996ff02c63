package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// reminder checks run, per driver
	ChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasker_reminder_checks_total",
			Help: "Total number of reminder evaluation passes",
		},
		[]string{"driver"}, // driver: foreground, background
	)

	CheckDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tasker_reminder_check_duration_seconds",
			Help:    "Reminder evaluation pass duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
		},
		[]string{"driver"},
	)

	RemindersFired = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasker_reminders_fired_total",
			Help: "Total number of reminders shown",
		},
		[]string{"driver", "kind"}, // driver: foreground, background, native
	)

	FetchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasker_task_fetch_failures_total",
			Help: "Task list fetches that failed or timed out",
		},
		[]string{"driver", "reason"},
	)

	AlarmsScheduled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasker_alarms_scheduled_total",
			Help: "Native one-shot alarms handed to the alarm service",
		},
		[]string{"kind"},
	)

	AlarmsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tasker_alarms_dropped_total",
			Help: "Fired alarms dropped because the consumer was not ready",
		},
	)
)

func RecordCheck(driver string, duration time.Duration) {
	ChecksTotal.WithLabelValues(driver).Inc()
	CheckDuration.WithLabelValues(driver).Observe(duration.Seconds())
}

func RecordReminderFired(driver, kind string) {
	RemindersFired.WithLabelValues(driver, kind).Inc()
}

func RecordFetchFailure(driver, reason string) {
	FetchFailures.WithLabelValues(driver, reason).Inc()
}

func RecordAlarmScheduled(kind string) {
	AlarmsScheduled.WithLabelValues(kind).Inc()
}

func RecordAlarmDropped() {
	AlarmsDropped.Inc()
}
