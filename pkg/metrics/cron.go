package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "stockctl"

// CronJobMetrics tracks cron job runs by job name. A nil receiver records nothing.
type CronJobMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewCronJobMetrics registers the cron job metrics on the provided registerer.
func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return &CronJobMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "cron",
		Name:      "job_duration_seconds",
		Help:      "Duration of cron jobs in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"job"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cron",
		Name:      "job_success_total",
		Help:      "Successful cron job executions.",
	}, []string{"job"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cron",
		Name:      "job_failure_total",
		Help:      "Failed cron job executions.",
	}, []string{"job"})
	reg.MustRegister(duration, success, failure)
	return &CronJobMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
	}
}

// ObserveRun records one execution of job: its duration and whether it failed.
func (c *CronJobMetrics) ObserveRun(job string, duration time.Duration, err error) {
	if c == nil || c.duration == nil {
		return
	}
	label := normalizeLabel(job)
	c.duration.WithLabelValues(label).Observe(duration.Seconds())
	if err != nil {
		c.failure.WithLabelValues(label).Inc()
		return
	}
	c.success.WithLabelValues(label).Inc()
}

func normalizeLabel(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return "unknown"
	}
	return value
}
