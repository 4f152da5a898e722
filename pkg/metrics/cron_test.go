package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCronJobMetricsObserveRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)
	m.ObserveRun("capacity-reconcile", 250*time.Millisecond, nil)
	m.ObserveRun(" Capacity-Reconcile ", 100*time.Millisecond, errors.New("db down"))
	m.ObserveRun("", time.Millisecond, nil)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	cases := []struct {
		metric string
		job    string
		want   float64
	}{
		{"stockctl_cron_job_success_total", "capacity-reconcile", 1},
		{"stockctl_cron_job_failure_total", "capacity-reconcile", 1},
		{"stockctl_cron_job_success_total", "unknown", 1},
	}
	for _, tc := range cases {
		got, err := fetchCounterValue(mfs, tc.metric, "job", tc.job)
		if err != nil {
			t.Fatalf("fetch %s{job=%s}: %v", tc.metric, tc.job, err)
		}
		if got != tc.want {
			t.Fatalf("%s{job=%s} = %v, want %v", tc.metric, tc.job, got, tc.want)
		}
	}

	sum, err := fetchHistogramSum(mfs, "stockctl_cron_job_duration_seconds", "job", "capacity-reconcile")
	if err != nil {
		t.Fatalf("fetch duration: %v", err)
	}
	if sum < 0.34 {
		t.Fatalf("expected both runs in the duration sum, got %f", sum)
	}
}

func TestCronJobMetricsWithoutRegistererIsNoop(t *testing.T) {
	var nilMetrics *CronJobMetrics
	nilMetrics.ObserveRun("capacity-reconcile", time.Second, nil)
	NewCronJobMetrics(nil).ObserveRun("capacity-reconcile", time.Second, errors.New("boom"))
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
