package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// InventoryMetrics tracks item imports, allocation writes that matched nothing,
// and capacity reconciliation passes. A nil receiver is a no-op.
type InventoryMetrics struct {
	imports          *prometheus.CounterVec
	noopWrites       *prometheus.CounterVec
	reconcileRuns    *prometheus.CounterVec
	reconcileTime    prometheus.Histogram
	reconciledStocks prometheus.Counter
}

// NewInventoryMetrics registers the inventory metrics on the provided registerer.
func NewInventoryMetrics(reg prometheus.Registerer) *InventoryMetrics {
	if reg == nil {
		return &InventoryMetrics{}
	}
	imports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "items",
		Name:      "imports_total",
		Help:      "Item import attempts by outcome.",
	}, []string{"status"})
	noopWrites := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "items",
		Name:      "noop_writes_total",
		Help:      "Allocation writes that matched no rows.",
	}, []string{"operation"})
	reconcileRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "capacity",
		Name:      "reconcile_runs_total",
		Help:      "Capacity reconciliation passes by result.",
	}, []string{"result"})
	reconcileTime := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "capacity",
		Name:      "reconcile_duration_seconds",
		Help:      "Duration of capacity reconciliation passes.",
		Buckets:   prometheus.DefBuckets,
	})
	reconciledStocks := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "capacity",
		Name:      "reconciled_stocks_total",
		Help:      "Stocks whose capacity records were rewritten.",
	})
	reg.MustRegister(imports, noopWrites, reconcileRuns, reconcileTime, reconciledStocks)
	return &InventoryMetrics{
		imports:          imports,
		noopWrites:       noopWrites,
		reconcileRuns:    reconcileRuns,
		reconcileTime:    reconcileTime,
		reconciledStocks: reconciledStocks,
	}
}

// IncImport counts one item import attempt with the given status.
func (m *InventoryMetrics) IncImport(status string) {
	if m == nil || m.imports == nil {
		return
	}
	m.imports.WithLabelValues(normalizeLabel(status)).Inc()
}

// IncNoopWrite counts an allocation update or delete that touched no rows.
func (m *InventoryMetrics) IncNoopWrite(operation string) {
	if m == nil || m.noopWrites == nil {
		return
	}
	m.noopWrites.WithLabelValues(normalizeLabel(operation)).Inc()
}

// ObserveReconcile records one reconciliation pass.
func (m *InventoryMetrics) ObserveReconcile(duration time.Duration, stocks int, err error) {
	if m == nil || m.reconcileRuns == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.reconcileRuns.WithLabelValues(result).Inc()
	m.reconcileTime.Observe(duration.Seconds())
	if err == nil && stocks > 0 {
		m.reconciledStocks.Add(float64(stocks))
	}
}
