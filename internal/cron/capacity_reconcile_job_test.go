package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/seemyown/StockController/internal/capacity"
	"github.com/seemyown/StockController/pkg/logger"
)

type stubReconciler struct {
	report capacity.Report
	err    error
	calls  int
}

func (s *stubReconciler) Reconcile(context.Context) (capacity.Report, error) {
	s.calls++
	return s.report, s.err
}

func TestCapacityReconcileJobRunsReconciler(t *testing.T) {
	rec := &stubReconciler{report: capacity.Report{StocksVisited: 2, LinksScanned: 5}}
	job, err := NewCapacityReconcileJob(CapacityReconcileJobParams{Logger: logger.Nop(), Reconciler: rec})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if job.Name() != "capacity-reconcile" {
		t.Fatalf("unexpected job name %q", job.Name())
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if rec.calls != 1 {
		t.Fatalf("expected one reconcile call, got %d", rec.calls)
	}
}

func TestCapacityReconcileJobPropagatesFailure(t *testing.T) {
	boom := errors.New("db down")
	job, err := NewCapacityReconcileJob(CapacityReconcileJobParams{Logger: logger.Nop(), Reconciler: &stubReconciler{err: boom}})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if err := job.Run(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected reconcile error, got %v", err)
	}
}

func TestNewCapacityReconcileJobValidates(t *testing.T) {
	if _, err := NewCapacityReconcileJob(CapacityReconcileJobParams{Logger: logger.Nop()}); err == nil {
		t.Fatalf("expected error without reconciler")
	}
}
