package cron

import (
	"context"
	"fmt"

	"github.com/seemyown/StockController/internal/capacity"
	"github.com/seemyown/StockController/pkg/logger"
)

const capacityReconcileJobName = "capacity-reconcile"

type capacityReconciler interface {
	Reconcile(ctx context.Context) (capacity.Report, error)
}

// CapacityReconcileJobParams wires the scheduled reconciliation.
type CapacityReconcileJobParams struct {
	Logger     *logger.Logger
	Reconciler capacityReconciler
}

// capacityReconcileJob rewrites stock capacity totals from the allocation rows.
type capacityReconcileJob struct {
	logg       *logger.Logger
	reconciler capacityReconciler
}

// NewCapacityReconcileJob builds the scheduled reconciliation job.
func NewCapacityReconcileJob(params CapacityReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reconciler == nil {
		return nil, fmt.Errorf("capacity reconciler required")
	}
	return &capacityReconcileJob{
		logg:       params.Logger,
		reconciler: params.Reconciler,
	}, nil
}

func (j *capacityReconcileJob) Name() string { return capacityReconcileJobName }

func (j *capacityReconcileJob) Run(ctx context.Context) error {
	report, err := j.reconciler.Reconcile(ctx)
	if err != nil {
		return err
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"stocks_visited": report.StocksVisited,
		"links_scanned":  report.LinksScanned,
	}), "capacity reconcile finished")
	return nil
}
