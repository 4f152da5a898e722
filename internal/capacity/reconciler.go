package capacity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/seemyown/StockController/pkg/db"
	"github.com/seemyown/StockController/pkg/db/models"
	pkgerrors "github.com/seemyown/StockController/pkg/errors"
	"github.com/seemyown/StockController/pkg/logger"
	"github.com/seemyown/StockController/pkg/metrics"
	"github.com/seemyown/StockController/pkg/redis"
)

// Report summarizes one reconciliation pass.
type Report struct {
	StocksVisited int       `json:"stocks_visited"`
	LinksScanned  int       `json:"links_scanned"`
	FinishedAt    time.Time `json:"finished_at"`
}

// StockTotal is the summed allocation quantity of one stock.
type StockTotal struct {
	StockID int64
	Remains int
}

type reconcileRepository interface {
	ListLinkRemains(ctx context.Context, tx *gorm.DB) ([]models.ItemStockLink, error)
	ListCapacities(ctx context.Context, tx *gorm.DB, stockID int64) ([]models.StockCapacity, error)
	UpdateStockRemains(ctx context.Context, tx *gorm.DB, stockID int64, remains int, at time.Time) (int64, error)
	UpdateCapacityRow(ctx context.Context, tx *gorm.DB, id int64, remains int, freePercent float64, at time.Time) error
}

// MarkerStore keeps the last successful report where other processes can read it.
type MarkerStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	ReconcileMarkerKey() string
}

// ReconcilerParams wires the reconciler.
type ReconcilerParams struct {
	DB                 db.TxRunner
	Repo               reconcileRepository
	Logger             *logger.Logger
	Metrics            *metrics.InventoryMetrics
	Marker             MarkerStore
	RecomputeFreeSpace bool
	Now                func() time.Time
}

// Reconciler rewrites StockCapacity.remains from the allocation rows.
type Reconciler struct {
	db                 db.TxRunner
	repo               reconcileRepository
	logg               *logger.Logger
	metrics            *metrics.InventoryMetrics
	marker             MarkerStore
	recomputeFreeSpace bool
	now                func() time.Time
}

func NewReconciler(params ReconcilerParams) (*Reconciler, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("capacity repository required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Reconciler{
		db:                 params.DB,
		repo:               params.Repo,
		logg:               params.Logger,
		metrics:            params.Metrics,
		marker:             params.Marker,
		recomputeFreeSpace: params.RecomputeFreeSpace,
		now:                now,
	}, nil
}

// Reconcile sums allocation quantities per stock and writes each sum to the
// stock's capacity records. Stocks without allocation rows are not visited,
// so they keep whatever remains value they had.
func (r *Reconciler) Reconcile(ctx context.Context) (Report, error) {
	start := r.now()
	var report Report
	err := r.db.WithTx(ctx, func(tx *gorm.DB) error {
		links, err := r.repo.ListLinkRemains(ctx, tx)
		if err != nil {
			return fmt.Errorf("load allocations: %w", err)
		}
		report.LinksScanned = len(links)

		at := r.now()
		for _, total := range SumByStock(links) {
			if err := r.apply(ctx, tx, total, at); err != nil {
				return err
			}
			report.StocksVisited++
		}
		return nil
	})
	report.FinishedAt = r.now()
	r.metrics.ObserveReconcile(report.FinishedAt.Sub(start), report.StocksVisited, err)
	if err != nil {
		r.logg.Error(ctx, "capacity.reconcile_failed", err)
		return Report{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reconcile capacities")
	}

	r.logg.Info(r.logg.WithFields(ctx, map[string]any{
		"stocks_visited": report.StocksVisited,
		"links_scanned":  report.LinksScanned,
	}), "capacity.reconciled")
	r.storeMarker(ctx, report)
	return report, nil
}

func (r *Reconciler) apply(ctx context.Context, tx *gorm.DB, total StockTotal, at time.Time) error {
	if !r.recomputeFreeSpace {
		if _, err := r.repo.UpdateStockRemains(ctx, tx, total.StockID, total.Remains, at); err != nil {
			return fmt.Errorf("update stock %d remains: %w", total.StockID, err)
		}
		return nil
	}

	rows, err := r.repo.ListCapacities(ctx, tx, total.StockID)
	if err != nil {
		return fmt.Errorf("load stock %d capacity: %w", total.StockID, err)
	}
	for _, row := range rows {
		free := FreeSpace(total.Remains, row.Capacity)
		if err := r.repo.UpdateCapacityRow(ctx, tx, row.ID, total.Remains, free, at); err != nil {
			return fmt.Errorf("update stock %d capacity: %w", total.StockID, err)
		}
	}
	return nil
}

// LastReport returns the most recent successful pass recorded by any process.
func (r *Reconciler) LastReport(ctx context.Context) (*Report, error) {
	if r.marker == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "reconciliation history is not configured")
	}
	raw, err := r.marker.Get(ctx, r.marker.ReconcileMarkerKey())
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no reconciliation recorded yet")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis: read reconcile marker")
	}
	var report Report
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode reconcile marker")
	}
	return &report, nil
}

func (r *Reconciler) storeMarker(ctx context.Context, report Report) {
	if r.marker == nil {
		return
	}
	payload, err := json.Marshal(report)
	if err != nil {
		r.logg.Error(ctx, "capacity.marker_encode_failed", err)
		return
	}
	if err := r.marker.Set(ctx, r.marker.ReconcileMarkerKey(), string(payload), 0); err != nil {
		r.logg.Error(ctx, "capacity.marker_store_failed", err)
	}
}

// SumByStock groups allocation rows by stock, ordered by stock id.
// Stocks without rows do not appear.
func SumByStock(links []models.ItemStockLink) []StockTotal {
	sums := make(map[int64]int)
	for _, link := range links {
		sums[link.StockID] += link.Remains
	}
	totals := make([]StockTotal, 0, len(sums))
	for stockID, remains := range sums {
		totals = append(totals, StockTotal{StockID: stockID, Remains: remains})
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].StockID < totals[j].StockID })
	return totals
}

// FreeSpace is the free share of a stock in percent. A zero capacity has no
// free space and an overfilled stock floors at zero.
func FreeSpace(remains, capacity int) float64 {
	if capacity <= 0 {
		return 0
	}
	free := 100 * (1 - float64(remains)/float64(capacity))
	if free < 0 {
		return 0
	}
	return free
}
