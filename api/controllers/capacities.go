package controllers

import (
	"context"
	"net/http"

	"github.com/seemyown/StockController/api/responses"
	"github.com/seemyown/StockController/internal/capacity"
	pkgerrors "github.com/seemyown/StockController/pkg/errors"
	"github.com/seemyown/StockController/pkg/logger"
)

// CapacityService triggers and reports reconciliation passes.
type CapacityService interface {
	Reconcile(ctx context.Context) (capacity.Report, error)
	LastReport(ctx context.Context) (*capacity.Report, error)
}

// CapacityReconcile runs a manual reconciliation pass.
func CapacityReconcile(svc CapacityService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "capacity service unavailable"))
			return
		}
		report, err := svc.Reconcile(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

// CapacityLastReport returns the most recent pass recorded by the API or the cron worker.
func CapacityLastReport(svc CapacityService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "capacity service unavailable"))
			return
		}
		report, err := svc.LastReport(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}
