package controllers

import (
	"net/http"

	"github.com/seemyown/StockController/api/responses"
	"github.com/seemyown/StockController/api/validators"
	"github.com/seemyown/StockController/internal/items"
	pkgerrors "github.com/seemyown/StockController/pkg/errors"
	"github.com/seemyown/StockController/pkg/logger"
	"github.com/seemyown/StockController/pkg/types"
)

type itemCreateRequest struct {
	Items []items.CreateItemInput `json:"items" validate:"required,min=1,dive"`
}

type allocationUpdateRequest struct {
	Items []items.AllocationUpdate `json:"items" validate:"required,min=1,dive"`
}

type allocationRefRequest struct {
	Items []items.AllocationRef `json:"items" validate:"required,min=1,dive"`
}

// ItemCreate imports a batch of items and reports a per-item outcome.
func ItemCreate(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "item service unavailable"))
			return
		}
		var payload itemCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		results, err := svc.CreateManyItems(r.Context(), payload.Items)
		if err != nil && results == nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err != nil && logg != nil {
			// the batch is committed; only the capacity pass after it failed
			logg.Error(r.Context(), "items.import_reconcile_failed", err)
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, results)
	}
}

func ItemList(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "item service unavailable"))
			return
		}
		list, err := svc.GetItems(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, types.NewListPayload(list))
	}
}

func ItemDetail(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "item service unavailable"))
			return
		}
		id, err := validators.ParsePathInt64(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.GetItem(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

// ItemUpdate sets per-stock quantities; entries without a matching allocation are ignored.
func ItemUpdate(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "item service unavailable"))
			return
		}
		var payload allocationUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.UpdateItems(r.Context(), payload.Items); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// ItemDelete removes each named item from every stock.
func ItemDelete(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "item service unavailable"))
			return
		}
		var payload allocationRefRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteItems(r.Context(), payload.Items); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// ItemRemoveAllocations drops only the named allocations and keeps the items.
func ItemRemoveAllocations(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "item service unavailable"))
			return
		}
		var payload allocationRefRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.RemoveAllocations(r.Context(), payload.Items); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
