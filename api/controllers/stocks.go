package controllers

import (
	"net/http"
	"strings"

	"github.com/seemyown/StockController/api/responses"
	"github.com/seemyown/StockController/api/validators"
	"github.com/seemyown/StockController/internal/stocks"
	pkgerrors "github.com/seemyown/StockController/pkg/errors"
	"github.com/seemyown/StockController/pkg/logger"
	"github.com/seemyown/StockController/pkg/types"
)

type stockCreateRequest struct {
	Name       string `json:"name" validate:"required"`
	CityID     int64  `json:"city_id"`
	City       string `json:"city"`
	Capability *int   `json:"capability" validate:"required,gte=0"`
}

func (r stockCreateRequest) toInput() (stocks.CreateStockInput, error) {
	if r.CityID == 0 && strings.TrimSpace(r.City) == "" {
		return stocks.CreateStockInput{}, pkgerrors.New(pkgerrors.CodeValidation, "city or city_id is required")
	}
	return stocks.CreateStockInput{
		Name:     strings.TrimSpace(r.Name),
		CityID:   r.CityID,
		CityName: strings.TrimSpace(r.City),
		Capacity: *r.Capability,
	}, nil
}

// StockCreate registers a warehouse and returns its generated id.
func StockCreate(svc stocks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock service unavailable"))
			return
		}
		var payload stockCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := svc.CreateStock(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]int64{"id": id})
	}
}

func StockList(svc stocks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock service unavailable"))
			return
		}
		list, err := svc.ListStocks(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, types.NewListPayload(list))
	}
}

func StockDetail(svc stocks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock service unavailable"))
			return
		}
		id, err := validators.ParsePathInt64(r, "stockId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		detail, err := svc.GetStock(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// StockDelete is accepted even when the stock does not exist.
func StockDelete(svc stocks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock service unavailable"))
			return
		}
		id, err := validators.ParsePathInt64(r, "stockId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteStock(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]int64{"id": id})
	}
}
