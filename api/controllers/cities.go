package controllers

import (
	"net/http"

	"github.com/seemyown/StockController/api/responses"
	"github.com/seemyown/StockController/api/validators"
	"github.com/seemyown/StockController/internal/cities"
	pkgerrors "github.com/seemyown/StockController/pkg/errors"
	"github.com/seemyown/StockController/pkg/logger"
)

const maxSearchQueryLength = 100

// CityList lists cities; ?extend=true includes each city's stocks.
func CityList(svc cities.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "city service unavailable"))
			return
		}
		extend, err := validators.ParseQueryBool(r, "extend", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListCities(r.Context(), extend)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func CitySearch(svc cities.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "city service unavailable"))
			return
		}
		query := validators.SanitizeString(r.URL.Query().Get("query"), maxSearchQueryLength)
		list, err := svc.SearchCities(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
