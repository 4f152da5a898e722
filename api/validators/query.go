package validators

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	pkgerrors "github.com/seemyown/StockController/pkg/errors"
)

// ParseQueryBool reads a boolean query flag; absent means defaultVal.
func ParseQueryBool(r *http.Request, key string, defaultVal bool) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be a boolean").WithDetails(map[string]any{"field": key})
	}
	return value, nil
}

// ParsePathInt64 reads a positive integer route parameter.
func ParsePathInt64(r *http.Request, key string) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "path parameter must be a positive integer").WithDetails(map[string]any{"field": key})
	}
	return value, nil
}
