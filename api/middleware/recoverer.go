package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/seemyown/StockController/api/responses"
	pkgerrors "github.com/seemyown/StockController/pkg/errors"
	"github.com/seemyown/StockController/pkg/logger"
)

// Recoverer turns a handler panic into a 500 envelope and logs the stack.
// http.ErrAbortHandler is re-raised so net/http can abort the connection.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if recErr, ok := rec.(error); ok && errors.Is(recErr, http.ErrAbortHandler) {
					panic(rec)
				}

				err := fmt.Errorf("panic: %v", rec)
				ctx := r.Context()
				if logg != nil {
					ctx = logg.WithFields(ctx, map[string]any{
						"method": r.Method,
						"path":   r.URL.Path,
						"stack":  string(debug.Stack()),
					})
					logg.Error(ctx, "http.panic_recovered", err)
				}
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected server error"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
