package middleware

import (
	"net/http"
	"regexp"

	"github.com/google/uuid"

	"github.com/seemyown/StockController/api/responses"
	"github.com/seemyown/StockController/pkg/logger"
)

var upstreamRequestIDRe = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// RequestID reuses a well-formed upstream X-Request-Id or mints a uuid, and
// exposes it on the response, the request context and the logger context.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get(responses.RequestIDHeader)
			if !upstreamRequestIDRe.MatchString(reqID) {
				reqID = uuid.NewString()
			}

			w.Header().Set(responses.RequestIDHeader, reqID)

			ctx := WithRequestID(r.Context(), reqID)
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
