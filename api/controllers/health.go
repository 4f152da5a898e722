package controllers

import (
	"context"
	"net/http"

	"github.com/seemyown/StockController/api/responses"
	pkgerrors "github.com/seemyown/StockController/pkg/errors"
	"github.com/seemyown/StockController/pkg/logger"
)

const envHeader = "X-StockController-Env"

// Pinger is any dependency the readiness probe can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(env string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the database and, when configured, redis. A nil pinger is skipped.
func HealthReady(env string, logg *logger.Logger, dbP Pinger, redisP Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, env)
		checks := map[string]string{}

		if dbP != nil {
			if err := dbP.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database not ready").WithDetails(map[string]string{"dependency": "database"}))
				return
			}
			checks["database"] = "ok"
		}
		if redisP != nil {
			if err := redisP.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis not ready").WithDetails(map[string]string{"dependency": "redis"}))
				return
			}
			checks["redis"] = "ok"
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
