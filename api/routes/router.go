package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/seemyown/StockController/api/controllers"
	"github.com/seemyown/StockController/api/middleware"
	"github.com/seemyown/StockController/internal/cities"
	"github.com/seemyown/StockController/internal/items"
	"github.com/seemyown/StockController/internal/stocks"
	"github.com/seemyown/StockController/pkg/config"
	"github.com/seemyown/StockController/pkg/logger"
)

// NewRouter mounts the health probes, the metrics handler and the inventory API.
// redisP and metricsHandler may be nil when redis or metrics are not configured.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisP controllers.Pinger,
	metricsHandler http.Handler,
	cityService cities.Service,
	stockService stocks.Service,
	itemService items.Service,
	capacityService controllers.CapacityService,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg.App.Env))
		r.Get("/ready", controllers.HealthReady(cfg.App.Env, logg, dbP, redisP))
	})

	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cities", func(r chi.Router) {
			r.Get("/", controllers.CityList(cityService, logg))
			r.Get("/search", controllers.CitySearch(cityService, logg))
		})

		r.Route("/stocks", func(r chi.Router) {
			r.Get("/", controllers.StockList(stockService, logg))
			r.Post("/", controllers.StockCreate(stockService, logg))
			r.Get("/{stockId}", controllers.StockDetail(stockService, logg))
			r.Delete("/{stockId}", controllers.StockDelete(stockService, logg))
		})

		r.Route("/items", func(r chi.Router) {
			r.Get("/", controllers.ItemList(itemService, logg))
			r.Post("/", controllers.ItemCreate(itemService, logg))
			r.Patch("/", controllers.ItemUpdate(itemService, logg))
			r.Delete("/", controllers.ItemDelete(itemService, logg))
			r.Delete("/allocations", controllers.ItemRemoveAllocations(itemService, logg))
			r.Get("/{itemId}", controllers.ItemDetail(itemService, logg))
		})

		r.Route("/capacities", func(r chi.Router) {
			r.Post("/reconcile", controllers.CapacityReconcile(capacityService, logg))
			r.Get("/last", controllers.CapacityLastReport(capacityService, logg))
		})
	})

	return r
}
