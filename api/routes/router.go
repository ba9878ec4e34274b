package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/apexhq/shipdash-backend/api/controllers"
	"github.com/apexhq/shipdash-backend/api/middleware"
	"github.com/apexhq/shipdash-backend/internal/orderbook"
	"github.com/apexhq/shipdash-backend/pkg/clock"
	"github.com/apexhq/shipdash-backend/pkg/config"
	"github.com/apexhq/shipdash-backend/pkg/logger"
	"github.com/apexhq/shipdash-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	book *orderbook.Book,
	redisClient redis.Pinger,
	registry *prometheus.Registry,
	clk clock.Clock,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, redisClient))
	})

	if registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Get("/", controllers.ListOrders(book, logg))
		r.Post("/refresh", controllers.RefreshOrders(book, logg))
		r.Post("/details", controllers.LoadOrderDetails(book, logg))
		r.Post("/details/retry", controllers.RetryOrderDetails(book, logg))
		r.Get("/totals", controllers.OrderTotals(book, logg))
		r.Get("/{orderID}", controllers.GetOrder(book, logg))
	})

	r.Route("/api/v1/reports", func(r chi.Router) {
		r.Get("/revenue", controllers.RevenueReport(book, logg))
		r.Get("/statuses", controllers.StatusReport(book, logg))
		r.Get("/customers", controllers.CustomersReport(book, cfg.Reports, logg))
		r.Get("/products", controllers.ProductsReport(book, cfg.Reports, logg))
		r.Get("/categories", controllers.CategoriesReport(book, logg))
		r.Get("/allocation", controllers.AllocationReport(book, logg))
		r.Get("/recent", controllers.RecentReport(book, cfg.Reports, clk, logg))
		r.Get("/overview", controllers.OverviewReport(book, logg))
	})

	r.Route("/api/v1/cache", func(r chi.Router) {
		r.Get("/stats", controllers.CacheStats(book, logg))
		r.Delete("/", controllers.InvalidateCache(book, logg))
	})

	return r
}
