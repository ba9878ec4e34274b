package controllers

import (
	"net/http"
	"time"

	"github.com/apexhq/shipdash-backend/api/responses"
	"github.com/apexhq/shipdash-backend/api/validators"
	"github.com/apexhq/shipdash-backend/internal/orderbook"
	"github.com/apexhq/shipdash-backend/internal/reports"
	"github.com/apexhq/shipdash-backend/pkg/clock"
	"github.com/apexhq/shipdash-backend/pkg/config"
	"github.com/apexhq/shipdash-backend/pkg/logger"
)

const (
	maxTopN       = 100
	maxWindowDays = 365
)

// RevenueReport returns monthly revenue buckets.
func RevenueReport(book *orderbook.Book, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, reports.RevenueByMonth(book.Orders()))
	}
}

// StatusReport returns the status distribution.
func StatusReport(book *orderbook.Book, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, reports.StatusDistribution(book.Orders()))
	}
}

// CustomersReport returns the top customers by revenue.
func CustomersReport(book *orderbook.Book, cfg config.ReportsConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", cfg.TopCustomers, 1, maxTopN)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, reports.TopCustomers(book.Orders(), limit))
	}
}

// ProductsReport returns the top products by revenue.
func ProductsReport(book *orderbook.Book, cfg config.ReportsConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", cfg.TopProducts, 1, maxTopN)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, reports.TopProducts(book.Orders(), limit))
	}
}

// CategoriesReport returns per-category revenue and quantity.
func CategoriesReport(book *orderbook.Book, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, reports.CategoryPerformance(book.Orders()))
	}
}

// AllocationReport returns the product or store allocation cross-tab.
func AllocationReport(book *orderbook.Book, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := validators.ParseQueryEnum(r, "view", "product", []string{"product", "store"})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if view == "store" {
			responses.WriteSuccess(w, reports.StoreAllocation(book.Orders()))
			return
		}

		sortBy, err := validators.ParseQueryEnum(r, "sort", string(reports.SortByProduct), []string{
			string(reports.SortByProduct),
			string(reports.SortByValue),
			string(reports.SortByQuantity),
			string(reports.SortByStores),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, reports.ProductAllocation(book.Orders(), reports.AllocationSort(sortBy)))
	}
}

// RecentReport returns orders updated within the trailing window.
func RecentReport(book *orderbook.Book, cfg config.ReportsConfig, clk clock.Clock, logg *logger.Logger) http.HandlerFunc {
	if clk == nil {
		clk = clock.New()
	}
	defaultDays := int(cfg.RecentWindow / (24 * time.Hour))
	if defaultDays <= 0 {
		defaultDays = 7
	}
	return func(w http.ResponseWriter, r *http.Request) {
		days, err := validators.ParseQueryInt(r, "window_days", defaultDays, 1, maxWindowDays)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", cfg.RecentLimit, 1, maxTopN)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		window := time.Duration(days) * 24 * time.Hour
		responses.WriteSuccess(w, reports.RecentlyUpdated(book.Orders(), clk.Now(), window, limit))
	}
}

// OverviewReport returns the headline metric block.
func OverviewReport(book *orderbook.Book, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, reports.Overview(book.Orders()))
	}
}
