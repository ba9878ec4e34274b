package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/apexhq/shipdash-backend/api/responses"
	"github.com/apexhq/shipdash-backend/api/validators"
	"github.com/apexhq/shipdash-backend/internal/apex"
	"github.com/apexhq/shipdash-backend/internal/orderbook"
	pkgerrors "github.com/apexhq/shipdash-backend/pkg/errors"
	"github.com/apexhq/shipdash-backend/pkg/logger"
)

// ListOrders returns the merged order view, optionally filtered by status name
// or cancellation flag.
func ListOrders(book *orderbook.Book, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cancelled, cancelledSet, err := validators.ParseQueryBool(r, "cancelled")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status := strings.TrimSpace(r.URL.Query().Get("status"))

		orders := book.Orders()
		filtered := make([]apex.Order, 0, len(orders))
		for _, order := range orders {
			if cancelledSet && order.Cancelled != cancelled {
				continue
			}
			if status != "" && !strings.EqualFold(order.OrderStatus.Name, status) {
				continue
			}
			filtered = append(filtered, order)
		}

		responses.WriteSuccess(w, map[string]any{
			"orders": filtered,
			"count":  len(filtered),
			"state":  book.Status(),
		})
	}
}

// GetOrder returns one merged order, loading detail on demand.
func GetOrder(book *orderbook.Book, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "orderID")
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order id must be a positive integer"))
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithOrderID(ctx, id)
		}
		order, getErr := book.GetOrder(ctx, id)
		if getErr != nil {
			responses.WriteError(ctx, logg, w, getErr)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// RefreshOrders re-sweeps the upstream and replaces the summary set.
func RefreshOrders(book *orderbook.Book, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := book.Refresh(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, book.Status())
	}
}

type loadDetailsRequest struct {
	IDs []int64 `json:"ids" validate:"required,min=1,dive,gt=0"`
}

// LoadOrderDetails triggers detail enrichment for the requested ids. The load
// is best effort, so the response reports counts instead of failing.
func LoadOrderDetails(book *orderbook.Book, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload loadDetailsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result := book.LoadDetails(r.Context(), payload.IDs)
		responses.WriteSuccessStatus(w, http.StatusAccepted, result)
	}
}

// RetryOrderDetails re-attempts every previously failed detail id.
func RetryOrderDetails(book *orderbook.Book, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result := book.RetryFailed(r.Context())
		responses.WriteSuccessStatus(w, http.StatusAccepted, result)
	}
}

// OrderTotals returns the derived headline counters.
func OrderTotals(book *orderbook.Book, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, book.Totals())
	}
}
