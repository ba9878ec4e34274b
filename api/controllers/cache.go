package controllers

import (
	"net/http"

	"github.com/apexhq/shipdash-backend/api/responses"
	"github.com/apexhq/shipdash-backend/internal/orderbook"
	pkgerrors "github.com/apexhq/shipdash-backend/pkg/errors"
	"github.com/apexhq/shipdash-backend/pkg/logger"
)

// CacheStats exposes response-cache size and keys for diagnostics.
func CacheStats(book *orderbook.Book, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := book.CacheStats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cache stats unavailable"))
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

// InvalidateCache drops every cached upstream payload.
func InvalidateCache(book *orderbook.Book, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := book.InvalidateCache(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cache invalidation failed"))
			return
		}
		responses.WriteSuccess(w, map[string]bool{"invalidated": true})
	}
}
