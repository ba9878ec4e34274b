package orderbook

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/apexhq/shipdash-backend/internal/apex"
	"github.com/apexhq/shipdash-backend/pkg/cache"
	"github.com/apexhq/shipdash-backend/pkg/clock"
	pkgerrors "github.com/apexhq/shipdash-backend/pkg/errors"
	"github.com/apexhq/shipdash-backend/pkg/logger"
	"github.com/apexhq/shipdash-backend/pkg/metrics"
)

// Fetcher is the slice of the apex client the book depends on.
type Fetcher interface {
	FetchAll(ctx context.Context, w apex.Window, withItems bool) ([]apex.Order, error)
	FetchByIDs(ctx context.Context, ids []int64) ([]apex.Order, error)
}

// Book is the authoritative in-memory order collection: summaries define the
// visible id set, details are merged progressively on top. All derived reads
// recompute from current state.
type Book struct {
	fetcher Fetcher
	store   cache.Store
	logg    *logger.Logger
	met     *metrics.FetchMetrics
	clk     clock.Clock

	flight singleflight.Group

	mu            sync.RWMutex
	summaries     map[int64]apex.Order
	details       map[int64]apex.Order
	failedDetails map[int64]struct{}
	refreshing    bool
	lastError     error
	lastRefreshed time.Time
}

// Totals are the dashboard headline counters. Recomputed on every call so they
// can never diverge from the underlying collection.
type Totals struct {
	TotalOrders     int             `json:"total_orders"`
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
	ActiveOrders    int             `json:"active_orders"`
	CancelledOrders int             `json:"cancelled_orders"`
}

// DetailResult reports what a detail load actually achieved.
type DetailResult struct {
	Requested int `json:"requested"`
	Loaded    int `json:"loaded"`
	Failed    int `json:"failed"`
}

// Status is the presentation-layer view of the book's state.
type Status struct {
	Loading       bool       `json:"loading"`
	Error         string     `json:"error,omitempty"`
	LastRefreshed *time.Time `json:"last_refreshed,omitempty"`
	OrderCount    int        `json:"order_count"`
	DetailCount   int        `json:"detail_count"`
	FailedDetails []int64    `json:"failed_details,omitempty"`
}

// NewBook wires the order store with its required dependencies.
func NewBook(fetcher Fetcher, store cache.Store, logg *logger.Logger, met *metrics.FetchMetrics, clk clock.Clock) (*Book, error) {
	if fetcher == nil {
		return nil, errors.New("order fetcher required")
	}
	if store == nil {
		return nil, errors.New("response cache required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Book{
		fetcher:       fetcher,
		store:         store,
		logg:          logg,
		met:           met,
		clk:           clk,
		summaries:     make(map[int64]apex.Order),
		details:       make(map[int64]apex.Order),
		failedDetails: make(map[int64]struct{}),
	}, nil
}

// Refresh invalidates the response cache and replaces the summary set
// wholesale. Concurrent callers share a single in-flight sweep. A failed
// refresh leaves the previous summaries untouched and surfaces the error.
func (b *Book) Refresh(ctx context.Context) error {
	_, err, _ := b.flight.Do("refresh", func() (any, error) {
		b.setRefreshing(true)
		defer b.setRefreshing(false)

		if err := b.store.InvalidateAll(ctx); err != nil {
			b.logg.Warn(ctx, "cache invalidation failed before refresh")
		}

		orders, err := b.fetcher.FetchAll(ctx, apex.Window{}, false)
		if err != nil {
			b.met.IncRefresh("failure")
			b.mu.Lock()
			b.lastError = err
			b.mu.Unlock()
			return nil, err
		}

		summaries := make(map[int64]apex.Order, len(orders))
		for _, order := range orders {
			summaries[order.ID] = order
		}

		b.mu.Lock()
		b.summaries = summaries
		b.details = make(map[int64]apex.Order)
		b.failedDetails = make(map[int64]struct{})
		b.lastError = nil
		b.lastRefreshed = b.clk.Now()
		b.mu.Unlock()

		b.met.IncRefresh("success")
		b.logg.Info(b.logg.WithField(ctx, "orders", len(orders)), "order summaries refreshed")
		return nil, nil
	})
	return err
}

// LoadDetails enriches the given ids with item-level data. Ids outside the
// visible summary set and ids already loaded are skipped, so overlapping calls
// only fetch the net-new set and the failed set can only ever hold real
// orders. Batch failures are logged and recorded for retry, never raised:
// affected orders simply stay at summary fidelity.
func (b *Book) LoadDetails(ctx context.Context, ids []int64) DetailResult {
	missing := b.missingDetailIDs(ids)
	result := DetailResult{Requested: len(missing)}
	if len(missing) == 0 {
		return result
	}

	orders, err := b.fetcher.FetchByIDs(ctx, missing)
	if err != nil {
		b.logg.Warn(b.logg.WithField(ctx, "error", err.Error()), "detail enrichment degraded to partial result")
	}

	loaded := make(map[int64]struct{}, len(orders))
	b.mu.Lock()
	for _, order := range orders {
		// Last write wins per id; an interleaved refresh may clear this map
		// again, which is the accepted resolution.
		b.details[order.ID] = order
		loaded[order.ID] = struct{}{}
		delete(b.failedDetails, order.ID)
	}
	for _, id := range missing {
		if _, ok := loaded[id]; !ok {
			b.failedDetails[id] = struct{}{}
		}
	}
	b.mu.Unlock()

	result.Loaded = len(loaded)
	result.Failed = result.Requested - result.Loaded
	return result
}

// RetryFailed re-attempts every id whose detail batch previously failed.
func (b *Book) RetryFailed(ctx context.Context) DetailResult {
	b.mu.RLock()
	ids := make([]int64, 0, len(b.failedDetails))
	for id := range b.failedDetails {
		ids = append(ids, id)
	}
	b.mu.RUnlock()

	if len(ids) == 0 {
		return DetailResult{}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return b.LoadDetails(ctx, ids)
}

// Orders returns the merged view: for every visible id the detail version when
// present, otherwise the summary. Ids known only from detail fetches are never
// exposed. Sorted by id for deterministic output.
func (b *Book) Orders() []apex.Order {
	b.mu.RLock()
	defer b.mu.RUnlock()

	merged := make([]apex.Order, 0, len(b.summaries))
	for id, summary := range b.summaries {
		if detail, ok := b.details[id]; ok {
			merged = append(merged, detail)
			continue
		}
		merged = append(merged, summary)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].ID < merged[j].ID })
	return merged
}

// GetOrder returns the merged order for id, loading detail on demand when the
// order is still summary-only.
func (b *Book) GetOrder(ctx context.Context, id int64) (apex.Order, error) {
	b.mu.RLock()
	summary, visible := b.summaries[id]
	detail, hasDetail := b.details[id]
	b.mu.RUnlock()

	if !visible {
		return apex.Order{}, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if hasDetail {
		return detail, nil
	}

	b.LoadDetails(ctx, []int64{id})

	b.mu.RLock()
	detail, hasDetail = b.details[id]
	b.mu.RUnlock()
	if hasDetail {
		return detail, nil
	}
	// Best-effort enrichment: fall back to the summary fidelity we hold.
	return summary, nil
}

// Totals recomputes the headline counters over the merged view.
func (b *Book) Totals() Totals {
	b.mu.RLock()
	defer b.mu.RUnlock()

	totals := Totals{TotalOrders: len(b.summaries), TotalRevenue: decimal.Zero}
	for id, summary := range b.summaries {
		order := summary
		if detail, ok := b.details[id]; ok {
			order = detail
		}
		totals.TotalRevenue = totals.TotalRevenue.Add(parseMoney(order.Total))
		if order.Cancelled {
			totals.CancelledOrders++
		} else {
			totals.ActiveOrders++
		}
	}
	return totals
}

// Status reports loading/error state for the presentation layer.
func (b *Book) Status() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()

	status := Status{
		Loading:     b.refreshing,
		OrderCount:  len(b.summaries),
		DetailCount: len(b.details),
	}
	if b.lastError != nil {
		status.Error = b.lastError.Error()
	}
	if !b.lastRefreshed.IsZero() {
		refreshed := b.lastRefreshed
		status.LastRefreshed = &refreshed
	}
	if len(b.failedDetails) > 0 {
		ids := make([]int64, 0, len(b.failedDetails))
		for id := range b.failedDetails {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		status.FailedDetails = ids
	}
	return status
}

// CacheStats exposes response-cache introspection for diagnostics.
func (b *Book) CacheStats(ctx context.Context) (cache.Stats, error) {
	return b.store.Stats(ctx)
}

// InvalidateCache drops every cached upstream payload without touching the
// in-memory collection.
func (b *Book) InvalidateCache(ctx context.Context) error {
	return b.store.InvalidateAll(ctx)
}

func (b *Book) missingDetailIDs(ids []int64) []int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	missing := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, visible := b.summaries[id]; !visible {
			continue
		}
		if _, ok := b.details[id]; ok {
			continue
		}
		missing = append(missing, id)
	}
	return missing
}

func (b *Book) setRefreshing(value bool) {
	b.mu.Lock()
	b.refreshing = value
	b.mu.Unlock()
}

func parseMoney(value string) decimal.Decimal {
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero
	}
	return parsed
}
