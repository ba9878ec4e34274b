package apex

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/apexhq/shipdash-backend/pkg/cache"
	"github.com/apexhq/shipdash-backend/pkg/clock"
	"github.com/apexhq/shipdash-backend/pkg/config"
	pkgerrors "github.com/apexhq/shipdash-backend/pkg/errors"
	"github.com/apexhq/shipdash-backend/pkg/logger"
	"github.com/apexhq/shipdash-backend/pkg/metrics"
)

const (
	ordersEndpoint = "shipping-orders"

	// epochFrom matches the upstream's earliest meaningful updated_at filter.
	epochFrom = "1970-01-01T00:00:00Z"

	batchConcurrency = 4
)

var (
	errTokenRequired   = errors.New("apex bearer token is required")
	errBaseURLRequired = errors.New("apex base url is required")
	errLoggerRequired  = errors.New("apex logger is required")
	errCacheRequired   = errors.New("apex response cache is required")
)

// Window bounds a sweep by updated_at. Both ends are inclusive upstream.
type Window struct {
	From time.Time
	To   time.Time
}

// PageQuery describes one summary page request.
type PageQuery struct {
	Window    Window
	WithItems bool
	PerPage   int
	Page      int
}

// Page is one fetched page plus its pagination metadata.
type Page struct {
	Orders []Order
	Meta   Meta
}

// Client talks to the upstream shipping-order API through a read-through
// response cache. It never retries; callers decide what a failure means.
type Client struct {
	http      *resty.Client
	store     cache.Store
	logg      *logger.Logger
	met       *metrics.FetchMetrics
	clk       clock.Clock
	perPage   int
	maxPage   int
	batchSize int

	summaryTimeout time.Duration
	detailTimeout  time.Duration
	failFast       bool

	summaryTTL time.Duration
	detailTTL  time.Duration
}

// NewClient validates the upstream configuration and wires the HTTP client.
func NewClient(cfg config.ApexConfig, cacheCfg config.CacheConfig, store cache.Store, logg *logger.Logger, met *metrics.FetchMetrics, clk clock.Clock) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	if store == nil {
		return nil, errCacheRequired
	}
	if clk == nil {
		clk = clock.New()
	}
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errTokenRequired
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, errBaseURLRequired
	}

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetAuthScheme("Bearer").
		SetAuthToken(token)

	perPage := cfg.PerPage
	if perPage <= 0 {
		perPage = 500
	}
	maxPage := cfg.MaxPerPage
	if maxPage <= 0 {
		maxPage = perPage
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}

	return &Client{
		http:           httpClient,
		store:          store,
		logg:           logg,
		met:            met,
		clk:            clk,
		perPage:        perPage,
		maxPage:        maxPage,
		batchSize:      batchSize,
		summaryTimeout: cfg.SummaryTimeout,
		detailTimeout:  cfg.DetailTimeout,
		failFast:       cfg.FailFast,
		summaryTTL:     cacheCfg.TTL,
		detailTTL:      cacheCfg.DetailTTL(),
	}, nil
}

// DefaultPerPage exposes the configured page size for callers building sweeps.
func (c *Client) DefaultPerPage() int { return c.perPage }

// FetchPage retrieves a single summary page.
func (c *Client) FetchPage(ctx context.Context, q PageQuery) (*Page, error) {
	if q.Page < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "page must be 1 or greater")
	}
	perPage := q.PerPage
	if perPage <= 0 {
		perPage = c.perPage
	}
	if perPage > c.maxPage {
		perPage = c.maxPage
	}

	params := url.Values{}
	params.Set("updated_at_from", formatWindowFrom(q.Window.From))
	params.Set("updated_at_to", c.formatWindowTo(q.Window.To))
	params.Set("with_items", strconv.FormatBool(q.WithItems))
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("page", strconv.Itoa(q.Page))

	ttl := c.summaryTTL
	if q.WithItems {
		ttl = c.detailTTL
	}

	body, err := c.fetchJSON(ctx, params, c.summaryTimeout, ttl)
	if err != nil {
		return nil, err
	}

	var resp ListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstreamParse, err, "decode order page")
	}
	return &Page{Orders: resp.Orders, Meta: resp.Meta}, nil
}

// FetchAll walks every page of the window. Under the default best-effort
// policy a page failure stops the sweep and returns whatever accumulated so
// far; partial results can silently undercount, which is why fail-fast exists
// as a configuration switch.
func (c *Client) FetchAll(ctx context.Context, w Window, withItems bool) ([]Order, error) {
	var all []Order

	// The page counter is ours, never the upstream echo: an upstream that
	// reports a stale current_page must not be able to stall the sweep.
	for page := 1; ; page++ {
		current, err := c.FetchPage(ctx, PageQuery{Window: w, WithItems: withItems, Page: page})
		if err != nil {
			if c.failFast {
				return nil, err
			}
			ctx := c.logg.WithPage(ctx, page)
			c.logg.Warn(c.logg.WithField(ctx, "accumulated", len(all)), "page fetch failed, returning partial sweep")
			return all, nil
		}

		all = append(all, current.Orders...)
		if current.Meta.LastPage <= 0 || page >= current.Meta.LastPage {
			return all, nil
		}
	}
}

// FetchByIDs loads full detail for the given ids in fixed-size concurrent
// batches. Failed batches contribute nothing to the result; their errors come
// back combined so the caller can log them without losing the partial data.
func (c *Client) FetchByIDs(ctx context.Context, ids []int64) ([]Order, error) {
	unique := dedupe(ids)
	if len(unique) == 0 {
		return nil, nil
	}

	batches := partition(unique, c.batchSize)

	var (
		group, groupCtx = errgroup.WithContext(ctx)
		results         = make([][]Order, len(batches))
		failures        = make([]error, len(batches))
	)
	group.SetLimit(batchConcurrency)

	for i, batch := range batches {
		i, batch := i, batch
		group.Go(func() error {
			orders, err := c.fetchBatch(groupCtx, batch)
			if err != nil {
				failures[i] = err
				c.met.IncBatch("failure")
				return nil
			}
			results[i] = orders
			c.met.IncBatch("success")
			return nil
		})
	}
	// Workers never return errors, so Wait only propagates ctx cancellation.
	if err := group.Wait(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "detail batches interrupted")
	}

	var combined []Order
	for _, orders := range results {
		combined = append(combined, orders...)
	}
	return combined, multierr.Combine(failures...)
}

// BatchSize exposes the detail batch partition size.
func (c *Client) BatchSize() int { return c.batchSize }

func (c *Client) fetchBatch(ctx context.Context, ids []int64) ([]Order, error) {
	params := url.Values{}
	for _, id := range ids {
		params.Add("ids[]", strconv.FormatInt(id, 10))
	}
	params.Set("with_items", "true")

	body, err := c.fetchJSON(ctx, params, c.detailTimeout, c.detailTTL)
	if err != nil {
		return nil, err
	}

	var resp ListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstreamParse, err, "decode order batch")
	}
	return resp.Orders, nil
}

// fetchJSON is the cached GET at the bottom of every fetch. Successful bodies
// are cached after the HTTP layer reports success; parse failures are left
// uncached so the next call goes back upstream.
func (c *Client) fetchJSON(ctx context.Context, params url.Values, timeout, ttl time.Duration) ([]byte, error) {
	key := cache.Key(ordersEndpoint, params)

	if payload, ok, err := c.store.Get(ctx, key); err == nil && ok {
		c.met.IncCacheHit(ordersEndpoint)
		c.logg.Debug(c.logg.WithCacheKey(ctx, key), "response cache hit")
		return payload, nil
	} else if err != nil {
		c.logg.Warn(c.logg.WithCacheKey(ctx, key), "response cache read failed")
	}
	c.met.IncCacheMiss(ordersEndpoint)

	reqCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	started := time.Now()
	resp, err := c.http.R().
		SetContext(reqCtx).
		SetQueryParamsFromValues(params).
		Get(ordersEndpoint)
	elapsed := time.Since(started)

	if err != nil {
		c.met.ObserveRequest(ordersEndpoint, "error", elapsed)
		return nil, c.wrapTransport(err)
	}
	if !resp.IsSuccess() {
		c.met.ObserveRequest(ordersEndpoint, "error", elapsed)
		return nil, pkgerrors.New(pkgerrors.CodeUpstream, "order source returned non-success status").
			WithDetails(map[string]any{"status": resp.StatusCode()})
	}
	c.met.ObserveRequest(ordersEndpoint, "success", elapsed)

	body := resp.Body()
	if err := c.store.Set(ctx, key, body, ttl); err != nil {
		c.logg.Warn(c.logg.WithCacheKey(ctx, key), "response cache write failed")
	}
	return body, nil
}

func (c *Client) wrapTransport(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return pkgerrors.Wrap(pkgerrors.CodeUpstreamTimeout, err, "order source call exceeded deadline")
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return pkgerrors.Wrap(pkgerrors.CodeUpstreamTimeout, err, "order source call exceeded deadline")
	}
	return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "order source unreachable")
}

func formatWindowFrom(from time.Time) string {
	if from.IsZero() {
		return epochFrom
	}
	return from.UTC().Format(time.RFC3339)
}

// formatWindowTo truncates an open upper bound to the minute so repeated
// sweeps within the same minute share cache keys.
func (c *Client) formatWindowTo(to time.Time) string {
	if to.IsZero() {
		to = c.clk.Now().UTC().Truncate(time.Minute)
	}
	return to.UTC().Format(time.RFC3339)
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func partition(ids []int64, size int) [][]int64 {
	if size <= 0 {
		size = len(ids)
	}
	var batches [][]int64
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[start:end])
	}
	return batches
}
