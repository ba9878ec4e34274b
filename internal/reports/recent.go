package reports

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/apexhq/shipdash-backend/internal/apex"
)

// UpdateKind is the best-effort classification of why an order changed. The
// upstream exposes no change log, so this is inferred from timestamps and
// status names and must not be treated as an audit trail.
type UpdateKind string

const (
	UpdateStatus  UpdateKind = "status"
	UpdateItems   UpdateKind = "items"
	UpdateGeneral UpdateKind = "general"
)

const (
	// DefaultRecentWindow is the trailing window the dashboard shows.
	DefaultRecentWindow = 7 * 24 * time.Hour

	// DefaultRecentLimit bounds the recently-updated list.
	DefaultRecentLimit = 10

	// statusChangeDelay separates creation writes from later updates: an
	// order touched within a minute of creation is assumed unchanged.
	statusChangeDelay = time.Minute
)

// statusKeywords mark progress-indicating status names for the classifier.
var statusKeywords = []string{"process", "ship", "complete"}

// UpdatedOrder is an order annotated with its inferred change kind and a
// humanized age label.
type UpdatedOrder struct {
	apex.Order
	UpdateKind      UpdateKind `json:"update_kind"`
	TimeSinceUpdate string     `json:"time_since_update"`
}

// RecentlyUpdated filters orders updated within the trailing window ending at
// now, newest first, capped at limit. Orders with unparseable update
// timestamps are dropped.
func RecentlyUpdated(orders []apex.Order, now time.Time, window time.Duration, limit int) []UpdatedOrder {
	if window <= 0 {
		window = DefaultRecentWindow
	}
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	cutoff := now.Add(-window)

	type timed struct {
		order     apex.Order
		updatedAt time.Time
	}
	var recent []timed
	for _, order := range orders {
		updatedAt, ok := parseDate(order.UpdatedAt)
		if !ok || updatedAt.Before(cutoff) || updatedAt.After(now) {
			continue
		}
		recent = append(recent, timed{order: order, updatedAt: updatedAt})
	}

	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].updatedAt.After(recent[j].updatedAt)
	})
	if len(recent) > limit {
		recent = recent[:limit]
	}

	updated := make([]UpdatedOrder, 0, len(recent))
	for _, entry := range recent {
		updated = append(updated, UpdatedOrder{
			Order:           entry.order,
			UpdateKind:      classifyUpdate(entry.order, entry.updatedAt),
			TimeSinceUpdate: humanizeSince(now.Sub(entry.updatedAt)),
		})
	}
	return updated
}

// classifyUpdate guesses the change kind: an update well after creation with a
// progress-indicating status reads as a status change, otherwise the presence
// of loaded items suggests an item edit, otherwise it is a general touch.
func classifyUpdate(order apex.Order, updatedAt time.Time) UpdateKind {
	createdAt, ok := parseDate(order.CreatedAt)
	if !ok || updatedAt.Sub(createdAt) <= statusChangeDelay {
		return UpdateGeneral
	}

	status := strings.ToLower(order.OrderStatus.Name)
	for _, keyword := range statusKeywords {
		if strings.Contains(status, keyword) {
			return UpdateStatus
		}
	}
	if order.HasItems() {
		return UpdateItems
	}
	return UpdateGeneral
}

func humanizeSince(elapsed time.Duration) string {
	if elapsed < 0 {
		elapsed = 0
	}
	minutes := int(elapsed.Minutes())
	hours := int(elapsed.Hours())
	days := int(elapsed.Hours() / 24)

	switch {
	case minutes < 60:
		return fmt.Sprintf("%dm ago", minutes)
	case hours < 24:
		return fmt.Sprintf("%dh ago", hours)
	default:
		return fmt.Sprintf("%dd ago", days)
	}
}
