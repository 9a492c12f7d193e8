// Package suggestion turns order and product snapshots into a short list of
// advisory messages for the dashboard.
//
// Each rule looks at the snapshots on its own; the results are ordered by
// priority and capped, so the dashboard never shows more than a handful.
package suggestion

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bigp7952/siggil-sub002/internal/config"
	"github.com/bigp7952/siggil-sub002/internal/entity"
)

// Priority ranks suggestions; high comes first.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// Kind identifies the rule that produced a suggestion.
type Kind string

const (
	KindRevenueDrop      Kind = "revenue_drop"
	KindLowDeliveryRate  Kind = "low_delivery_rate"
	KindLowStock         Kind = "low_stock"
	KindPendingBacklog   Kind = "pending_backlog"
	KindHighCancellation Kind = "high_cancellation"
	KindRevenueGrowth    Kind = "revenue_growth"
	KindBestSeller       Kind = "best_seller"
)

const maxNamedLowStockItems = 3

// Suggestion is one advisory message.
type Suggestion struct {
	Kind     Kind     `json:"kind"`
	Priority Priority `json:"priority"`
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Action   string   `json:"action,omitempty"`
	Value    float64  `json:"value"`
}

// Thresholds tune the rules.
type Thresholds struct {
	LowStock              int
	RevenueDeltaPercent   float64
	DeliveryRatePercent   float64
	CancellationPercent   float64
	MinOrdersCancellation int
	PendingAge            time.Duration
	Window                time.Duration
	MaxItems              int
}

// DefaultThresholds mirrors the configuration defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		LowStock:              entity.DefaultLowStockThreshold,
		RevenueDeltaPercent:   20,
		DeliveryRatePercent:   70,
		CancellationPercent:   15,
		MinOrdersCancellation: 5,
		PendingAge:            48 * time.Hour,
		Window:                7 * 24 * time.Hour,
		MaxItems:              6,
	}
}

// ThresholdsFrom reads thresholds from configuration, keeping defaults for unset values.
func ThresholdsFrom(cfg config.Suggestions) Thresholds {
	t := DefaultThresholds()
	if cfg.LowStockThreshold > 0 {
		t.LowStock = cfg.LowStockThreshold
	}
	if cfg.RevenueDeltaPercent > 0 {
		t.RevenueDeltaPercent = cfg.RevenueDeltaPercent
	}
	if cfg.DeliveryRatePercent > 0 {
		t.DeliveryRatePercent = cfg.DeliveryRatePercent
	}
	if cfg.CancellationPercent > 0 {
		t.CancellationPercent = cfg.CancellationPercent
	}
	if cfg.MinOrdersCancellation > 0 {
		t.MinOrdersCancellation = cfg.MinOrdersCancellation
	}
	if cfg.PendingAge > 0 {
		t.PendingAge = cfg.PendingAge
	}
	if cfg.Window > 0 {
		t.Window = cfg.Window
	}
	if cfg.MaxItems > 0 {
		t.MaxItems = cfg.MaxItems
	}
	return t
}

type rule func(snapshot) (Suggestion, bool)

type snapshot struct {
	orders   []entity.Order
	products []entity.Product
	now      time.Time
	th       Thresholds
}

// Evaluate runs every rule and returns the triggered suggestions ordered by
// priority. Rules of equal priority keep their declaration order.
func Evaluate(orders []entity.Order, products []entity.Product, now time.Time, th Thresholds) []Suggestion {
	s := snapshot{orders: orders, products: products, now: now, th: th}
	rules := []rule{
		revenueDrop,
		lowDeliveryRate,
		lowStock,
		pendingBacklog,
		highCancellation,
		revenueGrowth,
		bestSeller,
	}

	out := make([]Suggestion, 0, len(rules))
	for _, r := range rules {
		if sug, ok := r(s); ok {
			out = append(out, sug)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority.rank() < out[j].Priority.rank()
	})
	if th.MaxItems > 0 && len(out) > th.MaxItems {
		out = out[:th.MaxItems]
	}
	return out
}

// revenueDelta compares revenue of the current window with the one before it.
// ok is false when the previous window earned nothing.
func (s snapshot) revenueDelta() (float64, bool) {
	currentStart := s.now.Add(-s.th.Window)
	previousStart := currentStart.Add(-s.th.Window)

	var current, previous float64
	for _, o := range s.orders {
		switch {
		case !o.CreatedAt.Before(currentStart) && !o.CreatedAt.After(s.now):
			current += o.Revenue()
		case !o.CreatedAt.Before(previousStart) && o.CreatedAt.Before(currentStart):
			previous += o.Revenue()
		}
	}
	if previous <= 0 {
		return 0, false
	}
	return (current - previous) / previous * 100, true
}

func revenueDrop(s snapshot) (Suggestion, bool) {
	delta, ok := s.revenueDelta()
	if !ok || delta >= -s.th.RevenueDeltaPercent {
		return Suggestion{}, false
	}
	return Suggestion{
		Kind:     KindRevenueDrop,
		Priority: PriorityHigh,
		Title:    "Revenue is dropping",
		Message:  fmt.Sprintf("Revenue fell %.0f%% compared with the previous %s.", -delta, durationLabel(s.th.Window)),
		Action:   "Consider a promotion or featuring best-selling products.",
		Value:    delta,
	}, true
}

func revenueGrowth(s snapshot) (Suggestion, bool) {
	delta, ok := s.revenueDelta()
	if !ok || delta <= s.th.RevenueDeltaPercent {
		return Suggestion{}, false
	}
	return Suggestion{
		Kind:     KindRevenueGrowth,
		Priority: PriorityLow,
		Title:    "Revenue is growing",
		Message:  fmt.Sprintf("Revenue grew %.0f%% compared with the previous %s.", delta, durationLabel(s.th.Window)),
		Action:   "Make sure stock keeps up with demand.",
		Value:    delta,
	}, true
}

func lowDeliveryRate(s snapshot) (Suggestion, bool) {
	var considered, delivered int
	for _, o := range s.orders {
		switch o.EffectiveStatus() {
		case entity.OrderCancelled:
			continue
		case entity.OrderDelivered:
			delivered++
		}
		considered++
	}
	if considered == 0 {
		return Suggestion{}, false
	}
	rate := float64(delivered) / float64(considered) * 100
	if rate >= s.th.DeliveryRatePercent {
		return Suggestion{}, false
	}
	return Suggestion{
		Kind:     KindLowDeliveryRate,
		Priority: PriorityHigh,
		Title:    "Low delivery rate",
		Message:  fmt.Sprintf("Only %.0f%% of orders have been delivered (%d of %d).", rate, delivered, considered),
		Action:   "Follow up on orders that are still being processed or shipped.",
		Value:    rate,
	}, true
}

func lowStock(s snapshot) (Suggestion, bool) {
	low := make([]entity.Product, 0)
	for _, p := range s.products {
		if p.IsLowStock(s.th.LowStock) {
			low = append(low, p)
		}
	}
	if len(low) == 0 {
		return Suggestion{}, false
	}
	sort.SliceStable(low, func(i, j int) bool {
		if low[i].Stock != low[j].Stock {
			return low[i].Stock < low[j].Stock
		}
		return low[i].Name < low[j].Name
	})

	names := make([]string, 0, maxNamedLowStockItems)
	for i := 0; i < len(low) && i < maxNamedLowStockItems; i++ {
		names = append(names, low[i].Name)
	}
	msg := fmt.Sprintf("%d product(s) are running low: %s", len(low), strings.Join(names, ", "))
	if len(low) > maxNamedLowStockItems {
		msg += fmt.Sprintf(" and %d more", len(low)-maxNamedLowStockItems)
	}
	return Suggestion{
		Kind:     KindLowStock,
		Priority: PriorityHigh,
		Title:    "Low stock",
		Message:  msg + ".",
		Action:   "Restock these products before they sell out.",
		Value:    float64(len(low)),
	}, true
}

func pendingBacklog(s snapshot) (Suggestion, bool) {
	cutoff := s.now.Add(-s.th.PendingAge)
	var n int
	for _, o := range s.orders {
		if o.EffectiveStatus() == entity.OrderPending && o.CreatedAt.Before(cutoff) {
			n++
		}
	}
	if n == 0 {
		return Suggestion{}, false
	}
	return Suggestion{
		Kind:     KindPendingBacklog,
		Priority: PriorityMedium,
		Title:    "Orders waiting for confirmation",
		Message:  fmt.Sprintf("%d order(s) have been pending for more than %s.", n, durationLabel(s.th.PendingAge)),
		Action:   "Confirm or cancel them so customers are not left waiting.",
		Value:    float64(n),
	}, true
}

func highCancellation(s snapshot) (Suggestion, bool) {
	total := len(s.orders)
	if total == 0 || total < s.th.MinOrdersCancellation {
		return Suggestion{}, false
	}
	var cancelled int
	for _, o := range s.orders {
		if o.EffectiveStatus() == entity.OrderCancelled {
			cancelled++
		}
	}
	rate := float64(cancelled) / float64(total) * 100
	if rate <= s.th.CancellationPercent {
		return Suggestion{}, false
	}
	return Suggestion{
		Kind:     KindHighCancellation,
		Priority: PriorityMedium,
		Title:    "High cancellation rate",
		Message:  fmt.Sprintf("%.0f%% of orders were cancelled (%d of %d).", rate, cancelled, total),
		Action:   "Check for pricing, stock or delivery issues.",
		Value:    rate,
	}, true
}

func bestSeller(s snapshot) (Suggestion, bool) {
	type tally struct {
		name     string
		quantity int
		first    int
	}
	byKey := make(map[string]*tally)
	seen := 0
	for _, o := range s.orders {
		if o.EffectiveStatus() == entity.OrderCancelled {
			continue
		}
		for _, item := range o.Items {
			key := item.ProductID
			if key == "" {
				key = item.Name
			}
			if key == "" || item.Quantity <= 0 {
				continue
			}
			t, ok := byKey[key]
			if !ok {
				t = &tally{name: item.Name, first: seen}
				byKey[key] = t
				seen++
			}
			t.quantity += item.Quantity
		}
	}

	var best *tally
	for _, t := range byKey {
		if best == nil || t.quantity > best.quantity || (t.quantity == best.quantity && t.first < best.first) {
			best = t
		}
	}
	if best == nil {
		return Suggestion{}, false
	}
	return Suggestion{
		Kind:     KindBestSeller,
		Priority: PriorityLow,
		Title:    "Best seller",
		Message:  fmt.Sprintf("%s is the best-selling product with %d unit(s) sold.", best.name, best.quantity),
		Action:   "Feature it on the storefront.",
		Value:    float64(best.quantity),
	}, true
}

func durationLabel(d time.Duration) string {
	if d >= 24*time.Hour && d%(24*time.Hour) == 0 {
		days := int(d / (24 * time.Hour))
		if days == 1 {
			return "day"
		}
		return fmt.Sprintf("%d days", days)
	}
	return d.String()
}
