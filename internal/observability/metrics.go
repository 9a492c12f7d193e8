package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/fx"
)

const meterName = "github.com/bigp7952/siggil-sub002"

// Metrics holds the domain counters recorded by the admin services. A nil
// *Metrics records nothing.
type Metrics struct {
	orderStatusChanges metric.Int64Counter
	premiumReviews     metric.Int64Counter
	imageUploads       metric.Int64Counter
	suggestions        metric.Int64Histogram
	eventsProcessed    metric.Int64Counter
}

// MetricsModule provides domain metrics to Fx.
var MetricsModule = fx.Provide(NewMetrics)

// NewMetrics registers counters on the global meter provider. The Manager
// installs the real provider on start; instruments created before that are
// delegated once it is set.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	orderStatusChanges, err := meter.Int64Counter("admin.orders.status_changes",
		metric.WithDescription("Order status transitions performed by admins"))
	if err != nil {
		return nil, err
	}
	premiumReviews, err := meter.Int64Counter("admin.premium.reviews",
		metric.WithDescription("Premium requests approved or rejected"))
	if err != nil {
		return nil, err
	}
	imageUploads, err := meter.Int64Counter("admin.images.uploads",
		metric.WithDescription("Image uploads by bucket and outcome"))
	if err != nil {
		return nil, err
	}
	suggestions, err := meter.Int64Histogram("admin.suggestions.count",
		metric.WithDescription("Number of suggestions produced per evaluation"))
	if err != nil {
		return nil, err
	}

	eventsProcessed, err := meter.Int64Counter("admin.events.processed",
		metric.WithDescription("Bus events handled by the worker"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		orderStatusChanges: orderStatusChanges,
		premiumReviews:     premiumReviews,
		imageUploads:       imageUploads,
		suggestions:        suggestions,
		eventsProcessed:    eventsProcessed,
	}, nil
}

// OrderStatusChanged counts a transition to status.
func (m *Metrics) OrderStatusChanged(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.orderStatusChanges.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// PremiumReviewed counts a review decision.
func (m *Metrics) PremiumReviewed(ctx context.Context, decision string) {
	if m == nil {
		return
	}
	m.premiumReviews.Add(ctx, 1, metric.WithAttributes(attribute.String("decision", decision)))
}

// ImageUploaded counts an upload attempt.
func (m *Metrics) ImageUploaded(ctx context.Context, bucket string, ok bool) {
	if m == nil {
		return
	}
	m.imageUploads.Add(ctx, 1, metric.WithAttributes(
		attribute.String("bucket", bucket),
		attribute.Bool("success", ok),
	))
}

// SuggestionsProduced records how many suggestions an evaluation returned.
func (m *Metrics) SuggestionsProduced(ctx context.Context, n int) {
	if m == nil {
		return
	}
	m.suggestions.Record(ctx, int64(n))
}

// EventProcessed counts a handled bus event.
func (m *Metrics) EventProcessed(ctx context.Context, eventType string, ok bool) {
	if m == nil {
		return
	}
	m.eventsProcessed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", eventType),
		attribute.Bool("success", ok),
	))
}
