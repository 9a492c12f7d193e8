// Package catalog reacts to product and category events.
package catalog

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/bigp7952/siggil-sub002/internal/event"
	"github.com/bigp7952/siggil-sub002/internal/service/analytics"
	"github.com/bigp7952/siggil-sub002/internal/worker"
)

var workerTracer = otel.Tracer("github.com/bigp7952/siggil-sub002/worker/catalog")

// Module registers catalogue worker handlers.
var Module = fx.Module("worker_catalog",
	fx.Provide(
		fx.Annotate(NewLowStockHandler, fx.ResultTags(`group:"worker.handlers"`)),
		fx.Annotate(NewChangedHandler, fx.ResultTags(`group:"worker.handlers"`)),
	),
)

// Params defines dependencies for the catalogue handlers.
type Params struct {
	fx.In

	Logger      *zap.Logger
	Invalidator analytics.Invalidator `optional:"true"`
}

// NewLowStockHandler raises a warning for every product that fell under the
// low stock threshold.
func NewLowStockHandler(p Params) worker.HandlerRegistration {
	handler := func(ctx context.Context, env event.Envelope) error {
		_, span := workerTracer.Start(ctx, "worker.products.low_stock", trace.WithAttributes(
			attribute.String("event.id", env.ID),
		))
		defer span.End()

		var data event.ProductLowStockData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			p.Logger.Error("failed to decode low stock event", zap.String("event_id", env.ID), zap.Error(err))

			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return err
		}

		p.Logger.Warn("product low on stock",
			zap.String("product_id", data.ProductID),
			zap.String("name", data.Name),
			zap.Int("stock", data.Stock),
			zap.Int("threshold", data.Threshold),
		)
		return nil
	}

	return worker.HandlerRegistration{EventType: event.ProductLowStock, Handler: handler}
}

// NewChangedHandler drops cached analytics after catalogue writes.
func NewChangedHandler(p Params) worker.HandlerRegistration {
	handler := func(ctx context.Context, env event.Envelope) error {
		ctx, span := workerTracer.Start(ctx, "worker.catalog.changed", trace.WithAttributes(
			attribute.String("event.id", env.ID),
		))
		defer span.End()

		var data event.CatalogChangedData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			p.Logger.Error("failed to decode catalog change", zap.String("event_id", env.ID), zap.Error(err))

			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return err
		}

		if p.Invalidator != nil {
			p.Invalidator.Invalidate(ctx)
		}
		p.Logger.Debug("catalog change processed",
			zap.String("entity", data.Entity),
			zap.String("id", data.ID),
			zap.String("action", data.Action),
		)
		return nil
	}

	return worker.HandlerRegistration{EventType: event.CatalogChanged, Handler: handler}
}
