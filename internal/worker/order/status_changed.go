package order

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

var workerTracer = otel.Tracer("github.com/bigp7952/siggil-sub002/worker/order")

// Module registers order-related worker handlers.
var Module = fx.Module("worker_order",
	fx.Provide(
		fx.Annotate(
			NewStatusChangedHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// Params defines dependencies for the order handlers.
type Params struct {
	fx.In

	Logger      *zap.Logger
	Invalidator analytics.Invalidator `optional:"true"`
}

// NewStatusChangedHandler drops cached dashboard figures whenever an order
// moves through its lifecycle, so every API instance sees fresh analytics.
func NewStatusChangedHandler(p Params) worker.HandlerRegistration {
	handler := func(ctx context.Context, env event.Envelope) error {
		ctx, span := workerTracer.Start(ctx, "worker.orders.status_changed", trace.WithAttributes(
			attribute.String("event.id", env.ID),
		))
		defer span.End()

		var data event.OrderStatusChangedData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			p.Logger.Error("failed to decode order status change", zap.String("event_id", env.ID), zap.Error(err))

			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return err
		}

		if p.Invalidator != nil {
			p.Invalidator.Invalidate(ctx)
		}
		p.Logger.Info("order status change processed",
			zap.String("order_id", data.OrderID),
			zap.String("number", data.OrderNumber),
			zap.String("from", data.From),
			zap.String("to", data.To),
		)

		return nil
	}

	return worker.HandlerRegistration{
		EventType: event.OrderStatusChanged,
		Handler:   handler,
	}
}
