package premium

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

var workerTracer = otel.Tracer("github.com/bigp7952/siggil-sub002/worker/premium")

// Module registers premium review worker handlers.
var Module = fx.Module("worker_premium",
	fx.Provide(
		fx.Annotate(
			NewReviewedHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// Params defines dependencies for the premium handlers.
type Params struct {
	fx.In

	Logger      *zap.Logger
	Invalidator analytics.Invalidator `optional:"true"`
}

// NewReviewedHandler records premium review decisions and refreshes the
// pending request count on the dashboard.
func NewReviewedHandler(p Params) worker.HandlerRegistration {
	handler := func(ctx context.Context, env event.Envelope) error {
		ctx, span := workerTracer.Start(ctx, "worker.premium.reviewed", trace.WithAttributes(
			attribute.String("event.id", env.ID),
		))
		defer span.End()

		var data event.PremiumReviewedData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			p.Logger.Error("failed to decode premium review", zap.String("event_id", env.ID), zap.Error(err))

			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return err
		}

		if p.Invalidator != nil {
			p.Invalidator.Invalidate(ctx)
		}
		p.Logger.Info("premium review processed",
			zap.String("request_id", data.RequestID),
			zap.String("user_id", data.UserID),
			zap.String("decision", data.Decision),
		)
		return nil
	}

	return worker.HandlerRegistration{EventType: event.PremiumReviewed, Handler: handler}
}
