package analytics

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/bigp7952/siggil-sub002/internal/presentation/http/request"
	"github.com/bigp7952/siggil-sub002/internal/presentation/http/response"
	service "github.com/bigp7952/siggil-sub002/internal/service/analytics"
	"github.com/bigp7952/siggil-sub002/internal/suggestion"
)

var httpTracer = otel.Tracer("github.com/bigp7952/siggil-sub002/transport/http/analytics")

type analyticsService interface {
	Stats(ctx context.Context) (*service.Stats, error)
	Revenue(ctx context.Context, days int) ([]service.DailyPoint, error)
	SalesByCategory(ctx context.Context) ([]service.CategorySales, error)
	TopProducts(ctx context.Context, limit int) ([]service.ProductSales, error)
	Suggestions(ctx context.Context) ([]suggestion.Suggestion, error)
}

// Handler exposes dashboard analytics over HTTP.
type Handler struct {
	svc analyticsService
}

// NewHandler constructs an analytics Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo group.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/analytics")
	g.GET("/stats", h.stats)
	g.GET("/revenue", h.revenue)
	g.GET("/sales-by-category", h.salesByCategory)
	g.GET("/top-products", h.topProducts)
	g.GET("/suggestions", h.suggestions)
}

func (h *Handler) stats(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "analytics.stats")
	defer span.End()

	stats, err := h.svc.Stats(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(stats).Build()
}

func (h *Handler) revenue(c echo.Context) error {
	b := response.New(c)

	days, err := request.Int(c, "days", service.DefaultRevenueDays)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "analytics.revenue", trace.WithAttributes(attribute.Int("analytics.days", days)))
	defer span.End()

	points, err := h.svc.Revenue(ctx, days)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(points).WithMeta("days", len(points)).Build()
}

func (h *Handler) salesByCategory(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "analytics.salesByCategory")
	defer span.End()

	sales, err := h.svc.SalesByCategory(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(sales).Build()
}

func (h *Handler) topProducts(c echo.Context) error {
	b := response.New(c)

	limit, err := request.Int(c, "limit", service.DefaultTopProducts)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "analytics.topProducts", trace.WithAttributes(attribute.Int("analytics.limit", limit)))
	defer span.End()

	top, err := h.svc.TopProducts(ctx, limit)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(top).Build()
}

func (h *Handler) suggestions(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "analytics.suggestions")
	defer span.End()

	items, err := h.svc.Suggestions(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(items).Build()
}
