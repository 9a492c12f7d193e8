package order

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/bigp7952/siggil-sub002/internal/dto"
	"github.com/bigp7952/siggil-sub002/internal/entity"
	"github.com/bigp7952/siggil-sub002/internal/imageupload"
	"github.com/bigp7952/siggil-sub002/internal/listing"
	"github.com/bigp7952/siggil-sub002/internal/presentation/http/request"
	"github.com/bigp7952/siggil-sub002/internal/presentation/http/response"
	service "github.com/bigp7952/siggil-sub002/internal/service/order"
	"github.com/bigp7952/siggil-sub002/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/bigp7952/siggil-sub002/transport/http/order")

type orderService interface {
	List(ctx context.Context, f service.Filter) (listing.Result[entity.Order], error)
	Get(ctx context.Context, id string) (*entity.Order, error)
	UpdateStatus(ctx context.Context, id, status string) (*entity.Order, error)
	Delete(ctx context.Context, id string) error
}

type imageFormatter interface {
	Src(imageURL, imageData string) string
}

// Handler exposes order endpoints over HTTP.
type Handler struct {
	svc    orderService
	images imageFormatter
}

// NewHandler constructs an order Handler.
func NewHandler(svc *service.Service, images *imageupload.Service) *Handler {
	return &Handler{svc: svc, images: images}
}

// Register routes with provided Echo group.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/orders")
	g.GET("", h.list)
	g.GET("/:id", h.getByID)
	g.PATCH("/:id/status", h.updateStatus)
	g.DELETE("/:id", h.delete)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	page, err := request.Page(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	rng, err := request.DateRange(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	filter := service.Filter{
		Search: c.QueryParam("search"),
		Status: c.QueryParam("status"),
		Range:  rng,
		Sort:   request.Sort(c, service.DefaultSort, service.SortCreatedAt, service.SortTotalAmount),
		Page:   page,
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.list")
	defer span.End()

	res, err := h.svc.List(ctx, filter)
	if err != nil {
		return b.WithError(err).Build()
	}

	out := make([]dto.OrderResponse, 0, len(res.Items))
	for i := range res.Items {
		out = append(out, h.toDTO(&res.Items[i]))
	}
	return b.WithData(out).WithPagination(res.Page, res.PerPage, res.Total, res.TotalPages).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.getByID", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	order, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(h.toDTO(order)).Build()
}

func (h *Handler) updateStatus(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	var payload dto.UpdateOrderStatusRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	if payload.Status == "" {
		return b.WithError(errorbank.BadRequest("status is required")).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.updateStatus", trace.WithAttributes(
		attribute.String("order.id", id),
		attribute.String("order.status", payload.Status),
	))
	defer span.End()

	order, err := h.svc.UpdateStatus(ctx, id, payload.Status)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(h.toDTO(order)).Build()
}

func (h *Handler) delete(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.delete", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	if err := h.svc.Delete(ctx, id); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(map[string]string{"id": id}).Build()
}

func (h *Handler) toDTO(order *entity.Order) dto.OrderResponse {
	items := make([]dto.OrderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		line := dto.OrderItemResponse{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
			Subtotal:  item.Subtotal(),
		}
		if item.Image != "" {
			line.ImageSrc = h.images.Src(item.Image, "")
		}
		items = append(items, line)
	}
	return dto.OrderResponse{
		ID:              order.ID,
		OrderNumber:     order.OrderNumber,
		CustomerName:    order.CustomerName,
		CustomerPhone:   order.CustomerPhone,
		CustomerEmail:   order.CustomerEmail,
		ShippingAddress: order.ShippingAddress,
		City:            order.City,
		Items:           items,
		TotalAmount:     order.TotalAmount,
		Status:          string(order.EffectiveStatus()),
		PaymentMethod:   order.PaymentMethod,
		Notes:           order.Notes,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
}
