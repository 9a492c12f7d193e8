package product

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/bigp7952/siggil-sub002/internal/config"
	"github.com/bigp7952/siggil-sub002/internal/dto"
	"github.com/bigp7952/siggil-sub002/internal/entity"
	"github.com/bigp7952/siggil-sub002/internal/imageupload"
	"github.com/bigp7952/siggil-sub002/internal/listing"
	"github.com/bigp7952/siggil-sub002/internal/presentation/http/request"
	"github.com/bigp7952/siggil-sub002/internal/presentation/http/response"
	service "github.com/bigp7952/siggil-sub002/internal/service/product"
	"github.com/bigp7952/siggil-sub002/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/bigp7952/siggil-sub002/transport/http/product")

type productService interface {
	List(ctx context.Context, f service.Filter) (listing.Result[entity.Product], error)
	Get(ctx context.Context, id string) (*entity.Product, error)
	Create(ctx context.Context, in service.Input) (*entity.Product, error)
	Update(ctx context.Context, id string, in service.Input) (*entity.Product, error)
	ToggleActive(ctx context.Context, id string) (*entity.Product, error)
	AdjustStock(ctx context.Context, id string, delta int) (*entity.Product, error)
	Delete(ctx context.Context, id string) error
}

type imageFormatter interface {
	Src(imageURL, imageData string) string
}

// Handler exposes product endpoints over HTTP.
type Handler struct {
	svc       productService
	images    imageFormatter
	threshold int
}

// NewHandler constructs a product Handler.
func NewHandler(svc *service.Service, images *imageupload.Service, cfg config.Config) *Handler {
	return &Handler{svc: svc, images: images, threshold: cfg.Suggestions.LowStockThreshold}
}

// Register routes with provided Echo group.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/products")
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.getByID)
	g.PUT("/:id", h.update)
	g.PATCH("/:id/active", h.toggleActive)
	g.PATCH("/:id/stock", h.adjustStock)
	g.DELETE("/:id", h.delete)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	page, err := request.Page(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	active, err := request.Bool(c, "active")
	if err != nil {
		return b.WithError(err).Build()
	}
	featured, err := request.Bool(c, "featured")
	if err != nil {
		return b.WithError(err).Build()
	}
	lowStock, err := request.Bool(c, "low_stock")
	if err != nil {
		return b.WithError(err).Build()
	}

	filter := service.Filter{
		Search:   c.QueryParam("search"),
		Category: c.QueryParam("category"),
		Active:   active,
		Featured: featured,
		LowStock: lowStock != nil && *lowStock,
		Sort:     request.Sort(c, service.DefaultSort, service.SortName, service.SortPrice, service.SortStock, service.SortCreatedAt),
		Page:     page,
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "products.list")
	defer span.End()

	res, err := h.svc.List(ctx, filter)
	if err != nil {
		return b.WithError(err).Build()
	}
	out := make([]dto.ProductResponse, 0, len(res.Items))
	for i := range res.Items {
		out = append(out, h.toDTO(&res.Items[i]))
	}
	return b.WithData(out).WithPagination(res.Page, res.PerPage, res.Total, res.TotalPages).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	ctx, span := httpTracer.Start(c.Request().Context(), "products.getByID", trace.WithAttributes(attribute.String("product.id", id)))
	defer span.End()

	product, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(h.toDTO(product)).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	in, err := bindInput(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "products.create")
	defer span.End()

	product, err := h.svc.Create(ctx, in)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(h.toDTO(product)).Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	in, err := bindInput(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "products.update", trace.WithAttributes(attribute.String("product.id", id)))
	defer span.End()

	product, err := h.svc.Update(ctx, id, in)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(h.toDTO(product)).Build()
}

func (h *Handler) toggleActive(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	ctx, span := httpTracer.Start(c.Request().Context(), "products.toggleActive", trace.WithAttributes(attribute.String("product.id", id)))
	defer span.End()

	product, err := h.svc.ToggleActive(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(h.toDTO(product)).Build()
}

func (h *Handler) adjustStock(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	var payload dto.StockAdjustmentRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "products.adjustStock", trace.WithAttributes(
		attribute.String("product.id", id),
		attribute.Int("stock.delta", payload.Delta),
	))
	defer span.End()

	product, err := h.svc.AdjustStock(ctx, id, payload.Delta)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(h.toDTO(product)).Build()
}

func (h *Handler) delete(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	ctx, span := httpTracer.Start(c.Request().Context(), "products.delete", trace.WithAttributes(attribute.String("product.id", id)))
	defer span.End()

	if err := h.svc.Delete(ctx, id); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(map[string]string{"id": id}).Build()
}

func bindInput(c echo.Context) (service.Input, error) {
	var payload dto.ProductRequest
	if err := c.Bind(&payload); err != nil {
		return service.Input{}, errorbank.BadRequest("invalid payload", errorbank.WithCause(err))
	}
	return service.Input{
		Name:          payload.Name,
		Description:   payload.Description,
		Price:         payload.Price,
		OriginalPrice: payload.OriginalPrice,
		Category:      payload.Category,
		Image:         payload.Image,
		Stock:         payload.Stock,
		IsActive:      payload.IsActive,
		IsFeatured:    payload.IsFeatured,
	}, nil
}

func (h *Handler) toDTO(product *entity.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:            product.ID,
		Name:          product.Name,
		Description:   product.Description,
		Price:         product.Price,
		OriginalPrice: product.OriginalPrice,
		Category:      product.Category,
		ImageURL:      product.ImageURL,
		ImageSrc:      h.images.Src(product.ImageURL, product.ImageData),
		Stock:         product.Stock,
		LowStock:      product.IsLowStock(h.threshold),
		IsActive:      product.IsActive,
		IsFeatured:    product.IsFeatured,
		CreatedAt:     product.CreatedAt,
		UpdatedAt:     product.UpdatedAt,
	}
}
