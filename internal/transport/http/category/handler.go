package category

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/bigp7952/siggil-sub002/internal/dto"
	"github.com/bigp7952/siggil-sub002/internal/entity"
	"github.com/bigp7952/siggil-sub002/internal/imageupload"
	"github.com/bigp7952/siggil-sub002/internal/presentation/http/request"
	"github.com/bigp7952/siggil-sub002/internal/presentation/http/response"
	service "github.com/bigp7952/siggil-sub002/internal/service/category"
	"github.com/bigp7952/siggil-sub002/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/bigp7952/siggil-sub002/transport/http/category")

type categoryService interface {
	List(ctx context.Context, f service.Filter) ([]entity.Category, error)
	Get(ctx context.Context, id string) (*entity.Category, error)
	Create(ctx context.Context, in service.Input) (*entity.Category, error)
	Update(ctx context.Context, id string, in service.Input) (*entity.Category, error)
	ToggleActive(ctx context.Context, id string) (*entity.Category, error)
	Delete(ctx context.Context, id string) error
}

type imageFormatter interface {
	Src(imageURL, imageData string) string
}

// Handler exposes category endpoints over HTTP.
type Handler struct {
	svc    categoryService
	images imageFormatter
}

// NewHandler constructs a category Handler.
func NewHandler(svc *service.Service, images *imageupload.Service) *Handler {
	return &Handler{svc: svc, images: images}
}

// Register routes with provided Echo group.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/categories")
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.getByID)
	g.PUT("/:id", h.update)
	g.PATCH("/:id/active", h.toggleActive)
	g.DELETE("/:id", h.delete)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	active, err := request.Bool(c, "active")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "categories.list")
	defer span.End()

	categories, err := h.svc.List(ctx, service.Filter{Search: c.QueryParam("search"), Active: active})
	if err != nil {
		return b.WithError(err).Build()
	}
	out := make([]dto.CategoryResponse, 0, len(categories))
	for i := range categories {
		out = append(out, h.toDTO(&categories[i]))
	}
	return b.WithData(out).WithMeta("total", len(out)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	ctx, span := httpTracer.Start(c.Request().Context(), "categories.getByID", trace.WithAttributes(attribute.String("category.id", id)))
	defer span.End()

	category, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(h.toDTO(category)).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	in, err := bindInput(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "categories.create")
	defer span.End()

	category, err := h.svc.Create(ctx, in)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(h.toDTO(category)).Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	in, err := bindInput(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "categories.update", trace.WithAttributes(attribute.String("category.id", id)))
	defer span.End()

	category, err := h.svc.Update(ctx, id, in)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(h.toDTO(category)).Build()
}

func (h *Handler) toggleActive(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	ctx, span := httpTracer.Start(c.Request().Context(), "categories.toggleActive", trace.WithAttributes(attribute.String("category.id", id)))
	defer span.End()

	category, err := h.svc.ToggleActive(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(h.toDTO(category)).Build()
}

func (h *Handler) delete(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	ctx, span := httpTracer.Start(c.Request().Context(), "categories.delete", trace.WithAttributes(attribute.String("category.id", id)))
	defer span.End()

	if err := h.svc.Delete(ctx, id); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(map[string]string{"id": id}).Build()
}

func bindInput(c echo.Context) (service.Input, error) {
	var payload dto.CategoryRequest
	if err := c.Bind(&payload); err != nil {
		return service.Input{}, errorbank.BadRequest("invalid payload", errorbank.WithCause(err))
	}
	return service.Input{
		Name:        payload.Name,
		Slug:        payload.Slug,
		Description: payload.Description,
		Image:       payload.Image,
		IsActive:    payload.IsActive,
		SortOrder:   payload.SortOrder,
	}, nil
}

func (h *Handler) toDTO(category *entity.Category) dto.CategoryResponse {
	return dto.CategoryResponse{
		ID:          category.ID,
		Name:        category.Name,
		Slug:        category.Slug,
		Description: category.Description,
		ImageURL:    category.ImageURL,
		ImageSrc:    h.images.Src(category.ImageURL, category.ImageData),
		IsActive:    category.IsActive,
		SortOrder:   category.SortOrder,
		CreatedAt:   category.CreatedAt,
		UpdatedAt:   category.UpdatedAt,
	}
}
