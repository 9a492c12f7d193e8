package premium

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/bigp7952/siggil-sub002/internal/dto"
	"github.com/bigp7952/siggil-sub002/internal/entity"
	"github.com/bigp7952/siggil-sub002/internal/imageupload"
	"github.com/bigp7952/siggil-sub002/internal/presentation/http/response"
	service "github.com/bigp7952/siggil-sub002/internal/service/premium"
	"github.com/bigp7952/siggil-sub002/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/bigp7952/siggil-sub002/transport/http/premium")

type premiumService interface {
	List(ctx context.Context, status string) ([]entity.PremiumRequest, error)
	Get(ctx context.Context, id string) (*entity.PremiumRequest, error)
	Approve(ctx context.Context, id, code string) (*entity.PremiumRequest, error)
	Reject(ctx context.Context, id, reason string) (*entity.PremiumRequest, error)
	Delete(ctx context.Context, id string) error
}

type imageFormatter interface {
	Src(imageURL, imageData string) string
}

// Handler exposes premium request review endpoints over HTTP.
type Handler struct {
	svc    premiumService
	images imageFormatter
}

// NewHandler constructs a premium Handler.
func NewHandler(svc *service.Service, images *imageupload.Service) *Handler {
	return &Handler{svc: svc, images: images}
}

// Register routes with provided Echo group.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/premium-requests")
	g.GET("", h.list)
	g.GET("/:id", h.getByID)
	g.POST("/:id/approve", h.approve)
	g.POST("/:id/reject", h.reject)
	g.DELETE("/:id", h.delete)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)
	status := c.QueryParam("status")

	ctx, span := httpTracer.Start(c.Request().Context(), "premium.list", trace.WithAttributes(attribute.String("premium.status", status)))
	defer span.End()

	requests, err := h.svc.List(ctx, status)
	if err != nil {
		return b.WithError(err).Build()
	}
	out := make([]dto.PremiumRequestResponse, 0, len(requests))
	for i := range requests {
		out = append(out, h.toDTO(&requests[i]))
	}
	return b.WithData(out).WithMeta("total", len(out)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	ctx, span := httpTracer.Start(c.Request().Context(), "premium.getByID", trace.WithAttributes(attribute.String("premium.id", id)))
	defer span.End()

	req, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(h.toDTO(req)).Build()
}

func (h *Handler) approve(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	var payload dto.ApprovePremiumRequest
	if err := bindOptional(c, &payload); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "premium.approve", trace.WithAttributes(attribute.String("premium.id", id)))
	defer span.End()

	req, err := h.svc.Approve(ctx, id, payload.PremiumCode)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(h.toDTO(req)).Build()
}

func (h *Handler) reject(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	var payload dto.RejectPremiumRequest
	if err := bindOptional(c, &payload); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "premium.reject", trace.WithAttributes(attribute.String("premium.id", id)))
	defer span.End()

	req, err := h.svc.Reject(ctx, id, payload.Reason)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(h.toDTO(req)).Build()
}

func (h *Handler) delete(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	ctx, span := httpTracer.Start(c.Request().Context(), "premium.delete", trace.WithAttributes(attribute.String("premium.id", id)))
	defer span.End()

	if err := h.svc.Delete(ctx, id); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(map[string]string{"id": id}).Build()
}

// bindOptional binds a body that callers may leave out entirely.
func bindOptional(c echo.Context, dst any) error {
	if c.Request().ContentLength == 0 {
		return nil
	}
	if err := c.Bind(dst); err != nil {
		return errorbank.BadRequest("invalid payload", errorbank.WithCause(err))
	}
	return nil
}

func (h *Handler) toDTO(req *entity.PremiumRequest) dto.PremiumRequestResponse {
	proofs := make([]string, 0, len(req.ProofImages))
	for _, img := range req.ProofImages {
		proofs = append(proofs, h.images.Src(img, ""))
	}
	return dto.PremiumRequestResponse{
		ID:              req.ID,
		UserID:          req.UserID,
		FullName:        req.FullName,
		Email:           req.Email,
		Phone:           req.Phone,
		ProofImages:     proofs,
		Status:          string(req.EffectiveStatus()),
		PremiumCode:     req.PremiumCode,
		RejectionReason: req.RejectionReason,
		ReviewedAt:      req.ReviewedAt,
		CreatedAt:       req.CreatedAt,
	}
}
