package image

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/bigp7952/siggil-sub002/internal/config"
	"github.com/bigp7952/siggil-sub002/internal/dto"
	"github.com/bigp7952/siggil-sub002/internal/imageupload"
	"github.com/bigp7952/siggil-sub002/internal/imageutil"
	"github.com/bigp7952/siggil-sub002/internal/presentation/http/response"
	"github.com/bigp7952/siggil-sub002/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/bigp7952/siggil-sub002/transport/http/image")

type uploader interface {
	Resolve(ctx context.Context, bucket, image string) (imageupload.Image, error)
	Src(imageURL, imageData string) string
}

// Handler exposes the image helpers used by the dashboard forms.
type Handler struct {
	images  uploader
	buckets map[string]struct{}
}

// NewHandler constructs an image Handler accepting the configured buckets.
func NewHandler(images *imageupload.Service, cfg config.Config) *Handler {
	return &Handler{
		images: images,
		buckets: map[string]struct{}{
			cfg.Storage.ProductsBucket: {},
			cfg.Storage.CategoryBucket: {},
		},
	}
}

// Register routes with provided Echo group.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/images")
	g.POST("/format", h.format)
	g.POST("/upload", h.upload)
}

func (h *Handler) format(c echo.Context) error {
	b := response.New(c)

	var payload dto.ImageRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	return b.WithData(dto.ImageFormatResponse{
		Kind: imageutil.Detect(payload.Image).String(),
		Src:  h.images.Src(payload.Image, ""),
	}).Build()
}

func (h *Handler) upload(c echo.Context) error {
	b := response.New(c)

	var payload dto.ImageRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	bucket := strings.TrimSpace(payload.Bucket)
	if _, ok := h.buckets[bucket]; !ok {
		return b.WithError(errorbank.BadRequest("unknown bucket", errorbank.WithDetail("bucket", bucket))).Build()
	}
	if imageutil.Detect(payload.Image) == imageutil.KindEmpty {
		return b.WithError(errorbank.BadRequest("image is required")).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "images.upload", trace.WithAttributes(attribute.String("storage.bucket", bucket)))
	defer span.End()

	img, err := h.images.Resolve(ctx, bucket, payload.Image)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(dto.ImageUploadResponse{
		URL:  img.URL,
		Data: img.Data,
		Src:  h.images.Src(img.URL, img.Data),
	}).Build()
}
