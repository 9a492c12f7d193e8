package imageupload

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/bigp7952/siggil-sub002/internal/config"
	"github.com/bigp7952/siggil-sub002/internal/imageutil"
	"github.com/bigp7952/siggil-sub002/internal/observability"
	"github.com/bigp7952/siggil-sub002/internal/storage"
	"github.com/bigp7952/siggil-sub002/pkg/errorbank"
)

var uploadTracer = otel.Tracer("github.com/bigp7952/siggil-sub002/imageupload")

// Module provides the image upload service to Fx.
var Module = fx.Provide(NewService)

// Image is where a record's picture ends up: a storage URL or inline data.
type Image struct {
	URL  string
	Data string
}

// Service turns incoming image strings into stored images.
type Service struct {
	store       storage.Store
	logger      *zap.Logger
	metrics     *observability.Metrics
	maxBytes    int
	placeholder string
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Store   storage.Store
	Config  config.Config
	Logger  *zap.Logger
	Metrics *observability.Metrics `optional:"true"`
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		store:       p.Store,
		logger:      p.Logger,
		metrics:     p.Metrics,
		maxBytes:    p.Config.Storage.MaxImageBytes,
		placeholder: p.Config.Storage.PlaceholderPath,
	}
}

// Resolve stores image for bucket. URLs are kept as they are; inline images are
// uploaded when storage is available and kept inline otherwise, or when the
// upload fails.
func (s *Service) Resolve(ctx context.Context, bucket, image string) (Image, error) {
	image = strings.TrimSpace(image)
	kind := imageutil.Detect(image)

	switch kind {
	case imageutil.KindEmpty:
		return Image{}, nil
	case imageutil.KindURL:
		return Image{URL: image}, nil
	case imageutil.KindDataURI, imageutil.KindBase64:
	default:
		return Image{}, errorbank.BadRequest("unsupported image format", errorbank.WithDetail("bucket", bucket))
	}

	ctx, span := uploadTracer.Start(ctx, "ImageUpload.Resolve", trace.WithAttributes(
		attribute.String("storage.bucket", bucket),
		attribute.String("image.kind", kind.String()),
	))
	defer span.End()

	data, contentType, err := imageutil.Decode(image)
	if err != nil {
		return Image{}, errorbank.BadRequest("image data could not be decoded", errorbank.WithCause(err))
	}
	if s.maxBytes > 0 && len(data) > s.maxBytes {
		return Image{}, errorbank.BadRequest("image is too large",
			errorbank.WithDetail("max_bytes", s.maxBytes),
			errorbank.WithDetail("size", len(data)),
		)
	}

	inline := Image{Data: imageutil.ToDataURI(image)}
	if s.store == nil || !s.store.Enabled() {
		return inline, nil
	}

	objectPath := fmt.Sprintf("%s.%s", uuid.NewString(), imageutil.Extension(contentType))
	url, err := s.store.Upload(ctx, bucket, objectPath, contentType, data)
	s.metrics.ImageUploaded(ctx, bucket, err == nil)
	if err != nil {
		span.RecordError(err)
		s.logger.Warn("image upload failed; keeping inline data",
			zap.String("bucket", bucket),
			zap.Int("bytes", len(data)),
			zap.Error(err),
		)
		return inline, nil
	}

	s.logger.Debug("image uploaded", zap.String("bucket", bucket), zap.String("path", objectPath))
	return Image{URL: url}, nil
}

// Remove deletes a previously uploaded image. URLs that do not point into the
// bucket are ignored.
func (s *Service) Remove(ctx context.Context, bucket, imageURL string) error {
	if s.store == nil || !s.store.Enabled() || strings.TrimSpace(imageURL) == "" {
		return nil
	}
	objectPath, ok := s.store.ObjectPath(bucket, imageURL)
	if !ok {
		return nil
	}
	if err := s.store.Delete(ctx, bucket, objectPath); err != nil {
		if errors.Is(err, storage.ErrDisabled) || storage.IsNotFound(err) {
			return nil
		}
		s.logger.Warn("image delete failed", zap.String("bucket", bucket), zap.String("path", objectPath), zap.Error(err))
		return err
	}
	return nil
}

// Src returns the displayable source for a stored image.
func (s *Service) Src(imageURL, imageData string) string {
	return imageutil.FormatSrc(imageURL, imageData, s.placeholder)
}

// Placeholder is the static asset shown for records without an image.
func (s *Service) Placeholder() string {
	return imageutil.Fallback("", s.placeholder)
}
