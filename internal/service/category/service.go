package category

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/bigp7952/siggil-sub002/internal/config"
	"github.com/bigp7952/siggil-sub002/internal/database"
	"github.com/bigp7952/siggil-sub002/internal/entity"
	"github.com/bigp7952/siggil-sub002/internal/event"
	"github.com/bigp7952/siggil-sub002/internal/imageupload"
	"github.com/bigp7952/siggil-sub002/internal/listing"
	repo "github.com/bigp7952/siggil-sub002/internal/repository/category"
	productrepo "github.com/bigp7952/siggil-sub002/internal/repository/product"
	"github.com/bigp7952/siggil-sub002/internal/service/analytics"
	"github.com/bigp7952/siggil-sub002/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/bigp7952/siggil-sub002/service/category")

const (
	msgDuplicateName = "a category with this name already exists"
	msgDuplicateSlug = "a category with this slug already exists"
)

type repository interface {
	List(ctx context.Context) ([]entity.Category, error)
	GetByID(ctx context.Context, id string) (*entity.Category, error)
	Create(ctx context.Context, category *entity.Category) error
	Update(ctx context.Context, category *entity.Category) error
	Delete(ctx context.Context, id string) error
}

type productCatalog interface {
	CountByCategory(ctx context.Context, category string) (int, error)
	RenameCategory(ctx context.Context, from, to string) (int64, error)
}

type imageStore interface {
	Resolve(ctx context.Context, bucket, image string) (imageupload.Image, error)
	Remove(ctx context.Context, bucket, imageURL string) error
}

// Input carries the editable fields of a category. A nil Image keeps the
// current picture on update; an empty one removes it.
type Input struct {
	Name        string
	Slug        string
	Description string
	Image       *string
	IsActive    *bool
	SortOrder   int
}

// Filter narrows a category listing.
type Filter struct {
	Search string
	Active *bool
}

// Service manages storefront categories.
type Service struct {
	repo        repository
	products    productCatalog
	images      imageStore
	bucket      string
	publisher   *event.Publisher
	invalidator analytics.Invalidator
	logger      *zap.Logger
	now         func() time.Time
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository  *repo.Repository
	Products    *productrepo.Repository
	Images      *imageupload.Service
	Config      config.Config
	Logger      *zap.Logger
	Publisher   *event.Publisher      `optional:"true"`
	Invalidator analytics.Invalidator `optional:"true"`
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		repo:        p.Repository,
		products:    p.Products,
		images:      p.Images,
		bucket:      p.Config.Storage.CategoryBucket,
		publisher:   p.Publisher,
		invalidator: p.Invalidator,
		logger:      p.Logger,
		now:         time.Now,
	}
}

// List returns categories in display order.
func (s *Service) List(ctx context.Context, f Filter) ([]entity.Category, error) {
	ctx, span := serviceTracer.Start(ctx, "CategoryService.List")
	defer span.End()

	categories, err := s.repo.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load categories", errorbank.WithCause(err))
	}
	return listing.Filter(categories, func(c entity.Category) bool {
		if f.Active != nil && c.IsActive != *f.Active {
			return false
		}
		return listing.Matches(f.Search, c.Name, c.Slug, c.Description)
	}), nil
}

// Get retrieves a category by id.
func (s *Service) Get(ctx context.Context, id string) (*entity.Category, error) {
	ctx, span := serviceTracer.Start(ctx, "CategoryService.Get", trace.WithAttributes(attribute.String("category.id", id)))
	defer span.End()

	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("category not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load category", errorbank.WithCause(err))
	}
	return category, nil
}

// Create validates and persists a new category.
func (s *Service) Create(ctx context.Context, in Input) (*entity.Category, error) {
	if err := validate(&in); err != nil {
		return nil, err
	}
	ctx, span := serviceTracer.Start(ctx, "CategoryService.Create", trace.WithAttributes(attribute.String("category.name", in.Name)))
	defer span.End()

	now := s.now().UTC()
	category := &entity.Category{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Slug:        in.Slug,
		Description: in.Description,
		IsActive:    true,
		SortOrder:   in.SortOrder,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.IsActive != nil {
		category.IsActive = *in.IsActive
	}
	if in.Image != nil {
		img, err := s.images.Resolve(ctx, s.bucket, *in.Image)
		if err != nil {
			return nil, err
		}
		category.ImageURL, category.ImageData = img.URL, img.Data
	}

	if err := s.repo.Create(ctx, category); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		s.discardImage(ctx, category.ImageURL)
		return nil, s.writeError("failed to create category", err)
	}

	s.changed(ctx, category.ID, "created")
	return category, nil
}

// Update rewrites a category. Renaming a category moves its products along.
func (s *Service) Update(ctx context.Context, id string, in Input) (*entity.Category, error) {
	if err := validate(&in); err != nil {
		return nil, err
	}
	ctx, span := serviceTracer.Start(ctx, "CategoryService.Update", trace.WithAttributes(attribute.String("category.id", id)))
	defer span.End()

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := *current
	updated.Name = in.Name
	updated.Slug = in.Slug
	updated.Description = in.Description
	updated.SortOrder = in.SortOrder
	updated.UpdatedAt = s.now().UTC()
	if in.IsActive != nil {
		updated.IsActive = *in.IsActive
	}
	if in.Image != nil {
		img, err := s.images.Resolve(ctx, s.bucket, *in.Image)
		if err != nil {
			return nil, err
		}
		updated.ImageURL, updated.ImageData = img.URL, img.Data
	}

	if err := s.repo.Update(ctx, &updated); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		if updated.ImageURL != current.ImageURL {
			s.discardImage(ctx, updated.ImageURL)
		}
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("category not found")
		}
		return nil, s.writeError("failed to update category", err)
	}

	if updated.ImageURL != current.ImageURL {
		s.discardImage(ctx, current.ImageURL)
	}
	if current.Name != updated.Name {
		moved, err := s.products.RenameCategory(ctx, current.Name, updated.Name)
		if err != nil {
			s.logger.Error("moving products to renamed category failed",
				zap.String("from", current.Name),
				zap.String("to", updated.Name),
				zap.Error(err),
			)
		} else if moved > 0 {
			s.logger.Info("products moved to renamed category", zap.String("category", updated.Name), zap.Int64("products", moved))
		}
	}

	s.changed(ctx, id, "updated")
	return &updated, nil
}

// ToggleActive flips the visibility of a category.
func (s *Service) ToggleActive(ctx context.Context, id string) (*entity.Category, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	updated := *current
	updated.IsActive = !current.IsActive
	updated.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, &updated); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("category not found")
		}
		return nil, errorbank.Internal("failed to update category", errorbank.WithCause(err))
	}
	s.changed(ctx, id, "updated")
	return &updated, nil
}

// Delete removes a category that no product uses any more, together with its
// stored image.
func (s *Service) Delete(ctx context.Context, id string) error {
	ctx, span := serviceTracer.Start(ctx, "CategoryService.Delete", trace.WithAttributes(attribute.String("category.id", id)))
	defer span.End()

	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	inUse, err := s.products.CountByCategory(ctx, current.Name)
	if err != nil {
		span.RecordError(err)
		return errorbank.Internal("failed to check category usage", errorbank.WithCause(err))
	}
	if inUse > 0 {
		return errorbank.Conflict("category still has products",
			errorbank.WithDetail("products", inUse),
		)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorbank.NotFound("category not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to delete category", errorbank.WithCause(err))
	}

	s.discardImage(ctx, current.ImageURL)
	s.changed(ctx, id, "deleted")
	return nil
}

func validate(in *Input) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" {
		return errorbank.BadRequest("name is required")
	}
	in.Slug = Slugify(in.Slug)
	if in.Slug == "" {
		in.Slug = Slugify(in.Name)
	}
	if in.Slug == "" {
		return errorbank.BadRequest("name must contain letters or digits")
	}
	return nil
}

func (s *Service) writeError(message string, err error) error {
	if v, ok := database.AsUniqueViolation(err); ok {
		msg := msgDuplicateName
		if strings.Contains(strings.ToLower(v.Constraint), "slug") {
			msg = msgDuplicateSlug
		}
		return errorbank.Conflict(msg, errorbank.WithCause(err))
	}
	return errorbank.Internal(message, errorbank.WithCause(err))
}

func (s *Service) discardImage(ctx context.Context, imageURL string) {
	if imageURL == "" {
		return
	}
	if err := s.images.Remove(ctx, s.bucket, imageURL); err != nil {
		s.logger.Warn("category image cleanup failed", zap.String("url", imageURL), zap.Error(err))
	}
}

func (s *Service) changed(ctx context.Context, id, action string) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx)
	}
	s.publisher.Publish(ctx, event.CatalogChanged, "category-"+id, event.CatalogChangedData{
		Entity: "category",
		ID:     id,
		Action: action,
	})
}
