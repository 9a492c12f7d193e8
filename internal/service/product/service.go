package product

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
	repo "github.com/bigp7952/siggil-sub002/internal/repository/product"
	"github.com/bigp7952/siggil-sub002/internal/service/analytics"
	"github.com/bigp7952/siggil-sub002/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/bigp7952/siggil-sub002/service/product")

const msgDuplicateName = "a product with this name already exists"

// Sortable fields of a product listing.
const (
	SortName      = "name"
	SortPrice     = "price"
	SortStock     = "stock"
	SortCreatedAt = "created_at"
)

// DefaultSort lists the newest products first.
var DefaultSort = listing.Sort{Field: SortCreatedAt, Desc: true}

type repository interface {
	List(ctx context.Context) ([]entity.Product, error)
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	Create(ctx context.Context, product *entity.Product) error
	Update(ctx context.Context, product *entity.Product) error
	AdjustStock(ctx context.Context, id string, delta int) (*entity.Product, int, error)
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
}

type imageStore interface {
	Resolve(ctx context.Context, bucket, image string) (imageupload.Image, error)
	Remove(ctx context.Context, bucket, imageURL string) error
}

// Input carries the editable fields of a product. A nil Image keeps the
// current picture on update; an empty one removes it.
type Input struct {
	Name          string
	Description   string
	Price         float64
	OriginalPrice *float64
	Category      string
	Image         *string
	Stock         int
	IsActive      *bool
	IsFeatured    bool
}

// Filter narrows and orders a product listing.
type Filter struct {
	Search   string
	Category string
	Active   *bool
	Featured *bool
	LowStock bool
	Sort     listing.Sort
	Page     listing.Page
}

// Service manages the product catalogue.
type Service struct {
	repo        repository
	images      imageStore
	bucket      string
	lowStock    int
	publisher   *event.Publisher
	invalidator analytics.Invalidator
	logger      *zap.Logger
	now         func() time.Time
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository  *repo.Repository
	Images      *imageupload.Service
	Config      config.Config
	Logger      *zap.Logger
	Publisher   *event.Publisher      `optional:"true"`
	Invalidator analytics.Invalidator `optional:"true"`
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	threshold := p.Config.Suggestions.LowStockThreshold
	if threshold <= 0 {
		threshold = entity.DefaultLowStockThreshold
	}
	return &Service{
		repo:        p.Repository,
		images:      p.Images,
		bucket:      p.Config.Storage.ProductsBucket,
		lowStock:    threshold,
		publisher:   p.Publisher,
		invalidator: p.Invalidator,
		logger:      p.Logger,
		now:         time.Now,
	}
}

// List filters, sorts and pages the catalogue.
func (s *Service) List(ctx context.Context, f Filter) (listing.Result[entity.Product], error) {
	ctx, span := serviceTracer.Start(ctx, "ProductService.List")
	defer span.End()

	products, err := s.repo.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return listing.Result[entity.Product]{}, errorbank.Internal("failed to load products", errorbank.WithCause(err))
	}

	matched := listing.Filter(products, func(p entity.Product) bool {
		if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
			return false
		}
		if f.Active != nil && p.IsActive != *f.Active {
			return false
		}
		if f.Featured != nil && p.IsFeatured != *f.Featured {
			return false
		}
		if f.LowStock && !p.IsLowStock(s.lowStock) {
			return false
		}
		return listing.Matches(f.Search, p.Name, p.Description, p.Category)
	})

	sorted := listing.SortStable(matched, lessBy(f.Sort.Field), f.Sort.Desc)
	return listing.Paginate(sorted, f.Page), nil
}

func lessBy(field string) func(a, b entity.Product) bool {
	switch field {
	case SortName:
		return func(a, b entity.Product) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	case SortPrice:
		return func(a, b entity.Product) bool { return a.Price < b.Price }
	case SortStock:
		return func(a, b entity.Product) bool { return a.Stock < b.Stock }
	default:
		return func(a, b entity.Product) bool { return a.CreatedAt.Before(b.CreatedAt) }
	}
}

// Get retrieves a product by id.
func (s *Service) Get(ctx context.Context, id string) (*entity.Product, error) {
	ctx, span := serviceTracer.Start(ctx, "ProductService.Get", trace.WithAttributes(attribute.String("product.id", id)))
	defer span.End()

	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("product not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load product", errorbank.WithCause(err))
	}
	return product, nil
}

// Create validates and persists a new product.
func (s *Service) Create(ctx context.Context, in Input) (*entity.Product, error) {
	if err := validate(&in); err != nil {
		return nil, err
	}
	ctx, span := serviceTracer.Start(ctx, "ProductService.Create", trace.WithAttributes(attribute.String("product.name", in.Name)))
	defer span.End()

	now := s.now().UTC()
	product := &entity.Product{
		ID:            uuid.NewString(),
		Name:          in.Name,
		Description:   in.Description,
		Price:         in.Price,
		OriginalPrice: in.OriginalPrice,
		Category:      in.Category,
		Stock:         in.Stock,
		IsActive:      true,
		IsFeatured:    in.IsFeatured,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if in.IsActive != nil {
		product.IsActive = *in.IsActive
	}
	if in.Image != nil {
		img, err := s.images.Resolve(ctx, s.bucket, *in.Image)
		if err != nil {
			return nil, err
		}
		product.ImageURL, product.ImageData = img.URL, img.Data
	}

	if err := s.repo.Create(ctx, product); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		s.discardImage(ctx, product.ImageURL)
		return nil, writeError("failed to create product", err)
	}

	s.changed(ctx, product.ID, "created")
	if product.IsLowStock(s.lowStock) {
		s.publishLowStock(ctx, product)
	}
	return product, nil
}

// Update rewrites a product.
func (s *Service) Update(ctx context.Context, id string, in Input) (*entity.Product, error) {
	if err := validate(&in); err != nil {
		return nil, err
	}
	ctx, span := serviceTracer.Start(ctx, "ProductService.Update", trace.WithAttributes(attribute.String("product.id", id)))
	defer span.End()

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := *current
	updated.Name = in.Name
	updated.Description = in.Description
	updated.Price = in.Price
	updated.OriginalPrice = in.OriginalPrice
	updated.Category = in.Category
	updated.Stock = in.Stock
	updated.IsFeatured = in.IsFeatured
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
			return nil, errorbank.NotFound("product not found")
		}
		return nil, writeError("failed to update product", err)
	}

	if updated.ImageURL != current.ImageURL {
		s.discardImage(ctx, current.ImageURL)
	}
	s.changed(ctx, id, "updated")
	if !current.IsLowStock(s.lowStock) && updated.IsLowStock(s.lowStock) {
		s.publishLowStock(ctx, &updated)
	}
	return &updated, nil
}

// ToggleActive flips the visibility of a product.
func (s *Service) ToggleActive(ctx context.Context, id string) (*entity.Product, error) {
	ctx, span := serviceTracer.Start(ctx, "ProductService.ToggleActive", trace.WithAttributes(attribute.String("product.id", id)))
	defer span.End()

	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	active := !product.IsActive
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("product not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to update product", errorbank.WithCause(err))
	}
	product.IsActive = active
	product.UpdatedAt = s.now().UTC()

	s.changed(ctx, id, "updated")
	return product, nil
}

// AdjustStock adds delta units to the stock; the result never drops below zero.
func (s *Service) AdjustStock(ctx context.Context, id string, delta int) (*entity.Product, error) {
	if delta == 0 {
		return nil, errorbank.BadRequest("delta must not be zero")
	}
	ctx, span := serviceTracer.Start(ctx, "ProductService.AdjustStock", trace.WithAttributes(
		attribute.String("product.id", id),
		attribute.Int("stock.delta", delta),
	))
	defer span.End()

	product, previous, err := s.repo.AdjustStock(ctx, id, delta)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("product not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to adjust stock", errorbank.WithCause(err))
	}

	s.logger.Info("product stock adjusted",
		zap.String("id", id),
		zap.Int("from", previous),
		zap.Int("to", product.Stock),
	)
	s.changed(ctx, id, "stock_adjusted")

	before := *product
	before.Stock = previous
	if !before.IsLowStock(s.lowStock) && product.IsLowStock(s.lowStock) {
		s.publishLowStock(ctx, product)
	}
	return product, nil
}

// Delete removes a product and its stored image.
func (s *Service) Delete(ctx context.Context, id string) error {
	ctx, span := serviceTracer.Start(ctx, "ProductService.Delete", trace.WithAttributes(attribute.String("product.id", id)))
	defer span.End()

	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorbank.NotFound("product not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to delete product", errorbank.WithCause(err))
	}

	s.discardImage(ctx, current.ImageURL)
	s.changed(ctx, id, "deleted")
	return nil
}

func validate(in *Input) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	switch {
	case in.Name == "":
		return errorbank.BadRequest("name is required")
	case in.Price < 0:
		return errorbank.BadRequest("price must not be negative", errorbank.WithDetail("price", in.Price))
	case in.OriginalPrice != nil && *in.OriginalPrice < 0:
		return errorbank.BadRequest("original price must not be negative", errorbank.WithDetail("original_price", *in.OriginalPrice))
	case in.Stock < 0:
		return errorbank.BadRequest("stock must not be negative", errorbank.WithDetail("stock", in.Stock))
	}
	return nil
}

func writeError(message string, err error) error {
	if database.IsUniqueViolation(err) {
		return errorbank.Conflict(msgDuplicateName, errorbank.WithCause(err))
	}
	return errorbank.Internal(message, errorbank.WithCause(err))
}

func (s *Service) discardImage(ctx context.Context, imageURL string) {
	if imageURL == "" {
		return
	}
	if err := s.images.Remove(ctx, s.bucket, imageURL); err != nil {
		s.logger.Warn("product image cleanup failed", zap.String("url", imageURL), zap.Error(err))
	}
}

func (s *Service) changed(ctx context.Context, id, action string) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx)
	}
	s.publisher.Publish(ctx, event.CatalogChanged, "product-"+id, event.CatalogChangedData{
		Entity: "product",
		ID:     id,
		Action: action,
	})
}

func (s *Service) publishLowStock(ctx context.Context, p *entity.Product) {
	s.logger.Info("product is running low", zap.String("id", p.ID), zap.String("name", p.Name), zap.Int("stock", p.Stock))
	s.publisher.Publish(ctx, event.ProductLowStock, "product-"+p.ID, event.ProductLowStockData{
		ProductID: p.ID,
		Name:      p.Name,
		Stock:     p.Stock,
		Threshold: s.lowStock,
	})
}
