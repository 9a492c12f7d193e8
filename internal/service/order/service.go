package order

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/bigp7952/siggil-sub002/internal/cache"
	"github.com/bigp7952/siggil-sub002/internal/config"
	"github.com/bigp7952/siggil-sub002/internal/entity"
	"github.com/bigp7952/siggil-sub002/internal/event"
	"github.com/bigp7952/siggil-sub002/internal/listing"
	"github.com/bigp7952/siggil-sub002/internal/observability"
	repo "github.com/bigp7952/siggil-sub002/internal/repository/order"
	"github.com/bigp7952/siggil-sub002/internal/service/analytics"
	"github.com/bigp7952/siggil-sub002/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/bigp7952/siggil-sub002/service/order")

// Sortable fields of an order listing.
const (
	SortCreatedAt   = "created_at"
	SortTotalAmount = "total_amount"
)

// DefaultSort lists the newest orders first.
var DefaultSort = listing.Sort{Field: SortCreatedAt, Desc: true}

type repository interface {
	List(ctx context.Context) ([]entity.Order, error)
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	UpdateStatus(ctx context.Context, id string, status entity.OrderStatus, at time.Time) error
	Delete(ctx context.Context, id string) error
}

// Filter narrows and orders an order listing. An empty Status matches all.
type Filter struct {
	Search string
	Status string
	Range  listing.DateRange
	Sort   listing.Sort
	Page   listing.Page
}

// Service encapsulates business logic around orders.
type Service struct {
	repo        repository
	cache       cache.Store
	cacheTTL    time.Duration
	logger      *zap.Logger
	publisher   *event.Publisher
	invalidator analytics.Invalidator
	metrics     *observability.Metrics
	now         func() time.Time
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository  *repo.Repository
	Cache       cache.Store
	Config      config.Config
	Logger      *zap.Logger
	Publisher   *event.Publisher       `optional:"true"`
	Invalidator analytics.Invalidator  `optional:"true"`
	Metrics     *observability.Metrics `optional:"true"`
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		repo:        p.Repository,
		cache:       p.Cache,
		cacheTTL:    p.Config.Cache.OrderTTL,
		logger:      p.Logger,
		publisher:   p.Publisher,
		invalidator: p.Invalidator,
		metrics:     p.Metrics,
		now:         time.Now,
	}
}

// List filters, sorts and pages orders.
func (s *Service) List(ctx context.Context, f Filter) (listing.Result[entity.Order], error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.List")
	defer span.End()

	var status entity.OrderStatus
	if strings.TrimSpace(f.Status) != "" {
		parsed, ok := entity.ParseOrderStatus(f.Status)
		if !ok {
			return listing.Result[entity.Order]{}, errorbank.BadRequest("unknown order status", errorbank.WithDetail("status", f.Status))
		}
		status = parsed
	}

	orders, err := s.repo.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return listing.Result[entity.Order]{}, errorbank.Internal("failed to load orders", errorbank.WithCause(err))
	}

	matched := listing.Filter(orders, func(o entity.Order) bool {
		if status != "" && o.EffectiveStatus() != status {
			return false
		}
		if !f.Range.Contains(o.CreatedAt) {
			return false
		}
		return listing.Matches(f.Search, o.OrderNumber, o.CustomerName, o.CustomerPhone, o.CustomerEmail)
	})

	less := func(a, b entity.Order) bool { return a.CreatedAt.Before(b.CreatedAt) }
	if f.Sort.Field == SortTotalAmount {
		less = func(a, b entity.Order) bool { return a.TotalAmount < b.TotalAmount }
	}
	return listing.Paginate(listing.SortStable(matched, less, f.Sort.Desc), f.Page), nil
}

// Get retrieves an order by id, consulting cache when available. Orders placed
// or edited by the storefront bypass this service, so a cached copy may lag the
// database by up to Cache.OrderTTL.
func (s *Service) Get(ctx context.Context, id string) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	var cached entity.Order
	if err := cache.GetJSON(ctx, s.cache, s.cacheKey(id), &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("orders cache read failed", zap.String("id", id), zap.Error(err))
	}

	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("order not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}

	if err := cache.SetJSON(ctx, s.cache, s.cacheKey(id), order, s.cacheTTL); err != nil {
		s.logger.Warn("orders cache write failed", zap.String("id", id), zap.Error(err))
	}
	return order, nil
}

// UpdateStatus moves an order to status. Setting the current status again is a
// no-op that publishes nothing.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*entity.Order, error) {
	next, ok := entity.ParseOrderStatus(status)
	if !ok {
		return nil, errorbank.BadRequest("unknown order status", errorbank.WithDetail("status", status))
	}
	ctx, span := serviceTracer.Start(ctx, "OrderService.UpdateStatus", trace.WithAttributes(
		attribute.String("order.id", id),
		attribute.String("order.status", string(next)),
	))
	defer span.End()

	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("order not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}

	previous := order.EffectiveStatus()
	if previous == next && order.Status == string(next) {
		return order, nil
	}

	at := s.now().UTC()
	if err := s.repo.UpdateStatus(ctx, id, next, at); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("order not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to update order status", errorbank.WithCause(err))
	}
	order.Status = string(next)
	order.UpdatedAt = at

	s.evict(ctx, id)
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx)
	}
	if previous != next {
		s.logger.Info("order status changed",
			zap.String("order", order.OrderNumber),
			zap.String("from", string(previous)),
			zap.String("to", string(next)),
		)
		s.metrics.OrderStatusChanged(ctx, string(next))
		s.publisher.Publish(ctx, event.OrderStatusChanged, "order-"+id, event.OrderStatusChangedData{
			OrderID:     id,
			OrderNumber: order.OrderNumber,
			From:        string(previous),
			To:          string(next),
		})
	}
	return order, nil
}

// Delete removes an order.
func (s *Service) Delete(ctx context.Context, id string) error {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Delete", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorbank.NotFound("order not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to delete order", errorbank.WithCause(err))
	}

	s.evict(ctx, id)
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx)
	}
	return nil
}

func (s *Service) cacheKey(id string) string {
	return "orders:" + id
}

func (s *Service) evict(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, s.cacheKey(id)); err != nil {
		s.logger.Warn("orders cache eviction failed", zap.String("id", id), zap.Error(err))
	}
}
