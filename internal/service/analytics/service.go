package analytics

import (
	"context"
	"errors"
	"sort"
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
	"github.com/bigp7952/siggil-sub002/internal/observability"
	categoryrepo "github.com/bigp7952/siggil-sub002/internal/repository/category"
	orderrepo "github.com/bigp7952/siggil-sub002/internal/repository/order"
	premiumrepo "github.com/bigp7952/siggil-sub002/internal/repository/premium"
	productrepo "github.com/bigp7952/siggil-sub002/internal/repository/product"
	"github.com/bigp7952/siggil-sub002/internal/suggestion"
	"github.com/bigp7952/siggil-sub002/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/bigp7952/siggil-sub002/service/analytics")

const (
	statsCacheKey       = "analytics:stats"
	suggestionsCacheKey = "analytics:suggestions"

	DefaultRevenueDays = 30
	MaxRevenueDays     = 365
	DefaultTopProducts = 5
	MaxTopProducts     = 50

	uncategorized = "Uncategorized"
)

// Invalidator drops cached analytics after writes.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

type orderSource interface {
	List(ctx context.Context) ([]entity.Order, error)
}

type productSource interface {
	List(ctx context.Context) ([]entity.Product, error)
}

type categoryCounter interface {
	Count(ctx context.Context) (int, error)
}

type premiumCounter interface {
	CountPending(ctx context.Context) (int, error)
}

// Stats are the headline figures of the dashboard.
type Stats struct {
	TotalRevenue           float64        `json:"total_revenue"`
	TotalOrders            int            `json:"total_orders"`
	OrdersByStatus         map[string]int `json:"orders_by_status"`
	AverageOrderValue      float64        `json:"average_order_value"`
	TotalProducts          int            `json:"total_products"`
	ActiveProducts         int            `json:"active_products"`
	LowStockProducts       int            `json:"low_stock_products"`
	TotalCategories        int            `json:"total_categories"`
	PendingPremiumRequests int            `json:"pending_premium_requests"`
	GeneratedAt            time.Time      `json:"generated_at"`
}

// DailyPoint is one day of the revenue chart.
type DailyPoint struct {
	Date    string  `json:"date"`
	Revenue float64 `json:"revenue"`
	Orders  int     `json:"orders"`
}

// CategorySales aggregates sold quantities per category.
type CategorySales struct {
	Category string  `json:"category"`
	Quantity int     `json:"quantity"`
	Revenue  float64 `json:"revenue"`
}

// ProductSales aggregates sold quantities per product.
type ProductSales struct {
	ProductID string  `json:"product_id,omitempty"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Revenue   float64 `json:"revenue"`
}

// Service computes dashboard analytics from order and catalogue snapshots.
type Service struct {
	orders     orderSource
	products   productSource
	categories categoryCounter
	premium    premiumCounter
	cache      cache.Store
	statsTTL   time.Duration
	thresholds suggestion.Thresholds
	logger     *zap.Logger
	metrics    *observability.Metrics
	now        func() time.Time
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Orders     *orderrepo.Repository
	Products   *productrepo.Repository
	Categories *categoryrepo.Repository
	Premium    *premiumrepo.Repository
	Cache      cache.Store
	Config     config.Config
	Logger     *zap.Logger
	Metrics    *observability.Metrics `optional:"true"`
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	svc := newService(p.Orders, p.Products, p.Categories, p.Premium, p.Cache, p.Config, p.Logger)
	svc.metrics = p.Metrics
	return svc
}

func newService(orders orderSource, products productSource, categories categoryCounter, premium premiumCounter, store cache.Store, cfg config.Config, logger *zap.Logger) *Service {
	if store == nil {
		store = cache.Noop()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := cfg.Cache.StatsTTL
	if ttl <= 0 {
		ttl = cfg.Cache.DefaultTTL
	}
	return &Service{
		orders:     orders,
		products:   products,
		categories: categories,
		premium:    premium,
		cache:      store,
		statsTTL:   ttl,
		thresholds: suggestion.ThresholdsFrom(cfg.Suggestions),
		logger:     logger,
		now:        time.Now,
	}
}

// Stats returns the dashboard headline figures, served from cache when fresh.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	ctx, span := serviceTracer.Start(ctx, "AnalyticsService.Stats")
	defer span.End()

	var cached Stats
	if err := cache.GetJSON(ctx, s.cache, statsCacheKey, &cached); err == nil {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return &cached, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("analytics cache read failed", zap.String("key", statsCacheKey), zap.Error(err))
	}

	orders, products, err := s.snapshots(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "snapshot failed")
		return nil, err
	}
	categories, err := s.categories.Count(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count categories failed")
		return nil, errorbank.Internal("failed to count categories", errorbank.WithCause(err))
	}
	pending, err := s.premium.CountPending(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count premium failed")
		return nil, errorbank.Internal("failed to count premium requests", errorbank.WithCause(err))
	}

	stats := computeStats(orders, products, s.thresholds.LowStock)
	stats.TotalCategories = categories
	stats.PendingPremiumRequests = pending
	stats.GeneratedAt = s.now().UTC()

	if err := cache.SetJSON(ctx, s.cache, statsCacheKey, stats, s.statsTTL); err != nil {
		s.logger.Warn("analytics cache write failed", zap.String("key", statsCacheKey), zap.Error(err))
	}
	return &stats, nil
}

func computeStats(orders []entity.Order, products []entity.Product, lowStock int) Stats {
	stats := Stats{
		TotalOrders:    len(orders),
		OrdersByStatus: make(map[string]int, len(entity.OrderStatuses)),
		TotalProducts:  len(products),
	}
	for _, status := range entity.OrderStatuses {
		stats.OrdersByStatus[string(status)] = 0
	}

	var billable int
	for _, o := range orders {
		status := o.EffectiveStatus()
		stats.OrdersByStatus[string(status)]++
		if status != entity.OrderCancelled {
			stats.TotalRevenue += o.Revenue()
			billable++
		}
	}
	if billable > 0 {
		stats.AverageOrderValue = stats.TotalRevenue / float64(billable)
	}

	for _, p := range products {
		if p.IsActive {
			stats.ActiveProducts++
		}
		if p.IsLowStock(lowStock) {
			stats.LowStockProducts++
		}
	}
	return stats
}

// Revenue returns one point per day for the last days days, today included.
// days defaults to 30 and is capped at 365.
func (s *Service) Revenue(ctx context.Context, days int) ([]DailyPoint, error) {
	if days <= 0 {
		days = DefaultRevenueDays
	}
	if days > MaxRevenueDays {
		days = MaxRevenueDays
	}
	ctx, span := serviceTracer.Start(ctx, "AnalyticsService.Revenue", trace.WithAttributes(attribute.Int("analytics.days", days)))
	defer span.End()

	orders, err := s.orders.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load orders", errorbank.WithCause(err))
	}
	return revenueSeries(orders, s.now().UTC(), days), nil
}

func revenueSeries(orders []entity.Order, now time.Time, days int) []DailyPoint {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start := today.AddDate(0, 0, -(days - 1))

	points := make([]DailyPoint, days)
	index := make(map[string]int, days)
	for i := range points {
		date := start.AddDate(0, 0, i).Format(time.DateOnly)
		points[i].Date = date
		index[date] = i
	}

	for _, o := range orders {
		i, ok := index[o.CreatedAt.UTC().Format(time.DateOnly)]
		if !ok {
			continue
		}
		points[i].Orders++
		points[i].Revenue += o.Revenue()
	}
	return points
}

// SalesByCategory sums quantities and revenue of non-cancelled order lines per
// product category.
func (s *Service) SalesByCategory(ctx context.Context) ([]CategorySales, error) {
	ctx, span := serviceTracer.Start(ctx, "AnalyticsService.SalesByCategory")
	defer span.End()

	orders, products, err := s.snapshots(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "snapshot failed")
		return nil, err
	}
	return salesByCategory(orders, products), nil
}

func salesByCategory(orders []entity.Order, products []entity.Product) []CategorySales {
	byID := make(map[string]string, len(products))
	byName := make(map[string]string, len(products))
	for _, p := range products {
		byID[p.ID] = p.Category
		byName[p.Name] = p.Category
	}

	totals := make(map[string]*CategorySales)
	for _, o := range orders {
		if o.EffectiveStatus() == entity.OrderCancelled {
			continue
		}
		for _, item := range o.Items {
			category, ok := byID[item.ProductID]
			if !ok {
				category = byName[item.Name]
			}
			if category == "" {
				category = uncategorized
			}
			t, ok := totals[category]
			if !ok {
				t = &CategorySales{Category: category}
				totals[category] = t
			}
			t.Quantity += item.Quantity
			t.Revenue += item.Subtotal()
		}
	}

	out := make([]CategorySales, 0, len(totals))
	for _, t := range totals {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// TopProducts returns the best-selling products by quantity. limit defaults to
// 5 and is capped at 50.
func (s *Service) TopProducts(ctx context.Context, limit int) ([]ProductSales, error) {
	if limit <= 0 {
		limit = DefaultTopProducts
	}
	if limit > MaxTopProducts {
		limit = MaxTopProducts
	}
	ctx, span := serviceTracer.Start(ctx, "AnalyticsService.TopProducts", trace.WithAttributes(attribute.Int("analytics.limit", limit)))
	defer span.End()

	orders, err := s.orders.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load orders", errorbank.WithCause(err))
	}
	return topProducts(orders, limit), nil
}

func topProducts(orders []entity.Order, limit int) []ProductSales {
	totals := make(map[string]*ProductSales)
	for _, o := range orders {
		if o.EffectiveStatus() == entity.OrderCancelled {
			continue
		}
		for _, item := range o.Items {
			key := item.ProductID
			if key == "" {
				key = item.Name
			}
			if key == "" {
				continue
			}
			t, ok := totals[key]
			if !ok {
				t = &ProductSales{ProductID: item.ProductID, Name: item.Name}
				totals[key] = t
			}
			t.Quantity += item.Quantity
			t.Revenue += item.Subtotal()
		}
	}

	out := make([]ProductSales, 0, len(totals))
	for _, t := range totals {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity > out[j].Quantity
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Suggestions evaluates the advisory rules over current snapshots.
func (s *Service) Suggestions(ctx context.Context) ([]suggestion.Suggestion, error) {
	ctx, span := serviceTracer.Start(ctx, "AnalyticsService.Suggestions")
	defer span.End()

	var cached []suggestion.Suggestion
	if err := cache.GetJSON(ctx, s.cache, suggestionsCacheKey, &cached); err == nil {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("analytics cache read failed", zap.String("key", suggestionsCacheKey), zap.Error(err))
	}

	orders, products, err := s.snapshots(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "snapshot failed")
		return nil, err
	}

	out := suggestion.Evaluate(orders, products, s.now().UTC(), s.thresholds)
	s.metrics.SuggestionsProduced(ctx, len(out))
	span.SetAttributes(attribute.Int("suggestions.count", len(out)))

	if err := cache.SetJSON(ctx, s.cache, suggestionsCacheKey, out, s.statsTTL); err != nil {
		s.logger.Warn("analytics cache write failed", zap.String("key", suggestionsCacheKey), zap.Error(err))
	}
	return out, nil
}

// Invalidate drops cached stats and suggestions. Failures are only logged; the
// entries expire on their own.
func (s *Service) Invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx, statsCacheKey, suggestionsCacheKey); err != nil {
		s.logger.Warn("analytics cache invalidation failed", zap.Error(err))
	}
}

func (s *Service) snapshots(ctx context.Context) ([]entity.Order, []entity.Product, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, nil, errorbank.Internal("failed to load orders", errorbank.WithCause(err))
	}
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, nil, errorbank.Internal("failed to load products", errorbank.WithCause(err))
	}
	return orders, products, nil
}
