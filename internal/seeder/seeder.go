package seeder

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/bigp7952/siggil-sub002/internal/database"
	"github.com/bigp7952/siggil-sub002/internal/entity"
)

// Module provides the Seeder to Fx.
var Module = fx.Provide(New)

// seedNamespace makes sample ids stable so seeding twice inserts nothing new.
var seedNamespace = uuid.MustParse("6f1c1d3e-7a43-4a4e-9a53-2d0f5f8e9b10")

// Seeder performs database seeding for local/dev setups.
type Seeder struct {
	db     *bun.DB
	logger *zap.Logger
	now    func() time.Time
}

// New constructs a Seeder backed by the primary database connection.
func New(conns *database.Connections, logger *zap.Logger) *Seeder {
	return &Seeder{db: conns.Writer, logger: logger, now: time.Now}
}

func seedID(kind, key string) string {
	return uuid.NewSHA1(seedNamespace, []byte(kind+":"+key)).String()
}

// All seeds every table in dependency order.
func (s *Seeder) All(ctx context.Context) error {
	steps := []struct {
		name string
		run  func(context.Context) error
	}{
		{"categories", s.Categories},
		{"products", s.Products},
		{"orders", s.Orders},
		{"premium requests", s.PremiumRequests},
	}
	for _, step := range steps {
		if err := step.run(ctx); err != nil {
			return fmt.Errorf("seed %s: %w", step.name, err)
		}
	}
	return nil
}

// Categories seeds the storefront categories if they are missing.
func (s *Seeder) Categories(ctx context.Context) error {
	now := s.now().UTC()
	samples := []entity.Category{
		{Name: "Jus Frais", Slug: "jus-frais", Description: "Jus locaux pressés du jour", SortOrder: 1},
		{Name: "Boissons", Slug: "boissons", Description: "Boissons fraîches", SortOrder: 2},
		{Name: "Épicerie", Slug: "epicerie", Description: "Produits secs", SortOrder: 3},
	}
	for i := range samples {
		samples[i].ID = seedID("category", samples[i].Slug)
		samples[i].IsActive = true
		samples[i].CreatedAt = now
		samples[i].UpdatedAt = now
	}
	return s.insert(ctx, "categories", &samples, len(samples))
}

// Products seeds a small catalogue, including one product low on stock.
func (s *Seeder) Products(ctx context.Context) error {
	now := s.now().UTC()
	original := 2000.0
	samples := []entity.Product{
		{Name: "Bissap 50cl", Category: "Jus Frais", Price: 1500, OriginalPrice: &original, Stock: 42, IsFeatured: true},
		{Name: "Bouye 50cl", Category: "Jus Frais", Price: 1500, Stock: 6},
		{Name: "Gingembre 1L", Category: "Jus Frais", Price: 2500, Stock: 18},
		{Name: "Eau minérale 1,5L", Category: "Boissons", Price: 500, Stock: 120},
		{Name: "Thiakry 500g", Category: "Épicerie", Price: 1800, Stock: 0},
	}
	for i := range samples {
		samples[i].ID = seedID("product", samples[i].Name)
		samples[i].IsActive = true
		samples[i].CreatedAt = now
		samples[i].UpdatedAt = now
	}
	return s.insert(ctx, "products", &samples, len(samples))
}

// Orders seeds example orders across the lifecycle if they are missing.
func (s *Seeder) Orders(ctx context.Context) error {
	now := s.now().UTC()
	line := func(product string, price float64, qty int) entity.OrderItem {
		return entity.OrderItem{ProductID: seedID("product", product), Name: product, Price: price, Quantity: qty}
	}
	samples := []entity.Order{
		{OrderNumber: "CMD-1000", Status: string(entity.OrderPending), CreatedAt: now.Add(-72 * time.Hour),
			Items: []entity.OrderItem{line("Bissap 50cl", 1500, 2)}},
		{OrderNumber: "CMD-1001", Status: string(entity.OrderProcessing), CreatedAt: now.Add(-30 * time.Hour),
			Items: []entity.OrderItem{line("Gingembre 1L", 2500, 1), line("Eau minérale 1,5L", 500, 4)}},
		{OrderNumber: "CMD-1002", Status: string(entity.OrderDelivered), CreatedAt: now.Add(-9 * 24 * time.Hour),
			Items: []entity.OrderItem{line("Bouye 50cl", 1500, 3)}},
		{OrderNumber: "CMD-1003", Status: string(entity.OrderCancelled), CreatedAt: now.Add(-2 * time.Hour),
			Items: []entity.OrderItem{line("Thiakry 500g", 1800, 1)}},
	}
	for i := range samples {
		o := &samples[i]
		o.ID = seedID("order", o.OrderNumber)
		o.CustomerName = "Client " + o.OrderNumber
		o.CustomerPhone = "+221770000000"
		o.ShippingAddress = "Rue 10, Médina"
		o.City = "Dakar"
		o.PaymentMethod = "cash_on_delivery"
		for _, item := range o.Items {
			o.TotalAmount += item.Subtotal()
		}
		o.UpdatedAt = o.CreatedAt
	}
	return s.insert(ctx, "orders", &samples, len(samples))
}

// PremiumRequests seeds one pending premium request.
func (s *Seeder) PremiumRequests(ctx context.Context) error {
	now := s.now().UTC()
	samples := []entity.PremiumRequest{{
		ID:          seedID("premium", "awa@example.com"),
		UserID:      seedID("user", "awa@example.com"),
		FullName:    "Awa Ndiaye",
		Email:       "awa@example.com",
		Phone:       "+221771234567",
		ProofImages: []string{},
		Status:      string(entity.PremiumPending),
		CreatedAt:   now,
		UpdatedAt:   now,
	}}
	return s.insert(ctx, "premium requests", &samples, len(samples))
}

func (s *Seeder) insert(ctx context.Context, what string, model any, n int) error {
	if _, err := s.db.NewInsert().Model(model).Ignore().Exec(ctx); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Info("seeded "+what, zap.Int("count", n))
	}
	return nil
}
