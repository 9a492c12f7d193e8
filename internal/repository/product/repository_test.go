package product

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bigp7952/siggil-sub002/internal/database"
	"github.com/bigp7952/siggil-sub002/internal/database/dbtest"
	"github.com/bigp7952/siggil-sub002/internal/entity"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	conns := dbtest.New(t, (*entity.Product)(nil))
	dbtest.Unique(t, conns, (*entity.Product)(nil), "products_name_key", "name")
	r := NewRepository(conns)

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	original := 2000.0
	for i, p := range []entity.Product{
		{ID: "p1", Name: "Bissap 50cl", Price: 1500, OriginalPrice: &original, Category: "Jus Frais", Stock: 5, IsActive: true},
		{ID: "p2", Name: "Bouye 50cl", Price: 1500, Category: "Jus Frais", Stock: 20, IsActive: true},
		{ID: "p3", Name: "Thiakry", Price: 1000, Category: "Desserts", Stock: 12},
	} {
		p.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		if err := r.Create(context.Background(), &p); err != nil {
			t.Fatalf("create %s: %v", p.ID, err)
		}
	}
	return r
}

func TestListAndDuplicateName(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()

	products, err := r.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(products) != 3 || products[0].ID != "p3" || products[2].ID != "p1" {
		t.Fatalf("expected newest first, got %+v", products)
	}
	if products[2].OriginalPrice == nil || *products[2].OriginalPrice != 2000 {
		t.Fatalf("original price lost: %+v", products[2])
	}

	err = r.Create(ctx, &entity.Product{ID: "p4", Name: "Bissap 50cl", Price: 1, CreatedAt: time.Now().UTC()})
	if !database.IsUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}
}

func TestCategoryCountAndRename(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()

	if n, err := r.CountByCategory(ctx, "Jus Frais"); err != nil || n != 2 {
		t.Fatalf("expected 2 products, got %d (%v)", n, err)
	}

	moved, err := r.RenameCategory(ctx, "Jus Frais", "Boissons")
	if err != nil || moved != 2 {
		t.Fatalf("expected 2 moved products, got %d (%v)", moved, err)
	}
	if n, _ := r.CountByCategory(ctx, "Jus Frais"); n != 0 {
		t.Fatalf("old category still has %d products", n)
	}
	p, err := r.GetByID(ctx, "p1")
	if err != nil || p.Category != "Boissons" {
		t.Fatalf("product not moved: %+v %v", p, err)
	}
	if other, _ := r.GetByID(ctx, "p3"); other.Category != "Desserts" {
		t.Fatalf("unrelated product moved: %+v", other)
	}
}

func TestAdjustStockFloorsAtZero(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()

	p, previous, err := r.AdjustStock(ctx, "p1", -10)
	if err != nil {
		t.Fatal(err)
	}
	if previous != 5 || p.Stock != 0 {
		t.Fatalf("expected 5 -> 0, got %d -> %d", previous, p.Stock)
	}

	p, previous, err = r.AdjustStock(ctx, "p1", 3)
	if err != nil || previous != 0 || p.Stock != 3 {
		t.Fatalf("expected 0 -> 3, got %d -> %+v (%v)", previous, p, err)
	}

	stored, err := r.GetByID(ctx, "p1")
	if err != nil || stored.Stock != 3 || stored.UpdatedAt.IsZero() {
		t.Fatalf("stock not persisted: %+v %v", stored, err)
	}

	if _, _, err := r.AdjustStock(ctx, "missing", 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateSetActiveDelete(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()

	p, err := r.GetByID(ctx, "p3")
	if err != nil {
		t.Fatal(err)
	}
	p.Price = 1250
	p.IsFeatured = true
	if err := r.Update(ctx, p); err != nil {
		t.Fatal(err)
	}
	if err := r.SetActive(ctx, "p3", true); err != nil {
		t.Fatal(err)
	}
	got, _ := r.GetByID(ctx, "p3")
	if got.Price != 1250 || !got.IsFeatured || !got.IsActive {
		t.Fatalf("unexpected product %+v", got)
	}

	if err := r.Update(ctx, &entity.Product{ID: "missing", Name: "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}
	if err := r.SetActive(ctx, "missing", false); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on toggle, got %v", err)
	}
	if err := r.Delete(ctx, "p3"); err != nil {
		t.Fatal(err)
	}
	if _, err := r.GetByID(ctx, "p3"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected deleted product to be gone, got %v", err)
	}
}
