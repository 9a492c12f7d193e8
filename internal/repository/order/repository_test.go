package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bigp7952/siggil-sub002/internal/database/dbtest"
	"github.com/bigp7952/siggil-sub002/internal/entity"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	r := NewRepository(dbtest.New(t, (*entity.Order)(nil)))

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	for i, o := range []entity.Order{
		{
			ID: "o1", OrderNumber: "CMD-001", CustomerName: "Awa Diop", TotalAmount: 4500,
			Items: []entity.OrderItem{
				{ProductID: "p1", Name: "Bissap 50cl", Price: 1500, Quantity: 2},
				{ProductID: "p2", Name: "Bouye 50cl", Price: 1500, Quantity: 1},
			},
		},
		{ID: "o2", OrderNumber: "CMD-002", CustomerName: "Moussa Fall", TotalAmount: 1000, Status: string(entity.OrderDelivered)},
	} {
		o.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		if err := r.Create(context.Background(), &o); err != nil {
			t.Fatalf("create %s: %v", o.ID, err)
		}
	}
	return r
}

func TestListAndItemsRoundTrip(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()

	orders, err := r.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(orders) != 2 || orders[0].ID != "o2" {
		t.Fatalf("expected newest first, got %+v", orders)
	}

	o, err := r.GetByID(ctx, "o1")
	if err != nil {
		t.Fatal(err)
	}
	if len(o.Items) != 2 || o.Items[0].Quantity != 2 || o.Items[1].Name != "Bouye 50cl" {
		t.Fatalf("items not decoded: %+v", o.Items)
	}
	if o.EffectiveStatus() != entity.OrderPending {
		t.Fatalf("empty status should read as pending, got %q", o.EffectiveStatus())
	}
}

func TestUpdateStatus(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()
	at := time.Date(2024, 5, 3, 9, 0, 0, 0, time.UTC)

	if err := r.UpdateStatus(ctx, "o1", entity.OrderShipped, at); err != nil {
		t.Fatal(err)
	}
	o, err := r.GetByID(ctx, "o1")
	if err != nil {
		t.Fatal(err)
	}
	if o.Status != string(entity.OrderShipped) || !o.UpdatedAt.Equal(at) {
		t.Fatalf("status not stored: %+v", o)
	}

	if err := r.UpdateStatus(ctx, "missing", entity.OrderShipped, at); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()

	if err := r.Delete(ctx, "o2"); err != nil {
		t.Fatal(err)
	}
	if _, err := r.GetByID(ctx, "o2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := r.Delete(ctx, "o2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
