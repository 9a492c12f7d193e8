package product

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bigp7952/siggil-sub002/internal/entity"
	"github.com/bigp7952/siggil-sub002/internal/event"
	"github.com/bigp7952/siggil-sub002/internal/imageupload"
	"github.com/bigp7952/siggil-sub002/internal/listing"
	"github.com/bigp7952/siggil-sub002/internal/messaging"
	repo "github.com/bigp7952/siggil-sub002/internal/repository/product"
	"github.com/bigp7952/siggil-sub002/pkg/errorbank"
)

type fakeRepo struct {
	rows      map[string]entity.Product
	order     []string
	createErr error
}

func newFakeRepo(rows ...entity.Product) *fakeRepo {
	r := &fakeRepo{rows: make(map[string]entity.Product)}
	for _, p := range rows {
		r.rows[p.ID] = p
		r.order = append(r.order, p.ID)
	}
	return r
}

func (r *fakeRepo) List(context.Context) ([]entity.Product, error) {
	out := make([]entity.Product, 0, len(r.order))
	for _, id := range r.order {
		if p, ok := r.rows[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	p, ok := r.rows[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &p, nil
}

func (r *fakeRepo) Create(_ context.Context, p *entity.Product) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.rows[p.ID] = *p
	r.order = append(r.order, p.ID)
	return nil
}

func (r *fakeRepo) Update(_ context.Context, p *entity.Product) error {
	if _, ok := r.rows[p.ID]; !ok {
		return repo.ErrNotFound
	}
	r.rows[p.ID] = *p
	return nil
}

func (r *fakeRepo) AdjustStock(_ context.Context, id string, delta int) (*entity.Product, int, error) {
	p, ok := r.rows[id]
	if !ok {
		return nil, 0, repo.ErrNotFound
	}
	previous := p.Stock
	p.Stock = max(p.Stock+delta, 0)
	r.rows[id] = p
	return &p, previous, nil
}

func (r *fakeRepo) SetActive(_ context.Context, id string, active bool) error {
	p, ok := r.rows[id]
	if !ok {
		return repo.ErrNotFound
	}
	p.IsActive = active
	r.rows[id] = p
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.rows[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

type fakeImages struct{ removed []string }

func (f *fakeImages) Resolve(_ context.Context, bucket, image string) (imageupload.Image, error) {
	if image == "" {
		return imageupload.Image{}, nil
	}
	if image == "garbage" {
		return imageupload.Image{}, errorbank.BadRequest("unsupported image format")
	}
	return imageupload.Image{URL: "https://cdn.test/" + bucket + "/" + image}, nil
}

func (f *fakeImages) Remove(_ context.Context, _ string, imageURL string) error {
	f.removed = append(f.removed, imageURL)
	return nil
}

type busRecorder struct{ msgs []messaging.Message }

func (b *busRecorder) Publish(_ context.Context, msg messaging.Message) error {
	b.msgs = append(b.msgs, msg)
	return nil
}

func (b *busRecorder) Consume(ctx context.Context, _ messaging.Handler) error {
	<-ctx.Done()
	return ctx.Err()
}

func (b *busRecorder) Topic() string { return "test" }

func (b *busRecorder) types() []event.Type {
	out := make([]event.Type, 0, len(b.msgs))
	for _, m := range b.msgs {
		out = append(out, event.Type(m.Headers["event-type"]))
	}
	return out
}

func (b *busRecorder) count(t event.Type) int {
	n := 0
	for _, got := range b.types() {
		if got == t {
			n++
		}
	}
	return n
}

func newTestService(r *fakeRepo) (*Service, *busRecorder, *fakeImages) {
	bus := &busRecorder{}
	images := &fakeImages{}
	return &Service{
		repo:      r,
		images:    images,
		bucket:    "products",
		lowStock:  10,
		publisher: event.NewPublisher(bus, zap.NewNop()),
		logger:    zap.NewNop(),
		now:       func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) },
	}, bus, images
}

func ptr[T any](v T) *T { return &v }

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newTestService(newFakeRepo())
	cases := []Input{
		{Name: " "},
		{Name: "Bissap", Price: -1},
		{Name: "Bissap", Stock: -3},
		{Name: "Bissap", OriginalPrice: ptr(-5.0)},
	}
	for _, in := range cases {
		if _, err := svc.Create(context.Background(), in); !errorbank.IsKind(err, errorbank.KindBadRequest) {
			t.Errorf("Create(%+v): expected bad request, got %v", in, err)
		}
	}

	if _, err := svc.Create(context.Background(), Input{Name: "Bissap", Image: ptr("garbage")}); !errorbank.IsKind(err, errorbank.KindBadRequest) {
		t.Fatalf("expected image error to surface, got %v", err)
	}
}

func TestCreatePublishesLowStockForNewScarceProduct(t *testing.T) {
	svc, bus, _ := newTestService(newFakeRepo())

	p, err := svc.Create(context.Background(), Input{Name: "Bissap", Price: 1500, Stock: 3, Category: " Drinks ", Image: ptr("a.jpg")})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if !p.IsActive || p.Category != "Drinks" || p.ImageURL != "https://cdn.test/products/a.jpg" {
		t.Fatalf("unexpected product %+v", p)
	}
	if bus.count(event.ProductLowStock) != 1 || bus.count(event.CatalogChanged) != 1 {
		t.Fatalf("unexpected events %v", bus.types())
	}
}

func TestCreateDuplicateName(t *testing.T) {
	r := newFakeRepo()
	r.createErr = errors.New(`ERROR: duplicate key value violates unique constraint "products_name_key" (SQLSTATE=23505)`)
	svc, _, images := newTestService(r)

	_, err := svc.Create(context.Background(), Input{Name: "Bissap", Image: ptr("a.jpg")})
	appErr := errorbank.From(err)
	if appErr.Kind() != errorbank.KindConflict || appErr.Message() != "a product with this name already exists" {
		t.Fatalf("unexpected error %v", err)
	}
	if len(images.removed) != 1 {
		t.Fatalf("expected uploaded image cleanup, got %v", images.removed)
	}
}

func TestAdjustStockPublishesOnlyWhenCrossingThreshold(t *testing.T) {
	svc, bus, _ := newTestService(newFakeRepo(entity.Product{ID: "p1", Name: "Bissap", IsActive: true, Stock: 12}))

	p, err := svc.AdjustStock(context.Background(), "p1", -1)
	if err != nil || p.Stock != 11 {
		t.Fatalf("unexpected result %+v %v", p, err)
	}
	if bus.count(event.ProductLowStock) != 0 {
		t.Fatal("11 units is not low stock")
	}

	p, _ = svc.AdjustStock(context.Background(), "p1", -5)
	if p.Stock != 6 || bus.count(event.ProductLowStock) != 1 {
		t.Fatalf("expected one low stock event at 6 units, got stock=%d events=%v", p.Stock, bus.types())
	}

	p, _ = svc.AdjustStock(context.Background(), "p1", -100)
	if p.Stock != 0 {
		t.Fatalf("stock must floor at zero, got %d", p.Stock)
	}
	if bus.count(event.ProductLowStock) != 1 {
		t.Fatal("already low stock products must not publish again")
	}

	var env event.Envelope
	for _, m := range bus.msgs {
		if m.Headers["event-type"] == string(event.ProductLowStock) {
			_ = json.Unmarshal(m.Value, &env)
		}
	}
	var data event.ProductLowStockData
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Stock != 6 || data.Threshold != 10 {
		t.Fatalf("unexpected low stock payload %+v %v", data, err)
	}
}

func TestAdjustStockErrors(t *testing.T) {
	svc, _, _ := newTestService(newFakeRepo())
	if _, err := svc.AdjustStock(context.Background(), "p1", 0); !errorbank.IsKind(err, errorbank.KindBadRequest) {
		t.Fatalf("expected bad request for zero delta, got %v", err)
	}
	if _, err := svc.AdjustStock(context.Background(), "missing", 3); !errorbank.IsKind(err, errorbank.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateReplacesImageAndKeepsCreatedAt(t *testing.T) {
	created := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	svc, _, images := newTestService(newFakeRepo(entity.Product{
		ID: "p1", Name: "Bissap", Stock: 50, IsActive: true, ImageURL: "https://cdn.test/products/old.jpg", CreatedAt: created,
	}))

	p, err := svc.Update(context.Background(), "p1", Input{Name: "Bissap rouge", Price: 2000, Stock: 50, Image: ptr("new.jpg")})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if !p.CreatedAt.Equal(created) || !p.IsActive || p.Name != "Bissap rouge" {
		t.Fatalf("unexpected product %+v", p)
	}
	if len(images.removed) != 1 || images.removed[0] != "https://cdn.test/products/old.jpg" {
		t.Fatalf("expected old image removal, got %v", images.removed)
	}
}

func TestToggleActiveAndDelete(t *testing.T) {
	svc, _, images := newTestService(newFakeRepo(entity.Product{ID: "p1", Name: "Bissap", IsActive: true, ImageURL: "https://cdn.test/products/p1.jpg"}))

	p, err := svc.ToggleActive(context.Background(), "p1")
	if err != nil || p.IsActive {
		t.Fatalf("expected inactive product, got %+v %v", p, err)
	}
	if err := svc.Delete(context.Background(), "p1"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if len(images.removed) != 1 {
		t.Fatalf("expected image cleanup, got %v", images.removed)
	}
	if err := svc.Delete(context.Background(), "p1"); !errorbank.IsKind(err, errorbank.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListFiltersSortsAndPages(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(newFakeRepo(
		entity.Product{ID: "a", Name: "Bissap", Category: "Drinks", Price: 1500, Stock: 3, IsActive: true, CreatedAt: base},
		entity.Product{ID: "b", Name: "Gingembre", Category: "Drinks", Price: 1000, Stock: 30, IsActive: true, CreatedAt: base.Add(time.Hour)},
		entity.Product{ID: "c", Name: "Thiakry", Category: "Desserts", Price: 2500, Stock: 1, IsActive: true, CreatedAt: base.Add(2 * time.Hour)},
		entity.Product{ID: "d", Name: "Bouye", Category: "drinks", Price: 1200, Stock: 0, IsActive: false, CreatedAt: base.Add(3 * time.Hour)},
	))

	res, err := svc.List(context.Background(), Filter{Category: "drinks", Sort: listing.Sort{Field: SortPrice}})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if res.Total != 3 || res.Items[0].ID != "b" || res.Items[2].ID != "a" {
		t.Fatalf("unexpected listing %+v", res)
	}

	res, _ = svc.List(context.Background(), Filter{LowStock: true, Sort: DefaultSort})
	if res.Total != 2 || res.Items[0].ID != "c" || res.Items[1].ID != "a" {
		t.Fatalf("low stock must only include active products, got %+v", res.Items)
	}

	res, _ = svc.List(context.Background(), Filter{Search: "B", Active: ptr(true), Sort: listing.Sort{Field: SortName}, Page: listing.Page{Page: 2, PerPage: 1}})
	if res.Total != 2 || res.TotalPages != 2 || len(res.Items) != 1 || res.Items[0].ID != "b" {
		t.Fatalf("unexpected paged search %+v", res)
	}
}
