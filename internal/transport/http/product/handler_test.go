package product

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/bigp7952/siggil-sub002/internal/entity"
	"github.com/bigp7952/siggil-sub002/internal/imageutil"
	"github.com/bigp7952/siggil-sub002/internal/listing"
	service "github.com/bigp7952/siggil-sub002/internal/service/product"
	"github.com/bigp7952/siggil-sub002/pkg/errorbank"
)

type fakeService struct {
	products   []entity.Product
	lastFilter service.Filter
	lastInput  service.Input
}

func (f *fakeService) List(_ context.Context, filter service.Filter) (listing.Result[entity.Product], error) {
	f.lastFilter = filter
	return listing.Paginate(f.products, filter.Page), nil
}

func (f *fakeService) Get(_ context.Context, id string) (*entity.Product, error) {
	for i := range f.products {
		if f.products[i].ID == id {
			return &f.products[i], nil
		}
	}
	return nil, errorbank.NotFound("product not found")
}

func (f *fakeService) Create(_ context.Context, in service.Input) (*entity.Product, error) {
	f.lastInput = in
	return &entity.Product{ID: "new", Name: in.Name, Price: in.Price, Stock: in.Stock, IsActive: true}, nil
}

func (f *fakeService) Update(ctx context.Context, id string, in service.Input) (*entity.Product, error) {
	f.lastInput = in
	return f.Get(ctx, id)
}

func (f *fakeService) ToggleActive(ctx context.Context, id string) (*entity.Product, error) {
	p, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p.IsActive = !p.IsActive
	return p, nil
}

func (f *fakeService) AdjustStock(ctx context.Context, id string, delta int) (*entity.Product, error) {
	if delta == 0 {
		return nil, errorbank.BadRequest("stock adjustment must not be zero")
	}
	p, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Stock = max(p.Stock+delta, 0)
	return p, nil
}

func (f *fakeService) Delete(ctx context.Context, id string) error {
	_, err := f.Get(ctx, id)
	return err
}

type placeholderImages struct{}

func (placeholderImages) Src(imageURL, imageData string) string {
	return imageutil.FormatSrc(imageURL, imageData, "")
}

func newServer(svc *fakeService) *echo.Echo {
	e := echo.New()
	Register(e, &Handler{svc: svc, images: placeholderImages{}, threshold: 10})
	return e
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestListFlagsLowStock(t *testing.T) {
	svc := &fakeService{products: []entity.Product{
		{ID: "p1", Name: "Bissap", Stock: 3, IsActive: true, ImageURL: "https://cdn.test/p1.jpg"},
		{ID: "p2", Name: "Gingembre", Stock: 3, IsActive: false},
		{ID: "p3", Name: "Bouye", Stock: 40, IsActive: true},
	}}
	rec := do(newServer(svc), http.MethodGet, "/products?low_stock=true&featured=false&category=Jus&sort=-price", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}

	f := svc.lastFilter
	if !f.LowStock || f.Featured == nil || *f.Featured || f.Category != "Jus" || f.Sort.Field != service.SortPrice || !f.Sort.Desc {
		t.Fatalf("unexpected filter %+v", f)
	}

	var body struct {
		Data []struct {
			ID       string `json:"id"`
			LowStock bool   `json:"low_stock"`
			ImageSrc string `json:"image_src"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	want := map[string]bool{"p1": true, "p2": false, "p3": false}
	for _, p := range body.Data {
		if p.LowStock != want[p.ID] {
			t.Fatalf("product %s: low_stock = %v", p.ID, p.LowStock)
		}
	}
	if body.Data[0].ImageSrc != "https://cdn.test/p1.jpg" || body.Data[2].ImageSrc != imageutil.DefaultPlaceholder {
		t.Fatalf("unexpected image sources %+v", body.Data)
	}
}

func TestCreateForwardsPayload(t *testing.T) {
	svc := &fakeService{}
	rec := do(newServer(svc), http.MethodPost, "/products", `{"name":"Bissap","price":1500,"original_price":2000,"stock":4,"category":"Jus"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	in := svc.lastInput
	if in.Name != "Bissap" || in.Price != 1500 || in.OriginalPrice == nil || *in.OriginalPrice != 2000 || in.Category != "Jus" {
		t.Fatalf("unexpected input %+v", in)
	}
	if in.IsActive != nil {
		t.Fatal("omitted is_active must stay nil")
	}
}

func TestAdjustStock(t *testing.T) {
	e := newServer(&fakeService{products: []entity.Product{{ID: "p1", Stock: 2, IsActive: true}}})

	rec := do(e, http.MethodPatch, "/products/p1/stock", `{"delta":-5}`)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"stock":0`) {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(e, http.MethodPatch, "/products/p1/stock", `{"delta":0}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("zero delta: unexpected status %d", rec.Code)
	}
	if rec := do(e, http.MethodPatch, "/products/missing/stock", `{"delta":1}`); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown product: unexpected status %d", rec.Code)
	}
}

func TestToggleActive(t *testing.T) {
	e := newServer(&fakeService{products: []entity.Product{{ID: "p1", IsActive: true}}})
	rec := do(e, http.MethodPatch, "/products/p1/active", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"is_active":false`) {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}
