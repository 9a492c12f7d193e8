package category

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/bigp7952/siggil-sub002/internal/entity"
	"github.com/bigp7952/siggil-sub002/internal/imageutil"
	service "github.com/bigp7952/siggil-sub002/internal/service/category"
	"github.com/bigp7952/siggil-sub002/pkg/errorbank"
)

type fakeService struct {
	categories []entity.Category
	lastFilter service.Filter
	lastInput  service.Input
}

func (f *fakeService) List(_ context.Context, filter service.Filter) ([]entity.Category, error) {
	f.lastFilter = filter
	return f.categories, nil
}

func (f *fakeService) Get(_ context.Context, id string) (*entity.Category, error) {
	for i := range f.categories {
		if f.categories[i].ID == id {
			return &f.categories[i], nil
		}
	}
	return nil, errorbank.NotFound("category not found")
}

func (f *fakeService) Create(_ context.Context, in service.Input) (*entity.Category, error) {
	f.lastInput = in
	if in.Name == "Boissons" {
		return nil, errorbank.Conflict("a category with this name already exists")
	}
	return &entity.Category{ID: "new", Name: in.Name, Slug: service.Slugify(in.Name), IsActive: true}, nil
}

func (f *fakeService) Update(ctx context.Context, id string, in service.Input) (*entity.Category, error) {
	f.lastInput = in
	c, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Name = in.Name
	return c, nil
}

func (f *fakeService) ToggleActive(ctx context.Context, id string) (*entity.Category, error) {
	c, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.IsActive = !c.IsActive
	return c, nil
}

func (f *fakeService) Delete(_ context.Context, id string) error {
	if id == "busy" {
		return errorbank.Conflict("category still has products")
	}
	return nil
}

type placeholderImages struct{}

func (placeholderImages) Src(imageURL, imageData string) string {
	return imageutil.FormatSrc(imageURL, imageData, "")
}

func newServer(svc *fakeService) *echo.Echo {
	e := echo.New()
	Register(e, &Handler{svc: svc, images: placeholderImages{}})
	return e
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestListRendersPlaceholder(t *testing.T) {
	svc := &fakeService{categories: []entity.Category{{ID: "c1", Name: "Boissons"}}}
	rec := do(newServer(svc), http.MethodGet, "/categories?active=true&search=bois", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if svc.lastFilter.Active == nil || !*svc.lastFilter.Active || svc.lastFilter.Search != "bois" {
		t.Fatalf("unexpected filter %+v", svc.lastFilter)
	}
	if !strings.Contains(rec.Body.String(), `"image_src":"/placeholder.svg"`) {
		t.Fatalf("expected placeholder image, got %s", rec.Body.String())
	}

	if rec := do(newServer(svc), http.MethodGet, "/categories?active=maybe", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status %d", rec.Code)
	}
}

func TestCreate(t *testing.T) {
	svc := &fakeService{}
	e := newServer(svc)

	rec := do(e, http.MethodPost, "/categories", `{"name":"Jus Frais","image":"https://cdn.test/a.jpg"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastInput.Image == nil || *svc.lastInput.Image != "https://cdn.test/a.jpg" {
		t.Fatalf("image not forwarded: %+v", svc.lastInput)
	}
	if !strings.Contains(rec.Body.String(), `"slug":"jus-frais"`) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}

	rec = do(e, http.MethodPost, "/categories", `{"name":"Boissons"}`)
	if rec.Code != http.StatusConflict || !strings.Contains(rec.Body.String(), "already exists") {
		t.Fatalf("expected friendly conflict, got %d %s", rec.Code, rec.Body.String())
	}

	if rec := do(e, http.MethodPost, "/categories", `{"name":`); rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed body: unexpected status %d", rec.Code)
	}
}

func TestUpdateKeepsImageWhenOmitted(t *testing.T) {
	svc := &fakeService{categories: []entity.Category{{ID: "c1", Name: "Old"}}}
	rec := do(newServer(svc), http.MethodPut, "/categories/c1", `{"name":"New"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if svc.lastInput.Image != nil {
		t.Fatal("omitted image must reach the service as nil")
	}
}

func TestToggleAndDelete(t *testing.T) {
	e := newServer(&fakeService{categories: []entity.Category{{ID: "c1", IsActive: true}}})

	rec := do(e, http.MethodPatch, "/categories/c1/active", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"is_active":false`) {
		t.Fatalf("unexpected toggle response %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(e, http.MethodDelete, "/categories/busy", ""); rec.Code != http.StatusConflict {
		t.Fatalf("unexpected delete status %d", rec.Code)
	}
	if rec := do(e, http.MethodDelete, "/categories/c1", ""); rec.Code != http.StatusOK {
		t.Fatalf("unexpected delete status %d", rec.Code)
	}
}
