package analytics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	service "github.com/bigp7952/siggil-sub002/internal/service/analytics"
	"github.com/bigp7952/siggil-sub002/internal/suggestion"
	"github.com/bigp7952/siggil-sub002/pkg/errorbank"
)

type fakeService struct {
	days  int
	limit int
	fail  bool
}

func (f *fakeService) Stats(context.Context) (*service.Stats, error) {
	if f.fail {
		return nil, errorbank.Internal("failed to load orders", errorbank.WithCause(errors.New("db down")))
	}
	return &service.Stats{TotalOrders: 3, TotalRevenue: 4500}, nil
}

func (f *fakeService) Revenue(_ context.Context, days int) ([]service.DailyPoint, error) {
	f.days = days
	return make([]service.DailyPoint, days), nil
}

func (f *fakeService) SalesByCategory(context.Context) ([]service.CategorySales, error) {
	return []service.CategorySales{{Category: "Jus", Quantity: 4}}, nil
}

func (f *fakeService) TopProducts(_ context.Context, limit int) ([]service.ProductSales, error) {
	f.limit = limit
	return nil, nil
}

func (f *fakeService) Suggestions(context.Context) ([]suggestion.Suggestion, error) {
	return []suggestion.Suggestion{{Kind: suggestion.KindLowStock, Priority: suggestion.PriorityHigh, Title: "Low stock"}}, nil
}

func get(e *echo.Echo, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestEndpoints(t *testing.T) {
	svc := &fakeService{}
	e := echo.New()
	Register(e, &Handler{svc: svc})

	if rec := get(e, "/analytics/stats"); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"total_orders":3`) {
		t.Fatalf("stats: %d %s", rec.Code, rec.Body.String())
	}
	if rec := get(e, "/analytics/revenue"); rec.Code != http.StatusOK || svc.days != service.DefaultRevenueDays {
		t.Fatalf("revenue: %d days=%d", rec.Code, svc.days)
	}
	if rec := get(e, "/analytics/revenue?days=7"); rec.Code != http.StatusOK || svc.days != 7 {
		t.Fatalf("revenue: %d days=%d", rec.Code, svc.days)
	}
	if rec := get(e, "/analytics/top-products?limit=3"); rec.Code != http.StatusOK || svc.limit != 3 {
		t.Fatalf("top products: %d limit=%d", rec.Code, svc.limit)
	}
	if rec := get(e, "/analytics/sales-by-category"); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"category":"Jus"`) {
		t.Fatalf("sales by category: %d %s", rec.Code, rec.Body.String())
	}
	if rec := get(e, "/analytics/suggestions"); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"priority":"high"`) {
		t.Fatalf("suggestions: %d %s", rec.Code, rec.Body.String())
	}
}

func TestBadParamsAndFailures(t *testing.T) {
	e := echo.New()
	Register(e, &Handler{svc: &fakeService{fail: true}})

	if rec := get(e, "/analytics/revenue?days=week"); rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	rec := get(e, "/analytics/stats")
	if rec.Code != http.StatusInternalServerError || strings.Contains(rec.Body.String(), "db down") {
		t.Fatalf("internal causes must not leak: %d %s", rec.Code, rec.Body.String())
	}
}
