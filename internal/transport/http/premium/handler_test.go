package premium

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
	"github.com/bigp7952/siggil-sub002/pkg/errorbank"
)

type fakeService struct {
	requests   []entity.PremiumRequest
	lastStatus string
	lastCode   string
	lastReason string
}

func (f *fakeService) List(_ context.Context, status string) ([]entity.PremiumRequest, error) {
	f.lastStatus = status
	return f.requests, nil
}

func (f *fakeService) Get(_ context.Context, id string) (*entity.PremiumRequest, error) {
	for i := range f.requests {
		if f.requests[i].ID == id {
			return &f.requests[i], nil
		}
	}
	return nil, errorbank.NotFound("premium request not found")
}

func (f *fakeService) Approve(ctx context.Context, id, code string) (*entity.PremiumRequest, error) {
	f.lastCode = code
	r, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.EffectiveStatus() != entity.PremiumPending {
		return nil, errorbank.Unprocessable("premium request was already reviewed")
	}
	r.Status = string(entity.PremiumApproved)
	r.PremiumCode = "PREM-ABCD1234"
	if code != "" {
		r.PremiumCode = code
	}
	return r, nil
}

func (f *fakeService) Reject(ctx context.Context, id, reason string) (*entity.PremiumRequest, error) {
	f.lastReason = reason
	r, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	r.Status = string(entity.PremiumRejected)
	r.RejectionReason = reason
	return r, nil
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
	Register(e, &Handler{svc: svc, images: placeholderImages{}})
	return e
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestListFormatsProofImages(t *testing.T) {
	svc := &fakeService{requests: []entity.PremiumRequest{{
		ID:          "r1",
		ProofImages: []string{"https://cdn.test/proof.jpg", "iVBORw0KGgoAAAANSUhEUgAA", ""},
	}}}
	rec := do(newServer(svc), http.MethodGet, "/premium-requests?status=pending", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if svc.lastStatus != "pending" {
		t.Fatalf("status filter not forwarded: %q", svc.lastStatus)
	}

	var body struct {
		Data []struct {
			Status      string   `json:"status"`
			ProofImages []string `json:"proof_images"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	proofs := body.Data[0].ProofImages
	if body.Data[0].Status != "pending" || len(proofs) != 3 {
		t.Fatalf("unexpected request %+v", body.Data[0])
	}
	if proofs[0] != "https://cdn.test/proof.jpg" || !strings.HasPrefix(proofs[1], "data:image/png;base64,") || proofs[2] != imageutil.DefaultPlaceholder {
		t.Fatalf("unexpected proof sources %v", proofs)
	}
}

func TestApproveWithAndWithoutBody(t *testing.T) {
	svc := &fakeService{requests: []entity.PremiumRequest{{ID: "r1"}, {ID: "r2"}}}
	e := newServer(svc)

	rec := do(e, http.MethodPost, "/premium-requests/r1/approve", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"premium_code":"PREM-ABCD1234"`) {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}

	rec = do(e, http.MethodPost, "/premium-requests/r2/approve", `{"premium_code":"VIP-2024"}`)
	if rec.Code != http.StatusOK || svc.lastCode != "VIP-2024" {
		t.Fatalf("unexpected response %d, code %q", rec.Code, svc.lastCode)
	}

	rec = do(e, http.MethodPost, "/premium-requests/r1/approve", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("second review: unexpected status %d", rec.Code)
	}
}

func TestReject(t *testing.T) {
	svc := &fakeService{requests: []entity.PremiumRequest{{ID: "r1"}}}
	rec := do(newServer(svc), http.MethodPost, "/premium-requests/r1/reject", `{"reason":"blurry proof"}`)
	if rec.Code != http.StatusOK || svc.lastReason != "blurry proof" {
		t.Fatalf("unexpected response %d, reason %q", rec.Code, svc.lastReason)
	}
	if !strings.Contains(rec.Body.String(), `"status":"rejected"`) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}

	if rec := do(newServer(svc), http.MethodPost, "/premium-requests/none/reject", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status %d", rec.Code)
	}
}
