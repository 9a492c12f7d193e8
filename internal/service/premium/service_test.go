package premium

import (
	"context"
	"regexp"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bigp7952/siggil-sub002/internal/entity"
	repo "github.com/bigp7952/siggil-sub002/internal/repository/premium"
	"github.com/bigp7952/siggil-sub002/pkg/errorbank"
)

type fakeRepo struct {
	rows       map[string]entity.PremiumRequest
	lastStatus entity.PremiumStatus
	raceLost   bool
}

func (r *fakeRepo) List(_ context.Context, status entity.PremiumStatus) ([]entity.PremiumRequest, error) {
	r.lastStatus = status
	out := make([]entity.PremiumRequest, 0, len(r.rows))
	for _, req := range r.rows {
		if status == "" || req.EffectiveStatus() == status {
			out = append(out, req)
		}
	}
	return out, nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (*entity.PremiumRequest, error) {
	req, ok := r.rows[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &req, nil
}

func (r *fakeRepo) SaveReview(_ context.Context, req *entity.PremiumRequest) (bool, error) {
	if r.raceLost {
		return false, nil
	}
	r.rows[req.ID] = *req
	return true, nil
}

func (r *fakeRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.rows[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

var reviewTime = time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC)

func newTestService(rows ...entity.PremiumRequest) (*Service, *fakeRepo) {
	r := &fakeRepo{rows: make(map[string]entity.PremiumRequest)}
	for _, row := range rows {
		r.rows[row.ID] = row
	}
	return &Service{
		repo:         r,
		logger:       zap.NewNop(),
		now:          func() time.Time { return reviewTime },
		generateCode: func() (string, error) { return "PREM-TEST0001", nil },
	}, r
}

func TestApproveGeneratesCode(t *testing.T) {
	svc, r := newTestService(entity.PremiumRequest{ID: "r1", Email: "awa@example.com"})

	req, err := svc.Approve(context.Background(), "r1", "")
	if err != nil {
		t.Fatalf("Approve returned error: %v", err)
	}
	if req.Status != "approved" || req.PremiumCode != "PREM-TEST0001" {
		t.Fatalf("unexpected request %+v", req)
	}
	if req.ReviewedAt == nil || !req.ReviewedAt.Equal(reviewTime) {
		t.Fatalf("expected reviewed_at to be set, got %v", req.ReviewedAt)
	}
	if r.rows["r1"].Status != "approved" {
		t.Fatal("review was not persisted")
	}
}

func TestApproveWithSuppliedCode(t *testing.T) {
	svc, _ := newTestService(entity.PremiumRequest{ID: "r1", Status: "pending"})

	req, err := svc.Approve(context.Background(), "r1", " vip-2024 ")
	if err != nil || req.PremiumCode != "VIP-2024" {
		t.Fatalf("unexpected result %+v %v", req, err)
	}

	svc, _ = newTestService(entity.PremiumRequest{ID: "r2"})
	if _, err := svc.Approve(context.Background(), "r2", "bad code!"); !errorbank.IsKind(err, errorbank.KindBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
}

func TestRejectStoresReason(t *testing.T) {
	svc, _ := newTestService(entity.PremiumRequest{ID: "r1", Status: "pending"})

	req, err := svc.Reject(context.Background(), "r1", "  proof unreadable ")
	if err != nil {
		t.Fatalf("Reject returned error: %v", err)
	}
	if req.Status != "rejected" || req.RejectionReason != "proof unreadable" || req.PremiumCode != "" {
		t.Fatalf("unexpected request %+v", req)
	}
}

func TestReviewOnlyFromPending(t *testing.T) {
	svc, _ := newTestService(entity.PremiumRequest{ID: "r1", Status: "approved"})

	if _, err := svc.Reject(context.Background(), "r1", ""); !errorbank.IsKind(err, errorbank.KindUnprocessableEntity) {
		t.Fatalf("expected unprocessable, got %v", err)
	}
	if _, err := svc.Approve(context.Background(), "missing", ""); !errorbank.IsKind(err, errorbank.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	svc, r := newTestService(entity.PremiumRequest{ID: "r2"})
	r.raceLost = true
	if _, err := svc.Approve(context.Background(), "r2", ""); !errorbank.IsKind(err, errorbank.KindUnprocessableEntity) {
		t.Fatalf("expected unprocessable when another review won, got %v", err)
	}
}

func TestListValidatesStatus(t *testing.T) {
	svc, r := newTestService(
		entity.PremiumRequest{ID: "r1"},
		entity.PremiumRequest{ID: "r2", Status: "rejected"},
	)

	got, err := svc.List(context.Background(), "PENDING")
	if err != nil || len(got) != 1 || got[0].ID != "r1" {
		t.Fatalf("unexpected list %+v %v", got, err)
	}
	if r.lastStatus != entity.PremiumPending {
		t.Fatalf("expected normalized status, got %q", r.lastStatus)
	}
	if _, err := svc.List(context.Background(), "someday"); !errorbank.IsKind(err, errorbank.KindBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	svc, _ := newTestService(entity.PremiumRequest{ID: "r1"})
	if err := svc.Delete(context.Background(), "r1"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if err := svc.Delete(context.Background(), "r1"); !errorbank.IsKind(err, errorbank.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGenerateCodeFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^PREM-[A-Z0-9]{8}$`)
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := GenerateCode()
		if err != nil {
			t.Fatalf("GenerateCode returned error: %v", err)
		}
		if !pattern.MatchString(code) {
			t.Fatalf("unexpected code format %q", code)
		}
		seen[code] = true
	}
	if len(seen) < 45 {
		t.Fatalf("codes should not repeat often, got %d distinct of 50", len(seen))
	}
}
