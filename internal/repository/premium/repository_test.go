package premium

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bigp7952/siggil-sub002/internal/database/dbtest"
	"github.com/bigp7952/siggil-sub002/internal/entity"
)

var base = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	conns := dbtest.New(t, (*entity.PremiumRequest)(nil))
	r := NewRepository(conns)

	ctx := context.Background()
	for i, req := range []entity.PremiumRequest{
		{ID: "r1", Email: "awa@example.com", Status: string(entity.PremiumPending), ProofImages: []string{"https://cdn.test/a.jpg"}},
		{ID: "r2", Email: "moussa@example.com", Status: ""},
		{ID: "r3", Email: "fatou@example.com", Status: string(entity.PremiumApproved), PremiumCode: "PREM-AAAA1111"},
		{ID: "r4", Email: "ibou@example.com", Status: string(entity.PremiumPending)},
	} {
		req.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		if err := r.Create(ctx, &req); err != nil {
			t.Fatalf("create %s: %v", req.ID, err)
		}
	}
	if _, err := conns.Writer.NewUpdate().Model((*entity.PremiumRequest)(nil)).
		Set("status = NULL").Where("id = ?", "r4").Exec(ctx); err != nil {
		t.Fatalf("null status: %v", err)
	}
	return r
}

func ids(requests []entity.PremiumRequest) []string {
	out := make([]string, len(requests))
	for i, r := range requests {
		out[i] = r.ID
	}
	return out
}

func TestListTreatsMissingStatusAsPending(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()

	all, err := r.List(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(all); len(got) != 4 || got[0] != "r4" || got[3] != "r1" {
		t.Fatalf("expected newest first, got %v", got)
	}
	if len(all[3].ProofImages) != 1 || all[3].ProofImages[0] != "https://cdn.test/a.jpg" {
		t.Fatalf("proof images not decoded: %+v", all[3].ProofImages)
	}

	pending, err := r.List(ctx, entity.PremiumPending)
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(pending); len(got) != 3 || got[0] != "r4" || got[1] != "r2" || got[2] != "r1" {
		t.Fatalf("unexpected pending list %v", got)
	}

	approved, err := r.List(ctx, entity.PremiumApproved)
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(approved); len(got) != 1 || got[0] != "r3" {
		t.Fatalf("unexpected approved list %v", got)
	}

	n, err := r.CountPending(ctx)
	if err != nil || n != 3 {
		t.Fatalf("expected 3 pending, got %d (%v)", n, err)
	}
}

func TestSaveReviewOnlyTouchesPendingRows(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()
	reviewedAt := base.Add(48 * time.Hour)

	approve := &entity.PremiumRequest{
		ID:          "r1",
		Status:      string(entity.PremiumApproved),
		PremiumCode: "PREM-ZZZZ9999",
		ReviewedAt:  &reviewedAt,
		UpdatedAt:   reviewedAt,
	}
	ok, err := r.SaveReview(ctx, approve)
	if err != nil || !ok {
		t.Fatalf("first review should apply, got %v %v", ok, err)
	}

	reject := &entity.PremiumRequest{ID: "r1", Status: string(entity.PremiumRejected), RejectionReason: "late", UpdatedAt: reviewedAt}
	ok, err = r.SaveReview(ctx, reject)
	if err != nil || ok {
		t.Fatalf("second review must be refused, got %v %v", ok, err)
	}

	got, err := r.GetByID(ctx, "r1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != string(entity.PremiumApproved) || got.PremiumCode != "PREM-ZZZZ9999" || got.RejectionReason != "" {
		t.Fatalf("review overwritten: %+v", got)
	}
	if got.ReviewedAt == nil || !got.ReviewedAt.Equal(reviewedAt) {
		t.Fatalf("unexpected reviewed_at %v", got.ReviewedAt)
	}

	for _, id := range []string{"r2", "r4"} {
		ok, err := r.SaveReview(ctx, &entity.PremiumRequest{ID: id, Status: string(entity.PremiumRejected), UpdatedAt: reviewedAt})
		if err != nil || !ok {
			t.Fatalf("request %s without status should be reviewable, got %v %v", id, ok, err)
		}
	}

	ok, err = r.SaveReview(ctx, &entity.PremiumRequest{ID: "r3", Status: string(entity.PremiumRejected)})
	if err != nil || ok {
		t.Fatalf("approved request must not be reviewed again, got %v %v", ok, err)
	}

	if n, err := r.CountPending(ctx); err != nil || n != 0 {
		t.Fatalf("expected no pending requests, got %d (%v)", n, err)
	}
}

func TestGetAndDeleteMissing(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()

	if _, err := r.GetByID(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := r.Delete(ctx, "r3"); err != nil {
		t.Fatal(err)
	}
	if err := r.Delete(ctx, "r3"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
