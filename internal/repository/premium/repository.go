package premium

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/bigp7952/siggil-sub002/internal/database"
	"github.com/bigp7952/siggil-sub002/internal/entity"
)

var repoTracer = otel.Tracer("github.com/bigp7952/siggil-sub002/repository/premium")

// ErrNotFound is returned when a premium request is missing.
var ErrNotFound = errors.New("premium request not found")

// Repository encapsulates read/write access for premium requests.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// List returns premium requests, newest first, optionally limited to one status.
func (r *Repository) List(ctx context.Context, status entity.PremiumStatus) ([]entity.PremiumRequest, error) {
	ctx, span := repoTracer.Start(ctx, "PremiumRepository.List", trace.WithAttributes(attribute.String("premium.status", string(status))))
	defer span.End()

	var requests []entity.PremiumRequest
	q := r.reader.NewSelect().Model(&requests).OrderExpr("created_at DESC")
	switch status {
	case "":
	case entity.PremiumPending:
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("status = ?", string(status)).WhereOr("status IS NULL").WhereOr("status = ''")
		})
	default:
		q = q.Where("status = ?", string(status))
	}
	if err := q.Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return requests, nil
}

// GetByID fetches a premium request by primary key.
func (r *Repository) GetByID(ctx context.Context, id string) (*entity.PremiumRequest, error) {
	ctx, span := repoTracer.Start(ctx, "PremiumRepository.GetByID", trace.WithAttributes(attribute.String("premium.id", id)))
	defer span.End()

	request := new(entity.PremiumRequest)
	err := r.reader.NewSelect().Model(request).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return request, nil
}

// Create inserts a premium request.
func (r *Repository) Create(ctx context.Context, request *entity.PremiumRequest) error {
	if request == nil {
		return errors.New("nil premium request")
	}
	ctx, span := repoTracer.Start(ctx, "PremiumRepository.Create")
	defer span.End()

	if _, err := r.writer.NewInsert().Model(request).Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	return nil
}

// SaveReview persists the outcome of a review. The row is only touched while it
// is still pending, so two admins cannot review the same request.
func (r *Repository) SaveReview(ctx context.Context, request *entity.PremiumRequest) (bool, error) {
	if request == nil {
		return false, errors.New("nil premium request")
	}
	ctx, span := repoTracer.Start(ctx, "PremiumRepository.SaveReview", trace.WithAttributes(
		attribute.String("premium.id", request.ID),
		attribute.String("premium.status", request.Status),
	))
	defer span.End()

	res, err := r.writer.NewUpdate().Model(request).
		Column("status", "premium_code", "rejection_reason", "reviewed_at", "updated_at").
		WherePK().
		WhereGroup(" AND ", func(q *bun.UpdateQuery) *bun.UpdateQuery {
			return q.Where("status = ?", string(entity.PremiumPending)).WhereOr("status IS NULL").WhereOr("status = ''")
		}).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Delete removes a premium request by id.
func (r *Repository) Delete(ctx context.Context, id string) error {
	ctx, span := repoTracer.Start(ctx, "PremiumRepository.Delete", trace.WithAttributes(attribute.String("premium.id", id)))
	defer span.End()

	res, err := r.writer.NewDelete().Model((*entity.PremiumRequest)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return err
	}
	return database.RequireAffected(res, ErrNotFound)
}

// CountPending returns the number of requests awaiting review.
func (r *Repository) CountPending(ctx context.Context) (int, error) {
	ctx, span := repoTracer.Start(ctx, "PremiumRepository.CountPending")
	defer span.End()

	n, err := r.reader.NewSelect().Model((*entity.PremiumRequest)(nil)).
		Where("status = ?", string(entity.PremiumPending)).
		WhereOr("status IS NULL").
		WhereOr("status = ''").
		Count(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count failed")
	}
	return n, err
}
