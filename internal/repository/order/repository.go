package order

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/bigp7952/siggil-sub002/internal/database"
	"github.com/bigp7952/siggil-sub002/internal/entity"
)

var repoTracer = otel.Tracer("github.com/bigp7952/siggil-sub002/repository/order")

// ErrNotFound is returned when an order is missing.
var ErrNotFound = errors.New("order not found")

// Repository encapsulates read/write access for orders.
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

// List returns every order, newest first.
func (r *Repository) List(ctx context.Context) ([]entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.List")
	defer span.End()

	var orders []entity.Order
	if err := r.reader.NewSelect().Model(&orders).OrderExpr("created_at DESC").Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return orders, nil
}

// Create persists a new order using the write connection.
func (r *Repository) Create(ctx context.Context, order *entity.Order) error {
	if order == nil {
		return errors.New("nil order")
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Create", trace.WithAttributes(attribute.String("order.number", order.OrderNumber)))
	defer span.End()

	_, err := r.writer.NewInsert().Model(order).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// GetByID fetches an order by primary key using the read replica when available.
func (r *Repository) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetByID", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	order := new(entity.Order)
	err := r.reader.NewSelect().Model(order).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return order, nil
}

// UpdateStatus sets the status of an order.
func (r *Repository) UpdateStatus(ctx context.Context, id string, status entity.OrderStatus, at time.Time) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.UpdateStatus", trace.WithAttributes(
		attribute.String("order.id", id),
		attribute.String("order.status", string(status)),
	))
	defer span.End()

	res, err := r.writer.NewUpdate().Model((*entity.Order)(nil)).
		Set("status = ?", string(status)).
		Set("updated_at = ?", at).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}
	return database.RequireAffected(res, ErrNotFound)
}

// Delete removes an order by id.
func (r *Repository) Delete(ctx context.Context, id string) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Delete", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	res, err := r.writer.NewDelete().Model((*entity.Order)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return err
	}
	return database.RequireAffected(res, ErrNotFound)
}
