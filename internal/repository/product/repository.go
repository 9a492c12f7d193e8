package product

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/bigp7952/siggil-sub002/internal/database"
	"github.com/bigp7952/siggil-sub002/internal/entity"
)

var repoTracer = otel.Tracer("github.com/bigp7952/siggil-sub002/repository/product")

// ErrNotFound is returned when a product is missing.
var ErrNotFound = errors.New("product not found")

// Repository encapsulates read/write access for the products table.
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

// List returns every product, newest first.
func (r *Repository) List(ctx context.Context) ([]entity.Product, error) {
	ctx, span := repoTracer.Start(ctx, "ProductRepository.List")
	defer span.End()

	var products []entity.Product
	if err := r.reader.NewSelect().Model(&products).OrderExpr("created_at DESC").Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return products, nil
}

// GetByID fetches a product by primary key.
func (r *Repository) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	ctx, span := repoTracer.Start(ctx, "ProductRepository.GetByID", trace.WithAttributes(attribute.String("product.id", id)))
	defer span.End()

	product := new(entity.Product)
	err := r.reader.NewSelect().Model(product).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return product, nil
}

// Create inserts a new product.
func (r *Repository) Create(ctx context.Context, product *entity.Product) error {
	if product == nil {
		return errors.New("nil product")
	}
	ctx, span := repoTracer.Start(ctx, "ProductRepository.Create", trace.WithAttributes(attribute.String("product.name", product.Name)))
	defer span.End()

	if _, err := r.writer.NewInsert().Model(product).Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	return nil
}

// Update rewrites the whole product row.
func (r *Repository) Update(ctx context.Context, product *entity.Product) error {
	if product == nil {
		return errors.New("nil product")
	}
	ctx, span := repoTracer.Start(ctx, "ProductRepository.Update", trace.WithAttributes(attribute.String("product.id", product.ID)))
	defer span.End()

	res, err := r.writer.NewUpdate().Model(product).
		ExcludeColumn("created_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}
	return database.RequireAffected(res, ErrNotFound)
}

// AdjustStock adds delta to the stock of a product, flooring at zero, and
// returns the updated product with the stock it had before.
func (r *Repository) AdjustStock(ctx context.Context, id string, delta int) (*entity.Product, int, error) {
	ctx, span := repoTracer.Start(ctx, "ProductRepository.AdjustStock", trace.WithAttributes(
		attribute.String("product.id", id),
		attribute.Int("stock.delta", delta),
	))
	defer span.End()

	product := new(entity.Product)
	var previous int
	err := r.writer.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		q := tx.NewSelect().Model(product).Where("id = ?", id)
		// sqlite has no row locks; its single writer serializes the transaction.
		if tx.Dialect().Name() != dialect.SQLite {
			q = q.For("UPDATE")
		}
		err := q.Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		previous = product.Stock
		product.Stock = max(product.Stock+delta, 0)
		product.UpdatedAt = time.Now().UTC()

		_, err = tx.NewUpdate().Model(product).
			Column("stock", "updated_at").
			WherePK().
			Exec(ctx)
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			span.RecordError(err)
		}
		span.SetStatus(codes.Error, "adjust stock failed")
		return nil, 0, err
	}
	return product, previous, nil
}

// SetActive toggles the visibility flag of a product.
func (r *Repository) SetActive(ctx context.Context, id string, active bool) error {
	ctx, span := repoTracer.Start(ctx, "ProductRepository.SetActive", trace.WithAttributes(
		attribute.String("product.id", id),
		attribute.Bool("product.active", active),
	))
	defer span.End()

	res, err := r.writer.NewUpdate().Model((*entity.Product)(nil)).
		Set("is_active = ?", active).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}
	return database.RequireAffected(res, ErrNotFound)
}

// Delete removes a product by id.
func (r *Repository) Delete(ctx context.Context, id string) error {
	ctx, span := repoTracer.Start(ctx, "ProductRepository.Delete", trace.WithAttributes(attribute.String("product.id", id)))
	defer span.End()

	res, err := r.writer.NewDelete().Model((*entity.Product)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return err
	}
	return database.RequireAffected(res, ErrNotFound)
}

// CountByCategory returns how many products reference the category name.
func (r *Repository) CountByCategory(ctx context.Context, category string) (int, error) {
	ctx, span := repoTracer.Start(ctx, "ProductRepository.CountByCategory", trace.WithAttributes(attribute.String("product.category", category)))
	defer span.End()

	n, err := r.reader.NewSelect().Model((*entity.Product)(nil)).Where("category = ?", category).Count(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count failed")
	}
	return n, err
}

// RenameCategory moves every product of category from to category to.
func (r *Repository) RenameCategory(ctx context.Context, from, to string) (int64, error) {
	ctx, span := repoTracer.Start(ctx, "ProductRepository.RenameCategory", trace.WithAttributes(
		attribute.String("category.from", from),
		attribute.String("category.to", to),
	))
	defer span.End()

	res, err := r.writer.NewUpdate().Model((*entity.Product)(nil)).
		Set("category = ?", to).
		Set("updated_at = ?", time.Now().UTC()).
		Where("category = ?", from).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return 0, err
	}
	return res.RowsAffected()
}
