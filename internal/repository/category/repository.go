package category

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

var repoTracer = otel.Tracer("github.com/bigp7952/siggil-sub002/repository/category")

// ErrNotFound is returned when a category is missing.
var ErrNotFound = errors.New("category not found")

// Repository encapsulates read/write access for the categories table.
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

// List returns every category ordered for display.
func (r *Repository) List(ctx context.Context) ([]entity.Category, error) {
	ctx, span := repoTracer.Start(ctx, "CategoryRepository.List")
	defer span.End()

	var categories []entity.Category
	err := r.reader.NewSelect().Model(&categories).
		OrderExpr("sort_order ASC").
		OrderExpr("name ASC").
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return categories, nil
}

// GetByID fetches a category by primary key.
func (r *Repository) GetByID(ctx context.Context, id string) (*entity.Category, error) {
	ctx, span := repoTracer.Start(ctx, "CategoryRepository.GetByID", trace.WithAttributes(attribute.String("category.id", id)))
	defer span.End()

	category := new(entity.Category)
	err := r.reader.NewSelect().Model(category).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return category, nil
}

// Create inserts a new category.
func (r *Repository) Create(ctx context.Context, category *entity.Category) error {
	if category == nil {
		return errors.New("nil category")
	}
	ctx, span := repoTracer.Start(ctx, "CategoryRepository.Create", trace.WithAttributes(attribute.String("category.name", category.Name)))
	defer span.End()

	if _, err := r.writer.NewInsert().Model(category).Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	return nil
}

// Update rewrites the whole category row.
func (r *Repository) Update(ctx context.Context, category *entity.Category) error {
	if category == nil {
		return errors.New("nil category")
	}
	ctx, span := repoTracer.Start(ctx, "CategoryRepository.Update", trace.WithAttributes(attribute.String("category.id", category.ID)))
	defer span.End()

	res, err := r.writer.NewUpdate().Model(category).
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

// Delete removes a category by id.
func (r *Repository) Delete(ctx context.Context, id string) error {
	ctx, span := repoTracer.Start(ctx, "CategoryRepository.Delete", trace.WithAttributes(attribute.String("category.id", id)))
	defer span.End()

	res, err := r.writer.NewDelete().Model((*entity.Category)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return err
	}
	return database.RequireAffected(res, ErrNotFound)
}

// Count returns the number of categories.
func (r *Repository) Count(ctx context.Context) (int, error) {
	ctx, span := repoTracer.Start(ctx, "CategoryRepository.Count")
	defer span.End()

	n, err := r.reader.NewSelect().Model((*entity.Category)(nil)).Count(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count failed")
	}
	return n, err
}
