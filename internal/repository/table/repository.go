package table

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

	"github.com/Additional-Code/bistro/internal/database"
	"github.com/Additional-Code/bistro/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/bistro/repository/table")

// ErrNotFound is returned when a table is missing.
var ErrNotFound = errors.New("table not found")

// Repository encapsulates read/write access for tables.
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

// GetByIDForUpdate locks a table row inside the ambient transaction.
func (r *Repository) GetByIDForUpdate(ctx context.Context, id int64) (*entity.Table, error) {
	ctx, span := repoTracer.Start(ctx, "TableRepository.GetByIDForUpdate", trace.WithAttributes(attribute.Int64("table.id", id)))
	defer span.End()

	db := database.FromContext(ctx, r.writer)

	t := new(entity.Table)
	err := db.NewSelect().Model(t).Where("id = ?", id).For("UPDATE").Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return t, nil
}

// List returns every table for the floor plan.
func (r *Repository) List(ctx context.Context) ([]*entity.Table, error) {
	ctx, span := repoTracer.Start(ctx, "TableRepository.List")
	defer span.End()

	db := database.FromContext(ctx, r.reader)

	var tables []*entity.Table
	if err := db.NewSelect().Model(&tables).Order("number").Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return tables, nil
}

// SetStatus writes a table status.
func (r *Repository) SetStatus(ctx context.Context, id int64, status entity.TableStatus) error {
	ctx, span := repoTracer.Start(ctx, "TableRepository.SetStatus", trace.WithAttributes(
		attribute.Int64("table.id", id),
		attribute.String("table.status", string(status)),
	))
	defer span.End()

	db := database.FromContext(ctx, r.writer)

	res, err := db.NewUpdate().Model((*entity.Table)(nil)).
		Set("status = ?", status).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		span.SetStatus(codes.Error, "not found")
		return ErrNotFound
	}
	return nil
}
