package inventory

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/bistro/internal/database"
	"github.com/Additional-Code/bistro/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/bistro/repository/inventory")

// ErrNotFound is returned when a raw material is missing.
var ErrNotFound = errors.New("raw material not found")

// Repository mutates and reads raw material stock.
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

// AdjustStock applies a signed relative adjustment to a material's stock.
// The update is relative on purpose: concurrent settlements touching the
// same ingredient must not lose each other's deductions.
func (r *Repository) AdjustStock(ctx context.Context, materialID int64, delta decimal.Decimal) error {
	ctx, span := repoTracer.Start(ctx, "InventoryRepository.AdjustStock", trace.WithAttributes(
		attribute.Int64("material.id", materialID),
		attribute.String("delta", delta.String()),
	))
	defer span.End()

	db := database.FromContext(ctx, r.writer)

	res, err := db.NewUpdate().Model((*entity.RawMaterial)(nil)).
		Set("stock = stock + ?", delta).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("id = ?", materialID).
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

// RecordMovement appends one audit row for a stock adjustment.
func (r *Repository) RecordMovement(ctx context.Context, movement *entity.StockMovement) error {
	ctx, span := repoTracer.Start(ctx, "InventoryRepository.RecordMovement", trace.WithAttributes(
		attribute.Int64("material.id", movement.MaterialID),
		attribute.String("reason", movement.Reason),
	))
	defer span.End()

	db := database.FromContext(ctx, r.writer)

	_, err := db.NewInsert().Model(movement).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// CurrentStock returns the stock level for one material.
func (r *Repository) CurrentStock(ctx context.Context, materialID int64) (decimal.Decimal, error) {
	ctx, span := repoTracer.Start(ctx, "InventoryRepository.CurrentStock", trace.WithAttributes(attribute.Int64("material.id", materialID)))
	defer span.End()

	db := database.FromContext(ctx, r.reader)

	var stock decimal.Decimal
	err := db.NewSelect().Model((*entity.RawMaterial)(nil)).
		Column("stock").
		Where("id = ?", materialID).
		Scan(ctx, &stock)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return decimal.Zero, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return decimal.Zero, err
	}
	return stock, nil
}

// List returns all materials with current stock, for the reporting surface.
func (r *Repository) List(ctx context.Context) ([]*entity.RawMaterial, error) {
	ctx, span := repoTracer.Start(ctx, "InventoryRepository.List")
	defer span.End()

	db := database.FromContext(ctx, r.reader)

	var materials []*entity.RawMaterial
	err := db.NewSelect().Model(&materials).Order("name").Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return materials, nil
}

// BelowReorderLevel returns materials whose stock sits at or under their
// configured reorder level.
func (r *Repository) BelowReorderLevel(ctx context.Context) ([]*entity.RawMaterial, error) {
	ctx, span := repoTracer.Start(ctx, "InventoryRepository.BelowReorderLevel")
	defer span.End()

	db := database.FromContext(ctx, r.reader)

	var materials []*entity.RawMaterial
	err := db.NewSelect().Model(&materials).
		Where("stock <= reorder_level").
		Order("name").
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return materials, nil
}
