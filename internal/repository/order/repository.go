package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/bistro/internal/database"
	"github.com/Additional-Code/bistro/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/bistro/repository/order")

// ErrNotFound is returned when an order is missing.
var ErrNotFound = errors.New("order not found")

// Repository encapsulates read/write access for orders and their lines.
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

// Create persists a new order and its lines, then derives the human-readable
// number from the assigned id. Must run inside a transaction.
func (r *Repository) Create(ctx context.Context, order *entity.Order) error {
	if order == nil {
		return errors.New("nil order")
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Create")
	defer span.End()

	db := database.FromContext(ctx, r.writer)

	if _, err := db.NewInsert().Model(order).Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert order failed")
		return err
	}

	order.Number = fmt.Sprintf("ORD-%06d", order.ID)
	if _, err := db.NewUpdate().Model(order).
		Column("number").
		WherePK().
		Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "set number failed")
		return err
	}

	for _, line := range order.Lines {
		line.OrderID = order.ID
	}
	if len(order.Lines) > 0 {
		if _, err := db.NewInsert().Model(&order.Lines).Exec(ctx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "insert lines failed")
			return err
		}
	}
	return nil
}

// GetByID fetches an order with its lines using the read replica when no
// transaction is in flight.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	db := database.FromContext(ctx, r.reader)

	order := new(entity.Order)
	err := db.NewSelect().Model(order).
		Relation("Lines").
		Where("\"order\".id = ?", id).
		Scan(ctx)
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

// GetByIDForUpdate locks the order row for the duration of the ambient
// transaction. Settlement uses it to close the race between concurrent
// completion triggers.
func (r *Repository) GetByIDForUpdate(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetByIDForUpdate", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	db := database.FromContext(ctx, r.writer)

	order := new(entity.Order)
	err := db.NewSelect().Model(order).
		Where("\"order\".id = ?", id).
		For("UPDATE").
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}

	err = db.NewSelect().Model(&order.Lines).
		Where("order_id = ?", id).
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select lines failed")
		return nil, err
	}
	return order, nil
}

// OpenOrderIDByTable returns the id of a non-terminal order attached to the
// table, or ErrNotFound when the table has no open order.
func (r *Repository) OpenOrderIDByTable(ctx context.Context, tableID int64) (int64, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.OpenOrderIDByTable", trace.WithAttributes(attribute.Int64("table.id", tableID)))
	defer span.End()

	db := database.FromContext(ctx, r.writer)

	var id int64
	err := db.NewSelect().Model((*entity.Order)(nil)).
		Column("id").
		Where("table_id = ?", tableID).
		Where("status NOT IN (?)", bun.In([]entity.OrderStatus{entity.OrderCompleted, entity.OrderCancelled})).
		OrderExpr("id DESC").
		Limit(1).
		Scan(ctx, &id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return 0, err
	}
	return id, nil
}

// UpdateStatus writes a new order status.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status entity.OrderStatus) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.UpdateStatus", trace.WithAttributes(
		attribute.Int64("order.id", id),
		attribute.String("order.status", string(status)),
	))
	defer span.End()

	db := database.FromContext(ctx, r.writer)

	_, err := db.NewUpdate().Model((*entity.Order)(nil)).
		Set("status = ?", status).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
	}
	return err
}

// LinesByIDs loads order lines by primary key.
func (r *Repository) LinesByIDs(ctx context.Context, ids []int64) ([]*entity.OrderLine, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.LinesByIDs")
	defer span.End()

	db := database.FromContext(ctx, r.writer)

	var lines []*entity.OrderLine
	err := db.NewSelect().Model(&lines).
		Where("id IN (?)", bun.In(ids)).
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return lines, nil
}

// UpdateLineStatuses sets the status for the given line ids.
func (r *Repository) UpdateLineStatuses(ctx context.Context, ids []int64, status entity.LineStatus) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.UpdateLineStatuses", trace.WithAttributes(
		attribute.Int("line.count", len(ids)),
		attribute.String("line.status", string(status)),
	))
	defer span.End()

	db := database.FromContext(ctx, r.writer)

	_, err := db.NewUpdate().Model((*entity.OrderLine)(nil)).
		Set("status = ?", status).
		Where("id IN (?)", bun.In(ids)).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
	}
	return err
}

// LinesByOrder loads every line of an order.
func (r *Repository) LinesByOrder(ctx context.Context, orderID int64) ([]*entity.OrderLine, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.LinesByOrder", trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	db := database.FromContext(ctx, r.reader)

	var lines []*entity.OrderLine
	err := db.NewSelect().Model(&lines).
		Where("order_id = ?", orderID).
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return lines, nil
}
