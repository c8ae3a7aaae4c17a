package delivery

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

var repoTracer = otel.Tracer("github.com/Additional-Code/bistro/repository/delivery")

// ErrNotFound is returned when a delivery is missing.
var ErrNotFound = errors.New("delivery not found")

// Repository encapsulates read/write access for deliveries.
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

// Create inserts a new delivery record.
func (r *Repository) Create(ctx context.Context, d *entity.Delivery) error {
	ctx, span := repoTracer.Start(ctx, "DeliveryRepository.Create", trace.WithAttributes(attribute.Int64("order.id", d.OrderID)))
	defer span.End()

	db := database.FromContext(ctx, r.writer)

	_, err := db.NewInsert().Model(d).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// GetByID fetches one delivery.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.Delivery, error) {
	ctx, span := repoTracer.Start(ctx, "DeliveryRepository.GetByID", trace.WithAttributes(attribute.Int64("delivery.id", id)))
	defer span.End()

	db := database.FromContext(ctx, r.reader)

	d := new(entity.Delivery)
	err := db.NewSelect().Model(d).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return d, nil
}

// GetByIDForUpdate locks one delivery row inside the ambient transaction.
func (r *Repository) GetByIDForUpdate(ctx context.Context, id int64) (*entity.Delivery, error) {
	ctx, span := repoTracer.Start(ctx, "DeliveryRepository.GetByIDForUpdate", trace.WithAttributes(attribute.Int64("delivery.id", id)))
	defer span.End()

	db := database.FromContext(ctx, r.writer)

	d := new(entity.Delivery)
	err := db.NewSelect().Model(d).Where("id = ?", id).For("UPDATE").Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return d, nil
}

// ByOrderID fetches the delivery attached to an order, locked when a
// transaction is ambient.
func (r *Repository) ByOrderID(ctx context.Context, orderID int64) (*entity.Delivery, error) {
	ctx, span := repoTracer.Start(ctx, "DeliveryRepository.ByOrderID", trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	db := database.FromContext(ctx, r.writer)

	d := new(entity.Delivery)
	err := db.NewSelect().Model(d).Where("order_id = ?", orderID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return d, nil
}

// List returns deliveries filtered by status when one is given.
func (r *Repository) List(ctx context.Context, status entity.DeliveryStatus) ([]*entity.Delivery, error) {
	ctx, span := repoTracer.Start(ctx, "DeliveryRepository.List")
	defer span.End()

	db := database.FromContext(ctx, r.reader)

	var deliveries []*entity.Delivery
	q := db.NewSelect().Model(&deliveries).Order("id")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return deliveries, nil
}

// UpdateStatus writes a new delivery status and optionally the driver.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status entity.DeliveryStatus, driverID *int64) error {
	ctx, span := repoTracer.Start(ctx, "DeliveryRepository.UpdateStatus", trace.WithAttributes(
		attribute.Int64("delivery.id", id),
		attribute.String("delivery.status", string(status)),
	))
	defer span.End()

	db := database.FromContext(ctx, r.writer)

	q := db.NewUpdate().Model((*entity.Delivery)(nil)).
		Set("status = ?", status).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id)
	if driverID != nil {
		q = q.Set("driver_id = ?", *driverID)
	}
	if _, err := q.Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}
	return nil
}

// MarkHandedOver records the cash handover timestamp.
func (r *Repository) MarkHandedOver(ctx context.Context, id int64, at time.Time) error {
	ctx, span := repoTracer.Start(ctx, "DeliveryRepository.MarkHandedOver", trace.WithAttributes(attribute.Int64("delivery.id", id)))
	defer span.End()

	db := database.FromContext(ctx, r.writer)

	_, err := db.NewUpdate().Model((*entity.Delivery)(nil)).
		Set("is_cash_handed_over = ?", true).
		Set("handed_over_at = ?", at).
		Set("updated_at = ?", at).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
	}
	return err
}
