package billing

import (
	"context"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/bistro/internal/database"
	"github.com/Additional-Code/bistro/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/bistro/repository/billing")

// UnsettledBill pairs an unsettled bill with the driver holding its cash,
// when the bill came from a delivery order. A nil driver means the till pool.
type UnsettledBill struct {
	Bill     *entity.Bill
	DriverID *int64
}

// Repository encapsulates access to the revenue ledger.
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

// ExistsForOrder reports whether a bill already exists for the order. Runs on
// the writer so the check participates in the settlement transaction.
func (r *Repository) ExistsForOrder(ctx context.Context, orderID int64) (bool, error) {
	ctx, span := repoTracer.Start(ctx, "BillingRepository.ExistsForOrder", trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	db := database.FromContext(ctx, r.writer)

	exists, err := db.NewSelect().Model((*entity.Bill)(nil)).
		Where("order_id = ?", orderID).
		Exists(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return false, err
	}
	return exists, nil
}

// Create inserts one bill.
func (r *Repository) Create(ctx context.Context, bill *entity.Bill) error {
	ctx, span := repoTracer.Start(ctx, "BillingRepository.Create", trace.WithAttributes(attribute.Int64("order.id", bill.OrderID)))
	defer span.End()

	db := database.FromContext(ctx, r.writer)

	_, err := db.NewInsert().Model(bill).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// Unsettled returns every bill with is_settled = false together with the
// delivery driver reference when one applies.
func (r *Repository) Unsettled(ctx context.Context) ([]UnsettledBill, error) {
	ctx, span := repoTracer.Start(ctx, "BillingRepository.Unsettled")
	defer span.End()

	db := database.FromContext(ctx, r.reader)

	var bills []*entity.Bill
	if err := db.NewSelect().Model(&bills).
		Where("is_settled = ?", false).
		Order("id").
		Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select bills failed")
		return nil, err
	}
	if len(bills) == 0 {
		return nil, nil
	}

	orderIDs := make([]int64, 0, len(bills))
	for _, b := range bills {
		orderIDs = append(orderIDs, b.OrderID)
	}

	var deliveries []*entity.Delivery
	if err := db.NewSelect().Model(&deliveries).
		Where("order_id IN (?)", bun.In(orderIDs)).
		Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select deliveries failed")
		return nil, err
	}
	driverByOrder := make(map[int64]*int64, len(deliveries))
	for _, d := range deliveries {
		driverByOrder[d.OrderID] = d.DriverID
	}

	out := make([]UnsettledBill, 0, len(bills))
	for _, b := range bills {
		out = append(out, UnsettledBill{Bill: b, DriverID: driverByOrder[b.OrderID]})
	}
	return out, nil
}

// GetByIDs loads bills by primary key, locked for update inside the ambient
// transaction.
func (r *Repository) GetByIDs(ctx context.Context, ids []int64) ([]*entity.Bill, error) {
	ctx, span := repoTracer.Start(ctx, "BillingRepository.GetByIDs", trace.WithAttributes(attribute.Int("bill.count", len(ids))))
	defer span.End()

	db := database.FromContext(ctx, r.writer)

	var bills []*entity.Bill
	err := db.NewSelect().Model(&bills).
		Where("id IN (?)", bun.In(ids)).
		For("UPDATE").
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return bills, nil
}

// MarkSettled flips is_settled for the given bills, skipping rows already
// settled so repeated reconciliation runs stay harmless. It reports how many
// rows actually flipped.
func (r *Repository) MarkSettled(ctx context.Context, ids []int64, at time.Time) (int64, error) {
	ctx, span := repoTracer.Start(ctx, "BillingRepository.MarkSettled", trace.WithAttributes(attribute.Int("bill.count", len(ids))))
	defer span.End()

	db := database.FromContext(ctx, r.writer)

	res, err := db.NewUpdate().Model((*entity.Bill)(nil)).
		Set("is_settled = ?", true).
		Set("settled_at = ?", at).
		Where("id IN (?)", bun.In(ids)).
		Where("is_settled = ?", false).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	return affected, nil
}
