package table

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Additional-Code/bistro/internal/entity"
	orderrepo "github.com/Additional-Code/bistro/internal/repository/order"
	tablerepo "github.com/Additional-Code/bistro/internal/repository/table"
	"github.com/Additional-Code/bistro/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/bistro/service/table")

// Store is the slice of the table repository this service consumes.
type Store interface {
	GetByIDForUpdate(ctx context.Context, id int64) (*entity.Table, error)
	List(ctx context.Context) ([]*entity.Table, error)
	SetStatus(ctx context.Context, id int64, status entity.TableStatus) error
}

// OrderFinder locates the open order on a table.
type OrderFinder interface {
	OpenOrderIDByTable(ctx context.Context, tableID int64) (int64, error)
}

// Settler completes an order's financials.
type Settler interface {
	Settle(ctx context.Context, orderID int64, paymentMethod string) error
}

// TxRunner runs a closure inside one database transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Deps collects the collaborators the table service needs.
type Deps struct {
	Runner TxRunner
	Tables Store
	Orders OrderFinder
	Settler Settler
	Logger *zap.Logger
}

// Service manages floor-plan table state. Freeing an occupied table is a
// settlement trigger for any order still open on it.
type Service struct {
	deps Deps
}

// New constructs the table service.
func New(deps Deps) *Service {
	return &Service{deps: deps}
}

// List returns the floor plan.
func (s *Service) List(ctx context.Context) ([]*entity.Table, error) {
	ctx, span := serviceTracer.Start(ctx, "TableService.List")
	defer span.End()

	tables, err := s.deps.Tables.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to list tables", errorbank.WithCause(err))
	}
	return tables, nil
}

// SetStatus applies a table status change. Turning over an occupied table
// first settles its open order inside the same transaction, so the table
// cannot be freed while the order's financials are unbooked.
func (s *Service) SetStatus(ctx context.Context, tableID int64, target entity.TableStatus) error {
	ctx, span := serviceTracer.Start(ctx, "TableService.SetStatus", trace.WithAttributes(
		attribute.Int64("table.id", tableID),
		attribute.String("table.status", string(target)),
	))
	defer span.End()

	err := s.deps.Runner.RunInTx(ctx, func(ctx context.Context) error {
		t, err := s.deps.Tables.GetByIDForUpdate(ctx, tableID)
		if errors.Is(err, tablerepo.ErrNotFound) {
			return errorbank.NotFound("table not found")
		}
		if err != nil {
			return errorbank.Internal("failed to load table", errorbank.WithCause(err))
		}

		if t.Status == entity.TableOccupied && target != entity.TableOccupied {
			orderID, err := s.deps.Orders.OpenOrderIDByTable(ctx, tableID)
			switch {
			case errors.Is(err, orderrepo.ErrNotFound):
				// Nothing open; just flip the status.
			case err != nil:
				return errorbank.Internal("failed to find open order", errorbank.WithCause(err))
			default:
				if err := s.deps.Settler.Settle(ctx, orderID, entity.PaymentCash); err != nil {
					return err
				}
				if s.deps.Logger != nil {
					s.deps.Logger.Info("table turnover settled open order",
						zap.Int64("table_id", tableID),
						zap.Int64("order_id", orderID),
					)
				}
			}
		}

		return s.deps.Tables.SetStatus(ctx, tableID, target)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "status change failed")
	}
	return err
}
