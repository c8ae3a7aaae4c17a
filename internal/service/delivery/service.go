package delivery

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Additional-Code/bistro/internal/database"
	"github.com/Additional-Code/bistro/internal/entity"
	"github.com/Additional-Code/bistro/internal/observability"
	deliveryrepo "github.com/Additional-Code/bistro/internal/repository/delivery"
	"github.com/Additional-Code/bistro/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/bistro/service/delivery")

// Store is the slice of the delivery repository this service consumes.
type Store interface {
	GetByID(ctx context.Context, id int64) (*entity.Delivery, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*entity.Delivery, error)
	List(ctx context.Context, status entity.DeliveryStatus) ([]*entity.Delivery, error)
	UpdateStatus(ctx context.Context, id int64, status entity.DeliveryStatus, driverID *int64) error
	MarkHandedOver(ctx context.Context, id int64, at time.Time) error
}

// Settler completes the underlying order's financials.
type Settler interface {
	Settle(ctx context.Context, orderID int64, paymentMethod string) error
}

// TxRunner runs a closure inside one database transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Deps collects the collaborators the delivery service needs.
type Deps struct {
	Runner     TxRunner
	Deliveries Store
	Settler    Settler
	Logger     *zap.Logger
}

// Service drives the delivery sub-workflow. A delivered order stays open
// until the driver's cash is handed over; handover is the sole trigger that
// settles a delivery order.
type Service struct {
	deps Deps
}

// New constructs the delivery service.
func New(deps Deps) *Service {
	return &Service{deps: deps}
}

// Get fetches one delivery.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Delivery, error) {
	ctx, span := serviceTracer.Start(ctx, "DeliveryService.Get", trace.WithAttributes(attribute.Int64("delivery.id", id)))
	defer span.End()

	d, err := s.deps.Deliveries.GetByID(ctx, id)
	if errors.Is(err, deliveryrepo.ErrNotFound) {
		return nil, errorbank.NotFound("delivery not found")
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load delivery", errorbank.WithCause(err))
	}
	return d, nil
}

// List returns deliveries, optionally filtered by status.
func (s *Service) List(ctx context.Context, status entity.DeliveryStatus) ([]*entity.Delivery, error) {
	ctx, span := serviceTracer.Start(ctx, "DeliveryService.List")
	defer span.End()

	deliveries, err := s.deps.Deliveries.List(ctx, status)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to list deliveries", errorbank.WithCause(err))
	}
	return deliveries, nil
}

// Assign binds a driver. Legal from pending (first assignment) and from
// assigned (re-assignment to a different driver).
func (s *Service) Assign(ctx context.Context, deliveryID, driverID int64) error {
	ctx, span := serviceTracer.Start(ctx, "DeliveryService.Assign", trace.WithAttributes(
		attribute.Int64("delivery.id", deliveryID),
		attribute.Int64("driver.id", driverID),
	))
	defer span.End()

	return s.transition(ctx, span, deliveryID, entity.DeliveryAssigned, &driverID,
		entity.DeliveryPending, entity.DeliveryAssigned)
}

// PickUp marks the driver as on the road.
func (s *Service) PickUp(ctx context.Context, deliveryID int64) error {
	ctx, span := serviceTracer.Start(ctx, "DeliveryService.PickUp", trace.WithAttributes(attribute.Int64("delivery.id", deliveryID)))
	defer span.End()

	return s.transition(ctx, span, deliveryID, entity.DeliveryOnTheWay, nil, entity.DeliveryAssigned)
}

// Complete records that the customer received the order. Settlement does not
// run here: the cash is still in the driver's pocket.
func (s *Service) Complete(ctx context.Context, deliveryID int64) error {
	ctx, span := serviceTracer.Start(ctx, "DeliveryService.Complete", trace.WithAttributes(attribute.Int64("delivery.id", deliveryID)))
	defer span.End()

	return s.transition(ctx, span, deliveryID, entity.DeliveryDelivered, nil, entity.DeliveryOnTheWay)
}

// Cancel aborts a delivery that has not left the building.
func (s *Service) Cancel(ctx context.Context, deliveryID int64) error {
	ctx, span := serviceTracer.Start(ctx, "DeliveryService.Cancel", trace.WithAttributes(attribute.Int64("delivery.id", deliveryID)))
	defer span.End()

	return s.transition(ctx, span, deliveryID, entity.DeliveryCancelled, nil,
		entity.DeliveryPending, entity.DeliveryAssigned)
}

func (s *Service) transition(ctx context.Context, span trace.Span, id int64, target entity.DeliveryStatus, driverID *int64, from ...entity.DeliveryStatus) error {
	err := s.deps.Runner.RunInTx(ctx, func(ctx context.Context) error {
		d, err := s.deps.Deliveries.GetByIDForUpdate(ctx, id)
		if errors.Is(err, deliveryrepo.ErrNotFound) {
			return errorbank.NotFound("delivery not found")
		}
		if err != nil {
			return errorbank.Internal("failed to load delivery", errorbank.WithCause(err))
		}
		allowed := false
		for _, f := range from {
			if d.Status == f {
				allowed = true
				break
			}
		}
		if !allowed {
			return errorbank.Conflict("illegal delivery transition",
				errorbank.WithDetail("from", string(d.Status)),
				errorbank.WithDetail("to", string(target)))
		}
		if err := s.deps.Deliveries.UpdateStatus(ctx, id, target, driverID); err != nil {
			return errorbank.Internal("failed to update delivery", errorbank.WithCause(err))
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transition failed")
	}
	return err
}

// HandOverCash releases cash custody for a batch of deliveries and settles
// each underlying order, all in one transaction. Already handed-over
// deliveries are skipped; settlement itself is idempotent, so repeating the
// call is harmless.
func (s *Service) HandOverCash(ctx context.Context, deliveryIDs []int64) error {
	ctx, span := serviceTracer.Start(ctx, "DeliveryService.HandOverCash", trace.WithAttributes(attribute.Int("delivery.count", len(deliveryIDs))))
	defer span.End()

	if len(deliveryIDs) == 0 {
		return errorbank.BadRequest("no deliveries given")
	}

	err := s.deps.Runner.RunInTx(ctx, func(ctx context.Context) error {
		handed := 0
		now := time.Now().UTC()
		for _, id := range deliveryIDs {
			d, err := s.deps.Deliveries.GetByIDForUpdate(ctx, id)
			if errors.Is(err, deliveryrepo.ErrNotFound) {
				return errorbank.NotFound("delivery not found", errorbank.WithDetail("delivery_id", id))
			}
			if err != nil {
				return errorbank.Internal("failed to load delivery", errorbank.WithCause(err))
			}
			if d.IsCashHandedOver {
				continue
			}
			if d.Status != entity.DeliveryDelivered {
				return errorbank.Conflict("delivery has not been completed",
					errorbank.WithDetail("delivery_id", id),
					errorbank.WithDetail("status", string(d.Status)))
			}
			if err := s.deps.Deliveries.MarkHandedOver(ctx, id, now); err != nil {
				return errorbank.Internal("failed to mark handover", errorbank.WithCause(err))
			}
			if err := s.deps.Settler.Settle(ctx, d.OrderID, entity.PaymentCash); err != nil {
				return err
			}
			handed++
			if s.deps.Logger != nil {
				s.deps.Logger.Info("delivery cash handed over",
					zap.Int64("delivery_id", id),
					zap.Int64("order_id", d.OrderID),
				)
			}
		}
		if handed > 0 {
			n := handed
			database.AfterCommit(ctx, func(context.Context) {
				observability.CashHandovers.Add(float64(n))
			})
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "handover failed")
		return err
	}
	return nil
}
