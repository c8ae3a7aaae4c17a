package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Additional-Code/bistro/internal/cache"
	"github.com/Additional-Code/bistro/internal/database"
	"github.com/Additional-Code/bistro/internal/entity"
	"github.com/Additional-Code/bistro/internal/messaging"
	"github.com/Additional-Code/bistro/internal/observability"
	orderrepo "github.com/Additional-Code/bistro/internal/repository/order"
	"github.com/Additional-Code/bistro/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/bistro/service/settlement")

// OrderStore is the slice of the order repository settlement needs.
type OrderStore interface {
	GetByIDForUpdate(ctx context.Context, id int64) (*entity.Order, error)
	UpdateStatus(ctx context.Context, id int64, status entity.OrderStatus) error
}

// RecipeReader resolves recipes for settled lines.
type RecipeReader interface {
	RecipeFor(ctx context.Context, menuItemID int64) ([]*entity.RecipeIngredient, error)
}

// StockStore adjusts raw material stock and writes the audit trail.
type StockStore interface {
	AdjustStock(ctx context.Context, materialID int64, delta decimal.Decimal) error
	RecordMovement(ctx context.Context, movement *entity.StockMovement) error
}

// BillStore is the ledger slice settlement writes to.
type BillStore interface {
	ExistsForOrder(ctx context.Context, orderID int64) (bool, error)
	Create(ctx context.Context, bill *entity.Bill) error
}

// TableStore releases a dine-in table once its order settles.
type TableStore interface {
	SetStatus(ctx context.Context, id int64, status entity.TableStatus) error
}

// TxRunner runs a closure inside one database transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Deps collects the collaborators the settlement service needs.
type Deps struct {
	Runner    TxRunner
	Orders    OrderStore
	Recipes   RecipeReader
	Stock     StockStore
	Bills     BillStore
	Tables    TableStore
	Cache     cache.Store
	Logger    *zap.Logger
	Publisher messaging.Client
	Publish   bool
}

// Service converts a served order into inventory depletion and revenue
// recognition, exactly once. It is the only code path allowed to decrement
// stock for a sale or create a sale-driven bill.
type Service struct {
	deps Deps
}

// New constructs the settlement service.
func New(deps Deps) *Service {
	return &Service{deps: deps}
}

// Settle atomically deducts recipe stock, books the bill and completes the
// order. Calling it on an already completed or cancelled order is a silent
// no-op, which makes every completion trigger safe to race or repeat.
func (s *Service) Settle(ctx context.Context, orderID int64, paymentMethod string) error {
	ctx, span := serviceTracer.Start(ctx, "SettlementService.Settle", trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	if paymentMethod == "" {
		paymentMethod = entity.PaymentCash
	}

	err := s.deps.Runner.RunInTx(ctx, func(ctx context.Context) error {
		order, err := s.deps.Orders.GetByIDForUpdate(ctx, orderID)
		if errors.Is(err, orderrepo.ErrNotFound) {
			return errorbank.NotFound("order not found")
		}
		if err != nil {
			return errorbank.Internal("failed to load order", errorbank.WithCause(err))
		}

		deductions := 0

		// Idempotency guard: a second trigger sees the terminal status
		// inside the same transaction scope and backs off.
		if order.Status.Terminal() {
			return nil
		}

		for _, line := range order.Lines {
			recipe, err := s.deps.Recipes.RecipeFor(ctx, line.MenuItemID)
			if err != nil {
				return errorbank.Internal("failed to resolve recipe", errorbank.WithCause(err))
			}
			for _, ingredient := range recipe {
				used := ingredient.Quantity.Mul(decimal.NewFromInt(int64(line.Quantity)))
				if err := s.deps.Stock.AdjustStock(ctx, ingredient.MaterialID, used.Neg()); err != nil {
					return errorbank.Internal("failed to deduct stock", errorbank.WithCause(err),
						errorbank.WithDetail("material_id", ingredient.MaterialID))
				}
				if err := s.deps.Stock.RecordMovement(ctx, &entity.StockMovement{
					MaterialID:  ingredient.MaterialID,
					Delta:       used.Neg(),
					Reason:      entity.MovementSale,
					OrderNumber: order.Number,
					CreatedAt:   time.Now().UTC(),
				}); err != nil {
					return errorbank.Internal("failed to record stock movement", errorbank.WithCause(err))
				}
				deductions++
			}
		}

		exists, err := s.deps.Bills.ExistsForOrder(ctx, order.ID)
		if err != nil {
			return errorbank.Internal("failed to check bill", errorbank.WithCause(err))
		}
		if !exists {
			if err := s.deps.Bills.Create(ctx, &entity.Bill{
				OrderID:       order.ID,
				Amount:        order.Total,
				PaymentMethod: paymentMethod,
				PaidAt:        time.Now().UTC(),
			}); err != nil {
				return errorbank.Internal("failed to create bill", errorbank.WithCause(err))
			}
		}

		if err := s.deps.Orders.UpdateStatus(ctx, order.ID, entity.OrderCompleted); err != nil {
			return errorbank.Internal("failed to complete order", errorbank.WithCause(err))
		}

		if order.TableID != nil {
			if err := s.deps.Tables.SetStatus(ctx, *order.TableID, entity.TableCleaning); err != nil {
				return errorbank.Internal("failed to release table", errorbank.WithCause(err))
			}
		}

		// Metric, cache and event only exist once the booking is durable.
		// When this call joined a caller's transaction (handover, table
		// turnover), that is the caller's commit, not ours.
		database.AfterCommit(ctx, func(ctx context.Context) {
			observability.OrdersSettled.WithLabelValues(paymentMethod).Inc()
			s.invalidateCache(ctx, order.ID)
			s.publishSettled(ctx, order, paymentMethod, deductions)
		})
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "settlement failed")
		return err
	}
	return nil
}

func (s *Service) invalidateCache(ctx context.Context, orderID int64) {
	if s.deps.Cache == nil {
		return
	}
	if err := s.deps.Cache.Delete(ctx, cache.OrderKey(orderID)); err != nil && s.deps.Logger != nil {
		s.deps.Logger.Warn("orders cache invalidation failed", zap.Int64("id", orderID), zap.Error(err))
	}
}

func (s *Service) publishSettled(ctx context.Context, order *entity.Order, method string, deductions int) {
	if !s.deps.Publish || s.deps.Publisher == nil {
		return
	}
	event := OrderSettledEvent{
		EventID:    uuid.NewString(),
		OrderID:    order.ID,
		Number:     order.Number,
		Amount:     order.Total,
		Method:     method,
		Deductions: deductions,
		SettledAt:  time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		if s.deps.Logger != nil {
			s.deps.Logger.Error("marshal order settled", zap.Error(err))
		}
		return
	}
	if err := s.deps.Publisher.Publish(ctx, []byte(fmt.Sprintf("order-%d", order.ID)), payload); err != nil {
		if s.deps.Logger != nil {
			s.deps.Logger.Error("publish order settled", zap.Error(err))
		}
	}
}

// OrderSettledEvent is emitted after an order's financials are booked.
type OrderSettledEvent struct {
	EventID    string          `json:"event_id"`
	OrderID    int64           `json:"order_id"`
	Number     string          `json:"number"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method"`
	Deductions int             `json:"deductions"`
	SettledAt  time.Time       `json:"settled_at"`
}
