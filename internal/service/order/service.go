package order

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
	"github.com/Additional-Code/bistro/internal/entity"
	"github.com/Additional-Code/bistro/internal/messaging"
	catalogrepo "github.com/Additional-Code/bistro/internal/repository/catalog"
	deliveryrepo "github.com/Additional-Code/bistro/internal/repository/delivery"
	orderrepo "github.com/Additional-Code/bistro/internal/repository/order"
	tablerepo "github.com/Additional-Code/bistro/internal/repository/table"
	"github.com/Additional-Code/bistro/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/bistro/service/order")

var oneHundred = decimal.NewFromInt(100)

// CatalogReader resolves catalog snapshots at order time.
type CatalogReader interface {
	ResolveItem(ctx context.Context, id int64) (*entity.MenuItem, error)
}

// Store is the slice of the order repository this service consumes.
type Store interface {
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id int64) (*entity.Order, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*entity.Order, error)
	UpdateStatus(ctx context.Context, id int64, status entity.OrderStatus) error
	LinesByIDs(ctx context.Context, ids []int64) ([]*entity.OrderLine, error)
	UpdateLineStatuses(ctx context.Context, ids []int64, status entity.LineStatus) error
	LinesByOrder(ctx context.Context, orderID int64) ([]*entity.OrderLine, error)
}

// TableStore mutates table state during order creation and cancellation.
type TableStore interface {
	GetByIDForUpdate(ctx context.Context, id int64) (*entity.Table, error)
	SetStatus(ctx context.Context, id int64, status entity.TableStatus) error
}

// DeliveryStore creates and cancels delivery records.
type DeliveryStore interface {
	Create(ctx context.Context, d *entity.Delivery) error
	ByOrderID(ctx context.Context, orderID int64) (*entity.Delivery, error)
	UpdateStatus(ctx context.Context, id int64, status entity.DeliveryStatus, driverID *int64) error
}

// BillStore books point-of-sale bills at creation time.
type BillStore interface {
	Create(ctx context.Context, bill *entity.Bill) error
}

// RatesReader fetches the global rates snapshot.
type RatesReader interface {
	Current(ctx context.Context) (*entity.Settings, error)
}

// Settler completes an order's financials.
type Settler interface {
	Settle(ctx context.Context, orderID int64, paymentMethod string) error
}

// TxRunner runs a closure inside one database transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// CartLine is one requested order line.
type CartLine struct {
	MenuItemID int64
	Quantity   int
	Note       string
}

// DeliveryInfo carries the customer fields for a delivery order.
type DeliveryInfo struct {
	CustomerName  string
	CustomerPhone string
	Address       string
}

// CreateRequest is the order builder input. Exactly one of TableID and
// Delivery may be set; both nil means plain takeaway.
type CreateRequest struct {
	Lines    []CartLine
	TableID  *int64
	Delivery *DeliveryInfo
	Note     string
	Actor    Actor
}

// Deps collects the collaborators the order service needs.
type Deps struct {
	Runner     TxRunner
	Orders     Store
	Catalog    CatalogReader
	Tables     TableStore
	Deliveries DeliveryStore
	Bills      BillStore
	Rates      RatesReader
	Settler    Settler
	Policy     PaymentPolicy
	Cache      cache.Store
	CacheTTL   time.Duration
	Logger     *zap.Logger
	Publisher  messaging.Client
	Publish    bool
}

// Service builds orders and drives the fulfillment state machine.
type Service struct {
	deps Deps
}

// New constructs the order service.
func New(deps Deps) *Service {
	if deps.Policy == nil {
		deps.Policy = RolePolicy{}
	}
	return &Service{deps: deps}
}

// Create prices the cart against the current catalog snapshot, freezes
// totals and recipe costs, and persists the order with its side effects in
// one transaction.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Create", trace.WithAttributes(attribute.Int("cart.lines", len(req.Lines))))
	defer span.End()

	if err := validateCreate(req); err != nil {
		return nil, err
	}

	var order *entity.Order
	err := s.deps.Runner.RunInTx(ctx, func(ctx context.Context) error {
		rates, err := s.deps.Rates.Current(ctx)
		if err != nil {
			return errorbank.Internal("failed to load rates", errorbank.WithCause(err))
		}

		now := time.Now().UTC()
		lines := make([]*entity.OrderLine, 0, len(req.Lines))
		subtotal := decimal.Zero
		for _, cartLine := range req.Lines {
			item, err := s.deps.Catalog.ResolveItem(ctx, cartLine.MenuItemID)
			if errors.Is(err, catalogrepo.ErrNotFound) {
				return errorbank.NotFound("menu item not found", errorbank.WithDetail("menu_item_id", cartLine.MenuItemID))
			}
			if err != nil {
				return errorbank.Internal("failed to resolve menu item", errorbank.WithCause(err))
			}

			unitPrice := discountedPrice(item, now)
			qty := decimal.NewFromInt(int64(cartLine.Quantity))
			line := &entity.OrderLine{
				MenuItemID: item.ID,
				Quantity:   cartLine.Quantity,
				UnitPrice:  unitPrice,
				TotalPrice: unitPrice.Mul(qty),
				Cost:       recipeCost(item).Mul(qty),
				Status:     entity.LinePending,
				Note:       cartLine.Note,
				CreatedAt:  now,
			}
			subtotal = subtotal.Add(line.TotalPrice)
			lines = append(lines, line)
		}

		tax := subtotal.Mul(rates.TaxPct).Div(oneHundred).Round(2)
		serviceFee := subtotal.Mul(rates.ServiceFeePct).Div(oneHundred).Round(2)

		order = &entity.Order{
			Status:     entity.OrderPending,
			TableID:    req.TableID,
			Note:       req.Note,
			Total:      subtotal.Add(tax).Add(serviceFee),
			Tax:        tax,
			ServiceFee: serviceFee,
			CreatedAt:  now,
			UpdatedAt:  now,
			Lines:      lines,
		}

		if req.TableID != nil {
			if err := s.occupyTable(ctx, *req.TableID); err != nil {
				return err
			}
		}

		if err := s.deps.Orders.Create(ctx, order); err != nil {
			return errorbank.Internal("failed to create order", errorbank.WithCause(err))
		}

		if req.Delivery != nil {
			if err := s.deps.Deliveries.Create(ctx, &entity.Delivery{
				OrderID:       order.ID,
				CustomerName:  req.Delivery.CustomerName,
				CustomerPhone: req.Delivery.CustomerPhone,
				Address:       req.Delivery.Address,
				Fee:           rates.DeliveryFee,
				Status:        entity.DeliveryPending,
				CreatedAt:     now,
				UpdatedAt:     now,
			}); err != nil {
				return errorbank.Internal("failed to create delivery", errorbank.WithCause(err))
			}
		}

		// Point-of-sale registers collect payment up front. The order still
		// enters the kitchen pipeline at pending; only the bill exists early.
		if s.deps.Policy.AutoBill(req.Actor, req.Delivery != nil) {
			if err := s.deps.Bills.Create(ctx, &entity.Bill{
				OrderID:       order.ID,
				Amount:        order.Total,
				PaymentMethod: entity.PaymentCash,
				PaidAt:        now,
			}); err != nil {
				return errorbank.Internal("failed to create bill", errorbank.WithCause(err))
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		return nil, err
	}

	if err := s.storeInCache(ctx, order); err != nil && s.deps.Logger != nil {
		s.deps.Logger.Warn("orders cache write failed", zap.Int64("id", order.ID), zap.Error(err))
	}
	s.publishCreated(ctx, order)
	return order, nil
}

func (s *Service) occupyTable(ctx context.Context, tableID int64) error {
	t, err := s.deps.Tables.GetByIDForUpdate(ctx, tableID)
	if errors.Is(err, tablerepo.ErrNotFound) {
		return errorbank.NotFound("table not found", errorbank.WithDetail("table_id", tableID))
	}
	if err != nil {
		return errorbank.Internal("failed to load table", errorbank.WithCause(err))
	}
	if t.Status == entity.TableOccupied || t.Status == entity.TableCleaning {
		return errorbank.Conflict("table is not available", errorbank.WithDetail("table_status", string(t.Status)))
	}
	if err := s.deps.Tables.SetStatus(ctx, tableID, entity.TableOccupied); err != nil {
		return errorbank.Internal("failed to occupy table", errorbank.WithCause(err))
	}
	return nil
}

// Get retrieves an order with its lines, consulting cache when available.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	if order, err := s.getFromCache(ctx, id); err == nil {
		return order, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) && s.deps.Logger != nil {
		s.deps.Logger.Warn("orders cache read failed", zap.Int64("id", id), zap.Error(err))
	}

	order, err := s.deps.Orders.GetByID(ctx, id)
	if errors.Is(err, orderrepo.ErrNotFound) {
		return nil, errorbank.NotFound("order not found")
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}

	if err := s.storeInCache(ctx, order); err != nil && s.deps.Logger != nil {
		s.deps.Logger.Warn("orders cache write failed", zap.Int64("id", id), zap.Error(err))
	}
	return order, nil
}

// AdvanceLines moves a batch of lines one kitchen step. The parent orders'
// statuses are re-derived in the same transaction unless an authoritative
// status (served, completed, cancelled) is already stored.
func (s *Service) AdvanceLines(ctx context.Context, lineIDs []int64, target entity.LineStatus) error {
	ctx, span := serviceTracer.Start(ctx, "OrderService.AdvanceLines", trace.WithAttributes(
		attribute.Int("line.count", len(lineIDs)),
		attribute.String("line.target", string(target)),
	))
	defer span.End()

	if len(lineIDs) == 0 {
		return errorbank.BadRequest("no lines given")
	}
	if _, ok := kitchenRank[target]; !ok {
		return errorbank.Conflict("kitchen cannot set this status", errorbank.WithDetail("status", string(target)))
	}

	var touched []int64
	err := s.deps.Runner.RunInTx(ctx, func(ctx context.Context) error {
		lines, err := s.deps.Orders.LinesByIDs(ctx, lineIDs)
		if err != nil {
			return errorbank.Internal("failed to load lines", errorbank.WithCause(err))
		}
		if len(lines) != len(lineIDs) {
			return errorbank.NotFound("one or more lines not found")
		}

		orderIDs := make(map[int64]struct{})
		for _, line := range lines {
			if !kitchenCanMove(line.Status, target) {
				return errorbank.Conflict("illegal line transition",
					errorbank.WithDetail("line_id", line.ID),
					errorbank.WithDetail("from", string(line.Status)),
					errorbank.WithDetail("to", string(target)))
			}
			orderIDs[line.OrderID] = struct{}{}
		}

		if err := s.deps.Orders.UpdateLineStatuses(ctx, lineIDs, target); err != nil {
			return errorbank.Internal("failed to update lines", errorbank.WithCause(err))
		}

		for orderID := range orderIDs {
			if err := s.refreshAggregate(ctx, orderID); err != nil {
				return err
			}
			touched = append(touched, orderID)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "advance failed")
		return err
	}
	s.invalidate(ctx, touched...)
	return nil
}

func (s *Service) refreshAggregate(ctx context.Context, orderID int64) error {
	order, err := s.deps.Orders.GetByIDForUpdate(ctx, orderID)
	if err != nil {
		return errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}
	if order.Status.Authoritative() {
		return nil
	}
	derived := aggregateStatus(order.Lines)
	if derived == order.Status {
		return nil
	}
	if err := s.deps.Orders.UpdateStatus(ctx, orderID, derived); err != nil {
		return errorbank.Internal("failed to update order status", errorbank.WithCause(err))
	}
	return nil
}

// MarkServed records that food reached the customer. Only legal from ready.
func (s *Service) MarkServed(ctx context.Context, orderID int64) error {
	ctx, span := serviceTracer.Start(ctx, "OrderService.MarkServed", trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	err := s.deps.Runner.RunInTx(ctx, func(ctx context.Context) error {
		order, err := s.deps.Orders.GetByIDForUpdate(ctx, orderID)
		if errors.Is(err, orderrepo.ErrNotFound) {
			return errorbank.NotFound("order not found")
		}
		if err != nil {
			return errorbank.Internal("failed to load order", errorbank.WithCause(err))
		}
		if order.Status != entity.OrderReady {
			return errorbank.Conflict("order is not ready to serve", errorbank.WithDetail("status", string(order.Status)))
		}

		lineIDs := make([]int64, 0, len(order.Lines))
		for _, line := range order.Lines {
			lineIDs = append(lineIDs, line.ID)
		}
		if len(lineIDs) > 0 {
			if err := s.deps.Orders.UpdateLineStatuses(ctx, lineIDs, entity.LineServed); err != nil {
				return errorbank.Internal("failed to update lines", errorbank.WithCause(err))
			}
		}
		if err := s.deps.Orders.UpdateStatus(ctx, orderID, entity.OrderServed); err != nil {
			return errorbank.Internal("failed to update order status", errorbank.WithCause(err))
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "serve failed")
		return err
	}
	s.invalidate(ctx, orderID)
	return nil
}

// ConfirmPayment is the cashier completion trigger for a served order. The
// financial effect is delegated to the settlement transaction, so racing a
// table-free trigger is harmless.
func (s *Service) ConfirmPayment(ctx context.Context, orderID int64, paymentMethod string) error {
	ctx, span := serviceTracer.Start(ctx, "OrderService.ConfirmPayment", trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	order, err := s.deps.Orders.GetByID(ctx, orderID)
	if errors.Is(err, orderrepo.ErrNotFound) {
		return errorbank.NotFound("order not found")
	}
	if err != nil {
		return errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}
	if order.Status != entity.OrderServed && !order.Status.Terminal() {
		return errorbank.Conflict("order has not been served", errorbank.WithDetail("status", string(order.Status)))
	}
	return s.deps.Settler.Settle(ctx, orderID, paymentMethod)
}

// Cancel aborts a non-terminal order. The table is released and a still
// pending delivery is cancelled; no stock or billing compensation happens
// because settlement never ran for a non-terminal order.
func (s *Service) Cancel(ctx context.Context, orderID int64) error {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Cancel", trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	err := s.deps.Runner.RunInTx(ctx, func(ctx context.Context) error {
		order, err := s.deps.Orders.GetByIDForUpdate(ctx, orderID)
		if errors.Is(err, orderrepo.ErrNotFound) {
			return errorbank.NotFound("order not found")
		}
		if err != nil {
			return errorbank.Internal("failed to load order", errorbank.WithCause(err))
		}
		if order.Status.Terminal() {
			return errorbank.Conflict("order is already closed", errorbank.WithDetail("status", string(order.Status)))
		}

		if err := s.deps.Orders.UpdateStatus(ctx, orderID, entity.OrderCancelled); err != nil {
			return errorbank.Internal("failed to cancel order", errorbank.WithCause(err))
		}

		if order.TableID != nil {
			if err := s.deps.Tables.SetStatus(ctx, *order.TableID, entity.TableAvailable); err != nil {
				return errorbank.Internal("failed to release table", errorbank.WithCause(err))
			}
		}

		d, err := s.deps.Deliveries.ByOrderID(ctx, orderID)
		if err != nil && !errors.Is(err, deliveryrepo.ErrNotFound) {
			return errorbank.Internal("failed to load delivery", errorbank.WithCause(err))
		}
		if d != nil && (d.Status == entity.DeliveryPending || d.Status == entity.DeliveryAssigned) {
			if err := s.deps.Deliveries.UpdateStatus(ctx, d.ID, entity.DeliveryCancelled, nil); err != nil {
				return errorbank.Internal("failed to cancel delivery", errorbank.WithCause(err))
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cancel failed")
		return err
	}
	s.invalidate(ctx, orderID)
	return nil
}

// discountedPrice applies the best active discount: highest percentage wins,
// ties broken by lowest discount id so the choice stays deterministic.
func discountedPrice(item *entity.MenuItem, now time.Time) decimal.Decimal {
	var best *entity.Discount
	for _, d := range item.Discounts {
		if !d.ActiveAt(now) {
			continue
		}
		if best == nil ||
			d.Percentage.GreaterThan(best.Percentage) ||
			(d.Percentage.Equal(best.Percentage) && d.ID < best.ID) {
			best = d
		}
	}
	if best == nil {
		return item.Price
	}
	factor := decimal.NewFromInt(1).Sub(best.Percentage.Div(oneHundred))
	return item.Price.Mul(factor).Round(2)
}

// recipeCost sums ingredient quantities times current material cost. The
// result is frozen on the line so later recipe or cost edits cannot move
// historical numbers.
func recipeCost(item *entity.MenuItem) decimal.Decimal {
	cost := decimal.Zero
	for _, ingredient := range item.Recipe {
		if ingredient.Material == nil {
			continue
		}
		cost = cost.Add(ingredient.Quantity.Mul(ingredient.Material.CostPerUnit))
	}
	return cost
}

func validateCreate(req CreateRequest) error {
	if len(req.Lines) == 0 {
		return errorbank.BadRequest("cart is empty")
	}
	for _, line := range req.Lines {
		if line.Quantity < 1 {
			return errorbank.BadRequest("quantity must be positive", errorbank.WithDetail("menu_item_id", line.MenuItemID))
		}
	}
	if req.TableID != nil && req.Delivery != nil {
		return errorbank.BadRequest("order cannot be both dine-in and delivery")
	}
	if req.Delivery != nil {
		if req.Delivery.CustomerName == "" || req.Delivery.Address == "" {
			return errorbank.BadRequest("delivery requires customer name and address")
		}
	}
	return nil
}

func (s *Service) getFromCache(ctx context.Context, id int64) (*entity.Order, error) {
	if s.deps.Cache == nil {
		return nil, cache.ErrCacheMiss
	}
	bytes, err := s.deps.Cache.Get(ctx, cache.OrderKey(id))
	if err != nil {
		return nil, err
	}
	var order entity.Order
	if err := json.Unmarshal(bytes, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Service) storeInCache(ctx context.Context, order *entity.Order) error {
	if s.deps.Cache == nil || order == nil {
		return nil
	}
	bytes, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return s.deps.Cache.Set(ctx, cache.OrderKey(order.ID), bytes, s.deps.CacheTTL)
}

func (s *Service) invalidate(ctx context.Context, orderIDs ...int64) {
	if s.deps.Cache == nil {
		return
	}
	for _, id := range orderIDs {
		if err := s.deps.Cache.Delete(ctx, cache.OrderKey(id)); err != nil && s.deps.Logger != nil {
			s.deps.Logger.Warn("orders cache invalidation failed", zap.Int64("id", id), zap.Error(err))
		}
	}
}

func (s *Service) publishCreated(ctx context.Context, order *entity.Order) {
	if !s.deps.Publish || s.deps.Publisher == nil {
		return
	}
	event := OrderCreatedEvent{
		EventID:   uuid.NewString(),
		ID:        order.ID,
		Number:    order.Number,
		Status:    string(order.Status),
		Total:     order.Total,
		CreatedAt: order.CreatedAt,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		if s.deps.Logger != nil {
			s.deps.Logger.Error("marshal order created", zap.Error(err))
		}
		return
	}
	if err := s.deps.Publisher.Publish(ctx, []byte(fmt.Sprintf("order-%d", order.ID)), payload); err != nil {
		if s.deps.Logger != nil {
			s.deps.Logger.Error("publish order created", zap.Error(err))
		}
	}
}

// OrderCreatedEvent is emitted when a new order is persisted.
type OrderCreatedEvent struct {
	EventID   string          `json:"event_id"`
	ID        int64           `json:"id"`
	Number    string          `json:"number"`
	Status    string          `json:"status"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"created_at"`
}
