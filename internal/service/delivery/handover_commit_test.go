package delivery

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/bistro/internal/database"
	"github.com/Additional-Code/bistro/internal/entity"
	"github.com/Additional-Code/bistro/internal/messaging"
	orderrepo "github.com/Additional-Code/bistro/internal/repository/order"
	"github.com/Additional-Code/bistro/internal/service/settlement"
	"github.com/Additional-Code/bistro/pkg/errorbank"
)

// txRunner mimics Connections.RunInTx: nested calls join the outer scope and
// commit hooks flush only when the outermost closure succeeds.
type txRunner struct {
	depth int
}

func (r *txRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if r.depth > 0 {
		return fn(ctx)
	}
	r.depth++
	defer func() { r.depth-- }()
	hookCtx, flush := database.DeferHooks(ctx)
	if err := fn(hookCtx); err != nil {
		return err
	}
	flush(ctx)
	return nil
}

type ordersByID struct {
	orders map[int64]*entity.Order
}

func (f *ordersByID) GetByIDForUpdate(_ context.Context, id int64) (*entity.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, orderrepo.ErrNotFound
	}
	return o, nil
}

func (f *ordersByID) UpdateStatus(_ context.Context, id int64, status entity.OrderStatus) error {
	f.orders[id].Status = status
	return nil
}

type noRecipes struct{}

func (noRecipes) RecipeFor(context.Context, int64) ([]*entity.RecipeIngredient, error) {
	return nil, nil
}

type noStock struct{}

func (noStock) AdjustStock(context.Context, int64, decimal.Decimal) error { return nil }

func (noStock) RecordMovement(context.Context, *entity.StockMovement) error { return nil }

type billBook struct {
	bills []*entity.Bill
}

func (f *billBook) ExistsForOrder(_ context.Context, orderID int64) (bool, error) {
	for _, b := range f.bills {
		if b.OrderID == orderID {
			return true, nil
		}
	}
	return false, nil
}

func (f *billBook) Create(_ context.Context, bill *entity.Bill) error {
	f.bills = append(f.bills, bill)
	return nil
}

type noTables struct{}

func (noTables) SetStatus(context.Context, int64, entity.TableStatus) error { return nil }

type publisherSpy struct {
	events [][]byte
}

func (p *publisherSpy) Publish(_ context.Context, _ []byte, value []byte) error {
	p.events = append(p.events, value)
	return nil
}

func (p *publisherSpy) Consume(context.Context, messaging.Handler) error { return nil }

func (p *publisherSpy) Topic() string { return "order-events" }

// newHandoverFixture wires the delivery service to the real settlement
// service over one shared transaction runner, the way production runs it.
func newHandoverFixture(deliveries map[int64]*entity.Delivery, orders map[int64]*entity.Order) (*Service, *publisherSpy, *billBook) {
	runner := &txRunner{}
	pub := &publisherSpy{}
	bills := &billBook{}
	settler := settlement.New(settlement.Deps{
		Runner:    runner,
		Orders:    &ordersByID{orders: orders},
		Recipes:   noRecipes{},
		Stock:     noStock{},
		Bills:     bills,
		Tables:    noTables{},
		Publisher: pub,
		Publish:   true,
	})
	svc := New(Deps{Runner: runner, Deliveries: &fakeStore{deliveries: deliveries}, Settler: settler})
	return svc, pub, bills
}

func TestHandOverCashFailedBatchPublishesNothing(t *testing.T) {
	svc, pub, _ := newHandoverFixture(
		map[int64]*entity.Delivery{
			1: {ID: 1, OrderID: 7, Status: entity.DeliveryDelivered},
		},
		map[int64]*entity.Order{
			7: {ID: 7, Number: "ORD-000007", Status: entity.OrderServed, Total: decimal.NewFromInt(500)},
		},
	)

	// Delivery 2 is unknown: order 7 settles inside the batch, then the
	// whole transaction rolls back. No settled event may survive that.
	err := svc.HandOverCash(context.Background(), []int64{1, 2})
	assert.True(t, errorbank.IsKind(err, errorbank.KindNotFound), "got %v", err)
	assert.Empty(t, pub.events, "settled event published for a rolled-back batch")
}

func TestHandOverCashPublishesAfterCommit(t *testing.T) {
	svc, pub, bills := newHandoverFixture(
		map[int64]*entity.Delivery{
			1: {ID: 1, OrderID: 7, Status: entity.DeliveryDelivered},
		},
		map[int64]*entity.Order{
			7: {ID: 7, Number: "ORD-000007", Status: entity.OrderServed, Total: decimal.NewFromInt(500)},
		},
	)

	require.NoError(t, svc.HandOverCash(context.Background(), []int64{1}))
	require.Len(t, bills.bills, 1)
	assert.Equal(t, entity.PaymentCash, bills.bills[0].PaymentMethod)
	assert.Len(t, pub.events, 1)
}
