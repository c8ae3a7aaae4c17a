package settlement

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
	"github.com/Additional-Code/bistro/pkg/errorbank"
)

type passRunner struct{}

func (passRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeOrders struct {
	orders map[int64]*entity.Order
}

func (f *fakeOrders) GetByIDForUpdate(_ context.Context, id int64) (*entity.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, orderrepo.ErrNotFound
	}
	return order, nil
}

func (f *fakeOrders) UpdateStatus(_ context.Context, id int64, status entity.OrderStatus) error {
	f.orders[id].Status = status
	return nil
}

type fakeRecipes struct {
	recipes map[int64][]*entity.RecipeIngredient
}

func (f *fakeRecipes) RecipeFor(_ context.Context, menuItemID int64) ([]*entity.RecipeIngredient, error) {
	return f.recipes[menuItemID], nil
}

type fakeStock struct {
	adjustments map[int64]decimal.Decimal
	movements   []*entity.StockMovement
}

func newFakeStock() *fakeStock {
	return &fakeStock{adjustments: map[int64]decimal.Decimal{}}
}

func (f *fakeStock) AdjustStock(_ context.Context, materialID int64, delta decimal.Decimal) error {
	cur, ok := f.adjustments[materialID]
	if !ok {
		cur = decimal.Zero
	}
	f.adjustments[materialID] = cur.Add(delta)
	return nil
}

func (f *fakeStock) RecordMovement(_ context.Context, movement *entity.StockMovement) error {
	f.movements = append(f.movements, movement)
	return nil
}

type fakeBills struct {
	bills []*entity.Bill
}

func (f *fakeBills) ExistsForOrder(_ context.Context, orderID int64) (bool, error) {
	for _, b := range f.bills {
		if b.OrderID == orderID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeBills) Create(_ context.Context, bill *entity.Bill) error {
	f.bills = append(f.bills, bill)
	return nil
}

type fakeTables struct {
	statuses map[int64]entity.TableStatus
}

func (f *fakeTables) SetStatus(_ context.Context, id int64, status entity.TableStatus) error {
	f.statuses[id] = status
	return nil
}

type fakePublisher struct {
	events [][]byte
}

func (f *fakePublisher) Publish(_ context.Context, _ []byte, value []byte) error {
	f.events = append(f.events, value)
	return nil
}

func (f *fakePublisher) Consume(context.Context, messaging.Handler) error { return nil }

func (f *fakePublisher) Topic() string { return "order-events" }

type fixture struct {
	svc       *Service
	orders    *fakeOrders
	stock     *fakeStock
	bills     *fakeBills
	tables    *fakeTables
	publisher *fakePublisher
}

func newFixture(recipes map[int64][]*entity.RecipeIngredient) *fixture {
	f := &fixture{
		orders:    &fakeOrders{orders: map[int64]*entity.Order{}},
		stock:     newFakeStock(),
		bills:     &fakeBills{},
		tables:    &fakeTables{statuses: map[int64]entity.TableStatus{}},
		publisher: &fakePublisher{},
	}
	f.svc = New(Deps{
		Runner:    passRunner{},
		Orders:    f.orders,
		Recipes:   &fakeRecipes{recipes: recipes},
		Stock:     f.stock,
		Bills:     f.bills,
		Tables:    f.tables,
		Publisher: f.publisher,
		Publish:   true,
	})
	return f
}

func servedOrder(id int64, lines ...*entity.OrderLine) *entity.Order {
	return &entity.Order{
		ID:     id,
		Number: "ORD-000042",
		Status: entity.OrderServed,
		Total:  decimal.NewFromInt(2760),
		Lines:  lines,
	}
}

func TestSettleDeductsStockAndBooksBill(t *testing.T) {
	recipes := map[int64][]*entity.RecipeIngredient{
		1: {
			{MaterialID: 10, Quantity: decimal.NewFromFloat(0.3)},
			{MaterialID: 11, Quantity: decimal.NewFromFloat(0.15)},
		},
	}
	f := newFixture(recipes)
	f.orders.orders[7] = servedOrder(7, &entity.OrderLine{MenuItemID: 1, Quantity: 2})

	require.NoError(t, f.svc.Settle(context.Background(), 7, entity.PaymentCard))

	// 2 units consume 0.6 and 0.3 respectively, deducted as negatives.
	assert.True(t, f.stock.adjustments[10].Equal(decimal.NewFromFloat(-0.6)), "material 10: %s", f.stock.adjustments[10])
	assert.True(t, f.stock.adjustments[11].Equal(decimal.NewFromFloat(-0.3)), "material 11: %s", f.stock.adjustments[11])

	require.Len(t, f.stock.movements, 2)
	assert.Equal(t, entity.MovementSale, f.stock.movements[0].Reason)
	assert.Equal(t, "ORD-000042", f.stock.movements[0].OrderNumber)

	require.Len(t, f.bills.bills, 1)
	bill := f.bills.bills[0]
	assert.Equal(t, int64(7), bill.OrderID)
	assert.True(t, bill.Amount.Equal(decimal.NewFromInt(2760)))
	assert.Equal(t, entity.PaymentCard, bill.PaymentMethod)
	assert.False(t, bill.IsSettled, "cash is unreconciled until the ledger confirms it")

	assert.Equal(t, entity.OrderCompleted, f.orders.orders[7].Status)
}

func TestSettleIsIdempotent(t *testing.T) {
	recipes := map[int64][]*entity.RecipeIngredient{
		1: {{MaterialID: 10, Quantity: decimal.NewFromInt(1)}},
	}
	f := newFixture(recipes)
	f.orders.orders[7] = servedOrder(7, &entity.OrderLine{MenuItemID: 1, Quantity: 1})

	require.NoError(t, f.svc.Settle(context.Background(), 7, ""))
	require.NoError(t, f.svc.Settle(context.Background(), 7, ""))

	assert.True(t, f.stock.adjustments[10].Equal(decimal.NewFromInt(-1)), "stock must be deducted once, got %s", f.stock.adjustments[10])
	assert.Len(t, f.bills.bills, 1)
	assert.Len(t, f.stock.movements, 1)
}

func TestSettleSkipsCancelledOrder(t *testing.T) {
	f := newFixture(nil)
	order := servedOrder(7)
	order.Status = entity.OrderCancelled
	f.orders.orders[7] = order

	require.NoError(t, f.svc.Settle(context.Background(), 7, ""))
	assert.Empty(t, f.bills.bills)
	assert.Empty(t, f.stock.movements)
	assert.Equal(t, entity.OrderCancelled, order.Status)
}

func TestSettleDefaultsToCash(t *testing.T) {
	f := newFixture(nil)
	f.orders.orders[7] = servedOrder(7)

	require.NoError(t, f.svc.Settle(context.Background(), 7, ""))
	require.Len(t, f.bills.bills, 1)
	assert.Equal(t, entity.PaymentCash, f.bills.bills[0].PaymentMethod)
}

func TestSettleSkipsBillWhenPrepaid(t *testing.T) {
	f := newFixture(nil)
	f.orders.orders[7] = servedOrder(7)
	f.bills.bills = append(f.bills.bills, &entity.Bill{OrderID: 7})

	require.NoError(t, f.svc.Settle(context.Background(), 7, ""))
	assert.Len(t, f.bills.bills, 1, "a prepaid order must not get a second bill")
	assert.Equal(t, entity.OrderCompleted, f.orders.orders[7].Status)
}

func TestSettleReleasesTableForCleaning(t *testing.T) {
	f := newFixture(nil)
	tableID := int64(4)
	order := servedOrder(7)
	order.TableID = &tableID
	f.orders.orders[7] = order

	require.NoError(t, f.svc.Settle(context.Background(), 7, ""))
	assert.Equal(t, entity.TableCleaning, f.tables.statuses[4])
}

func TestSettleSideEffectsWaitForOuterCommit(t *testing.T) {
	// Handover and table turnover call Settle inside their own transaction;
	// the event must not fire until that transaction commits.
	f := newFixture(nil)
	f.orders.orders[7] = servedOrder(7)

	ctx, flush := database.DeferHooks(context.Background())
	require.NoError(t, f.svc.Settle(ctx, 7, entity.PaymentCash))
	assert.Empty(t, f.publisher.events, "event published before the caller committed")

	flush(context.Background())
	assert.Len(t, f.publisher.events, 1)
}

func TestSettleSideEffectsDiscardedOnOuterRollback(t *testing.T) {
	f := newFixture(nil)
	f.orders.orders[7] = servedOrder(7)

	ctx, _ := database.DeferHooks(context.Background())
	require.NoError(t, f.svc.Settle(ctx, 7, entity.PaymentCash))

	// The caller's transaction rolled back; its hooks are never flushed.
	assert.Empty(t, f.publisher.events, "event published for a rolled-back settlement")
}

func TestSettleUnknownOrder(t *testing.T) {
	f := newFixture(nil)

	err := f.svc.Settle(context.Background(), 99, "")
	assert.True(t, errorbank.IsKind(err, errorbank.KindNotFound), "got %v", err)
}
