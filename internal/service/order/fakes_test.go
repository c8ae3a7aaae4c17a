package order

import (
	"context"
	"fmt"

	"github.com/Additional-Code/bistro/internal/entity"
	catalogrepo "github.com/Additional-Code/bistro/internal/repository/catalog"
	deliveryrepo "github.com/Additional-Code/bistro/internal/repository/delivery"
	orderrepo "github.com/Additional-Code/bistro/internal/repository/order"
	tablerepo "github.com/Additional-Code/bistro/internal/repository/table"
)

// passRunner executes the closure without a real transaction.
type passRunner struct{}

func (passRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeCatalog struct {
	items map[int64]*entity.MenuItem
}

func (f *fakeCatalog) ResolveItem(_ context.Context, id int64) (*entity.MenuItem, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, catalogrepo.ErrNotFound
	}
	return item, nil
}

type fakeOrders struct {
	nextID int64
	orders map[int64]*entity.Order
	lines  map[int64]*entity.OrderLine
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{orders: map[int64]*entity.Order{}, lines: map[int64]*entity.OrderLine{}}
}

func (f *fakeOrders) add(order *entity.Order) {
	f.nextID++
	order.ID = f.nextID
	order.Number = fmt.Sprintf("ORD-%06d", order.ID)
	f.orders[order.ID] = order
	for _, line := range order.Lines {
		f.nextID++
		line.ID = f.nextID
		line.OrderID = order.ID
		f.lines[line.ID] = line
	}
}

func (f *fakeOrders) Create(_ context.Context, order *entity.Order) error {
	f.add(order)
	return nil
}

func (f *fakeOrders) GetByID(_ context.Context, id int64) (*entity.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, orderrepo.ErrNotFound
	}
	return order, nil
}

func (f *fakeOrders) GetByIDForUpdate(ctx context.Context, id int64) (*entity.Order, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeOrders) UpdateStatus(_ context.Context, id int64, status entity.OrderStatus) error {
	order, ok := f.orders[id]
	if !ok {
		return orderrepo.ErrNotFound
	}
	order.Status = status
	return nil
}

func (f *fakeOrders) LinesByIDs(_ context.Context, ids []int64) ([]*entity.OrderLine, error) {
	out := make([]*entity.OrderLine, 0, len(ids))
	for _, id := range ids {
		if line, ok := f.lines[id]; ok {
			out = append(out, line)
		}
	}
	return out, nil
}

func (f *fakeOrders) UpdateLineStatuses(_ context.Context, ids []int64, status entity.LineStatus) error {
	for _, id := range ids {
		if line, ok := f.lines[id]; ok {
			line.Status = status
		}
	}
	return nil
}

func (f *fakeOrders) LinesByOrder(_ context.Context, orderID int64) ([]*entity.OrderLine, error) {
	order, ok := f.orders[orderID]
	if !ok {
		return nil, orderrepo.ErrNotFound
	}
	return order.Lines, nil
}

type fakeTables struct {
	tables map[int64]*entity.Table
}

func (f *fakeTables) GetByIDForUpdate(_ context.Context, id int64) (*entity.Table, error) {
	t, ok := f.tables[id]
	if !ok {
		return nil, tablerepo.ErrNotFound
	}
	return t, nil
}

func (f *fakeTables) SetStatus(_ context.Context, id int64, status entity.TableStatus) error {
	t, ok := f.tables[id]
	if !ok {
		return tablerepo.ErrNotFound
	}
	t.Status = status
	return nil
}

type fakeDeliveries struct {
	nextID     int64
	deliveries map[int64]*entity.Delivery
}

func newFakeDeliveries() *fakeDeliveries {
	return &fakeDeliveries{deliveries: map[int64]*entity.Delivery{}}
}

func (f *fakeDeliveries) Create(_ context.Context, d *entity.Delivery) error {
	f.nextID++
	d.ID = f.nextID
	f.deliveries[d.ID] = d
	return nil
}

func (f *fakeDeliveries) ByOrderID(_ context.Context, orderID int64) (*entity.Delivery, error) {
	for _, d := range f.deliveries {
		if d.OrderID == orderID {
			return d, nil
		}
	}
	return nil, deliveryrepo.ErrNotFound
}

func (f *fakeDeliveries) UpdateStatus(_ context.Context, id int64, status entity.DeliveryStatus, driverID *int64) error {
	d, ok := f.deliveries[id]
	if !ok {
		return deliveryrepo.ErrNotFound
	}
	d.Status = status
	if driverID != nil {
		d.DriverID = driverID
	}
	return nil
}

type fakeBills struct {
	bills []*entity.Bill
}

func (f *fakeBills) Create(_ context.Context, bill *entity.Bill) error {
	f.bills = append(f.bills, bill)
	return nil
}

type fakeRates struct {
	settings entity.Settings
}

func (f *fakeRates) Current(context.Context) (*entity.Settings, error) {
	s := f.settings
	return &s, nil
}

type fakeSettler struct {
	calls []settleCall
}

type settleCall struct {
	OrderID int64
	Method  string
}

func (f *fakeSettler) Settle(_ context.Context, orderID int64, paymentMethod string) error {
	f.calls = append(f.calls, settleCall{OrderID: orderID, Method: paymentMethod})
	return nil
}
