package delivery

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/bistro/internal/entity"
	deliveryrepo "github.com/Additional-Code/bistro/internal/repository/delivery"
	"github.com/Additional-Code/bistro/pkg/errorbank"
)

type passRunner struct{}

func (passRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeStore struct {
	deliveries map[int64]*entity.Delivery
}

func (f *fakeStore) get(id int64) (*entity.Delivery, error) {
	d, ok := f.deliveries[id]
	if !ok {
		return nil, deliveryrepo.ErrNotFound
	}
	return d, nil
}

func (f *fakeStore) GetByID(_ context.Context, id int64) (*entity.Delivery, error) {
	return f.get(id)
}

func (f *fakeStore) GetByIDForUpdate(_ context.Context, id int64) (*entity.Delivery, error) {
	return f.get(id)
}

func (f *fakeStore) List(_ context.Context, status entity.DeliveryStatus) ([]*entity.Delivery, error) {
	var out []*entity.Delivery
	for _, d := range f.deliveries {
		if status == "" || d.Status == status {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, id int64, status entity.DeliveryStatus, driverID *int64) error {
	d, err := f.get(id)
	if err != nil {
		return err
	}
	d.Status = status
	if driverID != nil {
		d.DriverID = driverID
	}
	return nil
}

func (f *fakeStore) MarkHandedOver(_ context.Context, id int64, at time.Time) error {
	d, err := f.get(id)
	if err != nil {
		return err
	}
	d.IsCashHandedOver = true
	d.HandedOverAt = &at
	return nil
}

type fakeSettler struct {
	settled []int64
	methods []string
}

func (f *fakeSettler) Settle(_ context.Context, orderID int64, paymentMethod string) error {
	f.settled = append(f.settled, orderID)
	f.methods = append(f.methods, paymentMethod)
	return nil
}

func newService(deliveries map[int64]*entity.Delivery) (*Service, *fakeStore, *fakeSettler) {
	store := &fakeStore{deliveries: deliveries}
	settler := &fakeSettler{}
	svc := New(Deps{
		Runner:     passRunner{},
		Deliveries: store,
		Settler:    settler,
	})
	return svc, store, settler
}

func TestAssign(t *testing.T) {
	svc, store, _ := newService(map[int64]*entity.Delivery{
		1: {ID: 1, OrderID: 10, Status: entity.DeliveryPending},
	})

	require.NoError(t, svc.Assign(context.Background(), 1, 55))
	assert.Equal(t, entity.DeliveryAssigned, store.deliveries[1].Status)
	require.NotNil(t, store.deliveries[1].DriverID)
	assert.Equal(t, int64(55), *store.deliveries[1].DriverID)

	// Re-assignment to another driver is legal while still assigned.
	require.NoError(t, svc.Assign(context.Background(), 1, 56))
	assert.Equal(t, int64(56), *store.deliveries[1].DriverID)
}

func TestTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    entity.DeliveryStatus
		call    func(*Service) error
		want    entity.DeliveryStatus
		wantErr bool
	}{
		{"pickup_from_assigned", entity.DeliveryAssigned, func(s *Service) error { return s.PickUp(context.Background(), 1) }, entity.DeliveryOnTheWay, false},
		{"pickup_from_pending_fails", entity.DeliveryPending, func(s *Service) error { return s.PickUp(context.Background(), 1) }, entity.DeliveryPending, true},
		{"complete_from_on_the_way", entity.DeliveryOnTheWay, func(s *Service) error { return s.Complete(context.Background(), 1) }, entity.DeliveryDelivered, false},
		{"complete_from_assigned_fails", entity.DeliveryAssigned, func(s *Service) error { return s.Complete(context.Background(), 1) }, entity.DeliveryAssigned, true},
		{"cancel_from_pending", entity.DeliveryPending, func(s *Service) error { return s.Cancel(context.Background(), 1) }, entity.DeliveryCancelled, false},
		{"cancel_from_assigned", entity.DeliveryAssigned, func(s *Service) error { return s.Cancel(context.Background(), 1) }, entity.DeliveryCancelled, false},
		{"cancel_on_road_fails", entity.DeliveryOnTheWay, func(s *Service) error { return s.Cancel(context.Background(), 1) }, entity.DeliveryOnTheWay, true},
		{"cancel_delivered_fails", entity.DeliveryDelivered, func(s *Service) error { return s.Cancel(context.Background(), 1) }, entity.DeliveryDelivered, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, _ := newService(map[int64]*entity.Delivery{
				1: {ID: 1, OrderID: 10, Status: tt.from},
			})

			err := tt.call(svc)
			if tt.wantErr {
				assert.True(t, errorbank.IsKind(err, errorbank.KindConflict), "got %v", err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, store.deliveries[1].Status)
		})
	}
}

func TestCompleteDoesNotSettle(t *testing.T) {
	svc, _, settler := newService(map[int64]*entity.Delivery{
		1: {ID: 1, OrderID: 10, Status: entity.DeliveryOnTheWay},
	})

	require.NoError(t, svc.Complete(context.Background(), 1))
	assert.Empty(t, settler.settled, "delivery completion must not settle; the cash is still in transit")
}

func TestHandOverCashSettlesEachOrder(t *testing.T) {
	svc, store, settler := newService(map[int64]*entity.Delivery{
		1: {ID: 1, OrderID: 10, Status: entity.DeliveryDelivered},
		2: {ID: 2, OrderID: 11, Status: entity.DeliveryDelivered},
	})

	require.NoError(t, svc.HandOverCash(context.Background(), []int64{1, 2}))
	assert.ElementsMatch(t, []int64{10, 11}, settler.settled)
	for _, m := range settler.methods {
		assert.Equal(t, entity.PaymentCash, m)
	}
	assert.True(t, store.deliveries[1].IsCashHandedOver)
	assert.True(t, store.deliveries[2].IsCashHandedOver)
	assert.NotNil(t, store.deliveries[1].HandedOverAt)
}

func TestHandOverCashSkipsAlreadyHandedOver(t *testing.T) {
	svc, _, settler := newService(map[int64]*entity.Delivery{
		1: {ID: 1, OrderID: 10, Status: entity.DeliveryDelivered, IsCashHandedOver: true},
		2: {ID: 2, OrderID: 11, Status: entity.DeliveryDelivered},
	})

	require.NoError(t, svc.HandOverCash(context.Background(), []int64{1, 2}))
	assert.Equal(t, []int64{11}, settler.settled)
}

func TestHandOverCashRejectsUndelivered(t *testing.T) {
	svc, _, settler := newService(map[int64]*entity.Delivery{
		1: {ID: 1, OrderID: 10, Status: entity.DeliveryOnTheWay},
	})

	err := svc.HandOverCash(context.Background(), []int64{1})
	assert.True(t, errorbank.IsKind(err, errorbank.KindConflict), "got %v", err)
	assert.Empty(t, settler.settled)
}

func TestHandOverCashEmptyBatch(t *testing.T) {
	svc, _, _ := newService(nil)

	err := svc.HandOverCash(context.Background(), nil)
	assert.True(t, errorbank.IsKind(err, errorbank.KindBadRequest), "got %v", err)
}

func TestHandOverCashUnknownDelivery(t *testing.T) {
	svc, _, _ := newService(nil)

	err := svc.HandOverCash(context.Background(), []int64{99})
	assert.True(t, errorbank.IsKind(err, errorbank.KindNotFound), "got %v", err)
}
