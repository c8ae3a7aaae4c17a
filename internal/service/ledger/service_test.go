package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/bistro/internal/entity"
	"github.com/Additional-Code/bistro/internal/observability"
	billingrepo "github.com/Additional-Code/bistro/internal/repository/billing"
	"github.com/Additional-Code/bistro/pkg/errorbank"
)

type passRunner struct{}

func (passRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeBills struct {
	bills   map[int64]*entity.Bill
	drivers map[int64]*int64
}

func newFakeBills() *fakeBills {
	return &fakeBills{bills: map[int64]*entity.Bill{}, drivers: map[int64]*int64{}}
}

func (f *fakeBills) add(bill *entity.Bill, driverID *int64) {
	f.bills[bill.ID] = bill
	f.drivers[bill.ID] = driverID
}

func (f *fakeBills) Unsettled(context.Context) ([]billingrepo.UnsettledBill, error) {
	var out []billingrepo.UnsettledBill
	for id, b := range f.bills {
		if b.IsSettled {
			continue
		}
		out = append(out, billingrepo.UnsettledBill{Bill: b, DriverID: f.drivers[id]})
	}
	return out, nil
}

func (f *fakeBills) GetByIDs(_ context.Context, ids []int64) ([]*entity.Bill, error) {
	seen := map[int64]struct{}{}
	var out []*entity.Bill
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if b, ok := f.bills[id]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBills) MarkSettled(_ context.Context, ids []int64, at time.Time) (int64, error) {
	var affected int64
	for _, id := range ids {
		b, ok := f.bills[id]
		if !ok || b.IsSettled {
			continue
		}
		b.IsSettled = true
		b.SettledAt = &at
		affected++
	}
	return affected, nil
}

func newService() (*Service, *fakeBills) {
	bills := newFakeBills()
	svc := New(Deps{Runner: passRunner{}, Bills: bills})
	return svc, bills
}

func driverID(id int64) *int64 { return &id }

func TestOutstandingGroupsByCustodian(t *testing.T) {
	svc, bills := newService()
	bills.add(&entity.Bill{ID: 1, Amount: decimal.NewFromInt(100)}, nil)
	bills.add(&entity.Bill{ID: 2, Amount: decimal.NewFromInt(250)}, nil)
	bills.add(&entity.Bill{ID: 3, Amount: decimal.NewFromInt(500)}, driverID(7))
	bills.add(&entity.Bill{ID: 4, Amount: decimal.NewFromInt(40), IsSettled: true}, driverID(7))

	groups, err := svc.Outstanding(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 2)

	// Sorted by custodian key: "driver:7" before "till".
	assert.Equal(t, "driver:7", groups[0].Custodian)
	require.NotNil(t, groups[0].DriverID)
	assert.Equal(t, int64(7), *groups[0].DriverID)
	assert.Len(t, groups[0].Bills, 1)
	assert.True(t, groups[0].Total.Equal(decimal.NewFromInt(500)))

	assert.Equal(t, TillCustodian, groups[1].Custodian)
	assert.Nil(t, groups[1].DriverID)
	assert.Len(t, groups[1].Bills, 2)
	assert.True(t, groups[1].Total.Equal(decimal.NewFromInt(350)))
}

func TestOutstandingEmptyLedger(t *testing.T) {
	svc, _ := newService()

	groups, err := svc.Outstanding(context.Background())
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestSettleMarksBills(t *testing.T) {
	svc, bills := newService()
	bills.add(&entity.Bill{ID: 1}, nil)
	bills.add(&entity.Bill{ID: 2}, driverID(7))

	require.NoError(t, svc.Settle(context.Background(), []int64{1, 2}))
	assert.True(t, bills.bills[1].IsSettled)
	assert.True(t, bills.bills[2].IsSettled)
	assert.NotNil(t, bills.bills[1].SettledAt)
}

func TestSettleConvergesOnOverlap(t *testing.T) {
	svc, bills := newService()
	bills.add(&entity.Bill{ID: 1}, nil)
	bills.add(&entity.Bill{ID: 2}, nil)

	require.NoError(t, svc.Settle(context.Background(), []int64{1}))
	first := bills.bills[1].SettledAt
	require.NotNil(t, first)

	// Overlapping run: bill 1 again plus bill 2. Bill 1 keeps its timestamp.
	require.NoError(t, svc.Settle(context.Background(), []int64{1, 2}))
	assert.Equal(t, first, bills.bills[1].SettledAt)
	assert.True(t, bills.bills[2].IsSettled)
}

func TestSettleCountsOnlyNewlySettledBills(t *testing.T) {
	svc, bills := newService()
	bills.add(&entity.Bill{ID: 1}, nil)
	bills.add(&entity.Bill{ID: 2, IsSettled: true}, nil)
	bills.add(&entity.Bill{ID: 3}, driverID(7))

	before := testutil.ToFloat64(observability.BillsReconciled)
	require.NoError(t, svc.Settle(context.Background(), []int64{1, 2, 3}))

	// Bill 2 was already settled and skipped; only two bills flipped.
	assert.Equal(t, 2.0, testutil.ToFloat64(observability.BillsReconciled)-before)
}

func TestSettleDuplicateIDs(t *testing.T) {
	svc, bills := newService()
	bills.add(&entity.Bill{ID: 1}, nil)

	require.NoError(t, svc.Settle(context.Background(), []int64{1, 1, 1}))
	assert.True(t, bills.bills[1].IsSettled)
}

func TestSettleUnknownBillFailsWhole(t *testing.T) {
	svc, bills := newService()
	bills.add(&entity.Bill{ID: 1}, nil)

	err := svc.Settle(context.Background(), []int64{1, 99})
	assert.True(t, errorbank.IsKind(err, errorbank.KindNotFound), "got %v", err)
	assert.False(t, bills.bills[1].IsSettled, "a failed batch must settle nothing")
}

func TestSettleEmptyBatch(t *testing.T) {
	svc, _ := newService()

	err := svc.Settle(context.Background(), nil)
	assert.True(t, errorbank.IsKind(err, errorbank.KindBadRequest), "got %v", err)
}
