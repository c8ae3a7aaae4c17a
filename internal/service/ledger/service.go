package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/bistro/internal/database"
	"github.com/Additional-Code/bistro/internal/entity"
	"github.com/Additional-Code/bistro/internal/observability"
	billingrepo "github.com/Additional-Code/bistro/internal/repository/billing"
	"github.com/Additional-Code/bistro/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/bistro/service/ledger")

// TillCustodian is the custodian key for the shared cashier till pool.
const TillCustodian = "till"

// BillStore is the ledger slice this service consumes.
type BillStore interface {
	Unsettled(ctx context.Context) ([]billingrepo.UnsettledBill, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*entity.Bill, error)
	MarkSettled(ctx context.Context, ids []int64, at time.Time) (int64, error)
}

// TxRunner runs a closure inside one database transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// CustodianGroup is the reconciliation view for one cash custodian.
type CustodianGroup struct {
	Custodian string
	DriverID  *int64
	Bills     []*entity.Bill
	Total     decimal.Decimal
}

// Deps collects the collaborators the ledger service needs.
type Deps struct {
	Runner TxRunner
	Bills  BillStore
}

// Service reconciles physically held cash against the revenue ledger.
type Service struct {
	deps Deps
}

// New constructs the reconciliation ledger service.
func New(deps Deps) *Service {
	return &Service{deps: deps}
}

// Outstanding groups unsettled bills by custodian: the till pool for walk-in
// bills, the assigned driver for delivery bills.
func (s *Service) Outstanding(ctx context.Context) ([]CustodianGroup, error) {
	ctx, span := serviceTracer.Start(ctx, "LedgerService.Outstanding")
	defer span.End()

	unsettled, err := s.deps.Bills.Unsettled(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load unsettled bills", errorbank.WithCause(err))
	}

	groups := make(map[string]*CustodianGroup)
	for _, row := range unsettled {
		key := TillCustodian
		if row.DriverID != nil {
			key = fmt.Sprintf("driver:%d", *row.DriverID)
		}
		g, ok := groups[key]
		if !ok {
			g = &CustodianGroup{Custodian: key, DriverID: row.DriverID, Total: decimal.Zero}
			groups[key] = g
		}
		g.Bills = append(g.Bills, row.Bill)
		g.Total = g.Total.Add(row.Bill.Amount)
	}

	out := make([]CustodianGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Custodian < out[j].Custodian })
	return out, nil
}

// Settle marks the given bills settled in one transaction. Unknown ids fail
// the whole call; already-settled ids are skipped silently, so overlapping
// reconciliation runs converge on the union.
func (s *Service) Settle(ctx context.Context, billIDs []int64) error {
	ctx, span := serviceTracer.Start(ctx, "LedgerService.Settle", trace.WithAttributes(attribute.Int("bill.count", len(billIDs))))
	defer span.End()

	if len(billIDs) == 0 {
		return errorbank.BadRequest("no bills given")
	}

	err := s.deps.Runner.RunInTx(ctx, func(ctx context.Context) error {
		bills, err := s.deps.Bills.GetByIDs(ctx, billIDs)
		if err != nil {
			return errorbank.Internal("failed to load bills", errorbank.WithCause(err))
		}
		if len(bills) != len(uniqueIDs(billIDs)) {
			return errorbank.NotFound("one or more bills not found")
		}
		settled, err := s.deps.Bills.MarkSettled(ctx, billIDs, time.Now().UTC())
		if err != nil {
			return errorbank.Internal("failed to settle bills", errorbank.WithCause(err))
		}
		// Already-settled bills are skipped by the store; only bills that
		// flipped on this run count, and only once the run commits.
		if settled > 0 {
			database.AfterCommit(ctx, func(context.Context) {
				observability.BillsReconciled.Add(float64(settled))
			})
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "settle failed")
		return err
	}
	return nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
