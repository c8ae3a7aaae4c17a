package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Settings is the single global rates record. Services fetch it once per
// transaction so a mid-flight rate change cannot split an order's math.
type Settings struct {
	bun.BaseModel `bun:"table:settings"`

	ID            int64           `bun:",pk,autoincrement"`
	TaxPct        decimal.Decimal `bun:"tax_pct"`
	ServiceFeePct decimal.Decimal `bun:"service_fee_pct"`
	DeliveryFee   decimal.Decimal `bun:"delivery_fee"`
	UpdatedAt     time.Time       `bun:"updated_at,nullzero"`
}
