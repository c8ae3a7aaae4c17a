package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Payment methods recorded on bills.
const (
	PaymentCash = "cash"
	PaymentCard = "card"
)

// Bill is one revenue-recognition ledger row tied to exactly one order.
// At most one bill exists per order; the settlement transaction checks
// existence before insert.
type Bill struct {
	bun.BaseModel `bun:"table:bills"`

	ID            int64           `bun:",pk,autoincrement"`
	OrderID       int64           `bun:"order_id"`
	Amount        decimal.Decimal `bun:"amount"`
	PaymentMethod string          `bun:"payment_method"`
	PaidAt        time.Time       `bun:"paid_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	IsSettled     bool            `bun:"is_settled"`
	SettledAt     *time.Time      `bun:"settled_at"`
}
