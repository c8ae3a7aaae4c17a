package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// OrderStatus enumerates the fulfillment states an order moves through.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPreparing OrderStatus = "preparing"
	OrderReady     OrderStatus = "ready"
	OrderServed    OrderStatus = "served"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

// Terminal reports whether no further transition is allowed.
func (s OrderStatus) Terminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}

// Authoritative reports whether the status was set explicitly by a service
// actor rather than derived from line statuses. Authoritative statuses are
// never overwritten by kitchen line aggregation.
func (s OrderStatus) Authoritative() bool {
	return s == OrderServed || s == OrderCompleted || s == OrderCancelled
}

// LineStatus enumerates per-line kitchen states.
type LineStatus string

const (
	LinePending   LineStatus = "pending"
	LinePreparing LineStatus = "preparing"
	LineReady     LineStatus = "ready"
	LineServed    LineStatus = "served"
	LineCompleted LineStatus = "completed"
)

// Order represents one customer transaction stored in the relational database.
// Monetary fields are frozen at creation time and never recomputed.
type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID         int64           `bun:",pk,autoincrement"`
	Number     string          `bun:"number"`
	Status     OrderStatus     `bun:"status"`
	TableID    *int64          `bun:"table_id"`
	Note       string          `bun:"note"`
	Total      decimal.Decimal `bun:"total"`
	Tax        decimal.Decimal `bun:"tax"`
	ServiceFee decimal.Decimal `bun:"service_fee"`
	CreatedAt  time.Time       `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time       `bun:"updated_at,nullzero"`

	Lines []*OrderLine `bun:"rel:has-many,join:id=order_id"`
}

// OrderLine is one ordered quantity of one menu item. Unit price carries the
// best discount active at order time; Cost is the recipe cost snapshot used
// by settlement instead of re-deriving from a possibly edited recipe.
type OrderLine struct {
	bun.BaseModel `bun:"table:order_lines"`

	ID         int64           `bun:",pk,autoincrement"`
	OrderID    int64           `bun:"order_id"`
	MenuItemID int64           `bun:"menu_item_id"`
	Quantity   int             `bun:"quantity"`
	UnitPrice  decimal.Decimal `bun:"unit_price"`
	TotalPrice decimal.Decimal `bun:"total_price"`
	Cost       decimal.Decimal `bun:"cost"`
	Status     LineStatus      `bun:"status"`
	Note       string          `bun:"note"`
	CreatedAt  time.Time       `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
}
