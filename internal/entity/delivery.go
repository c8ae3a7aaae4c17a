package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// DeliveryStatus enumerates the delivery sub-workflow states, tracked
// independently of the order's own status.
type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryAssigned  DeliveryStatus = "assigned"
	DeliveryOnTheWay  DeliveryStatus = "out_for_delivery"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryCancelled DeliveryStatus = "cancelled"
)

// Delivery is one record per delivery-fulfilled order. Cash collected by the
// driver stays in custody until handed over; only handover settles the order.
type Delivery struct {
	bun.BaseModel `bun:"table:deliveries"`

	ID               int64           `bun:",pk,autoincrement"`
	OrderID          int64           `bun:"order_id"`
	CustomerName     string          `bun:"customer_name"`
	CustomerPhone    string          `bun:"customer_phone"`
	Address          string          `bun:"address"`
	DriverID         *int64          `bun:"driver_id"`
	Fee              decimal.Decimal `bun:"fee"`
	Status           DeliveryStatus  `bun:"status"`
	IsCashHandedOver bool            `bun:"is_cash_handed_over"`
	HandedOverAt     *time.Time      `bun:"handed_over_at"`
	CreatedAt        time.Time       `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time       `bun:"updated_at,nullzero"`
}
