package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// DeliveryResponse represents a delivery as exposed via transport layers.
type DeliveryResponse struct {
	ID               int64           `json:"id"`
	OrderID          int64           `json:"order_id"`
	CustomerName     string          `json:"customer_name"`
	CustomerPhone    string          `json:"customer_phone,omitempty"`
	Address          string          `json:"address"`
	DriverID         *int64          `json:"driver_id,omitempty"`
	Fee              decimal.Decimal `json:"fee"`
	Status           string          `json:"status"`
	IsCashHandedOver bool            `json:"is_cash_handed_over"`
	HandedOverAt     *time.Time      `json:"handed_over_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// AssignDriverRequest binds a driver to a delivery.
type AssignDriverRequest struct {
	DriverID int64 `json:"driver_id"`
}

// HandOverCashRequest is the bulk cash handover payload.
type HandOverCashRequest struct {
	DeliveryIDs []int64 `json:"delivery_ids"`
}
