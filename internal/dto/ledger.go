package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// BillResponse represents one revenue ledger row.
type BillResponse struct {
	ID            int64           `json:"id"`
	OrderID       int64           `json:"order_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	PaidAt        time.Time       `json:"paid_at"`
	IsSettled     bool            `json:"is_settled"`
	SettledAt     *time.Time      `json:"settled_at,omitempty"`
}

// CustodianGroupResponse is the reconciliation view for one cash custodian.
type CustodianGroupResponse struct {
	Custodian string          `json:"custodian"`
	DriverID  *int64          `json:"driver_id,omitempty"`
	Total     decimal.Decimal `json:"total"`
	Bills     []BillResponse  `json:"bills"`
}

// SettleBillsRequest is the bulk reconciliation payload.
type SettleBillsRequest struct {
	BillIDs []int64 `json:"bill_ids"`
}

// TableResponse represents a floor-plan table.
type TableResponse struct {
	ID       int64  `json:"id"`
	Number   int    `json:"number"`
	Status   string `json:"status"`
	Capacity int    `json:"capacity"`
	PosX     int    `json:"pos_x"`
	PosY     int    `json:"pos_y"`
}

// SetTableStatusRequest changes a table's status.
type SetTableStatusRequest struct {
	Status string `json:"status"`
}

// MaterialResponse represents a raw material stock level.
type MaterialResponse struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	Stock        decimal.Decimal `json:"stock"`
	CostPerUnit  decimal.Decimal `json:"cost_per_unit"`
	ReorderLevel decimal.Decimal `json:"reorder_level"`
}
