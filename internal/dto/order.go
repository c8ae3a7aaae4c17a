package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLineRequest is one requested line in an order creation payload.
type CartLineRequest struct {
	MenuItemID int64  `json:"menu_item_id"`
	Quantity   int    `json:"quantity"`
	Note       string `json:"note,omitempty"`
}

// DeliveryRequest carries customer fields for a delivery order.
type DeliveryRequest struct {
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone,omitempty"`
	Address       string `json:"address"`
}

// CreateOrderRequest is the order builder payload.
type CreateOrderRequest struct {
	Lines     []CartLineRequest `json:"lines"`
	TableID   *int64            `json:"table_id,omitempty"`
	Delivery  *DeliveryRequest  `json:"delivery,omitempty"`
	Note      string            `json:"note,omitempty"`
	ActorID   int64             `json:"actor_id"`
	ActorRole string            `json:"actor_role"`
}

// OrderLineResponse represents a single order line.
type OrderLineResponse struct {
	ID         int64           `json:"id"`
	MenuItemID int64           `json:"menu_item_id"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Status     string          `json:"status"`
	Note       string          `json:"note,omitempty"`
}

// OrderResponse represents an order as exposed via transport layers.
type OrderResponse struct {
	ID         int64               `json:"id"`
	Number     string              `json:"number"`
	Status     string              `json:"status"`
	TableID    *int64              `json:"table_id,omitempty"`
	Total      decimal.Decimal     `json:"total"`
	Tax        decimal.Decimal     `json:"tax"`
	ServiceFee decimal.Decimal     `json:"service_fee"`
	Note       string              `json:"note,omitempty"`
	Lines      []OrderLineResponse `json:"lines,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// AdvanceLinesRequest is the kitchen batch status payload.
type AdvanceLinesRequest struct {
	LineIDs []int64 `json:"line_ids"`
	Status  string  `json:"status"`
}

// PayOrderRequest is the cashier payment confirmation payload.
type PayOrderRequest struct {
	PaymentMethod string `json:"payment_method,omitempty"`
}
