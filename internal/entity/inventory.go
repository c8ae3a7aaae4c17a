package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// RawMaterial is one stocked ingredient. Stock is mutated for sales only by
// the settlement transaction via signed relative adjustments.
type RawMaterial struct {
	bun.BaseModel `bun:"table:raw_materials"`

	ID           int64           `bun:",pk,autoincrement"`
	Name         string          `bun:"name"`
	Unit         string          `bun:"unit"`
	Stock        decimal.Decimal `bun:"stock"`
	CostPerUnit  decimal.Decimal `bun:"cost_per_unit"`
	ReorderLevel decimal.Decimal `bun:"reorder_level"`
	UpdatedAt    time.Time       `bun:"updated_at,nullzero"`
}

// StockMovement is one audit row per stock adjustment. Sale deductions carry
// the order number that caused them.
type StockMovement struct {
	bun.BaseModel `bun:"table:stock_movements"`

	ID          int64           `bun:",pk,autoincrement"`
	MaterialID  int64           `bun:"material_id"`
	Delta       decimal.Decimal `bun:"delta"`
	Reason      string          `bun:"reason"`
	OrderNumber string          `bun:"order_number"`
	CreatedAt   time.Time       `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
}

// Stock movement reasons.
const (
	MovementSale       = "sale"
	MovementPurchase   = "purchase"
	MovementCorrection = "correction"
)
