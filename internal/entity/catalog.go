package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// MenuItem is one sellable catalog entry.
type MenuItem struct {
	bun.BaseModel `bun:"table:menu_items"`

	ID        int64           `bun:",pk,autoincrement"`
	Name      string          `bun:"name"`
	Price     decimal.Decimal `bun:"price"`
	Active    bool            `bun:"active"`
	CreatedAt time.Time       `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time       `bun:"updated_at,nullzero"`

	Recipe    []*RecipeIngredient `bun:"rel:has-many,join:id=menu_item_id"`
	Discounts []*Discount         `bun:"rel:has-many,join:id=menu_item_id"`
}

// Discount is a time-bounded percentage promotion on a single menu item.
type Discount struct {
	bun.BaseModel `bun:"table:discounts"`

	ID         int64           `bun:",pk,autoincrement"`
	MenuItemID int64           `bun:"menu_item_id"`
	Percentage decimal.Decimal `bun:"percentage"`
	StartsAt   time.Time       `bun:"starts_at"`
	EndsAt     time.Time       `bun:"ends_at"`
	Active     bool            `bun:"active"`
}

// ActiveAt reports whether the discount applies at the given instant.
func (d *Discount) ActiveAt(t time.Time) bool {
	return d.Active && !t.Before(d.StartsAt) && t.Before(d.EndsAt)
}

// RecipeIngredient maps a menu item to the raw material quantity consumed
// per unit sold.
type RecipeIngredient struct {
	bun.BaseModel `bun:"table:recipe_ingredients"`

	ID         int64           `bun:",pk,autoincrement"`
	MenuItemID int64           `bun:"menu_item_id"`
	MaterialID int64           `bun:"material_id"`
	Quantity   decimal.Decimal `bun:"quantity"`

	Material *RawMaterial `bun:"rel:belongs-to,join:material_id=id"`
}
