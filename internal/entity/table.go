package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// TableStatus enumerates physical table states on the floor plan.
type TableStatus string

const (
	TableAvailable TableStatus = "available"
	TableOccupied  TableStatus = "occupied"
	TableReserved  TableStatus = "reserved"
	TableCleaning  TableStatus = "cleaning"
)

// Table is one physical seating unit.
type Table struct {
	bun.BaseModel `bun:"table:tables"`

	ID        int64       `bun:",pk,autoincrement"`
	Number    int         `bun:"number"`
	Status    TableStatus `bun:"status"`
	Capacity  int         `bun:"capacity"`
	PosX      int         `bun:"pos_x"`
	PosY      int         `bun:"pos_y"`
	UpdatedAt time.Time   `bun:"updated_at,nullzero"`
}
