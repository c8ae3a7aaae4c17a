package order

import "github.com/Additional-Code/bistro/internal/entity"

// kitchenRank orders the stations' working statuses. Kitchen actors toggle
// lines one step at a time in either direction within this range and never
// set served or completed.
var kitchenRank = map[entity.LineStatus]int{
	entity.LinePending:   0,
	entity.LinePreparing: 1,
	entity.LineReady:     2,
}

// kitchenCanMove reports whether a kitchen actor may move a line from one
// status to another.
func kitchenCanMove(from, to entity.LineStatus) bool {
	f, okFrom := kitchenRank[from]
	t, okTo := kitchenRank[to]
	if !okFrom || !okTo {
		return false
	}
	d := t - f
	return d == 1 || d == -1
}

// aggregateStatus derives an order status from its line statuses: ready only
// once every line is ready, preparing if any line is preparing, pending
// otherwise. Served/completed/cancelled are authoritative overrides set by
// service actors and are never produced here.
func aggregateStatus(lines []*entity.OrderLine) entity.OrderStatus {
	if len(lines) == 0 {
		return entity.OrderPending
	}
	allReady := true
	anyPreparing := false
	for _, line := range lines {
		switch line.Status {
		case entity.LineReady, entity.LineServed, entity.LineCompleted:
		case entity.LinePreparing:
			anyPreparing = true
			allReady = false
		default:
			allReady = false
		}
	}
	switch {
	case allReady:
		return entity.OrderReady
	case anyPreparing:
		return entity.OrderPreparing
	default:
		return entity.OrderPending
	}
}
