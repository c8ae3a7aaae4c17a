package order

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Additional-Code/bistro/internal/entity"
)

func TestKitchenCanMove(t *testing.T) {
	tests := []struct {
		name string
		from entity.LineStatus
		to   entity.LineStatus
		want bool
	}{
		{"pending_to_preparing", entity.LinePending, entity.LinePreparing, true},
		{"preparing_to_ready", entity.LinePreparing, entity.LineReady, true},
		{"ready_back_to_preparing", entity.LineReady, entity.LinePreparing, true},
		{"preparing_back_to_pending", entity.LinePreparing, entity.LinePending, true},
		{"pending_skips_to_ready", entity.LinePending, entity.LineReady, false},
		{"ready_skips_to_pending", entity.LineReady, entity.LinePending, false},
		{"no_self_transition", entity.LinePreparing, entity.LinePreparing, false},
		{"kitchen_cannot_serve", entity.LineReady, entity.LineServed, false},
		{"served_is_out_of_reach", entity.LineServed, entity.LineReady, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, kitchenCanMove(tt.from, tt.to))
		})
	}
}

func TestAggregateStatus(t *testing.T) {
	lines := func(statuses ...entity.LineStatus) []*entity.OrderLine {
		out := make([]*entity.OrderLine, 0, len(statuses))
		for _, s := range statuses {
			out = append(out, &entity.OrderLine{Status: s})
		}
		return out
	}

	tests := []struct {
		name  string
		lines []*entity.OrderLine
		want  entity.OrderStatus
	}{
		{"no_lines", nil, entity.OrderPending},
		{"all_pending", lines(entity.LinePending, entity.LinePending), entity.OrderPending},
		{"one_preparing", lines(entity.LinePending, entity.LinePreparing), entity.OrderPreparing},
		{"mixed_ready_and_preparing", lines(entity.LineReady, entity.LinePreparing), entity.OrderPreparing},
		{"ready_and_pending_stays_pending", lines(entity.LineReady, entity.LinePending), entity.OrderPending},
		{"all_ready", lines(entity.LineReady, entity.LineReady), entity.OrderReady},
		{"served_counts_as_ready", lines(entity.LineReady, entity.LineServed), entity.OrderReady},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, aggregateStatus(tt.lines))
		})
	}
}

func TestRolePolicyAutoBill(t *testing.T) {
	policy := RolePolicy{}

	assert.True(t, policy.AutoBill(Actor{Role: RoleCashier}, false))
	assert.True(t, policy.AutoBill(Actor{Role: RoleManager}, false))
	assert.False(t, policy.AutoBill(Actor{Role: RoleWaiter}, false))
	assert.False(t, policy.AutoBill(Actor{Role: RoleCashier}, true), "delivery orders are never billed up front")
}
