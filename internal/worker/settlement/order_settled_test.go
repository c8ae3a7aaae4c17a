package settlement

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/bistro/internal/entity"
	"github.com/Additional-Code/bistro/internal/messaging"
	settlementsvc "github.com/Additional-Code/bistro/internal/service/settlement"
)

type fakeInventory struct {
	low    []*entity.RawMaterial
	called int
}

func (f *fakeInventory) BelowReorderLevel(context.Context) ([]*entity.RawMaterial, error) {
	f.called++
	return f.low, nil
}

func settledMessage(t *testing.T) messaging.Message {
	t.Helper()
	payload, err := json.Marshal(settlementsvc.OrderSettledEvent{
		EventID:    "evt-1",
		OrderID:    7,
		Number:     "ORD-000007",
		Amount:     decimal.NewFromInt(2760),
		Method:     entity.PaymentCash,
		Deductions: 3,
		SettledAt:  time.Now().UTC(),
	})
	require.NoError(t, err)
	return messaging.Message{Topic: "orders.events", Value: payload}
}

func TestOrderSettledHandlerChecksStock(t *testing.T) {
	inventory := &fakeInventory{low: []*entity.RawMaterial{
		{ID: 1, Name: "flour", Stock: decimal.NewFromInt(2)},
	}}
	handler := orderSettledHandler(zap.NewNop(), inventory)

	require.NoError(t, handler(context.Background(), settledMessage(t)))
	assert.Equal(t, 1, inventory.called)
}

func TestOrderSettledHandlerIgnoresCreationEvents(t *testing.T) {
	payload, err := json.Marshal(map[string]any{
		"event_id": "evt-2",
		"id":       int64(7),
		"number":   "ORD-000007",
		"status":   "pending",
	})
	require.NoError(t, err)

	inventory := &fakeInventory{}
	handler := orderSettledHandler(zap.NewNop(), inventory)

	require.NoError(t, handler(context.Background(), messaging.Message{Topic: "orders.events", Value: payload}))
	assert.Zero(t, inventory.called, "creation events carry no order_id and are skipped")
}

func TestOrderSettledHandlerRejectsGarbage(t *testing.T) {
	handler := orderSettledHandler(zap.NewNop(), &fakeInventory{})

	err := handler(context.Background(), messaging.Message{Topic: "orders.events", Value: []byte("{broken")})
	assert.Error(t, err)
}
