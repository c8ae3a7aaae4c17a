package settlement

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/bistro/internal/config"
	"github.com/Additional-Code/bistro/internal/entity"
	"github.com/Additional-Code/bistro/internal/messaging"
	inventoryrepo "github.com/Additional-Code/bistro/internal/repository/inventory"
	settlementsvc "github.com/Additional-Code/bistro/internal/service/settlement"
	"github.com/Additional-Code/bistro/internal/worker"
)

var workerTracer = otel.Tracer("github.com/Additional-Code/bistro/worker/settlement")

// Module registers settlement-related worker handlers.
var Module = fx.Module("worker_settlement",
	fx.Provide(
		fx.Annotate(
			NewOrderSettledHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// LowStockReader reports materials at or under their reorder level.
type LowStockReader interface {
	BelowReorderLevel(ctx context.Context) ([]*entity.RawMaterial, error)
}

// NewOrderSettledHandler consumes settlement events, logs the booking and
// warns when the deduction pushed any material under its reorder level.
func NewOrderSettledHandler(logger *zap.Logger, cfg config.Config, inventory *inventoryrepo.Repository) worker.HandlerRegistration {
	return worker.HandlerRegistration{
		Topic:   cfg.Messaging.Kafka.Topic,
		Handler: orderSettledHandler(logger, inventory),
	}
}

func orderSettledHandler(logger *zap.Logger, inventory LowStockReader) messaging.Handler {
	return func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.settlement.process", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
		))
		defer span.End()

		var event settlementsvc.OrderSettledEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Error("failed to decode settlement event", zap.Error(err))

			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return err
		}
		if event.OrderID == 0 {
			// Not a settlement event; the topic also carries creations.
			return nil
		}
		logger.Info("order settled",
			zap.Int64("order_id", event.OrderID),
			zap.String("number", event.Number),
			zap.String("amount", event.Amount.String()),
			zap.Int("deductions", event.Deductions),
		)

		low, err := inventory.BelowReorderLevel(ctx)
		if err != nil {
			logger.Warn("reorder level check failed", zap.Error(err))

			return nil
		}
		for _, m := range low {
			logger.Warn("material below reorder level",
				zap.Int64("material_id", m.ID),
				zap.String("name", m.Name),
				zap.String("stock", m.Stock.String()),
			)
		}
		return nil
	}
}
