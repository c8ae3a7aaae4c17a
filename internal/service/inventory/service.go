package inventory

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/Additional-Code/bistro/internal/entity"
	"github.com/Additional-Code/bistro/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/bistro/service/inventory")

// Store is the slice of the inventory repository this service consumes.
type Store interface {
	List(ctx context.Context) ([]*entity.RawMaterial, error)
	BelowReorderLevel(ctx context.Context) ([]*entity.RawMaterial, error)
}

// Service exposes the read-only stock reporting surface. Stock mutation for
// sales belongs to settlement alone.
type Service struct {
	stock Store
}

// New constructs the inventory reporting service.
func New(stock Store) *Service {
	return &Service{stock: stock}
}

// Levels returns all materials with their current stock.
func (s *Service) Levels(ctx context.Context) ([]*entity.RawMaterial, error) {
	ctx, span := serviceTracer.Start(ctx, "InventoryService.Levels")
	defer span.End()

	materials, err := s.stock.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to list materials", errorbank.WithCause(err))
	}
	return materials, nil
}

// LowStock returns materials at or under their reorder level.
func (s *Service) LowStock(ctx context.Context) ([]*entity.RawMaterial, error) {
	ctx, span := serviceTracer.Start(ctx, "InventoryService.LowStock")
	defer span.End()

	materials, err := s.stock.BelowReorderLevel(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to list low stock", errorbank.WithCause(err))
	}
	return materials, nil
}
