package table

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Additional-Code/bistro/internal/dto"
	"github.com/Additional-Code/bistro/internal/entity"
	"github.com/Additional-Code/bistro/internal/presentation/http/response"
	inventorysvc "github.com/Additional-Code/bistro/internal/service/inventory"
	service "github.com/Additional-Code/bistro/internal/service/table"
	"github.com/Additional-Code/bistro/pkg/errorbank"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/bistro/transport/http/table")

// Handler exposes table and stock reporting endpoints over HTTP.
type Handler struct {
	svc   *service.Service
	stock *inventorysvc.Service
}

// NewHandler constructs a table Handler.
func NewHandler(svc *service.Service, stock *inventorysvc.Service) *Handler {
	return &Handler{svc: svc, stock: stock}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/tables")
	g.GET("", h.list)
	g.POST("/:id/status", h.setStatus)
	e.GET("/stock", h.stockLevels)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "tables.list")
	defer span.End()

	tables, err := h.svc.List(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}

	out := make([]dto.TableResponse, 0, len(tables))
	for _, t := range tables {
		out = append(out, dto.TableResponse{
			ID:       t.ID,
			Number:   t.Number,
			Status:   string(t.Status),
			Capacity: t.Capacity,
			PosX:     t.PosX,
			PosY:     t.PosY,
		})
	}
	return b.WithData(out).Build()
}

func (h *Handler) setStatus(c echo.Context) error {
	b := response.New(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}
	var payload dto.SetTableStatusRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	switch entity.TableStatus(payload.Status) {
	case entity.TableAvailable, entity.TableOccupied, entity.TableReserved, entity.TableCleaning:
	default:
		return b.WithError(errorbank.BadRequest("unknown table status", errorbank.WithDetail("status", payload.Status))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "tables.setStatus", trace.WithAttributes(
		attribute.Int64("table.id", id),
		attribute.String("table.status", payload.Status),
	))
	defer span.End()

	if err := h.svc.SetStatus(ctx, id, entity.TableStatus(payload.Status)); err != nil {
		return b.WithError(err).Build()
	}
	return b.Build()
}

func (h *Handler) stockLevels(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "stock.levels")
	defer span.End()

	materials, err := h.stock.Levels(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}

	out := make([]dto.MaterialResponse, 0, len(materials))
	for _, m := range materials {
		out = append(out, dto.MaterialResponse{
			ID:           m.ID,
			Name:         m.Name,
			Unit:         m.Unit,
			Stock:        m.Stock,
			CostPerUnit:  m.CostPerUnit,
			ReorderLevel: m.ReorderLevel,
		})
	}
	return b.WithData(out).Build()
}
