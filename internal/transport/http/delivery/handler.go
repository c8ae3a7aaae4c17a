package delivery

import (
	"context"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Additional-Code/bistro/internal/dto"
	"github.com/Additional-Code/bistro/internal/entity"
	"github.com/Additional-Code/bistro/internal/presentation/http/response"
	service "github.com/Additional-Code/bistro/internal/service/delivery"
	"github.com/Additional-Code/bistro/pkg/errorbank"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/bistro/transport/http/delivery")

// Handler exposes delivery endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a delivery Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/deliveries")
	g.GET("", h.list)
	g.GET("/:id", h.getByID)
	g.POST("/:id/assign", h.assign)
	g.POST("/:id/pickup", h.pickup)
	g.POST("/:id/complete", h.complete)
	g.POST("/:id/cancel", h.cancel)
	g.POST("/handover", h.handover)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "deliveries.list")
	defer span.End()

	deliveries, err := h.svc.List(ctx, entity.DeliveryStatus(c.QueryParam("status")))
	if err != nil {
		return b.WithError(err).Build()
	}

	out := make([]dto.DeliveryResponse, 0, len(deliveries))
	for _, d := range deliveries {
		out = append(out, toDTO(d))
	}
	return b.WithData(out).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "deliveries.getByID", trace.WithAttributes(attribute.Int64("delivery.id", id)))
	defer span.End()

	d, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(toDTO(d)).Build()
}

func (h *Handler) assign(c echo.Context) error {
	b := response.New(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}
	var payload dto.AssignDriverRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	if payload.DriverID <= 0 {
		return b.WithError(errorbank.BadRequest("driver_id is required")).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "deliveries.assign", trace.WithAttributes(attribute.Int64("delivery.id", id)))
	defer span.End()

	if err := h.svc.Assign(ctx, id, payload.DriverID); err != nil {
		return b.WithError(err).Build()
	}
	return b.Build()
}

func (h *Handler) pickup(c echo.Context) error {
	return h.transition(c, "deliveries.pickup", h.svc.PickUp)
}

func (h *Handler) complete(c echo.Context) error {
	return h.transition(c, "deliveries.complete", h.svc.Complete)
}

func (h *Handler) cancel(c echo.Context) error {
	return h.transition(c, "deliveries.cancel", h.svc.Cancel)
}

func (h *Handler) transition(c echo.Context, spanName string, fn func(ctx context.Context, id int64) error) error {
	b := response.New(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), spanName, trace.WithAttributes(attribute.Int64("delivery.id", id)))
	defer span.End()

	if err := fn(ctx, id); err != nil {
		return b.WithError(err).Build()
	}
	return b.Build()
}

func (h *Handler) handover(c echo.Context) error {
	b := response.New(c)

	var payload dto.HandOverCashRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "deliveries.handover", trace.WithAttributes(attribute.Int("delivery.count", len(payload.DeliveryIDs))))
	defer span.End()

	if err := h.svc.HandOverCash(ctx, payload.DeliveryIDs); err != nil {
		return b.WithError(err).Build()
	}
	return b.Build()
}

func toDTO(d *entity.Delivery) dto.DeliveryResponse {
	return dto.DeliveryResponse{
		ID:               d.ID,
		OrderID:          d.OrderID,
		CustomerName:     d.CustomerName,
		CustomerPhone:    d.CustomerPhone,
		Address:          d.Address,
		DriverID:         d.DriverID,
		Fee:              d.Fee,
		Status:           string(d.Status),
		IsCashHandedOver: d.IsCashHandedOver,
		HandedOverAt:     d.HandedOverAt,
		CreatedAt:        d.CreatedAt,
	}
}
