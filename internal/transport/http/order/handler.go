package order

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Additional-Code/bistro/internal/dto"
	"github.com/Additional-Code/bistro/internal/entity"
	"github.com/Additional-Code/bistro/internal/presentation/http/response"
	service "github.com/Additional-Code/bistro/internal/service/order"
	"github.com/Additional-Code/bistro/pkg/errorbank"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/bistro/transport/http/order")

// Handler exposes order endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs an order Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/orders")
	g.POST("", h.create)
	g.GET("/:id", h.getByID)
	g.POST("/:id/serve", h.serve)
	g.POST("/:id/pay", h.pay)
	g.POST("/:id/cancel", h.cancel)
	e.POST("/kitchen/lines", h.advanceLines)
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var payload dto.CreateOrderRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.create", trace.WithAttributes(
		attribute.Int("cart.lines", len(payload.Lines)),
	))
	defer span.End()

	req := service.CreateRequest{
		TableID: payload.TableID,
		Note:    payload.Note,
		Actor:   service.Actor{ID: payload.ActorID, Role: payload.ActorRole},
	}
	for _, line := range payload.Lines {
		req.Lines = append(req.Lines, service.CartLine{
			MenuItemID: line.MenuItemID,
			Quantity:   line.Quantity,
			Note:       line.Note,
		})
	}
	if payload.Delivery != nil {
		req.Delivery = &service.DeliveryInfo{
			CustomerName:  payload.Delivery.CustomerName,
			CustomerPhone: payload.Delivery.CustomerPhone,
			Address:       payload.Delivery.Address,
		}
	}

	order, err := h.svc.Create(ctx, req)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(toDTO(order)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.getByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(toDTO(order)).Build()
}

func (h *Handler) serve(c echo.Context) error {
	b := response.New(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.serve", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	if err := h.svc.MarkServed(ctx, id); err != nil {
		return b.WithError(err).Build()
	}
	return b.Build()
}

func (h *Handler) pay(c echo.Context) error {
	b := response.New(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	var payload dto.PayOrderRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.pay", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	if err := h.svc.ConfirmPayment(ctx, id, payload.PaymentMethod); err != nil {
		return b.WithError(err).Build()
	}
	return b.Build()
}

func (h *Handler) cancel(c echo.Context) error {
	b := response.New(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.cancel", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	if err := h.svc.Cancel(ctx, id); err != nil {
		return b.WithError(err).Build()
	}
	return b.Build()
}

func (h *Handler) advanceLines(c echo.Context) error {
	b := response.New(c)

	var payload dto.AdvanceLinesRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "kitchen.advanceLines", trace.WithAttributes(
		attribute.Int("line.count", len(payload.LineIDs)),
		attribute.String("line.status", payload.Status),
	))
	defer span.End()

	if err := h.svc.AdvanceLines(ctx, payload.LineIDs, entity.LineStatus(payload.Status)); err != nil {
		return b.WithError(err).Build()
	}
	return b.Build()
}

func toDTO(order *entity.Order) dto.OrderResponse {
	resp := dto.OrderResponse{
		ID:         order.ID,
		Number:     order.Number,
		Status:     string(order.Status),
		TableID:    order.TableID,
		Total:      order.Total,
		Tax:        order.Tax,
		ServiceFee: order.ServiceFee,
		Note:       order.Note,
		CreatedAt:  order.CreatedAt,
		UpdatedAt:  order.UpdatedAt,
	}
	for _, line := range order.Lines {
		resp.Lines = append(resp.Lines, dto.OrderLineResponse{
			ID:         line.ID,
			MenuItemID: line.MenuItemID,
			Quantity:   line.Quantity,
			UnitPrice:  line.UnitPrice,
			TotalPrice: line.TotalPrice,
			Status:     string(line.Status),
			Note:       line.Note,
		})
	}
	return resp
}
