package ledger

import (
	"github.com/labstack/echo/v4"

	"github.com/Additional-Code/bistro/internal/dto"
	"github.com/Additional-Code/bistro/internal/presentation/http/response"
	service "github.com/Additional-Code/bistro/internal/service/ledger"
	"github.com/Additional-Code/bistro/pkg/errorbank"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/bistro/transport/http/ledger")

// Handler exposes reconciliation endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a ledger Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/ledger")
	g.GET("/outstanding", h.outstanding)
	g.POST("/settle", h.settle)
}

func (h *Handler) outstanding(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "ledger.outstanding")
	defer span.End()

	groups, err := h.svc.Outstanding(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}

	out := make([]dto.CustodianGroupResponse, 0, len(groups))
	for _, g := range groups {
		resp := dto.CustodianGroupResponse{
			Custodian: g.Custodian,
			DriverID:  g.DriverID,
			Total:     g.Total,
		}
		for _, bill := range g.Bills {
			resp.Bills = append(resp.Bills, dto.BillResponse{
				ID:            bill.ID,
				OrderID:       bill.OrderID,
				Amount:        bill.Amount,
				PaymentMethod: bill.PaymentMethod,
				PaidAt:        bill.PaidAt,
				IsSettled:     bill.IsSettled,
				SettledAt:     bill.SettledAt,
			})
		}
		out = append(out, resp)
	}
	return b.WithData(out).Build()
}

func (h *Handler) settle(c echo.Context) error {
	b := response.New(c)

	var payload dto.SettleBillsRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "ledger.settle", trace.WithAttributes(attribute.Int("bill.count", len(payload.BillIDs))))
	defer span.End()

	if err := h.svc.Settle(ctx, payload.BillIDs); err != nil {
		return b.WithError(err).Build()
	}
	return b.Build()
}
