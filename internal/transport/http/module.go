package http

import (
	"go.uber.org/fx"

	deliverytransport "github.com/Additional-Code/bistro/internal/transport/http/delivery"
	ledgertransport "github.com/Additional-Code/bistro/internal/transport/http/ledger"
	ordertransport "github.com/Additional-Code/bistro/internal/transport/http/order"
	tabletransport "github.com/Additional-Code/bistro/internal/transport/http/table"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	ordertransport.Module,
	deliverytransport.Module,
	ledgertransport.Module,
	tabletransport.Module,
)
