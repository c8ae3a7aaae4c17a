package app

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/bistro/internal/cache"
	"github.com/Additional-Code/bistro/internal/config"
	"github.com/Additional-Code/bistro/internal/database"
	"github.com/Additional-Code/bistro/internal/logger"
	"github.com/Additional-Code/bistro/internal/messaging"
	"github.com/Additional-Code/bistro/internal/observability"
	repositorybilling "github.com/Additional-Code/bistro/internal/repository/billing"
	repositorycatalog "github.com/Additional-Code/bistro/internal/repository/catalog"
	repositorydelivery "github.com/Additional-Code/bistro/internal/repository/delivery"
	repositoryinventory "github.com/Additional-Code/bistro/internal/repository/inventory"
	repositoryorder "github.com/Additional-Code/bistro/internal/repository/order"
	repositorysettings "github.com/Additional-Code/bistro/internal/repository/settings"
	repositorytable "github.com/Additional-Code/bistro/internal/repository/table"
	grpcserver "github.com/Additional-Code/bistro/internal/server/grpc"
	httpserver "github.com/Additional-Code/bistro/internal/server/http"
	servicedelivery "github.com/Additional-Code/bistro/internal/service/delivery"
	serviceinventory "github.com/Additional-Code/bistro/internal/service/inventory"
	serviceledger "github.com/Additional-Code/bistro/internal/service/ledger"
	serviceorder "github.com/Additional-Code/bistro/internal/service/order"
	servicesettlement "github.com/Additional-Code/bistro/internal/service/settlement"
	servicetable "github.com/Additional-Code/bistro/internal/service/table"
	transporthttp "github.com/Additional-Code/bistro/internal/transport/http"
	"github.com/Additional-Code/bistro/internal/worker"
	workersettlement "github.com/Additional-Code/bistro/internal/worker/settlement"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	cache.Module,
	database.Module,
	logger.Module,
	messaging.Module,
	observability.Module,
	repositorybilling.Module,
	repositorycatalog.Module,
	repositorydelivery.Module,
	repositoryinventory.Module,
	repositoryorder.Module,
	repositorysettings.Module,
	repositorytable.Module,
	servicesettlement.Module,
	serviceorder.Module,
	servicedelivery.Module,
	serviceledger.Module,
	servicetable.Module,
	serviceinventory.Module,
)

// HTTP wires the HTTP transport on top of the core modules.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	transporthttp.Module,
)

// GRPC adds the gRPC listener alongside the HTTP transport.
var GRPC = fx.Options(
	HTTP,
	grpcserver.Module,
)

// Worker exposes background event processing.
var Worker = fx.Options(
	Core,
	worker.Module,
	workersettlement.Module,
)

// Module is the default application wiring (HTTP only).
var Module = HTTP
