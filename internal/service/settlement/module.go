package settlement

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/bistro/internal/cache"
	"github.com/Additional-Code/bistro/internal/config"
	"github.com/Additional-Code/bistro/internal/database"
	"github.com/Additional-Code/bistro/internal/messaging"
	billingrepo "github.com/Additional-Code/bistro/internal/repository/billing"
	catalogrepo "github.com/Additional-Code/bistro/internal/repository/catalog"
	inventoryrepo "github.com/Additional-Code/bistro/internal/repository/inventory"
	orderrepo "github.com/Additional-Code/bistro/internal/repository/order"
	tablerepo "github.com/Additional-Code/bistro/internal/repository/table"
)

type params struct {
	fx.In

	DB        *database.Connections
	Orders    *orderrepo.Repository
	Catalog   *catalogrepo.Repository
	Inventory *inventoryrepo.Repository
	Billing   *billingrepo.Repository
	Tables    *tablerepo.Repository
	Cache     cache.Store
	Config    config.Config
	Logger    *zap.Logger
	Publisher messaging.Client
}

// Module provides the settlement service to Fx.
var Module = fx.Provide(func(p params) *Service {
	return New(Deps{
		Runner:    p.DB,
		Orders:    p.Orders,
		Recipes:   p.Catalog,
		Stock:     p.Inventory,
		Bills:     p.Billing,
		Tables:    p.Tables,
		Cache:     p.Cache,
		Logger:    p.Logger,
		Publisher: p.Publisher,
		Publish:   p.Config.Messaging.Enabled,
	})
})
