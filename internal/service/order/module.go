package order

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/bistro/internal/cache"
	"github.com/Additional-Code/bistro/internal/config"
	"github.com/Additional-Code/bistro/internal/database"
	"github.com/Additional-Code/bistro/internal/messaging"
	billingrepo "github.com/Additional-Code/bistro/internal/repository/billing"
	catalogrepo "github.com/Additional-Code/bistro/internal/repository/catalog"
	deliveryrepo "github.com/Additional-Code/bistro/internal/repository/delivery"
	orderrepo "github.com/Additional-Code/bistro/internal/repository/order"
	settingsrepo "github.com/Additional-Code/bistro/internal/repository/settings"
	tablerepo "github.com/Additional-Code/bistro/internal/repository/table"
	"github.com/Additional-Code/bistro/internal/service/settlement"
)

type params struct {
	fx.In

	DB         *database.Connections
	Orders     *orderrepo.Repository
	Catalog    *catalogrepo.Repository
	Tables     *tablerepo.Repository
	Deliveries *deliveryrepo.Repository
	Billing    *billingrepo.Repository
	Settings   *settingsrepo.Repository
	Settler    *settlement.Service
	Cache      cache.Store
	Config     config.Config
	Logger     *zap.Logger
	Publisher  messaging.Client
}

// Module provides the order service to Fx.
var Module = fx.Provide(func(p params) *Service {
	return New(Deps{
		Runner:     p.DB,
		Orders:     p.Orders,
		Catalog:    p.Catalog,
		Tables:     p.Tables,
		Deliveries: p.Deliveries,
		Bills:      p.Billing,
		Rates:      p.Settings,
		Settler:    p.Settler,
		Policy:     RolePolicy{},
		Cache:      p.Cache,
		CacheTTL:   p.Config.Orders.CacheTTL,
		Logger:     p.Logger,
		Publisher:  p.Publisher,
		Publish:    p.Config.Messaging.Enabled,
	})
})
