package delivery

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/bistro/internal/database"
	deliveryrepo "github.com/Additional-Code/bistro/internal/repository/delivery"
	"github.com/Additional-Code/bistro/internal/service/settlement"
)

type params struct {
	fx.In

	DB         *database.Connections
	Deliveries *deliveryrepo.Repository
	Settler    *settlement.Service
	Logger     *zap.Logger
}

// Module provides the delivery service to Fx.
var Module = fx.Provide(func(p params) *Service {
	return New(Deps{
		Runner:     p.DB,
		Deliveries: p.Deliveries,
		Settler:    p.Settler,
		Logger:     p.Logger,
	})
})
