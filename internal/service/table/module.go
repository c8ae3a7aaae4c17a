package table

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/bistro/internal/database"
	orderrepo "github.com/Additional-Code/bistro/internal/repository/order"
	tablerepo "github.com/Additional-Code/bistro/internal/repository/table"
	"github.com/Additional-Code/bistro/internal/service/settlement"
)

type params struct {
	fx.In

	DB      *database.Connections
	Tables  *tablerepo.Repository
	Orders  *orderrepo.Repository
	Settler *settlement.Service
	Logger  *zap.Logger
}

// Module provides the table service to Fx.
var Module = fx.Provide(func(p params) *Service {
	return New(Deps{
		Runner:  p.DB,
		Tables:  p.Tables,
		Orders:  p.Orders,
		Settler: p.Settler,
		Logger:  p.Logger,
	})
})
