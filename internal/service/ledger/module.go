package ledger

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/bistro/internal/database"
	billingrepo "github.com/Additional-Code/bistro/internal/repository/billing"
)

type params struct {
	fx.In

	DB      *database.Connections
	Billing *billingrepo.Repository
}

// Module provides the reconciliation ledger service to Fx.
var Module = fx.Provide(func(p params) *Service {
	return New(Deps{
		Runner: p.DB,
		Bills:  p.Billing,
	})
})
