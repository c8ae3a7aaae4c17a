package inventory

import (
	"go.uber.org/fx"

	inventoryrepo "github.com/Additional-Code/bistro/internal/repository/inventory"
)

// Module provides the inventory reporting service to Fx.
var Module = fx.Provide(func(repo *inventoryrepo.Repository) *Service {
	return New(repo)
})
