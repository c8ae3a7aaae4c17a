package billing

import "go.uber.org/fx"

// Module provides the billing repository to Fx.
var Module = fx.Provide(NewRepository)
