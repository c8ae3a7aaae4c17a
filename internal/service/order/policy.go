package order

// Actor identifies who is performing an operation. Authentication happens
// upstream; the engine only sees the resolved identity.
type Actor struct {
	ID   int64
	Role string
}

// Known actor roles.
const (
	RoleCashier    = "cashier"
	RoleManager    = "manager"
	RoleWaiter     = "waiter"
	RoleKitchen    = "kitchen"
	RoleDriver     = "driver"
	RoleAccountant = "accountant"
)

// PaymentPolicy decides whether an order is paid at the point of sale and
// should be billed immediately on creation. Keeping this behind an interface
// keeps the engine agnostic of the role model.
type PaymentPolicy interface {
	AutoBill(actor Actor, isDelivery bool) bool
}

// RolePolicy is the default policy: cashier and manager registers take
// payment up front for anything that is not a delivery.
type RolePolicy struct{}

// AutoBill implements PaymentPolicy.
func (RolePolicy) AutoBill(actor Actor, isDelivery bool) bool {
	if isDelivery {
		return false
	}
	return actor.Role == RoleCashier || actor.Role == RoleManager
}
