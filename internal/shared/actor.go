package shared

// Role is the coarse-grained role an authenticated user acts under.
type Role string

const (
	// RoleSalesperson creates and maintains its own sales orders.
	RoleSalesperson Role = "salesperson"
	// RolePurchase approves or rejects pending sales orders.
	RolePurchase Role = "purchase"
	// RoleVendor fulfils purchase orders assigned to it.
	RoleVendor Role = "vendor"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSalesperson, RolePurchase, RoleVendor:
		return true
	}
	return false
}

// Actor is the authenticated identity an operation runs as. The service
// trusts the identity layer for both fields and never re-authenticates.
type Actor struct {
	ID   int64
	Role Role
}
