// Package authz maps (role, operation) pairs to permitted or denied and
// carries the ownership-narrowing rules that restrict what a permitted
// role may see or mutate. All checks are static; roles are fixed by the
// domain and not user-editable.
package authz

import (
	"github.com/orderflow/orderflow/internal/shared"
)

// Operation identifies a capability on the order surface.
type Operation string

const (
	OpListSalesOrders        Operation = "sales_orders.list"
	OpCreateSalesOrder       Operation = "sales_orders.create"
	OpUpdateSalesOrder       Operation = "sales_orders.update"
	OpDeleteSalesOrder       Operation = "sales_orders.delete"
	OpSetSalesOrderStatus    Operation = "sales_orders.set_status"
	OpListPurchaseOrders     Operation = "purchase_orders.list"
	OpSetPurchaseOrderStatus Operation = "purchase_orders.set_status"
)

// capabilities is the single source of truth for which roles may invoke
// which operation. Ownership narrowing is layered on top, see the Owns*
// and Scopes* helpers.
var capabilities = map[Operation][]shared.Role{
	OpListSalesOrders:        {shared.RoleSalesperson, shared.RolePurchase, shared.RoleVendor},
	OpCreateSalesOrder:       {shared.RoleSalesperson},
	OpUpdateSalesOrder:       {shared.RoleSalesperson, shared.RolePurchase, shared.RoleVendor},
	OpDeleteSalesOrder:       {shared.RoleSalesperson},
	OpSetSalesOrderStatus:    {shared.RolePurchase},
	OpListPurchaseOrders:     {shared.RoleVendor},
	OpSetPurchaseOrderStatus: {shared.RoleVendor},
}

// Guard answers authorization questions for the order lifecycle.
type Guard struct{}

// NewGuard constructs a Guard.
func NewGuard() *Guard {
	return &Guard{}
}

// Authorize reports whether the actor's role may invoke the operation.
// Returns shared.ErrForbidden on denial.
func (g *Guard) Authorize(actor shared.Actor, op Operation) error {
	allowed, ok := capabilities[op]
	if !ok {
		return shared.ErrForbidden
	}
	for _, role := range allowed {
		if actor.Role == role {
			return nil
		}
	}
	return shared.ErrForbidden
}

// ScopesSalesOrders reports whether listings and mutations of sales orders
// must be narrowed to records the actor created. Salespersons only ever see
// their own orders; purchasing and vendor roles see all.
func (g *Guard) ScopesSalesOrders(actor shared.Actor) bool {
	return actor.Role == shared.RoleSalesperson
}

// ScopesPurchaseOrders reports whether purchase order access must be
// narrowed to records assigned to the actor. Vendors only see their own.
func (g *Guard) ScopesPurchaseOrders(actor shared.Actor) bool {
	return actor.Role == shared.RoleVendor
}
