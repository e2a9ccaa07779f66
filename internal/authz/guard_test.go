package authz

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/orderflow/orderflow/internal/shared"
)

func TestAuthorize(t *testing.T) {
	guard := NewGuard()

	cases := []struct {
		name    string
		role    shared.Role
		op      Operation
		allowed bool
	}{
		{"salesperson creates", shared.RoleSalesperson, OpCreateSalesOrder, true},
		{"purchase cannot create", shared.RolePurchase, OpCreateSalesOrder, false},
		{"vendor cannot create", shared.RoleVendor, OpCreateSalesOrder, false},
		{"any role lists sales orders", shared.RoleVendor, OpListSalesOrders, true},
		{"any role updates sales orders", shared.RolePurchase, OpUpdateSalesOrder, true},
		{"only salesperson deletes", shared.RolePurchase, OpDeleteSalesOrder, false},
		{"salesperson deletes", shared.RoleSalesperson, OpDeleteSalesOrder, true},
		{"purchase approves", shared.RolePurchase, OpSetSalesOrderStatus, true},
		{"salesperson cannot approve", shared.RoleSalesperson, OpSetSalesOrderStatus, false},
		{"vendor cannot approve", shared.RoleVendor, OpSetSalesOrderStatus, false},
		{"vendor lists purchase orders", shared.RoleVendor, OpListPurchaseOrders, true},
		{"purchase cannot list purchase orders", shared.RolePurchase, OpListPurchaseOrders, false},
		{"vendor transitions purchase orders", shared.RoleVendor, OpSetPurchaseOrderStatus, true},
		{"salesperson cannot transition purchase orders", shared.RoleSalesperson, OpSetPurchaseOrderStatus, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := guard.Authorize(shared.Actor{ID: 1, Role: tc.role}, tc.op)
			if tc.allowed {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, shared.ErrForbidden)
			}
		})
	}
}

func TestAuthorizeUnknownOperation(t *testing.T) {
	guard := NewGuard()
	err := guard.Authorize(shared.Actor{ID: 1, Role: shared.RolePurchase}, Operation("nope"))
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestOwnershipScoping(t *testing.T) {
	guard := NewGuard()

	require.True(t, guard.ScopesSalesOrders(shared.Actor{Role: shared.RoleSalesperson}))
	require.False(t, guard.ScopesSalesOrders(shared.Actor{Role: shared.RolePurchase}))
	require.False(t, guard.ScopesSalesOrders(shared.Actor{Role: shared.RoleVendor}))

	require.True(t, guard.ScopesPurchaseOrders(shared.Actor{Role: shared.RoleVendor}))
	require.False(t, guard.ScopesPurchaseOrders(shared.Actor{Role: shared.RolePurchase}))
}
