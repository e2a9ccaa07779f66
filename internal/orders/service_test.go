package orders

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/orderflow/orderflow/internal/authz"
	"github.com/orderflow/orderflow/internal/shared"
)

type memoryUser struct {
	name  string
	email string
}

type memoryRepo struct {
	sales     map[uuid.UUID]SalesOrder
	salesSeq  []uuid.UUID
	purchases map[uuid.UUID]PurchaseOrder
	purchSeq  []uuid.UUID
	users     map[int64]memoryUser
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		sales:     make(map[uuid.UUID]SalesOrder),
		purchases: make(map[uuid.UUID]PurchaseOrder),
		users:     make(map[int64]memoryUser),
	}
}

// WithTx snapshots state and restores it when fn fails, matching the
// all-or-nothing behaviour of the SQL implementation.
func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	sales := make(map[uuid.UUID]SalesOrder, len(r.sales))
	for k, v := range r.sales {
		sales[k] = v
	}
	purchases := make(map[uuid.UUID]PurchaseOrder, len(r.purchases))
	for k, v := range r.purchases {
		purchases[k] = v
	}
	salesSeq := append([]uuid.UUID(nil), r.salesSeq...)
	purchSeq := append([]uuid.UUID(nil), r.purchSeq...)

	if err := fn(ctx, r); err != nil {
		r.sales = sales
		r.purchases = purchases
		r.salesSeq = salesSeq
		r.purchSeq = purchSeq
		return err
	}
	return nil
}

func (r *memoryRepo) CreateSalesOrder(ctx context.Context, order SalesOrder) error {
	r.sales[order.ID] = order
	r.salesSeq = append(r.salesSeq, order.ID)
	return nil
}

func (r *memoryRepo) GetSalesOrder(ctx context.Context, id uuid.UUID, createdBy *int64) (*SalesOrder, error) {
	order, ok := r.sales[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	if createdBy != nil && order.CreatedBy != *createdBy {
		return nil, shared.ErrNotFound
	}
	copied := order
	return &copied, nil
}

func (r *memoryRepo) ListSalesOrders(ctx context.Context, createdBy *int64) ([]SalesOrderWithCreator, error) {
	var result []SalesOrderWithCreator
	for i := len(r.salesSeq) - 1; i >= 0; i-- {
		order, ok := r.sales[r.salesSeq[i]]
		if !ok {
			continue
		}
		if createdBy != nil && order.CreatedBy != *createdBy {
			continue
		}
		creator := r.users[order.CreatedBy]
		result = append(result, SalesOrderWithCreator{
			SalesOrder:   order,
			CreatorName:  creator.name,
			CreatorEmail: creator.email,
		})
	}
	return result, nil
}

func (r *memoryRepo) UpdateSalesOrderFields(ctx context.Context, order SalesOrder) (bool, error) {
	existing, ok := r.sales[order.ID]
	if !ok {
		return false, nil
	}
	existing.CustomerName = order.CustomerName
	existing.SP = order.SP
	existing.CP = order.CP
	existing.Profit = order.Profit
	existing.ProfitPercentage = order.ProfitPercentage
	existing.UpdatedAt = order.UpdatedAt
	r.sales[order.ID] = existing
	return true, nil
}

func (r *memoryRepo) UpdateSalesOrderStatus(ctx context.Context, id uuid.UUID, from, to SalesOrderStatus) (bool, error) {
	order, ok := r.sales[id]
	if !ok || order.Status != from {
		return false, nil
	}
	order.Status = to
	r.sales[id] = order
	return true, nil
}

func (r *memoryRepo) DeleteSalesOrder(ctx context.Context, id uuid.UUID, createdBy int64) (bool, error) {
	order, ok := r.sales[id]
	if !ok || order.CreatedBy != createdBy {
		return false, nil
	}
	delete(r.sales, id)
	return true, nil
}

func (r *memoryRepo) CreatePurchaseOrder(ctx context.Context, order PurchaseOrder) error {
	r.purchases[order.ID] = order
	r.purchSeq = append(r.purchSeq, order.ID)
	return nil
}

func (r *memoryRepo) GetPurchaseOrder(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error) {
	order, ok := r.purchases[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := order
	return &copied, nil
}

func (r *memoryRepo) ListPurchaseOrders(ctx context.Context, vendorID int64) ([]PurchaseOrderWithSalesOrder, error) {
	var result []PurchaseOrderWithSalesOrder
	for i := len(r.purchSeq) - 1; i >= 0; i-- {
		order, ok := r.purchases[r.purchSeq[i]]
		if !ok || order.VendorID != vendorID {
			continue
		}
		result = append(result, PurchaseOrderWithSalesOrder{
			PurchaseOrder: order,
			SalesOrder:    r.sales[order.SalesOrderID],
		})
	}
	return result, nil
}

func (r *memoryRepo) UpdatePurchaseOrderStatus(ctx context.Context, id uuid.UUID, vendorID int64, from, to PurchaseOrderStatus) (bool, error) {
	order, ok := r.purchases[id]
	if !ok || order.VendorID != vendorID || order.Status != from {
		return false, nil
	}
	order.Status = to
	r.purchases[id] = order
	return true, nil
}

func (r *memoryRepo) DeletePurchaseOrdersBySalesOrder(ctx context.Context, salesOrderID uuid.UUID) error {
	for id, order := range r.purchases {
		if order.SalesOrderID == salesOrderID {
			delete(r.purchases, id)
		}
	}
	return nil
}

type stubAssigner struct {
	vendorID int64
	err      error
}

func (s *stubAssigner) NextVendor(ctx context.Context) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.vendorID, nil
}

var (
	sellerAlice = shared.Actor{ID: 1, Role: shared.RoleSalesperson}
	sellerBob   = shared.Actor{ID: 2, Role: shared.RoleSalesperson}
	buyerCarol  = shared.Actor{ID: 3, Role: shared.RolePurchase}
	vendorDave  = shared.Actor{ID: 4, Role: shared.RoleVendor}
	vendorErin  = shared.Actor{ID: 5, Role: shared.RoleVendor}
)

func newTestService(t *testing.T, assigner VendorAssigner) (*Service, *memoryRepo) {
	t.Helper()
	repo := newMemoryRepo()
	repo.users[sellerAlice.ID] = memoryUser{name: "Alice", email: "alice@example.com"}
	repo.users[sellerBob.ID] = memoryUser{name: "Bob", email: "bob@example.com"}
	if assigner == nil {
		assigner = &stubAssigner{vendorID: vendorDave.ID}
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(logger, repo, authz.NewGuard(), assigner), repo
}

func TestCreateSalesOrderComputesProfit(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	order, err := svc.CreateSalesOrder(ctx, sellerAlice, CreateSalesOrderRequest{
		CustomerName: "Acme",
		SP:           1500,
		CP:           1000,
	})
	require.NoError(t, err)
	require.Equal(t, "Acme", order.CustomerName)
	require.Equal(t, 500.0, order.Profit)
	require.InDelta(t, 33.33, order.ProfitPercentage, 0.01)
	require.Equal(t, SalesOrderPending, order.Status)
	require.Equal(t, sellerAlice.ID, order.CreatedBy)
	require.NotZero(t, order.ID)
	require.False(t, order.CreatedAt.IsZero())
}

func TestCreateSalesOrderValidation(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.CreateSalesOrder(ctx, sellerAlice, CreateSalesOrderRequest{CustomerName: "", SP: 10, CP: 5})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreateSalesOrder(ctx, sellerAlice, CreateSalesOrderRequest{CustomerName: "   ", SP: 10, CP: 5})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreateSalesOrder(ctx, sellerAlice, CreateSalesOrderRequest{CustomerName: "Acme", SP: -1, CP: 5})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreateSalesOrder(ctx, sellerAlice, CreateSalesOrderRequest{CustomerName: "Acme", SP: 10, CP: -5})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateSalesOrderRequiresSalespersonRole(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	for _, actor := range []shared.Actor{buyerCarol, vendorDave} {
		_, err := svc.CreateSalesOrder(ctx, actor, CreateSalesOrderRequest{CustomerName: "Acme", SP: 10, CP: 5})
		require.ErrorIs(t, err, shared.ErrForbidden)
	}
}

func TestListSalesOrdersScopesSalespersons(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.CreateSalesOrder(ctx, sellerAlice, CreateSalesOrderRequest{CustomerName: "Acme", SP: 100, CP: 60})
	require.NoError(t, err)
	_, err = svc.CreateSalesOrder(ctx, sellerAlice, CreateSalesOrderRequest{CustomerName: "Globex", SP: 200, CP: 150})
	require.NoError(t, err)
	_, err = svc.CreateSalesOrder(ctx, sellerBob, CreateSalesOrderRequest{CustomerName: "Initech", SP: 300, CP: 100})
	require.NoError(t, err)

	mine, err := svc.ListSalesOrders(ctx, sellerAlice)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	for _, order := range mine {
		require.Equal(t, sellerAlice.ID, order.CreatedBy)
		require.Equal(t, "Alice", order.CreatorName)
	}

	all, err := svc.ListSalesOrders(ctx, buyerCarol)
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Newest first.
	require.Equal(t, "Initech", all[0].CustomerName)
}

func TestUpdateSalesOrderRecomputesProfit(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	order, err := svc.CreateSalesOrder(ctx, sellerAlice, CreateSalesOrderRequest{CustomerName: "Acme", SP: 1500, CP: 1000})
	require.NoError(t, err)

	newSP := 2000.0
	updated, err := svc.UpdateSalesOrder(ctx, sellerAlice, order.ID, UpdateSalesOrderRequest{SP: &newSP})
	require.NoError(t, err)
	require.Equal(t, 1000.0, updated.Profit)
	require.InDelta(t, 50, updated.ProfitPercentage, 1e-9)
	require.Equal(t, 1000.0, updated.CP)

	zero := 0.0
	updated, err = svc.UpdateSalesOrder(ctx, sellerAlice, order.ID, UpdateSalesOrderRequest{SP: &zero})
	require.NoError(t, err)
	require.Equal(t, -1000.0, updated.Profit)
	require.Zero(t, updated.ProfitPercentage)
}

func TestUpdateSalesOrderRejectsDerivedAndStatusFields(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	order, err := svc.CreateSalesOrder(ctx, sellerAlice, CreateSalesOrderRequest{CustomerName: "Acme", SP: 100, CP: 50})
	require.NoError(t, err)

	profit := 9999.0
	_, err = svc.UpdateSalesOrder(ctx, sellerAlice, order.ID, UpdateSalesOrderRequest{Profit: &profit})
	require.ErrorIs(t, err, shared.ErrValidation)

	margin := 100.0
	_, err = svc.UpdateSalesOrder(ctx, sellerAlice, order.ID, UpdateSalesOrderRequest{ProfitPercentage: &margin})
	require.ErrorIs(t, err, shared.ErrValidation)

	status := string(SalesOrderDelivered)
	_, err = svc.UpdateSalesOrder(ctx, sellerAlice, order.ID, UpdateSalesOrderRequest{Status: &status})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestUpdateSalesOrderOwnership(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	order, err := svc.CreateSalesOrder(ctx, sellerAlice, CreateSalesOrderRequest{CustomerName: "Acme", SP: 100, CP: 50})
	require.NoError(t, err)

	// A salesperson who does not own the record cannot tell it exists.
	name := "Hijacked"
	_, err = svc.UpdateSalesOrder(ctx, sellerBob, order.ID, UpdateSalesOrderRequest{CustomerName: &name})
	require.ErrorIs(t, err, shared.ErrNotFound)

	// Purchasing may update records it does not own.
	updated, err := svc.UpdateSalesOrder(ctx, buyerCarol, order.ID, UpdateSalesOrderRequest{CustomerName: &name})
	require.NoError(t, err)
	require.Equal(t, "Hijacked", updated.CustomerName)
}

func TestApproveCreatesLinkedPurchaseOrder(t *testing.T) {
	svc, repo := newTestService(t, nil)
	ctx := context.Background()

	order, err := svc.CreateSalesOrder(ctx, sellerAlice, CreateSalesOrderRequest{CustomerName: "Acme", SP: 1500, CP: 1000})
	require.NoError(t, err)

	approved, err := svc.SetSalesOrderStatus(ctx, buyerCarol, order.ID, SalesOrderApproved)
	require.NoError(t, err)
	require.Equal(t, SalesOrderApproved, approved.Status)

	require.Len(t, repo.purchases, 1)
	for _, po := range repo.purchases {
		require.Equal(t, order.ID, po.SalesOrderID)
		require.Equal(t, vendorDave.ID, po.VendorID)
		require.Equal(t, PurchaseOrderPending, po.Status)
	}

	// A second approval attempt finds the order no longer Pending.
	_, err = svc.SetSalesOrderStatus(ctx, buyerCarol, order.ID, SalesOrderApproved)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
	require.Len(t, repo.purchases, 1)
}

func TestRejectDoesNotCreatePurchaseOrder(t *testing.T) {
	svc, repo := newTestService(t, nil)
	ctx := context.Background()

	order, err := svc.CreateSalesOrder(ctx, sellerAlice, CreateSalesOrderRequest{CustomerName: "Acme", SP: 100, CP: 50})
	require.NoError(t, err)

	rejected, err := svc.SetSalesOrderStatus(ctx, buyerCarol, order.ID, SalesOrderRejected)
	require.NoError(t, err)
	require.Equal(t, SalesOrderRejected, rejected.Status)
	require.Empty(t, repo.purchases)

	// No un-reject.
	_, err = svc.SetSalesOrderStatus(ctx, buyerCarol, order.ID, SalesOrderApproved)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestSetSalesOrderStatusValidation(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	order, err := svc.CreateSalesOrder(ctx, sellerAlice, CreateSalesOrderRequest{CustomerName: "Acme", SP: 100, CP: 50})
	require.NoError(t, err)

	// Only Approved and Rejected are legal decision targets.
	_, err = svc.SetSalesOrderStatus(ctx, buyerCarol, order.ID, SalesOrderDelivered)
	require.ErrorIs(t, err, shared.ErrValidation)
	_, err = svc.SetSalesOrderStatus(ctx, buyerCarol, order.ID, SalesOrderStatus("Bogus"))
	require.ErrorIs(t, err, shared.ErrValidation)

	// Only purchasing decides.
	_, err = svc.SetSalesOrderStatus(ctx, sellerAlice, order.ID, SalesOrderApproved)
	require.ErrorIs(t, err, shared.ErrForbidden)
	_, err = svc.SetSalesOrderStatus(ctx, vendorDave, order.ID, SalesOrderApproved)
	require.ErrorIs(t, err, shared.ErrForbidden)

	_, err = svc.SetSalesOrderStatus(ctx, buyerCarol, uuid.New(), SalesOrderApproved)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestApproveRollsBackWhenNoVendorAvailable(t *testing.T) {
	svc, repo := newTestService(t, &stubAssigner{err: ErrNoVendorAvailable})
	ctx := context.Background()

	order, err := svc.CreateSalesOrder(ctx, sellerAlice, CreateSalesOrderRequest{CustomerName: "Acme", SP: 100, CP: 50})
	require.NoError(t, err)

	_, err = svc.SetSalesOrderStatus(ctx, buyerCarol, order.ID, SalesOrderApproved)
	require.ErrorIs(t, err, shared.ErrValidation)

	// Nothing committed: the order is still Pending and no purchase order exists.
	current := repo.sales[order.ID]
	require.Equal(t, SalesOrderPending, current.Status)
	require.Empty(t, repo.purchases)
}

func approvedPurchaseOrder(t *testing.T, svc *Service, repo *memoryRepo) (SalesOrder, PurchaseOrder) {
	t.Helper()
	ctx := context.Background()
	order, err := svc.CreateSalesOrder(ctx, sellerAlice, CreateSalesOrderRequest{CustomerName: "Acme", SP: 1500, CP: 1000})
	require.NoError(t, err)
	_, err = svc.SetSalesOrderStatus(ctx, buyerCarol, order.ID, SalesOrderApproved)
	require.NoError(t, err)
	for _, po := range repo.purchases {
		if po.SalesOrderID == order.ID {
			return repo.sales[order.ID], po
		}
	}
	t.Fatal("no purchase order created")
	return SalesOrder{}, PurchaseOrder{}
}

func TestVendorConfirmsThenDelivers(t *testing.T) {
	svc, repo := newTestService(t, nil)
	ctx := context.Background()

	so, po := approvedPurchaseOrder(t, svc, repo)

	confirmed, err := svc.SetPurchaseOrderStatus(ctx, vendorDave, po.ID, PurchaseOrderConfirmed)
	require.NoError(t, err)
	require.Equal(t, PurchaseOrderConfirmed, confirmed.Status)

	delivered, err := svc.SetPurchaseOrderStatus(ctx, vendorDave, po.ID, PurchaseOrderDelivered)
	require.NoError(t, err)
	require.Equal(t, PurchaseOrderDelivered, delivered.Status)

	// Delivery reflects onto the sales order.
	require.Equal(t, SalesOrderDelivered, repo.sales[so.ID].Status)
}

func TestVendorCannotSkipConfirmation(t *testing.T) {
	svc, repo := newTestService(t, nil)
	ctx := context.Background()

	so, po := approvedPurchaseOrder(t, svc, repo)

	_, err := svc.SetPurchaseOrderStatus(ctx, vendorDave, po.ID, PurchaseOrderDelivered)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
	require.Equal(t, PurchaseOrderPending, repo.purchases[po.ID].Status)
	require.Equal(t, SalesOrderApproved, repo.sales[so.ID].Status)
}

func TestVendorOwnershipEnforced(t *testing.T) {
	svc, repo := newTestService(t, nil)
	ctx := context.Background()

	_, po := approvedPurchaseOrder(t, svc, repo)

	_, err := svc.SetPurchaseOrderStatus(ctx, vendorErin, po.ID, PurchaseOrderConfirmed)
	require.ErrorIs(t, err, shared.ErrForbidden)

	_, err = svc.SetPurchaseOrderStatus(ctx, vendorDave, uuid.New(), PurchaseOrderConfirmed)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDeliveryConflictWhenSalesOrderNoLongerApproved(t *testing.T) {
	svc, repo := newTestService(t, nil)
	ctx := context.Background()

	so, po := approvedPurchaseOrder(t, svc, repo)
	_, err := svc.SetPurchaseOrderStatus(ctx, vendorDave, po.ID, PurchaseOrderConfirmed)
	require.NoError(t, err)

	// Another writer moved the sales order out of Approved between the
	// vendor's read and the delivery.
	moved := repo.sales[so.ID]
	moved.Status = SalesOrderDelivered
	repo.sales[so.ID] = moved

	_, err = svc.SetPurchaseOrderStatus(ctx, vendorDave, po.ID, PurchaseOrderDelivered)
	require.ErrorIs(t, err, shared.ErrConflict)

	// The whole transaction rolled back: the purchase order did not advance.
	require.Equal(t, PurchaseOrderConfirmed, repo.purchases[po.ID].Status)
}

func TestSetPurchaseOrderStatusValidation(t *testing.T) {
	svc, repo := newTestService(t, nil)
	ctx := context.Background()

	_, po := approvedPurchaseOrder(t, svc, repo)

	_, err := svc.SetPurchaseOrderStatus(ctx, vendorDave, po.ID, PurchaseOrderPending)
	require.ErrorIs(t, err, shared.ErrValidation)
	_, err = svc.SetPurchaseOrderStatus(ctx, vendorDave, po.ID, PurchaseOrderStatus("Shipped"))
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.SetPurchaseOrderStatus(ctx, buyerCarol, po.ID, PurchaseOrderConfirmed)
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestListPurchaseOrdersScopedToVendor(t *testing.T) {
	svc, repo := newTestService(t, nil)
	ctx := context.Background()

	_, po := approvedPurchaseOrder(t, svc, repo)

	mine, err := svc.ListPurchaseOrders(ctx, vendorDave)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, po.ID, mine[0].ID)
	require.Equal(t, "Acme", mine[0].SalesOrder.CustomerName)

	other, err := svc.ListPurchaseOrders(ctx, vendorErin)
	require.NoError(t, err)
	require.Empty(t, other)

	_, err = svc.ListPurchaseOrders(ctx, sellerAlice)
	require.ErrorIs(t, err, shared.ErrForbidden)
	_, err = svc.ListPurchaseOrders(ctx, buyerCarol)
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestDeleteSalesOrderCascades(t *testing.T) {
	svc, repo := newTestService(t, nil)
	ctx := context.Background()

	so, po := approvedPurchaseOrder(t, svc, repo)

	require.NoError(t, svc.DeleteSalesOrder(ctx, sellerAlice, so.ID))
	_, ok := repo.sales[so.ID]
	require.False(t, ok)
	_, ok = repo.purchases[po.ID]
	require.False(t, ok, "no orphan purchase order may survive the cascade")
}

func TestDeleteSalesOrderOwnership(t *testing.T) {
	svc, repo := newTestService(t, nil)
	ctx := context.Background()

	order, err := svc.CreateSalesOrder(ctx, sellerAlice, CreateSalesOrderRequest{CustomerName: "Acme", SP: 100, CP: 50})
	require.NoError(t, err)

	err = svc.DeleteSalesOrder(ctx, sellerBob, order.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
	_, ok := repo.sales[order.ID]
	require.True(t, ok)

	err = svc.DeleteSalesOrder(ctx, buyerCarol, order.ID)
	require.ErrorIs(t, err, shared.ErrForbidden)

	err = svc.DeleteSalesOrder(ctx, sellerAlice, uuid.New())
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestAssignerErrorSurfaces(t *testing.T) {
	failure := errors.New("vendor directory unavailable")
	svc, _ := newTestService(t, &stubAssigner{err: failure})
	ctx := context.Background()

	order, err := svc.CreateSalesOrder(ctx, sellerAlice, CreateSalesOrderRequest{CustomerName: "Acme", SP: 100, CP: 50})
	require.NoError(t, err)

	_, err = svc.SetSalesOrderStatus(ctx, buyerCarol, order.ID, SalesOrderApproved)
	require.ErrorIs(t, err, failure)
}
