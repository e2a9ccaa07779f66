package orders

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/orderflow/orderflow/internal/authz"
	"github.com/orderflow/orderflow/internal/shared"
)

// Service is the order lifecycle coordinator. Every operation consults the
// authorization guard, then the transition rules, then the financial
// calculator where prices change, and commits through the repository.
// Operations are atomic: the full effect (including cascaded purchase order
// creation or deletion) commits, or none of it does.
type Service struct {
	logger   *slog.Logger
	repo     Repository
	guard    *authz.Guard
	assigner VendorAssigner
	validate *validator.Validate
}

// NewService constructs the coordinator.
func NewService(logger *slog.Logger, repo Repository, guard *authz.Guard, assigner VendorAssigner) *Service {
	return &Service{
		logger:   logger,
		repo:     repo,
		guard:    guard,
		assigner: assigner,
		validate: validator.New(),
	}
}

// CreateSalesOrder persists a new Pending sales order owned by the actor.
func (s *Service) CreateSalesOrder(ctx context.Context, actor shared.Actor, req CreateSalesOrderRequest) (*SalesOrder, error) {
	if err := s.guard.Authorize(actor, authz.OpCreateSalesOrder); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}
	name := strings.TrimSpace(req.CustomerName)
	if name == "" {
		return nil, fmt.Errorf("%w: customer name required", shared.ErrValidation)
	}

	profit, margin := ComputeProfit(req.SP, req.CP)
	now := time.Now().UTC()
	order := SalesOrder{
		ID:               uuid.New(),
		CustomerName:     name,
		SP:               req.SP,
		CP:               req.CP,
		Profit:           profit,
		ProfitPercentage: margin,
		Status:           SalesOrderPending,
		CreatedBy:        actor.ID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.repo.CreateSalesOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("create sales order: %w", err)
	}
	s.logger.Info("sales order created",
		slog.String("id", order.ID.String()), slog.Int64("created_by", actor.ID))
	return &order, nil
}

// ListSalesOrders returns orders visible to the actor, newest first.
// Salespersons see only their own records.
func (s *Service) ListSalesOrders(ctx context.Context, actor shared.Actor) ([]SalesOrderWithCreator, error) {
	if err := s.guard.Authorize(actor, authz.OpListSalesOrders); err != nil {
		return nil, err
	}
	return s.repo.ListSalesOrders(ctx, s.salesOrderScope(actor))
}

// UpdateSalesOrder applies a partial field update, recomputing the derived
// profit fields whenever SP or CP changes. A record hidden from the actor
// by ownership scoping reads as not found.
func (s *Service) UpdateSalesOrder(ctx context.Context, actor shared.Actor, id uuid.UUID, req UpdateSalesOrderRequest) (*SalesOrder, error) {
	if err := s.guard.Authorize(actor, authz.OpUpdateSalesOrder); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}
	if req.Status != nil {
		return nil, fmt.Errorf("%w: status is managed by its own transitions", shared.ErrValidation)
	}
	if req.Profit != nil || req.ProfitPercentage != nil {
		return nil, fmt.Errorf("%w: profit fields are derived and cannot be set", shared.ErrValidation)
	}

	scope := s.salesOrderScope(actor)
	order, err := s.repo.GetSalesOrder(ctx, id, scope)
	if err != nil {
		return nil, err
	}

	if req.CustomerName != nil {
		name := strings.TrimSpace(*req.CustomerName)
		if name == "" {
			return nil, fmt.Errorf("%w: customer name required", shared.ErrValidation)
		}
		order.CustomerName = name
	}
	if req.SP != nil {
		order.SP = *req.SP
	}
	if req.CP != nil {
		order.CP = *req.CP
	}
	if req.SP != nil || req.CP != nil {
		order.Profit, order.ProfitPercentage = ComputeProfit(order.SP, order.CP)
	}
	order.UpdatedAt = time.Now().UTC()

	ok, err := s.repo.UpdateSalesOrderFields(ctx, *order)
	if err != nil {
		return nil, fmt.Errorf("update sales order: %w", err)
	}
	if !ok {
		return nil, shared.ErrNotFound
	}
	return order, nil
}

// DeleteSalesOrder removes an order the actor owns and cascades removal of
// any linked purchase order, in one transaction.
func (s *Service) DeleteSalesOrder(ctx context.Context, actor shared.Actor, id uuid.UUID) error {
	if err := s.guard.Authorize(actor, authz.OpDeleteSalesOrder); err != nil {
		return err
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.DeletePurchaseOrdersBySalesOrder(ctx, id); err != nil {
			return fmt.Errorf("cascade purchase orders: %w", err)
		}
		ok, err := repo.DeleteSalesOrder(ctx, id, actor.ID)
		if err != nil {
			return fmt.Errorf("delete sales order: %w", err)
		}
		if !ok {
			return shared.ErrNotFound
		}
		return nil
	})
	if err == nil {
		s.logger.Info("sales order deleted", slog.String("id", id.String()))
	}
	return err
}

// SetSalesOrderStatus records the purchasing decision. Approval also
// creates the linked purchase order with an assigned vendor; both writes
// commit together or not at all. The conditional write on Pending makes a
// repeated or racing decision fail instead of overwriting the first.
func (s *Service) SetSalesOrderStatus(ctx context.Context, actor shared.Actor, id uuid.UUID, target SalesOrderStatus) (*SalesOrder, error) {
	if err := s.guard.Authorize(actor, authz.OpSetSalesOrderStatus); err != nil {
		return nil, err
	}
	if !target.IsDecisionTarget() {
		return nil, fmt.Errorf("%w: status must be %s or %s", shared.ErrValidation, SalesOrderApproved, SalesOrderRejected)
	}

	var updated *SalesOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		ok, err := repo.UpdateSalesOrderStatus(ctx, id, SalesOrderPending, target)
		if err != nil {
			return fmt.Errorf("set sales order status: %w", err)
		}
		if !ok {
			existing, err := repo.GetSalesOrder(ctx, id, nil)
			if err != nil {
				return err
			}
			return fmt.Errorf("%w: order is %s, not %s", shared.ErrInvalidTransition, existing.Status, SalesOrderPending)
		}

		if target == SalesOrderApproved {
			vendorID, err := s.assigner.NextVendor(ctx)
			if err != nil {
				return fmt.Errorf("assign vendor: %w", err)
			}
			now := time.Now().UTC()
			po := PurchaseOrder{
				ID:           uuid.New(),
				SalesOrderID: id,
				VendorID:     vendorID,
				Status:       PurchaseOrderPending,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := repo.CreatePurchaseOrder(ctx, po); err != nil {
				return fmt.Errorf("create purchase order: %w", err)
			}
		}

		updated, err = repo.GetSalesOrder(ctx, id, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("sales order decided",
		slog.String("id", id.String()), slog.String("status", string(target)), slog.Int64("decided_by", actor.ID))
	return updated, nil
}

// ListPurchaseOrders returns the purchase orders assigned to the vendor,
// newest first, each joined with its sales order.
func (s *Service) ListPurchaseOrders(ctx context.Context, actor shared.Actor) ([]PurchaseOrderWithSalesOrder, error) {
	if err := s.guard.Authorize(actor, authz.OpListPurchaseOrders); err != nil {
		return nil, err
	}
	return s.repo.ListPurchaseOrders(ctx, actor.ID)
}

// SetPurchaseOrderStatus advances a purchase order the vendor owns along
// the strict Pending -> Confirmed -> Delivered ordering. Delivery also
// reflects Delivered onto the linked sales order in the same transaction.
func (s *Service) SetPurchaseOrderStatus(ctx context.Context, actor shared.Actor, id uuid.UUID, target PurchaseOrderStatus) (*PurchaseOrder, error) {
	if err := s.guard.Authorize(actor, authz.OpSetPurchaseOrderStatus); err != nil {
		return nil, err
	}
	if !target.IsFulfilmentTarget() {
		return nil, fmt.Errorf("%w: status must be %s or %s", shared.ErrValidation, PurchaseOrderConfirmed, PurchaseOrderDelivered)
	}
	from, _ := target.prior()

	var updated *PurchaseOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		po, err := repo.GetPurchaseOrder(ctx, id)
		if err != nil {
			return err
		}
		if po.VendorID != actor.ID {
			return shared.ErrForbidden
		}

		ok, err := repo.UpdatePurchaseOrderStatus(ctx, id, actor.ID, from, target)
		if err != nil {
			return fmt.Errorf("set purchase order status: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: %s is only reachable from %s, order is %s",
				shared.ErrInvalidTransition, target, from, po.Status)
		}

		if target == PurchaseOrderDelivered {
			ok, err := repo.UpdateSalesOrderStatus(ctx, po.SalesOrderID, SalesOrderApproved, SalesOrderDelivered)
			if err != nil {
				return fmt.Errorf("reflect delivery on sales order: %w", err)
			}
			if !ok {
				return fmt.Errorf("%w: linked sales order is no longer %s", shared.ErrConflict, SalesOrderApproved)
			}
		}

		updated, err = repo.GetPurchaseOrder(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("purchase order transitioned",
		slog.String("id", id.String()), slog.String("status", string(target)), slog.Int64("vendor_id", actor.ID))
	return updated, nil
}

// salesOrderScope returns the creator filter for the actor, nil when the
// actor sees all records.
func (s *Service) salesOrderScope(actor shared.Actor) *int64 {
	if s.guard.ScopesSalesOrders(actor) {
		owner := actor.ID
		return &owner
	}
	return nil
}
