package orders

// Sales order machine:
//
//	Pending -> Approved | Rejected   (purchasing decision)
//	Approved -> Delivered            (reflection of the purchase order)
//
// Approved, Rejected and Delivered are terminal for the approve/reject
// operation.
var salesOrderTransitions = map[SalesOrderStatus][]SalesOrderStatus{
	SalesOrderPending:  {SalesOrderApproved, SalesOrderRejected},
	SalesOrderApproved: {SalesOrderDelivered},
}

// Purchase order machine, strictly ordered:
//
//	Pending -> Confirmed -> Delivered
var purchaseOrderTransitions = map[PurchaseOrderStatus][]PurchaseOrderStatus{
	PurchaseOrderPending:   {PurchaseOrderConfirmed},
	PurchaseOrderConfirmed: {PurchaseOrderDelivered},
}

// Valid reports whether s is a known sales order status.
func (s SalesOrderStatus) Valid() bool {
	switch s {
	case SalesOrderPending, SalesOrderApproved, SalesOrderRejected, SalesOrderDelivered:
		return true
	}
	return false
}

// CanTransitionTo reports whether target is reachable from s.
func (s SalesOrderStatus) CanTransitionTo(target SalesOrderStatus) bool {
	for _, next := range salesOrderTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// IsDecisionTarget reports whether s is a legal target for the purchasing
// approve/reject operation: exactly the statuses reachable from Pending.
// Delivered is reached through the linked purchase order, never directly.
func (s SalesOrderStatus) IsDecisionTarget() bool {
	return SalesOrderPending.CanTransitionTo(s)
}

// Valid reports whether s is a known purchase order status.
func (s PurchaseOrderStatus) Valid() bool {
	switch s {
	case PurchaseOrderPending, PurchaseOrderConfirmed, PurchaseOrderDelivered:
		return true
	}
	return false
}

// CanTransitionTo reports whether target is reachable from s.
func (s PurchaseOrderStatus) CanTransitionTo(target PurchaseOrderStatus) bool {
	for _, next := range purchaseOrderTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// IsFulfilmentTarget reports whether s is a legal target for the vendor
// transition operation: any status with a predecessor in the machine.
func (s PurchaseOrderStatus) IsFulfilmentTarget() bool {
	_, ok := s.prior()
	return ok
}

// prior returns the only status s may be reached from. The strict ordering
// guarantees at most one predecessor.
func (s PurchaseOrderStatus) prior() (PurchaseOrderStatus, bool) {
	for from := range purchaseOrderTransitions {
		if from.CanTransitionTo(s) {
			return from, true
		}
	}
	return "", false
}
