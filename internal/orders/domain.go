// Package orders implements the order lifecycle: sales orders created by
// salespersons, approved or rejected by purchasing, and fulfilled through
// linked purchase orders owned by vendors.
package orders

import (
	"time"

	"github.com/google/uuid"
)

// SalesOrderStatus enumerates the sales order lifecycle.
type SalesOrderStatus string

const (
	SalesOrderPending   SalesOrderStatus = "Pending"
	SalesOrderApproved  SalesOrderStatus = "Approved"
	SalesOrderRejected  SalesOrderStatus = "Rejected"
	SalesOrderDelivered SalesOrderStatus = "Delivered"
)

// PurchaseOrderStatus enumerates the purchase order lifecycle.
type PurchaseOrderStatus string

const (
	PurchaseOrderPending   PurchaseOrderStatus = "Pending"
	PurchaseOrderConfirmed PurchaseOrderStatus = "Confirmed"
	PurchaseOrderDelivered PurchaseOrderStatus = "Delivered"
)

// SalesOrder is the customer-facing commercial record. Profit and
// ProfitPercentage are derived from SP/CP and never independently settable.
type SalesOrder struct {
	ID               uuid.UUID        `json:"id"`
	CustomerName     string           `json:"customerName"`
	SP               float64          `json:"SP"`
	CP               float64          `json:"CP"`
	Profit           float64          `json:"profit"`
	ProfitPercentage float64          `json:"profitPercentage"`
	Status           SalesOrderStatus `json:"status"`
	CreatedBy        int64            `json:"createdBy"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// SalesOrderWithCreator joins the creator's display fields for listings.
type SalesOrderWithCreator struct {
	SalesOrder
	CreatorName  string `json:"creatorName"`
	CreatorEmail string `json:"creatorEmail"`
}

// PurchaseOrder is the vendor-facing fulfilment record. It exists if and
// only if its sales order has been approved, and a sales order has at most
// one purchase order. SalesOrderID and VendorID are immutable.
type PurchaseOrder struct {
	ID           uuid.UUID           `json:"id"`
	SalesOrderID uuid.UUID           `json:"salesOrderId"`
	VendorID     int64               `json:"vendorId"`
	Status       PurchaseOrderStatus `json:"status"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

// PurchaseOrderWithSalesOrder joins the originating sales order for vendor
// listings.
type PurchaseOrderWithSalesOrder struct {
	PurchaseOrder
	SalesOrder SalesOrder `json:"salesOrder"`
}
